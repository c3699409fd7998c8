package electiondb

import (
	"fmt"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
)

// electionRows groups the rows that make up one aggregate.
type electionRows struct {
	election     Election
	requirements *Requirements
	permissions  []RequirementPermission
	candidates   []Candidate
	polls        []Poll
	voters       []Voter
	ballots      []Ballot
	selections   []BallotSelection
	changes      []StatusChange
}

// toDomain converts the DB rows to the domain aggregate. Children are
// expected in their canonical order.
func toDomain(rows electionRows) (*electiondomain.Election, error) {
	status, err := electiondomain.ParseStatus(rows.election.Status)
	if err != nil {
		return nil, err
	}
	system, err := electiondomain.ParseVotingSystem(rows.election.System)
	if err != nil {
		return nil, fmt.Errorf("election %d: %w", rows.election.ID, err)
	}
	mode, err := electiondomain.ParseBallotMode(rows.election.BallotMode)
	if err != nil {
		return nil, fmt.Errorf("election %d: %w", rows.election.ID, err)
	}

	e := &electiondomain.Election{
		ID:           electiondomain.ElectionID(rows.election.ID),
		Title:        rows.election.Title,
		Status:       status,
		System:       system,
		MinimumVotes: electiondomain.ClampMinimumVotes(rows.election.MinimumVotes),
		CreatedAt:    rows.election.CreatedAt.UTC(),
		Duration:     durationFromColumns(rows.election),
		BallotMode:   mode,

		LastCandidateID: electiondomain.CandidateID(rows.election.LastCandidateID),
	}

	if rows.requirements != nil {
		e.Requirements.ActivePlaytimeMinutes = rows.requirements.ActivePlaytimeMinutes
	}
	for _, p := range rows.permissions {
		e.Requirements.Permissions = append(e.Requirements.Permissions, p.Permission)
	}
	for _, c := range rows.candidates {
		e.Candidates = append(e.Candidates, electiondomain.Candidate{ID: electiondomain.CandidateID(c.ID), Name: c.Name, Party: c.Party})
	}
	for _, p := range rows.polls {
		e.Polls = append(e.Polls, electiondomain.Poll{World: p.World, X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, v := range rows.voters {
		e.Voters = append(e.Voters, electiondomain.Voter{ID: electiondomain.VoterID(v.ID), Name: v.Name})
	}

	byBallot := make(map[int][]electiondomain.CandidateID, len(rows.ballots))
	for _, s := range rows.selections {
		byBallot[s.BallotID] = append(byBallot[s.BallotID], electiondomain.CandidateID(s.CandidateID))
	}
	for _, b := range rows.ballots {
		ballot := electiondomain.Ballot{
			ID:         electiondomain.BallotID(b.ID),
			VoterID:    electiondomain.VoterID(b.VoterID),
			Selections: byBallot[b.ID],
		}
		if b.SubmittedAt != nil {
			at := b.SubmittedAt.UTC()
			ballot.SubmittedAt = &at
		}
		e.Ballots = append(e.Ballots, ballot)
	}

	for _, sc := range rows.changes {
		typ, err := electiondomain.ParseChangeType(sc.Type)
		if err != nil {
			return nil, fmt.Errorf("election %d change %d: %w", rows.election.ID, sc.ID, err)
		}
		change := electiondomain.StatusChange{Time: sc.ChangedAt.UTC(), Type: typ, Actor: sc.Actor}
		if sc.Details != nil {
			d := *sc.Details
			change.Details = &d
		}
		e.StatusChanges = append(e.StatusChanges, change)
	}
	return e, nil
}

func durationFromColumns(row Election) *electiondomain.Duration {
	if row.DurationDays == nil && row.DurationHours == nil && row.DurationMinutes == nil && row.DurationSeconds == nil {
		return nil
	}
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return &electiondomain.Duration{
		Days:    deref(row.DurationDays),
		Hours:   deref(row.DurationHours),
		Minutes: deref(row.DurationMinutes),
		Seconds: deref(row.DurationSeconds),
	}
}

func durationColumns(d *electiondomain.Duration) (days, hours, minutes, seconds *int) {
	if d == nil {
		return nil, nil, nil, nil
	}
	v := *d
	return &v.Days, &v.Hours, &v.Minutes, &v.Seconds
}

// toElectionModel converts the domain aggregate's own columns to a row.
func toElectionModel(e *electiondomain.Election) *Election {
	row := &Election{
		ID:           int64(e.ID),
		Title:        e.Title,
		Status:       string(e.Status),
		System:       string(e.System),
		MinimumVotes: electiondomain.ClampMinimumVotes(e.MinimumVotes),
		BallotMode:   string(e.BallotMode),
		CreatedAt:    e.CreatedAt.UTC(),

		LastCandidateID: int(e.LastCandidateID),
	}
	if row.BallotMode == "" {
		row.BallotMode = string(electiondomain.BallotModeManual)
	}
	row.DurationDays, row.DurationHours, row.DurationMinutes, row.DurationSeconds = durationColumns(e.Duration)
	return row
}

func toStatusChangeModel(id electiondomain.ElectionID, sc electiondomain.StatusChange) *StatusChange {
	row := &StatusChange{
		ElectionID: int64(id),
		ChangedAt:  sc.Time.UTC(),
		Type:       sc.Type.String(),
		Actor:      sc.Actor,
	}
	if sc.Details != nil {
		d := *sc.Details
		row.Details = &d
	}
	return row
}
