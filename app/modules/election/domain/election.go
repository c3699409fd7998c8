package electiondomain

import (
	"slices"
	"strings"
	"time"
)

// Ballot is one voter's selections. Selections are in rank order for
// preferential elections; for block elections the order carries no meaning.
type Ballot struct {
	ID          BallotID
	VoterID     VoterID
	Selections  []CandidateID
	SubmittedAt *time.Time
}

// Submitted reports whether the ballot has been finalized.
func (b Ballot) Submitted() bool { return b.SubmittedAt != nil }

// Election is the aggregate root. Values handed out by the snapshot cache are
// deep copies, so callers may not rely on mutating them.
type Election struct {
	ID            ElectionID
	Title         string
	Status        Status
	System        VotingSystem
	MinimumVotes  int
	Requirements  Requirements
	CreatedAt     time.Time
	Duration      *Duration
	BallotMode    BallotMode
	Candidates    []Candidate
	Polls         []Poll
	Voters        []Voter
	Ballots       []Ballot
	StatusChanges []StatusChange

	// LastCandidateID is the highest candidate id ever assigned. It survives
	// candidate removal so ids are not reused.
	LastCandidateID CandidateID
}

// NewElection builds a CLOSED election with its CREATED audit entry. The id is
// assigned by the store.
func NewElection(title string, system VotingSystem, minimumVotes int, actor string, now time.Time) (*Election, error) {
	title, err := NormalizeTitle(title)
	if err != nil {
		return nil, err
	}
	system, err = ParseVotingSystem(string(system))
	if err != nil {
		return nil, err
	}
	actor, err = NormalizeActor(actor)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Election{
		Title:         title,
		Status:        StatusClosed,
		System:        system,
		MinimumVotes:  ClampMinimumVotes(minimumVotes),
		CreatedAt:     now,
		BallotMode:    BallotModeManual,
		StatusChanges: []StatusChange{NewStatusChange(now, ChangeCreated, actor, "")},
	}, nil
}

// latest returns the time of the most recent audit entry of the given type.
func (e *Election) latest(t ChangeType) (time.Time, bool) {
	var (
		at    time.Time
		found bool
	)
	for _, sc := range e.StatusChanges {
		if sc.Type == t && (!found || !sc.Time.Before(at)) {
			at, found = sc.Time, true
		}
	}
	return at, found
}

// OpenedAt is the time of the latest OPENED entry.
func (e *Election) OpenedAt() (time.Time, bool) { return e.latest(ChangeOpened) }

// DeletedAt is the time of the latest DELETED entry.
func (e *Election) DeletedAt() (time.Time, bool) { return e.latest(ChangeDeleted) }

// LastExportedAt is the time of the latest EXPORTED entry.
func (e *Election) LastExportedAt() (time.Time, bool) { return e.latest(ChangeExported) }

// ClosesAt is derived from the opening time and the configured duration. It
// is absent when no duration is set or the election was never opened.
func (e *Election) ClosesAt() (time.Time, bool) {
	if e.Duration == nil {
		return time.Time{}, false
	}
	opened, ok := e.OpenedAt()
	if !ok {
		return time.Time{}, false
	}
	return opened.Add(e.Duration.Total()), true
}

// DueForAutoClose reports whether an OPEN election has passed its closing time.
func (e *Election) DueForAutoClose(now time.Time) bool {
	if e.Status != StatusOpen {
		return false
	}
	closesAt, ok := e.ClosesAt()
	return ok && !now.Before(closesAt)
}

// DueForPurge reports whether a DELETED election has outlived its retention.
func (e *Election) DueForPurge(now time.Time, retention time.Duration) bool {
	if e.Status != StatusDeleted {
		return false
	}
	deletedAt, ok := e.DeletedAt()
	if !ok {
		// Deleted without an audit entry; nothing to measure against.
		return retention <= 0
	}
	return now.Sub(deletedAt) >= retention
}

// Candidate looks up a current candidate.
func (e *Election) Candidate(id CandidateID) (Candidate, bool) {
	i := slices.IndexFunc(e.Candidates, func(c Candidate) bool { return c.ID == id })
	if i < 0 {
		return Candidate{}, false
	}
	return e.Candidates[i], true
}

// CandidateByName finds a candidate by exact name.
func (e *Election) CandidateByName(name string) (Candidate, bool) {
	i := slices.IndexFunc(e.Candidates, func(c Candidate) bool { return c.Name == name })
	if i < 0 {
		return Candidate{}, false
	}
	return e.Candidates[i], true
}

// Voter looks up a voter by id.
func (e *Election) Voter(id VoterID) (Voter, bool) {
	i := slices.IndexFunc(e.Voters, func(v Voter) bool { return v.ID == id })
	if i < 0 {
		return Voter{}, false
	}
	return e.Voters[i], true
}

// VoterByName finds a voter, ignoring case.
func (e *Election) VoterByName(name string) (Voter, bool) {
	i := slices.IndexFunc(e.Voters, func(v Voter) bool { return strings.EqualFold(v.Name, name) })
	if i < 0 {
		return Voter{}, false
	}
	return e.Voters[i], true
}

// HasPoll reports whether the election owns a poll at p's location.
func (e *Election) HasPoll(p Poll) bool {
	return slices.ContainsFunc(e.Polls, p.SameLocation)
}

// BallotOf returns the ballot cast by a voter.
func (e *Election) BallotOf(voter VoterID) (Ballot, bool) {
	i := slices.IndexFunc(e.Ballots, func(b Ballot) bool { return b.VoterID == voter })
	if i < 0 {
		return Ballot{}, false
	}
	return e.Ballots[i], true
}

// HasVoted reports whether the voter has a submitted ballot.
func (e *Election) HasVoted(voter VoterID) bool {
	b, ok := e.BallotOf(voter)
	return ok && b.Submitted()
}

// CandidateReferenced reports whether any ballot selects the candidate.
func (e *Election) CandidateReferenced(id CandidateID) bool {
	for _, b := range e.Ballots {
		if slices.Contains(b.Selections, id) {
			return true
		}
	}
	return false
}

// NextCandidateID returns the id the next candidate receives. It never
// returns an id handed out before, even one whose candidate was removed.
func (e *Election) NextCandidateID() CandidateID {
	next := e.LastCandidateID
	for _, c := range e.Candidates {
		next = max(next, c.ID)
	}
	return next + 1
}

// NextVoterID returns the id the next voter receives.
func (e *Election) NextVoterID() VoterID {
	var next VoterID
	for _, v := range e.Voters {
		next = max(next, v.ID)
	}
	return next + 1
}

// NextBallotID returns the id the next ballot receives.
func (e *Election) NextBallotID() BallotID {
	var next BallotID
	for _, b := range e.Ballots {
		next = max(next, b.ID)
	}
	return next + 1
}

// Clone returns a deep copy.
func (e *Election) Clone() *Election {
	if e == nil {
		return nil
	}
	out := *e
	out.Requirements = e.Requirements.clone()
	if e.Duration != nil {
		d := *e.Duration
		out.Duration = &d
	}
	out.Candidates = slices.Clone(e.Candidates)
	out.Polls = slices.Clone(e.Polls)
	out.Voters = slices.Clone(e.Voters)
	out.Ballots = make([]Ballot, len(e.Ballots))
	for i, b := range e.Ballots {
		b.Selections = slices.Clone(b.Selections)
		if b.SubmittedAt != nil {
			at := *b.SubmittedAt
			b.SubmittedAt = &at
		}
		out.Ballots[i] = b
	}
	out.StatusChanges = make([]StatusChange, len(e.StatusChanges))
	for i, sc := range e.StatusChanges {
		out.StatusChanges[i] = sc.Clone()
	}
	return &out
}
