// Package electionexport renders one election's state for archiving: the JSON
// document, a spreadsheet workbook and a tally chart.
package electionexport

import (
	"io"
	"time"

	electionservice "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/application"
	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/goccy/go-json"
)

// Options controls what an export reveals.
type Options struct {
	// IncludeVoters adds the voter list. Combined with the ballots it
	// de-anonymizes votes, so only privileged exports set it.
	IncludeVoters bool
}

// Document is the export JSON contract.
type Document struct {
	ID            electiondomain.ElectionID   `json:"id"`
	Title         string                      `json:"title"`
	Status        electiondomain.Status       `json:"status"`
	System        electiondomain.VotingSystem `json:"system"`
	MinimumVotes  int                         `json:"minimumVotes"`
	CreatedAt     time.Time                   `json:"createdAt"`
	ClosesAt      *time.Time                  `json:"closesAt,omitempty"`
	Candidates    []CandidateEntry            `json:"candidates"`
	Polls         []PollEntry                 `json:"polls"`
	Ballots       []BallotEntry               `json:"ballots"`
	StatusChanges []StatusChangeEntry         `json:"statusChanges"`
	Voters        *[]VoterEntry               `json:"voters,omitempty"`
}

type CandidateEntry struct {
	ID   electiondomain.CandidateID `json:"id"`
	Name string                     `json:"name"`
}

type PollEntry struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

type BallotEntry struct {
	VoterID     electiondomain.VoterID       `json:"voterId"`
	Selections  []electiondomain.CandidateID `json:"selections"`
	SubmittedAt *time.Time                   `json:"submittedAt,omitempty"`
}

type StatusChangeEntry struct {
	Time time.Time                 `json:"time"`
	Type electiondomain.ChangeType `json:"type"`
}

type VoterEntry struct {
	ID   electiondomain.VoterID `json:"id"`
	Name string                 `json:"name"`
}

// Build assembles the export document from a snapshot.
func Build(snap electionservice.ElectionSnapshot, opts Options) Document {
	doc := Document{
		ID:            snap.ID(),
		Title:         snap.Title(),
		Status:        snap.Status(),
		System:        snap.System(),
		MinimumVotes:  snap.MinimumVotes(),
		CreatedAt:     snap.CreatedAt(),
		Candidates:    []CandidateEntry{},
		Polls:         []PollEntry{},
		Ballots:       []BallotEntry{},
		StatusChanges: []StatusChangeEntry{},
	}
	if closesAt, ok := snap.ClosesAt(); ok {
		doc.ClosesAt = &closesAt
	}

	for _, c := range snap.Candidates() {
		doc.Candidates = append(doc.Candidates, CandidateEntry{ID: c.ID, Name: c.Name})
	}
	for _, p := range snap.Polls() {
		doc.Polls = append(doc.Polls, PollEntry{World: p.World, X: p.X, Y: p.Y, Z: p.Z})
	}
	for _, b := range snap.Ballots() {
		selections := b.Selections
		if selections == nil {
			selections = []electiondomain.CandidateID{}
		}
		doc.Ballots = append(doc.Ballots, BallotEntry{VoterID: b.VoterID, Selections: selections, SubmittedAt: b.SubmittedAt})
	}
	for _, sc := range snap.StatusChanges() {
		doc.StatusChanges = append(doc.StatusChanges, StatusChangeEntry{Time: sc.Time, Type: sc.Type})
	}

	if opts.IncludeVoters {
		voters := []VoterEntry{}
		for _, v := range snap.Voters() {
			voters = append(voters, VoterEntry{ID: v.ID, Name: v.Name})
		}
		doc.Voters = &voters
	}
	return doc
}

// WriteJSON encodes the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
