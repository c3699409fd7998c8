package electionservice

import (
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
)

// ElectionSnapshot is an immutable, fully materialized view of one election.
// Every accessor returns copies, so snapshots can be shared freely and read
// from any goroutine without locking.
type ElectionSnapshot struct {
	e *electiondomain.Election
}

func newSnapshot(e *electiondomain.Election) ElectionSnapshot {
	return ElectionSnapshot{e: e.Clone()}
}

// Valid reports whether the snapshot holds an election.
func (s ElectionSnapshot) Valid() bool { return s.e != nil }

func (s ElectionSnapshot) ID() electiondomain.ElectionID              { return s.e.ID }
func (s ElectionSnapshot) Title() string                              { return s.e.Title }
func (s ElectionSnapshot) Status() electiondomain.Status              { return s.e.Status }
func (s ElectionSnapshot) System() electiondomain.VotingSystem        { return s.e.System }
func (s ElectionSnapshot) MinimumVotes() int                          { return s.e.MinimumVotes }
func (s ElectionSnapshot) BallotMode() electiondomain.BallotMode      { return s.e.BallotMode }
func (s ElectionSnapshot) CreatedAt() time.Time                       { return s.e.CreatedAt }
func (s ElectionSnapshot) OpenedAt() (time.Time, bool)                { return s.e.OpenedAt() }
func (s ElectionSnapshot) ClosesAt() (time.Time, bool)                { return s.e.ClosesAt() }
func (s ElectionSnapshot) DeletedAt() (time.Time, bool)               { return s.e.DeletedAt() }
func (s ElectionSnapshot) LastExportedAt() (time.Time, bool)          { return s.e.LastExportedAt() }
func (s ElectionSnapshot) HasVoted(voter electiondomain.VoterID) bool { return s.e.HasVoted(voter) }
func (s ElectionSnapshot) Tally() []electiondomain.TallyEntry         { return electiondomain.Tally(s.e) }
func (s ElectionSnapshot) SubmittedBallots() int                      { return electiondomain.SubmittedBallots(s.e) }

// Duration returns a copy of the configured duration, if any.
func (s ElectionSnapshot) Duration() (electiondomain.Duration, bool) {
	if s.e.Duration == nil {
		return electiondomain.Duration{}, false
	}
	return *s.e.Duration, true
}

func (s ElectionSnapshot) Requirements() electiondomain.Requirements {
	return electiondomain.Requirements{
		Permissions:           slices.Clone(s.e.Requirements.Permissions),
		ActivePlaytimeMinutes: s.e.Requirements.ActivePlaytimeMinutes,
	}
}

func (s ElectionSnapshot) Candidates() []electiondomain.Candidate { return slices.Clone(s.e.Candidates) }
func (s ElectionSnapshot) Polls() []electiondomain.Poll           { return slices.Clone(s.e.Polls) }
func (s ElectionSnapshot) Voters() []electiondomain.Voter         { return slices.Clone(s.e.Voters) }

func (s ElectionSnapshot) Candidate(id electiondomain.CandidateID) (electiondomain.Candidate, bool) {
	return s.e.Candidate(id)
}

func (s ElectionSnapshot) VoterByName(name string) (electiondomain.Voter, bool) {
	return s.e.VoterByName(name)
}

func (s ElectionSnapshot) Ballots() []electiondomain.Ballot {
	return s.e.Clone().Ballots
}

func (s ElectionSnapshot) StatusChanges() []electiondomain.StatusChange {
	return s.e.Clone().StatusChanges
}

// Election returns a deep copy of the underlying aggregate.
func (s ElectionSnapshot) Election() *electiondomain.Election { return s.e.Clone() }

// snapshotIndex is never mutated once published.
type snapshotIndex struct {
	byID    map[electiondomain.ElectionID]ElectionSnapshot
	ordered []ElectionSnapshot
}

func buildIndex(byID map[electiondomain.ElectionID]ElectionSnapshot) *snapshotIndex {
	ordered := make([]ElectionSnapshot, 0, len(byID))
	for _, snap := range byID {
		ordered = append(ordered, snap)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })
	return &snapshotIndex{byID: byID, ordered: ordered}
}

// snapshotCache publishes copy-on-write indexes. Reads are a single atomic
// load; writers serialize on mu so concurrent swaps cannot drop each other.
type snapshotCache struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshotIndex]
}

func newSnapshotCache() *snapshotCache {
	c := &snapshotCache{}
	c.current.Store(buildIndex(map[electiondomain.ElectionID]ElectionSnapshot{}))
	return c
}

func (c *snapshotCache) Get(id electiondomain.ElectionID) (ElectionSnapshot, bool) {
	snap, ok := c.current.Load().byID[id]
	return snap, ok
}

func (c *snapshotCache) All() []ElectionSnapshot {
	return slices.Clone(c.current.Load().ordered)
}

func (c *snapshotCache) Put(e *electiondomain.Election) ElectionSnapshot {
	snap := newSnapshot(e)
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[electiondomain.ElectionID]ElectionSnapshot, len(c.current.Load().byID)+1)
	for id, s := range c.current.Load().byID {
		next[id] = s
	}
	next[e.ID] = snap
	c.current.Store(buildIndex(next))
	return snap
}

func (c *snapshotCache) Remove(id electiondomain.ElectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.current.Load().byID[id]; !ok {
		return
	}
	next := make(map[electiondomain.ElectionID]ElectionSnapshot, len(c.current.Load().byID))
	for k, s := range c.current.Load().byID {
		if k != id {
			next[k] = s
		}
	}
	c.current.Store(buildIndex(next))
}

func (c *snapshotCache) Replace(elections []*electiondomain.Election) {
	next := make(map[electiondomain.ElectionID]ElectionSnapshot, len(elections))
	for _, e := range elections {
		next[e.ID] = newSnapshot(e)
	}
	c.mu.Lock()
	c.current.Store(buildIndex(next))
	c.mu.Unlock()
}
