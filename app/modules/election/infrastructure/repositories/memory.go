package electiondb

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/uptrace/bun"
)

// MemoryRepository keeps elections in process memory and enforces the same
// unique and RESTRICT rules as the Postgres schema, reporting violations with
// the same constraint names. Transactions are serialized and roll back by
// restoring the state captured when they began.
//
// Every RunInTx holds one repository-wide lock and deep-clones all stored
// elections up front, so writes to different elections do not run in
// parallel and each transaction costs O(total state). It backs tests and
// single-process memory mode; use the Postgres repository for real load.
type MemoryRepository struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	nextID    electiondomain.ElectionID
	elections map[electiondomain.ElectionID]*electiondomain.Election
	headItems map[headItemKey][]byte
}

type headItemKey struct {
	election  electiondomain.ElectionID
	candidate electiondomain.CandidateID
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		elections: make(map[electiondomain.ElectionID]*electiondomain.Election),
		headItems: make(map[headItemKey][]byte),
	}
}

var _ Repository = (*MemoryRepository)(nil)

type memoryState struct {
	nextID    electiondomain.ElectionID
	elections map[electiondomain.ElectionID]*electiondomain.Election
	headItems map[headItemKey][]byte
}

func (m *MemoryRepository) capture() memoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state := memoryState{
		nextID:    m.nextID,
		elections: make(map[electiondomain.ElectionID]*electiondomain.Election, len(m.elections)),
		headItems: make(map[headItemKey][]byte, len(m.headItems)),
	}
	for id, e := range m.elections {
		state.elections[id] = e.Clone()
	}
	for k, v := range m.headItems {
		state.headItems[k] = slices.Clone(v)
	}
	return state
}

func (m *MemoryRepository) restore(state memoryState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = state.nextID
	m.elections = state.elections
	m.headItems = state.headItems
}

func (m *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	saved := m.capture()
	committed := false
	defer func() {
		if !committed {
			m.restore(saved)
		}
	}()

	if err := fn(ctx, nil); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AcquireElectionLock is a no-op: RunInTx already serializes writers.
func (m *MemoryRepository) AcquireElectionLock(ctx context.Context, _ bun.IDB, _ electiondomain.ElectionID) error {
	return ctx.Err()
}

// get returns the stored election; callers hold mu.
func (m *MemoryRepository) get(id electiondomain.ElectionID) (*electiondomain.Election, error) {
	e, ok := m.elections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *MemoryRepository) LoadElection(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID) (*electiondomain.Election, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

func (m *MemoryRepository) LoadElections(ctx context.Context, _ bun.IDB) ([]*electiondomain.Election, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(m.elections))
	out := make([]*electiondomain.Election, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.elections[id].Clone())
	}
	return out, nil
}

func (m *MemoryRepository) InsertElection(ctx context.Context, _ bun.IDB, e *electiondomain.Election) (electiondomain.ElectionID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := e.Clone()
	stored.ID = m.nextID
	stored.Candidates, stored.Polls, stored.Voters, stored.Ballots = nil, nil, nil, nil
	m.elections[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemoryRepository) UpdateElection(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, updates *UpdateFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return err
	}
	if updates.IsEmpty() {
		return nil
	}
	if updates.Title != nil {
		e.Title = *updates.Title
	}
	if updates.Status != nil {
		e.Status = *updates.Status
	}
	if updates.System != nil {
		e.System = *updates.System
	}
	if updates.MinimumVotes != nil {
		e.MinimumVotes = electiondomain.ClampMinimumVotes(*updates.MinimumVotes)
	}
	if updates.BallotMode != nil {
		e.BallotMode = *updates.BallotMode
	}
	switch {
	case updates.ClearDuration:
		e.Duration = nil
	case updates.Duration != nil:
		d := *updates.Duration
		e.Duration = &d
	}
	return nil
}

func (m *MemoryRepository) ReplaceRequirements(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, req electiondomain.Requirements) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return newConstraintError(ErrForeignKeyViolation, "election_requirements_election_id_fkey")
	}
	perms := slices.Clone(req.Permissions)
	slices.Sort(perms)
	if len(slices.Compact(slices.Clone(perms))) != len(perms) {
		return newConstraintError(ErrUniqueViolation, "election_requirement_permissions_pkey")
	}
	e.Requirements = electiondomain.Requirements{Permissions: perms, ActivePlaytimeMinutes: req.ActivePlaytimeMinutes}
	return nil
}

func (m *MemoryRepository) InsertCandidate(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, c electiondomain.Candidate) (electiondomain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return electiondomain.Candidate{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return electiondomain.Candidate{}, newConstraintError(ErrForeignKeyViolation, "election_candidates_election_id_fkey")
	}
	if _, dup := e.CandidateByName(c.Name); dup {
		return electiondomain.Candidate{}, newConstraintError(ErrUniqueViolation, ConstraintCandidateName)
	}
	c.ID = e.NextCandidateID()
	e.LastCandidateID = c.ID
	e.Candidates = append(e.Candidates, c)
	return c, nil
}

func (m *MemoryRepository) DeleteCandidate(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(e.Candidates, func(c electiondomain.Candidate) bool { return c.ID == candidate })
	if i < 0 {
		return ErrNotFound
	}
	if e.CandidateReferenced(candidate) {
		return newConstraintError(ErrForeignKeyViolation, ConstraintSelectionCandidateFK)
	}
	e.Candidates = slices.Delete(e.Candidates, i, i+1)
	delete(m.headItems, headItemKey{election: id, candidate: candidate})
	return nil
}

func (m *MemoryRepository) SaveCandidateHeadItem(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return newConstraintError(ErrForeignKeyViolation, "election_candidate_head_items_election_id_candidate_id_fkey")
	}
	if _, ok := e.Candidate(candidate); !ok {
		return newConstraintError(ErrForeignKeyViolation, "election_candidate_head_items_election_id_candidate_id_fkey")
	}
	m.headItems[headItemKey{election: id, candidate: candidate}] = slices.Clone(item)
	return nil
}

func (m *MemoryRepository) GetCandidateHeadItem(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.headItems[headItemKey{election: id, candidate: candidate}]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(item), nil
}

func (m *MemoryRepository) InsertPoll(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return newConstraintError(ErrForeignKeyViolation, "election_polls_election_id_fkey")
	}
	if e.HasPoll(p) {
		return newConstraintError(ErrUniqueViolation, ConstraintPollElectionLocation)
	}
	for _, other := range m.elections {
		if other.HasPoll(p) {
			return newConstraintError(ErrUniqueViolation, ConstraintPollLocation)
		}
	}
	e.Polls = append(e.Polls, p)
	slices.SortFunc(e.Polls, comparePolls)
	return nil
}

func comparePolls(a, b electiondomain.Poll) int {
	if c := strings.Compare(a.World, b.World); c != 0 {
		return c
	}
	if a.X != b.X {
		return a.X - b.X
	}
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.Z - b.Z
}

func (m *MemoryRepository) DeletePoll(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(e.Polls, p.SameLocation)
	if i < 0 {
		return ErrNotFound
	}
	e.Polls = slices.Delete(e.Polls, i, i+1)
	return nil
}

func (m *MemoryRepository) InsertVoter(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, name string) (electiondomain.Voter, error) {
	if err := ctx.Err(); err != nil {
		return electiondomain.Voter{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return electiondomain.Voter{}, newConstraintError(ErrForeignKeyViolation, "election_voters_election_id_fkey")
	}
	if _, dup := e.VoterByName(name); dup {
		return electiondomain.Voter{}, newConstraintError(ErrUniqueViolation, ConstraintVoterName)
	}
	v := electiondomain.Voter{ID: e.NextVoterID(), Name: name}
	e.Voters = append(e.Voters, v)
	return v, nil
}

func (m *MemoryRepository) InsertBallot(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, b electiondomain.Ballot) (electiondomain.Ballot, error) {
	if err := ctx.Err(); err != nil {
		return electiondomain.Ballot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return electiondomain.Ballot{}, newConstraintError(ErrForeignKeyViolation, "election_ballots_election_id_fkey")
	}
	if _, ok := e.Voter(b.VoterID); !ok {
		return electiondomain.Ballot{}, newConstraintError(ErrForeignKeyViolation, "election_ballots_election_id_voter_id_fkey")
	}
	if _, dup := e.BallotOf(b.VoterID); dup {
		return electiondomain.Ballot{}, newConstraintError(ErrUniqueViolation, ConstraintBallotVoter)
	}
	seen := make(map[electiondomain.CandidateID]struct{}, len(b.Selections))
	for _, c := range b.Selections {
		if _, ok := e.Candidate(c); !ok {
			return electiondomain.Ballot{}, newConstraintError(ErrForeignKeyViolation, ConstraintSelectionCandidateFK)
		}
		if _, dup := seen[c]; dup {
			return electiondomain.Ballot{}, newConstraintError(ErrUniqueViolation, ConstraintSelectionBallotUnique)
		}
		seen[c] = struct{}{}
	}

	b.ID = e.NextBallotID()
	b.Selections = slices.Clone(b.Selections)
	if b.SubmittedAt != nil {
		at := b.SubmittedAt.UTC()
		b.SubmittedAt = &at
	}
	e.Ballots = append(e.Ballots, b)
	return b, nil
}

func (m *MemoryRepository) AppendStatusChange(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID, sc electiondomain.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !sc.Type.Valid() {
		return electiondomain.ErrUnknownChangeType
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.get(id)
	if err != nil {
		return newConstraintError(ErrForeignKeyViolation, "election_status_changes_election_id_fkey")
	}
	e.StatusChanges = append(e.StatusChanges, sc.Clone())
	return nil
}

func (m *MemoryRepository) PurgeElection(ctx context.Context, _ bun.IDB, id electiondomain.ElectionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.get(id); err != nil {
		return err
	}
	for k := range m.headItems {
		if k.election == id {
			delete(m.headItems, k)
		}
	}
	delete(m.elections, id)
	return nil
}
