package electionservice

import (
	"context"
	"slices"
	"sync"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Election Repo
// ------------------------

// FakeElectionRepo delegates to an in-memory repository unless a Func field
// overrides the call.
type FakeElectionRepo struct {
	mu    sync.Mutex
	trace []string

	mem *electiondb.MemoryRepository

	LoadElectionFunc       func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) (*electiondomain.Election, error)
	LoadElectionsFunc      func(ctx context.Context, db bun.IDB) ([]*electiondomain.Election, error)
	InsertElectionFunc     func(ctx context.Context, db bun.IDB, e *electiondomain.Election) (electiondomain.ElectionID, error)
	UpdateElectionFunc     func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, updates *electiondb.UpdateFields) error
	InsertCandidateFunc    func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, c electiondomain.Candidate) (electiondomain.Candidate, error)
	DeleteCandidateFunc    func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) error
	InsertBallotFunc       func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, b electiondomain.Ballot) (electiondomain.Ballot, error)
	AppendStatusChangeFunc func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, sc electiondomain.StatusChange) error
	PurgeElectionFunc      func(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error
}

func NewFakeElectionRepo() *FakeElectionRepo {
	return &FakeElectionRepo{
		trace: []string{},
		mem:   electiondb.NewMemoryRepository(),
	}
}

func (f *FakeElectionRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeElectionRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, db bun.IDB) error) error {
	f.record("RunInTx")
	return f.mem.RunInTx(ctx, fn)
}

func (f *FakeElectionRepo) AcquireElectionLock(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error {
	f.record("AcquireElectionLock")
	return f.mem.AcquireElectionLock(ctx, db, id)
}

func (f *FakeElectionRepo) LoadElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) (*electiondomain.Election, error) {
	f.record("LoadElection")
	if f.LoadElectionFunc != nil {
		return f.LoadElectionFunc(ctx, db, id)
	}
	return f.mem.LoadElection(ctx, db, id)
}

func (f *FakeElectionRepo) LoadElections(ctx context.Context, db bun.IDB) ([]*electiondomain.Election, error) {
	f.record("LoadElections")
	if f.LoadElectionsFunc != nil {
		return f.LoadElectionsFunc(ctx, db)
	}
	return f.mem.LoadElections(ctx, db)
}

func (f *FakeElectionRepo) InsertElection(ctx context.Context, db bun.IDB, e *electiondomain.Election) (electiondomain.ElectionID, error) {
	f.record("InsertElection")
	if f.InsertElectionFunc != nil {
		return f.InsertElectionFunc(ctx, db, e)
	}
	return f.mem.InsertElection(ctx, db, e)
}

func (f *FakeElectionRepo) UpdateElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, updates *electiondb.UpdateFields) error {
	f.record("UpdateElection")
	if f.UpdateElectionFunc != nil {
		return f.UpdateElectionFunc(ctx, db, id, updates)
	}
	return f.mem.UpdateElection(ctx, db, id, updates)
}

func (f *FakeElectionRepo) ReplaceRequirements(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, req electiondomain.Requirements) error {
	f.record("ReplaceRequirements")
	return f.mem.ReplaceRequirements(ctx, db, id, req)
}

func (f *FakeElectionRepo) InsertCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, c electiondomain.Candidate) (electiondomain.Candidate, error) {
	f.record("InsertCandidate")
	if f.InsertCandidateFunc != nil {
		return f.InsertCandidateFunc(ctx, db, id, c)
	}
	return f.mem.InsertCandidate(ctx, db, id, c)
}

func (f *FakeElectionRepo) DeleteCandidate(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) error {
	f.record("DeleteCandidate")
	if f.DeleteCandidateFunc != nil {
		return f.DeleteCandidateFunc(ctx, db, id, candidate)
	}
	return f.mem.DeleteCandidate(ctx, db, id, candidate)
}

func (f *FakeElectionRepo) SaveCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte) error {
	f.record("SaveCandidateHeadItem")
	return f.mem.SaveCandidateHeadItem(ctx, db, id, candidate, item)
}

func (f *FakeElectionRepo) GetCandidateHeadItem(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, candidate electiondomain.CandidateID) ([]byte, error) {
	f.record("GetCandidateHeadItem")
	return f.mem.GetCandidateHeadItem(ctx, db, id, candidate)
}

func (f *FakeElectionRepo) InsertPoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	f.record("InsertPoll")
	return f.mem.InsertPoll(ctx, db, id, p)
}

func (f *FakeElectionRepo) DeletePoll(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, p electiondomain.Poll) error {
	f.record("DeletePoll")
	return f.mem.DeletePoll(ctx, db, id, p)
}

func (f *FakeElectionRepo) InsertVoter(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, name string) (electiondomain.Voter, error) {
	f.record("InsertVoter")
	return f.mem.InsertVoter(ctx, db, id, name)
}

func (f *FakeElectionRepo) InsertBallot(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, b electiondomain.Ballot) (electiondomain.Ballot, error) {
	f.record("InsertBallot")
	if f.InsertBallotFunc != nil {
		return f.InsertBallotFunc(ctx, db, id, b)
	}
	return f.mem.InsertBallot(ctx, db, id, b)
}

func (f *FakeElectionRepo) AppendStatusChange(ctx context.Context, db bun.IDB, id electiondomain.ElectionID, sc electiondomain.StatusChange) error {
	f.record("AppendStatusChange")
	if f.AppendStatusChangeFunc != nil {
		return f.AppendStatusChangeFunc(ctx, db, id, sc)
	}
	return f.mem.AppendStatusChange(ctx, db, id, sc)
}

func (f *FakeElectionRepo) PurgeElection(ctx context.Context, db bun.IDB, id electiondomain.ElectionID) error {
	f.record("PurgeElection")
	if f.PurgeElectionFunc != nil {
		return f.PurgeElectionFunc(ctx, db, id)
	}
	return f.mem.PurgeElection(ctx, db, id)
}

// --- Accessors for assertions ---

func (f *FakeElectionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.trace)
}

func (f *FakeElectionRepo) Count(step string) int {
	n := 0
	for _, s := range f.Trace() {
		if s == step {
			n++
		}
	}
	return n
}

// Ensure the fake actually satisfies the interface
var _ electiondb.Repository = (*FakeElectionRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu     sync.Mutex
	events []electiondomain.StatusChangedEvent

	PublishFunc func(ctx context.Context, events []electiondomain.StatusChangedEvent) error
}

func (p *FakePublisher) PublishStatusChanges(ctx context.Context, events []electiondomain.StatusChangedEvent) error {
	if p.PublishFunc != nil {
		if err := p.PublishFunc(ctx, events); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *FakePublisher) Events() []electiondomain.StatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

func (p *FakePublisher) Changes() []electiondomain.ChangeType {
	var out []electiondomain.ChangeType
	for _, e := range p.Events() {
		out = append(out, e.Change)
	}
	return out
}

var _ EventPublisher = (*FakePublisher)(nil)

// ------------------------
// Fake Metrics
// ------------------------

// FakeMetrics counts operation outcomes by operation name.
type FakeMetrics struct {
	electionmetrics.Noop

	mu        sync.Mutex
	successes map[string]int
	failures  map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{successes: map[string]int{}, failures: map[string]int{}}
}

func (m *FakeMetrics) RecordOperationSuccess(_ context.Context, operation, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes[operation]++
}

func (m *FakeMetrics) RecordOperationFailure(_ context.Context, operation, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[operation]++
}

func (m *FakeMetrics) Counts(operation string) (successes, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.successes[operation], m.failures[operation]
}

var _ electionmetrics.ElectionMetrics = (*FakeMetrics)(nil)
