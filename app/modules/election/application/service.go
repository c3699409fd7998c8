package electionservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	electionmetrics "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/metrics"
	electionutil "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/utils"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "ElectionService"

// createLane serializes election creation, which has no id to key on yet.
const createLane int64 = 0

// Options tune the background execution of the service.
type Options struct {
	// Workers bounds how many elections are written concurrently.
	Workers int
	// OperationTimeout bounds each storage transaction. Zero disables it.
	OperationTimeout time.Duration
}

// ElectionService implements the Service interface.
type ElectionService struct {
	repo      electiondb.Repository
	logger    *slog.Logger
	metrics   electionmetrics.ElectionMetrics
	tracer    trace.Tracer
	publisher EventPublisher
	clock     electionutil.Clock

	cache     *snapshotCache
	executor  *laneExecutor
	opTimeout time.Duration
}

var _ Service = (*ElectionService)(nil)

// NewElectionService creates a new ElectionService. Call Refresh before
// serving reads so the snapshot cache reflects the store.
func NewElectionService(
	repo electiondb.Repository,
	logger *slog.Logger,
	metrics electionmetrics.ElectionMetrics,
	tracer trace.Tracer,
	publisher EventPublisher,
	clock electionutil.Clock,
	opts Options,
) *ElectionService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = electionmetrics.NewNoop()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("elections")
	}
	if clock == nil {
		clock = electionutil.RealClock{}
	}
	return &ElectionService{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		publisher: publisher,
		clock:     clock,
		cache:     newSnapshotCache(),
		executor:  newLaneExecutor(opts.Workers, logger),
		opTimeout: opts.OperationTimeout,
	}
}

// Refresh reloads every election from the store and replaces the snapshot
// cache. It blocks and must not run on the interactive goroutine.
func (s *ElectionService) Refresh(ctx context.Context) error {
	elections, err := s.repo.LoadElections(ctx, nil)
	if err != nil {
		return electiondomain.StorageError("Refresh", err)
	}
	s.cache.Replace(elections)
	s.logger.InfoContext(ctx, "Election snapshots loaded", attr.Int("elections", len(elections)))
	return nil
}

// Close stops accepting mutations and waits for queued ones to finish.
func (s *ElectionService) Close(ctx context.Context) error {
	return s.executor.Close(ctx)
}

// Snapshot returns the cached view of one election.
func (s *ElectionService) Snapshot(id electiondomain.ElectionID) (ElectionSnapshot, bool) {
	return s.cache.Get(id)
}

// Snapshots returns every cached election ordered by id.
func (s *ElectionService) Snapshots() []ElectionSnapshot {
	return s.cache.All()
}

// Sync returns the blocking variants of the mutations.
func (s *ElectionService) Sync() *Sync {
	return &Sync{svc: s}
}

// -----------------------------------------------------------------------------
// Mutation pipeline
// -----------------------------------------------------------------------------

// mutation is the state an operation works on inside its transaction. The
// election was loaded after the per-election lock was taken.
type mutation struct {
	repo     electiondb.Repository
	db       bun.IDB
	election *electiondomain.Election
	now      time.Time
	changes  []electiondomain.StatusChange
	removed  bool
}

// audit appends an entry to the election's trail.
func (m *mutation) audit(ctx context.Context, typ electiondomain.ChangeType, actor, details string) error {
	sc := electiondomain.NewStatusChange(m.now, typ, actor, details)
	if err := m.repo.AppendStatusChange(ctx, m.db, m.election.ID, sc); err != nil {
		return err
	}
	m.changes = append(m.changes, sc)
	return nil
}

type mutationOp[T any] func(ctx context.Context, m *mutation) (results.OperationResult[T, error], error)

type committed[T any] struct {
	value    T
	election *electiondomain.Election
	removed  bool
	changes  []electiondomain.StatusChange
}

// schedule runs work on the election's lane and completes the returned future
// with its outcome. The future always completes.
func schedule[T any](s *ElectionService, ctx context.Context, operation string, lane int64, work func(ctx context.Context) (T, error)) *future.Future[T] {
	f, complete := future.New[T]()
	ctx = attr.WithCorrelationID(ctx)

	submitErr := s.executor.Submit(lane, func() {
		var zero T
		defer func() {
			if r := recover(); r != nil {
				complete(zero, electiondomain.StorageError(operation, fmt.Errorf("panic: %v", r)))
			}
		}()
		value, err := work(ctx)
		complete(value, asDomainError(operation, err))
	})
	if submitErr != nil {
		var zero T
		complete(zero, electiondomain.StorageError(operation, submitErr))
	}
	return f
}

// mutate runs op against one election and completes with op's value.
func mutate[T any](s *ElectionService, ctx context.Context, operation string, id electiondomain.ElectionID, op mutationOp[T]) *future.Future[T] {
	return schedule(s, ctx, operation, int64(id), func(ctx context.Context) (T, error) {
		value, _, err := executeMutation(s, ctx, operation, id, op)
		return value, err
	})
}

// mutateSnapshot runs op against one election and completes with the
// refreshed snapshot.
func mutateSnapshot(s *ElectionService, ctx context.Context, operation string, id electiondomain.ElectionID, op mutationOp[struct{}]) *future.Future[ElectionSnapshot] {
	return schedule(s, ctx, operation, int64(id), func(ctx context.Context) (ElectionSnapshot, error) {
		_, snap, err := executeMutation(s, ctx, operation, id, op)
		return snap, err
	})
}

// executeMutation locks the election, reloads it from the store, applies op
// and re-reads the aggregate in one transaction. Only after the commit is the
// snapshot replaced and the new audit entries published, so a failed write
// leaves the cache as it was.
func executeMutation[T any](s *ElectionService, ctx context.Context, operation string, id electiondomain.ElectionID, op mutationOp[T]) (T, ElectionSnapshot, error) {
	var zero T
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := withTelemetry(s, ctx, operation, strconv.FormatInt(int64(id), 10), func(ctx context.Context) (results.OperationResult[committed[T], error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[committed[T], error], error) {
			if err := s.repo.AcquireElectionLock(ctx, db, id); err != nil {
				return results.OperationResult[committed[T], error]{}, err
			}
			current, err := s.repo.LoadElection(ctx, db, id)
			if errors.Is(err, electiondb.ErrNotFound) {
				return results.FailureResult[committed[T], error](electiondomain.ErrElectionNotFound), nil
			}
			if err != nil {
				return results.OperationResult[committed[T], error]{}, err
			}

			m := &mutation{repo: s.repo, db: db, election: current, now: s.clock.Now()}
			r, err := op(ctx, m)
			if err != nil {
				if failure := constraintFailure(err); failure != nil {
					return results.FailureResult[committed[T], error](failure), nil
				}
				return results.OperationResult[committed[T], error]{}, err
			}
			if r.IsFailure() {
				return results.FailureResult[committed[T], error](*r.Failure), nil
			}

			out := committed[T]{value: *r.Success, removed: m.removed, changes: m.changes}
			if !m.removed {
				if out.election, err = s.repo.LoadElection(ctx, db, id); err != nil {
					return results.OperationResult[committed[T], error]{}, err
				}
			}
			return results.SuccessResult[committed[T], error](out), nil
		})
	})
	if err != nil {
		return zero, ElectionSnapshot{}, electiondomain.StorageError(operation, err)
	}
	if result.IsFailure() {
		return zero, ElectionSnapshot{}, *result.Failure
	}
	if !result.IsSuccess() {
		return zero, ElectionSnapshot{}, electiondomain.StorageError(operation, errors.New("operation produced no result"))
	}

	c := *result.Success
	snap := s.commit(ctx, id, c.election, c.removed, c.changes)
	return c.value, snap, nil
}

// commit publishes a persisted change to readers and subscribers.
func (s *ElectionService) commit(ctx context.Context, id electiondomain.ElectionID, e *electiondomain.Election, removed bool, changes []electiondomain.StatusChange) ElectionSnapshot {
	if removed || e == nil {
		s.cache.Remove(id)
		return ElectionSnapshot{}
	}
	snap := s.cache.Put(e)

	if s.publisher == nil || len(changes) == 0 {
		return snap
	}
	events := make([]electiondomain.StatusChangedEvent, 0, len(changes))
	for _, sc := range changes {
		events = append(events, electiondomain.NewStatusChangedEvent(e, sc))
	}
	if err := s.publisher.PublishStatusChanges(ctx, events); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish status changes",
			attr.ExtractCorrelationID(ctx),
			attr.ElectionID(int64(id)),
			attr.Error(err),
		)
	}
	return snap
}

// query runs a read against the store on the election's lane, so it observes
// every mutation submitted before it.
func query[T any](s *ElectionService, ctx context.Context, operation string, id electiondomain.ElectionID, fn func(ctx context.Context) (results.OperationResult[T, error], error)) *future.Future[T] {
	return schedule(s, ctx, operation, int64(id), func(ctx context.Context) (T, error) {
		var zero T
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		result, err := withTelemetry(s, ctx, operation, strconv.FormatInt(int64(id), 10), fn)
		switch {
		case err != nil:
			return zero, electiondomain.StorageError(operation, err)
		case result.IsFailure():
			return zero, *result.Failure
		case !result.IsSuccess():
			return zero, electiondomain.StorageError(operation, errors.New("operation produced no result"))
		}
		return *result.Success, nil
	})
}

// loadElection reads an election outside any transaction.
func (s *ElectionService) loadElection(ctx context.Context, id electiondomain.ElectionID) (*electiondomain.Election, error) {
	e, err := s.repo.LoadElection(ctx, nil, id)
	if errors.Is(err, electiondb.ErrNotFound) {
		return nil, electiondomain.ErrElectionNotFound
	}
	return e, err
}

var done = results.SuccessResult[struct{}, error](struct{}{})

func failed[T any](err error) (results.OperationResult[T, error], error) {
	return results.FailureResult[T, error](err), nil
}

// split turns domain errors into failure results and passes anything else
// through as an infrastructure error.
func split[T any](err error) (results.OperationResult[T, error], error) {
	if electiondomain.Kind(err) != nil {
		return failed[T](err)
	}
	return results.OperationResult[T, error]{}, err
}

func (s *ElectionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ElectionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	// Start span
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("election_id", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.DebugContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("election_id", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	// Handle Infrastructure Error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("election_id", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Handle Domain Failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("election_id", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("election_id", identifier),
		)
	}

	if s.metrics != nil {
		if result.IsFailure() {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		} else {
			s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
		}
	}

	return result, nil
}

// errFailureRollback unwinds a transaction whose operation returned a
// failure result; it never leaves runInTx.
var errFailureRollback = errors.New("operation failed, rolling back")

// runInTx runs the operation in a transaction. A failure result rolls the
// transaction back just like an error does, so a rejected mutation leaves no
// partial writes behind.
func runInTx[S any, F any](
	s *ElectionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	var result results.OperationResult[S, F]

	err := s.repo.RunInTx(ctx, func(ctx context.Context, db bun.IDB) error {
		var txErr error
		result, txErr = fn(ctx, db)
		if txErr == nil && result.IsFailure() {
			return errFailureRollback
		}
		return txErr
	})
	if errors.Is(err, errFailureRollback) {
		return result, nil
	}

	return result, err
}
