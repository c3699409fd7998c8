package electionservice

import (
	"context"
	"time"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
)

// autoCloseElection closes an election whose duration has run out. The
// deadline is checked again under the lock, so repeated sweeps close it once.
// It reports whether the election was closed by this call.
func (s *ElectionService) autoCloseElection(ctx context.Context, id electiondomain.ElectionID, now time.Time) *future.Future[bool] {
	return mutate(s, ctx, "AutoCloseElection", id, func(ctx context.Context, m *mutation) (results.OperationResult[bool, error], error) {
		if !m.election.DueForAutoClose(now) {
			return results.SuccessResult[bool, error](false), nil
		}
		closed, err := applyTransition(ctx, m, electiondomain.ActionClose, electiondomain.SystemActor)
		if err != nil {
			return split[bool](err)
		}
		return results.SuccessResult[bool, error](closed), nil
	})
}

// purgeElection hard-deletes a DELETED election and every row it owns once
// the retention window has passed. Before that it changes nothing and
// reports false.
func (s *ElectionService) purgeElection(ctx context.Context, id electiondomain.ElectionID, now time.Time, retention time.Duration) *future.Future[bool] {
	return mutate(s, ctx, "PurgeElection", id, func(ctx context.Context, m *mutation) (results.OperationResult[bool, error], error) {
		if m.election.Status != electiondomain.StatusDeleted {
			return failed[bool](electiondomain.ErrNotDeleted)
		}
		if !m.election.DueForPurge(now, retention) {
			return results.SuccessResult[bool, error](false), nil
		}
		if err := s.repo.PurgeElection(ctx, m.db, id); err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		m.removed = true
		return results.SuccessResult[bool, error](true), nil
	})
}
