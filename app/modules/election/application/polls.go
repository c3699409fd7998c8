package electionservice

import (
	"context"
	"errors"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
)

// AddPoll binds a ballot-casting location to the election. A location serves
// at most one election.
func (s *ElectionService) AddPoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) *future.Future[ElectionSnapshot] {
	poll, err := electiondomain.NormalizePoll(poll)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	actor, err = electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}

	return mutateSnapshot(s, ctx, "AddPoll", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		if m.election.HasPoll(poll) {
			return failed[struct{}](electiondomain.ErrDuplicatePoll)
		}
		if err := s.repo.InsertPoll(ctx, m.db, id, poll); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		if err := m.audit(ctx, electiondomain.ChangePollAdded, actor, poll.String()); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}

// RemovePoll unbinds a location from the election.
func (s *ElectionService) RemovePoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) *future.Future[ElectionSnapshot] {
	poll, err := electiondomain.NormalizePoll(poll)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}
	actor, err = electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}

	return mutateSnapshot(s, ctx, "RemovePoll", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		err := s.repo.DeletePoll(ctx, m.db, id, poll)
		if errors.Is(err, electiondb.ErrNotFound) {
			return failed[struct{}](electiondomain.ErrPollNotFound)
		}
		if err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		if err := m.audit(ctx, electiondomain.ChangePollRemoved, actor, poll.String()); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}
