package electionservice

import (
	"context"
	"errors"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
)

// AddCandidate adds a candidate and returns it with its assigned id. Names are
// unique within an election.
func (s *ElectionService) AddCandidate(ctx context.Context, id electiondomain.ElectionID, name, party, actor string) *future.Future[electiondomain.Candidate] {
	name, party, err := electiondomain.NormalizeCandidate(name, party)
	if err != nil {
		return future.Failed[electiondomain.Candidate](err)
	}
	actor, err = electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[electiondomain.Candidate](err)
	}

	return mutate(s, ctx, "AddCandidate", id, func(ctx context.Context, m *mutation) (results.OperationResult[electiondomain.Candidate, error], error) {
		if _, exists := m.election.CandidateByName(name); exists {
			return failed[electiondomain.Candidate](electiondomain.ErrDuplicateCandidateName)
		}
		c, err := s.repo.InsertCandidate(ctx, m.db, id, electiondomain.Candidate{Name: name, Party: party})
		if err != nil {
			return results.OperationResult[electiondomain.Candidate, error]{}, err
		}
		if err := m.audit(ctx, electiondomain.ChangeCandidateAdded, actor, c.Name); err != nil {
			return results.OperationResult[electiondomain.Candidate, error]{}, err
		}
		return results.SuccessResult[electiondomain.Candidate, error](c), nil
	})
}

// RemoveCandidate removes a candidate that no ballot references.
func (s *ElectionService) RemoveCandidate(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, actor string) *future.Future[ElectionSnapshot] {
	actor, err := electiondomain.NormalizeActor(actor)
	if err != nil {
		return future.Failed[ElectionSnapshot](err)
	}

	return mutateSnapshot(s, ctx, "RemoveCandidate", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		c, ok := m.election.Candidate(candidate)
		if !ok {
			return failed[struct{}](electiondomain.ErrCandidateNotFound)
		}
		if m.election.CandidateReferenced(candidate) {
			return failed[struct{}](electiondomain.ErrCandidateInUse)
		}
		err := s.repo.DeleteCandidate(ctx, m.db, id, candidate)
		if errors.Is(err, electiondb.ErrNotFound) {
			return failed[struct{}](electiondomain.ErrCandidateNotFound)
		}
		if err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		if err := m.audit(ctx, electiondomain.ChangeCandidateRemoved, actor, c.Name); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}

// SetCandidateHeadItem stores the serialized item shown for a candidate in
// the ballot GUI. The bytes are opaque to the engine.
func (s *ElectionService) SetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte, actor string) *future.Future[struct{}] {
	if len(item) > electiondomain.MaxHeadItemBytes {
		return future.Failed[struct{}](electiondomain.ErrHeadItemTooLarge)
	}
	if _, err := electiondomain.NormalizeActor(actor); err != nil {
		return future.Failed[struct{}](err)
	}
	item = append([]byte(nil), item...)

	return mutate(s, ctx, "SetCandidateHeadItem", id, func(ctx context.Context, m *mutation) (results.OperationResult[struct{}, error], error) {
		if _, ok := m.election.Candidate(candidate); !ok {
			return failed[struct{}](electiondomain.ErrCandidateNotFound)
		}
		if err := s.repo.SaveCandidateHeadItem(ctx, m.db, id, candidate, item); err != nil {
			return results.OperationResult[struct{}, error]{}, err
		}
		return done, nil
	})
}

// GetCandidateHeadItem loads a candidate's head item from the store.
func (s *ElectionService) GetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID) *future.Future[[]byte] {
	return query(s, ctx, "GetCandidateHeadItem", id, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		item, err := s.repo.GetCandidateHeadItem(ctx, nil, id, candidate)
		if errors.Is(err, electiondb.ErrNotFound) {
			return failed[[]byte](electiondomain.ErrHeadItemNotFound)
		}
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		return results.SuccessResult[[]byte, error](item), nil
	})
}
