package electionservice

import (
	"context"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
)

// RegisterVoter returns the voter with the given name, registering them first
// when needed. Names match case-insensitively, so repeated registration is
// harmless.
func (s *ElectionService) RegisterVoter(ctx context.Context, id electiondomain.ElectionID, name string) *future.Future[electiondomain.Voter] {
	name, err := electiondomain.NormalizeVoterName(name)
	if err != nil {
		return future.Failed[electiondomain.Voter](err)
	}

	return mutate(s, ctx, "RegisterVoter", id, func(ctx context.Context, m *mutation) (results.OperationResult[electiondomain.Voter, error], error) {
		if v, ok := m.election.VoterByName(name); ok {
			return results.SuccessResult[electiondomain.Voter, error](v), nil
		}
		v, err := s.repo.InsertVoter(ctx, m.db, id, name)
		if err != nil {
			return results.OperationResult[electiondomain.Voter, error]{}, err
		}
		return results.SuccessResult[electiondomain.Voter, error](v), nil
	})
}

// GetVoter reads a voter from the store.
func (s *ElectionService) GetVoter(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID) *future.Future[electiondomain.Voter] {
	return query(s, ctx, "GetVoter", id, func(ctx context.Context) (results.OperationResult[electiondomain.Voter, error], error) {
		e, err := s.loadElection(ctx, id)
		if err != nil {
			return split[electiondomain.Voter](err)
		}
		v, ok := e.Voter(voter)
		if !ok {
			return failed[electiondomain.Voter](electiondomain.ErrVoterNotFound)
		}
		return results.SuccessResult[electiondomain.Voter, error](v), nil
	})
}

// ListVoters reads every voter of an election from the store, ordered by id.
func (s *ElectionService) ListVoters(ctx context.Context, id electiondomain.ElectionID) *future.Future[[]electiondomain.Voter] {
	return query(s, ctx, "ListVoters", id, func(ctx context.Context) (results.OperationResult[[]electiondomain.Voter, error], error) {
		e, err := s.loadElection(ctx, id)
		if err != nil {
			return split[[]electiondomain.Voter](err)
		}
		return results.SuccessResult[[]electiondomain.Voter, error](e.Voters), nil
	})
}
