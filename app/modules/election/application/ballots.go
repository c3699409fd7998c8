package electionservice

import (
	"context"
	"slices"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/results"
)

// SubmitPreferentialBallot stores a ranked ballot. Repeated candidates keep
// their first rank and blank slots are dropped.
func (s *ElectionService) SubmitPreferentialBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) *future.Future[electiondomain.Ballot] {
	return s.submitBallot(ctx, "SubmitPreferentialBallot", id, electiondomain.SystemPreferential, voter, selections)
}

// SubmitBlockBallot stores a block ballot, which must name exactly the
// election's minimum number of distinct candidates.
func (s *ElectionService) SubmitBlockBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) *future.Future[electiondomain.Ballot] {
	return s.submitBallot(ctx, "SubmitBlockBallot", id, electiondomain.SystemBlock, voter, selections)
}

// submitBallot validates against the election as loaded under its lock. The
// cached "already voted" check only short-circuits obvious repeats; the
// unique (election_id, voter_id) constraint decides concurrent submissions.
func (s *ElectionService) submitBallot(ctx context.Context, operation string, id electiondomain.ElectionID, system electiondomain.VotingSystem, voter electiondomain.VoterID, selections []electiondomain.CandidateID) *future.Future[electiondomain.Ballot] {
	if selections == nil {
		s.recordBallot(ctx, system, false)
		return future.Failed[electiondomain.Ballot](electiondomain.ErrMalformedSelections)
	}
	if snap, ok := s.cache.Get(id); ok && snap.HasVoted(voter) {
		s.recordBallot(ctx, system, false)
		return future.Failed[electiondomain.Ballot](electiondomain.ErrAlreadyVoted)
	}
	selections = slices.Clone(selections)

	op := func(ctx context.Context, m *mutation) (results.OperationResult[electiondomain.Ballot, error], error) {
		stored, err := electiondomain.ValidateBallot(m.election, system, voter, selections)
		if err != nil {
			return failed[electiondomain.Ballot](err)
		}
		submittedAt := m.now
		b, err := s.repo.InsertBallot(ctx, m.db, id, electiondomain.Ballot{
			VoterID:     voter,
			Selections:  stored,
			SubmittedAt: &submittedAt,
		})
		if electiondb.ConstraintName(err) == electiondb.ConstraintSelectionCandidateFK {
			// The candidate went away between validation and insert.
			return failed[electiondomain.Ballot](electiondomain.ErrUnknownCandidate)
		}
		if err != nil {
			return results.OperationResult[electiondomain.Ballot, error]{}, err
		}
		return results.SuccessResult[electiondomain.Ballot, error](b), nil
	}

	return schedule(s, ctx, operation, int64(id), func(ctx context.Context) (electiondomain.Ballot, error) {
		b, _, err := executeMutation(s, ctx, operation, id, op)
		s.recordBallot(ctx, system, err == nil)
		return b, err
	})
}

func (s *ElectionService) recordBallot(ctx context.Context, system electiondomain.VotingSystem, accepted bool) {
	if s.metrics != nil {
		s.metrics.RecordBallotSubmitted(ctx, string(system), accepted)
	}
}
