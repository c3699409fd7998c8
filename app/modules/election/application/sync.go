package electionservice

import (
	"context"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
)

// Sync offers blocking variants of the service mutations. Every method waits
// for the background write to finish, so it must never be called from the
// interactive goroutine.
type Sync struct {
	svc *ElectionService
}

func (s *Sync) CreateElection(ctx context.Context, req CreateElectionRequest, actor string) (ElectionSnapshot, error) {
	return s.svc.CreateElection(ctx, req, actor).Await(ctx)
}

func (s *Sync) SetTitle(ctx context.Context, id electiondomain.ElectionID, title, actor string) (ElectionSnapshot, error) {
	return s.svc.SetTitle(ctx, id, title, actor).Await(ctx)
}

func (s *Sync) SetVotingSystem(ctx context.Context, id electiondomain.ElectionID, system electiondomain.VotingSystem, actor string) (ElectionSnapshot, error) {
	return s.svc.SetVotingSystem(ctx, id, system, actor).Await(ctx)
}

func (s *Sync) SetMinimumVotes(ctx context.Context, id electiondomain.ElectionID, minimum int, actor string) (ElectionSnapshot, error) {
	return s.svc.SetMinimumVotes(ctx, id, minimum, actor).Await(ctx)
}

func (s *Sync) SetRequirements(ctx context.Context, id electiondomain.ElectionID, permissions []string, activePlaytimeMinutes int, actor string) (ElectionSnapshot, error) {
	return s.svc.SetRequirements(ctx, id, permissions, activePlaytimeMinutes, actor).Await(ctx)
}

func (s *Sync) SetDuration(ctx context.Context, id electiondomain.ElectionID, d electiondomain.Duration, actor string) (ElectionSnapshot, error) {
	return s.svc.SetDuration(ctx, id, d, actor).Await(ctx)
}

func (s *Sync) SetDurationText(ctx context.Context, id electiondomain.ElectionID, text, actor string) (ElectionSnapshot, error) {
	return s.svc.SetDurationText(ctx, id, text, actor).Await(ctx)
}

func (s *Sync) ClearDuration(ctx context.Context, id electiondomain.ElectionID, actor string) (ElectionSnapshot, error) {
	return s.svc.ClearDuration(ctx, id, actor).Await(ctx)
}

func (s *Sync) SetBallotMode(ctx context.Context, id electiondomain.ElectionID, mode electiondomain.BallotMode, actor string) (ElectionSnapshot, error) {
	return s.svc.SetBallotMode(ctx, id, mode, actor).Await(ctx)
}

func (s *Sync) OpenElection(ctx context.Context, id electiondomain.ElectionID, actor string) (ElectionSnapshot, error) {
	return s.svc.OpenElection(ctx, id, actor).Await(ctx)
}

func (s *Sync) CloseElection(ctx context.Context, id electiondomain.ElectionID, actor string) (ElectionSnapshot, error) {
	return s.svc.CloseElection(ctx, id, actor).Await(ctx)
}

func (s *Sync) DeleteElection(ctx context.Context, id electiondomain.ElectionID, actor string) (ElectionSnapshot, error) {
	return s.svc.DeleteElection(ctx, id, actor).Await(ctx)
}

func (s *Sync) AddCandidate(ctx context.Context, id electiondomain.ElectionID, name, party, actor string) (electiondomain.Candidate, error) {
	return s.svc.AddCandidate(ctx, id, name, party, actor).Await(ctx)
}

func (s *Sync) RemoveCandidate(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, actor string) (ElectionSnapshot, error) {
	return s.svc.RemoveCandidate(ctx, id, candidate, actor).Await(ctx)
}

func (s *Sync) SetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte, actor string) error {
	_, err := s.svc.SetCandidateHeadItem(ctx, id, candidate, item, actor).Await(ctx)
	return err
}

func (s *Sync) GetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID) ([]byte, error) {
	return s.svc.GetCandidateHeadItem(ctx, id, candidate).Await(ctx)
}

func (s *Sync) AddPoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) (ElectionSnapshot, error) {
	return s.svc.AddPoll(ctx, id, poll, actor).Await(ctx)
}

func (s *Sync) RemovePoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) (ElectionSnapshot, error) {
	return s.svc.RemovePoll(ctx, id, poll, actor).Await(ctx)
}

func (s *Sync) RegisterVoter(ctx context.Context, id electiondomain.ElectionID, name string) (electiondomain.Voter, error) {
	return s.svc.RegisterVoter(ctx, id, name).Await(ctx)
}

func (s *Sync) GetVoter(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID) (electiondomain.Voter, error) {
	return s.svc.GetVoter(ctx, id, voter).Await(ctx)
}

func (s *Sync) ListVoters(ctx context.Context, id electiondomain.ElectionID) ([]electiondomain.Voter, error) {
	return s.svc.ListVoters(ctx, id).Await(ctx)
}

func (s *Sync) SubmitPreferentialBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) (electiondomain.Ballot, error) {
	return s.svc.SubmitPreferentialBallot(ctx, id, voter, selections).Await(ctx)
}

func (s *Sync) SubmitBlockBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) (electiondomain.Ballot, error) {
	return s.svc.SubmitBlockBallot(ctx, id, voter, selections).Await(ctx)
}

func (s *Sync) MarkExported(ctx context.Context, id electiondomain.ElectionID, actor string) (ElectionSnapshot, error) {
	return s.svc.MarkExported(ctx, id, actor).Await(ctx)
}
