package electionservice

import (
	"context"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/future"
)

// Reader serves snapshots without I/O or blocking.
type Reader interface {
	// Snapshot returns the current view of one election.
	Snapshot(id electiondomain.ElectionID) (ElectionSnapshot, bool)
	// Snapshots returns every election ordered by id.
	Snapshots() []ElectionSnapshot
}

// CreateElectionRequest describes a new election.
type CreateElectionRequest struct {
	Title        string
	System       electiondomain.VotingSystem
	MinimumVotes int
}

// Service is the only way to change election state. Every mutation returns
// immediately with a future that completes on a background goroutine once the
// change is durable and visible through Reader. Errors wrap one of the
// electiondomain kinds (ErrValidation, ErrNotFound, ErrConflict, ErrState,
// ErrStorage).
type Service interface {
	Reader

	CreateElection(ctx context.Context, req CreateElectionRequest, actor string) *future.Future[ElectionSnapshot]
	SetTitle(ctx context.Context, id electiondomain.ElectionID, title, actor string) *future.Future[ElectionSnapshot]
	SetVotingSystem(ctx context.Context, id electiondomain.ElectionID, system electiondomain.VotingSystem, actor string) *future.Future[ElectionSnapshot]
	SetMinimumVotes(ctx context.Context, id electiondomain.ElectionID, minimum int, actor string) *future.Future[ElectionSnapshot]
	SetRequirements(ctx context.Context, id electiondomain.ElectionID, permissions []string, activePlaytimeMinutes int, actor string) *future.Future[ElectionSnapshot]
	SetDuration(ctx context.Context, id electiondomain.ElectionID, d electiondomain.Duration, actor string) *future.Future[ElectionSnapshot]
	SetDurationText(ctx context.Context, id electiondomain.ElectionID, text, actor string) *future.Future[ElectionSnapshot]
	ClearDuration(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot]
	SetBallotMode(ctx context.Context, id electiondomain.ElectionID, mode electiondomain.BallotMode, actor string) *future.Future[ElectionSnapshot]

	OpenElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot]
	CloseElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot]
	DeleteElection(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot]

	AddCandidate(ctx context.Context, id electiondomain.ElectionID, name, party, actor string) *future.Future[electiondomain.Candidate]
	RemoveCandidate(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, actor string) *future.Future[ElectionSnapshot]
	SetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID, item []byte, actor string) *future.Future[struct{}]
	GetCandidateHeadItem(ctx context.Context, id electiondomain.ElectionID, candidate electiondomain.CandidateID) *future.Future[[]byte]

	AddPoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) *future.Future[ElectionSnapshot]
	RemovePoll(ctx context.Context, id electiondomain.ElectionID, poll electiondomain.Poll, actor string) *future.Future[ElectionSnapshot]

	RegisterVoter(ctx context.Context, id electiondomain.ElectionID, name string) *future.Future[electiondomain.Voter]
	GetVoter(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID) *future.Future[electiondomain.Voter]
	ListVoters(ctx context.Context, id electiondomain.ElectionID) *future.Future[[]electiondomain.Voter]

	SubmitPreferentialBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) *future.Future[electiondomain.Ballot]
	SubmitBlockBallot(ctx context.Context, id electiondomain.ElectionID, voter electiondomain.VoterID, selections []electiondomain.CandidateID) *future.Future[electiondomain.Ballot]

	MarkExported(ctx context.Context, id electiondomain.ElectionID, actor string) *future.Future[ElectionSnapshot]

	// Sync exposes blocking variants for code that already runs off the
	// interactive goroutine.
	Sync() *Sync
}

// EventPublisher receives committed audit entries.
type EventPublisher interface {
	PublishStatusChanges(ctx context.Context, events []electiondomain.StatusChangedEvent) error
}
