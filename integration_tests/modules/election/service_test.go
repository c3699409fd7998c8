package electionintegrationtests

import (
	"testing"
	"time"

	electionservice "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/application"
	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electiondb "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_BallotLifecycleSurvivesRestart(t *testing.T) {
	deps := SetupTestElectionService(t)
	sync := deps.Service.Sync()
	ctx := deps.Ctx

	snap, err := sync.CreateElection(ctx, electionservice.CreateElectionRequest{
		Title:        deps.Gen.ElectionTitle(),
		System:       electiondomain.SystemPreferential,
		MinimumVotes: 2,
	}, "admin")
	require.NoError(t, err)
	id := snap.ID()

	alice, err := sync.AddCandidate(ctx, id, "Alice", "Blue", "admin")
	require.NoError(t, err)
	bob, err := sync.AddCandidate(ctx, id, "Bob", "", "admin")
	require.NoError(t, err)
	voter, err := sync.RegisterVoter(ctx, id, deps.Gen.VoterName())
	require.NoError(t, err)

	_, err = sync.OpenElection(ctx, id, "admin")
	require.NoError(t, err)

	_, err = sync.SubmitPreferentialBallot(ctx, id, voter.ID, []electiondomain.CandidateID{bob.ID, alice.ID})
	require.NoError(t, err)
	_, err = sync.SubmitPreferentialBallot(ctx, id, voter.ID, []electiondomain.CandidateID{alice.ID, bob.ID})
	assert.ErrorIs(t, err, electiondomain.ErrState)

	_, err = sync.CloseElection(ctx, id, "admin")
	require.NoError(t, err)

	assert.Equal(t,
		[]electiondomain.ChangeType{
			electiondomain.ChangeCreated,
			electiondomain.ChangeCandidateAdded,
			electiondomain.ChangeCandidateAdded,
			electiondomain.ChangeOpened,
			electiondomain.ChangeClosed,
		},
		deps.Publisher.Changes(id),
	)

	restarted := newService(deps.Repo, nil, deps.Clock)
	require.NoError(t, restarted.Refresh(ctx))
	t.Cleanup(func() { _ = restarted.Close(ctx) })

	reloaded, ok := restarted.Snapshot(id)
	require.True(t, ok)
	assert.Equal(t, electiondomain.StatusClosed, reloaded.Status())
	assert.True(t, reloaded.HasVoted(voter.ID))
	assert.Equal(t, 1, reloaded.SubmittedBallots())
	require.Len(t, reloaded.Ballots(), 1)
	assert.Equal(t, []electiondomain.CandidateID{bob.ID, alice.ID}, reloaded.Ballots()[0].Selections)
}

func TestService_PollLocationConflict(t *testing.T) {
	deps := SetupTestElectionService(t)
	sync := deps.Service.Sync()
	ctx := deps.Ctx

	first, err := sync.CreateElection(ctx, electionservice.CreateElectionRequest{Title: deps.Gen.ElectionTitle(), System: electiondomain.SystemBlock}, "admin")
	require.NoError(t, err)
	second, err := sync.CreateElection(ctx, electionservice.CreateElectionRequest{Title: deps.Gen.ElectionTitle(), System: electiondomain.SystemBlock}, "admin")
	require.NoError(t, err)

	poll := deps.Gen.Poll()
	_, err = sync.AddPoll(ctx, first.ID(), poll, "admin")
	require.NoError(t, err)

	_, err = sync.AddPoll(ctx, second.ID(), poll, "admin")
	assert.ErrorIs(t, err, electiondomain.ErrConflict)

	snap, ok := deps.Service.Snapshot(second.ID())
	require.True(t, ok)
	assert.Empty(t, snap.Polls())
}

func TestSweeper_AutoCloseAndPurge(t *testing.T) {
	deps := SetupTestElectionService(t)
	sync := deps.Service.Sync()
	ctx := deps.Ctx
	sweeper := electionservice.NewSweeper(deps.Service, electionservice.SweepConfig{Retention: 24 * time.Hour})

	timed, err := sync.CreateElection(ctx, electionservice.CreateElectionRequest{Title: deps.Gen.ElectionTitle(), System: electiondomain.SystemBlock}, "admin")
	require.NoError(t, err)
	d, err := electiondomain.NewDuration(0, 0, 5, 0)
	require.NoError(t, err)
	_, err = sync.SetDuration(ctx, timed.ID(), d, "admin")
	require.NoError(t, err)
	_, err = sync.OpenElection(ctx, timed.ID(), "admin")
	require.NoError(t, err)

	doomed, err := sync.CreateElection(ctx, electionservice.CreateElectionRequest{Title: deps.Gen.ElectionTitle(), System: electiondomain.SystemPreferential}, "admin")
	require.NoError(t, err)
	_, err = sync.DeleteElection(ctx, doomed.ID(), "admin")
	require.NoError(t, err)

	now := deps.Clock.Now()

	report := sweeper.AutoCloseOnce(ctx, now.Add(time.Minute))
	assert.Equal(t, electionservice.SweepReport{Examined: 1}, report)

	report = sweeper.AutoCloseOnce(ctx, now.Add(6*time.Minute))
	assert.Equal(t, electionservice.SweepReport{Examined: 1, Acted: 1}, report)
	closed, err := deps.Repo.LoadElection(ctx, nil, timed.ID())
	require.NoError(t, err)
	assert.Equal(t, electiondomain.StatusClosed, closed.Status)
	assert.Equal(t, electiondomain.SystemActor, closed.StatusChanges[len(closed.StatusChanges)-1].Actor)

	report = sweeper.PurgeOnce(ctx, now.Add(time.Hour))
	assert.Equal(t, electionservice.SweepReport{Examined: 1}, report)

	report = sweeper.PurgeOnce(ctx, now.Add(25*time.Hour))
	assert.Equal(t, electionservice.SweepReport{Examined: 1, Acted: 1}, report)
	_, err = deps.Repo.LoadElection(ctx, nil, doomed.ID())
	assert.ErrorIs(t, err, electiondb.ErrNotFound)
	_, ok := deps.Service.Snapshot(doomed.ID())
	assert.False(t, ok)
}
