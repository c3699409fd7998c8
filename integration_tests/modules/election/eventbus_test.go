package electionintegrationtests

import (
	"testing"
	"time"

	"github.com/MCCitiesNetwork/Elections-sub001/app/eventbus"
	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_ForwardsStatusChangesToJetStream(t *testing.T) {
	ctx := testEnv.Ctx

	bus, err := eventbus.NewEventBus(ctx, testEnv.Logger, eventbus.Options{NATSURL: testEnv.Config.NATS.URL})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	stream, err := testEnv.JetStream.Stream(ctx, eventbus.StreamName)
	require.NoError(t, err)
	require.NoError(t, stream.Purge(ctx))

	details := "Alice"
	want := electiondomain.StatusChangedEvent{
		ElectionID: 42,
		Title:      "Mayor",
		Status:     electiondomain.StatusOpen,
		Change:     electiondomain.ChangeCandidateAdded,
		Actor:      "admin",
		Details:    &details,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, bus.PublishStatusChanges(ctx, []electiondomain.StatusChangedEvent{want}))

	consumer, err := testEnv.JetStream.OrderedConsumer(ctx, eventbus.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{electiondomain.StatusChangedTopic},
	})
	require.NoError(t, err)

	msg, err := consumer.Next(jetstream.FetchMaxWait(15 * time.Second))
	require.NoError(t, err)

	assert.Equal(t, electiondomain.StatusChangedTopic, msg.Subject())
	assert.Equal(t, "42", msg.Headers().Get(eventbus.MetadataElectionID))
	assert.Equal(t, "CANDIDATE_ADDED", msg.Headers().Get(eventbus.MetadataChange))

	var got electiondomain.StatusChangedEvent
	require.NoError(t, json.Unmarshal(msg.Data(), &got))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}
