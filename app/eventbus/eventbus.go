package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
)

// Metadata keys set on every status-change message.
const (
	MetadataElectionID    = "election_id"
	MetadataChange        = "change"
	MetadataCorrelationID = "correlation_id"
)

// EventBus carries committed status changes to in-process subscribers and,
// when configured, forwards them to NATS JetStream.
type EventBus struct {
	pubsub    *gochannel.GoChannel
	logger    *slog.Logger
	forwarder *Forwarder

	closeOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Options configures the bus.
type Options struct {
	// Buffer is the per-subscriber output buffer.
	Buffer int64
	// NATSURL enables JetStream forwarding when non-empty.
	NATSURL string
}

// NewEventBus creates an in-process bus. With a NATS URL it also connects,
// ensures the elections stream and starts forwarding.
func NewEventBus(ctx context.Context, logger *slog.Logger, opts Options) (*EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	logger = logger.With(attr.String("component", "eventbus"))

	eb := &EventBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: opts.Buffer,
		}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}

	if opts.NATSURL == "" {
		return eb, nil
	}

	fwd, err := NewForwarder(ctx, opts.NATSURL, logger)
	if err != nil {
		eb.pubsub.Close()
		return nil, err
	}
	if err := eb.forwardTo(fwd); err != nil {
		fwd.Close()
		eb.pubsub.Close()
		return nil, err
	}
	return eb, nil
}

// PublishStatusChanges publishes one message per event on
// electiondomain.StatusChangedTopic.
func (eb *EventBus) PublishStatusChanges(ctx context.Context, events []electiondomain.StatusChangedEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]*message.Message, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal status change: %w", err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataElectionID, strconv.FormatInt(int64(ev.ElectionID), 10))
		msg.Metadata.Set(MetadataChange, ev.Change.String())
		if id := attr.CorrelationID(ctx); id != "" {
			msg.Metadata.Set(MetadataCorrelationID, id)
		}
		msgs = append(msgs, msg)
	}

	if err := eb.pubsub.Publish(electiondomain.StatusChangedTopic, msgs...); err != nil {
		eb.logger.ErrorContext(ctx, "Failed to publish status changes",
			attr.Int("count", len(msgs)),
			attr.Error(err),
		)
		return fmt.Errorf("failed to publish status changes: %w", err)
	}

	eb.logger.DebugContext(ctx, "Published status changes", attr.Int("count", len(msgs)))
	return nil
}

// Subscribe returns the status-change stream. Each message must be acked.
func (eb *EventBus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return eb.pubsub.Subscribe(ctx, electiondomain.StatusChangedTopic)
}

// DecodeStatusChange parses a message published by PublishStatusChanges.
func DecodeStatusChange(msg *message.Message) (electiondomain.StatusChangedEvent, error) {
	var ev electiondomain.StatusChangedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("failed to decode status change %s: %w", msg.UUID, err)
	}
	return ev, nil
}

func (eb *EventBus) forwardTo(fwd *Forwarder) error {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := eb.Subscribe(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe forwarder: %w", err)
	}

	eb.forwarder = fwd
	eb.cancel = cancel
	eb.wg.Add(1)
	go func() {
		defer eb.wg.Done()
		for msg := range messages {
			if err := fwd.Forward(ctx, electiondomain.StatusChangedTopic, msg); err != nil {
				eb.logger.Error("Failed to forward status change",
					attr.String("message_uuid", msg.UUID),
					attr.Error(err),
				)
			}
			// JetStream is best effort; a failed forward is not redelivered.
			msg.Ack()
		}
	}()
	return nil
}

// Close stops forwarding and closes the in-process pub/sub.
func (eb *EventBus) Close() error {
	var err error
	eb.closeOnce.Do(func() {
		if eb.cancel != nil {
			eb.cancel()
		}
		err = eb.pubsub.Close()
		eb.wg.Wait()
		if eb.forwarder != nil {
			eb.forwarder.Close()
		}
	})
	return err
}
