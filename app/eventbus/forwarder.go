package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding forwarded election events.
const StreamName = "ELECTIONS"

// StreamSubjects are the subjects captured by StreamName.
var StreamSubjects = []string{"election.>"}

// Forwarder republishes bus messages on JetStream under the message's topic.
type Forwarder struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewForwarder connects to NATS and ensures the elections stream exists.
func NewForwarder(ctx context.Context, url string, logger *slog.Logger) (*Forwarder, error) {
	conn, err := nats.Connect(url,
		nats.Name("elections"),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		logger.Error("Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		logger.Error("Failed to initialize JetStream", attr.Error(err))
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := EnsureStream(ctx, js, logger); err != nil {
		conn.Close()
		return nil, err
	}

	return &Forwarder{conn: conn, js: js, logger: logger}, nil
}

// EnsureStream creates StreamName if it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to check stream: %w", err)
	}

	if _, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: StreamSubjects,
	}); err != nil {
		logger.Error("Failed to create JetStream stream", attr.String("stream", StreamName), attr.Error(err))
		return fmt.Errorf("failed to create stream: %w", err)
	}
	logger.Info("Created JetStream stream", attr.String("stream", StreamName))
	return nil
}

// Forward publishes msg on subject. The watermill UUID doubles as the
// JetStream message id, so retries are deduplicated.
func (f *Forwarder) Forward(ctx context.Context, subject string, msg *message.Message) error {
	out := nats.NewMsg(subject)
	out.Data = msg.Payload
	for k, v := range msg.Metadata {
		out.Header.Set(k, v)
	}

	ack, err := f.js.PublishMsg(ctx, out, jetstream.WithMsgID(msg.UUID))
	if err != nil {
		return fmt.Errorf("failed to publish to JetStream: %w", err)
	}

	f.logger.Debug("Forwarded status change",
		attr.String("subject", subject),
		attr.Int64("sequence", int64(ack.Sequence)),
	)
	return nil
}

// Close drains the NATS connection.
func (f *Forwarder) Close() {
	if err := f.conn.Drain(); err != nil {
		f.logger.Warn("Failed to drain NATS connection", attr.Error(err))
	}
}
