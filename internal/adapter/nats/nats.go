// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/ActionForge/internal/logger"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
)

const (
	streamName      = "ACTIONFORGE"
	headerRequestID = "X-Request-ID"
	dlqSuffix       = ".dlq"

	// maxDeliveries is how often a failing message is redelivered before
	// it is parked on the dead-letter subject.
	maxDeliveries = 3
)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

var _ messagequeue.Queue = (*Queue)(nil)

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("actionforge"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	subjects := make([]string, 0, 2*len(messagequeue.Subjects()))
	for _, s := range messagequeue.Subjects() {
		subjects = append(subjects, s, s+dlqSuffix)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: subjects,
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish sends a message to the given subject. The request ID in ctx,
// if any, travels as a header.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = data
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a durable-less consumer for subject. Messages that
// fail schema validation go straight to the dead-letter subject; handler
// failures are redelivered up to maxDeliveries times.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    maxDeliveries + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(ctx, msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}
	return cons.Stop, nil
}

func (q *Queue) handle(ctx context.Context, msg jetstream.Msg, handler messagequeue.Handler) {
	msgCtx := context.WithoutCancel(ctx)
	if id := msg.Headers().Get(headerRequestID); id != "" {
		msgCtx = logger.WithRequestID(msgCtx, id)
	}

	if err := messagequeue.Validate(msg.Subject(), msg.Data()); err != nil {
		slog.WarnContext(msgCtx, "message rejected", "subject", msg.Subject(), "error", err)
		q.deadLetter(msgCtx, msg)
		return
	}

	if err := handler(msgCtx, msg.Subject(), msg.Data()); err != nil {
		slog.ErrorContext(msgCtx, "message handler failed", "subject", msg.Subject(), "error", err)
		if deliveries(msg) >= maxDeliveries || errors.Is(err, messagequeue.ErrPermanent) {
			q.deadLetter(msgCtx, msg)
			return
		}
		if nakErr := msg.Nak(); nakErr != nil {
			slog.ErrorContext(msgCtx, "nats nak failed", "error", nakErr)
		}
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		slog.ErrorContext(msgCtx, "nats ack failed", "error", ackErr)
	}
}

func (q *Queue) deadLetter(ctx context.Context, msg jetstream.Msg) {
	dlq := nats.NewMsg(msg.Subject() + dlqSuffix)
	dlq.Data = msg.Data()
	for k, v := range msg.Headers() {
		dlq.Header[k] = v
	}
	if _, err := q.js.PublishMsg(ctx, dlq); err != nil {
		slog.ErrorContext(ctx, "dead-letter publish failed", "subject", dlq.Subject, "error", err)
		_ = msg.Nak()
		return
	}
	// Term stops redelivery of the original.
	if err := msg.Term(); err != nil {
		slog.ErrorContext(ctx, "nats term failed", "error", err)
	}
}

func deliveries(msg jetstream.Msg) uint64 {
	md, err := msg.Metadata()
	if err != nil {
		return 0
	}
	return md.NumDelivered
}

// KeyValue returns the named KV bucket, creating it with the given TTL if needed.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("nats kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Drain processes in-flight messages, then closes the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the underlying connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
