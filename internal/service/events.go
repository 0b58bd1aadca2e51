package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
)

// SwarmExecutor runs one traced orchestration.
type SwarmExecutor interface {
	Execute(ctx context.Context, octx *orchestration.Context) (*SwarmResult, error)
}

// EventConsumer runs a traced swarm execution for every orchestration
// context published on events.domain.
type EventConsumer struct {
	swarm SwarmExecutor
	queue messagequeue.Queue
}

// NewEventConsumer creates an EventConsumer.
func NewEventConsumer(swarm SwarmExecutor, queue messagequeue.Queue) *EventConsumer {
	return &EventConsumer{swarm: swarm, queue: queue}
}

// Start subscribes to events.domain. The returned function stops consumption.
func (c *EventConsumer) Start(ctx context.Context) (func(), error) {
	cancel, err := c.queue.Subscribe(ctx, messagequeue.SubjectEventsDomain, c.Handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", messagequeue.SubjectEventsDomain, err)
	}
	slog.Info("event consumer started", "subject", messagequeue.SubjectEventsDomain)
	return cancel, nil
}

// Handle processes one message. Malformed contexts and events past the
// causation limit are permanent failures and go to the dead-letter subject.
func (c *EventConsumer) Handle(ctx context.Context, _ string, data []byte) error {
	var octx orchestration.Context
	if err := json.Unmarshal(data, &octx); err != nil {
		return fmt.Errorf("%w: decode orchestration context: %w", messagequeue.ErrPermanent, err)
	}

	res, err := c.swarm.Execute(ctx, &octx)
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrRecursionLimit):
		slog.WarnContext(ctx, "inbound event rejected", "error", err)
		return fmt.Errorf("%w: %w", messagequeue.ErrPermanent, err)
	case err != nil:
		return err
	}

	slog.InfoContext(ctx, "inbound event orchestrated",
		"event_id", octx.Event.ID,
		"run_id", res.RunID,
		"status", res.Status,
	)
	return nil
}
