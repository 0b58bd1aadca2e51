// Package swarmstore defines the persistence port for swarm run history.
package swarmstore

import (
	"context"

	"github.com/Strob0t/ActionForge/internal/domain/swarm"
)

// Store persists runs and their append-only history.
// Get methods return an error wrapping domain.ErrNotFound for unknown ids.
// List methods return rows ordered by step number.
type Store interface {
	CreateRun(ctx context.Context, r *swarm.Run) error
	UpdateRun(ctx context.Context, r *swarm.Run) error
	GetRun(ctx context.Context, id string) (*swarm.Run, error)

	AppendStep(ctx context.Context, s *swarm.Step) error
	UpdateStep(ctx context.Context, s *swarm.Step) error
	ListSteps(ctx context.Context, runID string) ([]swarm.Step, error)

	AppendMessage(ctx context.Context, m *swarm.Message) error
	ListMessages(ctx context.Context, runID string) ([]swarm.Message, error)

	AppendHandoff(ctx context.Context, h *swarm.Handoff) error
	ListHandoffs(ctx context.Context, runID string) ([]swarm.Handoff, error)
}

// Snapshot assembles the full history of a run from a store.
func Snapshot(ctx context.Context, s Store, runID string) (*swarm.Snapshot, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	steps, err := s.ListSteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.ListMessages(ctx, runID)
	if err != nil {
		return nil, err
	}
	handoffs, err := s.ListHandoffs(ctx, runID)
	if err != nil {
		return nil, err
	}
	snap := &swarm.Snapshot{Run: *run, Steps: steps, Messages: msgs, Handoffs: handoffs}
	snap.Sort()
	return snap, nil
}
