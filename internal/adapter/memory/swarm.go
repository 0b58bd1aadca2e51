// Package memory provides in-process implementations of the swarm history
// and audit ports for single-node deployments and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/port/swarmstore"
)

type runHistory struct {
	run      swarm.Run
	steps    []swarm.Step
	messages []swarm.Message
	handoffs []swarm.Handoff
	stepNos  map[string]map[int]bool // per row kind
}

// SwarmStore keeps every run in memory. Returned values are copies.
type SwarmStore struct {
	mu   sync.RWMutex
	runs map[string]*runHistory
}

var _ swarmstore.Store = (*SwarmStore)(nil)

// NewSwarmStore creates an empty store.
func NewSwarmStore() *SwarmStore {
	return &SwarmStore{runs: make(map[string]*runHistory)}
}

func (s *SwarmStore) CreateRun(_ context.Context, r *swarm.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("create run %s: %w", r.ID, domain.ErrConflict)
	}
	s.runs[r.ID] = &runHistory{run: cloneRun(r), stepNos: make(map[string]map[int]bool)}
	return nil
}

func (s *SwarmStore) UpdateRun(_ context.Context, r *swarm.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.history(r.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if h.run.Status.Terminal() {
		return fmt.Errorf("update run %s: already terminal: %w", r.ID, domain.ErrConflict)
	}
	h.run = cloneRun(r)
	return nil
}

func (s *SwarmStore) GetRun(_ context.Context, id string) (*swarm.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, err := s.history(id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r := cloneRun(&h.run)
	return &r, nil
}

func (s *SwarmStore) AppendStep(_ context.Context, st *swarm.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.reserve(st.RunID, "step", st.StepNo)
	if err != nil {
		return fmt.Errorf("append step: %w", err)
	}
	h.steps = append(h.steps, *st)
	return nil
}

func (s *SwarmStore) UpdateStep(_ context.Context, st *swarm.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.history(st.RunID)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	i := slices.IndexFunc(h.steps, func(x swarm.Step) bool { return x.ID == st.ID })
	if i < 0 {
		return fmt.Errorf("update step %s: %w", st.ID, domain.ErrNotFound)
	}
	h.steps[i] = *st
	return nil
}

func (s *SwarmStore) ListSteps(_ context.Context, runID string) ([]swarm.Step, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, err := s.history(runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	return sortedCopy(h.steps, func(x swarm.Step) int { return x.StepNo }), nil
}

func (s *SwarmStore) AppendMessage(_ context.Context, m *swarm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.reserve(m.RunID, "message", m.StepNo)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	h.messages = append(h.messages, *m)
	return nil
}

func (s *SwarmStore) ListMessages(_ context.Context, runID string) ([]swarm.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, err := s.history(runID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return sortedCopy(h.messages, func(x swarm.Message) int { return x.StepNo }), nil
}

func (s *SwarmStore) AppendHandoff(_ context.Context, ho *swarm.Handoff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.reserve(ho.RunID, "handoff", ho.StepNo)
	if err != nil {
		return fmt.Errorf("append handoff: %w", err)
	}
	h.handoffs = append(h.handoffs, *ho)
	return nil
}

func (s *SwarmStore) ListHandoffs(_ context.Context, runID string) ([]swarm.Handoff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, err := s.history(runID)
	if err != nil {
		return nil, fmt.Errorf("list handoffs: %w", err)
	}
	return sortedCopy(h.handoffs, func(x swarm.Handoff) int { return x.StepNo }), nil
}

// history must be called with s.mu held.
func (s *SwarmStore) history(runID string) (*runHistory, error) {
	h, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return h, nil
}

// reserve claims stepNo for a row kind. Must be called with s.mu held.
func (s *SwarmStore) reserve(runID, kind string, stepNo int) (*runHistory, error) {
	h, err := s.history(runID)
	if err != nil {
		return nil, err
	}
	used := h.stepNos[kind]
	if used == nil {
		used = make(map[int]bool)
		h.stepNos[kind] = used
	}
	if used[stepNo] {
		return nil, fmt.Errorf("%s step %d in run %s: %w", kind, stepNo, runID, domain.ErrConflict)
	}
	used[stepNo] = true
	return h, nil
}

func cloneRun(r *swarm.Run) swarm.Run {
	c := *r
	c.AgentsInvolved = slices.Clone(r.AgentsInvolved)
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		c.FinishedAt = &t
	}
	if r.TopActionScore != nil {
		c.TopActionScore = swarm.Float(*r.TopActionScore)
	}
	return c
}

func sortedCopy[T any](in []T, key func(T) int) []T {
	out := slices.Clone(in)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, func(a, b T) int { return key(a) - key(b) })
	return out
}
