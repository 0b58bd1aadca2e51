package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/port/swarmstore"
)

// Recorder writes the append-only history of traced runs.
type Recorder struct {
	store swarmstore.Store
	now   func() time.Time
}

// NewRecorder creates a Recorder over store.
func NewRecorder(store swarmstore.Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Trace is the history writer of one run. It is owned by a single goroutine;
// the sequencer is the only source of step numbers.
type Trace struct {
	rec *Recorder
	run swarm.Run
	seq swarm.Sequencer
}

// Begin creates a running run.
func (r *Recorder) Begin(ctx context.Context, eventType, eventID string) (*Trace, error) {
	t := &Trace{
		rec: r,
		run: swarm.Run{
			ID:             uuid.NewString(),
			EventType:      eventType,
			EventID:        eventID,
			Status:         swarm.RunRunning,
			StartedAt:      r.now().UTC(),
			AgentsInvolved: []agent.ID{},
		},
	}
	if err := r.store.CreateRun(ctx, &t.run); err != nil {
		return nil, fmt.Errorf("create swarm run: %w", err)
	}
	return t, nil
}

// RunID returns the id of the traced run.
func (t *Trace) RunID() string { return t.run.ID }

// Run returns a copy of the run as last written.
func (t *Trace) Run() swarm.Run { return t.run }

// StartStep appends a running step for agentID.
func (t *Trace) StartStep(ctx context.Context, agentID agent.ID, startedAt time.Time) *swarm.Step {
	if !slices.Contains(t.run.AgentsInvolved, agentID) {
		t.run.AgentsInvolved = append(t.run.AgentsInvolved, agentID)
	}
	if startedAt.IsZero() {
		startedAt = t.rec.now()
	}
	st := &swarm.Step{
		ID:        uuid.NewString(),
		RunID:     t.run.ID,
		Agent:     agentID,
		StepNo:    t.seq.Next(),
		Status:    swarm.StepRunning,
		StartedAt: startedAt.UTC(),
	}
	t.warn(ctx, "append step", t.rec.store.AppendStep(ctx, st))
	return st
}

// FinishStep closes a step with its final status and work counts.
func (t *Trace) FinishStep(ctx context.Context, st *swarm.Step, status swarm.StepStatus, tasks, drafts int) {
	finished := t.rec.now().UTC()
	st.Status = status
	st.TasksCreated = tasks
	st.DraftsCreated = drafts
	st.FinishedAt = &finished
	t.warn(ctx, "update step", t.rec.store.UpdateStep(ctx, st))
}

// Message appends one message and returns it.
func (t *Trace) Message(ctx context.Context, from, to agent.ID, kind swarm.MessageKind, content string, confidence *float64) swarm.Message {
	m := swarm.Message{
		ID:         uuid.NewString(),
		RunID:      t.run.ID,
		StepNo:     t.seq.Next(),
		FromAgent:  from,
		ToAgent:    to,
		Kind:       kind,
		Content:    content,
		Confidence: confidence,
		CreatedAt:  t.rec.now().UTC(),
	}
	t.warn(ctx, "append message", t.rec.store.AppendMessage(ctx, &m))
	return m
}

// Handoff appends a handoff message and the handoff row under the same step number.
func (t *Trace) Handoff(ctx context.Context, ho swarm.Handoff) swarm.Handoff {
	m := t.Message(ctx, ho.FromAgent, ho.ToAgent, swarm.KindHandoff, ho.Reason, nil)
	ho.ID = uuid.NewString()
	ho.RunID = t.run.ID
	ho.StepNo = m.StepNo
	ho.CreatedAt = m.CreatedAt
	t.warn(ctx, "append handoff", t.rec.store.AppendHandoff(ctx, &ho))
	return ho
}

// Finish moves the run to a terminal status.
func (t *Trace) Finish(ctx context.Context, status swarm.RunStatus, topScore *float64) (swarm.Run, error) {
	finished := t.rec.now().UTC()
	t.run.Status = status
	t.run.FinishedAt = &finished
	t.run.TopActionScore = topScore
	if err := t.rec.store.UpdateRun(ctx, &t.run); err != nil {
		return t.run, fmt.Errorf("finish swarm run %s: %w", t.run.ID, err)
	}
	return t.run, nil
}

func (t *Trace) warn(ctx context.Context, op string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "swarm history write failed", "op", op, "run_id", t.run.ID, "error", err)
	}
}
