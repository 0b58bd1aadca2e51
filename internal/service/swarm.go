package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/ActionForge/internal/adapter/otel"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/logger"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
	"github.com/Strob0t/ActionForge/internal/port/broadcast"
	"github.com/Strob0t/ActionForge/internal/port/cache"
	"github.com/Strob0t/ActionForge/internal/port/messagequeue"
	"github.com/Strob0t/ActionForge/internal/port/swarmstore"
)

// SwarmResult is the outcome of one traced run.
type SwarmResult struct {
	RunID  string                `json:"run_id"`
	Status swarm.RunStatus       `json:"status"`
	Output *orchestration.Output `json:"output"`
}

// SwarmService executes traced runs across all supporting specialists and
// serves their history.
type SwarmService struct {
	reg         *agent.Registry
	specialists []Specialist
	store       swarmstore.Store
	recorder    *Recorder
	audit       auditlog.Log
	outbox      *Outbox
	hub         broadcast.Broadcaster
	cache       cache.Cache
	metrics     *otel.Metrics
	cfg         config.Swarm
	snapshotTTL time.Duration
	minTotal    float64
}

// NewSwarmService creates a SwarmService. hub and metrics may be nil.
func NewSwarmService(
	reg *agent.Registry,
	specialists []Specialist,
	store swarmstore.Store,
	auditLog auditlog.Log,
	outbox *Outbox,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
	cfg config.Swarm,
	matCfg config.Materializer,
) *SwarmService {
	if metrics == nil {
		metrics = otel.NopMetrics()
	}
	return &SwarmService{
		reg:         reg,
		specialists: specialists,
		store:       store,
		recorder:    NewRecorder(store),
		audit:       auditLog,
		outbox:      outbox,
		hub:         hub,
		metrics:     metrics,
		cfg:         cfg,
		minTotal:    matCfg.MinTotal,
	}
}

// SetCache enables snapshot caching of terminal runs.
func (s *SwarmService) SetCache(c cache.Cache, ttl time.Duration) {
	s.cache = c
	s.snapshotTTL = ttl
}

// Recorder exposes the history writer for other traced protocols.
func (s *SwarmService) Recorder() *Recorder { return s.recorder }

// runState collects what the agent steps of one run produced.
type runState struct {
	ranked   []action.Scored
	failed   int
	seen     map[[2]agent.ID]bool
	handoffs []swarm.Handoff
	pending  []swarm.Handoff
}

// Execute runs every supporting specialist in registry order and records
// each step. An agent failure only fails its own step.
func (s *SwarmService) Execute(ctx context.Context, octx *orchestration.Context) (*SwarmResult, error) {
	if err := octx.Validate(); err != nil {
		return nil, fmt.Errorf("swarm execute: %w", err)
	}
	ev := octx.Event
	if ev.CausationDepth > s.cfg.MaxCausationDepth {
		return nil, fmt.Errorf("swarm execute event %s at depth %d: %w", ev.ID, ev.CausationDepth, domain.ErrRecursionLimit)
	}

	trace, err := s.recorder.Begin(ctx, string(ev.Type), ev.ID)
	if err != nil {
		return nil, err
	}
	runID := trace.RunID()
	ctx = logger.WithRunID(ctx, runID)
	ctx, span := otel.StartSwarmRunSpan(ctx, runID, string(ev.Type), ev.CausationDepth)
	defer span.End()
	started := time.Now()

	evAttr := metric.WithAttributes(attribute.String("event_type", string(ev.Type)))
	s.metrics.RunsStarted.Add(ctx, 1, evAttr)
	s.broadcast(ctx, broadcast.EventSwarmRunStarted, runID, string(ev.Type), swarm.RunRunning)
	slog.InfoContext(ctx, "swarm run started", "event_id", ev.ID, "event_type", ev.Type)

	active := supporting(s.reg, s.specialists, ev.Type)
	st := &runState{seen: make(map[[2]agent.ID]bool)}

	if s.cfg.ParallelGeneration {
		steps := make([]*swarm.Step, len(active))
		for i, sp := range active {
			steps[i] = trace.StartStep(ctx, sp.ID(), time.Time{})
		}
		outcomes := s.runAll(ctx, runID, steps, active, octx)
		for i, sp := range active {
			s.recordAgent(ctx, trace, steps[i], sp, outcomes[i], octx, st)
		}
	} else {
		for _, sp := range active {
			step := trace.StartStep(ctx, sp.ID(), time.Time{})
			oc := s.runOne(ctx, runID, step.StepNo, sp, octx)
			s.recordAgent(ctx, trace, step, sp, oc, octx, st)
		}
	}

	orchestration.SortRanked(st.ranked)
	out := materializeOutput(st.ranked, s.minTotal, stampOf(octx))
	out.Handoffs = orEmptySlice(orchestration.DeriveHandoffs(action.Candidates(st.ranked)))

	var topScore *float64
	if top, ok := out.Top(); ok {
		topScore = swarm.Float(top.Score.Total)
		trace.Message(ctx, agent.Orchestrator, top.Agent, swarm.KindDecision,
			fmt.Sprintf("recommended action: %s (%s, total %.2f)", top.Title, top.Agent, top.Score.Total),
			swarm.Float(top.Confidence))
	} else {
		trace.Message(ctx, agent.Orchestrator, "", swarm.KindDecision, "no actionable candidates", nil)
	}

	status := swarm.RunCompleted
	if len(active) > 0 && st.failed == len(active) {
		status = swarm.RunFailed
	}
	run, err := trace.Finish(ctx, status, topScore)
	if err != nil {
		otel.EndSpan(span, err)
		return nil, err
	}

	payload := rankedAuditPayload(octx, st.ranked, runID, out)
	payload["status"] = string(status)
	payload["handoffs"] = len(st.handoffs)
	rec := audit.New(uuid.NewString(), actorEngine, audit.TypeSwarmRunCompleted, payload, run.FinishedAt.UTC())
	out.AuditRecords = []audit.Record{rec}
	if err := s.audit.Append(ctx, rec); err != nil {
		slog.WarnContext(ctx, "audit append failed", "type", rec.Type, "error", err)
	}

	s.outbox.PublishOutput(ctx, out.Tasks, out.Drafts, out.AuditRecords)
	for i := range st.pending {
		s.outbox.PublishHandoff(ctx, handoffRequest(&st.pending[i], octx))
	}

	if _, err := s.Snapshot(ctx, runID); err != nil {
		slog.WarnContext(ctx, "snapshot warmup failed", "error", err)
	}

	s.broadcast(ctx, broadcast.EventSwarmRunFinished, runID, string(ev.Type), status)
	if status == swarm.RunFailed {
		s.metrics.RunsFailed.Add(ctx, 1, evAttr)
	} else {
		s.metrics.RunsCompleted.Add(ctx, 1, evAttr)
	}
	s.metrics.RunDuration.Record(ctx, time.Since(started).Seconds(), evAttr)
	slog.InfoContext(ctx, "swarm run finished",
		"status", status,
		"agents", len(active),
		"failed_agents", st.failed,
		"candidates", len(st.ranked),
		"handoffs", len(st.handoffs),
	)

	return &SwarmResult{RunID: runID, Status: status, Output: out}, nil
}

type agentOutcome struct {
	res StepResult
	err error
}

func (s *SwarmService) runOne(ctx context.Context, runID string, stepNo int, sp Specialist, octx *orchestration.Context) agentOutcome {
	ctx, span := otel.StartAgentStepSpan(ctx, runID, string(sp.ID()), stepNo)
	res, err := runSpecialist(ctx, sp, octx)
	otel.EndSpan(span, err)
	return agentOutcome{res: res, err: err}
}

// runAll executes the specialists concurrently. Step numbers were assigned
// before, so recording order stays the registry order.
func (s *SwarmService) runAll(ctx context.Context, runID string, steps []*swarm.Step, active []Specialist, octx *orchestration.Context) []agentOutcome {
	out := make([]agentOutcome, len(active))
	var g errgroup.Group
	for i, sp := range active {
		g.Go(func() error {
			out[i] = s.runOne(ctx, runID, steps[i].StepNo, sp, octx)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *SwarmService) recordAgent(ctx context.Context, trace *Trace, step *swarm.Step, sp Specialist, oc agentOutcome, octx *orchestration.Context, st *runState) {
	id := sp.ID()
	if oc.err != nil {
		st.failed++
		slog.WarnContext(ctx, "agent step failed", "agent", id, "step_no", step.StepNo, "error", oc.err)
		trace.Message(ctx, id, "", swarm.KindError, oc.err.Error(), nil)
		trace.FinishStep(ctx, step, swarm.StepFailed, 0, 0)
		s.metrics.StepsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("agent", string(id))))
		return
	}

	ranked := orchestration.Rank(oc.res.Candidates, octx)
	if oc.res.Observation != "" {
		trace.Message(ctx, id, "", swarm.KindObservation, oc.res.Observation, nil)
	}
	for i := range ranked {
		c := &ranked[i]
		trace.Message(ctx, id, "", swarm.KindProposal,
			fmt.Sprintf("%s [%s] total %.2f", c.Title, c.Trigger, c.Score.Total),
			swarm.Float(c.Confidence))
	}
	for i := range oc.res.Handoffs {
		s.recordHandoff(ctx, trace, &oc.res.Handoffs[i], octx, st)
	}

	tasks, drafts := materialCounts(ranked, s.minTotal)
	trace.FinishStep(ctx, step, swarm.StepCompleted, tasks, drafts)
	st.ranked = append(st.ranked, ranked...)
}

func (s *SwarmService) recordHandoff(ctx context.Context, trace *Trace, p *ProposedHandoff, octx *orchestration.Context, st *runState) {
	key := [2]agent.ID{p.From, p.To}
	if st.seen[key] {
		return
	}
	st.seen[key] = true

	if len(st.handoffs) >= s.cfg.MaxHandoffsPerRun {
		trace.Message(ctx, p.From, p.To, swarm.KindObservation,
			fmt.Sprintf("handoff limit of %d reached, dropped %s -> %s", s.cfg.MaxHandoffsPerRun, p.From, p.To), nil)
		return
	}

	status := swarm.HandoffPending
	if s.reg.Supports(p.To, octx.Event.Type) {
		status = swarm.HandoffExecuted
	}
	ho := trace.Handoff(ctx, swarm.Handoff{
		FromAgent:        p.From,
		ToAgent:          p.To,
		Reason:           p.Reason,
		Status:           status,
		Blocking:         p.Blocking,
		RequiresApproval: p.RequiresApproval,
	})
	st.handoffs = append(st.handoffs, ho)
	if status == swarm.HandoffPending {
		st.pending = append(st.pending, ho)
	}
	s.metrics.Handoffs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

// materialCounts predicts how many tasks and drafts a ranked list materializes.
func materialCounts(ranked []action.Scored, minTotal float64) (tasks, drafts int) {
	for i := range ranked {
		if ranked[i].Score.Total < minTotal {
			continue
		}
		tasks++
		if ranked[i].Channel != commerce.ChannelNone {
			drafts++
		}
	}
	return tasks, drafts
}

func handoffRequest(ho *swarm.Handoff, octx *orchestration.Context) *messagequeue.HandoffRequestPayload {
	return &messagequeue.HandoffRequestPayload{
		RunID:          ho.RunID,
		FromAgent:      string(ho.FromAgent),
		ToAgent:        string(ho.ToAgent),
		Reason:         ho.Reason,
		EventID:        octx.Event.ID,
		EventType:      string(octx.Event.Type),
		CustomerID:     octx.Event.CustomerID,
		CausationDepth: octx.Event.CausationDepth + 1,
	}
}

func stampOf(octx *orchestration.Context) time.Time {
	if !octx.Now.IsZero() {
		return octx.Now
	}
	return time.Now().UTC()
}

func (s *SwarmService) broadcast(ctx context.Context, typ, runID, eventType string, status swarm.RunStatus) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, typ, broadcast.RunLifecycle{RunID: runID, EventType: eventType, Status: string(status)})
}

// GetRun returns one run.
func (s *SwarmService) GetRun(ctx context.Context, id string) (*swarm.Run, error) {
	return s.store.GetRun(ctx, id)
}

// ListSteps returns the steps of a run ordered by step number.
func (s *SwarmService) ListSteps(ctx context.Context, runID string) ([]swarm.Step, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListSteps(ctx, runID)
}

// ListMessages returns the messages of a run ordered by step number.
func (s *SwarmService) ListMessages(ctx context.Context, runID string) ([]swarm.Message, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, runID)
}

// ListHandoffs returns the handoffs of a run ordered by step number.
func (s *SwarmService) ListHandoffs(ctx context.Context, runID string) ([]swarm.Handoff, error) {
	if _, err := s.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.store.ListHandoffs(ctx, runID)
}

// Snapshot returns the full history of a run. Terminal snapshots never
// change, so they are served from the cache when one is configured.
func (s *SwarmService) Snapshot(ctx context.Context, runID string) (*swarm.Snapshot, error) {
	key := cache.SnapshotKey(runID)
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "snapshot cache get failed", "run_id", runID, "error", err)
		}
		if ok {
			var snap swarm.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := swarmstore.Snapshot(ctx, s.store, runID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && snap.Run.Status.Terminal() {
		data, err := json.Marshal(snap)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.snapshotTTL)
		}
		if err != nil {
			slog.WarnContext(ctx, "snapshot cache set failed", "run_id", runID, "error", err)
		}
	}
	return snap, nil
}
