package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/ActionForge/internal/adapter/otel"
	"github.com/Strob0t/ActionForge/internal/config"
	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/domain/event"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
)

// actorEngine is the audit actor for records the engine writes itself.
const actorEngine = "actionforge"

// OrchestratorService runs the synchronous pipeline: generate, rank,
// derive handoffs, materialize, audit.
type OrchestratorService struct {
	reg         *agent.Registry
	specialists []Specialist
	audit       auditlog.Log
	outbox      *Outbox
	metrics     *otel.Metrics
	matCfg      config.Materializer
}

// NewOrchestratorService creates an OrchestratorService.
func NewOrchestratorService(
	reg *agent.Registry,
	specialists []Specialist,
	auditLog auditlog.Log,
	outbox *Outbox,
	metrics *otel.Metrics,
	matCfg config.Materializer,
) *OrchestratorService {
	if metrics == nil {
		metrics = otel.NopMetrics()
	}
	return &OrchestratorService{
		reg:         reg,
		specialists: specialists,
		audit:       auditLog,
		outbox:      outbox,
		metrics:     metrics,
		matCfg:      matCfg,
	}
}

// Orchestrate turns one context into ranked actions, tasks, drafts,
// handoffs and audit records. Only a malformed context is an error.
func (s *OrchestratorService) Orchestrate(ctx context.Context, octx *orchestration.Context) (*orchestration.Output, error) {
	if err := octx.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrate: %w", err)
	}
	ctx, span := otel.StartOrchestrateSpan(ctx, octx.Event.ID, string(octx.Event.Type))
	defer span.End()

	cands := s.generate(ctx, octx)
	ranked := orchestration.Rank(cands, octx)
	out := materializeOutput(ranked, s.matCfg.MinTotal, stampOf(octx))

	rec := audit.New(uuid.NewString(), actorEngine, audit.TypeActionsRanked, rankedAuditPayload(octx, ranked, "", out), stampOf(octx))
	out.AuditRecords = []audit.Record{rec}
	if err := s.audit.Append(ctx, rec); err != nil {
		slog.WarnContext(ctx, "audit append failed", "type", rec.Type, "error", err)
	}
	s.outbox.PublishOutput(ctx, out.Tasks, out.Drafts, out.AuditRecords)

	s.metrics.ActionsRanked.Add(ctx, int64(len(ranked)))
	slog.InfoContext(ctx, "orchestration completed",
		"event_id", octx.Event.ID,
		"event_type", octx.Event.Type,
		"candidates", len(ranked),
		"tasks", len(out.Tasks),
		"drafts", len(out.Drafts),
	)
	return out, nil
}

// generate runs every supporting specialist in parallel. Results are
// concatenated in registry order; a failing specialist contributes nothing.
func (s *OrchestratorService) generate(ctx context.Context, octx *orchestration.Context) []action.Candidate {
	active := supporting(s.reg, s.specialists, octx.Event.Type)
	results := make([][]action.Candidate, len(active))

	var g errgroup.Group
	for i, sp := range active {
		g.Go(func() error {
			res, err := runSpecialist(ctx, sp, octx)
			if err != nil {
				slog.WarnContext(ctx, "specialist failed", "agent", sp.ID(), "error", err)
				return nil
			}
			results[i] = res.Candidates
			return nil
		})
	}
	_ = g.Wait()

	var out []action.Candidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

// materializeOutput builds the output of an already ranked list.
func materializeOutput(ranked []action.Scored, minTotal float64, now time.Time) *orchestration.Output {
	tasks, drafts := action.Materialize(ranked, action.MaterializeOptions{
		MinTotal: minTotal,
		NewID:    uuid.NewString,
		Now:      now,
	})
	handoffs := orchestration.DeriveHandoffs(action.Candidates(ranked))
	return &orchestration.Output{
		RankedActions: orEmptySlice(ranked),
		Tasks:         tasks,
		Drafts:        orEmptySlice(drafts),
		Handoffs:      orEmptySlice(handoffs),
	}
}

// supporting keeps the specialists whose agent handles evType, in the order given.
func supporting(reg *agent.Registry, specialists []Specialist, evType event.Type) []Specialist {
	var out []Specialist
	for _, sp := range specialists {
		if reg.Supports(sp.ID(), evType) {
			out = append(out, sp)
		}
	}
	return out
}

// runSpecialist isolates one specialist: a panic becomes an error.
func runSpecialist(ctx context.Context, sp Specialist, octx *orchestration.Context) (res StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("specialist %s panicked: %v", sp.ID(), r)
		}
	}()
	return sp.Run(ctx, octx, uuid.NewString)
}

func rankedAuditPayload(octx *orchestration.Context, ranked []action.Scored, runID string, out *orchestration.Output) map[string]any {
	p := map[string]any{
		"event_id":   octx.Event.ID,
		"event_type": string(octx.Event.Type),
		"candidates": len(ranked),
		"tasks":      len(out.Tasks),
		"drafts":     len(out.Drafts),
	}
	if runID != "" {
		p["run_id"] = runID
	}
	if top, ok := out.Top(); ok {
		p["top_action_id"] = top.ID
		p["top_action_total"] = top.Score.Total
	}
	return p
}

func orEmptySlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
