package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/swarm"
	"github.com/Strob0t/ActionForge/internal/port/swarmstore"
)

// SwarmStore implements swarmstore.Store using PostgreSQL.
type SwarmStore struct {
	pool *pgxpool.Pool
}

var _ swarmstore.Store = (*SwarmStore)(nil)

// NewSwarmStore creates a SwarmStore backed by the given connection pool.
func NewSwarmStore(pool *pgxpool.Pool) *SwarmStore {
	return &SwarmStore{pool: pool}
}

// --- Runs ---

func (s *SwarmStore) CreateRun(ctx context.Context, r *swarm.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO swarm_runs (id, event_type, event_id, status, started_at, finished_at, agents_involved, top_action_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.EventType, nullIfEmpty(r.EventID), string(r.Status), r.StartedAt, r.FinishedAt,
		agentStrings(r.AgentsInvolved), r.TopActionScore)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create run %s: %w", r.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create run %s: %w", r.ID, err)
	}
	return nil
}

// UpdateRun refuses to move a run out of a terminal status.
func (s *SwarmStore) UpdateRun(ctx context.Context, r *swarm.Run) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE swarm_runs
		 SET status = $2, finished_at = $3, agents_involved = $4, top_action_score = $5
		 WHERE id = $1 AND status = 'running'`,
		r.ID, string(r.Status), r.FinishedAt, agentStrings(r.AgentsInvolved), r.TopActionScore)
	if err == nil && tag.RowsAffected() == 0 {
		var exists bool
		if qErr := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM swarm_runs WHERE id = $1)`, r.ID).Scan(&exists); qErr == nil && exists {
			return fmt.Errorf("update run %s: already terminal: %w", r.ID, domain.ErrConflict)
		}
	}
	return execExpectOne(tag, err, "update run %s", r.ID)
}

func (s *SwarmStore) GetRun(ctx context.Context, id string) (*swarm.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, event_type, event_id, status, started_at, finished_at, agents_involved, top_action_score
		 FROM swarm_runs WHERE id = $1`, id)

	var (
		r       swarm.Run
		eventID *string
		status  string
		agents  []string
	)
	if err := row.Scan(&r.ID, &r.EventType, &eventID, &status, &r.StartedAt, &r.FinishedAt, &agents, &r.TopActionScore); err != nil {
		return nil, notFoundWrap(err, "get run %s", id)
	}
	r.EventID = deref(eventID)
	r.Status = swarm.RunStatus(status)
	r.AgentsInvolved = agentIDs(agents)
	return &r, nil
}

// --- Steps ---

func (s *SwarmStore) AppendStep(ctx context.Context, st *swarm.Step) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO swarm_steps (id, run_id, agent, step_no, status, tasks_created, drafts_created, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		st.ID, st.RunID, string(st.Agent), st.StepNo, string(st.Status),
		st.TasksCreated, st.DraftsCreated, st.StartedAt, st.FinishedAt)
	return appendErr(err, "append step %d to run %s", st.StepNo, st.RunID)
}

func (s *SwarmStore) UpdateStep(ctx context.Context, st *swarm.Step) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE swarm_steps SET status = $2, tasks_created = $3, drafts_created = $4, finished_at = $5
		 WHERE id = $1`,
		st.ID, string(st.Status), st.TasksCreated, st.DraftsCreated, st.FinishedAt)
	return execExpectOne(tag, err, "update step %s", st.ID)
}

func (s *SwarmStore) ListSteps(ctx context.Context, runID string) ([]swarm.Step, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, agent, step_no, status, tasks_created, drafts_created, started_at, finished_at
		 FROM swarm_steps WHERE run_id = $1 ORDER BY step_no`, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []swarm.Step
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, st)
	}
	return orEmpty(steps), rows.Err()
}

func scanStep(row scannable) (swarm.Step, error) {
	var (
		st         swarm.Step
		ag, status string
	)
	err := row.Scan(&st.ID, &st.RunID, &ag, &st.StepNo, &status,
		&st.TasksCreated, &st.DraftsCreated, &st.StartedAt, &st.FinishedAt)
	st.Agent = agent.ID(ag)
	st.Status = swarm.StepStatus(status)
	return st, err
}

// --- Messages ---

func (s *SwarmStore) AppendMessage(ctx context.Context, m *swarm.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO swarm_messages (id, run_id, step_no, from_agent, to_agent, kind, content, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.RunID, m.StepNo, string(m.FromAgent), nullIfEmpty(string(m.ToAgent)),
		string(m.Kind), m.Content, m.Confidence, m.CreatedAt)
	return appendErr(err, "append message %d to run %s", m.StepNo, m.RunID)
}

func (s *SwarmStore) ListMessages(ctx context.Context, runID string) ([]swarm.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, step_no, from_agent, to_agent, kind, content, confidence, created_at
		 FROM swarm_messages WHERE run_id = $1 ORDER BY step_no`, runID)
	if err != nil {
		return nil, fmt.Errorf("list messages %s: %w", runID, err)
	}
	defer rows.Close()

	var msgs []swarm.Message
	for rows.Next() {
		var (
			m          swarm.Message
			from, kind string
			to         *string
		)
		if err := rows.Scan(&m.ID, &m.RunID, &m.StepNo, &from, &to, &kind, &m.Content, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.FromAgent = agent.ID(from)
		m.ToAgent = agent.ID(deref(to))
		m.Kind = swarm.MessageKind(kind)
		msgs = append(msgs, m)
	}
	return orEmpty(msgs), rows.Err()
}

// --- Handoffs ---

func (s *SwarmStore) AppendHandoff(ctx context.Context, h *swarm.Handoff) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO swarm_handoffs (id, run_id, step_no, from_agent, to_agent, reason, status, blocking, requires_approval, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		h.ID, h.RunID, h.StepNo, string(h.FromAgent), string(h.ToAgent), h.Reason,
		string(h.Status), h.Blocking, h.RequiresApproval, h.CreatedAt)
	return appendErr(err, "append handoff %d to run %s", h.StepNo, h.RunID)
}

func (s *SwarmStore) ListHandoffs(ctx context.Context, runID string) ([]swarm.Handoff, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, step_no, from_agent, to_agent, reason, status, blocking, requires_approval, created_at
		 FROM swarm_handoffs WHERE run_id = $1 ORDER BY step_no`, runID)
	if err != nil {
		return nil, fmt.Errorf("list handoffs %s: %w", runID, err)
	}
	defer rows.Close()

	var out []swarm.Handoff
	for rows.Next() {
		var (
			h                swarm.Handoff
			from, to, status string
		)
		if err := rows.Scan(&h.ID, &h.RunID, &h.StepNo, &from, &to, &h.Reason, &status,
			&h.Blocking, &h.RequiresApproval, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan handoff: %w", err)
		}
		h.FromAgent, h.ToAgent = agent.ID(from), agent.ID(to)
		h.Status = swarm.HandoffStatus(status)
		out = append(out, h)
	}
	return orEmpty(out), rows.Err()
}

func appendErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf(format+": %w", append(args, domain.ErrConflict)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func agentStrings(ids []agent.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func agentIDs(ss []string) []agent.ID {
	out := make([]agent.ID, len(ss))
	for i, s := range ss {
		out[i] = agent.ID(s)
	}
	return out
}
