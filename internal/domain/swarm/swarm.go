// Package swarm defines the traced execution history of a swarm run:
// the run itself and its append-only steps, messages and handoffs.
package swarm

import (
	"cmp"
	"slices"
	"sync/atomic"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain/agent"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// StepStatus is the state of one agent step.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// MessageKind classifies a swarm message.
type MessageKind string

const (
	KindObservation MessageKind = "observation"
	KindProposal    MessageKind = "proposal"
	KindHandoff     MessageKind = "handoff"
	KindDecision    MessageKind = "decision"
	KindError       MessageKind = "error"
)

// HandoffStatus tells whether the target agent picked the handoff up.
type HandoffStatus string

const (
	HandoffPending  HandoffStatus = "pending"
	HandoffExecuted HandoffStatus = "executed"
)

// Run is one traced orchestration execution.
type Run struct {
	ID             string     `json:"id"`
	EventType      string     `json:"event_type"`
	EventID        string     `json:"event_id,omitempty"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	AgentsInvolved []agent.ID `json:"agents_involved"`
	TopActionScore *float64   `json:"top_action_score,omitempty"`
}

// Step is one agent's turn within a run.
type Step struct {
	ID            string     `json:"id"`
	RunID         string     `json:"run_id"`
	Agent         agent.ID   `json:"agent"`
	StepNo        int        `json:"step_no"`
	Status        StepStatus `json:"status"`
	TasksCreated  int        `json:"tasks_created"`
	DraftsCreated int        `json:"drafts_created"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Message is an entry in the run's message trail.
type Message struct {
	ID         string      `json:"id"`
	RunID      string      `json:"run_id"`
	StepNo     int         `json:"step_no"`
	FromAgent  agent.ID    `json:"from_agent"`
	ToAgent    agent.ID    `json:"to_agent,omitempty"`
	Kind       MessageKind `json:"kind"`
	Content    string      `json:"content"`
	Confidence *float64    `json:"confidence,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Handoff records a proposed agent-to-agent follow-up.
type Handoff struct {
	ID               string        `json:"id"`
	RunID            string        `json:"run_id"`
	StepNo           int           `json:"step_no"`
	FromAgent        agent.ID      `json:"from_agent"`
	ToAgent          agent.ID      `json:"to_agent"`
	Reason           string        `json:"reason"`
	Status           HandoffStatus `json:"status"`
	Blocking         bool          `json:"blocking"`
	RequiresApproval bool          `json:"requires_approval"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Snapshot is the full history of one run, ordered by step number.
type Snapshot struct {
	Run      Run       `json:"run"`
	Steps    []Step    `json:"steps"`
	Messages []Message `json:"messages"`
	Handoffs []Handoff `json:"handoffs"`
}

// Sort orders every history slice by step number.
func (s *Snapshot) Sort() {
	slices.SortStableFunc(s.Steps, func(a, b Step) int { return cmp.Compare(a.StepNo, b.StepNo) })
	slices.SortStableFunc(s.Messages, func(a, b Message) int { return cmp.Compare(a.StepNo, b.StepNo) })
	slices.SortStableFunc(s.Handoffs, func(a, b Handoff) int { return cmp.Compare(a.StepNo, b.StepNo) })
}

// Sequencer hands out strictly increasing step numbers for one run.
// The zero value starts at 1.
type Sequencer struct {
	n atomic.Int64
}

// Next returns the next step number.
func (s *Sequencer) Next() int {
	return int(s.n.Add(1))
}

// Last returns the most recently issued step number, or 0.
func (s *Sequencer) Last() int {
	return int(s.n.Load())
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
