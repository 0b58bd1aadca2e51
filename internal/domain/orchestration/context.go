// Package orchestration holds the pure decision logic: candidate rules,
// scoring and ranking, and handoff derivation.
package orchestration

import (
	"fmt"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/event"
)

// Context is the read-only snapshot every rule and agent sees during a run.
type Context struct {
	Event            *event.DomainEvent   `json:"event"`
	Customer         *commerce.Customer   `json:"customer,omitempty"`
	ActiveObjectives []commerce.Objective `json:"active_objectives,omitempty"`
	ActiveOffers     []commerce.Offer     `json:"active_offers,omitempty"`
	Now              time.Time            `json:"now"`
}

// Validate fails when the context has no usable event.
func (c *Context) Validate() error {
	if c == nil || c.Event == nil {
		return fmt.Errorf("%w: orchestration context requires an event", domain.ErrValidation)
	}
	return c.Event.Validate()
}

// Output is the result of one synchronous orchestration.
type Output struct {
	RankedActions []action.Scored   `json:"ranked_actions"`
	Tasks         []action.TaskItem `json:"tasks"`
	Drafts        []action.Draft    `json:"drafts"`
	Handoffs      []HandoffEdge     `json:"handoffs"`
	AuditRecords  []audit.Record    `json:"audit_records"`
}

// Top returns the recommended action, if any.
func (o *Output) Top() (action.Scored, bool) {
	if len(o.RankedActions) == 0 {
		return action.Scored{}, false
	}
	return o.RankedActions[0], true
}
