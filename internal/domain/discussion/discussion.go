// Package discussion defines the turn and event types of the sequential
// multi-agent discussion protocol.
package discussion

import (
	"fmt"
	"strings"

	"github.com/Strob0t/ActionForge/internal/domain"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
)

// Round numbers.
const (
	RoundBrief   = 0
	RoundAnswers = 1
	RoundCritic  = 2
	RoundDefense = 3
)

// Kind classifies a visible turn.
type Kind string

const (
	KindBrief     Kind = "brief"
	KindAnswer    Kind = "answer"
	KindChallenge Kind = "challenge"
	KindDefense   Kind = "defense"
)

// Message is one visible turn of the thread.
type Message struct {
	Agent     agent.ID   `json:"agent"`
	AgentRole string     `json:"agent_role"`
	Content   string     `json:"content"`
	Kind      Kind       `json:"kind"`
	Mentions  []agent.ID `json:"mentions"`
	Round     int        `json:"round"`
}

// EventType names a streamed discussion event.
type EventType string

const (
	EventTyping  EventType = "typing"
	EventMessage EventType = "message"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is what the coordinator streams to its caller.
// Exactly one of the payload groups is set, matching Type.
type Event struct {
	Type EventType `json:"type"`

	// typing
	Agent     agent.ID `json:"agent,omitempty"`
	AgentRole string   `json:"agent_role,omitempty"`

	// message
	Message *Message `json:"msg,omitempty"`

	// done
	Synthesis  string             `json:"synthesis,omitempty"`
	SwarmRunID string             `json:"swarm_run_id,omitempty"`
	SessionID  string             `json:"session_id,omitempty"`
	Customer   *commerce.Customer `json:"customer,omitempty"`

	// error
	Error string `json:"message,omitempty"`
}

// Request starts one discussion.
type Request struct {
	SessionID string             `json:"session_id,omitempty"`
	Message   string             `json:"message"`
	Customer  *commerce.Customer `json:"customer,omitempty"`

	// OpenTickets overrides the customer's count when no customer is attached.
	OpenTickets int `json:"open_tickets,omitempty"`
}

// OpenTicketCount returns the larger of the explicit and customer counts.
func (r *Request) OpenTicketCount() int {
	if r.Customer != nil {
		return max(r.OpenTickets, r.Customer.OpenTickets)
	}
	return r.OpenTickets
}

// Validate rejects empty operator messages.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	return nil
}

// FallbackAgents picks the round-one responders when nobody was mentioned.
func FallbackAgents(openTickets int) []agent.ID {
	if openTickets > 0 {
		return []agent.ID{agent.Assistance, agent.CustomerCare}
	}
	return []agent.ID{agent.Quoting, agent.Telephony}
}

// Transcript renders the visible thread as plain text for prompts.
func Transcript(reg *agent.Registry, thread []Message) string {
	var b strings.Builder
	for i := range thread {
		m := &thread[i]
		fmt.Fprintf(&b, "[%s - %s] %s\n", reg.DisplayName(m.Agent), m.AgentRole, m.Content)
	}
	return b.String()
}
