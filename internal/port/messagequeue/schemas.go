package messagequeue

import "encoding/json"

// DomainEventPayload is the schema for events.domain messages.
// Only the event is required; the rest of the orchestration context is optional.
type DomainEventPayload struct {
	Event            *EventPayload     `json:"event"`
	Customer         json.RawMessage   `json:"customer,omitempty"`
	ActiveObjectives []json.RawMessage `json:"active_objectives,omitempty"`
	ActiveOffers     []json.RawMessage `json:"active_offers,omitempty"`
}

// EventPayload is the embedded domain event.
type EventPayload struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	CustomerID     string         `json:"customer_id"`
	Payload        map[string]any `json:"payload"`
	CausationDepth int            `json:"causation_depth"`
}

// TaskPayload is the schema for actions.tasks messages.
type TaskPayload struct {
	ID           string `json:"id"`
	CandidateID  string `json:"candidate_id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	AssigneeRole string `json:"assignee_role"`
	Priority     int    `json:"priority"`
	Status       string `json:"status"`
}

// DraftPayload is the schema for actions.drafts messages.
type DraftPayload struct {
	ID            string `json:"id"`
	CandidateID   string `json:"candidate_id"`
	TaskID        string `json:"task_id"`
	Channel       string `json:"channel"`
	Body          string `json:"body"`
	NeedsApproval bool   `json:"needs_approval"`
	Status        string `json:"status"`
}

// AuditPayload is the schema for audit.records messages.
type AuditPayload struct {
	ID      string         `json:"id"`
	Actor   string         `json:"actor"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// HandoffRequestPayload is the schema for handoffs.request messages.
type HandoffRequestPayload struct {
	RunID          string `json:"run_id"`
	FromAgent      string `json:"from_agent"`
	ToAgent        string `json:"to_agent"`
	Reason         string `json:"reason"`
	EventID        string `json:"event_id"`
	EventType      string `json:"event_type"`
	CustomerID     string `json:"customer_id,omitempty"`
	CausationDepth int    `json:"causation_depth"`
}
