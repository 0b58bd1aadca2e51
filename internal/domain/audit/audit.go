// Package audit defines the append-only audit trail of observable side effects.
package audit

import "time"

// Type names the side effect an audit record documents.
type Type string

const (
	TypeActionsRanked       Type = "actions.ranked"
	TypeSwarmRunCompleted   Type = "swarm.run.completed"
	TypeDiscussionCompleted Type = "discussion.completed"
	TypeHandoffRequested    Type = "handoff.requested"
)

// Record is never mutated or deleted once appended.
type Record struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Type      Type           `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New builds a record stamped at ts.
func New(id, actor string, typ Type, payload map[string]any, ts time.Time) Record {
	return Record{ID: id, Actor: actor, Type: typ, Payload: payload, Timestamp: ts}
}
