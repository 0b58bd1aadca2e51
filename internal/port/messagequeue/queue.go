// Package messagequeue defines the message queue port (interface).
package messagequeue

import (
	"context"
	"errors"
)

// ErrPermanent marks a handler failure that redelivery cannot fix.
var ErrPermanent = errors.New("permanent message failure")

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	IsConnected() bool
}

// Subjects used by ActionForge.
const (
	SubjectEventsDomain    = "events.domain"    // inbound: orchestration context to run through the swarm
	SubjectActionTasks     = "actions.tasks"    // outbound: one materialized task per message
	SubjectActionDrafts    = "actions.drafts"   // outbound: one materialized draft per message
	SubjectAuditRecords    = "audit.records"    // outbound: audit trail mirror
	SubjectHandoffsRequest = "handoffs.request" // outbound: follow-up event for a handoff target
)

// Subjects lists every subject the stream must capture.
func Subjects() []string {
	return []string{
		SubjectEventsDomain,
		SubjectActionTasks,
		SubjectActionDrafts,
		SubjectAuditRecords,
		SubjectHandoffsRequest,
	}
}
