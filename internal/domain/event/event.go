// Package event defines the business events that drive action orchestration.
package event

import (
	"fmt"
	"time"

	"github.com/Strob0t/ActionForge/internal/domain"
)

// Type identifies the kind of business event.
type Type string

const (
	TypeTicketOutcome   Type = "assistance.ticket.outcome"
	TypeTicketOpened    Type = "assistance.ticket.opened"
	TypeInvoiceIngested Type = "danea.invoice.ingested"
	TypePromoIngested   Type = "offer.promo.ingested"
	TypeEmailReceived   Type = "inbound.email.received"
	TypeChatReceived    Type = "inbound.chat.received"
)

var knownTypes = map[Type]bool{
	TypeTicketOutcome:   true,
	TypeTicketOpened:    true,
	TypeInvoiceIngested: true,
	TypePromoIngested:   true,
	TypeEmailReceived:   true,
	TypeChatReceived:    true,
}

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	return knownTypes[t]
}

// DomainEvent is an immutable business fact consumed by one orchestration run.
type DomainEvent struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	CustomerID string         `json:"customer_id,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`

	// CausationDepth counts how many handoff hops produced this event.
	// Zero for events that enter the system from outside.
	CausationDepth int `json:"causation_depth,omitempty"`
}

// Validate checks that the event carries an id and a type. Types outside
// the known set are accepted; no rule matches them, so they rank nothing.
func (e *DomainEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: event id is required", domain.ErrValidation)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: event type is required", domain.ErrValidation)
	}
	if e.CausationDepth < 0 {
		return fmt.Errorf("%w: causation_depth must be >= 0", domain.ErrValidation)
	}
	return nil
}
