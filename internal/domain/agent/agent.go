// Package agent defines the specialist agents and discussion personas that
// take part in orchestration, and the registry that holds them.
package agent

import (
	"slices"

	"github.com/Strob0t/ActionForge/internal/domain/event"
)

// ID identifies an agent or persona.
type ID string

// Specialist agents.
const (
	Assistance   ID = "assistance"
	Quoting      ID = "quoting"
	Telephony    ID = "telephony"
	Energy       ID = "energy"
	Hardware     ID = "hardware"
	CustomerCare ID = "customer-care"
	Content      ID = "content"
	Compliance   ID = "compliance"
	Ingest       ID = "ingest"
)

// Discussion personas. They never run in swarm mode.
const (
	Orchestrator ID = "orchestrator"
	Critic       ID = "critic"
	Moderator    ID = "moderator"
)

// FallbackRole is reported for ids without a registered profile.
const FallbackRole = "Specialist"

// Profile describes one agent.
type Profile struct {
	ID          ID           `json:"id"`
	DisplayName string       `json:"display_name"`
	Role        string       `json:"role"`
	Description string       `json:"description,omitempty"`
	Supports    []event.Type `json:"supports,omitempty"`
	Persona     bool         `json:"persona,omitempty"`
}

// SupportsEvent reports whether the agent handles events of type t.
func (p *Profile) SupportsEvent(t event.Type) bool {
	return slices.Contains(p.Supports, t)
}

// DefaultProfiles returns the built-in roster in registry order.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID: Assistance, DisplayName: "Assistenza", Role: "Technical assistance",
			Description: "Reads repair outcomes and flags follow-up opportunities",
			Supports:    []event.Type{event.TypeTicketOutcome},
		},
		{
			ID: Quoting, DisplayName: "Preventivi", Role: "Quoting specialist",
			Description: "Prepares replacement quotes for devices not worth repairing",
			Supports:    []event.Type{event.TypeTicketOutcome},
		},
		{
			ID: Telephony, DisplayName: "Telefonia", Role: "Telephony and connectivity",
			Description: "Proposes connectivity upgrades and smartphone campaigns",
			Supports:    []event.Type{event.TypeTicketOutcome, event.TypePromoIngested},
		},
		{
			ID: Energy, DisplayName: "Energia", Role: "Energy advisor",
			Description: "Proposes energy contracts when the customer shows interest",
			Supports:    []event.Type{event.TypeTicketOutcome},
		},
		{
			ID: Hardware, DisplayName: "Hardware", Role: "Hardware sales",
			Description: "Runs the post-sale hardware playbook",
			Supports:    []event.Type{event.TypeInvoiceIngested},
		},
		{
			ID: CustomerCare, DisplayName: "CustomerCare", Role: "Customer care",
			Description: "Handles complaints and delivery delays",
			Supports:    []event.Type{event.TypeEmailReceived},
		},
		{
			ID: Content, DisplayName: "Content", Role: "Content and social",
			Description: "Turns notable sales into social content",
			Supports:    []event.Type{event.TypeInvoiceIngested},
		},
		{
			ID: Compliance, DisplayName: "Compliance", Role: "Compliance officer",
			Description: "Checks consent and contact pressure before outreach",
			Supports:    []event.Type{event.TypeEmailReceived, event.TypePromoIngested, event.TypeTicketOutcome},
		},
		{
			ID: Ingest, DisplayName: "Ingest", Role: "Data ingest",
			Description: "Normalizes ingested invoices and hands notable lines on",
			Supports:    []event.Type{event.TypeInvoiceIngested},
		},
		{ID: Orchestrator, DisplayName: "Orchestratore", Role: "Orchestrator", Persona: true},
		{ID: Critic, DisplayName: "Critico", Role: "Critic", Persona: true},
		{ID: Moderator, DisplayName: "Moderatore", Role: "Moderator", Persona: true},
	}
}
