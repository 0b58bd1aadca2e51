// Package action defines action candidates, their score breakdown and the
// tasks and drafts materialized from them.
package action

import (
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
)

// Type is the kind of next-best action.
type Type string

const (
	TypeQuote        Type = "quote"
	TypeCrossSell    Type = "cross-sell"
	TypeCustomerCare Type = "customer-care"
	TypeCampaign     Type = "campaign"
	TypeContent      Type = "content"
	TypeFollowup     Type = "followup"
)

// MetaTrigger is the metadata key carrying the trigger name.
const MetaTrigger = "trigger"

// Seed holds the rule-supplied fit values that scoring starts from.
type Seed struct {
	ContextFit float64 `json:"context_fit"`
	ProfileFit float64 `json:"profile_fit"`
}

// Candidate is a proposed action before ranking.
type Candidate struct {
	ID            string            `json:"id"`
	Agent         agent.ID          `json:"agent"`
	Type          Type              `json:"action_type"`
	Title         string            `json:"title"`
	Channel       commerce.Channel  `json:"channel,omitempty"`
	OfferID       string            `json:"offer_id,omitempty"`
	CustomerID    string            `json:"customer_id,omitempty"`
	Confidence    float64           `json:"confidence"`
	NeedsApproval bool              `json:"needs_approval"`
	Trigger       Trigger           `json:"trigger"`
	Seed          Seed              `json:"seed"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Scored pairs a candidate with its computed score.
type Scored struct {
	Candidate
	Score ScoreBreakdown `json:"score_breakdown"`
}

// Candidates strips the scores from a ranked list.
func Candidates(ranked []Scored) []Candidate {
	out := make([]Candidate, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].Candidate
	}
	return out
}

// ScoreBreakdown lists every scoring component and their total.
type ScoreBreakdown struct {
	ContextFit          float64 `json:"context_fit"`
	ProfileFit          float64 `json:"profile_fit"`
	ObjectiveBoost      float64 `json:"objective_boost"`
	MarginScore         float64 `json:"margin_score"`
	StockScore          float64 `json:"stock_score"`
	ChannelConsentScore float64 `json:"channel_consent_score"`
	SaturationPenalty   float64 `json:"saturation_penalty"`
	ConfidenceScore     float64 `json:"confidence_score"`
	Total               float64 `json:"total"`
}

// Sum adds every component and subtracts the saturation penalty.
// It ignores the stored Total.
func (b ScoreBreakdown) Sum() float64 { //nolint:gocritic // small value type
	return b.ContextFit + b.ProfileFit + b.ObjectiveBoost + b.MarginScore +
		b.StockScore + b.ChannelConsentScore + b.ConfidenceScore - b.SaturationPenalty
}

// WithTotal returns a copy of b whose Total equals Sum.
func (b ScoreBreakdown) WithTotal() ScoreBreakdown { //nolint:gocritic // returns a modified copy
	b.Total = b.Sum()
	return b
}
