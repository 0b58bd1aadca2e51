package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/event"
	"github.com/Strob0t/ActionForge/internal/domain/orchestration"
)

// saturationWarnLevel is the saturation score above which compliance warns.
const saturationWarnLevel = 70.0

// ProposedHandoff is a handoff edge plus the flags recorded with it.
type ProposedHandoff struct {
	orchestration.HandoffEdge
	Blocking         bool
	RequiresApproval bool
}

// StepResult is what one specialist contributes to a run.
type StepResult struct {
	Observation string
	Candidates  []action.Candidate
	Handoffs    []ProposedHandoff
}

// Specialist is one agent taking part in orchestration.
type Specialist interface {
	ID() agent.ID
	Run(ctx context.Context, octx *orchestration.Context, newID orchestration.IDFunc) (StepResult, error)
}

// RuleSpecialist runs the candidate rules it owns and proposes the handoffs
// it is the source of.
type RuleSpecialist struct {
	id agent.ID
}

// NewRuleSpecialist creates a rule-driven specialist for id.
func NewRuleSpecialist(id agent.ID) *RuleSpecialist {
	return &RuleSpecialist{id: id}
}

func (s *RuleSpecialist) ID() agent.ID { return s.id }

func (s *RuleSpecialist) Run(_ context.Context, octx *orchestration.Context, newID orchestration.IDFunc) (StepResult, error) {
	ev := octx.Event
	own := orchestration.GenerateFor(s.id, ev, octx.ActiveOffers, newID)

	var handoffs []ProposedHandoff
	for _, tr := range orchestration.Triggers(ev) {
		rule, ok := orchestration.HandoffRuleFor(tr)
		if !ok || rule.From != s.id {
			continue
		}
		to, _ := orchestration.OwnerOf(tr)
		handoffs = append(handoffs, ProposedHandoff{
			HandoffEdge: orchestration.HandoffEdge{
				From:    rule.From,
				To:      to,
				Reason:  rule.Reason,
				Trigger: tr,
			},
			Blocking:         rule.Blocking,
			RequiresApproval: orchestration.NeedsApproval(tr),
		})
	}

	return StepResult{
		Observation: observe(s.id, ev.Type, own, handoffs),
		Candidates:  own,
		Handoffs:    handoffs,
	}, nil
}

func observe(id agent.ID, evType event.Type, cands []action.Candidate, handoffs []ProposedHandoff) string {
	if len(cands) == 0 && len(handoffs) == 0 {
		return fmt.Sprintf("%s: nothing to propose for %s", id, evType)
	}
	triggers := make([]string, 0, len(cands))
	for i := range cands {
		triggers = append(triggers, cands[i].Trigger.String())
	}
	return fmt.Sprintf("%s: %d candidate(s) [%s], %d handoff(s) for %s",
		id, len(cands), strings.Join(triggers, ", "), len(handoffs), evType)
}

// ComplianceSpecialist produces no candidates. It observes consent and
// contact pressure so reviewers see them in the run history.
type ComplianceSpecialist struct{}

func (ComplianceSpecialist) ID() agent.ID { return agent.Compliance }

func (ComplianceSpecialist) Run(_ context.Context, octx *orchestration.Context, _ orchestration.IDFunc) (StepResult, error) {
	c := octx.Customer
	if c == nil {
		return StepResult{Observation: "compliance: no customer attached, outreach stays behind approval"}, nil
	}

	var notes []string
	var missing []string
	for _, ch := range []commerce.Channel{commerce.ChannelWhatsApp, commerce.ChannelEmail, commerce.ChannelSMS} {
		if !c.HasConsent(ch) {
			missing = append(missing, string(ch))
		}
	}
	if len(missing) > 0 {
		notes = append(notes, "no consent on "+strings.Join(missing, ", "))
	}
	if c.CommercialSaturationScore >= saturationWarnLevel {
		notes = append(notes, fmt.Sprintf("saturation %.0f/100, avoid further commercial contact", c.CommercialSaturationScore))
	}
	if len(notes) == 0 {
		return StepResult{Observation: "compliance: consent and contact pressure are fine"}, nil
	}
	return StepResult{Observation: "compliance: " + strings.Join(notes, "; ")}, nil
}

// NewSpecialists builds one specialist per registered non-persona agent,
// in registry order.
func NewSpecialists(reg *agent.Registry) []Specialist {
	profiles := reg.Specialists()
	out := make([]Specialist, 0, len(profiles))
	for i := range profiles {
		if profiles[i].ID == agent.Compliance {
			out = append(out, ComplianceSpecialist{})
			continue
		}
		out = append(out, NewRuleSpecialist(profiles[i].ID))
	}
	return out
}
