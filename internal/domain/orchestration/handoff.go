package orchestration

import (
	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
)

// HandoffEdge is a directed suggestion that one agent's finding should be
// followed up by another agent.
type HandoffEdge struct {
	From        agent.ID       `json:"from_agent"`
	To          agent.ID       `json:"to_agent"`
	Reason      string         `json:"reason"`
	Trigger     action.Trigger `json:"trigger"`
	CandidateID string         `json:"candidate_id"`
}

// HandoffRule describes the edge a trigger produces.
type HandoffRule struct {
	From     agent.ID
	Reason   string
	Blocking bool
}

var handoffRules = map[action.Trigger]HandoffRule{
	action.TriggerNotWorthRepairing: {
		From:     agent.Assistance,
		Reason:   "device not worth repairing, quote a replacement",
		Blocking: true,
	},
	action.TriggerGamerLag: {
		From:   agent.Assistance,
		Reason: "gamer lag signal, propose a connectivity upgrade",
	},
	action.TriggerInvoiceHardware: {
		From:   agent.Ingest,
		Reason: "hardware sold on invoice, prepare content",
	},
}

// HandoffRuleFor returns the handoff rule for a trigger, if it has one.
func HandoffRuleFor(tr action.Trigger) (HandoffRule, bool) {
	r, ok := handoffRules[tr]
	return r, ok
}

// DeriveHandoffs projects candidates onto handoff edges, in candidate order.
// The target of every edge is the agent owning the candidate. Duplicates are kept.
func DeriveHandoffs(cands []action.Candidate) []HandoffEdge {
	var out []HandoffEdge
	for i := range cands {
		c := &cands[i]
		r, ok := handoffRules[c.Trigger]
		if !ok {
			continue
		}
		out = append(out, HandoffEdge{
			From:        r.From,
			To:          c.Agent,
			Reason:      r.Reason,
			Trigger:     c.Trigger,
			CandidateID: c.ID,
		})
	}
	return out
}
