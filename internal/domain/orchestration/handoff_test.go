package orchestration

import (
	"reflect"
	"testing"

	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/event"
)

func TestDeriveHandoffs(t *testing.T) {
	cands := []action.Candidate{
		{ID: "c1", Agent: agent.Quoting, Trigger: action.TriggerNotWorthRepairing},
		{ID: "c2", Agent: agent.Energy, Trigger: action.TriggerEnergySignal},
		{ID: "c3", Agent: agent.Telephony, Trigger: action.TriggerGamerLag},
		{ID: "c4", Agent: agent.Content, Trigger: action.TriggerInvoiceHardware},
	}

	got := DeriveHandoffs(cands)
	want := []struct{ from, to agent.ID }{
		{agent.Assistance, agent.Quoting},
		{agent.Assistance, agent.Telephony},
		{agent.Ingest, agent.Content},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].From != w.from || got[i].To != w.to {
			t.Errorf("edge[%d] = %s->%s, want %s->%s", i, got[i].From, got[i].To, w.from, w.to)
		}
		if got[i].Reason == "" {
			t.Errorf("edge[%d] has no reason", i)
		}
	}
	if got[0].CandidateID != "c1" {
		t.Errorf("edge must reference its candidate, got %q", got[0].CandidateID)
	}
}

func TestDeriveHandoffsKeepsDuplicates(t *testing.T) {
	cands := []action.Candidate{
		{ID: "c1", Agent: agent.Telephony, Trigger: action.TriggerGamerLag},
		{ID: "c2", Agent: agent.Telephony, Trigger: action.TriggerGamerLag},
	}
	if got := DeriveHandoffs(cands); len(got) != 2 {
		t.Errorf("expected duplicate edges, got %d", len(got))
	}
}

func TestDeriveHandoffsIsPure(t *testing.T) {
	octx := &Context{Event: &event.DomainEvent{
		ID: "ev", Type: event.TypeTicketOutcome,
		Payload: map[string]any{
			event.KeyOutcome:         "not-worth-repairing",
			event.KeyInferredSignals: []any{"gamer", "energia"},
		},
	}}
	cands := Generate(octx.Event, []commerce.Offer{}, seqIDs())

	a := DeriveHandoffs(cands)
	b := DeriveHandoffs(cands)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("edges differ between calls: %v vs %v", a, b)
	}

	var unknown []action.Candidate
	for _, c := range cands {
		if _, ok := HandoffRuleFor(c.Trigger); !ok {
			unknown = append(unknown, c)
		}
	}
	if got := DeriveHandoffs(unknown); len(got) != 0 {
		t.Errorf("candidates without handoff triggers produced %d edges", len(got))
	}
}

func TestEdgesReferenceCandidateAgents(t *testing.T) {
	ev := &event.DomainEvent{
		ID: "ev", Type: event.TypeInvoiceIngested,
		Payload: map[string]any{event.KeyLines: []any{"GPU RTX 4080"}},
	}
	cands := Generate(ev, nil, seqIDs())
	agents := map[agent.ID]bool{}
	for _, c := range cands {
		agents[c.Agent] = true
	}
	for _, e := range DeriveHandoffs(cands) {
		if !agents[e.To] {
			t.Errorf("edge target %s is not a candidate agent", e.To)
		}
	}
}

func TestHandoffRuleBlocking(t *testing.T) {
	r, ok := HandoffRuleFor(action.TriggerNotWorthRepairing)
	if !ok || !r.Blocking {
		t.Error("replacement quote handoff should block")
	}
	r, ok = HandoffRuleFor(action.TriggerGamerLag)
	if !ok || r.Blocking {
		t.Error("gamer-lag handoff should not block")
	}
	if _, ok := HandoffRuleFor(action.TriggerComplaintDelay); ok {
		t.Error("complaint has no handoff")
	}
}

func TestContextValidate(t *testing.T) {
	var nilCtx *Context
	if err := nilCtx.Validate(); err == nil {
		t.Error("nil context must fail")
	}
	if err := (&Context{}).Validate(); err == nil {
		t.Error("missing event must fail")
	}
	ok := &Context{Event: &event.DomainEvent{ID: "e", Type: event.TypeEmailReceived}}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
