package agent

import (
	"testing"

	"github.com/Strob0t/ActionForge/internal/domain/event"
)

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Profile{ID: Quoting}, Profile{ID: Quoting})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
	_, err = NewRegistry(Profile{})
	if err == nil {
		t.Fatal("expected empty id error")
	}
}

func TestSupportingKeepsRegistryOrder(t *testing.T) {
	r := DefaultRegistry()

	got := r.Supporting(event.TypeTicketOutcome)
	want := []ID{Assistance, Quoting, Telephony, Energy, Compliance}
	if len(got) != len(want) {
		t.Fatalf("expected %d agents, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("agent[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}

	if len(r.Supporting(event.TypeChatReceived)) != 0 {
		t.Error("no agent should support inbound chat")
	}
}

func TestSpecialistsExcludePersonas(t *testing.T) {
	r := DefaultRegistry()
	for _, p := range r.Specialists() {
		if p.Persona {
			t.Errorf("persona %s listed as specialist", p.ID)
		}
	}
	if len(r.Specialists()) != 9 {
		t.Errorf("expected 9 specialists, got %d", len(r.Specialists()))
	}
	if all := r.Profiles(); len(all) != 12 || all[len(all)-1].ID != Moderator {
		t.Errorf("Profiles() = %d profiles", len(all))
	}
}

func TestRole(t *testing.T) {
	r := DefaultRegistry()
	if got := r.Role(Critic); got != "Critic" {
		t.Errorf("Role(critic) = %q", got)
	}
	if got := r.Role("ghost"); got != FallbackRole {
		t.Errorf("Role(ghost) = %q, want %q", got, FallbackRole)
	}
}

func TestExtractMentions(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		text string
		want []ID
	}{
		{"display names", "Chiedo a @Telefonia e @Preventivi", []ID{Telephony, Quoting}},
		{"ids case-insensitive", "@QUOTING please, and @customer-care", []ID{Quoting, CustomerCare}},
		{"dedup", "@Energia @energy @Energia", []ID{Energy}},
		{"unknown and persona ignored", "@Nobody @Critico @Hardware", []ID{Hardware}},
		{"none", "nessuna menzione", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ExtractMentions(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("mention[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSupports(t *testing.T) {
	r := DefaultRegistry()
	if !r.Supports(Content, event.TypeInvoiceIngested) {
		t.Error("content should support invoices")
	}
	if r.Supports(Moderator, event.TypeInvoiceIngested) {
		t.Error("personas never support events")
	}
	if r.Supports("ghost", event.TypeInvoiceIngested) {
		t.Error("unknown agents never support events")
	}
}
