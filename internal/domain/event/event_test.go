package event

import (
	"errors"
	"testing"

	"github.com/Strob0t/ActionForge/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ev      DomainEvent
		wantErr bool
	}{
		{"valid", DomainEvent{ID: "e1", Type: TypeTicketOutcome}, false},
		{"missing id", DomainEvent{Type: TypeTicketOutcome}, true},
		{"missing type", DomainEvent{ID: "e1"}, true},
		{"unknown type", DomainEvent{ID: "e1", Type: "ticket.exploded"}, false},
		{"negative depth", DomainEvent{ID: "e1", Type: TypeEmailReceived, CausationDepth: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestInferredSignals(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"json array", []any{"Gamer", " energia "}, []string{"gamer", "energia"}},
		{"string slice", []string{"gamer"}, []string{"gamer"}},
		{"comma string", "gamer, energia", []string{"gamer", "energia"}},
		{"wrong type", 42, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := DomainEvent{Payload: map[string]any{KeyInferredSignals: tt.raw}}
			got := ev.InferredSignals()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("signal[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHasSignal(t *testing.T) {
	ev := DomainEvent{Payload: map[string]any{KeyInferredSignals: []any{"gamer"}}}
	if !ev.HasSignal("GAMER") {
		t.Error("expected gamer signal")
	}
	if ev.HasSignal("energia") {
		t.Error("unexpected energia signal")
	}
}

func TestInvoiceLines(t *testing.T) {
	ev := DomainEvent{Payload: map[string]any{
		KeyLines: []any{
			map[string]any{KeyDescription: "RTX 3090 1500€"},
			"Cavo HDMI",
			map[string]any{"qty": 2},
		},
	}}
	got := ev.InvoiceLines()
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	if got[0] != "RTX 3090 1500€" || got[1] != "Cavo HDMI" {
		t.Errorf("unexpected lines %v", got)
	}
}

func TestEmailText(t *testing.T) {
	tests := []struct {
		subject, body, want string
	}{
		{"Ciao", "", "Ciao"},
		{"", "corpo", "corpo"},
		{"Oggetto", "corpo", "Oggetto\ncorpo"},
	}
	for _, tt := range tests {
		payload := map[string]any{}
		if tt.subject != "" {
			payload[KeySubject] = tt.subject
		}
		if tt.body != "" {
			payload[KeyBody] = tt.body
		}
		ev := DomainEvent{Payload: payload}
		if got := ev.EmailText(); got != tt.want {
			t.Errorf("EmailText() = %q, want %q", got, tt.want)
		}
	}
}
