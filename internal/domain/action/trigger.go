package action

import "fmt"

// Trigger names the rule that produced a candidate.
// The handoff resolver switches on it instead of matching free text.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerNotWorthRepairing
	TriggerGamerLag
	TriggerEnergySignal
	TriggerInvoiceHardware
	TriggerInvoiceHardwarePlaybook
	TriggerPromoSmartphone
	TriggerComplaintDelay
)

var triggerNames = [...]string{
	TriggerNone:                    "",
	TriggerNotWorthRepairing:       "not-worth-repairing",
	TriggerGamerLag:                "gamer-lag",
	TriggerEnergySignal:            "energy-signal",
	TriggerInvoiceHardware:         "invoice-hardware",
	TriggerInvoiceHardwarePlaybook: "invoice-hardware-playbook",
	TriggerPromoSmartphone:         "promo-smartphone",
	TriggerComplaintDelay:          "complaint-delay",
}

// String returns the wire name of the trigger.
func (t Trigger) String() string {
	if t < 0 || int(t) >= len(triggerNames) {
		return fmt.Sprintf("trigger(%d)", int(t))
	}
	return triggerNames[t]
}

// ParseTrigger maps a wire name back to a Trigger.
func ParseTrigger(s string) (Trigger, bool) {
	for i, name := range triggerNames {
		if name == s {
			return Trigger(i), true
		}
	}
	return TriggerNone, false
}

// MarshalText encodes the trigger as its wire name.
func (t Trigger) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(triggerNames) {
		return nil, fmt.Errorf("unknown trigger %d", int(t))
	}
	return []byte(triggerNames[t]), nil
}

// UnmarshalText decodes a wire name.
func (t *Trigger) UnmarshalText(b []byte) error {
	v, ok := ParseTrigger(string(b))
	if !ok {
		return fmt.Errorf("unknown trigger %q", string(b))
	}
	*t = v
	return nil
}
