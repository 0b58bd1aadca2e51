package orchestration

import (
	"regexp"

	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/agent"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
	"github.com/Strob0t/ActionForge/internal/domain/event"
)

// IDFunc produces unique candidate ids.
type IDFunc func() string

const outcomeNotWorthRepairing = "not-worth-repairing"

var (
	replacementOfferTitle = regexp.MustCompile(`(?i)notebook|pc`)
	invoiceHardwareLine   = regexp.MustCompile(`(?i)rtx|gpu|notebook|pc|ssd|monitor`)
	promoSmartphoneTitle  = regexp.MustCompile(`(?i)oppo|samsung|iphone|smartphone`)

	complaintContractAge = regexp.MustCompile(`(?i)contratt\w*\D{0,40}\d+\s*(giorn|settiman|mes)\w*\s*fa`)
	complaintDelay       = regexp.MustCompile(`(?i)non ho (ancora )?ricevuto|ancora (niente|nulla)|in ritardo|ritardo|in attesa da|nessuna risposta`)
)

// rule is the fixed output of one trigger.
type rule struct {
	agent         agent.ID
	action        action.Type
	title         string
	channel       commerce.Channel
	confidence    float64
	seed          action.Seed
	needsApproval bool
	category      commerce.OfferCategory // empty means no offer lookup
	offerTitle    *regexp.Regexp
}

var rules = map[action.Trigger]rule{
	action.TriggerNotWorthRepairing: {
		agent:         agent.Quoting,
		action:        action.TypeQuote,
		title:         "Quote a replacement device",
		channel:       commerce.ChannelWhatsApp,
		confidence:    0.82,
		seed:          action.Seed{ContextFit: 0.95, ProfileFit: 0.6},
		needsApproval: true,
		category:      commerce.CategoryHardware,
		offerTitle:    replacementOfferTitle,
	},
	action.TriggerGamerLag: {
		agent:         agent.Telephony,
		action:        action.TypeCrossSell,
		title:         "Propose a low-latency connectivity upgrade",
		channel:       commerce.ChannelWhatsApp,
		confidence:    0.86,
		seed:          action.Seed{ContextFit: 0.9, ProfileFit: 0.8},
		needsApproval: true,
		category:      commerce.CategoryConnectivity,
	},
	action.TriggerEnergySignal: {
		agent:         agent.Energy,
		action:        action.TypeCrossSell,
		title:         "Propose an energy contract review",
		channel:       commerce.ChannelEmail,
		confidence:    0.74,
		seed:          action.Seed{ContextFit: 0.7, ProfileFit: 0.5},
		needsApproval: true,
		category:      commerce.CategoryEnergy,
	},
	action.TriggerInvoiceHardware: {
		agent:         agent.Content,
		action:        action.TypeContent,
		title:         "Publish a social post about the hardware build",
		channel:       commerce.ChannelFacebook,
		confidence:    0.9,
		seed:          action.Seed{ContextFit: 0.85, ProfileFit: 0.4},
		needsApproval: true,
		category:      commerce.CategoryHardware,
	},
	action.TriggerInvoiceHardwarePlaybook: {
		agent:         agent.Hardware,
		action:        action.TypeFollowup,
		title:         "Run the post-sale hardware playbook",
		confidence:    0.81,
		seed:          action.Seed{ContextFit: 0.8, ProfileFit: 0.5},
		needsApproval: true,
		category:      commerce.CategoryHardware,
	},
	action.TriggerPromoSmartphone: {
		agent:         agent.Telephony,
		action:        action.TypeCampaign,
		title:         "Launch the smartphone promo campaign",
		channel:       commerce.ChannelWhatsApp,
		confidence:    0.88,
		seed:          action.Seed{ContextFit: 0.8, ProfileFit: 0.6},
		needsApproval: true,
		category:      commerce.CategorySmartphone,
	},
	action.TriggerComplaintDelay: {
		agent:         agent.CustomerCare,
		action:        action.TypeCustomerCare,
		title:         "Handle delivery complaint",
		channel:       commerce.ChannelEmail,
		confidence:    0.91,
		seed:          action.Seed{ContextFit: 1.0, ProfileFit: 0.7},
		needsApproval: false,
	},
}

// Triggers returns the triggers an event fires, in rule order.
// Unhandled event types fire nothing.
func Triggers(ev *event.DomainEvent) []action.Trigger {
	var out []action.Trigger
	switch ev.Type {
	case event.TypeTicketOutcome:
		if ev.Outcome() == outcomeNotWorthRepairing {
			out = append(out, action.TriggerNotWorthRepairing)
		}
		if ev.HasSignal("gamer") {
			out = append(out, action.TriggerGamerLag)
		}
		if ev.HasSignal("energia") {
			out = append(out, action.TriggerEnergySignal)
		}
	case event.TypeInvoiceIngested:
		for _, line := range ev.InvoiceLines() {
			if invoiceHardwareLine.MatchString(line) {
				out = append(out, action.TriggerInvoiceHardware, action.TriggerInvoiceHardwarePlaybook)
				break
			}
		}
	case event.TypePromoIngested:
		if promoSmartphoneTitle.MatchString(ev.PromoTitle()) {
			out = append(out, action.TriggerPromoSmartphone)
		}
	case event.TypeEmailReceived:
		if IsComplaint(ev.EmailText()) {
			out = append(out, action.TriggerComplaintDelay)
		}
	case event.TypeTicketOpened, event.TypeChatReceived:
	}
	return out
}

// IsComplaint reports whether text reads like a complaint about contract age or delay.
func IsComplaint(text string) bool {
	return complaintContractAge.MatchString(text) || complaintDelay.MatchString(text)
}

// Generate maps an event and the active offers to action candidates.
// Only the ids depend on newID; everything else is deterministic.
func Generate(ev *event.DomainEvent, offers []commerce.Offer, newID IDFunc) []action.Candidate {
	triggers := Triggers(ev)
	out := make([]action.Candidate, 0, len(triggers))
	for _, tr := range triggers {
		out = append(out, build(tr, ev, offers, newID()))
	}
	return out
}

// GenerateFor returns only the candidates owned by agentID.
func GenerateFor(agentID agent.ID, ev *event.DomainEvent, offers []commerce.Offer, newID IDFunc) []action.Candidate {
	var out []action.Candidate
	for _, tr := range Triggers(ev) {
		if rules[tr].agent != agentID {
			continue
		}
		out = append(out, build(tr, ev, offers, newID()))
	}
	return out
}

// OwnerOf returns the agent that owns a trigger.
func OwnerOf(tr action.Trigger) (agent.ID, bool) {
	r, ok := rules[tr]
	return r.agent, ok
}

// NeedsApproval reports whether the candidate of a trigger needs operator
// approval. Unknown triggers always do.
func NeedsApproval(tr action.Trigger) bool {
	r, ok := rules[tr]
	return !ok || r.needsApproval
}

func build(tr action.Trigger, ev *event.DomainEvent, offers []commerce.Offer, id string) action.Candidate {
	r := rules[tr]
	c := action.Candidate{
		ID:            id,
		Agent:         r.agent,
		Type:          r.action,
		Title:         r.title,
		Channel:       r.channel,
		CustomerID:    ev.CustomerID,
		Confidence:    r.confidence,
		NeedsApproval: r.needsApproval,
		Trigger:       tr,
		Seed:          r.seed,
		Metadata: map[string]string{
			action.MetaTrigger: tr.String(),
			"event_id":         ev.ID,
			"event_type":       string(ev.Type),
		},
	}
	if r.category != "" {
		if o, ok := commerce.FirstOffer(offers, r.category, r.offerTitle); ok {
			c.OfferID = o.ID
			c.Title = r.title + ": " + o.Title
		}
	}
	return c
}
