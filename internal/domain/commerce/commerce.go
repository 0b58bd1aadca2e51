// Package commerce holds the customer, offer and objective snapshot that
// orchestration rules and scoring read from.
package commerce

import (
	"regexp"
	"slices"
	"time"
)

// Channel is an outbound contact channel.
type Channel string

const (
	ChannelNone     Channel = ""
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelFacebook Channel = "facebook"
	ChannelPhone    Channel = "phone"
)

// Customer is the pre-fetched customer profile for one orchestration run.
type Customer struct {
	ID       string           `json:"id"`
	FullName string           `json:"full_name"`
	Email    string           `json:"email,omitempty"`
	Phone    string           `json:"phone,omitempty"`
	Consents map[Channel]bool `json:"consents,omitempty"`

	// CommercialSaturationScore is 0..100, higher means more recent contact.
	CommercialSaturationScore float64 `json:"commercial_saturation_score"`
	OpenTickets               int     `json:"open_tickets"`
}

// HasConsent reports whether the customer accepts contact on ch.
func (c *Customer) HasConsent(ch Channel) bool {
	return c.Consents[ch]
}

// OfferCategory groups offers for rule lookups.
type OfferCategory string

const (
	CategoryHardware     OfferCategory = "hardware"
	CategoryConnectivity OfferCategory = "connectivity"
	CategorySmartphone   OfferCategory = "smartphone"
	CategoryEnergy       OfferCategory = "energy"
)

// Offer is an active commercial offer.
type Offer struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Category  OfferCategory `json:"category"`
	MarginPct float64       `json:"margin_pct"`
	StockQty  int           `json:"stock_qty"`
}

// FirstOffer returns the first offer of the given category, in slice order.
// When title is non-nil the offer title must also match it.
func FirstOffer(offers []Offer, cat OfferCategory, title *regexp.Regexp) (Offer, bool) {
	for _, o := range offers {
		if o.Category != cat {
			continue
		}
		if title != nil && !title.MatchString(o.Title) {
			continue
		}
		return o, true
	}
	return Offer{}, false
}

// FindOffer returns the offer with the given id.
func FindOffer(offers []Offer, id string) (Offer, bool) {
	if id == "" {
		return Offer{}, false
	}
	for _, o := range offers {
		if o.ID == id {
			return o, true
		}
	}
	return Offer{}, false
}

// Objective is a commercial objective that boosts preferred offers.
// Objectives passed in a context are active unless Inactive is set.
type Objective struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	PreferredOfferIDs []string  `json:"preferred_offer_ids"`
	Inactive          bool      `json:"inactive,omitempty"`
	StartsAt          time.Time `json:"starts_at,omitzero"`
	EndsAt            time.Time `json:"ends_at,omitzero"`
}

// InEffect reports whether the objective applies at now.
// Zero bounds are open. A zero now only checks the Inactive flag.
func (o *Objective) InEffect(now time.Time) bool {
	if o.Inactive {
		return false
	}
	if now.IsZero() {
		return true
	}
	if !o.StartsAt.IsZero() && now.Before(o.StartsAt) {
		return false
	}
	if !o.EndsAt.IsZero() && now.After(o.EndsAt) {
		return false
	}
	return true
}

// Prefers reports whether offerID is one of the objective's preferred offers.
func (o *Objective) Prefers(offerID string) bool {
	return offerID != "" && slices.Contains(o.PreferredOfferIDs, offerID)
}
