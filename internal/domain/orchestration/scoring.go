package orchestration

import (
	"cmp"
	"slices"

	"github.com/Strob0t/ActionForge/internal/domain/action"
	"github.com/Strob0t/ActionForge/internal/domain/commerce"
)

// Scoring constants. Components are scaled to 0..1 except the objective boost.
const (
	ObjectiveBoost      = 1.5
	MarginCeilingPct    = 30.0
	StockCeilingQty     = 20.0
	NeutralConsentScore = 0.5
)

// Score computes the breakdown for c against octx. It is pure.
func Score(c *action.Candidate, octx *Context) action.ScoreBreakdown {
	b := action.ScoreBreakdown{
		ContextFit:      c.Seed.ContextFit,
		ProfileFit:      c.Seed.ProfileFit,
		ConfidenceScore: c.Confidence,
	}

	for i := range octx.ActiveObjectives {
		obj := &octx.ActiveObjectives[i]
		if obj.InEffect(octx.Now) && obj.Prefers(c.OfferID) {
			b.ObjectiveBoost = ObjectiveBoost
			break
		}
	}

	if o, ok := commerce.FindOffer(octx.ActiveOffers, c.OfferID); ok {
		b.MarginScore = clamp01(o.MarginPct / MarginCeilingPct)
		b.StockScore = clamp01(float64(o.StockQty) / StockCeilingQty)
	}

	switch {
	case octx.Customer == nil, c.Channel == commerce.ChannelNone:
		b.ChannelConsentScore = NeutralConsentScore
	case octx.Customer.HasConsent(c.Channel):
		b.ChannelConsentScore = 1
	}

	if octx.Customer != nil {
		b.SaturationPenalty = clamp01(octx.Customer.CommercialSaturationScore / 100)
	}

	return b.WithTotal()
}

// Rank scores every candidate and sorts by total desc, then confidence desc,
// then id asc. The input slice is left untouched.
func Rank(cands []action.Candidate, octx *Context) []action.Scored {
	out := make([]action.Scored, len(cands))
	for i := range cands {
		out[i] = action.Scored{Candidate: cands[i], Score: Score(&cands[i], octx)}
	}
	SortRanked(out)
	return out
}

// SortRanked orders an already scored list with the ranking rule.
func SortRanked(ranked []action.Scored) {
	slices.SortStableFunc(ranked, func(a, b action.Scored) int {
		if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}
