// Package pricing turns catalog, competitor and sentiment signals into
// priced proposals that carry their own provenance.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/merchant-ops/internal/model"
)

const (
	// CompetitorUndercut is the fraction of current price below which a
	// competitor price triggers a match.
	CompetitorUndercut = 0.95
	// CompetitorPremium is added to a competitor price when matching it.
	CompetitorPremium = 5.0
	// MarginAdjustment is the standard increase applied under non-negative sentiment.
	MarginAdjustment = 1.10
	// CostFloorMargin is the minimum markup over cost.
	CostFloorMargin = 1.05
)

const (
	reasonCompetitor = "Adjusted to match competitor pricing"
	reasonSentiment  = "Price increase blocked due to negative sentiment"
	reasonMargin     = "Standard margin adjustment (+10%)"
	reasonNoChange   = "No changes recommended"
)

// Propose prices every product independently. Products missing from the
// pricing context simply produce no competitor signal.
func Propose(products []model.Product, pricingCtx []model.PricingContext, sentiment float64) []model.PricingProposal {
	if len(products) == 0 {
		return nil
	}
	out := make([]model.PricingProposal, 0, len(products))
	for _, p := range products {
		competitor, ok := competitorPrice(pricingCtx, p.ID)
		out = append(out, ProposeOne(p, competitor, ok, sentiment))
	}
	return out
}

// competitorPrice returns the first context entry for id. Non-positive
// prices count as absent.
func competitorPrice(pricingCtx []model.PricingContext, id string) (float64, bool) {
	for _, c := range pricingCtx {
		if c.ProductID == id {
			return c.CompetitorPrice, c.CompetitorPrice > 0
		}
	}
	return 0, false
}

// ProposeOne applies the rule sequence to a single product.
func ProposeOne(p model.Product, competitor float64, hasCompetitor bool, sentiment float64) model.PricingProposal {
	current := p.Price
	cost := p.CostOrDefault()
	proposed := current

	var reasons []string
	var signals []model.Signal

	if hasCompetitor {
		signals = append(signals, model.Signal{Kind: model.SignalCompetitorPrice, Value: competitor})
		if competitor < current*CompetitorUndercut {
			proposed = math.Min(proposed, competitor+CompetitorPremium)
			reasons = append(reasons, reasonCompetitor)
		}
	}

	signals = append(signals, model.Signal{Kind: model.SignalSentiment, Value: sentiment})
	if sentiment < 0 {
		if proposed > current {
			proposed = current
			reasons = append(reasons, reasonSentiment)
		}
	} else if !hasCompetitor || competitor > current {
		proposed = math.Min(proposed*MarginAdjustment, current*MarginAdjustment)
		reasons = append(reasons, reasonMargin)
	}

	// The floor runs last and may undo a sentiment clamp.
	if floor := cost * CostFloorMargin; proposed < floor {
		proposed = floor
		reasons = append(reasons, fmt.Sprintf("Price raised to cost floor ($%.2f)", floor))
		signals = append(signals, model.Signal{Kind: model.SignalCostFloor, Value: floor})
	}

	proposed = roundCents(proposed)

	var status model.ProposalStatus
	switch {
	case proposed == current:
		status = model.ProposalHold
		if len(reasons) == 0 {
			reasons = append(reasons, reasonNoChange)
		}
	case proposed > current:
		status = model.ProposalIncrease
	default:
		status = model.ProposalDecrease
	}

	used := make([]string, len(signals))
	for i, s := range signals {
		used[i] = s.String()
	}

	return model.PricingProposal{
		ProductID:     p.ID,
		ProductName:   nameOrDefault(p.Name),
		CurrentPrice:  current,
		ProposedPrice: proposed,
		Cost:          cost,
		Status:        status,
		Reasoning:     strings.Join(reasons, " | "),
		SignalsUsed:   used,
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func nameOrDefault(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
