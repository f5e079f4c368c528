// Package validate cross-checks the evidence cited by pricing proposals
// against ground-truth pricing context. It annotates; it never blocks.
package validate

import (
	"fmt"
	"math"

	"github.com/sells-group/merchant-ops/internal/model"
)

const (
	// PriceTolerance is the largest claimed-vs-actual difference accepted.
	PriceTolerance = 0.01
	// ContradictionSentiment is the sentiment below which an increase is contradictory.
	ContradictionSentiment = -0.3
)

// Validate returns zero or more flags per proposal, in proposal order.
func Validate(proposals []model.PricingProposal, pricingCtx []model.PricingContext, sentiment float64) []model.ValidationFlag {
	truth := model.CompetitorPrices(pricingCtx)

	var flags []model.ValidationFlag
	for _, p := range proposals {
		flags = append(flags, checkEvidence(p, truth)...)
		if p.Status == model.ProposalIncrease && sentiment < ContradictionSentiment {
			flags = append(flags, model.ValidationFlag{
				ProductID: p.ProductID,
				Type:      model.FlagContradiction,
				Severity:  model.SeverityMedium,
				Message:   fmt.Sprintf("Proposed price increase contradicts negative sentiment (%.2f)", sentiment),
			})
		}
	}
	return flags
}

func checkEvidence(p model.PricingProposal, truth map[string]float64) []model.ValidationFlag {
	var flags []model.ValidationFlag
	for _, claimed := range competitorClaims(p.SignalsUsed) {
		actual, ok := truth[p.ProductID]
		switch {
		case !ok:
			flags = append(flags, model.ValidationFlag{
				ProductID: p.ProductID,
				Type:      model.FlagHallucination,
				Severity:  model.SeverityHigh,
				Message:   fmt.Sprintf("Cited competitor price $%.2f but no competitor data exists for %s", claimed, p.ProductID),
			})
		case math.Abs(claimed-actual) > PriceTolerance:
			flags = append(flags, model.ValidationFlag{
				ProductID: p.ProductID,
				Type:      model.FlagDataMismatch,
				Severity:  model.SeverityHigh,
				Message:   fmt.Sprintf("Cited competitor price $%.2f does not match actual $%.2f", claimed, actual),
			})
		}
	}
	return flags
}
