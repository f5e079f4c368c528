package resolve

import (
	"fmt"

	"github.com/sells-group/merchant-ops/internal/model"
)

// SentimentBlockThreshold is the sentiment below which price increases are blocked.
const SentimentBlockThreshold = -0.3

// candidate is everything the chain knows about one proposal.
type candidate struct {
	proposal       model.PricingProposal
	flags          []model.ValidationFlag
	locked         bool
	catalogBlocked bool
	sentiment      float64
}

func (c candidate) firstFlag(match func(model.ValidationFlag) bool) (model.ValidationFlag, bool) {
	for _, f := range c.flags {
		if match(f) {
			return f, true
		}
	}
	return model.ValidationFlag{}, false
}

func isContradiction(f model.ValidationFlag) bool { return f.Type == model.FlagContradiction }

// rule is one predicate/action pair of the decision chain. apply is only
// called when match returned true; a non-empty warning is surfaced on the
// report.
type rule struct {
	name  string
	match func(c candidate) bool
	apply func(c candidate) (action model.FinalAction, warning string)
}

// chain is evaluated first-match-wins. Evidence failures outrank merchant
// locks: a fabricated claim must not be approved even by override.
var chain = []rule{
	{
		name: "evidence_failure",
		match: func(c candidate) bool {
			_, ok := c.firstFlag(model.ValidationFlag.IsEvidenceFailure)
			return ok
		},
		apply: func(c candidate) (model.FinalAction, string) {
			f, _ := c.firstFlag(model.ValidationFlag.IsEvidenceFailure)
			return hold(c, model.ActionBlocked, blockedNote(f)),
				fmt.Sprintf("Blocked pricing for %s due to %s", c.proposal.ProductID, f.Type)
		},
	},
	{
		name: "contradiction",
		match: func(c candidate) bool {
			_, ok := c.firstFlag(isContradiction)
			return ok
		},
		apply: func(c candidate) (model.FinalAction, string) {
			f, _ := c.firstFlag(isContradiction)
			return hold(c, model.ActionBlocked, blockedNote(f)),
				fmt.Sprintf("Blocked pricing for %s due to %s", c.proposal.ProductID, f.Type)
		},
	},
	{
		name:  "merchant_lock",
		match: func(c candidate) bool { return c.locked },
		apply: func(c candidate) (model.FinalAction, string) {
			return hold(c, model.ActionLocked, "Merchant override: price locked"), ""
		},
	},
	{
		name:  "catalog_error",
		match: func(c candidate) bool { return c.catalogBlocked },
		apply: func(c candidate) (model.FinalAction, string) {
			return hold(c, model.ActionBlocked, "Blocked: Catalog Agent flagged critical data error"),
				fmt.Sprintf("Blocked pricing for %s due to catalog data corruption", c.proposal.ProductID)
		},
	},
	{
		name: "sentiment_guard",
		match: func(c candidate) bool {
			return c.sentiment < SentimentBlockThreshold && c.proposal.ProposedPrice > c.proposal.CurrentPrice
		},
		apply: func(c candidate) (model.FinalAction, string) {
			note := fmt.Sprintf("Price increase blocked: negative sentiment (%.2f)", c.sentiment)
			return hold(c, model.ActionBlocked, note),
				fmt.Sprintf("Blocked price increase for %s due to sentiment", c.proposal.ProductID)
		},
	},
	{
		name:  "cost_floor",
		match: func(c candidate) bool { return c.proposal.ProposedPrice < c.proposal.Cost },
		apply: func(c candidate) (model.FinalAction, string) {
			floor := c.proposal.Cost * 1.05
			return model.FinalAction{
					PricingProposal: c.proposal,
					FinalPrice:      floor,
					ActionStatus:    model.ActionAdjusted,
					Note:            fmt.Sprintf("Price raised to cost floor ($%.2f)", floor),
				},
				fmt.Sprintf("Adjusted %s to meet cost floor", c.proposal.ProductID)
		},
	},
	{
		name:  "approve",
		match: func(candidate) bool { return true },
		apply: func(c candidate) (model.FinalAction, string) {
			return model.FinalAction{
				PricingProposal: c.proposal,
				FinalPrice:      c.proposal.ProposedPrice,
				ActionStatus:    model.ActionApproved,
			}, ""
		},
	},
}

// hold keeps the current price.
func hold(c candidate, status model.ActionStatus, note string) model.FinalAction {
	return model.FinalAction{
		PricingProposal: c.proposal,
		FinalPrice:      c.proposal.CurrentPrice,
		ActionStatus:    status,
		Note:            note,
	}
}

func blockedNote(f model.ValidationFlag) string {
	return fmt.Sprintf("Blocked: %s - %s", f.Type, f.Message)
}
