package model

import "fmt"

// SignalKind names a piece of evidence that influenced a pricing proposal.
// The kind is the key half of the "<key>: <value>" provenance string.
type SignalKind string

const (
	SignalCompetitorPrice SignalKind = "competitor_price"
	SignalSentiment       SignalKind = "sentiment"
	SignalCostFloor       SignalKind = "cost_floor"
)

// monetary reports whether the kind's payload renders as a dollar amount.
func (k SignalKind) monetary() bool {
	return k == SignalCompetitorPrice || k == SignalCostFloor
}

// Signal is a typed provenance record. Proposals carry signals in their
// rendered string form; the validator parses them back.
type Signal struct {
	Kind  SignalKind
	Value float64
}

// String renders the signal as "competitor_price: $85.00" or "sentiment: -0.20".
func (s Signal) String() string {
	if s.Kind.monetary() {
		return fmt.Sprintf("%s: $%.2f", s.Kind, s.Value)
	}
	return fmt.Sprintf("%s: %.2f", s.Kind, s.Value)
}
