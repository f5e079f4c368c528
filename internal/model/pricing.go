package model

import "encoding/json"

// ProposalStatus is the direction of a proposed price change.
type ProposalStatus string

const (
	ProposalHold     ProposalStatus = "HOLD"
	ProposalIncrease ProposalStatus = "INCREASE"
	ProposalDecrease ProposalStatus = "DECREASE"
)

// PricingProposal is the rule engine's recommendation for one product.
// SignalsUsed holds rendered Signal strings in the order they were applied.
type PricingProposal struct {
	ProductID     string         `json:"product_id"`
	ProductName   string         `json:"product_name"`
	CurrentPrice  float64        `json:"current_price"`
	ProposedPrice float64        `json:"proposed_price"`
	Cost          float64        `json:"cost"`
	Status        ProposalStatus `json:"status"`
	Reasoning     string         `json:"reasoning"`
	SignalsUsed   []string       `json:"signals_used"`
}

// ActionStatus is the resolver's terminal decision for a proposal.
type ActionStatus string

const (
	ActionApproved ActionStatus = "APPROVED"
	ActionAdjusted ActionStatus = "ADJUSTED"
	ActionBlocked  ActionStatus = "BLOCKED"
	ActionLocked   ActionStatus = "LOCKED"
)

// FinalAction is a proposal extended with the price the merchant may apply.
// On the wire the terminal decision is "status"; the proposal's direction
// moves to "proposal_status".
type FinalAction struct {
	PricingProposal
	FinalPrice   float64      `json:"final_price"`
	ActionStatus ActionStatus `json:"action_status"`
	Note         string       `json:"note,omitempty"`
	Rule         string       `json:"rule"`
}

type finalActionJSON struct {
	ProductID      string         `json:"product_id"`
	ProductName    string         `json:"product_name"`
	CurrentPrice   float64        `json:"current_price"`
	ProposedPrice  float64        `json:"proposed_price"`
	Cost           float64        `json:"cost"`
	ProposalStatus ProposalStatus `json:"proposal_status"`
	Reasoning      string         `json:"reasoning"`
	SignalsUsed    []string       `json:"signals_used"`
	FinalPrice     float64        `json:"final_price"`
	Status         ActionStatus   `json:"status"`
	Note           string         `json:"note,omitempty"`
	Rule           string         `json:"rule"`
}

// MarshalJSON implements json.Marshaler.
func (a FinalAction) MarshalJSON() ([]byte, error) {
	return json.Marshal(finalActionJSON{
		ProductID:      a.ProductID,
		ProductName:    a.ProductName,
		CurrentPrice:   a.CurrentPrice,
		ProposedPrice:  a.ProposedPrice,
		Cost:           a.Cost,
		ProposalStatus: a.PricingProposal.Status,
		Reasoning:      a.Reasoning,
		SignalsUsed:    a.SignalsUsed,
		FinalPrice:     a.FinalPrice,
		Status:         a.ActionStatus,
		Note:           a.Note,
		Rule:           a.Rule,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *FinalAction) UnmarshalJSON(data []byte) error {
	var w finalActionJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = FinalAction{
		PricingProposal: PricingProposal{
			ProductID:     w.ProductID,
			ProductName:   w.ProductName,
			CurrentPrice:  w.CurrentPrice,
			ProposedPrice: w.ProposedPrice,
			Cost:          w.Cost,
			Status:        w.ProposalStatus,
			Reasoning:     w.Reasoning,
			SignalsUsed:   w.SignalsUsed,
		},
		FinalPrice:   w.FinalPrice,
		ActionStatus: w.Status,
		Note:         w.Note,
		Rule:         w.Rule,
	}
	return nil
}
