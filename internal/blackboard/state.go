// Package blackboard holds the per-run shared state that every pipeline
// stage reads from and contributes to.
package blackboard

import (
	"github.com/sells-group/merchant-ops/internal/model"
)

// State is the single record threaded through a run. It is owned by exactly
// one run; stages read it and return an Update instead of mutating it.
type State struct {
	RunID      string
	MerchantID string

	// Seed inputs, written once by the coordinator's Update.
	RawProducts      []model.Product
	CustomerMessages []model.CustomerMessage
	PricingContext   []model.PricingContext
	MerchantLocks    model.MerchantLocks

	SupportSummary         *model.SupportSummary
	SentimentScore         float64
	ComplaintSpikeDetected bool
	SchemaValidationPassed bool
	ThrottleModeActive     bool
	RetryCount             int
	FinalReport            *model.FinalReport

	NormalizedCatalog []model.Product
	CatalogIssues     []model.CatalogIssue
	PricingProposals  []model.PricingProposal
	ValidationFlags   []model.ValidationFlag
	AuditLog          []model.AuditEntry
}

// New returns an empty state for one merchant run.
func New(runID, merchantID string) *State {
	return &State{RunID: runID, MerchantID: merchantID}
}

// Products returns the catalog pricing should work from: the normalized
// catalog when one exists, otherwise the raw products.
func (s *State) Products() []model.Product {
	if len(s.NormalizedCatalog) > 0 {
		return s.NormalizedCatalog
	}
	return s.RawProducts
}

// Update is a partial state change returned by a stage. Nil pointers and
// nil slices mean "unchanged".
type Update struct {
	RawProducts      []model.Product
	CustomerMessages []model.CustomerMessage
	PricingContext   []model.PricingContext
	MerchantLocks    model.MerchantLocks

	SupportSummary         *model.SupportSummary
	SentimentScore         *float64
	ComplaintSpikeDetected *bool
	SchemaValidationPassed *bool
	ThrottleModeActive     *bool
	RetryCount             *int
	FinalReport            *model.FinalReport

	NormalizedCatalog []model.Product
	CatalogIssues     []model.CatalogIssue
	PricingProposals  []model.PricingProposal
	ValidationFlags   []model.ValidationFlag
	AuditLog          []model.AuditEntry
}

// Float returns a pointer to v for use in an Update.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v for use in an Update.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v for use in an Update.
func Int(v int) *int { return &v }
