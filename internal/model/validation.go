package model

// FlagType classifies a validator finding.
type FlagType string

const (
	FlagHallucination FlagType = "HALLUCINATION"
	FlagDataMismatch  FlagType = "DATA_MISMATCH"
	FlagContradiction FlagType = "CONTRADICTION"
)

// Severity of a validation flag.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// ValidationFlag annotates a proposal whose evidence or direction cannot be
// trusted. Flags never block anything on their own.
type ValidationFlag struct {
	ProductID string   `json:"product_id"`
	Type      FlagType `json:"type"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// IsEvidenceFailure reports whether the flag says the cited evidence is
// fabricated or wrong.
func (f ValidationFlag) IsEvidenceFailure() bool {
	return f.Type == FlagHallucination || f.Type == FlagDataMismatch
}
