package model

import "time"

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunCompleted RunStatus = "COMPLETED"
	RunFrozen    RunStatus = "FROZEN"
)

// AlertLevel summarizes how much merchant attention a run needs.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "GREEN"
	AlertYellow AlertLevel = "YELLOW"
	AlertRed    AlertLevel = "RED"
)

// MessageClassification is the support collaborator's label for one message.
type MessageClassification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Sentiment string `json:"sentiment,omitempty"`
}

// IsComplaint reports whether the message was classified as a complaint.
func (c MessageClassification) IsComplaint() bool {
	return c.Type == "Complaint"
}

// SupportSummary condenses the support collaborator's analysis. Status is
// "no_data" when there were no messages; Error is set when the call failed.
type SupportSummary struct {
	Status          string                  `json:"status,omitempty"`
	Classifications []MessageClassification `json:"classifications,omitempty"`
	Sentiment       float64                 `json:"sentiment"`
	Velocity        float64                 `json:"velocity"`
	Topics          []string                `json:"topics,omitempty"`
	TotalMessages   int                     `json:"total_messages"`
	ComplaintCount  int                     `json:"complaint_count"`
	Error           string                  `json:"error,omitempty"`
	ErrorType       string                  `json:"error_type,omitempty"`
}

// ReliabilityMetrics are percentages over the whole proposal set.
type ReliabilityMetrics struct {
	PricingPassRate    float64 `json:"pricing_pass_rate"`
	AutomatedBlockRate float64 `json:"automated_block_rate"`
	HallucinationRate  float64 `json:"hallucination_rate"`
	SentimentScore     float64 `json:"sentiment_score"`
}

// ReportSummary counts final actions by status.
type ReportSummary struct {
	TotalProducts   int `json:"total_products"`
	ApprovedChanges int `json:"approved_changes"`
	AdjustedChanges int `json:"adjusted_changes"`
	BlockedChanges  int `json:"blocked_changes"`
	LockedProducts  int `json:"locked_products"`
}

// InferenceUsage totals the tokens spent on inference during a run.
type InferenceUsage struct {
	Calls               int     `json:"calls"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	EstimatedCostUSD    float64 `json:"estimated_cost_usd"`
}

// AuditEntry is one append-only record of a stage's work.
type AuditEntry struct {
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewAuditEntry stamps an entry with the current time.
func NewAuditEntry(action string, details map[string]any) AuditEntry {
	return AuditEntry{Action: action, Timestamp: time.Now().UTC(), Details: details}
}

// FinalReport is the terminal artifact of a run. Every run, frozen or
// completed, produces exactly one.
type FinalReport struct {
	RunID           string             `json:"run_id"`
	MerchantID      string             `json:"merchant_id"`
	Status          RunStatus          `json:"status"`
	AlertLevel      AlertLevel         `json:"alert_level"`
	AlertMessage    string             `json:"alert_message,omitempty"`
	Summary         ReportSummary      `json:"summary"`
	Metrics         ReliabilityMetrics `json:"reliability_metrics"`
	CatalogIssues   []CatalogIssue     `json:"catalog_issues"`
	ValidationFlags []ValidationFlag   `json:"validation_flags"`
	SupportSummary  *SupportSummary    `json:"support_summary,omitempty"`
	Actions         []FinalAction      `json:"pricing_actions"`
	Warnings        []string           `json:"warnings"`
	Recommendations []string           `json:"recommendations"`
	AuditLog        []AuditEntry       `json:"audit_log"`
	InferenceUsage  *InferenceUsage    `json:"inference_usage,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
