// Package throttle freezes automated pricing when a complaint spike is detected.
package throttle

import (
	"fmt"

	"github.com/sells-group/merchant-ops/internal/blackboard"
	"github.com/sells-group/merchant-ops/internal/model"
)

// Recommendations are the fixed manual-review steps on every frozen report.
var Recommendations = []string{
	"Review customer complaints immediately",
	"Investigate root cause of spike",
	"Prepare public response if needed",
	"Do not make pricing changes until resolved",
}

// AlertMessage renders the frozen-run alert for the given velocity and sentiment.
func AlertMessage(velocity, sentiment float64) string {
	return fmt.Sprintf("🔴 VIRAL COMPLAINT SPIKE DETECTED\n"+
		"Complaint Velocity: %.1f/10\n"+
		"Sentiment Score: %.2f\n"+
		"All automated pricing updates have been suspended.\n"+
		"Manual review required before resuming operations.", velocity, sentiment)
}

// Freeze builds the update that ends a run FROZEN. It reads only the support
// summary and never produces pricing artefacts.
func Freeze(s *blackboard.State) blackboard.Update {
	var velocity, sentiment float64
	if s.SupportSummary != nil {
		velocity = s.SupportSummary.Velocity
		sentiment = s.SupportSummary.Sentiment
	}

	report := &model.FinalReport{
		RunID:           s.RunID,
		MerchantID:      s.MerchantID,
		Status:          model.RunFrozen,
		AlertLevel:      model.AlertRed,
		AlertMessage:    AlertMessage(velocity, sentiment),
		Metrics:         model.ReliabilityMetrics{SentimentScore: s.SentimentScore},
		CatalogIssues:   nonNil(s.CatalogIssues),
		ValidationFlags: []model.ValidationFlag{},
		SupportSummary:  s.SupportSummary,
		Actions:         []model.FinalAction{},
		Warnings:        []string{},
		Recommendations: append([]string(nil), Recommendations...),
	}

	return blackboard.Update{
		ThrottleModeActive: blackboard.Bool(true),
		FinalReport:        report,
		AuditLog: []model.AuditEntry{model.NewAuditEntry("throttler_activated", map[string]any{
			"reason":   "complaint_spike_detected",
			"velocity": velocity,
		})},
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
