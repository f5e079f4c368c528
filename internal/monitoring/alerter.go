// Package monitoring turns finished run reports into webhook alerts.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/config"
	"github.com/sells-group/merchant-ops/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertComplaintSpike    AlertType = "complaint_spike"
	AlertRedLevel          AlertType = "red_alert_level"
	AlertHallucinationRate AlertType = "hallucination_rate"
	AlertCostOverrun       AlertType = "cost_overrun"
	AlertFreezeRate        AlertType = "freeze_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type       AlertType      `json:"type"`
	Severity   string         `json:"severity"`
	MerchantID string         `json:"merchant_id,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Alerter evaluates run reports against configured thresholds and sends
// alerts via webhook when they are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks one run report and returns any alerts. A frozen run
// raises only the spike alert.
func (a *Alerter) Evaluate(report *model.FinalReport) []Alert {
	if report == nil {
		return nil
	}
	now := time.Now().UTC()
	alert := func(t AlertType, severity, msg string, details map[string]any) Alert {
		return Alert{
			Type:       t,
			Severity:   severity,
			MerchantID: report.MerchantID,
			RunID:      report.RunID,
			Message:    msg,
			Details:    details,
			Timestamp:  now,
		}
	}

	if report.Status == model.RunFrozen {
		velocity := 0.0
		if report.SupportSummary != nil {
			velocity = report.SupportSummary.Velocity
		}
		return []Alert{alert(AlertComplaintSpike, "critical",
			fmt.Sprintf("Merchant %s frozen: viral complaint spike detected", report.MerchantID),
			map[string]any{"velocity": velocity, "sentiment": report.Metrics.SentimentScore},
		)}
	}

	var alerts []Alert
	if report.AlertLevel == model.AlertRed {
		alerts = append(alerts, alert(AlertRedLevel, "high",
			fmt.Sprintf("Merchant %s run finished RED: %d of %d pricing changes blocked",
				report.MerchantID, report.Summary.BlockedChanges, report.Summary.TotalProducts),
			map[string]any{"blocked": report.Summary.BlockedChanges, "automated_block_rate": report.Metrics.AutomatedBlockRate},
		))
	}

	if t := a.cfg.HallucinationRateThreshold; t > 0 && report.Metrics.HallucinationRate >= t {
		alerts = append(alerts, alert(AlertHallucinationRate, "high",
			fmt.Sprintf("Hallucination rate %.1f%% reached threshold %.1f%%", report.Metrics.HallucinationRate, t),
			map[string]any{"hallucination_rate": report.Metrics.HallucinationRate, "threshold": t},
		))
	}

	if t := a.cfg.CostThresholdUSD; t > 0 && report.InferenceUsage != nil && report.InferenceUsage.EstimatedCostUSD > t {
		alerts = append(alerts, alert(AlertCostOverrun, "medium",
			fmt.Sprintf("Inference cost $%.4f exceeds threshold $%.4f", report.InferenceUsage.EstimatedCostUSD, t),
			map[string]any{"cost_usd": report.InferenceUsage.EstimatedCostUSD, "threshold_usd": t},
		))
	}

	return alerts
}

// Notify evaluates the report and delivers its alerts. It returns the
// number of alerts sent.
func (a *Alerter) Notify(ctx context.Context, report *model.FinalReport) int {
	return a.SendAlerts(ctx, a.Evaluate(report))
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("merchant", alert.MerchantID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
