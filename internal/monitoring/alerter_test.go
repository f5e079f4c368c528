package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/merchant-ops/internal/config"
	"github.com/sells-group/merchant-ops/internal/model"
)

func completedReport(level model.AlertLevel) *model.FinalReport {
	return &model.FinalReport{
		RunID:      "run-1",
		MerchantID: "m-1",
		Status:     model.RunCompleted,
		AlertLevel: level,
		Summary:    model.ReportSummary{TotalProducts: 4, ApprovedChanges: 2, BlockedChanges: 2},
		Metrics:    model.ReliabilityMetrics{PricingPassRate: 50, AutomatedBlockRate: 50},
	}
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{HallucinationRateThreshold: 10, CostThresholdUSD: 1})

	assert.Empty(t, a.Evaluate(completedReport(model.AlertGreen)))
	assert.Empty(t, a.Evaluate(completedReport(model.AlertYellow)))
	assert.Nil(t, a.Evaluate(nil))
}

func TestAlerter_Evaluate_Frozen(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{HallucinationRateThreshold: 10})

	r := &model.FinalReport{
		RunID:          "run-2",
		MerchantID:     "m-9",
		Status:         model.RunFrozen,
		AlertLevel:     model.AlertRed,
		SupportSummary: &model.SupportSummary{Velocity: 8.5},
	}

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertComplaintSpike, alerts[0].Type)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.Equal(t, "m-9", alerts[0].MerchantID)
	assert.Equal(t, "run-2", alerts[0].RunID)
	assert.Equal(t, 8.5, alerts[0].Details["velocity"])
}

func TestAlerter_Evaluate_RedLevel(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	alerts := a.Evaluate(completedReport(model.AlertRed))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertRedLevel, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "2 of 4")
}

func TestAlerter_Evaluate_HallucinationRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{HallucinationRateThreshold: 25})

	r := completedReport(model.AlertYellow)
	r.Metrics.HallucinationRate = 25

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertHallucinationRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "25.0%")

	r.Metrics.HallucinationRate = 24.9
	assert.Empty(t, a.Evaluate(r))
}

func TestAlerter_Evaluate_CostOverrun(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{CostThresholdUSD: 0.01})

	r := completedReport(model.AlertGreen)
	r.InferenceUsage = &model.InferenceUsage{EstimatedCostUSD: 0.05}

	alerts := a.Evaluate(r)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertCostOverrun, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "$0.0500")
}

func TestAlerter_Evaluate_ZeroThresholds(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	r := completedReport(model.AlertGreen)
	r.Metrics.HallucinationRate = 100
	r.InferenceUsage = &model.InferenceUsage{EstimatedCostUSD: 999}

	assert.Empty(t, a.Evaluate(r))
}

func TestAlerter_Evaluate_MultipleAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{HallucinationRateThreshold: 10, CostThresholdUSD: 0.01})

	r := completedReport(model.AlertRed)
	r.Metrics.HallucinationRate = 50
	r.InferenceUsage = &model.InferenceUsage{EstimatedCostUSD: 1}

	types := make(map[AlertType]bool)
	for _, alert := range a.Evaluate(r) {
		types[alert.Type] = true
	}
	assert.Equal(t, map[AlertType]bool{
		AlertRedLevel:          true,
		AlertHallucinationRate: true,
		AlertCostOverrun:       true,
	}, types)
}

func TestAlerter_Notify_Webhook(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var alert Alert
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&alert)) {
			assert.Equal(t, AlertRedLevel, alert.Type)
			assert.Equal(t, "m-1", alert.MerchantID)
		}
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})

	sent := a.Notify(context.Background(), completedReport(model.AlertRed))
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
}

func TestAlerter_SendAlerts_EmptyURL(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertRedLevel, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_EmptyAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{WebhookURL: "http://example.com"})

	assert.Equal(t, 0, a.SendAlerts(context.Background(), nil))
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: ts.URL})

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertRedLevel, Message: "test"}})
	assert.Equal(t, 0, sent)
}

func TestCollect(t *testing.T) {
	green := completedReport(model.AlertGreen)
	green.Metrics.PricingPassRate = 100
	green.Summary = model.ReportSummary{TotalProducts: 3, ApprovedChanges: 2, AdjustedChanges: 1}
	green.InferenceUsage = &model.InferenceUsage{EstimatedCostUSD: 0.02}

	red := completedReport(model.AlertRed)
	red.Summary.LockedProducts = 1

	frozen := &model.FinalReport{Status: model.RunFrozen, AlertLevel: model.AlertRed,
		InferenceUsage: &model.InferenceUsage{EstimatedCostUSD: 0.01}}

	snap := Collect([]*model.FinalReport{green, red, nil, frozen})
	assert.Equal(t, 3, snap.Merchants)
	assert.Equal(t, 2, snap.Completed)
	assert.Equal(t, 1, snap.Frozen)
	assert.Equal(t, 1, snap.Green)
	assert.Equal(t, 2, snap.Red)
	assert.Equal(t, 4, snap.Approved)
	assert.Equal(t, 1, snap.Adjusted)
	assert.Equal(t, 2, snap.Blocked)
	assert.Equal(t, 1, snap.Locked)
	assert.InDelta(t, 75.0, snap.MeanPassRate, 1e-9)
	assert.InDelta(t, 1.0/3.0, snap.FreezeRate, 1e-9)
	assert.InDelta(t, 0.03, snap.CostUSD, 1e-9)
}

func TestCollect_Empty(t *testing.T) {
	snap := Collect(nil)
	assert.Zero(t, snap.Merchants)
	assert.Zero(t, snap.MeanPassRate)
	assert.Zero(t, snap.FreezeRate)
}

func TestAlerter_EvaluateBatch(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FreezeRateThreshold: 0.5})

	alerts := a.EvaluateBatch(&BatchSnapshot{Merchants: 4, Frozen: 3, FreezeRate: 0.75})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFreezeRate, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "3 of 4")

	assert.Empty(t, a.EvaluateBatch(&BatchSnapshot{Merchants: 4, Frozen: 2, FreezeRate: 0.5}))
	assert.Empty(t, a.EvaluateBatch(&BatchSnapshot{Merchants: 1, Frozen: 1, FreezeRate: 1}))
	assert.Empty(t, NewAlerter(config.MonitoringConfig{}).EvaluateBatch(&BatchSnapshot{Merchants: 4, Frozen: 4, FreezeRate: 1}))
}
