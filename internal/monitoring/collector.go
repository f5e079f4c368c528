package monitoring

import (
	"fmt"
	"time"

	"github.com/sells-group/merchant-ops/internal/model"
)

// BatchSnapshot aggregates the reports of one batch run.
type BatchSnapshot struct {
	Merchants int `json:"merchants"`
	Completed int `json:"completed"`
	Frozen    int `json:"frozen"`

	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`

	Approved int `json:"approved"`
	Adjusted int `json:"adjusted"`
	Blocked  int `json:"blocked"`
	Locked   int `json:"locked"`

	MeanPassRate float64 `json:"mean_pass_rate"`
	FreezeRate   float64 `json:"freeze_rate"`
	CostUSD      float64 `json:"cost_usd"`

	CollectedAt time.Time `json:"collected_at"`
}

// Collect builds a snapshot from finished reports. Nil reports are skipped.
// The mean pass rate covers completed runs only.
func Collect(reports []*model.FinalReport) *BatchSnapshot {
	snap := &BatchSnapshot{CollectedAt: time.Now().UTC()}
	passSum := 0.0
	for _, r := range reports {
		if r == nil {
			continue
		}
		snap.Merchants++
		switch r.AlertLevel {
		case model.AlertGreen:
			snap.Green++
		case model.AlertYellow:
			snap.Yellow++
		case model.AlertRed:
			snap.Red++
		}
		if r.InferenceUsage != nil {
			snap.CostUSD += r.InferenceUsage.EstimatedCostUSD
		}
		if r.Status == model.RunFrozen {
			snap.Frozen++
			continue
		}
		snap.Completed++
		snap.Approved += r.Summary.ApprovedChanges
		snap.Adjusted += r.Summary.AdjustedChanges
		snap.Blocked += r.Summary.BlockedChanges
		snap.Locked += r.Summary.LockedProducts
		passSum += r.Metrics.PricingPassRate
	}
	if snap.Completed > 0 {
		snap.MeanPassRate = passSum / float64(snap.Completed)
	}
	if snap.Merchants > 0 {
		snap.FreezeRate = float64(snap.Frozen) / float64(snap.Merchants)
	}
	return snap
}

// EvaluateBatch raises a freeze-rate alert when at least two merchants ran
// and the share of frozen runs exceeds the configured threshold.
func (a *Alerter) EvaluateBatch(snap *BatchSnapshot) []Alert {
	t := a.cfg.FreezeRateThreshold
	if snap == nil || t <= 0 || snap.Merchants < 2 || snap.FreezeRate <= t {
		return nil
	}
	return []Alert{{
		Type:     AlertFreezeRate,
		Severity: "critical",
		Message: fmt.Sprintf("%d of %d merchants frozen by complaint spikes (%.0f%%)",
			snap.Frozen, snap.Merchants, snap.FreezeRate*100),
		Details: map[string]any{
			"frozen":    snap.Frozen,
			"merchants": snap.Merchants,
			"threshold": t,
		},
		Timestamp: snap.CollectedAt,
	}}
}
