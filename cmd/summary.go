package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/internal/monitoring"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func levelColor(level model.AlertLevel) *color.Color {
	switch level {
	case model.AlertGreen:
		return green
	case model.AlertYellow:
		return yellow
	default:
		return red
	}
}

// printSummary writes a one-screen digest of report to w.
func printSummary(w io.Writer, r *model.FinalReport) {
	levelColor(r.AlertLevel).Fprintf(w, "%s %s %s\n", r.AlertLevel, r.MerchantID, r.Status)

	if r.Status == model.RunFrozen {
		fmt.Fprintln(w, r.AlertMessage)
	} else {
		s := r.Summary
		fmt.Fprintf(w, "  %d products: %d approved, %d adjusted, %d blocked, %d locked\n",
			s.TotalProducts, s.ApprovedChanges, s.AdjustedChanges, s.BlockedChanges, s.LockedProducts)
		fmt.Fprintf(w, "  pass rate %.1f%%, hallucination rate %.1f%%, sentiment %.2f\n",
			r.Metrics.PricingPassRate, r.Metrics.HallucinationRate, r.Metrics.SentimentScore)
	}
	for _, warning := range r.Warnings {
		yellow.Fprintf(w, "  ! %s\n", warning)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	if u := r.InferenceUsage; u != nil && u.Calls > 0 {
		cyan.Fprintf(w, "  %d inference calls, $%.4f\n", u.Calls, u.EstimatedCostUSD)
	}
}

// printSnapshot writes batch totals to w.
func printSnapshot(w io.Writer, snap *monitoring.BatchSnapshot) {
	cyan.Fprintf(w, "%d merchants: %d completed, %d frozen\n", snap.Merchants, snap.Completed, snap.Frozen)
	fmt.Fprintf(w, "  alert levels: ")
	green.Fprintf(w, "%d green ", snap.Green)
	yellow.Fprintf(w, "%d yellow ", snap.Yellow)
	red.Fprintf(w, "%d red\n", snap.Red)
	fmt.Fprintf(w, "  actions: %d approved, %d adjusted, %d blocked, %d locked\n",
		snap.Approved, snap.Adjusted, snap.Blocked, snap.Locked)
	fmt.Fprintf(w, "  mean pass rate %.1f%%, freeze rate %.0f%%, cost $%.4f\n",
		snap.MeanPassRate, 100*snap.FreezeRate, snap.CostUSD)
}
