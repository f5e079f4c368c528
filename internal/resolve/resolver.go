// Package resolve turns proposals, validation flags, catalog health and
// merchant overrides into final audited pricing actions.
package resolve

import (
	"fmt"
	"math"

	"github.com/sells-group/merchant-ops/internal/model"
)

// Input is everything the resolver consumes for one run.
type Input struct {
	Proposals     []model.PricingProposal
	Flags         []model.ValidationFlag
	CatalogIssues []model.CatalogIssue
	Locks         model.MerchantLocks
	Sentiment     float64
}

// Result is the resolver's output for one run.
type Result struct {
	Actions         []model.FinalAction
	Warnings        []string
	Metrics         model.ReliabilityMetrics
	Summary         model.ReportSummary
	AlertLevel      model.AlertLevel
	Recommendations []string
}

// Resolve applies the decision chain to every proposal and derives the
// run-level metrics, alert level, and recommendations.
func Resolve(in Input) Result {
	critical := criticalProducts(in.CatalogIssues)
	byProduct := make(map[string][]model.ValidationFlag)
	for _, f := range in.Flags {
		byProduct[f.ProductID] = append(byProduct[f.ProductID], f)
	}

	res := Result{
		Actions:  make([]model.FinalAction, 0, len(in.Proposals)),
		Warnings: []string{},
	}
	for _, p := range in.Proposals {
		action, warning := decide(candidate{
			proposal:       p,
			flags:          byProduct[p.ProductID],
			locked:         in.Locks.Has(p.ProductID),
			catalogBlocked: critical[p.ProductID],
			sentiment:      in.Sentiment,
		})
		res.Actions = append(res.Actions, action)
		if warning != "" {
			res.Warnings = append(res.Warnings, warning)
		}
	}

	res.Summary = summarize(res.Actions)
	res.Metrics = metrics(res.Summary, in.Flags, in.Sentiment)
	res.AlertLevel = alertLevel(in.CatalogIssues, res.Warnings)
	res.Recommendations = recommendations(in.Sentiment, len(in.CatalogIssues), len(res.Warnings), res.Summary.ApprovedChanges)
	return res
}

// decide runs the chain for a single candidate and records which rule fired.
func decide(c candidate) (model.FinalAction, string) {
	for _, r := range chain {
		if r.match(c) {
			action, warning := r.apply(c)
			action.Rule = r.name
			return action, warning
		}
	}
	// unreachable: the last rule always matches
	return model.FinalAction{}, ""
}

// RuleNames lists the chain in evaluation order.
func RuleNames() []string {
	out := make([]string, len(chain))
	for i, r := range chain {
		out[i] = r.name
	}
	return out
}

// criticalProducts collects ids of products the catalog collaborator marked
// critical or high severity.
func criticalProducts(issues []model.CatalogIssue) map[string]bool {
	out := make(map[string]bool)
	for _, issue := range issues {
		if !issue.IsBlocking() {
			continue
		}
		if id := issue.SubjectID(); id != "" {
			out[id] = true
		}
	}
	return out
}

func summarize(actions []model.FinalAction) model.ReportSummary {
	s := model.ReportSummary{TotalProducts: len(actions)}
	for _, a := range actions {
		switch a.ActionStatus {
		case model.ActionApproved:
			s.ApprovedChanges++
		case model.ActionAdjusted:
			s.AdjustedChanges++
		case model.ActionBlocked:
			s.BlockedChanges++
		case model.ActionLocked:
			s.LockedProducts++
		}
	}
	return s
}

// metrics are over the whole proposal set. The hallucination rate divides
// flag count by proposal count, so one product can contribute several times;
// it is capped at 100.
func metrics(s model.ReportSummary, flags []model.ValidationFlag, sentiment float64) model.ReliabilityMetrics {
	m := model.ReliabilityMetrics{SentimentScore: sentiment}
	if s.TotalProducts == 0 {
		return m
	}
	hallucinations := 0
	for _, f := range flags {
		if f.Type == model.FlagHallucination {
			hallucinations++
		}
	}
	total := float64(s.TotalProducts)
	m.PricingPassRate = 100 * float64(s.ApprovedChanges) / total
	m.AutomatedBlockRate = 100 * float64(s.BlockedChanges) / total
	m.HallucinationRate = math.Min(100, 100*float64(hallucinations)/total)
	return m
}

func alertLevel(issues []model.CatalogIssue, warnings []string) model.AlertLevel {
	for _, issue := range issues {
		if issue.Type == model.IssueCritical {
			return model.AlertRed
		}
	}
	if len(warnings) > 0 {
		return model.AlertYellow
	}
	return model.AlertGreen
}

func recommendations(sentiment float64, issueCount, warningCount, approved int) []string {
	var out []string
	if sentiment < SentimentBlockThreshold {
		out = append(out, "⚠️ Address negative customer sentiment before making price increases")
	}
	if issueCount > 0 {
		out = append(out, fmt.Sprintf("📦 Review %d catalog data quality issues", issueCount))
	}
	if warningCount > 0 {
		out = append(out, fmt.Sprintf("⚡ %d pricing proposals required manual adjustment", warningCount))
	}
	if approved > 0 {
		out = append(out, fmt.Sprintf("✅ %d pricing changes ready to apply", approved))
	}
	if len(out) == 0 {
		out = append(out, "✨ All systems operating normally")
	}
	return out
}
