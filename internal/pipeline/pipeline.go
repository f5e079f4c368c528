// Package pipeline runs the merchant decision workflow over a blackboard:
// coordinator, support, catalog, then either the throttler or
// pricing, validation and conflict resolution.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/blackboard"
	"github.com/sells-group/merchant-ops/internal/cost"
	"github.com/sells-group/merchant-ops/internal/gate"
	"github.com/sells-group/merchant-ops/internal/ingest"
	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/internal/pricing"
	"github.com/sells-group/merchant-ops/internal/resolve"
	"github.com/sells-group/merchant-ops/internal/throttle"
	"github.com/sells-group/merchant-ops/internal/validate"
)

// CatalogAnalyzer normalizes raw products. Implementations never fail; errors
// come back as error-shaped catalog issues.
type CatalogAnalyzer interface {
	Analyze(ctx context.Context, products []model.Product, ledger *cost.Ledger) blackboard.Update
}

// SupportAnalyzer scores customer messages. Implementations never fail;
// errors come back as an error-shaped support summary.
type SupportAnalyzer interface {
	Analyze(ctx context.Context, messages []model.CustomerMessage, ledger *cost.Ledger) blackboard.Update
}

// Notifier receives every finished report.
type Notifier interface {
	Notify(ctx context.Context, report *model.FinalReport) int
}

// Options tunes a Pipeline. Zero values fall back to defaults.
type Options struct {
	Limits ingest.Limits
	// Model prices token usage on the report.
	Model string
	Rates cost.Rates
}

// Pipeline orchestrates one run per merchant. It holds no per-run state and
// is safe for concurrent use.
type Pipeline struct {
	catalog  CatalogAnalyzer
	support  SupportAnalyzer
	notifier Notifier
	calc     *cost.Calculator
	model    string
	limits   ingest.Limits
	now      func() time.Time
}

// New creates a Pipeline. notifier may be nil.
func New(catalog CatalogAnalyzer, support SupportAnalyzer, notifier Notifier, opts Options) *Pipeline {
	if opts.Limits == (ingest.Limits{}) {
		opts.Limits = ingest.DefaultLimits()
	}
	if opts.Rates == nil {
		opts.Rates = cost.DefaultRates()
	}
	return &Pipeline{
		catalog:  catalog,
		support:  support,
		notifier: notifier,
		calc:     cost.NewCalculator(opts.Rates),
		model:    opts.Model,
		limits:   opts.Limits,
		now:      time.Now,
	}
}

// RunInput is one merchant's inputs for a run.
type RunInput struct {
	MerchantID     string                  `json:"merchant_id" yaml:"merchant_id"`
	Products       []model.Product         `json:"products" yaml:"products"`
	Messages       []model.CustomerMessage `json:"messages" yaml:"messages"`
	PricingContext []model.PricingContext  `json:"pricing_context" yaml:"pricing_context"`
	Locks          model.MerchantLocks     `json:"locks,omitempty" yaml:"locks,omitempty"`
}

// Run executes the workflow for one merchant and always returns a complete
// report, FROZEN when a complaint spike was detected and COMPLETED otherwise.
func (p *Pipeline) Run(ctx context.Context, in RunInput) *model.FinalReport {
	s := blackboard.New(uuid.NewString(), in.MerchantID)
	log := zap.L().With(zap.String("merchant", in.MerchantID), zap.String("run_id", s.RunID))
	log.Info("pipeline: starting run")
	start := p.now()

	ledger := cost.NewLedger(p.calc, p.model)

	stage := func(name string, fn func() blackboard.Update) {
		t := p.now()
		s.Apply(fn())
		log.Debug("pipeline: stage complete",
			zap.String("stage", name),
			zap.Duration("duration", p.now().Sub(t)),
		)
	}

	stage("coordinator", func() blackboard.Update { return p.coordinate(in) })
	stage("support", func() blackboard.Update { return p.support.Analyze(ctx, s.CustomerMessages, ledger) })
	stage("catalog", func() blackboard.Update { return p.catalog.Analyze(ctx, s.RawProducts, ledger) })
	stage("schema_gate", func() blackboard.Update { return schemaAudit(s) })

	if gate.SafetyGate(s) == gate.Unsafe {
		log.Warn("pipeline: complaint spike detected, freezing pricing")
		stage("throttler", func() blackboard.Update { return throttle.Freeze(s) })
	} else {
		stage("pricing", func() blackboard.Update { return propose(s) })
		stage("validator", func() blackboard.Update { return check(s) })
		stage("resolver", func() blackboard.Update { return conclude(s) })
	}

	report := s.FinalReport
	report.AuditLog = append([]model.AuditEntry(nil), s.AuditLog...)
	usage := ledger.Usage()
	report.InferenceUsage = &usage
	report.GeneratedAt = p.now().UTC()

	log.Info("pipeline: run complete",
		zap.String("status", string(report.Status)),
		zap.String("alert_level", string(report.AlertLevel)),
		zap.Int("actions", len(report.Actions)),
		zap.Int("flags", len(report.ValidationFlags)),
		zap.Float64("cost_usd", usage.EstimatedCostUSD),
		zap.Duration("duration", p.now().Sub(start)),
	)

	if p.notifier != nil {
		p.notifier.Notify(ctx, report)
	}
	return report
}

// coordinate seeds the blackboard with bounded inputs.
func (p *Pipeline) coordinate(in RunInput) blackboard.Update {
	products := ingest.Bound(in.Products, p.limits.Products)
	messages := ingest.Bound(in.Messages, p.limits.Messages)
	pricingCtx := ingest.Bound(in.PricingContext, p.limits.PricingContext)
	locks := make(model.MerchantLocks, len(in.Locks))
	for k, v := range in.Locks {
		locks[k] = v
	}

	return blackboard.Update{
		RawProducts:      products,
		CustomerMessages: messages,
		PricingContext:   pricingCtx,
		MerchantLocks:    locks,
		RetryCount:       blackboard.Int(0),
		AuditLog: []model.AuditEntry{model.NewAuditEntry("workflow_started", map[string]any{
			"merchant_id":     in.MerchantID,
			"products":        len(products),
			"messages":        len(messages),
			"pricing_context": len(pricingCtx),
			"locks":           len(locks),
		})},
	}
}

// schemaAudit records the schema gate's verdict. The verdict does not
// change routing.
func schemaAudit(s *blackboard.State) blackboard.Update {
	return blackboard.Update{
		AuditLog: []model.AuditEntry{model.NewAuditEntry("schema_gate_evaluated", map[string]any{
			"verdict":     string(gate.SchemaGate(s)),
			"retry_count": s.RetryCount,
		})},
	}
}

func propose(s *blackboard.State) blackboard.Update {
	proposals := pricing.Propose(s.Products(), s.PricingContext, s.SentimentScore)
	return blackboard.Update{
		PricingProposals: proposals,
		AuditLog: []model.AuditEntry{model.NewAuditEntry("pricing_proposed", map[string]any{
			"proposals": len(proposals),
		})},
	}
}

func check(s *blackboard.State) blackboard.Update {
	flags := validate.Validate(s.PricingProposals, s.PricingContext, s.SentimentScore)
	return blackboard.Update{
		ValidationFlags: flags,
		AuditLog: []model.AuditEntry{model.NewAuditEntry("validation_completed", map[string]any{
			"flags": len(flags),
		})},
	}
}

func conclude(s *blackboard.State) blackboard.Update {
	res := resolve.Resolve(resolve.Input{
		Proposals:     s.PricingProposals,
		Flags:         s.ValidationFlags,
		CatalogIssues: s.CatalogIssues,
		Locks:         s.MerchantLocks,
		Sentiment:     s.SentimentScore,
	})

	report := &model.FinalReport{
		RunID:           s.RunID,
		MerchantID:      s.MerchantID,
		Status:          model.RunCompleted,
		AlertLevel:      res.AlertLevel,
		Summary:         res.Summary,
		Metrics:         res.Metrics,
		CatalogIssues:   orEmpty(s.CatalogIssues),
		ValidationFlags: orEmpty(s.ValidationFlags),
		SupportSummary:  s.SupportSummary,
		Actions:         res.Actions,
		Warnings:        res.Warnings,
		Recommendations: res.Recommendations,
	}

	return blackboard.Update{
		FinalReport: report,
		AuditLog: []model.AuditEntry{model.NewAuditEntry("workflow_completed", map[string]any{
			"alert_level":   string(res.AlertLevel),
			"actions_count": len(res.Actions),
		})},
	}
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return append([]T(nil), v...)
}
