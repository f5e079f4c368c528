// Package agent wraps the inference provider behind the catalog and support
// collaborators the pipeline consumes.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/merchant-ops/internal/cost"
	"github.com/sells-group/merchant-ops/internal/resilience"
	"github.com/sells-group/merchant-ops/pkg/anthropic"
)

// InferencerConfig controls how calls reach the provider.
type InferencerConfig struct {
	Model             string
	MaxTokens         int64
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Inferencer makes single, synchronous completion calls. It paces requests
// and stops calling the provider while the breaker is open. It never retries.
type Inferencer struct {
	client  anthropic.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	cfg     InferencerConfig
}

// NewInferencer creates an Inferencer. A nil breaker disables outage isolation.
func NewInferencer(client anthropic.Client, breaker *resilience.Breaker, cfg InferencerConfig) *Inferencer {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Inferencer{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		cfg:     cfg,
	}
}

// Model returns the model id requests are sent to.
func (i *Inferencer) Model() string { return i.cfg.Model }

// Complete sends one system+user exchange and returns the response text.
// Usage is recorded on ledger when it is non-nil.
func (i *Inferencer) Complete(ctx context.Context, stage, system, user string, ledger *cost.Ledger) (string, error) {
	if err := i.limiter.Wait(ctx); err != nil {
		return "", eris.Wrapf(err, "agent: %s rate limit wait", stage)
	}
	if i.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.cfg.Timeout)
		defer cancel()
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       i.cfg.Model,
		MaxTokens:   i.cfg.MaxTokens,
		System:      anthropic.CachedSystem(system),
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	}

	call := func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return i.client.CreateMessage(ctx, req)
	}
	var resp *anthropic.MessageResponse
	var err error
	if i.breaker != nil {
		resp, err = resilience.Guard(ctx, i.breaker, call)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return "", eris.Wrapf(err, "agent: %s inference", stage)
	}

	if ledger != nil {
		ledger.Record(stage, resp.Usage)
	}
	return resp.Text(), nil
}

// cleanJSON strips markdown fences and any prose around the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	for _, fence := range []string{"```json", "```"} {
		if strings.HasPrefix(text, fence) {
			text = strings.TrimPrefix(text, fence)
			if idx := strings.LastIndex(text, "```"); idx >= 0 {
				text = text[:idx]
			}
			break
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
