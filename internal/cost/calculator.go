// Package cost prices inference token usage.
package cost

import (
	"sync"

	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/pkg/anthropic"
)

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Rates maps model id to its pricing.
type Rates map[string]ModelRate

// Calculator computes costs for inference usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude returns the USD cost of one call. Unknown models cost 0.
func (c *Calculator) Claude(modelID string, u anthropic.TokenUsage) float64 {
	rate, ok := c.rates[modelID]
	if !ok {
		return 0
	}
	in := (float64(u.InputTokens) / 1e6) * rate.Input
	out := (float64(u.OutputTokens) / 1e6) * rate.Output
	cw := (float64(u.CacheCreationInputTokens) / 1e6) * rate.Input * rate.CacheWriteMul
	cr := (float64(u.CacheReadInputTokens) / 1e6) * rate.Input * rate.CacheReadMul
	return in + out + cw + cr
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
		"claude-opus-4-6":            {Input: 15.00, Output: 75.00, CacheWriteMul: 1.25, CacheReadMul: 0.1},
	}
}

// Ledger accumulates the usage of one run. Safe for concurrent use.
type Ledger struct {
	calc  *Calculator
	model string

	mu    sync.Mutex
	calls int
	usage anthropic.TokenUsage
	usd   float64
}

// NewLedger returns an empty ledger pricing calls against modelID.
func NewLedger(calc *Calculator, modelID string) *Ledger {
	return &Ledger{calc: calc, model: modelID}
}

// Record adds one call's usage, logs it for the stage, and returns its cost.
func (l *Ledger) Record(stage string, u anthropic.TokenUsage) float64 {
	usd := l.calc.Claude(l.model, u)
	u.LogCost(l.model, stage, usd)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.usage = l.usage.Add(u)
	l.usd += usd
	return usd
}

// Usage returns the run totals.
func (l *Ledger) Usage() model.InferenceUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.InferenceUsage{
		Calls:               l.calls,
		InputTokens:         l.usage.InputTokens,
		OutputTokens:        l.usage.OutputTokens,
		CacheCreationTokens: l.usage.CacheCreationInputTokens,
		CacheReadTokens:     l.usage.CacheReadInputTokens,
		EstimatedCostUSD:    l.usd,
	}
}
