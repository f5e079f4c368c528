package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/config"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// useTestConfig installs an offline config backed by a fresh SQLite file.
func useTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg = &config.Config{
		Anthropic: config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024},
		Inference: config.InferenceConfig{CatalogLimit: 10, Offline: true},
		Ingest:    config.IngestConfig{MaxProducts: 10, MaxMessages: 20, MaxPricingContext: 5},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(dir, "locks.db"),
			LocksFile:   filepath.Join(dir, "locks.yaml"),
		},
		Monitoring: config.MonitoringConfig{HallucinationRateThreshold: 20, FreezeRateThreshold: 0.5},
		Batch:      config.BatchConfig{MaxConcurrentMerchants: 2},
		Log:        config.LogConfig{Level: "error", Format: "json"},
	}
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	productsCSV = `id,name,price,cost
P001,Desk Lamp,100,60
P002,Coffee Mug,20,8
P003,Wool Rug,50,20
`
	calmMessagesCSV = `id,message
M001,Where is my order?
M002,Do you ship to Canada?
`
	angryMessagesCSV = `id,message
M001,"Arrived broken, I want a refund"
M002,Terrible quality
M003,Worst purchase ever
`
	pricingCSV = `product_id,competitor_price
P001,50
`
)
