package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/merchant-ops/internal/model"
)

func TestLoadRunInput(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	files := inputFiles{
		Products: writeFile(t, dir, "products.csv", productsCSV),
		Messages: writeFile(t, dir, "messages.csv", calmMessagesCSV),
		Pricing:  writeFile(t, dir, "pricing.csv", pricingCSV),
	}

	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.SetLock(context.Background(), "acme", "P003", "contract"))

	in, err := loadRunInput(context.Background(), st, "acme", files)
	require.NoError(t, err)

	assert.Equal(t, "acme", in.MerchantID)
	assert.Len(t, in.Products, 3)
	assert.Len(t, in.Messages, 2)
	require.Len(t, in.PricingContext, 1)
	assert.Equal(t, 50.0, in.PricingContext[0].CompetitorPrice)
	assert.Equal(t, model.MerchantLocks{"P003": "contract"}, in.Locks)
}

func TestLoadRunInput_OptionalFiles(t *testing.T) {
	useTestConfig(t)

	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	in, err := loadRunInput(context.Background(), st, "acme", inputFiles{})
	require.NoError(t, err)
	assert.Empty(t, in.Products)
	assert.Empty(t, in.Messages)
	assert.Empty(t, in.Locks)
}

func TestLoadRunInput_BadFile(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()

	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = loadRunInput(context.Background(), st, "acme", inputFiles{
		Products: writeFile(t, dir, "products.txt", "id,name\n"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestRun_OfflineEndToEnd(t *testing.T) {
	useTestConfig(t)
	dir := t.TempDir()
	ctx := context.Background()

	env, err := initPipeline(ctx, "run")
	require.NoError(t, err)
	defer env.Close()
	require.NoError(t, env.Store.SetLock(ctx, "acme", "P003", "contract"))

	in, err := loadRunInput(ctx, env.Store, "acme", inputFiles{
		Products: writeFile(t, dir, "products.csv", productsCSV),
		Messages: writeFile(t, dir, "messages.csv", calmMessagesCSV),
		Pricing:  writeFile(t, dir, "pricing.csv", pricingCSV),
	})
	require.NoError(t, err)

	report := env.Pipeline.Run(ctx, in)

	assert.Equal(t, model.RunCompleted, report.Status)
	assert.Equal(t, model.AlertGreen, report.AlertLevel)
	assert.Equal(t, model.ReportSummary{TotalProducts: 3, ApprovedChanges: 2, LockedProducts: 1}, report.Summary)
	require.NotNil(t, report.InferenceUsage)
	assert.Equal(t, 2, report.InferenceUsage.Calls)

	out := filepath.Join(dir, "report.json")
	require.NoError(t, writeJSON(out, report))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "COMPLETED", decoded["status"])
	assert.Len(t, decoded["pricing_actions"], 3)
}

func TestRun_FrozenSendsSpikeAlert(t *testing.T) {
	var hits atomic.Int32
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			body, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	useTestConfig(t)
	cfg.Monitoring.WebhookURL = srv.URL
	dir := t.TempDir()
	ctx := context.Background()

	env, err := initPipeline(ctx, "run")
	require.NoError(t, err)
	defer env.Close()

	in, err := loadRunInput(ctx, env.Store, "acme", inputFiles{
		Products: writeFile(t, dir, "products.csv", productsCSV),
		Messages: writeFile(t, dir, "messages.csv", angryMessagesCSV),
	})
	require.NoError(t, err)

	report := env.Pipeline.Run(ctx, in)

	assert.Equal(t, model.RunFrozen, report.Status)
	assert.Empty(t, report.Actions)
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, string(body), `"complaint_spike"`)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &model.FinalReport{
		MerchantID:      "acme",
		Status:          model.RunCompleted,
		AlertLevel:      model.AlertYellow,
		Summary:         model.ReportSummary{TotalProducts: 3, ApprovedChanges: 1, BlockedChanges: 1, LockedProducts: 1},
		Metrics:         model.ReliabilityMetrics{PricingPassRate: 33.3, SentimentScore: 0.2},
		Warnings:        []string{"Blocked pricing for P001 due to DATA_MISMATCH"},
		Recommendations: []string{"✅ 1 pricing changes ready to apply"},
		InferenceUsage:  &model.InferenceUsage{Calls: 2, EstimatedCostUSD: 0.0031},
	})

	out := buf.String()
	assert.Contains(t, out, "YELLOW acme COMPLETED")
	assert.Contains(t, out, "3 products: 1 approved, 0 adjusted, 1 blocked, 1 locked")
	assert.Contains(t, out, "pass rate 33.3%")
	assert.Contains(t, out, "! Blocked pricing for P001 due to DATA_MISMATCH")
	assert.Contains(t, out, "2 inference calls, $0.0031")
}

func TestPrintSummary_Frozen(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &model.FinalReport{
		MerchantID:   "acme",
		Status:       model.RunFrozen,
		AlertLevel:   model.AlertRed,
		AlertMessage: "Complaint Velocity: 9.0/10",
	})

	out := buf.String()
	assert.Contains(t, out, "RED acme FROZEN")
	assert.Contains(t, out, "Complaint Velocity: 9.0/10")
	assert.NotContains(t, out, "products:")
}
