package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/merchant-ops/internal/model"
	"github.com/sells-group/merchant-ops/internal/monitoring"
	"github.com/sells-group/merchant-ops/internal/pipeline"
	"github.com/sells-group/merchant-ops/internal/store"
)

var (
	batchOutputDir   string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run the decision pipeline for every merchant in a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrentMerchants = batchConcurrency
		}

		env, err := initPipeline(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := readManifest(args[0])
		if err != nil {
			return err
		}
		inputs, err := m.inputs(ctx, env.Store, filepath.Dir(args[0]))
		if err != nil {
			return err
		}

		reports, runErr := env.Pipeline.RunBatch(ctx, inputs, cfg.Batch.MaxConcurrentMerchants)

		snap := monitoring.Collect(reports)
		env.Alerter.SendAlerts(ctx, env.Alerter.EvaluateBatch(snap))
		for _, r := range reports {
			if r != nil {
				printSummary(os.Stderr, r)
			}
		}
		printSnapshot(os.Stderr, snap)

		if err := writeBatch(batchOutputDir, reports); err != nil {
			return err
		}
		return runErr
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "write one <merchant>.json report per merchant here instead of a JSON array on stdout")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "override batch.max_concurrent_merchants")
	rootCmd.AddCommand(batchCmd)
}

// manifest lists the merchants of one batch. Each entry may carry inline
// records, input files, or both; file records are appended after inline ones.
type manifest struct {
	Merchants []manifestEntry `yaml:"merchants"`
}

type manifestEntry struct {
	pipeline.RunInput `yaml:",inline"`

	ProductsFile string `yaml:"products_file"`
	MessagesFile string `yaml:"messages_file"`
	PricingFile  string `yaml:"pricing_file"`
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read manifest")
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "parse manifest")
	}
	if len(m.Merchants) == 0 {
		return nil, eris.New("manifest lists no merchants")
	}
	seen := make(map[string]bool, len(m.Merchants))
	for i, e := range m.Merchants {
		if e.MerchantID == "" {
			return nil, eris.Errorf("manifest entry %d: merchant_id is required", i)
		}
		if seen[e.MerchantID] {
			return nil, eris.Errorf("manifest entry %d: duplicate merchant %s", i, e.MerchantID)
		}
		seen[e.MerchantID] = true
	}
	return &m, nil
}

// inputs resolves every entry into a RunInput. Relative file paths are read
// from dir. Stored locks are overlaid by inline locks.
func (m *manifest) inputs(ctx context.Context, st store.Store, dir string) ([]pipeline.RunInput, error) {
	out := make([]pipeline.RunInput, 0, len(m.Merchants))
	for _, e := range m.Merchants {
		files := inputFiles{
			Products: resolvePath(dir, e.ProductsFile),
			Messages: resolvePath(dir, e.MessagesFile),
			Pricing:  resolvePath(dir, e.PricingFile),
		}
		in, err := loadRunInput(ctx, st, e.MerchantID, files)
		if err != nil {
			return nil, eris.Wrapf(err, "merchant %s", e.MerchantID)
		}
		in.Products = append(append([]model.Product(nil), e.Products...), in.Products...)
		in.Messages = append(append([]model.CustomerMessage(nil), e.Messages...), in.Messages...)
		in.PricingContext = append(append([]model.PricingContext(nil), e.PricingContext...), in.PricingContext...)
		if in.Locks == nil {
			in.Locks = model.MerchantLocks{}
		}
		for id, reason := range e.Locks {
			in.Locks[id] = reason
		}
		out = append(out, in)
	}
	return out, nil
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func writeBatch(dir string, reports []*model.FinalReport) error {
	if dir == "" {
		return writeJSON("", reports)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "create output dir")
	}
	for _, r := range reports {
		if r == nil {
			continue
		}
		if err := writeJSON(filepath.Join(dir, r.MerchantID+".json"), r); err != nil {
			return err
		}
	}
	zap.L().Info("batch reports written", zap.String("dir", dir), zap.Int("reports", len(reports)))
	return nil
}
