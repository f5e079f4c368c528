package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/ingest"
	"github.com/sells-group/merchant-ops/internal/pipeline"
	"github.com/sells-group/merchant-ops/internal/store"
)

var (
	runMerchant string
	runFiles    inputFiles
	runOutput   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decision pipeline for a single merchant",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		in, err := loadRunInput(ctx, env.Store, runMerchant, runFiles)
		if err != nil {
			return err
		}

		report := env.Pipeline.Run(ctx, in)
		printSummary(os.Stderr, report)

		return writeJSON(runOutput, report)
	},
}

func init() {
	runCmd.Flags().StringVar(&runMerchant, "merchant", "", "merchant id (required)")
	runCmd.Flags().StringVar(&runFiles.Products, "products", "", "product catalog file (.csv, .tsv, .xlsx, .json)")
	runCmd.Flags().StringVar(&runFiles.Messages, "messages", "", "customer messages file")
	runCmd.Flags().StringVar(&runFiles.Pricing, "pricing", "", "competitor pricing context file")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the JSON report here instead of stdout")
	_ = runCmd.MarkFlagRequired("merchant")
	rootCmd.AddCommand(runCmd)
}

// inputFiles names the per-merchant input files. Empty paths are skipped.
type inputFiles struct {
	Products string
	Messages string
	Pricing  string
}

// loadRunInput reads the input files and the merchant's stored locks.
func loadRunInput(ctx context.Context, st store.Store, merchantID string, files inputFiles) (pipeline.RunInput, error) {
	in := pipeline.RunInput{MerchantID: merchantID}
	if err := loadFiles(&in, files); err != nil {
		return in, err
	}

	locks, err := st.GetLocks(ctx, merchantID)
	if err != nil {
		return in, eris.Wrapf(err, "load locks for %s", merchantID)
	}
	in.Locks = locks

	zap.L().Info("run input loaded",
		zap.String("merchant", merchantID),
		zap.Int("products", len(in.Products)),
		zap.Int("messages", len(in.Messages)),
		zap.Int("pricing_context", len(in.PricingContext)),
		zap.Int("locks", len(in.Locks)),
	)
	return in, nil
}

func loadFiles(in *pipeline.RunInput, files inputFiles) error {
	opts := ingest.Options{Charset: cfg.Ingest.Charset}
	var err error
	if files.Products != "" {
		if in.Products, err = ingest.LoadProducts(files.Products, opts); err != nil {
			return err
		}
	}
	if files.Messages != "" {
		if in.Messages, err = ingest.LoadMessages(files.Messages, opts); err != nil {
			return err
		}
	}
	if files.Pricing != "" {
		if in.PricingContext, err = ingest.LoadPricingContext(files.Pricing, opts); err != nil {
			return err
		}
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	if path == "" {
		return encodeJSON(os.Stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	if err := encodeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "close output file")
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}
