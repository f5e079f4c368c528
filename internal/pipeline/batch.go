package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/merchant-ops/internal/model"
)

// RunBatch runs each merchant independently, at most concurrency at a time.
// Reports are returned in input order. If ctx is cancelled, merchants that
// had not started keep a nil report and the context error is returned.
func (p *Pipeline) RunBatch(ctx context.Context, inputs []RunInput, concurrency int) ([]*model.FinalReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	reports := make([]*model.FinalReport, len(inputs))
	if len(inputs) == 0 {
		return reports, nil
	}

	zap.L().Info("pipeline: starting batch",
		zap.Int("merchants", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = p.Run(gctx, in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, eris.Wrap(err, "pipeline: batch")
	}
	return reports, nil
}
