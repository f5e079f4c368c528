package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/merchant-ops/internal/agent"
	"github.com/sells-group/merchant-ops/internal/ingest"
	"github.com/sells-group/merchant-ops/internal/monitoring"
	"github.com/sells-group/merchant-ops/internal/pipeline"
	"github.com/sells-group/merchant-ops/internal/resilience"
	"github.com/sells-group/merchant-ops/internal/store"
	anthropicpkg "github.com/sells-group/merchant-ops/pkg/anthropic"
)

// pipelineEnv holds the lock store, alerter, and pipeline needed by the
// run and batch commands.
type pipelineEnv struct {
	Store    store.Store
	Alerter  *monitoring.Alerter
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for mode, opens and migrates the lock store,
// and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	inf := agent.NewInferencer(newInferenceClient(), newBreaker(), agent.InferencerConfig{
		Model:             cfg.Anthropic.Model,
		MaxTokens:         cfg.Anthropic.MaxTokens,
		Timeout:           time.Duration(cfg.Inference.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Inference.RequestsPerSecond,
	})
	alerter := monitoring.NewAlerter(cfg.Monitoring)

	p := pipeline.New(
		agent.NewCatalogAgent(inf, cfg.Inference.CatalogLimit),
		agent.NewSupportAgent(inf),
		alerter,
		pipeline.Options{
			Limits: ingest.Limits{
				Products:       cfg.Ingest.MaxProducts,
				Messages:       cfg.Ingest.MaxMessages,
				PricingContext: cfg.Ingest.MaxPricingContext,
			},
			Model: inf.Model(),
		},
	)

	return &pipelineEnv{Store: st, Alerter: alerter, Pipeline: p}, nil
}

func newInferenceClient() anthropicpkg.Client {
	if cfg.Inference.Offline {
		zap.L().Info("inference offline, using stub client")
		return &agent.StubClient{}
	}
	return anthropicpkg.NewClient(cfg.Anthropic.Key)
}

func newBreaker() *resilience.Breaker {
	bc := resilience.FromConfig(cfg.Inference.BreakerFailureThreshold, cfg.Inference.BreakerResetSecs)
	bc.OnStateChange = func(from, to resilience.State) {
		zap.L().Warn("inference breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return resilience.NewBreaker(bc)
}

// openStore opens the configured lock store and migrates it.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "redis":
		return store.NewRedis(&redis.Options{Addr: cfg.Store.RedisAddr}, cfg.Store.RedisNamespace), nil
	case "file":
		return store.NewFile(cfg.Store.LocksFile), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
