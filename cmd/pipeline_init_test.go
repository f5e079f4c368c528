package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/merchant-ops/internal/store"
)

func TestPipelineEnv_Close_Nil(t *testing.T) {
	pe := &pipelineEnv{}
	assert.NotPanics(t, func() {
		pe.Close()
	})
}

func TestInitStore_Drivers(t *testing.T) {
	useTestConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, st)
	require.NoError(t, st.Close())

	cfg.Store.Driver = "file"
	st, err = initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, st)

	cfg.Store.Driver = "redis"
	cfg.Store.RedisAddr = "localhost:6379"
	st, err = initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &store.RedisStore{}, st)
	require.NoError(t, st.Close())
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	useTestConfig(t)
	cfg.Store.Driver = "mongo"

	st, err := initStore(context.Background())
	assert.Nil(t, st)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitPipeline_Offline(t *testing.T) {
	useTestConfig(t)

	env, err := initPipeline(context.Background(), "run")
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Store)
	assert.NotNil(t, env.Alerter)
	assert.NotNil(t, env.Pipeline)
}

func TestInitPipeline_RequiresKeyOnline(t *testing.T) {
	useTestConfig(t)
	cfg.Inference.Offline = false

	env, err := initPipeline(context.Background(), "run")
	assert.Nil(t, env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")
}

func TestInitPipeline_BadBatchConcurrency(t *testing.T) {
	useTestConfig(t)
	cfg.Batch.MaxConcurrentMerchants = 0

	_, err := initPipeline(context.Background(), "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_merchants")
}
