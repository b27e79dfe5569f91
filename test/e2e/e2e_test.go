//go:build e2e

// Package e2e runs the acquisition workers against live Zeebe, PostgreSQL and
// Redis. Start the stack, then: go test -tags e2e ./test/e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-acquisition/internal/common/camunda"
	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/internal/common/database"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/pipeline"
	"storefront-acquisition/internal/models"
	"storefront-acquisition/internal/storage/recommendations"
	"storefront-acquisition/pkg/registry"

	ea "storefront-acquisition/internal/workers/acquisition/evaluate-acquisition"
)

type stack struct {
	cfg   *config.Config
	pg    *database.PostgresClient
	redis *database.RedisClient
	reg   *registry.ActivityRegistry
}

func setup(t *testing.T) *stack {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	cfg.Database.Postgres.Host = envOr("E2E_DB_HOST", "localhost")
	cfg.Database.Redis.Address = envOr("E2E_REDIS_ADDRESS", "localhost:6379")
	cfg.Camunda.BrokerAddress = envOr("E2E_ZEEBE_ADDRESS", "localhost:26500")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	require.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")
	t.Cleanup(func() { rdb.Close() })

	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)

	return &stack{cfg: cfg, pg: pg, redis: rdb, reg: reg}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestZeebeTopology(t *testing.T) {
	s := setup(t)

	client, err := camunda.NewClient(camunda.ConfigFrom(s.cfg.Camunda))
	require.NoError(t, err, "Zeebe connection failed")
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestEvaluateAcquisition_PersistsAndCaches(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	store := recommendations.NewStore(s.pg.DB, log)
	require.NoError(t, store.EnsureSchema(ctx))
	cache := recommendations.NewCache(s.redis.Client, time.Minute, log)

	engineCfg, err := pipeline.ConfigFrom(s.cfg.Engine)
	require.NoError(t, err)
	engine := pipeline.New(engineCfg, log)

	activity, ok := s.reg.FindByTaskType(ea.TaskType)
	require.True(t, ok)
	handler := ea.NewHandler(ea.ConfigFrom(nil, activity), engine, store, cache, log)

	raw, err := os.ReadFile("../../cmd/evaluate/testdata/barriot.json")
	require.NoError(t, err)
	var input ea.Input
	require.NoError(t, json.Unmarshal(raw, &input))
	input.RequestID = "e2e-" + time.Now().UTC().Format("20060102150405.000000000")
	input.ForceRefresh = true
	t.Cleanup(func() { _ = cache.Invalidate(ctx, input.RequestID) })

	out, err := handler.Execute(ctx, &input)
	require.NoError(t, err)
	assert.Equal(t, models.LabelGo, out.Label)
	assert.False(t, out.Cached)

	stored, err := store.Get(ctx, input.RequestID)
	require.NoError(t, err)
	assert.Equal(t, out.Label, stored.Label)
	assert.InDelta(t, out.CompositeScore, stored.CompositeScore, 1e-9)

	cached, hit, err := cache.Get(ctx, input.RequestID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, out.Label, cached.Label)

	input.ForceRefresh = false
	again, err := handler.Execute(ctx, &input)
	require.NoError(t, err)
	assert.True(t, again.Cached)

	counts, err := store.CountByLabel(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts[models.LabelGo], 1)
}
