// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront-acquisition/internal/common/camunda"
	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/internal/common/database"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/common/observability"
	"storefront-acquisition/internal/engine/identity"
	"storefront-acquisition/internal/engine/pipeline"
	"storefront-acquisition/internal/engine/poi"
	"storefront-acquisition/internal/storage/recommendations"
	"storefront-acquisition/pkg/registry"

	aft "storefront-acquisition/internal/workers/acquisition/analyze-financial-trend"
	cnp "storefront-acquisition/internal/workers/acquisition/classify-nearby-pois"
	ea "storefront-acquisition/internal/workers/acquisition/evaluate-acquisition"
	mbi "storefront-acquisition/internal/workers/acquisition/match-business-identity"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, observability.Options{
		Tracing:     cfg.Tracing.Enabled,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry is invalid", zap.Error(err))
	}

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	store := recommendations.NewStore(pg.DB, log)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("recommendation schema setup failed", zap.Error(err))
	}
	cache := recommendations.NewCache(rdb.Client, time.Duration(cfg.Engine.CacheTTL)*time.Second, log)

	// --- Engine ---
	engineCfg, err := pipeline.ConfigFrom(cfg.Engine)
	if err != nil {
		zapLog.Fatal("engine config is invalid", zap.Error(err))
	}
	engine := pipeline.New(engineCfg, log,
		pipeline.WithTracer(obs.Tracer()),
		pipeline.WithStageObserver(obs.RecordStageDuration),
	)

	// --- Workers ---
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(zeebe.Zeebe(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := config.GetWorkerConfig(cfg, ea.TaskType)
		activity, _ := reg.FindByTaskType(ea.TaskType)
		handler := ea.NewHandler(ea.ConfigFrom(&wcfg, activity), engine, store, cache, log).
			WithRecorder(obs)
		start(ea.TaskType, handler)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, mbi.TaskType)
		activity, _ := reg.FindByTaskType(mbi.TaskType)
		handler := mbi.NewHandler(mbi.ConfigFrom(&wcfg, activity), identity.NewMatcher(engineCfg.Identity, log), log)
		start(mbi.TaskType, handler)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, cnp.TaskType)
		activity, _ := reg.FindByTaskType(cnp.TaskType)
		handler := cnp.NewHandler(cnp.ConfigFrom(&wcfg, activity), poi.NewClassifier(engineCfg.POI, log), log)
		start(cnp.TaskType, handler)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, aft.TaskType)
		activity, _ := reg.FindByTaskType(aft.TaskType)
		handler := aft.NewHandler(aft.ConfigFrom(&wcfg, activity), log)
		start(aft.TaskType, handler)
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		code := http.StatusOK
		for name, check := range map[string]func(context.Context) error{
			"zeebe":    zeebe.HealthCheck,
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
		} {
			if err := check(r.Context()); err != nil {
				checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		status := "ready"
		if code != http.StatusOK {
			status = "not_ready"
		}
		body := map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		}
		if checks["postgres"] == "ok" {
			counts, err := store.ReportCounts(r.Context())
			if err != nil {
				zapLog.Warn("recommendation counts unavailable", zap.Error(err))
			} else {
				body["recommendations"] = counts
			}
		}
		writeStatus(w, code, body)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
