package evaluateacquisition

import (
	"time"

	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/pkg/registry"
)

type Config struct {
	Timeout time.Duration
	// InputSchema is the registry schema job variables are checked against.
	InputSchema map[string]interface{}
	// ReuseCached answers a request ID already evaluated from the cache, or
	// from the store when the cache misses.
	ReuseCached bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     30 * time.Second,
		ReuseCached: true,
	}
}

// ConfigFrom merges the worker section of the application config with the
// task's registry entry. Either may be nil.
func ConfigFrom(wc *config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := LoadConfig()
	if activity != nil {
		cfg.Timeout = activity.TimeoutOr(cfg.Timeout)
		cfg.InputSchema = activity.InputSchema
	}
	if wc != nil && wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
