package classifynearbypois

import (
	"time"

	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

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
