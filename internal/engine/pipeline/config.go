package pipeline

import (
	"fmt"
	"strings"
	"time"

	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/internal/engine/arbitration"
	"storefront-acquisition/internal/engine/conflict"
	"storefront-acquisition/internal/engine/identity"
	"storefront-acquisition/internal/engine/poi"
	"storefront-acquisition/internal/models"
)

// Config wires the tunables of every stage.
type Config struct {
	Identity    identity.Config
	POI         poi.Config
	Arbitration arbitration.Config
	Policy      conflict.SeverityPolicy
	// SourceConfidence is the default confidence per source; a snapshot may
	// override individual entries.
	SourceConfidence map[string]float64
	// StageTimeout bounds a whole evaluation. Zero disables the bound.
	StageTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Identity:         identity.DefaultConfig(),
		POI:              poi.DefaultConfig(),
		Arbitration:      arbitration.DefaultConfig(),
		Policy:           conflict.DefaultPolicy(),
		SourceConfidence: DefaultSourceConfidence(),
	}
}

// DefaultSourceConfidence reflects how reliable each feed usually is.
func DefaultSourceConfidence() map[string]float64 {
	return map[string]float64{
		conflict.SourceRegistry:           0.9,
		conflict.SourceGeocoder:           0.8,
		conflict.SourceDemographics:       0.8,
		conflict.SourcePlaces:             0.7,
		conflict.SourcePOIDensity:         0.6,
		conflict.SourceVisionCondition:    0.5,
		conflict.SourceVisionPresentation: 0.5,
	}
}

// ConfigFrom converts the engine section of the application config. Entries
// left empty keep their defaults.
func ConfigFrom(ec config.EngineConfig) (Config, error) {
	cfg := DefaultConfig()

	if ec.MaxCandidates > 0 {
		cfg.Identity.MaxCandidates = ec.MaxCandidates
	}
	if ec.ConfidentThreshold > 0 {
		cfg.Identity.ConfidentThreshold = ec.ConfidentThreshold
	}
	if ec.SearchRadiusMeters > 0 {
		cfg.POI.SearchRadiusMeters = ec.SearchRadiusMeters
	}
	if ec.MaxPOIs > 0 {
		cfg.POI.MaxPOIs = ec.MaxPOIs
	}
	cfg.StageTimeout = config.GetDuration(ec.StageTimeout)

	if len(ec.TrustOrder) > 0 {
		order := make(map[models.ConflictType][]string, len(ec.TrustOrder))
		for key, sources := range ec.TrustOrder {
			t, err := conflictType(key)
			if err != nil {
				return Config{}, fmt.Errorf("engine.trust_order: %w", err)
			}
			order[t] = append([]string(nil), sources...)
		}
		cfg.Arbitration.TrustOrder = order
	}

	if len(ec.SeverityRules) > 0 {
		rules := conflict.DefaultRules()
		for key, list := range ec.SeverityRules {
			t, err := conflictType(key)
			if err != nil {
				return Config{}, fmt.Errorf("engine.severity_rules: %w", err)
			}
			converted := make([]conflict.Rule, 0, len(list))
			for _, r := range list {
				sev, err := models.ParseSeverity(strings.ToUpper(r.Severity))
				if err != nil {
					return Config{}, fmt.Errorf("engine.severity_rules.%s: %w", key, err)
				}
				converted = append(converted, conflict.Rule{Above: r.Above, Severity: sev})
			}
			rules[t] = converted
		}
		policy, err := conflict.NewRulePolicy(rules)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = policy
	}

	for source, c := range ec.SourceConfidence {
		cfg.SourceConfidence[source] = c
	}
	return cfg, nil
}

func conflictType(key string) (models.ConflictType, error) {
	t := models.ConflictType(strings.ToUpper(key))
	if !t.Valid() {
		return "", fmt.Errorf("unknown conflict type %q", key)
	}
	return t, nil
}
