package arbitration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

func num(v, conf float64) models.Observation {
	return models.Observation{Value: models.NumberValue(v), Confidence: conf}
}

func cat(v string) models.Observation {
	return models.Observation{Value: models.CategoryValue(v)}
}

func at(o models.Observation, ts time.Time) models.Observation {
	o.ObservedAt = &ts
	return o
}

var base = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestArbitrator(t *testing.T) *Arbitrator {
	return NewArbitrator(DefaultConfig(), logger.NewTestLogger(t))
}

func TestResolveOne_StrategyPriority(t *testing.T) {
	tests := []struct {
		name         string
		conflict     models.Conflict
		wantStrategy models.Strategy
		wantValue    string
		wantConf     float64
		wantSource   string
	}{
		{
			name: "trusted source wins",
			conflict: models.Conflict{ID: "c1", Type: models.ConflictDataInconsist, Sources: map[string]models.Observation{
				"places":   cat("closed"),
				"registry": {Value: models.CategoryValue("active"), Confidence: 0.9},
			}},
			wantStrategy: models.StrategySourceTrust,
			wantValue:    "active",
			wantConf:     0.9,
			wantSource:   "registry",
		},
		{
			name: "trust applies with a single ranked source",
			conflict: models.Conflict{ID: "c2", Type: models.ConflictGeographic, Sources: map[string]models.Observation{
				"survey": {Value: models.PointValue(models.Coordinates{Lat: 45, Lon: 5})},
				"places": {Value: models.PointValue(models.Coordinates{Lat: 45.01, Lon: 5})},
			}},
			wantStrategy: models.StrategySourceTrust,
			wantValue:    "45.010000,5.000000",
			wantConf:     DefaultTrustConfidence,
			wantSource:   "places",
		},
		{
			name: "weighted average for numeric readings",
			conflict: models.Conflict{ID: "c3", Type: models.ConflictRatingPhotos, Sources: map[string]models.Observation{
				"places":           num(8, 0.5),
				"vision_condition": num(2, 0.25),
			}},
			wantStrategy: models.StrategyWeightedAverage,
			wantValue:    "6",
			wantConf:     0.375,
		},
		{
			name: "majority vote for categorical readings",
			conflict: models.Conflict{ID: "c4", Type: models.ConflictRatingPhotos, Sources: map[string]models.Observation{
				"a": cat("closed"),
				"b": cat("Active"),
				"c": cat("active"),
			}},
			wantStrategy: models.StrategyMajorityVote,
			wantValue:    "Active",
			wantConf:     2.0 / 3.0,
		},
		{
			name: "most recent when nothing else applies",
			conflict: models.Conflict{ID: "c5", Type: models.ConflictScoreMismatch, Sources: map[string]models.Observation{
				"vision_condition":    at(num(8, 0), base),
				"vision_presentation": at(num(2, 0), base.Add(time.Hour)),
			}},
			wantStrategy: models.StrategyMostRecent,
			wantValue:    "2",
			wantConf:     DefaultRecentConfidence,
			wantSource:   "vision_presentation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArbitrator(t)

			got, ok := a.ResolveOne(tt.conflict)

			require.True(t, ok)
			assert.True(t, got.Resolved)
			require.NotNil(t, got.Resolution)
			assert.Equal(t, tt.conflict.ID, got.Resolution.ConflictID)
			assert.Equal(t, tt.wantStrategy, got.Resolution.StrategyUsed)
			assert.Equal(t, tt.wantValue, got.Resolution.ResolvedValue.String())
			assert.InDelta(t, tt.wantConf, got.Resolution.Confidence, 1e-9)
			assert.Equal(t, tt.wantSource, got.Resolution.WinningSource)

			assert.False(t, tt.conflict.Resolved, "input must not be modified")
			assert.Nil(t, tt.conflict.Resolution)
		})
	}
}

func TestResolveOne_Unresolvable(t *testing.T) {
	tests := []struct {
		name    string
		sources map[string]models.Observation
	}{
		{"numeric without confidence or time", map[string]models.Observation{
			"vision_condition":    num(8, 0),
			"vision_presentation": num(2, 0),
		}},
		{"categorical tie", map[string]models.Observation{
			"a": cat("active"), "b": cat("closed"), "c": cat("unknown"),
		}},
		{"two categorical sources", map[string]models.Observation{
			"a": cat("active"), "b": cat("closed"),
		}},
		{"timestamps tied", map[string]models.Observation{
			"vision_condition":    at(num(8, 0), base),
			"vision_presentation": at(num(2, 0), base),
		}},
		{"one timestamp missing", map[string]models.Observation{
			"vision_condition":    at(num(8, 0), base),
			"vision_presentation": num(2, 0),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.Conflict{ID: "x", Type: models.ConflictScoreMismatch, Severity: models.SeverityMedium, Sources: tt.sources}

			got, ok := newTestArbitrator(t).ResolveOne(c)

			assert.False(t, ok)
			assert.False(t, got.Resolved)
			assert.Nil(t, got.Resolution)
		})
	}
}

func TestResolve_ReportsUnresolvable(t *testing.T) {
	conflicts := []models.Conflict{
		{ID: "ok", Type: models.ConflictDataInconsist, Sources: map[string]models.Observation{
			"registry": cat("active"), "places": cat("closed"),
		}},
		{ID: "stuck", Type: models.ConflictScoreMismatch, Sources: map[string]models.Observation{
			"vision_condition": num(9, 0), "vision_presentation": num(1, 0),
		}},
	}

	res := newTestArbitrator(t).Resolve(conflicts)

	require.Len(t, res.Conflicts, 2)
	assert.True(t, res.Conflicts[0].Resolved)
	assert.False(t, res.Conflicts[1].Resolved)
	assert.Len(t, res.Resolutions, 1)
	assert.Equal(t, 1, res.Unresolved)
	assert.Equal(t, models.StatusPartial, res.Status)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, apperrors.ErrCodeUnresolvableConflict, res.Issues[0].Code)
	assert.Equal(t, "stuck", res.Issues[0].Field)
}

func TestResolve_Idempotent(t *testing.T) {
	a := newTestArbitrator(t)
	conflicts := []models.Conflict{
		{ID: "c1", Type: models.ConflictRatingPhotos, Sources: map[string]models.Observation{
			"places": num(9, 0.6), "vision_condition": num(3, 0.9),
		}},
		{ID: "c2", Type: models.ConflictPopulationPOI, Sources: map[string]models.Observation{
			"demographics": num(0, 0.9), "poi_density": num(3, 0.6),
		}},
	}

	first := a.Resolve(conflicts)
	second := a.Resolve(first.Conflicts)
	again := a.Resolve(conflicts)

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestResolve_Empty(t *testing.T) {
	res := newTestArbitrator(t).Resolve(nil)
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, res.Resolutions)
	assert.Equal(t, models.StatusSuccess, res.Status)
}

func TestSourceTrust_CustomOrder(t *testing.T) {
	a := NewArbitrator(Config{TrustOrder: map[models.ConflictType][]string{
		models.ConflictScoreMismatch: {"vision_presentation"},
	}}, logger.NewNoOpLogger())

	got, ok := a.ResolveOne(models.Conflict{ID: "c", Type: models.ConflictScoreMismatch, Sources: map[string]models.Observation{
		"vision_condition": num(8, 0.9), "vision_presentation": num(2, 0.4),
	}})

	require.True(t, ok)
	assert.Equal(t, models.StrategySourceTrust, got.Resolution.StrategyUsed)
	assert.Equal(t, "2", got.Resolution.ResolvedValue.String())
	assert.Equal(t, 0.4, got.Resolution.Confidence)
}
