// Package arbitration resolves detected conflicts into a single accepted value.
package arbitration

import (
	"fmt"
	"sort"
	"strings"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

// Confidence used when the winning observation carries none.
const (
	DefaultTrustConfidence  = 0.7
	DefaultRecentConfidence = 0.5
)

type Config struct {
	// TrustOrder ranks sources per conflict type, most trusted first.
	TrustOrder map[models.ConflictType][]string
}

func DefaultConfig() Config {
	return Config{
		TrustOrder: map[models.ConflictType][]string{
			models.ConflictPopulationPOI: {"demographics", "poi_density"},
			models.ConflictCSPPricing:    {"demographics", "places"},
			models.ConflictDataInconsist: {"registry", "places"},
			models.ConflictGeographic:    {"registry", "geocoder", "places"},
		},
	}
}

type Result struct {
	Conflicts   []models.Conflict              `json:"conflicts"`
	Resolutions []models.ArbitrationResolution `json:"resolutions"`
	Unresolved  int                            `json:"unresolved"`
	Status      models.Status                  `json:"status"`
	Issues      []models.Issue                 `json:"issues,omitempty"`
}

type Arbitrator struct {
	config     Config
	strategies []strategy
	logger     logger.Logger
}

func NewArbitrator(config Config, log logger.Logger) *Arbitrator {
	if config.TrustOrder == nil {
		config.TrustOrder = map[models.ConflictType][]string{}
	}
	return &Arbitrator{
		config: config,
		strategies: []strategy{
			sourceTrust,
			weightedAverage,
			majorityVote,
			mostRecent,
		},
		logger: log.WithFields(map[string]interface{}{"stage": "arbitration"}),
	}
}

// Resolve returns a copy of every conflict with its resolution attached when a
// strategy applies. Conflicts that already carry a resolution are returned
// unchanged. Conflicts no strategy can settle stay unresolved and are reported
// as UNRESOLVABLE_CONFLICT issues.
func (a *Arbitrator) Resolve(conflicts []models.Conflict) Result {
	res := Result{
		Conflicts:   make([]models.Conflict, 0, len(conflicts)),
		Resolutions: []models.ArbitrationResolution{},
	}
	for _, c := range conflicts {
		resolved, ok := a.ResolveOne(c)
		res.Conflicts = append(res.Conflicts, resolved)
		if !ok {
			res.Unresolved++
			res.Issues = append(res.Issues, models.Issue{
				Code:    apperrors.ErrCodeUnresolvableConflict,
				Field:   c.ID,
				Message: fmt.Sprintf("no arbitration strategy applies to %s", c.Type),
			})
			continue
		}
		res.Resolutions = append(res.Resolutions, *resolved.Resolution)
	}
	res.Status = models.StatusFor(res.Issues)

	a.logger.Info("conflicts arbitrated", map[string]interface{}{
		"total":      len(conflicts),
		"resolved":   len(res.Resolutions),
		"unresolved": res.Unresolved,
	})
	return res
}

// ResolveOne tries each strategy in priority order.
func (a *Arbitrator) ResolveOne(c models.Conflict) (models.Conflict, bool) {
	if c.Resolved && c.Resolution != nil {
		return c, true
	}
	for _, s := range a.strategies {
		if r, ok := s(c, a.config.TrustOrder[c.Type]); ok {
			a.logger.Debug("conflict resolved", map[string]interface{}{
				"conflictId": c.ID,
				"type":       c.Type,
				"strategy":   r.StrategyUsed,
				"value":      r.ResolvedValue.String(),
			})
			return c.WithResolution(r), true
		}
	}
	return c, false
}

func sourceNames(sources map[string]models.Observation) []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
