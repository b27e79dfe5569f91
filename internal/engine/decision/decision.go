// Package decision turns the final scores and the conflict state into a
// recommendation label.
package decision

import (
	"time"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/scoring"
	"storefront-acquisition/internal/models"
)

// Score thresholds. GO is inclusive, NO-GO is exclusive.
const (
	GoThreshold   = 75.0
	NoGoThreshold = 50.0
)

// Label applies the threshold rules. An unresolved CRITICAL conflict forces
// NO-GO whatever the score; any other unresolved conflict caps the label at
// GO_WITH_RESERVES.
func Label(score float64, conflicts []models.Conflict) models.Label {
	if HasUnresolvedCritical(conflicts) || score < NoGoThreshold {
		return models.LabelNoGo
	}
	if score >= GoThreshold && !HasUnresolved(conflicts) {
		return models.LabelGo
	}
	return models.LabelGoWithReserves
}

func HasUnresolved(conflicts []models.Conflict) bool {
	for _, c := range conflicts {
		if !c.Resolved {
			return true
		}
	}
	return false
}

func HasUnresolvedCritical(conflicts []models.Conflict) bool {
	for _, c := range conflicts {
		if !c.Resolved && c.Severity == models.SeverityCritical {
			return true
		}
	}
	return false
}

// Input is everything the final recommendation reports.
type Input struct {
	RequestID string
	Scores    scoring.Result
	Conflicts []models.Conflict
	Match     *models.MatchResult
	Trend     models.Trend
	Issues    []models.Issue
	Status    models.Status
	Now       time.Time
}

type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log.WithFields(map[string]interface{}{"stage": "decision"})}
}

// Decide always returns a recommendation. Every unresolved conflict is listed
// as blocking, whatever its severity.
func (e *Engine) Decide(in Input) *models.Recommendation {
	rec := &models.Recommendation{
		RequestID:          in.RequestID,
		Label:              Label(in.Scores.DecisionScore, in.Conflicts),
		CompositeScore:     in.Scores.DecisionScore,
		PotentialScore:     in.Scores.PotentialScore,
		RiskScore:          in.Scores.RiskScore,
		CoherenceScore:     in.Scores.CoherenceScore,
		DimensionScores:    in.Scores.DimensionScores,
		BlockingConflicts:  []models.Conflict{},
		ResolvedConflicts:  []models.Conflict{},
		RiskItems:          in.Scores.RiskItems,
		DegradedDimensions: in.Scores.DegradedDimensions,
		Match:              in.Match,
		Trend:              in.Trend,
		Issues:             in.Issues,
		Status:             in.Status.Worst(models.StatusSuccess),
		GeneratedAt:        in.Now,
	}
	if rec.DimensionScores == nil {
		rec.DimensionScores = []models.DimensionScore{}
	}
	if rec.RiskItems == nil {
		rec.RiskItems = []models.RiskItem{}
	}
	for _, c := range in.Conflicts {
		if c.Resolved {
			rec.ResolvedConflicts = append(rec.ResolvedConflicts, c)
		} else {
			rec.BlockingConflicts = append(rec.BlockingConflicts, c)
		}
	}

	e.logger.Info("recommendation issued", map[string]interface{}{
		"requestId": in.RequestID,
		"label":     rec.Label,
		"score":     rec.CompositeScore,
		"blocking":  len(rec.BlockingConflicts),
		"resolved":  len(rec.ResolvedConflicts),
		"status":    rec.Status,
	})
	return rec
}
