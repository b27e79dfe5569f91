// Package identity matches a target business against candidate place records.
package identity

import (
	"fmt"
	"math"
	"sort"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

// Secondary agreement points.
const (
	SecondaryPointsConsistent = 10
	SecondaryPointsUnknown    = 5
)

// Config bounds the candidate set and sets the confidence threshold.
type Config struct {
	MaxCandidates      int
	ConfidentThreshold int // composite points out of 100
}

func DefaultConfig() Config {
	return Config{
		MaxCandidates:      20,
		ConfidentThreshold: 80,
	}
}

// Result is the outcome of matching one business against its candidates.
// Matched is false (no-match) when no candidate reaches the threshold; Best is
// still reported for diagnostics in that case.
type Result struct {
	Best       *models.MatchResult  `json:"best,omitempty"`
	BestIndex  int                  `json:"bestIndex"`
	Candidates []models.MatchResult `json:"candidates"`
	Matched    bool                 `json:"matched"`
	Status     models.Status        `json:"status"`
	Issues     []models.Issue       `json:"issues,omitempty"`
}

// BestCandidate returns the candidate record behind Best. It selects by
// position, so candidates without a unique id still resolve to the right place.
func (r Result) BestCandidate(candidates []models.CandidatePOI) *models.CandidatePOI {
	if r.Best == nil || r.BestIndex < 0 || r.BestIndex >= len(candidates) {
		return nil
	}
	c := candidates[r.BestIndex]
	return &c
}

type Matcher struct {
	config Config
	logger logger.Logger
}

func NewMatcher(config Config, log logger.Logger) *Matcher {
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = DefaultConfig().MaxCandidates
	}
	if config.ConfidentThreshold <= 0 {
		config.ConfidentThreshold = DefaultConfig().ConfidentThreshold
	}
	return &Matcher{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": "identity"}),
	}
}

// Match scores every candidate and selects the best one. Ties go to the
// smaller distance, then to input order.
func (m *Matcher) Match(business models.BusinessRecord, candidates []models.CandidatePOI) Result {
	var issues []models.Issue

	if Normalize(business.Name) == "" {
		issues = append(issues, models.MissingInput("business.name"))
	}
	if len(candidates) == 0 {
		issues = append(issues, models.MissingInput("candidates"))
		return Result{Candidates: []models.MatchResult{}, BestIndex: -1, Status: models.StatusFor(issues), Issues: issues}
	}
	if len(candidates) > m.config.MaxCandidates {
		m.logger.Debug("candidate set truncated", map[string]interface{}{
			"received": len(candidates),
			"kept":     m.config.MaxCandidates,
		})
		candidates = candidates[:m.config.MaxCandidates]
	}

	results := make([]models.MatchResult, 0, len(candidates))
	for i, c := range candidates {
		r, issue := m.matchCandidate(business, c)
		if issue != nil {
			issue.Field = fmt.Sprintf("candidates[%d].%s", i, issue.Field)
			issues = append(issues, *issue)
		}
		results = append(results, r)
	}

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := results[order[i]], results[order[j]]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		return distanceOrInf(a) < distanceOrInf(b)
	})

	best := results[order[0]]
	res := Result{
		Best:       &best,
		BestIndex:  order[0],
		Candidates: results,
		Matched:    best.Confident,
		Status:     models.StatusFor(issues),
		Issues:     issues,
	}

	m.logger.Info("identity matched", map[string]interface{}{
		"business":   business.Name,
		"candidates": len(results),
		"best":       best.CandidateID,
		"composite":  best.Composite,
		"tier":       best.Tier,
		"matched":    res.Matched,
	})
	return res
}

func (m *Matcher) matchCandidate(business models.BusinessRecord, c models.CandidatePOI) (models.MatchResult, *models.Issue) {
	var issue *models.Issue

	namePoints, tier := scoreNameTier(business.Name, c.Name)

	dist, err := candidateDistance(business, c)
	if err != nil {
		bad := models.MalformedInput("location", err.Error())
		issue = &bad
	}
	distPoints := 0
	if dist != nil {
		distPoints = ScoreDistance(*dist)
	}

	breakdown := models.MatchBreakdown{
		Name:      namePoints,
		Distance:  distPoints,
		Category:  scoreCategory(business.ActivityCategory, c.Categories),
		Secondary: secondaryAgreement(business.Active, c.BusinessStatus),
	}
	composite := breakdown.Name + breakdown.Distance + breakdown.Category + breakdown.Secondary

	return models.MatchResult{
		CandidateID:    c.ID,
		CandidateName:  c.Name,
		Composite:      composite,
		Breakdown:      breakdown,
		Tier:           tier,
		Confident:      composite >= m.config.ConfidentThreshold,
		DistanceMeters: dist,
	}, issue
}

// candidateDistance prefers the reported distance and falls back to haversine.
func candidateDistance(business models.BusinessRecord, c models.CandidatePOI) (*float64, error) {
	if c.DistanceMeters != nil {
		d := *c.DistanceMeters
		if math.IsNaN(d) || d < 0 {
			return nil, fmt.Errorf("invalid distance %v", d)
		}
		return &d, nil
	}
	if business.Coordinates == nil || c.Coordinates == nil {
		return nil, nil
	}
	if !business.Coordinates.Valid() || !c.Coordinates.Valid() {
		return nil, fmt.Errorf("invalid coordinates")
	}
	d := Haversine(*business.Coordinates, *c.Coordinates)
	return &d, nil
}

// secondaryAgreement compares the registry's active flag with the place status.
// A temporary closure is still consistent with an active registration.
func secondaryAgreement(active *bool, status string) int {
	var open bool
	switch status {
	case models.PlaceStatusOperational, models.PlaceStatusClosedTemporarily:
		open = true
	case models.PlaceStatusClosedPermanently:
		open = false
	default:
		return SecondaryPointsUnknown
	}
	if active == nil {
		return SecondaryPointsUnknown
	}
	if *active == open {
		return SecondaryPointsConsistent
	}
	return 0
}

func distanceOrInf(r models.MatchResult) float64 {
	if r.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *r.DistanceMeters
}
