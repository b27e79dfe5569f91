package models

import (
	"fmt"
	"strconv"
	"time"
)

// ConflictType is the closed set of cross-source checks.
type ConflictType string

const (
	ConflictPopulationPOI ConflictType = "POPULATION_POI_MISMATCH"
	ConflictCSPPricing    ConflictType = "CSP_PRICING_MISMATCH"
	ConflictRatingPhotos  ConflictType = "RATING_PHOTOS_MISMATCH"
	ConflictDataInconsist ConflictType = "DATA_INCONSISTENCY"
	ConflictScoreMismatch ConflictType = "SCORE_MISMATCH"
	ConflictGeographic    ConflictType = "GEOGRAPHIC_MISMATCH"
)

// AllConflictTypes returns the types in canonical order.
func AllConflictTypes() []ConflictType {
	return []ConflictType{
		ConflictPopulationPOI,
		ConflictCSPPricing,
		ConflictRatingPhotos,
		ConflictDataInconsist,
		ConflictScoreMismatch,
		ConflictGeographic,
	}
}

func (t ConflictType) Valid() bool {
	for _, c := range AllConflictTypes() {
		if c == t {
			return true
		}
	}
	return false
}

// Severity of a conflict or risk item.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Rank orders severities, LOW=1 .. CRITICAL=4. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Deduction is the fixed risk-score penalty for the severity.
func (s Severity) Deduction() float64 {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 8
	case SeverityLow:
		return 3
	}
	return 0
}

func (s Severity) Valid() bool { return s.Rank() > 0 }

// ParseSeverity accepts the canonical upper-case names.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Value is one source's reading of a fact: a number, a category or a point.
type Value struct {
	Number   *float64     `json:"number,omitempty"`
	Category string       `json:"category,omitempty"`
	Point    *Coordinates `json:"point,omitempty"`
}

func NumberValue(f float64) Value { return Value{Number: &f} }
func CategoryValue(c string) Value { return Value{Category: c} }
func PointValue(c Coordinates) Value { return Value{Point: &c} }
func (v Value) IsNumber() bool { return v.Number != nil }
func (v Value) IsCategory() bool { return v.Number == nil && v.Point == nil && v.Category != "" }
func (v Value) IsPoint() bool { return v.Point != nil }

func (v Value) String() string {
	switch {
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	case v.Point != nil:
		return fmt.Sprintf("%.6f,%.6f", v.Point.Lat, v.Point.Lon)
	default:
		return v.Category
	}
}

// Observation is a value attributed to a source with its confidence and timestamp.
type Observation struct {
	Value      Value      `json:"value"`
	Confidence float64    `json:"confidence,omitempty"`
	ObservedAt *time.Time `json:"observedAt,omitempty"`
}

// Strategy identifies the arbitration rule that produced a resolution.
type Strategy string

const (
	StrategySourceTrust     Strategy = "source_trust"
	StrategyWeightedAverage Strategy = "confidence_weighted_average"
	StrategyMajorityVote    Strategy = "majority_vote"
	StrategyMostRecent      Strategy = "most_recent"
)

// ArbitrationResolution is the accepted value for a conflict.
type ArbitrationResolution struct {
	ConflictID    string   `json:"conflictId"`
	ResolvedValue Value    `json:"resolvedValue"`
	StrategyUsed  Strategy `json:"strategyUsed"`
	Confidence    float64  `json:"confidence"`
	WinningSource string   `json:"winningSource,omitempty"`
}

// Conflict records a disagreement between independently derived facts.
// Type and Sources are fixed at detection; only Resolved and Resolution change,
// and only through the arbitrator.
type Conflict struct {
	ID          string                 `json:"id"`
	Type        ConflictType           `json:"type"`
	Severity    Severity               `json:"severity"`
	Sources     map[string]Observation `json:"sources"`
	Spread      float64                `json:"spread"`
	Description string                 `json:"description"`
	DetectedAt  time.Time              `json:"detectedAt"`
	Resolved    bool                   `json:"resolved"`
	Resolution  *ArbitrationResolution `json:"resolution,omitempty"`
}

// WithResolution returns a resolved copy of the conflict.
func (c Conflict) WithResolution(r ArbitrationResolution) Conflict {
	r.ConflictID = c.ID
	c.Resolved = true
	c.Resolution = &r
	return c
}
