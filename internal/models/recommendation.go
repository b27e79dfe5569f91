package models

import (
	"time"

	apperrors "storefront-acquisition/internal/common/errors"
)

// Dimension is one weighted axis of the opportunity score.
type Dimension string

const (
	DimensionLocation    Dimension = "LOCATION"
	DimensionMarket      Dimension = "MARKET"
	DimensionOperational Dimension = "OPERATIONAL"
	DimensionFinancial   Dimension = "FINANCIAL"
)

func AllDimensions() []Dimension {
	return []Dimension{DimensionLocation, DimensionMarket, DimensionOperational, DimensionFinancial}
}

// Weight returns the fixed weight of the dimension. Weights sum to 1.0.
func (d Dimension) Weight() float64 {
	switch d {
	case DimensionLocation:
		return 0.30
	case DimensionMarket:
		return 0.25
	case DimensionOperational:
		return 0.25
	case DimensionFinancial:
		return 0.20
	}
	return 0
}

// DimensionScore is the raw score of one dimension with its sub-factors.
type DimensionScore struct {
	Dimension      Dimension          `json:"dimension"`
	RawScore       float64            `json:"rawScore"`
	Weight         float64            `json:"weight"`
	SubFactors     map[string]float64 `json:"subFactors"`
	Degraded       bool               `json:"degraded"`
	DegradedInputs []string           `json:"degradedInputs,omitempty"`
}

// RiskItem is a risk-relevant fact with a fixed per-severity deduction.
type RiskItem struct {
	Category       Dimension `json:"category"`
	Severity       Severity  `json:"severity"`
	PointDeduction float64   `json:"pointDeduction"`
	Reason         string    `json:"reason,omitempty"`
}

// NewRiskItem fills PointDeduction from the severity.
func NewRiskItem(category Dimension, severity Severity, reason string) RiskItem {
	return RiskItem{
		Category:       category,
		Severity:       severity,
		PointDeduction: severity.Deduction(),
		Reason:         reason,
	}
}

// Label is the final categorical recommendation.
type Label string

const (
	LabelGo             Label = "GO"
	LabelGoWithReserves Label = "GO_WITH_RESERVES"
	LabelNoGo           Label = "NO-GO"
)

// Status of a stage result or of the whole run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Worst returns the more degraded of two statuses.
func (s Status) Worst(o Status) Status {
	rank := func(x Status) int {
		switch x {
		case StatusError:
			return 2
		case StatusPartial:
			return 1
		}
		return 0
	}
	if rank(o) > rank(s) {
		return o
	}
	if s == "" {
		return StatusSuccess
	}
	return s
}

// Issue describes degraded input or an unresolvable conflict.
type Issue struct {
	Code    apperrors.ErrorCode `json:"code"`
	Field   string              `json:"field,omitempty"`
	Message string              `json:"message"`
}

func MissingInput(field string) Issue {
	return Issue{Code: apperrors.ErrCodeMissingInput, Field: field, Message: field + " is missing"}
}

func MalformedInput(field, reason string) Issue {
	return Issue{Code: apperrors.ErrCodeMalformedInput, Field: field, Message: reason}
}

// StatusFor derives a stage status from its issues.
func StatusFor(issues []Issue) Status {
	if len(issues) == 0 {
		return StatusSuccess
	}
	return StatusPartial
}

// Trend of the multi-year accounts.
type Trend string

const (
	TrendGrowth        Trend = "croissance"
	TrendStable        Trend = "stable"
	TrendDecline       Trend = "declin"
	TrendIndeterminate Trend = "indetermine"
)

// Recommendation is the terminal output of one evaluation.
type Recommendation struct {
	RequestID          string           `json:"requestId,omitempty"`
	Label              Label            `json:"label"`
	CompositeScore     float64          `json:"compositeScore"`
	PotentialScore     float64          `json:"potentialScore"`
	RiskScore          float64          `json:"riskScore"`
	CoherenceScore     float64          `json:"coherenceScore"`
	DimensionScores    []DimensionScore `json:"dimensionScores"`
	BlockingConflicts  []Conflict       `json:"blockingConflicts"`
	ResolvedConflicts  []Conflict       `json:"resolvedConflicts"`
	RiskItems          []RiskItem       `json:"riskItems"`
	DegradedDimensions []Dimension      `json:"degradedDimensions,omitempty"`
	Match              *MatchResult     `json:"match,omitempty"`
	Trend              Trend            `json:"trend,omitempty"`
	Issues             []Issue          `json:"issues,omitempty"`
	Status             Status           `json:"status"`
	GeneratedAt        time.Time        `json:"generatedAt"`
}
