package evaluateacquisition

import "storefront-acquisition/internal/models"

// Input is the snapshot carried in the job variables.
type Input struct {
	models.Snapshot
	// ForceRefresh skips the cache and re-runs the evaluation.
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

// Output flattens the fields gateways route on next to the full recommendation.
type Output struct {
	RequestID         string                 `json:"requestId"`
	Label             models.Label           `json:"label"`
	CompositeScore    float64                `json:"compositeScore"`
	Status            models.Status          `json:"status"`
	BlockingConflicts int                    `json:"blockingConflicts"`
	Cached            bool                   `json:"cached"`
	Recommendation    *models.Recommendation `json:"recommendation"`
}

func newOutput(rec *models.Recommendation, cached bool) *Output {
	return &Output{
		RequestID:         rec.RequestID,
		Label:             rec.Label,
		CompositeScore:    rec.CompositeScore,
		Status:            rec.Status,
		BlockingConflicts: len(rec.BlockingConflicts),
		Cached:            cached,
		Recommendation:    rec,
	}
}
