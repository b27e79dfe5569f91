package conflict

import "storefront-acquisition/internal/models"

// Summary aggregates a detection pass.
type Summary struct {
	Total           int                         `json:"total"`
	ByType          map[models.ConflictType]int `json:"byType"`
	BySeverity      map[models.Severity]int     `json:"bySeverity"`
	Blocking        bool                        `json:"blocking"`
	Recommendations []string                    `json:"recommendations"`
}

var recommendations = map[models.ConflictType]string{
	models.ConflictPopulationPOI: "Verify the trade-area population against an on-site footfall count.",
	models.ConflictCSPPricing:    "Check that the product range and pricing fit the local purchasing power.",
	models.ConflictRatingPhotos:  "Visit the premises to reconcile customer reviews with the photographed condition.",
	models.ConflictDataInconsist: "Confirm with the registry and the seller whether the business is still trading.",
	models.ConflictScoreMismatch: "Request recent interior and exterior photos for a second assessment.",
	models.ConflictGeographic:    "Confirm the exact storefront address before relying on location data.",
}

// Summarize counts conflicts by type and severity. Blocking is set when any
// conflict is CRITICAL or HIGH. Recommendations follow canonical type order.
func Summarize(conflicts []models.Conflict) Summary {
	s := Summary{
		Total:           len(conflicts),
		ByType:          make(map[models.ConflictType]int),
		BySeverity:      make(map[models.Severity]int),
		Recommendations: []string{},
	}
	for _, c := range conflicts {
		s.ByType[c.Type]++
		s.BySeverity[c.Severity]++
	}
	s.Blocking = s.BySeverity[models.SeverityCritical]+s.BySeverity[models.SeverityHigh] > 0
	for _, t := range models.AllConflictTypes() {
		if s.ByType[t] > 0 {
			s.Recommendations = append(s.Recommendations, recommendations[t])
		}
	}
	return s
}
