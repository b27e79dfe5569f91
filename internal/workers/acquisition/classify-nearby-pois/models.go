package classifynearbypois

import "storefront-acquisition/internal/models"

// Input distinguishes an absent list (not collected) from an empty one
// (collected, nothing found).
type Input struct {
	NearbyPOIs []models.CandidatePOI `json:"nearbyPois"`
}

type Output struct {
	ClassifiedPOIs []models.ClassifiedPOI `json:"classifiedPois"`
	POICounts      map[models.Bucket]int  `json:"poiCounts"`
	POITotal       int                    `json:"poiTotal"`
	POIDensity     models.DensityTier     `json:"poiDensity"`
	POIStatus      models.Status          `json:"poiStatus"`
	POIIssues      []models.Issue         `json:"poiIssues,omitempty"`
}
