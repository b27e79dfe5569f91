package conflict

import (
	"fmt"
	"math"
	"sort"

	"storefront-acquisition/internal/engine/identity"
	"storefront-acquisition/internal/models"
)

func builtinChecks() []check {
	return []check{
		{kind: models.ConflictPopulationPOI, collect: collectPopulationPOI, spread: numericSpread},
		{kind: models.ConflictCSPPricing, collect: collectCSPPricing, spread: numericSpread},
		{kind: models.ConflictRatingPhotos, collect: collectRatingPhotos, spread: numericSpread},
		{kind: models.ConflictDataInconsist, collect: collectOpenState, spread: categoricalSpread},
		{kind: models.ConflictScoreMismatch, collect: collectVisionScores, spread: numericSpread},
		{kind: models.ConflictGeographic, collect: collectLocations, spread: geographicSpread},
	}
}

func number(f float64) models.Observation {
	return models.Observation{Value: models.NumberValue(f)}
}

// Population tier rank vs POI density tier rank, both 0..4.
func collectPopulationPOI(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	if in.Demographics != nil {
		if tier, ok := in.Demographics.PopulationTier(); ok {
			obs[SourceDemographics] = number(float64(tier.Rank()))
		}
	}
	if in.Density != nil {
		obs[SourcePOIDensity] = number(float64(in.Density.Rank()))
	}
	return obs, nil
}

// Income tier rank vs the tier of the mean nearby price level, both 0..2.
func collectCSPPricing(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	var issues []models.Issue
	if in.Demographics != nil {
		if tier, ok := in.Demographics.IncomeTier(); ok {
			obs[SourceDemographics] = number(float64(tier.Rank()))
		}
	}
	sum, n := 0, 0
	for i, p := range in.NearbyPOIs {
		if p.PriceLevel == nil {
			continue
		}
		if *p.PriceLevel < 0 || *p.PriceLevel > 4 {
			issues = append(issues, models.MalformedInput(
				fmt.Sprintf("nearbyPois[%d].priceLevel", i),
				fmt.Sprintf("price level %d outside 0..4", *p.PriceLevel),
			))
			continue
		}
		sum += *p.PriceLevel
		n++
	}
	if n > 0 {
		obs[SourcePlaces] = number(float64(models.PriceTier(float64(sum) / float64(n)).Rank()))
	}
	return obs, issues
}

// Place rating (0..5, doubled) vs vision condition score, both 0..10.
func collectRatingPhotos(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	var issues []models.Issue
	if in.MatchedPlace != nil && in.MatchedPlace.Rating != nil {
		r := *in.MatchedPlace.Rating
		if r >= 0 && r <= 5 {
			obs[SourcePlaces] = number(r * 2)
		} else {
			issues = append(issues, models.MalformedInput("place.rating", fmt.Sprintf("rating %v outside 0..5", r)))
		}
	}
	if in.Photos != nil {
		if v, ok := visionScore(in.Photos.ConditionScore); ok {
			obs[SourceVisionCondition] = number(v)
		}
	}
	return obs, issues
}

// Registry active flag vs places business status.
func collectOpenState(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	if in.Business.Active != nil {
		state := StateClosed
		if *in.Business.Active {
			state = StateActive
		}
		obs[SourceRegistry] = models.Observation{Value: models.CategoryValue(state)}
	}
	if in.MatchedPlace != nil {
		if state, ok := PlaceState(in.MatchedPlace.BusinessStatus); ok {
			obs[SourcePlaces] = models.Observation{Value: models.CategoryValue(state)}
		}
	}
	return obs, nil
}

// Condition vs presentation, both 0..10.
func collectVisionScores(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	if in.Photos == nil {
		return obs, nil
	}
	var issues []models.Issue
	for source, score := range map[string]*float64{
		SourceVisionCondition:    in.Photos.ConditionScore,
		SourceVisionPresentation: in.Photos.PresentationScore,
	} {
		if score == nil {
			continue
		}
		v, ok := visionScore(score)
		if !ok {
			issues = append(issues, models.MalformedInput("photos."+source, fmt.Sprintf("score %v outside 0..10", *score)))
			continue
		}
		obs[source] = number(v)
	}
	sortIssues(issues)
	return obs, issues
}

// Registry, geocoder and matched place coordinates.
func collectLocations(in Input) (map[string]models.Observation, []models.Issue) {
	obs := map[string]models.Observation{}
	var issues []models.Issue
	for source, pt := range map[string]*models.Coordinates{
		SourceRegistry: in.Business.Coordinates,
		SourceGeocoder: in.Geocoded,
		SourcePlaces:   placeCoordinates(in.MatchedPlace),
	} {
		if pt == nil {
			continue
		}
		if !pt.Valid() {
			issues = append(issues, models.MalformedInput(source+".coordinates", "invalid coordinates"))
			continue
		}
		obs[source] = models.Observation{Value: models.PointValue(*pt)}
	}
	sortIssues(issues)
	return obs, issues
}

// geographicSpread is the number of proximity points lost by the farthest pair
// of readings: 0 under 50 m up to the full 40 at 1 km and beyond.
func geographicSpread(obs map[string]models.Observation) (float64, bool) {
	var pts []models.Coordinates
	for _, name := range sortedSources(obs) {
		if p := obs[name].Value.Point; p != nil {
			pts = append(pts, *p)
		}
	}
	if len(pts) < 2 {
		return 0, false
	}
	maxDist := 0.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			maxDist = math.Max(maxDist, identity.Haversine(pts[i], pts[j]))
		}
	}
	return float64(identity.MaxDistancePoints - identity.ScoreDistance(maxDist)), true
}

// PlaceState maps a places business status onto the registry's open/closed
// reading. Unknown statuses report false.
func PlaceState(status string) (string, bool) {
	switch status {
	case models.PlaceStatusOperational, models.PlaceStatusClosedTemporarily:
		return StateActive, true
	case models.PlaceStatusClosedPermanently:
		return StateClosed, true
	}
	return "", false
}

func placeCoordinates(p *models.CandidatePOI) *models.Coordinates {
	if p == nil {
		return nil
	}
	return p.Coordinates
}

func visionScore(score *float64) (float64, bool) {
	if score == nil || math.IsNaN(*score) || *score < 0 || *score > 10 {
		return 0, false
	}
	return *score, true
}

// sortIssues orders issues gathered from map iteration.
func sortIssues(issues []models.Issue) {
	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
}
