package scoring

import (
	"fmt"
	"math"
	"strings"

	"storefront-acquisition/internal/engine/conflict"
	"storefront-acquisition/internal/models"
)

// POISummary is the part of the POI classification the scorer reads.
type POISummary struct {
	Counts  map[models.Bucket]int
	Density models.DensityTier
}

// Input carries the raw facts and the arbitrated conflicts of one run.
type Input struct {
	Demographics *models.Demographics
	// POI is nil when no POI data was collected.
	POI *POISummary
	// Match is the best identity match, nil when there were no candidates.
	Match *models.MatchResult
	// Place is the matched place record, set only for a confident match.
	Place         *models.CandidatePOI
	Photos        *models.PhotoAssessment
	Accounts      map[string]models.SIG
	AskingPrice   *float64
	Trend         models.Trend
	DeclaredRisks []models.RiskItem
	Conflicts     []models.Conflict
	// Checked lists the conflict types that had comparable readings.
	Checked []models.ConflictType
}

// facts are the normalized readings after resolution overrides. A nil field
// is missing or malformed.
type facts struct {
	populationTier *models.DensityTier
	incomeTier     *models.SpendTier
	poi            *POISummary
	matchComposite *float64
	matchConfident bool
	reputation     *float64 // 0..100
	reviewCount    *int
	condition      *float64 // 0..100
	renovation     *float64 // euros, range midpoint
	ebe            *float64
	netResult      *float64
	askingPrice    *float64
	trend          models.Trend
	reportedClosed bool

	issues []models.Issue
}

func (f *facts) missing(field string) {
	f.issues = append(f.issues, models.MissingInput(field))
}

func (f *facts) malformed(field, reason string) {
	f.issues = append(f.issues, models.MalformedInput(field, reason))
}

func ptr[T any](v T) *T { return &v }

func collectFacts(in Input) *facts {
	f := &facts{trend: in.Trend, poi: in.POI}

	if in.Demographics == nil {
		f.missing("demographics")
	} else {
		if tier, ok := in.Demographics.PopulationTier(); ok {
			f.populationTier = &tier
		} else if in.Demographics.Population == nil {
			f.missing("demographics.population")
		} else {
			f.malformed("demographics.population", "negative population")
		}
		if tier, ok := in.Demographics.IncomeTier(); ok {
			f.incomeTier = &tier
		} else if in.Demographics.MedianIncome == nil {
			f.missing("demographics.medianIncome")
		} else {
			f.malformed("demographics.medianIncome", "negative income")
		}
	}

	if in.Match != nil {
		f.matchComposite = ptr(float64(in.Match.Composite))
		f.matchConfident = in.Match.Confident
	}

	if in.Place != nil {
		if r := in.Place.Rating; r != nil {
			if math.IsNaN(*r) || *r < 0 || *r > 5 {
				f.malformed("place.rating", fmt.Sprintf("rating %v outside 0..5", *r))
			} else {
				f.reputation = ptr(*r / 5 * 100)
			}
		} else {
			f.missing("place.rating")
		}
		if n := in.Place.ReviewCount; n != nil {
			if *n < 0 {
				f.malformed("place.reviewCount", "negative review count")
			} else {
				f.reviewCount = ptr(*n)
			}
		} else {
			f.missing("place.reviewCount")
		}
	}

	if in.Photos == nil {
		f.missing("photos")
	} else {
		f.condition = photoCondition(f, in.Photos)
		if rc := in.Photos.RenovationCost; rc != nil {
			if rc.Min < 0 || rc.Max < rc.Min {
				f.malformed("photos.renovationCost", fmt.Sprintf("invalid range %v..%v", rc.Min, rc.Max))
			} else {
				f.renovation = ptr(rc.Midpoint())
			}
		} else {
			f.missing("photos.renovationCost")
		}
	}

	if _, sig, ok := LatestAccounts(in.Accounts); ok {
		f.ebe = sig.EBE
		f.netResult = sig.ResultatNet
	}
	if in.AskingPrice != nil {
		if *in.AskingPrice < 0 {
			f.malformed("askingPrice", "negative asking price")
		} else {
			f.askingPrice = in.AskingPrice
		}
	} else {
		f.missing("askingPrice")
	}

	applyResolutions(f, in.Conflicts)
	return f
}

// photoCondition is the mean of the valid vision scores on a 0..100 scale.
func photoCondition(f *facts, p *models.PhotoAssessment) *float64 {
	sum, n := 0.0, 0
	for _, s := range []struct {
		field string
		score *float64
	}{
		{"photos.conditionScore", p.ConditionScore},
		{"photos.presentationScore", p.PresentationScore},
	} {
		field, score := s.field, s.score
		if score == nil {
			continue
		}
		if math.IsNaN(*score) || *score < 0 || *score > 10 {
			f.malformed(field, fmt.Sprintf("score %v outside 0..10", *score))
			continue
		}
		sum += *score
		n++
	}
	if n == 0 {
		return nil
	}
	return ptr(sum / float64(n) * 10)
}

// applyResolutions replaces raw facts with the values arbitration accepted.
func applyResolutions(f *facts, conflicts []models.Conflict) {
	for _, c := range conflicts {
		if !c.Resolved || c.Resolution == nil {
			continue
		}
		v := c.Resolution.ResolvedValue
		switch c.Type {
		case models.ConflictRatingPhotos:
			if v.IsNumber() {
				f.reputation = ptr(clamp(*v.Number * 10))
			}
		case models.ConflictScoreMismatch:
			if v.IsNumber() {
				f.condition = ptr(clamp(*v.Number * 10))
			}
		case models.ConflictPopulationPOI:
			if v.IsNumber() {
				f.populationTier = ptr(models.DensityTierFromRank(*v.Number))
			}
		case models.ConflictCSPPricing:
			if v.IsNumber() {
				f.incomeTier = ptr(models.SpendTierFromRank(*v.Number))
			}
		case models.ConflictDataInconsist:
			if v.IsCategory() && strings.EqualFold(v.Category, conflict.StateClosed) {
				f.reportedClosed = true
			}
		}
	}
}
