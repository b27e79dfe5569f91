package models

import (
	"math"
	"time"
)

// Demographics are the statistics published for the storefront's area.
type Demographics struct {
	Population       *int     `json:"population,omitempty"`
	MedianIncome     *float64 `json:"medianIncome,omitempty"`
	UnemploymentRate *float64 `json:"unemploymentRate,omitempty"`
}

// CostRange is an estimated cost interval in euros.
type CostRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint of the range.
func (r CostRange) Midpoint() float64 { return (r.Min + r.Max) / 2 }

// PhotoAssessment is the vision assessment of the storefront photos:
// two independent 0-10 scores and a renovation estimate.
type PhotoAssessment struct {
	ConditionScore    *float64   `json:"conditionScore,omitempty"`
	PresentationScore *float64   `json:"presentationScore,omitempty"`
	RenovationCost    *CostRange `json:"renovationCost,omitempty"`
}

// SIG holds the accounting indicators of one fiscal year.
type SIG struct {
	ChiffreAffaires *float64 `json:"chiffre_affaires,omitempty"`
	EBE             *float64 `json:"ebe,omitempty"`
	ResultatNet     *float64 `json:"resultat_net,omitempty"`
}

// Snapshot is the read-only bundle of facts collected for one evaluation.
type Snapshot struct {
	RequestID    string           `json:"requestId"`
	Business     BusinessRecord   `json:"business"`
	Geocoded     *Coordinates     `json:"geocoded,omitempty"`
	Candidates   []CandidatePOI   `json:"candidates,omitempty"`
	NearbyPOIs   []CandidatePOI   `json:"nearbyPois,omitempty"`
	Demographics *Demographics    `json:"demographics,omitempty"`
	Photos       *PhotoAssessment `json:"photos,omitempty"`
	Accounts     map[string]SIG   `json:"accounts,omitempty"`
	AskingPrice  *float64         `json:"askingPrice,omitempty"`
	RiskItems    []RiskItem       `json:"riskItems,omitempty"`

	// Additional readings per conflict type, expressed on that check's scale.
	ExtraObservations map[ConflictType]map[string]Observation `json:"extraObservations,omitempty"`

	// Per-source collection time and confidence, used by arbitration.
	SourceTimestamps map[string]time.Time `json:"sourceTimestamps,omitempty"`
	SourceConfidence map[string]float64   `json:"sourceConfidence,omitempty"`
}

// PopulationTier grades the population on the density scale.
func (d Demographics) PopulationTier() (DensityTier, bool) {
	if d.Population == nil || *d.Population < 0 {
		return "", false
	}
	p := *d.Population
	switch {
	case p < 2000:
		return DensityVeryLow, true
	case p < 10000:
		return DensityLow, true
	case p < 50000:
		return DensityMedium, true
	case p < 200000:
		return DensityHigh, true
	default:
		return DensityVeryHigh, true
	}
}

// IncomeTier grades the median disposable income in euros per year.
func (d Demographics) IncomeTier() (SpendTier, bool) {
	if d.MedianIncome == nil || *d.MedianIncome < 0 {
		return "", false
	}
	switch m := *d.MedianIncome; {
	case m < 20000:
		return SpendLow, true
	case m < 28000:
		return SpendMid, true
	default:
		return SpendHigh, true
	}
}

// SpendTier is a coarse purchasing-power level shared by income and pricing.
type SpendTier string

const (
	SpendLow  SpendTier = "low"
	SpendMid  SpendTier = "mid"
	SpendHigh SpendTier = "high"
)

// Rank maps the tier onto 0..2.
func (s SpendTier) Rank() int {
	switch s {
	case SpendMid:
		return 1
	case SpendHigh:
		return 2
	}
	return 0
}

// PriceTier grades a mean place price level (0 cheapest .. 4 most expensive).
func PriceTier(meanLevel float64) SpendTier {
	switch {
	case meanLevel < 1.5:
		return SpendLow
	case meanLevel < 2.5:
		return SpendMid
	default:
		return SpendHigh
	}
}

// SpendTierFromRank is the inverse of Rank; ranks are rounded and clamped.
func SpendTierFromRank(rank float64) SpendTier {
	tiers := []SpendTier{SpendLow, SpendMid, SpendHigh}
	return tiers[clampRank(rank, len(tiers)-1)]
}

// DensityTierFromRank is the inverse of DensityTier.Rank; ranks are rounded and clamped.
func DensityTierFromRank(rank float64) DensityTier {
	tiers := []DensityTier{DensityVeryLow, DensityLow, DensityMedium, DensityHigh, DensityVeryHigh}
	return tiers[clampRank(rank, len(tiers)-1)]
}

func clampRank(rank float64, max int) int {
	if math.IsNaN(rank) {
		return 0
	}
	r := int(math.Round(rank))
	if r < 0 {
		return 0
	}
	if r > max {
		return max
	}
	return r
}
