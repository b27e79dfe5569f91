package models

import "math"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid rejects NaN, out-of-range values and the (0,0) null-island placeholder
// that geocoders return on failure.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return false
	}
	return !(c.Lat == 0 && c.Lon == 0)
}

// BusinessRecord is the target storefront as known to the business registry.
type BusinessRecord struct {
	Name             string       `json:"name"`
	RegistryID       string       `json:"registryId,omitempty"`
	Address          string       `json:"address,omitempty"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	ActivityCategory string       `json:"activityCategory,omitempty"`
	Active           *bool        `json:"active,omitempty"`
}

// Place business statuses as reported by the places service.
const (
	PlaceStatusOperational       = "OPERATIONAL"
	PlaceStatusClosedTemporarily = "CLOSED_TEMPORARILY"
	PlaceStatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// CandidatePOI is a place record returned by a bounded-radius search.
type CandidatePOI struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	Categories     []string     `json:"categories,omitempty"`
	Rating         *float64     `json:"rating,omitempty"`
	ReviewCount    *int         `json:"reviewCount,omitempty"`
	PriceLevel     *int         `json:"priceLevel,omitempty"`
	BusinessStatus string       `json:"businessStatus,omitempty"`
	DistanceMeters *float64     `json:"distanceMeters,omitempty"`
}

// Bucket is the impact class of a nearby point of interest.
type Bucket string

const (
	BucketA Bucket = "A"
	BucketB Bucket = "B"
	BucketC Bucket = "C"
)

// AllBuckets lists buckets in priority order.
func AllBuckets() []Bucket { return []Bucket{BucketA, BucketB, BucketC} }

// Impact returns the fixed impact attached to the bucket.
func (b Bucket) Impact() Impact {
	switch b {
	case BucketA:
		return ImpactNegative
	case BucketB:
		return ImpactVeryPositive
	default:
		return ImpactPositive
	}
}

func (b Bucket) Valid() bool {
	switch b {
	case BucketA, BucketB, BucketC:
		return true
	}
	return false
}

type Impact string

const (
	ImpactNegative     Impact = "negative"
	ImpactVeryPositive Impact = "very_positive"
	ImpactPositive     Impact = "positive"
)

// ClassifiedPOI is a CandidatePOI with its bucket assignment.
type ClassifiedPOI struct {
	CandidatePOI
	Bucket Bucket `json:"bucket"`
	Impact Impact `json:"impact"`
	Label  string `json:"label"`
}

// DensityTier grades how many points of interest surround the storefront.
type DensityTier string

const (
	DensityVeryLow  DensityTier = "very_low"
	DensityLow      DensityTier = "low"
	DensityMedium   DensityTier = "medium"
	DensityHigh     DensityTier = "high"
	DensityVeryHigh DensityTier = "very_high"
)

// Rank maps the tier onto 0..4.
func (d DensityTier) Rank() int {
	switch d {
	case DensityLow:
		return 1
	case DensityMedium:
		return 2
	case DensityHigh:
		return 3
	case DensityVeryHigh:
		return 4
	default:
		return 0
	}
}

// ConfidenceTier records which name-similarity tier fired for a match.
type ConfidenceTier string

const (
	TierExact     ConfidenceTier = "exact"
	TierSubstring ConfidenceTier = "substring"
	TierPartial   ConfidenceTier = "partial"
	TierNone      ConfidenceTier = "none"
)

// MatchBreakdown holds the per-factor points of a match.
type MatchBreakdown struct {
	Name      int `json:"name"`
	Distance  int `json:"distance"`
	Category  int `json:"category"`
	Secondary int `json:"secondary"`
}

// MatchResult scores one candidate against the target business.
type MatchResult struct {
	CandidateID    string         `json:"candidateId"`
	CandidateName  string         `json:"candidateName"`
	Composite      int            `json:"composite"`
	Breakdown      MatchBreakdown `json:"breakdown"`
	Tier           ConfidenceTier `json:"tier"`
	Confident      bool           `json:"confident"`
	DistanceMeters *float64       `json:"distanceMeters,omitempty"`
}
