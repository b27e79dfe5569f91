// Package poi assigns nearby points of interest to impact buckets.
package poi

import (
	"fmt"
	"math"
	"strings"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

// LabelOther is given to POIs that match no bucket tag.
const LabelOther = "other"

// bucketTags lists the tags of each bucket. A tag belongs to exactly one bucket.
var bucketTags = map[models.Bucket][]string{
	models.BucketA: {
		"tobacco", "tobacco_shop", "newsagent", "newsstand", "kiosk",
		"convenience", "convenience_store", "e-cigarette", "vape_shop", "lottery",
	},
	models.BucketB: {
		"bakery", "pharmacy", "supermarket", "grocery_or_supermarket", "grocery",
		"greengrocer", "market", "marketplace", "butcher",
	},
	models.BucketC: {
		"restaurant", "cafe", "bar", "pub", "fast_food", "meal_takeaway",
		"bank", "atm", "hairdresser", "hair_care", "beauty_salon",
		"clothes", "clothing_store", "florist", "book_store", "shoe_store",
		"post_office", "gift_shop", "jewelry_store", "optician",
	},
}

var tagBucket = func() map[string]models.Bucket {
	m := make(map[string]models.Bucket)
	for bucket, tags := range bucketTags {
		for _, t := range tags {
			m[t] = bucket
		}
	}
	return m
}()

type Config struct {
	SearchRadiusMeters float64
	MaxPOIs            int
}

func DefaultConfig() Config {
	return Config{
		SearchRadiusMeters: 500,
		MaxPOIs:            20,
	}
}

// Result of one classification pass. Counts always carries the three buckets.
type Result struct {
	POIs    []models.ClassifiedPOI `json:"pois"`
	Counts  map[models.Bucket]int  `json:"counts"`
	Total   int                    `json:"total"`
	Density models.DensityTier     `json:"density"`
	Status  models.Status          `json:"status"`
	Issues  []models.Issue         `json:"issues,omitempty"`

	// Missing is set when no POI data was collected at all, as opposed to an
	// empty neighbourhood.
	Missing bool `json:"missing,omitempty"`
}

type Classifier struct {
	config Config
	logger logger.Logger
}

func NewClassifier(config Config, log logger.Logger) *Classifier {
	if config.SearchRadiusMeters <= 0 {
		config.SearchRadiusMeters = DefaultConfig().SearchRadiusMeters
	}
	if config.MaxPOIs <= 0 {
		config.MaxPOIs = DefaultConfig().MaxPOIs
	}
	return &Classifier{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": "poi"}),
	}
}

// Classify buckets the POIs found around the storefront. POIs with a known
// distance beyond the search radius are ignored and the set is capped. The
// input slice is not modified.
func (c *Classifier) Classify(pois []models.CandidatePOI) Result {
	res := Result{
		POIs:   []models.ClassifiedPOI{},
		Counts: emptyCounts(),
	}
	if pois == nil {
		res.Missing = true
		res.Density = DensityFor(0)
		res.Issues = []models.Issue{models.MissingInput("nearbyPois")}
		res.Status = models.StatusFor(res.Issues)
		return res
	}

	for i, p := range pois {
		if len(res.POIs) == c.config.MaxPOIs {
			break
		}
		if p.DistanceMeters != nil {
			d := *p.DistanceMeters
			if math.IsNaN(d) || d < 0 {
				res.Issues = append(res.Issues, models.MalformedInput(
					fmt.Sprintf("nearbyPois[%d].distanceMeters", i),
					fmt.Sprintf("invalid distance %v", d),
				))
				continue
			}
			if d > c.config.SearchRadiusMeters {
				continue
			}
		}
		cp := ClassifyPOI(p)
		res.POIs = append(res.POIs, cp)
		res.Counts[cp.Bucket]++
	}

	res.Total = len(res.POIs)
	res.Density = DensityFor(res.Total)
	res.Status = models.StatusFor(res.Issues)

	c.logger.Info("points of interest classified", map[string]interface{}{
		"received": len(pois),
		"kept":     res.Total,
		"bucketA":  res.Counts[models.BucketA],
		"bucketB":  res.Counts[models.BucketB],
		"bucketC":  res.Counts[models.BucketC],
		"density":  res.Density,
	})
	return res
}

// ClassifyPOI returns the classified copy of a single POI.
func ClassifyPOI(p models.CandidatePOI) models.ClassifiedPOI {
	bucket, label := ClassifyTags(p.Categories)
	p.Categories = append([]string(nil), p.Categories...)
	return models.ClassifiedPOI{
		CandidatePOI: p,
		Bucket:       bucket,
		Impact:       bucket.Impact(),
		Label:        label,
	}
}

// ClassifyTags picks the highest-priority bucket any tag belongs to (A > B > C).
// The label is the first tag that selected the bucket, or "other".
func ClassifyTags(tags []string) (models.Bucket, string) {
	for _, bucket := range models.AllBuckets() {
		for _, tag := range tags {
			t := strings.ToLower(strings.TrimSpace(tag))
			if b, ok := tagBucket[t]; ok && b == bucket {
				return bucket, t
			}
		}
	}
	return models.BucketC, LabelOther
}

// DensityFor grades the number of classified POIs.
func DensityFor(total int) models.DensityTier {
	switch {
	case total <= 0:
		return models.DensityVeryLow
	case total < 5:
		return models.DensityLow
	case total < 10:
		return models.DensityMedium
	case total < 15:
		return models.DensityHigh
	default:
		return models.DensityVeryHigh
	}
}

func emptyCounts() map[models.Bucket]int {
	counts := make(map[models.Bucket]int, 3)
	for _, b := range models.AllBuckets() {
		counts[b] = 0
	}
	return counts
}
