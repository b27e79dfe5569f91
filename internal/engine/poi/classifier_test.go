package poi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

func ptrFloat(f float64) *float64 { return &f }

func TestClassifyTags(t *testing.T) {
	tests := []struct {
		name       string
		tags       []string
		wantBucket models.Bucket
		wantLabel  string
	}{
		{"competitor", []string{"tobacco_shop"}, models.BucketA, "tobacco_shop"},
		{"competitor beats traffic", []string{"tobacco_shop", "bakery"}, models.BucketA, "tobacco_shop"},
		{"competitor beats traffic in any order", []string{"bakery", "point_of_interest", "Tobacco_Shop"}, models.BucketA, "tobacco_shop"},
		{"traffic beats service", []string{"cafe", "bakery"}, models.BucketB, "bakery"},
		{"service", []string{"restaurant", "point_of_interest"}, models.BucketC, "restaurant"},
		{"unmatched", []string{"car_wash"}, models.BucketC, LabelOther},
		{"no tags", nil, models.BucketC, LabelOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, label := ClassifyTags(tt.tags)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}

func TestClassifyPOI_Impact(t *testing.T) {
	assert.Equal(t, models.ImpactNegative, ClassifyPOI(models.CandidatePOI{Categories: []string{"vape_shop"}}).Impact)
	assert.Equal(t, models.ImpactVeryPositive, ClassifyPOI(models.CandidatePOI{Categories: []string{"pharmacy"}}).Impact)
	assert.Equal(t, models.ImpactPositive, ClassifyPOI(models.CandidatePOI{Categories: []string{"bank"}}).Impact)
}

func TestBucketTagsDisjoint(t *testing.T) {
	seen := map[string]models.Bucket{}
	for bucket, tags := range bucketTags {
		for _, tag := range tags {
			prev, dup := seen[tag]
			assert.False(t, dup, "tag %q in %s and %s", tag, prev, bucket)
			seen[tag] = bucket
		}
	}
}

func TestDensityFor(t *testing.T) {
	tests := []struct {
		total int
		want  models.DensityTier
	}{
		{0, models.DensityVeryLow},
		{1, models.DensityLow},
		{4, models.DensityLow},
		{5, models.DensityMedium},
		{9, models.DensityMedium},
		{10, models.DensityHigh},
		{14, models.DensityHigh},
		{15, models.DensityVeryHigh},
		{20, models.DensityVeryHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, DensityFor(tt.total))
		})
	}
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultConfig(), logger.NewTestLogger(t))
	pois := []models.CandidatePOI{
		{ID: "1", Categories: []string{"tobacco_shop", "bakery"}, DistanceMeters: ptrFloat(80)},
		{ID: "2", Categories: []string{"bakery"}, DistanceMeters: ptrFloat(120)},
		{ID: "3", Categories: []string{"restaurant"}},
		{ID: "4", Categories: []string{"car_wash"}, DistanceMeters: ptrFloat(500)},
		{ID: "5", Categories: []string{"pharmacy"}, DistanceMeters: ptrFloat(501)},
	}

	res := c.Classify(pois)

	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.False(t, res.Missing)
	require.Len(t, res.POIs, 4)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, map[models.Bucket]int{models.BucketA: 1, models.BucketB: 1, models.BucketC: 2}, res.Counts)
	assert.Equal(t, models.DensityLow, res.Density)
	assert.Equal(t, LabelOther, res.POIs[3].Label)

	// input untouched
	assert.Equal(t, []string{"tobacco_shop", "bakery"}, pois[0].Categories)
}

func TestClassifier_CapsAtMax(t *testing.T) {
	c := NewClassifier(DefaultConfig(), logger.NewNoOpLogger())
	pois := make([]models.CandidatePOI, 30)
	for i := range pois {
		pois[i] = models.CandidatePOI{ID: fmt.Sprintf("p%d", i), Categories: []string{"cafe"}}
	}

	res := c.Classify(pois)
	assert.Equal(t, 20, res.Total)
	assert.Equal(t, models.DensityVeryHigh, res.Density)
}

func TestClassifier_DegradedInputs(t *testing.T) {
	c := NewClassifier(DefaultConfig(), logger.NewNoOpLogger())

	t.Run("nil means not collected", func(t *testing.T) {
		res := c.Classify(nil)
		assert.True(t, res.Missing)
		assert.Equal(t, models.StatusPartial, res.Status)
		assert.Equal(t, models.DensityVeryLow, res.Density)
		assert.Equal(t, 0, res.Counts[models.BucketA])
	})

	t.Run("empty means nothing around", func(t *testing.T) {
		res := c.Classify([]models.CandidatePOI{})
		assert.False(t, res.Missing)
		assert.Equal(t, models.StatusSuccess, res.Status)
		assert.Equal(t, models.DensityVeryLow, res.Density)
	})

	t.Run("bad distance is skipped", func(t *testing.T) {
		res := c.Classify([]models.CandidatePOI{
			{ID: "bad", Categories: []string{"bar"}, DistanceMeters: ptrFloat(-1)},
			{ID: "ok", Categories: []string{"bar"}, DistanceMeters: ptrFloat(10)},
		})
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, models.StatusPartial, res.Status)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, "nearbyPois[0].distanceMeters", res.Issues[0].Field)
	})
}
