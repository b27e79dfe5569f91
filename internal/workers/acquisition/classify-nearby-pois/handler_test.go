package classifynearbypois

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/poi"
	"storefront-acquisition/internal/models"
	"storefront-acquisition/pkg/registry"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	reg, err := registry.LoadRegistry("../../../../configs/activity-registry.json")
	require.NoError(t, err)
	activity, ok := reg.FindByTaskType(TaskType)
	require.True(t, ok)

	log := logger.NewTestLogger(t)
	return NewHandler(ConfigFrom(nil, activity), poi.NewClassifier(poi.DefaultConfig(), log), log)
}

func place(id, tag string, meters float64) models.CandidatePOI {
	return models.CandidatePOI{ID: id, Name: id, Categories: []string{tag}, DistanceMeters: &meters}
}

func TestHandler_Execute(t *testing.T) {
	many := make([]models.CandidatePOI, 0, 12)
	for i := 0; i < 12; i++ {
		many = append(many, place(fmt.Sprintf("shop-%d", i), "clothes", 100))
	}

	tests := []struct {
		name        string
		pois        []models.CandidatePOI
		wantCounts  map[models.Bucket]int
		wantDensity models.DensityTier
		wantStatus  models.Status
	}{
		{
			name: "mixed neighbourhood",
			pois: []models.CandidatePOI{
				place("tabac", "tobacco", 320),
				place("boulangerie", "bakery", 80),
				place("cafe", "cafe", 90),
				place("too-far", "bakery", 900),
			},
			wantCounts:  map[models.Bucket]int{models.BucketA: 1, models.BucketB: 1, models.BucketC: 1},
			wantDensity: models.DensityLow,
			wantStatus:  models.StatusSuccess,
		},
		{
			name:        "dense street",
			pois:        many,
			wantCounts:  map[models.Bucket]int{models.BucketA: 0, models.BucketB: 0, models.BucketC: 12},
			wantDensity: models.DensityHigh,
			wantStatus:  models.StatusSuccess,
		},
		{
			name:        "searched and found nothing",
			pois:        []models.CandidatePOI{},
			wantCounts:  map[models.Bucket]int{models.BucketA: 0, models.BucketB: 0, models.BucketC: 0},
			wantDensity: models.DensityVeryLow,
			wantStatus:  models.StatusSuccess,
		},
		{
			name:        "not collected",
			pois:        nil,
			wantCounts:  map[models.Bucket]int{models.BucketA: 0, models.BucketB: 0, models.BucketC: 0},
			wantDensity: models.DensityVeryLow,
			wantStatus:  models.StatusPartial,
		},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{NearbyPOIs: tt.pois})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCounts, out.POICounts)
			assert.Equal(t, tt.wantDensity, out.POIDensity)
			assert.Equal(t, tt.wantStatus, out.POIStatus)
			assert.Len(t, out.ClassifiedPOIs, out.POITotal)
		})
	}
}

func TestHandler_ParseInput_KeepsMissingApartFromEmpty(t *testing.T) {
	h := createTestHandler(t)

	absent, err := h.parseInput([]byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, absent.NearbyPOIs)

	empty, err := h.parseInput([]byte(`{"nearbyPois": []}`))
	require.NoError(t, err)
	assert.NotNil(t, empty.NearbyPOIs)
	assert.Empty(t, empty.NearbyPOIs)

	_, err = h.parseInput([]byte(`{"nearbyPois": [{"name": "no id"}]}`))
	assert.Equal(t, apperrors.ErrCodeInputSchemaInvalid, apperrors.Normalize(err).Code)
}
