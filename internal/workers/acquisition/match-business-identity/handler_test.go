package matchbusinessidentity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/identity"
	"storefront-acquisition/internal/models"
	"storefront-acquisition/pkg/registry"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrBool(b bool) *bool        { return &b }

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	reg, err := registry.LoadRegistry("../../../../configs/activity-registry.json")
	require.NoError(t, err)
	activity, ok := reg.FindByTaskType(TaskType)
	require.True(t, ok)

	log := logger.NewTestLogger(t)
	return NewHandler(ConfigFrom(nil, activity), identity.NewMatcher(identity.DefaultConfig(), log), log)
}

func barriot() models.BusinessRecord {
	return models.BusinessRecord{
		Name:             "Le Drugstore du Barriot",
		ActivityCategory: "47.26Z",
		Active:           ptrBool(true),
		Coordinates:      &models.Coordinates{Lat: 45.1885, Lon: 5.7245},
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name          string
		input         *Input
		wantMatched   bool
		wantBest      string
		wantComposite int
		wantStatus    models.Status
		wantIssue     string
	}{
		{
			name: "close candidate matches",
			input: &Input{
				Business: barriot(),
				Candidates: []models.CandidatePOI{
					{ID: "far", Name: "Drugstore", Categories: []string{"restaurant"}, DistanceMeters: ptrFloat(1200)},
					{
						ID:             "place-1",
						Name:           "Drugstore",
						Categories:     []string{"tobacco_shop"},
						DistanceMeters: ptrFloat(30),
						BusinessStatus: models.PlaceStatusOperational,
					},
				},
			},
			wantMatched:   true,
			wantBest:      "place-1",
			wantComposite: 90,
			wantStatus:    models.StatusSuccess,
		},
		{
			name: "distant candidate is reported but not matched",
			input: &Input{
				Business: barriot(),
				Candidates: []models.CandidatePOI{
					{ID: "far", Name: "Drugstore", Categories: []string{"restaurant"}, DistanceMeters: ptrFloat(1200)},
				},
			},
			wantMatched: false,
			wantBest:    "far",
			wantStatus:  models.StatusSuccess,
		},
		{
			name:        "no candidates",
			input:       &Input{Business: barriot()},
			wantMatched: false,
			wantStatus:  models.StatusPartial,
			wantIssue:   "candidates",
		},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMatched, out.Matched)
			assert.Equal(t, tt.wantStatus, out.IdentityStatus)
			assert.NotNil(t, out.CandidateScores)
			if tt.wantBest != "" {
				require.NotNil(t, out.Match)
				assert.Equal(t, tt.wantBest, out.Match.CandidateID)
			} else {
				assert.Nil(t, out.Match)
			}
			if tt.wantComposite > 0 {
				assert.Equal(t, tt.wantComposite, out.Match.Composite)
			}
			if tt.wantMatched {
				require.NotNil(t, out.MatchedPlace)
				assert.Equal(t, tt.wantBest, out.MatchedPlace.ID)
			} else {
				assert.Nil(t, out.MatchedPlace)
			}
			if tt.wantIssue != "" {
				require.NotEmpty(t, out.IdentityIssues)
				assert.Equal(t, tt.wantIssue, out.IdentityIssues[len(out.IdentityIssues)-1].Field)
			}
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t)

	input, err := h.parseInput([]byte(`{"business": {"name": "Tabac"}, "candidates": [{"id": "p1", "name": "Tabac"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Tabac", input.Business.Name)
	require.Len(t, input.Candidates, 1)

	_, err = h.parseInput([]byte(`{"candidates": []}`))
	assert.Equal(t, apperrors.ErrCodeInputSchemaInvalid, apperrors.Normalize(err).Code)

	_, err = h.parseInput([]byte(`{"business": {}, "candidates": [{"name": "no id"}]}`))
	require.Error(t, err)
	assert.Contains(t, apperrors.Normalize(err).Details, "candidates[0].id")

	_, err = h.parseInput([]byte(`not json`))
	assert.Equal(t, apperrors.ErrCodeParseError, apperrors.Normalize(err).Code)
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := createTestHandler(t).Execute(ctx, &Input{Business: barriot()})
	assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.Normalize(err).Code)
}
