package identity

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

func ptrFloat(f float64) *float64 { return &f }
func ptrBool(b bool) *bool        { return &b }

var nameSamples = []string{
	"Le Drugstore du Barriot",
	"Boulangerie Ménard SARL",
	"L'Écritoire",
	"  Café   de la Gare!! ",
	"Les Délices SAS",
	"The A Team",
	"SA",
	"le la les",
	"Pharmacie de l'Église - SELARL",
	"",
	"TABAC-PRESSE n°12",
	"Ｌｅ Ｂａｒ",
	"ﬁne Épicerie",
	"Louis Ⅻ",
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Le Drugstore du Barriot", "drugstore du barriot"},
		{"Boulangerie Ménard SARL", "boulangerie menard"},
		{"L'Écritoire", "ecritoire"},
		{"  Café   de la Gare!! ", "cafe de la gare"},
		{"Les Délices SAS", "delices"},
		{"The A Team", "team"},
		{"SA", "sa"},
		{"", ""},
		{"TABAC-PRESSE n°12", "tabac presse n 12"},
		{"Ｌｅ Ｂａｒ", "bar"},
		{"ﬁne Épicerie", "fine epicerie"},
		{"Louis Ⅻ", "louis xii"},
		{"Café № 5", "cafe no 5"},
		{"Tabac 〇", "tabac 〇"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range nameSamples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}
}

func TestScoreName(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"substring", "Le Drugstore du Barriot", "Drugstore", 20},
		{"exact after normalization", "Tabac de la Gare", "TABAC DE LA GARE SARL", 30},
		{"word overlap", "Tabac Presse Centre", "Presse Tabac Centre Ville", 10},
		{"unrelated", "Boulangerie Paul", "Pharmacie Centrale", 0},
		{"missing left", "", "Drugstore", 0},
		{"missing right", "Drugstore", "   ", 0},
		{"low word overlap", "Le Bar du Coin", "Au Bon Coin", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreName(tt.a, tt.b))
		})
	}
}

func TestScoreName_Symmetric(t *testing.T) {
	for _, a := range nameSamples {
		for _, b := range nameSamples {
			assert.Equal(t, ScoreName(a, b), ScoreName(b, a), "%q vs %q", a, b)
		}
	}
}

func TestScoreDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   int
	}{
		{0, 40},
		{49.99, 40},
		{50, 30},
		{199, 30},
		{200, 20},
		{499, 20},
		{500, 10},
		{999.9, 10},
		{1000, 0},
		{25000, 0},
		{-1, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.meters), func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreDistance(tt.meters))
		})
	}
}

func TestScoreDistance_NonIncreasing(t *testing.T) {
	prev := ScoreDistance(0)
	for d := 0.0; d <= 1500; d += 0.5 {
		cur := ScoreDistance(d)
		assert.LessOrEqual(t, cur, prev, "distance %v", d)
		prev = cur
	}
}

func TestHaversine(t *testing.T) {
	oneDegreeLat := Haversine(models.Coordinates{Lat: 45, Lon: 1}, models.Coordinates{Lat: 46, Lon: 1})
	assert.InDelta(t, 111194.9, oneDegreeLat, 1)

	paris := models.Coordinates{Lat: 48.8566, Lon: 2.3522}
	east := models.Coordinates{Lat: 48.8566, Lon: 2.3532}
	assert.InDelta(t, 73.16, Haversine(paris, east), 0.5)
	assert.Equal(t, 0.0, Haversine(paris, paris))
}

func TestCategoryFamily(t *testing.T) {
	assert.Equal(t, "tobacco_press", CategoryFamily("47.26Z"))
	assert.Equal(t, "tobacco_press", CategoryFamily("Tobacco_Shop"))
	assert.Equal(t, "grocery", CategoryFamily("grocery_or_supermarket"))
	assert.Equal(t, "laundry", CategoryFamily("laundry"))
	assert.Equal(t, "tobacco_shop", PrimaryCategory([]string{"point_of_interest", "establishment", "tobacco_shop"}))
	assert.Equal(t, "", PrimaryCategory([]string{"store"}))
}

func TestSecondaryAgreement(t *testing.T) {
	tests := []struct {
		name   string
		active *bool
		status string
		want   int
	}{
		{"active and operational", ptrBool(true), models.PlaceStatusOperational, 10},
		{"active and temporarily closed", ptrBool(true), models.PlaceStatusClosedTemporarily, 10},
		{"inactive and permanently closed", ptrBool(false), models.PlaceStatusClosedPermanently, 10},
		{"active but permanently closed", ptrBool(true), models.PlaceStatusClosedPermanently, 0},
		{"inactive but operational", ptrBool(false), models.PlaceStatusOperational, 0},
		{"unknown registry state", nil, models.PlaceStatusOperational, 5},
		{"unknown place status", ptrBool(true), "", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secondaryAgreement(tt.active, tt.status))
		})
	}
}

func barriot() models.BusinessRecord {
	return models.BusinessRecord{
		Name:             "Le Drugstore du Barriot",
		RegistryID:       "812345678",
		ActivityCategory: "47.26Z",
		Active:           ptrBool(true),
		Coordinates:      &models.Coordinates{Lat: 45.1885, Lon: 5.7245},
	}
}

func TestMatcher_ConfidentMatch(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewTestLogger(t))

	res := m.Match(barriot(), []models.CandidatePOI{{
		ID:             "place-1",
		Name:           "Drugstore",
		Categories:     []string{"tobacco_shop"},
		DistanceMeters: ptrFloat(30),
		BusinessStatus: models.PlaceStatusOperational,
	}})

	require.NotNil(t, res.Best)
	assert.True(t, res.Matched)
	assert.Equal(t, models.StatusSuccess, res.Status)
	assert.Equal(t, 90, res.Best.Composite)
	assert.Equal(t, models.MatchBreakdown{Name: 20, Distance: 40, Category: 20, Secondary: 10}, res.Best.Breakdown)
	assert.Equal(t, models.TierSubstring, res.Best.Tier)
	assert.True(t, res.Best.Confident)
}

func TestMatcher_NoMatchFarAndDifferentCategory(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewTestLogger(t))

	res := m.Match(barriot(), []models.CandidatePOI{{
		ID:             "place-2",
		Name:           "Drugstore",
		Categories:     []string{"restaurant"},
		DistanceMeters: ptrFloat(1200),
		BusinessStatus: models.PlaceStatusOperational,
	}})

	require.NotNil(t, res.Best)
	assert.False(t, res.Matched)
	assert.LessOrEqual(t, res.Best.Composite, 30)
	assert.Equal(t, 0, res.Best.Breakdown.Distance)
	assert.Equal(t, 0, res.Best.Breakdown.Category)
}

func TestMatcher_HaversineFallback(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewTestLogger(t))

	res := m.Match(barriot(), []models.CandidatePOI{{
		ID:          "place-3",
		Name:        "Drugstore du Barriot",
		Categories:  []string{"point_of_interest", "newsagent"},
		Coordinates: &models.Coordinates{Lat: 45.1888, Lon: 5.7245},
	}})

	require.NotNil(t, res.Best)
	require.NotNil(t, res.Best.DistanceMeters)
	assert.InDelta(t, 33.4, *res.Best.DistanceMeters, 1)
	assert.Equal(t, 30, res.Best.Breakdown.Name)
	assert.Equal(t, 40, res.Best.Breakdown.Distance)
	assert.Equal(t, 20, res.Best.Breakdown.Category)
	assert.Equal(t, 5, res.Best.Breakdown.Secondary)
	assert.Equal(t, models.TierExact, res.Best.Tier)
	assert.True(t, res.Matched)
}

func TestMatcher_TieBreaks(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewTestLogger(t))
	same := func(id string, d float64) models.CandidatePOI {
		return models.CandidatePOI{
			ID:             id,
			Name:           "Drugstore",
			Categories:     []string{"tobacco_shop"},
			DistanceMeters: ptrFloat(d),
			BusinessStatus: models.PlaceStatusOperational,
		}
	}

	t.Run("smaller distance wins", func(t *testing.T) {
		res := m.Match(barriot(), []models.CandidatePOI{same("far", 45), same("near", 10)})
		assert.Equal(t, "near", res.Best.CandidateID)
		assert.Equal(t, 90, res.Best.Composite)
	})

	t.Run("input order wins on equal distance", func(t *testing.T) {
		res := m.Match(barriot(), []models.CandidatePOI{same("first", 20), same("second", 20)})
		assert.Equal(t, "first", res.Best.CandidateID)
	})

	t.Run("higher composite beats distance", func(t *testing.T) {
		weak := same("weak", 5)
		weak.Categories = []string{"bakery"}
		res := m.Match(barriot(), []models.CandidatePOI{weak, same("strong", 150)})
		assert.Equal(t, "strong", res.Best.CandidateID)
	})
}

func TestMatcher_BestCandidateWithoutIDs(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewTestLogger(t))
	candidates := []models.CandidatePOI{
		{Name: "Garage Dupont", Categories: []string{"car_repair"}, DistanceMeters: ptrFloat(900), Rating: ptrFloat(1)},
		{Name: "Drugstore du Barriot", Categories: []string{"tobacco_shop"}, DistanceMeters: ptrFloat(12), Rating: ptrFloat(4.8)},
	}

	res := m.Match(barriot(), candidates)
	require.NotNil(t, res.Best)
	assert.Equal(t, 1, res.BestIndex)

	place := res.BestCandidate(candidates)
	require.NotNil(t, place)
	assert.Equal(t, "Drugstore du Barriot", place.Name)
	assert.Equal(t, 4.8, *place.Rating)
}

func TestResult_BestCandidateOutOfRange(t *testing.T) {
	res := Result{Best: &models.MatchResult{}, BestIndex: 3}
	assert.Nil(t, res.BestCandidate([]models.CandidatePOI{{Name: "Drugstore"}}))
	assert.Nil(t, Result{BestIndex: -1}.BestCandidate(nil))
}

func TestMatcher_CapsCandidates(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewNoOpLogger())
	candidates := make([]models.CandidatePOI, 25)
	for i := range candidates {
		candidates[i] = models.CandidatePOI{ID: fmt.Sprintf("c%d", i), Name: "Other", DistanceMeters: ptrFloat(float64(i))}
	}

	res := m.Match(barriot(), candidates)
	assert.Len(t, res.Candidates, 20)
}

func TestMatcher_DegradedInputs(t *testing.T) {
	m := NewMatcher(DefaultConfig(), logger.NewNoOpLogger())

	t.Run("no candidates", func(t *testing.T) {
		res := m.Match(barriot(), nil)
		assert.Nil(t, res.Best)
		assert.False(t, res.Matched)
		assert.Equal(t, models.StatusPartial, res.Status)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, "candidates", res.Issues[0].Field)
	})

	t.Run("negative distance", func(t *testing.T) {
		res := m.Match(barriot(), []models.CandidatePOI{{ID: "x", Name: "Drugstore", DistanceMeters: ptrFloat(-3)}})
		require.NotNil(t, res.Best)
		assert.Equal(t, 0, res.Best.Breakdown.Distance)
		assert.Nil(t, res.Best.DistanceMeters)
		assert.Equal(t, models.StatusPartial, res.Status)
		assert.Equal(t, "candidates[0].location", res.Issues[0].Field)
	})

	t.Run("missing business name", func(t *testing.T) {
		b := barriot()
		b.Name = ""
		res := m.Match(b, []models.CandidatePOI{{ID: "x", Name: "Drugstore", DistanceMeters: ptrFloat(10)}})
		assert.Equal(t, 0, res.Best.Breakdown.Name)
		assert.Equal(t, models.StatusPartial, res.Status)
	})
}
