package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"storefront-acquisition/internal/models"
)

// Trend thresholds on the weighted growth score, in percent.
const (
	GrowthThreshold  = 5.0
	DeclineThreshold = -5.0
)

// GrowthRate is the relative change from old to new in percent, rounded to one
// decimal. From a zero base any increase counts as 100%.
func GrowthRate(old, new float64) float64 {
	if old == 0 {
		if new > 0 {
			return 100
		}
		return 0
	}
	return math.Round((new-old)/math.Abs(old)*100*10) / 10
}

// Growth holds the per-indicator growth rates between two fiscal years.
type Growth struct {
	ChiffreAffaires float64 `json:"chiffre_affaires"`
	EBE             float64 `json:"ebe"`
	ResultatNet     float64 `json:"resultat_net"`
}

type TrendResult struct {
	Trend    models.Trend   `json:"trend"`
	Score    *float64       `json:"score,omitempty"`
	FromYear int            `json:"fromYear,omitempty"`
	ToYear   int            `json:"toYear,omitempty"`
	Growth   *Growth        `json:"growth,omitempty"`
	Status   models.Status  `json:"status"`
	Issues   []models.Issue `json:"issues,omitempty"`
}

// fiscalYear is a parsed accounts entry.
type fiscalYear struct {
	year int
	key  string
	sig  models.SIG
}

// sortedYears parses the year keys, most recent first. Unparseable keys are
// reported and skipped.
func sortedYears(accounts map[string]models.SIG) ([]fiscalYear, []models.Issue) {
	var (
		years  []fiscalYear
		issues []models.Issue
	)
	for key, sig := range accounts {
		y, err := strconv.Atoi(key)
		if err != nil {
			issues = append(issues, models.MalformedInput("accounts."+key, "fiscal year is not a number"))
			continue
		}
		years = append(years, fiscalYear{year: y, key: key, sig: sig})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].year > years[j].year })
	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return years, issues
}

// LatestAccounts returns the most recent fiscal year's indicators.
func LatestAccounts(accounts map[string]models.SIG) (int, models.SIG, bool) {
	years, _ := sortedYears(accounts)
	if len(years) == 0 {
		return 0, models.SIG{}, false
	}
	return years[0].year, years[0].sig, true
}

// ClassifyTrend compares the two most recent fiscal years:
// 0.4 revenue growth + 0.3 EBE growth + 0.3 net result growth.
func ClassifyTrend(accounts map[string]models.SIG) TrendResult {
	years, issues := sortedYears(accounts)
	res := TrendResult{Trend: models.TrendIndeterminate}

	if len(years) < 2 {
		issues = append(issues, models.MissingInput("accounts"))
		res.Issues = issues
		res.Status = models.StatusFor(issues)
		return res
	}

	prev, last := years[1], years[0]
	res.FromYear, res.ToYear = prev.year, last.year

	var missing []models.Issue
	for _, fy := range []fiscalYear{prev, last} {
		for field, v := range map[string]*float64{
			"chiffre_affaires": fy.sig.ChiffreAffaires,
			"ebe":              fy.sig.EBE,
			"resultat_net":     fy.sig.ResultatNet,
		} {
			if v == nil {
				missing = append(missing, models.MissingInput(fmt.Sprintf("accounts.%s.%s", fy.key, field)))
			}
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i].Field < missing[j].Field })
		res.Issues = append(issues, missing...)
		res.Status = models.StatusFor(res.Issues)
		return res
	}

	g := Growth{
		ChiffreAffaires: GrowthRate(*prev.sig.ChiffreAffaires, *last.sig.ChiffreAffaires),
		EBE:             GrowthRate(*prev.sig.EBE, *last.sig.EBE),
		ResultatNet:     GrowthRate(*prev.sig.ResultatNet, *last.sig.ResultatNet),
	}
	score := 0.4*g.ChiffreAffaires + 0.3*g.EBE + 0.3*g.ResultatNet

	res.Growth = &g
	res.Score = &score
	switch {
	case score > GrowthThreshold:
		res.Trend = models.TrendGrowth
	case score < DeclineThreshold:
		res.Trend = models.TrendDecline
	default:
		res.Trend = models.TrendStable
	}
	res.Issues = issues
	res.Status = models.StatusFor(issues)
	return res
}
