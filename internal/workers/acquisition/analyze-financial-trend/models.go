package analyzefinancialtrend

import (
	"storefront-acquisition/internal/engine/scoring"
	"storefront-acquisition/internal/models"
)

// Input holds the SIG indicators keyed by fiscal year ("2023").
type Input struct {
	Accounts map[string]models.SIG `json:"accounts"`
}

type Output struct {
	Trend         models.Trend    `json:"trend"`
	TrendScore    *float64        `json:"trendScore,omitempty"`
	FromYear      int             `json:"fromYear,omitempty"`
	ToYear        int             `json:"toYear,omitempty"`
	Growth        *scoring.Growth `json:"growth,omitempty"`
	LatestYear    int             `json:"latestYear,omitempty"`
	LatestRevenue *float64        `json:"latestRevenue,omitempty"`
	TrendStatus   models.Status   `json:"trendStatus"`
	TrendIssues   []models.Issue  `json:"trendIssues,omitempty"`
}
