package scoring

import (
	"fmt"

	"storefront-acquisition/internal/models"
)

// Thresholds for derived risk items.
const (
	competitorsHigh   = 5
	competitorsMedium = 3
	conditionPoor     = 40.0
	conditionFair     = 60.0
	heavyRenovation   = 60000.0
	weakReputation    = 60.0
)

// validRiskItems keeps declared items with a known category and severity and
// recomputes their deduction from the severity.
func validRiskItems(declared []models.RiskItem) ([]models.RiskItem, []models.Issue) {
	items := make([]models.RiskItem, 0, len(declared))
	var issues []models.Issue
	for i, item := range declared {
		if !validDimension(item.Category) || !item.Severity.Valid() {
			issues = append(issues, models.MalformedInput(
				fmt.Sprintf("riskItems[%d]", i),
				fmt.Sprintf("unknown category %q or severity %q", item.Category, item.Severity),
			))
			continue
		}
		items = append(items, models.NewRiskItem(item.Category, item.Severity, item.Reason))
	}
	return items, issues
}

// deriveRiskItems turns risk-relevant facts into risk items.
func deriveRiskItems(f *facts) []models.RiskItem {
	var items []models.RiskItem
	add := func(d models.Dimension, s models.Severity, reason string) {
		items = append(items, models.NewRiskItem(d, s, reason))
	}

	if f.poi != nil {
		switch a := f.poi.Counts[models.BucketA]; {
		case a >= competitorsHigh:
			add(models.DimensionMarket, models.SeverityHigh, fmt.Sprintf("%d direct competitors nearby", a))
		case a >= competitorsMedium:
			add(models.DimensionMarket, models.SeverityMedium, fmt.Sprintf("%d direct competitors nearby", a))
		}
	}
	if f.reputation != nil && *f.reputation < weakReputation {
		add(models.DimensionMarket, models.SeverityLow, "weak customer rating")
	}
	if f.matchComposite == nil || !f.matchConfident {
		add(models.DimensionLocation, models.SeverityMedium, "storefront not confidently identified in places data")
	}
	if f.condition != nil {
		switch {
		case *f.condition < conditionPoor:
			add(models.DimensionOperational, models.SeverityHigh, "premises in poor condition")
		case *f.condition < conditionFair:
			add(models.DimensionOperational, models.SeverityMedium, "premises in fair condition")
		}
	}
	if f.renovation != nil && *f.renovation > heavyRenovation {
		add(models.DimensionOperational, models.SeverityMedium, "heavy renovation required")
	}
	if f.reportedClosed {
		add(models.DimensionOperational, models.SeverityHigh, "business reported closed")
	}
	if f.trend == models.TrendDecline {
		add(models.DimensionFinancial, models.SeverityHigh, "declining financial trend")
	}
	if f.netResult != nil && *f.netResult < 0 {
		add(models.DimensionFinancial, models.SeverityMedium, "negative net result in latest accounts")
	}
	return items
}

func validDimension(d models.Dimension) bool {
	for _, v := range models.AllDimensions() {
		if v == d {
			return true
		}
	}
	return false
}
