// Package scoring computes the weighted opportunity, risk and coherence scores.
package scoring

import (
	"math"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

// NeutralScore replaces a sub-factor whose input is missing or malformed.
const NeutralScore = 50.0

// Decision-score blend.
const (
	PotentialWeight = 0.50
	RiskWeight      = 0.30
	CoherenceWeight = 0.20
)

// Sub-factor names.
const (
	FactorDemographicFit   = "demographic_fit"
	FactorTradeArea        = "trade_area"
	FactorGeoMatch         = "geo_match"
	FactorReputation       = "reputation"
	FactorReviewVolume     = "review_volume"
	FactorCompetition      = "competition"
	FactorCondition        = "physical_condition"
	FactorRenovationBurden = "renovation_burden"
	FactorDataCoherence    = "data_coherence"
	FactorPotentialRatio   = "potential_to_investment"
)

// TargetReturn is the EBE-to-investment ratio that earns a full score.
const TargetReturn = 0.25

type Result struct {
	DimensionScores    []models.DimensionScore `json:"dimensionScores"`
	PotentialScore     float64                 `json:"potentialScore"`
	RiskScore          float64                 `json:"riskScore"`
	CoherenceScore     float64                 `json:"coherenceScore"`
	DecisionScore      float64                 `json:"decisionScore"`
	RiskItems          []models.RiskItem       `json:"riskItems"`
	DegradedDimensions []models.Dimension      `json:"degradedDimensions,omitempty"`
	Status             models.Status           `json:"status"`
	Issues             []models.Issue          `json:"issues,omitempty"`
}

type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{logger: log.WithFields(map[string]interface{}{"stage": "scoring"})}
}

// Score never fails: inputs that are missing or malformed fall back to the
// neutral baseline and flag their dimension as degraded.
func (s *Scorer) Score(in Input) Result {
	f := collectFacts(in)

	dims := []models.DimensionScore{
		locationScore(f),
		marketScore(f),
		operationalScore(f),
		financialScore(f, in.Checked, in.Conflicts),
	}

	res := Result{DimensionScores: dims}
	for _, d := range dims {
		res.PotentialScore += d.Weight * d.RawScore
		if d.Degraded {
			res.DegradedDimensions = append(res.DegradedDimensions, d.Dimension)
		}
	}
	res.PotentialScore = clamp(res.PotentialScore)

	items, issues := validRiskItems(in.DeclaredRisks)
	f.issues = append(f.issues, issues...)
	res.RiskItems = append(items, deriveRiskItems(f)...)
	res.RiskScore = RiskScore(in.Conflicts, res.RiskItems)
	res.CoherenceScore = CoherenceScore(in.Conflicts)
	res.DecisionScore = DecisionScore(res.PotentialScore, res.RiskScore, res.CoherenceScore)

	res.Issues = f.issues
	res.Status = models.StatusFor(res.Issues)

	s.logger.Info("opportunity scored", map[string]interface{}{
		"potential": res.PotentialScore,
		"risk":      res.RiskScore,
		"coherence": res.CoherenceScore,
		"decision":  res.DecisionScore,
		"degraded":  len(res.DegradedDimensions),
	})
	return res
}

// RiskScore starts at 100 and loses the fixed deduction of every conflict,
// resolved or not, and of every risk item.
func RiskScore(conflicts []models.Conflict, items []models.RiskItem) float64 {
	score := 100.0
	for _, c := range conflicts {
		score -= c.Severity.Deduction()
	}
	for _, item := range items {
		score -= item.Severity.Deduction()
	}
	return clamp(score)
}

// CoherenceScore is the share of conflicts that were resolved; 100 when there
// are none.
func CoherenceScore(conflicts []models.Conflict) float64 {
	if len(conflicts) == 0 {
		return 100
	}
	resolved := 0
	for _, c := range conflicts {
		if c.Resolved {
			resolved++
		}
	}
	return clamp(100 * float64(resolved) / float64(len(conflicts)))
}

func DecisionScore(potential, risk, coherence float64) float64 {
	return clamp(PotentialWeight*potential + RiskWeight*risk + CoherenceWeight*coherence)
}

type subFactor struct {
	name   string
	weight float64
	value  *float64
}

// dimension blends its sub-factors; nil values count as NeutralScore.
func dimension(d models.Dimension, subs []subFactor) models.DimensionScore {
	ds := models.DimensionScore{
		Dimension:  d,
		Weight:     d.Weight(),
		SubFactors: make(map[string]float64, len(subs)),
	}
	raw := 0.0
	for _, sf := range subs {
		v := NeutralScore
		if sf.value != nil {
			v = clamp(*sf.value)
		} else {
			ds.Degraded = true
			ds.DegradedInputs = append(ds.DegradedInputs, sf.name)
		}
		ds.SubFactors[sf.name] = v
		raw += sf.weight * v
	}
	if len(ds.DegradedInputs) == len(subs) {
		raw = NeutralScore
	}
	ds.RawScore = clamp(raw)
	return ds
}

func locationScore(f *facts) models.DimensionScore {
	return dimension(models.DimensionLocation, []subFactor{
		{FactorDemographicFit, 0.40, demographicFit(f)},
		{FactorTradeArea, 0.35, tradeArea(f.poi)},
		{FactorGeoMatch, 0.25, f.matchComposite},
	})
}

func marketScore(f *facts) models.DimensionScore {
	return dimension(models.DimensionMarket, []subFactor{
		{FactorReputation, 0.40, f.reputation},
		{FactorReviewVolume, 0.25, reviewVolume(f.reviewCount)},
		{FactorCompetition, 0.35, competition(f.poi)},
	})
}

func operationalScore(f *facts) models.DimensionScore {
	return dimension(models.DimensionOperational, []subFactor{
		{FactorCondition, 0.60, f.condition},
		{FactorRenovationBurden, 0.40, renovationBurden(f.renovation)},
	})
}

func financialScore(f *facts, checked []models.ConflictType, conflicts []models.Conflict) models.DimensionScore {
	return dimension(models.DimensionFinancial, []subFactor{
		{FactorDataCoherence, 0.50, dataCoherence(checked, conflicts)},
		{FactorPotentialRatio, 0.50, potentialRatio(f)},
	})
}

// demographicFit averages the population and income sub-scores available.
func demographicFit(f *facts) *float64 {
	var scores []float64
	if f.populationTier != nil {
		scores = append(scores, 20+20*float64(f.populationTier.Rank()))
	}
	if f.incomeTier != nil {
		scores = append(scores, []float64{40, 70, 100}[f.incomeTier.Rank()])
	}
	if len(scores) == 0 {
		return nil
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return ptr(sum / float64(len(scores)))
}

// tradeArea rewards overall density and traffic-generating neighbours.
func tradeArea(p *POISummary) *float64 {
	if p == nil {
		return nil
	}
	density := 20 + 20*float64(p.Density.Rank())
	traffic := math.Min(100, 25*float64(p.Counts[models.BucketB])+10*float64(p.Counts[models.BucketC]))
	return ptr(0.5*density + 0.5*traffic)
}

func competition(p *POISummary) *float64 {
	if p == nil {
		return nil
	}
	return ptr(math.Max(0, 100-20*float64(p.Counts[models.BucketA])))
}

func reviewVolume(n *int) *float64 {
	if n == nil {
		return nil
	}
	switch {
	case *n == 0:
		return ptr(10.0)
	case *n < 10:
		return ptr(30.0)
	case *n < 50:
		return ptr(55.0)
	case *n < 200:
		return ptr(80.0)
	default:
		return ptr(100.0)
	}
}

// renovationBurden is an inverse step on the estimated renovation cost.
func renovationBurden(cost *float64) *float64 {
	if cost == nil {
		return nil
	}
	switch c := *cost; {
	case c <= 5000:
		return ptr(100.0)
	case c <= 15000:
		return ptr(80.0)
	case c <= 30000:
		return ptr(60.0)
	case c <= 60000:
		return ptr(40.0)
	case c <= 100000:
		return ptr(20.0)
	default:
		return ptr(0.0)
	}
}

// dataCoherence is the share of checked facts left without an unresolved
// conflict. Nothing checked leaves the factor missing.
func dataCoherence(checked []models.ConflictType, conflicts []models.Conflict) *float64 {
	seen := map[models.ConflictType]bool{}
	open := map[models.ConflictType]bool{}
	for _, t := range checked {
		seen[t] = true
	}
	for _, c := range conflicts {
		seen[c.Type] = true
		if !c.Resolved {
			open[c.Type] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	return ptr(100 * float64(len(seen)-len(open)) / float64(len(seen)))
}

// potentialRatio scores EBE against the total investment, adjusted by trend.
func potentialRatio(f *facts) *float64 {
	if f.ebe == nil || f.askingPrice == nil {
		return nil
	}
	investment := *f.askingPrice
	if f.renovation != nil {
		investment += *f.renovation
	}
	if investment <= 0 {
		f.malformed("askingPrice", "total investment must be positive")
		return nil
	}
	score := clamp(*f.ebe / investment / TargetReturn * 100)
	switch f.trend {
	case models.TrendGrowth:
		score += 10
	case models.TrendDecline:
		score -= 10
	}
	return ptr(clamp(score))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
