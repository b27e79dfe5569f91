package arbitration

import (
	"storefront-acquisition/internal/models"
)

// strategy returns a resolution when it applies to the conflict.
type strategy func(c models.Conflict, trust []string) (models.ArbitrationResolution, bool)

// sourceTrust takes the value of the most trusted source present.
func sourceTrust(c models.Conflict, trust []string) (models.ArbitrationResolution, bool) {
	for _, source := range trust {
		o, ok := c.Sources[source]
		if !ok {
			continue
		}
		conf := o.Confidence
		if conf <= 0 {
			conf = DefaultTrustConfidence
		}
		return models.ArbitrationResolution{
			ResolvedValue: o.Value,
			StrategyUsed:  models.StrategySourceTrust,
			Confidence:    clampUnit(conf),
			WinningSource: source,
		}, true
	}
	return models.ArbitrationResolution{}, false
}

// weightedAverage needs numeric values with a positive confidence everywhere.
func weightedAverage(c models.Conflict, _ []string) (models.ArbitrationResolution, bool) {
	if len(c.Sources) < 2 {
		return models.ArbitrationResolution{}, false
	}
	var sumW, sumWV float64
	for _, name := range sourceNames(c.Sources) {
		o := c.Sources[name]
		if !o.Value.IsNumber() || o.Confidence <= 0 {
			return models.ArbitrationResolution{}, false
		}
		sumW += o.Confidence
		sumWV += o.Confidence * *o.Value.Number
	}
	return models.ArbitrationResolution{
		ResolvedValue: models.NumberValue(sumWV / sumW),
		StrategyUsed:  models.StrategyWeightedAverage,
		Confidence:    clampUnit(sumW / float64(len(c.Sources))),
	}, true
}

// majorityVote needs at least three categorical readings and a unique plurality.
func majorityVote(c models.Conflict, _ []string) (models.ArbitrationResolution, bool) {
	if len(c.Sources) < 3 {
		return models.ArbitrationResolution{}, false
	}
	votes := map[string]int{}
	first := map[string]string{}
	for _, name := range sourceNames(c.Sources) {
		o := c.Sources[name]
		if !o.Value.IsCategory() {
			return models.ArbitrationResolution{}, false
		}
		key := normalizeCategory(o.Value.Category)
		votes[key]++
		if _, ok := first[key]; !ok {
			first[key] = o.Value.Category
		}
	}

	winner, best, tie := "", 0, false
	for key, n := range votes {
		switch {
		case n > best:
			winner, best, tie = key, n, false
		case n == best:
			tie = true
		}
	}
	if tie {
		return models.ArbitrationResolution{}, false
	}
	return models.ArbitrationResolution{
		ResolvedValue: models.CategoryValue(first[winner]),
		StrategyUsed:  models.StrategyMajorityVote,
		Confidence:    float64(best) / float64(len(c.Sources)),
	}, true
}

// mostRecent needs a timestamp on every reading and a single newest one.
func mostRecent(c models.Conflict, _ []string) (models.ArbitrationResolution, bool) {
	if len(c.Sources) < 2 {
		return models.ArbitrationResolution{}, false
	}
	var (
		newest string
		tie    bool
	)
	for _, name := range sourceNames(c.Sources) {
		o := c.Sources[name]
		if o.ObservedAt == nil {
			return models.ArbitrationResolution{}, false
		}
		if newest == "" {
			newest = name
			continue
		}
		cur := *c.Sources[newest].ObservedAt
		switch {
		case o.ObservedAt.After(cur):
			newest, tie = name, false
		case o.ObservedAt.Equal(cur):
			tie = true
		}
	}
	if tie {
		return models.ArbitrationResolution{}, false
	}
	o := c.Sources[newest]
	conf := o.Confidence
	if conf <= 0 {
		conf = DefaultRecentConfidence
	}
	return models.ArbitrationResolution{
		ResolvedValue: o.Value,
		StrategyUsed:  models.StrategyMostRecent,
		Confidence:    clampUnit(conf),
		WinningSource: newest,
	}, true
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
