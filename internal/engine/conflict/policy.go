package conflict

import (
	"fmt"
	"sort"

	"storefront-acquisition/internal/models"
)

// SeverityPolicy decides whether a spread between sources is a conflict and
// how severe it is. Policies must be monotonic: a larger spread never yields
// "no conflict" where a smaller one did.
type SeverityPolicy interface {
	Assess(t models.ConflictType, spread float64) (models.Severity, bool)
}

// Rule assigns Severity to spreads strictly above Above.
type Rule struct {
	Above    float64         `mapstructure:"above" json:"above"`
	Severity models.Severity `mapstructure:"severity" json:"severity"`
}

// RulePolicy holds an ascending rule list per conflict type. The lowest rule
// is the tolerance of the check; the highest matching rule wins. Types with no
// rules never produce conflicts.
type RulePolicy struct {
	rules map[models.ConflictType][]Rule
}

// DefaultRules expresses each check's tolerance on that check's own scale.
// Geographic spreads are proximity-tier points lost (see geographicSpread).
func DefaultRules() map[models.ConflictType][]Rule {
	return map[models.ConflictType][]Rule{
		models.ConflictPopulationPOI: {
			{Above: 1, Severity: models.SeverityMedium},
			{Above: 2, Severity: models.SeverityHigh},
		},
		models.ConflictCSPPricing: {
			{Above: 1, Severity: models.SeverityMedium},
		},
		models.ConflictRatingPhotos: {
			{Above: 3, Severity: models.SeverityMedium},
			{Above: 5, Severity: models.SeverityHigh},
		},
		models.ConflictDataInconsist: {
			{Above: 0, Severity: models.SeverityHigh},
		},
		models.ConflictScoreMismatch: {
			{Above: 4, Severity: models.SeverityMedium},
			{Above: 6, Severity: models.SeverityHigh},
		},
		models.ConflictGeographic: {
			{Above: 10, Severity: models.SeverityMedium},
			{Above: 20, Severity: models.SeverityHigh},
			{Above: 30, Severity: models.SeverityCritical},
		},
	}
}

func DefaultPolicy() *RulePolicy {
	p, _ := NewRulePolicy(DefaultRules())
	return p
}

// NewRulePolicy validates and sorts the rules.
func NewRulePolicy(rules map[models.ConflictType][]Rule) (*RulePolicy, error) {
	out := make(map[models.ConflictType][]Rule, len(rules))
	for t, list := range rules {
		if !t.Valid() {
			return nil, fmt.Errorf("severity rules: unknown conflict type %q", t)
		}
		sorted := append([]Rule(nil), list...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Above < sorted[j].Above })
		for i, r := range sorted {
			if !r.Severity.Valid() {
				return nil, fmt.Errorf("severity rules: %s: unknown severity %q", t, r.Severity)
			}
			if r.Above < 0 {
				return nil, fmt.Errorf("severity rules: %s: negative threshold %v", t, r.Above)
			}
			if i > 0 && r.Above == sorted[i-1].Above {
				return nil, fmt.Errorf("severity rules: %s: duplicate threshold %v", t, r.Above)
			}
		}
		out[t] = sorted
	}
	return &RulePolicy{rules: out}, nil
}

func (p *RulePolicy) Assess(t models.ConflictType, spread float64) (models.Severity, bool) {
	var (
		sev   models.Severity
		found bool
	)
	for _, r := range p.rules[t] {
		if spread > r.Above {
			sev, found = r.Severity, true
		}
	}
	return sev, found
}
