package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"storefront-acquisition/internal/models"
)

var leadingArticles = map[string]bool{
	"le": true, "la": true, "les": true, "l": true,
	"un": true, "une": true, "des": true,
	"the": true, "a": true, "an": true,
}

var legalSuffixes = map[string]bool{
	"sarl": true, "sas": true, "eurl": true, "eirl": true, "sa": true,
	"snc": true, "scs": true, "sca": true, "scm": true, "sci": true,
}

// Normalize canonicalises a business name for comparison: compatibility forms
// folded (full-width letters, ligatures, roman numerals), lower case, no
// diacritics, punctuation folded to single spaces, leading article and trailing
// legal-entity suffix removed. Stripping repeats until stable and never removes
// the last remaining word, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(name string) string {
	s := name

	// Chains are stateful; build one per call so matcher goroutines don't share it.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	for changed := true; changed; {
		changed = false
		if len(tokens) > 1 && leadingArticles[tokens[0]] {
			tokens = tokens[1:]
			changed = true
		}
		if len(tokens) > 1 && legalSuffixes[tokens[len(tokens)-1]] {
			tokens = tokens[:len(tokens)-1]
			changed = true
		}
	}

	return strings.Join(tokens, " ")
}

// Name-similarity points.
const (
	NamePointsExact     = 30
	NamePointsSubstring = 20
	NamePointsPartial   = 10
)

// ScoreName scores two names on the exact / substring / word-overlap tiers.
// Symmetric in its arguments.
func ScoreName(a, b string) int {
	points, _ := scoreNameTier(a, b)
	return points
}

func scoreNameTier(a, b string) (int, models.ConfidenceTier) {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0, models.TierNone
	}
	if na == nb {
		return NamePointsExact, models.TierExact
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return NamePointsSubstring, models.TierSubstring
	}
	if jaccard(significantWords(na), significantWords(nb)) > 0.5 {
		return NamePointsPartial, models.TierPartial
	}
	return 0, models.TierNone
}

// significantWords keeps words longer than two runes.
func significantWords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if len([]rune(w)) > 2 {
			out[w] = struct{}{}
		}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
