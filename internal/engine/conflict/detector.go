// Package conflict cross-checks independently collected facts and records
// the disagreements between sources.
package conflict

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/models"
)

// Source names used by the built-in checks.
const (
	SourceRegistry           = "registry"
	SourceGeocoder           = "geocoder"
	SourcePlaces             = "places"
	SourceDemographics       = "demographics"
	SourcePOIDensity         = "poi_density"
	SourceVisionCondition    = "vision_condition"
	SourceVisionPresentation = "vision_presentation"
)

// Categorical readings of the open/closed state.
const (
	StateActive = "active"
	StateClosed = "closed"
)

// IDGenerator returns a unique conflict identifier.
type IDGenerator func() string

// Clock returns the detection time.
type Clock func() time.Time

// Input carries the facts the checks read. It is never modified.
type Input struct {
	Business     models.BusinessRecord
	Geocoded     *models.Coordinates
	MatchedPlace *models.CandidatePOI
	Demographics *models.Demographics
	// Density is nil when no POI data was collected.
	Density    *models.DensityTier
	NearbyPOIs []models.ClassifiedPOI
	Photos     *models.PhotoAssessment

	Extra            map[models.ConflictType]map[string]models.Observation
	SourceTimestamps map[string]time.Time
	SourceConfidence map[string]float64
}

type Result struct {
	Conflicts []models.Conflict `json:"conflicts"`
	// Checked lists the types that had at least two comparable readings.
	Checked []models.ConflictType `json:"checked"`
	Summary Summary               `json:"summary"`
	Status  models.Status         `json:"status"`
	Issues  []models.Issue        `json:"issues,omitempty"`
}

type Detector struct {
	policy SeverityPolicy
	ids    IDGenerator
	clock  Clock
	logger logger.Logger
}

type Option func(*Detector)

func WithIDGenerator(ids IDGenerator) Option {
	return func(d *Detector) { d.ids = ids }
}

func WithClock(clock Clock) Option {
	return func(d *Detector) { d.clock = clock }
}

func NewDetector(policy SeverityPolicy, log logger.Logger, opts ...Option) *Detector {
	if policy == nil {
		policy = DefaultPolicy()
	}
	d := &Detector{
		policy: policy,
		ids:    uuid.NewString,
		clock:  func() time.Time { return time.Now().UTC() },
		logger: log.WithFields(map[string]interface{}{"stage": "conflict"}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// check gathers one conflict type's observations on a common scale.
type check struct {
	kind    models.ConflictType
	collect func(in Input) (map[string]models.Observation, []models.Issue)
	spread  func(obs map[string]models.Observation) (float64, bool)
}

type outcome struct {
	checked  bool
	conflict *models.Conflict
	issues   []models.Issue
}

// Detect runs every check concurrently over the same read-only input. Each
// check writes its own slot; IDs and timestamps are assigned afterwards in
// canonical type order so runs with the same generators are reproducible.
func (d *Detector) Detect(in Input) Result {
	checks := builtinChecks()
	slots := make([]outcome, len(checks))

	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			slots[i] = d.run(c, in)
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Conflicts: []models.Conflict{}, Checked: []models.ConflictType{}}
	for i, o := range slots {
		res.Issues = append(res.Issues, o.issues...)
		if o.checked {
			res.Checked = append(res.Checked, checks[i].kind)
		}
		if o.conflict == nil {
			continue
		}
		c := *o.conflict
		c.ID = d.ids()
		c.DetectedAt = d.clock()
		res.Conflicts = append(res.Conflicts, c)
	}
	res.Summary = Summarize(res.Conflicts)
	res.Status = models.StatusFor(res.Issues)

	d.logger.Info("conflicts detected", map[string]interface{}{
		"count":    len(res.Conflicts),
		"blocking": res.Summary.Blocking,
	})
	return res
}

func (d *Detector) run(c check, in Input) outcome {
	obs, issues := c.collect(in)
	origin, rejected := mergeExtra(obs, c.kind, in.Extra[c.kind])
	issues = append(issues, rejected...)
	for key, o := range obs {
		source := key
		if name, ok := origin[key]; ok {
			source = name
		}
		if o.Confidence == 0 {
			o.Confidence = in.SourceConfidence[source]
		}
		if o.ObservedAt == nil {
			if ts, ok := in.SourceTimestamps[source]; ok {
				o.ObservedAt = &ts
			}
		}
		obs[key] = o
	}

	if len(obs) < 2 {
		return outcome{issues: issues}
	}
	spread, ok := c.spread(obs)
	if !ok {
		return outcome{issues: issues}
	}
	sev, conflicting := d.policy.Assess(c.kind, spread)
	if !conflicting {
		return outcome{checked: true, issues: issues}
	}

	d.logger.Debug("sources disagree", map[string]interface{}{
		"type":     c.kind,
		"spread":   spread,
		"severity": sev,
	})
	found := &models.Conflict{
		Type:        c.kind,
		Severity:    sev,
		Sources:     obs,
		Spread:      spread,
		Description: describe(c.kind, obs, spread),
	}
	return outcome{checked: true, conflict: found, issues: issues}
}

// mergeExtra adds caller-supplied readings and returns the source name behind
// each added key. A name already taken by a built-in source gets a suffix so no
// valid reading is dropped; malformed readings are rejected with an issue.
func mergeExtra(obs map[string]models.Observation, kind models.ConflictType, extra map[string]models.Observation) (map[string]string, []models.Issue) {
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	origin := make(map[string]string, len(names))
	var issues []models.Issue
	for _, name := range names {
		if reason, ok := malformed(extra[name]); ok {
			issues = append(issues, models.MalformedInput(fmt.Sprintf("extraObservations.%s.%s", kind, name), reason))
			continue
		}
		key := name
		for n := 1; ; n++ {
			if _, taken := obs[key]; !taken {
				break
			}
			key = fmt.Sprintf("%s_extra", name)
			if n > 1 {
				key = fmt.Sprintf("%s_extra%d", name, n)
			}
		}
		obs[key] = extra[name]
		origin[key] = name
	}
	return origin, issues
}

// malformed reports why a caller-supplied reading cannot be compared.
func malformed(o models.Observation) (string, bool) {
	v := o.Value
	switch {
	case v.Point != nil && !v.Point.Valid():
		return fmt.Sprintf("point %s is not a valid coordinate", v), true
	case v.Number != nil && (math.IsNaN(*v.Number) || math.IsInf(*v.Number, 0)):
		return fmt.Sprintf("number %s is not finite", v), true
	case v.Number == nil && v.Point == nil && v.Category == "":
		return "empty value", true
	case o.Confidence < 0 || o.Confidence > 1 || math.IsNaN(o.Confidence):
		return fmt.Sprintf("confidence %v outside 0..1", o.Confidence), true
	}
	return "", false
}

// numericSpread is max - min over the numeric readings. Non-numeric readings
// are ignored.
func numericSpread(obs map[string]models.Observation) (float64, bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, o := range obs {
		if !o.Value.IsNumber() || math.IsNaN(*o.Value.Number) {
			continue
		}
		v := *o.Value.Number
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		n++
	}
	if n < 2 {
		return 0, false
	}
	return hi - lo, true
}

// categoricalSpread is the number of distinct categories minus one.
func categoricalSpread(obs map[string]models.Observation) (float64, bool) {
	distinct := map[string]struct{}{}
	n := 0
	for _, o := range obs {
		if !o.Value.IsCategory() {
			continue
		}
		distinct[strings.ToLower(o.Value.Category)] = struct{}{}
		n++
	}
	if n < 2 {
		return 0, false
	}
	return float64(len(distinct) - 1), true
}

func sortedSources(obs map[string]models.Observation) []string {
	names := make([]string, 0, len(obs))
	for name := range obs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describe(t models.ConflictType, obs map[string]models.Observation, spread float64) string {
	parts := make([]string, 0, len(obs))
	for _, name := range sortedSources(obs) {
		parts = append(parts, fmt.Sprintf("%s=%s", name, obs[name].Value))
	}
	return fmt.Sprintf("%s: %s (spread %s)", descriptions[t], strings.Join(parts, ", "),
		models.NumberValue(math.Round(spread*100)/100))
}

var descriptions = map[models.ConflictType]string{
	models.ConflictPopulationPOI: "population tier does not match observed POI density",
	models.ConflictCSPPricing:    "area income level does not match local price level",
	models.ConflictRatingPhotos:  "customer rating does not match photo-assessed condition",
	models.ConflictDataInconsist: "registry and places disagree on whether the business is open",
	models.ConflictScoreMismatch: "photo condition and presentation scores diverge",
	models.ConflictGeographic:    "sources place the storefront at different locations",
}
