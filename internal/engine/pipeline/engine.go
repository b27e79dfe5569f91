// Package pipeline runs the acquisition stages over one snapshot and threads
// each stage's result into the next.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/arbitration"
	"storefront-acquisition/internal/engine/conflict"
	"storefront-acquisition/internal/engine/decision"
	"storefront-acquisition/internal/engine/identity"
	"storefront-acquisition/internal/engine/poi"
	"storefront-acquisition/internal/engine/scoring"
	"storefront-acquisition/internal/models"
)

const tracerName = "storefront-acquisition/engine"

type Engine struct {
	config     Config
	matcher    *identity.Matcher
	classifier *poi.Classifier
	detector   *conflict.Detector
	arbitrator *arbitration.Arbitrator
	scorer     *scoring.Scorer
	decider    *decision.Engine
	tracer     trace.Tracer
	observe    StageObserver
	clock      func() time.Time
	logger     logger.Logger
}

// StageObserver receives the wall time of every finished stage.
type StageObserver func(ctx context.Context, stage string, d time.Duration)

type options struct {
	clock   func() time.Time
	ids     conflict.IDGenerator
	tracer  trace.Tracer
	observe StageObserver
}

type Option func(*options)

// WithClock fixes the time stamped on conflicts and recommendations.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithIDs replaces the conflict ID generator.
func WithIDs(ids conflict.IDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

func WithStageObserver(observe StageObserver) Option {
	return func(o *options) { o.observe = observe }
}

func New(cfg Config, log logger.Logger, opts ...Option) *Engine {
	o := options{
		clock:  func() time.Time { return time.Now().UTC() },
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.Policy == nil {
		cfg.Policy = conflict.DefaultPolicy()
	}
	if cfg.SourceConfidence == nil {
		cfg.SourceConfidence = DefaultSourceConfidence()
	}

	detectorOpts := []conflict.Option{conflict.WithClock(o.clock)}
	if o.ids != nil {
		detectorOpts = append(detectorOpts, conflict.WithIDGenerator(o.ids))
	}

	return &Engine{
		config:     cfg,
		matcher:    identity.NewMatcher(cfg.Identity, log),
		classifier: poi.NewClassifier(cfg.POI, log),
		detector:   conflict.NewDetector(cfg.Policy, log, detectorOpts...),
		arbitrator: arbitration.NewArbitrator(cfg.Arbitration, log),
		scorer:     scoring.NewScorer(log),
		decider:    decision.NewEngine(log),
		tracer:     o.tracer,
		observe:    o.observe,
		clock:      o.clock,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// stage1 holds the results of the independent first stage.
type stage1 struct {
	identity identity.Result
	poi      poi.Result
	trend    scoring.TrendResult
}

// Evaluate never returns nil. Data problems degrade the result and are
// reported as issues; a cancelled context yields an error-status NO-GO.
func (e *Engine) Evaluate(ctx context.Context, snap *models.Snapshot) *models.Recommendation {
	if e.config.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.StageTimeout)
		defer cancel()
	}

	if snap == nil {
		return e.failed(ctx, "", models.MissingInput("snapshot"))
	}

	ctx, span := e.tracer.Start(ctx, "acquisition.evaluate",
		trace.WithAttributes(attribute.String("request.id", snap.RequestID)))
	defer span.End()

	s1 := e.runStage1(ctx, snap)
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return e.failed(ctx, snap.RequestID, cancelled(err))
	}

	detected := e.detect(ctx, snap, s1)

	var arbitrated arbitration.Result
	e.traced(ctx, "arbitration.resolve", func(context.Context) {
		arbitrated = e.arbitrator.Resolve(detected.Conflicts)
	})

	var scores scoring.Result
	e.traced(ctx, "scoring.score", func(context.Context) {
		scores = e.scorer.Score(scoringInput(snap, s1, detected, arbitrated))
	})

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return e.failed(ctx, snap.RequestID, cancelled(err))
	}

	issues := mergeIssues(
		s1.identity.Issues,
		s1.poi.Issues,
		s1.trend.Issues,
		detected.Issues,
		arbitrated.Issues,
		scores.Issues,
	)

	var rec *models.Recommendation
	e.traced(ctx, "decision.decide", func(context.Context) {
		rec = e.decider.Decide(decision.Input{
			RequestID: snap.RequestID,
			Scores:    scores,
			Conflicts: arbitrated.Conflicts,
			Match:     s1.identity.Best,
			Trend:     s1.trend.Trend,
			Issues:    issues,
			Status:    models.StatusFor(issues),
			Now:       e.clock(),
		})
	})

	span.SetAttributes(
		attribute.String("recommendation.label", string(rec.Label)),
		attribute.Float64("recommendation.score", rec.CompositeScore),
		attribute.Int("conflicts.blocking", len(rec.BlockingConflicts)),
	)
	return rec
}

// runStage1 runs the three independent analyses concurrently. Each goroutine
// writes only its own field.
func (e *Engine) runStage1(ctx context.Context, snap *models.Snapshot) stage1 {
	var out stage1
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.traced(gctx, "identity.match", func(context.Context) {
			out.identity = e.matcher.Match(snap.Business, snap.Candidates)
		})
		return nil
	})
	g.Go(func() error {
		e.traced(gctx, "poi.classify", func(context.Context) {
			out.poi = e.classifier.Classify(snap.NearbyPOIs)
		})
		return nil
	})
	g.Go(func() error {
		e.traced(gctx, "trend.classify", func(context.Context) {
			out.trend = scoring.ClassifyTrend(snap.Accounts)
		})
		return nil
	})
	_ = g.Wait()
	return out
}

func (e *Engine) detect(ctx context.Context, snap *models.Snapshot, s1 stage1) conflict.Result {
	var place *models.CandidatePOI
	if s1.identity.Matched {
		place = s1.identity.BestCandidate(snap.Candidates)
	}
	var density *models.DensityTier
	if !s1.poi.Missing {
		d := s1.poi.Density
		density = &d
	}

	in := conflict.Input{
		Business:         snap.Business,
		Geocoded:         snap.Geocoded,
		MatchedPlace:     place,
		Demographics:     snap.Demographics,
		Density:          density,
		NearbyPOIs:       s1.poi.POIs,
		Photos:           snap.Photos,
		Extra:            snap.ExtraObservations,
		SourceTimestamps: snap.SourceTimestamps,
		SourceConfidence: e.sourceConfidence(snap.SourceConfidence),
	}

	var res conflict.Result
	e.traced(ctx, "conflict.detect", func(context.Context) {
		res = e.detector.Detect(in)
	})
	return res
}

// sourceConfidence overlays the snapshot's confidences on the configured ones.
func (e *Engine) sourceConfidence(overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(e.config.SourceConfidence)+len(overrides))
	for k, v := range e.config.SourceConfidence {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func scoringInput(snap *models.Snapshot, s1 stage1, detected conflict.Result, arbitrated arbitration.Result) scoring.Input {
	in := scoring.Input{
		Demographics:  snap.Demographics,
		Match:         s1.identity.Best,
		Photos:        snap.Photos,
		Accounts:      snap.Accounts,
		AskingPrice:   snap.AskingPrice,
		Trend:         s1.trend.Trend,
		DeclaredRisks: snap.RiskItems,
		Conflicts:     arbitrated.Conflicts,
		Checked:       detected.Checked,
	}
	if !s1.poi.Missing {
		in.POI = &scoring.POISummary{Counts: s1.poi.Counts, Density: s1.poi.Density}
	}
	if s1.identity.Matched {
		in.Place = s1.identity.BestCandidate(snap.Candidates)
	}
	return in
}

func (e *Engine) traced(ctx context.Context, name string, fn func(context.Context)) {
	ctx, span := e.tracer.Start(ctx, name)
	defer span.End()
	start := time.Now()
	fn(ctx)
	elapsed := time.Since(start)
	if e.observe != nil {
		e.observe(ctx, name, elapsed)
	}
	e.logger.Debug("stage finished", map[string]interface{}{
		"stage":    name,
		"duration": elapsed.String(),
	})
}

// failed builds the recommendation returned when no evaluation could run.
func (e *Engine) failed(ctx context.Context, requestID string, issue models.Issue) *models.Recommendation {
	e.logger.Warn("evaluation aborted", map[string]interface{}{
		"requestId": requestID,
		"code":      issue.Code,
		"field":     issue.Field,
	})
	rec := e.decider.Decide(decision.Input{
		RequestID: requestID,
		Issues:    []models.Issue{issue},
		Status:    models.StatusError,
		Now:       e.clock(),
	})
	rec.Trend = models.TrendIndeterminate
	return rec
}

func cancelled(err error) models.Issue {
	return models.Issue{Code: apperrors.ErrCodeTimeout, Message: "evaluation interrupted: " + err.Error()}
}

// mergeIssues concatenates stage issues in stage order, dropping repeats of
// the same code and field.
func mergeIssues(lists ...[]models.Issue) []models.Issue {
	type key struct {
		code  apperrors.ErrorCode
		field string
	}
	seen := map[key]bool{}
	var out []models.Issue
	for _, list := range lists {
		for _, issue := range list {
			k := key{issue.Code, issue.Field}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, issue)
		}
	}
	return out
}
