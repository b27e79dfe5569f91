package evaluateacquisition

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "storefront-acquisition/internal/common/errors"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/common/metrics"
	"storefront-acquisition/internal/common/validation"
	"storefront-acquisition/internal/engine/pipeline"
	"storefront-acquisition/internal/models"
	"storefront-acquisition/internal/storage/recommendations"
)

const (
	TaskType = "evaluate-acquisition"
)

// EvaluationRecorder receives one sample per issued recommendation.
type EvaluationRecorder interface {
	RecordEvaluation(ctx context.Context, label, status string)
}

type Handler struct {
	config   *Config
	engine   *pipeline.Engine
	store    *recommendations.Store
	cache    *recommendations.Cache
	recorder EvaluationRecorder
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

// NewHandler wires the evaluation worker. store and cache may be nil, which
// disables persistence and caching respectively.
func NewHandler(config *Config, engine *pipeline.Engine, store *recommendations.Store, cache *recommendations.Cache, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		engine: engine,
		store:  store,
		cache:  cache,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) WithRecorder(r EvaluationRecorder) *Handler {
	h.recorder = r
	return h
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput([]byte(job.Variables))
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// parseInput checks the raw variables against the registry schema before
// decoding them.
func (h *Handler) parseInput(raw []byte) (*Input, error) {
	result, err := validation.ValidateAgainstSchema(h.config.InputSchema, raw)
	if err != nil {
		return nil, apperrors.NewParseError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInputSchemaInvalidError(result.GetErrorMessages())
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, apperrors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RequestID == "" {
		return nil, apperrors.NewMissingInputError("requestId")
	}

	if h.config.ReuseCached && !input.ForceRefresh {
		if rec := h.previous(ctx, input.RequestID); rec != nil {
			return newOutput(rec, true), nil
		}
	}
	if input.ForceRefresh && h.cache != nil {
		if err := h.cache.Invalidate(ctx, input.RequestID); err != nil {
			h.logger.Warn("failed to invalidate cached recommendation", map[string]interface{}{
				"requestId": input.RequestID,
				"error":     err.Error(),
			})
		}
	}

	rec := h.engine.Evaluate(ctx, &input.Snapshot)
	if issue, ok := interrupted(rec); ok {
		return nil, apperrors.NewTimeoutError("acquisition-engine", errors.New(issue.Message))
	}

	if h.store != nil {
		if err := h.store.Save(ctx, rec); err != nil {
			return nil, apperrors.NewRecommendationStoreFailedError(rec.RequestID, err)
		}
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, rec); err != nil {
			h.logger.Warn("failed to cache recommendation", map[string]interface{}{
				"requestId": rec.RequestID,
				"error":     err.Error(),
			})
		}
	}

	h.record(ctx, rec)
	h.logger.Info("acquisition evaluated", map[string]interface{}{
		"requestId": rec.RequestID,
		"label":     rec.Label,
		"score":     rec.CompositeScore,
		"status":    rec.Status,
		"blocking":  len(rec.BlockingConflicts),
	})
	return newOutput(rec, false), nil
}

// previous returns the recommendation already issued for requestID, from the
// cache first and then from the store, or nil. A store hit re-warms the cache.
func (h *Handler) previous(ctx context.Context, requestID string) *models.Recommendation {
	if h.cache != nil {
		if rec := h.cached(ctx, requestID); rec != nil {
			return rec
		}
	}
	if h.store == nil {
		return nil
	}

	rec, err := h.store.Get(ctx, requestID)
	switch {
	case errors.Is(err, recommendations.ErrNotFound):
		return nil
	case err != nil:
		h.logger.Warn("recommendation lookup failed", map[string]interface{}{
			"requestId": requestID,
			"error":     err.Error(),
		})
		return nil
	}
	metrics.CacheLookups.WithLabelValues("store").Inc()
	h.logger.Debug("serving stored recommendation", map[string]interface{}{"requestId": requestID})

	if h.cache != nil {
		if err := h.cache.Set(ctx, rec); err != nil {
			h.logger.Warn("failed to cache recommendation", map[string]interface{}{
				"requestId": requestID,
				"error":     err.Error(),
			})
		}
	}
	return rec
}

// cached returns nil on a miss. An unreachable cache is logged and skipped.
func (h *Handler) cached(ctx context.Context, requestID string) *models.Recommendation {
	rec, hit, err := h.cache.Get(ctx, requestID)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("recommendation cache unavailable", map[string]interface{}{
			"requestId": requestID,
			"error":     err.Error(),
		})
		return nil
	case !hit:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	h.logger.Debug("serving cached recommendation", map[string]interface{}{"requestId": requestID})
	return rec
}

// interrupted reports the timeout issue of an evaluation that could not finish.
func interrupted(rec *models.Recommendation) (models.Issue, bool) {
	if rec.Status != models.StatusError {
		return models.Issue{}, false
	}
	for _, issue := range rec.Issues {
		if issue.Code == apperrors.ErrCodeTimeout {
			return issue, true
		}
	}
	return models.Issue{}, false
}

func (h *Handler) record(ctx context.Context, rec *models.Recommendation) {
	metrics.RecommendationsIssued.WithLabelValues(string(rec.Label), string(rec.Status)).Inc()
	metrics.DecisionScore.Observe(rec.CompositeScore)
	for _, c := range rec.BlockingConflicts {
		metrics.ConflictsDetected.WithLabelValues(string(c.Type), string(c.Severity), strconv.FormatBool(c.Resolved)).Inc()
	}
	for _, c := range rec.ResolvedConflicts {
		metrics.ConflictsDetected.WithLabelValues(string(c.Type), string(c.Severity), strconv.FormatBool(c.Resolved)).Inc()
	}
	if h.recorder != nil {
		h.recorder.RecordEvaluation(ctx, string(rec.Label), string(rec.Status))
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := apperrors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
