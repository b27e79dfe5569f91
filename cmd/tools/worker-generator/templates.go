package main

const configTemplate = `{{define "config.go"}}package {{ .PackageName }}

import (
	"time"

	"{{ .Module }}/internal/common/config"
	"{{ .Module }}/pkg/registry"
)

type Config struct {
	Timeout     time.Duration
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

func ConfigFrom(wc *config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := LoadConfig()
	if activity != nil {
		cfg.Timeout = activity.TimeoutOr(cfg.Timeout)
		cfg.InputSchema = activity.InputSchema
	}
	if wc != nil && wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}
{{end}}`

const modelsTemplate = `{{define "models.go"}}package {{ .PackageName }}
{{if rawJSON .}}
import "encoding/json"
{{end}}
type Input struct {
{{- range .InputFields}}
	{{ .Name }} {{ .Type }} {{ .Tag }}{{if .Comment}} // {{ .Comment }}{{end}}
{{- end}}
}

type Output struct {
{{- range .OutputFields}}
	{{ .Name }} {{ .Type }} {{ .Tag }}{{if .Comment}} // {{ .Comment }}{{end}}
{{- end}}
}
{{end}}`

const handlerTemplate = `{{define "handler.go"}}package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/metrics"
	"{{ .Module }}/internal/common/validation"
)

const (
	TaskType = "{{ .TaskType }}"
)

// Handler runs the {{ .DisplayName }} activity.{{if .Description}}
// {{ .Description }}{{end}}
type Handler struct {
	config *Config
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
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
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError(TaskType, err)
	}
	return &Output{}, nil
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
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
{{end}}`

const handlerTestTemplate = `{{define "handler_test.go"}}package {{ .PackageName }}

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestHandler_Execute(t *testing.T) {
	out, err := createTestHandler(t).Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := createTestHandler(t).Execute(ctx, &Input{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTimeout, apperrors.Normalize(err).Code)
}

func TestHandler_ParseInput_NotJSON(t *testing.T) {
	_, err := createTestHandler(t).parseInput([]byte("not json"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeParseError, apperrors.Normalize(err).Code)
}
{{end}}`
