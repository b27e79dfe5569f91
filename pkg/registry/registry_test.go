package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedRegistry = "../../configs/activity-registry.json"

func TestLoadRegistry_Shipped(t *testing.T) {
	reg, err := LoadRegistry(shippedRegistry)
	require.NoError(t, err)
	require.NoError(t, reg.Validate())

	for _, taskType := range []string{
		"evaluate-acquisition",
		"match-business-identity",
		"classify-nearby-pois",
		"analyze-financial-trend",
	} {
		activity, ok := reg.FindByTaskType(taskType)
		require.True(t, ok, taskType)
		assert.NotEmpty(t, activity.InputSchema, taskType)
	}

	evaluate, ok := reg.FindByID("acquisition.engine.evaluate")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, evaluate.TimeoutOr(time.Second))
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadRegistry(path)
	assert.Error(t, err)
}

func validActivity(id, taskType string) Activity {
	return Activity{
		ID:                   id,
		DisplayName:          "Activity " + taskType,
		Category:             "acquisition",
		TaskType:             taskType,
		ImplementationStatus: "planned",
		Timeout:              "10s",
	}
}

func TestAdd(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	reg := New(now)

	require.NoError(t, reg.Add(validActivity("acquisition.engine.evaluate", "evaluate-acquisition"), now.Add(time.Hour)))
	assert.Equal(t, "2026-10-18T10:00:00Z", reg.LastUpdated)

	err := reg.Add(validActivity("acquisition.engine.evaluate", "other"), now)
	assert.ErrorContains(t, err, "already exists")

	err = reg.Add(validActivity("acquisition.engine.other", "evaluate-acquisition"), now)
	assert.ErrorContains(t, err, "already registered")

	assert.Len(t, reg.Activities, 1)
}

func TestActivityValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Activity)
		wantErr string
	}{
		{name: "valid", mutate: func(*Activity) {}},
		{name: "missing id", mutate: func(a *Activity) { a.ID = "" }, wantErr: "ID"},
		{name: "bad id format", mutate: func(a *Activity) { a.ID = "Evaluate" }, wantErr: "domain.subdomain.action"},
		{name: "missing display name", mutate: func(a *Activity) { a.DisplayName = "" }, wantErr: "DisplayName"},
		{name: "missing task type", mutate: func(a *Activity) { a.TaskType = "" }, wantErr: "TaskType"},
		{name: "missing category", mutate: func(a *Activity) { a.Category = "" }, wantErr: "Category"},
		{name: "unknown status", mutate: func(a *Activity) { a.ImplementationStatus = "done" }, wantErr: "implementation status"},
		{name: "bad timeout", mutate: func(a *Activity) { a.Timeout = "soon" }, wantErr: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validActivity("acquisition.engine.evaluate", "evaluate-acquisition")
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegistryValidate_Duplicates(t *testing.T) {
	assert.ErrorContains(t, (&ActivityRegistry{}).Validate(), "no activities")

	reg := &ActivityRegistry{Activities: []Activity{
		validActivity("acquisition.engine.evaluate", "evaluate-acquisition"),
		validActivity("acquisition.engine.evaluate", "other"),
	}}
	assert.ErrorContains(t, reg.Validate(), "duplicate activity ID")

	reg.Activities[1].ID = "acquisition.engine.other"
	reg.Activities[1].TaskType = "evaluate-acquisition"
	assert.ErrorContains(t, reg.Validate(), "duplicate task type")
}

func TestSaveAndReload(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	reg := New(now)
	activity := validActivity("acquisition.poi.classify", "classify-nearby-pois")
	activity.InputSchema = map[string]interface{}{"type": "object"}
	require.NoError(t, reg.Add(activity, now))

	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg, loaded)
}

func TestTimeoutOr(t *testing.T) {
	assert.Equal(t, 5*time.Second, Activity{}.TimeoutOr(5*time.Second))
	assert.Equal(t, 5*time.Second, Activity{Timeout: "0s"}.TimeoutOr(5*time.Second))
	assert.Equal(t, 250*time.Millisecond, Activity{Timeout: "250ms"}.TimeoutOr(time.Second))
}
