// Package registry loads the activity registry that maps Zeebe task types to
// their input schemas.
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"
)

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

var implementationStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	return &reg, nil
}

// New returns an empty registry stamped with the given time.
func New(now time.Time) *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: now.Format(time.RFC3339),
		Activities:  []Activity{},
	}
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create registry %s: %w", path, err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (r *ActivityRegistry) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return nil
}

func (r *ActivityRegistry) FindByID(id string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Add appends an activity after validating it. IDs and task types are unique.
func (r *ActivityRegistry) Add(activity Activity, now time.Time) error {
	if err := activity.Validate(); err != nil {
		return err
	}
	if _, ok := r.FindByID(activity.ID); ok {
		return fmt.Errorf("activity with ID %s already exists", activity.ID)
	}
	if _, ok := r.FindByTaskType(activity.TaskType); ok {
		return fmt.Errorf("task type %s is already registered", activity.TaskType)
	}
	r.Activities = append(r.Activities, activity)
	r.LastUpdated = now.Format(time.RFC3339)
	return nil
}

// Validate checks the whole registry: every activity is well formed and no
// ID or task type appears twice.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(r.Activities))
	taskTypes := make(map[string]bool, len(r.Activities))
	for _, activity := range r.Activities {
		if err := activity.Validate(); err != nil {
			return err
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		if taskTypes[activity.TaskType] {
			return fmt.Errorf("duplicate task type: %s", activity.TaskType)
		}
		ids[activity.ID] = true
		taskTypes[activity.TaskType] = true
	}
	return nil
}

func (a Activity) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("activity missing required field: ID")
	}
	if !activityIDPattern.MatchString(a.ID) {
		return fmt.Errorf("activity %s: ID must follow domain.subdomain.action", a.ID)
	}
	if a.DisplayName == "" {
		return fmt.Errorf("activity %s missing required field: DisplayName", a.ID)
	}
	if a.TaskType == "" {
		return fmt.Errorf("activity %s missing required field: TaskType", a.ID)
	}
	if a.Category == "" {
		return fmt.Errorf("activity %s missing required field: Category", a.ID)
	}
	if a.ImplementationStatus != "" && !implementationStatuses[a.ImplementationStatus] {
		return fmt.Errorf("activity %s: unknown implementation status %q", a.ID, a.ImplementationStatus)
	}
	if a.Timeout != "" {
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			return fmt.Errorf("activity %s: invalid timeout %q", a.ID, a.Timeout)
		}
	}
	return nil
}

// TimeoutOr parses Timeout, falling back to def when unset or invalid.
func (a Activity) TimeoutOr(def time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
