// Command registry-updater maintains configs/activity-registry.json.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"storefront-acquisition/pkg/registry"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		err = runAdd(os.Args[2:])
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "schema":
		err = runSchema(os.Args[2:])
	default:
		help()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	path := fs.String("path", "configs/activity-registry.json", "Path to registry file")
	id := fs.String("id", "", "Activity ID (e.g., acquisition.engine.evaluate)")
	displayName := fs.String("displayName", "", "Display Name")
	description := fs.String("description", "", "Description")
	category := fs.String("category", "acquisition", "Category")
	taskType := fs.String("taskType", "", "Zeebe task type (e.g., evaluate-acquisition)")
	version := fs.String("version", "1.0.0", "Version")
	status := fs.String("status", "planned", "Implementation status (planned, in-progress, completed, verified)")
	timeout := fs.String("timeout", "10s", "Job timeout")
	_ = fs.Parse(args)

	if *id == "" || *displayName == "" || *taskType == "" {
		fs.Usage()
		return errors.New("id, displayName and taskType are required")
	}

	now := time.Now().UTC()
	reg, err := registry.LoadRegistry(*path)
	if os.IsNotExist(err) {
		reg, err = registry.New(now), nil
	}
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	err = reg.Add(registry.Activity{
		ID:                   *id,
		DisplayName:          *displayName,
		Description:          *description,
		Category:             *category,
		Version:              *version,
		TaskType:             *taskType,
		ImplementationStatus: *status,
		InputSchema:          map[string]interface{}{"type": "object"},
		OutputSchema:         map[string]interface{}{"type": "object"},
		ErrorCodes:           []string{},
		Timeout:              *timeout,
		Workflows:            []string{},
		Tags:                 []string{},
	}, now)
	if err != nil {
		return err
	}
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Added activity: %s\n", *id)
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", "configs/activity-registry.json", "Path to registry file")
	id := fs.String("id", "", "Activity ID to update")
	field := fs.String("field", "", "Field to update (status, version, displayName, description, timeout, retries)")
	value := fs.String("value", "", "New value for the field")
	_ = fs.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		fs.Usage()
		return errors.New("id, field and value are required")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activity, ok := reg.FindByID(*id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", *id)
	}

	switch *field {
	case "status":
		activity.ImplementationStatus = *value
	case "version":
		activity.Version = *value
	case "displayName":
		activity.DisplayName = *value
	case "description":
		activity.Description = *value
	case "timeout":
		activity.Timeout = *value
	case "retries":
		retries, err := strconv.Atoi(*value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", *field)
	}
	if err := activity.Validate(); err != nil {
		return err
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := reg.Save(*path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", "configs/activity-registry.json", "Path to registry file")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// runSchema prints the input schema of one task type.
func runSchema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ExitOnError)
	path := fs.String("path", "configs/activity-registry.json", "Path to registry file")
	taskType := fs.String("taskType", "", "Zeebe task type")
	_ = fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	activity, ok := reg.FindByTaskType(*taskType)
	if !ok {
		return fmt.Errorf("task type %q is not registered", *taskType)
	}
	single := registry.ActivityRegistry{Activities: []registry.Activity{*activity}}
	return single.Write(os.Stdout)
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  add       Add a new activity to the registry
  update    Update an existing activity's field
  validate  Validate the registry file
  schema    Print the registry entry of one task type
  help      Show this help message

Examples:
  registry-updater add -id acquisition.engine.evaluate -displayName "Evaluate Acquisition" -taskType evaluate-acquisition
  registry-updater update -id acquisition.engine.evaluate -field status -value verified
  registry-updater validate -path configs/activity-registry.json
  registry-updater schema -taskType evaluate-acquisition`)
}
