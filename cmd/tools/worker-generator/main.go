// Command worker-generator scaffolds a Zeebe worker package from an entry of
// the activity registry.
package main

import (
	"flag"
	"fmt"
	"os"

	"storefront-acquisition/pkg/registry"
)

func main() {
	activityID := flag.String("activity", "", "Activity ID or task type from the registry (e.g., acquisition.engine.evaluate)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	module := flag.String("module", "storefront-acquisition", "Go module path used in generated imports")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *activityID == "" {
		fmt.Fprintln(os.Stderr, "Error: -activity is required")
		flag.Usage()
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load registry: %v\n", err)
		os.Exit(1)
	}

	activity, ok := reg.FindByID(*activityID)
	if !ok {
		activity, ok = reg.FindByTaskType(*activityID)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: activity %q not found in %s\n", *activityID, *registryPath)
		os.Exit(1)
	}

	dir, written, err := Generate(*activity, GenerateOptions{
		Root:   *outputDir,
		Module: *module,
		Force:  *force,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated worker %s in %s\n", activity.TaskType, dir)
	for _, f := range written {
		fmt.Printf("  %s\n", f)
	}
	if activity.ImplementationStatus == "planned" {
		fmt.Println("Remember to move the registry entry to in-progress once the handler has real logic.")
	}
}
