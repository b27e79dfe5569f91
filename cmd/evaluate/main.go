// Command evaluate runs the acquisition engine over one snapshot file and
// prints the recommendation as JSON.
//
//	evaluate -input snapshot.json [-config configs/config.yaml] [-pretty]
//	cat snapshot.json | evaluate
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"storefront-acquisition/internal/common/config"
	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/engine/pipeline"
	"storefront-acquisition/internal/models"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	input := fs.String("input", "-", "Snapshot JSON file, - for stdin")
	configPath := fs.String("config", "", "Application config file; engine defaults when empty")
	timeout := fs.Duration("timeout", 0, "Overrides the engine evaluation timeout")
	pretty := fs.Bool("pretty", false, "Indent the output")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	zapLog := logger.NewWithOutput(*logLevel, "console", "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	engineCfg := pipeline.DefaultConfig()
	if *configPath != "" {
		cfg, err := config.LoadFromFile(*configPath)
		if err != nil {
			return err
		}
		if engineCfg, err = pipeline.ConfigFrom(cfg.Engine); err != nil {
			return fmt.Errorf("engine config: %w", err)
		}
	}
	if *timeout > 0 {
		engineCfg.StageTimeout = *timeout
	}

	snap, err := readSnapshot(*input, stdin)
	if err != nil {
		return err
	}

	rec := pipeline.New(engineCfg, log).Evaluate(context.Background(), snap)

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rec)
}

func readSnapshot(path string, stdin io.Reader) (*models.Snapshot, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var snap models.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
