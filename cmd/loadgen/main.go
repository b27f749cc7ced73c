package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rallyrate/internal/loadgen"
	"github.com/okian/rallyrate/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", loadgen.DefaultBaseURL, "Base URL of the service")
		numMatches = flag.Int("matches", loadgen.DefaultNumMatches, "Number of matches to generate and submit")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
		seed       = flag.Int64("seed", 0, "Generator seed, 0 for a time-based seed")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithLevel(level)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &loadgen.Config{
		BaseURL:      *baseURL,
		NumMatches:   *numMatches,
		Workers:      max(1, *workers),
		Timeout:      *timeout,
		PollInterval: loadgen.DefaultPollInterval,
		PollTimeout:  loadgen.DefaultPollTimeout,
		MaxRating:    loadgen.DefaultMaxRating,
		SigmaFloor:   loadgen.DefaultSigmaFloor,
		Seed:         *seed,
		Verbose:      *verbose,
	}

	if _, err := loadgen.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
