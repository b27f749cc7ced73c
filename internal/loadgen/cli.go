package loadgen

import (
	"os"
)

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`rallyrate load generator
========================

Submits random doubles matches to a running service, waits for every
rating and checks the update invariants.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -matches int
        Number of matches to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed int
        Generator seed, 0 for a time-based seed (default 0)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/loadgen -matches 20000 -workers 32
  go run ./cmd/loadgen -url http://localhost:8080 -verbose
`)
}
