// Package loadgen drives a running rating service with random doubles
// matches and checks every rating it produces.
package loadgen

import (
	"time"

	"github.com/okian/rallyrate/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumMatches   int           // Number of matches to generate
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Delay between status polls of one match
	PollTimeout  time.Duration // How long to wait for all matches to finish
	MaxRating    float64       // Upper rating bound the service enforces
	SigmaFloor   float64       // Lower sigma bound the service enforces
	Seed         int64         // Generator seed; zero picks a time-based one
	Verbose      bool          // Enable verbose logging
}

// Match is one generated submission.
type Match = types.SubmitMatchRequest

// Stats holds run statistics.
type Stats struct {
	MatchesGenerated int
	MatchesAccepted  int
	MatchesDuplicate int
	MatchesRejected  int
	MatchesFailed    int
	ResultsVerified  int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
