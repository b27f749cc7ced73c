package loadgen

import "time"

// Defaults for a load run.
const (
	DefaultBaseURL      = "http://localhost:9080"
	DefaultNumMatches   = 1000
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 50 * time.Millisecond
	DefaultPollTimeout  = 2 * time.Minute
	DefaultMaxRating    = 100.0
	DefaultSigmaFloor   = 1.0
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// floatTolerance absorbs rounding in the JSON round trip.
const floatTolerance = 1e-9
