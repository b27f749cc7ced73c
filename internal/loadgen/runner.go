package loadgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/rallyrate/pkg/logger"
)

// Run executes a complete load run: health check, generation, submission,
// polling and verification. It fails when any rating breaks an invariant
// or any accepted match never finishes.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	log.Info(ctx, "starting rallyrate load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("matches", cfg.NumMatches),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("verbose", cfg.Verbose))

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	matches, err := generateMatches(ctx, cfg.NumMatches, seed)
	if err != nil {
		return stats, fmt.Errorf("match generation failed: %w", err)
	}
	stats.MatchesGenerated = len(matches)
	byID := make(map[string]Match, len(matches))
	for _, m := range matches {
		byID[m.MatchID] = m
	}

	ids := submitMatches(ctx, cfg, matches, stats)

	log.Info(ctx, "waiting for matches to be rated", logger.Int("accepted", len(ids)))
	results := pollResults(ctx, cfg, ids)

	var violations []error
	for _, id := range ids {
		st, ok := results[id]
		if !ok {
			violations = append(violations, fmt.Errorf("%w: match %s never finished", ErrViolation, id))
			continue
		}
		errs := verifyResult(byID[id], st, cfg.MaxRating, cfg.SigmaFloor)
		if len(errs) == 0 {
			stats.ResultsVerified++
		}
		violations = append(violations, errs...)
	}
	stats.Violations = len(violations)
	for _, v := range violations {
		log.Warn(ctx, "verification failed", logger.Error(v))
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(violations) > 0 {
		return stats, fmt.Errorf("%d violations: %w", len(violations), errors.Join(violations...))
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, matchesPerSecond float64
	if stats.MatchesGenerated > 0 {
		successRate = float64(stats.ResultsVerified) / float64(stats.MatchesGenerated) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesGenerated) / stats.Duration.Seconds()
	}

	logger.Get().Named("loadgen").Info(ctx, "final statistics",
		logger.Int("matchesGenerated", stats.MatchesGenerated),
		logger.Int("matchesAccepted", stats.MatchesAccepted),
		logger.Int("matchesDuplicate", stats.MatchesDuplicate),
		logger.Int("matchesRejected", stats.MatchesRejected),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("resultsVerified", stats.ResultsVerified),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}
