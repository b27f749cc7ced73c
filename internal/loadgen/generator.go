package loadgen

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/pkg/logger"
)

// Ranges of the generated skill beliefs.
const (
	muMin        = 5.0
	muRange      = 40.0
	sigmaMin     = 2.0
	sigmaRange   = 6.33
	raceTarget   = 11
	deuceChance  = 0.15
	maxDeuceRuns = 6
)

// generateMatches creates n random doubles matches with unique ids and
// valid race-to-11 final scores.
func generateMatches(ctx context.Context, n int, seed int64) ([]Match, error) {
	logger.Get().Info(ctx, "generating matches", logger.Int("numMatches", n), logger.Any("seed", seed))

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // load data, not secrets
	matches := make([]Match, n)
	for i := range matches {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during match generation: %w", err)
		}
		matches[i] = generateSingleMatch(rng, i)
	}
	return matches, nil
}

// generateSingleMatch builds one match. Player names are unique per match.
func generateSingleMatch(rng *rand.Rand, index int) Match {
	prefix := "m" + strconv.Itoa(index) + "-p"
	player := func(k int) model.SkillEstimate {
		return model.SkillEstimate{
			Name:  prefix + strconv.Itoa(k),
			Mu:    muMin + rng.Float64()*muRange,
			Sigma: sigmaMin + rng.Float64()*sigmaRange,
		}
	}
	winner, loser := finalScore(rng)
	m := Match{
		MatchID: uuid.NewString(),
		Teams: types.Teams{
			TeamA: []model.SkillEstimate{player(0), player(1)},
			TeamB: []model.SkillEstimate{player(2), player(3)},
		},
		ScoreA: winner,
		ScoreB: loser,
	}
	if rng.Intn(2) == 0 {
		m.ScoreA, m.ScoreB = loser, winner
	}
	return m
}

// finalScore returns a terminal race-to-11 win-by-2 score.
func finalScore(rng *rand.Rand) (winner, loser int) {
	if rng.Float64() < deuceChance {
		loser = raceTarget - 1 + rng.Intn(maxDeuceRuns)
		return loser + 2, loser
	}
	return raceTarget, rng.Intn(raceTarget - 1)
}

// isFinalScore reports whether a-b is a finished race-to-11 win-by-2 game.
func isFinalScore(a, b int) bool {
	hi, lo := max(a, b), min(a, b)
	if hi < raceTarget {
		return false
	}
	if hi == raceTarget {
		return lo <= raceTarget-2
	}
	return hi-lo == 2
}
