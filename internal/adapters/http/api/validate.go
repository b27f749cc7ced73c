package api

import (
	"fmt"
	"math"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
)

// Input bounds. Beyond them the engine's intermediate terms overflow.
const (
	maxAbsMu          = 1e6
	maxSigma          = 1e6
	maxScoreIncrement = 1000
)

func teamFrom(name string, members []model.SkillEstimate) (model.Team, error) {
	team, ok := types.TeamFromMembers(members)
	if !ok {
		return model.Team{}, fmt.Errorf("%s must have exactly 2 members, got %d", name, len(members))
	}
	for i, p := range team {
		if err := validateSkill(fmt.Sprintf("%s[%d]", name, i), p.Mu, p.Sigma); err != nil {
			return model.Team{}, err
		}
	}
	return team, nil
}

func validateSkill(label string, mu, sigma float64) error {
	switch {
	case math.IsNaN(mu) || math.IsInf(mu, 0):
		return fmt.Errorf("%s: mu must be finite", label)
	case math.IsNaN(sigma) || math.IsInf(sigma, 0):
		return fmt.Errorf("%s: sigma must be finite", label)
	case sigma < 0:
		return fmt.Errorf("%s: sigma must be >= 0", label)
	case math.Abs(mu) > maxAbsMu:
		return fmt.Errorf("%s: |mu| must be <= %g", label, float64(maxAbsMu))
	case sigma > maxSigma:
		return fmt.Errorf("%s: sigma must be <= %g", label, float64(maxSigma))
	}
	return nil
}

// validateRatedSigma rejects sigmas below the update's floor, which the
// update would otherwise raise.
func validateRatedSigma(floor float64, teams ...model.Team) error {
	for ti, team := range teams {
		name := "teamA"
		if ti == 1 {
			name = "teamB"
		}
		for i, p := range team {
			if p.Sigma < floor {
				return fmt.Errorf("%s[%d]: sigma must be >= %g to be rated", name, i, floor)
			}
		}
	}
	return nil
}

func validateIncrement(increment int) error {
	if increment > maxScoreIncrement || increment < -maxScoreIncrement {
		return fmt.Errorf("increment must be within +/-%d, got %d", maxScoreIncrement, increment)
	}
	return nil
}

func validateScores(scoreA, scoreB int) error {
	if scoreA < 0 || scoreB < 0 {
		return fmt.Errorf("scores must be >= 0, got %d-%d", scoreA, scoreB)
	}
	return nil
}

func validateAggregate(label string, a *model.Aggregate) error {
	if a == nil {
		return nil
	}
	return validateSkill(label, a.Mu, a.Sigma)
}
