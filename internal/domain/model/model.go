// Package model contains domain models passed between layers.
package model

import (
	"math"
	"time"
)

// SkillEstimate is a player's skill belief: mean and uncertainty.
// Name is carried through untouched and never used in computation.
type SkillEstimate struct {
	Name  string  `json:"name,omitempty"`
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Team is an ordered pair of players.
type Team [2]SkillEstimate

// Aggregate is a team-level skill summary.
type Aggregate struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Aggregate returns the mean of the members' mu and the quadrature mean
// of their sigmas. It is always derived, never stored.
func (t Team) Aggregate() Aggregate {
	return Aggregate{
		Mu:    (t[0].Mu + t[1].Mu) / 2.0,
		Sigma: math.Sqrt((t[0].Sigma*t[0].Sigma + t[1].Sigma*t[1].Sigma) / 2.0),
	}
}

// MatchScore is a (final or running) score.
type MatchScore struct {
	ScoreA int `json:"scoreA"`
	ScoreB int `json:"scoreB"`
}

// RatingUpdateResult is the outcome of a post-match rating update.
type RatingUpdateResult struct {
	PWinA    float64 `json:"p_win_A"`
	PWinB    float64 `json:"p_win_B"`
	TeamANew Team    `json:"teamA_new"`
	TeamBNew Team    `json:"teamB_new"`
	Explain  Explain `json:"explain"`
}

// TeamPair holds one value per team.
type TeamPair[T any] struct {
	TeamA T `json:"teamA"`
	TeamB T `json:"teamB"`
}

// PlayerExplain traces one player's update.
type PlayerExplain struct {
	MuBefore     float64 `json:"mu_before"`
	RawDelta     float64 `json:"raw_delta"`
	TaperedDelta float64 `json:"tapered_delta"`
}

// Explain is the diagnostic record of a rating update. It is purely
// derived and never read back by the engine.
type Explain struct {
	PWinA              float64                    `json:"p_win_A"`
	ActualA            float64                    `json:"actual_A"`
	MarginMult         float64                    `json:"margin_mult"`
	DeltaTeamA         float64                    `json:"delta_teamA"`
	DeltaTeamB         float64                    `json:"delta_teamB"`
	Weights            TeamPair[[2]float64]       `json:"weights"`
	UncertaintyWeights TeamPair[[2]float64]       `json:"uncertainty_weights"`
	StrengthShares     TeamPair[[2]float64]       `json:"strength_shares"`
	Surprise           float64                    `json:"surprise"`
	SigmaShrinkMult    float64                    `json:"sigma_shrink_multiplier"`
	PerPlayer          TeamPair[[2]PlayerExplain] `json:"per_player"`
}

// MatchResult is a finished match submitted for asynchronous rating.
type MatchResult struct {
	MatchID     string
	TeamA       Team
	TeamB       Team
	Score       MatchScore
	SubmittedAt time.Time
}

// LiveScore is the running score of a match in progress. Team aggregates
// are optional; without them no live probability can be derived.
type LiveScore struct {
	MatchID   string     `json:"match_id"`
	ScoreA    int        `json:"team_a"`
	ScoreB    int        `json:"team_b"`
	TeamA     *Aggregate `json:"teamA,omitempty"`
	TeamB     *Aggregate `json:"teamB,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
