// Package types contains the request and response shapes shared by the
// HTTP layer, the service and the load generator.
package types

import (
	"github.com/okian/rallyrate/internal/domain/model"
)

// Submission statuses reported for asynchronous matches.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
	StatusPending   = "pending"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Team identifiers accepted by the live scoreboard.
const (
	SideA = "A"
	SideB = "B"
)

// Teams is the common prefix of every team-based request. Members are a
// slice so that rosters of the wrong size can be rejected instead of being
// silently truncated or zero-filled.
type Teams struct {
	TeamA []model.SkillEstimate `json:"teamA"`
	TeamB []model.SkillEstimate `json:"teamB"`
}

// UpdateRatingsRequest is the body of POST /update_ratings.
type UpdateRatingsRequest struct {
	Teams
	ScoreA int `json:"scoreA"`
	ScoreB int `json:"scoreB"`
}

// WinProbabilityRequest is the body of POST /win_probability.
type WinProbabilityRequest struct {
	Teams
}

// WinProbabilityResponse is the static pre-match estimate.
type WinProbabilityResponse struct {
	PTeamA float64 `json:"p_teamA"`
	PTeamB float64 `json:"p_teamB"`
}

// LiveProbabilityRequest carries team aggregates already computed by the
// caller together with the running score.
type LiveProbabilityRequest struct {
	MuA    float64 `json:"muA"`
	SigmaA float64 `json:"sigmaA"`
	MuB    float64 `json:"muB"`
	SigmaB float64 `json:"sigmaB"`
	ScoreA int     `json:"scoreA"`
	ScoreB int     `json:"scoreB"`
}

// LiveProbabilityResponse is the Monte-Carlo live estimate.
type LiveProbabilityResponse struct {
	PA      float64 `json:"p_a"`
	PB      float64 `json:"p_b"`
	Samples int     `json:"samples"`
	StdDev  float64 `json:"stddev"`
}

// SubmitMatchRequest is the body of POST /matches.
type SubmitMatchRequest struct {
	MatchID string `json:"match_id,omitempty"`
	Teams
	ScoreA int `json:"scoreA"`
	ScoreB int `json:"scoreB"`
}

// SubmitMatchResponse acknowledges an asynchronous submission.
type SubmitMatchResponse struct {
	MatchID string `json:"match_id"`
	Status  string `json:"status"`
}

// MatchStatus is the state of an asynchronous rating job.
type MatchStatus struct {
	MatchID string                    `json:"match_id"`
	Status  string                    `json:"status"`
	Result  *model.RatingUpdateResult `json:"result,omitempty"`
}

// InitScoreRequest starts a live scoreboard at 0-0.
type InitScoreRequest struct {
	MatchID string           `json:"match_id"`
	TeamA   *model.Aggregate `json:"teamA,omitempty"`
	TeamB   *model.Aggregate `json:"teamB,omitempty"`
}

// UpdateScoreRequest adds increment points to one side.
type UpdateScoreRequest struct {
	MatchID   string `json:"match_id"`
	Team      string `json:"team"`
	Increment int    `json:"increment"`
}

// LiveScoreResponse is a scoreboard snapshot, with the live estimate when
// both team aggregates are known.
type LiveScoreResponse struct {
	Success     bool                     `json:"success"`
	Score       model.LiveScore          `json:"score"`
	Probability *LiveProbabilityResponse `json:"probability,omitempty"`
}

// TeamFromMembers converts a roster into a Team. It reports false unless
// exactly two members are given.
func TeamFromMembers(members []model.SkillEstimate) (model.Team, bool) {
	var t model.Team
	if len(members) != len(t) {
		return t, false
	}
	copy(t[:], members)
	return t, true
}
