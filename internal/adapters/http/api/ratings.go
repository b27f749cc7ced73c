package api

import (
	"context"
	"net/http"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
)

// RatingDependencies are the synchronous engine operations.
type RatingDependencies interface {
	UpdateRatings(ctx context.Context, teamA, teamB model.Team, score model.MatchScore) model.RatingUpdateResult
	// SigmaFloor is the smallest sigma the update accepts.
	SigmaFloor() float64
	WinProbability(ctx context.Context, teamA, teamB model.Team) types.WinProbabilityResponse
	LiveProbability(ctx context.Context, req types.LiveProbabilityRequest) (types.LiveProbabilityResponse, error)
}

// RatingsHandler serves the stateless rating endpoints.
type RatingsHandler struct {
	deps RatingDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// HandleUpdateRatings handles POST /update_ratings.
func (h *RatingsHandler) HandleUpdateRatings(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_ratings"
	var req types.UpdateRatingsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	teamA, teamB, err := teamsFrom(req.Teams)
	if err == nil {
		err = validateRatedSigma(h.deps.SigmaFloor(), teamA, teamB)
	}
	if err == nil {
		err = validateScores(req.ScoreA, req.ScoreB)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res := h.deps.UpdateRatings(r.Context(), teamA, teamB, model.MatchScore{ScoreA: req.ScoreA, ScoreB: req.ScoreB})
	writeJSON(w, http.StatusOK, res)
}

// HandleWinProbability handles POST /win_probability.
func (h *RatingsHandler) HandleWinProbability(w http.ResponseWriter, r *http.Request) {
	const op = "api.win_probability"
	var req types.WinProbabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	teamA, teamB, err := teamsFrom(req.Teams)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.WinProbability(r.Context(), teamA, teamB))
}

// HandleLiveProbability handles POST /live_probability.
func (h *RatingsHandler) HandleLiveProbability(w http.ResponseWriter, r *http.Request) {
	const op = "api.live_probability"
	var req types.LiveProbabilityRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	err := validateSkill("teamA", req.MuA, req.SigmaA)
	if err == nil {
		err = validateSkill("teamB", req.MuB, req.SigmaB)
	}
	if err == nil {
		err = validateScores(req.ScoreA, req.ScoreB)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := h.deps.LiveProbability(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
