package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/rallyrate/internal/domain/types"
)

// LiveScoreDependencies are the live scoreboard operations.
type LiveScoreDependencies interface {
	InitScore(ctx context.Context, req types.InitScoreRequest) (types.LiveScoreResponse, error)
	UpdateScore(ctx context.Context, req types.UpdateScoreRequest) (types.LiveScoreResponse, error)
	LiveScore(ctx context.Context, matchID string) (types.LiveScoreResponse, error)
}

// LiveScoreHandler serves the running scoreboards.
type LiveScoreHandler struct {
	deps LiveScoreDependencies
}

// NewLiveScoreHandler creates a new live score handler.
func NewLiveScoreHandler(deps LiveScoreDependencies) *LiveScoreHandler {
	return &LiveScoreHandler{deps: deps}
}

// HandleInitScore handles POST /live-score/init-score.
func (h *LiveScoreHandler) HandleInitScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.init_score"
	var req types.InitScoreRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.MatchID = strings.TrimSpace(req.MatchID)
	err := validateAggregate("teamA", req.TeamA)
	if err == nil {
		err = validateAggregate("teamB", req.TeamB)
	}
	if err == nil && req.MatchID == "" {
		err = errors.New("missing match_id")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := h.deps.InitScore(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateScore handles POST /live-score/update-score.
func (h *LiveScoreHandler) HandleUpdateScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_score"
	var req types.UpdateScoreRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.MatchID = strings.TrimSpace(req.MatchID)
	req.Team = strings.ToUpper(strings.TrimSpace(req.Team))
	switch {
	case req.MatchID == "":
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing match_id")))
		return
	case req.Team != types.SideA && req.Team != types.SideB:
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New(`team must be "A" or "B"`)))
		return
	}
	if err := validateIncrement(req.Increment); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	resp, err := h.deps.UpdateScore(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetScore handles GET /live-score/{match_id}.
func (h *LiveScoreHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.live_score"
	resp, err := h.deps.LiveScore(r.Context(), r.PathValue("match_id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
