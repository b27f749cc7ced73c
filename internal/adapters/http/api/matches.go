package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
)

// MatchDependencies are the asynchronous ingestion operations.
type MatchDependencies interface {
	// SubmitMatch queues a match for rating. Duplicate ids are acknowledged
	// with StatusDuplicate; a full queue is reported as an error.
	SubmitMatch(ctx context.Context, m model.MatchResult) (types.SubmitMatchResponse, error)
	MatchStatus(ctx context.Context, matchID string) (types.MatchStatus, error)
}

// MatchesHandler handles asynchronous match submissions.
type MatchesHandler struct {
	deps       MatchDependencies
	sigmaFloor float64
}

// NewMatchesHandler creates a new matches handler. Submitted players must
// have sigma >= sigmaFloor.
func NewMatchesHandler(deps MatchDependencies, sigmaFloor float64) *MatchesHandler {
	return &MatchesHandler{deps: deps, sigmaFloor: sigmaFloor}
}

// HandleSubmitMatch handles POST /matches.
func (h *MatchesHandler) HandleSubmitMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_match"
	var req types.SubmitMatchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	teamA, teamB, err := teamsFrom(req.Teams)
	if err == nil {
		err = validateRatedSigma(h.sigmaFloor, teamA, teamB)
	}
	if err == nil {
		err = validateScores(req.ScoreA, req.ScoreB)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := h.deps.SubmitMatch(r.Context(), model.MatchResult{
		MatchID: strings.TrimSpace(req.MatchID),
		TeamA:   teamA,
		TeamB:   teamB,
		Score:   model.MatchScore{ScoreA: req.ScoreA, ScoreB: req.ScoreB},
	})
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if ack.Status == types.StatusDuplicate {
		writeJSON(w, http.StatusOK, ack)
		return
	}
	writeJSON(w, http.StatusAccepted, ack)
}

// HandleGetMatch handles GET /matches/{id}.
func (h *MatchesHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_status"
	id := r.PathValue("id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.MatchStatus(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
