// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	queue "github.com/okian/rallyrate/internal/adapters/mq/queue"
	repository "github.com/okian/rallyrate/internal/adapters/repository"
	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RatingDependencies
	MatchDependencies
	LiveScoreDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	ratingsHandler   *RatingsHandler
	matchesHandler   *MatchesHandler
	liveScoreHandler *LiveScoreHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		ratingsHandler:   NewRatingsHandler(deps),
		matchesHandler:   NewMatchesHandler(deps, deps.SigmaFloor()),
		liveScoreHandler: NewLiveScoreHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /update_ratings", MetricsMiddleware(s.ratingsHandler.HandleUpdateRatings, "update_ratings"))
	mux.HandleFunc("POST /win_probability", MetricsMiddleware(s.ratingsHandler.HandleWinProbability, "win_probability"))
	mux.HandleFunc("POST /live_probability", MetricsMiddleware(s.ratingsHandler.HandleLiveProbability, "live_probability"))

	mux.HandleFunc("POST /matches", MetricsMiddleware(s.matchesHandler.HandleSubmitMatch, "matches"))
	mux.HandleFunc("GET /matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGetMatch, "match_status"))

	mux.HandleFunc("POST /live-score/init-score", MetricsMiddleware(s.liveScoreHandler.HandleInitScore, "init_score"))
	mux.HandleFunc("POST /live-score/update-score", MetricsMiddleware(s.liveScoreHandler.HandleUpdateScore, "update_score"))
	mux.HandleFunc("GET /live-score/{match_id}", MetricsMiddleware(s.liveScoreHandler.HandleGetScore, "live_score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before committing the status, so a value that cannot
// be encoded (a NaN, say) turns into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{
			Code:    "internal_error",
			Message: fmt.Sprintf("encode response: %v", err),
		})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decode reads a single JSON document from the request body.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeFailure translates upstream errors into HTTP responses.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidSide),
		errors.Is(err, repository.ErrEmptyMatchID):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, queue.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, queue.ErrQueueClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// teamsFrom validates both rosters of a request.
func teamsFrom(t types.Teams) (model.Team, model.Team, error) {
	a, err := teamFrom("teamA", t.TeamA)
	if err != nil {
		return model.Team{}, model.Team{}, err
	}
	b, err := teamFrom("teamB", t.TeamB)
	if err != nil {
		return model.Team{}, model.Team{}, err
	}
	return a, b, nil
}
