// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	matchqueue "github.com/okian/rallyrate/internal/adapters/mq/queue"
	workerpool "github.com/okian/rallyrate/internal/adapters/mq/worker"
	repository "github.com/okian/rallyrate/internal/adapters/repository"
	"github.com/okian/rallyrate/internal/domain/dedupe"
	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/rating"
	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/internal/domain/variate"
	"github.com/okian/rallyrate/internal/domain/winprob"
	"github.com/okian/rallyrate/pkg/logger"
	"github.com/okian/rallyrate/pkg/metrics"
)

const (
	defaultQueueSize  = 10_000
	defaultDedupeSize = 100_000
	defaultShardCount = 16
	stopTimeout       = 30 * time.Second
)

// Service implements the API dependencies for the rating engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	updater    *rating.Updater
	estimator  *winprob.Estimator
	deduper    dedupe.Deduper
	matchQueue *matchqueue.InMemoryQueue
	results    *repository.ShardedResultStore
	scoreboard *repository.MemoryScoreboard
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	shardCount    int
	seed          int64
	legacyLive    bool
	ratingOpts    []rating.Option
	estimatorOpts []winprob.Option

	// State
	started bool
	cancel  context.CancelFunc
	draws   atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of rating workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the match queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many match ids are remembered for deduplication.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of result store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithRandomSeed makes live estimates reproducible. Zero means time-seeded.
func WithRandomSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLegacyLiveFields swaps p_a and p_b in live responses the way older
// clients expect them.
func WithLegacyLiveFields(enabled bool) Option {
	return func(s *Service) {
		s.legacyLive = enabled
	}
}

// WithRatingOptions forwards options to the rating updater.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.ratingOpts = append(s.ratingOpts, opts...)
	}
}

// WithEstimatorOptions forwards options to the live estimator.
func WithEstimatorOptions(opts ...winprob.Option) Option {
	return func(s *Service) {
		s.estimatorOpts = append(s.estimatorOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. The numeric engine is usable right away;
// asynchronous ingestion needs Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		shardCount:  defaultShardCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updater = rating.NewUpdater(s.ratingOpts...)
	s.estimator = winprob.NewEstimator(s.estimatorOpts...)
	s.scoreboard = repository.NewScoreboard()
	return s
}

// Start initializes the ingestion pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting rating service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.matchQueue = matchqueue.NewInMemoryQueue(matchqueue.WithCapacity(s.queueSize))
	s.results = repository.NewResultStore(runCtx, repository.WithShardCount(s.shardCount))
	s.workerPool = workerpool.NewPool(s.workerCount, s.matchQueue, s.updater, s.results)
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shards", s.shardCount),
		logger.Bool("legacyLiveFields", s.legacyLive),
	)
	return nil
}

// Stop drains the queue and shuts the workers down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping rating service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "rating service stopped")
}

// UpdateRatings applies the post-match rating update synchronously.
func (s *Service) UpdateRatings(_ context.Context, teamA, teamB model.Team, score model.MatchScore) model.RatingUpdateResult {
	start := time.Now()
	res := s.updater.Update(teamA, teamB, score)
	metrics.RecordRatingUpdate(float64(time.Since(start).Microseconds()) / 1e3)
	return res
}

// SigmaFloor returns the smallest sigma the rating update keeps.
func (s *Service) SigmaFloor() float64 { return s.updater.SigmaFloor() }

// WinProbability returns the pre-match win probabilities.
func (s *Service) WinProbability(_ context.Context, teamA, teamB model.Team) types.WinProbabilityResponse {
	pA, pB := s.updater.WinProbability(teamA, teamB)
	metrics.RecordWinProbability()
	return types.WinProbabilityResponse{PTeamA: pA, PTeamB: pB}
}

// LiveProbability estimates the win probability from a running score.
func (s *Service) LiveProbability(ctx context.Context, req types.LiveProbabilityRequest) (types.LiveProbabilityResponse, error) {
	start := time.Now()
	est, err := s.estimator.Live(ctx, s.generator(), req.MuA, req.SigmaA, req.MuB, req.SigmaB, req.ScoreA, req.ScoreB)
	if err != nil {
		metrics.RecordLiveError()
		return types.LiveProbabilityResponse{}, fmt.Errorf("live probability: %w", err)
	}
	metrics.RecordLiveEvaluation(est.Samples, est.States, float64(time.Since(start).Microseconds())/1e3)

	resp := types.LiveProbabilityResponse{PA: est.PA, PB: est.PB, Samples: est.Samples, StdDev: est.StdDev}
	if s.legacyLive {
		resp.PA, resp.PB = est.PB, est.PA
	}
	return resp, nil
}

// generator returns a fresh variate generator for one live evaluation.
func (s *Service) generator() *variate.Generator {
	n := s.draws.Add(1)
	if s.seed != 0 {
		return variate.NewSeeded(s.seed + n)
	}
	return variate.NewSeeded(time.Now().UnixNano() + n)
}

// SubmitMatch queues a finished match for asynchronous rating. Resubmitted
// ids are acknowledged as duplicates and never rated twice.
func (s *Service) SubmitMatch(ctx context.Context, m model.MatchResult) (types.SubmitMatchResponse, error) { //nolint:gocritic // hugeParam: matches travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.SubmitMatchResponse{}, ErrNotStarted
	}
	if m.MatchID == "" {
		m.MatchID = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, m.MatchID) {
		metrics.RecordMatchDuplicate()
		s.logger.Debug(ctx, "duplicate match detected, skipping", logger.String("matchID", m.MatchID))
		return types.SubmitMatchResponse{MatchID: m.MatchID, Status: types.StatusDuplicate}, nil
	}
	if m.SubmittedAt.IsZero() {
		m.SubmittedAt = time.Now()
	}
	if err := s.results.MarkPending(ctx, m.MatchID, m.SubmittedAt); err != nil {
		s.deduper.Unrecord(ctx, m.MatchID)
		return types.SubmitMatchResponse{}, fmt.Errorf("mark %q pending: %w", m.MatchID, err)
	}
	if err := s.matchQueue.Enqueue(ctx, m); err != nil {
		s.deduper.Unrecord(ctx, m.MatchID)
		s.results.Forget(ctx, m.MatchID)
		if errors.Is(err, matchqueue.ErrQueueFull) {
			return types.SubmitMatchResponse{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.SubmitMatchResponse{}, fmt.Errorf("enqueue %q: %w", m.MatchID, err)
	}
	metrics.RecordMatchSubmitted()
	return types.SubmitMatchResponse{MatchID: m.MatchID, Status: types.StatusAccepted}, nil
}

// MatchStatus reports the state of a submitted match.
func (s *Service) MatchStatus(ctx context.Context, matchID string) (types.MatchStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.results == nil {
		return types.MatchStatus{}, ErrNotStarted
	}
	rec, err := s.results.Get(ctx, matchID)
	if err != nil {
		return types.MatchStatus{}, err
	}
	return types.MatchStatus{MatchID: rec.MatchID, Status: rec.Status, Result: rec.Result}, nil
}

// InitScore starts a live scoreboard at 0-0.
func (s *Service) InitScore(ctx context.Context, req types.InitScoreRequest) (types.LiveScoreResponse, error) {
	score, err := s.scoreboard.Init(ctx, req.MatchID, req.TeamA, req.TeamB)
	if err != nil {
		return types.LiveScoreResponse{}, err
	}
	return s.liveScore(ctx, score)
}

// UpdateScore adds points to one side of a live scoreboard.
func (s *Service) UpdateScore(ctx context.Context, req types.UpdateScoreRequest) (types.LiveScoreResponse, error) {
	score, err := s.scoreboard.Add(ctx, req.MatchID, req.Team, req.Increment)
	if err != nil {
		return types.LiveScoreResponse{}, err
	}
	return s.liveScore(ctx, score)
}

// LiveScore reads a live scoreboard.
func (s *Service) LiveScore(ctx context.Context, matchID string) (types.LiveScoreResponse, error) {
	score, err := s.scoreboard.Get(ctx, matchID)
	if err != nil {
		return types.LiveScoreResponse{}, err
	}
	return s.liveScore(ctx, score)
}

func (s *Service) liveScore(ctx context.Context, score model.LiveScore) (types.LiveScoreResponse, error) { //nolint:gocritic // hugeParam
	resp := types.LiveScoreResponse{Success: true, Score: score}
	if score.TeamA == nil || score.TeamB == nil {
		return resp, nil
	}
	prob, err := s.LiveProbability(ctx, types.LiveProbabilityRequest{
		MuA:    score.TeamA.Mu,
		SigmaA: score.TeamA.Sigma,
		MuB:    score.TeamB.Mu,
		SigmaB: score.TeamB.Sigma,
		ScoreA: score.ScoreA,
		ScoreB: score.ScoreB,
	})
	if err != nil {
		return types.LiveScoreResponse{}, err
	}
	resp.Probability = &prob
	return resp, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"dedupeSize":       s.dedupeSize,
		"liveSamples":      s.estimator.Samples(),
		"legacyLiveFields": s.legacyLive,
		"liveScoreboards":  s.scoreboard.Count(ctx),
	}

	if s.started {
		queueLen := s.matchQueue.Len(ctx)
		stored := s.results.Count(ctx)

		stats["queueLength"] = queueLen
		stats["resultsStored"] = stored
		stats["dedupeEntries"] = s.deduper.Size()
		stats["shards"] = s.results.ShardSizes()

		metrics.UpdateResultsStored(stored)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}
	return stats
}
