// Package worker rates queued matches in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/rallyrate/internal/adapters/mq/queue"
	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/pkg/logger"
	"github.com/okian/rallyrate/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// ErrRatingPanic is reported for a match whose update panicked.
var ErrRatingPanic = errors.New("rating update panicked")

// Rater computes new ratings for a finished match.
type Rater interface {
	Update(teamA, teamB model.Team, score model.MatchScore) model.RatingUpdateResult
}

// Sink receives the outcome of every job.
type Sink interface {
	Complete(ctx context.Context, matchID string, res model.RatingUpdateResult) error
	Fail(ctx context.Context, matchID string, cause error) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue drains.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	rater Rater
	sink  Sink
	name  string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, rater Rater, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		rater:    rater,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error rating match", logger.String("matchID", j.MatchID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) (err error) { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	res, err := w.rate(j)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rating_panic")
		if ferr := w.sink.Fail(ctx, j.MatchID, err); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}
	metrics.RecordRatingUpdate(float64(time.Since(start).Microseconds()) / 1000.0)

	if err := w.sink.Complete(ctx, j.MatchID, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store result: %w", err)
	}
	metrics.RecordMatchRated()
	w.logger.Debug(ctx, "match rated",
		logger.String("matchID", j.MatchID),
		logger.Float64("pWinA", res.PWinA),
		logger.Float64("deltaTeamA", res.Explain.DeltaTeamA),
	)
	return nil
}

// rate shields the loop from a panicking rater so one bad job cannot take
// the worker down.
func (w *InMemoryWorker) rate(j queue.Job) (res model.RatingUpdateResult, err error) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRatingPanic, r)
		}
	}()
	return w.rater.Update(j.TeamA, j.TeamB, j.Score), nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count defaults to twice
// the number of CPUs.
func NewPool(workerCount int, q Queue, rater Rater, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, rater, sink, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets the workers drain what is left and waits
// for them until ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
