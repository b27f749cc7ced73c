package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/rallyrate/internal/adapters/mq/queue"
	worker "github.com/okian/rallyrate/internal/adapters/mq/worker"
	model "github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/rating"
	logging "github.com/okian/rallyrate/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 128)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockSink struct {
	mu       sync.Mutex
	done     map[string]model.RatingUpdateResult
	failed   map[string]error
	storeErr error
}

func newMockSink() *mockSink {
	return &mockSink{done: map[string]model.RatingUpdateResult{}, failed: map[string]error{}}
}

func (s *mockSink) Complete(_ context.Context, id string, res model.RatingUpdateResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storeErr != nil {
		return s.storeErr
	}
	s.done[id] = res
	return nil
}

func (s *mockSink) Fail(_ context.Context, id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = cause
	return nil
}

func (s *mockSink) result(id string) (model.RatingUpdateResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.done[id]
	return r, ok
}

func (s *mockSink) failure(id string) (error, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err, ok := s.failed[id]
	return err, ok
}

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.done)
}

type panickingRater struct{}

func (panickingRater) Update(model.Team, model.Team, model.MatchScore) model.RatingUpdateResult {
	panic("corrupt ratings")
}

func job(id string, a, b int) queue.Job {
	return queue.Job{
		MatchID: id,
		TeamA:   model.Team{{Mu: 25, Sigma: 8.33}, {Mu: 25, Sigma: 8.33}},
		TeamB:   model.Team{{Mu: 25, Sigma: 8.33}, {Mu: 25, Sigma: 8.33}},
		Score:   model.MatchScore{ScoreA: a, ScoreB: b},
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		sink := newMockSink()
		w := worker.NewInMemoryWorker(q, rating.NewUpdater(), sink, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a finished match is queued", func() {
			q.jobs <- job("m1", 11, 0)

			convey.Convey("Then its rating update reaches the sink", func() {
				convey.So(waitFor(func() bool { _, ok := sink.result("m1"); return ok }), convey.ShouldBeTrue)
				res, _ := sink.result("m1")
				convey.So(res.Explain.MarginMult, convey.ShouldEqual, 2.0)
				convey.So(res.TeamANew[0].Mu, convey.ShouldBeGreaterThan, 25)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully and a second call is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a rater that panics", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		sink := newMockSink()
		w := worker.NewInMemoryWorker(q, panickingRater{}, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- job("bad", 11, 3)
		q.jobs <- job("after", 11, 3)

		convey.Convey("Then the match is marked failed and the worker keeps going", func() {
			convey.So(waitFor(func() bool { _, ok := sink.failure("after"); return ok }), convey.ShouldBeTrue)
			err, _ := sink.failure("bad")
			convey.So(errors.Is(err, worker.ErrRatingPanic), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a sink that cannot store results", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		sink := newMockSink()
		sink.storeErr = errors.New("disk full")
		w := worker.NewInMemoryWorker(q, rating.NewUpdater(), sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- job("m1", 5, 11)
		_ = q.Close()

		convey.Convey("Then the worker drains the queue and stops", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(sink.count(), convey.ShouldEqual, 0)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		sink := newMockSink()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, rating.NewUpdater(), sink)

			convey.Convey("Then it defaults to the CPU count", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many matches are submitted concurrently", func() {
			pool := worker.NewPool(4, q, rating.NewUpdater(), sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const producers = 5
			const perProducer = 20
			var wg sync.WaitGroup
			for p := 0; p < producers; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for i := 0; i < perProducer; i++ {
						q.jobs <- job(fmt.Sprintf("m-%d-%d", p, i), 11, i%10)
					}
				}(p)
			}
			wg.Wait()

			convey.Convey("Then every match is rated exactly once", func() {
				convey.So(waitFor(func() bool { return sink.count() == producers*perProducer }), convey.ShouldBeTrue)
			})

			convey.Convey("And shutdown drains and returns", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer shutdownCancel()
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(sink.count(), convey.ShouldEqual, producers*perProducer)
			})
		})
	})
}
