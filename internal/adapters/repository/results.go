package repository

import (
	"container/list"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/pkg/metrics"
)

const (
	defaultShardCount            = 16
	defaultMaxPerShard           = 10000
	defaultMetricsUpdateInterval = 5 * time.Second
)

type entry struct {
	rec  Record
	elem *list.Element
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*entry
	order   *list.List
}

// ShardedResultStore is an in-memory ResultStore. Match ids are spread
// over shards by hash so that workers completing different matches rarely
// contend on the same lock.
type ShardedResultStore struct {
	shards                []*shard
	shardCount            int
	maxPerShard           int
	metricsUpdateInterval time.Duration
	now                   func() time.Time
}

// NewResultStore creates a result store. Background metrics updates run
// until ctx is done.
func NewResultStore(ctx context.Context, opts ...Option) *ShardedResultStore {
	s := &ShardedResultStore{
		shardCount:            defaultShardCount,
		maxPerShard:           defaultMaxPerShard,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		now:                   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*entry), order: list.New()}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	go s.startMetricsUpdater(ctx)
	return s
}

func (s *ShardedResultStore) shardFor(matchID string) *shard {
	return s.shards[xxhash.Sum64String(matchID)%uint64(len(s.shards))]
}

// MarkPending registers a queued match. A match that is already known
// keeps its state.
func (s *ShardedResultStore) MarkPending(_ context.Context, matchID string, submittedAt time.Time) error {
	if matchID == "" {
		return ErrEmptyMatchID
	}
	sh := s.shardFor(matchID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.records[matchID]; ok {
		return nil
	}
	if s.maxPerShard > 0 && len(sh.records) >= s.maxPerShard {
		sh.evictOldestFinished()
	}
	e := &entry{rec: Record{MatchID: matchID, Status: types.StatusPending, SubmittedAt: submittedAt}}
	e.elem = sh.order.PushBack(matchID)
	sh.records[matchID] = e
	return nil
}

// Complete stores the outcome of a rated match.
func (s *ShardedResultStore) Complete(_ context.Context, matchID string, res model.RatingUpdateResult) error {
	return s.finish(matchID, func(r *Record) {
		r.Status = types.StatusDone
		r.Result = &res
	})
}

// Fail records the reason a match could not be rated.
func (s *ShardedResultStore) Fail(_ context.Context, matchID string, cause error) error {
	return s.finish(matchID, func(r *Record) {
		r.Status = types.StatusFailed
		if cause != nil {
			r.Err = cause.Error()
		}
	})
}

func (s *ShardedResultStore) finish(matchID string, set func(*Record)) error {
	sh := s.shardFor(matchID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.records[matchID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("complete %q: %w", matchID, ErrNotFound)
	}
	set(&e.rec)
	e.rec.CompletedAt = s.now()
	return nil
}

// Forget drops a match.
func (s *ShardedResultStore) Forget(_ context.Context, matchID string) {
	sh := s.shardFor(matchID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.records[matchID]; ok {
		sh.order.Remove(e.elem)
		delete(sh.records, matchID)
	}
}

// Get returns a copy of the stored record.
func (s *ShardedResultStore) Get(_ context.Context, matchID string) (Record, error) {
	sh := s.shardFor(matchID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	e, ok := sh.records[matchID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return e.rec, nil
}

// Count returns the number of stored matches across all shards.
func (s *ShardedResultStore) Count(_ context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

// ShardSizes returns the number of records per shard.
func (s *ShardedResultStore) ShardSizes() map[string]int {
	out := make(map[string]int, len(s.shards))
	for i, sh := range s.shards {
		sh.mu.RLock()
		out["shard_"+strconv.Itoa(i)] = len(sh.records)
		sh.mu.RUnlock()
	}
	return out
}

// evictOldestFinished must be called with sh.mu held. Pending matches are
// never evicted, so a shard full of pending matches may grow past its bound.
func (sh *shard) evictOldestFinished() {
	for el := sh.order.Front(); el != nil; el = el.Next() {
		id := el.Value.(string)
		if sh.records[id].rec.Status == types.StatusPending {
			continue
		}
		sh.order.Remove(el)
		delete(sh.records, id)
		return
	}
}

func (s *ShardedResultStore) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateResultsStored(s.Count(ctx))
		}
	}
}
