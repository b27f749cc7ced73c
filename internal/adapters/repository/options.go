package repository

import "time"

// Option applies a configuration option to the ShardedResultStore.
type Option func(*ShardedResultStore)

// WithShardCount sets the number of independently locked shards.
func WithShardCount(n int) Option {
	return func(s *ShardedResultStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxPerShard bounds each shard; the oldest finished matches are
// evicted first once a shard is full. Zero disables the bound.
func WithMaxPerShard(n int) Option {
	return func(s *ShardedResultStore) {
		if n >= 0 {
			s.maxPerShard = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *ShardedResultStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
