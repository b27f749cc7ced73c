// Package repository holds the in-memory state of the service: the status
// of asynchronously rated matches and the running scores of live matches.
// Player ratings are not stored; they belong to the caller.
package repository

import (
	"context"
	"time"

	"github.com/okian/rallyrate/internal/domain/model"
)

// Record is the stored state of one submitted match.
type Record struct {
	MatchID     string
	Status      string
	Result      *model.RatingUpdateResult
	Err         string
	SubmittedAt time.Time
	CompletedAt time.Time
}

// ResultStore tracks asynchronous rating jobs by match id.
type ResultStore interface {
	// MarkPending registers a queued match.
	MarkPending(ctx context.Context, matchID string, submittedAt time.Time) error
	// Complete stores the rating outcome of a match.
	Complete(ctx context.Context, matchID string, res model.RatingUpdateResult) error
	// Fail records that a match could not be rated.
	Fail(ctx context.Context, matchID string, cause error) error
	// Forget drops a match, used when a submission is rolled back.
	Forget(ctx context.Context, matchID string)
	// Get returns ErrNotFound for unknown ids.
	Get(ctx context.Context, matchID string) (Record, error)
	Count(ctx context.Context) int
}

// ScoreboardStore keeps running scores of matches in progress.
type ScoreboardStore interface {
	// Init sets a match to 0-0, replacing any previous score.
	Init(ctx context.Context, matchID string, teamA, teamB *model.Aggregate) (model.LiveScore, error)
	// Add adds increment points to side "A" or "B". The score never drops
	// below zero. Returns ErrNotFound for unknown matches.
	Add(ctx context.Context, matchID, side string, increment int) (model.LiveScore, error)
	Get(ctx context.Context, matchID string) (model.LiveScore, error)
	Count(ctx context.Context) int
}
