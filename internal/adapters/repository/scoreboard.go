package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/rallyrate/internal/domain/model"
	"github.com/okian/rallyrate/internal/domain/types"
	"github.com/okian/rallyrate/pkg/metrics"
)

// MemoryScoreboard is an in-memory ScoreboardStore.
type MemoryScoreboard struct {
	mu     sync.RWMutex
	scores map[string]model.LiveScore
	now    func() time.Time
}

// NewScoreboard creates an empty scoreboard.
func NewScoreboard() *MemoryScoreboard {
	return &MemoryScoreboard{
		scores: make(map[string]model.LiveScore),
		now:    time.Now,
	}
}

// Init sets matchID to 0-0 and records the optional team aggregates.
func (b *MemoryScoreboard) Init(_ context.Context, matchID string, teamA, teamB *model.Aggregate) (model.LiveScore, error) {
	if matchID == "" {
		return model.LiveScore{}, ErrEmptyMatchID
	}
	ls := model.LiveScore{
		MatchID:   matchID,
		TeamA:     cloneAggregate(teamA),
		TeamB:     cloneAggregate(teamB),
		UpdatedAt: b.now(),
	}

	b.mu.Lock()
	b.scores[matchID] = ls
	n := len(b.scores)
	b.mu.Unlock()

	metrics.UpdateLiveScoreboards(n)
	return ls, nil
}

// Add adds increment to one side's score, flooring the result at zero.
func (b *MemoryScoreboard) Add(_ context.Context, matchID, side string, increment int) (model.LiveScore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls, ok := b.scores[matchID]
	if !ok {
		return model.LiveScore{}, fmt.Errorf("score %q: %w", matchID, ErrNotFound)
	}
	switch side {
	case types.SideA:
		ls.ScoreA = max(0, ls.ScoreA+increment)
	case types.SideB:
		ls.ScoreB = max(0, ls.ScoreB+increment)
	default:
		return model.LiveScore{}, fmt.Errorf("side %q: %w", side, ErrInvalidSide)
	}
	ls.UpdatedAt = b.now()
	b.scores[matchID] = ls
	metrics.RecordScoreUpdate()
	return ls, nil
}

// Get returns the current score of matchID.
func (b *MemoryScoreboard) Get(_ context.Context, matchID string) (model.LiveScore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ls, ok := b.scores[matchID]
	if !ok {
		return model.LiveScore{}, ErrNotFound
	}
	return ls, nil
}

// Count returns the number of live scoreboards.
func (b *MemoryScoreboard) Count(_ context.Context) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.scores)
}

func cloneAggregate(a *model.Aggregate) *model.Aggregate {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
