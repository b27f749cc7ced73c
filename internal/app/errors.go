package service

import (
	"errors"
	"fmt"

	matchqueue "github.com/okian/rallyrate/internal/adapters/mq/queue"
)

var (
	// ErrNotStarted is returned by ingestion calls before Start. It matches
	// queue.ErrQueueClosed since no queue is accepting matches.
	ErrNotStarted = fmt.Errorf("service not started: %w", matchqueue.ErrQueueClosed)
	// ErrBackpressure is returned when the match queue is full.
	ErrBackpressure = errors.New("match queue is full")
)
