package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("match not found")
	ErrInvalidSide  = errors.New("invalid team side")
	ErrEmptyMatchID = errors.New("empty match id")
)
