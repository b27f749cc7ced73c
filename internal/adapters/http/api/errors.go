package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
)

// opError carries the failing operation, an error kind and the cause.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	switch {
	case e.err == nil:
		return e.op + ": " + e.kind.Error()
	case e.kind == nil:
		return e.op + ": " + e.err.Error()
	default:
		return e.op + ": " + e.kind.Error() + ": " + e.err.Error()
	}
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap prefixes err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind tags err with kind so that errors.Is matches both.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}
