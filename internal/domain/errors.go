package domain

import (
	"errors"
	"fmt"
)

// Registry-level sentinel errors. Both are handled as rejections by the
// callers, never as fatal conditions.
var (
	// ErrDuplicateSession is returned when a start event names a call id
	// that is already active.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrUnknownSession is returned when an event names a call id with no
	// registered session.
	ErrUnknownSession = errors.New("unknown session")

	// ErrSessionClosed is returned when an event targets a session that has
	// already been torn down.
	ErrSessionClosed = errors.New("session closed")
)

// Stage identifies which external capability an adapter error came from.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageComplete   Stage = "complete"
	StageSynthesize Stage = "synthesize"
)

// AdapterError wraps a failure from one of the external adapters. The
// pipeline recovers from these locally: log, drop the turn's reply, keep
// the call alive.
type AdapterError struct {
	Stage Stage
	Err   error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s adapter: %v", e.Stage, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// NewAdapterError wraps err as an adapter failure at the given stage.
func NewAdapterError(stage Stage, err error) *AdapterError {
	return &AdapterError{Stage: stage, Err: err}
}

// PersistenceError reports a failed flush of the response cache. The
// in-memory cache remains updated when this is returned.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist cache to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
