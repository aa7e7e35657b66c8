package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrClosedSession is returned for every operation issued on a session
	// after Close.
	ErrClosedSession = errors.New("session is closed")

	// ErrNotLoaded is returned when a session is evaluated before any
	// content was loaded into it.
	ErrNotLoaded = errors.New("session has no content loaded")

	// ErrNoResult means the in-page script completed but returned null or
	// undefined. It is not a failure of the script.
	ErrNoResult = errors.New("evaluation returned no result")

	// ErrEvaluationTimeout means the caller stopped waiting. The worker may
	// still be running the script.
	ErrEvaluationTimeout = errors.New("evaluation timed out")

	// ErrPoolShutdown is returned when a session is requested from a pool
	// that has been shut down.
	ErrPoolShutdown = errors.New("pool is shut down")
)

// InitializationError reports a worker process that failed to start.
type InitializationError struct {
	Index int
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to start browser worker %d: %v", e.Index, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// NavigationError reports a page that could not be opened.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("could not open %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// EvaluationError wraps an exception thrown by the in-page script.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
