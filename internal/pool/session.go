package pool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JSH-Team/domprobe/internal/browser"
	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"github.com/google/uuid"
	"github.com/ysmood/gson"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateCreated State = iota
	StateContentLoaded
	StateEvaluating
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateContentLoaded:
		return "content-loaded"
	case StateEvaluating:
		return "evaluating"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// EvalRequest is a single script evaluation.
type EvalRequest struct {
	// Script is a JavaScript function expression, e.g. "(a, b) => a + b".
	Script string
	Args   []interface{}

	// Timeout is advisory; zero waits for the worker or the context.
	Timeout time.Duration
}

// Session is one page opened on a pool instance. A session is driven by one
// caller at a time: evaluations are serialized, and closing a session while
// an evaluation is still running on the worker has no defined outcome.
type Session struct {
	id   string
	pool *Pool
	inst *Instance
	page browser.Page

	evalTimeout time.Duration

	// opMu serializes load, evaluate and close. mu only guards state, so
	// State can be read while an evaluation is running.
	opMu  sync.Mutex
	mu    sync.Mutex
	state State
}

func newSession(p *Pool, inst *Instance, page browser.Page) *Session {
	return &Session{
		id:          uuid.NewString(),
		pool:        p,
		inst:        inst,
		page:        page,
		evalTimeout: p.evalTimeout,
		state:       StateCreated,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Instance returns the pool instance the session was opened on.
func (s *Session) Instance() *Instance {
	return s.inst
}

// State returns the current lifecycle state. It does not wait for a running
// evaluation, which reports StateEvaluating.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadURL navigates the page to url and then waits for settle. The wait is a
// flat delay; it does not detect network idle or a stable DOM.
func (s *Session) LoadURL(ctx context.Context, url string, settle time.Duration) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.State() == StateClosed {
		return ErrClosedSession
	}

	if err := s.page.Navigate(ctx, url); err != nil {
		logger.Debug("Navigation to %s failed on worker %d: %v", url, s.inst.index, err)
		return &NavigationError{URL: url, Err: err}
	}

	if err := sleep(ctx, settle); err != nil {
		return err
	}
	s.setState(StateContentLoaded)
	return nil
}

// LoadRaw replaces the document with markup and then waits for settle.
func (s *Session) LoadRaw(ctx context.Context, markup string, settle time.Duration) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.State() == StateClosed {
		return ErrClosedSession
	}

	if err := s.page.SetContent(ctx, markup); err != nil {
		return fmt.Errorf("failed to set page content: %w", err)
	}

	if err := sleep(ctx, settle); err != nil {
		return err
	}
	s.setState(StateContentLoaded)
	return nil
}

// Evaluate runs script in the page with the pool's default timeout.
// See EvaluateRequest for the error contract.
func (s *Session) Evaluate(ctx context.Context, script string, args ...interface{}) (gson.JSON, error) {
	return s.EvaluateRequest(ctx, EvalRequest{
		Script:  script,
		Args:    args,
		Timeout: s.evalTimeout,
	})
}

// EvaluateRequest runs req.Script in the page and returns its value.
//
// A script that throws yields an *EvaluationError; a failure talking to the
// worker is returned wrapped but is not one. A script that returns
// null or undefined yields ErrNoResult, which callers should treat as an
// empty answer rather than a failure.
//
// The timeout only bounds how long the caller waits. The worker is not told
// to stop, so after ErrEvaluationTimeout the script may still be running in
// the page.
func (s *Session) EvaluateRequest(ctx context.Context, req EvalRequest) (gson.JSON, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return gson.JSON{}, ErrClosedSession
	case StateCreated:
		s.mu.Unlock()
		return gson.JSON{}, ErrNotLoaded
	}
	s.state = StateEvaluating
	s.mu.Unlock()

	defer s.setState(StateContentLoaded)

	type outcome struct {
		value gson.JSON
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := s.page.Eval(ctx, req.Script, req.Args...)
		done <- outcome{value: value, err: err}
	}()

	var timeout <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-done:
		if out.err != nil {
			var scriptErr *browser.ScriptError
			if errors.As(out.err, &scriptErr) {
				return gson.JSON{}, &EvaluationError{Err: out.err}
			}
			return gson.JSON{}, fmt.Errorf("evaluation on worker %d: %w", s.inst.index, out.err)
		}
		if noValue(out.value) {
			return gson.JSON{}, ErrNoResult
		}
		return out.value, nil
	case <-timeout:
		logger.Warn("Evaluation on session %s still pending after %v", s.id, req.Timeout)
		return gson.JSON{}, ErrEvaluationTimeout
	case <-ctx.Done():
		return gson.JSON{}, ctx.Err()
	}
}

// Close releases the session's slot and closes its page. Every later
// operation, including another Close, returns ErrClosedSession.
func (s *Session) Close() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosedSession
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.pool.Release(s.inst)

	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// noValue reports whether v holds null or nothing. Raw bytes are inspected
// without parsing them, since a parsed gson value can no longer be
// unmarshalled.
func noValue(v gson.JSON) bool {
	switch raw := v.Raw().(type) {
	case nil:
		return true
	case []byte:
		trimmed := bytes.TrimSpace(raw)
		return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
	}
	return false
}

// sleep waits for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsNoResult reports whether err means the script returned nothing.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrNoResult)
}
