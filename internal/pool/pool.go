package pool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/JSH-Team/domprobe/internal/browser"
	"github.com/JSH-Team/domprobe/internal/utils/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultEvalTimeout bounds how long a session waits for a script result
// when the pool was built without an explicit EvalTimeout.
const DefaultEvalTimeout = 30 * time.Second

// availableParallelism caps the number of processes a pool spawns.
var availableParallelism = runtime.NumCPU

// Options configures a Pool.
type Options struct {
	// Concurrency is the requested number of worker processes. It is clamped
	// to [1, NumCPU].
	Concurrency int

	// Existing, when non-empty, is adopted verbatim instead of spawning new
	// processes. The pool never shuts adopted processes down.
	Existing []browser.Process

	// Launcher spawns workers. Defaults to a headless rod launcher.
	Launcher browser.Launcher

	// EvalTimeout is the default advisory timeout of Session.Evaluate.
	EvalTimeout time.Duration
}

// Instance is one worker process and the number of sessions open on it.
type Instance struct {
	index int
	proc  browser.Process
	open  int
}

// Index is the position of the instance in pool order.
func (i *Instance) Index() int {
	return i.index
}

// InstanceStats is a point-in-time view of an instance's load.
type InstanceStats struct {
	Index        int
	OpenSessions int
}

// Pool owns a fixed set of worker instances and hands out sessions on the
// least loaded one.
type Pool struct {
	// mu guards every instance counter and the closed flag. Selection spans
	// all instances, so a single lock is used rather than one per instance.
	mu        sync.Mutex
	instances []*Instance
	owned     bool
	closed    bool

	evalTimeout time.Duration
}

// New builds a pool, either by adopting opts.Existing or by spawning
// clamp(opts.Concurrency, 1, NumCPU) worker processes. Every spawned process
// ignores certificate errors and accepts any TLS protocol version. If any
// process fails to start, the ones that did start are closed and an
// *InitializationError is returned.
func New(ctx context.Context, opts Options) (*Pool, error) {
	evalTimeout := opts.EvalTimeout
	if evalTimeout <= 0 {
		evalTimeout = DefaultEvalTimeout
	}

	if len(opts.Existing) > 0 {
		p := &Pool{evalTimeout: evalTimeout}
		for i, proc := range opts.Existing {
			p.instances = append(p.instances, &Instance{index: i, proc: proc})
		}
		logger.Debug("Adopted %d existing browser workers", len(p.instances))
		return p, nil
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.NewRodLauncher("", false)
	}

	n := clamp(opts.Concurrency, 1, availableParallelism())
	launchOpts := browser.LaunchOptions{
		IgnoreTLSErrors: true,
		TLSProtocol:     browser.TLSProtocolAny,
	}

	procs := make([]browser.Process, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			proc, err := launcher.Launch(gctx, launchOpts)
			if err != nil {
				return &InitializationError{Index: i, Err: err}
			}
			procs[i] = proc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, proc := range procs {
			if proc == nil {
				continue
			}
			if closeErr := proc.Close(); closeErr != nil {
				logger.Error("Failed to close browser worker after init failure: %v", closeErr)
			}
		}
		return nil, err
	}

	p := &Pool{owned: true, evalTimeout: evalTimeout}
	for i, proc := range procs {
		p.instances = append(p.instances, &Instance{index: i, proc: proc})
	}

	logger.Info("Started %d browser workers", n)
	return p, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Size returns the number of instances in the pool.
func (p *Pool) Size() int {
	return len(p.instances)
}

// Acquire reserves a session slot on the instance with the fewest open
// sessions. Ties go to the instance that comes first in pool order.
func (p *Pool) Acquire() (*Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolShutdown
	}
	if len(p.instances) == 0 {
		return nil, errors.New("pool has no instances")
	}

	best := p.instances[0]
	for _, inst := range p.instances[1:] {
		if inst.open < best.open {
			best = inst
		}
	}
	best.open++

	logger.Debug("Acquired slot on worker %d (%d open)", best.index, best.open)
	return best, nil
}

// Release returns a slot taken by Acquire. Each acquired slot must be
// released exactly once; releasing more often is a caller bug and leaves the
// counter at zero.
func (p *Pool) Release(inst *Instance) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst.open == 0 {
		logger.Warn("Release on worker %d with no open sessions", inst.index)
		return
	}
	inst.open--
}

// Stats returns the current load of every instance in pool order.
func (p *Pool) Stats() []InstanceStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]InstanceStats, len(p.instances))
	for i, inst := range p.instances {
		stats[i] = InstanceStats{Index: inst.index, OpenSessions: inst.open}
	}
	return stats
}

// Shutdown tells every owned worker process to exit. It does not wait for
// open sessions; callers drain first or accept that in-flight work fails.
// Adopted processes are left running. Only the first call has any effect.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	instances := p.instances
	owned := p.owned
	p.mu.Unlock()

	if !owned {
		return nil
	}

	var errs []error
	for _, inst := range instances {
		if err := inst.proc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("worker %d: %w", inst.index, err))
		}
	}

	logger.Info("Stopped %d browser workers", len(instances))
	return errors.Join(errs...)
}

// NewSession opens a blank page on the least loaded instance. The session
// starts in StateCreated and must be loaded before it can be evaluated.
func (p *Pool) NewSession(ctx context.Context) (*Session, error) {
	inst, err := p.Acquire()
	if err != nil {
		return nil, err
	}

	page, err := inst.proc.NewPage(ctx)
	if err != nil {
		p.Release(inst)
		return nil, fmt.Errorf("failed to open page on worker %d: %w", inst.index, err)
	}

	return newSession(p, inst, page), nil
}

// LoadFromURL opens a session and navigates it to url, then holds it for the
// settle delay before returning it. A failed navigation closes the session
// and returns a *NavigationError.
func (p *Pool) LoadFromURL(ctx context.Context, url string, settle time.Duration) (*Session, error) {
	s, err := p.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.LoadURL(ctx, url, settle); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// LoadFromRaw opens a session whose document is markup, then holds it for
// the settle delay so inline scripts get a chance to run.
func (p *Pool) LoadFromRaw(ctx context.Context, markup string, settle time.Duration) (*Session, error) {
	s, err := p.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.LoadRaw(ctx, markup, settle); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// LoadFromFile reads an HTML file and loads it like LoadFromRaw. No slot is
// taken when the file cannot be read.
func (p *Pool) LoadFromFile(ctx context.Context, path string, settle time.Duration) (*Session, error) {
	markup, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.LoadFromRaw(ctx, string(markup), settle)
}
