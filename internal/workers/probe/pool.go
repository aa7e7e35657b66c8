package probe

import (
	"context"
	"fmt"

	"github.com/JSH-Team/domprobe/internal/pool"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
)

// NewProbeWorkerPool creates a probe worker pool on top of browsers. Jobs run
// under a context derived from ctx, so cancelling ctx aborts them.
func NewProbeWorkerPool(ctx context.Context, browsers *pool.Pool, opts Options) *ProbeWorkerPool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &ProbeWorkerPool{
		workers:   opts.Workers,
		browsers:  browsers,
		opts:      opts,
		jobQueue:  make(chan ProbeJob, opts.QueueSize),
		results:   make(chan Result, opts.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		isRunning: false,
	}
}

// Start initializes and starts the probe workers
func (p *ProbeWorkerPool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("probe worker pool is already running")
	}

	for i := 0; i < p.workers; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}

	p.isRunning = true
	return nil
}

// Stop cancels in-flight jobs, drops queued ones and waits for the workers.
// The results channel is closed afterwards.
func (p *ProbeWorkerPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return nil
	}

	p.cancel()
	close(p.jobQueue)
	p.workerWg.Wait()
	close(p.results)

	p.isRunning = false
	return nil
}

// Drain stops accepting jobs, lets the workers finish everything already
// queued and then closes the results channel. Results must be consumed
// concurrently or Drain can block on a full results buffer.
func (p *ProbeWorkerPool) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return nil
	}

	close(p.jobQueue)
	p.workerWg.Wait()
	close(p.results)
	p.cancel()

	p.isRunning = false
	return nil
}

// Results delivers one Result per processed job.
func (p *ProbeWorkerPool) Results() <-chan Result {
	return p.results
}

// GetQueueSize returns the current number of jobs in the queue
func (p *ProbeWorkerPool) GetQueueSize() int {
	return len(p.jobQueue)
}

// GetAvailableSpace returns the available space in the queue
func (p *ProbeWorkerPool) GetAvailableSpace() int {
	return cap(p.jobQueue) - len(p.jobQueue)
}

// SubmitJob queues a single target without blocking.
func (p *ProbeWorkerPool) SubmitJob(target Target) error {
	return p.SubmitJobs([]Target{target})
}

// SubmitJobs queues targets without blocking. Every target is validated
// before anything is queued; the batch is rejected when it does not fit.
func (p *ProbeWorkerPool) SubmitJobs(targets []Target) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.isRunning {
		return fmt.Errorf("probe worker pool is not running")
	}

	if len(targets) == 0 {
		return nil
	}

	for i, target := range targets {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}

	availableSpace := p.GetAvailableSpace()
	if len(targets) > availableSpace {
		return fmt.Errorf("not enough space in probe queue: need %d slots, have %d available", len(targets), availableSpace)
	}

	successCount := 0
	for _, target := range targets {
		job := ProbeJob{
			Target:  target,
			Context: p.ctx,
		}

		select {
		case p.jobQueue <- job:
			successCount++
		case <-p.ctx.Done():
			return fmt.Errorf("added %d/%d jobs before error: worker pool is shutting down", successCount, len(targets))
		default:
			return fmt.Errorf("added %d/%d jobs before error: probe queue became full while adding %s", successCount, len(targets), target.Source())
		}
	}

	return nil
}

// worker is the main worker function that processes probe jobs
func (p *ProbeWorkerPool) worker(workerID int) {
	defer p.workerWg.Done()

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}

			result := p.processJob(workerID, job)

			select {
			case p.results <- result:
			case <-p.ctx.Done():
				logger.Debug("Probe Worker %d dropped result for %s", workerID, job.Target.Source())
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}
