package probe

import (
	"context"
	"sync"
	"time"

	"github.com/JSH-Team/domprobe/internal/pool"
	"github.com/JSH-Team/domprobe/internal/storage"
)

// ProbeJob is one target waiting for a worker.
type ProbeJob struct {
	Target  Target
	Context context.Context
}

// Result is what a worker produced for a job. Report.Error mirrors Err so
// that failures are persisted alongside successes.
type Result struct {
	Report     storage.Report
	ReportPath string
	Instance   int
	Duration   time.Duration
	Err        error
}

// Options configures a ProbeWorkerPool.
type Options struct {
	Workers   int
	QueueSize int

	// Settle is the delay applied after every page load.
	Settle time.Duration

	// Media is added to every target's media allow-list.
	Media []string

	// ReportsDir receives one YAML report per job. Empty disables saving.
	ReportsDir string
}

// ProbeWorkerPool runs probe jobs concurrently against one browser pool.
type ProbeWorkerPool struct {
	workers   int
	browsers  *pool.Pool
	opts      Options
	jobQueue  chan ProbeJob
	results   chan Result
	workerWg  sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	mu        sync.RWMutex
}
