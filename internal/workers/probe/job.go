package probe

import (
	"context"
	"time"

	"github.com/JSH-Team/domprobe/internal/dom"
	"github.com/JSH-Team/domprobe/internal/pool"
	"github.com/JSH-Team/domprobe/internal/storage"
	htmlutils "github.com/JSH-Team/domprobe/internal/utils/html"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
)

// processJob processes a single probe job
func (p *ProbeWorkerPool) processJob(workerID int, job ProbeJob) Result {
	startTime := time.Now()
	target := job.Target

	ctx := job.Context
	if ctx == nil {
		ctx = p.ctx
	}

	logger.Debug("Probe Worker %d started processing %s", workerID, target.Source())

	result := Result{Instance: -1}
	result.Report, result.Instance, result.Err = Probe(ctx, p.browsers, target, p.opts.Settle, p.opts.Media)
	if result.Err != nil {
		logger.Error("Probe Worker %d failed to process %s: %v", workerID, target.Source(), result.Err)
		result.Report.Error = result.Err.Error()
	}

	if p.opts.ReportsDir != "" {
		path, err := storage.SaveReport(p.opts.ReportsDir, result.Report)
		if err != nil {
			logger.Error("Probe Worker %d failed to save report for %s: %v", workerID, target.Source(), err)
		} else {
			result.ReportPath = path
		}
	}

	result.Duration = time.Since(startTime)
	l := logger.With(map[string]interface{}{
		"worker":   workerID,
		"instance": result.Instance,
		"matched":  len(result.Report.Matched),
	})
	l.Debug().Dur("took", result.Duration).Msgf("Probe finished %s", target.Source())
	return result
}

// Probe runs one acquire, load, query, close chain for target and returns
// the report along with the index of the browser instance that served it.
// The session is always closed, so the instance's slot is released even when
// a query fails.
func Probe(ctx context.Context, browsers *pool.Pool, target Target, settle time.Duration, media []string) (storage.Report, int, error) {
	report := storage.Report{
		Name:        target.Name,
		Target:      target.Source(),
		Candidates:  len(target.Selectors),
		Stylesheets: []string{},
		Matched:     []string{},
		Unmatched:   []string{},
	}

	if target.Markup != "" {
		if h, err := htmlutils.StructuralHash(target.Markup); err == nil {
			report.DocumentHash = h
		}
	}

	session, err := Load(ctx, browsers, target, settle)
	if err != nil {
		return report, -1, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close session %s: %v", session.ID(), err)
		}
	}()
	instance := session.Instance().Index()

	sheets, err := dom.ListStylesheets(ctx, session, mergeUnique(media, target.Media))
	if err != nil {
		return report, instance, err
	}
	report.Stylesheets = sheets

	matched, err := dom.MatchSelectors(ctx, session, target.Selectors)
	switch {
	case pool.IsNoResult(err):
		logger.Warn("Selector match on %s returned nothing; treating every selector as unmatched", target.Source())
		matched = []string{}
	case err != nil:
		return report, instance, err
	}

	report.Matched = matched
	report.Unmatched = dom.Unmatched(target.Selectors, matched)
	return report, instance, nil
}

// Load opens a session on the least loaded browser instance with the
// target's document in it.
func Load(ctx context.Context, browsers *pool.Pool, target Target, settle time.Duration) (*pool.Session, error) {
	switch {
	case target.URL != "":
		return browsers.LoadFromURL(ctx, target.URL, settle)
	case target.File != "":
		return browsers.LoadFromFile(ctx, target.File, settle)
	default:
		return browsers.LoadFromRaw(ctx, target.Markup, settle)
	}
}
