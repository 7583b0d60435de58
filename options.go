package mailmerge

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailmerge/pkg/report"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

// Option configures a Campaign.
type Option func(*Campaign)

// WithLogger sets the campaign logger. Log lines carry run_id, and per-job
// lines also carry row and to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Campaign) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(c *Campaign) {
		c.runID = id
	}
}

// WithSheet selects the worksheet of a workbook input.
func WithSheet(name string) Option {
	return func(c *Campaign) {
		c.loadOpts.Sheet = name
	}
}

// WithDelay sets the pause between consecutive sends.
func WithDelay(d time.Duration) Option {
	return func(c *Campaign) {
		c.runnerOpts = append(c.runnerOpts, runner.WithDelay(d))
	}
}

// WithRetry allows n extra attempts on transient failures while online.
func WithRetry(n int) Option {
	return func(c *Campaign) {
		c.runnerOpts = append(c.runnerOpts, runner.WithRetry(n))
	}
}

// WithNetwork suspends the campaign while n reports the network as down.
func WithNetwork(n runner.Network) Option {
	return func(c *Campaign) {
		if n != nil {
			c.runnerOpts = append(c.runnerOpts, runner.WithNetwork(n))
		}
	}
}

// WithProgress registers a callback invoked after every job.
func WithProgress(fn runner.ProgressFunc) Option {
	return func(c *Campaign) {
		c.runnerOpts = append(c.runnerOpts, runner.WithProgress(fn))
	}
}

// WithCheckpoint records progress in store. With resume set, rows
// processed by an earlier run of the same input are skipped; otherwise
// any saved progress is discarded first.
func WithCheckpoint(store runner.Checkpointer, resume bool) Option {
	return func(c *Campaign) {
		c.store = store
		c.resume = resume
	}
}

// WithReport sets the failure report path. Default: failed_emails_report.xlsx.
func WithReport(path string, opts ...report.Option) Option {
	return func(c *Campaign) {
		if path != "" {
			c.reportPath = path
		}
		c.reportOpts = append(c.reportOpts, opts...)
	}
}

// WithUploader uploads the failure report after it is written.
func WithUploader(u Uploader) Option {
	return func(c *Campaign) {
		c.uploader = u
	}
}
