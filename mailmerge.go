package mailmerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailmerge/pkg/checkpoint"
	"github.com/dmitrymomot/mailmerge/pkg/logger"
	"github.com/dmitrymomot/mailmerge/pkg/recipients"
	"github.com/dmitrymomot/mailmerge/pkg/report"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
	"github.com/dmitrymomot/mailmerge/pkg/storage"
)

// Uploader stores a written report remotely. *storage.S3Storage satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, name string, opts ...storage.Option) (*storage.FileInfo, error)
}

// Campaign sends one input file.
type Campaign struct {
	logger     *slog.Logger
	runner     *runner.Runner
	store      runner.Checkpointer
	uploader   Uploader
	input      string
	runID      string
	reportPath string
	loadOpts   recipients.Options
	reportOpts []report.Option
	runnerOpts []runner.Option
	resume     bool
}

// Result describes a finished campaign.
type Result struct {
	Summary *runner.Summary
	RunID   string

	// ReportPath is empty when no report was written.
	ReportPath string

	// Upload is set when the report was uploaded.
	Upload *storage.FileInfo
}

// New creates a campaign for the input file at path.
func New(input string, m runner.Mailer, opts ...Option) *Campaign {
	c := &Campaign{
		input:      input,
		logger:     logger.NewNope(),
		reportPath: report.DefaultPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}

	ropts := append([]runner.Option{runner.WithLogger(c.logger)}, c.runnerOpts...)
	if c.store != nil {
		ropts = append(ropts, runner.WithCheckpoint(c.store, checkpoint.Key(input)))
	}
	c.runner = runner.New(m, ropts...)
	return c
}

// Runner returns the controller of this campaign.
func (c *Campaign) Runner() *runner.Runner {
	return c.runner
}

// RunID returns the identifier attached to every log line of the run.
func (c *Campaign) RunID() string {
	return c.runID
}

// Run loads the input, sends every row and writes the failure report.
// Load errors are returned before anything is sent. A cancelled ctx stops
// the run after the current job; the report is still written and Run
// returns ctx.Err() with the result.
func (c *Campaign) Run(ctx context.Context) (*Result, error) {
	ctx = logger.WithAttrs(ctx, slog.String("run_id", c.runID))

	jobs, err := recipients.LoadWithOptions(c.input, c.loadOpts)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "campaign loaded",
		slog.String("input", c.input),
		slog.Int("jobs", len(jobs)),
	)

	if c.store != nil && !c.resume {
		if err := c.store.Clear(ctx, checkpoint.Key(c.input)); err != nil {
			c.logger.WarnContext(ctx, "failed to reset checkpoint", slog.String("error", err.Error()))
		}
	}

	summary, runErr := c.runner.Run(ctx, jobs)
	if summary == nil {
		return nil, runErr
	}
	res := &Result{Summary: summary, RunID: c.runID}

	failures := summary.Failures()
	written, err := report.Write(c.reportPath, failures, c.reportOpts...)
	if err != nil {
		return res, errors.Join(runErr, fmt.Errorf("write report: %w", err))
	}
	if !written {
		return res, runErr
	}
	res.ReportPath = c.reportPath
	c.logger.InfoContext(ctx, "failure report written",
		slog.String("path", c.reportPath),
		slog.Int("rows", len(failures)),
	)

	if c.uploader != nil {
		info, err := c.uploader.UploadFile(context.WithoutCancel(ctx), c.reportPath, storage.WithRunID(c.runID))
		if err != nil {
			c.logger.WarnContext(ctx, "failed to upload report", slog.String("error", err.Error()))
		} else {
			res.Upload = info
			c.logger.InfoContext(ctx, "failure report uploaded", slog.String("key", info.Key))
		}
	}

	return res, runErr
}
