package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/mailmerge/pkg/logger"
	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/recipients"
)

// Runner sends a list of jobs in order, one at a time.
//
// Pause, Resume and Stop may be called from any goroutine. They take effect
// at job boundaries; a message being transmitted is never interrupted.
type Runner struct {
	mailer        Mailer
	network       Network
	checkpoint    Checkpointer
	logger        *slog.Logger
	onProgress    ProgressFunc
	checkpointKey string
	delay         time.Duration
	retries       int

	mu       sync.Mutex
	progress Progress
	started  bool
	paused   bool
	resumeCh chan struct{} // closed by Resume
	stopped  bool
	cancel   context.CancelFunc
}

// New creates a Runner.
func New(m Mailer, opts ...Option) *Runner {
	r := &Runner{
		mailer:   m,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		progress: Progress{State: StateIdle},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress.State
}

// Progress returns a snapshot of the run.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Pause asks the runner to stop before the next job.
// It returns false if the runner is already paused or finished.
func (r *Runner) Pause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused || r.stopped || r.progress.State.Terminal() {
		return false
	}
	r.paused = true
	r.resumeCh = make(chan struct{})
	return true
}

// Resume continues a paused run with the next unprocessed job.
// It returns false if the runner was not paused.
func (r *Runner) Resume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.paused {
		return false
	}
	r.paused = false
	close(r.resumeCh)
	if r.progress.State == StatePaused {
		r.progress.State = StateRunning
	}
	return true
}

// Paused reports whether a pause was requested and not yet resumed.
func (r *Runner) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Stop ends the run after the current job. Jobs not yet attempted stay
// pending and get no result. Stop is idempotent and may be called before Run.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	if r.cancel != nil {
		r.cancel()
	}
}

// Run processes jobs in order and blocks until every job has a result or the
// run is stopped. Per-job failures never abort the run. If the network stays
// down past the watcher's limit, Run stops with ErrNetworkOutage and the
// interrupted job stays pending.
//
// Cancelling ctx behaves like Stop, except that Run then also returns
// ctx.Err(). The summary is always returned, so a failure report can be
// written for a partial run.
func (r *Runner) Run(ctx context.Context, jobs []recipients.SendJob) (*Summary, error) {
	if r.mailer == nil {
		return nil, ErrNoMailer
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.begin(cancel, len(jobs)); err != nil {
		return nil, err
	}

	summary := &Summary{Results: make([]JobResult, 0, len(jobs))}

	start := r.loadCheckpoint(runCtx, len(jobs))
	for _, job := range jobs[:start] {
		res := JobResult{Job: job, Status: StatusSkipped}
		summary.Results = append(summary.Results, res)
		r.record(res)
	}
	if start > 0 {
		r.logger.InfoContext(ctx, "resuming from checkpoint",
			slog.Int("skipped", start),
			slog.Int("remaining", len(jobs)-start),
		)
	}

	var outage error
	attempted := false
	for i := start; i < len(jobs); i++ {
		if attempted && !r.wait(runCtx, r.delay) {
			break
		}
		if !r.waitIfPaused(runCtx) {
			break
		}
		if runCtx.Err() != nil {
			break
		}

		res, ok, err := r.process(runCtx, jobs[i])
		if err != nil {
			outage = err
			break
		}
		if !ok {
			// Stopped while suspended: the job stays pending.
			break
		}
		attempted = true

		summary.Results = append(summary.Results, res)
		progress := r.record(res)
		r.saveCheckpoint(runCtx, i+1)
		if r.onProgress != nil {
			r.onProgress(progress, res)
		}
	}

	final := StateStopped
	if len(summary.Results) == len(jobs) {
		final = StateCompleted
		r.clearCheckpoint(ctx)
	}
	summary.Progress = r.finish(final)

	r.logger.InfoContext(ctx, "campaign "+string(final),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("pending", summary.Pending),
	)

	if outage != nil {
		return summary, outage
	}
	if final == StateStopped && ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (r *Runner) begin(cancel context.CancelFunc, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true
	r.cancel = cancel
	if r.stopped {
		cancel()
	}
	r.progress = Progress{State: StateRunning, Total: total, Pending: total}
	return nil
}

func (r *Runner) finish(state State) Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.progress.State = state
	return r.progress
}

// record adds res to the progress counters and returns the new snapshot.
func (r *Runner) record(res JobResult) Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch res.Status {
	case StatusSent:
		r.progress.Sent++
	case StatusFailed:
		r.progress.Failed++
	case StatusSkipped:
		r.progress.Skipped++
	}
	r.progress.Pending = r.progress.Total - r.progress.Processed()
	return r.progress
}

func (r *Runner) setState(from, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.progress.State == from {
		r.progress.State = to
	}
}

// wait sleeps for d. It returns false if the run was stopped meanwhile.
func (r *Runner) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// waitIfPaused blocks while a pause is in effect.
// It returns false if the run was stopped while paused.
func (r *Runner) waitIfPaused(ctx context.Context) bool {
	for {
		r.mu.Lock()
		if !r.paused {
			r.mu.Unlock()
			return true
		}
		ch := r.resumeCh
		r.progress.State = StatePaused
		r.mu.Unlock()

		r.logger.InfoContext(ctx, "campaign paused")
		select {
		case <-ctx.Done():
			return false
		case <-ch:
			r.logger.InfoContext(ctx, "campaign resumed")
		}
	}
}

// process attempts one job until it has a result. It returns false when
// the run is stopped while waiting for the network, and ErrNetworkOutage when
// the network did not come back; in both cases no result exists.
func (r *Runner) process(ctx context.Context, job recipients.SendJob) (JobResult, bool, error) {
	ctx = logger.WithAttrs(ctx, slog.Int("row", job.Row), slog.String("to", job.ToEmail))

	// An in-flight send outlives Stop.
	sendCtx := context.WithoutCancel(ctx)

	res := JobResult{Job: job, AttemptedAt: time.Now()}
	retries := r.retries
	for {
		res.Attempts++
		err := r.mailer.Send(sendCtx, job)
		if err == nil {
			res.Status = StatusSent
			r.logger.InfoContext(ctx, "message sent", slog.Int("attempts", res.Attempts))
			return res, true, nil
		}

		kind := mailer.KindOf(err)
		if kind.Transient() && r.network != nil && ctx.Err() == nil && !r.network.Online(ctx) {
			resumed, waitErr := r.suspend(ctx)
			if resumed {
				continue
			}
			if ctx.Err() != nil {
				return res, false, nil
			}
			r.logger.ErrorContext(ctx, "network not restored, stopping campaign", slog.String("error", waitErr.Error()))
			return res, false, errors.Join(ErrNetworkOutage, waitErr, err)
		}
		if kind.Transient() && retries > 0 && ctx.Err() == nil {
			retries--
			r.logger.WarnContext(ctx, "retrying message", slog.String("error", err.Error()))
			continue
		}

		res.Status = StatusFailed
		res.Kind = kind
		res.Err = err
		r.logger.WarnContext(ctx, "message failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return res, true, nil
	}
}

// suspend blocks until the network is back. It reports whether sending
// can continue.
func (r *Runner) suspend(ctx context.Context) (bool, error) {
	r.setState(StateRunning, StateSuspended)
	r.logger.WarnContext(ctx, "network disconnected, suspending until it is restored")

	err := r.network.WaitOnline(ctx)
	r.setState(StateSuspended, StateRunning)
	if err != nil {
		return false, err
	}
	r.logger.InfoContext(ctx, "network restored, resuming")
	return true, nil
}

func (r *Runner) loadCheckpoint(ctx context.Context, total int) int {
	if r.checkpoint == nil {
		return 0
	}
	n, err := r.checkpoint.Load(ctx, r.checkpointKey)
	if err != nil {
		r.logger.WarnContext(ctx, "checkpoint unreadable, starting from the first row", slog.String("error", err.Error()))
		return 0
	}
	if n < 0 || n > total {
		r.logger.WarnContext(ctx, "checkpoint out of range, starting from the first row",
			slog.Int("checkpoint", n),
			slog.Int("total", total),
		)
		return 0
	}
	return n
}

func (r *Runner) saveCheckpoint(ctx context.Context, next int) {
	if r.checkpoint == nil {
		return
	}
	if err := r.checkpoint.Save(context.WithoutCancel(ctx), r.checkpointKey, next); err != nil {
		r.logger.WarnContext(ctx, "failed to save checkpoint", slog.String("error", err.Error()))
	}
}

func (r *Runner) clearCheckpoint(ctx context.Context) {
	if r.checkpoint == nil {
		return
	}
	if err := r.checkpoint.Clear(context.WithoutCancel(ctx), r.checkpointKey); err != nil {
		r.logger.WarnContext(ctx, "failed to clear checkpoint", slog.String("error", err.Error()))
	}
}
