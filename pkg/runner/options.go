package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mailmerge/pkg/recipients"
)

// Mailer sends one job. *mailer.Mailer satisfies it.
type Mailer interface {
	Send(ctx context.Context, job recipients.SendJob) error
}

// Network reports and waits for connectivity. *netwatch.Watcher satisfies it.
type Network interface {
	Online(ctx context.Context) bool
	WaitOnline(ctx context.Context) error
}

// Checkpointer persists the next unprocessed index. checkpoint.Store satisfies it.
type Checkpointer interface {
	Load(ctx context.Context, key string) (int, error)
	Save(ctx context.Context, key string, next int) error
	Clear(ctx context.Context, key string) error
}

// ProgressFunc is called after every job with the updated progress.
type ProgressFunc func(p Progress, r JobResult)

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause between consecutive send attempts.
// It is not applied before the first attempt.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.delay = d
		}
	}
}

// WithNetwork enables suspension on network loss.
// Without it, transport failures are recorded as ordinary failures.
func WithNetwork(n Network) Option {
	return func(r *Runner) {
		r.network = n
	}
}

// WithCheckpoint resumes from and records progress in store under key.
func WithCheckpoint(store Checkpointer, key string) Option {
	return func(r *Runner) {
		r.checkpoint = store
		r.checkpointKey = key
	}
}

// WithRetry allows n extra attempts for transport and timeout failures
// while the network is up. Default: 0.
func WithRetry(n int) Option {
	return func(r *Runner) {
		r.retries = max(n, 0)
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress registers a callback invoked after each job.
// It runs on the runner goroutine and must not block.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.onProgress = fn
	}
}
