package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

// NewWithSentry creates a logger that writes to w and forwards warnings and
// errors to Sentry. Errors become Sentry issues; warnings are kept as logs.
// With an empty DSN, or if Sentry fails to initialise, it behaves like New.
//
// The returned flush function waits for buffered Sentry events; call it
// before the process exits.
func NewWithSentry(w io.Writer, cfg Config, extractors ...ContextExtractor) (*slog.Logger, func()) {
	local := newHandler(w, cfg)
	noFlush := func() {}

	if cfg.Sentry.DSN == "" {
		return slog.New(NewLogHandlerDecorator(local, extractors...)), noFlush
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(local, extractors...)), noFlush
	}

	remote := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	handler := NewLogHandlerDecorator(fanout{local, remote}, extractors...)
	return slog.New(handler), func() { sentry.Flush(2 * time.Second) }
}

// fanout sends each record to every handler that accepts its level.
// A failing handler does not stop delivery to the others.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, rec slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, rec.Level) {
			if err := h.Handle(ctx, rec.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
