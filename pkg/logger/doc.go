// Package logger builds the structured slog loggers used by mailmerge.
//
// It adds two things on top of log/slog: context extractors that attach
// values such as the campaign run ID or the current row to every record, and
// optional Sentry forwarding of warnings and errors.
//
//	log := logger.New(os.Stderr, logger.Config{Level: "info"}, logger.ContextAttrs)
//
//	ctx = logger.WithAttrs(ctx, slog.String("run_id", id))
//	log.InfoContext(ctx, "campaign started") // ... run_id=...
//
// NewWithSentry sends errors to Sentry as issues and keeps warnings as logs.
// With an empty DSN it falls back to local output only, so the same code path
// works on a laptop and in CI:
//
//	log, flush := logger.NewWithSentry(os.Stderr, cfg, logger.ContextAttrs)
//	defer flush()
package logger
