// Command mailmerge sends personalised emails listed in a spreadsheet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mailmerge"
	"github.com/dmitrymomot/mailmerge/internal/config"
	"github.com/dmitrymomot/mailmerge/pkg/control"
	"github.com/dmitrymomot/mailmerge/pkg/logger"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintln(os.Stderr, "mailmerge:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	log, flush := logger.NewWithSentry(stderr, opts.cfg.Logger, logger.ContextAttrs)
	defer flush()

	deps, err := wire(ctx, opts.cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = deps.close() }()

	campaignOpts := append(deps.campaignOptions(),
		mailmerge.WithLogger(log),
		mailmerge.WithSheet(opts.cfg.Sheet),
		mailmerge.WithDelay(opts.cfg.DelayDuration()),
		mailmerge.WithRetry(opts.cfg.Retries),
		mailmerge.WithProgress(func(p runner.Progress, res runner.JobResult) {
			_, _ = fmt.Fprintln(stdout, formatResult(p, res))
		}),
	)
	c := mailmerge.New(opts.input, deps.mailer, campaignOpts...)
	ctrl := c.Runner()

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	g, gctx := errgroup.WithContext(ctx)
	auxCtx, cancelAux := context.WithCancel(gctx)
	defer cancelAux()

	var res *mailmerge.Result
	g.Go(func() error {
		defer cancelAux()
		var err error
		res, err = c.Run(gctx)
		return err
	})

	g.Go(func() error {
		select {
		case <-sigCtx.Done():
			if ctx.Err() == nil {
				_, _ = fmt.Fprintln(stdout, "interrupt received, stopping after the current email")
				ctrl.Stop()
			}
		case <-auxCtx.Done():
		}
		return nil
	})

	if !opts.noStdin {
		lines := scanLines(stdin)
		g.Go(func() error {
			return readKeys(auxCtx, lines, ctrl, stdout)
		})
	}

	if opts.cfg.ControlAddr != "" {
		srv := control.New(ctrl,
			control.WithAddr(opts.cfg.ControlAddr),
			control.WithLogger(log),
			control.WithRunID(c.RunID()),
			control.WithChecks(deps.checks),
		)
		g.Go(func() error {
			return srv.Run(auxCtx)
		})
	}

	start := time.Now()
	err = g.Wait()
	if res != nil {
		printSummary(stdout, res, time.Since(start))
	}
	if err != nil {
		log.ErrorContext(ctx, "campaign failed", slog.String("error", err.Error()))
	}
	return err
}

func printSummary(w io.Writer, res *mailmerge.Result, elapsed time.Duration) {
	_, _ = fmt.Fprintf(w, "\ncampaign %s in %s\n", res.Summary.State, elapsed.Round(time.Second))
	_, _ = fmt.Fprintln(w, formatProgress(res.Summary.Progress))
	if res.ReportPath != "" {
		_, _ = fmt.Fprintf(w, "failed rows written to %s\n", res.ReportPath)
	}
	if res.Upload != nil && res.Upload.URL != "" {
		_, _ = fmt.Fprintf(w, "report download: %s\n", res.Upload.URL)
	}
}
