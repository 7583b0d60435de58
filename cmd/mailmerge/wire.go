package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailmerge"
	"github.com/dmitrymomot/mailmerge/internal/config"
	"github.com/dmitrymomot/mailmerge/pkg/checkpoint"
	"github.com/dmitrymomot/mailmerge/pkg/control"
	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/mailer/resend"
	"github.com/dmitrymomot/mailmerge/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailmerge/pkg/netwatch"
	"github.com/dmitrymomot/mailmerge/pkg/report"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
	"github.com/dmitrymomot/mailmerge/pkg/storage"
)

// deps holds the components built from configuration.
type deps struct {
	mailer   *mailer.Mailer
	network  runner.Network
	store    runner.Checkpointer
	uploader mailmerge.Uploader
	checks   control.Checks
	closers  []func() error
	cfg      config.Config
}

func wire(ctx context.Context, cfg config.Config, log *slog.Logger) (*deps, error) {
	d := &deps{cfg: cfg, checks: control.Checks{}}

	sender, err := newSender(cfg, log)
	if err != nil {
		return nil, err
	}
	renderer := mailer.NewRenderer(mailer.RendererConfig{BaseDir: cfg.TemplatesDir})
	d.mailer = mailer.New(sender, renderer, cfg.Mail)

	// A dry run neither needs the network nor records progress.
	if cfg.Transport == config.TransportDryRun {
		return d, nil
	}

	watcher := netwatch.New(cfg.Network)
	d.network = watcher
	d.checks["network"] = watcher.Check

	if cfg.RedisURL != "" {
		rs, err := checkpoint.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("checkpoint store: %w", err)
		}
		d.store = rs
		d.checks["checkpoint"] = rs.Check
		d.closers = append(d.closers, rs.Close)
	} else {
		fileStore, err := checkpoint.NewFileStore(cfg.CheckpointDir)
		if err != nil {
			return nil, fmt.Errorf("checkpoint store: %w", err)
		}
		d.store = fileStore
	}

	if cfg.Storage.Enabled() {
		uploader, err := storage.New(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("report storage: %w", err)
		}
		d.uploader = uploader
	}

	return d, nil
}

func newSender(cfg config.Config, log *slog.Logger) (mailer.Sender, error) {
	switch cfg.Transport {
	case config.TransportSMTP:
		s, err := smtp.New(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.TransportResend:
		s, err := resend.New(cfg.Resend)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.TransportDryRun:
		return mailer.NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", config.ErrInvalid, cfg.Transport)
	}
}

func (d *deps) campaignOptions() []mailmerge.Option {
	var reportOpts []report.Option
	if d.cfg.IncludeCredentials {
		reportOpts = append(reportOpts, report.WithCredentials())
	}

	opts := []mailmerge.Option{
		mailmerge.WithReport(d.cfg.ReportPath, reportOpts...),
		mailmerge.WithNetwork(d.network),
	}
	if d.store != nil {
		opts = append(opts, mailmerge.WithCheckpoint(d.store, d.cfg.Resume))
	}
	if d.uploader != nil {
		opts = append(opts, mailmerge.WithUploader(d.uploader))
	}
	return opts
}

func (d *deps) close() error {
	var errs []error
	for _, c := range d.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
