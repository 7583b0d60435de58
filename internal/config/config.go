// Package config loads mailmerge settings from the environment and an
// optional .env file. Every variable carries the MAILMERGE_ prefix.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/mailmerge/pkg/logger"
	"github.com/dmitrymomot/mailmerge/pkg/mailer"
	"github.com/dmitrymomot/mailmerge/pkg/mailer/resend"
	"github.com/dmitrymomot/mailmerge/pkg/mailer/smtp"
	"github.com/dmitrymomot/mailmerge/pkg/netwatch"
	"github.com/dmitrymomot/mailmerge/pkg/storage"
)

// Prefix is prepended to every environment variable name.
const Prefix = "MAILMERGE_"

// Transports.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportDryRun = "dry-run"
)

var ErrInvalid = errors.New("config: invalid value")

// Config is the complete application configuration.
type Config struct {
	// Transport selects how messages leave the process: smtp, resend or dry-run.
	Transport string `env:"TRANSPORT" envDefault:"smtp"`

	// Delay is the pause between sends in seconds.
	Delay float64 `env:"DELAY" envDefault:"5"`

	// Retries is the number of extra attempts on transient failures while online.
	Retries int `env:"RETRIES" envDefault:"0"`

	// Sheet selects the worksheet; empty means the first one.
	Sheet string `env:"SHEET"`

	// TemplatesDir resolves relative html_file paths.
	TemplatesDir string `env:"TEMPLATES_DIR"`

	ReportPath         string `env:"REPORT_PATH" envDefault:"failed_emails_report.xlsx"`
	IncludeCredentials bool   `env:"REPORT_INCLUDE_PASSWORDS"`

	// Resume continues from the saved checkpoint of the same input file.
	Resume        bool   `env:"RESUME"`
	CheckpointDir string `env:"CHECKPOINT_DIR" envDefault:"."`
	// RedisURL switches the checkpoint store to Redis when set.
	RedisURL string `env:"REDIS_URL"`

	// ControlAddr enables the HTTP control API on this address.
	ControlAddr string `env:"CONTROL_ADDR"`

	Logger  logger.Config   `envPrefix:"LOG_"`
	Mail    mailer.Config   `envPrefix:"MAIL_"`
	SMTP    smtp.Config     `envPrefix:"SMTP_"`
	Resend  resend.Config   `envPrefix:"RESEND_"`
	Network netwatch.Config `envPrefix:"NETWORK_"`
	Storage storage.Config  `envPrefix:"S3_"`
}

// Load reads .env files (default ".env"; missing files are ignored) and
// parses the environment. Variables already set win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}
	return parse(nil)
}

// parse reads cfg from environ, or from the process environment when nil.
func parse(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	return cfg, nil
}

// maxDelaySeconds keeps DelayDuration inside the range of time.Duration.
const maxDelaySeconds = 24 * 60 * 60

// DelayDuration returns Delay as a time.Duration.
func (c Config) DelayDuration() time.Duration {
	return time.Duration(c.Delay * float64(time.Second))
}

// Validate checks values that cannot be expressed as env defaults.
func (c Config) Validate() error {
	var errs []error

	switch {
	case math.IsNaN(c.Delay) || math.IsInf(c.Delay, 0):
		errs = append(errs, fmt.Errorf("%w: delay must be a finite number of seconds, got %v", ErrInvalid, c.Delay))
	case c.Delay > maxDelaySeconds:
		errs = append(errs, fmt.Errorf("%w: delay %v exceeds %v seconds", ErrInvalid, c.Delay, maxDelaySeconds))
	case c.DelayDuration() < time.Millisecond:
		errs = append(errs, fmt.Errorf("%w: delay must be at least 0.001 seconds, got %v", ErrInvalid, c.Delay))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("%w: retries must not be negative", ErrInvalid))
	}

	switch c.Transport {
	case TransportSMTP:
		if err := c.SMTP.Validate(); err != nil {
			errs = append(errs, err)
		}
	case TransportResend:
		if c.Resend.APIKey == "" {
			errs = append(errs, fmt.Errorf("%w: %sRESEND_API_KEY is required for the resend transport", ErrInvalid, Prefix))
		}
	case TransportDryRun:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown transport %q", ErrInvalid, c.Transport))
	}

	return errors.Join(errs...)
}
