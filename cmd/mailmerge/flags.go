package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrymomot/mailmerge/internal/config"
)

var errUsage = errors.New("usage: mailmerge [flags] <input.xlsx|input.csv>")

// options are the resolved settings of one invocation.
type options struct {
	cfg     config.Config
	input   string
	noStdin bool
}

// parseFlags applies command-line flags on top of cfg.
// Flags not given keep the value loaded from the environment.
func parseFlags(args []string, cfg config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("mailmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintln(fs.Output(), errUsage.Error())
		_, _ = fmt.Fprintln(fs.Output(), "\nControl keys (followed by Enter): p pause, r resume, s/q stop, ? status")
		_, _ = fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}

	var (
		opts   = options{cfg: cfg}
		dryRun bool
	)
	fs.Float64Var(&opts.cfg.Delay, "delay", cfg.Delay, "seconds to wait between emails (0.001 to 86400)")
	fs.StringVar(&opts.cfg.ReportPath, "report", cfg.ReportPath, "failure report path (.xlsx or .csv)")
	fs.StringVar(&opts.cfg.Sheet, "sheet", cfg.Sheet, "worksheet to read (default: first sheet)")
	fs.BoolVar(&dryRun, "dry-run", false, "render and log messages without sending")
	fs.BoolVar(&opts.cfg.Resume, "resume", cfg.Resume, "skip rows processed by an earlier run of the same file")
	fs.StringVar(&opts.cfg.ControlAddr, "control-addr", cfg.ControlAddr, "serve the HTTP control API on this address")
	fs.StringVar(&opts.cfg.TemplatesDir, "templates-dir", cfg.TemplatesDir, "directory for relative html_file paths")
	fs.IntVar(&opts.cfg.Retries, "retries", cfg.Retries, "extra attempts on connection failures while online")
	fs.BoolVar(&opts.noStdin, "no-stdin", false, "do not read control keys from standard input")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errUsage
	}
	opts.input = fs.Arg(0)

	if dryRun {
		opts.cfg.Transport = config.TransportDryRun
	}
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}
