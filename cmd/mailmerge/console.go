package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrymomot/mailmerge/pkg/control"
	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

type command int

const (
	cmdNone command = iota
	cmdPause
	cmdResume
	cmdStop
	cmdStatus
)

// parseCommand maps one input line to a control command.
func parseCommand(line string) command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "p", "pause":
		return cmdPause
	case "r", "resume":
		return cmdResume
	case "s", "q", "stop", "quit":
		return cmdStop
	case "?", "status":
		return cmdStatus
	default:
		return cmdNone
	}
}

// scanLines feeds lines from r into a channel closed at EOF.
// Reads from a terminal cannot be interrupted, so the goroutine may outlive
// the campaign; it ends with the process.
func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

// readKeys applies control commands from lines until ctx is done or lines closes.
func readKeys(ctx context.Context, lines <-chan string, ctrl control.Controller, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			apply(parseCommand(line), ctrl, out)
		}
	}
}

func apply(cmd command, ctrl control.Controller, out io.Writer) {
	switch cmd {
	case cmdPause:
		if ctrl.Pause() {
			_, _ = fmt.Fprintln(out, "pausing after the current email (r to resume)")
		} else {
			_, _ = fmt.Fprintln(out, "already paused")
		}
	case cmdResume:
		if ctrl.Resume() {
			_, _ = fmt.Fprintln(out, "resumed")
		} else {
			_, _ = fmt.Fprintln(out, "not paused")
		}
	case cmdStop:
		ctrl.Stop()
		_, _ = fmt.Fprintln(out, "stopping after the current email")
	case cmdStatus:
		_, _ = fmt.Fprintln(out, formatProgress(ctrl.Progress()))
	case cmdNone:
		_, _ = fmt.Fprintln(out, "keys: p pause, r resume, s stop, ? status")
	}
}

func formatProgress(p runner.Progress) string {
	s := fmt.Sprintf("%s: %d/%d processed, %d sent, %d failed, %d pending",
		p.State, p.Processed(), p.Total, p.Sent, p.Failed, p.Pending)
	if p.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", p.Skipped)
	}
	return s
}

// formatResult is the per-job progress line.
func formatResult(p runner.Progress, res runner.JobResult) string {
	line := fmt.Sprintf("[%d/%d] row %d %s %s", p.Processed(), p.Total, res.Job.Row, res.Status, res.Job.ToEmail)
	if res.Err != nil {
		line += ": " + res.ErrorMessage()
	}
	return line
}
