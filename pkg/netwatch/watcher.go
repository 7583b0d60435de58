// Package netwatch detects loss of internet connectivity and waits for it to
// come back.
//
// Connectivity is probed by opening a TCP connection to a well-known host
// (Google's public DNS on port 53 by default). A campaign uses it to tell a
// network outage, which suspends sending, apart from an SMTP failure, which
// is recorded against the row.
package netwatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrOffline indicates the probe address could not be reached.
var ErrOffline = errors.New("netwatch: network unreachable")

// Defaults used when Config fields are zero.
const (
	DefaultProbeAddr = "8.8.8.8:53"
	DefaultTimeout   = 5 * time.Second
	DefaultInterval  = 5 * time.Second
)

// Config holds probe settings.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	ProbeAddr string        `env:"PROBE_ADDR" envDefault:"8.8.8.8:53"`
	Timeout   time.Duration `env:"PROBE_TIMEOUT" envDefault:"5s"`
	Interval  time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	MaxWait   time.Duration `env:"MAX_WAIT"` // 0 waits forever
}

// DialFunc opens a connection; net.Dialer.DialContext satisfies it.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Watcher probes connectivity.
type Watcher struct {
	dial DialFunc
	cfg  Config
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDialer replaces the dialer used for probes.
func WithDialer(d DialFunc) Option {
	return func(w *Watcher) {
		if d != nil {
			w.dial = d
		}
	}
}

// New creates a Watcher.
func New(cfg Config, opts ...Option) *Watcher {
	if cfg.ProbeAddr == "" {
		cfg.ProbeAddr = DefaultProbeAddr
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	w := &Watcher{cfg: cfg, dial: (&net.Dialer{}).DialContext}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Check returns nil when the probe address is reachable.
// It matches the health check signature func(context.Context) error.
func (w *Watcher) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	conn, err := w.dial(ctx, "tcp", w.cfg.ProbeAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	_ = conn.Close()
	return nil
}

// Online reports whether the probe address is reachable.
func (w *Watcher) Online(ctx context.Context) bool {
	return w.Check(ctx) == nil
}

// WaitOnline blocks until the network is reachable again.
// It polls every Interval and gives up only when ctx is done or, if set,
// after MaxWait, returning ErrOffline.
func (w *Watcher) WaitOnline(ctx context.Context) error {
	if w.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.MaxWait)
		defer cancel()
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if w.Online(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return errors.Join(ErrOffline, ctx.Err())
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
