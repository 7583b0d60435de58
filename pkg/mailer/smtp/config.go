package smtp

import (
	"fmt"
	"strings"
	"time"
)

// TLS modes.
const (
	TLSStartTLS      = "starttls"      // mandatory STARTTLS (port 587)
	TLSImplicit      = "ssl"           // TLS from the first byte (port 465)
	TLSOpportunistic = "opportunistic" // STARTTLS when offered
	TLSNone          = "none"
)

// Auth mechanisms.
const (
	AuthPlain = "plain"
	AuthLogin = "login"
)

// Config holds SMTP transport configuration.
// Embed this in your app config for env parsing with caarlos0/env.
// Credentials are not part of the config: every message carries its own.
type Config struct {
	Host    string        `env:"HOST" envDefault:"smtp.gmail.com"`
	TLS     string        `env:"TLS" envDefault:"starttls"`
	Auth    string        `env:"AUTH" envDefault:"plain"`
	HELO    string        `env:"HELO"`
	Port    int           `env:"PORT" envDefault:"587"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "smtp.gmail.com"
	}
	c.TLS = strings.ToLower(strings.TrimSpace(c.TLS))
	if c.TLS == "" {
		c.TLS = TLSStartTLS
	}
	c.Auth = strings.ToLower(strings.TrimSpace(c.Auth))
	if c.Auth == "" {
		c.Auth = AuthPlain
	}
	if c.Port == 0 {
		c.Port = 587
		if c.TLS == TLSImplicit {
			c.Port = 465
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate reports an unknown TLS mode or auth mechanism.
func (c Config) Validate() error {
	switch c.TLS {
	case TLSStartTLS, TLSImplicit, TLSOpportunistic, TLSNone:
	default:
		return fmt.Errorf("%w: unknown tls mode %q", ErrInvalidConfig, c.TLS)
	}
	switch c.Auth {
	case AuthPlain, AuthLogin:
	default:
		return fmt.Errorf("%w: unknown auth mechanism %q", ErrInvalidConfig, c.Auth)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	return nil
}
