package smtp

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
)

// Session is an open, authenticated SMTP connection.
type Session interface {
	Send(messages ...*mail.Msg) error
	Close() error
}

// DialFunc opens a session for one set of credentials.
type DialFunc func(ctx context.Context, cfg Config, auth mailer.Credentials) (Session, error)

// Sender implements mailer.Sender over SMTP.
// It opens a new session for every message and never reuses connections,
// so each row's credentials are authenticated independently.
type Sender struct {
	dial   DialFunc
	config Config
}

// Option configures a Sender.
type Option func(*Sender)

// WithDialer replaces the network dialer. Intended for tests.
func WithDialer(d DialFunc) Option {
	return func(s *Sender) {
		if d != nil {
			s.dial = d
		}
	}
}

// New creates a new SMTP sender.
func New(cfg Config, opts ...Option) (*Sender, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sender{config: cfg, dial: dial}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	msg, err := buildMessage(email)
	if err != nil {
		return mailer.NewSendError(mailer.KindSend, err)
	}

	session, err := s.dial(ctx, s.config, email.Auth)
	if err != nil {
		return mailer.NewSendError(classifyDial(err), fmt.Errorf("smtp: dial %s:%d: %w", s.config.Host, s.config.Port, err))
	}
	defer func() {
		// A failed QUIT after a successful DATA does not undo delivery.
		_ = session.Close()
	}()

	if err := session.Send(msg); err != nil {
		return mailer.NewSendError(classifySend(err), fmt.Errorf("smtp: send: %w", err))
	}
	return nil
}

func buildMessage(email *mailer.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(email.FromName, email.From); err != nil {
		return nil, fmt.Errorf("smtp: invalid sender: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("smtp: invalid recipient: %w", err)
	}
	msg.Subject(email.Subject)

	for k, v := range email.Headers {
		if strings.EqualFold(k, "Reply-To") {
			if err := msg.ReplyTo(v); err != nil {
				return nil, fmt.Errorf("smtp: invalid reply-to: %w", err)
			}
			continue
		}
		msg.SetGenHeader(mail.Header(k), v)
	}

	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	if email.Text != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, email.Text)
	}
	return msg, nil
}

// dial connects, negotiates TLS and authenticates with auth.
func dial(ctx context.Context, cfg Config, auth mailer.Credentials) (Session, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithUsername(auth.Username),
		mail.WithPassword(auth.Password),
	}

	switch cfg.Auth {
	case AuthLogin:
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthLogin))
	default:
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain))
	}

	switch cfg.TLS {
	case TLSImplicit:
		opts = append(opts, mail.WithSSL())
	case TLSOpportunistic:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if cfg.HELO != "" {
		opts = append(opts, mail.WithHELO(cfg.HELO))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
