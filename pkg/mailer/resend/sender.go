package resend

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
)

// ErrMissingAPIKey indicates the sender was configured without an API key.
var ErrMissingAPIKey = errors.New("resend: api key is required")

// emailClient is the subset of the Resend client used by Sender.
type emailClient interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	emails emailClient
}

// New creates a new Resend sender.
func New(cfg Config) (*Sender, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Sender{emails: resend.NewClient(cfg.APIKey).Emails}, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := &resend.SendEmailRequest{
		From:    email.Sender(),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}

	if len(email.Headers) > 0 {
		headers := make(map[string]string, len(email.Headers))
		for k, v := range email.Headers {
			if k == "Reply-To" {
				req.ReplyTo = v
				continue
			}
			headers[k] = v
		}
		req.Headers = headers
	}

	if _, err := s.emails.SendWithContext(ctx, req); err != nil {
		return mailer.NewSendError(classify(err), fmt.Errorf("resend: failed to send email: %w", err))
	}
	return nil
}

func classify(err error) mailer.Kind {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return mailer.KindTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return mailer.KindTimeout
		}
		return mailer.KindTransport
	default:
		return mailer.KindSend
	}
}
