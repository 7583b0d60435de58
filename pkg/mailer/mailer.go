package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrymomot/mailmerge/pkg/recipients"
)

// Mailer renders a send job and hands the message to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a new Mailer with the given sender and renderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
	}
}

// Send renders job's template and delivers one message.
// Subject resolution: job.Subject > template frontmatter > config fallback.
//
// The returned error is a *TemplateError or a *SendError; use KindOf to
// classify it.
func (m *Mailer) Send(ctx context.Context, job recipients.SendJob) error {
	email, err := m.Build(job)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, email); err != nil {
		var sendErr *SendError
		if errors.As(err, &sendErr) {
			return err
		}
		return NewSendError(KindOf(err), err)
	}
	return nil
}

// Build renders job into an Email without sending it.
func (m *Mailer) Build(job recipients.SendJob) (*Email, error) {
	result, err := m.renderer.Render(job.HTMLFile, job.Salutation, job.Signature)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(job.ToEmail) == "" {
		return nil, NewSendError(KindSend, ErrNoRecipient)
	}
	if strings.TrimSpace(job.FromEmail) == "" {
		return nil, NewSendError(KindSend, ErrNoSender)
	}
	if strings.TrimSpace(result.HTML) == "" {
		return nil, &TemplateError{Path: job.HTMLFile, Err: ErrNoContent}
	}

	subject := job.Subject
	if subject == "" {
		subject = result.Subject
	}
	if subject == "" {
		subject = m.config.FallbackSubject
	}

	email := &Email{
		Auth:     Credentials{Username: job.FromEmail, Password: job.Password},
		From:     job.FromEmail,
		FromName: job.Signature,
		To:       []string{job.ToEmail},
		Subject:  subject,
		HTML:     result.HTML,
		Text:     result.Text,
	}
	if m.config.ReplyTo != "" {
		email.Headers = map[string]string{"Reply-To": m.config.ReplyTo}
	}
	return email, nil
}
