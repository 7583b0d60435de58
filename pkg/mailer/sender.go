package mailer

import (
	"context"
	"log/slog"
)

// Sender defines the minimal interface that email transports must implement.
// It accepts a fully-prepared Email and handles the actual delivery.
type Sender interface {
	// Send delivers an email message.
	// Implementations open a session with email.Auth, transmit the message
	// and release the session before returning, on every path.
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, email *Email) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// NewLogSender returns a Sender that only logs messages.
// Use it to preview a campaign without touching the network.
func NewLogSender(logger *slog.Logger) Sender {
	return SenderFunc(func(ctx context.Context, email *Email) error {
		logger.InfoContext(ctx, "dry run: message not sent",
			slog.String("from", email.Sender()),
			slog.Any("to", email.To),
			slog.String("subject", email.Subject),
			slog.Int("html_bytes", len(email.HTML)),
		)
		return nil
	})
}
