package mailer

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSender indicates no sender address was specified.
	ErrNoSender = errors.New("email must have a sender")

	// ErrNoContent indicates no HTML content was provided.
	ErrNoContent = errors.New("email must have HTML content")

	// ErrTemplateNotFound indicates the template file does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateUnreadable indicates the template file exists but could not be read.
	ErrTemplateUnreadable = errors.New("template unreadable")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("failed to render template")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")

	// ErrAuthFailed indicates the transport rejected the sender credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrTransport indicates a connection or protocol failure.
	ErrTransport = errors.New("transport error")

	// ErrTimeout indicates the transport did not answer in time.
	ErrTimeout = errors.New("send timed out")
)

// Kind classifies a per-job failure.
type Kind string

const (
	KindNone      Kind = ""
	KindTemplate  Kind = "template"
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
	KindTimeout   Kind = "timeout"
	KindSend      Kind = "send"
)

// Transient reports whether a failure of this kind may be caused by the
// network rather than by the message or the credentials.
func (k Kind) Transient() bool {
	return k == KindTransport || k == KindTimeout
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuthFailed
	case KindTransport:
		return ErrTransport
	case KindTimeout:
		return ErrTimeout
	default:
		return ErrSendFailed
	}
}

// TemplateError reports a template that could not be loaded or rendered.
// It is a per-job failure.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// SendError reports a failed delivery attempt.
// errors.Is matches both the underlying cause and the sentinel of its Kind.
type SendError struct {
	Err  error
	Kind Kind
}

// NewSendError wraps err with the given kind.
func NewSendError(kind Kind, err error) *SendError {
	return &SendError{Kind: kind, Err: err}
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

func (e *SendError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf classifies err. Errors that are neither TemplateError nor SendError
// are reported as KindSend, except bare context deadlines.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var tmplErr *TemplateError
	if errors.As(err, &tmplErr) {
		return KindTemplate
	}

	var sendErr *SendError
	if errors.As(err, &sendErr) {
		return sendErr.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindSend
}
