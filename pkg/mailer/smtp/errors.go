package smtp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"os"
	"strings"
	"syscall"

	"github.com/wneessen/go-mail"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
)

// ErrInvalidConfig indicates an unusable transport configuration.
var ErrInvalidConfig = errors.New("smtp: invalid configuration")

// SMTP reply codes that mean the credentials were rejected.
var authCodes = map[int]bool{
	530: true, // authentication required
	534: true, // mechanism too weak / web login required (Gmail)
	535: true, // credentials invalid
	538: true, // encryption required for mechanism
}

// classifyDial maps a failure while connecting and authenticating.
func classifyDial(err error) mailer.Kind {
	switch {
	case isTimeout(err):
		return mailer.KindTimeout
	case hasAuthCode(err):
		return mailer.KindAuth
	case isConnLost(err):
		return mailer.KindTransport
	case isAuth(err):
		return mailer.KindAuth
	default:
		return mailer.KindTransport
	}
}

// classifySend maps a failure after the session was established.
func classifySend(err error) mailer.Kind {
	if isTimeout(err) {
		return mailer.KindTimeout
	}

	var sendErr *mail.SendError
	if errors.As(err, &sendErr) {
		if sendErr.IsTemp() {
			return mailer.KindTransport
		}
		return mailer.KindSend
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return mailer.KindTransport
	}
	return mailer.KindSend
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnLost reports a dropped or refused connection, which go-mail may
// wrap in an "auth" message when it happens mid-handshake.
func isConnLost(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE)
}

func hasAuthCode(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && authCodes[protoErr.Code]
}

func isAuth(err error) bool {
	return hasAuthCode(err) || strings.Contains(strings.ToLower(err.Error()), "auth")
}
