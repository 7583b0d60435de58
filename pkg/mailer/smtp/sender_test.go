package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"syscall"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
)

type mockSession struct {
	mock.Mock
}

func (m *mockSession) Send(messages ...*mail.Msg) error {
	args := m.Called(messages)
	return args.Error(0)
}

func (m *mockSession) Close() error {
	return m.Called().Error(0)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func testEmail() *mailer.Email {
	return &mailer.Email{
		Auth:     mailer.Credentials{Username: "alice@example.com", Password: "secret"},
		From:     "alice@example.com",
		FromName: "Alice",
		To:       []string{"bob@example.com"},
		Subject:  "Hi",
		HTML:     "<p>Hi</p>",
		Text:     "Hi",
		Headers:  map[string]string{"Reply-To": "support@example.com", "X-Campaign": "q3"},
	}
}

func newTestSender(t *testing.T, dial DialFunc) *Sender {
	t.Helper()
	s, err := New(Config{}, WithDialer(dial))
	require.NoError(t, err)
	return s
}

func TestSender_Send_Success(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	session.On("Send", mock.Anything).Return(nil).Once()
	session.On("Close").Return(nil).Once()

	var gotAuth mailer.Credentials
	var gotCfg Config
	s := newTestSender(t, func(_ context.Context, cfg Config, auth mailer.Credentials) (Session, error) {
		gotCfg = cfg
		gotAuth = auth
		return session, nil
	})

	require.NoError(t, s.Send(context.Background(), testEmail()))
	require.Equal(t, mailer.Credentials{Username: "alice@example.com", Password: "secret"}, gotAuth)
	require.Equal(t, "smtp.gmail.com", gotCfg.Host)
	require.Equal(t, 587, gotCfg.Port)
	session.AssertExpectations(t)
}

func TestSender_Send_ClosesSessionOnFailure(t *testing.T) {
	t.Parallel()

	session := &mockSession{}
	session.On("Send", mock.Anything).Return(errors.New("550 rejected")).Once()
	session.On("Close").Return(errors.New("already closed")).Once()

	s := newTestSender(t, func(context.Context, Config, mailer.Credentials) (Session, error) {
		return session, nil
	})

	err := s.Send(context.Background(), testEmail())
	require.ErrorIs(t, err, mailer.ErrSendFailed)
	require.Equal(t, mailer.KindSend, mailer.KindOf(err))
	session.AssertExpectations(t)
}

func TestSender_Send_DialFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		want    mailer.Kind
		wantErr error
	}{
		{
			name:    "rejected credentials",
			err:     fmt.Errorf("SMTP AUTH failed: %w", &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}),
			want:    mailer.KindAuth,
			wantErr: mailer.ErrAuthFailed,
		},
		{
			name:    "web login required",
			err:     &textproto.Error{Code: 534, Msg: "5.7.9 Application-specific password required"},
			want:    mailer.KindAuth,
			wantErr: mailer.ErrAuthFailed,
		},
		{
			name:    "timeout",
			err:     fmt.Errorf("dial tcp: %w", timeoutError{}),
			want:    mailer.KindTimeout,
			wantErr: mailer.ErrTimeout,
		},
		{
			name:    "connection refused",
			err:     errors.New("dial tcp 127.0.0.1:587: connect: connection refused"),
			want:    mailer.KindTransport,
			wantErr: mailer.ErrTransport,
		},
		{
			name:    "connection reset during auth",
			err:     fmt.Errorf("SMTP AUTH failed: %w", &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}),
			want:    mailer.KindTransport,
			wantErr: mailer.ErrTransport,
		},
		{
			name:    "eof during auth",
			err:     fmt.Errorf("SMTP AUTH failed: %w", io.EOF),
			want:    mailer.KindTransport,
			wantErr: mailer.ErrTransport,
		},
		{
			name:    "auth code wins over wrapped network error",
			err:     errors.Join(&textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"}, net.ErrClosed),
			want:    mailer.KindAuth,
			wantErr: mailer.ErrAuthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSender(t, func(context.Context, Config, mailer.Credentials) (Session, error) {
				return nil, tt.err
			})

			err := s.Send(context.Background(), testEmail())
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.want, mailer.KindOf(err))
		})
	}
}

func TestSender_Send_InvalidAddress(t *testing.T) {
	t.Parallel()

	dialed := false
	s := newTestSender(t, func(context.Context, Config, mailer.Credentials) (Session, error) {
		dialed = true
		return nil, errors.New("unreachable")
	})

	email := testEmail()
	email.To = []string{"not an address"}

	err := s.Send(context.Background(), email)
	require.Equal(t, mailer.KindSend, mailer.KindOf(err))
	require.False(t, dialed)
}

func TestClassifySend(t *testing.T) {
	t.Parallel()

	require.Equal(t, mailer.KindTimeout, classifySend(context.DeadlineExceeded))
	require.Equal(t, mailer.KindTimeout, classifySend(timeoutError{}))
	require.Equal(t, mailer.KindSend, classifySend(errors.New("554 transaction failed")))
}

func TestNew_Config(t *testing.T) {
	t.Parallel()

	t.Run("implicit tls defaults to 465", func(t *testing.T) {
		t.Parallel()

		s, err := New(Config{TLS: "SSL"})
		require.NoError(t, err)
		require.Equal(t, 465, s.config.Port)
		require.Equal(t, TLSImplicit, s.config.TLS)
	})

	t.Run("unknown tls mode", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{TLS: "maybe"})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("unknown auth", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{Auth: "xoauth3"})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("port out of range", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{Port: 70000})
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage(testEmail())
	require.NoError(t, err)
	require.Equal(t, []string{"Hi"}, msg.GetGenHeader(mail.HeaderSubject))
	require.Equal(t, []string{"q3"}, msg.GetGenHeader(mail.Header("X-Campaign")))
}
