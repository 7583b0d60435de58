package resend

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailmerge/pkg/mailer"
)

type mockEmails struct {
	mock.Mock
}

func (m *mockEmails) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	args := m.Called(ctx, params)
	resp, _ := args.Get(0).(*resend.SendEmailResponse)
	return resp, args.Error(1)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrMissingAPIKey)

	s, err := New(Config{APIKey: "re_test"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	emails := &mockEmails{}
	s := &Sender{emails: emails}

	emails.On("SendWithContext", mock.Anything, mock.MatchedBy(func(req *resend.SendEmailRequest) bool {
		return req.From == "Alice <alice@example.com>" &&
			req.To[0] == "bob@example.com" &&
			req.Subject == "Hi" &&
			req.ReplyTo == "support@example.com" &&
			req.Headers["X-Campaign"] == "q3"
	})).Return(&resend.SendEmailResponse{Id: "msg_1"}, nil)

	err := s.Send(context.Background(), &mailer.Email{
		From:     "alice@example.com",
		FromName: "Alice",
		To:       []string{"bob@example.com"},
		Subject:  "Hi",
		HTML:     "<p>Hi</p>",
		Headers:  map[string]string{"Reply-To": "support@example.com", "X-Campaign": "q3"},
	})
	require.NoError(t, err)
	emails.AssertExpectations(t)
}

func TestSender_Send_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want mailer.Kind
	}{
		{name: "api rejection", err: errors.New("validation_error"), want: mailer.KindSend},
		{name: "deadline", err: context.DeadlineExceeded, want: mailer.KindTimeout},
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: mailer.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			emails := &mockEmails{}
			emails.On("SendWithContext", mock.Anything, mock.Anything).Return(nil, tt.err)

			err := (&Sender{emails: emails}).Send(context.Background(), &mailer.Email{To: []string{"x@example.com"}})
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.want, mailer.KindOf(err))
		})
	}
}
