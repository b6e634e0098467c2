package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	errs  []error
	calls int
}

func (f *fakeSender) DialAndSend(_ ...*gomail.Message) error {
	defer func() { f.calls++ }()

	if f.calls < len(f.errs) {
		return f.errs[f.calls]
	}
	return nil
}

func newTestChannel(sender smtpSender) *smtpChannel {
	logger := zerolog.Nop()

	return &smtpChannel{
		cfg:    &smtpConfig{From: "noreply@unilib.local"},
		sender: sender,
		logger: &logger,
	}
}

func TestSMTPSend_Success(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	receipt, err := newTestChannel(sender).Send(context.Background(), Email{
		To:      []string{"a@x.com"},
		Subject: "hello",
		Body:    "body",
	})

	require.NoError(t, err)
	assert.Equal(t, "smtp", receipt.Channel)
	assert.NotEmpty(t, receipt.MessageID)
	assert.Equal(t, 1, sender.calls)
}

func TestSMTPSend_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		errors.New("connection reset"),
		errors.New("timeout"),
	}}

	receipt, err := newTestChannel(sender).Send(context.Background(), Email{
		To:   []string{"a@x.com"},
		Body: "body",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, "smtp", receipt.Channel)
}

func TestSMTPSend_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		errors.New("connection reset"),
		errors.New("connection reset"),
		errors.New("connection reset"),
	}}

	_, err := newTestChannel(sender).Send(context.Background(), Email{
		To:   []string{"a@x.com"},
		Body: "body",
	})

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 3, sender.calls)
}

func TestSMTPSend_AuthFailureDoesNotRetry(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{errs: []error{
		errors.New("535 5.7.8 authentication credentials invalid"),
	}}

	_, err := newTestChannel(sender).Send(context.Background(), Email{
		To:   []string{"a@x.com"},
		Body: "body",
	})

	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 1, sender.calls)
}

func TestSandbox_CapturesWithPreview(t *testing.T) {
	t.Parallel()

	sandbox := NewSandbox("noreply@unilib.local")

	receipt, err := sandbox.Send(context.Background(), Email{
		To:      []string{"a@x.com"},
		Subject: "Your Verification Code",
		Body:    "code inside",
	})
	require.NoError(t, err)

	assert.Equal(t, "sandbox", receipt.Channel)
	assert.Equal(t, "sandbox://outbox/"+receipt.MessageID, receipt.PreviewURL)

	last, ok := sandbox.Last()
	require.True(t, ok)
	assert.Equal(t, receipt.MessageID, last.ID)
	assert.Equal(t, []string{"a@x.com"}, last.Email.To)
	assert.Len(t, sandbox.Outbox(), 1)
}
