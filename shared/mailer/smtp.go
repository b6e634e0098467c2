package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

const (
	smtpMaxAttempts    = 3
	smtpAttemptTimeout = 10 * time.Second
)

type smtpSender interface {
	DialAndSend(msg ...*gomail.Message) error
}

type smtpChannel struct {
	cfg    *smtpConfig
	sender smtpSender
	dial   func() error
	logger *zerolog.Logger
}

func newSMTPChannel(cfg *smtpConfig, logger *zerolog.Logger) *smtpChannel {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	return &smtpChannel{
		cfg:    cfg,
		sender: dialer,
		dial: func() error {
			closer, err := dialer.Dial()
			if err != nil {
				return err
			}
			return closer.Close()
		},
		logger: logger,
	}
}

// check verifies the SMTP server is reachable with the configured credentials.
func (c *smtpChannel) check() error {
	return c.dial()
}

// Send delivers the email over SMTP, retrying transient failures up to three
// times with increasing backoff. Authentication failures abort immediately.
func (c *smtpChannel) Send(ctx context.Context, email Email) (*Receipt, error) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", c.cfg.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}

	var lastErr error
	for attempt := 1; attempt <= smtpMaxAttempts; attempt++ {
		err := c.sendOnce(ctx, msg)
		if err == nil {
			return &Receipt{
				MessageID: uuid.NewString(),
				Channel:   "smtp",
			}, nil
		}

		lastErr = err
		c.logger.Warn().Err(err).Int("attempt", attempt).Msg("email delivery attempt failed")

		if isAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}

		if attempt < smtpMaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, lastErr)
}

// sendOnce bounds a single delivery attempt with a timeout distinct from the
// retry backoff. gomail has no context support, so the attempt runs in its
// own goroutine.
func (c *smtpChannel) sendOnce(ctx context.Context, msg *gomail.Message) error {
	ctx, cancel := context.WithTimeout(ctx, smtpAttemptTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.sender.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isAuthError(err error) bool {
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "535") ||
		strings.Contains(text, "authentication") ||
		strings.Contains(text, "invalid login")
}
