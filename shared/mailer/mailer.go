package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

var (
	// ErrDeliveryFailed indicates every delivery attempt was exhausted.
	ErrDeliveryFailed = errors.New("email delivery failed")

	// ErrAuthFailed indicates the channel rejected our credentials. Not
	// retryable; retrying a bad password only locks the account faster.
	ErrAuthFailed = errors.New("email channel authentication failed")
)

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// Receipt describes a completed delivery. PreviewURL is set only by the
// sandbox channel and points at the captured message.
type Receipt struct {
	MessageID  string
	Channel    string
	PreviewURL string
}

// Notifier delivers a message to a user-controlled external address. The
// OTP and recovery usecases depend only on this contract.
type Notifier interface {
	Send(ctx context.Context, email Email) (*Receipt, error)
}

// Mailer selects between a real SMTP channel and the sandbox channel and can
// re-run that selection at runtime. It is constructed once at startup and
// passed explicitly to its consumers.
type Mailer struct {
	cfg    *smtpConfig
	logger *zerolog.Logger

	mu     sync.RWMutex
	active Notifier
}

// NewMailer builds a Mailer. When SMTP is fully configured and reachable the
// SMTP channel is used; otherwise delivery falls back to the sandbox channel
// so the rest of the system remains testable without external dependencies.
func NewMailer(logger *zerolog.Logger) (*Mailer, error) {
	cfg, err := newSMTPConfig()
	if err != nil {
		return nil, err
	}

	m := &Mailer{cfg: cfg, logger: logger}
	m.active = m.selectChannel()

	return m, nil
}

// Send delivers through the currently selected channel.
func (m *Mailer) Send(ctx context.Context, email Email) (*Receipt, error) {
	m.mu.RLock()
	active := m.active
	m.mu.RUnlock()

	return active.Send(ctx, email)
}

// Redial re-runs channel selection, picking SMTP back up after a transient
// configuration or network problem.
func (m *Mailer) Redial() {
	channel := m.selectChannel()

	m.mu.Lock()
	m.active = channel
	m.mu.Unlock()
}

func (m *Mailer) selectChannel() Notifier {
	if err := m.cfg.validate(); err != nil {
		m.logger.Warn().Err(err).Msg("SMTP not configured, falling back to sandbox mailer")
		return NewSandbox(m.cfg.From)
	}

	smtp := newSMTPChannel(m.cfg, m.logger)
	if err := smtp.check(); err != nil {
		m.logger.Warn().Err(err).Msg("SMTP unreachable, falling back to sandbox mailer")
		return NewSandbox(m.cfg.From)
	}

	m.logger.Info().Str("host", m.cfg.Host).Int("port", m.cfg.Port).Msg("SMTP mailer ready")

	return smtp
}

// Sandbox returns the active sandbox channel, or nil when a real SMTP
// channel is in use. Test helpers use it to inspect captured messages.
func (m *Mailer) Sandbox() *Sandbox {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sandbox, _ := m.active.(*Sandbox)
	return sandbox
}

// smtpConfig holds SMTP configuration for sending emails.
type smtpConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"    envDefault:"noreply@unilib.local"`
}

func newSMTPConfig() (*smtpConfig, error) {
	cfg, err := env.ParseAs[smtpConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse SMTP environment variables: %w", err)
	}

	return &cfg, nil
}

// validate checks if the SMTP configuration is complete.
func (c *smtpConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing SMTP_USERNAME environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}

	return nil
}
