package mailer

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is a test delivery channel. Messages are captured in memory and
// never leave the process; each receipt carries a preview locator so a
// developer can inspect what would have been sent.
type Sandbox struct {
	from string

	mu     sync.Mutex
	outbox []SandboxMessage
}

// SandboxMessage is a captured email.
type SandboxMessage struct {
	ID    string
	From  string
	Email Email
}

// NewSandbox creates an empty sandbox channel.
func NewSandbox(from string) *Sandbox {
	return &Sandbox{from: from}
}

// Send captures the email. It always succeeds.
func (s *Sandbox) Send(_ context.Context, email Email) (*Receipt, error) {
	id := uuid.NewString()

	s.mu.Lock()
	s.outbox = append(s.outbox, SandboxMessage{ID: id, From: s.from, Email: email})
	s.mu.Unlock()

	return &Receipt{
		MessageID:  id,
		Channel:    "sandbox",
		PreviewURL: "sandbox://outbox/" + id,
	}, nil
}

// Outbox returns a copy of all captured messages in delivery order.
func (s *Sandbox) Outbox() []SandboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SandboxMessage, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// Last returns the most recently captured message, if any.
func (s *Sandbox) Last() (SandboxMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outbox) == 0 {
		return SandboxMessage{}, false
	}
	return s.outbox[len(s.outbox)-1], true
}
