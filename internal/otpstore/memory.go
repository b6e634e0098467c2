package otpstore

import (
	"context"
	"sync"
	"time"

	"github.com/kittipat-dev/unilib-api/internal/model"
)

// Memory is the in-process Store. Process-local: records are lost on restart
// and not shared across instances, which is acceptable for single-process
// deployments.
type Memory struct {
	mu      sync.Mutex
	records map[string]model.OTPRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]model.OTPRecord)}
}

func (m *Memory) Get(_ context.Context, address string) (*model.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[address]
	if !ok {
		return nil, ErrNotFound
	}

	out := record
	return &out, nil
}

func (m *Memory) Set(_ context.Context, address string, record *model.OTPRecord, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[address] = *record
	return nil
}

func (m *Memory) Delete(_ context.Context, address string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, address)
	return nil
}
