package numerator

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	mu      sync.Mutex
	counter map[string]int64

	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options) (string, error)
}

// NewMockGenerator creates a mock with an in-memory counter per prefix.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{counter: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int64)
	}
	m.counter[cfg.Prefix]++
	return formatNumber(cfg, m.counter[cfg.Prefix]), nil
}

// SetNextNumber implements Generator.
func (m *MockGenerator) SetNextNumber(ctx context.Context, cfg Config, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int64)
	}
	if value < 0 {
		return fmt.Errorf("negative sequence value %d", value)
	}
	m.counter[cfg.Prefix] = value
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
