package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// Counters behave like the real implementation: one sequence per (prefix, day).
type MockGenerator struct {
	mu       sync.Mutex
	counters map[string]int64

	// NextNumberFunc overrides the default behavior when set.
	NextNumberFunc func(ctx context.Context, cfg Config, at time.Time) (string, error)
}

// NewMockGenerator creates an empty mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{counters: make(map[string]int64)}
}

// NextNumber implements Generator.
func (m *MockGenerator) NextNumber(ctx context.Context, cfg Config, at time.Time) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, cfg, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	key := cfg.Prefix + "_" + DateKey(at)
	m.counters[key]++
	return Format(cfg, at, m.counters[key]), nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
