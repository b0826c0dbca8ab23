package search

import (
	"context"
	"sync"
)

// MockImages is an in-memory ImageProvider for tests and offline runs.
type MockImages struct {
	mu      sync.Mutex
	Hits    []ImageHit
	Err     error
	ErrOnce bool // When set, Err fires on the first call only
	Calls   int
	name    string
}

// NewMockImages creates a mock image provider returning canned hits.
func NewMockImages() *MockImages {
	return &MockImages{
		name: "mock-images",
		Hits: []ImageHit{
			{URL: "https://images.example.com/mock-1.jpg", Title: "Mock result 1", Source: "example.com"},
			{URL: "https://images.example.com/mock-2.png", Title: "Mock result 2", Source: "example.com"},
		},
	}
}

// Name returns the descriptive provider name.
func (m *MockImages) Name() string { return m.name }

// IsConfigured always reports true for the mock.
func (m *MockImages) IsConfigured() bool { return true }

// CostPerThousand is zero for the mock.
func (m *MockImages) CostPerThousand() float64 { return 0 }

// SearchImages returns the canned hits or the configured error.
func (m *MockImages) SearchImages(ctx context.Context, query string, q ImageQuery) ([]ImageHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		err := m.Err
		if m.ErrOnce {
			m.Err = nil
		}
		return nil, err
	}

	hits := m.Hits
	if q.Max > 0 && len(hits) > q.Max {
		hits = hits[:q.Max]
	}
	return hits, nil
}
