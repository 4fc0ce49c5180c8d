package cache

import (
	"context"
	"sync"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
)

// Memory is a bounded in-process cache. When full, the oldest entry is
// evicted. Solutions are copied in and out so callers cannot alter entries.
type Memory struct {
	mu      sync.Mutex
	max     int
	entries map[string]*optimizer.Solution
	order   []string
}

// NewMemory returns a cache holding at most maxEntries solutions. A
// non-positive bound uses the default.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = constants.DefaultCacheEntries
	}
	return &Memory{
		max:     maxEntries,
		entries: make(map[string]*optimizer.Solution, maxEntries),
	}
}

func (m *Memory) Get(_ context.Context, key string) (*optimizer.Solution, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sol, ok := m.entries[key]
	return sol.Clone(), ok, nil
}

func (m *Memory) Set(_ context.Context, key string, sol *optimizer.Solution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		for len(m.order) >= m.max {
			delete(m.entries, m.order[0])
			m.order = m.order[1:]
		}
		m.order = append(m.order, key)
	}
	m.entries[key] = sol.Clone()
	return nil
}

// Len reports the number of cached solutions.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
