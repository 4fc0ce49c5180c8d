package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
)

// Memory is an in-process store used when no database DSN is configured.
type Memory struct {
	mu    sync.Mutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID
}

func NewMemory() *Memory {
	return &Memory{runs: map[uuid.UUID]*Run{}}
}

func (m *Memory) SaveRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

func (m *Memory) GetRun(_ context.Context, id uuid.UUID) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRun(run), nil
}

func (m *Memory) ListRuns(_ context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = constants.DefaultRunListLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Run, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRun(m.runs[m.order[i]]))
	}
	return out, nil
}

func cloneRun(run *Run) *Run {
	c := *run
	c.Solution = run.Solution.Clone()
	return &c
}
