// Package store persists optimization runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Run records one evaluation and its outcome.
type Run struct {
	ID        uuid.UUID              `json:"id"`
	CreatedAt time.Time              `json:"createdAt"`
	Strategy  optimizer.StrategyKind `json:"strategy"`
	Weights   optimizer.Weights      `json:"weights"`
	Backend   string                 `json:"backend"`
	CacheHit  bool                   `json:"cacheHit"`
	Duration  time.Duration          `json:"duration"`
	Solution  *optimizer.Solution    `json:"solution"`
}

// Store is the run history used by the service.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}
