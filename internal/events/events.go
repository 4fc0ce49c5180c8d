// Package events announces completed optimization runs to other systems.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

// RunCompleted is published after a run has been persisted.
type RunCompleted struct {
	RunID       uuid.UUID              `json:"runId"`
	CreatedAt   time.Time              `json:"createdAt"`
	Strategy    optimizer.StrategyKind `json:"strategy"`
	Backend     string                 `json:"backend"`
	TotalCost   float64                `json:"totalCost"`
	Groups      int                    `json:"groups"`
	Assignments int                    `json:"assignments"`
	NoChoice    bool                   `json:"noChoice"`
	CacheHit    bool                   `json:"cacheHit"`
	DurationMs  int64                  `json:"durationMs"`
}

// Publisher delivers run notifications.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, evt RunCompleted) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishRunCompleted(context.Context, RunCompleted) error { return nil }
