// Package analysis compares assignment strategies and flags carrier offers
// that are beaten on both price and performance.
package analysis

import (
	"fmt"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/pkg/mathutil"
)

// StrategyResult is one row of a comparison.
type StrategyResult struct {
	Strategy    optimizer.StrategyKind `json:"strategy"`
	TotalCost   float64                `json:"totalCost"`
	Savings     float64                `json:"savings"`
	Assignments int                    `json:"assignments"`
	Solution    *optimizer.Solution    `json:"solution,omitempty"`
}

// Comparison evaluates every strategy over the same shipments.
type Comparison struct {
	Weights   optimizer.Weights    `json:"weights"`
	Backend   string               `json:"backend"`
	Baseline  float64              `json:"baseline"`
	Results   []StrategyResult     `json:"results"`
	Dominated []DominatedSelection `json:"dominated"`
	Summary   Summary              `json:"summary"`
}

// Result returns the row for kind, if present.
func (c *Comparison) Result(kind optimizer.StrategyKind) (StrategyResult, bool) {
	for _, r := range c.Results {
		if r.Strategy == kind {
			return r, true
		}
	}
	return StrategyResult{}, false
}

// Compare evaluates the current, cheapest, best-performance and optimized
// strategies. Savings are measured against the current allocation, so a
// positive value means the strategy spends less than today.
func Compare(opt *optimizer.Optimizer, shipments []optimizer.Shipment, w optimizer.Weights) (*Comparison, error) {
	offers, err := optimizer.Aggregate(shipments)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{
		Weights:   w,
		Backend:   opt.Backend(),
		Dominated: Dominated(offers),
		Summary:   Summarize(offers),
	}

	strategies := []optimizer.Strategy{
		optimizer.Current(),
		optimizer.Cheapest(),
		optimizer.BestPerformance(),
		optimizer.Optimized(w),
	}
	for _, s := range strategies {
		sol, err := opt.Evaluate(shipments, s)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s strategy: %w", s.Kind, err)
		}
		if s.Kind == optimizer.StrategyCurrent {
			cmp.Baseline = sol.TotalCost
		}
		cmp.Results = append(cmp.Results, StrategyResult{
			Strategy:    s.Kind,
			TotalCost:   sol.TotalCost,
			Savings:     mathutil.Round(cmp.Baseline - sol.TotalCost),
			Assignments: len(sol.Assignments),
			Solution:    sol,
		})
	}
	return cmp, nil
}
