package optimizer

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// StrategyKind names a way of choosing carriers for lane-weeks.
type StrategyKind string

const (
	// StrategyCurrent keeps every carrier's present share of each lane-week.
	StrategyCurrent StrategyKind = "current"
	// StrategyCheapest gives each lane-week to its lowest-rate offer.
	StrategyCheapest StrategyKind = "cheapest"
	// StrategyBestPerformance gives each lane-week to its best performer.
	StrategyBestPerformance StrategyKind = "best-performance"
	// StrategyOptimized solves the weighted assignment program.
	StrategyOptimized StrategyKind = "optimized"
)

// StrategyKinds lists every strategy in comparison order.
func StrategyKinds() []StrategyKind {
	return []StrategyKind{StrategyCurrent, StrategyCheapest, StrategyBestPerformance, StrategyOptimized}
}

// ParseStrategyKind accepts the canonical names plus a few spellings used by
// the dashboard.
func ParseStrategyKind(value string) (StrategyKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "optimized", "optimised", "optimal", "lp":
		return StrategyOptimized, nil
	case "current", "baseline":
		return StrategyCurrent, nil
	case "cheapest", "lowest-cost", "lowest_cost":
		return StrategyCheapest, nil
	case "best-performance", "best_performance", "bestperformance", "performance":
		return StrategyBestPerformance, nil
	default:
		return "", fmt.Errorf("strategy %q is not supported", value)
	}
}

// Strategy is a tagged variant: Weights only matter for StrategyOptimized.
type Strategy struct {
	Kind    StrategyKind `json:"kind"`
	Weights Weights      `json:"weights"`
}

// Current, Cheapest, BestPerformance and Optimized construct strategies.
func Current() Strategy         { return Strategy{Kind: StrategyCurrent} }
func Cheapest() Strategy        { return Strategy{Kind: StrategyCheapest} }
func BestPerformance() Strategy { return Strategy{Kind: StrategyBestPerformance} }
func Optimized(w Weights) Strategy {
	return Strategy{Kind: StrategyOptimized, Weights: w}
}

// Evaluate applies strategy to shipments. Every strategy rejects incomplete
// data so that comparisons between them cover the same records.
func (o *Optimizer) Evaluate(shipments []Shipment, strategy Strategy) (*Solution, error) {
	if strategy.Kind == "" {
		strategy.Kind = StrategyOptimized
	}
	if strategy.Kind == StrategyOptimized {
		if err := strategy.Weights.Validate(); err != nil {
			return nil, err
		}
	}

	offers, err := Aggregate(shipments)
	if err != nil {
		o.logger.Error("failed to aggregate offers",
			zap.String("op", "optimizer.Evaluate"),
			zap.String("strategy", string(strategy.Kind)),
			zap.Int("shipments", len(shipments)),
			zap.Error(err),
		)
		return nil, err
	}

	var sol *Solution
	switch {
	case len(offers) == 0:
		o.logger.Debug("no offers supplied, returning empty solution",
			zap.String("op", "optimizer.Evaluate"),
			zap.String("strategy", string(strategy.Kind)),
		)
		sol = &Solution{Assignments: []Assignment{}}
	case strategy.Kind == StrategyCurrent:
		sol = currentSolution(offers)
	case strategy.Kind == StrategyCheapest:
		sol = selectBy(offers, lessByRate)
	case strategy.Kind == StrategyBestPerformance:
		sol = selectBy(offers, lessByPerformance)
	case strategy.Kind == StrategyOptimized:
		sol, err = o.solve(offers, strategy.Weights)
		if err != nil {
			o.logger.Error("optimization failed",
				zap.String("op", "optimizer.Evaluate"),
				zap.String("backend", o.solver.Name()),
				zap.Int("offers", len(offers)),
				zap.Error(err),
			)
			return nil, err
		}
	default:
		return nil, fmt.Errorf("strategy %q is not supported", strategy.Kind)
	}

	sol.Strategy = strategy.Kind
	if strategy.Kind == StrategyOptimized {
		sol.Weights = strategy.Weights
	}

	if sol.NoChoice {
		o.logger.Info("every lane-week has a single carrier offer; strategy had no effect",
			zap.String("op", "optimizer.Evaluate"),
			zap.String("strategy", string(strategy.Kind)),
			zap.Int("groups", sol.Groups),
		)
	}
	o.logger.Debug("strategy evaluated",
		zap.String("op", "optimizer.Evaluate"),
		zap.String("strategy", string(strategy.Kind)),
		zap.Int("offers", sol.Offers),
		zap.Int("groups", sol.Groups),
		zap.Int("assignments", len(sol.Assignments)),
		zap.Float64("totalCost", sol.TotalCost),
	)
	return sol, nil
}

// currentSolution reports the incumbent allocation: each carrier keeps the
// volume it moves today, so a lane-week may appear once per carrier.
func currentSolution(offers []Offer) *Solution {
	groups := Groups(offers)
	sol := &Solution{
		Groups:      len(groups),
		Offers:      len(offers),
		Assignments: make([]Assignment, 0, len(offers)),
		NoChoice:    true,
	}
	for _, g := range groups {
		if !g.Singleton() {
			sol.NoChoice = false
		}
	}
	for _, o := range offers {
		sol.Assignments = append(sol.Assignments, assignmentFor(o, o.CarrierVolume))
	}
	sol.finish()
	return sol
}
