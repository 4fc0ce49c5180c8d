// Package optimizer assigns one carrier to every lane-week so that the whole
// lane-week volume goes to the offer that best balances normalized cost and
// normalized performance.
package optimizer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Assignment is one lane-week (or, for the current strategy, one
// lane-week-carrier) row of a solution.
type Assignment struct {
	Lane        string  `json:"lane"`
	Week        int     `json:"week"`
	Carrier     string  `json:"carrier"`
	Rate        float64 `json:"rate"`
	Performance float64 `json:"performance"`
	Volume      float64 `json:"volume"`
	TotalCost   float64 `json:"totalCost"`
	Port        string  `json:"port,omitempty"`
	Facility    string  `json:"facility,omitempty"`
}

// Solution is the outcome of evaluating a strategy over a dataset.
type Solution struct {
	Strategy    StrategyKind `json:"strategy"`
	Weights     Weights      `json:"weights"`
	Backend     string       `json:"backend,omitempty"`
	Assignments []Assignment `json:"assignments"`
	TotalCost   float64      `json:"totalCost"`
	Objective   float64      `json:"objective"`
	Groups      int          `json:"groups"`
	Offers      int          `json:"offers"`
	// NoChoice is set when every lane-week had a single offer, so the
	// strategy could not change anything.
	NoChoice bool `json:"noChoice"`
}

// Clone returns a copy that shares no assignment rows with s.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	c := *s
	if s.Assignments != nil {
		c.Assignments = make([]Assignment, len(s.Assignments))
		copy(c.Assignments, s.Assignments)
	}
	return &c
}

// Empty indicates whether the solution covers no lane-weeks.
func (s *Solution) Empty() bool {
	return s == nil || len(s.Assignments) == 0
}

// Optimizer evaluates assignment strategies. It holds no per-run state, so a
// single Optimizer may be reused across datasets and weight settings.
type Optimizer struct {
	logger *zap.Logger
	solver Solver
}

// New constructs an Optimizer. A nil solver selects the group-scan backend.
func New(logger *zap.Logger, solver Solver) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if solver == nil {
		solver = GroupScanSolver{}
	}
	return &Optimizer{logger: logger, solver: solver}
}

// Backend names the solver used for the optimized strategy.
func (o *Optimizer) Backend() string {
	return o.solver.Name()
}

// Optimize runs the weighted assignment program over shipments.
func (o *Optimizer) Optimize(shipments []Shipment, w Weights) (*Solution, error) {
	return o.Evaluate(shipments, Optimized(w))
}

func (o *Optimizer) solve(offers []Offer, w Weights) (*Solution, error) {
	problem := NewProblem(Normalize(offers, w))
	sel, err := o.solver.Solve(problem)
	if err != nil {
		return nil, fmt.Errorf("solve lane-week assignment: %w", err)
	}
	if !sel.Optimal() {
		return nil, &InfeasibleError{Backend: o.solver.Name(), Status: sel.Status}
	}
	if len(sel.Chosen) != len(problem.Constraints) {
		return nil, &InfeasibleError{
			Backend: o.solver.Name(),
			Status:  StatusNumerical,
			Detail:  fmt.Sprintf("solver returned %d selections for %d lane-weeks", len(sel.Chosen), len(problem.Constraints)),
		}
	}

	sol := newSolution(problem, sel.Chosen)
	sol.Objective = sel.Objective
	sol.Backend = o.solver.Name()
	return sol, nil
}

// selectBy applies a pre-selection rule to every lane-week.
func selectBy(offers []Offer, less func(a, b ScoredOffer) bool) *Solution {
	problem := NewProblem(Normalize(offers, DefaultWeights()))
	chosen := make([]int, len(problem.Constraints))
	for i, c := range problem.Constraints {
		best := c.Vars[0]
		if !c.Forced {
			for _, j := range c.Vars[1:] {
				if less(problem.Offers[j], problem.Offers[best]) {
					best = j
				}
			}
		}
		chosen[i] = best
	}
	return newSolution(problem, chosen)
}

func newSolution(problem Problem, chosen []int) *Solution {
	sol := &Solution{
		Groups:      len(problem.Constraints),
		Offers:      len(problem.Offers),
		Assignments: make([]Assignment, 0, len(chosen)),
		NoChoice:    len(problem.Constraints) > 0,
	}
	for i, c := range problem.Constraints {
		if !c.Forced {
			sol.NoChoice = false
		}
		o := problem.Offers[chosen[i]].Offer
		sol.Assignments = append(sol.Assignments, assignmentFor(o, o.Volume))
	}
	sol.finish()
	return sol
}

func assignmentFor(o Offer, volume float64) Assignment {
	return Assignment{
		Lane:        o.Lane,
		Week:        o.Week,
		Carrier:     o.Carrier,
		Rate:        o.Rate,
		Performance: o.Performance,
		Volume:      volume,
		TotalCost:   o.Rate * volume,
		Port:        o.Port,
		Facility:    o.Facility,
	}
}

// finish sorts the rows and totals their cost.
func (s *Solution) finish() {
	sort.SliceStable(s.Assignments, func(i, j int) bool {
		a, b := s.Assignments[i], s.Assignments[j]
		if a.Lane != b.Lane {
			return a.Lane < b.Lane
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.Carrier < b.Carrier
	})
	s.TotalCost = 0
	for _, a := range s.Assignments {
		s.TotalCost += a.TotalCost
	}
}
