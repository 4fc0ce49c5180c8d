package optimizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
)

// Status is the outcome reported by a solver backend.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusNumerical  Status = "numerical"
)

// Constraint requires the indicators of Vars to sum to exactly one. Forced
// marks a singleton lane-week whose only offer is fixed to 1.
type Constraint struct {
	Group  GroupKey
	Vars   []int
	Forced bool
}

// Problem is the 0/1 assignment program: one binary indicator per offer,
// one equality constraint per lane-week, minimize the sum of selected scores.
type Problem struct {
	Offers      []ScoredOffer
	Constraints []Constraint
}

// NewProblem builds the program for scored offers. Singleton lane-weeks are
// modelled as forced constraints so every lane-week follows the same path.
func NewProblem(offers []ScoredOffer) Problem {
	plain := make([]Offer, len(offers))
	for i, o := range offers {
		plain[i] = o.Offer
	}
	groups := Groups(plain)
	constraints := make([]Constraint, len(groups))
	for i, g := range groups {
		constraints[i] = Constraint{
			Group:  g.Key,
			Vars:   g.Offers,
			Forced: g.Singleton(),
		}
	}
	return Problem{Offers: offers, Constraints: constraints}
}

// Selection is a solved assignment: Chosen[i] is the offer index selected
// for Constraints[i].
type Selection struct {
	Chosen    []int
	Objective float64
	Status    Status
}

// Optimal reports whether the backend proved optimality.
func (s Selection) Optimal() bool {
	return s.Status == StatusOptimal
}

// Solver solves an assignment Problem.
type Solver interface {
	Name() string
	Solve(p Problem) (Selection, error)
}

// NewSolver returns the solver backend with the given name.
func NewSolver(backend string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", constants.BackendGroupScan:
		return GroupScanSolver{}, nil
	case constants.BackendSimplex:
		return SimplexSolver{}, nil
	default:
		return nil, fmt.Errorf("solver backend %q is not supported", backend)
	}
}

// GroupScanSolver exploits the set-partition structure of the program: the
// constraints share no variables, so the optimum is the per-group minimum.
type GroupScanSolver struct{}

// Name implements Solver.
func (GroupScanSolver) Name() string { return constants.BackendGroupScan }

// Solve implements Solver.
func (GroupScanSolver) Solve(p Problem) (Selection, error) {
	sel := Selection{Chosen: make([]int, len(p.Constraints)), Status: StatusOptimal}
	for i, c := range p.Constraints {
		if len(c.Vars) == 0 || anyOutOfRange(c.Vars, len(p.Offers)) {
			return Selection{Status: StatusInfeasible}, &InfeasibleError{
				Backend: constants.BackendGroupScan,
				Status:  StatusInfeasible,
				Detail:  fmt.Sprintf("lane %s week %d has no valid offers", c.Group.Lane, c.Group.Week),
			}
		}
		if c.Forced {
			sel.Chosen[i] = c.Vars[0]
			sel.Objective += p.Offers[c.Vars[0]].Score
			continue
		}
		best := c.Vars[0]
		for _, j := range c.Vars[1:] {
			if lessByScore(p.Offers[j], p.Offers[best]) {
				best = j
			}
		}
		if math.IsNaN(p.Offers[best].Score) {
			return Selection{Status: StatusNumerical}, &InfeasibleError{
				Backend: constants.BackendGroupScan,
				Status:  StatusNumerical,
				Detail:  fmt.Sprintf("lane %s week %d has a non-numeric score", c.Group.Lane, c.Group.Week),
			}
		}
		sel.Chosen[i] = best
		sel.Objective += p.Offers[best].Score
	}
	return sel, nil
}

func anyOutOfRange(vars []int, n int) bool {
	for _, j := range vars {
		if j < 0 || j >= n {
			return true
		}
	}
	return false
}

// lessByScore orders offers by score, then unit score, then rate, then
// performance, then carrier so that ties resolve the same way on every run.
func lessByScore(a, b ScoredOffer) bool {
	if math.Abs(a.Score-b.Score) > constants.ScoreTolerance {
		return a.Score < b.Score
	}
	if math.Abs(a.UnitScore-b.UnitScore) > constants.ScoreTolerance {
		return a.UnitScore < b.UnitScore
	}
	if a.Rate != b.Rate {
		return a.Rate < b.Rate
	}
	if a.Performance != b.Performance {
		return a.Performance > b.Performance
	}
	return a.Carrier < b.Carrier
}

// lessByRate picks the cheapest offer, preferring better performance on ties.
func lessByRate(a, b ScoredOffer) bool {
	if a.Rate != b.Rate {
		return a.Rate < b.Rate
	}
	if a.Performance != b.Performance {
		return a.Performance > b.Performance
	}
	return a.Carrier < b.Carrier
}

// lessByPerformance picks the best performer, preferring the lower rate on ties.
func lessByPerformance(a, b ScoredOffer) bool {
	if a.Performance != b.Performance {
		return a.Performance > b.Performance
	}
	if a.Rate != b.Rate {
		return a.Rate < b.Rate
	}
	return a.Carrier < b.Carrier
}
