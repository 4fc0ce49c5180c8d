package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// SimplexSolver solves the LP relaxation of the assignment program in
// standard form (minimize cᵀx subject to Ax = 1, x ≥ 0). Each column of A
// has a single 1 in its lane-week row, so every basic optimal solution is
// integral; the relaxed answer is still checked before it is accepted.
// This backend keeps a true program formulation available for constraints
// that couple lane-weeks.
type SimplexSolver struct {
	// Tolerance is passed to the simplex method; zero selects gonum's default.
	Tolerance float64
}

// Name implements Solver.
func (SimplexSolver) Name() string { return constants.BackendSimplex }

// Solve implements Solver.
func (s SimplexSolver) Solve(p Problem) (Selection, error) {
	m, n := len(p.Constraints), len(p.Offers)
	if m == 0 {
		return Selection{Status: StatusOptimal}, nil
	}
	if n < m {
		return Selection{Status: StatusInfeasible}, &InfeasibleError{
			Backend: constants.BackendSimplex,
			Status:  StatusInfeasible,
			Detail:  fmt.Sprintf("%d lane-weeks but only %d offers", m, n),
		}
	}

	c := make([]float64, n)
	for j, o := range p.Offers {
		c[j] = o.Score
	}
	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	for r, con := range p.Constraints {
		for _, j := range con.Vars {
			A.Set(r, j, 1)
		}
		b[r] = 1
	}

	objective, x, err := lp.Simplex(c, A, b, s.Tolerance, nil)
	if err != nil {
		status := StatusNumerical
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			status = StatusInfeasible
		case errors.Is(err, lp.ErrUnbounded):
			status = StatusUnbounded
		}
		return Selection{Status: status}, &InfeasibleError{
			Backend: constants.BackendSimplex,
			Status:  status,
			Detail:  err.Error(),
		}
	}

	sel := Selection{Chosen: make([]int, m), Objective: objective, Status: StatusOptimal}
	for r, con := range p.Constraints {
		chosen := -1
		for _, j := range con.Vars {
			if x[j] <= constants.SelectionThreshold {
				continue
			}
			if chosen >= 0 {
				chosen = -2
				break
			}
			chosen = j
		}
		if chosen < 0 {
			return Selection{Status: StatusNumerical}, &InfeasibleError{
				Backend: constants.BackendSimplex,
				Status:  StatusNumerical,
				Detail:  fmt.Sprintf("fractional assignment for lane %s week %d", con.Group.Lane, con.Group.Week),
			}
		}
		sel.Chosen[r] = settleTie(p, con.Vars, chosen)
	}
	return sel, nil
}

// settleTie applies the group scan ordering among offers whose score equals
// the vertex's choice, so both backends report the same carriers.
func settleTie(p Problem, vars []int, chosen int) int {
	best := chosen
	for _, j := range vars {
		if math.Abs(p.Offers[j].Score-p.Offers[chosen].Score) > constants.ScoreTolerance {
			continue
		}
		if lessByScore(p.Offers[j], p.Offers[best]) {
			best = j
		}
	}
	return best
}
