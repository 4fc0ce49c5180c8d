package optimizer

import (
	"errors"
	"testing"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
)

func scoredProblem(t *testing.T, shipments []Shipment, w Weights) Problem {
	t.Helper()
	offers, err := Aggregate(shipments)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	return NewProblem(Normalize(offers, w))
}

func TestNewProblemForcesSingletons(t *testing.T) {
	p := scoredProblem(t, []Shipment{
		{Lane: "L1", Week: 1, Carrier: "A", Rate: 500, Performance: perf(0.6), Volume: 6},
		{Lane: "L1", Week: 1, Carrier: "B", Rate: 450, Performance: perf(0.9), Volume: 4},
		{Lane: "L2", Week: 5, Carrier: "C", Rate: 600, Performance: perf(0.2), Volume: 20},
	}, DefaultWeights())

	if len(p.Constraints) != 2 {
		t.Fatalf("expected one constraint per lane-week, got %d", len(p.Constraints))
	}
	if p.Constraints[0].Forced || len(p.Constraints[0].Vars) != 2 {
		t.Errorf("expected free two-offer constraint, got %+v", p.Constraints[0])
	}
	if !p.Constraints[1].Forced || len(p.Constraints[1].Vars) != 1 {
		t.Errorf("expected forced singleton constraint, got %+v", p.Constraints[1])
	}
}

func TestNewSolver(t *testing.T) {
	tests := []struct {
		backend string
		want    string
		wantErr bool
	}{
		{"", constants.BackendGroupScan, false},
		{"GroupScan", constants.BackendGroupScan, false},
		{"simplex", constants.BackendSimplex, false},
		{"cbc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			solver, err := NewSolver(tt.backend)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for backend %q", tt.backend)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSolver() error = %v", err)
			}
			if solver.Name() != tt.want {
				t.Errorf("expected backend %s, got %s", tt.want, solver.Name())
			}
		})
	}
}

func TestSolversAgreeOnDistinctScores(t *testing.T) {
	p := scoredProblem(t, propertyShipments(), DefaultWeights())

	scan, err := GroupScanSolver{}.Solve(p)
	if err != nil {
		t.Fatalf("group scan Solve() error = %v", err)
	}
	lp, err := SimplexSolver{}.Solve(p)
	if err != nil {
		t.Fatalf("simplex Solve() error = %v", err)
	}

	if !scan.Optimal() || !lp.Optimal() {
		t.Fatalf("expected optimal status, got %s and %s", scan.Status, lp.Status)
	}
	for i := range scan.Chosen {
		if scan.Chosen[i] != lp.Chosen[i] {
			t.Errorf("constraint %d: group scan chose %d, simplex chose %d", i, scan.Chosen[i], lp.Chosen[i])
		}
	}
	if diff := scan.Objective - lp.Objective; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("objective mismatch: %v vs %v", scan.Objective, lp.Objective)
	}
}

func TestGroupScanTieBreakIsDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		offers  []Shipment
		weights Weights
		want    string
	}{
		{
			name: "identical offers pick smaller carrier",
			offers: []Shipment{
				{Lane: "L1", Week: 1, Carrier: "ZETA", Rate: 300, Performance: perf(0.8), Volume: 1},
				{Lane: "L1", Week: 1, Carrier: "ALPHA", Rate: 300, Performance: perf(0.8), Volume: 1},
			},
			weights: DefaultWeights(),
			want:    "ALPHA",
		},
		{
			name: "equal score picks lower rate",
			offers: []Shipment{
				{Lane: "L1", Week: 1, Carrier: "A", Rate: 320, Performance: perf(0.8), Volume: 1},
				{Lane: "L1", Week: 1, Carrier: "B", Rate: 300, Performance: perf(0.8), Volume: 1},
				{Lane: "L2", Week: 1, Carrier: "C", Rate: 310, Performance: perf(0.5), Volume: 1},
			},
			weights: Weights{Performance: 1},
			want:    "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scoredProblem(t, tt.offers, tt.weights)
			for run := 0; run < 3; run++ {
				sel, err := GroupScanSolver{}.Solve(p)
				if err != nil {
					t.Fatalf("Solve() error = %v", err)
				}
				if got := p.Offers[sel.Chosen[0]].Carrier; got != tt.want {
					t.Fatalf("run %d: expected %s, got %s", run, tt.want, got)
				}
			}
		})
	}
}

func TestGroupScanRejectsEmptyConstraint(t *testing.T) {
	p := Problem{Constraints: []Constraint{{Group: GroupKey{Lane: "L1", Week: 1}}}}

	sel, err := GroupScanSolver{}.Solve(p)
	if !errors.Is(err, ErrOptimizationInfeasible) {
		t.Fatalf("expected ErrOptimizationInfeasible, got %v", err)
	}
	if sel.Optimal() {
		t.Errorf("expected non-optimal status, got %s", sel.Status)
	}
}

func TestSimplexRejectsMoreConstraintsThanOffers(t *testing.T) {
	p := Problem{Constraints: []Constraint{{Group: GroupKey{Lane: "L1", Week: 1}}}}

	_, err := SimplexSolver{}.Solve(p)
	var infeasible *InfeasibleError
	if !errors.As(err, &infeasible) {
		t.Fatalf("expected *InfeasibleError, got %v", err)
	}
	if infeasible.Backend != constants.BackendSimplex || infeasible.Status != StatusInfeasible {
		t.Errorf("unexpected diagnostic %+v", infeasible)
	}
}

func TestSimplexEmptyProblem(t *testing.T) {
	sel, err := SimplexSolver{}.Solve(Problem{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if !sel.Optimal() || len(sel.Chosen) != 0 {
		t.Fatalf("expected empty optimal selection, got %+v", sel)
	}
}

func TestSolversRankZeroVolumeLaneWeeks(t *testing.T) {
	offers := []Shipment{
		{Lane: "L1", Week: 1, Carrier: "CHEAP", Rate: 400, Performance: perf(0.2), Volume: 0},
		{Lane: "L1", Week: 1, Carrier: "BEST", Rate: 500, Performance: perf(0.9), Volume: 0},
		{Lane: "L2", Week: 1, Carrier: "OTHER", Rate: 450, Performance: perf(0.5), Volume: 3},
		{Lane: "L2", Week: 1, Carrier: "SPARE", Rate: 460, Performance: perf(0.4), Volume: 1},
	}

	tests := []struct {
		name    string
		weights Weights
		want    string
	}{
		{name: "cost only picks cheapest", weights: Weights{Cost: 1}, want: "CHEAP"},
		{name: "performance only picks best performer", weights: Weights{Performance: 1}, want: "BEST"},
	}

	for _, tt := range tests {
		for name, solver := range solvers() {
			t.Run(tt.name+"/"+name, func(t *testing.T) {
				p := scoredProblem(t, offers, tt.weights)
				sel, err := solver.Solve(p)
				if err != nil {
					t.Fatalf("Solve() error = %v", err)
				}
				if got := p.Offers[sel.Chosen[0]].Carrier; got != tt.want {
					t.Errorf("expected %s, got %s", tt.want, got)
				}
			})
		}
	}
}

func TestSolversAgreeOnExactTies(t *testing.T) {
	p := scoredProblem(t, []Shipment{
		{Lane: "L1", Week: 1, Carrier: "A", Rate: 300, Performance: perf(0.8), Volume: 2},
		{Lane: "L1", Week: 1, Carrier: "B", Rate: 300, Performance: perf(0.8), Volume: 2},
		{Lane: "L2", Week: 1, Carrier: "A", Rate: 300, Performance: perf(0.8), Volume: 1},
		{Lane: "L2", Week: 1, Carrier: "B", Rate: 300, Performance: perf(0.8), Volume: 1},
	}, DefaultWeights())

	for name, solver := range solvers() {
		t.Run(name, func(t *testing.T) {
			sel, err := solver.Solve(p)
			if err != nil {
				t.Fatalf("Solve() error = %v", err)
			}
			for i, j := range sel.Chosen {
				if got := p.Offers[j].Carrier; got != "A" {
					t.Errorf("constraint %d: expected A, got %s", i, got)
				}
			}
		})
	}
}
