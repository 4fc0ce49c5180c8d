package optimizer

import (
	"errors"
	"math"
	"testing"

	"github.com/iwvelando/tender-optimizer/pkg/mathutil"
)

const tolerance = 1e-9

func TestWeightsNormalized(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		cost    float64
		perf    float64
	}{
		{"already normalized", Weights{Cost: 0.7, Performance: 0.3}, 0.7, 0.3},
		{"scaled", Weights{Cost: 7, Performance: 3}, 0.7, 0.3},
		{"cost only", Weights{Cost: 2}, 1, 0},
		{"performance only", Weights{Performance: 5}, 0, 1},
		{"both zero falls back to even split", Weights{}, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.weights.Normalized()
			if !mathutil.WithinTolerance(got.Cost, tt.cost, tolerance) || !mathutil.WithinTolerance(got.Performance, tt.perf, tolerance) {
				t.Errorf("Normalized() = %+v, expected cost %v performance %v", got, tt.cost, tt.perf)
			}
		})
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights(), false},
		{"zeros", Weights{}, false},
		{"negative cost", Weights{Cost: -0.1, Performance: 1}, true},
		{"negative performance", Weights{Cost: 1, Performance: -1}, true},
		{"NaN", Weights{Cost: math.NaN()}, true},
		{"infinite", Weights{Performance: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWeights) {
					t.Fatalf("expected ErrInvalidWeights, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestNormalizeScenarioScores(t *testing.T) {
	offers := []Offer{
		{Lane: "L1", Week: 1, Carrier: "carrierA", Rate: 500, Performance: 0.6, Volume: 10},
		{Lane: "L1", Week: 1, Carrier: "carrierB", Rate: 450, Performance: 0.9, Volume: 10},
	}

	scored := Normalize(offers, Weights{Cost: 0.7, Performance: 0.3})
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored offers, got %d", len(scored))
	}

	expected := []struct {
		normCost, normPerf, score float64
	}{
		{1.0, 0.0, 7.0},
		{0.0, 1.0, -3.0},
	}
	for i, want := range expected {
		got := scored[i]
		if !mathutil.WithinTolerance(got.NormCost, want.normCost, tolerance) {
			t.Errorf("%s: expected normalized cost %v, got %v", got.Carrier, want.normCost, got.NormCost)
		}
		if !mathutil.WithinTolerance(got.NormPerformance, want.normPerf, tolerance) {
			t.Errorf("%s: expected normalized performance %v, got %v", got.Carrier, want.normPerf, got.NormPerformance)
		}
		if !mathutil.WithinTolerance(got.Score, want.score, tolerance) {
			t.Errorf("%s: expected score %v, got %v", got.Carrier, want.score, got.Score)
		}
	}
}

func TestNormalizeUsesGlobalRange(t *testing.T) {
	offers := []Offer{
		{Lane: "L1", Week: 1, Carrier: "A", Rate: 100, Performance: 0.5, Volume: 1},
		{Lane: "L1", Week: 1, Carrier: "B", Rate: 200, Performance: 0.5, Volume: 1},
		{Lane: "L2", Week: 1, Carrier: "C", Rate: 300, Performance: 0.5, Volume: 1},
	}

	scored := Normalize(offers, Weights{Cost: 1})
	want := []float64{0, 0.5, 1}
	for i, w := range want {
		if !mathutil.WithinTolerance(scored[i].NormCost, w, tolerance) {
			t.Errorf("offer %s: expected normalized cost %v, got %v", scored[i].Carrier, w, scored[i].NormCost)
		}
	}
}

func TestNormalizeZeroRange(t *testing.T) {
	offers := []Offer{
		{Lane: "L1", Week: 1, Carrier: "A", Rate: 400, Performance: 0.7, Volume: 3},
		{Lane: "L1", Week: 1, Carrier: "B", Rate: 400, Performance: 0.7, Volume: 3},
	}

	for _, o := range Normalize(offers, Weights{Cost: 0.5, Performance: 0.5}) {
		if o.NormCost != 0 || o.NormPerformance != 0 || o.Score != 0 {
			t.Errorf("offer %s: expected zero signals on zero range, got %+v", o.Carrier, o)
		}
	}
}

func TestNormalizeVolumeScaling(t *testing.T) {
	offers := []Offer{
		{Lane: "L1", Week: 1, Carrier: "A", Rate: 200, Performance: 0, Volume: 1},
		{Lane: "L2", Week: 1, Carrier: "B", Rate: 200, Performance: 0, Volume: 4},
		{Lane: "L3", Week: 1, Carrier: "C", Rate: 100, Performance: 1, Volume: 1},
	}

	scored := Normalize(offers, Weights{Cost: 1})
	if !mathutil.WithinTolerance(scored[1].Score, 4*scored[0].Score, tolerance) {
		t.Errorf("expected score to scale with volume, got %v and %v", scored[0].Score, scored[1].Score)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if scored := Normalize(nil, DefaultWeights()); scored != nil {
		t.Fatalf("expected nil for no offers, got %v", scored)
	}
}
