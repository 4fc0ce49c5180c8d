package testutil

import (
	"testing"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

func TestFindAssignment(t *testing.T) {
	sol := &optimizer.Solution{
		Assignments: []optimizer.Assignment{
			{Lane: "L1", Week: 1, Carrier: "A"},
			{Lane: "L1", Week: 2, Carrier: "B"},
			{Lane: "L2", Week: 1, Carrier: "C"},
		},
	}

	tests := []struct {
		lane    string
		week    int
		carrier string
	}{
		{"L1", 2, "B"},
		{"L2", 1, "C"},
		{"L2", 2, ""},
		{"L3", 1, ""},
	}
	for _, tt := range tests {
		got := FindAssignment(sol, tt.lane, tt.week)
		if tt.carrier == "" {
			if got != nil {
				t.Errorf("FindAssignment(%s, %d) = %+v, expected nil", tt.lane, tt.week, got)
			}
			continue
		}
		if got == nil || got.Carrier != tt.carrier {
			t.Errorf("FindAssignment(%s, %d) = %+v, expected carrier %s", tt.lane, tt.week, got, tt.carrier)
		}
	}

	if FindAssignment(nil, "L1", 1) != nil {
		t.Errorf("expected nil for nil solution")
	}
}

func TestGenerateShipments(t *testing.T) {
	shipments := GenerateShipments(3, 4, 2)
	if len(shipments) != 24 {
		t.Fatalf("expected 24 shipments, got %d", len(shipments))
	}

	again := GenerateShipments(3, 4, 2)
	for i := range shipments {
		if shipments[i].Rate != again[i].Rate || *shipments[i].Performance != *again[i].Performance {
			t.Fatalf("expected deterministic output at %d", i)
		}
	}

	offers, err := optimizer.Aggregate(shipments)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if groups := optimizer.Groups(offers); len(groups) != 12 {
		t.Errorf("expected 12 lane-weeks, got %d", len(groups))
	}
}
