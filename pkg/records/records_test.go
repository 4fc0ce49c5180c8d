package records

import (
	"errors"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	input := `Lane,Week Number,Dray SCAC(FL),Base Rate,Performance_Score,Container Count,Discharged Port,Facility
USLAXIUSF,27,ABCD,"$1,250.00",0.85,4,LAX,IUSF
USLAXIUSF,27,EFGH,1100,,2,LAX,IUSF

USLGBDC01,WK28,IJKL,900.5,92%,3,LGB,DC01
`
	shipments, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(shipments) != 3 {
		t.Fatalf("expected 3 shipments, got %d", len(shipments))
	}

	first := shipments[0]
	if first.Lane != "USLAXIUSF" || first.Week != 27 || first.Carrier != "ABCD" {
		t.Errorf("unexpected identity %+v", first)
	}
	if first.Rate != 1250 || first.Volume != 4 || first.Performance == nil || *first.Performance != 0.85 {
		t.Errorf("unexpected values %+v", first)
	}
	if first.Port != "LAX" || first.Facility != "IUSF" {
		t.Errorf("unexpected port/facility %q/%q", first.Port, first.Facility)
	}

	if shipments[1].Performance != nil {
		t.Errorf("expected empty performance cell to be missing, got %v", *shipments[1].Performance)
	}

	third := shipments[2]
	if third.Week != 28 {
		t.Errorf("expected WK28 to parse as 28, got %d", third.Week)
	}
	if third.Performance == nil || *third.Performance != 0.92 {
		t.Errorf("expected 92%% to parse as 0.92, got %v", third.Performance)
	}
}

func TestReadCSVBuildsLaneFromPortAndFacility(t *testing.T) {
	input := "port,facility,week,carrier,rate,performance,volume\nUSLAX,IUSF,3,ABCD,100,0.5,1\n"
	shipments, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if shipments[0].Lane != "USLAXIUSF" {
		t.Errorf("expected lane USLAXIUSF, got %q", shipments[0].Lane)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing bool
	}{
		{name: "missing rate column", input: "lane,week,carrier,volume\nL1,1,A,2\n", missing: true},
		{name: "missing lane source", input: "week,carrier,rate,volume\n1,A,100,2\n", missing: true},
		{name: "non-numeric rate", input: "lane,week,carrier,rate,volume\nL1,1,A,abc,2\n"},
		{name: "fractional week", input: "lane,week,carrier,rate,volume\nL1,1.5,A,100,2\n"},
		{name: "empty volume", input: "lane,week,carrier,rate,volume\nL1,1,A,100,\n"},
		{name: "bad performance", input: "lane,week,carrier,rate,volume,performance\nL1,1,A,100,2,high\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.missing != errors.Is(err, ErrMissingColumn) {
				t.Errorf("expected missing column=%v, got %v", tt.missing, err)
			}
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	shipments, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(shipments) != 0 {
		t.Fatalf("expected no shipments, got %d", len(shipments))
	}
}

func TestReadJSON(t *testing.T) {
	input := `[
  {"lane": "L1", "week": 1, "carrier": "carrierA", "rate": 500, "performance": 0.6, "volume": 6},
  {"lane": "L1", "week": 1, "carrier": "carrierB", "rate": 450, "performance": null, "volume": 4}
]`
	shipments, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if len(shipments) != 2 {
		t.Fatalf("expected 2 shipments, got %d", len(shipments))
	}
	if shipments[0].Performance == nil || *shipments[0].Performance != 0.6 {
		t.Errorf("unexpected performance %v", shipments[0].Performance)
	}
	if shipments[1].Performance != nil {
		t.Errorf("expected null performance to be missing")
	}

	if _, err := ReadJSON(strings.NewReader(`[{"lane": "L1", "price": 3}]`)); err == nil {
		t.Errorf("expected unknown field to be rejected")
	}
	empty, err := ReadJSON(strings.NewReader(`[]`))
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %v %v", empty, err)
	}
}
