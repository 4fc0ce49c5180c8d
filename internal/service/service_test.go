package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/tender-optimizer/internal/cache"
	"github.com/iwvelando/tender-optimizer/internal/events"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/internal/store"
	"go.uber.org/zap"
)

func perf(v float64) *float64 {
	return &v
}

func shipments() []optimizer.Shipment {
	return []optimizer.Shipment{
		{Lane: "L1", Week: 1, Carrier: "carrierA", Rate: 500, Performance: perf(0.6), Volume: 6},
		{Lane: "L1", Week: 1, Carrier: "carrierB", Rate: 450, Performance: perf(0.9), Volume: 4},
		{Lane: "L2", Week: 5, Carrier: "carrierC", Rate: 600, Performance: perf(0.2), Volume: 20},
	}
}

type recordingPublisher struct {
	events []events.RunCompleted
	err    error
}

func (p *recordingPublisher) PublishRunCompleted(_ context.Context, evt events.RunCompleted) error {
	p.events = append(p.events, evt)
	return p.err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (*optimizer.Solution, bool, error) {
	return nil, false, errors.New("cache unavailable")
}

func (brokenCache) Set(context.Context, string, *optimizer.Solution) error {
	return errors.New("cache unavailable")
}

type brokenStore struct{ store.Store }

func (brokenStore) SaveRun(context.Context, *store.Run) error {
	return errors.New("database unavailable")
}

func TestRunRecordsAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	runs := store.NewMemory()
	svc := New(optimizer.New(zap.NewNop(), nil), WithStore(runs), WithPublisher(pub), WithLogger(zap.NewNop()))

	run, err := svc.Run(ctx, Request{Shipments: shipments(), Strategy: optimizer.Optimized(optimizer.DefaultWeights())})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.ID == uuid.Nil || run.Strategy != optimizer.StrategyOptimized || run.Backend != "groupscan" {
		t.Errorf("unexpected run metadata %+v", run)
	}
	if run.Solution.TotalCost != 16500 {
		t.Errorf("expected total cost 16500, got %v", run.Solution.TotalCost)
	}

	stored, err := svc.GetRun(ctx, run.ID)
	if err != nil || stored.ID != run.ID {
		t.Fatalf("expected stored run, got %+v err %v", stored, err)
	}
	if len(pub.events) != 1 || pub.events[0].RunID != run.ID || pub.events[0].TotalCost != 16500 {
		t.Errorf("unexpected published events %+v", pub.events)
	}
}

func TestRunUsesCache(t *testing.T) {
	ctx := context.Background()
	svc := New(optimizer.New(zap.NewNop(), nil), WithCache(cache.NewMemory(4)))

	first, err := svc.Run(ctx, Request{Shipments: shipments(), Strategy: optimizer.Optimized(optimizer.Weights{Cost: 0.7, Performance: 0.3})})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := svc.Run(ctx, Request{Shipments: shipments(), Strategy: optimizer.Optimized(optimizer.Weights{Cost: 7, Performance: 3})})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if first.CacheHit || !second.CacheHit {
		t.Errorf("expected miss then hit, got %v then %v", first.CacheHit, second.CacheHit)
	}
	if second.Weights != (optimizer.Weights{Cost: 7, Performance: 3}) {
		t.Errorf("expected requested weights on cached run, got %+v", second.Weights)
	}
	if first.Solution.Weights != (optimizer.Weights{Cost: 0.7, Performance: 0.3}) {
		t.Errorf("cached solution was mutated: %+v", first.Solution.Weights)
	}
	if first.ID == second.ID {
		t.Errorf("expected separate run records")
	}

	runs, _ := svc.ListRuns(ctx, 10)
	if len(runs) != 2 || runs[0].ID != second.ID {
		t.Errorf("expected newest run first, got %d runs", len(runs))
	}
}

func TestRunValidatesWeightsBeforeCache(t *testing.T) {
	ctx := context.Background()
	svc := New(optimizer.New(zap.NewNop(), nil), WithCache(cache.NewMemory(4)))

	if _, err := svc.Run(ctx, Request{Shipments: shipments(), Strategy: optimizer.Optimized(optimizer.Weights{Cost: 1, Performance: 1})}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	_, err := svc.Run(ctx, Request{Shipments: shipments(), Strategy: optimizer.Optimized(optimizer.Weights{Cost: -1, Performance: -1})})
	if !errors.Is(err, optimizer.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
	runs, _ := svc.ListRuns(ctx, 0)
	if len(runs) != 1 {
		t.Errorf("expected only the valid run stored, got %d", len(runs))
	}
}

func TestRunResultsDoNotShareAssignments(t *testing.T) {
	ctx := context.Background()
	svc := New(optimizer.New(zap.NewNop(), nil), WithCache(cache.NewMemory(4)))
	req := Request{Shipments: shipments(), Strategy: optimizer.Cheapest()}

	first, err := svc.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	first.Solution.Assignments[0].Carrier = "changed"

	second, err := svc.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("expected cache hit")
	}
	if second.Solution.Assignments[0].Carrier == "changed" {
		t.Errorf("cached solution shares rows with an earlier result")
	}
	stored, err := svc.GetRun(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if stored.Solution.Assignments[0].Carrier == "changed" {
		t.Errorf("stored run shares rows with the returned result")
	}
}

func TestRunToleratesCacheAndPublishFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := New(optimizer.New(zap.NewNop(), nil), WithCache(brokenCache{}), WithPublisher(pub))

	run, err := svc.Run(context.Background(), Request{Shipments: shipments(), Strategy: optimizer.Cheapest()})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.CacheHit {
		t.Errorf("expected cache miss on lookup failure")
	}
	if len(pub.events) != 1 {
		t.Errorf("expected publish attempt, got %d", len(pub.events))
	}
}

func TestRunFailsWhenStoreFails(t *testing.T) {
	svc := New(optimizer.New(zap.NewNop(), nil), WithStore(brokenStore{}))

	if _, err := svc.Run(context.Background(), Request{Shipments: shipments()}); err == nil {
		t.Fatal("expected store failure to fail the run")
	}
}

func TestRunPropagatesOptimizerErrors(t *testing.T) {
	data := shipments()
	data[0].Performance = nil
	pub := &recordingPublisher{}
	svc := New(optimizer.New(zap.NewNop(), nil), WithPublisher(pub))

	_, err := svc.Run(context.Background(), Request{Shipments: data, Strategy: optimizer.Optimized(optimizer.DefaultWeights())})
	if !errors.Is(err, optimizer.ErrDataIncomplete) {
		t.Fatalf("expected ErrDataIncomplete, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("expected no event for failed run")
	}
	runs, _ := svc.ListRuns(context.Background(), 0)
	if len(runs) != 0 {
		t.Errorf("expected no stored runs, got %d", len(runs))
	}
}

func TestCompare(t *testing.T) {
	svc := New(optimizer.New(zap.NewNop(), optimizer.SimplexSolver{}))

	cmp, err := svc.Compare(context.Background(), shipments(), optimizer.DefaultWeights())
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if cmp.Backend != "simplex" || len(cmp.Results) != 4 {
		t.Errorf("unexpected comparison %+v", cmp)
	}

	if _, err := svc.Compare(context.Background(), shipments(), optimizer.Weights{Cost: -1}); !errors.Is(err, optimizer.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&optimizer.DataIncompleteError{Missing: 1, Total: 2}, "data_incomplete"},
		{&optimizer.InvalidShipmentError{Index: 0, Reason: "lane is empty"}, "invalid_input"},
		{optimizer.ErrInvalidWeights, "invalid_input"},
		{&optimizer.InfeasibleError{Status: optimizer.StatusInfeasible}, "infeasible"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %s, expected %s", tt.err, got, tt.want)
		}
	}
}
