package optimizer

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIncomplete indicates shipment records arrived without performance scores.
	ErrDataIncomplete = errors.New("performance scores missing")
	// ErrOptimizationInfeasible indicates the solver did not reach an optimal assignment.
	ErrOptimizationInfeasible = errors.New("optimization infeasible")
	// ErrInvalidShipment indicates a shipment record violates the input contract.
	ErrInvalidShipment = errors.New("invalid shipment record")
	// ErrInvalidWeights indicates a negative or non-finite objective weight.
	ErrInvalidWeights = errors.New("invalid objective weights")
)

// DataIncompleteError reports how many records lack a performance score.
type DataIncompleteError struct {
	Missing int
	Total   int
}

func (e *DataIncompleteError) Error() string {
	return fmt.Sprintf("%d of %d shipment records are missing performance scores; backfill performance upstream before optimizing", e.Missing, e.Total)
}

// Is makes errors.Is(err, ErrDataIncomplete) match.
func (e *DataIncompleteError) Is(target error) bool {
	return target == ErrDataIncomplete
}

// InvalidShipmentError identifies the offending record by its input position.
type InvalidShipmentError struct {
	Index  int
	Reason string
}

func (e *InvalidShipmentError) Error() string {
	return fmt.Sprintf("shipment %d: %s", e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidShipment) match.
func (e *InvalidShipmentError) Is(target error) bool {
	return target == ErrInvalidShipment
}

// InfeasibleError carries whatever diagnostic the solver backend produced.
type InfeasibleError struct {
	Backend string
	Status  Status
	Detail  string
}

func (e *InfeasibleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s solver finished with status %s", e.Backend, e.Status)
	}
	return fmt.Sprintf("%s solver finished with status %s: %s", e.Backend, e.Status, e.Detail)
}

// Is makes errors.Is(err, ErrOptimizationInfeasible) match.
func (e *InfeasibleError) Is(target error) bool {
	return target == ErrOptimizationInfeasible
}
