// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"

	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

// Float returns a pointer to v, for optional performance scores.
func Float(v float64) *float64 {
	return &v
}

// FindAssignment finds the assignment for a lane-week in sol.
// Returns nil if the lane-week was not assigned.
func FindAssignment(sol *optimizer.Solution, lane string, week int) *optimizer.Assignment {
	if sol == nil {
		return nil
	}
	for i := range sol.Assignments {
		if sol.Assignments[i].Lane == lane && sol.Assignments[i].Week == week {
			return &sol.Assignments[i]
		}
	}
	return nil
}

// GenerateShipments builds a deterministic dataset where every one of
// lanes x weeks lane-weeks has an offer from each of carriers carriers.
func GenerateShipments(lanes, weeks, carriers int) []optimizer.Shipment {
	shipments := make([]optimizer.Shipment, 0, lanes*weeks*carriers)
	for l := 0; l < lanes; l++ {
		for w := 1; w <= weeks; w++ {
			for c := 0; c < carriers; c++ {
				shipments = append(shipments, optimizer.Shipment{
					Lane:        fmt.Sprintf("LANE%03d", l),
					Week:        w,
					Carrier:     fmt.Sprintf("C%02d", c),
					Rate:        float64(300 + ((l*7+w*13+c*31)%97)*5),
					Performance: Float(0.5 + float64((l+3*w+5*c)%50)/100),
					Volume:      float64(1 + (l+w+c)%5),
				})
			}
		}
	}
	return shipments
}
