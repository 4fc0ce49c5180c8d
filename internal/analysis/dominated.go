package analysis

import "github.com/iwvelando/tender-optimizer/internal/optimizer"

// DominatedSelection reports an offer that another carrier in the same
// lane-week beats on both rate and performance.
type DominatedSelection struct {
	Lane              string  `json:"lane"`
	Week              int     `json:"week"`
	Carrier           string  `json:"carrier"`
	Rate              float64 `json:"rate"`
	Performance       float64 `json:"performance"`
	Volume            float64 `json:"volume"`
	BetterCarrier     string  `json:"betterCarrier"`
	BetterRate        float64 `json:"betterRate"`
	BetterPerformance float64 `json:"betterPerformance"`
	PotentialSavings  float64 `json:"potentialSavings"`
	PerformanceGain   float64 `json:"performanceGain"`
}

// Dominated scans every lane-week with an alternative and reports, for each
// offer, the first alternative in group order that is strictly cheaper and
// strictly better performing. Savings use the carrier's own volume.
func Dominated(offers []optimizer.Offer) []DominatedSelection {
	found := []DominatedSelection{}
	for _, g := range optimizer.Groups(offers) {
		if g.Singleton() {
			continue
		}
		for _, i := range g.Offers {
			cur := offers[i]
			for _, j := range g.Offers {
				if i == j {
					continue
				}
				alt := offers[j]
				if alt.Rate < cur.Rate && alt.Performance > cur.Performance {
					found = append(found, DominatedSelection{
						Lane:              cur.Lane,
						Week:              cur.Week,
						Carrier:           cur.Carrier,
						Rate:              cur.Rate,
						Performance:       cur.Performance,
						Volume:            cur.CarrierVolume,
						BetterCarrier:     alt.Carrier,
						BetterRate:        alt.Rate,
						BetterPerformance: alt.Performance,
						PotentialSavings:  (cur.Rate - alt.Rate) * cur.CarrierVolume,
						PerformanceGain:   alt.Performance - cur.Performance,
					})
					break
				}
			}
		}
	}
	return found
}

// TotalSavings sums the potential savings of every dominated selection.
func TotalSavings(found []DominatedSelection) float64 {
	var total float64
	for _, d := range found {
		total += d.PotentialSavings
	}
	return total
}
