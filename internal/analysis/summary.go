package analysis

import "github.com/iwvelando/tender-optimizer/internal/optimizer"

// Summary describes the shape of a dataset after aggregation.
type Summary struct {
	Lanes              int     `json:"lanes"`
	Carriers           int     `json:"carriers"`
	Groups             int     `json:"groups"`
	MultiCarrierGroups int     `json:"multiCarrierGroups"`
	Offers             int     `json:"offers"`
	TotalVolume        float64 `json:"totalVolume"`
}

// Summarize counts lanes, carriers and lane-weeks across offers.
func Summarize(offers []optimizer.Offer) Summary {
	lanes := make(map[string]struct{})
	carriers := make(map[string]struct{})
	for _, o := range offers {
		lanes[o.Lane] = struct{}{}
		carriers[o.Carrier] = struct{}{}
	}

	s := Summary{
		Lanes:    len(lanes),
		Carriers: len(carriers),
		Offers:   len(offers),
	}
	for _, g := range optimizer.Groups(offers) {
		s.Groups++
		if !g.Singleton() {
			s.MultiCarrierGroups++
		}
		s.TotalVolume += offers[g.Offers[0]].Volume
	}
	return s
}
