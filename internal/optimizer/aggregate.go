package optimizer

import (
	"strings"

	"github.com/iwvelando/tender-optimizer/pkg/mathutil"
)

// Shipment is one cleaned shipment/rate record supplied by the ingestion layer.
type Shipment struct {
	Lane        string   `json:"lane" validate:"required"`
	Week        int      `json:"week"`
	Carrier     string   `json:"carrier" validate:"required"`
	Rate        float64  `json:"rate" validate:"gte=0"`
	Performance *float64 `json:"performance"`
	Volume      float64  `json:"volume" validate:"gte=0"`
	Port        string   `json:"port,omitempty"`
	Facility    string   `json:"facility,omitempty"`
}

// GroupKey identifies a lane-week, the unit of assignment.
type GroupKey struct {
	Lane string `json:"lane"`
	Week int    `json:"week"`
}

// Offer is a candidate carrier for a lane-week. Volume is the lane-week
// total, identical for every offer of the group; CarrierVolume is the volume
// the carrier currently moves on that lane-week.
type Offer struct {
	Lane          string  `json:"lane"`
	Week          int     `json:"week"`
	Carrier       string  `json:"carrier"`
	Rate          float64 `json:"rate"`
	Performance   float64 `json:"performance"`
	Volume        float64 `json:"volume"`
	CarrierVolume float64 `json:"carrierVolume"`
	Port          string  `json:"port,omitempty"`
	Facility      string  `json:"facility,omitempty"`
}

// Key returns the lane-week the offer belongs to.
func (o Offer) Key() GroupKey {
	return GroupKey{Lane: o.Lane, Week: o.Week}
}

// Group lists the offers competing for one lane-week as indices into the
// offer slice.
type Group struct {
	Key    GroupKey
	Offers []int
}

// Singleton reports whether the group offers no choice.
func (g Group) Singleton() bool {
	return len(g.Offers) == 1
}

type offerKey struct {
	lane    string
	week    int
	carrier string
}

// Aggregate collapses shipment records into one offer per (lane, week,
// carrier). Rate, performance, port and facility come from the first record
// of each triple; records of the same triple are assumed to agree. Every
// offer is stamped with the total volume of its lane-week because the whole
// lane-week is committed to a single winner.
func Aggregate(shipments []Shipment) ([]Offer, error) {
	missing := 0
	for i, s := range shipments {
		if err := validateShipment(i, s); err != nil {
			return nil, err
		}
		if s.Performance == nil {
			missing++
		}
	}
	if missing > 0 {
		return nil, &DataIncompleteError{Missing: missing, Total: len(shipments)}
	}

	offers := make([]Offer, 0, len(shipments))
	index := make(map[offerKey]int, len(shipments))
	totals := make(map[GroupKey]float64)

	for _, s := range shipments {
		key := offerKey{lane: s.Lane, week: s.Week, carrier: s.Carrier}
		totals[GroupKey{Lane: s.Lane, Week: s.Week}] += s.Volume
		if i, ok := index[key]; ok {
			offers[i].CarrierVolume += s.Volume
			continue
		}
		index[key] = len(offers)
		offers = append(offers, Offer{
			Lane:          s.Lane,
			Week:          s.Week,
			Carrier:       s.Carrier,
			Rate:          s.Rate,
			Performance:   *s.Performance,
			CarrierVolume: s.Volume,
			Port:          s.Port,
			Facility:      s.Facility,
		})
	}

	for i := range offers {
		offers[i].Volume = totals[offers[i].Key()]
	}

	return groupOrdered(offers), nil
}

// groupOrdered reorders offers so that each lane-week is contiguous while
// keeping first-appearance order of groups and of carriers within a group.
func groupOrdered(offers []Offer) []Offer {
	groups := Groups(offers)
	ordered := make([]Offer, 0, len(offers))
	for _, g := range groups {
		for _, i := range g.Offers {
			ordered = append(ordered, offers[i])
		}
	}
	return ordered
}

// Groups partitions offers by lane-week in first-appearance order.
func Groups(offers []Offer) []Group {
	var groups []Group
	position := make(map[GroupKey]int)
	for i, o := range offers {
		key := o.Key()
		p, ok := position[key]
		if !ok {
			p = len(groups)
			position[key] = p
			groups = append(groups, Group{Key: key})
		}
		groups[p].Offers = append(groups[p].Offers, i)
	}
	return groups
}

func validateShipment(i int, s Shipment) error {
	switch {
	case strings.TrimSpace(s.Lane) == "":
		return &InvalidShipmentError{Index: i, Reason: "lane is empty"}
	case strings.TrimSpace(s.Carrier) == "":
		return &InvalidShipmentError{Index: i, Reason: "carrier is empty"}
	case !mathutil.IsFinite(s.Rate) || s.Rate < 0:
		return &InvalidShipmentError{Index: i, Reason: "rate must be a non-negative number"}
	case !mathutil.IsFinite(s.Volume) || s.Volume < 0:
		return &InvalidShipmentError{Index: i, Reason: "volume must be a non-negative number"}
	case s.Performance != nil && !mathutil.IsFinite(*s.Performance):
		return &InvalidShipmentError{Index: i, Reason: "performance must be a finite number"}
	}
	return nil
}
