package optimizer

import (
	"fmt"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"github.com/iwvelando/tender-optimizer/pkg/mathutil"
)

// Weights sets the relative importance of cost and performance. Any
// non-negative pair is accepted; only the ratio matters.
type Weights struct {
	Cost        float64 `json:"costWeight" mapstructure:"costWeight" yaml:"costWeight"`
	Performance float64 `json:"performanceWeight" mapstructure:"performanceWeight" yaml:"performanceWeight"`
}

// DefaultWeights returns the 70/30 cost/performance split.
func DefaultWeights() Weights {
	return Weights{Cost: constants.DefaultCostWeight, Performance: constants.DefaultPerformanceWeight}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	if !mathutil.IsFinite(w.Cost) || w.Cost < 0 {
		return fmt.Errorf("%w: cost weight %v must be a non-negative number", ErrInvalidWeights, w.Cost)
	}
	if !mathutil.IsFinite(w.Performance) || w.Performance < 0 {
		return fmt.Errorf("%w: performance weight %v must be a non-negative number", ErrInvalidWeights, w.Performance)
	}
	return nil
}

// Normalized rescales the pair to sum to 1, splitting evenly when both are zero.
func (w Weights) Normalized() Weights {
	total := w.Cost + w.Performance
	if total <= 0 {
		return Weights{Cost: constants.FallbackWeight, Performance: constants.FallbackWeight}
	}
	return Weights{Cost: w.Cost / total, Performance: w.Performance / total}
}

// ScoredOffer is an offer with its rescaled signals and objective coefficient.
// UnitScore is the score of a single unit of volume; it still ranks offers in
// a lane-week whose volume is zero.
type ScoredOffer struct {
	Offer
	NormCost        float64 `json:"normCost"`
	NormPerformance float64 `json:"normPerformance"`
	UnitScore       float64 `json:"unitScore"`
	Score           float64 `json:"score"`
}

// Normalize min-max rescales rate and performance across all offers of the
// run (not per group) and combines them into a volume-scaled score where
// lower is better.
func Normalize(offers []Offer, w Weights) []ScoredOffer {
	if len(offers) == 0 {
		return nil
	}
	nw := w.Normalized()

	rates := make([]float64, len(offers))
	perfs := make([]float64, len(offers))
	for i, o := range offers {
		rates[i] = o.Rate
		perfs[i] = o.Performance
	}
	minRate, maxRate := mathutil.MinMax(rates)
	minPerf, maxPerf := mathutil.MinMax(perfs)

	scored := make([]ScoredOffer, len(offers))
	for i, o := range offers {
		normCost := mathutil.Rescale(o.Rate, minRate, maxRate)
		normPerf := mathutil.Rescale(o.Performance, minPerf, maxPerf)
		unit := nw.Cost*normCost - nw.Performance*normPerf
		scored[i] = ScoredOffer{
			Offer:           o,
			NormCost:        normCost,
			NormPerformance: normPerf,
			UnitScore:       unit,
			Score:           nw.Cost*normCost*o.Volume - nw.Performance*normPerf*o.Volume,
		}
	}
	return scored
}
