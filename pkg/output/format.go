// Package output provides utilities for formatting and displaying optimization results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/tender-optimizer/internal/analysis"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
	"github.com/iwvelando/tender-optimizer/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Write renders sol in the named format.
func Write(w io.Writer, format string, sol *optimizer.Solution) error {
	switch format {
	case constants.OutputFormatCSV:
		return CSV(w, sol)
	case constants.OutputFormatJSON:
		return JSON(w, sol)
	default:
		return Pretty(w, sol)
	}
}

// Pretty outputs a human-readable rather than machine-readable table.
func Pretty(w io.Writer, sol *optimizer.Solution) error {
	p := message.NewPrinter(language.English)
	if sol.Empty() {
		_, err := fmt.Fprintf(w, "--- No lane-weeks to assign ---\n")
		return err
	}

	if _, err := p.Fprintf(w, "--- %s assignment (%d lane-weeks, %d offers) ---\n", sol.Strategy, sol.Groups, sol.Offers); err != nil {
		return err
	}
	if sol.Strategy == optimizer.StrategyOptimized {
		nw := sol.Weights.Normalized()
		_, _ = p.Fprintf(w, "Weights: cost %.0f%% / performance %.0f%% | Backend: %s\n", nw.Cost*100, nw.Performance*100, sol.Backend)
	}
	fmt.Fprintf(w, "Lane | Week | Carrier | Rate | Performance | Volume | Total Cost\n")
	fmt.Fprintf(w, "____ | ____ | _______ | ____ | ___________ | ______ | __________\n")
	for _, a := range sol.Assignments {
		_, _ = p.Fprintf(w, "%s | %d | %s | $%.2f | %.1f%% | %v | $%.2f\n",
			a.Lane, a.Week, a.Carrier, a.Rate, a.Performance*100, a.Volume, a.TotalCost)
	}
	_, err := p.Fprintf(w, "Total cost: $%.2f\n", sol.TotalCost)
	if sol.NoChoice {
		fmt.Fprintf(w, "Note: every lane-week had a single carrier offer; the strategy had no effect.\n")
	}
	return err
}

// CSV outputs in comma-separated value format.
func CSV(w io.Writer, sol *optimizer.Solution) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"lane", "week", "carrier", "rate", "performance", "volume", "total_cost", "port", "facility"})
	if sol != nil {
		for _, a := range sol.Assignments {
			_ = cw.Write([]string{
				a.Lane,
				strconv.Itoa(a.Week),
				a.Carrier,
				strconv.FormatFloat(a.Rate, 'f', 2, 64),
				strconv.FormatFloat(a.Performance, 'f', -1, 64),
				strconv.FormatFloat(a.Volume, 'f', -1, 64),
				strconv.FormatFloat(a.TotalCost, 'f', 2, 64),
				a.Port,
				a.Facility,
			})
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON outputs the full solution as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrettyComparison prints strategy totals, savings against the current
// allocation, and any dominated carrier selections.
func PrettyComparison(w io.Writer, cmp *analysis.Comparison) error {
	p := message.NewPrinter(language.English)
	s := cmp.Summary
	_, _ = p.Fprintf(w, "--- Strategy comparison (%d lanes, %d carriers, %d lane-weeks, %d with alternatives) ---\n",
		s.Lanes, s.Carriers, s.Groups, s.MultiCarrierGroups)
	fmt.Fprintf(w, "Strategy | Total Cost | Savings vs Current\n")
	fmt.Fprintf(w, "________ | __________ | __________________\n")
	for _, r := range cmp.Results {
		_, _ = p.Fprintf(w, "%s | $%.2f | $%.2f\n", r.Strategy, r.TotalCost, r.Savings)
	}

	if len(cmp.Dominated) == 0 {
		_, err := fmt.Fprintf(w, "\nNo carriers are both more expensive and worse performing than an alternative.\n")
		return err
	}
	_, _ = p.Fprintf(w, "\n--- Dominated selections (%d, $%.2f potential savings) ---\n", len(cmp.Dominated), analysis.TotalSavings(cmp.Dominated))
	fmt.Fprintf(w, "Lane | Week | Carrier | Better Carrier | Savings | Performance Gain\n")
	fmt.Fprintf(w, "____ | ____ | _______ | ______________ | _______ | ________________\n")
	for _, d := range cmp.Dominated {
		_, _ = p.Fprintf(w, "%s | %d | %s | %s | $%.2f | +%.1f%%\n",
			d.Lane, d.Week, d.Carrier, d.BetterCarrier, d.PotentialSavings, d.PerformanceGain*100)
	}
	return nil
}
