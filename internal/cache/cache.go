// Package cache memoizes solutions keyed by dataset, strategy and backend.
package cache

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/tender-optimizer/internal/optimizer"
)

// Cache stores solutions by key. A miss is reported as ok == false with a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) (sol *optimizer.Solution, ok bool, err error)
	Set(ctx context.Context, key string, sol *optimizer.Solution) error
}

// Key fingerprints a run. Weights are normalized first so that proportional
// weight pairs share an entry, and are ignored for strategies that do not
// use them.
func Key(shipments []optimizer.Shipment, strategy optimizer.Strategy, backend string) string {
	d := xxhash.New()
	kind := strategy.Kind
	if kind == "" {
		kind = optimizer.StrategyOptimized
	}
	writeString(d, string(kind))
	writeString(d, backend)
	if kind == optimizer.StrategyOptimized {
		w := strategy.Weights.Normalized()
		writeFloat(d, w.Cost)
		writeFloat(d, w.Performance)
	}

	writeInt(d, int64(len(shipments)))
	for _, s := range shipments {
		writeString(d, s.Lane)
		writeInt(d, int64(s.Week))
		writeString(d, s.Carrier)
		writeFloat(d, s.Rate)
		if s.Performance == nil {
			d.Write([]byte{0})
		} else {
			d.Write([]byte{1})
			writeFloat(d, *s.Performance)
		}
		writeFloat(d, s.Volume)
		writeString(d, s.Port)
		writeString(d, s.Facility)
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Strings are length-prefixed so adjacent fields cannot run together.
func writeString(d *xxhash.Digest, s string) {
	writeInt(d, int64(len(s)))
	d.WriteString(s)
}

func writeInt(d *xxhash.Digest, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	d.Write(buf[:])
}

func writeFloat(d *xxhash.Digest, v float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	d.Write(buf[:])
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*optimizer.Solution, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, *optimizer.Solution) error { return nil }
