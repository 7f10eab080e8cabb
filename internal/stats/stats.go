// Package stats implements the aggregates used to summarize raster cells.
package stats

import (
	"cmp"
	"errors"
	"iter"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pspoerri/gridwarp/internal/pixel"
)

// ErrEmpty is returned when an aggregate is requested over no values.
var ErrEmpty = errors.New("no values to aggregate")

// Mode returns the most frequent value in vals. vals is sorted in place.
//
// Runs of equal values are scanned in sorted order. A strictly longer run
// takes over; a run tying the current best replaces it with probability
// 1/(ties+1), so every value sharing the maximal count is reported with equal
// probability. rng may be nil to use the global source.
func Mode[T cmp.Ordered](vals []T, rng *rand.Rand) (T, error) {
	if len(vals) == 0 {
		var zero T
		return zero, ErrEmpty
	}
	slices.Sort(vals)

	best := vals[0]
	bestRun, ties, run := 0, 0, 1
	for i := 1; i <= len(vals); i++ {
		if i < len(vals) && vals[i] == vals[i-1] {
			run++
			continue
		}
		switch {
		case run > bestRun:
			best, bestRun, ties = vals[i-1], run, 0
		case run == bestRun:
			ties++
			if intN(rng, ties+1) == 0 {
				best = vals[i-1]
			}
		}
		run = 1
	}
	return best, nil
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

// Mean returns the arithmetic mean of vals. The sum is divided first, then
// the mean residual is added back, which recovers precision lost when values
// are large relative to their spread.
func Mean[T pixel.Number](vals []T) (float64, error) {
	return MeanChunks(func(yield func([]T) bool) { yield(vals) })
}

// MeanChunks is Mean over the concatenation of the slices chunks yields. It
// iterates chunks twice and never copies the values.
func MeanChunks[T pixel.Number](chunks iter.Seq[[]T]) (float64, error) {
	var n int
	var sum float64
	for c := range chunks {
		n += len(c)
		for _, v := range c {
			sum += float64(v)
		}
	}
	if n == 0 {
		return 0, ErrEmpty
	}
	mean := sum / float64(n)
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		return mean, nil
	}
	var residual float64
	for c := range chunks {
		for _, v := range c {
			residual += float64(v) - mean
		}
	}
	return mean + residual/float64(n), nil
}
