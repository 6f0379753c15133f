package engine

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
)

// ErrDistributeMismatch signals that the distributor's exact-sum guarantee was
// broken. This must never happen for valid input; it indicates an engine
// defect, not a rounding error, and is never swallowed.
var ErrDistributeMismatch = errors.New("distributor sum mismatch")

// Distribute splits an integer total across weighted targets using the
// largest-remainder method (Hamilton rounding): each target gets the floor of
// its exact proportional share, then the leftover units are awarded one at a
// time to the targets with the largest fractional remainders. Ties on the
// remainder are broken by input position, so the result is reproducible.
//
// A zero total yields an all-zero allocation. If every weight is zero the
// total is split evenly, with the first total%n targets receiving one extra
// unit. Negative totals or weights are invalid input.
func Distribute(total Money, weights []int64) ([]Money, error) {
	if total < 0 {
		return nil, fmt.Errorf("cannot distribute negative total %d", total)
	}
	if len(weights) == 0 {
		return nil, errors.New("no targets to distribute across")
	}

	var sumWeights int64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative weight %d at index %d", w, i)
		}
		sumWeights += w
	}

	out := make([]Money, len(weights))
	if total == 0 {
		return out, nil
	}
	if sumWeights == 0 {
		return distributeEven(total, len(weights)), nil
	}

	// Floor of each exact share, keeping the integer remainder of
	// total*weight/sumWeights for the award pass.
	type fraction struct {
		idx int
		rem uint64
	}
	fractions := make([]fraction, len(weights))
	var allocated Money
	for i, w := range weights {
		share, rem := mulDivRem(uint64(total), uint64(w), uint64(sumWeights))
		out[i] = Money(share)
		allocated += Money(share)
		fractions[i] = fraction{idx: i, rem: rem}
	}

	// Award one unit each to the largest remainders. SliceStable keeps input
	// order for exact ties.
	sort.SliceStable(fractions, func(a, b int) bool {
		return fractions[a].rem > fractions[b].rem
	})
	shortfall := total - allocated
	for k := Money(0); k < shortfall; k++ {
		out[fractions[k].idx]++
	}

	var check Money
	for _, v := range out {
		check += v
	}
	if check != total {
		return nil, fmt.Errorf("%w: allocated %d of %d", ErrDistributeMismatch, check, total)
	}
	return out, nil
}

// distributeEven splits total into n near-equal integer parts, the first
// total%n parts getting one extra unit.
func distributeEven(total Money, n int) []Money {
	out := make([]Money, n)
	quot := total / Money(n)
	rem := total % Money(n)
	for i := range out {
		out[i] = quot
		if Money(i) < rem {
			out[i]++
		}
	}
	return out
}

// evenWeights returns n equal weights, turning Distribute into an even split.
func evenWeights(n int) []int64 {
	weights := make([]int64, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// mulDivRem computes a*b/c and a*b%c with a 128-bit intermediate product so
// large bills cannot overflow int64 arithmetic.
func mulDivRem(a, b, c uint64) (quot, rem uint64) {
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo / c, lo % c
	}
	return bits.Div64(hi, lo, c)
}
