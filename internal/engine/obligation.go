package engine

import "fmt"

// obligations computes every participant's owed amount in participant order:
// the sum of their own items, plus their distributed share of each extra.
// The output sums exactly to items total + extras total.
func obligations(in *Input, pos map[int64]int) ([]Money, error) {
	base := make([]Money, len(in.Participants))
	for _, it := range in.Items {
		base[pos[it.Owner]] += it.UnitPrice * Money(it.Quantity)
	}

	owed := append([]Money(nil), base...)
	for _, ex := range in.Extras {
		shares, err := extraShares(ex, in, base, pos)
		if err != nil {
			return nil, fmt.Errorf("extra %q: %w", ex.Name, err)
		}
		for i, share := range shares {
			owed[i] += share
		}
	}
	return owed, nil
}

// extraShares apportions one extra across all participants, in participant
// order. This is the single dispatch site over SplitRule; an unrecognized
// rule is an error, never a silent fall-through.
//
// Proportional weighting uses the item-only base obligations so that the
// outcome does not depend on the order extras are listed in.
func extraShares(ex Extra, in *Input, base []Money, pos map[int64]int) ([]Money, error) {
	n := len(in.Participants)
	switch ex.Rule {
	case SplitProportional:
		weights := make([]int64, n)
		for i, b := range base {
			weights[i] = int64(b)
		}
		// All-zero bases fall back to an even split inside Distribute.
		return Distribute(ex.Amount, weights)

	case SplitFlat:
		return Distribute(ex.Amount, evenWeights(n))

	case SplitPayerOnly:
		payerIdx := payerPositions(in, pos)
		if len(payerIdx) == 0 {
			return nil, fmt.Errorf("payer-only split with no payers")
		}
		sub, err := Distribute(ex.Amount, evenWeights(len(payerIdx)))
		if err != nil {
			return nil, err
		}
		shares := make([]Money, n)
		for k, idx := range payerIdx {
			shares[idx] += sub[k]
		}
		return shares, nil

	default:
		return nil, fmt.Errorf("unknown split rule %q", ex.Rule)
	}
}

// payerPositions returns the participant positions of everyone who paid,
// in participant order, deduplicated.
func payerPositions(in *Input, pos map[int64]int) []int {
	seen := make(map[int]bool, len(in.Payers))
	for _, p := range in.Payers {
		seen[pos[p.User]] = true
	}
	var idx []int
	for i := range in.Participants {
		if seen[i] {
			idx = append(idx, i)
		}
	}
	return idx
}
