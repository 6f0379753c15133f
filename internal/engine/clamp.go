package engine

import (
	"errors"
	"fmt"
)

// ErrNoSettlementNeeded is returned when a proposed settlement has no debt to
// apply against: the debtor owes nothing, the creditor is owed nothing, or
// both.
var ErrNoSettlementNeeded = errors.New("no settlement needed between these users")

// ClampSettlement computes the largest sound amount for a manual settlement
// from debtor to creditor: the minimum of what the debtor still owes, what
// the creditor can still receive, and the requested amount.
//
// If that maximum is zero or negative the settlement is rejected. If it is
// less than requested, the clamped amount is returned along with a reason the
// caller can surface, rather than silently overpaying.
func ClampSettlement(r *Result, from, to int64, requested Money) (Money, string, error) {
	if requested <= 0 {
		return 0, "", fmt.Errorf("settlement amount must be positive, got %d", requested)
	}
	debtor, ok := r.UserBalances[from]
	if !ok {
		return 0, "", fmt.Errorf("user %d is not a participant on this bill", from)
	}
	creditor, ok := r.UserBalances[to]
	if !ok {
		return 0, "", fmt.Errorf("user %d is not a participant on this bill", to)
	}

	var maxOwed Money
	if debtor.Remaining < 0 {
		maxOwed = -debtor.Remaining
	}
	var maxReceivable Money
	if creditor.Remaining > 0 {
		maxReceivable = creditor.Remaining
	}

	sound := minMoney(minMoney(maxOwed, maxReceivable), requested)
	if sound <= 0 {
		return 0, "", ErrNoSettlementNeeded
	}
	if sound < requested {
		reason := fmt.Sprintf("requested %d exceeds the settleable amount between these users; clamped to %d", requested, sound)
		return sound, reason, nil
	}
	return sound, "", nil
}
