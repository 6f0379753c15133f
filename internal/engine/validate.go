package engine

import (
	"fmt"
	"strings"
)

// ValidationError aggregates every input problem found before calculation.
// The engine rejects bad input as a whole: no partial result is produced.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid bill input: %s", strings.Join(e.Violations, "; "))
}

// preValidate checks the raw input snapshot. Every item owner and payer must
// be a participant; prices, quantities, and amounts paid must be positive;
// the participant set must be non-empty and free of duplicates. All
// violations are collected and returned together.
func preValidate(in *Input) error {
	var violations []string

	if len(in.Participants) == 0 {
		violations = append(violations, "participant set is empty")
	}
	seen := make(map[int64]bool, len(in.Participants))
	for _, user := range in.Participants {
		if seen[user] {
			violations = append(violations, fmt.Sprintf("duplicate participant %d", user))
		}
		seen[user] = true
	}

	for i, it := range in.Items {
		if !seen[it.Owner] {
			violations = append(violations, fmt.Sprintf("item %d owner %d is not a participant", i, it.Owner))
		}
		if it.UnitPrice <= 0 {
			violations = append(violations, fmt.Sprintf("item %d unit price must be positive, got %d", i, it.UnitPrice))
		}
		if it.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("item %d quantity must be positive, got %d", i, it.Quantity))
		}
	}

	for i, ex := range in.Extras {
		if !ValidAmount(ex.Amount) {
			violations = append(violations, fmt.Sprintf("extra %d amount must be non-negative, got %d", i, ex.Amount))
		}
		if _, err := ParseExtraKind(string(ex.Kind)); err != nil {
			violations = append(violations, fmt.Sprintf("extra %d: %v", i, err))
		}
		if _, err := ParseSplitRule(string(ex.Rule)); err != nil {
			violations = append(violations, fmt.Sprintf("extra %d: %v", i, err))
		} else if ex.Rule == SplitPayerOnly && len(in.Payers) == 0 {
			violations = append(violations, fmt.Sprintf("extra %d uses payer-only split but the bill has no payers", i))
		}
	}

	for i, p := range in.Payers {
		if !seen[p.User] {
			violations = append(violations, fmt.Sprintf("payer %d user %d is not a participant", i, p.User))
		}
		if p.Amount <= 0 {
			violations = append(violations, fmt.Sprintf("payer %d amount must be positive, got %d", i, p.Amount))
		}
	}

	for i, s := range in.Settlements {
		if !seen[s.From] {
			violations = append(violations, fmt.Sprintf("settlement %d payer %d is not a participant", i, s.From))
		}
		if !seen[s.To] {
			violations = append(violations, fmt.Sprintf("settlement %d receiver %d is not a participant", i, s.To))
		}
		if s.From == s.To {
			violations = append(violations, fmt.Sprintf("settlement %d payer and receiver are the same user", i))
		}
		if s.Amount <= 0 {
			violations = append(violations, fmt.Sprintf("settlement %d amount must be positive, got %d", i, s.Amount))
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// postValidate re-derives the conservation sums from the computed result and
// reports any mismatch. A non-empty return means the engine produced an
// inconsistent breakdown; the caller still gets the numbers, flagged.
func postValidate(r *Result) []string {
	violations := []string{}

	var sumOwed, sumCovered, sumRemaining Money
	for _, balance := range r.UserBalances {
		sumOwed += balance.Owed
		sumCovered += balance.Covered
		sumRemaining += balance.Remaining
	}

	if sumOwed != r.BillTotal {
		violations = append(violations,
			fmt.Sprintf("obligations sum to %d, expected bill total %d", sumOwed, r.BillTotal))
	}
	if sumCovered != r.PaidTotal {
		violations = append(violations,
			fmt.Sprintf("coverage sums to %d, expected paid total %d", sumCovered, r.PaidTotal))
	}
	if sumRemaining < -SettleThreshold || sumRemaining > SettleThreshold {
		violations = append(violations,
			fmt.Sprintf("remaining balances sum to %d, expected within %d of zero", sumRemaining, SettleThreshold))
	}

	return violations
}
