// Package engine implements the bill settlement calculation: per-participant
// obligations, coverage, net and remaining balances, and suggested transfers,
// all in integer minor currency units.
//
// The engine is pure and stateless. Given an immutable input snapshot it
// returns a result with no side effects and no I/O, so it may be invoked
// concurrently for different bills; the caller is responsible for serializing
// writes to a single bill before re-invoking it.
package engine

// Item is one purchased line on a bill. It contributes unit price times
// quantity to its owner's obligation.
type Item struct {
	Owner     int64  `json:"owner"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// Extra is a surcharge (tax, service, tip, delivery) distributed across
// participants according to its split rule.
type Extra struct {
	Kind   ExtraKind `json:"kind"`
	Name   string    `json:"name"`
	Amount Money     `json:"amount"`
	Rule   SplitRule `json:"split_rule"`
}

// Payer records one participant's contribution at point of payment.
//
// CoverageType and CoverageTargets are coverage intent metadata; they are
// captured and carried through but the calculation only ever credits the raw
// Amount (see coverage.go).
type Payer struct {
	User            int64   `json:"user"`
	Amount          Money   `json:"amount"`
	CoverageType    string  `json:"coverage_type,omitempty"`
	CoverageTargets []int64 `json:"coverage_targets,omitempty"`
}

// Settlement is a recorded peer-to-peer payment folded into remaining
// balances.
type Settlement struct {
	From   int64 `json:"from"`
	To     int64 `json:"to"`
	Amount Money `json:"amount"`
}

// Input is one immutable bill snapshot. All monetary fields are integer minor
// units, pre-converted by the caller.
type Input struct {
	Participants []int64      `json:"participants"`
	Items        []Item       `json:"items"`
	Extras       []Extra      `json:"extras"`
	Payers       []Payer      `json:"payers"`
	Settlements  []Settlement `json:"settlements,omitempty"`
}

// UserBalance is one participant's position on the bill. Owed and Covered are
// non-negative; Net and Remaining may be negative (debt) or positive (credit).
type UserBalance struct {
	Owed      Money `json:"owed"`
	Covered   Money `json:"covered"`
	Net       Money `json:"net"`
	Remaining Money `json:"remaining"`
}

// Transfer is a suggested peer-to-peer payment. It is advisory output, not a
// ledger entry; recording it as an actual settlement is the caller's call.
type Transfer struct {
	From   int64 `json:"from"`
	To     int64 `json:"to"`
	Amount Money `json:"amount"`
}

// Result is the complete calculation output for one bill.
type Result struct {
	UserBalances       map[int64]*UserBalance `json:"user_balances"`
	SuggestedTransfers []Transfer             `json:"suggested_transfers"`
	ItemsTotal         Money                  `json:"items_total"`
	ExtrasTotal        Money                  `json:"extras_total"`
	BillTotal          Money                  `json:"bill_total"`
	PaidTotal          Money                  `json:"paid_total"`
	IsBalanced         bool                   `json:"is_balanced"`
	ValidationErrors   []string               `json:"validation_errors"`
}

// Calculate runs the full settlement calculation over one bill snapshot.
//
// Invalid input is rejected up front with a *ValidationError and no partial
// result. Post-computation conservation failures are reported on the result
// (ValidationErrors, IsBalanced=false) rather than returned as an error, so
// the caller can still inspect the attempted breakdown. The one exception is
// a distributor sum mismatch, which propagates as a hard error because it
// breaks the engine's core guarantee.
func Calculate(in *Input) (*Result, error) {
	if err := preValidate(in); err != nil {
		return nil, err
	}

	pos := participantIndex(in.Participants)

	owed, err := obligations(in, pos)
	if err != nil {
		return nil, err
	}
	covered := coverage(in, pos)
	balances := composeBalances(in, owed, covered, pos)

	var itemsTotal, extrasTotal, paidTotal Money
	for _, it := range in.Items {
		itemsTotal += it.UnitPrice * Money(it.Quantity)
	}
	for _, ex := range in.Extras {
		extrasTotal += ex.Amount
	}
	for _, p := range in.Payers {
		paidTotal += p.Amount
	}

	result := &Result{
		UserBalances:       make(map[int64]*UserBalance, len(in.Participants)),
		SuggestedTransfers: suggestTransfers(in.Participants, balances, SettleThreshold),
		ItemsTotal:         itemsTotal,
		ExtrasTotal:        extrasTotal,
		BillTotal:          itemsTotal + extrasTotal,
		PaidTotal:          paidTotal,
		ValidationErrors:   []string{},
	}
	for i, user := range in.Participants {
		balance := balances[i]
		result.UserBalances[user] = &balance
	}

	result.ValidationErrors = postValidate(result)
	result.IsBalanced = len(result.ValidationErrors) == 0

	return result, nil
}

// participantIndex maps each user id to its position in the participant
// slice. All iteration and tie-breaking runs over that slice, never over map
// order, so results are reproducible.
func participantIndex(participants []int64) map[int64]int {
	pos := make(map[int64]int, len(participants))
	for i, user := range participants {
		pos[user] = i
	}
	return pos
}
