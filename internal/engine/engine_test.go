package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCalculateEndToEnd(t *testing.T) {
	// Two items (A: 2x500, B: 1x1000), a proportional 10% tax of 200, and A
	// paying the full 2200.
	in := &Input{
		Participants: []int64{1, 2},
		Items: []Item{
			{Owner: 1, Name: "biryani", UnitPrice: 500, Quantity: 2},
			{Owner: 2, Name: "thali", UnitPrice: 1000, Quantity: 1},
		},
		Extras: []Extra{
			{Kind: ExtraTax, Name: "GST", Amount: 200, Rule: SplitProportional},
		},
		Payers: []Payer{
			{User: 1, Amount: 2200},
		},
	}

	result, err := Calculate(in)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}

	if result.ItemsTotal != 2000 {
		t.Errorf("ItemsTotal = %d, want 2000", result.ItemsTotal)
	}
	if result.ExtrasTotal != 200 {
		t.Errorf("ExtrasTotal = %d, want 200", result.ExtrasTotal)
	}
	if result.BillTotal != 2200 {
		t.Errorf("BillTotal = %d, want 2200", result.BillTotal)
	}
	if result.PaidTotal != 2200 {
		t.Errorf("PaidTotal = %d, want 2200", result.PaidTotal)
	}

	a := result.UserBalances[1]
	b := result.UserBalances[2]
	if a.Owed != 1100 || b.Owed != 1100 {
		t.Errorf("owed = %d/%d, want 1100/1100", a.Owed, b.Owed)
	}
	if a.Covered != 2200 || b.Covered != 0 {
		t.Errorf("covered = %d/%d, want 2200/0", a.Covered, b.Covered)
	}
	if a.Net != 1100 || b.Net != -1100 {
		t.Errorf("net = %d/%d, want 1100/-1100", a.Net, b.Net)
	}

	if len(result.SuggestedTransfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(result.SuggestedTransfers))
	}
	transfer := result.SuggestedTransfers[0]
	if transfer.From != 2 || transfer.To != 1 || transfer.Amount != 1100 {
		t.Errorf("transfer = %d->%d of %d, want 2->1 of 1100", transfer.From, transfer.To, transfer.Amount)
	}

	if !result.IsBalanced {
		t.Errorf("IsBalanced = false, validation errors: %v", result.ValidationErrors)
	}
}

func TestCalculateExtraRules(t *testing.T) {
	tests := []struct {
		name     string
		in       *Input
		validate func(t *testing.T, r *Result)
	}{
		{
			name: "payer-only delivery fee lands entirely on the sole payer",
			in: &Input{
				Participants: []int64{1, 2, 3},
				Items: []Item{
					{Owner: 1, Name: "momos", UnitPrice: 300, Quantity: 1},
					{Owner: 2, Name: "chowmein", UnitPrice: 700, Quantity: 1},
				},
				Extras: []Extra{
					{Kind: ExtraDelivery, Name: "delivery", Amount: 100, Rule: SplitPayerOnly},
				},
				Payers: []Payer{{User: 1, Amount: 1100}},
			},
			validate: func(t *testing.T, r *Result) {
				if got := r.UserBalances[1].Owed; got != 400 {
					t.Errorf("payer owed = %d, want 400", got)
				}
				if got := r.UserBalances[2].Owed; got != 700 {
					t.Errorf("non-payer owed = %d, want 700", got)
				}
				if got := r.UserBalances[3].Owed; got != 0 {
					t.Errorf("bystander owed = %d, want 0", got)
				}
			},
		},
		{
			name: "flat service charge splits evenly regardless of item totals",
			in: &Input{
				Participants: []int64{1, 2, 3},
				Items: []Item{
					{Owner: 1, Name: "feast", UnitPrice: 9000, Quantity: 1},
				},
				Extras: []Extra{
					{Kind: ExtraService, Name: "service", Amount: 100, Rule: SplitFlat},
				},
				Payers: []Payer{{User: 1, Amount: 9100}},
			},
			validate: func(t *testing.T, r *Result) {
				if got := r.UserBalances[1].Owed; got != 9034 {
					t.Errorf("owed[1] = %d, want 9034", got)
				}
				if got := r.UserBalances[2].Owed; got != 33 {
					t.Errorf("owed[2] = %d, want 33", got)
				}
				if got := r.UserBalances[3].Owed; got != 33 {
					t.Errorf("owed[3] = %d, want 33", got)
				}
			},
		},
		{
			name: "proportional extra with no items falls back to even split",
			in: &Input{
				Participants: []int64{1, 2},
				Extras: []Extra{
					{Kind: ExtraOther, Name: "cover charge", Amount: 501, Rule: SplitProportional},
				},
				Payers: []Payer{{User: 2, Amount: 501}},
			},
			validate: func(t *testing.T, r *Result) {
				if got := r.UserBalances[1].Owed; got != 251 {
					t.Errorf("owed[1] = %d, want 251", got)
				}
				if got := r.UserBalances[2].Owed; got != 250 {
					t.Errorf("owed[2] = %d, want 250", got)
				}
			},
		},
		{
			name: "proportional weighting uses item bases, not running totals",
			in: &Input{
				Participants: []int64{1, 2},
				Items: []Item{
					{Owner: 1, Name: "starter", UnitPrice: 100, Quantity: 1},
					{Owner: 2, Name: "main", UnitPrice: 300, Quantity: 1},
				},
				Extras: []Extra{
					{Kind: ExtraTax, Name: "tax", Amount: 40, Rule: SplitProportional},
					{Kind: ExtraTip, Name: "tip", Amount: 40, Rule: SplitProportional},
				},
				Payers: []Payer{{User: 1, Amount: 480}},
			},
			validate: func(t *testing.T, r *Result) {
				// Each extra splits 10/30 against the 100/300 bases; the
				// second must not be skewed by the first extra's allocation.
				if got := r.UserBalances[1].Owed; got != 120 {
					t.Errorf("owed[1] = %d, want 120", got)
				}
				if got := r.UserBalances[2].Owed; got != 360 {
					t.Errorf("owed[2] = %d, want 360", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calculate(tt.in)
			if err != nil {
				t.Fatalf("Calculate() error: %v", err)
			}
			tt.validate(t, result)
		})
	}
}

// Conservation: obligations sum exactly to the bill total and coverage to the
// paid total, for inputs chosen to force uneven rounding.
func TestCalculateConservation(t *testing.T) {
	inputs := []*Input{
		{
			Participants: []int64{1, 2, 3, 4, 5, 6, 7},
			Items: []Item{
				{Owner: 1, Name: "a", UnitPrice: 333, Quantity: 3},
				{Owner: 2, Name: "b", UnitPrice: 101, Quantity: 7},
				{Owner: 5, Name: "c", UnitPrice: 49, Quantity: 1},
			},
			Extras: []Extra{
				{Kind: ExtraTax, Name: "tax", Amount: 173, Rule: SplitProportional},
				{Kind: ExtraService, Name: "service", Amount: 97, Rule: SplitFlat},
				{Kind: ExtraDelivery, Name: "delivery", Amount: 211, Rule: SplitPayerOnly},
			},
			Payers: []Payer{
				{User: 1, Amount: 1500},
				{User: 2, Amount: 767},
			},
		},
		{
			Participants: []int64{10, 20, 30},
			Extras: []Extra{
				{Kind: ExtraOther, Name: "rent share", Amount: 100000, Rule: SplitFlat},
			},
			Payers: []Payer{{User: 30, Amount: 100000}},
			Settlements: []Settlement{
				{From: 10, To: 30, Amount: 33334},
			},
		},
	}

	for _, in := range inputs {
		result, err := Calculate(in)
		if err != nil {
			t.Fatalf("Calculate() error: %v", err)
		}

		var sumOwed, sumCovered Money
		for _, balance := range result.UserBalances {
			sumOwed += balance.Owed
			sumCovered += balance.Covered
		}
		if sumOwed != result.ItemsTotal+result.ExtrasTotal {
			t.Errorf("owed sums to %d, want %d", sumOwed, result.ItemsTotal+result.ExtrasTotal)
		}
		if sumCovered != result.PaidTotal {
			t.Errorf("covered sums to %d, want %d", sumCovered, result.PaidTotal)
		}
	}
}

// Calling the engine twice with identical input must yield byte-identical
// output.
func TestCalculateIdempotent(t *testing.T) {
	in := &Input{
		Participants: []int64{4, 2, 9, 7},
		Items: []Item{
			{Owner: 4, Name: "x", UnitPrice: 317, Quantity: 2},
			{Owner: 2, Name: "y", UnitPrice: 211, Quantity: 3},
			{Owner: 9, Name: "z", UnitPrice: 113, Quantity: 1},
		},
		Extras: []Extra{
			{Kind: ExtraTax, Name: "tax", Amount: 131, Rule: SplitProportional},
			{Kind: ExtraTip, Name: "tip", Amount: 250, Rule: SplitFlat},
		},
		Payers: []Payer{
			{User: 7, Amount: 1000},
			{User: 4, Amount: 641},
		},
		Settlements: []Settlement{
			{From: 2, To: 7, Amount: 200},
		},
	}

	first, err := Calculate(in)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	firstJSON, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for run := 0; run < 20; run++ {
		again, err := Calculate(in)
		if err != nil {
			t.Fatalf("run %d: Calculate() error: %v", run, err)
		}
		againJSON, err := json.Marshal(again)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(againJSON) != string(firstJSON) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", run, againJSON, firstJSON)
		}
	}
}

// Settlement folding is a commutative sum: any ordering of the settlement
// list produces the same remaining balances.
func TestCalculateSettlementOrderIndependent(t *testing.T) {
	settlements := []Settlement{
		{From: 2, To: 1, Amount: 300},
		{From: 3, To: 1, Amount: 450},
		{From: 2, To: 3, Amount: 120},
	}
	base := Input{
		Participants: []int64{1, 2, 3},
		Items: []Item{
			{Owner: 1, Name: "groceries", UnitPrice: 900, Quantity: 1},
		},
		Extras: []Extra{
			{Kind: ExtraOther, Name: "bags", Amount: 30, Rule: SplitFlat},
		},
		Payers: []Payer{{User: 1, Amount: 930}},
	}

	orderings := [][]Settlement{
		{settlements[0], settlements[1], settlements[2]},
		{settlements[2], settlements[0], settlements[1]},
		{settlements[1], settlements[2], settlements[0]},
	}

	var want map[int64]*UserBalance
	for i, order := range orderings {
		in := base
		in.Settlements = order
		result, err := Calculate(&in)
		if err != nil {
			t.Fatalf("ordering %d: %v", i, err)
		}
		if want == nil {
			want = result.UserBalances
			continue
		}
		for user, balance := range result.UserBalances {
			if balance.Remaining != want[user].Remaining {
				t.Errorf("ordering %d: remaining[%d] = %d, want %d",
					i, user, balance.Remaining, want[user].Remaining)
			}
		}
	}
}

func TestCalculateInputRejection(t *testing.T) {
	tests := []struct {
		name         string
		in           *Input
		wantMentions []string
	}{
		{
			name:         "empty participant set",
			in:           &Input{},
			wantMentions: []string{"participant set is empty"},
		},
		{
			name: "all violations collected in one rejection",
			in: &Input{
				Participants: []int64{1, 1},
				Items: []Item{
					{Owner: 99, Name: "ghost", UnitPrice: 0, Quantity: 0},
				},
				Payers: []Payer{{User: 42, Amount: -5}},
			},
			wantMentions: []string{
				"duplicate participant 1",
				"owner 99",
				"unit price",
				"quantity",
				"payer 0 user 42",
				"amount must be positive",
			},
		},
		{
			name: "unknown split rule",
			in: &Input{
				Participants: []int64{1},
				Extras: []Extra{
					{Kind: ExtraTax, Name: "tax", Amount: 10, Rule: SplitRule("vibes")},
				},
			},
			wantMentions: []string{`unknown split rule "vibes"`},
		},
		{
			name: "payer-only extra without payers",
			in: &Input{
				Participants: []int64{1, 2},
				Extras: []Extra{
					{Kind: ExtraDelivery, Name: "delivery", Amount: 100, Rule: SplitPayerOnly},
				},
			},
			wantMentions: []string{"payer-only split but the bill has no payers"},
		},
		{
			name: "self settlement",
			in: &Input{
				Participants: []int64{1, 2},
				Settlements:  []Settlement{{From: 1, To: 1, Amount: 100}},
			},
			wantMentions: []string{"payer and receiver are the same user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(tt.in)
			if err == nil {
				t.Fatal("Calculate() accepted invalid input")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
			joined := strings.Join(verr.Violations, "\n")
			for _, mention := range tt.wantMentions {
				if !strings.Contains(joined, mention) {
					t.Errorf("violations missing %q:\n%s", mention, joined)
				}
			}
		})
	}
}

// An underpaid bill still computes, but is flagged rather than raised: the
// remaining balances cannot sum to zero.
func TestCalculateUnderpaidFlagged(t *testing.T) {
	in := &Input{
		Participants: []int64{1, 2},
		Items: []Item{
			{Owner: 1, Name: "dinner", UnitPrice: 1000, Quantity: 1},
			{Owner: 2, Name: "dinner", UnitPrice: 1000, Quantity: 1},
		},
		Payers: []Payer{{User: 1, Amount: 500}},
	}

	result, err := Calculate(in)
	if err != nil {
		t.Fatalf("Calculate() error: %v", err)
	}
	if result.IsBalanced {
		t.Error("IsBalanced = true for an underpaid bill")
	}
	if len(result.ValidationErrors) == 0 {
		t.Error("expected a validation error for the remaining-balance sum")
	}
	// The breakdown itself is still available.
	if result.UserBalances[1].Owed != 1000 || result.UserBalances[2].Owed != 1000 {
		t.Error("partial breakdown missing from flagged result")
	}
}

func TestFromMajor(t *testing.T) {
	tests := []struct {
		major float64
		want  Money
	}{
		{0, 0},
		{1, 100},
		{12.34, 1234},
		{0.005, 1},
		{0.004, 0},
		{-1.5, -150},
	}
	for _, tt := range tests {
		if got := FromMajor(tt.major); got != tt.want {
			t.Errorf("FromMajor(%v) = %d, want %d", tt.major, got, tt.want)
		}
	}
}
