package engine

import (
	"errors"
	"testing"
)

func balancesResult(remaining map[int64]Money) *Result {
	r := &Result{UserBalances: make(map[int64]*UserBalance, len(remaining))}
	for user, amount := range remaining {
		r.UserBalances[user] = &UserBalance{Remaining: amount}
	}
	return r
}

func TestClampSettlement(t *testing.T) {
	tests := []struct {
		name       string
		remaining  map[int64]Money
		from, to   int64
		requested  Money
		want       Money
		wantReason bool
		wantErr    error
	}{
		{
			name:      "clamped to what the creditor is owed",
			remaining: map[int64]Money{1: -500, 2: 300},
			from:      1, to: 2,
			requested:  800,
			want:       300,
			wantReason: true,
		},
		{
			name:      "clamped to what the debtor owes",
			remaining: map[int64]Money{1: -200, 2: 900},
			from:      1, to: 2,
			requested:  500,
			want:       200,
			wantReason: true,
		},
		{
			name:      "exact request passes through without a reason",
			remaining: map[int64]Money{1: -400, 2: 400},
			from:      1, to: 2,
			requested: 400,
			want:      400,
		},
		{
			name:      "partial request below both capacities",
			remaining: map[int64]Money{1: -1000, 2: 1000},
			from:      1, to: 2,
			requested: 250,
			want:      250,
		},
		{
			name:      "debtor owes nothing",
			remaining: map[int64]Money{1: 100, 2: 300},
			from:      1, to: 2,
			requested: 100,
			wantErr:   ErrNoSettlementNeeded,
		},
		{
			name:      "creditor is owed nothing",
			remaining: map[int64]Money{1: -300, 2: -100},
			from:      1, to: 2,
			requested: 100,
			wantErr:   ErrNoSettlementNeeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason, err := ClampSettlement(balancesResult(tt.remaining), tt.from, tt.to, tt.requested)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClampSettlement() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("amount = %d, want %d", got, tt.want)
			}
			if tt.wantReason && reason == "" {
				t.Error("expected a clamp reason, got none")
			}
			if !tt.wantReason && reason != "" {
				t.Errorf("unexpected reason %q", reason)
			}
		})
	}
}

func TestClampSettlementBadInput(t *testing.T) {
	r := balancesResult(map[int64]Money{1: -500, 2: 500})

	if _, _, err := ClampSettlement(r, 1, 2, 0); err == nil {
		t.Error("zero request accepted")
	}
	if _, _, err := ClampSettlement(r, 1, 2, -10); err == nil {
		t.Error("negative request accepted")
	}
	if _, _, err := ClampSettlement(r, 77, 2, 100); err == nil {
		t.Error("unknown debtor accepted")
	}
	if _, _, err := ClampSettlement(r, 1, 77, 100); err == nil {
		t.Error("unknown creditor accepted")
	}
}
