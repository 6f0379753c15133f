package engine

// composeBalances combines obligations and coverage into per-participant
// balances, then folds in recorded settlements.
//
// Net is covered minus owed: positive means the person is owed money,
// negative means they owe. Each settlement raises the payer's remaining
// balance and lowers the receiver's by the same amount; the fold is a
// commutative sum of signed adjustments, so it is idempotent for a given
// settlement list and independent of settlement order.
func composeBalances(in *Input, owed, covered []Money, pos map[int64]int) []UserBalance {
	balances := make([]UserBalance, len(in.Participants))
	for i := range balances {
		balances[i] = UserBalance{
			Owed:      owed[i],
			Covered:   covered[i],
			Net:       covered[i] - owed[i],
			Remaining: covered[i] - owed[i],
		}
	}
	for _, s := range in.Settlements {
		balances[pos[s.From]].Remaining += s.Amount
		balances[pos[s.To]].Remaining -= s.Amount
	}
	return balances
}
