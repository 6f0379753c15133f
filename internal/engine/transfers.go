package engine

import "sort"

// SettleThreshold is the dust tolerance in minor units: balances within one
// rupee (100 paisa) of zero are considered settled and generate no transfer.
const SettleThreshold Money = 100

type party struct {
	user   int64
	amount Money // always positive: debt for debtors, credit for creditors
}

// suggestTransfers proposes transfers that bring every remaining balance to
// (near) zero by repeatedly matching the largest debtor against the largest
// creditor and moving the smaller of the two amounts.
//
// Greedy largest-first matching does not always achieve the theoretical
// minimum transfer count (that variant is NP-hard); it is the accepted
// approximation and guarantees termination, conservation, and determinism.
func suggestTransfers(participants []int64, balances []UserBalance, threshold Money) []Transfer {
	var debtors, creditors []party
	for i, user := range participants {
		switch remaining := balances[i].Remaining; {
		case remaining < -threshold:
			debtors = append(debtors, party{user: user, amount: -remaining})
		case remaining > threshold:
			creditors = append(creditors, party{user: user, amount: remaining})
		}
	}
	sortParties(debtors)
	sortParties(creditors)

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := minMoney(debtors[i].amount, creditors[j].amount)
		if amount > threshold {
			transfers = append(transfers, Transfer{
				From:   debtors[i].user,
				To:     creditors[j].user,
				Amount: amount,
			})
		}
		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount <= threshold {
			i++
		}
		if creditors[j].amount <= threshold {
			j++
		}
	}
	return transfers
}

// sortParties orders by amount descending, ties broken by ascending user id
// so matching is deterministic.
func sortParties(parties []party) {
	sort.Slice(parties, func(a, b int) bool {
		if parties[a].amount != parties[b].amount {
			return parties[a].amount > parties[b].amount
		}
		return parties[a].user < parties[b].user
	})
}
