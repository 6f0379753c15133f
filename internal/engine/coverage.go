package engine

// coverage computes what each participant contributed toward payment: the sum
// of their amount-paid entries, zero for non-payers. This is a direct
// aggregation of point-of-sale contributions, not a redistribution.
//
// Payer coverage intent metadata (CoverageType, CoverageTargets) is
// deliberately not consulted here: the source system accepts and displays it
// but credits payers with their raw amount only. Coverage-aware
// redistribution is an open question, not implemented.
func coverage(in *Input, pos map[int64]int) []Money {
	covered := make([]Money, len(in.Participants))
	for _, p := range in.Payers {
		covered[pos[p.User]] += p.Amount
	}
	return covered
}
