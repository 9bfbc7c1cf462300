package distributor

import "github.com/shopspring/decimal"

// residualEpsilon tolerates floating-point residue left over from prior
// reconciliation arithmetic. Allocations at or below half a token after
// deduction are treated as fully paid.
var residualEpsilon = decimal.NewFromFloat(0.5)

// ApplyPreviousTransactions deducts every historical record's amount from
// the requested allocations and returns the remaining work.
//
// History is applied record by record: the deduction walks the allocation
// list in order, draining matching-recipient entries until the record's
// amount is consumed. A recipient appearing in several rows (merged from
// partially satisfied bids) is therefore drained front to back. Allocations
// left at or below residualEpsilon are dropped.
func ApplyPreviousTransactions(allocations []Allocation, history []TransactionRecord) []Allocation {
	for _, record := range history {
		amount := record.Amount
		for i := range allocations {
			if allocations[i].Recipient != record.Recipient {
				continue
			}
			if allocations[i].Amount.GreaterThanOrEqual(amount) {
				allocations[i].Amount = allocations[i].Amount.Sub(amount)
				break
			}
			amount = amount.Sub(allocations[i].Amount)
			allocations[i].Amount = decimal.Zero
		}
	}

	remaining := allocations[:0]
	for _, allocation := range allocations {
		if allocation.Amount.GreaterThan(residualEpsilon) {
			remaining = append(remaining, allocation)
		}
	}
	return remaining
}
