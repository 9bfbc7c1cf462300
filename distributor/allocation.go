package distributor

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/solana"
)

// Allocation is one requested payout: a recipient and a token amount.
type Allocation struct {
	Recipient solana.Address
	Amount    decimal.Decimal
}

// ReadAllocations loads allocations from a CSV file. Plain rows are
// recipient,amount. With fromBids set, rows are primary_address,
// accepted_amount_dollars and each amount is the accepted dollar value
// divided by priceRate.
func ReadAllocations(path string, fromBids bool, priceRate decimal.Decimal) ([]Allocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadAllocations, err)
	}
	defer f.Close()

	allocations, err := parseAllocations(f, fromBids, priceRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadAllocations, err)
	}
	return allocations, nil
}

func parseAllocations(r io.Reader, fromBids bool, priceRate decimal.Decimal) ([]Allocation, error) {
	if fromBids && !priceRate.IsPositive() {
		return nil, ErrMissingPriceRate
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// First row is the header.
	var allocations []Allocation
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: expected 2 columns, got %d", i+2, len(row))
		}
		recipient, err := solana.ParseAddress(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		value, err := decimal.NewFromString(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, row[1], err)
		}
		amount := value
		if fromBids {
			amount = value.Div(priceRate)
		}
		allocations = append(allocations, Allocation{Recipient: recipient, Amount: amount})
	}
	return allocations, nil
}

// MergeAllocations deduplicates allocations by recipient, summing amounts
// and preserving first-seen order.
func MergeAllocations(allocations []Allocation) []Allocation {
	index := make(map[solana.Address]int, len(allocations))
	merged := make([]Allocation, 0, len(allocations))
	for _, allocation := range allocations {
		if i, ok := index[allocation.Recipient]; ok {
			merged[i].Amount = merged[i].Amount.Add(allocation.Amount)
			continue
		}
		index[allocation.Recipient] = len(merged)
		merged = append(merged, allocation)
	}
	return merged
}

// TotalAmount sums allocation amounts.
func TotalAmount(allocations []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, allocation := range allocations {
		total = total.Add(allocation.Amount)
	}
	return total
}
