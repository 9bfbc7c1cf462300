package distributor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/solana"
)

// WriteTransactionLog writes the audit view of the ledger as CSV: one row
// per record, including the signature the record is keyed by.
func WriteTransactionLog(store Store, w io.Writer) error {
	pairs, err := store.All()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLedgerAccess, err)
	}

	writer := csv.NewWriter(w)
	header := []string{"recipient", "amount", "auxiliary_account", "finalized", "blockhash", "signature"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing transaction log: %w", err)
	}
	for _, pair := range pairs {
		record := pair.Record
		row := []string{
			string(record.Recipient),
			record.Amount.String(),
			string(record.AuxiliaryAccount),
			strconv.FormatBool(record.Finalized),
			string(record.Blockhash),
			string(pair.Signature),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing transaction log: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("writing transaction log: %w", err)
	}
	return nil
}

// BalanceRow compares one recipient's expected balance against the ledger.
type BalanceRow struct {
	Recipient  solana.Address
	Expected   decimal.Decimal
	Actual     decimal.Decimal
	Difference decimal.Decimal
}

// Balances merges the allocations and fetches each recipient's live
// balance. Expected amounts are round-tripped through base units so they
// compare exactly against on-chain balances.
func Balances(ctx context.Context, client Client, allocations []Allocation) ([]BalanceRow, error) {
	merged := MergeAllocations(allocations)
	rows := make([]BalanceRow, 0, len(merged))
	for _, allocation := range merged {
		balance, err := client.Balance(ctx, allocation.Recipient)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBalanceCheck, allocation.Recipient, err)
		}
		expected := solana.FromLamports(solana.ToLamports(allocation.Amount))
		actual := solana.FromLamports(balance)
		rows = append(rows, BalanceRow{
			Recipient:  allocation.Recipient,
			Expected:   expected,
			Actual:     actual,
			Difference: actual.Sub(expected),
		})
	}
	return rows, nil
}
