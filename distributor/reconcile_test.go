package distributor_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garious/solana-batch/distributor"
)

func TestApplyPreviousTransactions(t *testing.T) {
	t.Parallel()

	t.Run("it deducts from the matching recipient only", func(t *testing.T) {
		t.Parallel()

		a, b := newAddress(t), newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(1)},
			{Recipient: b, Amount: decimal.NewFromInt(1)},
		}
		history := []distributor.TransactionRecord{
			{Recipient: b, Amount: decimal.NewFromInt(1), Finalized: true},
		}

		remaining := distributor.ApplyPreviousTransactions(allocations, history)

		require.Len(t, remaining, 1)
		assert.Equal(t, a, remaining[0].Recipient)
	})

	t.Run("it drains duplicate recipient rows front to back", func(t *testing.T) {
		t.Parallel()

		a := newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(3)},
			{Recipient: a, Amount: decimal.NewFromInt(2)},
		}
		history := []distributor.TransactionRecord{
			{Recipient: a, Amount: decimal.NewFromInt(4)},
		}

		remaining := distributor.ApplyPreviousTransactions(allocations, history)

		// First row zeroed, second row left with 1, which survives the
		// epsilon filter.
		require.Len(t, remaining, 1)
		assert.True(t, remaining[0].Amount.Equal(decimal.NewFromInt(1)),
			"expected 1 token remaining, got %s", remaining[0].Amount)
	})

	t.Run("it drops residues at or below half a token", func(t *testing.T) {
		t.Parallel()

		a := newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(1)},
		}
		history := []distributor.TransactionRecord{
			{Recipient: a, Amount: decimal.NewFromFloat(0.6)},
		}

		remaining := distributor.ApplyPreviousTransactions(allocations, history)

		assert.Empty(t, remaining)
	})

	t.Run("it keeps amounts just above the residue threshold", func(t *testing.T) {
		t.Parallel()

		a := newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(1)},
		}
		history := []distributor.TransactionRecord{
			{Recipient: a, Amount: decimal.NewFromFloat(0.4)},
		}

		remaining := distributor.ApplyPreviousTransactions(allocations, history)

		require.Len(t, remaining, 1)
		assert.True(t, remaining[0].Amount.Equal(decimal.NewFromFloat(0.6)))
	})

	t.Run("it subtracts the full history for each recipient", func(t *testing.T) {
		t.Parallel()

		a, b := newAddress(t), newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(10)},
			{Recipient: b, Amount: decimal.NewFromInt(10)},
		}
		history := []distributor.TransactionRecord{
			{Recipient: a, Amount: decimal.NewFromInt(4)},
			{Recipient: a, Amount: decimal.NewFromInt(3)},
		}

		remaining := distributor.ApplyPreviousTransactions(allocations, history)

		require.Len(t, remaining, 2)
		assert.True(t, remaining[0].Amount.Equal(decimal.NewFromInt(3)))
		assert.True(t, remaining[1].Amount.Equal(decimal.NewFromInt(10)))
	})
}
