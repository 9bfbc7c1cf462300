package distributor_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garious/solana-batch/distributor"
)

func TestReadAllocations(t *testing.T) {
	t.Parallel()

	t.Run("it reads recipient and amount rows", func(t *testing.T) {
		t.Parallel()

		recipient := newAddress(t)
		path := allocationsCSV(t, amountCSVRow(recipient, "42.0"))

		allocations, err := distributor.ReadAllocations(path, false, decimal.Zero)

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.Equal(t, recipient, allocations[0].Recipient)
		assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(42)))
	})

	t.Run("it converts bids through the price rate", func(t *testing.T) {
		t.Parallel()

		recipient := newAddress(t)
		path := writeCSV(t,
			"primary_address,accepted_amount_dollars",
			amountCSVRow(recipient, "42.0"),
		)

		allocations, err := distributor.ReadAllocations(path, true, decimal.NewFromFloat(0.5))

		require.NoError(t, err)
		require.Len(t, allocations, 1)
		assert.True(t, allocations[0].Amount.Equal(decimal.NewFromInt(84)),
			"42 dollars at 0.5 dollars per token should buy 84 tokens, got %s", allocations[0].Amount)
	})

	t.Run("it requires a price rate for bid input", func(t *testing.T) {
		t.Parallel()

		path := writeCSV(t, "primary_address,accepted_amount_dollars")

		_, err := distributor.ReadAllocations(path, true, decimal.Zero)

		assert.ErrorIs(t, err, distributor.ErrMissingPriceRate)
	})

	t.Run("it rejects malformed addresses", func(t *testing.T) {
		t.Parallel()

		path := allocationsCSV(t, "not-an-address,1.0")

		_, err := distributor.ReadAllocations(path, false, decimal.Zero)

		assert.ErrorIs(t, err, distributor.ErrReadAllocations)
	})

	t.Run("it rejects malformed amounts", func(t *testing.T) {
		t.Parallel()

		path := allocationsCSV(t, amountCSVRow(newAddress(t), "one"))

		_, err := distributor.ReadAllocations(path, false, decimal.Zero)

		assert.ErrorIs(t, err, distributor.ErrReadAllocations)
	})

	t.Run("it fails when the file is missing", func(t *testing.T) {
		t.Parallel()

		_, err := distributor.ReadAllocations("no/such/file.csv", false, decimal.Zero)

		assert.ErrorIs(t, err, distributor.ErrReadAllocations)
	})
}

func TestMergeAllocations(t *testing.T) {
	t.Parallel()

	t.Run("it sums duplicate recipients preserving first-seen order", func(t *testing.T) {
		t.Parallel()

		a, b := newAddress(t), newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromInt(1)},
			{Recipient: b, Amount: decimal.NewFromInt(2)},
			{Recipient: a, Amount: decimal.NewFromInt(3)},
		}

		merged := distributor.MergeAllocations(allocations)

		require.Len(t, merged, 2)
		assert.Equal(t, a, merged[0].Recipient)
		assert.True(t, merged[0].Amount.Equal(decimal.NewFromInt(4)))
		assert.Equal(t, b, merged[1].Recipient)
		assert.True(t, merged[1].Amount.Equal(decimal.NewFromInt(2)))
	})

	t.Run("it preserves per-recipient totals", func(t *testing.T) {
		t.Parallel()

		a, b := newAddress(t), newAddress(t)
		allocations := []distributor.Allocation{
			{Recipient: a, Amount: decimal.NewFromFloat(0.1)},
			{Recipient: a, Amount: decimal.NewFromFloat(0.2)},
			{Recipient: b, Amount: decimal.NewFromFloat(5)},
			{Recipient: a, Amount: decimal.NewFromFloat(0.3)},
		}

		merged := distributor.MergeAllocations(allocations)

		assert.True(t, distributor.TotalAmount(merged).Equal(distributor.TotalAmount(allocations)))
	})
}
