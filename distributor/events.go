package distributor

import (
	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/solana"
)

// Event represents a run lifecycle event
// ---------------------------------------
type Event any

// RunStarted reports the loaded input. TotalDollars is zero unless the
// input was bids converted through a price rate.
type RunStarted struct {
	Allocations  int
	TotalTokens  decimal.Decimal
	TotalDollars decimal.Decimal
}

// UnfinalizedCarryover warns that a previous run left transactions that are
// not yet finalized.
type UnfinalizedCarryover struct {
	Confirmations uint64
}

// ReconcileCompleted reports the split between already-recorded and
// remaining amounts after ledger reconciliation.
type ReconcileCompleted struct {
	Distributed   decimal.Decimal
	Undistributed decimal.Decimal
	Remaining     int
}

// NoWorkToDo means reconciliation left nothing to submit.
type NoWorkToDo struct{}

// TransactionPlanned is emitted instead of a send during a dry run.
type TransactionPlanned struct {
	Recipient solana.Address
	Amount    decimal.Decimal
}

// TransactionSubmitted means a record was persisted and the send issued.
type TransactionSubmitted struct {
	Recipient solana.Address
	Amount    decimal.Decimal
	Signature solana.Signature
}

// SendFailed means the network send failed after the record was persisted.
// The record stays in the ledger; the poller resolves its true status.
type SendFailed struct {
	Recipient solana.Address
	Err       error
}

// RecordDiscarded means a record was removed because the transaction
// provably failed or can no longer land.
type RecordDiscarded struct {
	Signature solana.Signature
	Reason    string
}

// TransactionFinalized means a transaction was rooted and its record marked
// finalized.
type TransactionFinalized struct {
	Signature solana.Signature
	Recipient solana.Address
}

// PollCycleCompleted reports one poll cycle. Confirmations is the minimum
// confirmation count among still-pending records, or nil when none remain.
type PollCycleCompleted struct {
	Confirmations *uint64
	Pending       int
}

// RunCompleted carries the final aggregate confirmation state: nil when all
// work finalized or was discarded, non-nil when no-wait returned early.
type RunCompleted struct {
	Confirmations *uint64
}
