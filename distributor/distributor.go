// Package distributor implements a resumable, idempotent bulk payout engine.
// It reconciles requested allocations against a durable transaction ledger,
// submits one transfer (or stake delegation) per recipient, and polls the
// network until every submission is finalized or provably dropped.
package distributor

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/solana"
)

// Sentinel errors for failure cases
var (
	ErrReadAllocations  = errors.New("allocation input failed")
	ErrMissingPriceRate = errors.New("price rate required for bid input")
	ErrLedgerAccess     = errors.New("transaction ledger access failed")
	ErrBlockhashFetch   = errors.New("blockhash fetch failed")
	ErrStatusFetch      = errors.New("status fetch failed")
	ErrBalanceCheck     = errors.New("balance check failed")
	ErrNonZeroBalance   = errors.New("recipient already has a balance")
)

// DefaultPollInterval approximates one ledger time-slot.
const DefaultPollInterval = 500 * time.Millisecond

// Client submits transactions and answers status queries
// --------------------------------------------------------
type Client interface {
	// SendTransaction is fire-and-forget; it does not wait for confirmation.
	SendTransaction(ctx context.Context, tx solana.Transaction) (solana.Signature, error)
	// SignatureStatuses returns one entry per signature; nil entries mean
	// the network has no knowledge of the signature.
	SignatureStatuses(ctx context.Context, signatures []solana.Signature) ([]*solana.TransactionStatus, error)
	// RecentBlockhashes returns the blockhashes still valid for submission.
	RecentBlockhashes(ctx context.Context) ([]solana.Hash, error)
	// Balance returns an account balance in base units.
	Balance(ctx context.Context, address solana.Address) (uint64, error)
	// ReferenceBlockhash returns the blockhash a new transaction should
	// reference, plus the current fee schedule.
	ReferenceBlockhash(ctx context.Context) (solana.Hash, solana.FeeInfo, error)
}

// Store is the durable transaction ledger keyed by signature. It is the
// single source of truth for what this process has already attempted.
type Store interface {
	Set(signature solana.Signature, record TransactionRecord) error
	Get(signature solana.Signature) (TransactionRecord, bool, error)
	Remove(signature solana.Signature) error
	// All returns every signature/record pair in the ledger.
	All() ([]SignedRecord, error)
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// StakeConfig configures stake-delegation distributions. Each allocation
// splits amount minus FeeReserve into a fresh stake account, reassigns both
// authorities to the recipient, and transfers FeeReserve directly so the
// recipient can pay future fees.
type StakeConfig struct {
	SourceStakeAccount solana.Address
	StakeAuthority     *solana.Keypair
	WithdrawAuthority  *solana.Keypair
	FeeReserve         decimal.Decimal
}

// RunConfig describes a single distribution run.
type RunConfig struct {
	InputPath string
	FromBids  bool
	// PriceRate converts accepted dollar bids to token amounts. Required
	// when FromBids is set.
	PriceRate decimal.Decimal
	DryRun    bool
	NoWait    bool
	Force     bool
	FeePayer  *solana.Keypair
	Sender    *solana.Keypair
	Stake     *StakeConfig
}
