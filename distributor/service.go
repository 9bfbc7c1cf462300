package distributor

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/clock"
	"github.com/garious/solana-batch/pkg/solana"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithPollInterval sets the interval between finalization poll cycles
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) { s.pollInterval = d }
}

// Service runs distributions: reconcile, submit, poll to finalization
// -------------------------------------------------------------------
type Service struct {
	client       Client
	store        Store
	clock        Clock
	pollInterval time.Duration
	events       chan Event
}

// NewService constructs a Service with required dependencies and options.
// By default it uses a real clock and a 500ms poll interval.
func NewService(client Client, store Store, opts ...Option) *Service {
	s := &Service{
		client:       client,
		store:        store,
		clock:        clock.SystemClock{},
		pollInterval: DefaultPollInterval,
		events:       make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the lifecycle event channel. Subscribe before calling Run;
// the channel is closed when Run returns.
func (s *Service) Events() <-chan Event {
	return s.events
}

// Run executes one distribution pass: load allocations, reconcile them
// against the ledger, submit the remaining work, then poll until every
// submitted transaction is finalized or discarded.
//
// The returned confirmation count is the minimum across still-pending
// transactions, or nil when none remain. It is only non-nil when NoWait cut
// the poll loop short. Run is single-use: it closes the event channel on
// return. Re-running the whole program is the recovery path for any error.
func (s *Service) Run(ctx context.Context, cfg RunConfig) (*uint64, error) {
	defer close(s.events)

	allocations, err := ReadAllocations(cfg.InputPath, cfg.FromBids, cfg.PriceRate)
	if err != nil {
		return nil, err
	}

	total := TotalAmount(allocations)
	totalDollars := decimal.Zero
	if cfg.FromBids {
		totalDollars = total.Mul(cfg.PriceRate)
	}
	s.events <- RunStarted{Allocations: len(allocations), TotalTokens: total, TotalDollars: totalDollars}

	// Resolve anything a previous run left behind before reconciling.
	confirmations, err := s.pollCycle(ctx)
	if err != nil {
		return nil, err
	}
	if confirmations != nil {
		s.events <- UnfinalizedCarryover{Confirmations: *confirmations}
	}

	pairs, err := s.store.All()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerAccess, err)
	}
	history := make([]TransactionRecord, len(pairs))
	distributed := decimal.Zero
	for i, pair := range pairs {
		history[i] = pair.Record
		distributed = distributed.Add(pair.Record.Amount)
	}

	allocations = ApplyPreviousTransactions(allocations, history)
	s.events <- ReconcileCompleted{
		Distributed:   distributed,
		Undistributed: TotalAmount(allocations),
		Remaining:     len(allocations),
	}

	if len(allocations) == 0 {
		s.events <- NoWorkToDo{}
		s.events <- RunCompleted{Confirmations: confirmations}
		return confirmations, nil
	}

	if err := s.preflight(ctx, allocations, cfg); err != nil {
		return nil, err
	}

	if err := s.submit(ctx, allocations, cfg); err != nil {
		return nil, err
	}

	confirmations, err = s.pollCycle(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.NoWait {
		s.events <- RunCompleted{Confirmations: confirmations}
		return confirmations, nil
	}

	for confirmations != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.clock.After(s.pollInterval):
		}
		confirmations, err = s.pollCycle(ctx)
		if err != nil {
			return nil, err
		}
	}

	s.events <- RunCompleted{}
	return nil, nil
}

// preflight refuses plain transfers to recipients that already hold a
// balance. A non-zero balance means a completed-but-unlogged transfer, a
// pre-funded account, or address reuse across batches; aborting before the
// first send avoids compounding a potential double payment. Stake
// distributions and the force flag bypass the guard.
func (s *Service) preflight(ctx context.Context, allocations []Allocation, cfg RunConfig) error {
	if cfg.Stake != nil || cfg.Force {
		return nil
	}
	for _, allocation := range allocations {
		balance, err := s.client.Balance(ctx, allocation.Recipient)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBalanceCheck, allocation.Recipient, err)
		}
		if balance != 0 {
			return fmt.Errorf("%w: refusing to send %s to %s holding %s",
				ErrNonZeroBalance, allocation.Amount, allocation.Recipient, solana.FromLamports(balance))
		}
	}
	return nil
}
