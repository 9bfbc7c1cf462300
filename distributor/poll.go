package distributor

import (
	"context"
	"fmt"

	"github.com/garious/solana-batch/pkg/solana"
)

// pollCycle evaluates every non-finalized ledger record against the
// network: fetch all outstanding statuses and the valid recent blockhashes
// in one batched round trip each, then advance each record through the
// finalization state machine. It returns the minimum confirmation count
// among records still pending, or nil when every record is finalized or
// discarded.
//
// A failed status or blockhash fetch is fatal: without current status no
// safe discard or finalize decision can be made.
func (s *Service) pollCycle(ctx context.Context) (*uint64, error) {
	pairs, err := s.store.All()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerAccess, err)
	}

	pending := pairs[:0]
	for _, pair := range pairs {
		if !pair.Record.Finalized {
			pending = append(pending, pair)
		}
	}
	if len(pending) == 0 {
		s.events <- PollCycleCompleted{}
		return nil, nil
	}

	signatures := make([]solana.Signature, len(pending))
	for i, pair := range pending {
		signatures[i] = pair.Signature
	}
	statuses, err := s.client.SignatureStatuses(ctx, signatures)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatusFetch, err)
	}
	if len(statuses) != len(pending) {
		return nil, fmt.Errorf("%w: expected %d statuses, got %d", ErrStatusFetch, len(pending), len(statuses))
	}

	recent, err := s.client.RecentBlockhashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStatusFetch, err)
	}
	valid := make(map[solana.Hash]struct{}, len(recent))
	for _, hash := range recent {
		valid[hash] = struct{}{}
	}

	var confirmations *uint64
	stillPending := 0
	for i, pair := range pending {
		confs, err := s.resolveTransaction(pair, statuses[i], valid)
		if err != nil {
			return nil, err
		}
		if confs == nil {
			continue
		}
		stillPending++
		if confirmations == nil || *confs < *confirmations {
			confirmations = confs
		}
	}

	s.events <- PollCycleCompleted{Confirmations: confirmations, Pending: stillPending}
	return confirmations, nil
}

// resolveTransaction advances one record through the state machine:
//
//	Submitted -> Confirming(n) -> Finalized | Discarded
//
// It returns the record's confirmation count while still pending, or nil
// once the record is finalized or discarded.
func (s *Service) resolveTransaction(pair SignedRecord, status *solana.TransactionStatus, valid map[solana.Hash]struct{}) (*uint64, error) {
	if status == nil {
		if _, ok := valid[pair.Record.Blockhash]; !ok {
			// The referenced blockhash expired with the signature unknown:
			// the transaction can never land.
			if err := s.store.Remove(pair.Signature); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLedgerAccess, err)
			}
			s.events <- RecordDiscarded{
				Signature: pair.Signature,
				Reason:    "signature not found and blockhash expired",
			}
			return nil, nil
		}
		// The transaction might still be in flight.
		zero := uint64(0)
		return &zero, nil
	}

	if status.Confirmations != nil {
		// Found but not yet finalized.
		confs := *status.Confirmations
		return &confs, nil
	}

	if status.Failed() {
		// Finalized, but execution failed. Drop it.
		if err := s.store.Remove(pair.Signature); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLedgerAccess, err)
		}
		s.events <- RecordDiscarded{
			Signature: pair.Signature,
			Reason:    fmt.Sprintf("execution failed: %s", status.Err),
		}
		return nil, nil
	}

	// Rooted. Set finalized in the ledger.
	record := pair.Record
	record.Finalized = true
	if err := s.store.Set(pair.Signature, record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerAccess, err)
	}
	s.events <- TransactionFinalized{Signature: pair.Signature, Recipient: record.Recipient}
	return nil, nil
}
