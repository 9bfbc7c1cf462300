package distributor

import (
	"context"
	"fmt"

	"github.com/garious/solana-batch/pkg/solana"
)

// submit issues one transaction per allocation. The ledger record is
// persisted before the send: if the process dies between the two, the next
// run's reconciliation sees the recorded amount and the poller resolves
// whether the transaction actually landed. Send failures are tolerated and
// reported; everything else aborts the pass.
func (s *Service) submit(ctx context.Context, allocations []Allocation, cfg RunConfig) error {
	for _, allocation := range allocations {
		if cfg.DryRun {
			s.events <- TransactionPlanned{Recipient: allocation.Recipient, Amount: allocation.Amount}
			continue
		}

		signers := []*solana.Keypair{cfg.FeePayer, cfg.Sender}
		var auxiliary *solana.Keypair
		if cfg.Stake != nil {
			aux, err := solana.NewKeypair()
			if err != nil {
				return fmt.Errorf("generating stake account keypair: %w", err)
			}
			auxiliary = aux
			signers = append(signers, cfg.Stake.StakeAuthority, cfg.Stake.WithdrawAuthority, auxiliary)
		}
		signers = solana.UniqueSigners(signers)

		instructions := buildInstructions(allocation, cfg, auxiliary)

		blockhash, _, err := s.client.ReferenceBlockhash(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBlockhashFetch, err)
		}

		tx, err := solana.NewTransaction(instructions, signers, cfg.FeePayer.Address(), blockhash)
		if err != nil {
			return fmt.Errorf("building transaction for %s: %w", allocation.Recipient, err)
		}

		record := TransactionRecord{
			Recipient: allocation.Recipient,
			Amount:    allocation.Amount,
			Blockhash: blockhash,
		}
		if auxiliary != nil {
			record.AuxiliaryAccount = auxiliary.Address()
		}

		// Persist intent before the network sees the transaction.
		if err := s.store.Set(tx.Signature(), record); err != nil {
			return fmt.Errorf("%w: %w", ErrLedgerAccess, err)
		}

		if _, err := s.client.SendTransaction(ctx, tx); err != nil {
			s.events <- SendFailed{Recipient: allocation.Recipient, Err: err}
			continue
		}

		s.events <- TransactionSubmitted{
			Recipient: allocation.Recipient,
			Amount:    allocation.Amount,
			Signature: tx.Signature(),
		}
	}
	return nil
}

// buildInstructions produces a plain transfer, or the stake-delegation
// bundle: split amount minus the fee reserve into the fresh stake account,
// hand both authorities to the recipient, and transfer the fee reserve
// directly so the recipient can pay future transaction fees.
func buildInstructions(allocation Allocation, cfg RunConfig, auxiliary *solana.Keypair) []solana.Instruction {
	if cfg.Stake == nil {
		return []solana.Instruction{
			solana.Transfer(cfg.Sender.Address(), allocation.Recipient, solana.ToLamports(allocation.Amount)),
		}
	}

	stake := cfg.Stake
	split := allocation.Amount.Sub(stake.FeeReserve)
	return []solana.Instruction{
		solana.StakeSplit(stake.SourceStakeAccount, stake.StakeAuthority.Address(), solana.ToLamports(split), auxiliary.Address()),
		solana.StakeAuthorizeInstruction(auxiliary.Address(), stake.StakeAuthority.Address(), allocation.Recipient, solana.AuthorizeStaker),
		solana.StakeAuthorizeInstruction(auxiliary.Address(), stake.WithdrawAuthority.Address(), allocation.Recipient, solana.AuthorizeWithdrawer),
		solana.Transfer(cfg.Sender.Address(), allocation.Recipient, solana.ToLamports(stake.FeeReserve)),
	}
}
