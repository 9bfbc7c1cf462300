package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/cmd/payout/config"
	"github.com/garious/solana-batch/distributor"
	"github.com/garious/solana-batch/distributor/store/pebblestore"
	"github.com/garious/solana-batch/pkg/logger"
	"github.com/garious/solana-batch/pkg/solana"
)

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HttpClientTimeout}
	client := solana.NewClient(httpClient, cfg.RPCURL)

	var err error
	switch cfg.Command {
	case "distribute":
		err = distribute(ctx, cfg, client, log)
	case "balances":
		err = balances(ctx, cfg, client, log)
	case "transaction-log":
		err = transactionLog(cfg, log)
	default:
		err = fmt.Errorf("unknown command %q", cfg.Command)
	}
	if err != nil {
		log.ErrorContext(ctx, "Run failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func distribute(ctx context.Context, cfg config.Config, client *solana.Client, log *slog.Logger) error {
	runCfg, err := buildRunConfig(cfg)
	if err != nil {
		return err
	}

	// The preview ledger never writes back to disk.
	store, err := pebblestore.Open(cfg.TransactionsDB, !cfg.DryRun)
	if err != nil {
		return err
	}
	defer store.Close()

	service := distributor.NewService(client, store,
		distributor.WithPollInterval(cfg.PollInterval),
	)

	// Subscribe to events for logging
	subCloser := setupEventLogging(ctx, service.Events(), log)
	defer subCloser()

	confirmations, err := service.Run(ctx, runCfg)
	if err != nil {
		return err
	}
	if confirmations != nil {
		log.WarnContext(ctx, "Returned with unfinalized transactions",
			slog.Uint64("confirmations", *confirmations),
		)
	}
	return nil
}

func balances(ctx context.Context, cfg config.Config, client *solana.Client, log *slog.Logger) error {
	priceRate, err := parsePriceRate(cfg)
	if err != nil {
		return err
	}
	allocations, err := distributor.ReadAllocations(cfg.InputCSV, cfg.FromBids, priceRate)
	if err != nil {
		return err
	}
	rows, err := distributor.Balances(ctx, client, allocations)
	if err != nil {
		return err
	}
	for _, row := range rows {
		log.InfoContext(ctx, "Balance",
			slog.String("recipient", string(row.Recipient)),
			slog.String("expected", row.Expected.StringFixed(9)),
			slog.String("actual", row.Actual.StringFixed(9)),
			slog.String("difference", row.Difference.StringFixed(9)),
		)
	}
	return nil
}

func transactionLog(cfg config.Config, log *slog.Logger) error {
	// Open read-only so the audit pass leaves the ledger untouched.
	store, err := pebblestore.Open(cfg.TransactionsDB, false)
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", cfg.OutputPath, err)
	}
	defer out.Close()

	if err := distributor.WriteTransactionLog(store, out); err != nil {
		return err
	}
	log.Info("Transaction log written", slog.String("path", cfg.OutputPath))
	return nil
}

func buildRunConfig(cfg config.Config) (distributor.RunConfig, error) {
	priceRate, err := parsePriceRate(cfg)
	if err != nil {
		return distributor.RunConfig{}, err
	}

	runCfg := distributor.RunConfig{
		InputPath: cfg.InputCSV,
		FromBids:  cfg.FromBids,
		PriceRate: priceRate,
		DryRun:    cfg.DryRun,
		NoWait:    cfg.NoWait,
		Force:     cfg.Force,
	}

	if cfg.DryRun {
		return runCfg, nil
	}

	runCfg.Sender, err = solana.LoadKeypair(cfg.SenderKeypair)
	if err != nil {
		return distributor.RunConfig{}, fmt.Errorf("loading sender keypair: %w", err)
	}
	runCfg.FeePayer, err = solana.LoadKeypair(cfg.FeePayerKeypair)
	if err != nil {
		return distributor.RunConfig{}, fmt.Errorf("loading fee payer keypair: %w", err)
	}

	if cfg.StakeAccountAddress == "" {
		return runCfg, nil
	}

	stakeAccount, err := solana.ParseAddress(cfg.StakeAccountAddress)
	if err != nil {
		return distributor.RunConfig{}, err
	}
	stakeAuthority, err := solana.LoadKeypair(cfg.StakeAuthorityKeypair)
	if err != nil {
		return distributor.RunConfig{}, fmt.Errorf("loading stake authority keypair: %w", err)
	}
	withdrawAuthority, err := solana.LoadKeypair(cfg.WithdrawAuthorityKeypair)
	if err != nil {
		return distributor.RunConfig{}, fmt.Errorf("loading withdraw authority keypair: %w", err)
	}
	feeReserve, err := decimal.NewFromString(cfg.FeeReserve)
	if err != nil {
		return distributor.RunConfig{}, fmt.Errorf("parsing fee reserve %q: %w", cfg.FeeReserve, err)
	}
	runCfg.Stake = &distributor.StakeConfig{
		SourceStakeAccount: stakeAccount,
		StakeAuthority:     stakeAuthority,
		WithdrawAuthority:  withdrawAuthority,
		FeeReserve:         feeReserve,
	}
	return runCfg, nil
}

func parsePriceRate(cfg config.Config) (decimal.Decimal, error) {
	if cfg.PriceRate == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(cfg.PriceRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing price rate %q: %w", cfg.PriceRate, err)
	}
	return rate, nil
}

// setupEventLogging configures event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan distributor.Event, log *slog.Logger) func() {
	return distributor.NewSubscriber(events,
		distributor.OnRunStarted(func(event distributor.RunStarted) {
			attrs := []any{
				slog.Int("allocations", event.Allocations),
				slog.String("totalTokens", event.TotalTokens.String()),
			}
			if !event.TotalDollars.IsZero() {
				attrs = append(attrs, slog.String("totalDollars", event.TotalDollars.String()))
			}
			log.InfoContext(ctx, "Distribution started", attrs...)
		}),
		distributor.OnUnfinalizedCarryover(func(event distributor.UnfinalizedCarryover) {
			log.WarnContext(ctx, "Unfinalized transactions from a previous run",
				slog.Uint64("confirmations", event.Confirmations),
			)
		}),
		distributor.OnReconcileCompleted(func(event distributor.ReconcileCompleted) {
			log.InfoContext(ctx, "Reconciled against ledger",
				slog.String("distributed", event.Distributed.String()),
				slog.String("undistributed", event.Undistributed.String()),
				slog.Int("remaining", event.Remaining),
			)
		}),
		distributor.OnNoWorkToDo(func(distributor.NoWorkToDo) {
			log.InfoContext(ctx, "No work to do")
		}),
		distributor.OnTransactionPlanned(func(event distributor.TransactionPlanned) {
			log.InfoContext(ctx, "Would send",
				slog.String("recipient", string(event.Recipient)),
				slog.String("amount", event.Amount.StringFixed(9)),
			)
		}),
		distributor.OnTransactionSubmitted(func(event distributor.TransactionSubmitted) {
			log.InfoContext(ctx, "Submitted",
				slog.String("recipient", string(event.Recipient)),
				slog.String("amount", event.Amount.StringFixed(9)),
				slog.String("signature", string(event.Signature)),
			)
		}),
		distributor.OnSendFailed(func(event distributor.SendFailed) {
			log.ErrorContext(ctx, "Send failed",
				slog.String("recipient", string(event.Recipient)),
				slog.Any("error", event.Err),
			)
		}),
		distributor.OnRecordDiscarded(func(event distributor.RecordDiscarded) {
			log.WarnContext(ctx, "Discarding transaction record",
				slog.String("signature", string(event.Signature)),
				slog.String("reason", event.Reason),
			)
		}),
		distributor.OnTransactionFinalized(func(event distributor.TransactionFinalized) {
			log.InfoContext(ctx, "Finalized",
				slog.String("signature", string(event.Signature)),
				slog.String("recipient", string(event.Recipient)),
			)
		}),
		distributor.OnPollCycleCompleted(func(event distributor.PollCycleCompleted) {
			if event.Pending == 0 {
				return
			}
			log.InfoContext(ctx, "Finalizing transactions",
				slog.Uint64("confirmations", *event.Confirmations),
				slog.Int("pending", event.Pending),
			)
		}),
		distributor.OnRunCompleted(func(event distributor.RunCompleted) {
			log.InfoContext(ctx, "Distribution complete")
		}),
	)
}
