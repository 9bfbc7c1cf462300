package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	Command           string        `env:"PAYOUT_COMMAND" envDefault:"distribute"`
	InputCSV          string        `env:"PAYOUT_INPUT_CSV"`
	TransactionsDB    string        `env:"PAYOUT_TRANSACTIONS_DB" envDefault:"transactions.db"`
	OutputPath        string        `env:"PAYOUT_OUTPUT_PATH" envDefault:"transaction_log.csv"`
	RPCURL            string        `env:"PAYOUT_RPC_URL" envDefault:"http://127.0.0.1:8899"`
	HttpClientTimeout time.Duration `env:"PAYOUT_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`
	PollInterval      time.Duration `env:"PAYOUT_POLL_INTERVAL" envDefault:"500ms"`

	DryRun   bool `env:"PAYOUT_DRY_RUN" envDefault:"false"`
	NoWait   bool `env:"PAYOUT_NO_WAIT" envDefault:"false"`
	Force    bool `env:"PAYOUT_FORCE" envDefault:"false"`
	FromBids bool `env:"PAYOUT_FROM_BIDS" envDefault:"false"`

	// PriceRate converts accepted dollar bids to token amounts; required
	// with PAYOUT_FROM_BIDS.
	PriceRate string `env:"PAYOUT_PRICE_RATE"`

	SenderKeypair   string `env:"PAYOUT_SENDER_KEYPAIR"`
	FeePayerKeypair string `env:"PAYOUT_FEE_PAYER_KEYPAIR"`

	// Stake delegation sub-configuration; setting the stake account enables
	// stake mode.
	StakeAccountAddress      string `env:"PAYOUT_STAKE_ACCOUNT_ADDRESS"`
	StakeAuthorityKeypair    string `env:"PAYOUT_STAKE_AUTHORITY_KEYPAIR"`
	WithdrawAuthorityKeypair string `env:"PAYOUT_WITHDRAW_AUTHORITY_KEYPAIR"`
	FeeReserve               string `env:"PAYOUT_FEE_RESERVE" envDefault:"1.0"`

	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
}

// New loads all configuration from environment variables
func New() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}
	return cfg
}
