package distributor

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garious/solana-batch/pkg/solana"
)

// TransactionRecord is written to the ledger before every network send.
// AuxiliaryAccount holds the freshly generated stake account address for
// delegation distributions and is empty otherwise. Finalized is monotonic:
// once set it is never cleared and the record is never removed.
type TransactionRecord struct {
	Recipient        solana.Address  `json:"recipient"`
	Amount           decimal.Decimal `json:"amount"`
	AuxiliaryAccount solana.Address  `json:"auxiliary_account,omitempty"`
	Finalized        bool            `json:"finalized"`
	Blockhash        solana.Hash     `json:"blockhash"`
}

// SignedRecord pairs a ledger record with the signature it is keyed by.
type SignedRecord struct {
	Signature solana.Signature
	Record    TransactionRecord
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(record TransactionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// DecodeRecord deserializes a stored record.
func DecodeRecord(data []byte) (TransactionRecord, error) {
	var record TransactionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return TransactionRecord{}, fmt.Errorf("decoding record: %w", err)
	}
	return record, nil
}
