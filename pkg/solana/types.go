// Package solana provides the minimal transaction-layer primitives the
// distribution engine needs: addresses, keypairs, instructions, locally
// signed transactions and a JSON-RPC client.
package solana

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Address is a base58-encoded 32-byte public key.
type Address string

// Hash is a base58-encoded 32-byte blockhash.
type Hash string

// Signature is a base58-encoded 64-byte ed25519 signature. The first
// signature of a transaction is the transaction's unique identifier.
type Signature string

// ParseAddress validates that s is a base58-encoded 32-byte key.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("decoding address %q: %w", s, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("address %q: expected 32 bytes, got %d", s, len(raw))
	}
	return Address(s), nil
}

// ParseHash validates that s is a base58-encoded 32-byte hash.
func ParseHash(s string) (Hash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", fmt.Errorf("decoding hash %q: %w", s, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("hash %q: expected 32 bytes, got %d", s, len(raw))
	}
	return Hash(s), nil
}

// TransactionStatus is the network's view of a submitted transaction.
// Confirmations is nil once the transaction is rooted; Err is non-empty
// when on-chain execution failed.
type TransactionStatus struct {
	Slot          uint64
	Confirmations *uint64
	Err           string
}

// Failed reports whether on-chain execution failed.
func (s TransactionStatus) Failed() bool {
	return s.Err != ""
}

// FeeInfo accompanies a reference blockhash.
type FeeInfo struct {
	LamportsPerSignature uint64
}
