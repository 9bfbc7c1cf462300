package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

// Keypair is an ed25519 signing key and its derived address.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// LoadKeypair reads a keypair from the CLI key file format: a JSON array
// of 64 bytes holding the private key followed by the public key.
func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("parsing key file %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key file %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(ints))
	}
	raw := make([]byte, len(ints))
	for i, b := range ints {
		if b < 0 || b > 255 {
			return nil, fmt.Errorf("key file %s: byte %d out of range", path, i)
		}
		raw[i] = byte(b)
	}
	priv := ed25519.PrivateKey(raw)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Address returns the base58-encoded public key.
func (k *Keypair) Address() Address {
	return Address(base58.Encode(k.pub))
}

// Sign signs msg and returns the base58-encoded signature.
func (k *Keypair) Sign(msg []byte) Signature {
	return Signature(base58.Encode(ed25519.Sign(k.priv, msg)))
}

// UniqueSigners deduplicates signers by address, preserving first-seen order.
func UniqueSigners(signers []*Keypair) []*Keypair {
	seen := make(map[Address]struct{}, len(signers))
	unique := make([]*Keypair, 0, len(signers))
	for _, signer := range signers {
		if _, ok := seen[signer.Address()]; ok {
			continue
		}
		seen[signer.Address()] = struct{}{}
		unique = append(unique, signer)
	}
	return unique
}
