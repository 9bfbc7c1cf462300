package solana

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Transaction is a locally signed transaction. The fee payer signs first,
// so Signatures[0] identifies the transaction on the network.
type Transaction struct {
	Signatures   []Signature
	Instructions []Instruction
	FeePayer     Address
	Blockhash    Hash
}

// NewTransaction serializes the message for the given instructions and signs
// it with every signer. Signer order is preserved; the fee payer is expected
// to come first.
func NewTransaction(instructions []Instruction, signers []*Keypair, feePayer Address, blockhash Hash) (Transaction, error) {
	tx := Transaction{
		Instructions: instructions,
		FeePayer:     feePayer,
		Blockhash:    blockhash,
	}
	msg, err := tx.message()
	if err != nil {
		return Transaction{}, fmt.Errorf("serializing message: %w", err)
	}
	tx.Signatures = make([]Signature, 0, len(signers))
	for _, signer := range signers {
		tx.Signatures = append(tx.Signatures, signer.Sign(msg))
	}
	return tx, nil
}

// Signature returns the transaction's identifying signature.
func (t Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return ""
	}
	return t.Signatures[0]
}

// message produces the deterministic byte encoding that signers sign:
// blockhash, fee payer, then each instruction's program, account metas
// and data.
func (t Transaction) message() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeBase58(&buf, string(t.Blockhash)); err != nil {
		return nil, err
	}
	if err := writeBase58(&buf, string(t.FeePayer)); err != nil {
		return nil, err
	}
	writeLen(&buf, len(t.Instructions))
	for _, ix := range t.Instructions {
		if err := writeBase58(&buf, string(ix.Program)); err != nil {
			return nil, err
		}
		writeLen(&buf, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			if err := writeBase58(&buf, string(meta.Address)); err != nil {
				return nil, err
			}
			var flags byte
			if meta.Signer {
				flags |= 1
			}
			if meta.Writable {
				flags |= 2
			}
			buf.WriteByte(flags)
		}
		writeLen(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}
	return buf.Bytes(), nil
}

// Serialize encodes the full transaction (signatures then message) as
// base64 for the wire.
func (t Transaction) Serialize() (string, error) {
	var buf bytes.Buffer
	writeLen(&buf, len(t.Signatures))
	for _, sig := range t.Signatures {
		raw, err := base58.Decode(string(sig))
		if err != nil {
			return "", fmt.Errorf("decoding signature: %w", err)
		}
		buf.Write(raw)
	}
	msg, err := t.message()
	if err != nil {
		return "", err
	}
	buf.Write(msg)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeBase58(buf *bytes.Buffer, s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decoding %q: %w", s, err)
	}
	writeLen(buf, len(raw))
	buf.Write(raw)
	return nil
}

func writeLen(buf *bytes.Buffer, n int) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(n))
	buf.Write(scratch[:])
}
