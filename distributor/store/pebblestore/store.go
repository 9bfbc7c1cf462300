// Package pebblestore persists the transaction ledger in an embedded
// pebble database keyed by transaction signature.
package pebblestore

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"

	"github.com/garious/solana-batch/distributor"
	"github.com/garious/solana-batch/pkg/solana"
)

// Store implements distributor.Store. In durable mode every write is
// synced to disk before returning. In non-durable (preview) mode any
// existing ledger is snapshotted into memory at open and nothing is ever
// written back, so no side effects survive the process.
type Store struct {
	db  *pebble.DB
	mem map[solana.Signature]distributor.TransactionRecord
	// order preserves insertion order for in-memory iteration.
	order []solana.Signature
}

// Open creates the ledger at path if absent, or loads it if present.
func Open(path string, durable bool) (*Store, error) {
	if durable {
		db, err := pebble.Open(path, &pebble.Options{})
		if err != nil {
			return nil, fmt.Errorf("opening ledger %s: %w", path, err)
		}
		return &Store{db: db}, nil
	}

	store := &Store{mem: make(map[solana.Signature]distributor.TransactionRecord)}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return store, nil
	}

	db, err := pebble.Open(path, &pebble.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer db.Close()

	iter, err := db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("scanning ledger %s: %w", path, err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		record, err := distributor.DecodeRecord(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("ledger %s: %w", path, err)
		}
		signature := solana.Signature(iter.Key())
		store.mem[signature] = record
		store.order = append(store.order, signature)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scanning ledger %s: %w", path, err)
	}
	return store, nil
}

// Close releases the underlying database. Safe on preview stores.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Set writes a record keyed by signature.
func (s *Store) Set(signature solana.Signature, record distributor.TransactionRecord) error {
	if s.db == nil {
		if _, ok := s.mem[signature]; !ok {
			s.order = append(s.order, signature)
		}
		s.mem[signature] = record
		return nil
	}
	value, err := distributor.EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.db.Set([]byte(signature), value, pebble.Sync); err != nil {
		return fmt.Errorf("writing record %s: %w", signature, err)
	}
	return nil
}

// Get returns the record for signature, reporting whether it exists.
func (s *Store) Get(signature solana.Signature) (distributor.TransactionRecord, bool, error) {
	if s.db == nil {
		record, ok := s.mem[signature]
		return record, ok, nil
	}
	value, closer, err := s.db.Get([]byte(signature))
	if errors.Is(err, pebble.ErrNotFound) {
		return distributor.TransactionRecord{}, false, nil
	}
	if err != nil {
		return distributor.TransactionRecord{}, false, fmt.Errorf("reading record %s: %w", signature, err)
	}
	defer closer.Close()

	record, err := distributor.DecodeRecord(value)
	if err != nil {
		return distributor.TransactionRecord{}, false, err
	}
	return record, true, nil
}

// Remove deletes the record for signature.
func (s *Store) Remove(signature solana.Signature) error {
	if s.db == nil {
		if _, ok := s.mem[signature]; ok {
			delete(s.mem, signature)
			for i, sig := range s.order {
				if sig == signature {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
		return nil
	}
	if err := s.db.Delete([]byte(signature), pebble.Sync); err != nil {
		return fmt.Errorf("removing record %s: %w", signature, err)
	}
	return nil
}

// All returns every signature/record pair in the ledger.
func (s *Store) All() ([]distributor.SignedRecord, error) {
	if s.db == nil {
		pairs := make([]distributor.SignedRecord, 0, len(s.order))
		for _, signature := range s.order {
			pairs = append(pairs, distributor.SignedRecord{Signature: signature, Record: s.mem[signature]})
		}
		return pairs, nil
	}

	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("scanning ledger: %w", err)
	}
	defer iter.Close()

	var pairs []distributor.SignedRecord
	for iter.First(); iter.Valid(); iter.Next() {
		record, err := distributor.DecodeRecord(iter.Value())
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, distributor.SignedRecord{
			Signature: solana.Signature(iter.Key()),
			Record:    record,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scanning ledger: %w", err)
	}
	return pairs, nil
}
