package distributor_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garious/solana-batch/distributor"
	"github.com/garious/solana-batch/distributor/store/pebblestore"
	"github.com/garious/solana-batch/pkg/solana"
)

// Test setup helpers

func newKeypair(t *testing.T) *solana.Keypair {
	t.Helper()
	keypair, err := solana.NewKeypair()
	require.NoError(t, err)
	return keypair
}

func newAddress(t *testing.T) solana.Address {
	t.Helper()
	return newKeypair(t).Address()
}

// newHash produces a random valid 32-byte base58 hash.
func newHash(t *testing.T) solana.Hash {
	t.Helper()
	return solana.Hash(newKeypair(t).Address())
}

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allocations.csv")
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func allocationsCSV(t *testing.T, rows ...string) string {
	t.Helper()
	return writeCSV(t, append([]string{"recipient,amount"}, rows...)...)
}

// openMemStore opens a non-durable ledger backed only by memory.
func openMemStore(t *testing.T) *pebblestore.Store {
	t.Helper()
	store, err := pebblestore.Open(filepath.Join(t.TempDir(), "transactions.db"), false)
	require.NoError(t, err)
	return store
}

func openDurableStore(t *testing.T, path string) *pebblestore.Store {
	t.Helper()
	store, err := pebblestore.Open(path, true)
	require.NoError(t, err)
	return store
}

// fakeClock implements Clock for deterministic polling tests
type fakeClock struct {
	tick chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{tick: make(chan time.Time, 10)}
}

func (f *fakeClock) After(_ time.Duration) <-chan time.Time {
	return f.tick
}

func (f *fakeClock) Now() time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// fakeClient executes submitted transactions against in-memory balances,
// like a single-node bank. Sent transactions are rooted immediately unless
// confirmingPolls delays finalization.
type fakeClient struct {
	mu        sync.Mutex
	balances  map[solana.Address]uint64
	statuses  map[solana.Signature]*solana.TransactionStatus
	recent    []solana.Hash
	blockhash solana.Hash
	sends     int

	// confirmingPolls is the number of status calls that report one
	// confirmation before sent transactions read as rooted.
	confirmingPolls int
	statusCalls     int

	sendErr    error
	statusErr  error
	balanceErr error
}

func newFakeClient(blockhash solana.Hash) *fakeClient {
	return &fakeClient{
		balances:  make(map[solana.Address]uint64),
		statuses:  make(map[solana.Signature]*solana.TransactionStatus),
		recent:    []solana.Hash{blockhash},
		blockhash: blockhash,
	}
}

func (f *fakeClient) SendTransaction(_ context.Context, tx solana.Transaction) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sends++
	for _, ix := range tx.Instructions {
		f.execute(ix)
	}
	f.statuses[tx.Signature()] = &solana.TransactionStatus{}
	return tx.Signature(), nil
}

// execute applies balance effects of transfer and split instructions.
func (f *fakeClient) execute(ix solana.Instruction) {
	if len(ix.Data) < 12 {
		return
	}
	index := binary.LittleEndian.Uint32(ix.Data[0:4])
	lamports := binary.LittleEndian.Uint64(ix.Data[4:12])
	switch {
	case ix.Program == solana.SystemProgramID && index == 2: // transfer
		f.balances[ix.Accounts[0].Address] -= lamports
		f.balances[ix.Accounts[1].Address] += lamports
	case ix.Program == solana.StakeProgramID && index == 3: // split
		f.balances[ix.Accounts[0].Address] -= lamports
		f.balances[ix.Accounts[1].Address] += lamports
	}
}

func (f *fakeClient) SignatureStatuses(_ context.Context, signatures []solana.Signature) ([]*solana.TransactionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	f.statusCalls++
	statuses := make([]*solana.TransactionStatus, len(signatures))
	for i, signature := range signatures {
		status, ok := f.statuses[signature]
		if !ok {
			continue
		}
		if f.statusCalls <= f.confirmingPolls {
			one := uint64(1)
			statuses[i] = &solana.TransactionStatus{Confirmations: &one, Err: status.Err}
			continue
		}
		copied := *status
		statuses[i] = &copied
	}
	return statuses, nil
}

func (f *fakeClient) RecentBlockhashes(_ context.Context) ([]solana.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recent, nil
}

func (f *fakeClient) Balance(_ context.Context, address solana.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balances[address], nil
}

func (f *fakeClient) ReferenceBlockhash(_ context.Context) (solana.Hash, solana.FeeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blockhash, solana.FeeInfo{}, nil
}

func (f *fakeClient) balance(address solana.Address) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[address]
}

func (f *fakeClient) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

func (f *fakeClient) setStatus(signature solana.Signature, status *solana.TransactionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[signature] = status
}

func (f *fakeClient) setRecent(hashes ...solana.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recent = hashes
}

func (f *fakeClient) fund(address solana.Address, lamports uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[address] = lamports
}

// drainEvents consumes service events so Run never blocks; the returned
// closer waits for the channel to close.
func drainEvents(svc *distributor.Service) func() {
	return distributor.NewSubscriber(svc.Events())
}

// Domain-specific assertions

func requireSingleRecord(t *testing.T, store distributor.Store) distributor.SignedRecord {
	t.Helper()
	pairs, err := store.All()
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	return pairs[0]
}

func requireEmptyLedger(t *testing.T, store distributor.Store) {
	t.Helper()
	pairs, err := store.All()
	require.NoError(t, err)
	require.Empty(t, pairs)
}

func seedRecord(t *testing.T, store distributor.Store, signature solana.Signature, record distributor.TransactionRecord) {
	t.Helper()
	require.NoError(t, store.Set(signature, record))
}

func amountCSVRow(recipient solana.Address, amount string) string {
	return fmt.Sprintf("%s,%s", recipient, amount)
}
