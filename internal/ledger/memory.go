package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	confirmedAt time.Time
	blockHeight uint64
}

// registryState is the shared contract state. Every client view over the
// same registry points at one of these.
type registryState struct {
	mu      sync.Mutex
	owner   string
	height  uint64
	entries map[string]memoryEntry
}

// MemoryLedger is an in-process registry with the same rules as the on-chain
// contract: one owner with the write capability, store-once digests, open
// reads. Backs the development mode and tests.
type MemoryLedger struct {
	state  *registryState
	caller string
}

// NewMemoryLedger creates a registry owned by issuer. The returned client
// signs its mutating calls as that same identity.
func NewMemoryLedger(issuer string) *MemoryLedger {
	return &MemoryLedger{
		state: &registryState{
			owner:   issuer,
			entries: make(map[string]memoryEntry),
		},
		caller: issuer,
	}
}

// As returns a client over the same registry state that signs calls as a
// different identity. Used to exercise capability rules.
func (m *MemoryLedger) As(caller string) *MemoryLedger {
	return &MemoryLedger{state: m.state, caller: caller}
}

// zeroDigest is the all-zero word the contract rejects alongside the
// empty value.
const zeroDigest = "0000000000000000000000000000000000000000000000000000000000000000"

func (m *MemoryLedger) StoreDigest(_ context.Context, digest string) (*Receipt, error) {
	if digest == "" || digest == zeroDigest {
		return nil, ErrInvalidDigest
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	if m.caller != m.state.owner {
		return nil, ErrUnauthorized
	}

	if _, exists := m.state.entries[digest]; exists {
		return nil, ErrDuplicateDigest
	}

	m.state.height++
	entry := memoryEntry{
		confirmedAt: time.Now().UTC(),
		blockHeight: m.state.height,
	}
	m.state.entries[digest] = entry

	return &Receipt{
		TransactionID: fmt.Sprintf("mem-%d", entry.blockHeight),
		BlockHeight:   entry.blockHeight,
		ConfirmedAt:   entry.confirmedAt,
	}, nil
}

func (m *MemoryLedger) DigestExists(_ context.Context, digest string) (bool, error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	_, exists := m.state.entries[digest]
	return exists, nil
}

func (m *MemoryLedger) DigestTimestamp(_ context.Context, digest string) (time.Time, bool, error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	entry, exists := m.state.entries[digest]
	if !exists {
		return time.Time{}, false, nil
	}
	return entry.confirmedAt, true, nil
}

func (m *MemoryLedger) TransferWriteCapability(_ context.Context, newIssuer string) error {
	if newIssuer == "" {
		return ErrInvalidAddress
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	if m.caller != m.state.owner {
		return ErrUnauthorized
	}

	m.state.owner = newIssuer
	return nil
}

func (m *MemoryLedger) ListDigests(_ context.Context) ([]string, error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	digests := make([]string, 0, len(m.state.entries))
	for digest := range m.state.entries {
		digests = append(digests, digest)
	}
	return digests, nil
}

// Drop removes a digest from the registry. Only for tests simulating ledger
// state drift, a real registry is append-only.
func (m *MemoryLedger) Drop(digest string) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	delete(m.state.entries, digest)
}
