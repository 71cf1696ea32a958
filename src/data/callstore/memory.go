package callstore

import (
	"context"
	"sync"

	"github.com/stake-plus/multisig-comms/src/multisig"
)

// Memory keeps encoded states in a map. It is not durable and exists for
// tests and dry runs; values still go through the codec.
type Memory struct {
	mu        sync.RWMutex
	calls     map[multisig.CallHash][]byte
	cursor    multisig.Position
	hasCursor bool
}

var (
	_ multisig.Store       = (*Memory)(nil)
	_ multisig.CursorStore = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{calls: make(map[multisig.CallHash][]byte)}
}

func (m *Memory) Get(ctx context.Context, hash multisig.CallHash) (multisig.CallState, error) {
	m.mu.RLock()
	raw, ok := m.calls[hash]
	m.mu.RUnlock()
	if !ok {
		return multisig.CallState{}, multisig.ErrNotFound
	}
	return decodeRecord(hash, raw)
}

func (m *Memory) Put(ctx context.Context, state multisig.CallState) error {
	raw, err := multisig.EncodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.calls[state.CallHash] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, hash multisig.CallHash) error {
	m.mu.Lock()
	delete(m.calls, hash)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context) ([]multisig.CallState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]multisig.CallState, 0, len(m.calls))
	for _, raw := range m.calls {
		s, err := multisig.DecodeState(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sortStates(out)
	return out, nil
}

// putRaw stores an encoded record under hash as is.
func (m *Memory) putRaw(hash multisig.CallHash, raw []byte) {
	m.mu.Lock()
	m.calls[hash] = raw
	m.mu.Unlock()
}

func (m *Memory) Cursor(ctx context.Context) (multisig.Position, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursor, m.hasCursor, nil
}

func (m *Memory) SetCursor(ctx context.Context, pos multisig.Position) error {
	m.mu.Lock()
	m.cursor, m.hasCursor = pos, true
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
