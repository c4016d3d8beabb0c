package calendar

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend keeps entries in process memory. FailSave and FailRemove
// let callers inject failures per request.
type MemoryBackend struct {
	mu      sync.Mutex
	nextID  int
	entries map[string]Block

	saveCalls   int
	removeCalls int

	FailSave   func(entryID string, block Block) error
	FailRemove func(entryID string) error
	Down       bool
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: map[string]Block{}}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Down
}

func (m *MemoryBackend) Save(_ context.Context, entryID string, block Block) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.FailSave != nil {
		if err := m.FailSave(entryID, block); err != nil {
			return "", err
		}
	}
	if entryID != "" {
		if _, ok := m.entries[entryID]; !ok {
			return "", ErrNotFound
		}
		m.entries[entryID] = block
		return entryID, nil
	}
	m.nextID++
	id := fmt.Sprintf("mem-%d", m.nextID)
	m.entries[id] = block
	return id, nil
}

func (m *MemoryBackend) Remove(_ context.Context, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls++
	if m.FailRemove != nil {
		if err := m.FailRemove(entryID); err != nil {
			return err
		}
	}
	if _, ok := m.entries[entryID]; !ok {
		return ErrNotFound
	}
	delete(m.entries, entryID)
	return nil
}

// Entry returns the stored block of id.
func (m *MemoryBackend) Entry(id string) (Block, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.entries[id]
	return b, ok
}

// Len returns the number of stored entries.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Calls returns the save and remove call counts.
func (m *MemoryBackend) Calls() (saves, removes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls, m.removeCalls
}
