package session

import (
	"context"
	"sync"
	"time"

	"github.com/AvaProtocol/ercx-bot/model"
)

type memoryEntry struct {
	mu      sync.Mutex
	session model.Session
}

// MemoryStore keeps sessions for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]*memoryEntry),
	}
}

func (m *MemoryStore) entry(userID int64) *memoryEntry {
	m.mu.RLock()
	e, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok = m.sessions[userID]; !ok {
		e = &memoryEntry{session: model.NewSession(userID)}
		m.sessions[userID] = e
	}
	return e
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, userID int64) (model.Session, error) {
	e := m.entry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session, nil
}

func (m *MemoryStore) Update(ctx context.Context, userID int64, fn Mutator) (model.Session, error) {
	e := m.entry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.session
	if err := fn(&next); err != nil {
		return e.session, err
	}

	next.UpdatedAt = time.Now().Unix()
	e.session = next

	return next, nil
}

func (m *MemoryStore) Reset(ctx context.Context, userID int64) (model.Session, error) {
	return m.Update(ctx, userID, resetMutator)
}

func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.sessions)), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]model.Session, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sessions := make([]model.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		sessions = append(sessions, e.session)
		e.mu.Unlock()
	}
	return sessions, nil
}
