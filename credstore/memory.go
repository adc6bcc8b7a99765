package credstore

import "sync"

// memoryStore keeps the record in process memory. It is the ephemeral
// store: a restart loses the session, like browser session storage did.
type memoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (m *memoryStore) Put(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.rec = &cp
	return nil
}

func (m *memoryStore) Get() (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return nil, ErrNotFound
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
