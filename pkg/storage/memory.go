package storage

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryStore keeps values in a sharded concurrent map for the life of the process.
type MemoryStore struct {
	items cmap.ConcurrentMap[string, string]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cmap.New[string]()}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	v, ok := m.items.Get(key)
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.items.Set(key, value)
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.items.Remove(key)
	return nil
}
