package trace

import (
	"bytes"
	"sync"

	"github.com/dgryski/go-farm"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[Hash][]byte),
	}
}

func (m *MemoryStore) getValue(h Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	if !ok {
		return false, nil, nil
	}
	return true, v, nil
}

func (m *MemoryStore) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Put(item Serde) (Hash, error) {
	var buf bytes.Buffer
	err := item.Serialize(&buf)
	if err != nil {
		return 0, err
	}
	data := buf.Bytes()
	h := Hash(farm.Hash64(data))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[h] = data
	return h, nil
}
