package storage

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("not found")

// Backend is a key/value blob store.
type Backend interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
	Close() error
}

// Memory keeps blobs in process. It is used for offline runs and tests.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docs[key]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Close() error { return nil }
