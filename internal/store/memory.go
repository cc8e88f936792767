package store

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Documents implementation for tests and the
// "memory" backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, path string) ([]byte, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.data[col][id]), nil
}

func (m *Memory) List(_ context.Context, collection string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data[collection]))
	for id, doc := range m.data[collection] {
		out[id] = clone(doc)
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, path string, doc []byte) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(col, id, doc)
	return nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	merged, err := mergeFields(m.data[col][id], fields)
	if err != nil {
		return err
	}
	m.put(col, id, merged)
	return nil
}

func (m *Memory) Push(_ context.Context, collection string, doc []byte) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, doc)
	return id, nil
}

func (m *Memory) CompareAndSwap(_ context.Context, path string, old, next []byte) (bool, error) {
	col, id, err := splitPath(path)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, exists := m.data[col][id]
	if old == nil {
		if exists {
			return false, nil
		}
	} else if !exists || !bytes.Equal(cur, old) {
		return false, nil
	}
	if next == nil {
		delete(m.data[col], id)
	} else {
		m.put(col, id, next)
	}
	return true, nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	col, id, err := splitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[col], id)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) put(col, id string, doc []byte) {
	if m.data[col] == nil {
		m.data[col] = make(map[string][]byte)
	}
	m.data[col][id] = clone(doc)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
