package authsync

import (
	"context"
	"sync"
)

// Store is the durable key/value storage shared by every client process of a
// profile. Watch reports keys changed through any Store bound to the same
// backing storage; an empty key means the storage was cleared.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Watch(ctx context.Context, fn func(key string)) (func(), error)
}

// MemoryStore is an in-process Store. Watchers are notified asynchronously,
// like browser storage events, so a watcher may write back to the store.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]string
	nextID   int
	watchers map[int]func(string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:     make(map[string]string),
		watchers: make(map[int]func(string)),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	m.notify(key)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()
	if existed {
		m.notify(key)
	}
	return nil
}

// Clear removes every key and notifies watchers with an empty key.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.data = make(map[string]string)
	m.mu.Unlock()
	m.notify("")
}

func (m *MemoryStore) Watch(_ context.Context, fn func(key string)) (func(), error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.watchers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *MemoryStore) notify(key string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		go fn(key)
	}
}
