package mock

import (
	"context"
	"sync"
	"time"

	"github.com/sspzz/burn-stats/internal/store"
)

// MockStore is an in-memory store.BlobStore with call counters and error injection.
type MockStore struct {
	mu    sync.Mutex
	Blobs map[store.Key][]byte
	// Written holds the time of the last Put per key.
	Written map[store.Key]time.Time

	GetErr error
	PutErr error

	Gets int
	Puts int
}

func NewMockStore() *MockStore {
	return &MockStore{Blobs: map[store.Key][]byte{}, Written: map[store.Key]time.Time{}}
}

func (m *MockStore) Get(ctx context.Context, key store.Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	b, ok := m.Blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MockStore) Put(ctx context.Context, key store.Key, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	b := make([]byte, len(data))
	copy(b, data)
	m.Blobs[key] = b
	m.Written[key] = time.Now().UTC()
	return nil
}

func (m *MockStore) WrittenAt(ctx context.Context, key store.Key) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.Written[key]
	if !ok {
		return time.Time{}, store.ErrNotFound
	}
	return at, nil
}

func (m *MockStore) Close() error { return nil }

// Set seeds key with raw bytes without counting a Put.
func (m *MockStore) Set(key store.Key, data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blobs[key] = []byte(data)
}

func (m *MockStore) Raw(key store.Key) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Blobs[key]
	return string(b), ok
}
