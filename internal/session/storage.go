package session

import (
	"context"
	"sync"
)

// Durable storage keys. All five must be present for a session to rehydrate.
const (
	KeyToken       = "token"
	KeyRole        = "role"
	KeyName        = "name"
	KeyEmail       = "email"
	KeyPermissions = "permissions"
)

// Keys lists every key the holder persists.
var Keys = []string{KeyToken, KeyRole, KeyName, KeyEmail, KeyPermissions}

// Storage is one client's durable key/value store.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// SetAll writes every pair, replacing existing values.
	SetAll(ctx context.Context, values map[string]string) error
	// Clear removes every key for the client.
	Clear(ctx context.Context) error
}

// StorageFactory opens the storage scoped to a client ID.
type StorageFactory interface {
	ForClient(clientID string) Storage
}

// MemoryStore keeps every client's storage in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]map[string]string)}
}

// ForClient implements StorageFactory.
func (m *MemoryStore) ForClient(clientID string) Storage {
	return &memoryStorage{store: m, clientID: clientID}
}

type memoryStorage struct {
	store    *MemoryStore
	clientID string
}

func (s *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	v, ok := s.store.clients[s.clientID][key]
	return v, ok, nil
}

func (s *memoryStorage) SetAll(_ context.Context, values map[string]string) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	kv, ok := s.store.clients[s.clientID]
	if !ok {
		kv = make(map[string]string, len(values))
		s.store.clients[s.clientID] = kv
	}
	for k, v := range values {
		kv[k] = v
	}
	return nil
}

func (s *memoryStorage) Clear(_ context.Context) error {
	s.store.mu.Lock()
	delete(s.store.clients, s.clientID)
	s.store.mu.Unlock()
	return nil
}

// Forget drops a client's storage. It is used when an in-memory client is evicted.
func (m *MemoryStore) Forget(clientID string) {
	m.mu.Lock()
	delete(m.clients, clientID)
	m.mu.Unlock()
}

// Len returns the number of clients with stored values.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
