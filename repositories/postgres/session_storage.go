package postgres

import (
	"context"

	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/repositories"
)

// SessionStorageFactory opens Postgres-backed session storage per client
type SessionStorageFactory struct {
	repo repositories.ClientStorageRepository
}

// NewSessionStorageFactory adapts a client storage repository to session.StorageFactory
func NewSessionStorageFactory(repo repositories.ClientStorageRepository) *SessionStorageFactory {
	return &SessionStorageFactory{repo: repo}
}

// ForClient implements session.StorageFactory
func (f *SessionStorageFactory) ForClient(clientID string) session.Storage {
	return &clientStorage{repo: f.repo, clientID: clientID}
}

type clientStorage struct {
	repo     repositories.ClientStorageRepository
	clientID string
}

func (s *clientStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.clientID, key)
}

func (s *clientStorage) SetAll(ctx context.Context, values map[string]string) error {
	return s.repo.Upsert(ctx, s.clientID, values)
}

func (s *clientStorage) Clear(ctx context.Context) error {
	return s.repo.DeleteClient(ctx, s.clientID)
}
