package repositories

import (
	"context"
	"time"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// ClientStorageRepository persists per-client session keys
type ClientStorageRepository interface {
	// Get returns the value stored under key for the client
	Get(ctx context.Context, clientID, key string) (value string, found bool, err error)

	// Upsert writes every key/value pair for the client
	Upsert(ctx context.Context, clientID string, values map[string]string) error

	// DeleteClient removes every key for the client
	DeleteClient(ctx context.Context, clientID string) error

	// DeleteIdle removes clients whose keys were last written before cutoff
	DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	ClientStorage ClientStorageRepository
}
