package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/upb/dak-console/repositories"
	"go.uber.org/zap"
)

// ClientStorageRepository implements repositories.ClientStorageRepository
type ClientStorageRepository struct {
	db     *DB
	tx     repositories.TransactionManager
	logger *zap.Logger
}

// NewClientStorageRepository creates a new client storage repository
func NewClientStorageRepository(db *DB, tx repositories.TransactionManager, logger *zap.Logger) repositories.ClientStorageRepository {
	return &ClientStorageRepository{
		db:     db,
		tx:     tx,
		logger: logger,
	}
}

// Get returns one stored value
func (r *ClientStorageRepository) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM client_storage
		WHERE client_id = $1 AND key = $2
	`

	var value string
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, clientID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get client storage key: %w", err)
	}

	return value, true, nil
}

// Upsert writes all pairs in one transaction, in key order
func (r *ClientStorageRepository) Upsert(ctx context.Context, clientID string, values map[string]string) error {
	query := `
		INSERT INTO client_storage (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	now := time.Now().UTC()

	err := r.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		executor := GetExecutor(ctx, r.db)
		for _, k := range keys {
			if _, err := executor.ExecContext(ctx, query, clientID, k, values[k], now); err != nil {
				return fmt.Errorf("failed to upsert client storage key %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("client storage written", zap.String("client_id", clientID), zap.Int("keys", len(keys)))
	return nil
}

// DeleteClient removes every key of the client
func (r *ClientStorageRepository) DeleteClient(ctx context.Context, clientID string) error {
	query := `DELETE FROM client_storage WHERE client_id = $1`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, clientID); err != nil {
		return fmt.Errorf("failed to delete client storage: %w", err)
	}

	r.logger.Debug("client storage cleared", zap.String("client_id", clientID))
	return nil
}

// DeleteIdle removes clients with no write since cutoff
func (r *ClientStorageRepository) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM client_storage
		WHERE client_id IN (
			SELECT client_id FROM client_storage
			GROUP BY client_id
			HAVING MAX(updated_at) < $1
		)
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle client storage: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n, nil
}
