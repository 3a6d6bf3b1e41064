package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/dak-console/internal/session"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (*ClientStorageRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := zap.NewNop()
	db := Wrap(sqlDB, logger)
	repo := NewClientStorageRepository(db, NewTransactionManager(db, logger), logger)
	return repo.(*ClientStorageRepository), mock
}

func TestClientStorageRepository_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT value FROM client_storage").
			WithArgs("c1", "token").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok"))

		v, ok, err := repo.Get(context.Background(), "c1", "token")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok", v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT value FROM client_storage").
			WithArgs("c1", "role").
			WillReturnError(sql.ErrNoRows)

		_, ok, err := repo.Get(context.Background(), "c1", "role")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT value FROM client_storage").
			WillReturnError(sql.ErrConnDone)

		_, _, err := repo.Get(context.Background(), "c1", "role")

		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestClientStorageRepository_Upsert(t *testing.T) {
	t.Run("writes keys in order within a transaction", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO client_storage").
			WithArgs("c1", "name", "Asha", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO client_storage").
			WithArgs("c1", "token", "tok", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Upsert(context.Background(), "c1", map[string]string{"token": "tok", "name": "Asha"})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO client_storage").
			WithArgs("c1", "name", "Asha", sqlmock.AnyArg()).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := repo.Upsert(context.Background(), "c1", map[string]string{"token": "tok", "name": "Asha"})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClientStorageRepository_DeleteClient(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM client_storage WHERE client_id").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteClient(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientStorageRepository_DeleteIdle(t *testing.T) {
	repo, mock := newMockRepo(t)
	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec("DELETE FROM client_storage").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 10))

	n, err := repo.DeleteIdle(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStorageFactory_RoundTrip(t *testing.T) {
	repo, mock := newMockRepo(t)
	var storage session.Storage = NewSessionStorageFactory(repo).ForClient("c9")

	mock.ExpectQuery("SELECT value FROM client_storage").
		WithArgs("c9", session.KeyToken).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok"))
	mock.ExpectExec("DELETE FROM client_storage WHERE client_id").
		WithArgs("c9").
		WillReturnResult(sqlmock.NewResult(0, 5))

	v, ok, err := storage.Get(context.Background(), session.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
	require.NoError(t, storage.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db := Wrap(sqlDB, zap.NewNop())

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
