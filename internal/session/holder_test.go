package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/dak-console/models"
	"go.uber.org/zap"
)

func seeded(t *testing.T, values map[string]string) (Storage, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	s := store.ForClient("client-1")
	if values != nil {
		require.NoError(t, s.SetAll(context.Background(), values))
	}
	return s, store
}

func validValues() map[string]string {
	return map[string]string{
		KeyToken:       "tok-123",
		KeyRole:        "head",
		KeyName:        "Asha",
		KeyEmail:       "asha@example.com",
		KeyPermissions: `["forward","REPORT"]`,
	}
}

func TestHolder_LoadingUntilInitialized(t *testing.T) {
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())

	s, loading := h.Current()
	assert.Nil(t, s)
	assert.True(t, loading)

	h.Initialize(context.Background())

	s, loading = h.Current()
	assert.False(t, loading)
	require.NotNil(t, s)
	assert.Equal(t, "tok-123", s.Token)
	assert.Equal(t, "head", s.Role)
	assert.Equal(t, "Asha", s.Name)
	assert.Equal(t, "asha@example.com", s.Email)
	assert.True(t, s.Permissions.Has("FORWARD"))
	assert.True(t, s.Permissions.Has("report"))
}

func TestHolder_InitializeIdempotent(t *testing.T) {
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())

	h.Initialize(context.Background())
	first, _ := h.Current()
	h.Initialize(context.Background())
	second, _ := h.Current()

	assert.Equal(t, first, second)
}

func TestHolder_InitializeFailsClosed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing token", func(v map[string]string) { delete(v, KeyToken) }},
		{"missing role", func(v map[string]string) { delete(v, KeyRole) }},
		{"missing name", func(v map[string]string) { delete(v, KeyName) }},
		{"missing email", func(v map[string]string) { delete(v, KeyEmail) }},
		{"missing permissions", func(v map[string]string) { delete(v, KeyPermissions) }},
		{"truncated permissions", func(v map[string]string) { v[KeyPermissions] = `["FORWARD"` }},
		{"permissions not an array", func(v map[string]string) { v[KeyPermissions] = `"FORWARD"` }},
		{"permissions garbage", func(v map[string]string) { v[KeyPermissions] = `not json` }},
		{"empty token", func(v map[string]string) { v[KeyToken] = "" }},
		{"token without role or permissions", func(v map[string]string) {
			v[KeyRole] = ""
			v[KeyPermissions] = `[]`
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			tt.mutate(values)
			storage, _ := seeded(t, values)
			h := NewHolder(storage, zap.NewNop())

			assert.NotPanics(t, func() { h.Initialize(context.Background()) })

			s, loading := h.Current()
			assert.Nil(t, s)
			assert.False(t, loading)
		})
	}
}

func TestHolder_InitializeEmptyStorage(t *testing.T) {
	storage, _ := seeded(t, nil)
	h := NewHolder(storage, zap.NewNop())

	h.Initialize(context.Background())

	s, loading := h.Current()
	assert.Nil(t, s)
	assert.False(t, loading)
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage down")
}
func (failingStorage) SetAll(context.Context, map[string]string) error {
	return errors.New("storage down")
}
func (failingStorage) Clear(context.Context) error { return errors.New("storage down") }

func TestHolder_StorageErrors(t *testing.T) {
	h := NewHolder(failingStorage{}, zap.NewNop())

	h.Initialize(context.Background())
	s, loading := h.Current()
	assert.Nil(t, s)
	assert.False(t, loading)

	err := h.SetSession(context.Background(), &models.Session{Token: "t", Role: "user"})
	assert.Error(t, err)
	s, _ = h.Current()
	assert.Nil(t, s, "failed persist leaves session unchanged")

	assert.Error(t, h.Logout(context.Background()))
}

func TestHolder_SetSessionPersistsAllKeys(t *testing.T) {
	storage, _ := seeded(t, nil)
	h := NewHolder(storage, zap.NewNop())
	h.Initialize(context.Background())

	err := h.SetSession(context.Background(), &models.Session{
		Token:       "tok-9",
		Role:        "user",
		Name:        "Ravi",
		Email:       "ravi@example.com",
		Permissions: models.NewPermissionSet("read", "Action"),
	})
	require.NoError(t, err)

	for _, key := range Keys {
		_, ok, err := storage.Get(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}
	raw, _, _ := storage.Get(context.Background(), KeyPermissions)
	assert.JSONEq(t, `["ACTION","READ"]`, raw)

	fresh := NewHolder(storage, zap.NewNop())
	fresh.Initialize(context.Background())
	s, _ := fresh.Current()
	require.NotNil(t, s)
	assert.Equal(t, "Ravi", s.Name)
	assert.True(t, s.Permissions.Has("READ"))
}

func TestHolder_SetSessionRejectsUnauthenticated(t *testing.T) {
	storage, _ := seeded(t, nil)
	h := NewHolder(storage, zap.NewNop())

	assert.ErrorIs(t, h.SetSession(context.Background(), nil), ErrInvalidSession)
	assert.ErrorIs(t, h.SetSession(context.Background(), &models.Session{Role: "user"}), ErrInvalidSession)
	assert.ErrorIs(t, h.SetSession(context.Background(), &models.Session{Token: "t"}), ErrInvalidSession)
}

func TestHolder_LogoutClearsStorage(t *testing.T) {
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())
	h.Initialize(context.Background())

	require.NoError(t, h.Logout(context.Background()))

	for _, key := range Keys {
		_, ok, _ := storage.Get(context.Background(), key)
		assert.False(t, ok, key)
	}
	s, loading := h.Current()
	assert.Nil(t, s)
	assert.False(t, loading)
}

func TestHolder_CurrentReturnsCopy(t *testing.T) {
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())
	h.Initialize(context.Background())

	s, _ := h.Current()
	s.Role = "admin"
	s.Permissions.Add("ALL")

	again, _ := h.Current()
	assert.Equal(t, "head", again.Role)
	assert.False(t, again.Permissions.Has("ALL"))
}

func TestHolder_UpdateProfile(t *testing.T) {
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())

	assert.ErrorIs(t, h.UpdateProfile(context.Background(), "x", "x@example.com"), ErrNoSession)

	h.Initialize(context.Background())
	require.NoError(t, h.UpdateProfile(context.Background(), "Asha K", "ak@example.com"))

	s, _ := h.Current()
	assert.Equal(t, "Asha K", s.Name)
	name, _, _ := storage.Get(context.Background(), KeyName)
	assert.Equal(t, "Asha K", name)
}

// gatedStorage blocks SetAll until release is closed.
type gatedStorage struct {
	Storage
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStorage) SetAll(ctx context.Context, values map[string]string) error {
	close(g.entered)
	<-g.release
	return g.Storage.SetAll(ctx, values)
}

func TestHolder_LogoutDuringProfileUpdate(t *testing.T) {
	ctx := context.Background()
	base, _ := seeded(t, validValues())
	gated := &gatedStorage{Storage: base, entered: make(chan struct{}), release: make(chan struct{})}
	h := NewHolder(gated, zap.NewNop())
	require.NoError(t, h.Initialize(ctx))

	updateDone := make(chan error, 1)
	go func() { updateDone <- h.UpdateProfile(ctx, "Asha K", "ak@example.com") }()
	<-gated.entered

	logoutDone := make(chan error, 1)
	go func() { logoutDone <- h.Logout(ctx) }()

	// give Logout the chance to run before the write lands
	time.Sleep(20 * time.Millisecond)
	close(gated.release)

	require.NoError(t, <-updateDone)
	require.NoError(t, <-logoutDone)

	s, _ := h.Current()
	assert.Nil(t, s, "logout must win over a profile update that started first")
	for _, key := range Keys {
		_, ok, err := base.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestHolder_UpdateProfileAfterLogout(t *testing.T) {
	ctx := context.Background()
	storage, _ := seeded(t, validValues())
	h := NewHolder(storage, zap.NewNop())
	require.NoError(t, h.Initialize(ctx))
	require.NoError(t, h.Logout(ctx))

	assert.ErrorIs(t, h.UpdateProfile(ctx, "Asha K", "ak@example.com"), ErrNoSession)
	_, ok, _ := storage.Get(ctx, KeyToken)
	assert.False(t, ok)
}

func TestHolder_InitializeReportsStorageErrors(t *testing.T) {
	assert.Error(t, NewHolder(failingStorage{}, zap.NewNop()).Initialize(context.Background()))

	empty, _ := seeded(t, nil)
	assert.NoError(t, NewHolder(empty, zap.NewNop()).Initialize(context.Background()), "missing keys are not an error")
}

// readFailingStorage fails every read but accepts writes.
type readFailingStorage struct{ Storage }

func (readFailingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("replica unavailable")
}

func TestHolder_RetryDoesNotDropNewerLogin(t *testing.T) {
	ctx := context.Background()
	base, _ := seeded(t, nil)
	h := NewHolder(readFailingStorage{Storage: base}, zap.NewNop())

	require.Error(t, h.Initialize(ctx))
	require.NoError(t, h.SetSession(ctx, &models.Session{Token: "t2", Role: "user"}))

	assert.NoError(t, h.Initialize(ctx))
	s, _ := h.Current()
	require.NotNil(t, s)
	assert.Equal(t, "t2", s.Token)
}

func TestMemoryStore_ClientsIsolated(t *testing.T) {
	store := NewMemoryStore()
	a := store.ForClient("a")
	b := store.ForClient("b")
	ctx := context.Background()

	require.NoError(t, a.SetAll(ctx, map[string]string{KeyToken: "ta"}))
	_, ok, _ := b.Get(ctx, KeyToken)
	assert.False(t, ok)

	require.NoError(t, b.Clear(ctx))
	v, ok, _ := a.Get(ctx, KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "ta", v)
}
