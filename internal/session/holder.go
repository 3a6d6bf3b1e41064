package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/upb/dak-console/models"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSession is returned when SetSession receives an unusable session
	ErrInvalidSession = errors.New("session requires a token and a role or permissions")
	// ErrNoSession is returned when an update needs a session but none is held
	ErrNoSession = errors.New("no active session")
)

// Holder is the single source of truth for who is logged in on one client.
type Holder struct {
	// write serializes every change that touches storage, so a persist and
	// its in-memory swap are never split by another writer.
	write sync.Mutex

	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger
	current *models.Session
	loading bool
	// settled is set once storage was read successfully or a writer ran
	settled bool
}

// NewHolder creates a holder in the loading state. Call Initialize before
// trusting any capability decision.
func NewHolder(storage Storage, logger *zap.Logger) *Holder {
	return &Holder{
		storage: storage,
		logger:  logger,
		loading: true,
	}
}

// Initialize rehydrates the session from durable storage. Missing keys,
// storage errors and undecodable permissions all leave the session absent.
// Only a storage read failure is returned, so the caller may retry it. Once
// a read succeeded or a login or logout ran, Initialize does nothing.
func (h *Holder) Initialize(ctx context.Context) error {
	h.write.Lock()
	defer h.write.Unlock()
	if h.settled {
		return nil
	}

	s, err := h.rehydrate(ctx)

	h.mu.Lock()
	h.current = s
	h.loading = false
	h.mu.Unlock()
	h.settled = err == nil
	return err
}

func (h *Holder) rehydrate(ctx context.Context) (*models.Session, error) {
	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		v, ok, err := h.storage.Get(ctx, key)
		if err != nil {
			h.logger.Warn("session storage read failed", zap.String("key", key), zap.Error(err))
			return nil, fmt.Errorf("failed to read session key %q: %w", key, err)
		}
		if !ok {
			return nil, nil
		}
		values[key] = v
	}

	var perms models.PermissionSet
	if err := json.Unmarshal([]byte(values[KeyPermissions]), &perms); err != nil {
		h.logger.Debug("discarding session with malformed permissions", zap.Error(err))
		return nil, nil
	}

	s := &models.Session{
		Token:       values[KeyToken],
		Role:        values[KeyRole],
		Name:        values[KeyName],
		Email:       values[KeyEmail],
		Permissions: perms,
	}
	if !s.Authenticated() {
		return nil, nil
	}
	return s, nil
}

// SetSession replaces the session after a successful login and persists it.
// The in-memory session only changes once storage accepted the write.
func (h *Holder) SetSession(ctx context.Context, s *models.Session) error {
	if !s.Authenticated() {
		return ErrInvalidSession
	}
	s = s.Clone()
	if s.Permissions == nil {
		s.Permissions = models.NewPermissionSet()
	}

	h.write.Lock()
	defer h.write.Unlock()
	return h.store(ctx, s)
}

// UpdateProfile changes the display name and email of the held session.
// It returns ErrNoSession when no session is held, including when a logout
// finished first.
func (h *Holder) UpdateProfile(ctx context.Context, name, email string) error {
	h.write.Lock()
	defer h.write.Unlock()

	h.mu.RLock()
	cur := h.current.Clone()
	h.mu.RUnlock()
	if cur == nil {
		return ErrNoSession
	}
	cur.Name = name
	cur.Email = email
	return h.store(ctx, cur)
}

// store persists s and then makes it current. Callers hold h.write.
func (h *Holder) store(ctx context.Context, s *models.Session) error {
	if err := h.persist(ctx, s); err != nil {
		return err
	}

	h.mu.Lock()
	h.current = s
	h.loading = false
	h.mu.Unlock()
	h.settled = true
	return nil
}

func (h *Holder) persist(ctx context.Context, s *models.Session) error {
	perms, err := json.Marshal(s.Permissions)
	if err != nil {
		return fmt.Errorf("failed to encode permissions: %w", err)
	}
	err = h.storage.SetAll(ctx, map[string]string{
		KeyToken:       s.Token,
		KeyRole:        s.Role,
		KeyName:        s.Name,
		KeyEmail:       s.Email,
		KeyPermissions: string(perms),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout clears durable storage and drops the in-memory session. The
// session is dropped even when clearing storage fails.
func (h *Holder) Logout(ctx context.Context) error {
	h.write.Lock()
	defer h.write.Unlock()

	h.mu.Lock()
	h.current = nil
	h.loading = false
	h.mu.Unlock()
	h.settled = true

	if err := h.storage.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

// Current returns a copy of the session (nil when absent) and whether the
// holder is still loading.
func (h *Holder) Current() (*models.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Clone(), h.loading
}
