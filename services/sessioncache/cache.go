// Package sessioncache keeps one session holder and in-flight tracker per
// browser client, evicting clients that have gone idle.
package sessioncache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/internal/session"
)

// Entry is the live state for one browser client.
type Entry struct {
	ClientID string
	Holder   *session.Holder
	InFlight *capability.InFlight

	initMu   sync.Mutex
	ready    bool
	lastSeen time.Time
	element  *list.Element
}

// IdleSweeper purges durable client storage not written since cutoff.
type IdleSweeper interface {
	DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithEvictHook runs fn with the client ID after an entry is evicted or expires.
func WithEvictHook(fn func(clientID string)) Option {
	return func(c *Cache) { c.onEvict = fn }
}

// WithIdleSweeper purges durable storage untouched for longer than retention
// on every cleanup pass.
func WithIdleSweeper(s IdleSweeper, retention time.Duration) Option {
	return func(c *Cache) {
		c.sweeper = s
		c.retention = retention
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Cache is an LRU cache with idle TTL of per-client entries.
// Thread-safe.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	lruList *list.List
	maxSize int
	ttl     time.Duration
	hits    uint64
	misses  uint64

	storage   session.StorageFactory
	logger    *zap.Logger
	onEvict   func(clientID string)
	sweeper   IdleSweeper
	retention time.Duration
	now       func() time.Time
}

// New creates a cache holding at most maxSize clients, each expiring after ttl of inactivity.
func New(storage session.StorageFactory, maxSize int, ttl time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*Entry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for clientID, creating and rehydrating it on a miss.
// Concurrent first requests for the same client share one rehydration. A
// rehydration that failed on a storage error is retried by the next Get.
func (c *Cache) Get(ctx context.Context, clientID string) *Entry {
	entry := c.lookup(clientID)
	entry.initMu.Lock()
	defer entry.initMu.Unlock()
	if !entry.ready {
		// a cancelled first request must not leave the client logged out
		if err := entry.Holder.Initialize(context.WithoutCancel(ctx)); err == nil {
			entry.ready = true
		}
	}
	return entry
}

func (c *Cache) lookup(clientID string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if entry, ok := c.entries[clientID]; ok {
		if !c.expired(entry, now) {
			entry.lastSeen = now
			c.lruList.MoveToFront(entry.element)
			c.hits++
			return entry
		}
		c.removeEntry(clientID)
	}
	c.misses++

	if c.lruList.Len() >= c.maxSize {
		c.evictLRU()
	}

	entry := &Entry{
		ClientID: clientID,
		Holder:   session.NewHolder(c.storage.ForClient(clientID), c.logger.With(zap.String("client_id", clientID))),
		InFlight: capability.NewInFlight(),
		lastSeen: now,
	}
	entry.element = c.lruList.PushFront(clientID)
	c.entries[clientID] = entry
	return entry
}

// Peek returns the entry without creating one or refreshing its position.
func (c *Cache) Peek(clientID string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[clientID]
	if !ok || c.expired(entry, c.now()) {
		return nil, false
	}
	return entry, true
}

// Invalidate drops a client's entry from memory. Durable storage is untouched.
func (c *Cache) Invalidate(clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[clientID]; ok {
		c.lruList.Remove(entry.element)
		delete(c.entries, clientID)
	}
}

// Stats returns cache statistics
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    c.lruList.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}

// Stats represents cache statistics
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

func (c *Cache) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.lastSeen) > c.ttl
}

// removeEntry must be called with the lock held.
func (c *Cache) removeEntry(clientID string) {
	entry, ok := c.entries[clientID]
	if !ok {
		return
	}
	c.lruList.Remove(entry.element)
	delete(c.entries, clientID)
	if c.onEvict != nil {
		c.onEvict(clientID)
	}
}

// evictLRU must be called with the lock held.
func (c *Cache) evictLRU() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	clientID := back.Value.(string)
	c.removeEntry(clientID)
	c.logger.Debug("evicted least recently used client", zap.String("client_id", clientID))
}

// CleanupExpired removes all expired entries and returns how many were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var expired []string
	for id, entry := range c.entries {
		if c.expired(entry, now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		c.removeEntry(id)
	}
	return len(expired)
}

// sweepStorage purges durable rows past retention when a sweeper is configured.
func (c *Cache) sweepStorage(ctx context.Context) {
	if c.sweeper == nil {
		return
	}
	removed, err := c.sweeper.DeleteIdle(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.logger.Warn("failed to purge idle client storage", zap.Error(err))
		return
	}
	if removed > 0 {
		c.logger.Info("purged idle client storage", zap.Int64("rows", removed))
	}
}

// StartCleanupWorker periodically removes expired entries until ctx is done.
func (c *Cache) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.CleanupExpired(); n > 0 {
				c.logger.Debug("expired idle clients", zap.Int("count", n))
			}
			c.sweepStorage(ctx)
		case <-ctx.Done():
			return
		}
	}
}
