// Package notifications polls the backend for the caller's notifications.
package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
)

// Fetcher loads the notifications visible to a token.
type Fetcher interface {
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
}

// TokenSource returns the current bearer token and whether a session is still held.
type TokenSource func() (string, bool)

// Snapshot is one poll result.
type Snapshot struct {
	Items  []models.Notification `json:"items"`
	Unseen bool                  `json:"unseen"`
}

// NewSnapshot builds a snapshot with its unseen flag.
func NewSnapshot(items []models.Notification) Snapshot {
	if items == nil {
		items = []models.Notification{}
	}
	return Snapshot{Items: items, Unseen: models.AnyUnseen(items)}
}

// signature identifies a snapshot's content so unchanged polls are skipped.
func (s Snapshot) signature() string {
	var b strings.Builder
	for _, n := range s.Items {
		b.WriteString(n.ID)
		if n.Seen {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Poller fetches notifications on a fixed interval.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logger   *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller
func NewPoller(fetcher Fetcher, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{fetcher: fetcher, interval: interval, logger: logger, done: make(chan struct{})}
}

// Shutdown ends every running and future Run call. Safe to call more than once.
func (p *Poller) Shutdown() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Interval returns the polling period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls immediately and then every interval, calling emit whenever the
// result changes. It returns nil when ctx is done, ErrUnauthorized once the
// session is gone or rejected, or the first error from emit. Other fetch
// failures are logged and retried on the next tick. Shutdown ends it like
// a cancelled ctx.
func (p *Poller) Run(ctx context.Context, token TokenSource, emit func(Snapshot) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := ""
	first := true
	for {
		tok, ok := token()
		if !ok {
			return services.ErrUnauthorized
		}

		items, err := p.fetcher.Notifications(ctx, tok)
		switch {
		case ctx.Err() != nil:
			return nil
		case services.IsUnauthorizedError(err):
			return err
		case err != nil:
			p.logger.Warn("notification poll failed", zap.Error(err))
		default:
			snap := NewSnapshot(items)
			if sig := snap.signature(); first || sig != last {
				if err := emit(snap); err != nil {
					return err
				}
				last, first = sig, false
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
