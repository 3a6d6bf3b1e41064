package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services"
)

// scriptedFetcher returns one scripted response per call, repeating the last.
type scriptedFetcher struct {
	mu    sync.Mutex
	calls int
	steps []func() ([]models.Notification, error)
}

func (f *scriptedFetcher) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	f.calls++
	return f.steps[i]()
}

func items(seen ...bool) func() ([]models.Notification, error) {
	return func() ([]models.Notification, error) {
		out := make([]models.Notification, len(seen))
		for i, s := range seen {
			out[i] = models.Notification{ID: string(rune('a' + i)), Seen: s}
		}
		return out, nil
	}
}

func staticToken() (string, bool) { return "tok", true }

func TestNewSnapshot(t *testing.T) {
	assert.False(t, NewSnapshot(nil).Unseen)
	assert.NotNil(t, NewSnapshot(nil).Items)
	assert.True(t, NewSnapshot([]models.Notification{{Seen: true}, {Seen: false}}).Unseen)
}

func TestPoller_EmitsOnlyChanges(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []func() ([]models.Notification, error){
		items(false),
		items(false),
		func() ([]models.Notification, error) { return nil, errors.New("timeout") },
		items(true),
	}}
	poller := NewPoller(fetcher, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Snapshot
	err := poller.Run(ctx, staticToken, func(s Snapshot) error {
		got = append(got, s)
		if len(got) == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Unseen)
	assert.False(t, got[1].Unseen)
}

func TestPoller_StopsWhenSessionGone(t *testing.T) {
	poller := NewPoller(&scriptedFetcher{steps: []func() ([]models.Notification, error){items()}}, time.Millisecond, zap.NewNop())

	err := poller.Run(context.Background(), func() (string, bool) { return "", false }, func(Snapshot) error { return nil })
	assert.True(t, services.IsUnauthorizedError(err))
}

func TestPoller_StopsOnBackendUnauthorized(t *testing.T) {
	fetcher := &scriptedFetcher{steps: []func() ([]models.Notification, error){
		func() ([]models.Notification, error) {
			return nil, services.NewDomainError(services.ErrorTypeUnauthorized, "jwt expired", nil)
		},
	}}
	poller := NewPoller(fetcher, time.Millisecond, zap.NewNop())

	err := poller.Run(context.Background(), staticToken, func(Snapshot) error { return nil })
	assert.True(t, services.IsUnauthorizedError(err))
}

func TestPoller_EmitErrorStops(t *testing.T) {
	poller := NewPoller(&scriptedFetcher{steps: []func() ([]models.Notification, error){items(false)}}, time.Millisecond, zap.NewNop())
	boom := errors.New("client gone")

	err := poller.Run(context.Background(), staticToken, func(Snapshot) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestPoller_ContextCancelReturnsNil(t *testing.T) {
	poller := NewPoller(&scriptedFetcher{steps: []func() ([]models.Notification, error){items(true)}}, time.Hour, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, poller.Run(ctx, staticToken, func(Snapshot) error { return nil }))
}

func TestPoller_ShutdownEndsRun(t *testing.T) {
	poller := NewPoller(&scriptedFetcher{steps: []func() ([]models.Notification, error){items(false)}}, time.Hour, zap.NewNop())

	emitted := make(chan struct{}, 1)
	result := make(chan error, 1)
	go func() {
		result <- poller.Run(context.Background(), staticToken, func(Snapshot) error {
			emitted <- struct{}{}
			return nil
		})
	}()

	<-emitted
	poller.Shutdown()
	poller.Shutdown()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}

	// later runs stop right after their first poll
	assert.NoError(t, poller.Run(context.Background(), staticToken, func(Snapshot) error { return nil }))
}
