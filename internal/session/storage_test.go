package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("clients are isolated", func(t *testing.T) {
		store := NewMemoryStore()
		a := store.ForClient("a")
		b := store.ForClient("b")

		require.NoError(t, a.SetAll(ctx, map[string]string{KeyToken: "tok-a"}))

		v, ok, err := a.Get(ctx, KeyToken)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok-a", v)

		_, ok, err = b.Get(ctx, KeyToken)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("set all merges into existing values", func(t *testing.T) {
		store := NewMemoryStore()
		s := store.ForClient("a")
		require.NoError(t, s.SetAll(ctx, map[string]string{KeyToken: "t1", KeyName: "Asha"}))
		require.NoError(t, s.SetAll(ctx, map[string]string{KeyToken: "t2"}))

		v, _, _ := s.Get(ctx, KeyToken)
		assert.Equal(t, "t2", v)
		v, _, _ = s.Get(ctx, KeyName)
		assert.Equal(t, "Asha", v)
	})

	t.Run("clear and forget drop the client", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.ForClient("a").SetAll(ctx, map[string]string{KeyRole: "head"}))
		require.NoError(t, store.ForClient("b").SetAll(ctx, map[string]string{KeyRole: "user"}))

		require.NoError(t, store.ForClient("a").Clear(ctx))
		assert.Equal(t, 1, store.Len())

		store.Forget("b")
		assert.Equal(t, 0, store.Len())

		_, ok, err := store.ForClient("b").Get(ctx, KeyRole)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
