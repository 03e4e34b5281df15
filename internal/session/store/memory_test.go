package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"addresslookup/pkg/platform/sentinel"
	"addresslookup/pkg/requestcontext"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("absent key is not found", func(t *testing.T) {
		sess := NewInMemory(time.Minute).Open("s1")
		_, err := sess.Get(ctx, "address-one")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		sess := NewInMemory(time.Minute).Open("s1")
		require.NoError(t, sess.Set(ctx, "address-one", []byte(`{"source":"manual"}`)))
		v, err := sess.Get(ctx, "address-one")
		require.NoError(t, err)
		assert.JSONEq(t, `{"source":"manual"}`, string(v))
	})

	t.Run("stored values are copies", func(t *testing.T) {
		sess := NewInMemory(time.Minute).Open("s1")
		buf := []byte("abc")
		require.NoError(t, sess.Set(ctx, "k", buf))
		buf[0] = 'x'
		v, _ := sess.Get(ctx, "k")
		assert.Equal(t, "abc", string(v))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		store := NewInMemory(time.Minute)
		require.NoError(t, store.Open("a").Set(ctx, "k", []byte("1")))
		_, err := store.Open("b").Get(ctx, "k")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		sess := NewInMemory(time.Minute).Open("s1")
		require.NoError(t, sess.Set(ctx, "k", []byte("1")))
		require.NoError(t, sess.Delete(ctx, "k"))
		_, err := sess.Get(ctx, "k")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.NoError(t, sess.Delete(ctx, "never-set"))
	})
}

func TestInMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewInMemory(30*time.Minute, WithMemoryClock(func() time.Time { return now }))
	sess := store.Open("s1")
	require.NoError(t, sess.Set(ctx, "k", []byte("1")))

	now = now.Add(29 * time.Minute)
	_, err := sess.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = sess.Get(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, 0, store.Len())

	assert.Equal(t, 1, store.PruneExpired())
	assert.Equal(t, 0, store.PruneExpired())

	require.NoError(t, sess.Set(ctx, "other", []byte("2")))
	_, err = sess.Get(ctx, "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "expired values do not come back")
}

func TestInMemoryStoreUsesRequestTime(t *testing.T) {
	requestAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewInMemory(30 * time.Minute)
	sess := store.Open("s1")

	require.NoError(t, sess.Set(requestcontext.WithTime(context.Background(), requestAt), "k", []byte("1")))

	_, err := sess.Get(requestcontext.WithTime(context.Background(), requestAt.Add(29*time.Minute)), "k")
	require.NoError(t, err)

	_, err = sess.Get(requestcontext.WithTime(context.Background(), requestAt.Add(30*time.Minute)), "k")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Minute)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := store.Open(fmt.Sprintf("s%d", i))
			_ = sess.Set(ctx, "k", []byte{byte(i)})
			_, _ = sess.Get(ctx, "k")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, store.Len())
}
