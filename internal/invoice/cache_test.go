package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*PDFCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPDFCache(client, time.Minute), mr
}

func TestPDFCacheRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "user", "inv")
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "user", "inv", []byte("%PDF-1.3")))
	body, ok := cache.Get(ctx, "user", "inv")
	require.True(t, ok)
	require.Equal(t, []byte("%PDF-1.3"), body)

	_, ok = cache.Get(ctx, "someone-else", "inv")
	require.False(t, ok)

	mr.FastForward(2 * time.Minute)
	_, ok = cache.Get(ctx, "user", "inv")
	require.False(t, ok)
}

func TestPDFCacheDisabled(t *testing.T) {
	require.Nil(t, NewPDFCache(nil, time.Minute))
	var cache *PDFCache
	require.NoError(t, cache.Set(context.Background(), "user", "inv", []byte("x")))
	_, ok := cache.Get(context.Background(), "user", "inv")
	require.False(t, ok)
}

func TestServiceServesCachedDocument(t *testing.T) {
	svc, store, renderer := newTestService()
	cache, _ := newTestCache(t)
	svc.Cache = cache
	ctx := context.Background()

	inv, first, err := svc.Generate(ctx, testUserID, validRequest())
	require.NoError(t, err)
	require.Equal(t, 1, renderer.calls)

	store.failWith = errBoom
	doc, err := svc.Document(ctx, testUserID, inv.ID)
	require.NoError(t, err)
	require.Equal(t, first.Body, doc.Body)
	require.Equal(t, 1, renderer.calls)
}
