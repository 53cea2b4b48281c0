package store

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/auth"
)

func newTestStore(t *testing.T) (*RedisTokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisTokenStoreFromClient(rdb, nil), mr
}

// --- Get / Put / Delete ---

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	defer mr.Close()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, store.Put(ctx, "iam:abc", auth.Token{AccessToken: "t1", ExpiresAt: exp}))

	tok, found, err := store.Get(ctx, "iam:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "t1", tok.AccessToken)
	assert.True(t, exp.Equal(tok.ExpiresAt))

	assert.True(t, mr.Exists(defaultPrefix+"iam:abc"))
	ttl := mr.TTL(defaultPrefix + "iam:abc")
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
}

func TestGet_Miss(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()

	_, found, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_ExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, store.Put(ctx, "k", auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPut_ExpiredTokenDeletes(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, store.Put(ctx, "k", auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Put(ctx, "k", auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, mr.Exists(defaultPrefix+"k"))
}

func TestGet_CorruptValueIsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, mr.Set(defaultPrefix+"k", "not-json"))
	_, found, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	defer mr.Close()

	require.NoError(t, store.Put(ctx, "k", auth.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.False(t, mr.Exists(defaultPrefix+"k"))
}

// --- Shared between authenticators ---

func TestSharedAcrossAuthenticators(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()

	calls := 0
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"access_token":"shared","expires_in":3600}`)),
			Header:     http.Header{},
		}, nil
	})}

	newAuth := func() *auth.IAMAuthenticator {
		a, err := auth.NewIAMAuthenticator(auth.StaticAPIKey("k"),
			auth.WithIAMURL("https://iam.test"), auth.WithHTTPClient(client), auth.WithTokenStore(store))
		require.NoError(t, err)
		return a
	}

	tok, err := newAuth().Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)

	tok, err = newAuth().Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", tok)
	assert.Equal(t, 1, calls, "second replica reuses the token from redis")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// --- HealthCheck / Close ---

func TestHealthCheck_Success(t *testing.T) {
	store, mr := newTestStore(t)
	defer mr.Close()
	require.NoError(t, store.HealthCheck(context.Background()))
}

func TestHealthCheck_RedisNil(t *testing.T) {
	store := &RedisTokenStore{redis: nil}
	err := store.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
}

func TestHealthCheck_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store := NewRedisTokenStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	mr.Close()

	err = store.HealthCheck(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewRedisTokenStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewRedisTokenStore(mr.Addr(), 0, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	mr.Close()
	_, err = NewRedisTokenStore(mr.Addr(), 0, nil)
	assert.Error(t, err)
}

func TestClose_NilClient(t *testing.T) {
	store := &RedisTokenStore{}
	require.NoError(t, store.Close())
}
