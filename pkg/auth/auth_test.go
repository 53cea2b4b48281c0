package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockTransport is an http.RoundTripper that delegates to a handler function.
type mockTransport struct {
	fn func(*http.Request) (*http.Response, error)
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.fn(req)
}

// iamResponse builds a fake *http.Response with the given status and JSON body.
func iamResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func tokenJSON(token string, expiresIn int64) string {
	b, _ := json.Marshal(iamTokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: expiresIn})
	return string(b)
}

func newIAMWithTransport(t *testing.T, keys APIKeySource, fn func(*http.Request) (*http.Response, error)) *IAMAuthenticator {
	t.Helper()
	a, err := NewIAMAuthenticator(keys,
		WithIAMURL("https://iam.test/"),
		WithHTTPClient(&http.Client{Transport: &mockTransport{fn: fn}}),
		WithAuthLogger(zap.NewNop()))
	require.NoError(t, err)
	return a
}

// ─── Static authenticators ───

func TestNoAuth(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://sm.test", nil)
	require.NoError(t, NoAuth{}.Authenticate(context.Background(), req))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestBearerToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://sm.test", nil)
	require.NoError(t, BearerToken("abc").Authenticate(context.Background(), req))
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	assert.ErrorIs(t, BearerToken(" ").Authenticate(context.Background(), req), ErrNoCredentials)
}

// ─── IAM: cache miss → fetches from the token service ───

func TestIAM_FetchesOnCacheMiss(t *testing.T) {
	var calls atomic.Int32
	a := newIAMWithTransport(t, StaticAPIKey("key-1"), func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "https://iam.test/identity/token", req.URL.String())
		assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
		b, _ := io.ReadAll(req.Body)
		form, _ := url.ParseQuery(string(b))
		assert.Equal(t, GrantTypeAPIKey, form.Get("grant_type"))
		assert.Equal(t, "key-1", form.Get("apikey"))
		return iamResponse(http.StatusOK, tokenJSON("access-1", 3600)), nil
	})

	req, _ := http.NewRequest(http.MethodGet, "https://sm.test", nil)
	require.NoError(t, a.Authenticate(context.Background(), req))
	assert.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	assert.EqualValues(t, 1, calls.Load(), "second call must hit the cache")
}

// ─── IAM: within 5-minute buffer → refreshes ───

func TestIAM_RefreshesWhenNearExpiry(t *testing.T) {
	var calls atomic.Int32
	a := newIAMWithTransport(t, StaticAPIKey("key-1"), func(*http.Request) (*http.Response, error) {
		n := calls.Add(1)
		if n == 1 {
			return iamResponse(http.StatusOK, tokenJSON("short-lived", 180)), nil
		}
		return iamResponse(http.StatusOK, tokenJSON("refreshed", 3600)), nil
	})

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short-lived", tok)

	tok, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refreshed", tok, "a token expiring within the buffer is replaced")
	assert.EqualValues(t, 2, calls.Load())
}

func TestIAM_UsesExpirationTimestamp(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Unix()
	a := newIAMWithTransport(t, StaticAPIKey("k"), func(*http.Request) (*http.Response, error) {
		b, _ := json.Marshal(iamTokenResponse{AccessToken: "t", ExpiresIn: 1, Expiration: exp})
		return iamResponse(http.StatusOK, string(b)), nil
	})

	require.NoError(t, a.Warm(context.Background()))
	tok, found, err := a.store.Get(context.Background(), storeKey(a.url, "k"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exp, tok.ExpiresAt.Unix())
}

// ─── IAM: per-key caching ───

func TestIAM_RotatedKeyGetsOwnToken(t *testing.T) {
	var current atomic.Value
	current.Store("key-a")
	keys := APIKeyFunc(func(context.Context) (string, error) { return current.Load().(string), nil })

	a := newIAMWithTransport(t, keys, func(req *http.Request) (*http.Response, error) {
		b, _ := io.ReadAll(req.Body)
		form, _ := url.ParseQuery(string(b))
		return iamResponse(http.StatusOK, tokenJSON("tok-"+form.Get("apikey"), 3600)), nil
	})

	tok, err := a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-key-a", tok)

	current.Store("key-b")
	tok, err = a.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-key-b", tok)
}

func TestIAM_Invalidate(t *testing.T) {
	var calls atomic.Int32
	a := newIAMWithTransport(t, StaticAPIKey("k"), func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return iamResponse(http.StatusOK, tokenJSON("t", 3600)), nil
	})

	require.NoError(t, a.Warm(context.Background()))
	require.NoError(t, a.Invalidate(context.Background()))
	require.NoError(t, a.Warm(context.Background()))
	assert.EqualValues(t, 2, calls.Load())
}

// ─── IAM: concurrent callers share one fetch ───

func TestIAM_ConcurrentCallersFetchOnce(t *testing.T) {
	var calls atomic.Int32
	a := newIAMWithTransport(t, StaticAPIKey("k"), func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return iamResponse(http.StatusOK, tokenJSON("shared", 3600)), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := a.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", tok)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, calls.Load())
}

// ─── IAM: failures ───

func TestIAM_Failures(t *testing.T) {
	cases := []struct {
		name string
		fn   func(*http.Request) (*http.Response, error)
		want string
	}{
		{"non-200", func(*http.Request) (*http.Response, error) {
			return iamResponse(http.StatusBadRequest, `{"errorMessage":"bad key"}`), nil
		}, "400"},
		{"empty token", func(*http.Request) (*http.Response, error) {
			return iamResponse(http.StatusOK, `{"expires_in":3600}`), nil
		}, "empty access_token"},
		{"bad json", func(*http.Request) (*http.Response, error) {
			return iamResponse(http.StatusOK, `{`), nil
		}, "decode token response"},
		{"network", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: refused")
		}, "refused"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newIAMWithTransport(t, StaticAPIKey("k"), tc.fn)
			_, err := a.Token(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestIAM_MissingKey(t *testing.T) {
	_, err := NewIAMAuthenticator(nil)
	assert.ErrorIs(t, err, ErrNoCredentials)

	a := newIAMWithTransport(t, StaticAPIKey(""), func(*http.Request) (*http.Response, error) {
		t.Fatal("token service must not be called without a key")
		return nil, nil
	})
	_, err = a.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

// ─── Memory store ───

func TestMemoryTokenStore(t *testing.T) {
	s := NewMemoryTokenStore()
	ctx := context.Background()

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, "k", Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}))
	tok, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "t", tok.AccessToken)

	require.NoError(t, s.Delete(ctx, "k"))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, "old", Token{AccessToken: "t", ExpiresAt: time.Now().Add(-time.Second)}))
	_, found, _ = s.Get(ctx, "old")
	assert.False(t, found, "already expired tokens are not stored")
}

func TestTokenValidAt(t *testing.T) {
	now := time.Unix(10_000, 0)
	tok := Token{AccessToken: "t", ExpiresAt: now.Add(10 * time.Minute)}
	assert.True(t, tok.ValidAt(now, 5*time.Minute))
	assert.False(t, tok.ValidAt(now.Add(6*time.Minute), 5*time.Minute))
	assert.False(t, Token{ExpiresAt: now.Add(time.Hour)}.ValidAt(now, 0))
}
