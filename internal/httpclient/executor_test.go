package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/rate"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

func newExec(retryMax int, client *http.Client) *Executor {
	e := New(zap.NewNop(), nil, client, retryMax)
	e.backoff = func(int) time.Duration { return time.Millisecond }
	return e
}

// countingHandler returns failStatus for the first failCount calls and 200
// with successBody afterwards.
func countingHandler(failCount int, failStatus int, successBody []byte) (http.Handler, *atomic.Int32) {
	var n atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(n.Add(1)) <= failCount {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(successBody)
	}), &n
}

func getDescriptor() operation.RequestDescriptor {
	return operation.RequestDescriptor{
		OperationID: "GetSecret",
		Method:      http.MethodGet,
		URL:         "/api/v1/secrets/arbitrary/abc",
		Headers:     map[string]string{"Accept": "application/json"},
	}
}

type headerAuth struct {
	calls atomic.Int32
	err   error
}

func (a *headerAuth) Authenticate(_ context.Context, req *http.Request) error {
	a.calls.Add(1)
	if a.err != nil {
		return a.err
	}
	req.Header.Set("Authorization", "Bearer t0k3n")
	return nil
}

// ─── Basic success ────────────────────────────────────────────────────────────

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	gotCh := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCh <- r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"metadata":{"collection_total":1}}`))
	}))
	defer srv.Close()

	auth := &headerAuth{}
	exec := newExec(2, srv.Client())
	base := operation.BaseOptions{
		ServiceURL:    srv.URL + "/",
		Headers:       map[string]string{"X-Tenant": "acme", "Accept": "text/plain"},
		Authenticator: auth,
	}

	var out map[string]any
	meta, err := exec.Execute(context.Background(), getDescriptor(), base, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meta.StatusCode)
	assert.Equal(t, "OK", meta.StatusText)
	assert.Equal(t, "application/json", meta.Headers.Get("Content-Type"))
	assert.Contains(t, out, "metadata")

	got := <-gotCh
	assert.Equal(t, "/api/v1/secrets/arbitrary/abc", got.URL.Path)
	assert.Equal(t, "acme", got.Header.Get("X-Tenant"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"), "descriptor headers win over base headers")
	assert.Equal(t, "Bearer t0k3n", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(CorrelationHeader))
	assert.EqualValues(t, 1, auth.calls.Load())
}

func TestExecute_QueryAndEscapedPath(t *testing.T) {
	uriCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uriCh <- r.URL.RequestURI()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req := operation.RequestDescriptor{
		OperationID: "ListSecrets",
		Method:      http.MethodGet,
		URL:         "/api/v1/secrets/a%2Fb",
		Query:       map[string]string{"offset": "25", "limit": "5"},
	}
	_, err := newExec(0, srv.Client()).Execute(context.Background(), req, operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/secrets/a%2Fb?limit=5&offset=25", <-uriCh)
}

func TestExecute_KeepsCallerCorrelationID(t *testing.T) {
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(CorrelationHeader)
	}))
	defer srv.Close()

	req := getDescriptor()
	req.Headers = map[string]string{CorrelationHeader: "corr-1"}
	_, err := newExec(0, srv.Client()).Execute(context.Background(), req, operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", <-seen)
}

func TestExecute_ReportsGeneratedCorrelationID(t *testing.T) {
	seen := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get(CorrelationHeader)
	}))
	defer srv.Close()

	meta, err := newExec(0, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.NoError(t, err)
	sent := <-seen
	require.NotEmpty(t, sent)
	assert.Equal(t, sent, meta.CorrelationID)
	assert.Equal(t, sent, CorrelationID(getDescriptor(), meta, nil))
}

func TestExecute_LowercaseCallerCorrelationIDIsKept(t *testing.T) {
	seen := make(chan []string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Values(CorrelationHeader)
	}))
	defer srv.Close()

	req := getDescriptor()
	req.Headers = map[string]string{"x-correlation-id": "corr-lower"}
	meta, err := newExec(0, srv.Client()).Execute(context.Background(), req, operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"corr-lower"}, <-seen)
	assert.Equal(t, "corr-lower", meta.CorrelationID)
}

// ─── Header precedence ────────────────────────────────────────────────────────

func TestExecute_LowercaseCallerHeaderAlwaysWins(t *testing.T) {
	var lost atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Values("Accept"); len(got) != 1 || got[0] != "text/plain" {
			lost.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	spec := operation.Spec{ID: "GetSecret", Method: http.MethodGet, Path: "/api/v1/secrets/arbitrary/abc", Accept: operation.MediaJSON}
	base := operation.BaseOptions{ServiceURL: srv.URL, Headers: map[string]string{"ACCEPT": "application/xml"}}
	inv := operation.NewInvoker(base, newExec(0, srv.Client()))

	for i := 0; i < 100; i++ {
		bag := operation.Bag{}.WithHeaders(map[string]string{"accept": "text/plain"})
		_, err := operation.Invoke[json.RawMessage](context.Background(), inv, spec, bag)
		require.NoError(t, err)
	}
	assert.Zero(t, lost.Load(), "caller Accept override lost")
}

// ─── 5xx retry then success ───────────────────────────────────────────────────

func TestExecute_Retries5xxThenSucceeds(t *testing.T) {
	h, count := countingHandler(1, http.StatusServiceUnavailable, []byte(`{"result":"ok"}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	var out map[string]string
	_, err := newExec(2, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count.Load(), "expected exactly 2 attempts")
	assert.Equal(t, "ok", out["result"])
}

func TestExecute_Retries429(t *testing.T) {
	h, count := countingHandler(2, http.StatusTooManyRequests, []byte(`{}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, err := newExec(2, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count.Load())
}

// ─── POST body is re-sent on retry ───────────────────────────────────────────

func TestExecute_PostBodyResentOnRetry(t *testing.T) {
	var mu sync.Mutex
	var received []string
	var contentTypes []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, string(b))
		contentTypes = append(contentTypes, r.Header.Get("Content-Type"))
		n := len(received)
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	auth := &headerAuth{}
	req := operation.RequestDescriptor{
		OperationID: "CreateSecret",
		Method:      http.MethodPost,
		URL:         "/api/v1/secrets/arbitrary",
		Body:        map[string]any{"metadata": map[string]any{"collection_total": 1}},
	}
	_, err := newExec(1, srv.Client()).Execute(context.Background(), req, operation.BaseOptions{ServiceURL: srv.URL, Authenticator: auth}, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2, "expected two attempts")
	assert.JSONEq(t, `{"metadata":{"collection_total":1}}`, received[0], "first attempt body")
	assert.JSONEq(t, `{"metadata":{"collection_total":1}}`, received[1], "retry must re-send the full body")
	assert.Equal(t, []string{"application/json", "application/json"}, contentTypes)
	assert.EqualValues(t, 2, auth.calls.Load(), "every attempt is authenticated")
}

// ─── 4xx: no retry ────────────────────────────────────────────────────────────

func TestExecute_4xxNotRetried(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":"not_found","message":"Secret not found"}]}`))
	}))
	defer srv.Close()

	meta, err := newExec(2, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, count.Load(), "4xx must not be retried")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "Not Found", httpErr.StatusText)
	assert.Equal(t, "Secret not found", httpErr.Message)
	assert.Contains(t, err.Error(), "GetSecret: 404 Secret not found")
	require.NotNil(t, meta)
	assert.Equal(t, http.StatusNotFound, meta.StatusCode)
}

// ─── All retries exhausted ────────────────────────────────────────────────────

func TestExecute_ExhaustAllRetries(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newExec(2, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.Error(t, err)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.EqualValues(t, 3, count.Load(), "retryMax=2 means 3 total attempts")
}

// ─── Retries disabled ─────────────────────────────────────────────────────────

func TestExecute_DisableRetries(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	base := operation.BaseOptions{ServiceURL: srv.URL, DisableRetries: true}
	_, err := newExec(3, srv.Client()).Execute(context.Background(), getDescriptor(), base, nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, count.Load(), "DisableRetries means exactly one attempt")
}

// ─── Network failures ─────────────────────────────────────────────────────────

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newExec(1, http.DefaultClient).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: url}, nil)
	require.Error(t, err)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2, te.Attempts)
	assert.Equal(t, "GetSecret", te.OperationID)
	assert.NotEmpty(t, te.CorrelationID)
	assert.Equal(t, te.CorrelationID, CorrelationID(getDescriptor(), nil, err))
}

func TestCorrelationID_Fallbacks(t *testing.T) {
	req := getDescriptor()
	req.Headers = map[string]string{"x-correlation-id": "from-caller"}
	assert.Equal(t, "from-caller", CorrelationID(req, &operation.ResponseMeta{}, nil))

	echo := &operation.ResponseMeta{Headers: http.Header{CorrelationHeader: {"from-upstream"}}}
	assert.Equal(t, "from-upstream", CorrelationID(getDescriptor(), echo, nil))
	assert.Empty(t, CorrelationID(getDescriptor(), nil, errors.New("boom")))
}

func TestExecute_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	exec := New(zap.NewNop(), nil, srv.Client(), 5)
	exec.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := exec.Execute(ctx, getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ─── Pre-flight failures ──────────────────────────────────────────────────────

func TestExecute_AuthenticatorFailureNotSent(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { count.Add(1) }))
	defer srv.Close()

	auth := &headerAuth{err: errors.New("token endpoint down")}
	_, err := newExec(2, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL, Authenticator: auth}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authenticate")
	assert.EqualValues(t, 0, count.Load())
}

func TestExecute_InvalidServiceURL(t *testing.T) {
	exec := newExec(0, nil)
	_, err := exec.Execute(context.Background(), getDescriptor(), operation.BaseOptions{}, nil)
	assert.Error(t, err)
	_, err = exec.Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: "not a url"}, nil)
	assert.Error(t, err)
}

// ─── JSON decode error ────────────────────────────────────────────────────────

func TestExecute_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	var out map[string]string
	_, err := newExec(0, srv.Client()).Execute(context.Background(), getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}

func TestExecute_EmptyBodyLeavesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	req := getDescriptor()
	req.Method = http.MethodDelete
	var out struct{}
	meta, err := newExec(0, srv.Client()).Execute(context.Background(), req, operation.BaseOptions{ServiceURL: srv.URL}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, meta.StatusCode)
}

// ─── Rate limiting ────────────────────────────────────────────────────────────

func TestExecute_RateLimitWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 0.001, Burst: 1})
	exec := New(zap.NewNop(), mgr, srv.Client(), 0)
	base := operation.BaseOptions{ServiceURL: srv.URL}

	_, err := exec.Execute(context.Background(), getDescriptor(), base, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = exec.Execute(ctx, getDescriptor(), base, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestExecute_RetriesWaitOnLimiter(t *testing.T) {
	h, count := countingHandler(10, http.StatusServiceUnavailable, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 0.001, Burst: 2})
	exec := New(zap.NewNop(), mgr, srv.Client(), 3)
	exec.backoff = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := exec.Execute(ctx, getDescriptor(), operation.BaseOptions{ServiceURL: srv.URL}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.EqualValues(t, 2, count.Load(), "third attempt must wait for a token")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func TestBackoffSchedule(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Backoff(0))
	assert.Equal(t, 250*time.Millisecond, Backoff(1))
	assert.Equal(t, 500*time.Millisecond, Backoff(2))
	assert.Equal(t, 500*time.Millisecond, Backoff(9))
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(http.Header{}))
	assert.Equal(t, 2*time.Second, retryAfter(http.Header{"Retry-After": {"2"}}))
	assert.Equal(t, maxRetryAfter, retryAfter(http.Header{"Retry-After": {"3600"}}))
	assert.Equal(t, time.Duration(0), retryAfter(http.Header{"Retry-After": {"soon"}}))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad key", errorMessage([]byte(`{"errors":[{"message":"bad key"}]}`)))
	assert.Equal(t, "expired", errorMessage([]byte(`{"errorMessage":"expired"}`)))
	assert.Equal(t, "nope", errorMessage([]byte(`{"error":"nope"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte("  plain text \n")))
}
