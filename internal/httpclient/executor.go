package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/internal/rate"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// CorrelationHeader is added to every request that does not already carry one.
const CorrelationHeader = "X-Correlation-ID"

const maxRetryAfter = 10 * time.Second

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// Executor sends operation descriptors over HTTP with rate limiting,
// retries and JSON decoding. It implements operation.Executor.
type Executor struct {
	logger   *zap.Logger
	rateMgr  *rate.Manager
	http     *http.Client
	retryMax int
	backoff  func(attempt int) time.Duration
}

// New creates an Executor. rateMgr may be nil. retryMax is the number of
// retries after the first attempt.
func New(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, retryMax int) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if retryMax < 0 {
		retryMax = 0
	}
	return &Executor{
		logger:   logger,
		rateMgr:  rateMgr,
		http:     httpClient,
		retryMax: retryMax,
		backoff:  Backoff,
	}
}

var _ operation.Executor = (*Executor)(nil)

// Execute performs req against base.ServiceURL and decodes a JSON response
// body into result.
func (e *Executor) Execute(ctx context.Context, req operation.RequestDescriptor, base operation.BaseOptions, result any) (*operation.ResponseMeta, error) {
	target, err := resolveURL(base.ServiceURL, req.URL, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.OperationID, err)
	}

	var payload []byte
	if req.Body != nil {
		if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", req.OperationID, err)
		}
	}

	headers := operation.MergeHeaders(base.Headers, req.Headers)
	correlationID := operation.HeaderValue(headers, CorrelationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
		headers[CorrelationHeader] = correlationID
	}

	attempts := e.retryMax + 1
	if base.DisableRetries {
		attempts = 1
	}

	var lastErr error
	var delay time.Duration
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, delay); err != nil {
				return nil, &TransportError{OperationID: req.OperationID, URL: target.String(), Attempts: attempt, CorrelationID: correlationID, Err: err}
			}
		}
		delay = e.backoff(attempt)

		if e.rateMgr != nil {
			if err := e.rateMgr.Wait(ctx, target.Host); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		httpReq, err := e.newRequest(ctx, req, base, target, payload, headers)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := e.http.Do(httpReq)
		if err != nil {
			metrics.IncHTTPRequest(req.OperationID, req.Method, "error")
			lastErr = &TransportError{OperationID: req.OperationID, URL: target.String(), Attempts: attempt + 1, CorrelationID: correlationID, Err: err}
			if ctx.Err() != nil {
				return nil, lastErr
			}
			e.logger.Warn("httpclient.http_failed",
				zap.String("operation", req.OperationID),
				zap.String("url", target.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			metrics.IncRetry(req.OperationID, "network")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)
		metrics.IncHTTPRequest(req.OperationID, req.Method, strconv.Itoa(resp.StatusCode))
		metrics.ObserveDuration(metrics.HTTPRequestDuration, start, req.OperationID, req.Method)

		meta := &operation.ResponseMeta{
			StatusCode:    resp.StatusCode,
			StatusText:    http.StatusText(resp.StatusCode),
			Headers:       resp.Header,
			CorrelationID: correlationID,
		}
		if readErr != nil {
			lastErr = &TransportError{OperationID: req.OperationID, URL: target.String(), Attempts: attempt + 1, CorrelationID: correlationID, Err: readErr}
			continue
		}

		if retryable(resp.StatusCode) && attempt < attempts-1 {
			e.logger.Warn("httpclient.retry",
				zap.String("operation", req.OperationID),
				zap.Int("status", resp.StatusCode),
				zap.String("url", target.String()),
				zap.Duration("latency", elapsed),
				zap.Int("attempt", attempt))
			metrics.IncRetry(req.OperationID, "status")
			if ra := retryAfter(resp.Header); ra > delay {
				delay = ra
			}
			continue
		}

		if resp.StatusCode >= 400 {
			return meta, &HTTPError{
				OperationID: req.OperationID,
				StatusCode:  resp.StatusCode,
				StatusText:  meta.StatusText,
				Message:     errorMessage(body),
				Body:        body,
				Headers:     resp.Header,
			}
		}

		if result != nil && len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, result); err != nil {
				e.logger.Warn("httpclient.decode_failed",
					zap.String("operation", req.OperationID),
					zap.String("url", target.String()),
					zap.Error(err))
				return meta, fmt.Errorf("%s: decode failed: %w", req.OperationID, err)
			}
		}

		e.logger.Debug("httpclient.http_success",
			zap.String("operation", req.OperationID),
			zap.String("url", target.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))
		return meta, nil
	}

	return nil, lastErr
}

func (e *Executor) newRequest(ctx context.Context, req operation.RequestDescriptor, base operation.BaseOptions,
	target *url.URL, payload []byte, headers map[string]string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.OperationID, err)
	}

	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", operation.MediaJSON)
	}

	if base.Authenticator != nil {
		if err := base.Authenticator.Authenticate(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("%s: authenticate: %w", req.OperationID, err)
		}
	}
	return httpReq, nil
}

// resolveURL joins the service URL with the descriptor path and encodes the
// query with sorted keys.
func resolveURL(serviceURL, path string, query map[string]string) (*url.URL, error) {
	if serviceURL == "" {
		return nil, errors.New("service URL is not set")
	}
	u, err := url.Parse(strings.TrimRight(serviceURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q", serviceURL)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
