package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
)

const (
	// DefaultIAMURL is the public IAM token service.
	DefaultIAMURL = "https://iam.cloud.ibm.com"
	// GrantTypeAPIKey exchanges an API key for an access token.
	GrantTypeAPIKey = "urn:ibm:params:oauth:grant-type:apikey"
	// tokenExpiryBuffer is the margin before actual expiry at which we pre-fetch a new token.
	tokenExpiryBuffer = 5 * time.Minute
)

// APIKeySource yields the API key to exchange. Sources may rotate keys.
type APIKeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticAPIKey is a fixed API key.
type StaticAPIKey string

func (k StaticAPIKey) APIKey(context.Context) (string, error) {
	if k == "" {
		return "", ErrNoCredentials
	}
	return string(k), nil
}

// APIKeyFunc adapts a function to APIKeySource.
type APIKeyFunc func(ctx context.Context) (string, error)

func (f APIKeyFunc) APIKey(ctx context.Context) (string, error) { return f(ctx) }

// iamTokenResponse is the token service reply.
type iamTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Expiration   int64  `json:"expiration"`
}

// IAMAuthenticator exchanges an API key for a bearer token and caches the
// token until shortly before it expires.
type IAMAuthenticator struct {
	url    string
	keys   APIKeySource
	store  TokenStore
	client *http.Client
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// IAMOption configures an IAMAuthenticator.
type IAMOption func(*IAMAuthenticator)

func WithIAMURL(u string) IAMOption {
	return func(a *IAMAuthenticator) {
		if u != "" {
			a.url = strings.TrimRight(u, "/")
		}
	}
}

func WithTokenStore(s TokenStore) IAMOption {
	return func(a *IAMAuthenticator) {
		if s != nil {
			a.store = s
		}
	}
}

func WithHTTPClient(c *http.Client) IAMOption {
	return func(a *IAMAuthenticator) {
		if c != nil {
			a.client = c
		}
	}
}

func WithAuthLogger(l *zap.Logger) IAMOption {
	return func(a *IAMAuthenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewIAMAuthenticator creates an authenticator backed by keys. Tokens are
// kept in memory unless WithTokenStore is given.
func NewIAMAuthenticator(keys APIKeySource, opts ...IAMOption) (*IAMAuthenticator, error) {
	if keys == nil {
		return nil, ErrNoCredentials
	}
	a := &IAMAuthenticator{
		url:    DefaultIAMURL,
		keys:   keys,
		store:  NewMemoryTokenStore(),
		client: &http.Client{Timeout: 10 * time.Second},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Authenticate sets the Authorization header.
func (a *IAMAuthenticator) Authenticate(ctx context.Context, req *http.Request) error {
	tok, err := a.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or within five minutes of expiry.
func (a *IAMAuthenticator) Token(ctx context.Context) (string, error) {
	apiKey, err := a.keys.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("iam auth: resolve api key: %w", err)
	}
	key := storeKey(a.url, apiKey)

	if tok, ok := a.cached(ctx, key); ok {
		return tok.AccessToken, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// Another caller may have refreshed while we waited.
	if tok, ok := a.cached(ctx, key); ok {
		return tok.AccessToken, nil
	}

	tok, err := a.fetchToken(ctx, apiKey)
	if err != nil {
		metrics.IncError("auth", "token_fetch")
		return "", fmt.Errorf("iam auth: fetch token: %w", err)
	}
	if err := a.store.Put(ctx, key, tok); err != nil {
		a.logger.Warn("auth.iam.store_failed", zap.Error(err))
	}

	a.logger.Info("auth.iam.token_refreshed",
		zap.String("key_id", key),
		zap.Time("expires_at", tok.ExpiresAt))
	metrics.SetLastTokenRefresh(a.now())
	return tok.AccessToken, nil
}

// Warm fetches a token ahead of the first request.
func (a *IAMAuthenticator) Warm(ctx context.Context) error {
	_, err := a.Token(ctx)
	return err
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (a *IAMAuthenticator) Invalidate(ctx context.Context) error {
	apiKey, err := a.keys.APIKey(ctx)
	if err != nil {
		return err
	}
	return a.store.Delete(ctx, storeKey(a.url, apiKey))
}

func (a *IAMAuthenticator) cached(ctx context.Context, key string) (Token, bool) {
	tok, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.Warn("auth.iam.store_read_failed", zap.Error(err))
		return Token{}, false
	}
	return tok, found && tok.ValidAt(a.now(), tokenExpiryBuffer)
}

func (a *IAMAuthenticator) fetchToken(ctx context.Context, apiKey string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", GrantTypeAPIKey)
	form.Set("apikey", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+"/identity/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Token{}, fmt.Errorf("token service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr iamTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, errors.New("token service returned empty access_token")
	}

	expiresAt := a.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.Expiration > 0 {
		expiresAt = time.Unix(tr.Expiration, 0)
	}
	return Token{AccessToken: tr.AccessToken, ExpiresAt: expiresAt}, nil
}

// storeKey identifies a token without exposing the API key.
func storeKey(iamURL, apiKey string) string {
	sum := sha256.Sum256([]byte(iamURL + "\x00" + apiKey))
	return "iam:" + hex.EncodeToString(sum[:8])
}
