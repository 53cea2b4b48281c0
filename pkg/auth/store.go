package auth

import (
	"context"
	"time"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/secrets"
)

// Token is an access token and the instant it stops being valid.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidAt reports whether the token can still be used at t, keeping buffer
// in reserve before the real expiry.
func (t Token) ValidAt(now time.Time, buffer time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-buffer))
}

// TokenStore caches tokens by key. Get reports found=false for a miss.
type TokenStore interface {
	Get(ctx context.Context, key string) (tok Token, found bool, err error)
	Put(ctx context.Context, key string, tok Token) error
	Delete(ctx context.Context, key string) error
}

// MemoryTokenStore keeps tokens in process memory until they expire.
type MemoryTokenStore struct {
	cache *secrets.Cache[Token]
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{cache: secrets.NewCache[Token](time.Hour)}
}

func (s *MemoryTokenStore) Get(_ context.Context, key string) (Token, bool, error) {
	tok, ok := s.cache.Get(key)
	if ok {
		metrics.IncTokenCache("memory", "hit")
	} else {
		metrics.IncTokenCache("memory", "miss")
	}
	return tok, ok, nil
}

func (s *MemoryTokenStore) Put(_ context.Context, key string, tok Token) error {
	s.cache.PutWithTTL(key, tok, time.Until(tok.ExpiresAt))
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, key string) error {
	s.cache.Bust(key)
	return nil
}
