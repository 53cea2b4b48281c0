// Package auth provides operation.Authenticator implementations for the
// Secrets Manager API.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// ErrNoCredentials is returned when an authenticator has nothing to attach.
var ErrNoCredentials = errors.New("auth: no credentials configured")

var (
	_ operation.Authenticator = NoAuth{}
	_ operation.Authenticator = BearerToken("")
	_ operation.Authenticator = (*IAMAuthenticator)(nil)
)

// NoAuth sends requests unauthenticated. Useful against local mocks.
type NoAuth struct{}

func (NoAuth) Authenticate(context.Context, *http.Request) error { return nil }

// BearerToken attaches a fixed bearer token.
type BearerToken string

func (b BearerToken) Authenticate(_ context.Context, req *http.Request) error {
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return ErrNoCredentials
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}
