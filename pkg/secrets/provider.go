package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by providers when a secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Provider is a source of credential bundles stored as flat JSON objects,
// e.g. {"api_key": "...", "service_url": "..."}.
type Provider interface {
	// GetSecret retrieves a secret by name and returns its fields.
	GetSecret(ctx context.Context, key string) (map[string]string, error)

	// ListSecrets returns the names of all secrets whose name starts with prefix.
	ListSecrets(ctx context.Context, prefix string) ([]string, error)
}
