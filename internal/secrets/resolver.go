package secrets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/auth"
	pkgsecrets "github.com/Checker-Finance/secrets-manager-sdk/pkg/secrets"
)

const secretSuffix = "secrets-manager"

// InstanceCredentials is the credential bundle stored for one Secrets
// Manager instance.
type InstanceCredentials struct {
	APIKey     string
	ServiceURL string
	IAMURL     string
}

// ParseInstanceCredentials validates a raw secret map.
func ParseInstanceCredentials(m map[string]string) (InstanceCredentials, error) {
	c := InstanceCredentials{
		APIKey:     strings.TrimSpace(m["api_key"]),
		ServiceURL: strings.TrimSpace(m["service_url"]),
		IAMURL:     strings.TrimSpace(m["iam_url"]),
	}
	if c.APIKey == "" {
		return InstanceCredentials{}, fmt.Errorf("secret is missing api_key")
	}
	return c, nil
}

// CredentialResolver resolves instance credentials from AWS Secrets Manager
// and caches them locally.
//
// Secret naming convention: {env}/{instance}/secrets-manager
type CredentialResolver struct {
	logger   *zap.Logger
	env      string
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[InstanceCredentials]
}

func NewCredentialResolver(
	logger *zap.Logger,
	env string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[InstanceCredentials],
) *CredentialResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialResolver{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

func (r *CredentialResolver) secretName(instance string) string {
	return strings.ToLower(fmt.Sprintf("%s/%s/%s", r.env, instance, secretSuffix))
}

// Resolve returns the credentials of instance, from cache when possible.
func (r *CredentialResolver) Resolve(ctx context.Context, instance string) (InstanceCredentials, error) {
	key := strings.ToLower(instance)

	if creds, ok := r.cache.Get(key); ok {
		metrics.IncCredentialCache("hit")
		return creds, nil
	}
	metrics.IncCredentialCache("miss")

	name := r.secretName(instance)
	raw, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", name),
			zap.Error(err))
		return InstanceCredentials{}, fmt.Errorf("resolve credentials for %q: %w", instance, err)
	}

	creds, err := ParseInstanceCredentials(raw)
	if err != nil {
		return InstanceCredentials{}, fmt.Errorf("parse secret %q: %w", name, err)
	}

	r.cache.Put(key, creds)
	r.logger.Info("aws.instance_credentials_resolved", zap.String("instance", instance))
	return creds, nil
}

// Invalidate drops the cached credentials of instance, forcing the next
// Resolve to hit the provider.
func (r *CredentialResolver) Invalidate(instance string) {
	r.cache.Bust(strings.ToLower(instance))
}

// APIKeySource adapts the resolver to the IAM authenticator. Rotated keys
// are picked up once the cache entry expires.
func (r *CredentialResolver) APIKeySource(instance string) auth.APIKeyFunc {
	return func(ctx context.Context) (string, error) {
		creds, err := r.Resolve(ctx, instance)
		if err != nil {
			return "", err
		}
		return creds.APIKey, nil
	}
}

// DiscoverInstances lists the instances with credentials stored under
// "{env}/".
func (r *CredentialResolver) DiscoverInstances(ctx context.Context) ([]string, error) {
	prefix := strings.ToLower(r.env + "/")
	suffix := "/" + secretSuffix

	names, err := r.provider.ListSecrets(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("discover instances: %w", err)
	}

	var instances []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, prefix) || !strings.HasSuffix(lower, suffix) {
			continue
		}
		trimmed := strings.TrimSuffix(strings.TrimPrefix(lower, prefix), suffix)
		if trimmed != "" && !strings.Contains(trimmed, "/") {
			instances = append(instances, trimmed)
		}
	}

	r.logger.Info("aws.instances_discovered",
		zap.Int("count", len(instances)),
		zap.Strings("instances", instances),
	)
	return instances, nil
}
