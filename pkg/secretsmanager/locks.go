package secretsmanager

import (
	"context"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type GetLocksOptions struct {
	SecretType string
	ID         string
	Limit      *int
	Offset     *int
	Search     string
	Headers    map[string]string
}

type LockSecretOptions struct {
	SecretType string
	ID         string
	Mode       string // LockModeExclusive, LockModeExclusiveDelete or empty
	Locks      []LockData
	Headers    map[string]string
}

type UnlockSecretOptions struct {
	SecretType string
	ID         string
	Locks      []string
	Headers    map[string]string
}

type GetSecretVersionLocksOptions struct {
	SecretVersionRef
	Limit  *int
	Offset *int
	Search string
}

type LockSecretVersionOptions struct {
	SecretVersionRef
	Mode  string
	Locks []LockData
}

type UnlockSecretVersionOptions struct {
	SecretVersionRef
	Locks []string
}

type GetInstanceSecretsLocksOptions struct {
	Limit   *int
	Offset  *int
	Search  string
	Groups  []string
	Headers map[string]string
}

func (s *Service) GetLocks(ctx context.Context, o *GetLocksOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &GetLocksOptions{}
	}
	bag := operation.Bag{
		"secretType": o.SecretType,
		"id":         o.ID,
		"limit":      o.Limit,
		"offset":     o.Offset,
		"search":     o.Search,
	}
	return call[LocksCollection](ctx, s, GetLocks, bag.WithHeaders(o.Headers))
}

// LockSecret locks the current version of a secret. With an exclusive mode
// the previous version's locks are removed.
func (s *Service) LockSecret(ctx context.Context, o *LockSecretOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &LockSecretOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID, "mode": o.Mode, "locks": o.Locks}
	return call[LocksCollection](ctx, s, LockSecret, bag.WithHeaders(o.Headers))
}

func (s *Service) UnlockSecret(ctx context.Context, o *UnlockSecretOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &UnlockSecretOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID, "locks": o.Locks}
	return call[LocksCollection](ctx, s, UnlockSecret, bag.WithHeaders(o.Headers))
}

func (s *Service) GetSecretVersionLocks(ctx context.Context, o *GetSecretVersionLocksOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &GetSecretVersionLocksOptions{}
	}
	bag := o.bag()
	bag["limit"] = o.Limit
	bag["offset"] = o.Offset
	bag["search"] = o.Search
	return call[LocksCollection](ctx, s, GetSecretVersionLocks, bag)
}

func (s *Service) LockSecretVersion(ctx context.Context, o *LockSecretVersionOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &LockSecretVersionOptions{}
	}
	bag := o.bag()
	bag["mode"] = o.Mode
	bag["locks"] = o.Locks
	return call[LocksCollection](ctx, s, LockSecretVersion, bag)
}

func (s *Service) UnlockSecretVersion(ctx context.Context, o *UnlockSecretVersionOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &UnlockSecretVersionOptions{}
	}
	bag := o.bag()
	bag["locks"] = o.Locks
	return call[LocksCollection](ctx, s, UnlockSecretVersion, bag)
}

// GetInstanceSecretsLocks lists locks across every secret in the instance.
func (s *Service) GetInstanceSecretsLocks(ctx context.Context, o *GetInstanceSecretsLocksOptions) (*Response[LocksCollection], error) {
	if o == nil {
		o = &GetInstanceSecretsLocksOptions{}
	}
	bag := operation.Bag{"limit": o.Limit, "offset": o.Offset, "search": o.Search, "groups": o.Groups}
	return call[LocksCollection](ctx, s, GetInstanceSecretsLocks, bag.WithHeaders(o.Headers))
}
