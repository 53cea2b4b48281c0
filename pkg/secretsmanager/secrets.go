package secretsmanager

import (
	"context"
	"fmt"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type CreateSecretOptions struct {
	SecretType string
	Metadata   *CollectionMetadata
	Resources  []SecretResource
	Headers    map[string]string
}

type ListSecretsOptions struct {
	SecretType string
	Limit      *int
	Offset     *int
	Headers    map[string]string
}

type ListAllSecretsOptions struct {
	Limit   *int
	Offset  *int
	Search  string
	SortBy  string
	Groups  []string
	Headers map[string]string
}

type GetSecretOptions struct {
	SecretType string
	ID         string
	Headers    map[string]string
}

// UpdateSecretOptions carries a SecretAction. SecretType may be left empty;
// it is then taken from the action.
type UpdateSecretOptions struct {
	SecretType string
	ID         string
	Action     SecretAction
	Headers    map[string]string
}

type DeleteSecretOptions struct {
	SecretType string
	ID         string
	Headers    map[string]string
}

func (s *Service) CreateSecret(ctx context.Context, o *CreateSecretOptions) (*Response[SecretCollection], error) {
	if o == nil {
		o = &CreateSecretOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "metadata": o.Metadata, "resources": o.Resources}
	return call[SecretCollection](ctx, s, CreateSecret, bag.WithHeaders(o.Headers))
}

// ListSecrets lists secrets of one type. Limit and Offset page through the
// results.
func (s *Service) ListSecrets(ctx context.Context, o *ListSecretsOptions) (*Response[SecretCollection], error) {
	if o == nil {
		o = &ListSecretsOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "limit": o.Limit, "offset": o.Offset}
	return call[SecretCollection](ctx, s, ListSecrets, bag.WithHeaders(o.Headers))
}

// ListAllSecrets lists secrets of every type, optionally filtered by search
// text and secret group IDs.
func (s *Service) ListAllSecrets(ctx context.Context, o *ListAllSecretsOptions) (*Response[SecretMetadataCollection], error) {
	if o == nil {
		o = &ListAllSecretsOptions{}
	}
	bag := operation.Bag{
		"limit":  o.Limit,
		"offset": o.Offset,
		"search": o.Search,
		"sortBy": o.SortBy,
		"groups": o.Groups,
	}
	return call[SecretMetadataCollection](ctx, s, ListAllSecrets, bag.WithHeaders(o.Headers))
}

func (s *Service) GetSecret(ctx context.Context, o *GetSecretOptions) (*Response[SecretCollection], error) {
	if o == nil {
		o = &GetSecretOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID}
	return call[SecretCollection](ctx, s, GetSecret, bag.WithHeaders(o.Headers))
}

// UpdateSecret runs an action on a secret. The action query parameter and
// the request body both come from o.Action.
func (s *Service) UpdateSecret(ctx context.Context, o *UpdateSecretOptions) (*Response[SecretCollection], error) {
	if o == nil {
		o = &UpdateSecretOptions{}
	}
	body, secretType, err := secretActionBody(o.Action)
	if err != nil {
		return nil, err
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID, "secretAction": body}
	if body != nil {
		bag["action"] = o.Action.Action()
		switch {
		case o.SecretType == "":
			bag["secretType"] = secretType
		case o.SecretType != secretType:
			return nil, fmt.Errorf("%w: %T applies to %s secrets, not %s", ErrInvalidVariant, o.Action, secretType, o.SecretType)
		}
	}
	return call[SecretCollection](ctx, s, UpdateSecret, bag.WithHeaders(o.Headers))
}

func (s *Service) DeleteSecret(ctx context.Context, o *DeleteSecretOptions) (*Response[struct{}], error) {
	if o == nil {
		o = &DeleteSecretOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID}
	return call[struct{}](ctx, s, DeleteSecret, bag.WithHeaders(o.Headers))
}
