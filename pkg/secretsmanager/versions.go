package secretsmanager

import (
	"context"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// Version aliases accepted wherever a version ID is.
const (
	VersionCurrent  = "current"
	VersionPrevious = "previous"
)

// SecretVersionRef addresses one version of one secret.
type SecretVersionRef struct {
	SecretType string
	ID         string
	VersionID  string
	Headers    map[string]string
}

func (r *SecretVersionRef) bag() operation.Bag {
	return operation.Bag{"secretType": r.SecretType, "id": r.ID, "versionId": r.VersionID}.WithHeaders(r.Headers)
}

type ListSecretVersionsOptions struct {
	SecretType string
	ID         string
	Headers    map[string]string
}

type UpdateSecretVersionOptions struct {
	SecretVersionRef
	Action string // ActionRevoke is the only action the service accepts today
}

type UpdateSecretVersionMetadataOptions struct {
	SecretVersionRef
	Metadata  *CollectionMetadata
	Resources []SecretVersion
}

type GetSecretMetadataOptions struct {
	SecretType string
	ID         string
	Headers    map[string]string
}

type UpdateSecretMetadataOptions struct {
	SecretType string
	ID         string
	Metadata   *CollectionMetadata
	Resources  []SecretMetadata
	Headers    map[string]string
}

func (s *Service) ListSecretVersions(ctx context.Context, o *ListSecretVersionsOptions) (*Response[SecretVersionCollection], error) {
	if o == nil {
		o = &ListSecretVersionsOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID}
	return call[SecretVersionCollection](ctx, s, ListSecretVersions, bag.WithHeaders(o.Headers))
}

// GetSecretVersion returns one version including its secret data.
func (s *Service) GetSecretVersion(ctx context.Context, o *SecretVersionRef) (*Response[SecretVersionCollection], error) {
	if o == nil {
		o = &SecretVersionRef{}
	}
	return call[SecretVersionCollection](ctx, s, GetSecretVersion, o.bag())
}

func (s *Service) UpdateSecretVersion(ctx context.Context, o *UpdateSecretVersionOptions) (*Response[SecretVersionCollection], error) {
	if o == nil {
		o = &UpdateSecretVersionOptions{}
	}
	bag := o.bag()
	bag["action"] = o.Action
	return call[SecretVersionCollection](ctx, s, UpdateSecretVersion, bag)
}

func (s *Service) GetSecretVersionMetadata(ctx context.Context, o *SecretVersionRef) (*Response[SecretVersionCollection], error) {
	if o == nil {
		o = &SecretVersionRef{}
	}
	return call[SecretVersionCollection](ctx, s, GetSecretVersionMetadata, o.bag())
}

func (s *Service) UpdateSecretVersionMetadata(ctx context.Context, o *UpdateSecretVersionMetadataOptions) (*Response[SecretVersionCollection], error) {
	if o == nil {
		o = &UpdateSecretVersionMetadataOptions{}
	}
	bag := o.bag()
	bag["metadata"] = o.Metadata
	bag["resources"] = o.Resources
	return call[SecretVersionCollection](ctx, s, UpdateSecretVersionMetadata, bag)
}

func (s *Service) GetSecretMetadata(ctx context.Context, o *GetSecretMetadataOptions) (*Response[SecretMetadataCollection], error) {
	if o == nil {
		o = &GetSecretMetadataOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID}
	return call[SecretMetadataCollection](ctx, s, GetSecretMetadata, bag.WithHeaders(o.Headers))
}

func (s *Service) UpdateSecretMetadata(ctx context.Context, o *UpdateSecretMetadataOptions) (*Response[SecretMetadataCollection], error) {
	if o == nil {
		o = &UpdateSecretMetadataOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID, "metadata": o.Metadata, "resources": o.Resources}
	return call[SecretMetadataCollection](ctx, s, UpdateSecretMetadata, bag.WithHeaders(o.Headers))
}
