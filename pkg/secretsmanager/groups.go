package secretsmanager

import (
	"context"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type CreateSecretGroupOptions struct {
	Metadata  *CollectionMetadata
	Resources []SecretGroupResource
	Headers   map[string]string
}

type ListSecretGroupsOptions struct {
	Headers map[string]string
}

type GetSecretGroupOptions struct {
	ID      string
	Headers map[string]string
}

type UpdateSecretGroupMetadataOptions struct {
	ID        string
	Metadata  *CollectionMetadata
	Resources []SecretGroupResource
	Headers   map[string]string
}

type DeleteSecretGroupOptions struct {
	ID      string
	Headers map[string]string
}

// CreateSecretGroup creates a group to organize secrets and control access to them.
func (s *Service) CreateSecretGroup(ctx context.Context, o *CreateSecretGroupOptions) (*Response[SecretGroupCollection], error) {
	if o == nil {
		o = &CreateSecretGroupOptions{}
	}
	bag := operation.Bag{"metadata": o.Metadata, "resources": o.Resources}
	return call[SecretGroupCollection](ctx, s, CreateSecretGroup, bag.WithHeaders(o.Headers))
}

func (s *Service) ListSecretGroups(ctx context.Context, o *ListSecretGroupsOptions) (*Response[SecretGroupCollection], error) {
	if o == nil {
		o = &ListSecretGroupsOptions{}
	}
	return call[SecretGroupCollection](ctx, s, ListSecretGroups, operation.Bag{}.WithHeaders(o.Headers))
}

func (s *Service) GetSecretGroup(ctx context.Context, o *GetSecretGroupOptions) (*Response[SecretGroupCollection], error) {
	if o == nil {
		o = &GetSecretGroupOptions{}
	}
	return call[SecretGroupCollection](ctx, s, GetSecretGroup, operation.Bag{"id": o.ID}.WithHeaders(o.Headers))
}

// UpdateSecretGroupMetadata updates the name or description of a group.
func (s *Service) UpdateSecretGroupMetadata(ctx context.Context, o *UpdateSecretGroupMetadataOptions) (*Response[SecretGroupCollection], error) {
	if o == nil {
		o = &UpdateSecretGroupMetadataOptions{}
	}
	bag := operation.Bag{"id": o.ID, "metadata": o.Metadata, "resources": o.Resources}
	return call[SecretGroupCollection](ctx, s, UpdateSecretGroupMetadata, bag.WithHeaders(o.Headers))
}

// DeleteSecretGroup deletes an empty group. The server refuses groups that
// still contain secrets.
func (s *Service) DeleteSecretGroup(ctx context.Context, o *DeleteSecretGroupOptions) (*Response[struct{}], error) {
	if o == nil {
		o = &DeleteSecretGroupOptions{}
	}
	return call[struct{}](ctx, s, DeleteSecretGroup, operation.Bag{"id": o.ID}.WithHeaders(o.Headers))
}
