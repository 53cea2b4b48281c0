package secretsmanager

import (
	"context"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type GetPolicyOptions struct {
	SecretType string
	ID         string
	Policy     string // PolicyRotation or empty
	Headers    map[string]string
}

type PutPolicyOptions struct {
	SecretType string
	ID         string
	Policy     string
	Metadata   *CollectionMetadata
	Resources  []RotationPolicy
	Headers    map[string]string
}

func (s *Service) GetPolicy(ctx context.Context, o *GetPolicyOptions) (*Response[PolicyCollection], error) {
	if o == nil {
		o = &GetPolicyOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "id": o.ID, "policy": o.Policy}
	return call[PolicyCollection](ctx, s, GetPolicy, bag.WithHeaders(o.Headers))
}

// PutPolicy replaces the rotation policy of a secret.
func (s *Service) PutPolicy(ctx context.Context, o *PutPolicyOptions) (*Response[PolicyCollection], error) {
	if o == nil {
		o = &PutPolicyOptions{}
	}
	bag := operation.Bag{
		"secretType": o.SecretType,
		"id":         o.ID,
		"policy":     o.Policy,
		"metadata":   o.Metadata,
		"resources":  o.Resources,
	}
	return call[PolicyCollection](ctx, s, PutPolicy, bag.WithHeaders(o.Headers))
}
