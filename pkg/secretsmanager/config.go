package secretsmanager

import (
	"context"
	"fmt"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

type GetConfigOptions struct {
	SecretType string
	Headers    map[string]string
}

// PutConfigOptions sets the engine configuration for one secret type. An
// empty SecretType is taken from Config.
type PutConfigOptions struct {
	SecretType string
	Config     EngineConfig
	Headers    map[string]string
}

// ConfigElementRef addresses one named config element.
type ConfigElementRef struct {
	SecretType    string
	ConfigElement string
	ConfigName    string
	Headers       map[string]string
}

func (r *ConfigElementRef) bag() operation.Bag {
	return operation.Bag{
		"secretType":    r.SecretType,
		"configElement": r.ConfigElement,
		"configName":    r.ConfigName,
	}.WithHeaders(r.Headers)
}

type CreateConfigElementOptions struct {
	SecretType    string
	ConfigElement string
	Name          string
	Type          string
	Config        map[string]any
	Headers       map[string]string
}

type GetConfigElementsOptions struct {
	SecretType    string
	ConfigElement string
	Headers       map[string]string
}

type UpdateConfigElementOptions struct {
	ConfigElementRef
	Type   string
	Config map[string]any
}

type ActionOnConfigElementOptions struct {
	ConfigElementRef
	Action string
	Config map[string]any
}

func (s *Service) GetConfig(ctx context.Context, o *GetConfigOptions) (*Response[ConfigCollection], error) {
	if o == nil {
		o = &GetConfigOptions{}
	}
	return call[ConfigCollection](ctx, s, GetConfig, operation.Bag{"secretType": o.SecretType}.WithHeaders(o.Headers))
}

func (s *Service) PutConfig(ctx context.Context, o *PutConfigOptions) (*Response[struct{}], error) {
	if o == nil {
		o = &PutConfigOptions{}
	}
	body, err := engineConfigBody(o.Config)
	if err != nil {
		return nil, err
	}
	secretType := o.SecretType
	if body != nil {
		switch {
		case secretType == "":
			secretType = o.Config.SecretType()
		case secretType != o.Config.SecretType():
			return nil, fmt.Errorf("%w: %T configures %s, not %s", ErrInvalidVariant, o.Config, o.Config.SecretType(), secretType)
		}
	}
	bag := operation.Bag{"secretType": secretType, "engineConfig": body}
	return call[struct{}](ctx, s, PutConfig, bag.WithHeaders(o.Headers))
}

// CreateConfigElement adds a certificate authority, DNS provider or
// template to an engine.
func (s *Service) CreateConfigElement(ctx context.Context, o *CreateConfigElementOptions) (*Response[ConfigElementCollection], error) {
	if o == nil {
		o = &CreateConfigElementOptions{}
	}
	bag := operation.Bag{
		"secretType":    o.SecretType,
		"configElement": o.ConfigElement,
		"name":          o.Name,
		"type":          o.Type,
		"config":        o.Config,
	}
	return call[ConfigElementCollection](ctx, s, CreateConfigElement, bag.WithHeaders(o.Headers))
}

func (s *Service) GetConfigElements(ctx context.Context, o *GetConfigElementsOptions) (*Response[ConfigCollection], error) {
	if o == nil {
		o = &GetConfigElementsOptions{}
	}
	bag := operation.Bag{"secretType": o.SecretType, "configElement": o.ConfigElement}
	return call[ConfigCollection](ctx, s, GetConfigElements, bag.WithHeaders(o.Headers))
}

func (s *Service) GetConfigElement(ctx context.Context, o *ConfigElementRef) (*Response[ConfigElementCollection], error) {
	if o == nil {
		o = &ConfigElementRef{}
	}
	return call[ConfigElementCollection](ctx, s, GetConfigElement, o.bag())
}

func (s *Service) UpdateConfigElement(ctx context.Context, o *UpdateConfigElementOptions) (*Response[ConfigElementCollection], error) {
	if o == nil {
		o = &UpdateConfigElementOptions{}
	}
	bag := o.bag()
	bag["type"] = o.Type
	bag["config"] = o.Config
	return call[ConfigElementCollection](ctx, s, UpdateConfigElement, bag)
}

// ActionOnConfigElement signs, revokes or rotates a private certificate
// authority element.
func (s *Service) ActionOnConfigElement(ctx context.Context, o *ActionOnConfigElementOptions) (*Response[ConfigCollection], error) {
	if o == nil {
		o = &ActionOnConfigElementOptions{}
	}
	bag := o.bag()
	bag["action"] = o.Action
	bag["config"] = o.Config
	return call[ConfigCollection](ctx, s, ActionOnConfigElement, bag)
}

func (s *Service) DeleteConfigElement(ctx context.Context, o *ConfigElementRef) (*Response[struct{}], error) {
	if o == nil {
		o = &ConfigElementRef{}
	}
	return call[struct{}](ctx, s, DeleteConfigElement, o.bag())
}
