package secretsmanager

import (
	"fmt"
	"reflect"
)

// Action names used in the action query parameter.
const (
	ActionRotate               = "rotate"
	ActionDeleteCredentials    = "delete_credentials"
	ActionRevoke               = "revoke"
	ActionValidateDNSChallenge = "validate_dns_challenge"
)

// SecretAction is the body of UpdateSecret. The concrete type selects both
// the action query parameter and the payload shape.
type SecretAction interface {
	Action() string
	isSecretAction()
}

// RotateArbitrarySecret replaces the payload of an arbitrary secret.
type RotateArbitrarySecret struct {
	Payload any `json:"payload"`
}

// RotateUsernamePasswordSecret sets a new password. An empty password asks
// the service to generate one.
type RotateUsernamePasswordSecret struct {
	Password string `json:"password,omitempty"`
}

// RotateCertificate re-imports an imported certificate.
type RotateCertificate struct {
	Certificate  string `json:"certificate"`
	PrivateKey   string `json:"private_key,omitempty"`
	Intermediate string `json:"intermediate,omitempty"`
}

// RotatePublicCertificate orders a new public certificate.
type RotatePublicCertificate struct {
	RotateKeys bool `json:"rotate_keys"`
}

// RotatePrivateCertificate issues a new private certificate.
type RotatePrivateCertificate struct{}

// RotateKVSecret replaces the payload of a key-value secret.
type RotateKVSecret struct {
	Payload map[string]any `json:"payload"`
}

// DeleteCredentials removes the API key behind an IAM credentials secret.
type DeleteCredentials struct {
	ServiceID string `json:"service_id,omitempty"`
	APIKeyID  string `json:"api_key_id,omitempty"`
}

// RevokePrivateCertificate revokes a private certificate.
type RevokePrivateCertificate struct{}

// ValidateDNSChallenge asks the service to validate a manual DNS challenge.
type ValidateDNSChallenge struct{}

func (RotateArbitrarySecret) Action() string        { return ActionRotate }
func (RotateUsernamePasswordSecret) Action() string { return ActionRotate }
func (RotateCertificate) Action() string            { return ActionRotate }
func (RotatePublicCertificate) Action() string      { return ActionRotate }
func (RotatePrivateCertificate) Action() string     { return ActionRotate }
func (RotateKVSecret) Action() string               { return ActionRotate }
func (DeleteCredentials) Action() string            { return ActionDeleteCredentials }
func (RevokePrivateCertificate) Action() string     { return ActionRevoke }
func (ValidateDNSChallenge) Action() string         { return ActionValidateDNSChallenge }

func (RotateArbitrarySecret) isSecretAction()        {}
func (RotateUsernamePasswordSecret) isSecretAction() {}
func (RotateCertificate) isSecretAction()            {}
func (RotatePublicCertificate) isSecretAction()      {}
func (RotatePrivateCertificate) isSecretAction()     {}
func (RotateKVSecret) isSecretAction()               {}
func (DeleteCredentials) isSecretAction()            {}
func (RevokePrivateCertificate) isSecretAction()     {}
func (ValidateDNSChallenge) isSecretAction()         {}

// secretActionBody returns the wire body for a and the secret type it
// applies to.
func secretActionBody(a SecretAction) (body any, secretType string, err error) {
	if isNilVariant(a) {
		return nil, "", nil
	}
	switch v := a.(type) {
	case RotateArbitrarySecret:
		return v, SecretTypeArbitrary, nil
	case *RotateArbitrarySecret:
		return secretActionBody(*v)
	case RotateUsernamePasswordSecret:
		return v, SecretTypeUsernamePassword, nil
	case *RotateUsernamePasswordSecret:
		return secretActionBody(*v)
	case RotateCertificate:
		if v.Certificate == "" {
			return nil, "", fmt.Errorf("%w: RotateCertificate requires a certificate", ErrInvalidVariant)
		}
		return v, SecretTypeImportedCert, nil
	case *RotateCertificate:
		return secretActionBody(*v)
	case RotatePublicCertificate:
		return v, SecretTypePublicCert, nil
	case *RotatePublicCertificate:
		return secretActionBody(*v)
	case RotatePrivateCertificate:
		return map[string]any{}, SecretTypePrivateCert, nil
	case *RotatePrivateCertificate:
		return secretActionBody(*v)
	case RotateKVSecret:
		return v, SecretTypeKV, nil
	case *RotateKVSecret:
		return secretActionBody(*v)
	case DeleteCredentials:
		return v, SecretTypeIAMCredentials, nil
	case *DeleteCredentials:
		return secretActionBody(*v)
	case RevokePrivateCertificate:
		return map[string]any{}, SecretTypePrivateCert, nil
	case *RevokePrivateCertificate:
		return secretActionBody(*v)
	case ValidateDNSChallenge:
		return map[string]any{}, SecretTypePublicCert, nil
	case *ValidateDNSChallenge:
		return secretActionBody(*v)
	default:
		return nil, "", fmt.Errorf("%w: unknown secret action %T", ErrInvalidVariant, a)
	}
}

// EngineConfig is the body of PutConfig, keyed by the secret type it configures.
type EngineConfig interface {
	SecretType() string
	isEngineConfig()
}

// IAMCredentialsEngineConfig sets the API key the service uses to create
// IAM credentials.
type IAMCredentialsEngineConfig struct {
	APIKey string `json:"api_key"`
}

// PublicCertEngineConfig sets the certificate authorities and DNS providers
// used to order public certificates.
type PublicCertEngineConfig struct {
	CertificateAuthorities []ConfigElement `json:"certificate_authorities,omitempty"`
	DNSProviders           []ConfigElement `json:"dns_providers,omitempty"`
}

func (IAMCredentialsEngineConfig) SecretType() string { return SecretTypeIAMCredentials }
func (PublicCertEngineConfig) SecretType() string     { return SecretTypePublicCert }

func (IAMCredentialsEngineConfig) isEngineConfig() {}
func (PublicCertEngineConfig) isEngineConfig()     {}

func engineConfigBody(c EngineConfig) (any, error) {
	if isNilVariant(c) {
		return nil, nil
	}
	switch v := c.(type) {
	case IAMCredentialsEngineConfig:
		if v.APIKey == "" {
			return nil, fmt.Errorf("%w: IAMCredentialsEngineConfig requires an api key", ErrInvalidVariant)
		}
		return v, nil
	case *IAMCredentialsEngineConfig:
		return engineConfigBody(*v)
	case PublicCertEngineConfig:
		return v, nil
	case *PublicCertEngineConfig:
		return engineConfigBody(*v)
	default:
		return nil, fmt.Errorf("%w: unknown engine config %T", ErrInvalidVariant, c)
	}
}

// isNilVariant reports a nil interface or a typed nil pointer.
func isNilVariant(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Config element kinds.
const (
	ConfigElementCertificateAuthorities             = "certificate_authorities"
	ConfigElementDNSProviders                       = "dns_providers"
	ConfigElementRootCertificateAuthorities         = "root_certificate_authorities"
	ConfigElementIntermediateCertificateAuthorities = "intermediate_certificate_authorities"
	ConfigElementCertificateTemplates               = "certificate_templates"
)

// Actions accepted by ActionOnConfigElement.
const (
	ConfigActionSignIntermediate   = "sign_intermediate"
	ConfigActionSignCSR            = "sign_csr"
	ConfigActionSetSigned          = "set_signed"
	ConfigActionRevoke             = "revoke"
	ConfigActionRotateCRL          = "rotate_crl"
	ConfigActionRotateIntermediate = "rotate_intermediate"
)
