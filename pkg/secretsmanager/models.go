package secretsmanager

import "time"

// Secret types understood by the service.
const (
	SecretTypeArbitrary        = "arbitrary"
	SecretTypeUsernamePassword = "username_password"
	SecretTypeIAMCredentials   = "iam_credentials"
	SecretTypeImportedCert     = "imported_cert"
	SecretTypePublicCert       = "public_cert"
	SecretTypePrivateCert      = "private_cert"
	SecretTypeKV               = "kv"
)

// Collection media types carried in CollectionMetadata.CollectionType.
const (
	CollectionTypeSecret         = "application/vnd.ibm.secrets-manager.secret+json"
	CollectionTypeSecretGroup    = "application/vnd.ibm.secrets-manager.secret.group+json"
	CollectionTypeSecretPolicy   = "application/vnd.ibm.secrets-manager.secret.policy+json"
	CollectionTypeSecretVersion  = "application/vnd.ibm.secrets-manager.secret.version+json"
	CollectionTypeSecretLock     = "application/vnd.ibm.secrets-manager.secret.lock+json"
	CollectionTypeConfig         = "application/vnd.ibm.secrets-manager.config+json"
	CollectionTypeConfigElement  = "application/vnd.ibm.secrets-manager.config.element+json"
	CollectionTypeNotifications  = "application/vnd.ibm.secrets-manager.notifications.registration+json"
	CollectionTypeSecretMetadata = "application/vnd.ibm.secrets-manager.secret+json"
)

// Pagination bounds for list operations.
const (
	DefaultPageSize = 200
	MaxPageSize     = 5000
)

// CollectionMetadata heads every collection-shaped request and response.
type CollectionMetadata struct {
	CollectionType  string `json:"collection_type"`
	CollectionTotal int    `json:"collection_total"`
}

// NewMetadata returns collection metadata for n resources of kind.
func NewMetadata(kind string, n int) CollectionMetadata {
	return CollectionMetadata{CollectionType: kind, CollectionTotal: n}
}

// SecretResource is the union of fields across secret types. Fields the
// server does not return for a given type stay empty.
type SecretResource struct {
	ID                  string          `json:"id,omitempty"`
	Name                string          `json:"name,omitempty"`
	Description         string          `json:"description,omitempty"`
	SecretGroupID       string          `json:"secret_group_id,omitempty"`
	Labels              []string        `json:"labels,omitempty"`
	State               *int            `json:"state,omitempty"`
	StateDescription    string          `json:"state_description,omitempty"`
	SecretType          string          `json:"secret_type,omitempty"`
	CRN                 string          `json:"crn,omitempty"`
	CreationDate        *time.Time      `json:"creation_date,omitempty"`
	CreatedBy           string          `json:"created_by,omitempty"`
	LastUpdateDate      *time.Time      `json:"last_update_date,omitempty"`
	VersionsTotal       int             `json:"versions_total,omitempty"`
	Versions            []SecretVersion `json:"versions,omitempty"`
	ExpirationDate      *time.Time      `json:"expiration_date,omitempty"`
	Payload             any             `json:"payload,omitempty"`
	SecretData          map[string]any  `json:"secret_data,omitempty"`
	Username            string          `json:"username,omitempty"`
	Password            string          `json:"password,omitempty"`
	TTL                 any             `json:"ttl,omitempty"`
	AccessGroups        []string        `json:"access_groups,omitempty"`
	ServiceID           string          `json:"service_id,omitempty"`
	ReuseAPIKey         *bool           `json:"reuse_api_key,omitempty"`
	Certificate         string          `json:"certificate,omitempty"`
	PrivateKey          string          `json:"private_key,omitempty"`
	Intermediate        string          `json:"intermediate,omitempty"`
	CommonName          string          `json:"common_name,omitempty"`
	AltNames            []string        `json:"alt_names,omitempty"`
	KeyAlgorithm        string          `json:"key_algorithm,omitempty"`
	CA                  string          `json:"ca,omitempty"`
	DNS                 string          `json:"dns,omitempty"`
	CertificateTemplate string          `json:"certificate_template,omitempty"`
	Rotation            *Rotation       `json:"rotation,omitempty"`
	LocksTotal          *int            `json:"locks_total,omitempty"`
}

// Rotation is the auto-rotation setting carried on certificate secrets.
type Rotation struct {
	AutoRotate bool `json:"auto_rotate"`
	RotateKeys bool `json:"rotate_keys"`
}

// SecretVersion is one version entry of a secret.
type SecretVersion struct {
	ID               string         `json:"id,omitempty"`
	VersionID        string         `json:"version_id,omitempty"`
	CreationDate     *time.Time     `json:"creation_date,omitempty"`
	CreatedBy        string         `json:"created_by,omitempty"`
	AutoRotated      *bool          `json:"auto_rotated,omitempty"`
	PayloadAvailable *bool          `json:"payload_available,omitempty"`
	Downloaded       *bool          `json:"downloaded,omitempty"`
	Payload          any            `json:"payload,omitempty"`
	SecretData       map[string]any `json:"secret_data,omitempty"`
	ExpirationDate   *time.Time     `json:"expiration_date,omitempty"`
	LocksTotal       *int           `json:"locks_total,omitempty"`
}

// SecretMetadata is the metadata-only view of a secret.
type SecretMetadata struct {
	ID               string     `json:"id,omitempty"`
	Name             string     `json:"name,omitempty"`
	Description      string     `json:"description,omitempty"`
	Labels           []string   `json:"labels,omitempty"`
	SecretType       string     `json:"secret_type,omitempty"`
	SecretGroupID    string     `json:"secret_group_id,omitempty"`
	State            *int       `json:"state,omitempty"`
	StateDescription string     `json:"state_description,omitempty"`
	CRN              string     `json:"crn,omitempty"`
	CreationDate     *time.Time `json:"creation_date,omitempty"`
	LastUpdateDate   *time.Time `json:"last_update_date,omitempty"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
	TTL              any        `json:"ttl,omitempty"`
	VersionsTotal    int        `json:"versions_total,omitempty"`
}

// SecretGroupResource is one secret group.
type SecretGroupResource struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name,omitempty"`
	Description    string     `json:"description,omitempty"`
	CreationDate   *time.Time `json:"creation_date,omitempty"`
	LastUpdateDate *time.Time `json:"last_update_date,omitempty"`
	Type           string     `json:"type,omitempty"`
}

// Collection is the {metadata, resources} shape used by requests and responses.
type Collection[R any] struct {
	Metadata  CollectionMetadata `json:"metadata"`
	Resources []R                `json:"resources"`
}

type (
	SecretCollection         = Collection[SecretResource]
	SecretGroupCollection    = Collection[SecretGroupResource]
	SecretMetadataCollection = Collection[SecretMetadata]
	SecretVersionCollection  = Collection[SecretVersion]
	PolicyCollection         = Collection[RotationPolicy]
	ConfigCollection         = Collection[map[string]any]
	ConfigElementCollection  = Collection[ConfigElement]
	LocksCollection          = Collection[SecretLocks]
	NotificationsCollection  = Collection[NotificationsRegistration]
)

// RotationPolicy is a secret's rotation policy resource.
type RotationPolicy struct {
	ID             string          `json:"id,omitempty"`
	CRN            string          `json:"crn,omitempty"`
	CreationDate   *time.Time      `json:"creation_date,omitempty"`
	LastUpdateDate *time.Time      `json:"last_update_date,omitempty"`
	Type           string          `json:"type,omitempty"`
	Rotation       *RotationPeriod `json:"rotation,omitempty"`
}

// RotationPeriod describes how often a secret rotates, e.g. {Interval: 30, Unit: "day"}.
type RotationPeriod struct {
	Interval   int    `json:"interval,omitempty"`
	Unit       string `json:"unit,omitempty"`
	AutoRotate *bool  `json:"auto_rotate,omitempty"`
	RotateKeys *bool  `json:"rotate_keys,omitempty"`
}

// ConfigElement is one engine configuration element, e.g. a certificate
// authority or DNS provider for public certificates.
type ConfigElement struct {
	Name   string         `json:"name"`
	Type   string         `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}

// LockData is one lock placed on a secret version.
type LockData struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	CreationDate   *time.Time     `json:"creation_date,omitempty"`
	LastUpdateDate *time.Time     `json:"last_update_date,omitempty"`
}

// SecretLocks lists the locks of one secret (and its versions).
type SecretLocks struct {
	SecretID      string         `json:"secret_id,omitempty"`
	SecretGroupID string         `json:"secret_group_id,omitempty"`
	SecretType    string         `json:"secret_type,omitempty"`
	Versions      []VersionLocks `json:"versions,omitempty"`
	Locks         []LockData     `json:"locks,omitempty"`
}

// VersionLocks lists the locks of one secret version.
type VersionLocks struct {
	VersionID    string     `json:"version_id,omitempty"`
	VersionAlias string     `json:"version_alias,omitempty"`
	Locks        []LockData `json:"locks,omitempty"`
}

// Lock modes for LockSecret and LockSecretVersion.
const (
	LockModeExclusive       = "exclusive"
	LockModeExclusiveDelete = "exclusive_delete"
)

// NotificationsRegistration is the Event Notifications registration of an instance.
type NotificationsRegistration struct {
	EventNotificationsInstanceCrn string `json:"event_notifications_instance_crn"`
}

// Policy kinds accepted by GetPolicy and PutPolicy.
const PolicyRotation = "rotation"
