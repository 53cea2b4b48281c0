package secretsmanager

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

var (
	// ErrUnsupportedOperation is returned for operation IDs that the selected
	// API generation does not expose. Nothing is sent.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrInvalidVariant is returned when a SecretAction or EngineConfig cannot
	// be turned into a request body. Nothing is sent.
	ErrInvalidVariant = errors.New("invalid variant")
)

// Generation selects which revision of the API surface a Service exposes.
type Generation string

const (
	// GenerationCurrent is the full, authoritative surface.
	GenerationCurrent Generation = "current"
	// GenerationLegacy is the older client surface: groups, secrets,
	// metadata, policies and engine config only.
	GenerationLegacy Generation = "legacy"
)

// ParseGeneration maps a config string to a Generation. Empty means current.
func ParseGeneration(s string) (Generation, error) {
	switch Generation(strings.ToLower(strings.TrimSpace(s))) {
	case "", GenerationCurrent:
		return GenerationCurrent, nil
	case GenerationLegacy:
		return GenerationLegacy, nil
	default:
		return "", fmt.Errorf("unknown api generation %q", s)
	}
}

const apiRoot = "/api/v1"

func pathParam(name, wire string) operation.Param {
	return operation.Param{Name: name, Wire: wire, In: operation.InPath, Required: true}
}

func queryParam(name, wire string, required bool) operation.Param {
	return operation.Param{Name: name, Wire: wire, In: operation.InQuery, Required: required}
}

func bodyParam(name, wire string, required bool) operation.Param {
	return operation.Param{Name: name, Wire: wire, In: operation.InBody, Required: required}
}

var (
	pSecretType    = pathParam("secretType", "secret_type")
	pID            = pathParam("id", "id")
	pVersionID     = pathParam("versionId", "version_id")
	pConfigElement = pathParam("configElement", "config_element")
	pConfigName    = pathParam("configName", "config_name")

	qLimit  = queryParam("limit", "limit", false)
	qOffset = queryParam("offset", "offset", false)
	qSearch = queryParam("search", "search", false)
	qSortBy = queryParam("sortBy", "sort_by", false)
	qGroups = queryParam("groups", "groups", false)
	qPolicy = queryParam("policy", "policy", false)
	qMode   = queryParam("mode", "mode", false)

	bMetadata  = bodyParam("metadata", "metadata", true)
	bResources = bodyParam("resources", "resources", true)
)

// Secret groups.
var (
	CreateSecretGroup = operation.Spec{
		ID: "CreateSecretGroup", Method: http.MethodPost, Path: apiRoot + "/secret_groups",
		Params: []operation.Param{bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	ListSecretGroups = operation.Spec{
		ID: "ListSecretGroups", Method: http.MethodGet, Path: apiRoot + "/secret_groups",
		Accept: operation.MediaJSON,
	}
	GetSecretGroup = operation.Spec{
		ID: "GetSecretGroup", Method: http.MethodGet, Path: apiRoot + "/secret_groups/{id}",
		Params: []operation.Param{pID},
		Accept: operation.MediaJSON,
	}
	UpdateSecretGroupMetadata = operation.Spec{
		ID: "UpdateSecretGroupMetadata", Method: http.MethodPut, Path: apiRoot + "/secret_groups/{id}",
		Params: []operation.Param{pID, bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	DeleteSecretGroup = operation.Spec{
		ID: "DeleteSecretGroup", Method: http.MethodDelete, Path: apiRoot + "/secret_groups/{id}",
		Params: []operation.Param{pID},
	}
)

// Secrets.
var (
	CreateSecret = operation.Spec{
		ID: "CreateSecret", Method: http.MethodPost, Path: apiRoot + "/secrets/{secret_type}",
		Params: []operation.Param{pSecretType, bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	ListSecrets = operation.Spec{
		ID: "ListSecrets", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}",
		Params: []operation.Param{pSecretType, qLimit, qOffset},
		Accept: operation.MediaJSON,
	}
	ListAllSecrets = operation.Spec{
		ID: "ListAllSecrets", Method: http.MethodGet, Path: apiRoot + "/secrets",
		Params: []operation.Param{qLimit, qOffset, qSearch, qSortBy, qGroups},
		Accept: operation.MediaJSON,
	}
	GetSecret = operation.Spec{
		ID: "GetSecret", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}",
		Params: []operation.Param{pSecretType, pID},
		Accept: operation.MediaJSON,
	}
	UpdateSecret = operation.Spec{
		ID: "UpdateSecret", Method: http.MethodPost, Path: apiRoot + "/secrets/{secret_type}/{id}",
		Params: []operation.Param{
			pSecretType, pID,
			queryParam("action", "action", true),
			bodyParam("secretAction", "secret_action", true),
		},
		Body: operation.BodyPassThrough, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	DeleteSecret = operation.Spec{
		ID: "DeleteSecret", Method: http.MethodDelete, Path: apiRoot + "/secrets/{secret_type}/{id}",
		Params: []operation.Param{pSecretType, pID},
	}
)

// Secret versions and metadata.
var (
	ListSecretVersions = operation.Spec{
		ID: "ListSecretVersions", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}/versions",
		Params: []operation.Param{pSecretType, pID},
		Accept: operation.MediaJSON,
	}
	GetSecretVersion = operation.Spec{
		ID: "GetSecretVersion", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}/versions/{version_id}",
		Params: []operation.Param{pSecretType, pID, pVersionID},
		Accept: operation.MediaJSON,
	}
	UpdateSecretVersion = operation.Spec{
		ID: "UpdateSecretVersion", Method: http.MethodPost, Path: apiRoot + "/secrets/{secret_type}/{id}/versions/{version_id}",
		Params: []operation.Param{pSecretType, pID, pVersionID, queryParam("action", "action", true)},
		Accept: operation.MediaJSON,
	}
	GetSecretVersionMetadata = operation.Spec{
		ID: "GetSecretVersionMetadata", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}/versions/{version_id}/metadata",
		Params: []operation.Param{pSecretType, pID, pVersionID},
		Accept: operation.MediaJSON,
	}
	UpdateSecretVersionMetadata = operation.Spec{
		ID: "UpdateSecretVersionMetadata", Method: http.MethodPut, Path: apiRoot + "/secrets/{secret_type}/{id}/versions/{version_id}/metadata",
		Params: []operation.Param{pSecretType, pID, pVersionID, bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	GetSecretMetadata = operation.Spec{
		ID: "GetSecretMetadata", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}/metadata",
		Params: []operation.Param{pSecretType, pID},
		Accept: operation.MediaJSON,
	}
	UpdateSecretMetadata = operation.Spec{
		ID: "UpdateSecretMetadata", Method: http.MethodPut, Path: apiRoot + "/secrets/{secret_type}/{id}/metadata",
		Params: []operation.Param{pSecretType, pID, bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
)

// Policies.
var (
	GetPolicy = operation.Spec{
		ID: "GetPolicy", Method: http.MethodGet, Path: apiRoot + "/secrets/{secret_type}/{id}/policies",
		Params: []operation.Param{pSecretType, pID, qPolicy},
		Accept: operation.MediaJSON,
	}
	PutPolicy = operation.Spec{
		ID: "PutPolicy", Method: http.MethodPut, Path: apiRoot + "/secrets/{secret_type}/{id}/policies",
		Params: []operation.Param{pSecretType, pID, qPolicy, bMetadata, bResources},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
)

// Engine configuration and config elements.
var (
	GetConfig = operation.Spec{
		ID: "GetConfig", Method: http.MethodGet, Path: apiRoot + "/config/{secret_type}",
		Params: []operation.Param{pSecretType},
		Accept: operation.MediaJSON,
	}
	PutConfig = operation.Spec{
		ID: "PutConfig", Method: http.MethodPut, Path: apiRoot + "/config/{secret_type}",
		Params: []operation.Param{pSecretType, bodyParam("engineConfig", "engine_config", true)},
		Body:   operation.BodyPassThrough, ContentType: operation.MediaJSON,
	}
	CreateConfigElement = operation.Spec{
		ID: "CreateConfigElement", Method: http.MethodPost, Path: apiRoot + "/config/{secret_type}/{config_element}",
		Params: []operation.Param{
			pSecretType, pConfigElement,
			bodyParam("name", "name", true),
			bodyParam("type", "type", true),
			bodyParam("config", "config", true),
		},
		Body: operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	GetConfigElements = operation.Spec{
		ID: "GetConfigElements", Method: http.MethodGet, Path: apiRoot + "/config/{secret_type}/{config_element}",
		Params: []operation.Param{pSecretType, pConfigElement},
		Accept: operation.MediaJSON,
	}
	GetConfigElement = operation.Spec{
		ID: "GetConfigElement", Method: http.MethodGet, Path: apiRoot + "/config/{secret_type}/{config_element}/{config_name}",
		Params: []operation.Param{pSecretType, pConfigElement, pConfigName},
		Accept: operation.MediaJSON,
	}
	UpdateConfigElement = operation.Spec{
		ID: "UpdateConfigElement", Method: http.MethodPut, Path: apiRoot + "/config/{secret_type}/{config_element}/{config_name}",
		Params: []operation.Param{
			pSecretType, pConfigElement, pConfigName,
			bodyParam("type", "type", true),
			bodyParam("config", "config", true),
		},
		Body: operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	ActionOnConfigElement = operation.Spec{
		ID: "ActionOnConfigElement", Method: http.MethodPost, Path: apiRoot + "/config/{secret_type}/{config_element}/{config_name}",
		Params: []operation.Param{
			pSecretType, pConfigElement, pConfigName,
			queryParam("action", "action", true),
			bodyParam("config", "config", false),
		},
		Body: operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	DeleteConfigElement = operation.Spec{
		ID: "DeleteConfigElement", Method: http.MethodDelete, Path: apiRoot + "/config/{secret_type}/{config_element}/{config_name}",
		Params: []operation.Param{pSecretType, pConfigElement, pConfigName},
	}
)

// Locks.
var (
	GetLocks = operation.Spec{
		ID: "GetLocks", Method: http.MethodGet, Path: apiRoot + "/locks/{secret_type}/{id}",
		Params: []operation.Param{pSecretType, pID, qLimit, qOffset, qSearch},
		Accept: operation.MediaJSON,
	}
	LockSecret = operation.Spec{
		ID: "LockSecret", Method: http.MethodPost, Path: apiRoot + "/locks/{secret_type}/{id}/lock",
		Params: []operation.Param{pSecretType, pID, qMode, bodyParam("locks", "locks", false)},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	UnlockSecret = operation.Spec{
		ID: "UnlockSecret", Method: http.MethodPost, Path: apiRoot + "/locks/{secret_type}/{id}/unlock",
		Params: []operation.Param{pSecretType, pID, bodyParam("locks", "locks", false)},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	GetSecretVersionLocks = operation.Spec{
		ID: "GetSecretVersionLocks", Method: http.MethodGet, Path: apiRoot + "/locks/{secret_type}/{id}/versions/{version_id}",
		Params: []operation.Param{pSecretType, pID, pVersionID, qLimit, qOffset, qSearch},
		Accept: operation.MediaJSON,
	}
	LockSecretVersion = operation.Spec{
		ID: "LockSecretVersion", Method: http.MethodPost, Path: apiRoot + "/locks/{secret_type}/{id}/versions/{version_id}/lock",
		Params: []operation.Param{pSecretType, pID, pVersionID, qMode, bodyParam("locks", "locks", false)},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	UnlockSecretVersion = operation.Spec{
		ID: "UnlockSecretVersion", Method: http.MethodPost, Path: apiRoot + "/locks/{secret_type}/{id}/versions/{version_id}/unlock",
		Params: []operation.Param{pSecretType, pID, pVersionID, bodyParam("locks", "locks", false)},
		Body:   operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	GetInstanceSecretsLocks = operation.Spec{
		ID: "GetInstanceSecretsLocks", Method: http.MethodGet, Path: apiRoot + "/locks",
		Params: []operation.Param{qLimit, qOffset, qSearch, qGroups},
		Accept: operation.MediaJSON,
	}
)

// Event Notifications.
var (
	CreateNotificationsRegistration = operation.Spec{
		ID: "CreateNotificationsRegistration", Method: http.MethodPost, Path: apiRoot + "/notifications/registration",
		Params: []operation.Param{
			bodyParam("eventNotificationsInstanceCrn", "event_notifications_instance_crn", true),
			bodyParam("eventNotificationsSourceName", "event_notifications_source_name", true),
			bodyParam("eventNotificationsSourceDescription", "event_notifications_source_description", false),
		},
		Body: operation.BodyFields, Accept: operation.MediaJSON, ContentType: operation.MediaJSON,
	}
	GetNotificationsRegistration = operation.Spec{
		ID: "GetNotificationsRegistration", Method: http.MethodGet, Path: apiRoot + "/notifications/registration",
		Accept: operation.MediaJSON,
	}
	DeleteNotificationsRegistration = operation.Spec{
		ID: "DeleteNotificationsRegistration", Method: http.MethodDelete, Path: apiRoot + "/notifications/registration",
	}
	SendTestNotification = operation.Spec{
		ID: "SendTestNotification", Method: http.MethodGet, Path: apiRoot + "/notifications/test",
	}
)

var currentTable = []operation.Spec{
	CreateSecretGroup, ListSecretGroups, GetSecretGroup, UpdateSecretGroupMetadata, DeleteSecretGroup,
	CreateSecret, ListSecrets, ListAllSecrets, GetSecret, UpdateSecret, DeleteSecret,
	ListSecretVersions, GetSecretVersion, UpdateSecretVersion, GetSecretVersionMetadata, UpdateSecretVersionMetadata,
	GetSecretMetadata, UpdateSecretMetadata,
	GetPolicy, PutPolicy,
	GetConfig, PutConfig,
	CreateConfigElement, GetConfigElements, GetConfigElement, UpdateConfigElement, ActionOnConfigElement, DeleteConfigElement,
	GetLocks, LockSecret, UnlockSecret, GetSecretVersionLocks, LockSecretVersion, UnlockSecretVersion, GetInstanceSecretsLocks,
	CreateNotificationsRegistration, GetNotificationsRegistration, DeleteNotificationsRegistration, SendTestNotification,
}

var legacyTable = []operation.Spec{
	CreateSecretGroup, ListSecretGroups, GetSecretGroup, UpdateSecretGroupMetadata, DeleteSecretGroup,
	CreateSecret, ListSecrets, ListAllSecrets, GetSecret, UpdateSecret, DeleteSecret,
	GetSecretMetadata, UpdateSecretMetadata,
	GetPolicy, PutPolicy,
	GetConfig, PutConfig,
}

var tableIndex = map[Generation]map[string]operation.Spec{
	GenerationCurrent: indexTable(currentTable),
	GenerationLegacy:  indexTable(legacyTable),
}

func indexTable(specs []operation.Spec) map[string]operation.Spec {
	m := make(map[string]operation.Spec, len(specs))
	for _, s := range specs {
		if _, dup := m[s.ID]; dup {
			panic("secretsmanager: duplicate operation " + s.ID)
		}
		m[s.ID] = s
	}
	return m
}

// Operations returns the operation table of gen in declaration order.
// The returned slice is a copy.
func Operations(gen Generation) []operation.Spec {
	switch gen {
	case GenerationLegacy:
		return append([]operation.Spec(nil), legacyTable...)
	default:
		return append([]operation.Spec(nil), currentTable...)
	}
}

// Lookup finds an operation by ID in gen.
func Lookup(gen Generation, id string) (operation.Spec, error) {
	idx, ok := tableIndex[gen]
	if !ok {
		idx = tableIndex[GenerationCurrent]
	}
	spec, ok := idx[id]
	if !ok {
		return operation.Spec{}, fmt.Errorf("%w: %s is not available in the %s api", ErrUnsupportedOperation, id, gen)
	}
	return spec, nil
}
