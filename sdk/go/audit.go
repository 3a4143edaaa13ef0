package wsdecksdk

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceTypeAPIKey          ResourceType = "api_key"
	ResourceTypeGitSSHKey       ResourceType = "git_ssh_key"
	ResourceTypeGroup           ResourceType = "group"
	ResourceTypeOrganization    ResourceType = "organization"
	ResourceTypeTemplate        ResourceType = "template"
	ResourceTypeTemplateVersion ResourceType = "template_version"
	ResourceTypeUser            ResourceType = "user"
	ResourceTypeWorkspace       ResourceType = "workspace"
	ResourceTypeWorkspaceBuild  ResourceType = "workspace_build"
)

var ResourceTypes = []ResourceType{
	ResourceTypeAPIKey,
	ResourceTypeGitSSHKey,
	ResourceTypeGroup,
	ResourceTypeOrganization,
	ResourceTypeTemplate,
	ResourceTypeTemplateVersion,
	ResourceTypeUser,
	ResourceTypeWorkspace,
	ResourceTypeWorkspaceBuild,
}

func (r ResourceType) Valid() bool { return slices.Contains(ResourceTypes, r) }

func (r ResourceType) MarshalText() ([]byte, error) {
	return marshalEnum("ResourceType", r, ResourceTypes)
}

func (r *ResourceType) UnmarshalText(b []byte) error {
	return unmarshalEnum("ResourceType", b, ResourceTypes, r)
}

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionDelete AuditAction = "delete"
	AuditActionStart  AuditAction = "start"
	AuditActionStop   AuditAction = "stop"
	AuditActionWrite  AuditAction = "write"
)

var AuditActions = []AuditAction{AuditActionCreate, AuditActionDelete, AuditActionStart, AuditActionStop, AuditActionWrite}

func (a AuditAction) Valid() bool { return slices.Contains(AuditActions, a) }

func (a AuditAction) MarshalText() ([]byte, error) {
	return marshalEnum("AuditAction", a, AuditActions)
}

func (a *AuditAction) UnmarshalText(b []byte) error {
	return unmarshalEnum("AuditAction", b, AuditActions, a)
}

// AuditDiff maps a changed field name to its before/after values.
type AuditDiff map[string]AuditDiffField

// AuditDiffField values are arbitrary JSON and are never interpreted.
type AuditDiffField struct {
	Old    json.RawMessage `json:"old,omitempty"`
	New    json.RawMessage `json:"new,omitempty"`
	Secret bool            `json:"secret"`
}

type AuditLog struct {
	ID             uuid.UUID `json:"id" format:"uuid"`
	RequestID      uuid.UUID `json:"request_id" format:"uuid"`
	Time           time.Time `json:"time" format:"date-time"`
	OrganizationID uuid.UUID `json:"organization_id" format:"uuid"`
	// IP is opaque; the service serializes a netip.Addr here.
	IP               json.RawMessage   `json:"ip"`
	UserAgent        string            `json:"user_agent"`
	ResourceType     ResourceType      `json:"resource_type"`
	ResourceID       uuid.UUID         `json:"resource_id" format:"uuid"`
	ResourceTarget   string            `json:"resource_target"`
	ResourceIcon     string            `json:"resource_icon"`
	Action           AuditAction       `json:"action"`
	Diff             AuditDiff         `json:"diff"`
	StatusCode       int32             `json:"status_code"`
	AdditionalFields map[string]string `json:"additional_fields"`
	Description      string            `json:"description"`
	User             *User             `json:"user,omitempty"`
}

type AuditLogsRequest struct {
	Pagination
	SearchQuery *string `json:"q,omitempty"`
}

// QueryParams returns the pagination envelope followed by the search query.
func (r AuditLogsRequest) QueryParams() QueryParams {
	return r.Pagination.QueryParams().addString("q", r.SearchQuery)
}

type AuditLogResponse struct {
	AuditLogs []AuditLog `json:"audit_logs"`
}

type AuditLogCountRequest struct {
	SearchQuery *string `json:"q,omitempty"`
}

func (r AuditLogCountRequest) QueryParams() QueryParams {
	return QueryParams{}.addString("q", r.SearchQuery)
}

type AuditLogCountResponse struct {
	Count int64 `json:"count"`
}

// CreateTestAuditLogRequest inserts a synthetic entry; every field is optional.
type CreateTestAuditLogRequest struct {
	Action       *AuditAction  `json:"action,omitempty"`
	ResourceType *ResourceType `json:"resource_type,omitempty"`
	ResourceID   *uuid.UUID    `json:"resource_id,omitempty" format:"uuid"`
	Time         *time.Time    `json:"time,omitempty" format:"date-time"`
}
