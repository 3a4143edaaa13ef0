package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Template is the parent of a set of versions; workspaces are created from its
// active version.
type Template struct {
	ID                  uuid.UUID              `json:"id" format:"uuid"`
	CreatedAt           time.Time              `json:"created_at" format:"date-time"`
	UpdatedAt           time.Time              `json:"updated_at" format:"date-time"`
	OrganizationID      uuid.UUID              `json:"organization_id" format:"uuid"`
	Name                string                 `json:"name"`
	DisplayName         string                 `json:"display_name"`
	Provisioner         ProvisionerType        `json:"provisioner"`
	ActiveVersionID     uuid.UUID              `json:"active_version_id" format:"uuid"`
	WorkspaceOwnerCount uint32                 `json:"workspace_owner_count"`
	ActiveUserCount     int                    `json:"active_user_count"`
	BuildTimeStats      TemplateBuildTimeStats `json:"build_time_stats"`
	Description         string                 `json:"description"`
	Icon                string                 `json:"icon"`
	DefaultTTLMillis    int64                  `json:"default_ttl_ms"`
	CreatedByID         uuid.UUID              `json:"created_by_id" format:"uuid"`
	CreatedByName       string                 `json:"created_by_name"`
}

// TemplateBuildTimeStats holds median build durations per transition. A
// transition that never completed has no entry.
type TemplateBuildTimeStats struct {
	StartMillis  *int64 `json:"start_ms,omitempty"`
	StopMillis   *int64 `json:"stop_ms,omitempty"`
	DeleteMillis *int64 `json:"delete_ms,omitempty"`
}

// ForTransition returns the median for t, or nil.
func (s TemplateBuildTimeStats) ForTransition(t WorkspaceTransition) *int64 {
	switch t {
	case WorkspaceTransitionStart:
		return s.StartMillis
	case WorkspaceTransitionStop:
		return s.StopMillis
	case WorkspaceTransitionDelete:
		return s.DeleteMillis
	}
	return nil
}

type TemplateRole string

const (
	TemplateRoleAdmin   TemplateRole = "admin"
	TemplateRoleUse     TemplateRole = "use"
	TemplateRoleDeleted TemplateRole = ""
)

var TemplateRoles = []TemplateRole{TemplateRoleDeleted, TemplateRoleAdmin, TemplateRoleUse}

func (r TemplateRole) Valid() bool { return slices.Contains(TemplateRoles, r) }

func (r TemplateRole) MarshalText() ([]byte, error) {
	return marshalEnum("TemplateRole", r, TemplateRoles)
}

func (r *TemplateRole) UnmarshalText(b []byte) error {
	return unmarshalEnum("TemplateRole", b, TemplateRoles, r)
}

type TemplateACL struct {
	Users  []TemplateUser  `json:"users"`
	Groups []TemplateGroup `json:"group"`
}

type TemplateUser struct {
	User
	Role TemplateRole `json:"role"`
}

type TemplateGroup struct {
	Group
	Role TemplateRole `json:"role"`
}

// UpdateTemplateACL grants or revokes access. The empty role removes an entry.
type UpdateTemplateACL struct {
	UserPerms  map[string]TemplateRole `json:"user_perms,omitzero"`
	GroupPerms map[string]TemplateRole `json:"group_perms,omitzero"`
}

// UpdateTemplateMeta patches a template. Absent fields are left unchanged;
// DefaultTTLMillis set to zero disables the default.
type UpdateTemplateMeta struct {
	Name             *string `json:"name,omitempty"`
	DisplayName      *string `json:"display_name,omitempty"`
	Description      *string `json:"description,omitempty"`
	Icon             *string `json:"icon,omitempty"`
	DefaultTTLMillis *int64  `json:"default_ttl_ms,omitempty"`
}

type UpdateActiveTemplateVersion struct {
	ID uuid.UUID `json:"id" format:"uuid"`
}

type TemplateDAUsResponse struct {
	Entries []DAUEntry `json:"entries"`
}

type DAUEntry struct {
	Date   time.Time `json:"date" format:"date-time"`
	Amount int       `json:"amount"`
}

type AgentStatsReportResponse struct {
	NumConns int64 `json:"num_comms"`
	RxBytes  int64 `json:"rx_bytes"`
	TxBytes  int64 `json:"tx_bytes"`
}

type TemplateVersionsByTemplateRequest struct {
	Pagination
	TemplateID uuid.UUID `json:"template_id" format:"uuid"`
}

// QueryParams returns the pagination envelope followed by template_id.
func (r TemplateVersionsByTemplateRequest) QueryParams() QueryParams {
	return append(r.Pagination.QueryParams(), QueryParam{Key: "template_id", Value: r.TemplateID.String()})
}
