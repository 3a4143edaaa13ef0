package wsdecksdk

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Workspace is a user's instance of a template. AutostartSchedule and TTLMillis
// are absent when unset, which is distinct from an empty schedule or a zero TTL.
type Workspace struct {
	ID                  uuid.UUID      `json:"id" format:"uuid"`
	CreatedAt           time.Time      `json:"created_at" format:"date-time"`
	UpdatedAt           time.Time      `json:"updated_at" format:"date-time"`
	OwnerID             uuid.UUID      `json:"owner_id" format:"uuid"`
	OwnerName           string         `json:"owner_name"`
	TemplateID          uuid.UUID      `json:"template_id" format:"uuid"`
	TemplateName        string         `json:"template_name"`
	TemplateDisplayName string         `json:"template_display_name"`
	TemplateIcon        string         `json:"template_icon"`
	LatestBuild         WorkspaceBuild `json:"latest_build"`
	Outdated            bool           `json:"outdated"`
	Name                string         `json:"name"`
	AutostartSchedule   *string        `json:"autostart_schedule,omitempty"`
	TTLMillis           *int64         `json:"ttl_ms,omitempty"`
	LastUsedAt          time.Time      `json:"last_used_at" format:"date-time"`
}

type WorkspacesRequest struct {
	Pagination
	SearchQuery *string `json:"q,omitempty"`
}

func (r WorkspacesRequest) QueryParams() QueryParams {
	return r.Pagination.QueryParams().addString("q", r.SearchQuery)
}

type WorkspacesResponse struct {
	Workspaces []Workspace `json:"workspaces"`
	Count      int         `json:"count"`
}

// WorkspaceBuildsRequest lists builds of one workspace. The JSON names of
// WorkspaceID and Since are capitalized on the wire and are kept that way.
type WorkspaceBuildsRequest struct {
	Pagination
	WorkspaceID uuid.UUID `json:"WorkspaceID" format:"uuid"`
	Since       time.Time `json:"Since" format:"date-time"`
}

// QueryParams returns the envelope followed by since. WorkspaceID is carried in
// the request path.
func (r WorkspaceBuildsRequest) QueryParams() QueryParams {
	return r.Pagination.QueryParams().addTime("since", r.Since)
}

type WorkspaceFilter struct {
	FilterQuery *string `json:"q,omitempty"`
}

func (f WorkspaceFilter) QueryParams() QueryParams {
	return QueryParams{}.addString("q", f.FilterQuery)
}

type WorkspaceOptions struct {
	IncludeDeleted *bool `json:"include_deleted,omitempty"`
}

func (o WorkspaceOptions) QueryParams() QueryParams {
	return QueryParams{}.addBool("include_deleted", o.IncludeDeleted)
}

type UpdateWorkspaceRequest struct {
	Name *string `json:"name,omitempty"`
}

// UpdateWorkspaceTTLRequest clears the TTL when TTLMillis is absent.
type UpdateWorkspaceTTLRequest struct {
	TTLMillis *int64 `json:"ttl_ms,omitempty"`
}

// UpdateWorkspaceAutostartRequest clears the schedule when Schedule is absent.
type UpdateWorkspaceAutostartRequest struct {
	Schedule *string `json:"schedule,omitempty"`
}

type PutExtendWorkspaceRequest struct {
	Deadline time.Time `json:"deadline" format:"date-time"`
}

type GetAppHostResponse struct {
	Host string `json:"host"`
}

// FormatTTL renders an optional TTL for display.
func FormatTTL(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return (time.Duration(*ms) * time.Millisecond).String()
}

// ParseTTL accepts a Go duration or a bare number of milliseconds.
func ParseTTL(raw string) (int64, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d.Milliseconds(), nil
}
