package wsdecksdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionTokenHeader carries the session token on every authenticated request.
const SessionTokenHeader = "Coder-Session-Token"

// Me stands in for the caller's user id in paths.
const Me = "me"

// Client is a typed HTTP client for the workspace API. Every reply is checked
// against the contract before it is returned.
type Client struct {
	URL          *url.URL
	SessionToken string
	BearerToken  string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// New creates a client with sane defaults.
func New(serverURL *url.URL) *Client {
	return &Client{
		URL:     serverURL,
		Timeout: 30 * time.Second,
	}
}

// BuildInfo returns the deployment version. It does not require a session.
func (c *Client) BuildInfo(ctx context.Context) (BuildInfoResponse, error) {
	return call[BuildInfoResponse](ctx, c, http.MethodGet, "/api/v2/buildinfo", nil)
}

// CreateFirstUser bootstraps an empty deployment with its owner and default
// organization.
func (c *Client) CreateFirstUser(ctx context.Context, req CreateFirstUserRequest) (CreateFirstUserResponse, error) {
	return call[CreateFirstUserResponse](ctx, c, http.MethodPost, "/api/v2/users/first", req)
}

// LoginWithPassword exchanges credentials for a session token. The token is not
// stored on the client.
func (c *Client) LoginWithPassword(ctx context.Context, req LoginWithPasswordRequest) (LoginWithPasswordResponse, error) {
	return call[LoginWithPasswordResponse](ctx, c, http.MethodPost, "/api/v2/users/login", req)
}

// User returns a user by id, username or Me.
func (c *Client) User(ctx context.Context, user string) (User, error) {
	return call[User](ctx, c, http.MethodGet, "/api/v2/users/"+url.PathEscape(user), nil)
}

func (c *Client) Users(ctx context.Context, req UsersRequest) (GetUsersResponse, error) {
	return call[GetUsersResponse](ctx, c, http.MethodGet, withQuery("/api/v2/users", req.QueryParams()), nil)
}

func (c *Client) Organization(ctx context.Context, id uuid.UUID) (Organization, error) {
	return call[Organization](ctx, c, http.MethodGet, "/api/v2/organizations/"+id.String(), nil)
}

// Upload stores a template source file and returns its id.
func (c *Client) Upload(ctx context.Context, contentType string, content io.Reader) (UploadResponse, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return UploadResponse{}, fmt.Errorf("read upload: %w", err)
	}
	res, err := c.request(ctx, http.MethodPost, "/api/v2/files", contentType, data)
	if err != nil {
		return UploadResponse{}, err
	}
	return readResponse[UploadResponse](res)
}

func (c *Client) CreateTemplateVersion(ctx context.Context, org uuid.UUID, req CreateTemplateVersionRequest) (TemplateVersion, error) {
	return call[TemplateVersion](ctx, c, http.MethodPost, "/api/v2/organizations/"+org.String()+"/templateversions", req)
}

func (c *Client) TemplateVersion(ctx context.Context, id uuid.UUID) (TemplateVersion, error) {
	return call[TemplateVersion](ctx, c, http.MethodGet, "/api/v2/templateversions/"+id.String(), nil)
}

func (c *Client) TemplateVersionsByTemplate(ctx context.Context, req TemplateVersionsByTemplateRequest) ([]TemplateVersion, error) {
	endpoint := withQuery("/api/v2/templates/"+req.TemplateID.String()+"/versions", req.Pagination.QueryParams())
	return call[[]TemplateVersion](ctx, c, http.MethodGet, endpoint, nil)
}

func (c *Client) CreateTemplate(ctx context.Context, org uuid.UUID, req CreateTemplateRequest) (Template, error) {
	return call[Template](ctx, c, http.MethodPost, "/api/v2/organizations/"+org.String()+"/templates", req)
}

func (c *Client) TemplatesByOrganization(ctx context.Context, org uuid.UUID) ([]Template, error) {
	return call[[]Template](ctx, c, http.MethodGet, "/api/v2/organizations/"+org.String()+"/templates", nil)
}

func (c *Client) TemplateByName(ctx context.Context, org uuid.UUID, name string) (Template, error) {
	return call[Template](ctx, c, http.MethodGet, "/api/v2/organizations/"+org.String()+"/templates/"+url.PathEscape(name), nil)
}

func (c *Client) Template(ctx context.Context, id uuid.UUID) (Template, error) {
	return call[Template](ctx, c, http.MethodGet, "/api/v2/templates/"+id.String(), nil)
}

// UpdateTemplateMeta patches a template. Only the fields set on req change.
func (c *Client) UpdateTemplateMeta(ctx context.Context, id uuid.UUID, req UpdateTemplateMeta) (Template, error) {
	return call[Template](ctx, c, http.MethodPatch, "/api/v2/templates/"+id.String(), req)
}

// CreateWorkspace creates a workspace for user and queues its first start build.
func (c *Client) CreateWorkspace(ctx context.Context, org uuid.UUID, user string, req CreateWorkspaceRequest) (Workspace, error) {
	endpoint := fmt.Sprintf("/api/v2/organizations/%s/members/%s/workspaces", org, url.PathEscape(user))
	return call[Workspace](ctx, c, http.MethodPost, endpoint, req)
}

func (c *Client) Workspaces(ctx context.Context, req WorkspacesRequest) (WorkspacesResponse, error) {
	return call[WorkspacesResponse](ctx, c, http.MethodGet, withQuery("/api/v2/workspaces", req.QueryParams()), nil)
}

func (c *Client) Workspace(ctx context.Context, id uuid.UUID, opts WorkspaceOptions) (Workspace, error) {
	return call[Workspace](ctx, c, http.MethodGet, withQuery("/api/v2/workspaces/"+id.String(), opts.QueryParams()), nil)
}

func (c *Client) WorkspaceByOwnerAndName(ctx context.Context, owner, name string, opts WorkspaceOptions) (Workspace, error) {
	endpoint := fmt.Sprintf("/api/v2/users/%s/workspace/%s", url.PathEscape(owner), url.PathEscape(name))
	return call[Workspace](ctx, c, http.MethodGet, withQuery(endpoint, opts.QueryParams()), nil)
}

func (c *Client) UpdateWorkspaceTTL(ctx context.Context, id uuid.UUID, req UpdateWorkspaceTTLRequest) error {
	return c.exec(ctx, http.MethodPut, "/api/v2/workspaces/"+id.String()+"/ttl", req)
}

func (c *Client) UpdateWorkspaceAutostart(ctx context.Context, id uuid.UUID, req UpdateWorkspaceAutostartRequest) error {
	return c.exec(ctx, http.MethodPut, "/api/v2/workspaces/"+id.String()+"/autostart", req)
}

// PutExtendWorkspace moves the deadline of the running build.
func (c *Client) PutExtendWorkspace(ctx context.Context, id uuid.UUID, req PutExtendWorkspaceRequest) error {
	return c.exec(ctx, http.MethodPut, "/api/v2/workspaces/"+id.String()+"/extend", req)
}

func (c *Client) CreateWorkspaceBuild(ctx context.Context, workspace uuid.UUID, req CreateWorkspaceBuildRequest) (WorkspaceBuild, error) {
	return call[WorkspaceBuild](ctx, c, http.MethodPost, "/api/v2/workspaces/"+workspace.String()+"/builds", req)
}

// WorkspaceBuilds lists builds newest first. req.WorkspaceID selects the path.
func (c *Client) WorkspaceBuilds(ctx context.Context, req WorkspaceBuildsRequest) ([]WorkspaceBuild, error) {
	endpoint := withQuery("/api/v2/workspaces/"+req.WorkspaceID.String()+"/builds", req.QueryParams())
	return call[[]WorkspaceBuild](ctx, c, http.MethodGet, endpoint, nil)
}

func (c *Client) AuditLogs(ctx context.Context, req AuditLogsRequest) (AuditLogResponse, error) {
	return call[AuditLogResponse](ctx, c, http.MethodGet, withQuery("/api/v2/audit", req.QueryParams()), nil)
}

func (c *Client) AuditLogCount(ctx context.Context, req AuditLogCountRequest) (AuditLogCountResponse, error) {
	return call[AuditLogCountResponse](ctx, c, http.MethodGet, withQuery("/api/v2/audit/count", req.QueryParams()), nil)
}

func (c *Client) AddLicense(ctx context.Context, req AddLicenseRequest) (License, error) {
	return call[License](ctx, c, http.MethodPost, "/api/v2/licenses", req)
}

func (c *Client) Licenses(ctx context.Context) ([]License, error) {
	return call[[]License](ctx, c, http.MethodGet, "/api/v2/licenses", nil)
}

func (c *Client) DeleteLicense(ctx context.Context, id int32) error {
	return c.exec(ctx, http.MethodDelete, "/api/v2/licenses/"+strconv.FormatInt(int64(id), 10), nil)
}

func (c *Client) Entitlements(ctx context.Context) (Entitlements, error) {
	return call[Entitlements](ctx, c, http.MethodGet, "/api/v2/entitlements", nil)
}

// DeploymentConfig returns the server options. Secret values are blanked by the
// server.
func (c *Client) DeploymentConfig(ctx context.Context) (DeploymentConfig, error) {
	return call[DeploymentConfig](ctx, c, http.MethodGet, "/api/v2/config/deployment", nil)
}

func call[T any](ctx context.Context, c *Client, method, endpoint string, body any) (T, error) {
	res, err := c.requestJSON(ctx, method, endpoint, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return readResponse[T](res)
}

func (c *Client) exec(ctx context.Context, method, endpoint string, body any) error {
	res, err := c.requestJSON(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) requestJSON(ctx context.Context, method, endpoint string, body any) (*http.Response, error) {
	var data []byte
	if body != nil {
		var err error
		data, err = Encode(body)
		if err != nil {
			return nil, err
		}
	}
	return c.request(ctx, method, endpoint, "application/json", data)
}

// request sends the call and turns any non-2xx reply into *Error.
// httpClient falls back to a client built from Timeout. The Client itself is
// never written so it stays safe for concurrent use.
func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}

func (c *Client) request(ctx context.Context, method, endpoint, contentType string, body []byte) (*http.Response, error) {
	if c.URL == nil {
		return nil, fmt.Errorf("client url not set")
	}
	target, err := c.URL.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.SessionToken != "" {
		req.Header.Set(SessionTokenHeader, c.SessionToken)
	}
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 300 {
		defer res.Body.Close()
		return nil, readError(res)
	}
	return res, nil
}

func readResponse[T any](res *http.Response) (T, error) {
	defer res.Body.Close()
	return DecodeReader[T](res.Body)
}

func readError(res *http.Response) error {
	apiErr := &Error{
		StatusCode: res.StatusCode,
		Method:     res.Request.Method,
		URL:        res.Request.URL.String(),
	}
	data, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if envelope, err := Decode[Response](data); err == nil {
		apiErr.Response = envelope
	} else if text := strings.TrimSpace(string(data)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

func withQuery(endpoint string, params QueryParams) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}
