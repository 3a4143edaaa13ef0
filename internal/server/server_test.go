package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wsdeck/internal/config"
	"wsdeck/internal/db"
	"wsdeck/internal/engine"
	"wsdeck/internal/migrate"
	wsdecksdk "wsdeck/sdk/go"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "hunter2hunter2"
)

const testManifest = `readme: hello
resources:
  - name: dev
    type: docker_container
    daily_cost: 3
    agents:
      - name: main
        os: linux
        arch: amd64
`

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

// SDK returns a typed client pointed at the server.
func (s *testServer) SDK(t *testing.T, token string) *wsdecksdk.Client {
	t.Helper()
	u, err := url.Parse(s.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	c := wsdecksdk.New(u)
	c.SessionToken = token
	c.HTTPClient = s.client
	return c
}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	handler, err := New(Config{Engine: e, BasePath: "/api/v2", Auth: AuthConfig{JWTSecret: testJWTSecret}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

// bootstrap creates the first user and logs in as them.
func bootstrap(t *testing.T, srv *testServer) (wsdecksdk.CreateFirstUserResponse, *wsdecksdk.Client) {
	t.Helper()
	ctx := context.Background()
	anon := srv.SDK(t, "")
	first, err := anon.CreateFirstUser(ctx, wsdecksdk.CreateFirstUserRequest{
		Email:    "admin@example.com",
		Username: "admin",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("create first user: %v", err)
	}
	login, err := anon.LoginWithPassword(ctx, wsdecksdk.LoginWithPasswordRequest{Email: "admin@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return first, srv.SDK(t, login.SessionToken)
}

// importTemplate uploads testManifest and turns it into a template.
func importTemplate(t *testing.T, c *wsdecksdk.Client, orgID uuid.UUID, name string) wsdecksdk.Template {
	t.Helper()
	ctx := context.Background()
	up, err := c.Upload(ctx, wsdecksdk.ContentTypeYAML, strings.NewReader(testManifest))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	version, err := c.CreateTemplateVersion(ctx, orgID, wsdecksdk.CreateTemplateVersionRequest{
		StorageMethod: wsdecksdk.ProvisionerStorageMethodFile,
		FileID:        up.ID,
		Provisioner:   wsdecksdk.ProvisionerTypeEcho,
	})
	if err != nil {
		t.Fatalf("create template version: %v", err)
	}
	if version.Job.Status != wsdecksdk.ProvisionerJobSucceeded {
		t.Fatalf("template version job %s: %v", version.Job.Status, version.Job.Error)
	}
	tmpl, err := c.CreateTemplate(ctx, orgID, wsdecksdk.CreateTemplateRequest{Name: name, VersionID: version.ID})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	return tmpl
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *wsdecksdk.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected api error, got %v", err)
	}
	return apiErr.StatusCode
}

func TestBuildInfoIsPublic(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	info, err := srv.SDK(t, "").BuildInfo(context.Background())
	if err != nil {
		t.Fatalf("buildinfo: %v", err)
	}
	if info.Version != engine.Version {
		t.Fatalf("expected version %s, got %s", engine.Version, info.Version)
	}
}

func TestAuthenticationRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v2/users/me", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", res.StatusCode, string(body))
	}
	envelope, err := wsdecksdk.Decode[wsdecksdk.Response](body)
	if err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Message == "" {
		t.Fatalf("expected message in error envelope")
	}

	res, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v2/users/me", nil, map[string]string{
		wsdecksdk.SessionTokenHeader: "abcdefghij-0123456789012345678901",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d: %s", res.StatusCode, string(body))
	}
}

func TestFirstUserOnlyOnce(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	bootstrap(t, srv)

	_, err := srv.SDK(t, "").CreateFirstUser(context.Background(), wsdecksdk.CreateFirstUserRequest{
		Email:    "other@example.com",
		Username: "other",
		Password: testPassword,
	})
	if statusOf(t, err) != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	bootstrap(t, srv)

	_, err := srv.SDK(t, "").LoginWithPassword(context.Background(), wsdecksdk.LoginWithPasswordRequest{
		Email:    "admin@example.com",
		Password: "wrong-password",
	})
	if statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestContractViolationIsBadRequest(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	// password is required by the contract.
	res, body := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/v2/users/first", map[string]any{
		"email":    "admin@example.com",
		"username": "admin",
		"trial":    false,
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(body))
	}
	envelope, err := wsdecksdk.Decode[wsdecksdk.Response](body)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Validations) != 1 || envelope.Validations[0].Field != "password" {
		t.Fatalf("expected password validation, got %+v", envelope.Validations)
	}
}

func TestMeAndJWT(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	first, c := bootstrap(t, srv)
	ctx := context.Background()

	me, err := c.User(ctx, wsdecksdk.Me)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != first.UserID || me.Username != "admin" {
		t.Fatalf("unexpected me: %+v", me)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   first.UserID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	bearer := srv.SDK(t, "")
	bearer.BearerToken = signed
	me, err = bearer.User(ctx, wsdecksdk.Me)
	if err != nil {
		t.Fatalf("me with jwt: %v", err)
	}
	if me.ID != first.UserID {
		t.Fatalf("jwt resolved to %s, want %s", me.ID, first.UserID)
	}

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: first.UserID.String()}).SignedString([]byte("other"))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	bearer.BearerToken = bad
	if _, err := bearer.User(ctx, wsdecksdk.Me); statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %v", err)
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	first, c := bootstrap(t, srv)
	ctx := context.Background()

	tmpl := importTemplate(t, c, first.OrganizationID, "docker")
	if tmpl.WorkspaceOwnerCount != 0 {
		t.Fatalf("expected no owners yet, got %d", tmpl.WorkspaceOwnerCount)
	}

	ttl := int64(time.Hour / time.Millisecond)
	ws, err := c.CreateWorkspace(ctx, first.OrganizationID, wsdecksdk.Me, wsdecksdk.CreateWorkspaceRequest{
		TemplateID: tmpl.ID,
		Name:       "dev",
		TTLMillis:  &ttl,
	})
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if ws.LatestBuild.BuildNumber != 1 || ws.LatestBuild.Transition != wsdecksdk.WorkspaceTransitionStart {
		t.Fatalf("unexpected first build: %+v", ws.LatestBuild)
	}
	if ws.LatestBuild.Status != wsdecksdk.WorkspaceStatusRunning {
		t.Fatalf("expected running, got %s", ws.LatestBuild.Status)
	}
	if ws.LatestBuild.DailyCost != 3 {
		t.Fatalf("expected daily cost 3, got %d", ws.LatestBuild.DailyCost)
	}

	byName, err := c.WorkspaceByOwnerAndName(ctx, wsdecksdk.Me, "dev", wsdecksdk.WorkspaceOptions{})
	if err != nil {
		t.Fatalf("workspace by name: %v", err)
	}
	if byName.ID != ws.ID {
		t.Fatalf("by name returned %s, want %s", byName.ID, ws.ID)
	}

	stop, err := c.CreateWorkspaceBuild(ctx, ws.ID, wsdecksdk.CreateWorkspaceBuildRequest{Transition: wsdecksdk.WorkspaceTransitionStop})
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stop.BuildNumber != 2 || stop.Status != wsdecksdk.WorkspaceStatusStopped {
		t.Fatalf("unexpected stop build: %+v", stop)
	}

	builds, err := c.WorkspaceBuilds(ctx, wsdecksdk.WorkspaceBuildsRequest{WorkspaceID: ws.ID})
	if err != nil {
		t.Fatalf("list builds: %v", err)
	}
	if len(builds) != 2 || builds[0].BuildNumber != 2 || builds[1].BuildNumber != 1 {
		t.Fatalf("expected builds newest first, got %d builds", len(builds))
	}

	limit := 1
	page, err := c.WorkspaceBuilds(ctx, wsdecksdk.WorkspaceBuildsRequest{
		WorkspaceID: ws.ID,
		Pagination:  wsdecksdk.Pagination{AfterID: &builds[0].ID, Limit: &limit},
	})
	if err != nil {
		t.Fatalf("page builds: %v", err)
	}
	if len(page) != 1 || page[0].ID != builds[1].ID {
		t.Fatalf("expected the second build after the cursor")
	}

	if _, err := c.CreateWorkspaceBuild(ctx, ws.ID, wsdecksdk.CreateWorkspaceBuildRequest{Transition: wsdecksdk.WorkspaceTransitionDelete}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Workspace(ctx, ws.ID, wsdecksdk.WorkspaceOptions{}); statusOf(t, err) != http.StatusNotFound {
		t.Fatalf("expected deleted workspace to be hidden, got %v", err)
	}
	deleted, err := c.Workspace(ctx, ws.ID, wsdecksdk.WorkspaceOptions{IncludeDeleted: wsdecksdk.Ptr(true)})
	if err != nil {
		t.Fatalf("get deleted workspace: %v", err)
	}
	if deleted.LatestBuild.Status != wsdecksdk.WorkspaceStatusDeleted {
		t.Fatalf("expected deleted status, got %s", deleted.LatestBuild.Status)
	}
}

func TestWorkspaceTTLAndExtend(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	first, c := bootstrap(t, srv)
	ctx := context.Background()
	tmpl := importTemplate(t, c, first.OrganizationID, "docker")

	hour := int64(time.Hour / time.Millisecond)
	ws, err := c.CreateWorkspace(ctx, first.OrganizationID, wsdecksdk.Me, wsdecksdk.CreateWorkspaceRequest{TemplateID: tmpl.ID, Name: "dev", TTLMillis: &hour})
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	if ws.LatestBuild.Deadline == nil {
		t.Fatalf("expected a deadline from the ttl")
	}

	tooShort := int64(time.Second / time.Millisecond)
	if err := c.UpdateWorkspaceTTL(ctx, ws.ID, wsdecksdk.UpdateWorkspaceTTLRequest{TTLMillis: &tooShort}); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for short ttl, got %v", err)
	}
	twoHours := int64(2 * time.Hour / time.Millisecond)
	if err := c.UpdateWorkspaceTTL(ctx, ws.ID, wsdecksdk.UpdateWorkspaceTTLRequest{TTLMillis: &twoHours}); err != nil {
		t.Fatalf("update ttl: %v", err)
	}
	if err := c.UpdateWorkspaceAutostart(ctx, ws.ID, wsdecksdk.UpdateWorkspaceAutostartRequest{Schedule: wsdecksdk.Ptr("CRON_TZ=UTC 30 9 * * 1-5")}); err != nil {
		t.Fatalf("update autostart: %v", err)
	}
	if err := c.UpdateWorkspaceAutostart(ctx, ws.ID, wsdecksdk.UpdateWorkspaceAutostartRequest{Schedule: wsdecksdk.Ptr("every morning")}); statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad schedule, got %v", err)
	}
	got, err := c.Workspace(ctx, ws.ID, wsdecksdk.WorkspaceOptions{})
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	if got.TTLMillis == nil || *got.TTLMillis != twoHours {
		t.Fatalf("expected ttl %d, got %v", twoHours, got.TTLMillis)
	}
	if got.AutostartSchedule == nil || *got.AutostartSchedule != "CRON_TZ=UTC 30 9 * * 1-5" {
		t.Fatalf("unexpected schedule %v", got.AutostartSchedule)
	}

	deadline := time.Now().Add(3 * time.Hour).UTC().Truncate(time.Second)
	if err := c.PutExtendWorkspace(ctx, ws.ID, wsdecksdk.PutExtendWorkspaceRequest{Deadline: deadline}); err != nil {
		t.Fatalf("extend: %v", err)
	}
	got, err = c.Workspace(ctx, ws.ID, wsdecksdk.WorkspaceOptions{})
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	if got.LatestBuild.Deadline == nil || !got.LatestBuild.Deadline.Equal(deadline) {
		t.Fatalf("expected deadline %s, got %v", deadline, got.LatestBuild.Deadline)
	}
}

func TestListsAndPaginationErrors(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	first, c := bootstrap(t, srv)
	ctx := context.Background()
	tmpl := importTemplate(t, c, first.OrganizationID, "docker")
	for _, name := range []string{"alpha", "beta", "gamma"} {
		if _, err := c.CreateWorkspace(ctx, first.OrganizationID, wsdecksdk.Me, wsdecksdk.CreateWorkspaceRequest{TemplateID: tmpl.ID, Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	limit := 2
	res, err := c.Workspaces(ctx, wsdecksdk.WorkspacesRequest{Pagination: wsdecksdk.Pagination{Limit: &limit}, SearchQuery: wsdecksdk.Ptr("owner:me")})
	if err != nil {
		t.Fatalf("list workspaces: %v", err)
	}
	if len(res.Workspaces) != 2 || res.Count != 3 {
		t.Fatalf("expected 2 of 3 workspaces, got %d of %d", len(res.Workspaces), res.Count)
	}

	r, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v2/workspaces?limit=-1", nil, map[string]string{wsdecksdk.SessionTokenHeader: c.SessionToken})
	if r.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative limit, got %d: %s", r.StatusCode, string(body))
	}
	r, body = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v2/workspaces?after_id=not-a-uuid", nil, map[string]string{wsdecksdk.SessionTokenHeader: c.SessionToken})
	if r.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d: %s", r.StatusCode, string(body))
	}

	templates, err := c.TemplatesByOrganization(ctx, first.OrganizationID)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) != 1 || templates[0].WorkspaceOwnerCount != 1 {
		t.Fatalf("expected one template with one owner, got %+v", templates)
	}

	users, err := c.Users(ctx, wsdecksdk.UsersRequest{})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if users.Count != 1 || len(users.Users) != 1 {
		t.Fatalf("expected one user, got %d", users.Count)
	}

	logs, err := c.AuditLogs(ctx, wsdecksdk.AuditLogsRequest{SearchQuery: wsdecksdk.Ptr("resource_type:workspace")})
	if err != nil {
		t.Fatalf("audit logs: %v", err)
	}
	if len(logs.AuditLogs) != 3 {
		t.Fatalf("expected 3 workspace audit entries, got %d", len(logs.AuditLogs))
	}
	count, err := c.AuditLogCount(ctx, wsdecksdk.AuditLogCountRequest{SearchQuery: wsdecksdk.Ptr("resource_type:workspace")})
	if err != nil {
		t.Fatalf("audit count: %v", err)
	}
	if count.Count != 3 {
		t.Fatalf("expected count 3, got %d", count.Count)
	}
}

func TestLicensesAndEntitlements(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	_, c := bootstrap(t, srv)
	ctx := context.Background()

	claims := jwt.MapClaims{
		"jti":             "6c1a7d1c-0a1b-4c3e-9bde-2f7a5c1e9a10",
		"exp":             time.Now().Add(30 * 24 * time.Hour).Unix(),
		"license_expires": time.Now().Add(30 * 24 * time.Hour).Unix(),
		"features":        map[string]any{"user_limit": 10, "audit_log": 1},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("issuer"))
	if err != nil {
		t.Fatalf("sign license: %v", err)
	}
	lic, err := c.AddLicense(ctx, wsdecksdk.AddLicenseRequest{License: raw})
	if err != nil {
		t.Fatalf("add license: %v", err)
	}
	if lic.UUID != "6c1a7d1c-0a1b-4c3e-9bde-2f7a5c1e9a10" {
		t.Fatalf("unexpected uuid %s", lic.UUID)
	}
	if _, err := c.AddLicense(ctx, wsdecksdk.AddLicenseRequest{License: raw}); statusOf(t, err) != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate license, got %v", err)
	}

	ent, err := c.Entitlements(ctx)
	if err != nil {
		t.Fatalf("entitlements: %v", err)
	}
	if !ent.HasLicense {
		t.Fatalf("expected has_license")
	}
	if ent.Features[wsdecksdk.FeatureAuditLog].Entitlement != wsdecksdk.EntitlementEntitled {
		t.Fatalf("expected audit log entitled, got %+v", ent.Features[wsdecksdk.FeatureAuditLog])
	}

	licenses, err := c.Licenses(ctx)
	if err != nil {
		t.Fatalf("list licenses: %v", err)
	}
	if len(licenses) != 1 {
		t.Fatalf("expected one license, got %d", len(licenses))
	}
	if err := c.DeleteLicense(ctx, licenses[0].ID); err != nil {
		t.Fatalf("delete license: %v", err)
	}
	if err := c.DeleteLicense(ctx, licenses[0].ID); statusOf(t, err) != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
}

func TestDeploymentConfigHidesSecrets(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	_, c := bootstrap(t, srv)

	cfg, err := c.DeploymentConfig(context.Background())
	if err != nil {
		t.Fatalf("deployment config: %v", err)
	}
	if cfg.Address.Value != "127.0.0.1:3000" {
		t.Fatalf("unexpected address %q", cfg.Address.Value)
	}
	if !cfg.OIDC.ClientSecret.Secret || cfg.OIDC.ClientSecret.Value != "" {
		t.Fatalf("expected blanked secret, got %+v", cfg.OIDC.ClientSecret)
	}
	if cfg.AccessURL.Flag != "access-url" {
		t.Fatalf("unexpected flag %q", cfg.AccessURL.Flag)
	}
}

func TestOpenAPIConcurrentFirstRequests(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	const n = 8
	bodies := make([][]byte, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := srv.Client().Get(srv.URL + "/api/v2/openapi.json")
			if err != nil {
				t.Errorf("get openapi: %v", err)
				return
			}
			defer res.Body.Close()
			bodies[i], _ = io.ReadAll(res.Body)
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if len(bodies[i]) == 0 || !bytes.Equal(bodies[0], bodies[i]) {
			t.Fatalf("openapi response %d differs from the first", i)
		}
	}
}

func TestOpenAPIIsServed(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, body := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/v2/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", res.StatusCode)
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode openapi: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/api/v2/workspaces/{id}/builds"]; !ok {
		t.Fatalf("expected builds path in openapi document")
	}
}
