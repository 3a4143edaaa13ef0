package wsdecksdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return New(u)
}

func TestClientSendsSessionToken(t *testing.T) {
	var gotToken, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(SessionTokenHeader)
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"external_url":"https://github.com/coder/coder","version":"v0.12.0"}`)
	})
	c.SessionToken = "abcdefghij-0123456789abcdefghijkl"

	info, err := c.BuildInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v0.12.0", info.Version)
	assert.Equal(t, c.SessionToken, gotToken)
	assert.Equal(t, "/api/v2/buildinfo", gotPath)
}

func TestClientPropagatesErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid request.","validations":[{"field":"name","detail":"required"}]}`)
	})

	_, err := c.CreateWorkspace(context.Background(), uuid.New(), "me", CreateWorkspaceRequest{TemplateID: uuid.New()})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "Invalid request.", apiErr.Message)
	require.Len(t, apiErr.Validations, 1)
	assert.Equal(t, "name", apiErr.Validations[0].Field)
	assert.Contains(t, err.Error(), "name: required")
	assert.False(t, IsNotFound(err))
}

func TestClientNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := c.Template(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "gone", apiErr.Message)
}

func TestClientRejectsResponseOutsideContract(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"version":"v0.12.0"}`)
	})

	_, err := c.BuildInfo(context.Background())
	assert.True(t, errors.Is(err, ErrContractViolation))
}

func TestClientEncodesListQuery(t *testing.T) {
	var gotQuery string
	workspace := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/v2/workspaces/"+workspace.String()+"/builds", r.URL.Path)
		_, _ = io.WriteString(w, `[]`)
	})

	builds, err := c.WorkspaceBuilds(context.Background(), WorkspaceBuildsRequest{
		Pagination:  Pagination{Limit: Ptr(2)},
		WorkspaceID: workspace,
	})
	require.NoError(t, err)
	assert.Empty(t, builds)
	assert.Equal(t, "limit=2", gotQuery)
}

func TestClientRejectsInvalidRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.CreateWorkspaceBuild(context.Background(), uuid.New(), CreateWorkspaceBuildRequest{Transition: "restart"})
	assert.True(t, errors.Is(err, ErrContractViolation))
	assert.False(t, called, "invalid requests never reach the server")
}

func TestClientUpload(t *testing.T) {
	var gotType, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"hash":"9d3f7c1e-1c7b-4a38-9c0e-8c6d5a9e2b11"}`)
	})

	res, err := c.Upload(context.Background(), ContentTypeYAML, strings.NewReader("resources: []\n"))
	require.NoError(t, err)
	assert.Equal(t, "9d3f7c1e-1c7b-4a38-9c0e-8c6d5a9e2b11", res.ID.String())
	assert.Equal(t, ContentTypeYAML, gotType)
	assert.Equal(t, "resources: []\n", gotBody)
}

func TestClientConcurrentRequestsLeaveClientUnchanged(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"external_url":"https://github.com/coder/coder","version":"v0.12.0"}`)
	})
	c.Timeout = 5 * time.Second

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.BuildInfo(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Nil(t, c.HTTPClient)
	assert.Equal(t, 5*time.Second, c.httpClient().Timeout)
}

func TestClientUsesGivenHTTPClient(t *testing.T) {
	hc := &http.Client{}
	c := &Client{HTTPClient: hc}
	assert.Same(t, hc, c.httpClient())
}
