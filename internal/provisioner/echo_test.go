package provisioner

import (
	"archive/tar"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	wsdecksdk "wsdeck/sdk/go"
)

const devManifest = `readme: |
  # Docker
resources:
  - name: dev
    type: docker_container
    daily_cost: 3
    transitions: [start]
    metadata:
      - key: image
        value: codercom/enterprise-base:ubuntu
    agents:
      - name: main
        os: linux
        arch: amd64
        directory: /home/coder
        apps:
          - slug: code-server
            command: code-server --auth none
            healthcheck:
              url: http://localhost:13337/healthz
              interval: 5
              threshold: 6
  - name: home
    type: docker_volume
    daily_cost: 1
`

func TestParseYAML(t *testing.T) {
	m, err := Parse(wsdecksdk.ContentTypeYAML, []byte(devManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(m.Resources))
	}
	if !strings.Contains(m.Readme, "Docker") {
		t.Fatalf("unexpected readme %q", m.Readme)
	}
}

func TestParseTar(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	files := []struct {
		name string
		body string
	}{
		{"template/README.md", "# From archive"},
		{"template/main.yaml", "resources:\n  - name: dev\n    type: docker_container\n"},
	}
	for _, f := range files {
		if err := tw.WriteHeader(&tar.Header{Name: f.name, Mode: 0o644, Size: int64(len(f.body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatalf("write body: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	m, err := Parse(wsdecksdk.ContentTypeTar, buf.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.Readme != "# From archive" {
		t.Fatalf("expected readme from archive, got %q", m.Readme)
	}
	if len(m.Resources) != 1 || m.Resources[0].Name != "dev" {
		t.Fatalf("unexpected resources %+v", m.Resources)
	}
}

func TestParseTarWithoutManifest(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	body := "# Only docs"
	if err := tw.WriteHeader(&tar.Header{Name: "README.md", Mode: 0o644, Size: int64(len(body))}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := tw.Write([]byte(body)); err != nil {
		t.Fatalf("write body: %v", err)
	}
	_ = tw.Close()

	if _, err := Parse(wsdecksdk.ContentTypeTar, buf.Bytes()); err == nil {
		t.Fatalf("expected missing manifest error")
	}
}

func TestParseRejects(t *testing.T) {
	cases := map[string]struct {
		contentType string
		body        string
		want        string
	}{
		"content type":  {"application/zip", "", "unsupported"},
		"bad yaml":      {wsdecksdk.ContentTypeYAML, "resources: [", "parse manifest"},
		"missing type":  {wsdecksdk.ContentTypeYAML, "resources:\n  - name: dev\n", "name and type"},
		"duplicate":     {wsdecksdk.ContentTypeYAML, "resources:\n  - {name: dev, type: t}\n  - {name: dev, type: t}\n", "duplicate"},
		"transition":    {wsdecksdk.ContentTypeYAML, "resources:\n  - {name: dev, type: t, transitions: [restart]}\n", "restart"},
		"missing slug":  {wsdecksdk.ContentTypeYAML, "resources:\n  - name: dev\n    type: t\n    agents:\n      - apps: [{display_name: x}]\n", "slug"},
		"sharing level": {wsdecksdk.ContentTypeYAML, "resources:\n  - name: dev\n    type: t\n    agents:\n      - apps: [{slug: x, sharing_level: world}]\n", "world"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.contentType, []byte(tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	m, err := Parse(wsdecksdk.ContentTypeYAML, []byte(devManifest))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	now := time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)
	jobID := uuid.New()

	started := m.Plan(jobID, wsdecksdk.WorkspaceTransitionStart, now)
	if len(started) != 2 {
		t.Fatalf("expected 2 resources on start, got %d", len(started))
	}
	if DailyCost(started) != 4 {
		t.Fatalf("expected daily cost 4, got %d", DailyCost(started))
	}
	dev := started[0]
	if dev.JobID != jobID || dev.Transition != wsdecksdk.WorkspaceTransitionStart {
		t.Fatalf("unexpected resource %+v", dev)
	}
	if len(dev.Agents) != 1 {
		t.Fatalf("expected one agent, got %d", len(dev.Agents))
	}
	agent := dev.Agents[0]
	if agent.ResourceID != dev.ID || agent.ConnectionTimeoutSeconds != 120 {
		t.Fatalf("unexpected agent %+v", agent)
	}
	if agent.Directory == nil || *agent.Directory != "/home/coder" {
		t.Fatalf("expected directory to be set")
	}
	if len(agent.Apps) != 1 {
		t.Fatalf("expected one app, got %d", len(agent.Apps))
	}
	app := agent.Apps[0]
	if app.SharingLevel != wsdecksdk.WorkspaceAppSharingLevelOwner || app.Health != wsdecksdk.WorkspaceAppHealthInitializing {
		t.Fatalf("unexpected app %+v", app)
	}
	if app.DisplayName != "code-server" {
		t.Fatalf("expected display name to default to slug, got %q", app.DisplayName)
	}
	if _, err := wsdecksdk.Encode(started); err != nil {
		t.Fatalf("planned resources must encode: %v", err)
	}

	stopped := m.Plan(jobID, wsdecksdk.WorkspaceTransitionStop, now)
	if len(stopped) != 1 || stopped[0].Name != "home" {
		t.Fatalf("expected only the volume after stop, got %+v", stopped)
	}
	if len(stopped[0].Agents) != 0 {
		t.Fatalf("agents do not run while stopped")
	}

	deleted := m.Plan(jobID, wsdecksdk.WorkspaceTransitionDelete, now)
	if deleted == nil || len(deleted) != 0 {
		t.Fatalf("expected an empty, non-nil plan on delete, got %+v", deleted)
	}
}
