package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Address != "127.0.0.1:3000" {
		t.Fatalf("unexpected address %q", cfg.Server.Address)
	}
	if cfg.Server.BasePath != "/api/v2" {
		t.Fatalf("unexpected base path %q", cfg.Server.BasePath)
	}
	if cfg.Server.SessionDuration != 24*time.Hour || cfg.Server.AutobuildPollInterval != time.Minute {
		t.Fatalf("unexpected durations %+v", cfg.Server)
	}
	if !cfg.Server.AuditLogging {
		t.Fatalf("audit logging is on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("server:\n  address: 0.0.0.0:8080\n  oidc:\n    client_secret: hunter2\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Address != "0.0.0.0:8080" {
		t.Fatalf("override lost: %q", cfg.Server.Address)
	}
	if cfg.Server.APIRateLimit != 512 {
		t.Fatalf("default lost: %d", cfg.Server.APIRateLimit)
	}
	if len(cfg.Server.OIDC.Scopes) != 3 {
		t.Fatalf("nested default lost: %v", cfg.Server.OIDC.Scopes)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		yaml string
		want string
	}{
		"client url":    {"client:\n  url: ftp://x\n", "client.url"},
		"address":       {"server:\n  address: \"\"\n", "address is required"},
		"access url":    {"server:\n  access_url: localhost\n", "access_url"},
		"base path":     {"server:\n  base_path: api\n", "base_path"},
		"rate limit":    {"server:\n  api_rate_limit: -1\n", "api_rate_limit"},
		"tls keys":      {"server:\n  tls:\n    enable: true\n    cert_files: [a.pem]\n", "tls"},
		"gitauth id":    {"server:\n  gitauth:\n    - type: github\n", "gitauth[0].id"},
		"gitauth dupes": {"server:\n  gitauth:\n    - id: gh\n    - id: gh\n", "duplicate"},
		"bad yaml":      {"server: [", "invalid config yaml"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromYAML([]byte(tc.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing config error")
	}
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	cfg.Client.URL = "http://127.0.0.1:3000"
	cfg.Client.SessionToken = "abcdefghij-0123456789abcdefghijkl"
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(Path(dir))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Client.SessionToken != cfg.Client.SessionToken {
		t.Fatalf("session token not persisted")
	}
	u, err := loaded.ServerURL()
	if err != nil {
		t.Fatalf("server url: %v", err)
	}
	if u.Host != "127.0.0.1:3000" {
		t.Fatalf("unexpected host %q", u.Host)
	}
}

func TestDeploymentConfig(t *testing.T) {
	cfg, err := FromYAML([]byte(`server:
  access_url: https://dev.example.com
  api_rate_limit: 100
  scim_api_key: top-secret
  oauth2_github:
    client_id: gh-client
    client_secret: gh-secret
  gitauth:
    - id: github
      type: github
      scopes: [repo]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	dc, err := cfg.DeploymentConfig()
	if err != nil {
		t.Fatalf("deployment config: %v", err)
	}
	if dc.AccessURL.Value != "https://dev.example.com" || dc.AccessURL.Default != "http://127.0.0.1:3000" {
		t.Fatalf("unexpected access url %+v", dc.AccessURL)
	}
	if dc.APIRateLimit.Value != 100 || dc.APIRateLimit.Default != 512 {
		t.Fatalf("unexpected rate limit %+v", dc.APIRateLimit)
	}
	if dc.AutobuildPollInterval.Value != int64(time.Minute) {
		t.Fatalf("durations are reported in nanoseconds, got %d", dc.AutobuildPollInterval.Value)
	}
	if dc.Address.Shorthand != "a" || dc.Address.Flag != "address" {
		t.Fatalf("unexpected address meta %+v", dc.Address.Meta())
	}
	if !dc.SCIMAPIKey.Secret || !dc.SCIMAPIKey.Enterprise || dc.SCIMAPIKey.Value != "" {
		t.Fatalf("secret must be blanked: %+v", dc.SCIMAPIKey)
	}
	if dc.OAuth2.Github.ClientSecret.Value != "" || dc.OAuth2.Github.ClientID.Value != "gh-client" {
		t.Fatalf("unexpected github oauth %+v", dc.OAuth2.Github)
	}
	if len(dc.GitAuth.Value) != 1 || dc.GitAuth.Value[0].Scopes[0] != "repo" {
		t.Fatalf("unexpected gitauth %+v", dc.GitAuth.Value)
	}
	if dc.ProxyTrustedHeaders.Value == nil {
		t.Fatalf("list values are never nil")
	}
}
