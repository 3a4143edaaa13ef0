package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models wsdeck.yml. The client section is written by `wsdeck login`;
// the server section configures `wsdeck serve`.
type Config struct {
	Client ClientConfig `yaml:"client"`
	Server ServerConfig `yaml:"server"`
}

type ClientConfig struct {
	URL            string `yaml:"url"`
	SessionToken   string `yaml:"session_token"`
	OrganizationID string `yaml:"organization_id"`
}

type ServerConfig struct {
	Address               string        `yaml:"address"`
	AccessURL             string        `yaml:"access_url"`
	WildcardAccessURL     string        `yaml:"wildcard_access_url"`
	BasePath              string        `yaml:"base_path"`
	JWTSecret             string        `yaml:"jwt_secret"`
	CacheDirectory        string        `yaml:"cache_directory"`
	InMemoryDatabase      bool          `yaml:"in_memory_database"`
	AutobuildPollInterval time.Duration `yaml:"autobuild_poll_interval"`
	SessionDuration       time.Duration `yaml:"session_duration"`
	AuditLogging          bool          `yaml:"audit_logging"`
	BrowserOnly           bool          `yaml:"browser_only"`
	Experimental          bool          `yaml:"experimental"`
	SecureAuthCookie      bool          `yaml:"secure_auth_cookie"`
	SSHKeygenAlgorithm    string        `yaml:"ssh_keygen_algorithm"`
	APIRateLimit          int           `yaml:"api_rate_limit"`
	ProxyTrustedHeaders   []string      `yaml:"proxy_trusted_headers"`
	ProxyTrustedOrigins   []string      `yaml:"proxy_trusted_origins"`
	AutoImportTemplates   []string      `yaml:"auto_import_templates"`
	SCIMAPIKey            string        `yaml:"scim_api_key"`
	DERP                  DERP          `yaml:"derp"`
	Prometheus            Listener      `yaml:"prometheus"`
	Pprof                 Listener      `yaml:"pprof"`
	Telemetry             Telemetry     `yaml:"telemetry"`
	TLS                   TLS           `yaml:"tls"`
	Trace                 Trace         `yaml:"trace"`
	Provisioner           Provisioner   `yaml:"provisioner"`
	OAuth2Github          OAuth2Github  `yaml:"oauth2_github"`
	OIDC                  OIDC          `yaml:"oidc"`
	GitAuth               []GitAuth     `yaml:"gitauth"`
}

type DERP struct {
	ServerEnable        bool     `yaml:"server_enable"`
	ServerRegionID      int      `yaml:"server_region_id"`
	ServerRegionCode    string   `yaml:"server_region_code"`
	ServerRegionName    string   `yaml:"server_region_name"`
	ServerSTUNAddresses []string `yaml:"server_stun_addresses"`
	ServerRelayURL      string   `yaml:"server_relay_url"`
	ConfigURL           string   `yaml:"config_url"`
	ConfigPath          string   `yaml:"config_path"`
}

type Listener struct {
	Enable  bool   `yaml:"enable"`
	Address string `yaml:"address"`
}

type Telemetry struct {
	Enable bool   `yaml:"enable"`
	Trace  bool   `yaml:"trace"`
	URL    string `yaml:"url"`
}

type TLS struct {
	Enable         bool     `yaml:"enable"`
	CertFiles      []string `yaml:"cert_files"`
	KeyFiles       []string `yaml:"key_files"`
	ClientAuth     string   `yaml:"client_auth"`
	ClientCAFile   string   `yaml:"client_ca_file"`
	MinVersion     string   `yaml:"min_version"`
	ClientCertFile string   `yaml:"client_cert_file"`
	ClientKeyFile  string   `yaml:"client_key_file"`
}

type Trace struct {
	Enable          bool   `yaml:"enable"`
	HoneycombAPIKey string `yaml:"honeycomb_api_key"`
	CaptureLogs     bool   `yaml:"capture_logs"`
}

type Provisioner struct {
	Daemons             int           `yaml:"daemons"`
	ForceCancelInterval time.Duration `yaml:"force_cancel_interval"`
}

type OAuth2Github struct {
	ClientID          string   `yaml:"client_id"`
	ClientSecret      string   `yaml:"client_secret"`
	AllowedOrgs       []string `yaml:"allowed_orgs"`
	AllowedTeams      []string `yaml:"allowed_teams"`
	AllowSignups      bool     `yaml:"allow_signups"`
	AllowEveryone     bool     `yaml:"allow_everyone"`
	EnterpriseBaseURL string   `yaml:"enterprise_base_url"`
}

type OIDC struct {
	AllowSignups bool     `yaml:"allow_signups"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	EmailDomain  string   `yaml:"email_domain"`
	IssuerURL    string   `yaml:"issuer_url"`
	Scopes       []string `yaml:"scopes"`
}

type GitAuth struct {
	ID        string   `yaml:"id"`
	Type      string   `yaml:"type"`
	ClientID  string   `yaml:"client_id"`
	AuthURL   string   `yaml:"auth_url"`
	TokenURL  string   `yaml:"token_url"`
	Regex     string   `yaml:"regex"`
	NoRefresh bool     `yaml:"no_refresh"`
	Scopes    []string `yaml:"scopes"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run wsdeck login or create it", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Client.URL != "" {
		if _, err := parseHTTPURL(c.Client.URL); err != nil {
			return fmt.Errorf("config.client.url: %w", err)
		}
	}
	s := c.Server
	if s.Address == "" {
		return fmt.Errorf("config.server.address is required")
	}
	if s.AccessURL != "" {
		if _, err := parseHTTPURL(s.AccessURL); err != nil {
			return fmt.Errorf("config.server.access_url: %w", err)
		}
	}
	if s.BasePath != "" && !strings.HasPrefix(s.BasePath, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if s.APIRateLimit < 0 {
		return fmt.Errorf("config.server.api_rate_limit must be zero or greater")
	}
	if s.Provisioner.Daemons < 0 {
		return fmt.Errorf("config.server.provisioner.daemons must be zero or greater")
	}
	if s.SessionDuration < 0 {
		return fmt.Errorf("config.server.session_duration must be zero or greater")
	}
	if s.TLS.Enable && (len(s.TLS.CertFiles) == 0 || len(s.TLS.CertFiles) != len(s.TLS.KeyFiles)) {
		return fmt.Errorf("config.server.tls requires one key file per cert file")
	}
	seen := map[string]bool{}
	for i, ga := range s.GitAuth {
		if ga.ID == "" {
			return fmt.Errorf("config.server.gitauth[%d].id is required", i)
		}
		if seen[ga.ID] {
			return fmt.Errorf("config.server.gitauth has duplicate id %s", ga.ID)
		}
		seen[ga.ID] = true
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "wsdeck.yml")
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing from
// data keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Save writes the config to the workspace. The file holds a session token, so
// it is only readable by the owner.
func (c *Config) Save(workspace string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(Path(workspace)), 0o755); err != nil {
		return err
	}
	return os.WriteFile(Path(workspace), data, 0o600)
}

// ServerURL returns the parsed client URL.
func (c *Config) ServerURL() (*url.URL, error) {
	if c.Client.URL == "" {
		return nil, fmt.Errorf("no server url configured; run wsdeck login <url>")
	}
	return parseHTTPURL(c.Client.URL)
}

func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q must be an http or https url", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%q has no host", raw)
	}
	return u, nil
}

const defaultTemplate = `client:
  url: ""

server:
  address: 127.0.0.1:3000
  access_url: http://127.0.0.1:3000
  base_path: /api/v2
  cache_directory: .wsdeck/cache
  autobuild_poll_interval: 1m
  session_duration: 24h
  audit_logging: true
  ssh_keygen_algorithm: ed25519
  api_rate_limit: 512
  secure_auth_cookie: false
  derp:
    server_enable: true
    server_region_id: 999
    server_region_code: coder
    server_region_name: Coder Embedded Relay
    server_stun_addresses: [stun.l.google.com:19302]
  prometheus:
    address: 127.0.0.1:2112
  pprof:
    address: 127.0.0.1:6060
  telemetry:
    enable: false
    url: https://telemetry.coder.com
  tls:
    client_auth: request
    min_version: tls12
  provisioner:
    daemons: 3
    force_cancel_interval: 10m
  oidc:
    scopes: [openid, profile, email]
`
