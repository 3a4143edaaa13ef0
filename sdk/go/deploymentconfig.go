package wsdecksdk

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Flaggable is the closed set of value domains a DeploymentConfigField may
// carry.
type Flaggable interface {
	string | int | int64 | bool | []string | []GitAuthConfig
}

// DeploymentConfigFieldMeta is everything about a config field except its
// values.
type DeploymentConfigFieldMeta struct {
	Name       string
	Usage      string
	Flag       string
	Shorthand  string
	Enterprise bool
	Hidden     bool
	Secret     bool
}

// DeploymentConfigField describes one server option. Default and Value always
// share the concrete type T.
type DeploymentConfigField[T Flaggable] struct {
	Name       string `json:"name"`
	Usage      string `json:"usage"`
	Flag       string `json:"flag"`
	Shorthand  string `json:"shorthand"`
	Enterprise bool   `json:"enterprise"`
	Hidden     bool   `json:"hidden"`
	Secret     bool   `json:"secret"`
	Default    T      `json:"default"`
	Value      T      `json:"value"`
}

// NewDeploymentConfigField builds a field from untyped inputs, as produced by
// flag parsers and YAML loaders. It fails with *TypeMismatch unless both def and
// value are a T.
func NewDeploymentConfigField[T Flaggable](meta DeploymentConfigFieldMeta, def, value any) (DeploymentConfigField[T], error) {
	typedDef, okDef := def.(T)
	typedValue, okValue := value.(T)
	if !okDef || !okValue {
		var zero T
		return DeploymentConfigField[T]{}, &TypeMismatch{
			Field:    meta.Name,
			Expected: fmt.Sprintf("%T", zero),
			Default:  fmt.Sprintf("%T", def),
			Value:    fmt.Sprintf("%T", value),
		}
	}
	return DeploymentConfigField[T]{
		Name:       meta.Name,
		Usage:      meta.Usage,
		Flag:       meta.Flag,
		Shorthand:  meta.Shorthand,
		Enterprise: meta.Enterprise,
		Hidden:     meta.Hidden,
		Secret:     meta.Secret,
		Default:    typedDef,
		Value:      typedValue,
	}, nil
}

// Meta returns the field without its values.
func (f DeploymentConfigField[T]) Meta() DeploymentConfigFieldMeta {
	return DeploymentConfigFieldMeta{
		Name:       f.Name,
		Usage:      f.Usage,
		Flag:       f.Flag,
		Shorthand:  f.Shorthand,
		Enterprise: f.Enterprise,
		Hidden:     f.Hidden,
		Secret:     f.Secret,
	}
}

type deploymentConfigFieldJSON[T Flaggable] DeploymentConfigField[T]

// UnmarshalJSON reports a default or value of the wrong JSON type as a
// contract violation caused by a type mismatch.
func (f *DeploymentConfigField[T]) UnmarshalJSON(data []byte) error {
	var aux struct {
		deploymentConfigFieldJSON[T]
		Default json.RawMessage `json:"default"`
		Value   json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var zero T
	mismatch := &TypeMismatch{Field: aux.Name, Expected: fmt.Sprintf("%T", zero), Default: "ok", Value: "ok"}
	typed := DeploymentConfigField[T](aux.deploymentConfigFieldJSON)
	failed := false
	if len(aux.Default) > 0 {
		if err := json.Unmarshal(aux.Default, &typed.Default); err != nil {
			mismatch.Default = jsonKind(aux.Default)
			failed = true
		}
	}
	if len(aux.Value) > 0 {
		if err := json.Unmarshal(aux.Value, &typed.Value); err != nil {
			mismatch.Value = jsonKind(aux.Value)
			failed = true
		}
	}
	if failed {
		return &ContractViolation{Entity: "DeploymentConfigField", Path: aux.Name, Reason: "default and value must match the field type", Err: mismatch}
	}
	*f = typed
	return nil
}

func jsonKind(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "invalid"
	}
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return "object"
	}
}

// IsTypeMismatch reports whether err was caused by a heterogeneous
// DeploymentConfigField.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

type DeploymentConfig struct {
	AccessURL                       DeploymentConfigField[string]          `json:"access_url"`
	WildcardAccessURL               DeploymentConfigField[string]          `json:"wildcard_access_url"`
	Address                         DeploymentConfigField[string]          `json:"address"`
	AutobuildPollInterval           DeploymentConfigField[int64]           `json:"autobuild_poll_interval"`
	DERP                            DERP                                   `json:"derp"`
	GitAuth                         DeploymentConfigField[[]GitAuthConfig] `json:"gitauth"`
	Prometheus                      PrometheusConfig                       `json:"prometheus"`
	Pprof                           PprofConfig                            `json:"pprof"`
	ProxyTrustedHeaders             DeploymentConfigField[[]string]        `json:"proxy_trusted_headers"`
	ProxyTrustedOrigins             DeploymentConfigField[[]string]        `json:"proxy_trusted_origins"`
	CacheDirectory                  DeploymentConfigField[string]          `json:"cache_directory"`
	InMemoryDatabase                DeploymentConfigField[bool]            `json:"in_memory_database"`
	PostgresURL                     DeploymentConfigField[string]          `json:"pg_connection_url"`
	OAuth2                          OAuth2Config                           `json:"oauth2"`
	OIDC                            OIDCConfig                             `json:"oidc"`
	Telemetry                       TelemetryConfig                        `json:"telemetry"`
	TLS                             TLSConfig                              `json:"tls"`
	Trace                           TraceConfig                            `json:"trace"`
	SecureAuthCookie                DeploymentConfigField[bool]            `json:"secure_auth_cookie"`
	SSHKeygenAlgorithm              DeploymentConfigField[string]          `json:"ssh_keygen_algorithm"`
	AutoImportTemplates             DeploymentConfigField[[]string]        `json:"auto_import_templates"`
	MetricsCacheRefreshInterval     DeploymentConfigField[int64]           `json:"metrics_cache_refresh_interval"`
	AgentStatRefreshInterval        DeploymentConfigField[int64]           `json:"agent_stat_refresh_interval"`
	AgentFallbackTroubleshootingURL DeploymentConfigField[string]          `json:"agent_fallback_troubleshooting_url"`
	AuditLogging                    DeploymentConfigField[bool]            `json:"audit_logging"`
	BrowserOnly                     DeploymentConfigField[bool]            `json:"browser_only"`
	SCIMAPIKey                      DeploymentConfigField[string]          `json:"scim_api_key"`
	Provisioner                     ProvisionerConfig                      `json:"provisioner"`
	APIRateLimit                    DeploymentConfigField[int]             `json:"api_rate_limit"`
	Experimental                    DeploymentConfigField[bool]            `json:"experimental"`
}

type DERP struct {
	Server DERPServerConfig `json:"server"`
	Config DERPConfig       `json:"config"`
}

type DERPServerConfig struct {
	Enable        DeploymentConfigField[bool]     `json:"enable"`
	RegionID      DeploymentConfigField[int]      `json:"region_id"`
	RegionCode    DeploymentConfigField[string]   `json:"region_code"`
	RegionName    DeploymentConfigField[string]   `json:"region_name"`
	STUNAddresses DeploymentConfigField[[]string] `json:"stun_addresses"`
	RelayURL      DeploymentConfigField[string]   `json:"relay_url"`
}

type DERPConfig struct {
	URL  DeploymentConfigField[string] `json:"url"`
	Path DeploymentConfigField[string] `json:"path"`
}

type PrometheusConfig struct {
	Enable  DeploymentConfigField[bool]   `json:"enable"`
	Address DeploymentConfigField[string] `json:"address"`
}

type PprofConfig struct {
	Enable  DeploymentConfigField[bool]   `json:"enable"`
	Address DeploymentConfigField[string] `json:"address"`
}

type OAuth2Config struct {
	Github OAuth2GithubConfig `json:"github"`
}

type OAuth2GithubConfig struct {
	ClientID          DeploymentConfigField[string]   `json:"client_id"`
	ClientSecret      DeploymentConfigField[string]   `json:"client_secret"`
	AllowedOrgs       DeploymentConfigField[[]string] `json:"allowed_orgs"`
	AllowedTeams      DeploymentConfigField[[]string] `json:"allowed_teams"`
	AllowSignups      DeploymentConfigField[bool]     `json:"allow_signups"`
	AllowEveryone     DeploymentConfigField[bool]     `json:"allow_everyone"`
	EnterpriseBaseURL DeploymentConfigField[string]   `json:"enterprise_base_url"`
}

type OIDCConfig struct {
	AllowSignups DeploymentConfigField[bool]     `json:"allow_signups"`
	ClientID     DeploymentConfigField[string]   `json:"client_id"`
	ClientSecret DeploymentConfigField[string]   `json:"client_secret"`
	EmailDomain  DeploymentConfigField[string]   `json:"email_domain"`
	IssuerURL    DeploymentConfigField[string]   `json:"issuer_url"`
	Scopes       DeploymentConfigField[[]string] `json:"scopes"`
}

type TelemetryConfig struct {
	Enable DeploymentConfigField[bool]   `json:"enable"`
	Trace  DeploymentConfigField[bool]   `json:"trace"`
	URL    DeploymentConfigField[string] `json:"url"`
}

type TLSConfig struct {
	Enable         DeploymentConfigField[bool]     `json:"enable"`
	CertFiles      DeploymentConfigField[[]string] `json:"cert_file"`
	ClientAuth     DeploymentConfigField[string]   `json:"client_auth"`
	ClientCAFile   DeploymentConfigField[string]   `json:"client_ca_file"`
	KeyFiles       DeploymentConfigField[[]string] `json:"key_file"`
	MinVersion     DeploymentConfigField[string]   `json:"min_version"`
	ClientCertFile DeploymentConfigField[string]   `json:"client_cert_file"`
	ClientKeyFile  DeploymentConfigField[string]   `json:"client_key_file"`
}

type TraceConfig struct {
	Enable          DeploymentConfigField[bool]   `json:"enable"`
	HoneycombAPIKey DeploymentConfigField[string] `json:"honeycomb_api_key"`
	CaptureLogs     DeploymentConfigField[bool]   `json:"capture_logs"`
}

type ProvisionerConfig struct {
	Daemons             DeploymentConfigField[int]   `json:"daemons"`
	ForceCancelInterval DeploymentConfigField[int64] `json:"force_cancel_interval"`
}

type GitAuthConfig struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	ClientID  string   `json:"client_id"`
	AuthURL   string   `json:"auth_url"`
	TokenURL  string   `json:"token_url"`
	Regex     string   `json:"regex"`
	NoRefresh bool     `json:"no_refresh"`
	Scopes    []string `json:"scopes"`
}
