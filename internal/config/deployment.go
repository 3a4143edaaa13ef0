package config

import (
	"errors"
	"time"

	wsdecksdk "wsdeck/sdk/go"
)

// fieldBuilder collects construction failures so a whole DeploymentConfig is
// either built or reported at once.
type fieldBuilder struct {
	errs []error
}

func field[T wsdecksdk.Flaggable](b *fieldBuilder, meta wsdecksdk.DeploymentConfigFieldMeta, def, value any) wsdecksdk.DeploymentConfigField[T] {
	f, err := wsdecksdk.NewDeploymentConfigField[T](meta, def, value)
	if err != nil {
		b.errs = append(b.errs, err)
	}
	if meta.Secret {
		var zero T
		f.Value = zero
		f.Default = zero
	}
	return f
}

func meta(name, usage, flag string) wsdecksdk.DeploymentConfigFieldMeta {
	return wsdecksdk.DeploymentConfigFieldMeta{Name: name, Usage: usage, Flag: flag}
}

func secret(m wsdecksdk.DeploymentConfigFieldMeta) wsdecksdk.DeploymentConfigFieldMeta {
	m.Secret = true
	return m
}

func enterprise(m wsdecksdk.DeploymentConfigFieldMeta) wsdecksdk.DeploymentConfigFieldMeta {
	m.Enterprise = true
	return m
}

func hidden(m wsdecksdk.DeploymentConfigFieldMeta) wsdecksdk.DeploymentConfigFieldMeta {
	m.Hidden = true
	return m
}

func short(m wsdecksdk.DeploymentConfigFieldMeta, s string) wsdecksdk.DeploymentConfigFieldMeta {
	m.Shorthand = s
	return m
}

// DeploymentConfig renders the server section as the API sees it. Defaults come
// from Default(); secret values are blanked.
func (c *Config) DeploymentConfig() (wsdecksdk.DeploymentConfig, error) {
	d := Default().Server
	s := c.Server
	b := &fieldBuilder{}
	out := wsdecksdk.DeploymentConfig{
		AccessURL:             field[string](b, meta("Access URL", "External URL to access your deployment.", "access-url"), d.AccessURL, s.AccessURL),
		WildcardAccessURL:     field[string](b, meta("Wildcard Access URL", "Specifies the wildcard hostname to use for workspace applications.", "wildcard-access-url"), d.WildcardAccessURL, s.WildcardAccessURL),
		Address:               field[string](b, short(meta("Address", "Bind address of the server.", "address"), "a"), d.Address, s.Address),
		AutobuildPollInterval: field[int64](b, hidden(meta("Autobuild Poll Interval", "Interval to poll for scheduled workspace builds.", "autobuild-poll-interval")), int64(d.AutobuildPollInterval), int64(s.AutobuildPollInterval)),
		DERP: wsdecksdk.DERP{
			Server: wsdecksdk.DERPServerConfig{
				Enable:        field[bool](b, meta("DERP Server Enable", "Whether to enable or disable the embedded DERP relay server.", "derp-server-enable"), d.DERP.ServerEnable, s.DERP.ServerEnable),
				RegionID:      field[int](b, meta("DERP Server Region ID", "Region ID to use for the embedded DERP server.", "derp-server-region-id"), d.DERP.ServerRegionID, s.DERP.ServerRegionID),
				RegionCode:    field[string](b, meta("DERP Server Region Code", "Region code to use for the embedded DERP server.", "derp-server-region-code"), d.DERP.ServerRegionCode, s.DERP.ServerRegionCode),
				RegionName:    field[string](b, meta("DERP Server Region Name", "Region name that for the embedded DERP server.", "derp-server-region-name"), d.DERP.ServerRegionName, s.DERP.ServerRegionName),
				STUNAddresses: field[[]string](b, meta("DERP Server STUN Addresses", "Addresses for STUN servers to establish P2P connections.", "derp-server-stun-addresses"), d.DERP.ServerSTUNAddresses, nonNil(s.DERP.ServerSTUNAddresses)),
				RelayURL:      field[string](b, enterprise(meta("DERP Server Relay URL", "An HTTP URL that is accessible by other replicas to relay DERP traffic.", "derp-server-relay-url")), d.DERP.ServerRelayURL, s.DERP.ServerRelayURL),
			},
			Config: wsdecksdk.DERPConfig{
				URL:  field[string](b, meta("DERP Config URL", "URL to fetch a DERP mapping on startup.", "derp-config-url"), d.DERP.ConfigURL, s.DERP.ConfigURL),
				Path: field[string](b, meta("DERP Config Path", "Path to read a DERP mapping from.", "derp-config-path"), d.DERP.ConfigPath, s.DERP.ConfigPath),
			},
		},
		GitAuth: field[[]wsdecksdk.GitAuthConfig](b, hidden(meta("Git Auth", "Automatically authenticate Git inside workspaces.", "gitauth")), gitAuth(d.GitAuth), gitAuth(s.GitAuth)),
		Prometheus: wsdecksdk.PrometheusConfig{
			Enable:  field[bool](b, meta("Prometheus Enable", "Serve prometheus metrics on the address defined by prometheus address.", "prometheus-enable"), d.Prometheus.Enable, s.Prometheus.Enable),
			Address: field[string](b, meta("Prometheus Address", "The bind address to serve prometheus metrics.", "prometheus-address"), d.Prometheus.Address, s.Prometheus.Address),
		},
		Pprof: wsdecksdk.PprofConfig{
			Enable:  field[bool](b, meta("Pprof Enable", "Serve pprof metrics on the address defined by pprof address.", "pprof-enable"), d.Pprof.Enable, s.Pprof.Enable),
			Address: field[string](b, meta("Pprof Address", "The bind address to serve pprof.", "pprof-address"), d.Pprof.Address, s.Pprof.Address),
		},
		ProxyTrustedHeaders: field[[]string](b, meta("Proxy Trusted Headers", "Headers to trust for forwarding IP addresses.", "proxy-trusted-headers"), nonNil(d.ProxyTrustedHeaders), nonNil(s.ProxyTrustedHeaders)),
		ProxyTrustedOrigins: field[[]string](b, meta("Proxy Trusted Origins", "Origin addresses to respect proxy-trusted-headers.", "proxy-trusted-origins"), nonNil(d.ProxyTrustedOrigins), nonNil(s.ProxyTrustedOrigins)),
		CacheDirectory:      field[string](b, meta("Cache Directory", "The directory to cache temporary files.", "cache-dir"), d.CacheDirectory, s.CacheDirectory),
		InMemoryDatabase:    field[bool](b, hidden(meta("In Memory Database", "Controls whether data will be stored in an in-memory database.", "in-memory")), d.InMemoryDatabase, s.InMemoryDatabase),
		PostgresURL:         field[string](b, secret(meta("Postgres Connection URL", "URL of a PostgreSQL database.", "postgres-url")), "", ""),
		OAuth2: wsdecksdk.OAuth2Config{
			Github: wsdecksdk.OAuth2GithubConfig{
				ClientID:          field[string](b, meta("OAuth2 GitHub Client ID", "Client ID for Login with GitHub.", "oauth2-github-client-id"), d.OAuth2Github.ClientID, s.OAuth2Github.ClientID),
				ClientSecret:      field[string](b, secret(meta("OAuth2 GitHub Client Secret", "Client secret for Login with GitHub.", "oauth2-github-client-secret")), d.OAuth2Github.ClientSecret, s.OAuth2Github.ClientSecret),
				AllowedOrgs:       field[[]string](b, meta("OAuth2 GitHub Allowed Orgs", "Organizations the user must be a member of to Login with GitHub.", "oauth2-github-allowed-orgs"), nonNil(d.OAuth2Github.AllowedOrgs), nonNil(s.OAuth2Github.AllowedOrgs)),
				AllowedTeams:      field[[]string](b, meta("OAuth2 GitHub Allowed Teams", "Teams inside organizations the user must be a member of to Login with GitHub.", "oauth2-github-allowed-teams"), nonNil(d.OAuth2Github.AllowedTeams), nonNil(s.OAuth2Github.AllowedTeams)),
				AllowSignups:      field[bool](b, meta("OAuth2 GitHub Allow Signups", "Whether new users can sign up with GitHub.", "oauth2-github-allow-signups"), d.OAuth2Github.AllowSignups, s.OAuth2Github.AllowSignups),
				AllowEveryone:     field[bool](b, meta("OAuth2 GitHub Allow Everyone", "Allow all logins, setting this option means allowed orgs and teams must be empty.", "oauth2-github-allow-everyone"), d.OAuth2Github.AllowEveryone, s.OAuth2Github.AllowEveryone),
				EnterpriseBaseURL: field[string](b, meta("OAuth2 GitHub Enterprise Base URL", "The GitHub Enterprise base URL to use for Login with GitHub.", "oauth2-github-enterprise-base-url"), d.OAuth2Github.EnterpriseBaseURL, s.OAuth2Github.EnterpriseBaseURL),
			},
		},
		OIDC: wsdecksdk.OIDCConfig{
			AllowSignups: field[bool](b, meta("OIDC Allow Signups", "Whether new users can sign up with OIDC.", "oidc-allow-signups"), d.OIDC.AllowSignups, s.OIDC.AllowSignups),
			ClientID:     field[string](b, meta("OIDC Client ID", "Client ID to use for Login with OIDC.", "oidc-client-id"), d.OIDC.ClientID, s.OIDC.ClientID),
			ClientSecret: field[string](b, secret(meta("OIDC Client Secret", "Client secret to use for Login with OIDC.", "oidc-client-secret")), d.OIDC.ClientSecret, s.OIDC.ClientSecret),
			EmailDomain:  field[string](b, meta("OIDC Email Domain", "Email domain that clients logging in with OIDC must match.", "oidc-email-domain"), d.OIDC.EmailDomain, s.OIDC.EmailDomain),
			IssuerURL:    field[string](b, meta("OIDC Issuer URL", "Issuer URL to use for Login with OIDC.", "oidc-issuer-url"), d.OIDC.IssuerURL, s.OIDC.IssuerURL),
			Scopes:       field[[]string](b, meta("OIDC Scopes", "Scopes to grant when authenticating with OIDC.", "oidc-scopes"), nonNil(d.OIDC.Scopes), nonNil(s.OIDC.Scopes)),
		},
		Telemetry: wsdecksdk.TelemetryConfig{
			Enable: field[bool](b, meta("Telemetry Enable", "Whether telemetry is enabled or not.", "telemetry"), d.Telemetry.Enable, s.Telemetry.Enable),
			Trace:  field[bool](b, meta("Telemetry Trace", "Whether Opentelemetry traces are sent to Coder.", "telemetry-trace"), d.Telemetry.Trace, s.Telemetry.Trace),
			URL:    field[string](b, hidden(meta("Telemetry URL", "URL to send telemetry.", "telemetry-url")), d.Telemetry.URL, s.Telemetry.URL),
		},
		TLS: wsdecksdk.TLSConfig{
			Enable:         field[bool](b, meta("TLS Enable", "Whether TLS will be enabled.", "tls-enable"), d.TLS.Enable, s.TLS.Enable),
			CertFiles:      field[[]string](b, meta("TLS Certificate Files", "Path to each certificate for TLS.", "tls-cert-file"), nonNil(d.TLS.CertFiles), nonNil(s.TLS.CertFiles)),
			ClientAuth:     field[string](b, meta("TLS Client Auth", "Policy the server will follow for TLS Client Authentication.", "tls-client-auth"), d.TLS.ClientAuth, s.TLS.ClientAuth),
			ClientCAFile:   field[string](b, meta("TLS Client CA Files", "PEM-encoded Certificate Authority file used for checking the authenticity of client.", "tls-client-ca-file"), d.TLS.ClientCAFile, s.TLS.ClientCAFile),
			KeyFiles:       field[[]string](b, meta("TLS Key Files", "Paths to the private keys for each of the certificates.", "tls-key-file"), nonNil(d.TLS.KeyFiles), nonNil(s.TLS.KeyFiles)),
			MinVersion:     field[string](b, meta("TLS Minimum Version", "Minimum supported version of TLS.", "tls-min-version"), d.TLS.MinVersion, s.TLS.MinVersion),
			ClientCertFile: field[string](b, meta("TLS Client Cert File", "Path to certificate for client TLS authentication.", "tls-client-cert-file"), d.TLS.ClientCertFile, s.TLS.ClientCertFile),
			ClientKeyFile:  field[string](b, meta("TLS Client Key File", "Path to key for client TLS authentication.", "tls-client-key-file"), d.TLS.ClientKeyFile, s.TLS.ClientKeyFile),
		},
		Trace: wsdecksdk.TraceConfig{
			Enable:          field[bool](b, meta("Trace Enable", "Whether application tracing data is collected.", "trace"), d.Trace.Enable, s.Trace.Enable),
			HoneycombAPIKey: field[string](b, secret(meta("Trace Honeycomb API Key", "Enables trace exporting to Honeycomb.io using the provided API Key.", "trace-honeycomb-api-key")), d.Trace.HoneycombAPIKey, s.Trace.HoneycombAPIKey),
			CaptureLogs:     field[bool](b, meta("Capture Logs in Traces", "Enables capturing of logs as events in traces.", "trace-logs"), d.Trace.CaptureLogs, s.Trace.CaptureLogs),
		},
		SecureAuthCookie:                field[bool](b, meta("Secure Auth Cookie", "Controls if the 'Secure' property is set on browser session cookies.", "secure-auth-cookie"), d.SecureAuthCookie, s.SecureAuthCookie),
		SSHKeygenAlgorithm:              field[string](b, meta("SSH Keygen Algorithm", "The algorithm to use for generating ssh keys.", "ssh-keygen-algorithm"), d.SSHKeygenAlgorithm, s.SSHKeygenAlgorithm),
		AutoImportTemplates:             field[[]string](b, hidden(meta("Auto Import Templates", "Templates to auto-import.", "auto-import-template")), nonNil(d.AutoImportTemplates), nonNil(s.AutoImportTemplates)),
		MetricsCacheRefreshInterval:     field[int64](b, hidden(meta("Metrics Cache Refresh Interval", "How frequently metrics are refreshed.", "metrics-cache-refresh-interval")), int64(time.Hour), int64(time.Hour)),
		AgentStatRefreshInterval:        field[int64](b, hidden(meta("Agent Stat Refresh Interval", "How frequently agent stats are recorded.", "agent-stats-refresh-interval")), int64(10*time.Minute), int64(10*time.Minute)),
		AgentFallbackTroubleshootingURL: field[string](b, hidden(meta("Agent Fallback Troubleshooting URL", "URL to use for agent troubleshooting when not set in the template.", "agent-fallback-troubleshooting-url")), "https://coder.com/docs/coder-oss/latest/templates#troubleshooting-templates", "https://coder.com/docs/coder-oss/latest/templates#troubleshooting-templates"),
		AuditLogging:                    field[bool](b, enterprise(meta("Audit Logging", "Specifies whether audit logging is enabled.", "audit-logging")), d.AuditLogging, s.AuditLogging),
		BrowserOnly:                     field[bool](b, enterprise(meta("Browser Only", "Whether Coder only allows connections to workspaces via the browser.", "browser-only")), d.BrowserOnly, s.BrowserOnly),
		SCIMAPIKey:                      field[string](b, secret(enterprise(meta("SCIM API Key", "Enables SCIM and sets the authentication header for the built-in SCIM server.", "scim-auth-header"))), d.SCIMAPIKey, s.SCIMAPIKey),
		Provisioner: wsdecksdk.ProvisionerConfig{
			Daemons:             field[int](b, meta("Provisioner Daemons", "Number of provisioner daemons to create on start.", "provisioner-daemons"), d.Provisioner.Daemons, s.Provisioner.Daemons),
			ForceCancelInterval: field[int64](b, meta("Force Cancel Interval", "Time to force cancel provisioning tasks that are stuck.", "provisioner-force-cancel-interval"), int64(d.Provisioner.ForceCancelInterval), int64(s.Provisioner.ForceCancelInterval)),
		},
		APIRateLimit: field[int](b, meta("API Rate Limit", "Maximum number of requests per minute allowed to the API per user, or per IP address for unauthenticated users.", "api-rate-limit"), d.APIRateLimit, s.APIRateLimit),
		Experimental: field[bool](b, meta("Experimental", "Enable experimental features.", "experimental"), d.Experimental, s.Experimental),
	}
	if len(b.errs) > 0 {
		return wsdecksdk.DeploymentConfig{}, errors.Join(b.errs...)
	}
	return out, nil
}

func gitAuth(items []GitAuth) []wsdecksdk.GitAuthConfig {
	out := make([]wsdecksdk.GitAuthConfig, 0, len(items))
	for _, ga := range items {
		out = append(out, wsdecksdk.GitAuthConfig{
			ID:        ga.ID,
			Type:      ga.Type,
			ClientID:  ga.ClientID,
			AuthURL:   ga.AuthURL,
			TokenURL:  ga.TokenURL,
			Regex:     ga.Regex,
			NoRefresh: ga.NoRefresh,
			Scopes:    nonNil(ga.Scopes),
		})
	}
	return out
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
