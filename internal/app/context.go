// Package app resolves the CLI's view of a deployment: which server to talk
// to and as whom.
package app

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/config"
	wsdecksdk "wsdeck/sdk/go"
)

// Overrides come from flags and environment and win over wsdeck.yml.
type Overrides struct {
	URL          string
	SessionToken string
	Organization string
	Timeout      time.Duration
}

// ResolveClient builds an SDK client from the workspace config and overrides.
func ResolveClient(workspace string, o Overrides) (*wsdecksdk.Client, *config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, nil, err
	}
	if o.URL != "" {
		cfg.Client.URL = o.URL
	}
	if o.SessionToken != "" {
		cfg.Client.SessionToken = o.SessionToken
	}
	if o.Organization != "" {
		cfg.Client.OrganizationID = o.Organization
	}
	u, err := cfg.ServerURL()
	if err != nil {
		return nil, nil, err
	}
	client := wsdecksdk.New(u)
	client.SessionToken = cfg.Client.SessionToken
	if o.Timeout > 0 {
		client.Timeout = o.Timeout
	}
	return client, cfg, nil
}

// ResolveOrganization returns the organization commands act in. Without a
// configured one, the first organization of the caller is used.
func ResolveOrganization(cfg *config.Config, me wsdecksdk.User) (uuid.UUID, error) {
	if raw := strings.TrimSpace(cfg.Client.OrganizationID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("client.organization_id: %w", err)
		}
		return id, nil
	}
	if len(me.OrganizationIDs) == 0 {
		return uuid.Nil, fmt.Errorf("user %s belongs to no organization", me.Username)
	}
	return me.OrganizationIDs[0], nil
}

// SaveSession records a successful login in the workspace config.
func SaveSession(workspace string, serverURL *url.URL, token string, orgID uuid.UUID) error {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	cfg.Client.URL = serverURL.String()
	cfg.Client.SessionToken = token
	if orgID != uuid.Nil {
		cfg.Client.OrganizationID = orgID.String()
	}
	return cfg.Save(workspace)
}
