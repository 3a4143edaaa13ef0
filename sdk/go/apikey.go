package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// APIKey describes a session or long-lived token. The secret half is never
// returned.
type APIKey struct {
	ID              string      `json:"id"`
	UserID          uuid.UUID   `json:"user_id" format:"uuid"`
	LastUsed        time.Time   `json:"last_used" format:"date-time"`
	ExpiresAt       time.Time   `json:"expires_at" format:"date-time"`
	CreatedAt       time.Time   `json:"created_at" format:"date-time"`
	UpdatedAt       time.Time   `json:"updated_at" format:"date-time"`
	LoginType       LoginType   `json:"login_type"`
	Scope           APIKeyScope `json:"scope"`
	LifetimeSeconds int64       `json:"lifetime_seconds"`
}

type LoginType string

const (
	LoginTypeGithub   LoginType = "github"
	LoginTypeOIDC     LoginType = "oidc"
	LoginTypePassword LoginType = "password"
	LoginTypeToken    LoginType = "token"
)

var LoginTypes = []LoginType{LoginTypeGithub, LoginTypeOIDC, LoginTypePassword, LoginTypeToken}

func (t LoginType) Valid() bool { return slices.Contains(LoginTypes, t) }

func (t LoginType) MarshalText() ([]byte, error) { return marshalEnum("LoginType", t, LoginTypes) }

func (t *LoginType) UnmarshalText(b []byte) error {
	return unmarshalEnum("LoginType", b, LoginTypes, t)
}

type APIKeyScope string

const (
	APIKeyScopeAll                APIKeyScope = "all"
	APIKeyScopeApplicationConnect APIKeyScope = "application_connect"
)

var APIKeyScopes = []APIKeyScope{APIKeyScopeAll, APIKeyScopeApplicationConnect}

func (s APIKeyScope) Valid() bool { return slices.Contains(APIKeyScopes, s) }

func (s APIKeyScope) MarshalText() ([]byte, error) {
	return marshalEnum("APIKeyScope", s, APIKeyScopes)
}

func (s *APIKeyScope) UnmarshalText(b []byte) error {
	return unmarshalEnum("APIKeyScope", b, APIKeyScopes, s)
}

type CreateTokenRequest struct {
	Scope APIKeyScope `json:"scope"`
}

// GenerateAPIKeyResponse carries the full secret exactly once.
type GenerateAPIKeyResponse struct {
	Key string `json:"key"`
}
