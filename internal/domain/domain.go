// Package domain holds server-side records that never cross the wire as-is.
// Everything a client sees is a wsdecksdk entity.
package domain

import (
	"time"

	"github.com/google/uuid"

	wsdecksdk "wsdeck/sdk/go"
)

// APIKey is a session token as stored. KeyHash is the SHA-256 of the secret
// half; the secret itself is never stored.
type APIKey struct {
	wsdecksdk.APIKey
	KeyHash string
}

// Expired reports whether the key can no longer authenticate at now.
func (k APIKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && !now.Before(k.ExpiresAt)
}

// UserCredentials pairs a user with the bcrypt hash used to log in.
type UserCredentials struct {
	User           wsdecksdk.User
	HashedPassword []byte
}

// File is an uploaded template source.
type File struct {
	ID          uuid.UUID
	Hash        string
	ContentType string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	Content     []byte
}

// LicenseRecord is an uploaded license JWT with the claims it carried.
type LicenseRecord struct {
	License   wsdecksdk.License
	JWT       string
	ExpiresAt time.Time
}

// Page scopes a list query. Limit 0 means no limit.
type Page struct {
	AfterID *uuid.UUID
	Limit   int
	Offset  int
}

// PageFrom converts the wire envelope.
func PageFrom(p wsdecksdk.Pagination) Page {
	page := Page{AfterID: p.AfterID}
	if p.Limit != nil {
		page.Limit = *p.Limit
	}
	if p.Offset != nil {
		page.Offset = *p.Offset
	}
	return page
}

// WorkspaceFilter is the parsed form of a workspace search query.
type WorkspaceFilter struct {
	OwnerID        *uuid.UUID
	OwnerName      string
	Name           string
	TemplateName   string
	Status         *wsdecksdk.WorkspaceStatus
	IncludeDeleted bool
}

// UserFilter is the parsed form of a user search query.
type UserFilter struct {
	Search string
	Status *wsdecksdk.UserStatus
}

// AuditFilter is the parsed form of an audit search query.
type AuditFilter struct {
	ResourceType *wsdecksdk.ResourceType
	ResourceID   *uuid.UUID
	Action       *wsdecksdk.AuditAction
}
