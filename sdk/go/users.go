package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

var UserStatuses = []UserStatus{UserStatusActive, UserStatusSuspended}

func (s UserStatus) Valid() bool { return slices.Contains(UserStatuses, s) }

func (s UserStatus) MarshalText() ([]byte, error) {
	return marshalEnum("UserStatus", s, UserStatuses)
}

func (s *UserStatus) UnmarshalText(b []byte) error {
	return unmarshalEnum("UserStatus", b, UserStatuses, s)
}

type User struct {
	ID              uuid.UUID   `json:"id" format:"uuid"`
	Username        string      `json:"username"`
	Email           string      `json:"email" format:"email"`
	CreatedAt       time.Time   `json:"created_at" format:"date-time"`
	LastSeenAt      time.Time   `json:"last_seen_at" format:"date-time"`
	Status          UserStatus  `json:"status"`
	OrganizationIDs []uuid.UUID `json:"organization_ids"`
	Roles           []Role      `json:"roles"`
	AvatarURL       string      `json:"avatar_url"`
}

// HasRole reports whether the user holds the site-wide role name.
func (u User) HasRole(name string) bool {
	return slices.ContainsFunc(u.Roles, func(r Role) bool { return r.Name == name })
}

type UsersRequest struct {
	Pagination
	SearchQuery *string `json:"q,omitempty"`
}

func (r UsersRequest) QueryParams() QueryParams {
	return r.Pagination.QueryParams().addString("q", r.SearchQuery)
}

type GetUsersResponse struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}

// CreateFirstUserRequest bootstraps a deployment. It is accepted exactly once.
type CreateFirstUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Trial    bool   `json:"trial"`
}

type CreateFirstUserResponse struct {
	UserID         uuid.UUID `json:"user_id" format:"uuid"`
	OrganizationID uuid.UUID `json:"organization_id" format:"uuid"`
}

type CreateUserRequest struct {
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	Password       string    `json:"password"`
	OrganizationID uuid.UUID `json:"organization_id" format:"uuid"`
}

type LoginWithPasswordRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginWithPasswordResponse struct {
	SessionToken string `json:"session_token"`
}

type UpdateUserProfileRequest struct {
	Username string `json:"username"`
}

type UpdateUserPasswordRequest struct {
	OldPassword string `json:"old_password"`
	Password    string `json:"password"`
}

type UpdateRoles struct {
	Roles []string `json:"roles"`
}

type UserRoles struct {
	Roles             []string               `json:"roles"`
	OrganizationRoles map[uuid.UUID][]string `json:"organization_roles"`
}

type AuthMethods struct {
	Password bool `json:"password"`
	Github   bool `json:"github"`
	OIDC     bool `json:"oidc"`
}
