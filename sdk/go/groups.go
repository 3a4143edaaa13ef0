package wsdecksdk

import "github.com/google/uuid"

type CreateGroupRequest struct {
	Name           string `json:"name"`
	AvatarURL      string `json:"avatar_url"`
	QuotaAllowance int    `json:"quota_allowance"`
}

type Group struct {
	ID             uuid.UUID `json:"id" format:"uuid"`
	Name           string    `json:"name"`
	OrganizationID uuid.UUID `json:"organization_id" format:"uuid"`
	Members        []User    `json:"members"`
	AvatarURL      string    `json:"avatar_url"`
	QuotaAllowance int       `json:"quota_allowance"`
}

// PatchGroupRequest adds and removes members by id. Unset optional fields are
// left unchanged.
type PatchGroupRequest struct {
	AddUsers       []string `json:"add_users"`
	RemoveUsers    []string `json:"remove_users"`
	Name           string   `json:"name"`
	AvatarURL      *string  `json:"avatar_url,omitempty"`
	QuotaAllowance *int     `json:"quota_allowance,omitempty"`
}
