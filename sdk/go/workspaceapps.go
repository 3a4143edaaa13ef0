package wsdecksdk

import (
	"slices"

	"github.com/google/uuid"
)

type WorkspaceAppHealth string

const (
	WorkspaceAppHealthDisabled     WorkspaceAppHealth = "disabled"
	WorkspaceAppHealthInitializing WorkspaceAppHealth = "initializing"
	WorkspaceAppHealthHealthy      WorkspaceAppHealth = "healthy"
	WorkspaceAppHealthUnhealthy    WorkspaceAppHealth = "unhealthy"
)

var WorkspaceAppHealths = []WorkspaceAppHealth{
	WorkspaceAppHealthDisabled,
	WorkspaceAppHealthHealthy,
	WorkspaceAppHealthInitializing,
	WorkspaceAppHealthUnhealthy,
}

func (h WorkspaceAppHealth) Valid() bool { return slices.Contains(WorkspaceAppHealths, h) }

func (h WorkspaceAppHealth) MarshalText() ([]byte, error) {
	return marshalEnum("WorkspaceAppHealth", h, WorkspaceAppHealths)
}

func (h *WorkspaceAppHealth) UnmarshalText(b []byte) error {
	return unmarshalEnum("WorkspaceAppHealth", b, WorkspaceAppHealths, h)
}

type WorkspaceAppSharingLevel string

const (
	WorkspaceAppSharingLevelOwner         WorkspaceAppSharingLevel = "owner"
	WorkspaceAppSharingLevelAuthenticated WorkspaceAppSharingLevel = "authenticated"
	WorkspaceAppSharingLevelPublic        WorkspaceAppSharingLevel = "public"
)

var WorkspaceAppSharingLevels = []WorkspaceAppSharingLevel{
	WorkspaceAppSharingLevelAuthenticated,
	WorkspaceAppSharingLevelOwner,
	WorkspaceAppSharingLevelPublic,
}

func (l WorkspaceAppSharingLevel) Valid() bool {
	return slices.Contains(WorkspaceAppSharingLevels, l)
}

func (l WorkspaceAppSharingLevel) MarshalText() ([]byte, error) {
	return marshalEnum("WorkspaceAppSharingLevel", l, WorkspaceAppSharingLevels)
}

func (l *WorkspaceAppSharingLevel) UnmarshalText(b []byte) error {
	return unmarshalEnum("WorkspaceAppSharingLevel", b, WorkspaceAppSharingLevels, l)
}

type WorkspaceApp struct {
	ID           uuid.UUID                `json:"id" format:"uuid"`
	Slug         string                   `json:"slug"`
	DisplayName  string                   `json:"display_name"`
	Command      *string                  `json:"command,omitempty"`
	Icon         *string                  `json:"icon,omitempty"`
	Subdomain    bool                     `json:"subdomain"`
	SharingLevel WorkspaceAppSharingLevel `json:"sharing_level"`
	Healthcheck  Healthcheck              `json:"healthcheck"`
	Health       WorkspaceAppHealth       `json:"health"`
}

type Healthcheck struct {
	URL       string `json:"url"`
	Interval  int32  `json:"interval"`
	Threshold int32  `json:"threshold"`
}
