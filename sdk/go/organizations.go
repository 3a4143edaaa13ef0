package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID `json:"id" format:"uuid"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at" format:"date-time"`
	UpdatedAt time.Time `json:"updated_at" format:"date-time"`
}

type OrganizationMember struct {
	UserID         uuid.UUID `json:"user_id" format:"uuid"`
	OrganizationID uuid.UUID `json:"organization_id" format:"uuid"`
	CreatedAt      time.Time `json:"created_at" format:"date-time"`
	UpdatedAt      time.Time `json:"updated_at" format:"date-time"`
	Roles          []Role    `json:"roles"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type ProvisionerStorageMethod string

const ProvisionerStorageMethodFile ProvisionerStorageMethod = "file"

var ProvisionerStorageMethods = []ProvisionerStorageMethod{ProvisionerStorageMethodFile}

func (m ProvisionerStorageMethod) Valid() bool {
	return slices.Contains(ProvisionerStorageMethods, m)
}

func (m ProvisionerStorageMethod) MarshalText() ([]byte, error) {
	return marshalEnum("ProvisionerStorageMethod", m, ProvisionerStorageMethods)
}

func (m *ProvisionerStorageMethod) UnmarshalText(b []byte) error {
	return unmarshalEnum("ProvisionerStorageMethod", b, ProvisionerStorageMethods, m)
}

type ProvisionerType string

const (
	ProvisionerTypeEcho      ProvisionerType = "echo"
	ProvisionerTypeTerraform ProvisionerType = "terraform"
)

var ProvisionerTypes = []ProvisionerType{ProvisionerTypeEcho, ProvisionerTypeTerraform}

func (p ProvisionerType) Valid() bool { return slices.Contains(ProvisionerTypes, p) }

func (p ProvisionerType) MarshalText() ([]byte, error) {
	return marshalEnum("ProvisionerType", p, ProvisionerTypes)
}

func (p *ProvisionerType) UnmarshalText(b []byte) error {
	return unmarshalEnum("ProvisionerType", b, ProvisionerTypes, p)
}

// CreateTemplateVersionRequest enqueues an import job for an uploaded file.
// Without TemplateID the version is created detached and attached later by
// CreateTemplateRequest.
type CreateTemplateVersionRequest struct {
	Name            *string                  `json:"name,omitempty"`
	TemplateID      *uuid.UUID               `json:"template_id,omitempty" format:"uuid"`
	StorageMethod   ProvisionerStorageMethod `json:"storage_method"`
	FileID          uuid.UUID                `json:"file_id" format:"uuid"`
	Provisioner     ProvisionerType          `json:"provisioner"`
	ProvisionerTags map[string]string        `json:"tags"`
	ParameterValues []CreateParameterRequest `json:"parameter_values,omitzero"`
}

type CreateTemplateRequest struct {
	Name             string                   `json:"name"`
	DisplayName      *string                  `json:"display_name,omitempty"`
	Description      *string                  `json:"description,omitempty"`
	Icon             *string                  `json:"icon,omitempty"`
	VersionID        uuid.UUID                `json:"template_version_id" format:"uuid"`
	ParameterValues  []CreateParameterRequest `json:"parameter_values,omitzero"`
	DefaultTTLMillis *int64                   `json:"default_ttl_ms,omitempty"`
}

type CreateWorkspaceRequest struct {
	TemplateID        uuid.UUID                `json:"template_id" format:"uuid"`
	Name              string                   `json:"name"`
	AutostartSchedule *string                  `json:"autostart_schedule,omitempty"`
	TTLMillis         *int64                   `json:"ttl_ms,omitempty"`
	ParameterValues   []CreateParameterRequest `json:"parameter_values,omitzero"`
}
