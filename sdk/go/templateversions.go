package wsdecksdk

import (
	"time"

	"github.com/google/uuid"
)

// TemplateVersion is one imported revision of a template. TemplateID is absent
// until the version is attached to a template.
type TemplateVersion struct {
	ID             uuid.UUID      `json:"id" format:"uuid"`
	TemplateID     *uuid.UUID     `json:"template_id,omitempty" format:"uuid"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty" format:"uuid"`
	CreatedAt      time.Time      `json:"created_at" format:"date-time"`
	UpdatedAt      time.Time      `json:"updated_at" format:"date-time"`
	Name           string         `json:"name"`
	Job            ProvisionerJob `json:"job"`
	Readme         string         `json:"readme"`
	CreatedBy      User           `json:"created_by"`
}

type CreateTemplateVersionDryRunRequest struct {
	WorkspaceName   string                   `json:"workspace_name"`
	ParameterValues []CreateParameterRequest `json:"parameter_values"`
}
