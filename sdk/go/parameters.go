package wsdecksdk

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type ParameterScope string

const (
	ParameterImportJob ParameterScope = "import_job"
	ParameterTemplate  ParameterScope = "template"
	ParameterWorkspace ParameterScope = "workspace"
)

var ParameterScopes = []ParameterScope{ParameterImportJob, ParameterTemplate, ParameterWorkspace}

func (s ParameterScope) Valid() bool { return slices.Contains(ParameterScopes, s) }

func (s ParameterScope) MarshalText() ([]byte, error) {
	return marshalEnum("ParameterScope", s, ParameterScopes)
}

func (s *ParameterScope) UnmarshalText(b []byte) error {
	return unmarshalEnum("ParameterScope", b, ParameterScopes, s)
}

type ParameterSourceScheme string

const (
	ParameterSourceSchemeNone ParameterSourceScheme = "none"
	ParameterSourceSchemeData ParameterSourceScheme = "data"
)

var ParameterSourceSchemes = []ParameterSourceScheme{ParameterSourceSchemeData, ParameterSourceSchemeNone}

func (s ParameterSourceScheme) Valid() bool { return slices.Contains(ParameterSourceSchemes, s) }

func (s ParameterSourceScheme) MarshalText() ([]byte, error) {
	return marshalEnum("ParameterSourceScheme", s, ParameterSourceSchemes)
}

func (s *ParameterSourceScheme) UnmarshalText(b []byte) error {
	return unmarshalEnum("ParameterSourceScheme", b, ParameterSourceSchemes, s)
}

type ParameterDestinationScheme string

const (
	ParameterDestinationSchemeNone                ParameterDestinationScheme = "none"
	ParameterDestinationSchemeEnvironmentVariable ParameterDestinationScheme = "environment_variable"
	ParameterDestinationSchemeProvisionerVariable ParameterDestinationScheme = "provisioner_variable"
)

var ParameterDestinationSchemes = []ParameterDestinationScheme{
	ParameterDestinationSchemeEnvironmentVariable,
	ParameterDestinationSchemeNone,
	ParameterDestinationSchemeProvisionerVariable,
}

func (s ParameterDestinationScheme) Valid() bool {
	return slices.Contains(ParameterDestinationSchemes, s)
}

func (s ParameterDestinationScheme) MarshalText() ([]byte, error) {
	return marshalEnum("ParameterDestinationScheme", s, ParameterDestinationSchemes)
}

func (s *ParameterDestinationScheme) UnmarshalText(b []byte) error {
	return unmarshalEnum("ParameterDestinationScheme", b, ParameterDestinationSchemes, s)
}

type ParameterTypeSystem string

const (
	ParameterTypeSystemNone ParameterTypeSystem = "none"
	ParameterTypeSystemHCL  ParameterTypeSystem = "hcl"
)

var ParameterTypeSystems = []ParameterTypeSystem{ParameterTypeSystemHCL, ParameterTypeSystemNone}

func (s ParameterTypeSystem) Valid() bool { return slices.Contains(ParameterTypeSystems, s) }

func (s ParameterTypeSystem) MarshalText() ([]byte, error) {
	return marshalEnum("ParameterTypeSystem", s, ParameterTypeSystems)
}

func (s *ParameterTypeSystem) UnmarshalText(b []byte) error {
	return unmarshalEnum("ParameterTypeSystem", b, ParameterTypeSystems, s)
}

// Parameter is a value bound at some scope. The value itself is never returned.
type Parameter struct {
	ID                uuid.UUID                  `json:"id" format:"uuid"`
	Scope             ParameterScope             `json:"scope"`
	ScopeID           uuid.UUID                  `json:"scope_id" format:"uuid"`
	Name              string                     `json:"name"`
	SourceScheme      ParameterSourceScheme      `json:"source_scheme"`
	DestinationScheme ParameterDestinationScheme `json:"destination_scheme"`
	CreatedAt         time.Time                  `json:"created_at" format:"date-time"`
	UpdatedAt         time.Time                  `json:"updated_at" format:"date-time"`
}

// ComputedParameter is a Parameter after scope resolution.
type ComputedParameter struct {
	Parameter
	SourceValue        string    `json:"source_value"`
	SchemaID           uuid.UUID `json:"schema_id" format:"uuid"`
	DefaultSourceValue bool      `json:"default_source_value"`
}

// ParameterSchema is what a template declares a parameter to be.
type ParameterSchema struct {
	ID                       uuid.UUID                  `json:"id" format:"uuid"`
	CreatedAt                time.Time                  `json:"created_at" format:"date-time"`
	JobID                    uuid.UUID                  `json:"job_id" format:"uuid"`
	Name                     string                     `json:"name"`
	Description              string                     `json:"description"`
	DefaultSourceScheme      ParameterSourceScheme      `json:"default_source_scheme"`
	DefaultSourceValue       string                     `json:"default_source_value"`
	AllowOverrideSource      bool                       `json:"allow_override_source"`
	DefaultDestinationScheme ParameterDestinationScheme `json:"default_destination_scheme"`
	AllowOverrideDestination bool                       `json:"allow_override_destination"`
	DefaultRefresh           string                     `json:"default_refresh"`
	RedisplayValue           bool                       `json:"redisplay_value"`
	ValidationError          string                     `json:"validation_error"`
	ValidationCondition      string                     `json:"validation_condition"`
	ValidationTypeSystem     string                     `json:"validation_type_system"`
	ValidationValueType      string                     `json:"validation_value_type"`
	ValidationContains       []string                   `json:"validation_contains,omitzero"`
}

// CreateParameterRequest sets a parameter value. CloneID copies the value of an
// existing parameter instead.
type CreateParameterRequest struct {
	CloneID           *uuid.UUID                 `json:"copy_from_parameter,omitempty" format:"uuid"`
	Name              string                     `json:"name"`
	SourceValue       string                     `json:"source_value"`
	SourceScheme      ParameterSourceScheme      `json:"source_scheme"`
	DestinationScheme ParameterDestinationScheme `json:"destination_scheme"`
}
