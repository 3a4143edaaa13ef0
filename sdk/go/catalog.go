package wsdecksdk

import (
	"slices"
	"strings"
)

// DecodeFunc validates a payload against one entity and returns the decoded
// value.
type DecodeFunc func(data []byte) (any, error)

func decoder[T any]() DecodeFunc {
	return func(data []byte) (any, error) {
		v, err := Decode[T](data)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Catalog maps entity names to their decoders.
var Catalog = map[string]DecodeFunc{
	"AddLicenseRequest":                  decoder[AddLicenseRequest](),
	"AgentGitSSHKey":                     decoder[AgentGitSSHKey](),
	"AgentStatsReportResponse":           decoder[AgentStatsReportResponse](),
	"APIKey":                             decoder[APIKey](),
	"AssignableRoles":                    decoder[AssignableRoles](),
	"AuditDiff":                          decoder[AuditDiff](),
	"AuditDiffField":                     decoder[AuditDiffField](),
	"AuditLog":                           decoder[AuditLog](),
	"AuditLogCountRequest":               decoder[AuditLogCountRequest](),
	"AuditLogCountResponse":              decoder[AuditLogCountResponse](),
	"AuditLogResponse":                   decoder[AuditLogResponse](),
	"AuditLogsRequest":                   decoder[AuditLogsRequest](),
	"AuthMethods":                        decoder[AuthMethods](),
	"AuthorizationCheck":                 decoder[AuthorizationCheck](),
	"AuthorizationObject":                decoder[AuthorizationObject](),
	"AuthorizationRequest":               decoder[AuthorizationRequest](),
	"AuthorizationResponse":              decoder[AuthorizationResponse](),
	"AzureInstanceIdentityToken":         decoder[AzureInstanceIdentityToken](),
	"BuildInfoResponse":                  decoder[BuildInfoResponse](),
	"ComputedParameter":                  decoder[ComputedParameter](),
	"CreateFirstUserRequest":             decoder[CreateFirstUserRequest](),
	"CreateFirstUserResponse":            decoder[CreateFirstUserResponse](),
	"CreateGroupRequest":                 decoder[CreateGroupRequest](),
	"CreateOrganizationRequest":          decoder[CreateOrganizationRequest](),
	"CreateParameterRequest":             decoder[CreateParameterRequest](),
	"CreateTemplateRequest":              decoder[CreateTemplateRequest](),
	"CreateTemplateVersionDryRunRequest": decoder[CreateTemplateVersionDryRunRequest](),
	"CreateTemplateVersionRequest":       decoder[CreateTemplateVersionRequest](),
	"CreateTestAuditLogRequest":          decoder[CreateTestAuditLogRequest](),
	"CreateTokenRequest":                 decoder[CreateTokenRequest](),
	"CreateUserRequest":                  decoder[CreateUserRequest](),
	"CreateWorkspaceBuildRequest":        decoder[CreateWorkspaceBuildRequest](),
	"CreateWorkspaceRequest":             decoder[CreateWorkspaceRequest](),
	"DAUEntry":                           decoder[DAUEntry](),
	"DERP":                               decoder[DERP](),
	"DERPConfig":                         decoder[DERPConfig](),
	"DERPRegion":                         decoder[DERPRegion](),
	"DERPServerConfig":                   decoder[DERPServerConfig](),
	"DeploymentConfig":                   decoder[DeploymentConfig](),
	"Entitlements":                       decoder[Entitlements](),
	"Feature":                            decoder[Feature](),
	"GenerateAPIKeyResponse":             decoder[GenerateAPIKeyResponse](),
	"GetAppHostResponse":                 decoder[GetAppHostResponse](),
	"GetUsersResponse":                   decoder[GetUsersResponse](),
	"GitAuthConfig":                      decoder[GitAuthConfig](),
	"GitSSHKey":                          decoder[GitSSHKey](),
	"Group":                              decoder[Group](),
	"Healthcheck":                        decoder[Healthcheck](),
	"License":                            decoder[License](),
	"ListeningPort":                      decoder[ListeningPort](),
	"ListeningPortsResponse":             decoder[ListeningPortsResponse](),
	"LoginWithPasswordRequest":           decoder[LoginWithPasswordRequest](),
	"LoginWithPasswordResponse":          decoder[LoginWithPasswordResponse](),
	"OAuth2Config":                       decoder[OAuth2Config](),
	"OAuth2GithubConfig":                 decoder[OAuth2GithubConfig](),
	"OIDCConfig":                         decoder[OIDCConfig](),
	"Organization":                       decoder[Organization](),
	"OrganizationMember":                 decoder[OrganizationMember](),
	"Pagination":                         decoder[Pagination](),
	"Parameter":                          decoder[Parameter](),
	"ParameterSchema":                    decoder[ParameterSchema](),
	"PatchGroupRequest":                  decoder[PatchGroupRequest](),
	"PprofConfig":                        decoder[PprofConfig](),
	"PrometheusConfig":                   decoder[PrometheusConfig](),
	"ProvisionerConfig":                  decoder[ProvisionerConfig](),
	"ProvisionerDaemon":                  decoder[ProvisionerDaemon](),
	"ProvisionerJob":                     decoder[ProvisionerJob](),
	"ProvisionerJobLog":                  decoder[ProvisionerJobLog](),
	"PutExtendWorkspaceRequest":          decoder[PutExtendWorkspaceRequest](),
	"Replica":                            decoder[Replica](),
	"Response":                           decoder[Response](),
	"Role":                               decoder[Role](),
	"ServerSentEvent":                    decoder[ServerSentEvent](),
	"TLSConfig":                          decoder[TLSConfig](),
	"TelemetryConfig":                    decoder[TelemetryConfig](),
	"Template":                           decoder[Template](),
	"TemplateACL":                        decoder[TemplateACL](),
	"TemplateBuildTimeStats":             decoder[TemplateBuildTimeStats](),
	"TemplateDAUsResponse":               decoder[TemplateDAUsResponse](),
	"TemplateGroup":                      decoder[TemplateGroup](),
	"TemplateUser":                       decoder[TemplateUser](),
	"TemplateVersion":                    decoder[TemplateVersion](),
	"TemplateVersionsByTemplateRequest":  decoder[TemplateVersionsByTemplateRequest](),
	"TraceConfig":                        decoder[TraceConfig](),
	"UpdateActiveTemplateVersion":        decoder[UpdateActiveTemplateVersion](),
	"UpdateRoles":                        decoder[UpdateRoles](),
	"UpdateTemplateACL":                  decoder[UpdateTemplateACL](),
	"UpdateTemplateMeta":                 decoder[UpdateTemplateMeta](),
	"UpdateUserPasswordRequest":          decoder[UpdateUserPasswordRequest](),
	"UpdateUserProfileRequest":           decoder[UpdateUserProfileRequest](),
	"UpdateWorkspaceAutostartRequest":    decoder[UpdateWorkspaceAutostartRequest](),
	"UpdateWorkspaceRequest":             decoder[UpdateWorkspaceRequest](),
	"UpdateWorkspaceTTLRequest":          decoder[UpdateWorkspaceTTLRequest](),
	"UploadResponse":                     decoder[UploadResponse](),
	"User":                               decoder[User](),
	"UserRoles":                          decoder[UserRoles](),
	"UsersRequest":                       decoder[UsersRequest](),
	"ValidationError":                    decoder[ValidationError](),
	"Workspace":                          decoder[Workspace](),
	"WorkspaceAgent":                     decoder[WorkspaceAgent](),
	"WorkspaceAgentGitAuthResponse":      decoder[WorkspaceAgentGitAuthResponse](),
	"WorkspaceAgentInstanceMetadata":     decoder[WorkspaceAgentInstanceMetadata](),
	"WorkspaceAgentResourceMetadata":     decoder[WorkspaceAgentResourceMetadata](),
	"WorkspaceApp":                       decoder[WorkspaceApp](),
	"WorkspaceBuild":                     decoder[WorkspaceBuild](),
	"WorkspaceBuildsRequest":             decoder[WorkspaceBuildsRequest](),
	"WorkspaceFilter":                    decoder[WorkspaceFilter](),
	"WorkspaceOptions":                   decoder[WorkspaceOptions](),
	"WorkspaceQuota":                     decoder[WorkspaceQuota](),
	"WorkspaceResource":                  decoder[WorkspaceResource](),
	"WorkspaceResourceMetadata":          decoder[WorkspaceResourceMetadata](),
	"WorkspacesRequest":                  decoder[WorkspacesRequest](),
	"WorkspacesResponse":                 decoder[WorkspacesResponse](),
}

// EntityNames returns the catalogue keys in sorted order.
func EntityNames() []string {
	names := make([]string, 0, len(Catalog))
	for name := range Catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupEntity finds a decoder by name, ignoring case.
func LookupEntity(name string) (DecodeFunc, bool) {
	if fn, ok := Catalog[name]; ok {
		return fn, true
	}
	for key, fn := range Catalog {
		if strings.EqualFold(key, name) {
			return fn, true
		}
	}
	return nil, false
}
