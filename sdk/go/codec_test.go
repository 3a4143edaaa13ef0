package wsdecksdk

import (
	"encoding"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOptionalAbsenceStaysNil(t *testing.T) {
	meta, err := Decode[UpdateTemplateMeta]([]byte(`{"name":"dev"}`))
	require.NoError(t, err)
	require.NotNil(t, meta.Name)
	assert.Equal(t, "dev", *meta.Name)
	assert.Nil(t, meta.DefaultTTLMillis)
	assert.Nil(t, meta.Description)

	meta, err = Decode[UpdateTemplateMeta]([]byte(`{"default_ttl_ms":0,"description":""}`))
	require.NoError(t, err)
	require.NotNil(t, meta.DefaultTTLMillis)
	assert.Equal(t, int64(0), *meta.DefaultTTLMillis)
	require.NotNil(t, meta.Description)
	assert.Equal(t, "", *meta.Description)
}

func TestDecodeRequiredFieldMissing(t *testing.T) {
	_, err := Decode[CreateFirstUserRequest]([]byte(`{"email":"a@b.c","username":"admin","trial":false}`))
	require.Error(t, err)

	var cv *ContractViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "CreateFirstUserRequest", cv.Entity)
	assert.Equal(t, "password", cv.Path)
	assert.True(t, errors.Is(err, ErrContractViolation))
}

func TestDecodeRequiredFieldNull(t *testing.T) {
	_, err := Decode[CreateWorkspaceRequest]([]byte(`{"template_id":null,"name":"dev"}`))
	var cv *ContractViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "template_id", cv.Path)
	assert.Contains(t, cv.Reason, "null")
}

func TestDecodeNestedPath(t *testing.T) {
	payload := `{
		"id": "` + uuid.NewString() + `",
		"created_at": "2022-10-01T00:00:00Z",
		"file_id": "` + uuid.NewString() + `",
		"tags": {},
		"status": "running",
		"started_at": null
	}`
	job, err := Decode[ProvisionerJob]([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, ProvisionerJobRunning, job.Status)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.Error)

	_, err = Decode[ProvisionerJob]([]byte(`{"id":"` + uuid.NewString() + `","created_at":"2022-10-01T00:00:00Z","file_id":"` + uuid.NewString() + `","status":"running"}`))
	var cv *ContractViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "tags", cv.Path)
}

func TestDecodeInvalidEnumLiteral(t *testing.T) {
	_, err := Decode[CreateWorkspaceBuildRequest]([]byte(`{"transition":"restart"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractViolation))
	assert.Contains(t, err.Error(), `"restart"`)
	assert.Contains(t, err.Error(), "CreateWorkspaceBuildRequest")
}

func TestDecodeTypeMismatchIsViolation(t *testing.T) {
	_, err := Decode[CreateFirstUserRequest]([]byte(`{"email":"a@b.c","username":"admin","password":"x","trial":"yes"}`))
	var cv *ContractViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "trial", cv.Path)
}

func TestDecodeEmptyAndMalformed(t *testing.T) {
	_, err := Decode[Response](nil)
	assert.True(t, errors.Is(err, ErrContractViolation))

	_, err = Decode[Response]([]byte(`{"message":`))
	assert.True(t, errors.Is(err, ErrContractViolation))

	_, err = Decode[Response]([]byte(`[]`))
	assert.True(t, errors.Is(err, ErrContractViolation))
}

func TestDecodeLicenseKeepsClaimsVerbatim(t *testing.T) {
	payload := `{
		"id": 1,
		"uuid": "b6c5f7a8-0000-4000-8000-000000000001",
		"uploaded_at": "2022-10-20T12:00:00Z",
		"claims": {"exp": 1700000000, "features": {"audit_log": 1}, "account_type": "salesforce"}
	}`
	license, err := Decode[License]([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, int32(1), license.ID)
	assert.Equal(t, time.Date(2022, 10, 20, 12, 0, 0, 0, time.UTC), license.UploadedAt)
	assert.JSONEq(t, `{"audit_log": 1}`, string(license.Claims["features"]))
	assert.JSONEq(t, `"salesforce"`, string(license.Claims["account_type"]))
}

func TestEncodeOmitsAbsentOptionals(t *testing.T) {
	data, err := Encode(CreateWorkspaceRequest{TemplateID: uuid.Nil, Name: "dev"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"template_id":"00000000-0000-0000-0000-000000000000","name":"dev"}`, string(data))

	data, err = Encode(CreateWorkspaceRequest{Name: "dev", TTLMillis: Ptr(int64(0))})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ttl_ms":0`)
}

func TestEncodeRejectsInvalidEnum(t *testing.T) {
	_, err := Encode(CreateWorkspaceBuildRequest{Transition: "restart"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContractViolation))

	_, err = Encode(CreateWorkspaceBuildRequest{})
	assert.Error(t, err, "the zero literal is not a member of any set")
}

func TestEncodePreservesWireCasing(t *testing.T) {
	data, err := Encode(WorkspaceBuildsRequest{WorkspaceID: uuid.Nil})
	require.NoError(t, err)
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Contains(t, obj, "WorkspaceID")
	assert.Contains(t, obj, "Since")
}

func TestRoundTripWorkspaceBuild(t *testing.T) {
	deadline := time.Date(2022, 10, 1, 8, 0, 0, 0, time.UTC)
	build := WorkspaceBuild{
		ID:          uuid.New(),
		CreatedAt:   deadline.Add(-time.Hour),
		UpdatedAt:   deadline.Add(-time.Hour),
		WorkspaceID: uuid.New(),
		BuildNumber: 3,
		Transition:  WorkspaceTransitionStart,
		Job: ProvisionerJob{
			ID:     uuid.New(),
			Status: ProvisionerJobSucceeded,
			Tags:   map[string]string{"scope": "organization"},
		},
		Reason:    BuildReasonInitiator,
		Resources: []WorkspaceResource{},
		Deadline:  &deadline,
		Status:    WorkspaceStatusRunning,
		DailyCost: 4,
	}
	data, err := Encode(build)
	require.NoError(t, err)
	decoded, err := Decode[WorkspaceBuild](data)
	require.NoError(t, err)
	assert.Equal(t, build, decoded)
}

func TestParseEnum(t *testing.T) {
	status, err := ParseEnum("WorkspaceStatus", "stopped", WorkspaceStatuses)
	require.NoError(t, err)
	assert.Equal(t, WorkspaceStatusStopped, status)

	_, err = ParseEnum("WorkspaceStatus", "Stopped", WorkspaceStatuses)
	var cv *ContractViolation
	require.ErrorAs(t, err, &cv)
	assert.Equal(t, "WorkspaceStatus", cv.Entity)
}

func TestEnumClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("only set members decode", prop.ForAll(
		func(raw string) bool {
			var status ProvisionerJobStatus
			err := status.UnmarshalText([]byte(raw))
			member := slices.Contains(ProvisionerJobStatuses, ProvisionerJobStatus(raw))
			return (err == nil) == member
		},
		gen.OneGenOf(
			gen.AlphaString(),
			gen.OneConstOf("pending", "running", "succeeded", "failed", "canceling", "canceled", "Pending", ""),
		),
	))

	properties.Property("set members survive a JSON round trip", prop.ForAll(
		func(i int) bool {
			want := WorkspaceStatuses[i]
			data, err := json.Marshal(want)
			if err != nil {
				return false
			}
			var got WorkspaceStatus
			return json.Unmarshal(data, &got) == nil && got == want
		},
		gen.IntRange(0, len(WorkspaceStatuses)-1),
	))

	properties.TestingRun(t)
}

// enumSetCase checks every member of an ordered set and one outsider.
func enumSetCase[E ~string, P interface {
	*E
	encoding.TextUnmarshaler
}](set []E) func(t *testing.T) {
	return func(t *testing.T) {
		require.NotEmpty(t, set)
		for _, want := range set {
			var got E
			require.NoError(t, P(&got).UnmarshalText([]byte(want)))
			assert.Equal(t, want, got)

			data, err := json.Marshal(want)
			require.NoError(t, err)
			var decoded E
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, want, decoded)
		}

		var bogus E
		err := P(&bogus).UnmarshalText([]byte("__bogus__"))
		assert.ErrorIs(t, err, ErrContractViolation)
		assert.Empty(t, bogus)

		_, err = json.Marshal(E("__bogus__"))
		assert.ErrorIs(t, err, ErrContractViolation)
	}
}

func TestEnumSets(t *testing.T) {
	cases := map[string]func(t *testing.T){
		"ListeningPortNetwork":       enumSetCase(ListeningPortNetworks),
		"LoginType":                  enumSetCase(LoginTypes),
		"APIKeyScope":                enumSetCase(APIKeyScopes),
		"ResourceType":               enumSetCase(ResourceTypes),
		"AuditAction":                enumSetCase(AuditActions),
		"Entitlement":                enumSetCase(EntitlementLevels),
		"ProvisionerStorageMethod":   enumSetCase(ProvisionerStorageMethods),
		"ProvisionerType":            enumSetCase(ProvisionerTypes),
		"ParameterScope":             enumSetCase(ParameterScopes),
		"ParameterSourceScheme":      enumSetCase(ParameterSourceSchemes),
		"ParameterDestinationScheme": enumSetCase(ParameterDestinationSchemes),
		"ParameterTypeSystem":        enumSetCase(ParameterTypeSystems),
		"LogSource":                  enumSetCase(LogSources),
		"LogLevel":                   enumSetCase(LogLevels),
		"ProvisionerJobStatus":       enumSetCase(ProvisionerJobStatuses),
		"ServerSentEventType":        enumSetCase(ServerSentEventTypes),
		"TemplateRole":               enumSetCase(TemplateRoles),
		"UserStatus":                 enumSetCase(UserStatuses),
		"WorkspaceAgentStatus":       enumSetCase(WorkspaceAgentStatuses),
		"WorkspaceAppHealth":         enumSetCase(WorkspaceAppHealths),
		"WorkspaceAppSharingLevel":   enumSetCase(WorkspaceAppSharingLevels),
		"WorkspaceTransition":        enumSetCase(WorkspaceTransitions),
		"WorkspaceStatus":            enumSetCase(WorkspaceStatuses),
		"BuildReason":                enumSetCase(BuildReasons),
	}
	for name, check := range cases {
		t.Run(name, check)
	}
}

// roundTripCase encodes v and expects Decode to give it back unchanged.
func roundTripCase[T any](v T) func(t *testing.T) {
	return func(t *testing.T) {
		data, err := Encode(v)
		require.NoError(t, err)
		got, err := Decode[T](data)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	id := uuid.MustParse("2f1c6c1e-7d7a-4c55-9d2a-7b3c8e0a1f42")
	at := time.Date(2022, 10, 1, 8, 30, 0, 0, time.UTC)
	page := Pagination{AfterID: &id, Limit: Ptr(25), Offset: Ptr(50)}
	params := []CreateParameterRequest{{
		CloneID:           &id,
		Name:              "region",
		SourceValue:       "eu-west-1",
		SourceScheme:      ParameterSourceSchemeData,
		DestinationScheme: ParameterDestinationSchemeEnvironmentVariable,
	}}

	cases := map[string]func(t *testing.T){
		"CreateWorkspaceBuildRequest/absent": roundTripCase(CreateWorkspaceBuildRequest{Transition: WorkspaceTransitionStart}),
		"CreateWorkspaceBuildRequest/present": roundTripCase(CreateWorkspaceBuildRequest{
			TemplateVersionID: &id,
			Transition:        WorkspaceTransitionDelete,
			DryRun:            Ptr(true),
			ProvisionerState:  Ptr("c3RhdGU="),
			Orphan:            Ptr(false),
			ParameterValues:   params,
		}),
		"UpdateTemplateMeta/absent": roundTripCase(UpdateTemplateMeta{}),
		"UpdateTemplateMeta/present": roundTripCase(UpdateTemplateMeta{
			Name:             Ptr("dev"),
			DisplayName:      Ptr("Dev"),
			Description:      Ptr("a template"),
			Icon:             Ptr("/icon/dev.svg"),
			DefaultTTLMillis: Ptr(int64(0)),
		}),
		"CreateWorkspaceRequest/absent": roundTripCase(CreateWorkspaceRequest{}),
		"CreateWorkspaceRequest/present": roundTripCase(CreateWorkspaceRequest{
			TemplateID:        id,
			Name:              "dev",
			AutostartSchedule: Ptr("CRON_TZ=UTC 30 9 * * 1-5"),
			TTLMillis:         Ptr(int64(3600000)),
			ParameterValues:   params,
		}),
		"CreateTemplateRequest/absent": roundTripCase(CreateTemplateRequest{}),
		"CreateTemplateRequest/present": roundTripCase(CreateTemplateRequest{
			Name:             "dev",
			DisplayName:      Ptr("Dev"),
			Description:      Ptr("a template"),
			Icon:             Ptr("/icon/dev.svg"),
			VersionID:        id,
			ParameterValues:  params,
			DefaultTTLMillis: Ptr(int64(7200000)),
		}),
		"CreateTemplateVersionRequest/absent": roundTripCase(CreateTemplateVersionRequest{
			StorageMethod: ProvisionerStorageMethodFile,
			Provisioner:   ProvisionerTypeEcho,
		}),
		"CreateTemplateVersionRequest/present": roundTripCase(CreateTemplateVersionRequest{
			Name:            Ptr("v2"),
			TemplateID:      &id,
			StorageMethod:   ProvisionerStorageMethodFile,
			FileID:          id,
			Provisioner:     ProvisionerTypeTerraform,
			ProvisionerTags: map[string]string{"scope": "organization"},
			ParameterValues: params,
		}),
		"UsersRequest/absent":          roundTripCase(UsersRequest{}),
		"UsersRequest/present":         roundTripCase(UsersRequest{Pagination: page, SearchQuery: Ptr("status:active")}),
		"WorkspacesRequest/absent":     roundTripCase(WorkspacesRequest{}),
		"WorkspacesRequest/present":    roundTripCase(WorkspacesRequest{Pagination: page, SearchQuery: Ptr("owner:me")}),
		"WorkspaceBuildsRequest/absent": roundTripCase(WorkspaceBuildsRequest{}),
		"WorkspaceBuildsRequest/present": roundTripCase(WorkspaceBuildsRequest{
			Pagination:  page,
			WorkspaceID: id,
			Since:       at,
		}),
		"TemplateVersionsByTemplateRequest/absent":  roundTripCase(TemplateVersionsByTemplateRequest{}),
		"TemplateVersionsByTemplateRequest/present": roundTripCase(TemplateVersionsByTemplateRequest{Pagination: page, TemplateID: id}),
		"AuditLogsRequest/absent":                   roundTripCase(AuditLogsRequest{}),
		"AuditLogsRequest/present":                  roundTripCase(AuditLogsRequest{Pagination: page, SearchQuery: Ptr("action:create")}),
		"AuditLogCountRequest/absent":               roundTripCase(AuditLogCountRequest{}),
		"AuditLogCountRequest/present":              roundTripCase(AuditLogCountRequest{SearchQuery: Ptr("resource_type:workspace")}),
		"CreateTestAuditLogRequest/absent":          roundTripCase(CreateTestAuditLogRequest{}),
		"CreateTestAuditLogRequest/present": roundTripCase(CreateTestAuditLogRequest{
			Action:       Ptr(AuditActionStop),
			ResourceType: Ptr(ResourceTypeWorkspace),
			ResourceID:   &id,
			Time:         &at,
		}),
		"CreateParameterRequest/absent": roundTripCase(CreateParameterRequest{
			SourceScheme:      ParameterSourceSchemeNone,
			DestinationScheme: ParameterDestinationSchemeNone,
		}),
		"CreateParameterRequest/present":       roundTripCase(params[0]),
		"CreateTokenRequest":                   roundTripCase(CreateTokenRequest{Scope: APIKeyScopeApplicationConnect}),
		"CreateFirstUserRequest":               roundTripCase(CreateFirstUserRequest{Email: "admin@example.com", Username: "admin", Password: "hunter2hunter2", Trial: true}),
		"CreateUserRequest":                    roundTripCase(CreateUserRequest{Email: "ada@example.com", Username: "ada", Password: "hunter2hunter2", OrganizationID: id}),
		"LoginWithPasswordRequest":             roundTripCase(LoginWithPasswordRequest{Email: "ada@example.com", Password: "hunter2hunter2"}),
		"UpdateUserProfileRequest":             roundTripCase(UpdateUserProfileRequest{Username: "ada2"}),
		"UpdateUserPasswordRequest":            roundTripCase(UpdateUserPasswordRequest{OldPassword: "a", Password: "b"}),
		"UpdateWorkspaceRequest/absent":        roundTripCase(UpdateWorkspaceRequest{}),
		"UpdateWorkspaceRequest/present":       roundTripCase(UpdateWorkspaceRequest{Name: Ptr("dev2")}),
		"UpdateWorkspaceTTLRequest/absent":     roundTripCase(UpdateWorkspaceTTLRequest{}),
		"UpdateWorkspaceTTLRequest/present":    roundTripCase(UpdateWorkspaceTTLRequest{TTLMillis: Ptr(int64(60000))}),
		"UpdateWorkspaceAutostartRequest/absent":  roundTripCase(UpdateWorkspaceAutostartRequest{}),
		"UpdateWorkspaceAutostartRequest/present": roundTripCase(UpdateWorkspaceAutostartRequest{Schedule: Ptr("CRON_TZ=UTC 0 8 * * *")}),
		"PutExtendWorkspaceRequest":            roundTripCase(PutExtendWorkspaceRequest{Deadline: at}),
		"AddLicenseRequest":                    roundTripCase(AddLicenseRequest{License: "a.b.c"}),
		"PatchGroupRequest/absent":             roundTripCase(PatchGroupRequest{}),
		"PatchGroupRequest/present": roundTripCase(PatchGroupRequest{
			AddUsers:       []string{id.String()},
			RemoveUsers:    []string{},
			Name:           "eng",
			AvatarURL:      Ptr("https://example.com/a.png"),
			QuotaAllowance: Ptr(10),
		}),
	}
	for name, check := range cases {
		t.Run(name, check)
	}
}

func TestWorkspaceStatusFor(t *testing.T) {
	cases := []struct {
		job        ProvisionerJobStatus
		transition WorkspaceTransition
		want       WorkspaceStatus
	}{
		{ProvisionerJobPending, WorkspaceTransitionStart, WorkspaceStatusPending},
		{ProvisionerJobRunning, WorkspaceTransitionStart, WorkspaceStatusStarting},
		{ProvisionerJobRunning, WorkspaceTransitionStop, WorkspaceStatusStopping},
		{ProvisionerJobRunning, WorkspaceTransitionDelete, WorkspaceStatusDeleting},
		{ProvisionerJobSucceeded, WorkspaceTransitionStart, WorkspaceStatusRunning},
		{ProvisionerJobSucceeded, WorkspaceTransitionStop, WorkspaceStatusStopped},
		{ProvisionerJobSucceeded, WorkspaceTransitionDelete, WorkspaceStatusDeleted},
		{ProvisionerJobFailed, WorkspaceTransitionStart, WorkspaceStatusFailed},
		{ProvisionerJobCanceling, WorkspaceTransitionStop, WorkspaceStatusCanceling},
		{ProvisionerJobCanceled, WorkspaceTransitionDelete, WorkspaceStatusCanceled},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WorkspaceStatusFor(tc.job, tc.transition), "%s/%s", tc.job, tc.transition)
	}
}

func TestCatalog(t *testing.T) {
	names := EntityNames()
	require.True(t, slices.IsSorted(names))
	assert.Contains(t, names, "Workspace")
	assert.Contains(t, names, "License")

	decode, ok := LookupEntity("buildinforesponse")
	require.True(t, ok)
	v, err := decode([]byte(`{"external_url":"https://github.com/coder/coder","version":"v0.12.0"}`))
	require.NoError(t, err)
	info, ok := v.(BuildInfoResponse)
	require.True(t, ok)
	assert.Equal(t, "v0.12.0", info.Version)

	_, err = decode([]byte(`{"version":"v0.12.0"}`))
	assert.True(t, errors.Is(err, ErrContractViolation))

	_, ok = LookupEntity("NoSuchEntity")
	assert.False(t, ok)
}
