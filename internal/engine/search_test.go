package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsdecksdk "wsdeck/sdk/go"
)

func TestParseWorkspaceQuery(t *testing.T) {
	f, err := ParseWorkspaceQuery("owner:me Status:RUNNING template:docker")
	require.NoError(t, err)
	assert.Equal(t, "me", f.OwnerName)
	assert.Equal(t, "docker", f.TemplateName)
	require.NotNil(t, f.Status)
	assert.Equal(t, wsdecksdk.WorkspaceStatusRunning, *f.Status)

	f, err = ParseWorkspaceQuery("my dev box")
	require.NoError(t, err)
	assert.Equal(t, "my dev box", f.Name)

	_, err = ParseWorkspaceQuery("status:sleeping")
	var invalid *InvalidError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "q", invalid.Validations[0].Field)

	_, err = ParseWorkspaceQuery("owner:")
	assert.Error(t, err)
}

func TestParseAuditQuery(t *testing.T) {
	f, err := ParseAuditQuery("resource_type:workspace_build action:start")
	require.NoError(t, err)
	require.NotNil(t, f.ResourceType)
	assert.Equal(t, wsdecksdk.ResourceTypeWorkspaceBuild, *f.ResourceType)
	require.NotNil(t, f.Action)
	assert.Equal(t, wsdecksdk.AuditActionStart, *f.Action)

	_, err = ParseAuditQuery("resource_id:nope")
	assert.Error(t, err)
	_, err = ParseAuditQuery("free text")
	assert.Error(t, err)
}

func TestParseUserQuery(t *testing.T) {
	f, err := ParseUserQuery("status:suspended ali")
	require.NoError(t, err)
	assert.Equal(t, "ali", f.Search)
	require.NotNil(t, f.Status)
	assert.Equal(t, wsdecksdk.UserStatusSuspended, *f.Status)
}

func TestValidateSchedule(t *testing.T) {
	cases := map[string]bool{
		"30 9 * * 1-5":                   true,
		"CRON_TZ=Europe/Paris 0 8 * * *": true,
		"0 8 * * 1,3,5":                  true,
		"CRON_TZ=Mars/Olympus 0 8 * * *": false,
		"61 8 * * *":                     false,
		"0 24 * * *":                     false,
		"0 8 1 * *":                      false,
		"0 8 * *":                        false,
		"0 8 * * 7":                      false,
		"every day":                      false,
	}
	for raw, ok := range cases {
		err := ValidateSchedule(raw)
		if ok {
			assert.NoError(t, err, raw)
		} else {
			assert.Error(t, err, raw)
		}
	}
}
