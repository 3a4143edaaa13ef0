// Package auth decides what a user's site roles allow.
package auth

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	wsdecksdk "wsdeck/sdk/go"
)

// ForbiddenError indicates missing permission.
type ForbiddenError struct {
	Permission string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("permission %s required", e.Permission)
}

const (
	PermUsersRead       = "users.read"
	PermUsersWrite      = "users.write"
	PermTemplatesRead   = "templates.read"
	PermTemplatesWrite  = "templates.write"
	PermWorkspacesRead  = "workspaces.read"
	PermWorkspacesWrite = "workspaces.write"
	PermAuditRead       = "audit.read"
	PermLicensesWrite   = "licenses.write"
	PermDeploymentRead  = "deployment.read"
)

// Permissions lists every permission, owners hold all of them.
var Permissions = []string{
	PermUsersRead,
	PermUsersWrite,
	PermTemplatesRead,
	PermTemplatesWrite,
	PermWorkspacesRead,
	PermWorkspacesWrite,
	PermAuditRead,
	PermLicensesWrite,
	PermDeploymentRead,
}

// rolePermissions are site wide. Members act on their own workspaces
// through ownership, not through a role permission.
var rolePermissions = map[string][]string{
	wsdecksdk.RoleOwner:         Permissions,
	wsdecksdk.RoleMember:        {PermTemplatesRead},
	wsdecksdk.RoleTemplateAdmin: {PermTemplatesRead, PermTemplatesWrite, PermWorkspacesRead, PermUsersRead},
	wsdecksdk.RoleUserAdmin:     {PermUsersRead, PermUsersWrite},
	wsdecksdk.RoleAuditor:       {PermAuditRead, PermUsersRead},
}

// UserPermissions returns the permissions granted by the user's roles.
func UserPermissions(u wsdecksdk.User) []string {
	var perms []string
	for _, role := range u.Roles {
		for _, p := range rolePermissions[role.Name] {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	return perms
}

func HasPermission(u wsdecksdk.User, perm string) bool {
	return slices.Contains(UserPermissions(u), perm)
}

// Require fails with ForbiddenError unless u holds perm.
func Require(u wsdecksdk.User, perm string) error {
	if !HasPermission(u, perm) {
		return ForbiddenError{Permission: perm}
	}
	return nil
}

// RequireOwnerOr passes when u owns the resource or holds perm.
func RequireOwnerOr(u wsdecksdk.User, ownerID uuid.UUID, perm string) error {
	if u.ID == ownerID {
		return nil
	}
	return Require(u, perm)
}

// RoleFor returns the display form of a site role.
func RoleFor(name string) wsdecksdk.Role {
	display := map[string]string{
		wsdecksdk.RoleOwner:         "Owner",
		wsdecksdk.RoleMember:        "Member",
		wsdecksdk.RoleTemplateAdmin: "Template Admin",
		wsdecksdk.RoleUserAdmin:     "User Admin",
		wsdecksdk.RoleAuditor:       "Auditor",
	}
	return wsdecksdk.Role{Name: name, DisplayName: display[name]}
}
