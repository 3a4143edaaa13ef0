package wsdecksdk

type Role struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// AssignableRoles is a Role annotated with whether the caller may grant it.
type AssignableRoles struct {
	Role
	Assignable bool `json:"assignable"`
}

const (
	RoleOwner         = "owner"
	RoleMember        = "member"
	RoleAuditor       = "auditor"
	RoleTemplateAdmin = "template-admin"
	RoleUserAdmin     = "user-admin"
)
