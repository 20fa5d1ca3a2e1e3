package domain

// Permission tokens granted through roles or per-account overrides.
const (
	PermissionUsers           = "users"
	PermissionOpportunities   = "opportunities"
	PermissionApplications    = "applications"
	PermissionAnalytics       = "analytics"
	PermissionSettings        = "settings"
	PermissionAdminManagement = "admin_management"
)

// rolePermissions is the static role to permission-set mapping. Unknown
// roles resolve to an empty set (fail closed).
var rolePermissions = map[AccountType][]string{
	AccountTypeSuperAdmin: {
		PermissionUsers,
		PermissionOpportunities,
		PermissionApplications,
		PermissionAnalytics,
		PermissionSettings,
		PermissionAdminManagement,
	},
	AccountTypeAdmin: {
		PermissionUsers,
		PermissionOpportunities,
		PermissionApplications,
		PermissionAnalytics,
	},
	AccountTypeModerator: {
		PermissionOpportunities,
		PermissionApplications,
	},
	AccountTypeSeeker:   {},
	AccountTypeProvider: {},
}

// PermissionsForRole returns a copy of the permission set granted to the role.
func PermissionsForRole(role AccountType) []string {
	tokens, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}

// EffectivePermissions resolves the permission set for an account: the
// per-account override list, when present, replaces the role default.
func EffectivePermissions(account Account) []string {
	if account.PermissionOverride != nil {
		out := make([]string, len(account.PermissionOverride))
		copy(out, account.PermissionOverride)
		return out
	}
	return PermissionsForRole(account.Type)
}
