package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleSupervisor = "supervisor"
	RoleAgent      = "agent"
	RoleAnalyst    = "analyst"
	RoleSuperAdmin = "super_admin"

	// RoleSecurityAuditor is a hidden role: read access to security alerts
	// only, never granted through self-service flows.
	RoleSecurityAuditor = "security_auditor"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

func IsHiddenRole(role string) bool { return role == RoleSecurityAuditor }
