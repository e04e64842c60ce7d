package access

import "propertyhub/web/internal/models"

// Requirement is a route's declared access rule.
type Requirement struct {
	kind          requirementKind
	role          models.Role
	adminOverride bool
}

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAuthenticated
	kindRole
)

// Public routes are reachable by anyone.
func Public() Requirement {
	return Requirement{kind: kindPublic}
}

// Authenticated routes require any logged-in user.
func Authenticated() Requirement {
	return Requirement{kind: kindAuthenticated}
}

// RoleOnly routes require exactly the given role. Used for role-specific
// dashboard sections, which admins do not see.
func RoleOnly(role models.Role) Requirement {
	return Requirement{kind: kindRole, role: role}
}

// RoleOrAdmin routes require the given role but also admit admins. Used for
// role-gated mutations such as creating a listing.
func RoleOrAdmin(role models.Role) Requirement {
	return Requirement{kind: kindRole, role: role, adminOverride: true}
}

// Decision is the outcome of an access check.
type Decision int

const (
	// Granted allows the request through.
	Granted Decision = iota
	// LoginRequired redirects the visitor to the login flow.
	LoginRequired
	// Denied renders an access-denied state without redirecting.
	Denied
)

// CanAccess decides whether a user (nil when unauthenticated) may reach a
// route with the given requirement. It is a pure function of its inputs.
func CanAccess(req Requirement, user *models.User) Decision {
	switch req.kind {
	case kindPublic:
		return Granted
	case kindAuthenticated:
		if user == nil {
			return LoginRequired
		}
		return Granted
	case kindRole:
		if user == nil {
			return LoginRequired
		}
		if user.Role == req.role {
			return Granted
		}
		if req.adminOverride && user.Role == models.RoleAdmin {
			return Granted
		}
		return Denied
	default:
		return Denied
	}
}
