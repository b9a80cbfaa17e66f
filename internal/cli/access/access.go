// Package access decides whether a session may enter a protected view. The
// decision function is pure: it never mutates the session and is defined for
// every combination of inputs.
package access

import "github.com/pixido-dev/pixido/internal/cli/api"

// AdminRole is the role tag that grants admin access
const AdminRole = "admin"

// Session is a point-in-time snapshot of the session state
type Session struct {
	User    *api.User
	Loading bool
}

// IsAdmin reports whether the session user holds the admin role or the
// superuser flag. Always derived from the snapshot, never cached.
func (s Session) IsAdmin() bool {
	return s.User != nil && (s.User.Role == AdminRole || s.User.IsSuperuser)
}

// Requirement describes what a view demands of the session
type Requirement struct {
	kind  requirementKind
	roles []string
}

type requirementKind int

const (
	kindPublic requirementKind = iota
	kindAuthenticated
	kindAdminOnly
	kindRoleIn
)

// Public requires nothing; anyone may enter
func Public() Requirement {
	return Requirement{kind: kindPublic}
}

// AuthenticatedOnly requires a signed-in user
func AuthenticatedOnly() Requirement {
	return Requirement{kind: kindAuthenticated}
}

// AdminOnly requires an admin user
func AdminOnly() Requirement {
	return Requirement{kind: kindAdminOnly}
}

// RoleIn requires the user's role to be one of the given roles. An empty
// set behaves like AuthenticatedOnly.
func RoleIn(roles ...string) Requirement {
	return Requirement{kind: kindRoleIn, roles: roles}
}

// Decision is the outcome of an access check
type Decision int

const (
	// Render allows the view
	Render Decision = iota
	// ShowLoading defers the decision until the session settles
	ShowLoading
	// RedirectToLogin sends an unauthenticated user to the login flow
	RedirectToLogin
	// RedirectToHome sends an authorized-but-insufficient user home
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case ShowLoading:
		return "show-loading"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// Decide evaluates a requirement against a session snapshot. Rules apply in
// order, first match wins.
func Decide(session Session, req Requirement) Decision {
	if session.Loading {
		return ShowLoading
	}

	if req.kind == kindPublic {
		return Render
	}

	if session.User == nil {
		return RedirectToLogin
	}

	if req.kind == kindAdminOnly && !session.IsAdmin() {
		return RedirectToHome
	}

	if req.kind == kindRoleIn && len(req.roles) > 0 {
		allowed := false
		for _, role := range req.roles {
			if session.User.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			return RedirectToHome
		}
	}

	return Render
}
