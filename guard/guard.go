// Package guard decides, per navigation into the admin area, whether to
// render the destination or redirect. Evaluation is synchronous over
// already-available session state; it performs no network calls.
package guard

import (
	"github.com/saptapadi/admin-gateway/rbac"
)

// Decision is the terminal outcome of one navigation attempt.
type Decision int

const (
	// Allowed renders the guarded destination.
	Allowed Decision = iota
	// RedirectLogin sends an unauthenticated actor to the login route.
	RedirectLogin
	// RedirectDefault sends an authenticated admin without access to the
	// admin landing page.
	RedirectDefault
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case RedirectLogin:
		return "redirect-login"
	case RedirectDefault:
		return "redirect-default"
	}
	return "unknown"
}

// Evaluate gates one navigation: no admin role redirects to login, a role
// without access to the requested path redirects to the admin default, and
// anything else is allowed.
func Evaluate(role rbac.Role, path string) Decision {
	if role == rbac.RoleNone {
		return RedirectLogin
	}
	if !rbac.HasAccess(role, path) {
		return RedirectDefault
	}
	return Allowed
}
