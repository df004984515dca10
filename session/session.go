// Package session holds the persisted record of the current authenticated
// actor: the access/refresh token pair and, for admin sessions, the identity
// record the role is derived from. There is exactly one session per store; a
// new login overwrites the previous one.
package session

import "github.com/saptapadi/admin-gateway/rbac"

// Identity is the admin identity record captured at login. It is opaque to
// this layer except for Role, which is validated at the store boundary.
type Identity struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TokenPair is the credential pair issued by the upstream API. Tokens are
// always issued together and replaced together.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is the current authenticated actor. The zero value is "logged
// out". Role is rbac.RoleNone for ordinary member sessions — only admin
// sessions carry a role.
type Session struct {
	AccessToken  string
	RefreshToken string
	Role         rbac.Role
	Identity     Identity
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}
