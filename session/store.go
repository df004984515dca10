package session

import "github.com/saptapadi/admin-gateway/rbac"

// Store is the single source of truth for the current session. It is an
// explicit dependency of the API client and the route guard rather than
// ambient process state, so multiple instances (e.g. in tests) stay
// isolated.
//
// Read never fails: unreadable or corrupt persisted data degrades to a
// logged-out session. Mutations are atomic — no reader may observe a new
// access token paired with a stale refresh token, or a partially cleared
// session.
type Store interface {
	// Read returns the current session, or the zero session when nothing is
	// stored or the stored data is unusable.
	Read() Session

	// Write replaces the stored token pair. Role and identity are untouched.
	Write(pair TokenPair) error

	// SetIdentity replaces the stored admin identity record. The role string
	// is validated here; an unknown role stores as "no role".
	SetIdentity(identity Identity) error

	// Clear removes all session fields. Readers afterwards observe the zero
	// session.
	Clear() error

	// Role returns the role derived from the stored identity record. It
	// never comes from the access token, which is opaque to this layer.
	Role() rbac.Role
}
