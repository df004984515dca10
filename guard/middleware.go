package guard

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/saptapadi/admin-gateway/session"
)

const (
	// DefaultLoginRoute is where unauthenticated actors are sent.
	DefaultLoginRoute = "/login"
	// DefaultAdminHome is where admins without access to a path are sent.
	DefaultAdminHome = "/admin/dashboard"
)

// Options configures the redirect targets of the middleware. Zero values
// fall back to the defaults above.
type Options struct {
	LoginRoute string
	AdminHome  string
	Logger     zerolog.Logger
}

// Middleware gates every request through Evaluate against the role read
// from the session store. Redirects use 303 See Other so that guarded POSTs
// do not get replayed against the redirect target.
func Middleware(store session.Store, opts Options) func(http.Handler) http.Handler {
	if opts.LoginRoute == "" {
		opts.LoginRoute = DefaultLoginRoute
	}
	if opts.AdminHome == "" {
		opts.AdminHome = DefaultAdminHome
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := store.Role()
			decision := Evaluate(role, r.URL.Path)

			switch decision {
			case RedirectLogin:
				http.Redirect(w, r, opts.LoginRoute, http.StatusSeeOther)
			case RedirectDefault:
				opts.Logger.Info().
					Str("role", string(role)).
					Str("path", r.URL.Path).
					Msg("admin area not permitted for role")
				http.Redirect(w, r, opts.AdminHome, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
