package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/readhabit/readhabit-web/internal/session"
)

const LoginPath = "/login"

// SessionGuard only checks that an access token is present. It is not a trust
// boundary: the backend API validates the token on every call and handlers
// must treat its 401 as "logged out".
type SessionGuard struct {
	store  *session.Store
	logger *slog.Logger
}

func NewSessionGuard(store *session.Store, logger *slog.Logger) *SessionGuard {
	return &SessionGuard{
		store:  store,
		logger: logger,
	}
}

func (g *SessionGuard) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.store.AccessToken(r) == "" {
			g.logger.Debug("no access token, redirecting to login", "path", r.URL.Path)
			http.Redirect(w, r, LoginRedirect(r.URL.RequestURI()), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoginRedirect is the login entry point that forwards back to returnTo.
func LoginRedirect(returnTo string) string {
	return LoginPath + "?returnTo=" + url.QueryEscape(returnTo)
}
