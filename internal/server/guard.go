package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
)

// SessionVerifier turns a bearer token into a [Session]. [TokenIssuer] implements it.
type SessionVerifier interface {
	Verify(token string) (Session, error)
}

// RoleChecker reports whether a user holds a role. repositories.UserRepository implements it.
type RoleChecker interface {
	HasRole(userID string, role models.Role) (bool, error)
}

// SessionMiddleware resolves the caller's token into a [Session] on the request context.
//
// The Authorization bearer header wins; browser pages fall back to the [SessionCookie]. Requests
// without a token pass through anonymously. A present but invalid bearer token is rejected with 401,
// while an invalid cookie is ignored so an expired browser session still sees public pages.
func SessionMiddleware(verifier SessionVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				s, err := verifier.Verify(raw)
				if err != nil {
					writeError(w, http.StatusUnauthorized, err, false)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
				return
			}

			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				if s, err := verifier.Verify(c.Value); err == nil {
					r = r.WithContext(WithSession(r.Context(), s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFrom(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, shared.ErrUnauthorized, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects anonymous requests with 401 and sessions lacking role with 403.
//
// The role is looked up through checker on every request, so a demotion takes effect before the token expires.
func RequireRole(checker RoleChecker, role models.Role, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessionFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, shared.ErrUnauthorized, false)
				return
			}

			allowed, err := checker.HasRole(s.UserID, role)
			switch {
			case errors.Is(err, shared.ErrUserNotFound):
				writeError(w, http.StatusUnauthorized, shared.ErrUnauthorized, false)
				return
			case err != nil:
				logger.Error("role lookup failed", "user", s.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, err, false)
				return
			case !allowed:
				writeError(w, http.StatusForbidden, shared.ErrForbidden, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
