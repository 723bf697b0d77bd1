package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
)

type sessionKey struct{}

// SessionCookie carries the bearer token for server-rendered pages.
const SessionCookie = "olp_session"

// Session is the caller identity resolved from a request's bearer token or session cookie.
type Session struct {
	UserID    string
	Email     string
	Role      models.Role
	ExpiresAt time.Time
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by [SessionMiddleware], if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.UserID != ""
}

// SetSessionCookie stores token in an HttpOnly cookie that expires with the session.
//
// SameSite=Lax keeps cross-site form posts from carrying the cookie.
func SetSessionCookie(w http.ResponseWriter, token string, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
