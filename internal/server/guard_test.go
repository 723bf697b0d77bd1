package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
)

type fakeRoles struct {
	roles map[string]models.Role
	err   error
}

func (f fakeRoles) HasRole(userID string, role models.Role) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	have, ok := f.roles[userID]
	if !ok {
		return false, shared.ErrUserNotFound
	}
	return have == role || have == models.RoleAdmin, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := SessionFrom(r.Context())
		w.Write([]byte("hello " + s.UserID))
	})
}

func TestSessionMiddleware(t *testing.T) {
	ti := newTestIssuer(t)
	h := SessionMiddleware(ti)(okHandler())
	token, _ := ti.Issue(testUser("u1", models.RoleLearner))

	other, _ := ti.Issue(testUser("u2", models.RoleLearner))

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{"anonymous", "", "", http.StatusOK, "hello "},
		{"valid bearer", "Bearer " + token, "", http.StatusOK, "hello u1"},
		{"lowercase scheme", "bearer " + token, "", http.StatusOK, "hello u1"},
		{"other scheme ignored", "Basic dTE6cHc=", "", http.StatusOK, "hello "},
		{"invalid bearer", "Bearer nope", "", http.StatusUnauthorized, ""},
		{"session cookie", "", token, http.StatusOK, "hello u1"},
		{"invalid cookie is anonymous", "", "nope", http.StatusOK, "hello "},
		{"bearer wins over cookie", "Bearer " + other, token, http.StatusOK, "hello u2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestSetSessionCookie(t *testing.T) {
	expires := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", Session{UserID: "u1", ExpiresAt: expires})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookie || c.Value != "tok" || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("unexpected cookie %+v", c)
	}
	if !c.Expires.Equal(expires) {
		t.Errorf("Expires = %v, want %v", c.Expires, expires)
	}
}

func TestRequireRole(t *testing.T) {
	logger := log.New(io.Discard)
	roles := fakeRoles{roles: map[string]models.Role{"admin": models.RoleAdmin, "learner": models.RoleLearner}}

	tests := []struct {
		name    string
		checker RoleChecker
		session *Session
		status  int
	}{
		{"no session", roles, nil, http.StatusUnauthorized},
		{"learner forbidden", roles, &Session{UserID: "learner"}, http.StatusForbidden},
		{"admin allowed", roles, &Session{UserID: "admin"}, http.StatusOK},
		{"unknown user", roles, &Session{UserID: "ghost"}, http.StatusUnauthorized},
		{"lookup failure", fakeRoles{err: errors.New("db down")}, &Session{UserID: "admin"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(tt.checker, models.RoleAdmin, logger)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.session != nil {
				req = req.WithContext(WithSession(req.Context(), *tt.session))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	t.Run("session ignores stale token role", func(t *testing.T) {
		// token says admin, store says learner
		h := RequireRole(roles, models.RoleAdmin, logger)(okHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), Session{UserID: "learner", Role: models.RoleAdmin}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestRequireSession(t *testing.T) {
	h := RequireSession()(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), Session{UserID: "u1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "hello u1" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
