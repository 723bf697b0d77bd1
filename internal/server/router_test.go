package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func tag(name string, trail *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trail = append(*trail, name)
			next.ServeHTTP(w, r)
		})
	}
}

type pagesHandler struct{}

func (pagesHandler) Routes() []string { return []string{"GET /a", "GET /b/{id}"} }

func (pagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("page " + r.PathValue("id")))
}

func TestBasicRouter(t *testing.T) {
	t.Run("global middleware wraps route middleware", func(t *testing.T) {
		var trail []string
		r := NewBasicRouter()
		r.Use(tag("outer", &trail), tag("inner", &trail))
		r.Handle("get", "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			trail = append(trail, "handler")
		}), tag("route", &trail))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		got := strings.Join(trail, ",")
		if got != "outer,inner,route,handler" {
			t.Errorf("middleware order = %s", got)
		}
	})

	t.Run("method mismatch", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodPost, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("Handler registers every route", func(t *testing.T) {
		var trail []string
		r := NewBasicRouter()
		r.Handler(pagesHandler{}, tag("route", &trail))

		for path, want := range map[string]string{"/a": "page ", "/b/7": "page 7"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != want {
				t.Errorf("%s body = %q, want %q", path, rec.Body.String(), want)
			}
		}
		if len(trail) != 2 {
			t.Errorf("route middleware ran %d times, want 2", len(trail))
		}
	})
}
