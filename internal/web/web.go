// Package web renders the server-side lesson page for a course or tutorial step.
//
// # Lesson Page
//
//	GET  /courses/{slug}                        → redirect to step 0
//	GET  /courses/{slug}/steps/{index}          → lesson page
//	POST /courses/{slug}/steps/{index}/toggle   → flip completion, redirect back to the page
//	POST /session                               → keep a bearer token in the session cookie
//
// The page shows the step title, the embedded video (or "No video available" when the step has no
// recognizable YouTube reference), the markdown description rendered by content.RenderMarkdown, the
// optional code snippet and a step list with completion marks.
//
// Completion marks, the progress bar and the toggle form are shown only when the request carries a
// session (resolved by server.SessionMiddleware from the bearer header or the session cookie). Reads
// and toggles go through a progress.TrackerCache shared with the JSON API, so the first view creates
// the empty progress document and toggles from both surfaces serialize per learner. A toggle that
// fails to persist re-renders the page with the rolled-back state and a retry notice.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/server"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var lessonTemplate = template.Must(template.ParseFS(templateFS, "templates/lesson.html"))

// NoticeRetry is shown above the toggle form when a toggle could not be saved.
const NoticeRetry = "Not saved, progress unchanged. Try again."

const (
	routeCourse = "GET /courses/{slug}"
	routeStep   = "GET /courses/{slug}/steps/{index}"
	routeToggle = "POST /courses/{slug}/steps/{index}/toggle"
	routeSignIn = "POST /session"
)

// CourseReader looks up a course by slug.
type CourseReader interface {
	GetBySlug(slug string) (*models.Course, error)
}

// LessonOpts configures a [LessonHandler].
type LessonOpts struct {
	Courses  CourseReader
	Progress progress.Store
	Mode     progress.Mode
	Timeout  time.Duration
	Logger   *log.Logger

	// Trackers is shared with the JSON API; nil creates a private cache over Progress.
	Trackers *progress.TrackerCache
	// Sessions verifies tokens posted to /session; nil disables sign-in.
	Sessions server.SessionVerifier
}

// LessonHandler serves lesson pages. It implements server.Handler.
type LessonHandler struct {
	courses  CourseReader
	logger   *log.Logger
	trackers *progress.TrackerCache
	sessions server.SessionVerifier
}

// NewLessonHandler creates a lesson page handler.
func NewLessonHandler(opts LessonOpts) *LessonHandler {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Trackers == nil {
		opts.Trackers = progress.NewTrackerCache(opts.Progress, progress.TrackerOpts{
			Mode:    opts.Mode,
			Timeout: opts.Timeout,
			Logger:  opts.Logger,
		}, 0, 0)
	}
	return &LessonHandler{
		courses:  opts.Courses,
		logger:   opts.Logger,
		trackers: opts.Trackers,
		sessions: opts.Sessions,
	}
}

func (h *LessonHandler) Routes() []string {
	routes := []string{routeCourse, routeStep, routeToggle}
	if h.sessions != nil {
		routes = append(routes, routeSignIn)
	}
	return routes
}

type stepLink struct {
	Title     string
	Href      string
	Current   bool
	Completed bool
}

type lessonPage struct {
	Course    *models.Course
	Step      models.StepRecord
	Index     int
	Video     content.VideoRef
	Body      template.HTML
	Steps     []stepLink
	Prev      string
	Next      string
	Self      string
	Toggle    string
	Notice    string
	Signed    bool
	CanSignIn bool
	Completed bool
	Progress  float64
}

func stepHref(slug string, index int) string {
	return fmt.Sprintf("/courses/%s/steps/%d", slug, index)
}

func (h *LessonHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case routeToggle:
		h.toggle(w, r)
	case routeSignIn:
		h.signIn(w, r)
	default:
		h.lesson(w, r)
	}
}

func (h *LessonHandler) lesson(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.fail(w, err)
		return
	}

	raw := r.PathValue("index")
	if raw == "" {
		http.Redirect(w, r, stepHref(course.Slug(), 0), http.StatusFound)
		return
	}

	index, ok := stepIndex(course, raw)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var snap *progress.Snapshot
	if s, ok := server.SessionFrom(r.Context()); ok {
		got, err := h.trackers.Get(s.UserID, course.ID(), course.TotalSteps()).Refresh(r.Context())
		if err != nil {
			h.fail(w, err)
			return
		}
		snap = &got
	}

	h.render(w, http.StatusOK, course, index, snap, "")
}

func (h *LessonHandler) toggle(w http.ResponseWriter, r *http.Request) {
	s, ok := server.SessionFrom(r.Context())
	if !ok {
		h.fail(w, shared.ErrUnauthorized)
		return
	}

	course, err := h.courses.GetBySlug(r.PathValue("slug"))
	if err != nil {
		h.fail(w, err)
		return
	}
	index, ok := stepIndex(course, r.PathValue("index"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	tracker := h.trackers.Get(s.UserID, course.ID(), course.TotalSteps())
	if _, err := tracker.Toggle(r.Context(), index); err != nil {
		status, retryable := server.StatusFor(err)
		if !retryable {
			h.fail(w, err)
			return
		}
		h.logger.Warn("lesson toggle not saved", "slug", course.Slug(), "step", index, "error", err)
		snap := tracker.Snapshot()
		h.render(w, status, course, index, &snap, NoticeRetry)
		return
	}

	http.Redirect(w, r, stepHref(course.Slug(), index), http.StatusSeeOther)
}

// signIn verifies a posted token and keeps it in the session cookie.
func (h *LessonHandler) signIn(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.PostFormValue("token"))
	s, err := h.sessions.Verify(token)
	if err != nil {
		h.fail(w, shared.ErrInvalidToken)
		return
	}

	server.SetSessionCookie(w, token, s)
	http.Redirect(w, r, safeNext(r.PostFormValue("next")), http.StatusSeeOther)
}

func (h *LessonHandler) render(w http.ResponseWriter, status int, course *models.Course, index int, snap *progress.Snapshot, notice string) {
	step, _ := course.Step(index)
	self := stepHref(course.Slug(), index)
	page := lessonPage{
		Course:    course,
		Step:      step,
		Index:     index,
		Video:     content.ParseVideoRef(step.VideoURL),
		Body:      template.HTML(content.RenderMarkdown(step.Description)),
		Self:      self,
		Toggle:    self + "/toggle",
		Notice:    notice,
		CanSignIn: h.sessions != nil,
	}
	if index > 0 {
		page.Prev = stepHref(course.Slug(), index-1)
	}
	if index < course.TotalSteps()-1 {
		page.Next = stepHref(course.Slug(), index+1)
	}

	completion := models.CompletionState{}
	if snap != nil {
		completion = snap.Completion
		page.Signed = true
		page.Completed = completion.Has(index)
		page.Progress = snap.Progress
	}

	for i, s := range course.Steps() {
		page.Steps = append(page.Steps, stepLink{
			Title:     s.Title,
			Href:      stepHref(course.Slug(), i),
			Current:   i == index,
			Completed: completion.Has(i),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := lessonTemplate.Execute(w, page); err != nil {
		h.logger.Error("failed to render lesson", "slug", course.Slug(), "step", index, "error", err)
	}
}

func stepIndex(course *models.Course, raw string) (int, bool) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if _, ok := course.Step(index); !ok {
		return 0, false
	}
	return index, true
}

// safeNext keeps sign-in redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}

func (h *LessonHandler) fail(w http.ResponseWriter, err error) {
	status, _ := server.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("lesson request failed", "error", err)
	}
	http.Error(w, http.StatusText(status), status)
}
