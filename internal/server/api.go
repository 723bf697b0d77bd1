package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
)

const maxBodyBytes = 1 << 20

// CourseStore is the catalog the API serves. repositories.CourseRepository implements it.
type CourseStore interface {
	List(criteria map[string]any) ([]*models.Course, error)
	GetBySlug(slug string) (*models.Course, error)
	Create(course *models.Course) error
	Delete(id string) error
}

// APIOpts configures an [API].
type APIOpts struct {
	Courses  CourseStore
	Progress progress.Store
	Roles    RoleChecker
	Mode     progress.Mode
	Timeout  time.Duration
	Logger   *log.Logger

	// Trackers is shared with other surfaces serving the same learners; nil creates a private cache.
	Trackers *progress.TrackerCache
}

// API serves the JSON catalog and progress endpoints.
//
// One [progress.Tracker] is kept per (learner, course) so toggles from the same learner serialize.
type API struct {
	courses  CourseStore
	roles    RoleChecker
	mode     progress.Mode
	logger   *log.Logger
	trackers *progress.TrackerCache
}

// NewAPI creates an API handler set.
func NewAPI(opts APIOpts) *API {
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
	return &API{
		courses:  opts.Courses,
		roles:    opts.Roles,
		mode:     opts.Mode,
		logger:   opts.Logger,
		trackers: opts.Trackers,
	}
}

// Register adds every API route to r with its guard.
func (a *API) Register(r Router) {
	learner := RequireSession()
	admin := RequireRole(a.roles, models.RoleAdmin, a.logger)

	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/api/courses", http.HandlerFunc(a.listCourses))
	r.Handle(http.MethodGet, "/api/courses/{slug}", http.HandlerFunc(a.getCourse))
	r.Handle(http.MethodPost, "/api/admin/courses", http.HandlerFunc(a.createCourse), admin)
	r.Handle(http.MethodDelete, "/api/admin/courses/{slug}", http.HandlerFunc(a.deleteCourse), admin)
	r.Handle(http.MethodGet, "/api/courses/{slug}/progress", http.HandlerFunc(a.getProgress), learner)
	r.Handle(http.MethodPost, "/api/courses/{slug}/steps/{index}/toggle", http.HandlerFunc(a.toggleStep), learner)
}

type stepJSON struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	VideoURL    string `json:"videoURL,omitempty"`
	VideoID     string `json:"videoID,omitempty"`
	EmbedURL    string `json:"embedURL,omitempty"`
	CodeSnippet string `json:"codeSnippet,omitempty"`
}

type courseJSON struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Kind        string     `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Technology  string     `json:"technology,omitempty"`
	TotalSteps  int        `json:"totalSteps"`
	Steps       []stepJSON `json:"steps,omitempty"`
}

type progressJSON struct {
	LearnerID  string    `json:"learnerId"`
	CourseID   string    `json:"courseId"`
	Slug       string    `json:"slug"`
	TotalSteps int       `json:"totalSteps"`
	Completed  []int     `json:"completed"`
	Progress   float64   `json:"progress"`
	Mode       string    `json:"mode"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type createCourseRequest struct {
	Kind        string              `json:"kind"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Technology  string              `json:"technology"`
	Steps       []models.StepRecord `json:"steps"`
}

func newCourseJSON(c *models.Course, withSteps bool) courseJSON {
	out := courseJSON{
		ID:          c.ID(),
		Slug:        c.Slug(),
		Kind:        string(c.Kind()),
		Title:       c.Title(),
		Description: c.Description(),
		Category:    c.Category(),
		Technology:  c.Technology(),
		TotalSteps:  c.TotalSteps(),
	}
	if !withSteps {
		return out
	}
	for i, s := range c.Steps() {
		step := stepJSON{
			Index:       i,
			Title:       s.Title,
			Description: s.Description,
			VideoURL:    s.VideoURL,
			CodeSnippet: s.CodeSnippet,
		}
		if ref := content.ParseVideoRef(s.VideoURL); ref.Valid {
			step.VideoID = ref.ID
			step.EmbedURL = ref.EmbedURL()
		}
		out.Steps = append(out.Steps, step)
	}
	return out
}

func (a *API) newProgressJSON(course *models.Course, snap progress.Snapshot) progressJSON {
	return progressJSON{
		LearnerID:  snap.LearnerID,
		CourseID:   snap.CourseID,
		Slug:       course.Slug(),
		TotalSteps: snap.TotalSteps,
		Completed:  snap.Completion.Indices(),
		Progress:   snap.Progress,
		Mode:       a.mode.String(),
		Version:    snap.Version,
		UpdatedAt:  snap.UpdatedAt,
	}
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := map[string]any{
		"category":   q.Get("category"),
		"technology": q.Get("technology"),
	}
	if raw := q.Get("kind"); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			a.fail(w, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
			return
		}
		criteria["kind"] = kind
	}

	courses, err := a.courses.List(criteria)
	if err != nil {
		a.fail(w, err)
		return
	}

	out := make([]courseJSON, 0, len(courses))
	for _, c := range courses {
		out = append(out, newCourseJSON(c, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := a.courses.GetBySlug(r.PathValue("slug"))
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCourseJSON(course, true))
}

func (a *API) createCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.fail(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	kind, err := models.ParseKind(req.Kind)
	if err != nil {
		a.fail(w, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
		return
	}

	course := models.NewCourse(0, kind, req.Title)
	course.SetSlug(req.Slug)
	course.SetDescription(req.Description)
	course.SetCategory(req.Category)
	course.SetTechnology(req.Technology)
	course.SetSteps(req.Steps)

	if err := a.courses.Create(course); err != nil {
		a.fail(w, err)
		return
	}

	s, _ := SessionFrom(r.Context())
	a.logger.Info("course created", "slug", course.Slug(), "kind", course.Kind(), "by", s.UserID)
	writeJSON(w, http.StatusCreated, newCourseJSON(course, true))
}

func (a *API) deleteCourse(w http.ResponseWriter, r *http.Request) {
	course, err := a.courses.GetBySlug(r.PathValue("slug"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if err := a.courses.Delete(course.ID()); err != nil {
		a.fail(w, err)
		return
	}

	a.trackers.ForgetCourse(course.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getProgress(w http.ResponseWriter, r *http.Request) {
	course, tracker, ok := a.resolve(w, r)
	if !ok {
		return
	}

	snap, err := tracker.Refresh(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.newProgressJSON(course, snap))
}

func (a *API) toggleStep(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		a.fail(w, fmt.Errorf("%w: step index %q", shared.ErrInvalidArgument, r.PathValue("index")))
		return
	}

	course, tracker, ok := a.resolve(w, r)
	if !ok {
		return
	}

	snap, err := tracker.Toggle(r.Context(), index)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.newProgressJSON(course, snap))
}

// resolve loads the course named in the path and the caller's tracker for it.
func (a *API) resolve(w http.ResponseWriter, r *http.Request) (*models.Course, *progress.Tracker, bool) {
	s, ok := SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, shared.ErrUnauthorized, false)
		return nil, nil, false
	}

	course, err := a.courses.GetBySlug(r.PathValue("slug"))
	if err != nil {
		a.fail(w, err)
		return nil, nil, false
	}
	return course, a.trackers.Get(s.UserID, course.ID(), course.TotalSteps()), true
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status, retryable := StatusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, err, retryable)
}

// StatusFor maps an error to its HTTP status and whether the client may retry.
func StatusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, shared.ErrStaleWrite):
		return http.StatusConflict, true
	case errors.Is(err, shared.ErrRetryable):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, shared.ErrNotFound),
		errors.Is(err, shared.ErrCourseNotFound),
		errors.Is(err, shared.ErrUserNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidToken):
		return http.StatusUnauthorized, false
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, false
	case errors.Is(err, shared.ErrIndexOutOfRange),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, false
	default:
		return http.StatusInternalServerError, false
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error, retryable bool) {
	writeJSON(w, status, errorResponse{Error: err.Error(), Retryable: retryable})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
