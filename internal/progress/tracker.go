package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds each store call made by a [Tracker].
const DefaultTimeout = 10 * time.Second

// Store persists progress documents.
//
// Read returns [shared.ErrNotFound] when no document exists. Merge upserts only the progress,
// step map, version and update time of the document and must return [shared.ErrStaleWrite]
// when the stored version is not older than doc.Version. Both must honor ctx cancellation.
type Store interface {
	Read(ctx context.Context, learnerID, courseID string) (*models.ProgressDocument, error)
	Merge(ctx context.Context, doc *models.ProgressDocument) error
}

// Snapshot is a copy of a tracker's state.
type Snapshot struct {
	LearnerID  string
	CourseID   string
	TotalSteps int
	Completion models.CompletionState
	Progress   float64
	Version    int64
	UpdatedAt  time.Time
}

// Completed reports whether step index is complete.
func (s Snapshot) Completed(index int) bool { return s.Completion.Has(index) }

// TrackerOpts configures a [Tracker]. Zero values select defaults.
type TrackerOpts struct {
	Mode    Mode
	Timeout time.Duration
	Clock   func() time.Time
	Logger  *log.Logger
}

// Tracker owns the completion state of one learner in one course.
//
// All methods are safe for concurrent use. Toggles are serialized: a second toggle waits
// until the first one has been persisted or rolled back.
type Tracker struct {
	mu         sync.Mutex
	store      Store
	learnerID  string
	courseID   string
	totalSteps int
	mode       Mode
	timeout    time.Duration
	clock      func() time.Time
	logger     *log.Logger

	opened    bool
	state     models.CompletionState
	progress  float64
	version   int64
	updatedAt time.Time
}

// NewTracker creates a tracker. Call [Tracker.Open] to load stored state; [Tracker.Toggle] opens lazily.
func NewTracker(store Store, learnerID, courseID string, totalSteps int, opts TrackerOpts) *Tracker {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Tracker{
		store:      store,
		learnerID:  learnerID,
		courseID:   courseID,
		totalSteps: totalSteps,
		mode:       opts.Mode,
		timeout:    opts.Timeout,
		clock:      opts.Clock,
		logger:     opts.Logger.With("learner", learnerID, "course", courseID),
		state:      models.CompletionState{},
	}
}

// TotalSteps returns the step count the tracker was created with.
func (t *Tracker) TotalSteps() int { return t.totalSteps }

// Open loads the stored document, creating an empty one when none exists.
func (t *Tracker) Open(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.openLocked(ctx); err != nil {
		return Snapshot{}, err
	}
	return t.snapshotLocked(), nil
}

// Refresh discards in-memory state and reloads it from the store, creating the empty
// document when none exists yet.
func (t *Tracker) Refresh(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.refreshLocked(ctx); err != nil {
		return Snapshot{}, err
	}
	return t.snapshotLocked(), nil
}

// Snapshot returns the current in-memory state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Toggle flips step index and persists the result.
//
// On any persistence failure the in-memory state is restored to its value before the call and
// the returned error wraps [shared.ErrRetryable] together with one of [shared.ErrTimeout],
// [shared.ErrStaleWrite] or [shared.ErrPersist]. After a stale write the tracker reloads the
// winning document from the store. Out-of-range indices fail with [shared.ErrIndexOutOfRange]
// and change nothing.
func (t *Tracker) Toggle(ctx context.Context, index int) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.opened {
		if err := t.openLocked(ctx); err != nil {
			return Snapshot{}, err
		}
	}

	next, err := Toggle(t.state, index, t.totalSteps)
	if err != nil {
		return Snapshot{}, err
	}

	prevState, prevProgress, prevVersion, prevUpdated := t.state, t.progress, t.version, t.updatedAt

	t.state = next
	t.progress = t.mode.Calculate(next, t.totalSteps)
	t.version = t.nextVersion()
	t.updatedAt = t.clock().UTC()

	if err := t.persist(ctx, t.documentLocked()); err != nil {
		t.state, t.progress, t.version, t.updatedAt = prevState, prevProgress, prevVersion, prevUpdated
		t.logger.Warn("toggle rolled back", "step", index, "error", err)

		if errors.Is(err, shared.ErrStaleWrite) {
			if rerr := t.refreshLocked(ctx); rerr != nil {
				t.logger.Warn("refresh after stale write failed", "error", rerr)
			}
		}
		return Snapshot{}, err
	}

	t.logger.Debug("step toggled", "step", index, "completed", next.Has(index), "progress", t.progress)
	return t.snapshotLocked(), nil
}

func (t *Tracker) openLocked(ctx context.Context) error {
	doc, err := t.read(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		doc = models.NewProgressDocument(t.learnerID, t.courseID)
		doc.Version = t.nextVersion()
		doc.UpdatedAt = t.clock().UTC()

		err = t.persist(ctx, doc)
		if errors.Is(err, shared.ErrStaleWrite) {
			// Another session created the document first.
			doc, err = t.read(ctx)
		}
	}
	if err != nil {
		return err
	}
	return t.loadLocked(doc)
}

// refreshLocked reloads stored state. A tracker that was never opened, or whose document
// has gone missing, creates the empty document instead.
func (t *Tracker) refreshLocked(ctx context.Context) error {
	if !t.opened {
		return t.openLocked(ctx)
	}
	doc, err := t.read(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return t.openLocked(ctx)
	}
	if err != nil {
		return err
	}
	return t.loadLocked(doc)
}

func (t *Tracker) loadLocked(doc *models.ProgressDocument) error {
	state, err := doc.Completion()
	if err != nil {
		return err
	}

	t.state = state
	t.progress = t.mode.Calculate(state, t.totalSteps)
	t.version = doc.Version
	t.updatedAt = doc.UpdatedAt
	t.opened = true
	return nil
}

func (t *Tracker) read(ctx context.Context) (*models.ProgressDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	doc, err := t.store.Read(ctx, t.learnerID, t.courseID)
	switch {
	case err == nil:
		return doc, nil
	case errors.Is(err, shared.ErrNotFound):
		return nil, err
	default:
		return nil, classify(ctx, err)
	}
}

func (t *Tracker) persist(ctx context.Context, doc *models.ProgressDocument) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.store.Merge(ctx, doc); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// classify wraps a store failure with the sentinels callers branch on.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, shared.ErrInvalidDocument):
		return err
	case errors.Is(err, shared.ErrStaleWrite):
		return fmt.Errorf("%w: %w", shared.ErrRetryable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w: %v", shared.ErrRetryable, shared.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w: %v", shared.ErrRetryable, shared.ErrPersist, err)
	}
}

// nextVersion is the current clock in nanoseconds, bumped past the last version when the clock lags.
func (t *Tracker) nextVersion() int64 {
	return max(t.clock().UnixNano(), t.version+1)
}

func (t *Tracker) documentLocked() *models.ProgressDocument {
	return &models.ProgressDocument{
		LearnerID:     t.learnerID,
		CourseID:      t.courseID,
		Progress:      t.progress,
		StepCompleted: t.state.Encode(),
		Version:       t.version,
		UpdatedAt:     t.updatedAt,
	}
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		LearnerID:  t.learnerID,
		CourseID:   t.courseID,
		TotalSteps: t.totalSteps,
		Completion: t.state.Clone(),
		Progress:   t.progress,
		Version:    t.version,
		UpdatedAt:  t.updatedAt,
	}
}
