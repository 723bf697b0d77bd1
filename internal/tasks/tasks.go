// package tasks implements bulk progress operations across every learner of a course.
//
// The core abstraction is ProgressEngine, which recalculates stored progress and exports reports.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 5
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// CourseSource looks up courses. repositories.CourseRepository implements it.
type CourseSource interface {
	GetBySlug(slug string) (*models.Course, error)
}

// ProgressLister lists every stored document of a course. repositories.ProgressRepository implements it.
type ProgressLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]*models.ProgressDocument, error)
}

// Outcome is the result of recalculating one learner document.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeStale     Outcome = "stale"
	OutcomeFailed    Outcome = "failed"
)

// LearnerResult is the per-document result of [ProgressEngine.Recalculate].
type LearnerResult struct {
	LearnerID string
	Outcome   Outcome
	Before    float64
	After     float64
	Dropped   []int // indices removed because the step list shrank
	Error     error
}

// RecalcResult summarizes a recalculation run.
type RecalcResult struct {
	Slug       string
	TotalSteps int
	Documents  int
	Updated    int
	Unchanged  int
	Stale      int
	Failed     int
	Results    []LearnerResult
}

// PoolOpts configures the worker pool used by bulk operations.
type PoolOpts struct {
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Store writes per second (default: 5)
}

func (o PoolOpts) normalize() PoolOpts {
	if o.NumWorkers <= 0 {
		o.NumWorkers = defaultWorkers
	}
	if o.NumWorkers > maxWorkers {
		o.NumWorkers = maxWorkers
	}
	if o.RateLimit <= 0 {
		o.RateLimit = defaultRateLimit
	}
	return o
}

// EngineOpts configures a [ProgressEngine]. Zero values select defaults.
type EngineOpts struct {
	Mode   progress.Mode
	Clock  func() time.Time
	Logger *log.Logger
}

// ProgressEngine runs bulk operations over stored progress documents.
type ProgressEngine struct {
	courses CourseSource
	docs    ProgressLister
	store   progress.Store
	mode    progress.Mode
	clock   func() time.Time
	logger  *log.Logger
}

// NewProgressEngine creates a new ProgressEngine. store receives the rewritten documents.
func NewProgressEngine(courses CourseSource, docs ProgressLister, store progress.Store, opts EngineOpts) *ProgressEngine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &ProgressEngine{
		courses: courses,
		docs:    docs,
		store:   store,
		mode:    opts.Mode,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ProgressEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Recalculate rewrites the stored percentage of every learner in the course identified by slug.
//
// Completed indices that no longer exist after the step list changed are dropped. Documents whose map and
// percentage are already correct are left alone. Each write carries a version past the stored one, so a
// learner toggling concurrently either wins (the write is counted as stale) or sees the recalculated state.
func (e *ProgressEngine) Recalculate(ctx context.Context, prog chan<- ProgressUpdate, slug string, opts PoolOpts) (*RecalcResult, error) {
	opts = opts.normalize()

	e.sendProgress(prog, loadCourseUpdate(1, 1, slug))
	course, err := e.courses.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	docs, err := e.docs.ListByCourse(ctx, course.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	e.sendProgress(prog, listProgressUpdate(1, 1, course.Title(), len(docs)))

	result := &RecalcResult{
		Slug:       course.Slug(),
		TotalSteps: course.TotalSteps(),
		Documents:  len(docs),
		Results:    make([]LearnerResult, 0, len(docs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan *models.ProgressDocument, len(docs))
	results := make(chan LearnerResult, len(docs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.recalcWorker(ctx, &wg, limiter, course.TotalSteps(), jobs, results)
	}

	for _, doc := range docs {
		jobs <- doc
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		switch res.Outcome {
		case OutcomeUpdated:
			result.Updated++
		case OutcomeUnchanged:
			result.Unchanged++
		case OutcomeStale:
			result.Stale++
		default:
			result.Failed++
		}
		e.sendProgress(prog, recalculatedUpdate(completed, len(docs), res))
	}

	e.logger.Info("progress recalculated",
		"course", course.Slug(), "documents", result.Documents,
		"updated", result.Updated, "stale", result.Stale, "failed", result.Failed,
	)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// recalcWorker is a worker goroutine that rewrites documents from the jobs channel.
func (e *ProgressEngine) recalcWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	totalSteps int,
	jobs <-chan *models.ProgressDocument,
	results chan<- LearnerResult,
) {
	defer wg.Done()

	for doc := range jobs {
		if err := ctx.Err(); err != nil {
			results <- LearnerResult{LearnerID: doc.LearnerID, Outcome: OutcomeFailed, Error: err}
			continue
		}
		results <- e.recalculateOne(ctx, limiter, totalSteps, doc)
	}
}

func (e *ProgressEngine) recalculateOne(ctx context.Context, limiter *rate.Limiter, totalSteps int, doc *models.ProgressDocument) LearnerResult {
	res := LearnerResult{LearnerID: doc.LearnerID, Before: doc.Progress}

	state, err := doc.Completion()
	if err != nil {
		res.Outcome, res.Error = OutcomeFailed, err
		return res
	}

	kept := models.CompletionState{}
	for _, i := range state.Indices() {
		if i < totalSteps {
			kept[i] = true
		} else {
			res.Dropped = append(res.Dropped, i)
		}
	}
	res.After = e.mode.Calculate(kept, totalSteps)

	if len(res.Dropped) == 0 && res.After == res.Before {
		res.Outcome = OutcomeUnchanged
		return res
	}

	if err := limiter.Wait(ctx); err != nil {
		res.Outcome, res.Error = OutcomeFailed, err
		return res
	}

	next := &models.ProgressDocument{
		LearnerID:     doc.LearnerID,
		CourseID:      doc.CourseID,
		Progress:      res.After,
		StepCompleted: kept.Encode(),
		Version:       max(e.clock().UnixNano(), doc.Version+1),
		UpdatedAt:     e.clock().UTC(),
	}

	switch err := e.store.Merge(ctx, next); {
	case err == nil:
		res.Outcome = OutcomeUpdated
	case errors.Is(err, shared.ErrStaleWrite):
		res.Outcome = OutcomeStale
	default:
		res.Outcome, res.Error = OutcomeFailed, err
		e.logger.Warn("recalculation write failed", "learner", doc.LearnerID, "course", doc.CourseID, "error", err)
	}
	return res
}
