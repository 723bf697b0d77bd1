package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/urfave/cli/v3"
)

type progressJSON struct {
	LearnerID  string  `json:"learnerId"`
	CourseID   string  `json:"courseId"`
	Slug       string  `json:"slug"`
	TotalSteps int     `json:"totalSteps"`
	Completed  []int   `json:"completed"`
	Progress   float64 `json:"progress"`
	Mode       string  `json:"mode"`
	Version    int64   `json:"version"`
}

// openTracker resolves the learner and course and loads the stored state.
func (r *Runner) openTracker(ctx context.Context, learnerRef, slug string) (*models.Course, *progress.Tracker, progress.Snapshot, error) {
	user, err := r.resolveLearner(learnerRef)
	if err != nil {
		return nil, nil, progress.Snapshot{}, err
	}
	course, err := r.courseBySlug(slug)
	if err != nil {
		return nil, nil, progress.Snapshot{}, err
	}
	store, err := r.progressStore()
	if err != nil {
		return nil, nil, progress.Snapshot{}, err
	}
	opts, err := r.trackerOpts()
	if err != nil {
		return nil, nil, progress.Snapshot{}, err
	}

	tracker := progress.NewTracker(store, user.ID(), course.ID(), course.TotalSteps(), opts)
	snap, err := tracker.Open(ctx)
	if err != nil {
		return nil, nil, progress.Snapshot{}, err
	}
	return course, tracker, snap, nil
}

// ProgressShow prints the learner's completion marks and percentage for a course.
func (r *Runner) ProgressShow(ctx context.Context, cmd *cli.Command) error {
	course, _, snap, err := r.openTracker(ctx, cmd.String("learner"), cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		mode, _ := r.mode()
		return r.writeJSON(progressJSON{
			LearnerID:  snap.LearnerID,
			CourseID:   snap.CourseID,
			Slug:       course.Slug(),
			TotalSteps: snap.TotalSteps,
			Completed:  snap.Completion.Indices(),
			Progress:   snap.Progress,
			Mode:       mode.String(),
			Version:    snap.Version,
		}, true)
	}

	r.writeSnapshot(course, snap)
	return nil
}

// ProgressToggle flips one step and prints the new state.
//
// A failed write has already been rolled back by the tracker; the error says whether a retry may succeed.
func (r *Runner) ProgressToggle(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: step index %q", shared.ErrInvalidArgument, raw)
	}

	course, tracker, _, err := r.openTracker(ctx, cmd.String("learner"), cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	snap, err := tracker.Toggle(ctx, index)
	if err != nil {
		if errors.Is(err, shared.ErrRetryable) {
			r.writePlain("✗ Not saved, progress unchanged. Try again.\n")
		}
		return err
	}

	state := "incomplete"
	if snap.Completed(index) {
		state = "complete"
	}
	r.writePlain("✓ Step %d marked %s\n\n", index, state)
	r.writeSnapshot(course, snap)
	return nil
}

func (r *Runner) writeSnapshot(course *models.Course, snap progress.Snapshot) {
	r.writePlainHeader(course.Title())
	for i, s := range course.Steps() {
		mark := "[ ]"
		if snap.Completed(i) {
			mark = "[x]"
		}
		r.writePlain("%s %3d. %s\n", mark, i, s.Title)
	}
	r.writePlain("\nProgress: %.0f%% (%d/%d steps)\n", snap.Progress, snap.Completion.Count(), snap.TotalSteps)
}
