package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Ameerusa86/online-learning-platform/internal/content"
	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/urfave/cli/v3"
)

type stepJSON struct {
	Index int `json:"index"`
	models.StepRecord
	EmbedURL string `json:"embedURL,omitempty"`
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
	if withSteps {
		for i, s := range c.Steps() {
			step := stepJSON{Index: i, StepRecord: s}
			if ref := content.ParseVideoRef(s.VideoURL); ref.Valid {
				step.EmbedURL = ref.EmbedURL()
			}
			out.Steps = append(out.Steps, step)
		}
	}
	return out
}

// CourseAdd creates a course or tutorial, optionally with steps read from a JSON file.
func (r *Runner) CourseAdd(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	course := models.NewCourse(0, kind, cmd.String("title"))
	course.SetDescription(cmd.String("description"))
	course.SetCategory(cmd.String("category"))
	course.SetTechnology(cmd.String("technology"))

	if path := cmd.String("steps"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read steps file: %w", err)
		}
		var steps []models.StepRecord
		if err := json.Unmarshal(data, &steps); err != nil {
			return fmt.Errorf("%w: steps file: %v", shared.ErrInvalidInput, err)
		}
		course.SetSteps(steps)
	}

	repo, err := r.courses()
	if err != nil {
		return err
	}
	if err := repo.Create(course); err != nil {
		return err
	}

	r.logger.Info("course created", "id", course.ID(), "slug", course.Slug(), "steps", course.TotalSteps())
	return r.writePlain("✓ Created %s %q as %s (%d steps)\n", kind, course.Title(), course.Slug(), course.TotalSteps())
}

// CourseList prints the catalog.
func (r *Runner) CourseList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{
		"category":   cmd.String("category"),
		"technology": cmd.String("technology"),
	}
	if raw := cmd.String("kind"); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		criteria["kind"] = kind
	}

	repo, err := r.courses()
	if err != nil {
		return err
	}
	courses, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]courseJSON, 0, len(courses))
		for _, c := range courses {
			out = append(out, newCourseJSON(c, false))
		}
		return r.writeJSON(out, true)
	}

	r.writePlainHeader(fmt.Sprintf("Catalog (%d)", len(courses)))
	for _, c := range courses {
		r.writePlain("%-9s %-28s %3d steps  %s\n", c.Kind(), c.Slug(), c.TotalSteps(), c.Title())
	}
	return nil
}

// CourseShow prints a course with its steps.
func (r *Runner) CourseShow(ctx context.Context, cmd *cli.Command) error {
	course, err := r.courseBySlug(cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newCourseJSON(course, true), cmd.Bool("pretty"))
	}

	r.writePlainHeader(course.Title())
	r.writePlain("Slug: %s\nKind: %s\n", course.Slug(), course.Kind())
	if course.Category() != "" {
		r.writePlain("Category: %s\n", course.Category())
	}
	if course.Technology() != "" {
		r.writePlain("Technology: %s\n", course.Technology())
	}
	r.writePlain("\n")
	for i, s := range course.Steps() {
		video := "-"
		if id, ok := content.ExtractVideoID(s.VideoURL); ok {
			video = id
		}
		r.writePlain("%3d. %-40s video: %s\n", i, s.Title, video)
	}
	return nil
}

// CourseDelete soft-deletes a course.
func (r *Runner) CourseDelete(ctx context.Context, cmd *cli.Command) error {
	course, err := r.courseBySlug(cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	repo, err := r.courses()
	if err != nil {
		return err
	}
	if err := repo.Delete(course.ID()); err != nil {
		return err
	}

	r.logger.Info("course deleted", "id", course.ID(), "slug", course.Slug())
	return r.writePlain("✓ Deleted %s\n", course.Slug())
}

// StepAdd appends a step to a course.
func (r *Runner) StepAdd(ctx context.Context, cmd *cli.Command) error {
	course, err := r.courseBySlug(cmd.StringArg("slug"))
	if err != nil {
		return err
	}

	step := models.StepRecord{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		VideoURL:    cmd.String("video"),
		CodeSnippet: cmd.String("code"),
	}
	if step.HasVideo() {
		if _, ok := content.ExtractVideoID(step.VideoURL); !ok {
			r.logger.Warn("video URL not recognized; the step will show no video", "url", step.VideoURL)
		}
	}

	repo, err := r.courses()
	if err != nil {
		return err
	}
	index, err := repo.AppendStep(course.ID(), step)
	if err != nil {
		return err
	}

	r.writePlain("✓ Added step %d to %s\n", index, course.Slug())
	r.writePlain("Stored progress for %s may now be stale; run 'olp tasks recalc %s'\n", course.Slug(), course.Slug())
	return nil
}

func (r *Runner) courseBySlug(slug string) (*models.Course, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}
	repo, err := r.courses()
	if err != nil {
		return nil, err
	}
	return repo.GetBySlug(slug)
}
