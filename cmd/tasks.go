package main

import (
	"context"
	"fmt"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/Ameerusa86/online-learning-platform/internal/tasks"
	"github.com/urfave/cli/v3"
)

// engine builds the bulk engine. Listing documents needs a store that can enumerate a course.
func (r *Runner) engine() (*tasks.ProgressEngine, error) {
	courses, err := r.courses()
	if err != nil {
		return nil, err
	}
	store, err := r.progressStore()
	if err != nil {
		return nil, err
	}
	lister, ok := store.(tasks.ProgressLister)
	if !ok {
		return nil, fmt.Errorf("%w: bulk tasks with the %s progress store", shared.ErrNotImplemented, r.config.Progress.Store)
	}
	mode, err := r.mode()
	if err != nil {
		return nil, err
	}

	return tasks.NewProgressEngine(courses, lister, store, tasks.EngineOpts{
		Mode:   mode,
		Clock:  r.now,
		Logger: r.logger,
	}), nil
}

func (r *Runner) poolOpts(cmd *cli.Command) tasks.PoolOpts {
	opts := tasks.PoolOpts{NumWorkers: r.config.Tasks.Workers, RateLimit: r.config.Tasks.RateLimit}
	if n := cmd.Int("workers"); n > 0 {
		opts.NumWorkers = int(n)
	}
	if rl := cmd.Float64("rate"); rl > 0 {
		opts.RateLimit = rl
	}
	return opts
}

// TasksRecalc rewrites stored progress for a course whose step list changed.
func (r *Runner) TasksRecalc(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.Args().First()
	if slug == "" {
		return fmt.Errorf("%w: slug", shared.ErrMissingArgument)
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	r.logger.Info("starting recalculation", "slug", slug)

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadCourse, tasks.ListProgress:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.RecalculateProgress:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Recalculate(ctx, progressCh, slug, r.poolOpts(cmd))
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Recalculation Complete!")
	r.writePlain("Course: %s (%d steps)\n", result.Slug, result.TotalSteps)
	r.writePlain("Documents: %d\n", result.Documents)
	r.writePlain("Updated: %d  Unchanged: %d  Stale: %d  Failed: %d\n", result.Updated, result.Unchanged, result.Stale, result.Failed)

	if result.Failed > 0 {
		r.writePlain("\nFailed learners:\n")
		for _, res := range result.Results {
			if res.Outcome == tasks.OutcomeFailed {
				r.writePlain("  - %s: %v\n", res.LearnerID, res.Error)
			}
		}
	}

	return nil
}

// TasksExport writes progress reports for the named courses, or every course with --all.
func (r *Runner) TasksExport(ctx context.Context, cmd *cli.Command) error {
	slugs := cmd.Args().Slice()
	if cmd.Bool("all") {
		repo, err := r.courses()
		if err != nil {
			return err
		}
		courses, err := repo.List(nil)
		if err != nil {
			return err
		}
		slugs = slugs[:0]
		for _, c := range courses {
			slugs = append(slugs, c.Slug())
		}
	}
	if len(slugs) == 0 {
		return fmt.Errorf("%w: at least one slug or --all", shared.ErrMissingArgument)
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{
		PoolOpts:  r.poolOpts(cmd),
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ExportReport:
				r.writePlain("   %s\n", update.Message)
			case tasks.WriteManifest:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := engine.BulkExport(ctx, progressCh, slugs, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Format: %s\n", result.Format)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d courses\n", result.SuccessfulExports, result.TotalCourses)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.Slug, res.Message)
			}
		}
	}
	return nil
}
