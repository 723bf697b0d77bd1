package main

import (
	"context"
	"fmt"

	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/Ameerusa86/online-learning-platform/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive step viewer for one learner.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	user, err := r.resolveLearner(cmd.String("learner"))
	if err != nil {
		return err
	}
	courses, err := r.courses()
	if err != nil {
		return err
	}
	store, err := r.progressStore()
	if err != nil {
		return err
	}
	mode, err := r.mode()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/olp-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.ModelOpts{
		Courses:   courses,
		Store:     store,
		LearnerID: user.ID(),
		Mode:      mode,
		Timeout:   r.config.ProgressTimeout(),
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
