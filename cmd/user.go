package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ameerusa86/online-learning-platform/internal/models"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/urfave/cli/v3"
)

type userJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

func newUserJSON(u *models.User) userJSON {
	return userJSON{ID: u.ID(), Email: u.Email(), Name: u.Name(), Role: string(u.Role())}
}

// UserAdd creates a user with the given role.
func (r *Runner) UserAdd(ctx context.Context, cmd *cli.Command) error {
	role, err := models.ParseRole(cmd.String("role"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	repo, err := r.users()
	if err != nil {
		return err
	}

	user := models.NewUser(0, cmd.String("email"), cmd.String("name"))
	user.SetRole(role)
	if err := repo.Create(user); err != nil {
		return err
	}

	r.logger.Info("user created", "id", user.ID(), "role", role)
	return r.writePlain("✓ Created %s %s (%s)\n", role, user.Email(), user.ID())
}

// UserList prints users, optionally filtered by role.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{}
	if raw := cmd.String("role"); raw != "" {
		role, err := models.ParseRole(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		criteria["role"] = role
	}

	repo, err := r.users()
	if err != nil {
		return err
	}
	users, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]userJSON, 0, len(users))
		for _, u := range users {
			out = append(out, newUserJSON(u))
		}
		return r.writeJSON(out, true)
	}

	r.writePlainHeader(fmt.Sprintf("Users (%d)", len(users)))
	for _, u := range users {
		r.writePlain("%-8s %-32s %s\n", u.Role(), u.Email(), u.DisplayName())
	}
	return nil
}

// UserPromote grants the admin role.
func (r *Runner) UserPromote(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	repo, err := r.users()
	if err != nil {
		return err
	}
	user, err := repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return r.writePlain("%s is already an admin\n", email)
	}

	user.SetRole(models.RoleAdmin)
	if err := repo.Update(user); err != nil {
		return err
	}

	r.logger.Info("user promoted", "id", user.ID())
	return r.writePlain("✓ %s is now an admin\n", email)
}

// resolveLearner accepts a user id or an email address.
func (r *Runner) resolveLearner(ref string) (*models.User, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: learner", shared.ErrMissingArgument)
	}
	repo, err := r.users()
	if err != nil {
		return nil, err
	}
	if strings.Contains(ref, "@") {
		return repo.GetByEmail(ref)
	}
	return repo.Get(ref)
}
