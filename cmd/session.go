package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/server"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/urfave/cli/v3"
)

// tokenIssuer builds an issuer from [auth]; a positive ttl overrides auth.token_ttl.
func (r *Runner) tokenIssuer(ttl time.Duration) (*server.TokenIssuer, error) {
	auth := r.config.Auth
	if ttl > 0 {
		auth.TokenTTL = ttl
	}
	issuer, err := server.NewTokenIssuer(auth.JWTSecret, auth.Issuer, auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w (set auth.jwt_secret or %s)", err, shared.EnvJWTSecret)
	}
	return issuer, nil
}

// SessionToken prints a signed bearer token for an existing user.
func (r *Runner) SessionToken(ctx context.Context, cmd *cli.Command) error {
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

	issuer, err := r.tokenIssuer(cmd.Duration("ttl"))
	if err != nil {
		return err
	}

	token, err := issuer.Issue(user)
	if err != nil {
		return err
	}

	r.logger.Debug("issued token", "user", user.ID(), "role", user.Role())
	return r.writePlain("%s\n", token)
}
