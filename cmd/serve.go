package main

import (
	"context"
	"net"
	"net/http"

	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/server"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/Ameerusa86/online-learning-platform/internal/web"
	"github.com/urfave/cli/v3"
)

// handler assembles the router: access log and session resolution wrap every route, and the
// API and lesson pages share one tracker cache.
func (r *Runner) handler() (http.Handler, error) {
	courses, err := r.courses()
	if err != nil {
		return nil, err
	}
	users, err := r.users()
	if err != nil {
		return nil, err
	}
	store, err := r.progressStore()
	if err != nil {
		return nil, err
	}
	issuer, err := r.tokenIssuer(0)
	if err != nil {
		return nil, err
	}
	mode, err := r.mode()
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(r.logger, "component", "http")
	timeout := r.config.ProgressTimeout()
	trackers := progress.NewTrackerCache(store, progress.TrackerOpts{
		Mode:    mode,
		Timeout: timeout,
		Clock:   r.now,
		Logger:  logger,
	}, r.config.Server.Trackers, r.config.Server.TrackerIdle)

	router := server.NewBasicRouter()
	router.Use(server.Logging(logger), server.SessionMiddleware(issuer))

	server.NewAPI(server.APIOpts{
		Courses:  courses,
		Progress: store,
		Roles:    users,
		Mode:     mode,
		Timeout:  timeout,
		Logger:   logger,
		Trackers: trackers,
	}).Register(router)

	router.Handler(web.NewLessonHandler(web.LessonOpts{
		Courses:  courses,
		Progress: store,
		Mode:     mode,
		Timeout:  timeout,
		Logger:   logger,
		Trackers: trackers,
		Sessions: issuer,
	}))

	return router, nil
}

// Serve runs the HTTP API and lesson pages until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	h, err := r.handler()
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		go func() {
			url := browseURL(addr) + "/api/courses"
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "url", url, "error", err)
			}
		}()
	}

	return server.Serve(ctx, addr, h, r.logger)
}

// browseURL turns a listen address into a URL a local browser can reach.
func browseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
