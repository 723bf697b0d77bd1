// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true}
}

func learnerFlag() cli.Flag {
	return &cli.StringFlag{Name: "learner", Aliases: []string{"l"}, Usage: "Learner id or email", Required: true}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// userCommand manages platform users and their roles
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage users",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "role", Usage: "learner or admin", Value: "learner"},
				},
				Action: r.UserAdd,
			},
			{
				Name:  "list",
				Usage: "List users",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Usage: "Only users with this role"},
					jsonFlag(),
				},
				Action: r.UserList,
			},
			{
				Name:      "promote",
				Usage:     "Grant the admin role to a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Action:    r.UserPromote,
			},
		},
	}
}

// courseCommand manages the course & tutorial catalog
func courseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "course",
		Aliases: []string{"courses"},
		Usage:   "Manage courses and tutorials",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a course or tutorial",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Course title", Required: true},
					&cli.StringFlag{Name: "kind", Usage: "course or tutorial", Value: "course"},
					&cli.StringFlag{Name: "description", Usage: "Short description"},
					&cli.StringFlag{Name: "category", Usage: "Catalog category"},
					&cli.StringFlag{Name: "technology", Usage: "Technology tag"},
					&cli.StringFlag{Name: "steps", Usage: "Path to a JSON array of steps"},
				},
				Action: r.CourseAdd,
			},
			{
				Name:  "list",
				Usage: "List courses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "Filter by kind"},
					&cli.StringFlag{Name: "category", Usage: "Filter by category"},
					&cli.StringFlag{Name: "technology", Usage: "Filter by technology"},
					jsonFlag(),
				},
				Action: r.CourseList,
			},
			{
				Name:      "show",
				Usage:     "Show a course and its steps",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.CourseShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a course",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Action:    r.CourseDelete,
			},
			{
				Name:  "step",
				Usage: "Manage course steps",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Append a step to a course",
						Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "title", Usage: "Step title", Required: true},
							&cli.StringFlag{Name: "description", Usage: "Markdown body"},
							&cli.StringFlag{Name: "video", Usage: "YouTube URL"},
							&cli.StringFlag{Name: "code", Usage: "Code snippet"},
						},
						Action: r.StepAdd,
					},
				},
			},
		},
	}
}

// progressCommand reads and toggles learner progress
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Inspect and update learner progress",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a learner's progress in a course",
				Arguments: []cli.Argument{&cli.StringArg{Name: "slug"}},
				Flags:     []cli.Flag{learnerFlag(), jsonFlag()},
				Action:    r.ProgressShow,
			},
			{
				Name:  "toggle",
				Usage: "Toggle completion of one step",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
					&cli.StringArg{Name: "index"},
				},
				Flags:  []cli.Flag{learnerFlag()},
				Action: r.ProgressToggle,
			},
		},
	}
}

// contentCommand exposes the content helpers
func contentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "content",
		Usage: "Content helpers",
		Commands: []*cli.Command{
			{
				Name:      "slug",
				Usage:     "Generate a URL slug",
				Arguments: []cli.Argument{&cli.StringArg{Name: "text"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "existing", Usage: "Slugs already taken"},
				},
				Action: r.ContentSlug,
			},
			{
				Name:      "video",
				Usage:     "Extract a YouTube video id and embed URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Action:    r.ContentVideo,
			},
			{
				Name:  "render",
				Usage: "Render markdown to HTML",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Markdown file (default: stdin)"},
				},
				Action: r.ContentRender,
			},
		},
	}
}

// videoCommand looks up YouTube metadata
func videoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "video",
		Usage: "YouTube video metadata",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Look up title, author and thumbnail via oEmbed",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags:     []cli.Flag{jsonFlag(), prettyFlag()},
				Action:    r.VideoInfo,
			},
		},
	}
}

// sessionCommand issues session tokens for API access
func sessionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Session tokens",
		Commands: []*cli.Command{
			{
				Name:      "token",
				Usage:     "Issue a bearer token for a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime (default: auth.token_ttl)"},
				},
				Action: r.SessionToken,
			},
		},
	}
}

// tasksCommand runs bulk operations over stored progress
func tasksCommand(r *Runner) *cli.Command {
	poolFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.IntFlag{Name: "workers", Usage: "Concurrent workers (default: tasks.workers)"},
			&cli.Float64Flag{Name: "rate", Usage: "Operations per second (default: tasks.rate_limit)"},
		}
	}

	return &cli.Command{
		Name:  "tasks",
		Usage: "Bulk progress operations",
		Commands: []*cli.Command{
			{
				Name:      "recalc",
				Usage:     "Recalculate stored progress for a course after its steps changed",
				ArgsUsage: "<slug>",
				Flags:     poolFlags(),
				Action:    r.TasksRecalc,
			},
			{
				Name:      "export",
				Usage:     "Export progress reports for one or more courses",
				ArgsUsage: "[slug...]",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "format", Usage: "csv, markdown, text or json", Value: "csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.BoolFlag{Name: "all", Usage: "Export every course"},
				}, poolFlags()...),
				Action: r.TasksExport,
			},
		},
	}
}

// serveCommand starts the HTTP API and lesson pages
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and lesson pages",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default: server.host:server.port)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the catalog in a browser"},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive step viewer.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive step viewer",
		Flags:   []cli.Flag{learnerFlag()},
		Action:  r.TUI,
	}
}
