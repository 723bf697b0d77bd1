package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Ameerusa86/online-learning-platform/internal/progress"
	"github.com/Ameerusa86/online-learning-platform/internal/repositories"
	"github.com/Ameerusa86/online-learning-platform/internal/services"
	"github.com/Ameerusa86/online-learning-platform/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and progress store are opened on first use so commands that need neither
// (content slug, session token) run without a database file.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time

	db    *sql.DB
	store progress.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB        // preopened database; migrations are assumed applied
	Store      progress.Store // overrides the configured progress store
	Clock      func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Clock,
		db:         opts.DB,
		store:      opts.Store,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the database handle if the runner opened one.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, courseCommand, progressCommand, contentCommand,
		videoCommand, sessionCommand, tasksCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database opens and migrates the configured SQLite database.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

func (r *Runner) users() (*repositories.UserRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewUserRepository(db), nil
}

func (r *Runner) courses() (*repositories.CourseRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewCourseRepository(db), nil
}

// progressStore returns the store selected by [progress] store.
func (r *Runner) progressStore() (progress.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	var (
		store progress.Store
		err   error
	)
	switch backend := r.config.Progress.Store; backend {
	case shared.StoreSQLite, "":
		var db *sql.DB
		if db, err = r.database(); err == nil {
			store = repositories.NewProgressRepository(db)
		}
	case shared.StoreFirestore:
		fs := r.config.Firestore
		store, err = services.NewFirestoreStore(services.FirestoreOpts{
			BaseURL:           fs.BaseURL,
			ProjectID:         fs.ProjectID,
			DatabaseID:        fs.DatabaseID,
			Collection:        fs.Collection,
			TokenSource:       services.StaticToken(fs.AccessToken),
			RequestsPerSecond: fs.RequestsPerSecond,
			HTTPClient:        r.httpClient,
		})
	case shared.StorePostgres:
		store, err = repositories.OpenPostgresProgressStore(r.config.Postgres.DSN)
	default:
		err = fmt.Errorf("%w: unknown progress store %q", shared.ErrInvalidConfig, backend)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("progress store ready", "backend", r.config.Progress.Store)
	r.store = store
	return store, nil
}

func (r *Runner) mode() (progress.Mode, error) {
	m, err := progress.ParseMode(r.config.Progress.Mode)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	return m, nil
}

func (r *Runner) trackerOpts() (progress.TrackerOpts, error) {
	mode, err := r.mode()
	if err != nil {
		return progress.TrackerOpts{}, err
	}
	return progress.TrackerOpts{
		Mode:    mode,
		Timeout: r.config.ProgressTimeout(),
		Clock:   r.now,
		Logger:  r.logger,
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
