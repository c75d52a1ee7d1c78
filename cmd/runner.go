package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/soniclist/spotsync/internal/library"
	"github.com/soniclist/spotsync/internal/matcher"
	"github.com/soniclist/spotsync/internal/repositories"
	"github.com/soniclist/spotsync/internal/services"
	"github.com/soniclist/spotsync/internal/shared"
	"github.com/soniclist/spotsync/internal/store"
	"github.com/soniclist/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	logger     *log.Logger
	output     io.Writer

	// Built lazily by buildEngine; commands that never touch the library
	// (auth, setup) leave these nil.
	engine   *tasks.SyncEngine
	uriStore *store.URIStore
	mirror   store.Mirror
	db       *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Logger     *log.Logger
	Output     io.Writer

	// Engine overrides the lazily built sync engine, used in tests.
	Engine *tasks.SyncEngine
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		updateCommand, refreshCommand, diffCommand, checkCommand, simplecheckCommand,
		artworkCommand, extractCommand, normalizeCommand, spotifyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// buildEngine wires the sync engine from the configuration: sqlite cache and
// mirror, library scanner, URI store, report writer, and matcher. The result
// is cached for the life of the Runner.
func (r *Runner) buildEngine() (*tasks.SyncEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	dbPath, err := r.config.DatabasePath()
	if err != nil {
		return nil, err
	}

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	uriPath, err := r.config.URIFilePath()
	if err != nil {
		db.Close()
		return nil, err
	}

	dataFolder, err := r.config.DataFolder()
	if err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	r.uriStore = store.NewURIStore(uriPath)
	r.mirror = repositories.NewURIMirrorRepository(db)

	r.engine = tasks.NewSyncEngine(
		r.spotify,
		library.NewScanner(r.config.Paths, shared.WithLogger(r.logger, "component", "scanner")),
		r.uriStore,
		r.mirror,
		repositories.NewSearchCacheRepository(db),
		matcher.New(r.config.Search.Threshold),
		store.NewReports(dataFolder),
		r.logger,
	)

	return r.engine, nil
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// startProgress drains progress updates onto the output. The returned stop
// function closes the channel and waits for the drain goroutine to finish.
func (r *Runner) startProgress() (chan tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 1 {
				r.writePlain("[%v] (%d/%d) %s\n", update.Phase, update.Step, update.Total, update.Message)
			} else {
				r.writePlain("[%v] %s\n", update.Phase, update.Message)
			}
		}
	}()

	return progress, func() {
		close(progress)
		<-done
	}
}

// saveTokens persists an OAuth token onto the config, writing it back to disk
// when a config path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
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
