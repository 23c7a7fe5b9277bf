package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plst/internal/events"
	"github.com/desertthunder/plst/internal/models"
	"github.com/desertthunder/plst/internal/repositories"
	"github.com/desertthunder/plst/internal/services"
	"github.com/desertthunder/plst/internal/shared"
	"github.com/desertthunder/plst/internal/store"
	"github.com/desertthunder/plst/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Storage, catalog and publisher are opened on first use from the config, unless injected through [RunnerOpts].
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer

	db        *sql.DB
	playlists models.PlaylistRepository
	songs     models.SongRepository
	catalog   services.Catalog
	publisher events.Publisher

	store   *store.PlaylistStore
	service *services.PlaylistService
	engine  *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Playlists  models.PlaylistRepository
	Songs      models.SongRepository
	Catalog    services.Catalog
	Publisher  events.Publisher
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
		logger:     opts.Logger,
		output:     opts.Output,
		playlists:  opts.Playlists,
		songs:      opts.Songs,
		catalog:    opts.Catalog,
		publisher:  opts.Publisher,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, playlistCommand, songCommand, tokenCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger. Must be called before the first command opens its dependencies.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// open builds the repositories, catalog, publisher and service described by the config.
func (r *Runner) open(ctx context.Context) error {
	if r.service != nil {
		return nil
	}

	if r.playlists == nil {
		if err := r.openStorage(ctx); err != nil {
			return err
		}
	}

	if r.catalog == nil {
		switch r.config.Catalog.Mode {
		case "remote":
			r.catalog = services.NewRemoteCatalog(ctx, r.config.Catalog)
		default:
			if r.songs == nil {
				return fmt.Errorf("%w: local catalog needs a song repository", shared.ErrServiceUnavailable)
			}
			r.catalog = services.NewLocalCatalog(r.songs)
		}
	}

	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
		if url := r.config.Events.RedisURL; url != "" {
			pub, err := events.NewRedisPublisher(url, r.config.Events.Channel)
			if err != nil {
				return fmt.Errorf("failed to configure event publisher: %w", err)
			}
			r.publisher = pub
		}
	}

	r.store = store.New(r.playlists, store.WithPublisher(r.publisher), store.WithLogger(r.logger))
	r.service = services.NewPlaylistService(r.store, r.catalog, r.config.Store.MaxRetries, r.logger)
	r.engine = tasks.NewEngine(r.service, r.playlists, r.logger)
	return nil
}

func (r *Runner) openStorage(ctx context.Context) error {
	switch r.config.Database.Driver {
	case "memory":
		r.logger.Warn("using in-memory storage; data is lost on exit")
		r.playlists = repositories.NewMemoryPlaylistRepository()
		if r.songs == nil {
			r.songs = repositories.NewMemorySongRepository()
		}
		return nil
	default:
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database)

		if err := shared.RunMigrations(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		r.db = db
		r.playlists = repositories.NewPlaylistRepository(db)
		if r.songs == nil {
			r.songs = repositories.NewSongRepository(db)
		}
		return nil
	}
}

// Close releases the database and publisher connections.
func (r *Runner) Close() error {
	var errs []error
	if closer, ok := r.publisher.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// user returns the acting user from --user or PLST_USER.
func (r *Runner) user(cmd *cli.Command) (string, error) {
	if u := cmd.String("user"); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: --user (or PLST_USER) is required", shared.ErrMissingArgument)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
