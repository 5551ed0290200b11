package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"

	"github.com/okian/prscore/internal/adapters/http/api"
	"github.com/okian/prscore/internal/adapters/http/swagger"
	"github.com/okian/prscore/internal/adapters/repository"
	"github.com/okian/prscore/internal/config"
	"github.com/okian/prscore/internal/domain/scoring"
	"github.com/okian/prscore/internal/seed"
	"github.com/okian/prscore/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		_, _ = os.Stderr.WriteString("prscore: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

// newApp builds the command tree. out receives command output.
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "prscore",
		Usage:  "PR scoring engine for contingent leaders",
		Before: setup,
		Action: serve,
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "report",
				Usage: "recompute one contingent's score report and print it as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "cl", Usage: "contingent id", Required: true},
					&cli.BoolFlag{Name: "verify", Usage: "re-check report invariants"},
				},
				Action: report,
			},
			{
				Name:  "leaderboard",
				Usage: "print the ranked leaderboard as JSON",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "entries to print, 0 for all"},
				},
				Action: leaderboard,
			},
			{
				Name:  "seed",
				Usage: "write fake directory and facts fixtures",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "data", Usage: "output directory"},
					&cli.IntFlag{Name: "contingents", Value: 10},
					&cli.IntFlag{Name: "members", Value: 5},
					&cli.IntFlag{Name: "events", Value: 8},
					&cli.Int64Flag{Name: "seed", Usage: "random seed, defaults to the clock"},
				},
				Action: seedFixtures,
			},
			{
				Name:  "migrate",
				Usage: "Postgres ledger migrations",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply pending migrations", Action: migrateUp},
					{Name: "rollback", Usage: "roll back the last migration group", Action: migrateRollback},
				},
				Action: migrateUp,
			},
		},
	}
}

// setup initializes logging and loads configuration into the app metadata.
func setup(c *cli.Context) error {
	// Use stderr for logs so JSON output on stdout stays clean.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(c.Context)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	format, _ := logger.ParseFormat(cfg.LogFormat)
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(os.Stderr)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata["config"] = cfg
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	cfg, _ := c.App.Metadata["config"].(*config.Config)
	if cfg == nil {
		cfg = config.New()
	}
	return cfg
}

// serve runs the HTTP server until the context is cancelled.
func serve(c *cli.Context) error {
	ctx := c.Context
	cfg := configFrom(c)
	log := logger.Get()

	rt, err := wire(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() { _ = rt.Close() }()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, rt),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newRouter registers the docs and business routes.
func newRouter(ctx context.Context, cfg *config.Config, rt *runtime) http.Handler {
	r := chi.NewRouter()
	swagger.Register(ctx, r)
	api.NewServer(rt.svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithAwardRateLimit(cfg.AwardRateLimit, cfg.AwardBurst),
	).Register(ctx, r)
	return r
}

func report(c *cli.Context) error {
	rt, err := wire(c.Context, configFrom(c), false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rep, err := rt.svc.Report(c.Context, c.String("cl"))
	if err != nil {
		return err
	}
	if c.Bool("verify") {
		if err := scoring.Verify(rep); err != nil {
			return err
		}
	}
	return printJSON(c.App.Writer, rep)
}

func leaderboard(c *cli.Context) error {
	rt, err := wire(c.Context, configFrom(c), false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	entries, err := rt.svc.Leaderboard(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, entries)
}

func seedFixtures(c *cli.Context) error {
	cfg := configFrom(c)
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	opts := []seed.Option{
		seed.WithCatalog(catalog),
		seed.WithContingents(c.Int("contingents")),
		seed.WithMembers(c.Int("members")),
		seed.WithEvents(c.Int("events")),
	}
	if c.IsSet("seed") {
		opts = append(opts, seed.WithSeed(c.Int64("seed")))
	}

	dirPath, factsPath, err := seed.New(opts...).Write(c.Context, c.String("out"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n%s\n", dirPath, factsPath)
	return err
}

func openPostgres(c *cli.Context) (*repository.PostgresStore, error) {
	cfg := configFrom(c)
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("%w: postgres_dsn is required for migrations", config.ErrInvalidConfig)
	}
	return repository.OpenPostgres(c.Context, cfg.PostgresDSN)
}

func migrateUp(c *cli.Context) error {
	s, err := openPostgres(c)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	group, err := s.Migrate(c.Context)
	if err != nil {
		return err
	}
	if group.IsZero() {
		_, err = fmt.Fprintln(c.App.Writer, "no new migrations to run")
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "migrated to %s\n", group)
	return err
}

func migrateRollback(c *cli.Context) error {
	s, err := openPostgres(c)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	group, err := s.Rollback(c.Context)
	if err != nil {
		return err
	}
	if group.IsZero() {
		_, err = fmt.Fprintln(c.App.Writer, "no groups to roll back")
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "rolled back %s\n", group)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
