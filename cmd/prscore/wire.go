package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/okian/prscore/internal/adapters/bus"
	"github.com/okian/prscore/internal/adapters/repository"
	app "github.com/okian/prscore/internal/app"
	"github.com/okian/prscore/internal/config"
	"github.com/okian/prscore/internal/domain/dedupe"
	"github.com/okian/prscore/internal/domain/facts"
	"github.com/okian/prscore/internal/domain/ledger"
	"github.com/okian/prscore/pkg/logger"
)

// store is a ledger store that owns a connection.
type store interface {
	ledger.Store
	Close() error
}

// runtime bundles the wired service and its teardown.
type runtime struct {
	svc     *app.Service
	closers []func() error
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	return errors.Join(errs...)
}

// openStore opens the configured ledger backend.
func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.LedgerBackend {
	case config.BackendSQLite:
		s, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := repository.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if _, err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return repository.NewMemoryStore(), nil
	}
}

// loadDirectory reads the registry. A missing file yields an empty
// directory so a fresh deployment can start before fixtures exist.
func loadDirectory(ctx context.Context, path string) (*repository.Directory, error) {
	dir, err := repository.LoadDirectory(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Get().Warn(ctx, "directory file not found; starting empty", logger.String("path", path))
		return repository.NewDirectory(nil, nil)
	}
	return dir, err
}

// factsProvider builds the configured fact source.
func factsProvider(cfg *config.Config, st ledger.Store, dir ledger.Directory) (facts.Provider, error) {
	fromLedger := facts.NewLedgerProvider(st, dir)
	switch cfg.FactsSource {
	case config.FactsFile, config.FactsBoth:
		file, err := facts.LoadFileProvider(cfg.FactsPath)
		if err != nil {
			return nil, err
		}
		if cfg.FactsSource == config.FactsFile {
			return file, nil
		}
		return facts.Composite{file, fromLedger}, nil
	default:
		return fromLedger, nil
	}
}

// wire assembles the service described by cfg. withBus attaches the
// in-process award bus, which only long-running commands need.
func wire(ctx context.Context, cfg *config.Config, withBus bool) (*runtime, error) {
	rt := &runtime{}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	dir, err := loadDirectory(ctx, cfg.DirectoryPath)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger store: %w", err)
	}
	rt.closers = append(rt.closers, st.Close)

	provider, err := factsProvider(cfg, st, dir)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("facts: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(logger.Named("service")),
		app.WithStore(st),
		app.WithDirectory(dir),
		app.WithCatalog(catalog),
		app.WithFactsProvider(provider),
		app.WithWorkerCount(cfg.WorkerCount),
	}
	if cfg.EnforceUniqueAwards {
		opts = append(opts, app.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))))
	}
	if withBus {
		b := bus.New(bus.WithLogger(logger.Named("bus")))
		rt.closers = append(rt.closers, b.Close)
		opts = append(opts, app.WithBus(b))
	}

	rt.svc = app.New(opts...)
	if err := rt.svc.Start(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func() error { rt.svc.Stop(); return nil })
	return rt, nil
}
