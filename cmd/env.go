package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/catalog"
	"github.com/abhisek/ladder/internal/config"
	"github.com/abhisek/ladder/internal/progress"
	"github.com/abhisek/ladder/internal/progression"
	"github.com/abhisek/ladder/internal/rewards"
	"github.com/abhisek/ladder/internal/store"
)

// env is everything a command needs to act on one learner's progress.
type env struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *store.Store
	docs      store.DocumentStore
	adapter   *progress.Adapter
	catalog   *catalog.Catalog
	learnerID string
	rewards   *rewards.Service
	svc       *progression.Service

	closers []func() error
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("db"); v != "" {
		cfg.Store.Path = v
	}
	if v, _ := flags.GetString("learner"); v != "" {
		cfg.Learner.ID = v
	}
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.Documents.Backend = v
	}
	if v, _ := flags.GetString("backend-url"); v != "" {
		cfg.Documents.URL = v
	}
	if v, _ := flags.GetString("catalog"); v != "" {
		cfg.Course.Dir = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// resolveDBPath returns the SQLite file from config, or the XDG default.
func resolveDBPath(cfg config.Config) (string, error) {
	if cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

// openLedger opens only the local SQLite store, for commands that read
// the event ledger.
func openLedger(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// openEnv wires the store, the progress adapter and the progression
// service. When tui is set, logs go to a file so they do not draw over
// the terminal UI.
func openEnv(cmd *cobra.Command, tui bool) (_ *env, err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	dataDir := filepath.Dir(dbPath)

	logCfg := cfg.Log
	if tui && logCfg.File == "" {
		logCfg.File = config.DefaultLogFile(dataDir)
	}
	logger, closeLog, err := config.NewLogger(logCfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.closers = append(e.closers, closeLog)
	slog.SetDefault(logger)

	e.store, err = store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.closers = append(e.closers, e.store.Close)

	if cfg.Course.Dir != "" {
		e.catalog, err = catalog.Load(cfg.Course.Dir)
	} else {
		e.catalog, err = catalog.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}

	e.learnerID, err = cfg.ResolveLearnerID(dataDir)
	if err != nil {
		return nil, err
	}

	switch cfg.Documents.Backend {
	case store.BackendPostgres:
		e.docs, err = store.NewPostgresDocuments(ctx, cfg.Documents.URL, cfg.Documents.MaxConns, cfg.Documents.MinConns)
	default:
		e.docs, err = store.OpenDocuments(ctx, cfg.Documents.Backend, cfg.Documents.URL, e.store)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s progress store: %w", cfg.Documents.Backend, err)
	}
	if cfg.Documents.Backend != store.BackendSQLite {
		e.closers = append(e.closers, e.docs.Close)
	}

	// svc is built after the adapter, so reconciled accounts are merged
	// through this pointer once it is set.
	var svc *progression.Service
	e.adapter = progress.New(e.docs,
		progress.WithLogger(logger.With("component", "progress")),
		progress.WithRetryInterval(cfg.Documents.RetryInterval),
		progress.WithWriteTimeout(cfg.Documents.WriteTimeout),
		progress.WithReconcile(func(learnerID string, a progression.Account) {
			if svc != nil && learnerID == e.learnerID {
				svc.Merge(a)
			}
		}),
	)

	account, err := e.adapter.Load(ctx, e.learnerID)
	if err != nil && !errors.Is(err, progress.ErrLoadFailed) {
		return nil, err
	}
	if err != nil {
		logger.Warn("continuing with unsaved progress", "error", err)
	}

	e.rewards = rewards.NewService(e.store.EventRepo(), e.adapter, e.docs)
	svc = progression.NewService(progression.Session{LearnerID: e.learnerID}, e.catalog, account,
		progression.WithPolicy(cfg.Policy()),
		progression.WithPersister(e.adapter),
		progression.WithRewarder(e.rewards),
		progression.WithEventRecorder(e.store.EventRepo()),
		progression.WithLogger(logger.With("component", "progression")),
	)
	e.svc = svc
	return e, nil
}

// Close flushes queued progress and releases everything in reverse order.
func (e *env) Close() {
	if e.adapter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.adapter.Close(ctx); err != nil {
			e.logger.Warn("progress not fully saved", "pending", e.adapter.PendingCount(), "error", err)
		}
		cancel()
		e.adapter = nil
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
	e.closers = nil
}
