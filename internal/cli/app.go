package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DataDaddy212/doney-mirror/internal/config"
	"github.com/DataDaddy212/doney-mirror/internal/metrics"
	"github.com/DataDaddy212/doney-mirror/internal/persist"
	"github.com/DataDaddy212/doney-mirror/internal/store"
	"github.com/DataDaddy212/doney-mirror/internal/tree"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// flushTimeout bounds the final save on exit.
const flushTimeout = 5 * time.Second

// app wires the store, repository, saver and workspace for one command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     *OutputFormatter
	store   *store.Store
	repo    *persist.Repository
	saver   *persist.Saver
	metrics *metrics.Recorder
	ws      *workspace.Workspace
}

// loadConfig reads the config file and environment, then applies flag
// overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Key != "" {
		cfg.StorageKey = opts.Key
	}
	return cfg, nil
}

// newLogger builds the text logger on w; --verbose enables DEBUG.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openApp opens the database and loads the stored sequence.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(opts, cmd.ErrOrStderr())

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	m := metrics.New()
	repo := persist.NewRepository(st, cfg.StorageKey,
		persist.WithLogger(logger),
		persist.WithMetrics(m))

	nodes, err := repo.Load(commandContext(cmd))
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}
	logger.Debug("snapshot ready", "key", cfg.StorageKey, "nodes", len(nodes))

	saver := persist.NewSaver(repo, cfg.Debounce.Std(), logger)
	ws := workspace.New(tree.NewEngine(), nodes,
		workspace.WithScheduler(saver),
		workspace.WithLogger(logger),
		workspace.WithMetrics(m))

	return &app{
		cfg:     cfg,
		logger:  logger,
		out:     newFormatter(opts, cmd),
		store:   st,
		repo:    repo,
		saver:   saver,
		metrics: m,
		ws:      ws,
	}, nil
}

// run starts the workspace, calls fn, then stops the workspace, writes any
// pending snapshot and closes the database.
//
// Cancelling ctx only reaches fn. The workspace keeps applying requests until
// fn has returned, so work fn is still draining (in-flight HTTP requests
// during shutdown) is applied and saved rather than refused.
func (a *app) run(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.ws.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		defer a.ws.Stop()
		return fn(gctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		err = nil
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if ferr := a.saver.Close(flushCtx); ferr != nil && err == nil {
		err = WrapExitError(ExitCommandError, "failed to save", ferr)
	}
	if cerr := a.store.Close(); cerr != nil {
		a.logger.Error("error closing database", "error", cerr)
	}
	return err
}

// close releases the database without running the workspace.
func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// withApp opens the app and runs fn against its workspace.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	return a.run(commandContext(cmd), func(ctx context.Context) error {
		return fn(ctx, a)
	})
}

// commandContext returns the command's context, or Background when run
// outside Execute (tests that call RunE directly).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// rejected turns a rejecting outcome into an ExitError.
func rejected(op, id string, o tree.Outcome) error {
	err := o.Err(op, id)
	if err == nil {
		return nil
	}
	return WrapExitError(ExitFailure, "rejected", err)
}
