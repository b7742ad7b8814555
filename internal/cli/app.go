package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/MJE43/dodepa/internal/config"
	"github.com/MJE43/dodepa/internal/session"
	"github.com/MJE43/dodepa/internal/store"
)

// app is everything a command needs, opened from config and flags.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	backend store.Backend
	journal *store.SQLite
	session *session.Session
	out     *OutputFormatter
}

func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}
	a.openBackend()

	sessCfg := session.Config{
		Backend: a.backend,
		Source:  cfg.Source(),
		Rules:   &cfg.Rules,
		Key:     cfg.SaveKey,
		Logger:  logger,
	}
	if a.journal != nil {
		sessCfg.Recorder = a.journal
	}
	a.session, err = session.New(cmd.Context(), sessCfg)
	if err != nil {
		return nil, multierr.Append(WrapExitError(ExitCommandError, "failed to start session", err), a.Close())
	}
	return a, nil
}

// openBackend falls back to an in-memory store when the configured one
// cannot be opened, so the game stays playable.
func (a *app) openBackend() {
	switch a.cfg.BackendName() {
	case config.BackendMemory:
		a.backend = store.NewMemory()
	case config.BackendKeyring:
		a.backend = store.NewKeyring(a.cfg.KeyringService, a.cfg.KeyringFallbackPath())
	case config.BackendSQLite:
		if err := os.MkdirAll(a.cfg.DataDir, 0o755); err != nil {
			a.logger.Warn("cannot create data dir, progress will not be saved", "dir", a.cfg.DataDir, "error", err)
			a.backend = store.NewMemory()
			return
		}
		db, err := store.NewSQLite(a.cfg.DBPath())
		if err != nil {
			a.logger.Warn("cannot open database, progress will not be saved", "path", a.cfg.DBPath(), "error", err)
			a.backend = store.NewMemory()
			return
		}
		a.logger.Debug("database opened", "path", a.cfg.DBPath())
		a.backend, a.journal = db, db
	}
}

func (a *app) Close() error {
	if a.backend == nil {
		return nil
	}
	return a.backend.Close()
}

// withApp opens the app, runs fn and closes the app again.
func withApp(opts *RootOptions, cmd *cobra.Command, fn func(a *app) error) (err error) {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close storage: %w", cerr))
		}
	}()
	return fn(a)
}

func (a *app) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
