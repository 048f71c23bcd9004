// Package cli implements the intake-workstation REPL. All record access goes
// through the sync engine so the operator can keep working with or without
// network.
package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/healthfair/clinicsync/internal/client/client"
	"github.com/healthfair/clinicsync/internal/client/config"
	"github.com/healthfair/clinicsync/internal/client/connectivity"
	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/client/status"
	syncengine "github.com/healthfair/clinicsync/internal/client/sync"
	"github.com/healthfair/clinicsync/internal/filex"
	"github.com/healthfair/clinicsync/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	engine  *syncengine.Engine
	remote  client.Client
	monitor connectivity.Monitor
	probe   *connectivity.ProbeMonitor
	logger  logging.Logger
	reader  *bufio.Reader

	unsubscribe func()
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	dsn := c.DatabaseDSN
	if dsn != ":memory:" && dsn == filepath.Base(dsn) {
		// Bare file names go into a data subdirectory next to the binary.
		dir, err := filex.EnsureSubDir("data")
		if err != nil {
			return nil, err
		}
		dsn = filepath.Join(dir, dsn)
	}

	repos, err := client.InitDatabase(ctx, dsn, logger)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL)
	if err != nil {
		_ = repos.DB.Close()
		return nil, err
	}

	monitor := connectivity.NewProbeMonitor(apiClient, c.OnlineCheckInterval, logger)
	broadcaster := status.NewBroadcaster(logger)
	engine := syncengine.NewEngine(repos, apiClient, monitor, broadcaster, logger)

	app := &App{
		config:  c,
		engine:  engine,
		remote:  apiClient,
		monitor: monitor,
		probe:   monitor,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
	}

	app.unsubscribe = broadcaster.Subscribe(func(st models.SyncStatus) {
		printlnFn("[sync] " + string(st))
	})

	return app, nil
}

// Run starts the connectivity probe, the periodic background sync, and the
// REPL. It returns when the operator exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.probe != nil {
		a.probe.Start(ctx)
		defer a.probe.Stop()
	}

	go a.startPeriodicSync(ctx, a.config.SyncInterval)

	a.Root(ctx)

	a.unsubscribe()
	_ = a.engine.Close()
}

func (a *App) startPeriodicSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.engine.SyncAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}
