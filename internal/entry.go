// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/muse/internal/editor"
	"github.com/starford/muse/internal/mcpserver"
	"github.com/starford/muse/internal/preview"
	"github.com/starford/muse/internal/render"
	"github.com/starford/muse/internal/samples"
	"github.com/starford/muse/internal/settings"
	"github.com/starford/muse/internal/sse"
	"github.com/starford/muse/internal/storage"
	"github.com/starford/muse/internal/theme"
	"github.com/starford/muse/internal/tui"
	"github.com/starford/muse/internal/watch"
)

var errConfigRequired = errors.New("config is required")

// Run starts the terminal editor together with the workspace watcher, the
// OS theme poller and, when enabled, the preview server.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := openLogFile(cfg.App.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(logFile, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("workspace", cfg.Workspace.Dir),
		slog.String("settings_path", cfg.Settings.DBPath()),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("preview", cfg.Preview.Enabled))

	fs, err := openWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Workspace.SampleFiles {
		if _, err := samples.Seed(fs, logger); err != nil {
			logger.Warn("sample files", slog.String("error", err.Error()))
		}
	}

	db, err := openSettings(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	themes := theme.New(db, theme.NewOSDetector(), logger)
	surface := editor.New(fs, cfg.Editor.AutosaveDelay, logger)
	defer surface.Stop()

	var broker *sse.Broker
	if cfg.Preview.Enabled {
		broker = sse.NewBroker(0, cfg.Preview.Heartbeat)
		defer broker.Close()
	}

	var ui *tui.App
	watcher := watch.New(fs, logger, func(ev watch.Event) {
		ui.FileEvent(ev)
		if broker != nil {
			broker.PublishFileEvent(ev)
		}
	})
	ui = tui.NewApp(tui.Options{
		Workspace:  fs,
		Surface:    surface,
		Theme:      themes,
		Renderer:   render.NewTerminal(),
		Logger:     logger,
		Version:    app.version,
		WrapWidth:  cfg.Editor.WrapWidth,
		OnRetarget: watcher.Retarget,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Background failures are logged; only the UI ends the session.
	g.Go(func() error {
		if err := watcher.Run(gCtx); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		themes.Watch(gCtx, cfg.Theme.PollInterval)
		return nil
	})
	if broker != nil {
		srv := newPreviewServer(cfg, fs, themes, broker, logger)
		g.Go(func() error {
			if err := srv.Run(gCtx); err != nil {
				logger.Warn("preview server stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		return ui.Run(gCtx)
	})
	g.Go(func() error {
		waitForSignal(gCtx, logger)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Editor closed")
	return nil
}

// RunServe runs the preview server alone until a signal arrives.
func RunServe(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(app.stderr, cfg.App.LogLevel)

	fs, err := openWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	db, err := openSettings(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	themes := theme.New(db, theme.NewOSDetector(), logger)
	broker := sse.NewBroker(0, cfg.Preview.Heartbeat)
	defer broker.Close()
	watcher := watch.New(fs, logger, broker.PublishFileEvent)
	srv := newPreviewServer(cfg, fs, themes, broker, logger)

	logger.Info("Server starting...",
		slog.String("http_address", cfg.Preview.Address()),
		slog.String("workspace", fs.CurrentDirectory()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return watcher.Run(gCtx) })
	g.Go(func() error {
		themes.Watch(gCtx, cfg.Theme.PollInterval)
		return nil
	})
	g.Go(func() error { return srv.Run(gCtx) })
	g.Go(func() error {
		waitForSignal(gCtx, logger)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the workspace over MCP on stdin/stdout.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(app.stderr, cfg.App.LogLevel)

	fs, err := openWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("MCP server starting", slog.String("workspace", fs.CurrentDirectory()))
	if err := mcpserver.New(fs, app.version, logger).ServeStdio(); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func openWorkspace(cfg *Config, logger *slog.Logger) (*storage.FS, error) {
	if err := os.MkdirAll(cfg.Workspace.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Workspace.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	logger.Debug("workspace ready", slog.String("dir", fs.CurrentDirectory()))
	return fs, nil
}

func openSettings(cfg *Config) (*settings.DB, error) {
	path := cfg.Settings.DBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	db, err := settings.Open(path)
	if err != nil {
		return nil, fmt.Errorf("init settings: %w", err)
	}
	return db, nil
}

func newPreviewServer(cfg *Config, fs *storage.FS, themes *theme.Store, broker *sse.Broker, logger *slog.Logger) *preview.Server {
	router := preview.NewRouter(fs, preview.Options{
		Token:  cfg.Preview.Token,
		Theme:  func() string { return string(themes.Resolved()) },
		Events: broker,
		Logger: logger,
	})
	return preview.NewServer(cfg.Preview.Address(), router, logger, broker.Close)
}

func waitForSignal(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}
}
