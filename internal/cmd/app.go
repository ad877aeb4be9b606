package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/runger/glint/internal/apps"
	"github.com/runger/glint/internal/cliphist"
	"github.com/runger/glint/internal/config"
	"github.com/runger/glint/internal/frecency"
	"github.com/runger/glint/internal/log"
	"github.com/runger/glint/internal/picker"
	"github.com/runger/glint/internal/storage"
	"github.com/runger/glint/internal/wallpaper"
)

// app is the composed object graph behind every CLI command: config,
// logger, persistence, the frecency store, and the provider set wired
// into one coordinator.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *storage.SQLiteStore
	frec   *frecency.Store
	coord  *picker.Coordinator

	wallpapers *picker.WallpaperProvider

	logFile *os.File
}

// buildApp loads config and wires the full provider graph. logToFile
// redirects logging away from stderr, which the interactive session
// needs because the terminal belongs to the picker while it runs.
func buildApp(ctx context.Context, logToFile bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	a.logger, a.logFile, err = newLogger(cfg, logToFile)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultPaths().StateDB()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		a.Close()
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	a.db, err = storage.NewSQLiteStore(dbPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open state database: %w", err)
	}

	a.frec = frecency.New(ctx, a.db, a.logger, frecency.Options{
		Config: frecency.Config{
			MaxItems:           cfg.Frecency.MaxItems,
			DecayFactor:        cfg.Frecency.DecayFactor,
			FrequencyWeight:    cfg.Frecency.FrequencyWeight,
			MinAccessThreshold: cfg.Frecency.MinAccessThreshold,
		},
	})

	a.coord = picker.NewCoordinator(a.logger)

	registry := apps.NewRegistry(a.logger, cfg.Apps.ExtraDirs)
	a.coord.AddProvider(ctx, picker.NewAppProvider(ctx, registry, a.frec, a.logger, cfg.Apps.MaxResults))

	store := wallpaper.NewStore(wallpaper.Options{
		Directory:     cfg.Wallpaper.Directory,
		MaxDepth:      cfg.Wallpaper.MaxDepth,
		IncludeHidden: cfg.Wallpaper.IncludeHidden,
		ApplyCommand:  cfg.Wallpaper.ApplyCommand,
		ThemeCommand:  cfg.Wallpaper.ThemeCommand,
	}, a.logger)
	a.wallpapers = picker.NewWallpaperProvider(store, a.frec, a.logger, cfg.Wallpaper.MaxResults)
	a.coord.AddProvider(ctx, a.wallpapers)

	if cfg.Clipboard.Enabled {
		tool := cliphist.NewClient(a.logger)
		if tool.Available() {
			a.coord.AddProvider(ctx, picker.NewClipboardProvider(ctx, tool, a.frec, a.logger, cfg.Clipboard.MaxResults))
		} else {
			a.logger.Info("clipboard provider disabled, cliphist or wl-copy not on PATH")
		}
	}

	if cfg.Picker.InitialProvider != "" {
		if !a.coord.SetActiveProvider(ctx, cfg.Picker.InitialProvider) {
			a.logger.Warn("unknown initial provider", "command", cfg.Picker.InitialProvider)
		}
	}

	return a, nil
}

// debounce returns the configured keystroke debounce window.
func (a *app) debounce() time.Duration {
	return time.Duration(a.cfg.Picker.DebounceMs) * time.Millisecond
}

// Close tears the graph down in reverse dependency order, flushing any
// pending frecency save before the database closes.
func (a *app) Close() {
	if a.coord != nil {
		a.coord.Dispose()
	}
	if a.frec != nil {
		a.frec.Dispose()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing state database", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFromFile(configFile)
	}
	return config.Load()
}

// newLogger builds the logger per config. When logToFile is set and no
// explicit log file is configured, it falls back to the default log
// path instead of stderr.
func newLogger(cfg *config.Config, logToFile bool) (*slog.Logger, *os.File, error) {
	path := cfg.Log.File
	if path == "" && logToFile {
		path = config.DefaultPaths().LogFile()
	}

	lcfg := &log.Config{Level: log.ParseLevel(cfg.Log.Level)}
	if os.Getenv("GLINT_DEBUG") == "1" {
		lcfg.Debug = true
	}

	if path == "" {
		return log.New(lcfg), nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	lcfg.Output = f
	return log.New(lcfg), f, nil
}
