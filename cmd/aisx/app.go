package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Zuo-Peng/ai-session-export/internal/cache"
	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
	"github.com/Zuo-Peng/ai-session-export/internal/config"
	"github.com/Zuo-Peng/ai-session-export/internal/scan"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	input   string
	noCache bool
	verbose bool
}

// app holds what every command needs after flags and config are merged.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *cache.DB // nil when disabled or unavailable
}

func newApp(g *globalFlags) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.input != "" {
		cfg.Input = g.input
	}
	if g.noCache {
		cfg.Cache = false
	}

	level := cfg.Level()
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{cfg: cfg, logger: logger}
	if cfg.Cache {
		db, err := cache.Open(cfg.CachePath)
		if err != nil {
			logger.Warn("catalog cache disabled", "path", cfg.CachePath, "err", err)
		} else {
			a.cache = db
		}
	}
	return a, nil
}

func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

func (a *app) discover() ([]catalog.Entry, error) {
	opts := catalog.Options{Source: scan.FS{}, Logger: a.logger}
	if a.cache != nil {
		opts.Cache = a.cache
	}
	return catalog.Discover(a.cfg.Input, opts)
}

// baseDir is the directory section labels are made relative to.
func (a *app) baseDir() string {
	info, err := os.Stat(a.cfg.Input)
	if err == nil && !info.IsDir() {
		return filepath.Dir(a.cfg.Input)
	}
	return a.cfg.Input
}
