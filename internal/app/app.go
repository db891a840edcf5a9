// Package app is the composition root shared by the binaries: it turns a
// config.Config into a store, a content source and an assessment engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ashureev/skillpath/internal/assessment"
	"github.com/ashureev/skillpath/internal/config"
	"github.com/ashureev/skillpath/internal/content"
	"github.com/ashureev/skillpath/internal/store"
	"github.com/ashureev/skillpath/internal/textgen"
)

// App holds the wired dependencies.
type App struct {
	Store   store.Store
	Content content.Source
	Engine  *assessment.Engine

	watcher *content.Watcher
	closers []func() error
}

// New wires an App from cfg. Close must be called to release resources.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	st, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	src, watcher, err := openContent(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Content = src
	if watcher != nil {
		a.watcher = watcher
		a.closers = append(a.closers, watcher.Close)
	}

	rephraser, err := NewRephraser(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Engine = assessment.New(st, src, assessment.Config{
		Rephraser:           rephraser,
		QuestionsPerSession: cfg.QuestionsPerSession,
		StrictInvariants:    cfg.StrictInvariants,
		SessionTTL:          cfg.SessionTTL,
		Logger:              logger,
	})
	return a, nil
}

// Run starts background work (content hot reload) until ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.watcher != nil {
		go a.watcher.Run(ctx)
	}
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the configured session backend.
func OpenStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return store.NewMemory(), nil
	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		st, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	case config.StoreRedis:
		st, err := store.NewRedis(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// openContent returns the embedded catalog, a directory catalog, or a
// watched directory catalog.
func openContent(cfg *config.Config) (content.Source, *content.Watcher, error) {
	switch {
	case cfg.ContentDir == "":
		c, err := content.Default()
		if err != nil {
			return nil, nil, fmt.Errorf("load embedded content: %w", err)
		}
		return content.NewStatic(c), nil, nil
	case cfg.ContentWatch:
		w, err := content.NewWatcher(cfg.ContentDir)
		if err != nil {
			return nil, nil, err
		}
		return w, w, nil
	default:
		c, err := content.LoadDir(cfg.ContentDir)
		if err != nil {
			return nil, nil, fmt.Errorf("load content dir: %w", err)
		}
		return content.NewStatic(c), nil, nil
	}
}

// NewRephraser builds the text generator chain. Without a provider the
// service answers with static fallbacks only.
func NewRephraser(cfg *config.Config, logger *slog.Logger) (textgen.Rephraser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var gen textgen.Generator
	if cfg.TextGenEnabled() {
		g, err := textgen.NewGemini(textgen.GeminiConfig{
			APIKey:  cfg.TextGen.APIKey,
			Model:   cfg.TextGen.Model,
			BaseURL: cfg.TextGen.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		gen = g
		logger.Info("Text generation enabled", "provider", cfg.TextGen.Provider, "model", cfg.TextGen.Model)
	}
	return textgen.NewService(gen,
		textgen.WithTimeout(cfg.TextGen.Timeout),
		textgen.WithLogger(logger),
	), nil
}
