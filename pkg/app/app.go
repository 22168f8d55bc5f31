// Package app wires the store, services and HTTP router from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/config"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink-engine/pkg/core/slug"
)

type App struct {
	Repo    *sqlite.SQLiteRepository
	Links   *services.LinkService
	Ads     *services.AdService
	Sweeper *services.Sweeper
	Handler http.Handler
}

// New opens the store (running migrations) and builds everything on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, err := sqlite.NewSQLiteRepository(ctx, cfg.DatabaseURL, sqlite.Options{
		UseWALMode: cfg.Storage.UseWALMode,
		EnsureACID: cfg.Storage.EnsureACID,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	links := services.NewLinkService(repo, repo, slug.New(), services.LinkConfig{
		Style:             slug.ParseStyle(cfg.Slug.Style),
		Length:            cfg.Slug.Length,
		TryLonger:         cfg.Slug.TryLonger,
		AllowCapitals:     cfg.Slug.AllowCapitals,
		PublicExpiryDelay: cfg.Public.ExpiryDelay,
	}, logger)
	ads := services.NewAdService(repo, nil)

	return &App{
		Repo:    repo,
		Links:   links,
		Ads:     ads,
		Sweeper: services.NewSweeper(repo, cfg.Storage.CleanupInterval, logger),
		Handler: handler.NewRouter(cfg, links, ads, logger),
	}, nil
}

func (a *App) Close() error {
	return a.Repo.Close()
}

// NewLogger returns a text logger for local runs and a JSON logger otherwise.
func NewLogger(cfg *config.Config) *slog.Logger {
	if cfg.AppEnv == "local" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
