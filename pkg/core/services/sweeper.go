package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wadjakorntonsri/shortlink-engine/pkg/ports"
)

// Sweeper periodically removes expired links and compacts the store.
type Sweeper struct {
	repo     ports.MaintenanceRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(repo ports.MaintenanceRepository, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{repo: repo, interval: interval, logger: logger}
}

// Run sweeps once right away and then on every tick until ctx is done.
// A failed sweep stops the loop; the store is not safe to keep serving.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.RunOnce(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce performs a single sweep and returns the number of links removed.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := s.repo.Cleanup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return deleted, nil
		}
		s.logger.ErrorContext(ctx, "cleanup failed", "error", err)
		return deleted, fmt.Errorf("cleanup: %w", err)
	}
	s.logger.InfoContext(ctx, "cleanup finished",
		"deleted", deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return deleted, nil
}
