package core

// scheduler.go reloads both datasets periodically so edits to the source files
// are picked up without a restart. A failed reload keeps the previous snapshot.

import (
	"context"
	"log/slog"
	"time"
)

// StartReloadScheduler reloads the datasets every interval until ctx is cancelled.
// The initial load is the caller's job; the first reload happens after one interval.
func (s *Service) StartReloadScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("reload scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Load(ctx); err != nil {
				slog.Error("scheduled reload failed", "error", err)
			}
		}
	}
}
