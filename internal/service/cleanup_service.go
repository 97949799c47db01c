package service

import (
	"context"
	"log/slog"
	"time"
)

type expiredTokenPurger interface {
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// CleanupService periodically deletes refresh tokens that can no longer be used
type CleanupService struct {
	tokens   expiredTokenPurger
	interval time.Duration
	log      *slog.Logger
}

func NewCleanupService(tokens expiredTokenPurger, interval time.Duration, log *slog.Logger) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{
		tokens:   tokens,
		interval: interval,
		log:      log,
	}
}

// Start runs until ctx is cancelled, purging once immediately and then on every tick
func (w *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("refresh token cleanup started", "interval", w.interval.String())
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("refresh token cleanup stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce deletes expired rows and returns how many were removed
func (w *CleanupService) RunOnce(ctx context.Context) int64 {
	n, err := w.tokens.DeleteExpiredRefreshTokens(ctx, time.Now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("failed to purge expired refresh tokens", "error", err)
		}
		return 0
	}
	if n > 0 {
		w.log.Info("purged expired refresh tokens", "count", n)
	}
	return n
}
