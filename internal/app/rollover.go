package app

import (
	"context"
	"time"
)

// WatchRollover polls the clock every interval and moves the session to the
// new day when the date changes. It returns when ctx is done.
func (s *GameService) WatchRollover(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CheckRollover(ctx); err != nil {
				s.logger.ErrorContext(ctx, "day rollover failed", "error", err)
			}
		}
	}
}
