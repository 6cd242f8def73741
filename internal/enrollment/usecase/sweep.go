package usecase

import (
	"context"
	"log/slog"
	"time"
)

// Sweep evicts sessions idle for longer than the session TTL and returns
// how many were removed.
func (s *Usecase) Sweep(ctx context.Context) int {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for owner, sess := range s.sessions {
		if now.Sub(sess.TouchedAt) < s.sessionTTL {
			continue
		}
		delete(s.sessions, owner)
		n++
		slog.InfoContext(ctx, "evicted idle totp enrollment", "session_id", sess.ID)
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Usecase) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
