package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type RefreshInput struct{}

// Refresh replaces the scannable code and clears the pin pad.
func (s *Usecase) Refresh(ctx context.Context, _ RefreshInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "Refresh")
	defer span.End()

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, err := s.collectingLocked(owner)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	sess.Pending = true
	epoch := sess.Epoch
	s.mu.Unlock()

	code, err := s.gateway.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.currentLocked(ctx, owner, epoch, "refresh")
	if !ok {
		return nil, errStale
	}
	sess.Pending = false
	s.touch(sess)

	if err != nil {
		slog.ErrorContext(ctx, "failed to refresh totp secret", "session_id", sess.ID, "error", err)
		s.alert(ctx, owner, event.AlertError, "mfa.totp.refreshError")
		return nil, goerror.NewNetwork(err)
	}

	sess.ScannableCode = code
	sess.Pin.Clear()
	s.alert(ctx, owner, event.AlertSuccess, "mfa.totp.refreshSuccess")

	return &StateOutput{SessionState: sess.Snapshot()}, nil
}
