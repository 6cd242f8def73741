package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type OpenInput struct{}

// Open starts the wizard and fetches the first scannable code. Only a
// closed wizard can be opened.
func (s *Usecase) Open(ctx context.Context, _ OpenInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "Open")
	defer span.End()

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if _, ok := s.sessions[owner]; ok {
		s.mu.Unlock()
		return nil, errAlreadyOpen
	}
	now := s.clock.Now()
	sess := &entity.Session{
		ID:        s.uuid.Generate(),
		Owner:     owner,
		Epoch:     s.epoch.Inc(),
		Pending:   true,
		OpenedAt:  now,
		TouchedAt: now,
	}
	s.sessions[owner] = sess
	epoch := sess.Epoch
	s.mu.Unlock()

	code, err := s.gateway.Initialize(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.currentLocked(ctx, owner, epoch, "initialize")
	if !ok {
		return nil, errStale
	}

	if err != nil {
		delete(s.sessions, owner)
		slog.ErrorContext(ctx, "failed to initialize totp enrollment", "session_id", sess.ID, "error", err)
		s.alert(ctx, owner, event.AlertError, "mfa.totp.initError")
		return nil, goerror.NewNetwork(err)
	}

	sess.ScannableCode = code
	sess.Opened = true
	sess.Pending = false
	s.touch(sess)

	slog.InfoContext(ctx, "totp enrollment opened", "session_id", sess.ID)

	return &StateOutput{SessionState: sess.Snapshot()}, nil
}
