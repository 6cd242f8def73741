package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
)

type CloseInput struct{}

// Close discards the wizard from any state. Responses still in flight for
// the discarded session are dropped when they arrive.
func (s *Usecase) Close(ctx context.Context, _ CloseInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "Close")
	defer span.End()

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess, ok := s.sessions[owner]
	delete(s.sessions, owner)
	s.mu.Unlock()

	if ok {
		slog.InfoContext(ctx, "totp enrollment closed", "session_id", sess.ID, "step", sess.Step.String())
	}

	return &StateOutput{SessionState: entity.SessionState{Phase: entity.PhaseClosed}}, nil
}
