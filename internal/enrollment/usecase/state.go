package usecase

import (
	"context"
)

type StateInput struct{}

// State returns a snapshot of the wizard. A missing wizard is reported as closed.
func (s *Usecase) State(ctx context.Context, _ StateInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "State")
	defer span.End()

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &StateOutput{SessionState: s.sessions[owner].Snapshot()}, nil
}
