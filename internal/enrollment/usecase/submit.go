package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type SubmitInput struct {
	// Code optionally fills the pin pad before submitting, as a paste does.
	Code string `validate:"omitempty,otpcode"`
}

// Submit verifies the code held in the pin pad. A rejected code is not an
// error: the output carries IsValid=false and LastError is set.
func (s *Usecase) Submit(ctx context.Context, in SubmitInput) (*StateOutput, error) {
	ctx, span := s.startSpan(ctx, "Submit")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

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
	if in.Code != "" {
		if err := sess.Pin.Fill(in.Code); err != nil {
			s.mu.Unlock()
			return nil, goerror.NewInvalidInput(nil, "code", err.Error())
		}
	}
	code, err := sess.Pin.Code()
	if err != nil {
		s.mu.Unlock()
		return nil, goerror.NewInvalidInput(nil, "code", err.Error())
	}
	sess.Step = entity.StepVerifying
	sess.Pending = true
	epoch := sess.Epoch
	s.mu.Unlock()

	valid, err := s.gateway.Validate(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.currentLocked(ctx, owner, epoch, "validate")
	if !ok {
		return nil, errStale
	}
	sess.Pending = false
	s.touch(sess)

	if err != nil {
		sess.Step = entity.StepAwaitingCode
		slog.ErrorContext(ctx, "failed to validate totp code", "session_id", sess.ID, "error", err)
		s.alert(ctx, owner, event.AlertError, "mfa.totp.verifyError")
		return nil, goerror.NewNetwork(err)
	}

	if !valid {
		sess.Step = entity.StepAwaitingCode
		sess.LastError = entity.LastErrorInvalidCode
		sess.Pin.Clear()
		slog.InfoContext(ctx, "totp code rejected", "session_id", sess.ID)
		return &StateOutput{SessionState: sess.Snapshot()}, nil
	}

	sess.Step = entity.StepDone
	sess.LastError = ""
	slog.InfoContext(ctx, "totp enrollment verified", "session_id", sess.ID)
	s.alert(ctx, owner, event.AlertSuccess, "mfa.totp.verifySuccess")

	return &StateOutput{SessionState: sess.Snapshot(), IsValid: true}, nil
}
