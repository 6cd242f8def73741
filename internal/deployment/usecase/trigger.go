package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type TriggerInput struct {
	ID string `validate:"required"`
}

// Trigger asks the identity server to deploy one configuration now. Only
// one trigger per configuration runs at a time across all instances, and a
// successful trigger blocks another one for the cooldown.
func (s *Usecase) Trigger(ctx context.Context, in TriggerInput) error {
	ctx, span := s.startSpan(ctx, "Trigger")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authorizer.Authorize(ctx, ObjDeployment, ActTrigger)
	if err != nil {
		return err
	}

	var called, triggered bool
	err = s.idempotency.Exec(ctx, "deployment:trigger:"+in.ID, func(ctx context.Context) error {
		called = true
		if err := s.backend.Trigger(ctx, in.ID); err != nil {
			return err
		}
		triggered = true
		return nil
	}, idempotency.WithRetryOnFailure(), idempotency.WithLockDuration(s.lock), idempotency.WithStateTTL(s.cooldown))

	switch {
	case triggered:
		if err != nil {
			slog.WarnContext(ctx, "deployment triggered but cooldown not recorded", "id", in.ID, "error", err)
		}
		slog.InfoContext(ctx, "remote configuration deployment triggered", "id", in.ID)
		s.alert(ctx, clm.Owner(), event.AlertSuccess, "deployment.triggerSuccess")
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return errTriggerInFlight
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyFailed):
		return errTriggerCooldown
	case errors.Is(err, goerror.ErrNotFound):
		return errNotFound
	case !called:
		slog.ErrorContext(ctx, "failed to acquire deployment trigger lock", "id", in.ID, "error", err)
		return goerror.NewServer(err)
	default:
		slog.ErrorContext(ctx, "failed to trigger deployment", "id", in.ID, "error", err)
		s.alert(ctx, clm.Owner(), event.AlertError, "deployment.triggerError")
		return goerror.NewNetwork(err)
	}
}
