package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type GetStatusInput struct {
	ID string `validate:"required"`
	// FailedOnly keeps only the failed revisions, newest first.
	FailedOnly bool
}

// GetStatus returns the deployment status of one configuration. A backend
// failure also raises an Error alert.
func (s *Usecase) GetStatus(ctx context.Context, in GetStatusInput) (*entity.Status, error) {
	ctx, span := s.startSpan(ctx, "GetStatus")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authorizer.Authorize(ctx, ObjDeployment, ActRead)
	if err != nil {
		return nil, err
	}

	st, err := s.backend.GetStatus(ctx, in.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get deployment status", "id", in.ID, "error", err)
		s.alert(ctx, clm.Owner(), event.AlertError, "deployment.statusError")
		return nil, goerror.NewNetwork(err)
	}

	if in.FailedOnly {
		st.Revisions = st.Failed()
	}

	return st, nil
}
