package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
)

type ListConfigsInput struct {
	EnabledOnly bool
	// Type filters by repository manager type, case-insensitive.
	Type string `validate:"omitempty,max=64"`
}

func (s *Usecase) ListConfigs(ctx context.Context, in ListConfigsInput) ([]entity.RemoteConfig, error) {
	ctx, span := s.startSpan(ctx, "ListConfigs")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if _, err := s.authorizer.Authorize(ctx, ObjDeployment, ActRead); err != nil {
		return nil, err
	}

	configs, err := s.backend.ListConfigs(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list remote configurations", "error", err)
		return nil, goerror.NewNetwork(err)
	}

	return lo.Filter(configs, func(c entity.RemoteConfig, _ int) bool {
		if in.EnabledOnly && !c.Enabled {
			return false
		}
		return in.Type == "" || strings.EqualFold(c.RepositoryManagerType, in.Type)
	}), nil
}
