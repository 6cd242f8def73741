package usecase

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
)

type GetConnectorInput struct {
	Category  string `validate:"required"`
	Connector string `validate:"required"`
}

func (s *Usecase) GetConnector(ctx context.Context, in GetConnectorInput) (*entity.Connector, error) {
	ctx, span := s.startSpan(ctx, "GetConnector")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.read(ctx, ConnectorRef{Category: in.Category, Connector: in.Connector})
}

type PropertyInput struct {
	Name  string `validate:"required"`
	Value string
}

type UpdateConnectorInput struct {
	Category   string          `validate:"required"`
	Connector  string          `validate:"required"`
	Properties []PropertyInput `validate:"required,min=1,dive"`
}

// UpdateConnector patches the given properties. Properties left out keep
// their current value on the identity server.
func (s *Usecase) UpdateConnector(ctx context.Context, in UpdateConnectorInput) error {
	ctx, span := s.startSpan(ctx, "UpdateConnector")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	names := lo.Map(in.Properties, func(p PropertyInput, _ int) string { return p.Name })
	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return goerror.NewInvalidInput(nil, "properties", "duplicate property "+dup[0])
	}

	props := lo.Map(in.Properties, func(p PropertyInput, _ int) entity.Property {
		return entity.Property{Name: p.Name, Value: p.Value}
	})

	return s.update(ctx, ConnectorRef{Category: in.Category, Connector: in.Connector}, props)
}
