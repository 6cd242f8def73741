// Package governance reads and updates identity-governance connectors,
// including the password expiry and password validation policies.
package governance

import (
	"context"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/inbound"
	"github.com/shandysiswandi/iamportal/internal/governance/outbound/backend"
	"github.com/shandysiswandi/iamportal/internal/governance/usecase"
	pkgbackend "github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

const (
	defaultCategory           = "UGFzc3dvcmQgUG9saWNpZXM"
	defaultExpiryConnector    = "cGFzc3dvcmRFeHBpcnk"
	defaultValidatorConnector = "cGFzc3dvcmRQb2xpY3k"
)

type notifier interface {
	Notify(ctx context.Context, in event.Alert)
}

type authorizer interface {
	Authorize(ctx context.Context, obj, act string) (*jwt.Claims, error)
}

type Dependency struct {
	Config      config.Config              `validate:"required"`
	Backend     *pkgbackend.Client         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Authorizer  authorizer                 `validate:"required"`
	Idempotency *idempotency.StateTracker  `validate:"required"`
	Notifier    notifier                   `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	category := lo.CoalesceOrEmpty(dep.Config.GetString("modules.governance.category"), defaultCategory)

	uc := usecase.New(usecase.Dependency{
		RepoBackend: backend.New(dep.Backend, dep.Config.GetString("modules.governance.base_path"), dep.Instrument),
		Authorizer:  dep.Authorizer,
		Notifier:    dep.Notifier,
		Idempotency: dep.Idempotency,
		Validator:   dep.Validator,
		Instrument:  dep.Instrument,
		PasswordExpiry: usecase.ConnectorRef{
			Category:  category,
			Connector: lo.CoalesceOrEmpty(dep.Config.GetString("modules.governance.password_expiry_connector"), defaultExpiryConnector),
		},
		PasswordValidation: usecase.ConnectorRef{
			Category:  category,
			Connector: lo.CoalesceOrEmpty(dep.Config.GetString("modules.governance.password_validation_connector"), defaultValidatorConnector),
		},
		UpdateWindow: dep.Config.GetSecond("modules.governance.update_window_seconds"),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
