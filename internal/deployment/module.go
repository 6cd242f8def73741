// Package deployment lists remote configuration repositories, reports
// their deployment status and triggers new deployments.
package deployment

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/deployment/inbound"
	"github.com/shandysiswandi/iamportal/internal/deployment/outbound/backend"
	"github.com/shandysiswandi/iamportal/internal/deployment/usecase"
	pkgbackend "github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
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

	uc := usecase.New(usecase.Dependency{
		RepoBackend:     backend.New(dep.Backend, dep.Config.GetString("modules.deployment.base_path"), dep.Instrument),
		Authorizer:      dep.Authorizer,
		Notifier:        dep.Notifier,
		Idempotency:     dep.Idempotency,
		Validator:       dep.Validator,
		Instrument:      dep.Instrument,
		TriggerLock:     dep.Config.GetSecond("modules.deployment.trigger_lock_seconds"),
		TriggerCooldown: dep.Config.GetSecond("modules.deployment.trigger_cooldown_seconds"),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
