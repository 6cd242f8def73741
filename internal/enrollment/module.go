// Package enrollment is the TOTP enrollment wizard: a per-user state
// machine that fetches a scannable secret, collects a six-digit code and
// verifies it against the identity server.
package enrollment

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/enrollment/inbound"
	"github.com/shandysiswandi/iamportal/internal/enrollment/outbound/gateway"
	"github.com/shandysiswandi/iamportal/internal/enrollment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/i18n"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type notifier interface {
	Notify(ctx context.Context, in event.Alert)
}

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Backend    *backend.Client            `validate:"required"`
	Notifier   notifier                   `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Translator *i18n.Translator           `validate:"required"`
	// Router is nil for the terminal client.
	Router *router.Router
}

// New wires the wizard, registers its endpoints when a router is given and
// starts the idle-session sweeper.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoGateway: gateway.New(dep.Backend, dep.Config.GetString("modules.enrollment.totp_path"), dep.Instrument),
		Notifier:    dep.Notifier,
		Validator:   dep.Validator,
		UUID:        dep.UUID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
		SessionTTL:  dep.Config.GetMinute("modules.enrollment.session_ttl_minutes"),
	})

	if dep.Router != nil {
		inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Translator)
	}

	interval := dep.Config.GetSecond("modules.enrollment.sweep_interval_seconds")
	if !dep.Goroutine.Go(dep.Ctx, "enrollment.sweeper", func(ctx context.Context) error {
		return uc.RunSweeper(ctx, interval)
	}) {
		slog.WarnContext(dep.Ctx, "enrollment sweeper not started, idle sessions will not expire")
	}

	return uc, nil
}
