package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/iamportal/internal/alert"
	"github.com/shandysiswandi/iamportal/internal/deployment"
	"github.com/shandysiswandi/iamportal/internal/enrollment"
	"github.com/shandysiswandi/iamportal/internal/governance"
)

func (a *App) initModules() {
	relay, err := alert.New(alert.Dependency{
		Ctx:        a.ctx,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Translator: a.translator,
		Router:     a.router,
	})
	if err != nil {
		slog.Error("failed to init module alert", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.enrollment.enabled") {
		if _, err := enrollment.New(enrollment.Dependency{
			Ctx:        a.ctx,
			Config:     a.config,
			Backend:    a.backend,
			Notifier:   relay,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Translator: a.translator,
			Router:     a.router,
		}); err != nil {
			slog.Error("failed to init module enrollment", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.governance.enabled") {
		if err := governance.New(governance.Dependency{
			Config:      a.config,
			Backend:     a.backend,
			Router:      a.router,
			Authorizer:  a.authorizer,
			Idempotency: a.idemp,
			Notifier:    relay,
			Instrument:  a.ins,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module governance", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.deployment.enabled") {
		if err := deployment.New(deployment.Dependency{
			Config:      a.config,
			Backend:     a.backend,
			Router:      a.router,
			Authorizer:  a.authorizer,
			Idempotency: a.idemp,
			Notifier:    relay,
			Instrument:  a.ins,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module deployment", "error", err)
			os.Exit(1)
		}
	}
}
