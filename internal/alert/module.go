// Package alert is the notification relay: modules raise transient toasts
// with Notify and every connected client of the owner receives them.
package alert

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/alert/inbound"
	"github.com/shandysiswandi/iamportal/internal/alert/outbound/mq"
	"github.com/shandysiswandi/iamportal/internal/alert/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/i18n"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Translator *i18n.Translator           `validate:"required"`
	// Router is nil for the terminal client, which subscribes directly.
	Router *router.Router
}

// New wires the relay and returns it so other modules can raise alerts and
// local clients can subscribe.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		UID:           dep.UID,
		Clock:         dep.Clock,
		Goroutine:     dep.Goroutine,
		Instrument:    dep.Instrument,
	})

	if dep.Router != nil {
		inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Translator)
	}
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return uc, nil
}
