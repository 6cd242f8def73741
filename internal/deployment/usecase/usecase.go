package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
)

// Casbin object and actions guarded by this module.
const (
	ObjDeployment = "deployment"
	ActRead       = "read"
	ActTrigger    = "trigger"
)

const (
	DefaultTriggerLock     = 2 * time.Minute
	DefaultTriggerCooldown = 10 * time.Second
)

var (
	errNotFound        = goerror.NewBusiness("Remote configuration not found", goerror.CodeNotFound)
	errTriggerInFlight = goerror.NewBusiness("A deployment for this configuration is already running", goerror.CodeConflict)
	errTriggerCooldown = goerror.NewBusiness("This configuration was just deployed, please wait before triggering again", goerror.CodeConflict)
)

type repoBackend interface {
	ListConfigs(ctx context.Context) ([]entity.RemoteConfig, error)
	GetStatus(ctx context.Context, id string) (*entity.Status, error)
	Trigger(ctx context.Context, id string) error
}

type authorizer interface {
	Authorize(ctx context.Context, obj, act string) (*jwt.Claims, error)
}

type notifier interface {
	Notify(ctx context.Context, in event.Alert)
}

type idempotent interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

type Usecase struct {
	backend     repoBackend
	authorizer  authorizer
	notifier    notifier
	idempotency idempotent
	validator   validator.Validator
	ins         instrument.Instrumentation
	lock        time.Duration
	cooldown    time.Duration
}

type Dependency struct {
	RepoBackend repoBackend
	Authorizer  authorizer
	Notifier    notifier
	Idempotency idempotent
	Validator   validator.Validator
	Instrument  instrument.Instrumentation
	// TriggerLock bounds how long a crashed trigger keeps the lock.
	TriggerLock time.Duration
	// TriggerCooldown rejects another trigger of the same configuration.
	TriggerCooldown time.Duration
}

func New(dep Dependency) *Usecase {
	lock := dep.TriggerLock
	if lock <= 0 {
		lock = DefaultTriggerLock
	}
	cooldown := dep.TriggerCooldown
	if cooldown <= 0 {
		cooldown = DefaultTriggerCooldown
	}

	return &Usecase{
		backend:     dep.RepoBackend,
		authorizer:  dep.Authorizer,
		notifier:    dep.Notifier,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		ins:         dep.Instrument,
		lock:        lock,
		cooldown:    cooldown,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("deployment.usecase").Start(ctx, name)
}

func (s *Usecase) alert(ctx context.Context, owner string, sev event.AlertSeverity, key string) {
	s.notifier.Notify(ctx, event.Alert{
		Owner:    owner,
		Severity: sev,
		TitleKey: key + ".title",
		BodyKey:  key + ".body",
	})
}
