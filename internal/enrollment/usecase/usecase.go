package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// DefaultSessionTTL applies when Dependency.SessionTTL is not set.
const DefaultSessionTTL = 15 * time.Minute

var (
	errAuthRequired = goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	errAlreadyOpen  = goerror.NewBusiness("enrollment wizard is already open", goerror.CodeConflict)
	errNotOpen      = goerror.NewBusiness("enrollment wizard is not open", goerror.CodeConflict)
	errPending      = goerror.NewBusiness("a request is already in progress", goerror.CodeConflict)
	errVerified     = goerror.NewBusiness("authenticator is already verified", goerror.CodeConflict)
	errStale        = goerror.NewBusiness("enrollment wizard was closed before the request finished", goerror.CodeConflict)
)

type repoGateway interface {
	Initialize(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	Validate(ctx context.Context, code string) (bool, error)
}

type notifier interface {
	Notify(ctx context.Context, in event.Alert)
}

// Usecase drives one TOTP enrollment wizard per owner.
type Usecase struct {
	gateway    repoGateway
	notifier   notifier
	validator  validator.Validator
	uuid       uid.StringID
	clock      clock.Clocker
	ins        instrument.Instrumentation
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*entity.Session
	epoch    *atomic.Uint64
}

type Dependency struct {
	RepoGateway repoGateway
	Notifier    notifier
	Validator   validator.Validator
	UUID        uid.StringID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
	SessionTTL  time.Duration
}

func New(dep Dependency) *Usecase {
	ttl := dep.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &Usecase{
		gateway:    dep.RepoGateway,
		notifier:   dep.Notifier,
		validator:  dep.Validator,
		uuid:       dep.UUID,
		clock:      dep.Clock,
		ins:        dep.Instrument,
		sessionTTL: ttl,
		sessions:   make(map[string]*entity.Session),
		epoch:      atomic.NewUint64(0),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("enrollment.usecase").Start(ctx, name)
}

// StateOutput is what every wizard operation returns.
type StateOutput struct {
	entity.SessionState
	// IsValid is only meaningful for Submit.
	IsValid bool
}

func (s *Usecase) owner(ctx context.Context) (string, error) {
	owner := jwt.GetAuth(ctx).Owner()
	if owner == "" {
		return "", errAuthRequired
	}
	return owner, nil
}

// collectingLocked returns the owner's session when it accepts a user
// action. s.mu must be held.
func (s *Usecase) collectingLocked(owner string) (*entity.Session, error) {
	sess := s.sessions[owner]
	switch {
	case sess == nil:
		return nil, errNotOpen
	case sess.Pending:
		return nil, errPending
	case !sess.Opened:
		return nil, errNotOpen
	case sess.Step == entity.StepDone:
		return nil, errVerified
	}
	return sess, nil
}

// currentLocked reports whether epoch still identifies the owner's live
// session. s.mu must be held.
func (s *Usecase) currentLocked(ctx context.Context, owner string, epoch uint64, op string) (*entity.Session, bool) {
	sess := s.sessions[owner]
	if sess == nil || sess.Epoch != epoch {
		slog.WarnContext(ctx, "dropping late gateway response", "operation", op, "epoch", epoch)
		return nil, false
	}
	return sess, true
}

func (s *Usecase) alert(ctx context.Context, owner string, sev event.AlertSeverity, key string) {
	s.notifier.Notify(ctx, event.Alert{
		Owner:    owner,
		Severity: sev,
		TitleKey: key + ".title",
		BodyKey:  key + ".body",
	})
}

func (s *Usecase) touch(sess *entity.Session) {
	sess.TouchedAt = s.clock.Now()
}
