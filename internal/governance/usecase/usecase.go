package usecase

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/entity"
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
	ObjGovernance = "governance"
	ActRead       = "read"
	ActWrite      = "write"
)

// DefaultUpdateWindow is how long an identical update is rejected after it
// was applied.
const DefaultUpdateWindow = 5 * time.Second

var (
	errNotFound        = goerror.NewBusiness("Connector not found", goerror.CodeNotFound)
	errUpdateInFlight  = goerror.NewBusiness("An update for this connector is already in progress", goerror.CodeConflict)
	errUpdateDuplicate = goerror.NewBusiness("The same update was just applied", goerror.CodeConflict)
)

type repoBackend interface {
	GetConnector(ctx context.Context, category, connector string) (*entity.Connector, error)
	UpdateConnector(ctx context.Context, category, connector string, props []entity.Property) error
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

// ConnectorRef addresses one connector on the identity server.
type ConnectorRef struct {
	Category  string
	Connector string
}

type Usecase struct {
	backend      repoBackend
	authorizer   authorizer
	notifier     notifier
	idempotency  idempotent
	validator    validator.Validator
	ins          instrument.Instrumentation
	expiry       ConnectorRef
	policy       ConnectorRef
	updateWindow time.Duration
}

type Dependency struct {
	RepoBackend        repoBackend
	Authorizer         authorizer
	Notifier           notifier
	Idempotency        idempotent
	Validator          validator.Validator
	Instrument         instrument.Instrumentation
	PasswordExpiry     ConnectorRef
	PasswordValidation ConnectorRef
	UpdateWindow       time.Duration
}

func New(dep Dependency) *Usecase {
	window := dep.UpdateWindow
	if window <= 0 {
		window = DefaultUpdateWindow
	}

	return &Usecase{
		backend:      dep.RepoBackend,
		authorizer:   dep.Authorizer,
		notifier:     dep.Notifier,
		idempotency:  dep.Idempotency,
		validator:    dep.Validator,
		ins:          dep.Instrument,
		expiry:       dep.PasswordExpiry,
		policy:       dep.PasswordValidation,
		updateWindow: window,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("governance.usecase").Start(ctx, name)
}

func (s *Usecase) read(ctx context.Context, ref ConnectorRef) (*entity.Connector, error) {
	if _, err := s.authorizer.Authorize(ctx, ObjGovernance, ActRead); err != nil {
		return nil, err
	}

	conn, err := s.backend.GetConnector(ctx, ref.Category, ref.Connector)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get governance connector",
			"category", ref.Category, "connector", ref.Connector, "error", err)
		return nil, goerror.NewNetwork(err)
	}

	return conn, nil
}

// update applies props once per identical payload within the update window.
func (s *Usecase) update(ctx context.Context, ref ConnectorRef, props []entity.Property) error {
	clm, err := s.authorizer.Authorize(ctx, ObjGovernance, ActWrite)
	if err != nil {
		return err
	}

	var called, applied bool
	err = s.idempotency.Exec(ctx, updateKey(clm.Subject, ref, props), func(ctx context.Context) error {
		called = true
		if err := s.backend.UpdateConnector(ctx, ref.Category, ref.Connector, props); err != nil {
			return err
		}
		applied = true
		return nil
	}, idempotency.WithRetryOnFailure(), idempotency.WithStateTTL(s.updateWindow))

	switch {
	case applied:
		if err != nil {
			slog.WarnContext(ctx, "connector updated but idempotency state not recorded",
				"connector", ref.Connector, "error", err)
		}
		slog.InfoContext(ctx, "governance connector updated",
			"category", ref.Category, "connector", ref.Connector, "properties", len(props))
		s.alert(ctx, clm.Owner(), event.AlertSuccess, "governance.updateSuccess")
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return errUpdateInFlight
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyFailed):
		return errUpdateDuplicate
	case errors.Is(err, goerror.ErrNotFound):
		return errNotFound
	case goerror.IsCode(err, goerror.CodeInvalidInput):
		slog.WarnContext(ctx, "identity server rejected connector update",
			"category", ref.Category, "connector", ref.Connector, "error", err)
		s.alert(ctx, clm.Owner(), event.AlertError, "governance.updateError")
		return err
	case !called:
		slog.ErrorContext(ctx, "failed to acquire connector update lock", "connector", ref.Connector, "error", err)
		return goerror.NewServer(err)
	default:
		slog.ErrorContext(ctx, "failed to update governance connector",
			"category", ref.Category, "connector", ref.Connector, "error", err)
		s.alert(ctx, clm.Owner(), event.AlertError, "governance.updateError")
		return goerror.NewNetwork(err)
	}
}

func (s *Usecase) alert(ctx context.Context, owner string, sev event.AlertSeverity, key string) {
	s.notifier.Notify(ctx, event.Alert{
		Owner:    owner,
		Severity: sev,
		TitleKey: key + ".title",
		BodyKey:  key + ".body",
	})
}

// updateKey fingerprints the caller, the connector and the sorted payload.
func updateKey(subject string, ref ConnectorRef, props []entity.Property) string {
	type pair struct {
		Name  string `json:"n"`
		Value string `json:"v"`
	}
	pairs := lo.Map(props, func(p entity.Property, _ int) pair { return pair{Name: p.Name, Value: p.Value} })
	slices.SortFunc(pairs, func(a, b pair) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), strings.Compare(a.Value, b.Value))
	})

	// Marshaling plain strings cannot fail.
	raw, _ := json.Marshal(pairs)
	sum := sha256.Sum256(raw)
	return strings.Join([]string{"governance", subject, ref.Category, ref.Connector, hex.EncodeToString(sum[:8])}, ":")
}
