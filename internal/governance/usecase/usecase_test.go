package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/idempotency"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

// stockPolicyPattern is the identity server's default password pattern.
const stockPolicyPattern = `^((?=.*\d)(?=.*[a-z])(?=.*[A-Z])(?=.*[!@#$%&*])).{0,100}$`

var (
	expiryRef = ConnectorRef{Category: "UGFzc3dvcmQgUG9saWNpZXM", Connector: "cGFzc3dvcmRFeHBpcnk"}
	policyRef = ConnectorRef{Category: "UGFzc3dvcmQgUG9saWNpZXM", Connector: "cGFzc3dvcmRQb2xpY3k"}
)

type fakeBackend struct {
	mu         sync.Mutex
	connectors map[string]*entity.Connector
	getErr     error
	updateErr  error
	updates    [][]entity.Property
}

func (f *fakeBackend) GetConnector(_ context.Context, _, connector string) (*entity.Connector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.connectors[connector]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return c, nil
}

func (f *fakeBackend) UpdateConnector(_ context.Context, _, _ string, props []entity.Property) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, props)
	return nil
}

type fakeAuthorizer struct {
	err error
	obj []string
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	f.obj = append(f.obj, obj+":"+act)
	if f.err != nil {
		return nil, f.err
	}
	return jwt.GetAuth(ctx), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []event.Alert
}

func (f *fakeNotifier) Notify(_ context.Context, in event.Alert) {
	f.mu.Lock()
	f.alerts = append(f.alerts, in)
	f.mu.Unlock()
}

// memIdempotency mimics the Redis tracker: completed keys stay, failed
// keys are released.
type memIdempotency struct {
	mu       sync.Mutex
	states   map[string]string
	acquireE error
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.acquireE != nil {
		m.mu.Unlock()
		return m.acquireE
	}
	switch m.states[key] {
	case "in_progress":
		m.mu.Unlock()
		return idempotency.ErrAlreadyInProgress
	case "completed":
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.states[key] = "in_progress"
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		delete(m.states, key)
		return err
	}
	m.states[key] = "completed"
	return nil
}

type testEnv struct {
	uc       *Usecase
	backend  *fakeBackend
	authz    *fakeAuthorizer
	notifier *fakeNotifier
	idem     *memIdempotency
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	env := &testEnv{
		backend: &fakeBackend{connectors: map[string]*entity.Connector{
			expiryRef.Connector: {
				ID: expiryRef.Connector, Name: "passwordExpiry", Category: expiryRef.Category,
				Properties: []entity.Property{
					{Name: entity.PropExpiryEnabled, Value: "true"},
					{Name: entity.PropExpiryDays, Value: "30"},
				},
			},
			policyRef.Connector: {
				ID: policyRef.Connector, Name: "passwordPolicy", Category: policyRef.Category,
				Properties: []entity.Property{
					{Name: entity.PropPolicyEnabled, Value: "false"},
					{Name: entity.PropPolicyMin, Value: "8"},
					{Name: entity.PropPolicyMax, Value: "64"},
				},
			},
		}},
		authz:    &fakeAuthorizer{},
		notifier: &fakeNotifier{},
		idem:     &memIdempotency{states: map[string]string{}},
	}
	env.uc = New(Dependency{
		RepoBackend:        env.backend,
		Authorizer:         env.authz,
		Notifier:           env.notifier,
		Idempotency:        env.idem,
		Validator:          v,
		Instrument:         instrument.NewNoop(),
		PasswordExpiry:     expiryRef,
		PasswordValidation: policyRef,
	})
	return env
}

func adminCtx() context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "admin-1"},
		Roles:            []string{"admin"},
	})
}

func TestGetPasswordExpiry(t *testing.T) {
	// Arrange
	env := newTestEnv(t)

	// Act
	got, err := env.uc.GetPasswordExpiry(adminCtx())

	// Assert
	if err != nil {
		t.Fatalf("GetPasswordExpiry() error: %v", err)
	}
	if !got.Enabled || got.ExpiryInDays != 30 {
		t.Fatalf("unexpected expiry %+v", got)
	}
	if env.authz.obj[0] != "governance:read" {
		t.Fatalf("authorized %v, want governance:read", env.authz.obj)
	}
}

func TestGetPasswordValidation(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.uc.GetPasswordValidation(adminCtx())

	if err != nil {
		t.Fatalf("GetPasswordValidation() error: %v", err)
	}
	if got.Enabled || got.MinLength != 8 || got.MaxLength != 64 {
		t.Fatalf("unexpected policy %+v", got)
	}
}

func TestGetConnector_Errors(t *testing.T) {
	tests := []struct {
		name   string
		in     GetConnectorInput
		getErr error
		authz  error
		want   goerror.Code
	}{
		{name: "missing connector", in: GetConnectorInput{Category: "c"}, want: goerror.CodeInvalidInput},
		{name: "not found", in: GetConnectorInput{Category: "c", Connector: "nope"}, want: goerror.CodeNotFound},
		{name: "backend down", in: GetConnectorInput{Category: "c", Connector: "x"}, getErr: errors.New("dial tcp"), want: goerror.CodeBadGateway},
		{
			name:  "forbidden",
			in:    GetConnectorInput{Category: "c", Connector: "x"},
			authz: goerror.NewBusiness("Account not allowed", goerror.CodeForbidden),
			want:  goerror.CodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.getErr = tt.getErr
			env.authz.err = tt.authz

			_, err := env.uc.GetConnector(adminCtx(), tt.in)

			if !goerror.IsCode(err, tt.want) {
				t.Fatalf("GetConnector() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestUpdatePasswordExpiry_AppliesOnceAndAlerts(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	in := UpdatePasswordExpiryInput{Enabled: true, ExpiryInDays: 90}

	// Act
	err := env.uc.UpdatePasswordExpiry(adminCtx(), in)
	dupErr := env.uc.UpdatePasswordExpiry(adminCtx(), in)

	// Assert
	if err != nil {
		t.Fatalf("UpdatePasswordExpiry() error: %v", err)
	}
	if !goerror.IsCode(dupErr, goerror.CodeConflict) {
		t.Fatalf("duplicate update error = %v, want conflict", dupErr)
	}
	if len(env.backend.updates) != 1 {
		t.Fatalf("backend updated %d times, want 1", len(env.backend.updates))
	}
	got := entity.PasswordExpiryFromConnector(entity.Connector{Properties: env.backend.updates[0]})
	if got != (entity.PasswordExpiry{Enabled: true, ExpiryInDays: 90}) {
		t.Fatalf("unexpected properties %+v", env.backend.updates[0])
	}
	if len(env.notifier.alerts) != 1 || env.notifier.alerts[0].Severity != event.AlertSuccess ||
		env.notifier.alerts[0].TitleKey != "governance.updateSuccess.title" || env.notifier.alerts[0].Owner != "admin-1" {
		t.Fatalf("unexpected alerts %+v", env.notifier.alerts)
	}
}

func TestUpdatePasswordExpiry_DifferentPayloadIsNotDuplicate(t *testing.T) {
	env := newTestEnv(t)

	if err := env.uc.UpdatePasswordExpiry(adminCtx(), UpdatePasswordExpiryInput{Enabled: true, ExpiryInDays: 30}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := env.uc.UpdatePasswordExpiry(adminCtx(), UpdatePasswordExpiryInput{Enabled: true, ExpiryInDays: 60}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	if len(env.backend.updates) != 2 {
		t.Fatalf("backend updated %d times, want 2", len(env.backend.updates))
	}
}

func TestUpdatePasswordExpiry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   UpdatePasswordExpiryInput
	}{
		{name: "enabled without days", in: UpdatePasswordExpiryInput{Enabled: true}},
		{name: "negative", in: UpdatePasswordExpiryInput{ExpiryInDays: -1}},
		{name: "too long", in: UpdatePasswordExpiryInput{Enabled: true, ExpiryInDays: 5000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := env.uc.UpdatePasswordExpiry(adminCtx(), tt.in)

			if !goerror.IsCode(err, goerror.CodeInvalidInput) {
				t.Fatalf("error = %v, want invalid input", err)
			}
			if len(env.backend.updates) != 0 || len(env.authz.obj) != 0 {
				t.Fatalf("invalid input must not reach authz or backend")
			}
		})
	}
}

func TestUpdatePasswordValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      UpdatePasswordValidationInput
		wantErr bool
	}{
		{name: "valid", in: UpdatePasswordValidationInput{Enabled: true, MinLength: 8, MaxLength: 32, Pattern: `^[a-zA-Z0-9]+$`}},
		{name: "equal bounds", in: UpdatePasswordValidationInput{MinLength: 12, MaxLength: 12}},
		{name: "min above max", in: UpdatePasswordValidationInput{MinLength: 20, MaxLength: 10}, wantErr: true},
		{name: "lookahead pattern", in: UpdatePasswordValidationInput{Enabled: true, MinLength: 8, MaxLength: 64, Pattern: stockPolicyPattern}},
		{name: "zero min", in: UpdatePasswordValidationInput{MaxLength: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := env.uc.UpdatePasswordValidation(adminCtx(), tt.in)

			if tt.wantErr {
				if !goerror.IsCode(err, goerror.CodeInvalidInput) {
					t.Fatalf("error = %v, want invalid input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdatePasswordValidation() error: %v", err)
			}
			got := entity.PasswordValidationFromConnector(entity.Connector{Properties: env.backend.updates[0]})
			if got.MinLength != tt.in.MinLength || got.MaxLength != tt.in.MaxLength || got.Pattern != tt.in.Pattern {
				t.Fatalf("unexpected stored policy %+v", got)
			}
		})
	}
}

func TestUpdatePasswordValidation_RoundTripsStoredPolicy(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.backend.connectors[policyRef.Connector].Properties = []entity.Property{
		{Name: entity.PropPolicyEnabled, Value: "true"},
		{Name: entity.PropPolicyMin, Value: "8"},
		{Name: entity.PropPolicyMax, Value: "30"},
		{Name: entity.PropPolicyPattern, Value: stockPolicyPattern},
		{Name: entity.PropPolicyErrorMsg, Value: "Password pattern policy violated"},
	}
	got, err := env.uc.GetPasswordValidation(adminCtx())
	if err != nil {
		t.Fatalf("GetPasswordValidation() error: %v", err)
	}

	// Act
	err = env.uc.UpdatePasswordValidation(adminCtx(), UpdatePasswordValidationInput{
		Enabled:      got.Enabled,
		MinLength:    got.MinLength,
		MaxLength:    got.MaxLength,
		Pattern:      got.Pattern,
		ErrorMessage: got.ErrorMessage,
	})

	// Assert
	if err != nil {
		t.Fatalf("UpdatePasswordValidation() error: %v", err)
	}
	if len(env.backend.updates) != 1 {
		t.Fatalf("backend updated %d times, want 1", len(env.backend.updates))
	}
	stored := entity.PasswordValidationFromConnector(entity.Connector{Properties: env.backend.updates[0]})
	if stored.Pattern != stockPolicyPattern {
		t.Fatalf("pattern = %q, want %q", stored.Pattern, stockPolicyPattern)
	}
}

func TestUpdatePasswordValidation_BackendRejectsPattern(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.backend.updateErr = goerror.NewInvalidInput(nil, "properties", "Properties were rejected by the identity server")
	in := UpdatePasswordValidationInput{Enabled: true, MinLength: 8, MaxLength: 30, Pattern: `(?<=`}

	// Act
	err := env.uc.UpdatePasswordValidation(adminCtx(), in)
	env.backend.updateErr = nil
	retryErr := env.uc.UpdatePasswordValidation(adminCtx(), in)

	// Assert
	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
	if retryErr != nil {
		t.Fatalf("retry after a rejected update error: %v", retryErr)
	}
	if len(env.notifier.alerts) != 2 || env.notifier.alerts[0].Severity != event.AlertError {
		t.Fatalf("unexpected alerts %+v", env.notifier.alerts)
	}
}

func TestUpdateConnector_BackendFailureAlertsAndAllowsRetry(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.backend.updateErr = errors.New("connection reset")
	in := UpdateConnectorInput{
		Category:   expiryRef.Category,
		Connector:  expiryRef.Connector,
		Properties: []PropertyInput{{Name: entity.PropExpiryDays, Value: "10"}},
	}

	// Act
	err := env.uc.UpdateConnector(adminCtx(), in)
	env.backend.updateErr = nil
	retryErr := env.uc.UpdateConnector(adminCtx(), in)

	// Assert
	if !goerror.IsCode(err, goerror.CodeBadGateway) {
		t.Fatalf("error = %v, want bad gateway", err)
	}
	if retryErr != nil {
		t.Fatalf("retry after failure error: %v", retryErr)
	}
	if len(env.notifier.alerts) != 2 || env.notifier.alerts[0].Severity != event.AlertError ||
		env.notifier.alerts[1].Severity != event.AlertSuccess {
		t.Fatalf("unexpected alerts %+v", env.notifier.alerts)
	}
}

func TestUpdateConnector_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   UpdateConnectorInput
		want goerror.Code
	}{
		{
			name: "no properties",
			in:   UpdateConnectorInput{Category: "c", Connector: "x"},
			want: goerror.CodeInvalidInput,
		},
		{
			name: "duplicate property",
			in: UpdateConnectorInput{Category: "c", Connector: "x", Properties: []PropertyInput{
				{Name: "a", Value: "1"}, {Name: "a", Value: "2"},
			}},
			want: goerror.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			err := env.uc.UpdateConnector(adminCtx(), tt.in)

			if !goerror.IsCode(err, tt.want) {
				t.Fatalf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestUpdateConnector_LockUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.idem.acquireE = errors.New("redis: connection refused")

	err := env.uc.UpdatePasswordExpiry(adminCtx(), UpdatePasswordExpiryInput{ExpiryInDays: 0})

	if !goerror.IsCode(err, goerror.CodeInternal) {
		t.Fatalf("error = %v, want internal", err)
	}
	if len(env.notifier.alerts) != 0 {
		t.Fatalf("lock failures must not raise alerts")
	}
}

func TestUpdateKey_OrderIndependent(t *testing.T) {
	a := updateKey("u", expiryRef, []entity.Property{{Name: "x", Value: "1"}, {Name: "y", Value: "2"}})
	b := updateKey("u", expiryRef, []entity.Property{{Name: "y", Value: "2"}, {Name: "x", Value: "1"}})
	c := updateKey("v", expiryRef, []entity.Property{{Name: "x", Value: "1"}, {Name: "y", Value: "2"}})

	if a != b {
		t.Fatalf("keys differ for the same payload: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("keys must differ per caller")
	}
}

func TestUpdateKey_NoDelimiterCollisions(t *testing.T) {
	tests := []struct {
		name string
		a, b []entity.Property
	}{
		{
			name: "separator inside name or value",
			a:    []entity.Property{{Name: "a=b", Value: "c"}},
			b:    []entity.Property{{Name: "a", Value: "b=c"}},
		},
		{
			name: "newline inside value",
			a:    []entity.Property{{Name: "x", Value: "1\ny=2"}},
			b:    []entity.Property{{Name: "x", Value: "1"}, {Name: "y", Value: "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if updateKey("u", policyRef, tt.a) == updateKey("u", policyRef, tt.b) {
				t.Fatalf("distinct payloads share a key: %+v vs %+v", tt.a, tt.b)
			}
		})
	}
}
