package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/clock"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/pkg/validator"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

const (
	initialCode   = "otpauth://totp/ACME?secret=ABC"
	refreshedCode = "otpauth://totp/ACME?secret=XYZ"
)

type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	refreshErr  error
	validateErr error
	valid       bool
	validated   []string

	// When set, Validate signals entered and waits for release.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGateway) Initialize(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return "", f.initErr
	}
	return initialCode, nil
}

func (f *fakeGateway) Refresh(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	return refreshedCode, nil
}

func (f *fakeGateway) Validate(_ context.Context, code string) (bool, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.validated = append(f.validated, code)
	return f.valid, f.validateErr
}

func (f *fakeGateway) validateCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.validated...)
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

func (f *fakeNotifier) all() []event.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.Alert(nil), f.alerts...)
}

type testEnv struct {
	uc       *Usecase
	gateway  *fakeGateway
	notifier *fakeNotifier
	clock    *clock.Manual
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	env := &testEnv{
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		clock:    clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	env.uc = New(Dependency{
		RepoGateway: env.gateway,
		Notifier:    env.notifier,
		Validator:   v,
		UUID:        uid.NewUUID(),
		Clock:       env.clock,
		Instrument:  instrument.NewNoop(),
		SessionTTL:  10 * time.Minute,
	})
	return env
}

func authCtx(owner string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: owner},
	})
}

func mustOpen(t *testing.T, env *testEnv, ctx context.Context) {
	t.Helper()
	if _, err := env.uc.Open(ctx, OpenInput{}); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
}

func fillPin(t *testing.T, env *testEnv, ctx context.Context, digits string) {
	t.Helper()
	for i, d := range digits {
		if _, err := env.uc.PinInput(ctx, PinInputInput{Index: i, Value: string(d)}); err != nil {
			t.Fatalf("PinInput(%d) error: %v", i, err)
		}
	}
}

func TestOpen_StoresScannableCodeVerbatim(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := authCtx("user-1")

	// Act
	out, err := env.uc.Open(ctx, OpenInput{})

	// Assert
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if out.Phase != entity.PhaseCollectingCode || out.Step != entity.StepAwaitingCode {
		t.Fatalf("unexpected phase/step %s/%s", out.Phase, out.Step)
	}
	if out.ScannableCode != initialCode {
		t.Fatalf("ScannableCode = %q, want %q", out.ScannableCode, initialCode)
	}
	if len(env.notifier.all()) != 0 {
		t.Fatalf("a successful open raises no alert")
	}
}

func TestOpen_WhileOpenIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)

	_, err := env.uc.Open(ctx, OpenInput{})

	if !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("Open() error = %v, want conflict", err)
	}
}

func TestOpen_GatewayFailureStaysClosed(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.initErr = errors.New("connection refused")
	ctx := authCtx("user-1")

	// Act
	_, err := env.uc.Open(ctx, OpenInput{})

	// Assert
	if !goerror.IsCode(err, goerror.CodeBadGateway) {
		t.Fatalf("Open() error = %v, want bad gateway", err)
	}
	st, _ := env.uc.State(ctx, StateInput{})
	if st.Phase != entity.PhaseClosed {
		t.Fatalf("phase = %s, want closed", st.Phase)
	}
	alerts := env.notifier.all()
	if len(alerts) != 1 || alerts[0].Severity != event.AlertError || alerts[0].TitleKey != "mfa.totp.initError.title" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestRefresh_ReplacesCodeAndClearsPin(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "12")

	// Act
	out, err := env.uc.Refresh(ctx, RefreshInput{})

	// Assert
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if out.ScannableCode != refreshedCode {
		t.Fatalf("ScannableCode = %q, want %q", out.ScannableCode, refreshedCode)
	}
	if out.Cells != [entity.PinLength]string{} || out.Focus != 0 {
		t.Fatalf("pin must be cleared, got %v focus %d", out.Cells, out.Focus)
	}
	alerts := env.notifier.all()
	if len(alerts) != 1 || alerts[0].Severity != event.AlertSuccess || alerts[0].BodyKey != "mfa.totp.refreshSuccess.body" {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestRefresh_FailureKeepsState(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "4")
	env.gateway.refreshErr = errors.New("503")

	// Act
	_, err := env.uc.Refresh(ctx, RefreshInput{})

	// Assert
	if !goerror.IsCode(err, goerror.CodeBadGateway) {
		t.Fatalf("Refresh() error = %v, want bad gateway", err)
	}
	st, _ := env.uc.State(ctx, StateInput{})
	if st.ScannableCode != initialCode || st.Cells[0] != "4" || st.Pending {
		t.Fatalf("state changed after failed refresh: %+v", st)
	}
	alerts := env.notifier.all()
	if len(alerts) != 1 || alerts[0].Severity != event.AlertError {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestSubmit_IncompleteCodeMakesNoCall(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "12345")

	// Act
	_, err := env.uc.Submit(ctx, SubmitInput{})

	// Assert
	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("Submit() error = %v, want invalid input", err)
	}
	if calls := env.gateway.validateCalls(); len(calls) != 0 {
		t.Fatalf("expected no Validate call, got %v", calls)
	}
	st, _ := env.uc.State(ctx, StateInput{})
	if st.Step != entity.StepAwaitingCode || st.Pending {
		t.Fatalf("state must be unchanged, got %+v", st)
	}
}

func TestSubmit_ValidCodeVerifiesOnce(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.valid = true
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "123456")

	// Act
	out, err := env.uc.Submit(ctx, SubmitInput{})

	// Assert
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if !out.IsValid || out.Phase != entity.PhaseVerified || out.Step != entity.StepDone || out.LastError != "" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if calls := env.gateway.validateCalls(); len(calls) != 1 || calls[0] != "123456" {
		t.Fatalf("Validate calls = %v, want [123456]", calls)
	}

	_, err = env.uc.Submit(ctx, SubmitInput{Code: "123456"})
	if !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("second Submit() error = %v, want conflict", err)
	}
	alerts := env.notifier.all()
	if len(alerts) != 1 || alerts[0].Severity != event.AlertSuccess || alerts[0].TitleKey != "mfa.totp.verifySuccess.title" {
		t.Fatalf("expected exactly one success alert, got %+v", alerts)
	}
}

func TestSubmit_RejectedCodeSetsLastError(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.valid = false
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)

	// Act
	out, err := env.uc.Submit(ctx, SubmitInput{Code: "654321"})

	// Assert
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if out.IsValid || out.Step != entity.StepAwaitingCode || out.LastError != entity.LastErrorInvalidCode {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Cells != [entity.PinLength]string{} {
		t.Fatalf("pin must be cleared after a rejected code, got %v", out.Cells)
	}
	if len(env.notifier.all()) != 0 {
		t.Fatalf("a rejected code raises no alert")
	}
}

func TestSubmit_NetworkErrorReturnsToAwaitingCode(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.validateErr = errors.New("timeout")
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "111111")

	// Act
	_, err := env.uc.Submit(ctx, SubmitInput{})

	// Assert
	if !goerror.IsCode(err, goerror.CodeBadGateway) {
		t.Fatalf("Submit() error = %v, want bad gateway", err)
	}
	st, _ := env.uc.State(ctx, StateInput{})
	if st.Step != entity.StepAwaitingCode || st.Pending || st.Cells[5] != "1" {
		t.Fatalf("unexpected state: %+v", st)
	}
	alerts := env.notifier.all()
	if len(alerts) != 1 || alerts[0].Severity != event.AlertError {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

type submitResult struct {
	out *StateOutput
	err error
}

func startBlockedSubmit(t *testing.T, env *testEnv, ctx context.Context) <-chan submitResult {
	t.Helper()

	env.gateway.entered = make(chan struct{})
	env.gateway.release = make(chan struct{})

	done := make(chan submitResult, 1)
	go func() {
		out, err := env.uc.Submit(ctx, SubmitInput{Code: "123456"})
		done <- submitResult{out: out, err: err}
	}()

	select {
	case <-env.gateway.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("Validate was not called")
	}
	return done
}

func TestPendingCallRejectsOtherActions(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.valid = true
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	done := startBlockedSubmit(t, env, ctx)

	// Act & Assert
	st, _ := env.uc.State(ctx, StateInput{})
	if !st.Pending || st.Step != entity.StepVerifying {
		t.Fatalf("expected a pending verify, got %+v", st)
	}
	if _, err := env.uc.PinInput(ctx, PinInputInput{Index: 0, Value: "9"}); !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("PinInput() error = %v, want conflict", err)
	}
	if _, err := env.uc.Refresh(ctx, RefreshInput{}); !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("Refresh() error = %v, want conflict", err)
	}
	if _, err := env.uc.Submit(ctx, SubmitInput{}); !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("Submit() error = %v, want conflict", err)
	}

	close(env.gateway.release)
	res := <-done
	if res.err != nil || !res.out.IsValid {
		t.Fatalf("blocked Submit() = %+v, %v", res.out, res.err)
	}
}

func TestClose_DropsLateResponse(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.valid = true
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	done := startBlockedSubmit(t, env, ctx)

	// Act
	if _, err := env.uc.Close(ctx, CloseInput{}); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	mustOpen(t, env, ctx)
	close(env.gateway.release)
	res := <-done

	// Assert
	if !goerror.IsCode(res.err, goerror.CodeConflict) {
		t.Fatalf("late Submit() error = %v, want conflict", res.err)
	}
	st, _ := env.uc.State(ctx, StateInput{})
	if st.Phase != entity.PhaseCollectingCode || st.Step != entity.StepAwaitingCode || st.Pending {
		t.Fatalf("reopened wizard was mutated by a late response: %+v", st)
	}
	if len(env.notifier.all()) != 0 {
		t.Fatalf("a dropped response raises no alert")
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)

	for range 2 {
		out, err := env.uc.Close(ctx, CloseInput{})
		if err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if out.Phase != entity.PhaseClosed || out.ScannableCode != "" {
			t.Fatalf("unexpected output: %+v", out)
		}
	}
}

func TestClose_ReopenStartsClean(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.gateway.valid = false
	ctx := authCtx("user-1")
	mustOpen(t, env, ctx)
	if out, err := env.uc.Submit(ctx, SubmitInput{Code: "654321"}); err != nil || out.LastError == "" {
		t.Fatalf("Submit() = %+v, %v, want a rejected code", out, err)
	}
	fillPin(t, env, ctx, "12")

	// Act
	if _, err := env.uc.Close(ctx, CloseInput{}); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	mustOpen(t, env, ctx)
	st, err := env.uc.State(ctx, StateInput{})

	// Assert
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if st.Phase != entity.PhaseCollectingCode || st.Step != entity.StepAwaitingCode {
		t.Fatalf("reopened wizard is at %s/%s", st.Phase, st.Step)
	}
	if st.LastError != "" {
		t.Fatalf("LastError = %q after reopen, want empty", st.LastError)
	}
	if st.Cells != [entity.PinLength]string{} {
		t.Fatalf("pin must be empty after reopen, got %v", st.Cells)
	}
}

func TestPinOperations(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	ctx := authCtx("user-1")

	if _, err := env.uc.PinInput(ctx, PinInputInput{Index: 0, Value: "1"}); !goerror.IsCode(err, goerror.CodeConflict) {
		t.Fatalf("PinInput() on a closed wizard = %v, want conflict", err)
	}
	mustOpen(t, env, ctx)
	fillPin(t, env, ctx, "123")

	// Act
	out, err := env.uc.PinKey(ctx, PinKeyInput{Index: 2, Key: "Backspace"})

	// Assert
	if err != nil {
		t.Fatalf("PinKey() error: %v", err)
	}
	if out.Focus != 1 || out.Cells[1] != "" || out.Cells[2] != "" || out.Cells[0] != "1" {
		t.Fatalf("unexpected pin state: %v focus %d", out.Cells, out.Focus)
	}

	_, err = env.uc.PinInput(ctx, PinInputInput{Index: 0, Value: "x"})
	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("PinInput(x) error = %v, want invalid input", err)
	}
	_, err = env.uc.PinInput(ctx, PinInputInput{Index: 6, Value: "1"})
	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("PinInput(index 6) error = %v, want invalid input", err)
	}
}

func TestSessionsAreIsolatedPerOwner(t *testing.T) {
	env := newTestEnv(t)
	alice, bob := authCtx("alice"), authCtx("bob")
	mustOpen(t, env, alice)

	st, _ := env.uc.State(bob, StateInput{})
	if st.Phase != entity.PhaseClosed {
		t.Fatalf("bob's wizard must be closed, got %s", st.Phase)
	}
	mustOpen(t, env, bob)
}

func TestSweep_EvictsIdleSessions(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	alice, bob := authCtx("alice"), authCtx("bob")
	mustOpen(t, env, alice)
	env.clock.Advance(6 * time.Minute)
	mustOpen(t, env, bob)
	env.clock.Advance(5 * time.Minute)

	// Act
	n := env.uc.Sweep(context.Background())

	// Assert
	if n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if st, _ := env.uc.State(alice, StateInput{}); st.Phase != entity.PhaseClosed {
		t.Fatalf("alice's idle wizard should be evicted")
	}
	if st, _ := env.uc.State(bob, StateInput{}); st.Phase != entity.PhaseCollectingCode {
		t.Fatalf("bob's wizard should survive")
	}
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := authCtx("user-1")

	_, err := env.uc.QRCode(ctx, QRCodeInput{})
	if !goerror.IsCode(err, goerror.CodeNotFound) {
		t.Fatalf("QRCode() on a closed wizard = %v, want not found", err)
	}

	mustOpen(t, env, ctx)
	out, err := env.uc.QRCode(ctx, QRCodeInput{Size: 128})
	if err != nil {
		t.Fatalf("QRCode() error: %v", err)
	}
	if !bytes.HasPrefix(out.PNG, []byte("\x89PNG")) {
		t.Fatalf("QRCode() did not return a PNG")
	}

	_, err = env.uc.QRCode(ctx, QRCodeInput{Size: 8})
	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("QRCode(size 8) error = %v, want invalid input", err)
	}
}

func TestRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Open(context.Background(), OpenInput{})

	if !goerror.IsCode(err, goerror.CodeUnauthorized) {
		t.Fatalf("Open() error = %v, want unauthorized", err)
	}
}
