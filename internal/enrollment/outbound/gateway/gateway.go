package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPath is the identity server's self-service TOTP resource.
const DefaultPath = "/api/users/v1/me/totp"

const (
	actionInit     = "INIT"
	actionRefresh  = "REFRESH"
	actionValidate = "VALIDATE"
)

// ErrEmptyScannableCode is returned when the server answers without a code.
var ErrEmptyScannableCode = errors.New("gateway: empty scannable code")

type poster interface {
	Post(ctx context.Context, path string, in, out any) error
}

type totpRequest struct {
	Action           string `json:"action"`
	VerificationCode string `json:"verificationCode,omitempty"`
}

type totpQRResponse struct {
	QRCodeURL string `json:"qrCodeUrl"`
}

type totpValidateResponse struct {
	IsValid bool `json:"isValid"`
}

// Gateway performs the remote TOTP operations on behalf of the caller.
type Gateway struct {
	client poster
	path   string
	ins    instrument.Instrumentation
}

func New(client poster, path string, ins instrument.Instrumentation) *Gateway {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &Gateway{client: client, path: path, ins: ins}
}

func (g *Gateway) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return g.ins.Tracer("enrollment.outbound.gateway").Start(ctx, name)
}

// Initialize creates a TOTP secret and returns its otpauth URI.
func (g *Gateway) Initialize(ctx context.Context) (string, error) {
	ctx, span := g.startSpan(ctx, "Initialize")
	defer span.End()

	return g.scannable(ctx, span, actionInit)
}

// Refresh rotates the TOTP secret and returns the new otpauth URI.
func (g *Gateway) Refresh(ctx context.Context) (string, error) {
	ctx, span := g.startSpan(ctx, "Refresh")
	defer span.End()

	return g.scannable(ctx, span, actionRefresh)
}

// Validate checks code against the pending secret. A wrong code is
// reported as false with a nil error.
func (g *Gateway) Validate(ctx context.Context, code string) (bool, error) {
	ctx, span := g.startSpan(ctx, "Validate")
	defer span.End()

	var resp totpValidateResponse
	if err := g.client.Post(ctx, g.path, totpRequest{Action: actionValidate, VerificationCode: code}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	return resp.IsValid, nil
}

func (g *Gateway) scannable(ctx context.Context, span trace.Span, action string) (string, error) {
	var resp totpQRResponse
	if err := g.client.Post(ctx, g.path, totpRequest{Action: action}, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	code, err := decodeScannable(resp.QRCodeURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return code, nil
}

// decodeScannable strips the base64 transport encoding. A raw otpauth URI
// is accepted as is.
func decodeScannable(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrEmptyScannableCode
	}
	if strings.HasPrefix(v, "otpauth://") {
		return v, nil
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if raw, err := enc.DecodeString(v); err == nil && len(raw) > 0 {
			return string(raw), nil
		}
	}
	return "", errors.New("gateway: scannable code is not base64")
}
