package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/otp"
)

const defaultQRSize = 256

type QRCodeInput struct {
	Size int `validate:"omitempty,gte=64,lte=1024"`
}

type QRCodeOutput struct {
	PNG []byte
}

// QRCode renders the current scannable code as a PNG image.
func (s *Usecase) QRCode(ctx context.Context, in QRCodeInput) (*QRCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "QRCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sess := s.sessions[owner]
	var code string
	if sess.Phase() != entity.PhaseClosed {
		code = sess.ScannableCode
	}
	s.mu.Unlock()

	if code == "" {
		return nil, goerror.NewBusiness("no enrollment in progress", goerror.CodeNotFound)
	}

	size := in.Size
	if size == 0 {
		size = defaultQRSize
	}

	img, err := otp.PNG(code, size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render totp qr code", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &QRCodeOutput{PNG: img}, nil
}
