package usecase

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
)

func (s *Usecase) GetPasswordExpiry(ctx context.Context) (*entity.PasswordExpiry, error) {
	ctx, span := s.startSpan(ctx, "GetPasswordExpiry")
	defer span.End()

	conn, err := s.read(ctx, s.expiry)
	if err != nil {
		return nil, err
	}

	pe := entity.PasswordExpiryFromConnector(*conn)
	return &pe, nil
}

type UpdatePasswordExpiryInput struct {
	Enabled      bool
	ExpiryInDays int `validate:"gte=0,lte=3650"`
}

func (s *Usecase) UpdatePasswordExpiry(ctx context.Context, in UpdatePasswordExpiryInput) error {
	ctx, span := s.startSpan(ctx, "UpdatePasswordExpiry")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}
	if in.Enabled && in.ExpiryInDays < 1 {
		return goerror.NewInvalidInput(nil, "expiry_in_days", "must be at least 1 when expiry is enabled")
	}

	pe := entity.PasswordExpiry{Enabled: in.Enabled, ExpiryInDays: in.ExpiryInDays}
	return s.update(ctx, s.expiry, pe.Properties())
}

func (s *Usecase) GetPasswordValidation(ctx context.Context) (*entity.PasswordValidation, error) {
	ctx, span := s.startSpan(ctx, "GetPasswordValidation")
	defer span.End()

	conn, err := s.read(ctx, s.policy)
	if err != nil {
		return nil, err
	}

	pv := entity.PasswordValidationFromConnector(*conn)
	return &pv, nil
}

type UpdatePasswordValidationInput struct {
	Enabled   bool
	MinLength int `validate:"gte=1,lte=1024"`
	MaxLength int `validate:"gte=1,lte=1024,gtefield=MinLength"`
	// Pattern is compiled by the identity server, which accepts lookarounds.
	Pattern      string `validate:"max=1024"`
	ErrorMessage string `validate:"max=255"`
}

func (s *Usecase) UpdatePasswordValidation(ctx context.Context, in UpdatePasswordValidationInput) error {
	ctx, span := s.startSpan(ctx, "UpdatePasswordValidation")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	pv := entity.PasswordValidation{
		Enabled:      in.Enabled,
		MinLength:    in.MinLength,
		MaxLength:    in.MaxLength,
		Pattern:      in.Pattern,
		ErrorMessage: in.ErrorMessage,
	}
	return s.update(ctx, s.policy, pv.Properties())
}
