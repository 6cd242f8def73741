package inbound

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	"github.com/shandysiswandi/iamportal/internal/governance/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

type uc interface {
	GetConnector(ctx context.Context, in usecase.GetConnectorInput) (*entity.Connector, error)
	UpdateConnector(ctx context.Context, in usecase.UpdateConnectorInput) error
	GetPasswordExpiry(ctx context.Context) (*entity.PasswordExpiry, error)
	UpdatePasswordExpiry(ctx context.Context, in usecase.UpdatePasswordExpiryInput) error
	GetPasswordValidation(ctx context.Context) (*entity.PasswordValidation, error)
	UpdatePasswordValidation(ctx context.Context, in usecase.UpdatePasswordValidationInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// identity governance (need authenticated and casbin)
	r.GET("/api/v1/governance/connectors/:category/:connector", end.GetConnector)
	r.PUT("/api/v1/governance/connectors/:category/:connector", end.UpdateConnector)
	r.GET("/api/v1/governance/password-expiry", end.GetPasswordExpiry)
	r.PUT("/api/v1/governance/password-expiry", end.UpdatePasswordExpiry)
	r.GET("/api/v1/governance/password-validation", end.GetPasswordValidation)
	r.PUT("/api/v1/governance/password-validation", end.UpdatePasswordValidation)
}
