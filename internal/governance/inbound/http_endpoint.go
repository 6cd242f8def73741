package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

// HTTPEndpoint exposes identity-governance connectors to administrators.
type HTTPEndpoint struct {
	uc uc
}

// GetConnector returns one governance connector.
// @Summary Get governance connector
// @Tags Governance
// @Security BearerAuth
// @Produce json
// @Param category path string true "Connector category id"
// @Param connector path string true "Connector id"
// @Success 200 {object} router.successResponse{data=ConnectorResponse} "Connector"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 404 {object} router.errorResponse "Connector not found"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/connectors/{category}/{connector} [get]
func (h *HTTPEndpoint) GetConnector(r *router.Request) (any, error) {
	conn, err := h.uc.GetConnector(r.Context(), usecase.GetConnectorInput{
		Category:  r.GetParam("category"),
		Connector: r.GetParam("connector"),
	})
	if err != nil {
		return nil, err
	}

	return toConnectorResponse(conn), nil
}

// UpdateConnector patches connector properties.
// @Summary Update governance connector
// @Tags Governance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param category path string true "Connector category id"
// @Param connector path string true "Connector id"
// @Param request body UpdateConnectorRequest true "Properties to change"
// @Success 204 "Connector updated"
// @Failure 409 {object} router.errorResponse "Update already in progress or just applied"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/connectors/{category}/{connector} [put]
func (h *HTTPEndpoint) UpdateConnector(r *router.Request) (any, error) {
	var req UpdateConnectorRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.UpdateConnector(r.Context(), usecase.UpdateConnectorInput{
		Category:  r.GetParam("category"),
		Connector: r.GetParam("connector"),
		Properties: lo.Map(req.Properties, func(p PropertyRequest, _ int) usecase.PropertyInput {
			return usecase.PropertyInput{Name: p.Name, Value: p.Value}
		}),
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}

// GetPasswordExpiry returns the password expiry policy.
// @Summary Get password expiry
// @Tags Governance
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=PasswordExpiryPayload} "Policy"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/password-expiry [get]
func (h *HTTPEndpoint) GetPasswordExpiry(r *router.Request) (any, error) {
	pe, err := h.uc.GetPasswordExpiry(r.Context())
	if err != nil {
		return nil, err
	}

	return PasswordExpiryPayload{Enabled: pe.Enabled, ExpiryInDays: pe.ExpiryInDays}, nil
}

// UpdatePasswordExpiry replaces the password expiry policy.
// @Summary Update password expiry
// @Tags Governance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PasswordExpiryPayload true "Policy"
// @Success 204 "Policy updated"
// @Failure 409 {object} router.errorResponse "Update already in progress or just applied"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/password-expiry [put]
func (h *HTTPEndpoint) UpdatePasswordExpiry(r *router.Request) (any, error) {
	var req PasswordExpiryPayload
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.UpdatePasswordExpiry(r.Context(), usecase.UpdatePasswordExpiryInput{
		Enabled:      req.Enabled,
		ExpiryInDays: req.ExpiryInDays,
	})
	if err != nil {
		return nil, err
	}

	return nil, nil
}

// GetPasswordValidation returns the password validation policy.
// @Summary Get password validation
// @Tags Governance
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=PasswordValidationPayload} "Policy"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/password-validation [get]
func (h *HTTPEndpoint) GetPasswordValidation(r *router.Request) (any, error) {
	pv, err := h.uc.GetPasswordValidation(r.Context())
	if err != nil {
		return nil, err
	}

	return PasswordValidationPayload{
		Enabled:      pv.Enabled,
		MinLength:    pv.MinLength,
		MaxLength:    pv.MaxLength,
		Pattern:      pv.Pattern,
		ErrorMessage: pv.ErrorMessage,
	}, nil
}

// UpdatePasswordValidation replaces the password validation policy.
// @Summary Update password validation
// @Tags Governance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PasswordValidationPayload true "Policy"
// @Success 204 "Policy updated"
// @Failure 409 {object} router.errorResponse "Update already in progress or just applied"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/governance/password-validation [put]
func (h *HTTPEndpoint) UpdatePasswordValidation(r *router.Request) (any, error) {
	var req PasswordValidationPayload
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.uc.UpdatePasswordValidation(r.Context(), usecase.UpdatePasswordValidationInput(req))
	if err != nil {
		return nil, err
	}

	return nil, nil
}
