package inbound

import (
	"github.com/shandysiswandi/iamportal/internal/enrollment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

// HTTPEndpoint exposes the TOTP enrollment wizard.
type HTTPEndpoint struct {
	uc    uc
	trans translator
}

// Open starts the enrollment wizard.
// @Summary Open TOTP enrollment
// @Description Creates a TOTP secret on the identity server and returns the scannable otpauth URI.
// @Tags Enrollment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 409 {object} router.errorResponse "Wizard already open"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/enrollment/totp/open [post]
func (h *HTTPEndpoint) Open(r *router.Request) (any, error) {
	out, err := h.uc.Open(r.Context(), usecase.OpenInput{})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}

// Refresh rotates the secret.
// @Summary Refresh TOTP secret
// @Tags Enrollment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Failure 409 {object} router.errorResponse "Wizard not open or request pending"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/enrollment/totp/refresh [post]
func (h *HTTPEndpoint) Refresh(r *router.Request) (any, error) {
	out, err := h.uc.Refresh(r.Context(), usecase.RefreshInput{})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}

// PinInput sets the value of one pin cell.
// @Summary Pin cell input
// @Tags Enrollment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PinInputRequest true "Cell index (0-5) and a single digit, or empty to clear"
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Wizard not open or request pending"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/enrollment/totp/pin/input [post]
func (h *HTTPEndpoint) PinInput(r *router.Request) (any, error) {
	var req PinInputRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.PinInput(r.Context(), usecase.PinInputInput{
		Index: req.Index,
		Value: req.Value,
	})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}

// PinKey applies a key event to one pin cell.
// @Summary Pin cell key event
// @Tags Enrollment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body PinKeyRequest true "Cell index (0-5) and key name (Backspace, Delete)"
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Wizard not open or request pending"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/enrollment/totp/pin/key [post]
func (h *HTTPEndpoint) PinKey(r *router.Request) (any, error) {
	var req PinKeyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.PinKey(r.Context(), usecase.PinKeyInput{
		Index: req.Index,
		Key:   req.Key,
	})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}

// Submit verifies the entered code. A rejected code answers 200 with
// is_valid=false and a translated last_error_text.
// @Summary Submit verification code
// @Tags Enrollment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SubmitRequest false "Optional full code; the pin cells are used when empty"
// @Success 200 {object} router.successResponse{data=SubmitResponse} "Verification result"
// @Failure 409 {object} router.errorResponse "Wizard not open, verified or request pending"
// @Failure 422 {object} router.errorResponse "Code is not six digits"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/enrollment/totp/submit [post]
func (h *HTTPEndpoint) Submit(r *router.Request) (any, error) {
	var req SubmitRequest
	if r.ContentLength != 0 {
		if err := r.DecodeBody(&req); err != nil {
			return nil, err
		}
	}

	out, err := h.uc.Submit(r.Context(), usecase.SubmitInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return SubmitResponse{
		StateResponse: h.toStateResponse(r.Language(), out),
		IsValid:       out.IsValid,
	}, nil
}

// Close discards the wizard.
// @Summary Close TOTP enrollment
// @Tags Enrollment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Router /api/v1/enrollment/totp/close [post]
func (h *HTTPEndpoint) Close(r *router.Request) (any, error) {
	out, err := h.uc.Close(r.Context(), usecase.CloseInput{})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}

// @Summary Get wizard state
// @Tags Enrollment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} router.successResponse{data=StateResponse} "Wizard state"
// @Router /api/v1/enrollment/totp/state [get]
func (h *HTTPEndpoint) State(r *router.Request) (any, error) {
	out, err := h.uc.State(r.Context(), usecase.StateInput{})
	if err != nil {
		return nil, err
	}

	return h.toStateResponse(r.Language(), out), nil
}
