package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/iamportal/internal/enrollment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

type uc interface {
	Open(ctx context.Context, in usecase.OpenInput) (*usecase.StateOutput, error)
	Refresh(ctx context.Context, in usecase.RefreshInput) (*usecase.StateOutput, error)
	PinInput(ctx context.Context, in usecase.PinInputInput) (*usecase.StateOutput, error)
	PinKey(ctx context.Context, in usecase.PinKeyInput) (*usecase.StateOutput, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (*usecase.StateOutput, error)
	Close(ctx context.Context, in usecase.CloseInput) (*usecase.StateOutput, error)
	State(ctx context.Context, in usecase.StateInput) (*usecase.StateOutput, error)
	QRCode(ctx context.Context, in usecase.QRCodeInput) (*usecase.QRCodeOutput, error)
}

type translator interface {
	T(lang, key string) string
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, trans translator) {
	end := &HTTPEndpoint{uc: uc, trans: trans}

	// TOTP enrollment wizard (need authenticated)
	r.POST("/api/v1/enrollment/totp/open", end.Open)
	r.POST("/api/v1/enrollment/totp/refresh", end.Refresh)
	r.POST("/api/v1/enrollment/totp/pin/input", end.PinInput)
	r.POST("/api/v1/enrollment/totp/pin/key", end.PinKey)
	r.POST("/api/v1/enrollment/totp/submit", end.Submit)
	r.POST("/api/v1/enrollment/totp/close", end.Close)
	r.GET("/api/v1/enrollment/totp/state", end.State)
	r.GETRaw("/api/v1/enrollment/totp/qr.png", http.HandlerFunc(end.QRCode))
}
