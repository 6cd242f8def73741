package inbound

import (
	"context"

	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	"github.com/shandysiswandi/iamportal/internal/deployment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

type uc interface {
	ListConfigs(ctx context.Context, in usecase.ListConfigsInput) ([]entity.RemoteConfig, error)
	GetStatus(ctx context.Context, in usecase.GetStatusInput) (*entity.Status, error)
	Trigger(ctx context.Context, in usecase.TriggerInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// remote configuration deployment (need authenticated and casbin)
	r.GET("/api/v1/deployment/remote-configs", end.ListConfigs)
	r.GET("/api/v1/deployment/remote-configs/:id", end.GetStatus)
	r.POST("/api/v1/deployment/remote-configs/:id/trigger", end.Trigger)
}
