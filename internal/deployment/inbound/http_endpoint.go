package inbound

import (
	"strconv"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	"github.com/shandysiswandi/iamportal/internal/deployment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListConfigs lists the remote configuration repositories.
// @Summary List remote configurations
// @Tags Deployment
// @Security BearerAuth
// @Produce json
// @Param enabled query bool false "Only enabled configurations"
// @Param type query string false "Repository manager type, e.g. GIT"
// @Success 200 {object} router.successResponse{data=[]RemoteConfigResponse} "Configurations"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/deployment/remote-configs [get]
func (h *HTTPEndpoint) ListConfigs(r *router.Request) (any, error) {
	enabled, err := queryBool(r, "enabled")
	if err != nil {
		return nil, err
	}

	configs, err := h.uc.ListConfigs(r.Context(), usecase.ListConfigsInput{
		EnabledOnly: enabled,
		Type:        r.GetQuery("type"),
	})
	if err != nil {
		return nil, err
	}

	return ListResponse(lo.Map(configs, func(c entity.RemoteConfig, _ int) RemoteConfigResponse {
		return toRemoteConfigResponse(c)
	})), nil
}

// GetStatus returns the deployment status of one configuration.
// @Summary Remote configuration status
// @Tags Deployment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Configuration id"
// @Param failed query bool false "Only failed revisions"
// @Success 200 {object} router.successResponse{data=StatusResponse} "Status"
// @Failure 404 {object} router.errorResponse "Configuration not found"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/deployment/remote-configs/{id} [get]
func (h *HTTPEndpoint) GetStatus(r *router.Request) (any, error) {
	failed, err := queryBool(r, "failed")
	if err != nil {
		return nil, err
	}

	st, err := h.uc.GetStatus(r.Context(), usecase.GetStatusInput{
		ID:         r.GetParam("id"),
		FailedOnly: failed,
	})
	if err != nil {
		return nil, err
	}

	return toStatusResponse(st), nil
}

// Trigger starts a deployment of one configuration.
// @Summary Trigger deployment
// @Tags Deployment
// @Security BearerAuth
// @Produce json
// @Param id path string true "Configuration id"
// @Success 202 {object} router.successResponse{data=TriggerResponse} "Deployment triggered"
// @Failure 403 {object} router.errorResponse "Forbidden"
// @Failure 409 {object} router.errorResponse "Deployment already running or just triggered"
// @Failure 502 {object} router.errorResponse "Identity server unreachable"
// @Router /api/v1/deployment/remote-configs/{id}/trigger [post]
func (h *HTTPEndpoint) Trigger(r *router.Request) (any, error) {
	id := r.GetParam("id")
	if err := h.uc.Trigger(r.Context(), usecase.TriggerInput{ID: id}); err != nil {
		return nil, err
	}

	return TriggerResponse{ID: id}, nil
}

func queryBool(r *router.Request, key string) (bool, error) {
	v := r.GetQuery(key)
	if v == "" {
		return false, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return b, nil
}
