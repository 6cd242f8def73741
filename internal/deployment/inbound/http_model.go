package inbound

import (
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
)

type RemoteConfigResponse struct {
	ID                        string     `json:"id"`
	Enabled                   bool       `json:"enabled"`
	RepositoryManagerType     string     `json:"repository_manager_type"`
	ActionListenerType        string     `json:"action_listener_type,omitempty"`
	ConfigurationDeployerType string     `json:"configuration_deployer_type,omitempty"`
	RepositoryURI             string     `json:"repository_uri,omitempty"`
	SuccessfulDeployments     int        `json:"successful_deployments"`
	FailedDeployments         int        `json:"failed_deployments"`
	LastDeployed              *time.Time `json:"last_deployed,omitempty"`
}

type RevisionResponse struct {
	ItemName    string     `json:"item_name"`
	Status      string     `json:"status"`
	DeployedAt  *time.Time `json:"deployed_at,omitempty"`
	ErrorReport string     `json:"error_report,omitempty"`
}

type StatusResponse struct {
	RemoteConfigResponse
	LastSynchronized *time.Time         `json:"last_synchronized,omitempty"`
	Revisions        []RevisionResponse `json:"revisions"`
}

type ListResponse []RemoteConfigResponse

func (ListResponse) Message() string { return "remote configurations" }

// Meta reports the number of returned configurations.
func (l ListResponse) Meta() map[string]any {
	return map[string]any{"count": len(l)}
}

type TriggerResponse struct {
	ID string `json:"id"`
}

func (TriggerResponse) StatusCode() int { return http.StatusAccepted }

func (TriggerResponse) Message() string { return "deployment triggered" }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toRemoteConfigResponse(c entity.RemoteConfig) RemoteConfigResponse {
	return RemoteConfigResponse{
		ID:                        c.ID,
		Enabled:                   c.Enabled,
		RepositoryManagerType:     c.RepositoryManagerType,
		ActionListenerType:        c.ActionListenerType,
		ConfigurationDeployerType: c.ConfigurationDeployerType,
		RepositoryURI:             c.RepositoryURI,
		SuccessfulDeployments:     c.SuccessfulDeployments,
		FailedDeployments:         c.FailedDeployments,
		LastDeployed:              timePtr(c.LastDeployed),
	}
}

func toStatusResponse(st *entity.Status) StatusResponse {
	return StatusResponse{
		RemoteConfigResponse: toRemoteConfigResponse(st.RemoteConfig),
		LastSynchronized:     timePtr(st.LastSynchronized),
		Revisions: lo.Map(st.Revisions, func(r entity.Revision, _ int) RevisionResponse {
			return RevisionResponse{
				ItemName:    r.ItemName,
				Status:      string(r.Status),
				DeployedAt:  timePtr(r.DeployedAt),
				ErrorReport: r.ErrorReport,
			}
		}),
	}
}
