package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/deployment/entity"
	pkgbackend "github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBasePath is the remote-fetch resource on the identity server.
const DefaultBasePath = "/api/server/v1/remote-fetch"

type client interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
}

type repositoryAttributes struct {
	URI string `json:"uri"`
}

type configModel struct {
	ID                          string               `json:"id"`
	IsEnabled                   bool                 `json:"isEnabled"`
	RepositoryManagerType       string               `json:"repositoryManagerType"`
	ActionListenerType          string               `json:"actionListenerType"`
	ConfigurationDeployerType   string               `json:"configurationDeployerType"`
	RepositoryManagerAttributes repositoryAttributes `json:"repositoryManagerAttributes"`
	SuccessfulDeployments       int                  `json:"successfulDeployments"`
	FailedDeployments           int                  `json:"failedDeployments"`
	LastDeployed                string               `json:"lastDeployed"`
}

type listModel struct {
	Count          int           `json:"count"`
	Configurations []configModel `json:"remotefetchConfigurations"`
}

type revisionModel struct {
	ItemName              string `json:"itemName"`
	DeployedStatus        string `json:"deployedStatus"`
	DeployedTime          string `json:"deployedTime"`
	DeploymentErrorReport string `json:"deploymentErrorReport"`
}

type statusModel struct {
	configModel
	LastSynchronizedTime string          `json:"lastSynchronizedTime"`
	Revisions            []revisionModel `json:"remoteFetchRevisionStatuses"`
}

// Backend reads remote configurations and triggers their deployment.
type Backend struct {
	client   client
	basePath string
	ins      instrument.Instrumentation
}

func New(c client, basePath string, ins instrument.Instrumentation) *Backend {
	if strings.TrimSpace(basePath) == "" {
		basePath = DefaultBasePath
	}
	return &Backend{client: c, basePath: strings.TrimRight(basePath, "/"), ins: ins}
}

func (b *Backend) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return b.ins.Tracer("deployment.outbound.backend").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (b *Backend) ListConfigs(ctx context.Context) ([]entity.RemoteConfig, error) {
	ctx, span := b.startSpan(ctx, "ListConfigs")
	defer span.End()

	var resp listModel
	if err := b.client.Get(ctx, b.basePath, &resp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return lo.Map(resp.Configurations, func(m configModel, _ int) entity.RemoteConfig {
		return m.toEntity()
	}), nil
}

func (b *Backend) GetStatus(ctx context.Context, id string) (*entity.Status, error) {
	ctx, span := b.startSpan(ctx, "GetStatus", attribute.String("deployment.id", id))
	defer span.End()

	var resp statusModel
	if err := b.client.Get(ctx, b.basePath+"/"+url.PathEscape(id), &resp); err != nil {
		if pkgbackend.IsStatus(err, http.StatusNotFound) {
			return nil, goerror.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	revs := lo.Map(resp.Revisions, func(m revisionModel, _ int) entity.Revision {
		return entity.Revision{
			ItemName:    m.ItemName,
			Status:      entity.DeployStatus(strings.ToUpper(m.DeployedStatus)),
			DeployedAt:  parseTime(m.DeployedTime),
			ErrorReport: m.DeploymentErrorReport,
		}
	})

	st := entity.NewStatus(resp.configModel.toEntity(), parseTime(resp.LastSynchronizedTime), revs)
	return &st, nil
}

func (b *Backend) Trigger(ctx context.Context, id string) error {
	ctx, span := b.startSpan(ctx, "Trigger", attribute.String("deployment.id", id))
	defer span.End()

	if err := b.client.Post(ctx, b.basePath+"/"+url.PathEscape(id)+"/trigger", nil, nil); err != nil {
		if pkgbackend.IsStatus(err, http.StatusNotFound) {
			return goerror.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m configModel) toEntity() entity.RemoteConfig {
	return entity.RemoteConfig{
		ID:                        m.ID,
		Enabled:                   m.IsEnabled,
		RepositoryManagerType:     m.RepositoryManagerType,
		ActionListenerType:        m.ActionListenerType,
		ConfigurationDeployerType: m.ConfigurationDeployerType,
		RepositoryURI:             m.RepositoryManagerAttributes.URI,
		SuccessfulDeployments:     m.SuccessfulDeployments,
		FailedDeployments:         m.FailedDeployments,
		LastDeployed:              parseTime(m.LastDeployed),
	}
}

// parseTime accepts RFC 3339 with or without fractional seconds. Anything
// else is reported as the zero time.
func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}
	}
	return t
}
