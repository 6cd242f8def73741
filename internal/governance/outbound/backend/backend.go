package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	pkgbackend "github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBasePath is the identity-governance resource on the identity server.
const DefaultBasePath = "/api/server/v1/identity-governance"

const rejectedMessage = "Properties were rejected by the identity server"

type client interface {
	Get(ctx context.Context, path string, out any) error
	Patch(ctx context.Context, path string, in, out any) error
}

type propertyModel struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

type connectorModel struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	FriendlyName string          `json:"friendlyName"`
	Order        int             `json:"order"`
	Properties   []propertyModel `json:"properties"`
}

type updateModel struct {
	Operation  string          `json:"operation"`
	Properties []propertyModel `json:"properties"`
}

// Backend reads and updates governance connectors.
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

func (b *Backend) startSpan(ctx context.Context, name string, category, connector string) (context.Context, trace.Span) {
	return b.ins.Tracer("governance.outbound.backend").Start(ctx, name, trace.WithAttributes(
		attribute.String("governance.category", category),
		attribute.String("governance.connector", connector),
	))
}

func (b *Backend) path(category, connector string) string {
	return b.basePath + "/" + url.PathEscape(category) + "/connectors/" + url.PathEscape(connector)
}

func (b *Backend) GetConnector(ctx context.Context, category, connector string) (*entity.Connector, error) {
	ctx, span := b.startSpan(ctx, "GetConnector", category, connector)
	defer span.End()

	var resp connectorModel
	if err := b.client.Get(ctx, b.path(category, connector), &resp); err != nil {
		if pkgbackend.IsStatus(err, http.StatusNotFound) {
			return nil, goerror.ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &entity.Connector{
		ID:           resp.ID,
		Name:         resp.Name,
		FriendlyName: resp.FriendlyName,
		Category:     resp.Category,
		Order:        resp.Order,
		Properties: lo.Map(resp.Properties, func(p propertyModel, _ int) entity.Property {
			return entity.Property{Name: p.Name, Value: p.Value, DisplayName: p.DisplayName, Description: p.Description}
		}),
	}, nil
}

func (b *Backend) UpdateConnector(ctx context.Context, category, connector string, props []entity.Property) error {
	ctx, span := b.startSpan(ctx, "UpdateConnector", category, connector)
	defer span.End()

	body := updateModel{
		Operation: "UPDATE",
		Properties: lo.Map(props, func(p entity.Property, _ int) propertyModel {
			return propertyModel{Name: p.Name, Value: p.Value}
		}),
	}

	if err := b.client.Patch(ctx, b.path(category, connector), body, nil); err != nil {
		switch {
		case pkgbackend.IsStatus(err, http.StatusNotFound):
			return goerror.ErrNotFound
		case pkgbackend.IsStatus(err, http.StatusBadRequest):
			return goerror.NewInvalidInput(nil, "properties", rejectedMessage)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
