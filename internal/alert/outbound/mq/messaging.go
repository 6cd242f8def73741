package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAlert(ctx context.Context, evt entity.Event) error {
	ctx, span := m.ins.Tracer("alert.outbound.mq").Start(ctx, "PublishAlert")
	defer span.End()

	body, err := json.Marshal(event.AlertMessage{
		ID:        evt.ID,
		Owner:     evt.Owner,
		Severity:  event.AlertSeverity(evt.Severity.String()),
		TitleKey:  evt.TitleKey,
		BodyKey:   evt.BodyKey,
		CreatedAt: evt.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.AlertDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(evt.Owner),
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx), "id": strconv.FormatInt(evt.ID, 10)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
