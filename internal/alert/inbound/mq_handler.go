package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// AlertRelay fans a broker alert out to this instance's subscribers. Bad
// payloads are logged and acknowledged; alerts are never redelivered.
func (h *MQHandler) AlertRelay(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("alert.inbound.mq").Start(ctx, "AlertRelay")
	defer span.End()

	var payload event.AlertMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse alert message body", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	sev := entity.SeverityFromEvent(payload.Severity)
	if payload.Owner == "" || sev == entity.SeverityUnknown {
		slog.WarnContext(ctx, "alert message without owner or severity ignored", "alert_id", payload.ID)
		return nil
	}

	h.uc.Deliver(instrument.SetOwner(ctx, payload.Owner), entity.Event{
		ID:        payload.ID,
		Owner:     payload.Owner,
		Severity:  sev,
		TitleKey:  payload.TitleKey,
		BodyKey:   payload.BodyKey,
		CreatedAt: payload.CreatedAt,
	})

	return nil
}
