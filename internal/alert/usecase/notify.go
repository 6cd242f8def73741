package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

// Notify raises an alert. It returns immediately; delivery happens in the
// background and is never retried.
func (s *Usecase) Notify(ctx context.Context, in event.Alert) {
	evt := entity.Event{
		ID:        s.uid.Generate(),
		Owner:     in.Owner,
		Severity:  entity.SeverityFromEvent(in.Severity),
		TitleKey:  in.TitleKey,
		BodyKey:   in.BodyKey,
		CreatedAt: s.clock.Now(),
	}

	if evt.Owner == "" || evt.Severity == entity.SeverityUnknown {
		slog.WarnContext(ctx, "alert dropped: missing owner or severity", "title_key", in.TitleKey, "severity", in.Severity)
		s.dropped.Inc()
		return
	}

	// detach from the request so the publish outlives it
	bg := context.WithoutCancel(ctx)
	started := s.goroutine.Go(bg, "alert.publish", func(ctx context.Context) error {
		ctx, span := s.startSpan(ctx, "Notify")
		defer span.End()

		if err := s.repoMessaging.PublishAlert(ctx, evt); err != nil {
			slog.WarnContext(ctx, "failed to publish alert, delivering locally", "alert_id", evt.ID, "error", err)
			s.Deliver(ctx, evt)
		}
		return nil
	})
	if !started {
		s.dropped.Inc()
	}
}
