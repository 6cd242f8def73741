package inbound

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/goroutine"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/pkg/uid"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

// ConsumerGroup returns the group this instance consumes alerts with. An
// explicit modules.alert.consumer_group wins (Pub/Sub needs a real
// subscription name); otherwise the host name keeps groups distinct.
func ConsumerGroup(cfg config.Config) string {
	if g := cfg.GetString("modules.alert.consumer_group"); g != "" {
		return g
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return event.AlertConsumerGroup + "_" + host
}

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Messaging,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	h := &MQHandler{uc: uc, uuid: uuid, ins: ins}
	group := ConsumerGroup(cfg)

	concurrency := cfg.GetInt("modules.alert.consumer_concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	routine.Go(ctx, "alert.consumer", func(pCtx context.Context) error {
		slog.InfoContext(ctx, "running alert relay consumer", "topic", event.AlertDestination, "group", group)
		return messenger.Consume(pCtx,
			event.AlertDestination,
			h.AlertRelay,
			messaging.WithGroup(group),
			messaging.WithConcurrency(concurrency),
		)
	})
}
