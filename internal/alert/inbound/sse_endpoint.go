package inbound

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

const heartbeatInterval = 25 * time.Second

// HTTPEndpoint exposes the alert stream.
type HTTPEndpoint struct {
	uc    uc
	trans translator
}

// StreamAlerts streams the caller's alerts, translated for the client.
// @Summary Stream alerts
// @Description Streams success, info and error toasts using Server-Sent Events (SSE). The language comes from ?lang= or Accept-Language.
// @Tags Alert
// @Security BearerAuth
// @Produce text/event-stream
// @Param lang query string false "Language tag (en, id)"
// @Success 200 {string} string "SSE stream"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "streaming unsupported"
// @Router /api/v1/alert/stream [get]
func (h *HTTPEndpoint) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := jwt.GetAuth(ctx)
	if claims == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		slog.ErrorContext(ctx, "failed to send response connected", "error", err)
		return
	}
	flusher.Flush()

	lang := (&router.Request{Request: r}).Language()
	stream := h.uc.Subscribe(ctx, claims.Owner())

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		// heartbeat so proxies keep the connection open
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case evt, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(AlertResponse{
				ID:        strconv.FormatInt(evt.ID, 10),
				Severity:  evt.Severity.String(),
				TitleKey:  evt.TitleKey,
				BodyKey:   evt.BodyKey,
				Title:     h.trans.T(lang, evt.TitleKey),
				Body:      h.trans.T(lang, evt.BodyKey),
				CreatedAt: evt.CreatedAt,
			})
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal alert", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: alert\ndata: %s\n\n", evt.ID, payload); err != nil {
				slog.ErrorContext(ctx, "failed to send alert", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
