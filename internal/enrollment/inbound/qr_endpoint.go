package inbound

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/iamportal/internal/enrollment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
)

// QRCode renders the current scannable code as a PNG.
// @Summary TOTP QR code
// @Tags Enrollment
// @Security BearerAuth
// @Produce png
// @Param size query int false "Edge length in pixels (64-1024)"
// @Success 200 {file} binary "QR code"
// @Failure 404 {string} string "No enrollment in progress"
// @Router /api/v1/enrollment/totp/qr.png [get]
func (h *HTTPEndpoint) QRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var size int
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid query size", http.StatusBadRequest)
			return
		}
		size = n
	}

	out, err := h.uc.QRCode(ctx, usecase.QRCodeInput{Size: size})
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Internal server error"
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			status, msg = gerr.StatusCode(), gerr.Msg()
		}
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PNG)))
	if _, err := w.Write(out.PNG); err != nil {
		slog.WarnContext(ctx, "failed to write qr code", "error", err)
	}
}
