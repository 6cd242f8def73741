package inbound

import (
	"net/http"

	"github.com/shandysiswandi/iamportal/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc, trans translator) {
	end := &HTTPEndpoint{uc: uc, trans: trans}

	r.GETRaw("/api/v1/alert/stream", http.HandlerFunc(end.StreamAlerts))
}
