package router

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/shandysiswandi/iamportal/internal/pkg/config"
)

// maintenanceRule blocks one route, or every route under a prefix when the
// configured entry ends in "*". An empty method matches all methods.
type maintenanceRule struct {
	method string
	route  string
	prefix bool
}

func (m maintenanceRule) matches(method, route string) bool {
	if m.method != "" && m.method != method {
		return false
	}
	if m.prefix {
		return strings.HasPrefix(route, m.route)
	}
	return route == m.route
}

// parseMaintenance reads entries such as "/api/v1/enrollment/totp/open",
// "PUT /api/v1/governance/*" or "*" (everything but the health check).
func parseMaintenance(entries []string) []maintenanceRule {
	rules := make([]maintenanceRule, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}

		var rule maintenanceRule
		if method, route, ok := strings.Cut(e, " "); ok {
			rule.method = strings.ToUpper(strings.TrimSpace(method))
			e = strings.TrimSpace(route)
		}
		rule.route, rule.prefix = strings.CutSuffix(e, "*")
		rules = append(rules, rule)
	}
	return rules
}

// middlewareMaintenance answers 503 for blocked routes. The rule set follows
// app.maintenance.endpoints and is swapped in place when the config reloads.
func middlewareMaintenance(cfg config.Config) Middleware {
	var rules atomic.Pointer[[]maintenanceRule]
	load := func() {
		var entries []string
		if cfg != nil {
			entries = cfg.GetArray("app.maintenance.endpoints")
		}
		parsed := parseMaintenance(entries)
		rules.Store(&parsed)
	}
	load()
	if cfg != nil {
		cfg.OnChange(load)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			if route != "/health" {
				for _, rule := range *rules.Load() {
					if rule.matches(r.Method, route) {
						writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
						return
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
