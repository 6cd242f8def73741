package router

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shandysiswandi/iamportal/internal/pkg/config"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "true client ip first", headers: map[string]string{"True-Client-IP": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, remote: "9.9.9.9:1", want: "1.1.1.1"},
		{name: "first forwarded hop", headers: map[string]string{"X-Forwarded-For": "3.3.3.3, 10.0.0.1"}, remote: "9.9.9.9:1", want: "3.3.3.3"},
		{name: "garbage header falls through", headers: map[string]string{"X-Real-IP": "nope"}, remote: "9.9.9.9:1", want: "9.9.9.9"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
		{name: "unparseable remote", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := clientIP(req); got != tt.want {
				t.Fatalf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIncomingCorrelationID(t *testing.T) {
	long := strings.Repeat("a", maxCorrelationIDLen+10)

	tests := []struct {
		name string
		h    http.Header
		want string
	}{
		{name: "none", h: http.Header{}, want: ""},
		{name: "canonical", h: http.Header{HeaderCorrelationID: {" abc "}}, want: "abc"},
		{name: "request id fallback", h: http.Header{HeaderRequestID: {"req-1"}}, want: "req-1"},
		{name: "header injection rejected", h: http.Header{HeaderCorrelationID: {"a\r\nb"}, HeaderRequestID: {"req-2"}}, want: "req-2"},
		{name: "truncated", h: http.Header{HeaderCorrelationID: {long}}, want: long[:maxCorrelationIDLen]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := incomingCorrelationID(tt.h); got != tt.want {
				t.Fatalf("incomingCorrelationID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMaintenanceRules(t *testing.T) {
	rules := parseMaintenance([]string{
		"/api/v1/enrollment/totp/open",
		"put /api/v1/governance/*",
		"  ",
	})

	tests := []struct {
		method string
		route  string
		want   bool
	}{
		{method: http.MethodPost, route: "/api/v1/enrollment/totp/open", want: true},
		{method: http.MethodPost, route: "/api/v1/enrollment/totp/submit", want: false},
		{method: http.MethodPut, route: "/api/v1/governance/password-expiry", want: true},
		{method: http.MethodGet, route: "/api/v1/governance/password-expiry", want: false},
	}

	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			got := false
			for _, r := range rules {
				got = got || r.matches(tt.method, tt.route)
			}
			if got != tt.want {
				t.Fatalf("blocked = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMiddlewareMaintenance_ReloadsAndSparesHealth(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  maintenance:\n    endpoints: \"*\"\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	h := middlewareMaintenance(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	// Act
	blocked := httptest.NewRecorder()
	h.ServeHTTP(blocked, httptest.NewRequest(http.MethodGet, "/api/v1/deployment/remote-configs", nil))
	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	if blocked.Code != http.StatusServiceUnavailable {
		t.Fatalf("blocked status = %d, want 503", blocked.Code)
	}
	if health.Code != http.StatusTeapot {
		t.Fatalf("health status = %d, want passthrough", health.Code)
	}
}

func TestHTTPObserver_MasksQueryToken(t *testing.T) {
	o := newHTTPObserver(nil, instrument.NewNoop())
	u, _ := url.Parse("/api/v1/alert/stream?access_token=secret&lang=id")

	got := o.maskURI(u)

	if strings.Contains(got, "secret") {
		t.Fatalf("maskURI() = %q leaks the token", got)
	}
	if !strings.Contains(got, "lang=id") {
		t.Fatalf("maskURI() = %q dropped other params", got)
	}
}

func TestRecorder_SkipsBinaryBodies(t *testing.T) {
	// Arrange
	base := httptest.NewRecorder()
	rec := &recorder{ResponseWriter: base, capture: true}
	rec.Header().Set("Content-Type", "image/png")

	// Act
	_, _ = rec.Write([]byte{0x89, 'P', 'N', 'G'})

	// Assert
	if rec.body.Len() != 0 {
		t.Fatalf("captured %d bytes of a png", rec.body.Len())
	}
	if rec.written != 4 || base.Body.Len() != 4 {
		t.Fatalf("written = %d, forwarded = %d, want 4", rec.written, base.Body.Len())
	}
}
