package inbound

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/jwt"
)

type stubTranslator map[string]string

func (s stubTranslator) T(lang, key string) string { return s[lang+":"+key] }

func TestStreamAlerts_Unauthenticated(t *testing.T) {
	h := &HTTPEndpoint{uc: &fakeUC{}, trans: stubTranslator{}}

	rec := httptest.NewRecorder()
	h.StreamAlerts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alert/stream", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestStreamAlerts_TranslatesEvents(t *testing.T) {
	// Arrange
	uc := &fakeUC{stream: make(chan entity.Event, 1)}
	h := &HTTPEndpoint{uc: uc, trans: stubTranslator{
		"id:t.title": "Judul",
		"id:t.body":  "Isi",
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var clm jwt.Claims
		clm.Subject = "user-1"
		h.StreamAlerts(w, r.WithContext(jwt.SetAuth(r.Context(), clm)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?lang=id", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	// Act
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	uc.stream <- entity.Event{ID: 5, Owner: "user-1", Severity: entity.SeverityError, TitleKey: "t.title", BodyKey: "t.body"}

	// Assert
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var got AlertResponse
		if err := json.Unmarshal([]byte(data), &got); err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		if got.ID != "5" || got.Severity != "error" || got.Title != "Judul" || got.Body != "Isi" {
			t.Fatalf("unexpected payload %+v", got)
		}
		return
	}
	t.Fatalf("stream ended without data: %v", sc.Err())
}
