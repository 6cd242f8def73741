package inbound

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
	"github.com/shandysiswandi/iamportal/internal/pkg/messaging"
	"github.com/shandysiswandi/iamportal/internal/shared/event"
)

type fakeUC struct {
	delivered []entity.Event
	cIDs      []string
	stream    chan entity.Event
}

func (f *fakeUC) Deliver(ctx context.Context, evt entity.Event) {
	f.delivered = append(f.delivered, evt)
	f.cIDs = append(f.cIDs, instrument.GetCorrelationID(ctx))
}

func (f *fakeUC) Subscribe(context.Context, string) <-chan entity.Event {
	return f.stream
}

type fixedUUID string

func (f fixedUUID) Generate() string { return string(f) }

func TestMQHandler_AlertRelay(t *testing.T) {
	body, err := json.Marshal(event.AlertMessage{
		ID:        42,
		Owner:     "user-1",
		Severity:  event.AlertSuccess,
		TitleKey:  "mfa.totp.verifySuccess.title",
		BodyKey:   "mfa.totp.verifySuccess.body",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	tests := []struct {
		name    string
		msg     messaging.Message
		wantLen int
		wantCID string
		wantSev entity.Severity
		wantOwn string
	}{
		{
			name:    "with correlation id",
			msg:     messaging.Message{Body: body, Headers: map[string]string{"cID": "c-9"}},
			wantLen: 1, wantCID: "c-9", wantSev: entity.SeveritySuccess, wantOwn: "user-1",
		},
		{
			name:    "generates correlation id",
			msg:     messaging.Message{Body: body},
			wantLen: 1, wantCID: "gen", wantSev: entity.SeveritySuccess, wantOwn: "user-1",
		},
		{
			name:    "bad json is acknowledged",
			msg:     messaging.Message{Body: []byte("{")},
			wantLen: 0,
		},
		{
			name:    "unknown severity ignored",
			msg:     messaging.Message{Body: []byte(`{"id":"1","owner":"u","severity":"loud"}`)},
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUC{}
			h := &MQHandler{uc: uc, uuid: fixedUUID("gen"), ins: instrument.NewNoop()}

			if err := h.AlertRelay(context.Background(), tt.msg); err != nil {
				t.Fatalf("AlertRelay returned %v", err)
			}

			if len(uc.delivered) != tt.wantLen {
				t.Fatalf("delivered = %d, want %d", len(uc.delivered), tt.wantLen)
			}
			if tt.wantLen == 0 {
				return
			}
			got := uc.delivered[0]
			if got.ID != 42 || got.Owner != tt.wantOwn || got.Severity != tt.wantSev {
				t.Fatalf("unexpected event %+v", got)
			}
			if uc.cIDs[0] != tt.wantCID {
				t.Fatalf("correlation id = %q, want %q", uc.cIDs[0], tt.wantCID)
			}
		})
	}
}
