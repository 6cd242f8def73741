package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/iamportal/internal/governance/entity"
	pkgbackend "github.com/shandysiswandi/iamportal/internal/pkg/backend"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/instrument"
)

func newBackend(t *testing.T, h http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := pkgbackend.New(pkgbackend.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("backend.New: %v", err)
	}
	return New(c, "", instrument.NewNoop())
}

func TestBackend_GetConnector(t *testing.T) {
	// Arrange
	var gotPath string
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"id":"cGFzc3dvcmRFeHBpcnk","name":"passwordExpiry","category":"Password Policies",
			"friendlyName":"Password Expiry","order":1,
			"properties":[{"name":"passwordExpiry.enablePasswordExpiry","value":"true","displayName":"Enable"}]}`))
	})

	// Act
	got, err := b.GetConnector(context.Background(), "UGFzc3dvcmQgUG9saWNpZXM", "cGFzc3dvcmRFeHBpcnk")

	// Assert
	if err != nil {
		t.Fatalf("GetConnector() error: %v", err)
	}
	if gotPath != "/api/server/v1/identity-governance/UGFzc3dvcmQgUG9saWNpZXM/connectors/cGFzc3dvcmRFeHBpcnk" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if got.FriendlyName != "Password Expiry" || len(got.Properties) != 1 || got.Properties[0].DisplayName != "Enable" {
		t.Fatalf("unexpected connector %+v", got)
	}
}

func TestBackend_GetConnectorNotFound(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := b.GetConnector(context.Background(), "c", "x")

	if !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("GetConnector() error = %v, want ErrNotFound", err)
	}
}

func TestBackend_UpdateConnector(t *testing.T) {
	// Arrange
	var method string
	var body updateModel
	b := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	})

	// Act
	err := b.UpdateConnector(context.Background(), "c", "x", []entity.Property{
		{Name: entity.PropExpiryDays, Value: "45", DisplayName: "ignored"},
	})

	// Assert
	if err != nil {
		t.Fatalf("UpdateConnector() error: %v", err)
	}
	if method != http.MethodPatch || body.Operation != "UPDATE" {
		t.Fatalf("unexpected request %s %+v", method, body)
	}
	if len(body.Properties) != 1 || body.Properties[0].Name != entity.PropExpiryDays || body.Properties[0].DisplayName != "" {
		t.Fatalf("unexpected properties %+v", body.Properties)
	}
}

func TestBackend_UpdateConnectorServerError(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := b.UpdateConnector(context.Background(), "c", "x", nil)

	if !pkgbackend.IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("UpdateConnector() error = %v, want status 500", err)
	}
}

func TestBackend_UpdateConnectorRejected(t *testing.T) {
	b := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"IDG-50000","message":"Invalid regex"}`))
	})

	err := b.UpdateConnector(context.Background(), "c", "x", []entity.Property{{Name: entity.PropPolicyPattern, Value: "(?<="}})

	if !goerror.IsCode(err, goerror.CodeInvalidInput) {
		t.Fatalf("UpdateConnector() error = %v, want invalid input", err)
	}
}
