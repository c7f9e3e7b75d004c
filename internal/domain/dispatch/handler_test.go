package dispatch

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/zynd/dispatch/internal/domain/triage"
)

func newTestContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandlerCreateCase(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	c, rec := newTestContext(e, http.MethodPost, "/cases",
		`{"patient_name":"Ada","symptoms":"chest pain","latitude":40,"longitude":-74}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created Case
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != StatusActive {
		t.Errorf("status = %s", created.Status)
	}
}

func TestHandlerCreateRejectsEmptyBody(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := newTestContext(e, http.MethodPost, "/cases", `{}`)
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandlerAssignNoAmbulance(t *testing.T) {
	f := newFixture()
	kase := seedCase(f, "dizzy", triage.SeverityMedium)
	h := NewHandler(f.svc)
	e := echo.New()

	c, rec := newTestContext(e, http.MethodPost, "/cases/"+kase.ID.String()+"/assign", "")
	c.SetParamNames("id")
	c.SetParamValues(kase.ID.String())

	if err := h.Assign(c); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "no ambulance available" {
		t.Errorf("body = %v", body)
	}
}

func TestHandlerUpdateStatusBadValue(t *testing.T) {
	f := newFixture()
	kase := seedCase(f, "dizzy", triage.SeverityMedium)
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := newTestContext(e, http.MethodPut, "/cases/"+kase.ID.String()+"/status", `{"status":"warp"}`)
	c.SetParamNames("id")
	c.SetParamValues(kase.ID.String())

	err := h.UpdateStatus(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandlerVerifyAudit(t *testing.T) {
	f := newFixture()
	kase := seedCase(f, "dizzy", triage.SeverityMedium)
	h := NewHandler(f.svc)
	e := echo.New()

	c, rec := newTestContext(e, http.MethodGet, "/cases/"+kase.ID.String()+"/audit/verify", "")
	c.SetParamNames("id")
	c.SetParamValues(kase.ID.String())

	if err := h.VerifyAudit(c); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["valid"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestHandlerGetUnknownCase(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	c, _ := newTestContext(e, http.MethodGet, "/cases/"+uuid.NewString(), "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
