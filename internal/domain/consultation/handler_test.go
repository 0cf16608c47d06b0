package consultation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/echomed/echomed/internal/platform/auth"
)

func newTestHandler() (*Handler, *echo.Echo) {
	svc, _, _ := newTestService()
	return NewHandler(svc), echo.New()
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID, role string) echo.Context {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	return e.NewContext(req.WithContext(ctx), rec)
}

func TestHandler_CreateConsultation(t *testing.T) {
	h, e := newTestHandler()

	patientID := uuid.New()
	doctorID := uuid.New()
	body := `{"patient_id":"` + patientID.String() + `","doctor_id":"` + doctorID.String() + `","type":"chat"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateConsultation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var cons Consultation
	json.Unmarshal(rec.Body.Bytes(), &cons)
	if cons.Status != StatusPending {
		t.Errorf("expected pending, got %s", cons.Status)
	}
}

func TestHandler_CreateConsultation_BadRequest(t *testing.T) {
	h, e := newTestHandler()

	body := `{"doctor_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateConsultation(c); err == nil {
		t.Error("expected error for missing patient_id")
	}
}

func TestHandler_GetConsultation_ParticipantOnly(t *testing.T) {
	h, e := newTestHandler()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	h.svc.Create(context.Background(), cons)

	// The patient can read their own consultation.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, cons.PatientID.String(), auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(cons.ID.String())

	if err := h.GetConsultation(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	// A stranger cannot.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec2 := httptest.NewRecorder()
	c2 := authedContext(e, req2, rec2, uuid.New().String(), auth.RolePatient)
	c2.SetParamNames("id")
	c2.SetParamValues(cons.ID.String())

	err := h.GetConsultation(c2)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-participant, got %v", err)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	h, e := newTestHandler()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	h.svc.Create(context.Background(), cons)

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"ACTIVE"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, cons.DoctorID.String(), auth.RoleDoctor)
	c.SetParamNames("id")
	c.SetParamValues(cons.ID.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var updated Consultation
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != StatusActive {
		t.Errorf("expected active, got %s", updated.Status)
	}
}

func TestHandler_UpdateStatus_ParticipantOnly(t *testing.T) {
	h, e := newTestHandler()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	h.svc.Create(context.Background(), cons)

	// A third party must not be able to cancel someone else's consultation.
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"cancelled"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, uuid.New().String(), auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(cons.ID.String())

	err := h.UpdateStatus(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-participant, got %v", err)
	}

	got, _ := h.svc.Get(context.Background(), cons.ID)
	if got.Status != StatusPending {
		t.Errorf("status changed by non-participant: %s", got.Status)
	}
}

func TestHandler_SendMessage_SenderFromSession(t *testing.T) {
	h, e := newTestHandler()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	h.svc.Create(context.Background(), cons)
	h.svc.UpdateStatus(context.Background(), cons.ID, "active")

	// The body claims a different sender; the session must win.
	body := `{"content":"Hi doctor","sender_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, cons.PatientID.String(), auth.RolePatient)
	c.SetParamNames("id")
	c.SetParamValues(cons.ID.String())

	if err := h.SendMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var msg Message
	json.Unmarshal(rec.Body.Bytes(), &msg)
	if msg.SenderID != cons.PatientID {
		t.Errorf("sender not taken from session: %s", msg.SenderID)
	}
	if msg.SenderRole != auth.RolePatient {
		t.Errorf("expected sender role patient, got %s", msg.SenderRole)
	}
	if msg.Status != DeliverySent {
		t.Errorf("expected sent, got %s", msg.Status)
	}
}

func TestHandler_UpdateMessageStatus(t *testing.T) {
	h, e := newTestHandler()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	h.svc.Create(context.Background(), cons)
	h.svc.UpdateStatus(context.Background(), cons.ID, "active")

	msg := &Message{ConsultationID: cons.ID, SenderID: cons.PatientID, SenderRole: "patient", Content: "hi"}
	h.svc.SendMessage(context.Background(), msg)

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"read"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, cons.DoctorID.String(), auth.RoleDoctor)
	c.SetParamNames("id")
	c.SetParamValues(msg.ID.String())

	if err := h.UpdateMessageStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
