package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/internal/domain/consultation"
	"github.com/echomed/echomed/internal/platform/auth"
	"github.com/echomed/echomed/pkg/realtime"
)

type mockMessenger struct {
	sent      []*consultation.Message
	delivered []uuid.UUID
	read      []uuid.UUID
	byUser    []uuid.UUID
}

func (m *mockMessenger) SendMessage(_ context.Context, msg *consultation.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockMessenger) MarkDelivered(_ context.Context, messageID, byUserID uuid.UUID) error {
	m.delivered = append(m.delivered, messageID)
	m.byUser = append(m.byUser, byUserID)
	return nil
}

func (m *mockMessenger) MarkRead(_ context.Context, messageID, byUserID uuid.UUID) error {
	m.read = append(m.read, messageID)
	m.byUser = append(m.byUser, byUserID)
	return nil
}

type mockPresence struct {
	updates map[uuid.UUID]bool
}

func (m *mockPresence) UpdateDoctorStatus(_ context.Context, doctorID uuid.UUID, online bool) error {
	if m.updates == nil {
		m.updates = make(map[uuid.UUID]bool)
	}
	m.updates[doctorID] = online
	return nil
}

func newDispatchHandler() (*Handler, *mockMessenger, *mockPresence, *Hub) {
	hub := newTestHub()
	messages := &mockMessenger{}
	presence := &mockPresence{}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(hub, issuer, messages, presence, zerolog.Nop())
	return h, messages, presence, hub
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDispatch_JoinConsultation(t *testing.T) {
	h, _, _, hub := newDispatchHandler()
	client := newHubClient(hub, "patient-1", TopicDoctors)
	hub.Register(client)

	h.Dispatch(client, realtime.Command{
		Name:           realtime.CmdJoinConsultation,
		ConsultationID: "c1",
	})

	if hub.TopicCount(TopicConsultation("c1")) != 1 {
		t.Fatalf("expected client subscribed to consultation topic, got %d", hub.TopicCount(TopicConsultation("c1")))
	}
}

func TestDispatch_SendMessage_SenderFromToken(t *testing.T) {
	h, messages, _, hub := newDispatchHandler()

	userID := uuid.New()
	consultationID := uuid.New()
	client := &Client{ID: "c", UserID: userID.String(), Role: auth.RolePatient, Send: make(chan []byte, 8), hub: hub}
	hub.Register(client)

	// The payload claims a different sender; the token identity wins.
	payload := realtime.OutgoingMessage{
		SenderID:   uuid.New().String(),
		SenderRole: "doctor",
		Content:    "Hi doctor",
	}
	h.Dispatch(client, realtime.Command{
		Name:           realtime.CmdSendMessage,
		ConsultationID: consultationID.String(),
		Data:           mustMarshal(t, payload),
	})

	if len(messages.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages.sent))
	}
	msg := messages.sent[0]
	if msg.SenderID != userID {
		t.Errorf("expected sender %s, got %s", userID, msg.SenderID)
	}
	if msg.SenderRole != auth.RolePatient {
		t.Errorf("expected sender role patient, got %s", msg.SenderRole)
	}
	if msg.ConsultationID != consultationID {
		t.Errorf("wrong consultation id: %s", msg.ConsultationID)
	}
	if msg.Content != "Hi doctor" {
		t.Errorf("wrong content: %q", msg.Content)
	}
}

func TestDispatch_SendMessage_InvalidConsultationID(t *testing.T) {
	h, messages, _, hub := newDispatchHandler()
	client := &Client{ID: "c", UserID: uuid.New().String(), Role: auth.RolePatient, Send: make(chan []byte, 8), hub: hub}
	hub.Register(client)

	h.Dispatch(client, realtime.Command{
		Name:           realtime.CmdSendMessage,
		ConsultationID: "not-a-uuid",
		Data:           mustMarshal(t, realtime.OutgoingMessage{Content: "hello"}),
	})

	if len(messages.sent) != 0 {
		t.Fatalf("expected no message for invalid consultation id, got %d", len(messages.sent))
	}
}

func TestDispatch_DoctorPresence(t *testing.T) {
	h, _, presence, hub := newDispatchHandler()

	doctorID := uuid.New()
	doctor := &Client{ID: "d", UserID: doctorID.String(), Role: auth.RoleDoctor, Send: make(chan []byte, 8), hub: hub}
	hub.Register(doctor)

	h.Dispatch(doctor, realtime.Command{Name: realtime.CmdDoctorOnline})
	if online, ok := presence.updates[doctorID]; !ok || !online {
		t.Fatal("expected doctor marked online")
	}

	h.Dispatch(doctor, realtime.Command{Name: realtime.CmdDoctorOffline})
	if online := presence.updates[doctorID]; online {
		t.Fatal("expected doctor marked offline")
	}
}

func TestDispatch_PresenceIgnoredForPatients(t *testing.T) {
	h, _, presence, hub := newDispatchHandler()

	patient := &Client{ID: "p", UserID: uuid.New().String(), Role: auth.RolePatient, Send: make(chan []byte, 8), hub: hub}
	hub.Register(patient)

	h.Dispatch(patient, realtime.Command{Name: realtime.CmdDoctorOnline})

	if len(presence.updates) != 0 {
		t.Fatalf("expected no presence updates from a patient, got %d", len(presence.updates))
	}
}

func TestDispatch_StatusAcks(t *testing.T) {
	h, messages, _, hub := newDispatchHandler()

	readerID := uuid.New()
	messageID := uuid.New()
	client := &Client{ID: "r", UserID: readerID.String(), Role: auth.RoleDoctor, Send: make(chan []byte, 8), hub: hub}
	hub.Register(client)

	h.Dispatch(client, realtime.Command{
		Name: realtime.CmdMessageDelivered,
		Data: mustMarshal(t, realtime.MessageStatusUpdate{MessageID: messageID.String()}),
	})
	h.Dispatch(client, realtime.Command{
		Name: realtime.CmdMessageRead,
		Data: mustMarshal(t, realtime.MessageStatusUpdate{MessageID: messageID.String()}),
	})

	if len(messages.delivered) != 1 || messages.delivered[0] != messageID {
		t.Fatalf("expected 1 delivered ack for %s, got %v", messageID, messages.delivered)
	}
	if len(messages.read) != 1 || messages.read[0] != messageID {
		t.Fatalf("expected 1 read ack for %s, got %v", messageID, messages.read)
	}
	for _, by := range messages.byUser {
		if by != readerID {
			t.Errorf("ack attributed to %s, expected %s", by, readerID)
		}
	}
}

func TestHandleConnect_RejectsMissingToken(t *testing.T) {
	h, _, _, _ := newDispatchHandler()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConnect(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandleConnect_RejectsBadToken(t *testing.T) {
	h, _, _, _ := newDispatchHandler()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleConnect(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestHandleConnect_FullUpgradeAndJoin(t *testing.T) {
	hub := newTestHub()
	messages := &mockMessenger{}
	presence := &mockPresence{}
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(hub, issuer, messages, presence, zerolog.Nop())

	patientID := uuid.New()
	token, err := issuer.Issue(patientID.String(), auth.RolePatient)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	e := echo.New()
	h.RegisterRoutes(e)

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token

	dialer := gorillawebsocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client registered, got %d", hub.ClientCount())
	}
	if hub.TopicCount(TopicDoctors) != 1 {
		t.Fatal("expected client auto-subscribed to the doctors topic")
	}

	consultationID := uuid.New().String()
	join := realtime.Command{Name: realtime.CmdJoinConsultation, ConsultationID: consultationID}
	if err := conn.WriteJSON(join); err != nil {
		t.Fatalf("failed to send join: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if hub.TopicCount(TopicConsultation(consultationID)) != 1 {
		t.Fatal("expected client subscribed to the joined consultation")
	}

	// An event published for that consultation reaches the socket.
	hub.Publish(context.Background(), realtime.Event{
		Name:           realtime.EventNewMessage,
		ConsultationID: consultationID,
		Timestamp:      time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received realtime.Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Name != realtime.EventNewMessage {
		t.Fatalf("expected %s, got %s", realtime.EventNewMessage, received.Name)
	}
}
