package consultation

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/pkg/realtime"
)

// -- Mock Repository --

type mockRepo struct {
	consultations map[uuid.UUID]*Consultation
	messages      map[uuid.UUID]*Message
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		consultations: make(map[uuid.UUID]*Consultation),
		messages:      make(map[uuid.UUID]*Message),
	}
}

func (m *mockRepo) Create(_ context.Context, cons *Consultation) error {
	cons.ID = uuid.New()
	cons.CreatedAt = time.Now()
	cons.UpdatedAt = time.Now()
	m.consultations[cons.ID] = cons
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	cons, ok := m.consultations[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return cons, nil
}

func (m *mockRepo) Update(_ context.Context, cons *Consultation) error {
	m.consultations[cons.ID] = cons
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Consultation, int, error) {
	var result []*Consultation
	for _, cons := range m.consultations {
		result = append(result, cons)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var result []*Consultation
	for _, cons := range m.consultations {
		if cons.PatientID == patientID {
			result = append(result, cons)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	var result []*Consultation
	for _, cons := range m.consultations {
		if cons.DoctorID == doctorID {
			result = append(result, cons)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateMessage(_ context.Context, msg *Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockRepo) GetMessage(_ context.Context, id uuid.UUID) (*Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return msg, nil
}

func (m *mockRepo) UpdateMessageStatus(_ context.Context, id uuid.UUID, status DeliveryStatus) error {
	msg, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	msg.Status = status
	return nil
}

func (m *mockRepo) ListMessages(_ context.Context, consultationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	var result []*Message
	for _, msg := range m.messages {
		if msg.ConsultationID == consultationID {
			result = append(result, msg)
		}
	}
	return result, len(result), nil
}

// -- Mock Publisher --

type mockPublisher struct {
	events []realtime.Event
}

func (m *mockPublisher) Publish(_ context.Context, event realtime.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) byName(name string) []realtime.Event {
	var result []realtime.Event
	for _, ev := range m.events {
		if ev.Name == name {
			result = append(result, ev)
		}
	}
	return result
}

func newTestService() (*Service, *mockRepo, *mockPublisher) {
	repo := newMockRepo()
	pub := &mockPublisher{}
	return NewService(repo, pub, zerolog.Nop()), repo, pub
}

func activeConsultation(t *testing.T, svc *Service) *Consultation {
	t.Helper()
	cons := &Consultation{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Type:      TypeChat,
	}
	if err := svc.Create(context.Background(), cons); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), cons.ID, "active"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	return cons
}

// -- Tests --

func TestCreate_DefaultsAndEvent(t *testing.T) {
	svc, _, pub := newTestService()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	if err := svc.Create(context.Background(), cons); err != nil {
		t.Fatalf("create: %v", err)
	}

	if cons.Status != StatusPending {
		t.Errorf("expected default status pending, got %s", cons.Status)
	}
	if cons.Type != TypeChat {
		t.Errorf("expected default type chat, got %s", cons.Type)
	}
	if got := pub.byName(realtime.EventNewConsultation); len(got) != 1 {
		t.Errorf("expected 1 new-consultation event, got %d", len(got))
	}
}

func TestCreate_RequiresParticipants(t *testing.T) {
	svc, _, _ := newTestService()

	if err := svc.Create(context.Background(), &Consultation{DoctorID: uuid.New()}); err == nil {
		t.Error("expected error for missing patient_id")
	}
	if err := svc.Create(context.Background(), &Consultation{PatientID: uuid.New()}); err == nil {
		t.Error("expected error for missing doctor_id")
	}
}

func TestUpdateStatus_ValidTransitions(t *testing.T) {
	svc, _, pub := newTestService()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	svc.Create(context.Background(), cons)

	// Upper-case input must be accepted.
	updated, err := svc.UpdateStatus(context.Background(), cons.ID, "ACTIVE")
	if err != nil {
		t.Fatalf("pending->active: %v", err)
	}
	if updated.Status != StatusActive {
		t.Errorf("expected active, got %s", updated.Status)
	}

	if _, err := svc.UpdateStatus(context.Background(), cons.ID, "completed"); err != nil {
		t.Fatalf("active->completed: %v", err)
	}

	if got := pub.byName(realtime.EventConsultationUpdated); len(got) != 2 {
		t.Errorf("expected 2 consultation-updated events, got %d", len(got))
	}
}

func TestUpdateStatus_RejectsInvalidTransitions(t *testing.T) {
	svc, _, _ := newTestService()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	svc.Create(context.Background(), cons)

	if _, err := svc.UpdateStatus(context.Background(), cons.ID, "completed"); err == nil {
		t.Error("expected error for pending->completed")
	}

	svc.UpdateStatus(context.Background(), cons.ID, "cancelled")
	if _, err := svc.UpdateStatus(context.Background(), cons.ID, "active"); err == nil {
		t.Error("expected error for transition out of terminal state")
	}
}

func TestSendMessage_HiDoctor(t *testing.T) {
	svc, _, pub := newTestService()
	cons := activeConsultation(t, svc)

	msg := &Message{
		ConsultationID: cons.ID,
		SenderID:       cons.PatientID,
		SenderRole:     "patient",
		Content:        "Hi doctor",
	}
	if err := svc.SendMessage(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	if msg.Status != DeliverySent {
		t.Errorf("expected status sent immediately, got %s", msg.Status)
	}
	if msg.ContentType != ContentText {
		t.Errorf("expected default content type text, got %s", msg.ContentType)
	}
	if got := pub.byName(realtime.EventNewMessage); len(got) != 1 {
		t.Fatalf("expected 1 new-message event, got %d", len(got))
	}

	// The doctor's client acknowledges delivery.
	if err := svc.MarkDelivered(context.Background(), msg.ID, cons.DoctorID); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	stored, _ := svc.repo.GetMessage(context.Background(), msg.ID)
	if stored.Status != DeliveryDelivered {
		t.Errorf("expected delivered after ack, got %s", stored.Status)
	}
	if got := pub.byName(realtime.EventMessageStatus); len(got) != 1 {
		t.Errorf("expected 1 message-status event, got %d", len(got))
	}
}

func TestSendMessage_RequiresActiveConsultation(t *testing.T) {
	svc, _, _ := newTestService()

	cons := &Consultation{PatientID: uuid.New(), DoctorID: uuid.New()}
	svc.Create(context.Background(), cons)

	err := svc.SendMessage(context.Background(), &Message{
		ConsultationID: cons.ID,
		SenderID:       cons.PatientID,
		Content:        "hello",
	})
	if err == nil {
		t.Error("expected error for messaging a pending consultation")
	}
}

func TestSendMessage_RejectsNonParticipant(t *testing.T) {
	svc, _, _ := newTestService()
	cons := activeConsultation(t, svc)

	err := svc.SendMessage(context.Background(), &Message{
		ConsultationID: cons.ID,
		SenderID:       uuid.New(),
		Content:        "hello",
	})
	if err == nil {
		t.Error("expected error for non-participant sender")
	}
}

func TestAdvanceDelivery_SenderCannotAdvance(t *testing.T) {
	svc, _, _ := newTestService()
	cons := activeConsultation(t, svc)

	msg := &Message{ConsultationID: cons.ID, SenderID: cons.PatientID, Content: "hi"}
	svc.SendMessage(context.Background(), msg)

	if err := svc.MarkDelivered(context.Background(), msg.ID, cons.PatientID); err == nil {
		t.Error("expected error when sender advances own message")
	}
	if err := svc.MarkRead(context.Background(), msg.ID, cons.PatientID); err == nil {
		t.Error("expected error when sender marks own message read")
	}
}

func TestAdvanceDelivery_NeverRegresses(t *testing.T) {
	svc, repo, _ := newTestService()
	cons := activeConsultation(t, svc)

	msg := &Message{ConsultationID: cons.ID, SenderID: cons.PatientID, Content: "hi"}
	svc.SendMessage(context.Background(), msg)

	if err := svc.MarkRead(context.Background(), msg.ID, cons.DoctorID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	// A late delivery ack must not pull the status back from read.
	if err := svc.MarkDelivered(context.Background(), msg.ID, cons.DoctorID); err != nil {
		t.Fatalf("late delivered ack errored: %v", err)
	}
	stored, _ := repo.GetMessage(context.Background(), msg.ID)
	if stored.Status != DeliveryRead {
		t.Errorf("status regressed to %s", stored.Status)
	}
}

// Random sequences of delivered/read acknowledgments across many messages:
// per-message status must be monotonic throughout.
func TestAdvanceDelivery_MonotonicUnderRandomAcks(t *testing.T) {
	svc, repo, _ := newTestService()
	cons := activeConsultation(t, svc)
	rng := rand.New(rand.NewSource(99))

	var ids []uuid.UUID
	for i := 0; i < 10; i++ {
		msg := &Message{ConsultationID: cons.ID, SenderID: cons.PatientID, Content: "m"}
		if err := svc.SendMessage(context.Background(), msg); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		ids = append(ids, msg.ID)
	}

	lastRank := make(map[uuid.UUID]int)
	for _, id := range ids {
		lastRank[id] = deliveryRank[DeliverySent]
	}

	for step := 0; step < 300; step++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(2) == 0 {
			svc.MarkDelivered(context.Background(), id, cons.DoctorID)
		} else {
			svc.MarkRead(context.Background(), id, cons.DoctorID)
		}

		stored, _ := repo.GetMessage(context.Background(), id)
		rank := deliveryRank[stored.Status]
		if rank < lastRank[id] {
			t.Fatalf("step %d: message %s regressed from rank %d to %d (%s)",
				step, id, lastRank[id], rank, stored.Status)
		}
		lastRank[id] = rank
	}
}
