package consultation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/pkg/realtime"
)

// Publisher pushes an event to real-time subscribers. Satisfied by the
// socket hub; publish failures never fail the operation that triggered them.
type Publisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

type Service struct {
	repo   Repository
	pub    Publisher
	logger zerolog.Logger
}

func NewService(repo Repository, pub Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger}
}

func (s *Service) Create(ctx context.Context, cons *Consultation) error {
	if cons.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if cons.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if cons.Status == "" {
		cons.Status = StatusPending
	} else {
		status, err := ParseStatus(string(cons.Status))
		if err != nil {
			return err
		}
		cons.Status = status
	}
	if cons.Type == "" {
		cons.Type = TypeChat
	} else {
		typ, err := ParseType(string(cons.Type))
		if err != nil {
			return err
		}
		cons.Type = typ
	}

	if err := s.repo.Create(ctx, cons); err != nil {
		return err
	}

	s.publish(ctx, realtime.EventNewConsultation, cons.ID, cons)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// UpdateStatus applies a lifecycle transition. Completed and cancelled are
// terminal; any step outside the transition table is rejected.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*Consultation, error) {
	status, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	cons, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultation not found: %w", err)
	}

	if cons.Status == status {
		return cons, nil
	}
	if !CanTransition(cons.Status, status) {
		return nil, fmt.Errorf("invalid transition: %s -> %s", cons.Status, status)
	}

	cons.Status = status
	cons.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, cons); err != nil {
		return nil, err
	}

	s.publish(ctx, realtime.EventConsultationUpdated, cons.ID, cons)
	return cons, nil
}

// SendMessage persists a message with status sent and notifies the
// consultation's subscribers. Messaging requires an active consultation.
func (s *Service) SendMessage(ctx context.Context, msg *Message) error {
	if msg.ConsultationID == uuid.Nil {
		return fmt.Errorf("consultation_id is required")
	}
	if msg.SenderID == uuid.Nil {
		return fmt.Errorf("sender_id is required")
	}
	if msg.Content == "" {
		return fmt.Errorf("content is required")
	}
	if msg.ContentType == "" {
		msg.ContentType = ContentText
	} else {
		ct, err := ParseContentType(string(msg.ContentType))
		if err != nil {
			return err
		}
		msg.ContentType = ct
	}

	cons, err := s.repo.GetByID(ctx, msg.ConsultationID)
	if err != nil {
		return fmt.Errorf("consultation not found: %w", err)
	}
	if cons.Status != StatusActive {
		return fmt.Errorf("consultation is %s, messaging requires active", cons.Status)
	}
	if msg.SenderID != cons.PatientID && msg.SenderID != cons.DoctorID {
		return fmt.Errorf("sender is not a participant")
	}

	msg.Status = DeliverySent
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return err
	}

	s.publish(ctx, realtime.EventNewMessage, msg.ConsultationID, msg)
	return nil
}

// MarkDelivered records that the recipient's client received the message.
func (s *Service) MarkDelivered(ctx context.Context, messageID, byUserID uuid.UUID) error {
	return s.advanceDelivery(ctx, messageID, byUserID, DeliveryDelivered)
}

// MarkRead records that the recipient displayed the message.
func (s *Service) MarkRead(ctx context.Context, messageID, byUserID uuid.UUID) error {
	return s.advanceDelivery(ctx, messageID, byUserID, DeliveryRead)
}

// advanceDelivery enforces the two delivery-status rules: only the recipient
// side advances a message, and the status never moves backward. A
// non-advancing update is a silent no-op so duplicate acknowledgments stay
// harmless.
func (s *Service) advanceDelivery(ctx context.Context, messageID, byUserID uuid.UUID, to DeliveryStatus) error {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("message not found: %w", err)
	}
	if byUserID == msg.SenderID {
		return fmt.Errorf("sender cannot advance delivery status")
	}

	cons, err := s.repo.GetByID(ctx, msg.ConsultationID)
	if err != nil {
		return fmt.Errorf("consultation not found: %w", err)
	}
	if byUserID != cons.PatientID && byUserID != cons.DoctorID {
		return fmt.Errorf("user is not a participant")
	}

	if !msg.Status.Advances(to) {
		return nil
	}

	if err := s.repo.UpdateMessageStatus(ctx, messageID, to); err != nil {
		return err
	}

	s.publish(ctx, realtime.EventMessageStatus, msg.ConsultationID, realtime.MessageStatusUpdate{
		MessageID:      messageID.String(),
		ConsultationID: msg.ConsultationID.String(),
		Status:         string(to),
	})
	return nil
}

func (s *Service) ListMessages(ctx context.Context, consultationID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	return s.repo.ListMessages(ctx, consultationID, limit, offset)
}

func (s *Service) publish(ctx context.Context, name string, consultationID uuid.UUID, payload interface{}) {
	if s.pub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event", name).Msg("event payload marshal failed")
		return
	}
	event := realtime.Event{
		Name:           name,
		ConsultationID: consultationID.String(),
		Timestamp:      time.Now().UTC(),
		Data:           data,
	}
	if err := s.pub.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", name).Msg("event publish failed")
	}
}
