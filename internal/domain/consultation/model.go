package consultation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a consultation lifecycle state. Lower-case is canonical; parsing
// accepts any case because the backend historically stored upper-case.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus normalizes a status string. Unknown values are an error.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusActive:
		return StatusActive, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid consultation status: %s", s)
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// validTransitions is the consultation lifecycle: a doctor accepts or
// declines a pending booking, either party may end or cancel an active one.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusActive, StatusCancelled},
	StatusActive:  {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Type is the consultation medium.
type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
	TypeChat  Type = "chat"
)

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeVideo:
		return TypeVideo, nil
	case TypeAudio:
		return TypeAudio, nil
	case TypeChat:
		return TypeChat, nil
	default:
		return "", fmt.Errorf("invalid consultation type: %s", s)
	}
}

// Consultation maps to the consultation table.
type Consultation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Status    Status    `db:"status" json:"status"`
	Type      Type      `db:"type" json:"type"`
	Symptoms  *string   `db:"symptoms" json:"symptoms,omitempty"`
	Diagnosis *string   `db:"diagnosis" json:"diagnosis,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DeliveryStatus tracks a message's progress toward its recipient. It only
// moves forward: sent, then delivered, then read.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
)

var deliveryRank = map[DeliveryStatus]int{
	DeliverySent:      0,
	DeliveryDelivered: 1,
	DeliveryRead:      2,
}

// Advances reports whether moving from -> to goes strictly forward.
func (from DeliveryStatus) Advances(to DeliveryStatus) bool {
	fromRank, ok := deliveryRank[from]
	if !ok {
		return false
	}
	toRank, ok := deliveryRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// ContentType is the kind of payload a message carries.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentVoice ContentType = "voice"
	ContentImage ContentType = "image"
)

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentText:
		return ContentText, nil
	case ContentVoice:
		return ContentVoice, nil
	case ContentImage:
		return ContentImage, nil
	default:
		return "", fmt.Errorf("invalid content type: %s", s)
	}
}

// Message maps to the message table. A message is immutable after creation
// except for its delivery status, which only the recipient side advances.
type Message struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	ConsultationID uuid.UUID      `db:"consultation_id" json:"consultation_id"`
	SenderID       uuid.UUID      `db:"sender_id" json:"sender_id"`
	SenderRole     string         `db:"sender_role" json:"sender_role"`
	Content        string         `db:"content" json:"content"`
	ContentType    ContentType    `db:"content_type" json:"content_type"`
	Status         DeliveryStatus `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}
