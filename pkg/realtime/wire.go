// Package realtime implements the client side of the consultation event
// channel: a single persistent WebSocket connection per session, carrying
// named events between the server and exactly one authenticated user.
package realtime

import (
	"encoding/json"
	"time"
)

// Inbound event names pushed by the server.
const (
	EventNewMessage          = "new-message"
	EventConsultationUpdated = "consultation-updated"
	EventDoctorStatusChanged = "doctor-status-changed"
	EventNewConsultation     = "new-consultation"
	EventMessageStatus       = "message-status"
)

// Outbound command names emitted by the client.
const (
	CmdJoinConsultation = "join-consultation"
	CmdSendMessage      = "send-message"
	CmdDoctorOnline     = "doctor-online"
	CmdDoctorOffline    = "doctor-offline"
	CmdMessageDelivered = "message-delivered"
	CmdMessageRead      = "message-read"
)

// Event is a server-pushed notification. Data carries the event-specific
// payload and is decoded by the subscriber.
type Event struct {
	Name           string          `json:"event"`
	ConsultationID string          `json:"consultationId,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Command is a client-emitted message. The server acknowledges commands only
// indirectly, through later inbound events.
type Command struct {
	Name           string          `json:"event"`
	ConsultationID string          `json:"consultationId,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// OutgoingMessage is the payload of a send-message command.
type OutgoingMessage struct {
	ConsultationID string `json:"consultationId"`
	SenderID       string `json:"senderId"`
	SenderRole     string `json:"senderRole"`
	Content        string `json:"content"`
	ContentType    string `json:"contentType"`
}

// InboundMessage is the payload of a new-message event.
type InboundMessage struct {
	ID             string    `json:"id"`
	ConsultationID string    `json:"consultationId"`
	SenderID       string    `json:"senderId"`
	SenderRole     string    `json:"senderRole"`
	Content        string    `json:"content"`
	ContentType    string    `json:"contentType"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessageStatusUpdate is the payload of a message-status event and of the
// message-delivered and message-read commands.
type MessageStatusUpdate struct {
	MessageID      string `json:"messageId"`
	ConsultationID string `json:"consultationId"`
	Status         string `json:"status"`
}

// DoctorStatus is the payload of doctor-online, doctor-offline, and
// doctor-status-changed.
type DoctorStatus struct {
	DoctorID string `json:"doctorId"`
	Online   bool   `json:"online"`
}
