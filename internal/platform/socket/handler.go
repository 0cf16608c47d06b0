package socket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/echomed/echomed/internal/domain/consultation"
	"github.com/echomed/echomed/internal/platform/auth"
	"github.com/echomed/echomed/pkg/realtime"
)

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Messenger is the slice of the consultation service the socket layer needs
// to route inbound commands.
type Messenger interface {
	SendMessage(ctx context.Context, msg *consultation.Message) error
	MarkDelivered(ctx context.Context, messageID, byUserID uuid.UUID) error
	MarkRead(ctx context.Context, messageID, byUserID uuid.UUID) error
}

// PresenceUpdater flips a doctor's availability flag.
type PresenceUpdater interface {
	UpdateDoctorStatus(ctx context.Context, doctorID uuid.UUID, online bool) error
}

// Handler handles HTTP-to-WebSocket upgrades and inbound command routing.
type Handler struct {
	hub      *Hub
	issuer   *auth.TokenIssuer
	messages Messenger
	presence PresenceUpdater
	logger   zerolog.Logger
}

// NewHandler creates a new handler bound to the given Hub and services.
func NewHandler(hub *Hub, issuer *auth.TokenIssuer, messages Messenger, presence PresenceUpdater, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, issuer: issuer, messages: messages, presence: presence, logger: logger}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleConnect)
}

// HandleConnect authenticates the token query parameter, upgrades the HTTP
// connection to WebSocket, registers the client with the hub, and starts the
// read/write pumps. Every client starts subscribed to the doctors topic so it
// sees presence changes and new consultations without an explicit join.
func (h *Handler) HandleConnect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, err := h.issuer.Verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: claims.Subject,
		Role:   claims.Role,
		Topics: []string{TopicDoctors},
		Send:   make(chan []byte, 256),
		hub:    h.hub,
		conn:   &gorillaConnAdapter{ws},
	}

	h.hub.Register(client)
	h.logger.Debug().Str("user_id", client.UserID).Str("role", client.Role).Msg("websocket client connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump reads commands from the WebSocket connection and dispatches them.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var cmd realtime.Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue // Ignore malformed messages.
		}

		h.Dispatch(client, cmd)
	}
}

// writePump writes messages from the Send channel to the WebSocket connection.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// Dispatch routes an inbound command to the hub or the domain services. The
// sender identity always comes from the client's verified token, never from
// the command payload.
func (h *Handler) Dispatch(client *Client, cmd realtime.Command) {
	ctx := context.Background()

	switch cmd.Name {
	case realtime.CmdJoinConsultation:
		if cmd.ConsultationID == "" {
			return
		}
		h.hub.Subscribe(client, []string{TopicConsultation(cmd.ConsultationID)})

	case realtime.CmdSendMessage:
		h.handleSendMessage(ctx, client, cmd)

	case realtime.CmdDoctorOnline, realtime.CmdDoctorOffline:
		if client.Role != auth.RoleDoctor {
			return
		}
		doctorID, err := uuid.Parse(client.UserID)
		if err != nil {
			return
		}
		online := cmd.Name == realtime.CmdDoctorOnline
		if err := h.presence.UpdateDoctorStatus(ctx, doctorID, online); err != nil {
			h.logger.Warn().Err(err).Str("doctor_id", client.UserID).Msg("failed to update doctor status")
		}

	case realtime.CmdMessageDelivered, realtime.CmdMessageRead:
		h.handleStatusAck(ctx, client, cmd)
	}
}

func (h *Handler) handleSendMessage(ctx context.Context, client *Client, cmd realtime.Command) {
	var payload realtime.OutgoingMessage
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		return
	}

	rawID := cmd.ConsultationID
	if rawID == "" {
		rawID = payload.ConsultationID
	}
	consultationID, err := uuid.Parse(rawID)
	if err != nil {
		return
	}
	senderID, err := uuid.Parse(client.UserID)
	if err != nil {
		return
	}

	msg := &consultation.Message{
		ConsultationID: consultationID,
		SenderID:       senderID,
		SenderRole:     client.Role,
		Content:        payload.Content,
	}
	if payload.ContentType != "" {
		ct, err := consultation.ParseContentType(payload.ContentType)
		if err != nil {
			return
		}
		msg.ContentType = ct
	}

	if err := h.messages.SendMessage(ctx, msg); err != nil {
		h.logger.Warn().Err(err).Str("consultation_id", rawID).Msg("failed to send message")
	}
}

func (h *Handler) handleStatusAck(ctx context.Context, client *Client, cmd realtime.Command) {
	var upd realtime.MessageStatusUpdate
	if err := json.Unmarshal(cmd.Data, &upd); err != nil {
		return
	}
	messageID, err := uuid.Parse(upd.MessageID)
	if err != nil {
		return
	}
	byUserID, err := uuid.Parse(client.UserID)
	if err != nil {
		return
	}

	if cmd.Name == realtime.CmdMessageDelivered {
		err = h.messages.MarkDelivered(ctx, messageID, byUserID)
	} else {
		err = h.messages.MarkRead(ctx, messageID, byUserID)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("message_id", upd.MessageID).Msg("failed to update message status")
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn
// interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
