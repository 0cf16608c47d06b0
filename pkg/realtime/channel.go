package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by emit-side operations while the channel has
// no live connection. Commands are fire-and-forget; nothing is queued.
var ErrNotConnected = errors.New("realtime: channel not connected")

// ConnState is the connection-level state of a Channel.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn abstracts the underlying WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer establishes a Conn. The default implementation dials with
// gorilla/websocket; tests substitute a mock.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Options configures a Channel.
type Options struct {
	// URL is the WebSocket endpoint, addressed independently of the REST
	// base URL. The bearer token is appended as a query parameter.
	URL string

	// Token is the session bearer token used to authenticate the connection.
	Token string

	// SelfID is the authenticated user's id. Inbound messages from other
	// senders are automatically acknowledged as delivered.
	SelfID string

	// Dialer overrides the transport. Nil means gorilla/websocket.
	Dialer Dialer

	// Reconnect enables exponential-backoff reconnection after an unexpected
	// transport loss. An explicit Disconnect never reconnects.
	Reconnect bool

	// MaxBackoff caps the reconnect delay. Zero means 30 seconds.
	MaxBackoff time.Duration

	Logger zerolog.Logger
}

// Subscription is a handle for one registered event listener. Cancel removes
// exactly this listener, leaving other subscribers to the same event intact.
type Subscription struct {
	event string
	fn    func(Event)
	ch    *Channel
}

// Cancel unregisters the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.ch.mu.Lock()
	defer s.ch.mu.Unlock()
	if subs, ok := s.ch.subs[s.event]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.ch.subs, s.event)
		}
	}
}

// Channel is the client end of the consultation event connection. It is
// owned by the session lifecycle: constructed at login, closed at logout.
// All methods are safe for concurrent use.
type Channel struct {
	opts Options

	mu     sync.Mutex
	state  ConnState
	conn   Conn
	subs   map[string]map[*Subscription]struct{}
	closed bool // set by Disconnect; suppresses reconnection
}

// NewChannel creates a disconnected Channel.
func NewChannel(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = gorillaDialer{}
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &Channel{
		opts: opts,
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect dials the transport and starts delivering inbound events to
// subscribers. Calling Connect while already connecting or connected is a
// no-op: there is at most one live connection per Channel.
func (c *Channel) Connect(ctx context.Context) error {
	return c.dial(ctx, false)
}

// dial performs the state transition and the transport dial. A resume dial
// comes from the reconnect loop and must yield to an explicit Disconnect;
// only a user-initiated Connect clears the closed flag.
func (c *Channel) dial(ctx context.Context, resume bool) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	if resume && c.closed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	if !resume {
		c.closed = false
	}
	c.mu.Unlock()

	conn, err := c.opts.Dialer.Dial(ctx, c.dialURL())
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	// Disconnect may have raced the dial; honor it.
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// Disconnect closes the connection and drops every registered subscription.
// Valid from any state; always leaves the channel disconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.state = StateDisconnected
	conn := c.conn
	c.conn = nil
	c.subs = make(map[string]map[*Subscription]struct{})
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// On registers fn as a listener for the named event. Multiple independent
// subscribers per event are supported; each receives every matching event
// until its Subscription is cancelled.
func (c *Channel) On(event string, fn func(Event)) *Subscription {
	sub := &Subscription{event: event, fn: fn, ch: c}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subs[event] == nil {
		c.subs[event] = make(map[*Subscription]struct{})
	}
	c.subs[event][sub] = struct{}{}
	return sub
}

// JoinConsultation advertises interest in a consultation's events.
func (c *Channel) JoinConsultation(consultationID string) error {
	return c.emit(Command{Name: CmdJoinConsultation, ConsultationID: consultationID})
}

// SendMessage emits a message-creation command. Delivery is not guaranteed
// by this call; the resulting message's status advances only via later
// inbound message-status events.
func (c *Channel) SendMessage(msg OutgoingMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.emit(Command{Name: CmdSendMessage, ConsultationID: msg.ConsultationID, Data: data})
}

// SetDoctorOnline announces doctor presence. Fire-and-forget.
func (c *Channel) SetDoctorOnline(doctorID string) error {
	return c.emitPresence(CmdDoctorOnline, doctorID, true)
}

// SetDoctorOffline announces doctor absence. Fire-and-forget.
func (c *Channel) SetDoctorOffline(doctorID string) error {
	return c.emitPresence(CmdDoctorOffline, doctorID, false)
}

// AckDelivered reports that a message reached this client.
func (c *Channel) AckDelivered(consultationID, messageID string) error {
	return c.emitStatus(CmdMessageDelivered, consultationID, messageID, "delivered")
}

// MarkRead reports that this client displayed a message to the user.
func (c *Channel) MarkRead(consultationID, messageID string) error {
	return c.emitStatus(CmdMessageRead, consultationID, messageID, "read")
}

func (c *Channel) emitPresence(cmd, doctorID string, online bool) error {
	data, err := json.Marshal(DoctorStatus{DoctorID: doctorID, Online: online})
	if err != nil {
		return err
	}
	return c.emit(Command{Name: cmd, Data: data})
}

func (c *Channel) emitStatus(cmd, consultationID, messageID, status string) error {
	data, err := json.Marshal(MessageStatusUpdate{
		MessageID:      messageID,
		ConsultationID: consultationID,
		Status:         status,
	})
	if err != nil {
		return err
	}
	return c.emit(Command{Name: cmd, ConsultationID: consultationID, Data: data})
}

func (c *Channel) emit(cmd Command) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.opts.Logger.Warn().Str("command", cmd.Name).Msg("emit while disconnected, dropping")
		return ErrNotConnected
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
		c.opts.Logger.Warn().Err(err).Str("command", cmd.Name).Msg("emit failed")
		return err
	}
	return nil
}

// readLoop delivers inbound events until the connection fails or the channel
// is disconnected. Events for a given consultation reach subscribers in the
// order the transport delivers them; no client-side resequencing.
func (c *Channel) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleTransportLoss(conn, err)
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			// Ignore malformed frames.
			continue
		}

		c.autoAck(event)
		c.dispatch(event)
	}
}

// autoAck acknowledges delivery of messages sent by the other participant.
// This replaces any client-side simulation of delivery receipts.
func (c *Channel) autoAck(event Event) {
	if event.Name != EventNewMessage {
		return
	}
	var msg InboundMessage
	if err := json.Unmarshal(event.Data, &msg); err != nil {
		return
	}
	if msg.SenderID == "" || msg.SenderID == c.opts.SelfID {
		return
	}
	if err := c.AckDelivered(msg.ConsultationID, msg.ID); err != nil {
		c.opts.Logger.Warn().Err(err).Str("message_id", msg.ID).Msg("delivery ack failed")
	}
}

func (c *Channel) dispatch(event Event) {
	c.mu.Lock()
	listeners := make([]func(Event), 0, len(c.subs[event.Name]))
	for sub := range c.subs[event.Name] {
		listeners = append(listeners, sub.fn)
	}
	c.mu.Unlock()

	// Invoked outside the lock so a listener may subscribe or cancel.
	for _, fn := range listeners {
		fn(event)
	}
}

// handleTransportLoss transitions to disconnected and, when reconnection is
// enabled and the loss was not an explicit Disconnect, re-dials with
// exponential backoff. Subscriptions survive a reconnect.
func (c *Channel) handleTransportLoss(conn Conn, err error) {
	c.mu.Lock()
	// A newer connection may already have replaced this one.
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	closed := c.closed
	c.mu.Unlock()

	conn.Close()

	if closed {
		return
	}
	c.opts.Logger.Warn().Err(err).Msg("transport lost")
	if c.opts.Reconnect {
		go c.reconnectLoop()
	}
}

func (c *Channel) reconnectLoop() {
	backoff := 500 * time.Millisecond
	for {
		// Jitter spreads herds of clients reconnecting after a server restart.
		delay := backoff/2 + time.Duration(rand.Int63n(int64(backoff/2)+1))
		time.Sleep(delay)

		// dial re-checks the closed flag under the lock, so a Disconnect
		// racing this iteration wins. A nil return means either connected
		// or deliberately yielded; both end the loop.
		if err := c.dial(context.Background(), true); err == nil {
			return
		}

		backoff *= 2
		if backoff > c.opts.MaxBackoff {
			backoff = c.opts.MaxBackoff
		}
	}
}

func (c *Channel) dialURL() string {
	if c.opts.Token == "" {
		return c.opts.URL
	}
	sep := "?"
	for _, r := range c.opts.URL {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return c.opts.URL + sep + "token=" + c.opts.Token
}

// gorillaDialer is the production Dialer.
type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := gorillawebsocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
