// internal/protocol/adapter.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/sirupsen/logrus"
)

// Adapter is the boundary to the authoritative server. Everything above it sees typed
// events and commands only.
type Adapter interface {
	// Connect dials the authority. A connect or connect_error event follows on Events.
	Connect(ctx context.Context) error
	// Send queues a command. It never blocks on the network.
	Send(ctx context.Context, cmd Command) error
	// Events delivers inbound and synthesized transport events in arrival order.
	Events() <-chan Event
	// Close shuts the transport down for good.
	Close() error
}

var (
	ErrNotConnected   = errors.New("not connected")
	ErrSendQueueFull  = errors.New("send queue full")
	ErrAdapterClosed  = errors.New("adapter closed")
	defaultQueueSize  = 64
	defaultWriteLimit = 5 * time.Second
	defaultPingEvery  = 30 * time.Second
)

// Subprotocol is offered during the websocket handshake.
const Subprotocol = "rummy"

// WSOptions configures a WSAdapter.
type WSOptions struct {
	URL       string
	Token     string
	QueueSize int
	PingEvery time.Duration
	Logger    *logrus.Logger
}

// WSAdapter speaks the JSON envelope protocol over a websocket.
type WSAdapter struct {
	opts   WSOptions
	logger *logrus.Logger
	events chan Event

	mu     sync.Mutex
	conn   *websocket.Conn
	out    chan Command
	cancel context.CancelFunc
	gen    int
	closed bool
}

// NewWSAdapter builds an adapter; nothing is dialed until Connect.
func NewWSAdapter(opts WSOptions) *WSAdapter {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.PingEvery <= 0 {
		opts.PingEvery = defaultPingEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &WSAdapter{
		opts:   opts,
		logger: logger,
		events: make(chan Event, opts.QueueSize),
	}
}

func (a *WSAdapter) Events() <-chan Event { return a.events }

// Connect dials the authority, replacing any previous connection.
func (a *WSAdapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return &game.TransportError{Op: "connect", Err: ErrAdapterClosed}
	}
	a.teardownLocked()
	a.mu.Unlock()

	header := http.Header{}
	if a.opts.Token != "" {
		header.Set("Authorization", "Bearer "+a.opts.Token)
	}
	c, _, err := websocket.Dial(ctx, a.opts.URL, &websocket.DialOptions{
		HTTPHeader:   header,
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		terr := &game.TransportError{Op: "connect", Err: err}
		a.logger.WithFields(logrus.Fields{"url": a.opts.URL, "error": err}).Warn("websocket dial failed")
		a.emit(ctx, Event{Type: EventTransportError, Payload: &TransportPayload{Err: terr}})
		return terr
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = c.Close(websocket.StatusNormalClosure, "adapter closed")
		return &game.TransportError{Op: "connect", Err: ErrAdapterClosed}
	}
	a.gen++
	gen := a.gen
	connCtx, cancel := context.WithCancel(context.Background())
	out := make(chan Command, a.opts.QueueSize)
	a.conn, a.out, a.cancel = c, out, cancel
	a.mu.Unlock()

	logWebSocketConnect(a.logger, a.opts.URL)
	// connect must precede any frame read on this connection
	a.emit(connCtx, Event{Type: EventTransportConnected, Payload: &TransportPayload{}})

	go a.writePump(connCtx, c, out)
	go a.readPump(connCtx, c, gen)
	return nil
}

// Send queues cmd for the write pump without blocking, like a lobby connection's OutChan.
func (a *WSAdapter) Send(_ context.Context, cmd Command) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &game.TransportError{Op: "send", Err: ErrAdapterClosed}
	}
	if a.conn == nil {
		return &game.TransportError{Op: "send", Err: ErrNotConnected}
	}
	select {
	case a.out <- cmd:
		return nil
	default:
		a.logger.WithField("type", cmd.Type).Warn("send queue full, dropping command")
		return &game.TransportError{Op: "send", Err: ErrSendQueueFull}
	}
}

// Close stops the pumps and closes the socket. No disconnect event is emitted.
func (a *WSAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.teardownLocked()
	return nil
}

func (a *WSAdapter) teardownLocked() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.conn != nil {
		_ = a.conn.Close(websocket.StatusNormalClosure, "client closing")
		a.conn = nil
	}
	a.out = nil
	a.gen++
}

func (a *WSAdapter) readPump(ctx context.Context, c *websocket.Conn, gen int) {
	for {
		var env Envelope
		err := wsjson.Read(ctx, c, &env)
		if err != nil {
			a.dropConnection(c, gen, err)
			return
		}
		ev, err := DecodeEnvelope(env)
		if err != nil {
			a.logger.WithFields(logrus.Fields{"type": env.Type, "error": err}).Warn("ignoring undecodable event")
			continue
		}
		a.logger.WithField("type", ev.Type).Debug("event received")
		if !a.emit(ctx, ev) {
			return
		}
	}
}

func (a *WSAdapter) writePump(ctx context.Context, c *websocket.Conn, out <-chan Command) {
	ticker := time.NewTicker(a.opts.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-out:
			env, err := cmd.Envelope()
			if err != nil {
				a.logger.WithError(err).Warn("dropping unencodable command")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, defaultWriteLimit)
			err = wsjson.Write(writeCtx, c, env)
			cancel()
			if err != nil {
				// the read pump notices the broken socket and reports it
				a.logger.WithFields(logrus.Fields{"type": cmd.Type, "error": err}).Warn("websocket write failed")
				return
			}
			a.logger.WithFields(logrus.Fields{"type": cmd.Type, "reqId": cmd.RequestID}).Debug("command sent")
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				a.logger.WithError(err).Warn("ping failed, assuming disconnect")
				_ = c.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}

// dropConnection reports a lost socket unless it was replaced or closed on purpose.
func (a *WSAdapter) dropConnection(c *websocket.Conn, gen int, err error) {
	a.mu.Lock()
	current := a.gen == gen && !a.closed
	if current {
		if a.cancel != nil {
			a.cancel()
			a.cancel = nil
		}
		a.conn = nil
		a.out = nil
	}
	a.mu.Unlock()
	if !current {
		return
	}
	_ = c.Close(websocket.StatusGoingAway, "read failed")

	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || strings.Contains(err.Error(), "context canceled") {
		err = nil
	}
	logWebSocketDisconnect(a.logger, a.opts.URL, err)
	a.emit(context.Background(), Event{
		Type:    EventTransportDisconnected,
		Payload: &TransportPayload{Err: wrapTransport("read", err)},
	})
}

func (a *WSAdapter) emit(ctx context.Context, ev Event) bool {
	select {
	case a.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func wrapTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	return &game.TransportError{Op: op, Err: fmt.Errorf("websocket: %w", err)}
}

func logWebSocketConnect(logger *logrus.Logger, url string) {
	logger.WithField("url", url).Info("WebSocket connected")
}

func logWebSocketDisconnect(logger *logrus.Logger, url string, err error) {
	fields := logrus.Fields{"url": url}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
