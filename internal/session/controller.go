// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"time"

	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/jason-s-yu/rummy/internal/protocol"
	"github.com/sirupsen/logrus"
)

// State is the session-level lifecycle state. Connection state is tracked separately.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingReconnectOrJoin
	Reconnecting
	JoiningFresh
	InLobby
	InGame
	Ended
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingReconnectOrJoin:
		return "awaiting_reconnect_or_join"
	case Reconnecting:
		return "reconnecting"
	case JoiningFresh:
		return "joining_fresh"
	case InLobby:
		return "in_lobby"
	case InGame:
		return "in_game"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// ConnState is the transport's state as last reported by the adapter.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
)

func (s ConnState) String() string {
	switch s {
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	DefaultReconnectTimeout = 10 * time.Second
	DefaultReconnectDelay   = 2 * time.Second
	DefaultRejoinDelay      = time.Second
	dialTimeout             = 15 * time.Second

	// the first reconnect plus one retry
	maxReconnectAttempts = 2
)

// ErrStopped is returned by operations issued after Run has returned.
var ErrStopped = errors.New("session controller stopped")

// Options configures a Controller.
type Options struct {
	Self        models.PlayerID
	DisplayName string

	ReconnectTimeout time.Duration
	ReconnectDelay   time.Duration
	RejoinDelay      time.Duration

	Logger *logrus.Logger
}

// JoinRequest names the room to sit in.
type JoinRequest struct {
	RoomID     string
	GameType   string
	MaxPlayers int
	PoolLimit  *int
	EntryFee   float64
	IsCreator  bool
}

func (r JoinRequest) descriptor() models.Descriptor {
	return models.Descriptor{
		RoomID:     r.RoomID,
		GameType:   r.GameType,
		MaxPlayers: r.MaxPlayers,
		PoolLimit:  r.PoolLimit,
		IsCreator:  r.IsCreator,
	}
}

// Controller owns the session, the hand store and the turn controller. Every mutation,
// whether an inbound event, a local intent or a timer firing, runs on the single goroutine
// started by Run, in the order it was queued.
type Controller struct {
	opts    Options
	adapter protocol.Adapter
	store   DescriptorStore
	logger  *logrus.Logger

	queue   chan func()
	notices chan Notice
	done    chan struct{}

	// loop-owned
	runCtx  context.Context
	state   State
	conn    ConnState
	request *JoinRequest
	session models.Session
	hand    *game.HandStore
	turn    *game.TurnController
	result  *models.GameResult

	joinAttempted     bool
	joinInProgress    bool
	reconnectAttempts int
	freshJoinUsed     bool
	reconnectOnDial   bool
	joinOnDial        bool
	redials           int

	drawPending    bool
	discardPending bool
	preDiscard     []models.Card
	meldPending    bool
	preMeld        []models.Card

	timer    *time.Timer
	timerGen int
}

// NewController wires a controller to its adapter and descriptor store.
func NewController(adapter protocol.Adapter, store DescriptorStore, opts Options) *Controller {
	if opts.ReconnectTimeout <= 0 {
		opts.ReconnectTimeout = DefaultReconnectTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.RejoinDelay <= 0 {
		opts.RejoinDelay = DefaultRejoinDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Controller{
		opts:    opts,
		adapter: adapter,
		store:   store,
		logger:  logger,
		queue:   make(chan func(), 128),
		notices: make(chan Notice, 64),
		done:    make(chan struct{}),
		runCtx:  context.Background(),
		hand:    game.NewHandStore(opts.Self),
		turn:    game.NewTurnController(opts.Self),
	}
}

// Run drains the queue until ctx is done. It must be called exactly once.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)
	go c.forwardEvents(ctx)

	for {
		select {
		case <-ctx.Done():
			c.cancelTimer()
			return ctx.Err()
		case fn := <-c.queue:
			fn()
		}
	}
}

// Notices delivers user-facing messages: rejections, roster annotations, results.
func (c *Controller) Notices() <-chan Notice { return c.notices }

func (c *Controller) forwardEvents(ctx context.Context) {
	events := c.adapter.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			c.post(func() { c.handleEvent(ev) })
		}
	}
}

func (c *Controller) post(fn func()) {
	select {
	case c.queue <- fn:
	case <-c.done:
	}
}

// do runs fn on the loop and waits for its result.
func (c *Controller) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.queue <- func() { reply <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
}

// --- Intents ---

// Open records the target room and dials the authority. The join decision is made once
// the transport reports connect.
func (c *Controller) Open(ctx context.Context, req JoinRequest) error {
	return c.do(ctx, func() error {
		if c.state != Disconnected && c.state != Ended {
			return game.Validationf("Already in room %s.", c.session.RoomID)
		}
		if req.RoomID == "" {
			return game.Validationf("A room id is required.")
		}
		c.resetLocal()
		r := req
		c.request = &r
		c.session = models.Session{RoomID: r.RoomID, GameType: r.GameType, MaxPlayers: r.MaxPlayers, PoolLimit: r.PoolLimit}
		c.setState(Connecting)
		switch c.conn {
		case ConnConnected:
			c.setState(AwaitingReconnectOrJoin)
			c.beginJoin()
		case ConnConnecting:
			// the dial in flight reports connect and drives the join
			c.logger.WithField("room", r.RoomID).Debug("dial already in flight")
		default:
			c.dial()
		}
		return nil
	})
}

// JoinRoom asks for the reconnect-or-join decision. Any number of concurrent calls
// result in at most one joinRoom or reconnectToRoom on the wire.
func (c *Controller) JoinRoom(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.beginJoin()
		return nil
	})
}

// StartGame is allowed for the room creator while in the lobby.
func (c *Controller) StartGame(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.state != InLobby {
			return game.Validationf("The game can only be started from the lobby.")
		}
		if !c.isCreator() {
			return game.Validationf("Only the room creator can start the game.")
		}
		return c.send(protocol.StartGame(c.session.RoomID))
	})
}

// Draw asks the authority for a card from the deck or the discard pile.
func (c *Controller) Draw(ctx context.Context, from protocol.DrawSource) error {
	return c.do(ctx, func() error {
		if err := c.requireInGame(); err != nil {
			return err
		}
		if err := c.turn.CanDraw(); err != nil {
			return err
		}
		if c.drawPending {
			return &game.TurnViolation{Action: "draw", State: c.turn.State(), Reason: "You have already drawn a card this turn."}
		}
		if from == protocol.DrawFromDiscard {
			if _, ok := c.hand.DiscardTop(); !ok {
				return game.Validationf("The discard pile is empty.")
			}
		} else if from != protocol.DrawFromDeck {
			return game.Validationf("Unknown draw source %q.", from)
		}
		if err := c.send(protocol.DrawCard(from)); err != nil {
			return err
		}
		c.drawPending = true
		return nil
	})
}

// Discard optimistically removes the card and sends it. The removal stays provisional
// until the authority's hand update arrives.
func (c *Controller) Discard(ctx context.Context, id models.CardID) error {
	return c.do(ctx, func() error {
		if err := c.requireInGame(); err != nil {
			return err
		}
		if err := c.turn.CanDiscard(); err != nil {
			return err
		}
		if c.discardPending {
			return &game.TurnViolation{Action: "discard", State: c.turn.State(), Reason: "Your discard is already on its way."}
		}
		card, ok := c.hand.Card(id)
		if !ok {
			return game.Validationf("Card %s is not in your hand.", id)
		}
		before := c.hand.Hand()
		if err := c.hand.RemoveFromHand([]models.CardID{id}); err != nil {
			return err
		}
		if err := c.send(protocol.DiscardCard(c.session.RoomID, card)); err != nil {
			c.hand.ApplyAuthoritativeHand(before)
			return err
		}
		c.discardPending = true
		c.preDiscard = before
		return nil
	})
}

// LayDownMelds validates every group against the current wild rank, takes the cards out
// of the hand provisionally and sends them. A rejection puts them back.
func (c *Controller) LayDownMelds(ctx context.Context, groups [][]models.CardID) error {
	return c.do(ctx, func() error {
		if err := c.requireInGame(); err != nil {
			return err
		}
		if err := c.turn.CanLayDown(); err != nil {
			return err
		}
		resolved := make([][]models.Card, len(groups))
		for i, g := range groups {
			resolved[i] = make([]models.Card, 0, len(g))
			for _, id := range g {
				card, ok := c.hand.Card(id)
				if !ok {
					return game.Validationf("Card %s is not in your hand.", id)
				}
				resolved[i] = append(resolved[i], card)
			}
		}
		kinds, err := game.ValidateMelds(resolved, c.hand.Wild())
		if err != nil {
			return err
		}
		melds := make([]models.Meld, len(resolved))
		var ids []models.CardID
		for i := range resolved {
			melds[i] = models.Meld{Kind: kinds[i], Cards: resolved[i]}
			ids = append(ids, melds[i].IDs()...)
		}
		before := c.hand.Hand()
		if err := c.hand.RemoveFromHand(ids); err != nil {
			return err
		}
		if err := c.send(protocol.LayDownMelds(melds)); err != nil {
			c.hand.ApplyAuthoritativeHand(before)
			return err
		}
		if !c.meldPending {
			c.preMeld = before
		}
		c.meldPending = true
		return nil
	})
}

// Drop forfeits the current game.
func (c *Controller) Drop(ctx context.Context) error {
	return c.do(ctx, func() error {
		if err := c.requireInGame(); err != nil {
			return err
		}
		if c.turn.State() == game.GameEnded {
			return game.Validationf("The game is over.")
		}
		return c.send(protocol.DropGame())
	})
}

// Leave resets local state and clears the descriptor first, then tells the authority.
// The leaveRoom send is best effort.
func (c *Controller) Leave(ctx context.Context) error {
	return c.do(ctx, func() error {
		if c.request == nil && c.state == Disconnected {
			return nil
		}
		room := c.session.RoomID
		c.resetLocal()
		c.request = nil
		c.setState(Disconnected)
		if err := c.store.Clear(c.runCtx); err != nil {
			c.logger.WithError(err).Warn("failed to clear session descriptor")
		}
		if c.conn == ConnConnected {
			if err := c.adapter.Send(c.runCtx, protocol.LeaveRoom()); err != nil {
				c.logger.WithFields(logrus.Fields{"room": room, "error": err}).Warn("leaveRoom not delivered")
			}
		}
		return nil
	})
}

// NavigateAway abandons the current screen: the retained result is dropped and any
// pending reconnect timeout is cancelled.
func (c *Controller) NavigateAway(ctx context.Context) error {
	return c.do(ctx, func() error {
		c.resetLocal()
		c.request = nil
		c.setState(Disconnected)
		return nil
	})
}

// View returns a deep copy of everything a renderer needs.
func (c *Controller) View(ctx context.Context) (View, error) {
	var v View
	err := c.do(ctx, func() error {
		v = c.snapshot()
		return nil
	})
	return v, err
}

// --- Loop helpers ---

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"room": c.session.RoomID,
		"from": c.state.String(),
		"to":   s.String(),
	}).Debug("session state change")
	c.state = s
}

func (c *Controller) requireInGame() error {
	if c.state != InGame && c.state != Ended {
		return game.Validationf("No game in progress.")
	}
	return nil
}

func (c *Controller) isCreator() bool {
	if c.session.CreatedBy != "" {
		return c.session.CreatedBy == c.opts.Self
	}
	if p, ok := c.session.Player(c.opts.Self); ok && p.Host {
		return true
	}
	return c.request != nil && c.request.IsCreator
}

func (c *Controller) send(cmd protocol.Command) error {
	if c.conn != ConnConnected {
		return &game.TransportError{Op: string(cmd.Type), Err: protocol.ErrNotConnected}
	}
	if err := c.adapter.Send(c.runCtx, cmd); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"room": c.session.RoomID, "type": cmd.Type}).Debug("intent sent")
	return nil
}

func (c *Controller) dial() {
	c.conn = ConnConnecting
	ctx := c.runCtx
	go func() {
		dctx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		if err := c.adapter.Connect(dctx); err != nil {
			c.post(func() { c.onConnectError(err) })
		}
	}()
}

// armTimer replaces the pending timer. Firings from replaced timers are ignored.
func (c *Controller) armTimer(d time.Duration, fn func()) {
	c.cancelTimer()
	gen := c.timerGen
	c.timer = time.AfterFunc(d, func() {
		c.post(func() {
			if gen != c.timerGen {
				return
			}
			c.timer = nil
			fn()
		})
	})
}

func (c *Controller) cancelTimer() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// resetLocal drops every piece of room state. The connection is left alone.
func (c *Controller) resetLocal() {
	c.cancelTimer()
	c.session = models.Session{}
	c.hand = game.NewHandStore(c.opts.Self)
	c.turn = game.NewTurnController(c.opts.Self)
	c.result = nil
	c.joinAttempted = false
	c.joinInProgress = false
	c.reconnectAttempts = 0
	c.freshJoinUsed = false
	c.reconnectOnDial = false
	c.joinOnDial = false
	c.redials = 0
	c.clearPending()
}

func (c *Controller) clearPending() {
	c.drawPending = false
	c.discardPending = false
	c.preDiscard = nil
	c.meldPending = false
	c.preMeld = nil
}
