// internal/session/join.go
package session

import (
	"fmt"
	"strings"

	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/jason-s-yu/rummy/internal/protocol"
	"github.com/sirupsen/logrus"
)

// beginJoin makes the reconnect-or-join decision once per room. The flags and the state
// check together keep duplicate triggers from reaching the wire.
func (c *Controller) beginJoin() {
	if c.state != AwaitingReconnectOrJoin || c.request == nil {
		return
	}
	if c.joinAttempted || c.joinInProgress {
		c.logger.WithField("room", c.request.RoomID).Debug("join already attempted, ignoring")
		return
	}
	if c.conn != ConnConnected {
		// runs again from the connect event
		return
	}
	c.joinAttempted = true
	c.joinInProgress = true

	desc, err := c.store.Load(c.runCtx)
	if err != nil {
		c.logger.WithError(err).Warn("failed to load session descriptor, joining fresh")
	}
	if desc != nil && desc.RoomID == c.request.RoomID && !c.session.HasPlayer(c.opts.Self) {
		if desc.IsCreator {
			c.request.IsCreator = true
		}
		c.startReconnect()
		return
	}
	c.startFreshJoin()
}

func (c *Controller) startReconnect() {
	c.setState(Reconnecting)
	c.reconnectAttempts++
	c.logger.WithFields(logrus.Fields{
		"room":    c.request.RoomID,
		"attempt": c.reconnectAttempts,
	}).Info("reconnecting to room")
	if err := c.send(protocol.ReconnectToRoom()); err != nil {
		c.logger.WithError(err).Warn("reconnectToRoom not sent")
	}
	c.armTimer(c.opts.ReconnectTimeout, func() {
		c.logger.WithField("room", c.request.RoomID).Warn("reconnect timed out")
		c.onReconnectFailed("reconnect timed out")
	})
}

// onReconnectFailed retries the reconnect once, then falls back to one fresh join.
func (c *Controller) onReconnectFailed(reason string) {
	if c.state != Reconnecting || c.request == nil {
		return
	}
	c.cancelTimer()
	if c.reconnectAttempts < maxReconnectAttempts {
		c.startReconnect()
		return
	}
	c.notify(NoticeInfo, "Could not rejoin the game, joining the room again.", nil)
	c.logger.WithFields(logrus.Fields{"room": c.request.RoomID, "reason": reason}).Info("falling back to fresh join")
	c.armTimer(c.opts.RejoinDelay, c.startFreshJoin)
}

func (c *Controller) startFreshJoin() {
	if c.request == nil {
		return
	}
	if c.freshJoinUsed {
		c.unrecoverable("fresh join already used")
		return
	}
	c.freshJoinUsed = true
	c.joinInProgress = true
	c.setState(JoiningFresh)
	r := c.request
	cmd := protocol.JoinRoom(protocol.JoinRoomPayload{
		RoomID:     r.RoomID,
		GameType:   r.GameType,
		MaxPlayers: r.MaxPlayers,
		PoolLimit:  r.PoolLimit,
		EntryFee:   r.EntryFee,
		Player:     protocol.JoinPlayer{ID: c.opts.Self, Name: c.opts.DisplayName},
	})
	if err := c.send(cmd); err != nil {
		c.logger.WithError(err).Warn("joinRoom not sent")
	}
}

// unrecoverable gives up on the room after both recovery paths failed.
func (c *Controller) unrecoverable(reason string) {
	c.giveUp(reason, game.ErrUnrecoverable)
}

func (c *Controller) giveUp(reason string, err error) {
	room := ""
	if c.request != nil {
		room = c.request.RoomID
	}
	c.logger.WithFields(logrus.Fields{"room": room, "reason": reason}).Error("session unrecoverable")
	c.resetLocal()
	c.request = nil
	c.setState(Disconnected)
	if err := c.store.Clear(c.runCtx); err != nil {
		c.logger.WithError(err).Warn("failed to clear session descriptor")
	}
	c.notify(NoticeError, "Unable to rejoin the room.", err)
}

// onJoined finishes either join path and persists the descriptor.
func (c *Controller) onJoined(roster func()) {
	if c.request == nil {
		return
	}
	switch c.state {
	case AwaitingReconnectOrJoin, Reconnecting, JoiningFresh:
	case InLobby, InGame:
		// duplicate confirmation; just take the roster
		if roster != nil {
			roster()
		}
		return
	default:
		return
	}
	c.cancelTimer()
	c.joinInProgress = false
	c.reconnectAttempts = 0
	if roster != nil {
		roster()
	}
	if c.session.CreatedBy == c.opts.Self {
		c.request.IsCreator = true
	}
	if c.session.Started {
		c.setState(InGame)
	} else {
		c.setState(InLobby)
	}
	c.persist()
}

func (c *Controller) persist() {
	if c.request == nil {
		return
	}
	if err := c.store.Save(c.runCtx, c.request.descriptor()); err != nil {
		c.logger.WithError(err).Warn("failed to save session descriptor")
	}
}

func (c *Controller) onJoinRejected(ev protocol.EventType, p *protocol.ErrorPayload) {
	msg := p.Message
	if strings.Contains(strings.ToLower(msg), "already joined") {
		c.logger.WithField("room", c.session.RoomID).Info("already seated, treating join as success")
		c.onJoined(nil)
		return
	}
	perr := &game.ProtocolError{Event: string(ev), Message: msg, Code: p.Code, Terminal: true}
	if c.reconnectAttempts > 0 {
		// the rejected join was the fallback after a failed reconnect
		c.giveUp(msg, fmt.Errorf("%w: %w", game.ErrUnrecoverable, perr))
		return
	}
	c.logger.WithFields(logrus.Fields{"room": c.session.RoomID, "error": msg}).Warn("join rejected")
	c.resetLocal()
	c.request = nil
	c.setState(Disconnected)
	if err := c.store.Clear(c.runCtx); err != nil {
		c.logger.WithError(err).Warn("failed to clear session descriptor")
	}
	c.notify(NoticeError, perr.Error(), perr)
}

// --- Transport ---

func (c *Controller) onConnected() {
	c.conn = ConnConnected
	switch {
	case c.state == Connecting:
		c.setState(AwaitingReconnectOrJoin)
		c.beginJoin()
	case c.joinOnDial && c.request != nil:
		c.joinOnDial = false
		c.redials = 0
		c.startFreshJoin()
	case c.reconnectOnDial && c.request != nil:
		c.reconnectOnDial = false
		c.redials = 0
		c.startReconnect()
	}
}

func (c *Controller) onConnectError(err error) {
	if c.conn == ConnConnected {
		return
	}
	wasDialing := c.conn == ConnConnecting
	c.conn = ConnDisconnected
	if !wasDialing {
		return
	}
	switch {
	case c.state == Connecting:
		c.setState(Disconnected)
		c.request = nil
		c.notify(NoticeError, "Could not connect to the game server.", &game.TransportError{Op: "connect", Err: err})
	case (c.reconnectOnDial || c.joinOnDial) && c.request != nil:
		c.redials++
		if c.redials >= maxReconnectAttempts {
			c.unrecoverable("redial failed")
			return
		}
		c.armTimer(c.opts.ReconnectDelay, c.dial)
	}
}

// onDisconnected schedules a redial. A seated player reconnects afterwards; a join that was
// still pending is sent again.
func (c *Controller) onDisconnected(err error) {
	c.conn = ConnDisconnected
	c.clearPending()
	c.logger.WithFields(logrus.Fields{"room": c.session.RoomID, "state": c.state.String(), "error": err}).Info("transport dropped")
	if c.request == nil {
		return
	}
	switch c.state {
	case InLobby, InGame:
		// a new recovery episode
		c.reconnectAttempts = 0
		c.freshJoinUsed = false
		c.setState(Reconnecting)
		c.reconnectOnDial = true
		c.notify(NoticeInfo, "Connection lost, reconnecting.", nil)
	case Reconnecting:
		c.reconnectOnDial = true
		c.notify(NoticeInfo, "Connection lost, reconnecting.", nil)
	case JoiningFresh:
		// the join was interrupted, not refused
		c.freshJoinUsed = false
		c.joinInProgress = false
		c.joinOnDial = true
		c.notify(NoticeInfo, "Connection lost, joining the room again.", nil)
	case AwaitingReconnectOrJoin:
		c.joinAttempted = false
		c.joinInProgress = false
		c.setState(Connecting)
	default:
		return
	}
	c.armTimer(c.opts.ReconnectDelay, c.dial)
}

// scheduleSelfReconnect handles the authority reporting the local player as disconnected
// while the socket is still up.
func (c *Controller) scheduleSelfReconnect() {
	if c.request == nil || (c.state != InGame && c.state != InLobby) {
		return
	}
	c.reconnectAttempts = 0
	c.freshJoinUsed = false
	c.armTimer(c.opts.ReconnectDelay, func() {
		if c.conn == ConnConnected {
			c.startReconnect()
			return
		}
		c.reconnectOnDial = true
		c.dial()
	})
}

// classify fills in meld kinds under the current wild rank.
func classify(melds []models.Meld, wild models.WildRank) []models.Meld {
	out := models.CloneMelds(melds)
	for i := range out {
		out[i].Kind = game.Validate(out[i].Cards, wild)
	}
	return out
}
