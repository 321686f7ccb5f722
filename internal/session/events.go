// internal/session/events.go
package session

import (
	"fmt"

	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/jason-s-yu/rummy/internal/protocol"
	"github.com/sirupsen/logrus"
)

// handleEvent applies one inbound event. It runs on the loop only.
func (c *Controller) handleEvent(ev protocol.Event) {
	c.logger.WithFields(logrus.Fields{
		"room":  c.session.RoomID,
		"event": ev.Type,
		"state": c.state.String(),
	}).Trace("applying event")

	switch p := ev.Payload.(type) {
	case *protocol.TransportPayload:
		switch ev.Type {
		case protocol.EventTransportConnected:
			c.onConnected()
		case protocol.EventTransportDisconnected:
			c.onDisconnected(p.Err)
		case protocol.EventTransportError:
			c.onConnectError(p.Err)
		}

	case *protocol.JoinedPayload:
		c.onJoined(func() { c.applyJoined(p) })
	case *protocol.RoomUpdatedPayload:
		c.applyRoom(p.Room)
	case *protocol.ReconnectedPayload:
		c.onReconnected(p)

	case *protocol.GameStartedPayload:
		c.onGameStarted(p)
	case *protocol.HandPayload:
		c.onHand(ev.Type, p)
	case *protocol.DiscardPilePayload:
		c.hand.ApplyDiscardPile(p.Pile)
	case *protocol.TurnPayload:
		c.onTurn(ev.Type, p)
	case *protocol.MeldsPayload:
		c.onMelds(p)
	case *protocol.WrongDeclarationPayload:
		c.onWrongDeclaration(p)
	case *protocol.GameOverPayload:
		c.onGameOver(p)

	case *protocol.PlayerStatusPayload:
		c.onPlayerStatus(ev.Type, p)
	case *protocol.PlayerEliminatedPayload:
		c.onEliminated(p)
	case *protocol.GameContinuesPayload:
		c.session.Players = connectedRoster(p.RemainingPlayers)
		c.notify(NoticeInfo, messageOr(p.Message, "The game continues."), nil)

	case *protocol.ErrorPayload:
		c.onErrorEvent(ev.Type, p)

	default:
		c.logger.WithField("event", ev.Type).Warn("unhandled event")
	}
}

func (c *Controller) applyJoined(p *protocol.JoinedPayload) {
	if p.Room != nil {
		c.applyRoom(*p.Room)
		return
	}
	if p.RoomID != "" {
		c.session.RoomID = p.RoomID
	}
	if p.CreatedBy != "" {
		c.session.CreatedBy = p.CreatedBy
	}
	if p.Players != nil {
		c.session.Players = connectedRoster(p.Players)
	}
}

// applyRoom replaces the roster and room attributes; hands and turns are untouched.
func (c *Controller) applyRoom(room protocol.RoomSnapshot) {
	s := room.Session.Clone()
	if s.RoomID == "" {
		s.RoomID = c.session.RoomID
	}
	if s.GameType == "" {
		s.GameType = c.session.GameType
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = c.session.MaxPlayers
	}
	if s.PoolLimit == nil {
		s.PoolLimit = c.session.PoolLimit
	}
	if s.CreatedBy == "" {
		s.CreatedBy = c.session.CreatedBy
	}
	s.Players = c.carryAnnotations(s.Players)
	s.DiscardPile, s.WildCard = nil, nil
	s.EndedWinnerID = c.session.EndedWinnerID
	c.session = s
	if s.Started && c.state == InLobby {
		c.setState(InGame)
	}
}

// onReconnected restores everything from the snapshot. The new stores are built aside and
// swapped in together, so no reader ever sees a half-restored session.
func (c *Controller) onReconnected(p *protocol.ReconnectedPayload) {
	if c.state != Reconnecting || c.request == nil {
		c.logger.WithField("state", c.state.String()).Warn("ignoring unexpected reconnected event")
		return
	}
	snap := p.Game
	sess := snap.Session.Clone()
	if sess.RoomID == "" {
		sess.RoomID = c.request.RoomID
	}
	if sess.GameType == "" {
		sess.GameType = c.request.GameType
	}
	sess.Players = connectedRoster(sess.Players)

	hand := game.NewHandStore(c.opts.Self)
	hand.SetWild(sess.WildCard)
	hand.ApplyDiscardPile(sess.DiscardPile)
	wild := hand.Wild()
	for i, pl := range sess.Players {
		if len(pl.Melds) == 0 {
			continue
		}
		sess.Players[i].Melds = classify(pl.Melds, wild)
		hand.ApplyMeldLaidDown(pl.ID, sess.Players[i].Melds)
	}
	if len(p.Melds) > 0 {
		own := classify(p.Melds, wild)
		hand.ApplyMeldLaidDown(c.opts.Self, own)
		if me, ok := sess.Player(c.opts.Self); ok {
			me.Melds = models.CloneMelds(own)
		}
	}
	hand.ApplyAuthoritativeHand(p.PlayerHand)

	turn := game.NewTurnController(c.opts.Self)
	if sess.Started {
		turn.Restore(snap.CurrentPlayer.Resolve(sess.Players), snap.HasDrawn)
	}
	sess.DiscardPile, sess.WildCard = nil, nil

	c.session, c.hand, c.turn = sess, hand, turn
	c.clearPending()
	c.onJoined(nil)
	c.notify(NoticeInfo, messageOr(p.Message, "Reconnected to the game."), nil)
}

func (c *Controller) onGameStarted(p *protocol.GameStartedPayload) {
	if c.request == nil {
		return
	}
	c.hand.Reset()
	c.turn.Reset()
	c.clearPending()
	c.result = nil
	c.session.Started = true
	c.session.EndedWinnerID = nil
	c.session.Round++
	for i := range c.session.Players {
		c.session.Players[i].Melds = nil
		c.session.Players[i].Status = ""
	}
	c.hand.SetWild(p.WildCard)
	c.hand.ApplyDiscardPile(p.DiscardPile)
	if current := p.CurrentPlayer.Resolve(c.session.Players); current != "" {
		c.turn.AssignTurn(current)
	}
	if c.state == InLobby || c.state == Ended {
		c.setState(InGame)
	}
}

func (c *Controller) onHand(t protocol.EventType, p *protocol.HandPayload) {
	if p.Hand != nil {
		c.hand.ApplyAuthoritativeHand(p.Hand)
	}
	if p.DeckSize != nil {
		c.hand.SetDeckSize(*p.DeckSize)
	}
	switch t {
	case protocol.EventCardDrawn:
		c.drawPending = false
		c.turn.ConfirmDraw()
		if p.DrawnCard != nil {
			c.notify(NoticeInfo, fmt.Sprintf("You drew %s.", p.DrawnCard.Face), nil)
		}
	case protocol.EventUpdateHand:
		if c.discardPending {
			c.discardPending = false
			c.preDiscard = nil
			c.turn.ConfirmDiscard()
		}
	}
}

func (c *Controller) onTurn(t protocol.EventType, p *protocol.TurnPayload) {
	current := p.CurrentPlayerID
	if current == "" && t == protocol.EventYourTurn {
		current = c.opts.Self
	}
	if current == "" {
		return
	}
	if current != c.turn.CurrentPlayer() {
		c.clearPending()
	}
	c.turn.AssignTurn(current)
	if t == protocol.EventYourTurn && p.Message != "" {
		c.notify(NoticeInfo, p.Message, nil)
	}
}

// onMelds overwrites the player's melds with the authority's full list.
func (c *Controller) onMelds(p *protocol.MeldsPayload) {
	melds := classify(p.Melds, c.hand.Wild())
	c.hand.ApplyMeldLaidDown(p.PlayerID, melds)
	if p.PlayerID == c.opts.Self {
		c.meldPending = false
		c.preMeld = nil
	}
	if pl, ok := c.session.Player(p.PlayerID); ok {
		pl.Melds = models.CloneMelds(melds)
	}
}

func (c *Controller) onWrongDeclaration(p *protocol.WrongDeclarationPayload) {
	name := string(p.PlayerID)
	if pl, ok := c.session.Player(p.PlayerID); ok {
		pl.Status = "wrong declaration"
		pl.Penalty += p.PenaltyPoints
		if pl.DisplayName != "" {
			name = pl.DisplayName
		}
	}
	c.notify(NoticeInfo, fmt.Sprintf("%s made a wrong declaration (+%d points).", name, p.PenaltyPoints), nil)
}

func (c *Controller) onGameOver(p *protocol.GameOverPayload) {
	r := p.Result()
	c.turn.EndGame()
	c.clearPending()
	c.cancelTimer()
	c.result = &r
	w := r.WinnerID
	c.session.EndedWinnerID = &w
	for _, line := range r.Scores {
		if pl, ok := c.session.Player(line.PlayerID); ok {
			pl.Score = line.Score
			pl.Prize = line.Prize
		}
	}
	c.setState(Ended)
	if err := c.store.Clear(c.runCtx); err != nil {
		c.logger.WithError(err).Warn("failed to clear session descriptor")
	}
	c.notify(NoticeInfo, messageOr(r.Message, "Game over."), nil)
}

func (c *Controller) onPlayerStatus(t protocol.EventType, p *protocol.PlayerStatusPayload) {
	self := p.PlayerID == c.opts.Self
	switch t {
	case protocol.EventPlayerDisconnected:
		if self {
			c.scheduleSelfReconnect()
			return
		}
		if pl, ok := c.session.Player(p.PlayerID); ok {
			pl.Connected = false
		}
		c.notify(NoticeInfo, messageOr(p.Message, fmt.Sprintf("%s disconnected.", c.nameOf(p.PlayerID, p.UserName))), nil)
	case protocol.EventPlayerReconnected:
		if pl, ok := c.session.Player(p.PlayerID); ok {
			pl.Connected = true
		}
		if !self {
			c.notify(NoticeInfo, messageOr(p.Message, fmt.Sprintf("%s reconnected.", c.nameOf(p.PlayerID, p.UserName))), nil)
		}
	case protocol.EventPlayerDropped, protocol.EventPlayerLeft:
		name := c.nameOf(p.PlayerID, p.UserName)
		c.session.RemovePlayers(p.PlayerID)
		c.hand.ApplyMeldLaidDown(p.PlayerID, nil)
		if self {
			c.selfOut(messageOr(p.Message, "You left the game."))
			return
		}
		verb := "left"
		if t == protocol.EventPlayerDropped {
			verb = "dropped"
		}
		c.notify(NoticeInfo, messageOr(p.Message, fmt.Sprintf("%s %s.", name, verb)), nil)
	}
}

func (c *Controller) onEliminated(p *protocol.PlayerEliminatedPayload) {
	c.session.RemovePlayers(p.Eliminated...)
	for _, id := range p.Eliminated {
		if id == c.opts.Self {
			c.selfOut(messageOr(p.Message, "You have been eliminated."))
			return
		}
	}
	if p.Message != "" {
		c.notify(NoticeInfo, p.Message, nil)
	}
}

// selfOut ends participation without leaving the retained view.
func (c *Controller) selfOut(msg string) {
	if c.state != InGame && c.state != InLobby {
		return
	}
	c.turn.EndGame()
	c.clearPending()
	c.cancelTimer()
	c.setState(Ended)
	if err := c.store.Clear(c.runCtx); err != nil {
		c.logger.WithError(err).Warn("failed to clear session descriptor")
	}
	c.notify(NoticeInfo, msg, nil)
}

func (c *Controller) onErrorEvent(t protocol.EventType, p *protocol.ErrorPayload) {
	switch t {
	case protocol.EventRoomJoinError:
		if c.state == JoiningFresh || c.state == AwaitingReconnectOrJoin {
			c.onJoinRejected(t, p)
			return
		}
	case protocol.EventReconnectFailed:
		c.onReconnectFailed(p.Message)
		return
	case protocol.EventWalletError:
		if c.state == JoiningFresh {
			c.onJoinRejected(t, p)
			return
		}
	case protocol.EventTurnError:
		c.drawPending = false
		switch {
		case c.discardPending:
			// roll back the optimistic discard
			c.hand.ApplyAuthoritativeHand(c.preDiscard)
			c.discardPending = false
			c.preDiscard = nil
		case c.meldPending:
			c.hand.ApplyAuthoritativeHand(c.preMeld)
			c.meldPending = false
			c.preMeld = nil
		}
	}
	perr := &game.ProtocolError{Event: string(t), Message: p.Message, Code: p.Code}
	c.logger.WithFields(logrus.Fields{"room": c.session.RoomID, "event": t, "code": p.Code, "error": p.Message}).Warn("authority rejected request")
	c.notify(NoticeError, perr.Error(), perr)
}

// carryAnnotations keeps connection flags and statuses across roster replacements.
func (c *Controller) carryAnnotations(players []models.PlayerView) []models.PlayerView {
	out := connectedRoster(players)
	for i := range out {
		if prev, ok := c.session.Player(out[i].ID); ok {
			out[i].Connected = prev.Connected
			if out[i].Status == "" {
				out[i].Status = prev.Status
			}
		}
	}
	return out
}

func (c *Controller) nameOf(id models.PlayerID, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if pl, ok := c.session.Player(id); ok && pl.DisplayName != "" {
		return pl.DisplayName
	}
	return string(id)
}

func connectedRoster(players []models.PlayerView) []models.PlayerView {
	out := make([]models.PlayerView, len(players))
	for i, p := range players {
		p.Melds = models.CloneMelds(p.Melds)
		p.Connected = true
		out[i] = p
	}
	return out
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
