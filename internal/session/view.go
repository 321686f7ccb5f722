// internal/session/view.go
package session

import (
	"github.com/jason-s-yu/rummy/internal/game"
	"github.com/jason-s-yu/rummy/internal/models"
)

// View is a read-only copy of the controller's state.
type View struct {
	State State
	Conn  ConnState

	Session models.Session

	Hand        []models.Card
	Provisional bool
	DeckSize    int
	DiscardPile []models.Card
	WildCard    *models.Card
	Wild        models.WildRank
	Melds       map[models.PlayerID][]models.Meld

	Turn          game.TurnState
	CurrentPlayer models.PlayerID
	HasDrawn      bool

	Result *models.GameResult
}

// IsMyTurn reports whether the local player may act now.
func (v View) IsMyTurn() bool {
	return v.Turn == game.MyTurnAwaitingDraw || v.Turn == game.MyTurnAwaitingDiscard
}

// DiscardTop returns the drawable discard, if any.
func (v View) DiscardTop() (models.Card, bool) {
	if len(v.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return v.DiscardPile[0], true
}

func (c *Controller) snapshot() View {
	v := View{
		State:         c.state,
		Conn:          c.conn,
		Session:       c.session.Clone(),
		Hand:          c.hand.Hand(),
		Provisional:   c.hand.Provisional(),
		DeckSize:      c.hand.DeckSize(),
		DiscardPile:   c.hand.DiscardPile(),
		Wild:          c.hand.Wild(),
		Melds:         c.hand.AllMelds(),
		Turn:          c.turn.State(),
		CurrentPlayer: c.turn.CurrentPlayer(),
		HasDrawn:      c.turn.HasDrawnThisTurn(),
	}
	if wc, ok := c.hand.WildCard(); ok {
		v.WildCard = &wc
	}
	if c.result != nil {
		r := *c.result
		r.Scores = append([]models.ScoreLine(nil), c.result.Scores...)
		v.Result = &r
	}
	return v
}
