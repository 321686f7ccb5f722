// internal/game/turn.go
package game

import (
	"github.com/jason-s-yu/rummy/internal/models"
)

// TurnState gates which local actions are available.
type TurnState int

const (
	NotMyTurn TurnState = iota
	MyTurnAwaitingDraw
	MyTurnAwaitingDiscard
	GameEnded
)

func (s TurnState) String() string {
	switch s {
	case NotMyTurn:
		return "not_my_turn"
	case MyTurnAwaitingDraw:
		return "my_turn_awaiting_draw"
	case MyTurnAwaitingDiscard:
		return "my_turn_awaiting_discard"
	case GameEnded:
		return "game_ended"
	default:
		return "unknown"
	}
}

// TurnController tracks whose turn it is and whether the local player has drawn.
// Laying down melds never changes the state; only a discard, a turn assignment or game
// over does.
type TurnController struct {
	self             models.PlayerID
	state            TurnState
	currentPlayerID  models.PlayerID
	hasDrawnThisTurn bool
}

// NewTurnController starts in NotMyTurn.
func NewTurnController(self models.PlayerID) *TurnController {
	return &TurnController{self: self}
}

// AssignTurn applies a yourTurn/turnEnded event. Once the game has ended it is ignored.
func (t *TurnController) AssignTurn(current models.PlayerID) TurnState {
	if t.state == GameEnded {
		return t.state
	}
	if current != t.currentPlayerID {
		t.hasDrawnThisTurn = false
	}
	t.currentPlayerID = current
	switch {
	case current != t.self:
		t.state = NotMyTurn
	case t.hasDrawnThisTurn:
		// same player re-announced after the draw, e.g. a roster update mid-turn
		t.state = MyTurnAwaitingDiscard
	default:
		t.state = MyTurnAwaitingDraw
	}
	return t.state
}

// CanDraw returns a TurnViolation unless a draw is allowed now.
func (t *TurnController) CanDraw() error {
	switch t.state {
	case MyTurnAwaitingDraw:
		return nil
	case MyTurnAwaitingDiscard:
		return t.violation("draw", "You have already drawn a card this turn.")
	case GameEnded:
		return t.violation("draw", "The game is over.")
	default:
		return t.violation("draw", "It's not your turn!")
	}
}

// CanDiscard returns a TurnViolation unless a discard is allowed now.
func (t *TurnController) CanDiscard() error {
	switch t.state {
	case MyTurnAwaitingDiscard:
		return nil
	case MyTurnAwaitingDraw:
		return t.violation("discard", "You must draw before discarding!")
	case GameEnded:
		return t.violation("discard", "The game is over.")
	default:
		return t.violation("discard", "It's not your turn!")
	}
}

// CanLayDown allows melds in either phase of the local player's turn.
func (t *TurnController) CanLayDown() error {
	switch t.state {
	case MyTurnAwaitingDraw, MyTurnAwaitingDiscard:
		return nil
	case GameEnded:
		return t.violation("lay_down", "The game is over.")
	default:
		return t.violation("lay_down", "It's not your turn!")
	}
}

// ConfirmDraw applies the authority's draw confirmation.
func (t *TurnController) ConfirmDraw() TurnState {
	if t.state == MyTurnAwaitingDraw {
		t.state = MyTurnAwaitingDiscard
		t.hasDrawnThisTurn = true
	}
	return t.state
}

// ConfirmDiscard applies the authority's post-discard hand update. The turn is over for
// the local player until the next assignment arrives.
func (t *TurnController) ConfirmDiscard() TurnState {
	if t.state == MyTurnAwaitingDiscard {
		t.state = NotMyTurn
		t.hasDrawnThisTurn = false
	}
	return t.state
}

// EndGame forces GameEnded from any state.
func (t *TurnController) EndGame() {
	t.state = GameEnded
}

// Restore seeds the controller from a reconnect snapshot.
func (t *TurnController) Restore(current models.PlayerID, hasDrawn bool) TurnState {
	t.state = NotMyTurn
	t.currentPlayerID = ""
	t.hasDrawnThisTurn = false
	if current == "" {
		return t.state
	}
	t.AssignTurn(current)
	if hasDrawn && t.state == MyTurnAwaitingDraw {
		t.state = MyTurnAwaitingDiscard
		t.hasDrawnThisTurn = true
	}
	return t.state
}

// Reset returns to the initial state for a new session.
func (t *TurnController) Reset() {
	t.state = NotMyTurn
	t.currentPlayerID = ""
	t.hasDrawnThisTurn = false
}

func (t *TurnController) State() TurnState { return t.state }

func (t *TurnController) CurrentPlayer() models.PlayerID { return t.currentPlayerID }

func (t *TurnController) HasDrawnThisTurn() bool { return t.hasDrawnThisTurn }

// IsMyTurn reports whether the local player holds the turn.
func (t *TurnController) IsMyTurn() bool {
	return t.state == MyTurnAwaitingDraw || t.state == MyTurnAwaitingDiscard
}

func (t *TurnController) violation(action, reason string) *TurnViolation {
	return &TurnViolation{Action: action, State: t.state, Reason: reason}
}
