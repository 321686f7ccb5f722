// internal/protocol/commands.go
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rummy/internal/models"
)

// CommandType names an outbound intent.
type CommandType string

const (
	CmdJoinRoom        CommandType = "joinRoom"
	CmdReconnectToRoom CommandType = "reconnectToRoom"
	CmdStartGame       CommandType = "startGame"
	CmdDrawCard        CommandType = "drawCard"
	CmdDiscardCard     CommandType = "discardCard"
	CmdLayDownMelds    CommandType = "layDownMelds"
	CmdLeaveRoom       CommandType = "leaveRoom"
	CmdDropGame        CommandType = "dropGame"
)

// DrawSource is where a draw takes its card from.
type DrawSource string

const (
	DrawFromDeck    DrawSource = "deck"
	DrawFromDiscard DrawSource = "discard"
)

// Command is one outbound message. Every command gets a fresh request id so the
// authority's replies can be correlated in logs.
type Command struct {
	Type      CommandType
	RequestID string
	Payload   interface{}
}

// JoinPlayer is the joining player's public profile.
type JoinPlayer struct {
	ID   models.PlayerID `json:"userId"`
	Name string          `json:"userName"`
}

type JoinRoomPayload struct {
	RoomID     string     `json:"roomId"`
	GameType   string     `json:"gameType"`
	MaxPlayers int        `json:"maxPlayers"`
	PoolLimit  *int       `json:"poolLimit,omitempty"`
	EntryFee   float64    `json:"entryFee"`
	Player     JoinPlayer `json:"player"`
}

type StartGamePayload struct {
	RoomID string `json:"roomId"`
}

type DrawCardPayload struct {
	DrawFrom DrawSource `json:"drawFrom"`
}

type DiscardCardPayload struct {
	RoomID string      `json:"roomId"`
	Card   models.Card `json:"card"`
}

type LayDownMeldsPayload struct {
	Melds []models.Meld `json:"melds"`
}

func newCommand(t CommandType, payload interface{}) Command {
	return Command{Type: t, RequestID: uuid.NewString(), Payload: payload}
}

func JoinRoom(p JoinRoomPayload) Command { return newCommand(CmdJoinRoom, p) }

func ReconnectToRoom() Command { return newCommand(CmdReconnectToRoom, struct{}{}) }

func StartGame(roomID string) Command {
	return newCommand(CmdStartGame, StartGamePayload{RoomID: roomID})
}

func DrawCard(from DrawSource) Command {
	return newCommand(CmdDrawCard, DrawCardPayload{DrawFrom: from})
}

func DiscardCard(roomID string, card models.Card) Command {
	return newCommand(CmdDiscardCard, DiscardCardPayload{RoomID: roomID, Card: card})
}

func LayDownMelds(melds []models.Meld) Command {
	return newCommand(CmdLayDownMelds, LayDownMeldsPayload{Melds: melds})
}

func LeaveRoom() Command { return newCommand(CmdLeaveRoom, struct{}{}) }

func DropGame() Command { return newCommand(CmdDropGame, struct{}{}) }

// Envelope encodes the command into a wire frame.
func (c Command) Envelope() (Envelope, error) {
	env := Envelope{Type: string(c.Type), RequestID: c.RequestID}
	if c.Payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(c.Payload)
	if err != nil {
		return env, fmt.Errorf("encode %s: %w", c.Type, err)
	}
	env.Payload = raw
	return env, nil
}
