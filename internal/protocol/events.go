// internal/protocol/events.go
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jason-s-yu/rummy/internal/models"
)

// EventType names an inbound event. Names match the authority's socket event names.
type EventType string

// --- Authoritative game events ---
const (
	EventGameStarted       EventType = "gameStarted"
	EventPlayerHand        EventType = "playerHand"
	EventCardDrawn         EventType = "cardDrawn"
	EventUpdateHand        EventType = "updateHand" // hand after the local discard
	EventUpdateDiscardPile EventType = "updateDiscardPile"
	EventYourTurn          EventType = "yourTurn"
	EventTurnEnded         EventType = "turnEnded"
	EventMeldsLaidDown     EventType = "meldsLaidDown"
	EventWrongDeclaration  EventType = "wrongDeclaration"
	EventGameOver          EventType = "gameOver"
)

// --- Room / roster events ---
const (
	EventJoinedRoom         EventType = "joinedPaidRoom"
	EventRoomJoinError      EventType = "roomJoinError"
	EventRoomUpdated        EventType = "roomUpdated"
	EventPlayerDisconnected EventType = "playerDisconnected"
	EventPlayerReconnected  EventType = "playerReconnected"
	EventReconnected        EventType = "reconnected"
	EventReconnectFailed    EventType = "reconnectFailed"
	EventPlayerDropped      EventType = "playerDropped"
	EventPlayerLeft         EventType = "playerLeft"
	EventPlayerEliminated   EventType = "playerEliminated"
	EventGameContinues      EventType = "gameContinues"
	EventTurnError          EventType = "turnError"
	EventWalletError        EventType = "walletError"
)

// --- Transport events, synthesized by the adapter ---
const (
	EventTransportConnected    EventType = "connect"
	EventTransportDisconnected EventType = "disconnect"
	EventTransportError        EventType = "connect_error"
)

// Event is one inbound event with its decoded payload. Payload holds a pointer to one of
// the payload structs below, chosen by Type.
type Event struct {
	Type      EventType
	RequestID string
	Payload   interface{}
}

// IsTransport reports whether the event was produced locally by the adapter.
func (e Event) IsTransport() bool {
	switch e.Type {
	case EventTransportConnected, EventTransportDisconnected, EventTransportError:
		return true
	}
	return false
}

// Envelope is the JSON frame exchanged with the authority.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"reqId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// PlayerRef is a current-player reference. The authority sends either the player id or
// the player's roster index.
type PlayerRef struct {
	ID    models.PlayerID
	Index *int
}

func (r *PlayerRef) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		r.ID = models.PlayerID(id)
		return nil
	}
	var idx int
	if err := json.Unmarshal(b, &idx); err != nil {
		return fmt.Errorf("player reference must be an id or an index: %w", err)
	}
	r.Index = &idx
	return nil
}

func (r PlayerRef) MarshalJSON() ([]byte, error) {
	if r.Index != nil && r.ID == "" {
		return json.Marshal(*r.Index)
	}
	return json.Marshal(string(r.ID))
}

// Resolve maps the reference onto a roster.
func (r PlayerRef) Resolve(players []models.PlayerView) models.PlayerID {
	if r.ID != "" {
		return r.ID
	}
	if r.Index != nil && *r.Index >= 0 && *r.Index < len(players) {
		return players[*r.Index].ID
	}
	return ""
}

// Empty reports whether nothing was sent.
func (r PlayerRef) Empty() bool { return r.ID == "" && r.Index == nil }

// RoomSnapshot is the room object carried by join, roomUpdated and reconnected events.
type RoomSnapshot struct {
	models.Session
	CurrentPlayer PlayerRef `json:"currentPlayerId"`
	HasDrawn      bool      `json:"hasDrawn,omitempty"`
}

// --- Payloads ---

type GameStartedPayload struct {
	DiscardPile   []models.Card `json:"discardPile"`
	CurrentPlayer PlayerRef     `json:"currentPlayerIndex"`
	WildCard      *models.Card  `json:"wildCard"`
}

// HandPayload serves playerHand, cardDrawn and updateHand.
type HandPayload struct {
	Hand      []models.Card `json:"hand"`
	DeckSize  *int          `json:"deckSize,omitempty"`
	DrawnCard *models.Card  `json:"drawnCard,omitempty"`
}

type DiscardPilePayload struct {
	Pile []models.Card
}

type TurnPayload struct {
	CurrentPlayerID models.PlayerID `json:"currentPlayerId"`
	Message         string          `json:"message,omitempty"`
}

type MeldsPayload struct {
	PlayerID models.PlayerID `json:"playerId"`
	Melds    []models.Meld   `json:"melds"`
}

type WrongDeclarationPayload struct {
	PlayerID      models.PlayerID `json:"playerId"`
	PenaltyPoints int             `json:"penaltyPoints"`
}

type GameOverPayload struct {
	models.GameResult
	PrizeAlt *float64 `json:"prize,omitempty"`
}

// Result returns the game result, accepting both prize spellings.
func (p GameOverPayload) Result() models.GameResult {
	r := p.GameResult
	if r.Prize == 0 && p.PrizeAlt != nil {
		r.Prize = *p.PrizeAlt
	}
	return r
}

// PlayerStatusPayload serves playerDisconnected, playerReconnected, playerLeft and playerDropped.
type PlayerStatusPayload struct {
	PlayerID models.PlayerID `json:"playerId"`
	UserName string          `json:"userName,omitempty"`
	Penalty  int             `json:"penalty,omitempty"`
	Message  string          `json:"message,omitempty"`
}

type ReconnectedPayload struct {
	Game       RoomSnapshot  `json:"game"`
	PlayerHand []models.Card `json:"playerHand"`
	Melds      []models.Meld `json:"melds,omitempty"`
	Message    string        `json:"message,omitempty"`
}

type JoinedPayload struct {
	Room      *RoomSnapshot       `json:"room,omitempty"`
	RoomID    string              `json:"roomId,omitempty"`
	Players   []models.PlayerView `json:"players,omitempty"`
	CreatedBy models.PlayerID     `json:"createdBy,omitempty"`
	Message   string              `json:"message,omitempty"`
}

type RoomUpdatedPayload struct {
	Room RoomSnapshot `json:"room"`
}

type GameContinuesPayload struct {
	RemainingPlayers []models.PlayerView `json:"remainingPlayers"`
	Message          string              `json:"message,omitempty"`
}

type PlayerEliminatedPayload struct {
	Eliminated []models.PlayerID `json:"eliminated"`
	Message    string            `json:"message,omitempty"`
}

// ErrorPayload serves roomJoinError, reconnectFailed, turnError and walletError.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TransportPayload accompanies the synthesized transport events.
type TransportPayload struct {
	Err error
}

// payloadFactories maps each event type onto the struct its payload decodes into.
var payloadFactories = map[EventType]func() interface{}{
	EventGameStarted:        func() interface{} { return &GameStartedPayload{} },
	EventPlayerHand:         func() interface{} { return &HandPayload{} },
	EventCardDrawn:          func() interface{} { return &HandPayload{} },
	EventYourTurn:           func() interface{} { return &TurnPayload{} },
	EventTurnEnded:          func() interface{} { return &TurnPayload{} },
	EventMeldsLaidDown:      func() interface{} { return &MeldsPayload{} },
	EventWrongDeclaration:   func() interface{} { return &WrongDeclarationPayload{} },
	EventGameOver:           func() interface{} { return &GameOverPayload{} },
	EventJoinedRoom:         func() interface{} { return &JoinedPayload{} },
	EventRoomJoinError:      func() interface{} { return &ErrorPayload{} },
	EventRoomUpdated:        func() interface{} { return &RoomUpdatedPayload{} },
	EventPlayerDisconnected: func() interface{} { return &PlayerStatusPayload{} },
	EventPlayerReconnected:  func() interface{} { return &PlayerStatusPayload{} },
	EventReconnected:        func() interface{} { return &ReconnectedPayload{} },
	EventReconnectFailed:    func() interface{} { return &ErrorPayload{} },
	EventPlayerDropped:      func() interface{} { return &PlayerStatusPayload{} },
	EventPlayerLeft:         func() interface{} { return &PlayerStatusPayload{} },
	EventPlayerEliminated:   func() interface{} { return &PlayerEliminatedPayload{} },
	EventGameContinues:      func() interface{} { return &GameContinuesPayload{} },
	EventTurnError:          func() interface{} { return &ErrorPayload{} },
	EventWalletError:        func() interface{} { return &ErrorPayload{} },
}

// DecodeEnvelope turns a frame into a typed Event.
func DecodeEnvelope(env Envelope) (Event, error) {
	t := EventType(env.Type)
	ev := Event{Type: t, RequestID: env.RequestID}

	switch t {
	case EventUpdateHand:
		// the authority sends the bare hand array here
		var hand []models.Card
		if err := decodeRaw(env.Payload, &hand); err != nil {
			return ev, fmt.Errorf("decode %s: %w", t, err)
		}
		ev.Payload = &HandPayload{Hand: hand}
		return ev, nil
	case EventUpdateDiscardPile:
		var pile []models.Card
		if err := decodeRaw(env.Payload, &pile); err != nil {
			return ev, fmt.Errorf("decode %s: %w", t, err)
		}
		ev.Payload = &DiscardPilePayload{Pile: pile}
		return ev, nil
	}

	factory, ok := payloadFactories[t]
	if !ok {
		return ev, fmt.Errorf("unknown event type %q", env.Type)
	}
	payload := factory()
	if err := decodeRaw(env.Payload, payload); err != nil {
		return ev, fmt.Errorf("decode %s: %w", t, err)
	}
	ev.Payload = payload
	return ev, nil
}

func decodeRaw(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// EncodeEvent builds the frame for an event. The authority side of tests uses it.
func EncodeEvent(t EventType, payload interface{}) (Envelope, error) {
	env := Envelope{Type: string(t)}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return env, fmt.Errorf("encode %s: %w", t, err)
	}
	env.Payload = raw
	return env, nil
}
