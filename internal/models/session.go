// internal/models/session.go
package models

// Session is the client's copy of the room it sits in. It is only ever changed by
// applying authoritative events.
type Session struct {
	RoomID        string       `json:"roomId"`
	GameType      string       `json:"gameType"`
	MaxPlayers    int          `json:"maxPlayers"`
	PoolLimit     *int         `json:"poolLimit,omitempty"`
	Round         int          `json:"round,omitempty"`
	CreatedBy     PlayerID     `json:"createdBy,omitempty"`
	Players       []PlayerView `json:"players"`
	Started       bool         `json:"started"`
	EndedWinnerID *PlayerID    `json:"-"`

	// Snapshot-only fields carried by the reconnect payload.
	DiscardPile []Card `json:"discardPile,omitempty"`
	WildCard    *Card  `json:"wildCard,omitempty"`
}

// Player returns the roster entry for id.
func (s *Session) Player(id PlayerID) (*PlayerView, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

// HasPlayer reports whether id is seated in the room.
func (s *Session) HasPlayer(id PlayerID) bool {
	_, ok := s.Player(id)
	return ok
}

// RemovePlayers drops the given ids from the roster.
func (s *Session) RemovePlayers(ids ...PlayerID) {
	drop := make(map[PlayerID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.Players[:0]
	for _, p := range s.Players {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	s.Players = kept
}

// Clone returns a deep copy safe to hand to readers outside the event loop.
func (s Session) Clone() Session {
	out := s
	out.Players = make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		p.Melds = cloneMelds(p.Melds)
		out.Players[i] = p
	}
	out.DiscardPile = append([]Card(nil), s.DiscardPile...)
	if s.EndedWinnerID != nil {
		w := *s.EndedWinnerID
		out.EndedWinnerID = &w
	}
	if s.PoolLimit != nil {
		pl := *s.PoolLimit
		out.PoolLimit = &pl
	}
	if s.WildCard != nil {
		wc := *s.WildCard
		out.WildCard = &wc
	}
	return out
}

func cloneMelds(in []Meld) []Meld {
	if in == nil {
		return nil
	}
	out := make([]Meld, len(in))
	for i, m := range in {
		out[i] = Meld{Kind: m.Kind, Cards: append([]Card(nil), m.Cards...)}
	}
	return out
}

// CloneMelds deep-copies a meld list.
func CloneMelds(in []Meld) []Meld { return cloneMelds(in) }

// ScoreLine is one entry of the final score table.
type ScoreLine struct {
	PlayerID PlayerID `json:"playerId"`
	Score    int      `json:"score"`
	Prize    float64  `json:"prize,omitempty"`
}

// GameResult is retained after game over for display only; nothing here is computed locally.
type GameResult struct {
	WinnerID PlayerID    `json:"winnerId"`
	Message  string      `json:"message"`
	Scores   []ScoreLine `json:"scores"`
	Prize    float64     `json:"prizeWon"`
}

// Descriptor is the minimal session record kept in durable storage so a restarted
// client can choose between reconnecting and joining fresh.
type Descriptor struct {
	RoomID     string `json:"roomId"`
	GameType   string `json:"gameType"`
	MaxPlayers int    `json:"maxPlayers,omitempty"`
	PoolLimit  *int   `json:"poolLimit,omitempty"`
	IsCreator  bool   `json:"isCreator"`
}
