// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit is one of the four French suits. The zero value is used for the printed Joker.
type Suit string

const (
	SuitNone     Suit = ""
	SuitClubs    Suit = "C"
	SuitDiamonds Suit = "D"
	SuitHearts   Suit = "H"
	SuitSpades   Suit = "S"
)

// Rank is a card rank in the fixed order A,2..10,J,Q,K.
type Rank int

const (
	RankNone Rank = iota
	RankAce
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
)

// jokerLiteral is the wire spelling of the printed Joker.
const jokerLiteral = "JOKER"

var rankLiterals = map[Rank]string{
	RankAce: "A", RankTwo: "2", RankThree: "3", RankFour: "4", RankFive: "5",
	RankSix: "6", RankSeven: "7", RankEight: "8", RankNine: "9", RankTen: "10",
	RankJack: "J", RankQueen: "Q", RankKing: "K",
}

// String returns the wire spelling of the rank ("A", "10", "K").
func (r Rank) String() string {
	if s, ok := rankLiterals[r]; ok {
		return s
	}
	return "?"
}

func parseRank(s string) (Rank, bool) {
	for r, lit := range rankLiterals {
		if lit == s {
			return r, true
		}
	}
	return RankNone, false
}

func parseSuit(s string) (Suit, bool) {
	switch Suit(s) {
	case SuitClubs, SuitDiamonds, SuitHearts, SuitSpades:
		return Suit(s), true
	}
	return SuitNone, false
}

// Face is the printed value of a card. Two physical cards may share a Face.
type Face struct {
	Suit  Suit
	Rank  Rank
	Joker bool
}

// JokerFace is the printed Joker.
var JokerFace = Face{Joker: true}

// NewFace builds a natural face.
func NewFace(suit Suit, rank Rank) Face {
	return Face{Suit: suit, Rank: rank}
}

// ParseFace decodes "S10", "HQ", "DA" or "JOKER".
func ParseFace(s string) (Face, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == jokerLiteral {
		return JokerFace, nil
	}
	if len(s) < 2 {
		return Face{}, fmt.Errorf("invalid card literal %q", s)
	}
	suit, ok := parseSuit(s[:1])
	if !ok {
		return Face{}, fmt.Errorf("invalid suit in card literal %q", s)
	}
	rank, ok := parseRank(s[1:])
	if !ok {
		return Face{}, fmt.Errorf("invalid rank in card literal %q", s)
	}
	return Face{Suit: suit, Rank: rank}, nil
}

// MustFace is ParseFace for literals known at compile time.
func MustFace(s string) Face {
	f, err := ParseFace(s)
	if err != nil {
		panic(err)
	}
	return f
}

// String returns the wire spelling of the face.
func (f Face) String() string {
	if f.Joker {
		return jokerLiteral
	}
	return string(f.Suit) + f.Rank.String()
}

func (f Face) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Face) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseFace(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// CardID is the identity token the authority assigns to a dealt card.
type CardID string

// Card is a dealt card: identity plus face. Discard pile entries may carry no ID.
type Card struct {
	ID CardID
	Face
}

// NewCard builds a card with the given identity and face literal.
func NewCard(id CardID, face string) Card {
	return Card{ID: id, Face: MustFace(face)}
}

type wireCard struct {
	ID    CardID `json:"id,omitempty"`
	Value string `json:"value"`
}

// MarshalJSON writes {"id":..., "value":...}, or the bare face when the card has no ID.
func (c Card) MarshalJSON() ([]byte, error) {
	if c.ID == "" {
		return json.Marshal(c.Face.String())
	}
	return json.Marshal(wireCard{ID: c.ID, Value: c.Face.String()})
}

// UnmarshalJSON accepts both the bare face string and the {"id","value"} object.
func (c *Card) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, `"`) {
		var f Face
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*c = Card{Face: f}
		return nil
	}
	var w wireCard
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("invalid card object: %w", err)
	}
	f, err := ParseFace(w.Value)
	if err != nil {
		return err
	}
	*c = Card{ID: w.ID, Face: f}
	return nil
}

// WildRank is the rank designated wild for the current deal.
// RankNone means only printed Jokers are wild.
type WildRank Rank

// WildRankOf derives the wild rank from the deal's wild card.
func WildRankOf(wildCard Face) WildRank {
	if wildCard.Joker {
		return WildRank(RankNone)
	}
	return WildRank(wildCard.Rank)
}

// IsWild reports whether f substitutes for any card under w.
func (w WildRank) IsWild(f Face) bool {
	if f.Joker {
		return true
	}
	return Rank(w) != RankNone && f.Rank == Rank(w)
}
