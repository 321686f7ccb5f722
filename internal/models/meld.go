// internal/models/meld.go
package models

import "encoding/json"

// MeldKind is the shape a group of cards forms.
type MeldKind int

const (
	MeldInvalid MeldKind = iota
	MeldSet              // same rank, distinct suits
	MeldRun              // same suit, consecutive ranks
)

func (k MeldKind) String() string {
	switch k {
	case MeldSet:
		return "set"
	case MeldRun:
		return "run"
	default:
		return "invalid"
	}
}

// Meld is a group of card identities laid down by a player.
// The authority sends melds as plain card arrays, so Kind is filled locally when known.
type Meld struct {
	Kind  MeldKind `json:"-"`
	Cards []Card   `json:"cards"`
}

// MarshalJSON writes the meld as the bare card array the authority uses.
func (m Meld) MarshalJSON() ([]byte, error) {
	if m.Cards == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.Cards)
}

func (m *Meld) UnmarshalJSON(b []byte) error {
	var cards []Card
	if err := json.Unmarshal(b, &cards); err != nil {
		return err
	}
	m.Cards = cards
	return nil
}

// IDs returns the identities of the cards in the meld, skipping cards without one.
func (m Meld) IDs() []CardID {
	ids := make([]CardID, 0, len(m.Cards))
	for _, c := range m.Cards {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
