// internal/game/hand_store.go
package game

import (
	"github.com/jason-s-yu/rummy/internal/models"
)

// HandStore holds the local hand, the shared discard pile, the deal's wild card and the
// melds every player has laid down.
//
// Authoritative snapshots always replace the matching sub-resource wholesale; optimistic
// edits (RemoveFromHand) are provisional and never merged with a later snapshot.
// HandStore is not safe for concurrent use; the session event loop owns it.
type HandStore struct {
	self models.PlayerID

	hand        []models.Card
	provisional bool
	deckSize    int

	discard []models.Card
	wild    *models.Card

	melds map[models.PlayerID][]models.Meld
}

// NewHandStore returns an empty store for the given local player.
func NewHandStore(self models.PlayerID) *HandStore {
	return &HandStore{
		self:  self,
		melds: make(map[models.PlayerID][]models.Meld),
	}
}

// ApplyAuthoritativeHand replaces the local hand (deal, draw confirmation, reconnect).
// Cards already laid down by the local player are kept out of the hand.
// It reports whether the stored hand changed; applying the same snapshot twice is a no-op.
func (h *HandStore) ApplyAuthoritativeHand(cards []models.Card) bool {
	next := h.withoutLaidDown(cards)
	changed := h.provisional || !sameCards(h.hand, next)
	h.hand = next
	h.provisional = false
	return changed
}

// SetDeckSize records the stock size reported with a hand snapshot.
func (h *HandStore) SetDeckSize(n int) {
	h.deckSize = n
}

// ApplyMeldLaidDown overwrites the complete meld list of a player. The authority always
// sends the full current list, so nothing is appended.
func (h *HandStore) ApplyMeldLaidDown(playerID models.PlayerID, melds []models.Meld) {
	if len(melds) == 0 {
		delete(h.melds, playerID)
	} else {
		h.melds[playerID] = models.CloneMelds(melds)
	}
	if playerID == h.self {
		h.hand = h.withoutLaidDown(h.hand)
	}
}

// RemoveFromHand takes cards out of the hand ahead of the authority's confirmation so a
// renderer can show the change at once. Either every id is removed or none is.
func (h *HandStore) RemoveFromHand(ids []models.CardID) error {
	drop := make(map[models.CardID]bool, len(ids))
	for _, id := range ids {
		if !h.Contains(id) {
			return Validationf("Card %s is not in your hand.", id)
		}
		drop[id] = true
	}
	kept := make([]models.Card, 0, len(h.hand))
	for _, c := range h.hand {
		if !drop[c.ID] {
			kept = append(kept, c)
		}
	}
	h.hand = kept
	h.provisional = true
	return nil
}

// ApplyDiscardPile replaces the discard pile; index 0 is the most recent discard.
func (h *HandStore) ApplyDiscardPile(pile []models.Card) {
	h.discard = append([]models.Card(nil), pile...)
}

// SetWild records the wild card for the current deal.
func (h *HandStore) SetWild(card *models.Card) {
	if card == nil {
		h.wild = nil
		return
	}
	c := *card
	h.wild = &c
}

// Wild returns the wild rank for the current deal. Without a wild card only printed
// Jokers are wild.
func (h *HandStore) Wild() models.WildRank {
	if h.wild == nil {
		return models.WildRank(models.RankNone)
	}
	return models.WildRankOf(h.wild.Face)
}

// WildCard returns the current deal's wild card, if any.
func (h *HandStore) WildCard() (models.Card, bool) {
	if h.wild == nil {
		return models.Card{}, false
	}
	return *h.wild, true
}

// Hand returns a copy of the local hand.
func (h *HandStore) Hand() []models.Card {
	return append([]models.Card(nil), h.hand...)
}

// Card looks up a card in the hand by identity.
func (h *HandStore) Card(id models.CardID) (models.Card, bool) {
	for _, c := range h.hand {
		if c.ID == id {
			return c, true
		}
	}
	return models.Card{}, false
}

// Contains reports whether id is in the local hand.
func (h *HandStore) Contains(id models.CardID) bool {
	_, ok := h.Card(id)
	return ok
}

// Provisional reports whether the hand carries optimistic edits not yet confirmed.
func (h *HandStore) Provisional() bool { return h.provisional }

// DeckSize returns the last reported stock size.
func (h *HandStore) DeckSize() int { return h.deckSize }

// DiscardPile returns a copy of the discard pile.
func (h *HandStore) DiscardPile() []models.Card {
	return append([]models.Card(nil), h.discard...)
}

// DiscardTop returns the only card drawable from the discard pile.
func (h *HandStore) DiscardTop() (models.Card, bool) {
	if len(h.discard) == 0 {
		return models.Card{}, false
	}
	return h.discard[0], true
}

// Melds returns a copy of a player's laid-down melds.
func (h *HandStore) Melds(playerID models.PlayerID) []models.Meld {
	return models.CloneMelds(h.melds[playerID])
}

// AllMelds returns a copy of every player's laid-down melds.
func (h *HandStore) AllMelds() map[models.PlayerID][]models.Meld {
	out := make(map[models.PlayerID][]models.Meld, len(h.melds))
	for id, m := range h.melds {
		out[id] = models.CloneMelds(m)
	}
	return out
}

// Reset clears everything, used on leave and on a new session.
func (h *HandStore) Reset() {
	h.hand = nil
	h.provisional = false
	h.deckSize = 0
	h.discard = nil
	h.wild = nil
	h.melds = make(map[models.PlayerID][]models.Meld)
}

// withoutLaidDown filters out cards already in one of the local player's melds.
func (h *HandStore) withoutLaidDown(cards []models.Card) []models.Card {
	laid := make(map[models.CardID]bool)
	for _, m := range h.melds[h.self] {
		for _, id := range m.IDs() {
			laid[id] = true
		}
	}
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.ID != "" && laid[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out
}

func sameCards(a, b []models.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
