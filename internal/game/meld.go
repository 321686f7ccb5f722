// internal/game/meld.go
package game

import (
	"sort"

	"github.com/jason-s-yu/rummy/internal/models"
)

// minNaturals is the fewest printed (non-wild) cards a mixed meld may hold.
// A 3-card set may use one wildcard and a 4-card set two, and runs follow the same cap.
const minNaturals = 2

// maxRunLength is the number of ranks from A to K.
const maxRunLength = 13

// Validate decides whether cards form a set, a run, or nothing under the given wild rank.
// It has no side effects; callers turn MeldInvalid into a user-facing ValidationError.
func Validate(cards []models.Card, wild models.WildRank) models.MeldKind {
	if len(cards) < 3 {
		return models.MeldInvalid
	}

	var naturals []models.Face
	wilds := 0
	seen := make(map[models.Face]bool, len(cards))
	for _, c := range cards {
		if wild.IsWild(c.Face) {
			wilds++
			continue
		}
		if seen[c.Face] {
			// the same physical card cannot sit in a meld twice
			return models.MeldInvalid
		}
		seen[c.Face] = true
		naturals = append(naturals, c.Face)
	}

	if isSet(naturals, wilds, len(cards)) {
		return models.MeldSet
	}
	if isRun(naturals, wilds, len(cards)) {
		return models.MeldRun
	}
	return models.MeldInvalid
}

// isSet: one shared rank, pairwise distinct suits, every wildcard filling exactly one
// missing suit slot, 3 or 4 cards in total.
func isSet(naturals []models.Face, wilds, size int) bool {
	if size != 3 && size != 4 {
		return false
	}
	if len(naturals) < minNaturals {
		return false
	}
	rank := naturals[0].Rank
	suits := make(map[models.Suit]bool, len(naturals))
	for _, f := range naturals {
		if f.Rank != rank || suits[f.Suit] {
			return false
		}
		suits[f.Suit] = true
	}
	return len(suits)+wilds == size
}

// isRun: one shared suit (or no naturals at all), no repeated rank, the fixed Q-K-A
// exception, no K-A-2 wrap, and enough wildcards to fill every gap.
func isRun(naturals []models.Face, wilds, size int) bool {
	if size > maxRunLength {
		return false
	}
	if len(naturals) == 0 {
		return true
	}
	if wilds > 0 && len(naturals) < minNaturals {
		return false
	}

	suit := naturals[0].Suit
	ranks := make([]int, 0, len(naturals))
	has := make(map[models.Rank]bool, len(naturals))
	for _, f := range naturals {
		if f.Suit != suit {
			return false
		}
		ranks = append(ranks, int(f.Rank))
		has[f.Rank] = true
	}
	sort.Ints(ranks)

	if size == 3 && len(naturals) == 3 && has[models.RankQueen] && has[models.RankKing] && has[models.RankAce] {
		return true
	}
	if has[models.RankKing] && has[models.RankAce] && has[models.RankTwo] {
		return false
	}

	gaps := 0
	for i := 1; i < len(ranks); i++ {
		diff := ranks[i] - ranks[i-1]
		if diff == 0 {
			return false
		}
		gaps += diff - 1
	}
	return gaps <= wilds
}

// ValidateMelds checks a batch of groups the local player wants to lay down.
// It returns the kinds in order, or a ValidationError for the first bad group.
// A card identity may appear in only one group.
func ValidateMelds(groups [][]models.Card, wild models.WildRank) ([]models.MeldKind, error) {
	if len(groups) == 0 {
		return nil, Validationf("Select at least one meld to lay down.")
	}
	used := make(map[models.CardID]int)
	kinds := make([]models.MeldKind, len(groups))
	for i, g := range groups {
		for _, c := range g {
			if c.ID == "" {
				continue
			}
			if prev, ok := used[c.ID]; ok {
				return nil, Validationf("Card %s is used in meld %d and meld %d.", c.Face, prev+1, i+1)
			}
			used[c.ID] = i
		}
		kind := Validate(g, wild)
		if kind == models.MeldInvalid {
			return nil, Validationf("Meld %d is not a valid set or run.", i+1)
		}
		kinds[i] = kind
	}
	return kinds, nil
}
