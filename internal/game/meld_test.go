// internal/game/meld_test.go
package game

import (
	"testing"

	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cards builds a hand of uniquely identified cards from face literals.
func cards(faces ...string) []models.Card {
	out := make([]models.Card, len(faces))
	for i, f := range faces {
		out[i] = models.NewCard(models.CardID(f+"#"+string(rune('a'+i))), f)
	}
	return out
}

func wildOf(face string) models.WildRank {
	return models.WildRankOf(models.MustFace(face))
}

func TestValidateTooFewCards(t *testing.T) {
	wild := wildOf("D5")
	assert.Equal(t, models.MeldInvalid, Validate(nil, wild))
	assert.Equal(t, models.MeldInvalid, Validate(cards("SA"), wild))
	assert.Equal(t, models.MeldInvalid, Validate(cards("SA", "S2"), wild))
	assert.Equal(t, models.MeldInvalid, Validate(cards("JOKER", "JOKER"), wild))
}

func TestValidateRuns(t *testing.T) {
	wild := wildOf("C5")

	assert.Equal(t, models.MeldRun, Validate(cards("SA", "S2", "S3"), wild), "low ace run")
	assert.Equal(t, models.MeldRun, Validate(cards("HQ", "HK", "HA"), wild), "fixed Q-K-A wrap")
	assert.Equal(t, models.MeldInvalid, Validate(cards("SK", "SA", "S2"), wild), "K-A-2 wrap is forbidden")
	assert.Equal(t, models.MeldRun, Validate(cards("D9", "D10", "DJ", "DQ"), wild))
	assert.Equal(t, models.MeldInvalid, Validate(cards("D9", "D10", "HJ"), wild), "mixed suits")
	assert.Equal(t, models.MeldInvalid, Validate(cards("D9", "D10", "DQ"), wild), "gap without wildcard")
}

func TestValidateRunWithWildcards(t *testing.T) {
	wild := wildOf("C5")

	assert.Equal(t, models.MeldRun, Validate(cards("D9", "JOKER", "DJ"), wild), "joker fills the gap")
	assert.Equal(t, models.MeldRun, Validate(cards("D9", "H5", "DJ"), wild), "wild-rank card fills the gap")
	assert.Equal(t, models.MeldRun, Validate(cards("S3", "S6", "JOKER", "D5"), wild), "two wilds fill two gaps")
	assert.Equal(t, models.MeldInvalid, Validate(cards("S3", "S7", "JOKER"), wild), "three missing ranks, one wild")
	assert.Equal(t, models.MeldRun, Validate(cards("SQ", "SK", "JOKER"), wild), "wild extends the end")
	assert.Equal(t, models.MeldRun, Validate(cards("JOKER", "H5", "C5"), wild), "all-wild group")
}

func TestValidateSets(t *testing.T) {
	wild := wildOf("C5")

	assert.Equal(t, models.MeldSet, Validate(cards("S7", "H7", "D7"), wild))
	assert.Equal(t, models.MeldSet, Validate(cards("S7", "H7", "D7", "C7"), wild))
	assert.Equal(t, models.MeldSet, Validate(cards("S7", "H7", "JOKER"), wild))
	assert.Equal(t, models.MeldSet, Validate(cards("S7", "H7", "JOKER", "D5"), wild), "4-card set with two wilds")
	assert.Equal(t, models.MeldInvalid, Validate(cards("S7", "H7", "D8"), wild), "mixed ranks")
	assert.Equal(t, models.MeldInvalid, Validate(cards("S7", "H7", "D7", "C7", "JOKER"), wild), "sets stop at four cards")
}

func TestValidateDuplicatePhysicalCard(t *testing.T) {
	assert.Equal(t, models.MeldInvalid, Validate(cards("S7", "S7", "S7"), wildOf("C5")))
	assert.Equal(t, models.MeldInvalid, Validate(cards("S7", "S8", "S8", "S9"), wildOf("C5")))
}

func TestValidateSingleNaturalWithTwoWilds(t *testing.T) {
	// rank 9 is wild, so the diamond nine and the joker are both wildcards
	// and only the club five is natural
	assert.Equal(t, models.MeldInvalid, Validate(cards("C5", "D9", "JOKER"), wildOf("S9")))
}

func TestValidateJokerAsWildCard(t *testing.T) {
	wild := models.WildRankOf(models.JokerFace)
	assert.Equal(t, models.MeldInvalid, Validate(cards("S5", "H5", "C6"), wild))
	assert.Equal(t, models.MeldSet, Validate(cards("S5", "H5", "JOKER"), wild))
}

func TestValidateMelds(t *testing.T) {
	wild := wildOf("C5")
	run := cards("SA", "S2", "S3")
	set := cards("H7", "D7", "C7")

	kinds, err := ValidateMelds([][]models.Card{run, set}, wild)
	require.NoError(t, err)
	assert.Equal(t, []models.MeldKind{models.MeldRun, models.MeldSet}, kinds)

	_, err = ValidateMelds([][]models.Card{run, cards("H7", "D8", "C9")}, wild)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "Meld 2")

	_, err = ValidateMelds([][]models.Card{run, {run[0], set[0], set[1]}}, wild)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "used in meld 1 and meld 2")

	_, err = ValidateMelds(nil, wild)
	require.ErrorAs(t, err, &verr)
}
