// internal/models/card_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFace(t *testing.T) {
	f, err := ParseFace("S10")
	require.NoError(t, err)
	assert.Equal(t, NewFace(SuitSpades, RankTen), f)

	f, err = ParseFace("joker")
	require.NoError(t, err)
	assert.True(t, f.Joker)
	assert.Equal(t, "JOKER", f.String())

	for _, bad := range []string{"", "S", "X5", "S11", "H1"} {
		_, err := ParseFace(bad)
		assert.Error(t, err, bad)
	}
}

func TestCardJSONForms(t *testing.T) {
	var c Card
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c1","value":"HQ"}`), &c))
	assert.Equal(t, NewCard("c1", "HQ"), c)

	require.NoError(t, json.Unmarshal([]byte(`"DA"`), &c))
	assert.Equal(t, CardID(""), c.ID)
	assert.Equal(t, NewFace(SuitDiamonds, RankAce), c.Face)

	b, err := json.Marshal(NewCard("", "C2"))
	require.NoError(t, err)
	assert.Equal(t, `"C2"`, string(b))

	b, err = json.Marshal(NewCard("c9", "JOKER"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c9","value":"JOKER"}`, string(b))
}

func TestWildRank(t *testing.T) {
	w := WildRankOf(MustFace("H7"))
	assert.True(t, w.IsWild(MustFace("S7")))
	assert.True(t, w.IsWild(JokerFace))
	assert.False(t, w.IsWild(MustFace("S8")))

	jokersOnly := WildRankOf(JokerFace)
	assert.False(t, jokersOnly.IsWild(MustFace("S7")))
	assert.True(t, jokersOnly.IsWild(JokerFace))
}

func TestMeldJSONIsBareArray(t *testing.T) {
	var m Meld
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a","value":"S3"},"S4"]`), &m))
	assert.Equal(t, []CardID{"a"}, m.IDs())

	b, err := json.Marshal(Meld{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{Players: []PlayerView{{ID: "a", Melds: []Meld{{Cards: []Card{NewCard("x", "S3")}}}}}}
	c := s.Clone()
	c.Players[0].Melds[0].Cards[0] = NewCard("y", "S4")
	c.Players[0].ID = "b"
	assert.Equal(t, PlayerID("a"), s.Players[0].ID)
	assert.Equal(t, CardID("x"), s.Players[0].Melds[0].Cards[0].ID)
}
