// internal/protocol/events_test.go
package protocol

import (
	"encoding/json"
	"testing"

	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, frame string) Event {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(frame), &env))
	ev, err := DecodeEnvelope(env)
	require.NoError(t, err)
	return ev
}

func TestDecodeGameStarted(t *testing.T) {
	ev := decode(t, `{"type":"gameStarted","payload":{"discardPile":["H7"],"currentPlayerIndex":"u1","wildCard":"D9"}}`)
	p, ok := ev.Payload.(*GameStartedPayload)
	require.True(t, ok)
	assert.Equal(t, models.PlayerID("u1"), p.CurrentPlayer.ID)
	require.Len(t, p.DiscardPile, 1)
	assert.Equal(t, models.MustFace("H7"), p.DiscardPile[0].Face)
	require.NotNil(t, p.WildCard)
	assert.Equal(t, models.WildRank(models.RankNine), models.WildRankOf(p.WildCard.Face))
}

func TestPlayerRefByIndex(t *testing.T) {
	ev := decode(t, `{"type":"gameStarted","payload":{"currentPlayerIndex":1}}`)
	p := ev.Payload.(*GameStartedPayload)
	roster := []models.PlayerView{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, models.PlayerID("b"), p.CurrentPlayer.Resolve(roster))

	var out PlayerRef
	assert.Equal(t, models.PlayerID(""), out.Resolve(roster))
	assert.True(t, out.Empty())
}

func TestDecodeHandEvents(t *testing.T) {
	ev := decode(t, `{"type":"playerHand","payload":{"hand":[{"id":"c1","value":"SA"},{"id":"c2","value":"JOKER"}],"deckSize":40}}`)
	p := ev.Payload.(*HandPayload)
	require.Len(t, p.Hand, 2)
	assert.Equal(t, models.CardID("c1"), p.Hand[0].ID)
	assert.True(t, p.Hand[1].Joker)
	require.NotNil(t, p.DeckSize)
	assert.Equal(t, 40, *p.DeckSize)

	// updateHand and updateDiscardPile carry bare arrays
	ev = decode(t, `{"type":"updateHand","payload":[{"id":"c1","value":"SA"}]}`)
	assert.Len(t, ev.Payload.(*HandPayload).Hand, 1)

	ev = decode(t, `{"type":"updateDiscardPile","payload":["S2","H3"]}`)
	pile := ev.Payload.(*DiscardPilePayload).Pile
	require.Len(t, pile, 2)
	assert.Equal(t, models.MustFace("S2"), pile[0].Face)
}

func TestDecodeReconnected(t *testing.T) {
	frame := `{"type":"reconnected","payload":{
		"game":{"roomId":"r1","gameType":"pool","maxPlayers":4,"started":true,
			"players":[{"userId":"me","userName":"Me","score":0},{"userId":"op","userName":"Op","score":12}],
			"discardPile":["C4"],"wildCard":"H5","currentPlayerId":"me","hasDrawn":true},
		"playerHand":[{"id":"c9","value":"D2"}],
		"message":"welcome back"}}`
	ev := decode(t, frame)
	p := ev.Payload.(*ReconnectedPayload)
	assert.Equal(t, "r1", p.Game.RoomID)
	assert.True(t, p.Game.Started)
	assert.Len(t, p.Game.Players, 2)
	assert.Equal(t, models.PlayerID("me"), p.Game.CurrentPlayer.ID)
	assert.True(t, p.Game.HasDrawn)
	require.NotNil(t, p.Game.WildCard)
	assert.Len(t, p.PlayerHand, 1)
}

func TestDecodeGameOverPrizeSpellings(t *testing.T) {
	ev := decode(t, `{"type":"gameOver","payload":{"winnerId":"u2","message":"u2 wins","prize":90}}`)
	r := ev.Payload.(*GameOverPayload).Result()
	assert.Equal(t, models.PlayerID("u2"), r.WinnerID)
	assert.Equal(t, 90.0, r.Prize)

	ev = decode(t, `{"type":"gameOver","payload":{"winnerId":"u2","prizeWon":45.5}}`)
	assert.Equal(t, 45.5, ev.Payload.(*GameOverPayload).Result().Prize)
}

func TestDecodeMeldsLaidDown(t *testing.T) {
	ev := decode(t, `{"type":"meldsLaidDown","payload":{"playerId":"u1","melds":[[{"id":"a","value":"S3"},{"id":"b","value":"S4"},{"id":"c","value":"S5"}]]}}`)
	p := ev.Payload.(*MeldsPayload)
	assert.Equal(t, models.PlayerID("u1"), p.PlayerID)
	require.Len(t, p.Melds, 1)
	assert.Equal(t, []models.CardID{"a", "b", "c"}, p.Melds[0].IDs())
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodeEnvelope(Envelope{Type: "mystery"})
	assert.Error(t, err)
}

func TestDecodeEveryRegisteredType(t *testing.T) {
	for typ := range payloadFactories {
		ev, err := DecodeEnvelope(Envelope{Type: string(typ)})
		require.NoError(t, err, typ)
		assert.NotNil(t, ev.Payload, typ)
		assert.False(t, ev.IsTransport())
	}
}

func TestCommandEnvelope(t *testing.T) {
	pool := 101
	cmd := JoinRoom(JoinRoomPayload{
		RoomID: "r1", GameType: "pool", MaxPlayers: 2, PoolLimit: &pool,
		Player: JoinPlayer{ID: "u1", Name: "Ann"},
	})
	env, err := cmd.Envelope()
	require.NoError(t, err)
	assert.Equal(t, "joinRoom", env.Type)
	assert.NotEmpty(t, env.RequestID)
	assert.JSONEq(t, `{"roomId":"r1","gameType":"pool","maxPlayers":2,"poolLimit":101,"entryFee":0,"player":{"userId":"u1","userName":"Ann"}}`, string(env.Payload))

	env, err = DiscardCard("r1", models.NewCard("c7", "H7")).Envelope()
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"r1","card":{"id":"c7","value":"H7"}}`, string(env.Payload))

	assert.NotEqual(t, LeaveRoom().RequestID, LeaveRoom().RequestID)
}
