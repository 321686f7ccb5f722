// internal/models/player.go
package models

// PlayerID identifies a seat holder; the authority uses the account's user id.
type PlayerID string

// PlayerView is the read projection of one player as reported by the authority.
type PlayerView struct {
	ID          PlayerID `json:"userId"`
	DisplayName string   `json:"userName"`
	Melds       []Meld   `json:"melds,omitempty"`
	Score       int      `json:"score"`
	TotalScore  int      `json:"totalScore,omitempty"`
	Penalty     int      `json:"penalty,omitempty"`
	Prize       float64  `json:"prize,omitempty"`
	Host        bool     `json:"isHost,omitempty"`

	// Connected and Status are roster annotations from playerDisconnected / wrongDeclaration.
	Connected bool   `json:"-"`
	Status    string `json:"status,omitempty"`
}
