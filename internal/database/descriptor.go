package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/rummy/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_descriptors (
	player_id   TEXT PRIMARY KEY,
	room_id     TEXT NOT NULL,
	game_type   TEXT NOT NULL DEFAULT '',
	max_players INT NOT NULL DEFAULT 0,
	pool_limit  INT,
	is_creator  BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the descriptor table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create session_descriptors: %w", err)
	}
	return nil
}

// PGStore keeps one row per player in session_descriptors.
type PGStore struct {
	pool     *pgxpool.Pool
	playerID models.PlayerID
}

func NewPGStore(pool *pgxpool.Pool, playerID models.PlayerID) *PGStore {
	return &PGStore{pool: pool, playerID: playerID}
}

func (s *PGStore) Load(ctx context.Context) (*models.Descriptor, error) {
	q := `
	SELECT room_id, game_type, max_players, pool_limit, is_creator
	FROM session_descriptors
	WHERE player_id = $1
	`
	var d models.Descriptor
	err := s.pool.QueryRow(ctx, q, string(s.playerID)).Scan(
		&d.RoomID,
		&d.GameType,
		&d.MaxPlayers,
		&d.PoolLimit,
		&d.IsCreator,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load descriptor: %w", err)
	}
	return &d, nil
}

// Save upserts the player's descriptor.
func (s *PGStore) Save(ctx context.Context, d models.Descriptor) error {
	q := `
	INSERT INTO session_descriptors (player_id, room_id, game_type, max_players, pool_limit, is_creator, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (player_id) DO UPDATE SET
		room_id = EXCLUDED.room_id,
		game_type = EXCLUDED.game_type,
		max_players = EXCLUDED.max_players,
		pool_limit = EXCLUDED.pool_limit,
		is_creator = EXCLUDED.is_creator,
		updated_at = now()
	`
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q,
			string(s.playerID),
			d.RoomID,
			d.GameType,
			d.MaxPlayers,
			d.PoolLimit,
			d.IsCreator,
		)
		return err
	})
}

func (s *PGStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM session_descriptors WHERE player_id = $1`, string(s.playerID))
	if err != nil {
		return fmt.Errorf("clear descriptor: %w", err)
	}
	return nil
}
