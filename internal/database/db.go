package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var DB *pgxpool.Pool

// ConnStringFromEnv builds the connection string from DATABASE_URL, or from the
// POSTGRES_USER / POSTGRES_PASSWORD / PG_HOST / PG_PORT / PG_DATABASE variables.
func ConnStringFromEnv() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)
}

// ConnectDB opens the global pool and makes sure the descriptor table exists.
func ConnectDB(ctx context.Context) error {
	config, err := pgxpool.ParseConfig(ConnStringFromEnv())
	if err != nil {
		return fmt.Errorf("unable to parse pgx config: %w", err)
	}

	DB, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := DB.Ping(pingCtx); err != nil {
		DB.Close()
		return fmt.Errorf("db ping error: %w", err)
	}
	return EnsureSchema(ctx, DB)
}
