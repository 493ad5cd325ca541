package db

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS standings (
		league_id    TEXT NOT NULL,
		player_id    TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		rank         INT  NOT NULL,
		played       INT  NOT NULL DEFAULT 0,
		wins         INT  NOT NULL DEFAULT 0,
		draws        INT  NOT NULL DEFAULT 0,
		losses       INT  NOT NULL DEFAULT 0,
		points       INT  NOT NULL DEFAULT 0,
		updated_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (league_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS applied_matches (
		league_id  TEXT NOT NULL,
		match_id   TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (league_id, match_id)
	)`,
	`CREATE TABLE IF NOT EXISTS match_records (
		league_id   TEXT  NOT NULL,
		match_id    TEXT  NOT NULL,
		result      JSONB NOT NULL,
		archived_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (league_id, match_id)
	)`,
	`CREATE TABLE IF NOT EXISTS player_history (
		player_id TEXT  NOT NULL,
		match_id  TEXT  NOT NULL,
		entry     JSONB NOT NULL,
		played_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (player_id, match_id)
	)`,
}

// EnsureSchema creates the league tables when they do not exist yet. Safe
// to run on every boot.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
