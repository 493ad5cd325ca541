package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/agent-league/models"
)

var ErrStandingsNotFound = errors.New("standings snapshot not found")

// StandingsRepository persists one standings table per league. Commit must
// write the rows and the applied-match index as a single atomic unit, so a
// crash can never separate a counted result from its idempotency marker.
type StandingsRepository interface {
	Load(ctx context.Context, leagueID string) (*models.StandingsTable, error)
	Commit(ctx context.Context, table *models.StandingsTable) error
}

type postgresStandingsRepository struct {
	db *sql.DB
}

func NewPostgresStandingsRepository(db *sql.DB) StandingsRepository {
	return &postgresStandingsRepository{db: db}
}

func (r *postgresStandingsRepository) Load(ctx context.Context, leagueID string) (*models.StandingsTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT player_id, display_name, rank, played, wins, draws, losses, points, updated_at
		FROM standings
		WHERE league_id = $1
		ORDER BY rank ASC, player_id ASC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("load standings for %s: %w", leagueID, err)
	}
	defer rows.Close()

	table := models.NewStandingsTable(leagueID)
	for rows.Next() {
		var row models.StandingRow
		var updated time.Time
		if err := rows.Scan(&row.PlayerID, &row.DisplayName, &row.Rank, &row.Played,
			&row.Wins, &row.Draws, &row.Losses, &row.Points, &updated); err != nil {
			return nil, fmt.Errorf("scan standings row: %w", err)
		}
		table.Rows = append(table.Rows, row)
		if updated.After(table.UpdatedAt) {
			table.UpdatedAt = updated
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate standings rows: %w", err)
	}
	if len(table.Rows) == 0 {
		return nil, ErrStandingsNotFound
	}

	applied, err := r.db.QueryContext(ctx,
		`SELECT match_id, applied_at FROM applied_matches WHERE league_id = $1`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("load applied matches for %s: %w", leagueID, err)
	}
	defer applied.Close()
	for applied.Next() {
		var matchID string
		var at time.Time
		if err := applied.Scan(&matchID, &at); err != nil {
			return nil, fmt.Errorf("scan applied match: %w", err)
		}
		table.Applied[matchID] = at
	}
	if err := applied.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied matches: %w", err)
	}
	return table, nil
}

func (r *postgresStandingsRepository) Commit(ctx context.Context, table *models.StandingsTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit standings: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM standings WHERE league_id = $1`, table.LeagueID); err != nil {
		return fmt.Errorf("commit standings: clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO standings
		    (league_id, player_id, display_name, rank, played, wins, draws, losses, points, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("commit standings: prepare insert: %w", err)
	}
	defer stmt.Close()

	updated := table.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	for _, row := range table.Rows {
		if _, err := stmt.ExecContext(ctx,
			table.LeagueID, row.PlayerID, row.DisplayName, row.Rank, row.Played,
			row.Wins, row.Draws, row.Losses, row.Points, updated); err != nil {
			return fmt.Errorf("commit standings: insert row for %s: %w", row.PlayerID, err)
		}
	}

	for matchID, at := range table.Applied {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO applied_matches (league_id, match_id, applied_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (league_id, match_id) DO NOTHING`,
			table.LeagueID, matchID, at); err != nil {
			return fmt.Errorf("commit standings: mark %s applied: %w", matchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit standings: %w", err)
	}
	return nil
}
