package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/agent-league/models"
)

// HistoryRepository keeps a player agent's personal game log, newest entry
// last. Strategies read it back to model an opponent's habits.
type HistoryRepository interface {
	Append(ctx context.Context, playerID string, entry models.HistoryRecord) error
	List(ctx context.Context, playerID string) ([]models.HistoryRecord, error)
}

type postgresHistoryRepository struct {
	db *sql.DB
}

func NewPostgresHistoryRepository(db *sql.DB) HistoryRepository {
	return &postgresHistoryRepository{db: db}
}

func (r *postgresHistoryRepository) Append(ctx context.Context, playerID string, entry models.HistoryRecord) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("append history for %s: encode: %w", playerID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO player_history (player_id, match_id, entry, played_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, match_id) DO NOTHING`,
		playerID, entry.MatchID, payload, entry.PlayedAt)
	if err != nil {
		return fmt.Errorf("append history for %s: %w", playerID, err)
	}
	return nil
}

func (r *postgresHistoryRepository) List(ctx context.Context, playerID string) ([]models.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry
		FROM player_history
		WHERE player_id = $1
		ORDER BY played_at ASC, match_id ASC`, playerID)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", playerID, err)
	}
	defer rows.Close()

	var out []models.HistoryRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		var entry models.HistoryRecord
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return out, nil
}
