package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/agent-league/models"
)

var ErrMatchRecordNotFound = errors.New("match record not found")

// MatchRecordRepository archives every completed match in full. Append is
// an upsert keyed by (league, match): re-reporting the same match replaces
// the record instead of duplicating it.
type MatchRecordRepository interface {
	Append(ctx context.Context, record *models.MatchRecord) error
	Get(ctx context.Context, leagueID, matchID string) (*models.MatchRecord, error)
	ListByLeague(ctx context.Context, leagueID string) ([]models.MatchRecord, error)
}

type postgresMatchRecordRepository struct {
	db *sql.DB
}

func NewPostgresMatchRecordRepository(db *sql.DB) MatchRecordRepository {
	return &postgresMatchRecordRepository{db: db}
}

func (r *postgresMatchRecordRepository) Append(ctx context.Context, record *models.MatchRecord) error {
	payload, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("append match record %s: encode: %w", record.MatchID, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO match_records (league_id, match_id, result, archived_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (league_id, match_id)
		DO UPDATE SET result = EXCLUDED.result, archived_at = EXCLUDED.archived_at`,
		record.LeagueID, record.MatchID, payload, record.ArchivedAt)
	if err != nil {
		return fmt.Errorf("append match record %s: %w", record.MatchID, err)
	}
	return nil
}

func (r *postgresMatchRecordRepository) Get(ctx context.Context, leagueID, matchID string) (*models.MatchRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT league_id, match_id, result, archived_at
		FROM match_records
		WHERE league_id = $1 AND match_id = $2`, leagueID, matchID)
	rec, err := scanMatchRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchRecordNotFound
		}
		return nil, fmt.Errorf("get match record %s: %w", matchID, err)
	}
	return rec, nil
}

func (r *postgresMatchRecordRepository) ListByLeague(ctx context.Context, leagueID string) ([]models.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT league_id, match_id, result, archived_at
		FROM match_records
		WHERE league_id = $1
		ORDER BY match_id ASC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list match records for %s: %w", leagueID, err)
	}
	defer rows.Close()

	var out []models.MatchRecord
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match records: %w", err)
	}
	return out, nil
}

func scanMatchRecord(scanner interface{ Scan(...any) error }) (*models.MatchRecord, error) {
	var rec models.MatchRecord
	var payload []byte
	if err := scanner.Scan(&rec.LeagueID, &rec.MatchID, &payload, &rec.ArchivedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &rec, nil
}
