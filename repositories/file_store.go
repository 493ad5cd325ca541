package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/models"
)

// File-backed stores for single-node runs. Layout under the root:
//
//	leagues/<league_id>/standings.json
//	matches/<league_id>/<match_id>.json
//	players/<player_id>/history.json
//
// Every write goes to a staging file first and is renamed into place, so
// readers never observe a torn snapshot.

type fileStandingsRepository struct {
	mu   sync.Mutex
	root string
}

func NewFileStandingsRepository(root string) StandingsRepository {
	return &fileStandingsRepository{root: root}
}

func (r *fileStandingsRepository) path(leagueID string) string {
	return filepath.Join(r.root, "leagues", leagueID, "standings.json")
}

func (r *fileStandingsRepository) Load(ctx context.Context, leagueID string) (*models.StandingsTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var table models.StandingsTable
	if err := readJSONFile(r.path(leagueID), &table); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrStandingsNotFound
		}
		return nil, fmt.Errorf("load standings for %s: %w", leagueID, err)
	}
	if table.Applied == nil {
		table.Applied = map[string]time.Time{}
	}
	return &table, nil
}

func (r *fileStandingsRepository) Commit(ctx context.Context, table *models.StandingsTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSONFileAtomic(r.path(table.LeagueID), table); err != nil {
		return fmt.Errorf("commit standings for %s: %w", table.LeagueID, err)
	}
	return nil
}

type fileMatchRecordRepository struct {
	mu   sync.Mutex
	root string
}

func NewFileMatchRecordRepository(root string) MatchRecordRepository {
	return &fileMatchRecordRepository{root: root}
}

func (r *fileMatchRecordRepository) path(leagueID, matchID string) string {
	return filepath.Join(r.root, "matches", leagueID, matchID+".json")
}

func (r *fileMatchRecordRepository) Append(ctx context.Context, record *models.MatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSONFileAtomic(r.path(record.LeagueID, record.MatchID), record); err != nil {
		return fmt.Errorf("archive match %s: %w", record.MatchID, err)
	}
	return nil
}

func (r *fileMatchRecordRepository) Get(ctx context.Context, leagueID, matchID string) (*models.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rec models.MatchRecord
	if err := readJSONFile(r.path(leagueID, matchID), &rec); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMatchRecordNotFound
		}
		return nil, fmt.Errorf("get match record %s: %w", matchID, err)
	}
	return &rec, nil
}

func (r *fileMatchRecordRepository) ListByLeague(ctx context.Context, leagueID string) ([]models.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dir := filepath.Join(r.root, "matches", leagueID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list match records for %s: %w", leagueID, err)
	}

	var out []models.MatchRecord
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var rec models.MatchRecord
		if err := readJSONFile(filepath.Join(dir, entry.Name()), &rec); err != nil {
			return nil, fmt.Errorf("read match record %s: %w", entry.Name(), err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

type fileHistoryRepository struct {
	mu   sync.Mutex
	root string
}

func NewFileHistoryRepository(root string) HistoryRepository {
	return &fileHistoryRepository{root: root}
}

func (r *fileHistoryRepository) path(playerID string) string {
	return filepath.Join(r.root, "players", playerID, "history.json")
}

func (r *fileHistoryRepository) Append(ctx context.Context, playerID string, entry models.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var log []models.HistoryRecord
	if err := readJSONFile(r.path(playerID), &log); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("append history for %s: %w", playerID, err)
	}
	for _, existing := range log {
		if existing.MatchID == entry.MatchID {
			return nil
		}
	}
	log = append(log, entry)
	if err := writeJSONFileAtomic(r.path(playerID), log); err != nil {
		return fmt.Errorf("append history for %s: %w", playerID, err)
	}
	return nil
}

func (r *fileHistoryRepository) List(ctx context.Context, playerID string) ([]models.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var log []models.HistoryRecord
	if err := readJSONFile(r.path(playerID), &log); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list history for %s: %w", playerID, err)
	}
	return log, nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONFileAtomic stages the encoded bytes next to the target and
// renames them into place.
func writeJSONFileAtomic(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	staging := path + ".tmp"
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(staging, path); err != nil {
		os.Remove(staging)
		return err
	}
	return nil
}
