// Package standings folds match results into the authoritative league
// table. Every result is counted exactly once, keyed by match ID, and the
// table plus its applied-match index are committed before any snapshot of
// the new state leaves the aggregator.
package standings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/metrics"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/repositories"
)

// Scoring is the points scheme applied per result.
type Scoring struct {
	Win  int
	Draw int
	Loss int
}

func DefaultScoring() Scoring {
	return Scoring{Win: 3, Draw: 1, Loss: 0}
}

// Aggregator applies results and hands out deep-copied snapshots. A
// duplicate match ID is reported back as applied == false together with
// the unchanged table.
type Aggregator interface {
	Bootstrap(ctx context.Context, leagueID string, players []models.Agent) (*models.StandingsTable, error)
	ApplyResult(ctx context.Context, result models.MatchResult) (*models.StandingsTable, bool, error)
	Snapshot(ctx context.Context, leagueID string) (*models.StandingsTable, error)
}

type aggregator struct {
	repo    repositories.StandingsRepository
	scoring Scoring

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAggregator(repo repositories.StandingsRepository, scoring Scoring) Aggregator {
	if scoring == (Scoring{}) {
		scoring = DefaultScoring()
	}
	return &aggregator{
		repo:    repo,
		scoring: scoring,
		locks:   map[string]*sync.Mutex{},
	}
}

// leagueLock serializes all mutations of one league's table. Different
// leagues proceed in parallel.
func (a *aggregator) leagueLock(leagueID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.locks[leagueID]
	if !ok {
		l = &sync.Mutex{}
		a.locks[leagueID] = l
	}
	return l
}

// Bootstrap seeds a zeroed table for the roster. When a table already
// exists it is returned untouched, so a manager restart does not wipe a
// running league.
func (a *aggregator) Bootstrap(ctx context.Context, leagueID string, players []models.Agent) (*models.StandingsTable, error) {
	lock := a.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := a.repo.Load(ctx, leagueID)
	if err == nil {
		return existing.Clone(), nil
	}
	if !errors.Is(err, repositories.ErrStandingsNotFound) {
		return nil, fmt.Errorf("bootstrap %s: %w", leagueID, err)
	}

	table := models.NewStandingsTable(leagueID)
	for _, p := range players {
		name := p.DisplayName
		if name == "" {
			name = p.ID
		}
		table.Rows = append(table.Rows, models.StandingRow{PlayerID: p.ID, DisplayName: name})
	}
	rankRows(table)
	table.UpdatedAt = time.Now().UTC()

	if err := a.repo.Commit(ctx, table); err != nil {
		return nil, fmt.Errorf("bootstrap %s: %w", leagueID, err)
	}
	return table.Clone(), nil
}

func (a *aggregator) ApplyResult(ctx context.Context, result models.MatchResult) (*models.StandingsTable, bool, error) {
	lock := a.leagueLock(result.LeagueID)
	lock.Lock()
	defer lock.Unlock()

	table, err := a.repo.Load(ctx, result.LeagueID)
	if err != nil {
		if !errors.Is(err, repositories.ErrStandingsNotFound) {
			return nil, false, fmt.Errorf("apply %s: %w", result.MatchID, err)
		}
		table = models.NewStandingsTable(result.LeagueID)
	}

	if table.HasApplied(result.MatchID) {
		metrics.ResultsDuplicate.Inc()
		return table.Clone(), false, nil
	}

	a.fold(table, result)
	rankRows(table)

	appliedAt := result.CompletedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}
	table.Applied[result.MatchID] = appliedAt
	table.UpdatedAt = time.Now().UTC()

	if err := a.repo.Commit(ctx, table); err != nil {
		return nil, false, fmt.Errorf("apply %s: %w", result.MatchID, err)
	}
	metrics.ResultsApplied.Inc()
	return table.Clone(), true, nil
}

func (a *aggregator) Snapshot(ctx context.Context, leagueID string) (*models.StandingsTable, error) {
	lock := a.leagueLock(leagueID)
	lock.Lock()
	defer lock.Unlock()

	table, err := a.repo.Load(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// fold mutates counters for both players of result. Rows are ensured
// before any pointer is taken: appending can reallocate the slice.
func (a *aggregator) fold(table *models.StandingsTable, result models.MatchResult) {
	ensureRow(table, result.PlayerAID)
	ensureRow(table, result.PlayerBID)
	rowA := table.Row(result.PlayerAID)
	rowB := table.Row(result.PlayerBID)

	rowA.Played++
	rowB.Played++

	switch result.Kind {
	case models.OutcomeWin, models.OutcomeForfeit:
		winner := result.WinnerID()
		for _, row := range []*models.StandingRow{rowA, rowB} {
			if row.PlayerID == winner {
				row.Wins++
				row.Points += a.scoring.Win
			} else {
				row.Losses++
				row.Points += a.scoring.Loss
			}
		}
	case models.OutcomeDraw:
		rowA.Draws++
		rowB.Draws++
		rowA.Points += a.scoring.Draw
		rowB.Points += a.scoring.Draw
	default:
		// Double loss and double forfeit: a loss on both lines.
		rowA.Losses++
		rowB.Losses++
		rowA.Points += a.scoring.Loss
		rowB.Points += a.scoring.Loss
	}
}

func ensureRow(table *models.StandingsTable, playerID string) {
	if table.Row(playerID) != nil {
		return
	}
	table.Rows = append(table.Rows, models.StandingRow{
		PlayerID:    playerID,
		DisplayName: playerID,
	})
}

// rankRows re-derives ranks under the total order points desc, wins desc,
// player ID asc. The ID tiebreak keeps equal lines in one stable published
// order.
func rankRows(table *models.StandingsTable) {
	sort.SliceStable(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PlayerID < b.PlayerID
	})
	for i := range table.Rows {
		table.Rows[i].Rank = i + 1
	}
}
