package standings

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/repositories"
)

func newTestAggregator(t *testing.T) Aggregator {
	t.Helper()
	return NewAggregator(repositories.NewFileStandingsRepository(t.TempDir()), DefaultScoring())
}

func roster(ids ...string) []models.Agent {
	out := make([]models.Agent, len(ids))
	for i, id := range ids {
		out[i] = models.Agent{ID: id, DisplayName: "Player " + id, Role: models.RolePlayer}
	}
	return out
}

func winResult(matchID string, winner, loser string) models.MatchResult {
	w := winner
	return models.MatchResult{
		MatchID:     matchID,
		LeagueID:    "league-2025",
		Round:       1,
		PlayerAID:   winner,
		PlayerBID:   loser,
		Kind:        models.OutcomeWin,
		Winner:      &w,
		Reason:      models.ReasonParityMatched,
		CompletedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregatorBootstrapSeedsRoster(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()

	table, err := agg.Bootstrap(ctx, "league-2025", roster("P02", "P01", "P03"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	// All zero: ranked by ID.
	assert.Equal(t, "P01", table.Rows[0].PlayerID)
	assert.Equal(t, 1, table.Rows[0].Rank)
	assert.Equal(t, "Player P01", table.Rows[0].DisplayName)
	assert.Equal(t, 3, table.Rows[2].Rank)

	// Bootstrapping again must not wipe accumulated state.
	_, applied, err := agg.ApplyResult(ctx, winResult("R1M1", "P03", "P01"))
	require.NoError(t, err)
	require.True(t, applied)

	again, err := agg.Bootstrap(ctx, "league-2025", roster("P01", "P02", "P03"))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Row("P03").Points)
}

func TestAggregatorScoresOutcomes(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()
	_, err := agg.Bootstrap(ctx, "league-2025", roster("P01", "P02", "P03"))
	require.NoError(t, err)

	_, applied, err := agg.ApplyResult(ctx, winResult("R1M1", "P01", "P02"))
	require.NoError(t, err)
	assert.True(t, applied)

	draw := models.MatchResult{
		MatchID: "R1M2", LeagueID: "league-2025", Round: 1,
		PlayerAID: "P02", PlayerBID: "P03",
		Kind: models.OutcomeDraw, Reason: models.ReasonBothChoicesCorrect,
	}
	_, _, err = agg.ApplyResult(ctx, draw)
	require.NoError(t, err)

	both := models.MatchResult{
		MatchID: "R2M3", LeagueID: "league-2025", Round: 2,
		PlayerAID: "P01", PlayerBID: "P03",
		Kind: models.OutcomeDoubleLoss, Reason: models.ReasonBothChoicesWrong,
	}
	table, _, err := agg.ApplyResult(ctx, both)
	require.NoError(t, err)

	p1 := table.Row("P01")
	require.NotNil(t, p1)
	assert.Equal(t, 2, p1.Played)
	assert.Equal(t, 1, p1.Wins)
	assert.Equal(t, 1, p1.Losses)
	assert.Equal(t, 3, p1.Points)

	p2 := table.Row("P02")
	assert.Equal(t, 2, p2.Played)
	assert.Equal(t, 1, p2.Draws)
	assert.Equal(t, 1, p2.Points)

	p3 := table.Row("P03")
	assert.Equal(t, 2, p3.Played)
	assert.Equal(t, 1, p3.Draws)
	assert.Equal(t, 1, p3.Losses)
	assert.Equal(t, 1, p3.Points)

	assert.Equal(t, 1, p1.Rank)
}

func TestAggregatorForfeitScoresLikeWin(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()

	winner := "P01"
	res := models.MatchResult{
		MatchID: "R1M1", LeagueID: "league-2025", Round: 1,
		PlayerAID: "P01", PlayerBID: "P02",
		Kind: models.OutcomeForfeit, Winner: &winner,
		Reason: models.ReasonJoinTimeout,
	}
	table, applied, err := agg.ApplyResult(ctx, res)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 3, table.Row("P01").Points)
	assert.Equal(t, 1, table.Row("P02").Losses)
	assert.Equal(t, 0, table.Row("P02").Points)
}

func TestAggregatorDuplicateResultIsNoOp(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()

	res := winResult("R1M1", "P01", "P02")
	first, applied, err := agg.ApplyResult(ctx, res)
	require.NoError(t, err)
	require.True(t, applied)

	second, applied, err := agg.ApplyResult(ctx, res)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, 1, second.Row("P01").Played, "duplicate must not double count")
}

func TestAggregatorConcurrentDuplicatesApplyOnce(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()
	res := winResult("R1M1", "P01", "P02")

	var appliedCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := agg.ApplyResult(ctx, res)
			assert.NoError(t, err)
			if applied {
				appliedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), appliedCount.Load())
	table, err := agg.Snapshot(ctx, "league-2025")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Row("P01").Points)
}

func TestAggregatorTieBreakOrdering(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()
	_, err := agg.Bootstrap(ctx, "league-2025", roster("P01", "P02", "P03", "P04"))
	require.NoError(t, err)

	// P04 beats P01 once: 3 points, 1 win.
	_, _, err = agg.ApplyResult(ctx, winResult("R1M1", "P04", "P01"))
	require.NoError(t, err)
	// P02 and P03 draw three times: 3 points, 0 wins each.
	for i, id := range []string{"R1M2", "R2M3", "R3M4"} {
		_, _, err = agg.ApplyResult(ctx, models.MatchResult{
			MatchID: id, LeagueID: "league-2025", Round: i + 1,
			PlayerAID: "P02", PlayerBID: "P03", Kind: models.OutcomeDraw,
		})
		require.NoError(t, err)
	}

	table, err := agg.Snapshot(ctx, "league-2025")
	require.NoError(t, err)

	// All of P02, P03, P04 hold 3 points; more wins first, then ID order.
	order := []string{}
	for _, row := range table.Rows {
		order = append(order, row.PlayerID)
	}
	assert.Equal(t, []string{"P04", "P02", "P03", "P01"}, order)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{
		table.Rows[0].Rank, table.Rows[1].Rank, table.Rows[2].Rank, table.Rows[3].Rank,
	})
}

func TestAggregatorSnapshotIsDetached(t *testing.T) {
	agg := newTestAggregator(t)
	ctx := context.Background()

	table, _, err := agg.ApplyResult(ctx, winResult("R1M1", "P01", "P02"))
	require.NoError(t, err)

	table.Rows[0].Points = 99
	table.Applied["forged"] = time.Now()

	fresh, err := agg.Snapshot(ctx, "league-2025")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Rows[0].Points)
	assert.False(t, fresh.HasApplied("forged"))
}
