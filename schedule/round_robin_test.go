package schedule

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/models"
)

func generate(t *testing.T, players, referees []string) *models.Fixture {
	t.Helper()
	fixture, err := NewRoundRobinGenerator().Generate(context.Background(), GenerateParams{
		LeagueID: "league-test",
		GameType: models.GameTypeEvenOdd,
		Players:  players,
		Referees: referees,
	})
	require.NoError(t, err)
	return fixture
}

func TestGenerateFourPlayers(t *testing.T) {
	fixture := generate(t, []string{"P01", "P02", "P03", "P04"}, []string{"REF01"})

	require.Len(t, fixture.Rounds, 3)
	for _, round := range fixture.Rounds {
		assert.Len(t, round.Matches, 2)
	}
	assert.Equal(t, 6, fixture.TotalMatches())
}

func TestGenerateEveryPairExactlyOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 8, 9} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			players := make([]string, n)
			for i := range players {
				players[i] = fmt.Sprintf("P%02d", i+1)
			}
			fixture := generate(t, players, nil)

			pairs := map[string]int{}
			for _, round := range fixture.Rounds {
				seenInRound := map[string]bool{}
				for _, m := range round.Matches {
					// Nobody plays twice in one round.
					assert.False(t, seenInRound[m.PlayerAID], "%s twice in round %d", m.PlayerAID, round.Number)
					assert.False(t, seenInRound[m.PlayerBID], "%s twice in round %d", m.PlayerBID, round.Number)
					seenInRound[m.PlayerAID] = true
					seenInRound[m.PlayerBID] = true

					a, b := m.PlayerAID, m.PlayerBID
					if a > b {
						a, b = b, a
					}
					pairs[a+"|"+b]++
				}
			}

			assert.Len(t, pairs, n*(n-1)/2)
			for pair, count := range pairs {
				assert.Equal(t, 1, count, "pair %s scheduled %d times", pair, count)
			}

			wantRounds := n - 1
			if n%2 != 0 {
				wantRounds = n
			}
			assert.Len(t, fixture.Rounds, wantRounds)
		})
	}
}

func TestGenerateOddRosterByes(t *testing.T) {
	players := []string{"P01", "P02", "P03", "P04", "P05"}
	fixture := generate(t, players, nil)

	require.Len(t, fixture.Rounds, 5)
	assert.Equal(t, 10, fixture.TotalMatches())

	// With a bye each player rests exactly one round.
	rests := map[string]int{}
	for _, round := range fixture.Rounds {
		playing := map[string]bool{}
		for _, m := range round.Matches {
			playing[m.PlayerAID] = true
			playing[m.PlayerBID] = true
		}
		for _, p := range players {
			if !playing[p] {
				rests[p]++
			}
		}
	}
	for _, p := range players {
		assert.Equal(t, 1, rests[p], "player %s rested %d rounds", p, rests[p])
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	players := []string{"P03", "P01", "P04", "P02"}
	referees := []string{"REF01", "REF02"}

	first := generate(t, players, referees)
	second := generate(t, players, referees)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs produced different fixtures (-first +second):\n%s", diff)
	}
}

func TestGenerateMatchIDs(t *testing.T) {
	fixture := generate(t, []string{"P01", "P02", "P03", "P04"}, nil)

	idPattern := regexp.MustCompile(`^R(\d+)M(\d+)$`)
	seq := 0
	for _, round := range fixture.Rounds {
		for _, m := range round.Matches {
			seq++
			groups := idPattern.FindStringSubmatch(m.ID)
			require.NotNil(t, groups, "match id %q", m.ID)
			assert.Equal(t, fmt.Sprint(round.Number), groups[1])
			// The sequence number runs across rounds, never resetting.
			assert.Equal(t, fmt.Sprint(seq), groups[2])
		}
	}
}

func TestGenerateAssignsRefereesBalanced(t *testing.T) {
	fixture := generate(t, []string{"P01", "P02", "P03", "P04", "P05", "P06"}, []string{"REF01", "REF02"})

	for _, round := range fixture.Rounds {
		for i, m := range round.Matches {
			want := []string{"REF01", "REF02"}[i%2]
			assert.Equal(t, want, m.RefereeID, "round %d match %d", round.Number, i)
		}
	}
}

func TestGenerateRejectsTinyRoster(t *testing.T) {
	gen := NewRoundRobinGenerator()

	for _, players := range [][]string{nil, {}, {"P01"}} {
		_, err := gen.Generate(context.Background(), GenerateParams{Players: players})
		assert.ErrorIs(t, err, ErrInvalidRoster)
	}
}

func TestGenerateFabricatedRosters(t *testing.T) {
	faker := gofakeit.New(11)

	for trial := 0; trial < 10; trial++ {
		n := faker.Number(2, 15)
		players := make([]string, n)
		for i := range players {
			players[i] = fmt.Sprintf("P%02d-%s", i+1, faker.Gamertag())
		}

		fixture := generate(t, players, []string{"REF01", "REF02", "REF03"})
		assert.Equal(t, n*(n-1)/2, fixture.TotalMatches(), "roster size %d", n)
	}
}
