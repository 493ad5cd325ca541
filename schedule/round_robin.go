package schedule

import (
	"context"
	"fmt"

	"github.com/Dosada05/agent-league/models"
)

// byeSlot pads an odd roster to even size. Pairings against it produce no
// match; the paired player simply rests that round.
const byeSlot = "__BYE__"

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate builds the full round-robin fixture with the circle method: the
// first player stays fixed while the rest rotate one position per round,
// pairing position i against position n-1-i. Every unordered pair meets
// exactly once and nobody plays twice in the same round. N-1 rounds for
// even N, N rounds for odd N (the bye inserts one rest per player).
//
// The output is a pure function of the input order. Match IDs are
// "R<round>M<seq>" with seq counting across the whole fixture.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) (*models.Fixture, error) {
	players := params.Players
	if len(players) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: %w (found %d)", ErrInvalidRoster, len(players))
	}

	rotation := make([]string, len(players))
	copy(rotation, players)
	if len(rotation)%2 != 0 {
		rotation = append(rotation, byeSlot)
	}

	n := len(rotation)
	fixture := &models.Fixture{
		LeagueID: params.LeagueID,
		Rounds:   make([]models.Round, 0, n-1),
	}

	seq := 1
	for round := 1; round <= n-1; round++ {
		matches := make([]models.Match, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := rotation[i], rotation[n-1-i]
			if a == byeSlot || b == byeSlot {
				continue
			}
			m := models.Match{
				ID:        fmt.Sprintf("R%dM%d", round, seq),
				Round:     round,
				GameType:  params.GameType,
				PlayerAID: a,
				PlayerBID: b,
			}
			if len(params.Referees) > 0 {
				m.RefereeID = params.Referees[len(matches)%len(params.Referees)]
			}
			seq++
			matches = append(matches, m)
		}
		fixture.Rounds = append(fixture.Rounds, models.Round{Number: round, Matches: matches})

		// Rotate clockwise around the fixed first slot: the last element
		// moves to position 1, everything else shifts right.
		rotated := make([]string, 0, n)
		rotated = append(rotated, rotation[0], rotation[n-1])
		rotated = append(rotated, rotation[1:n-1]...)
		rotation = rotated
	}

	return fixture, nil
}
