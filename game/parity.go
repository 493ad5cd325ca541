// Package game implements the even/odd parity game the league plays.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/models"
)

const (
	MinNumber = 1
	MaxNumber = 10
)

// Default per-match point values. The standings aggregator carries its own
// configurable copy; these feed the informational score in reports.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// ErrInvalidChoice indicates a parity choice outside {even, odd}.
var ErrInvalidChoice = errors.New("parity choice must be \"even\" or \"odd\"")

// Outcome is the resolution of one played game.
type Outcome struct {
	Kind         models.OutcomeKind
	Winner       string // "" when nobody won
	DrawnNumber  int
	NumberParity models.ParityChoice
	Choices      map[string]models.ParityChoice
	Score        map[string]int
	Reason       string
}

// ParityOf returns the parity of n.
func ParityOf(n int) models.ParityChoice {
	if n%2 == 0 {
		return models.ChoiceEven
	}
	return models.ChoiceOdd
}

// Game draws numbers for matches. Safe for concurrent use.
type Game struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Game seeded from the clock.
func New() *Game {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Game with a fixed seed. Given the same seed the
// sequence of drawn numbers is reproducible.
func NewSeeded(seed int64) *Game {
	return &Game{rng: rand.New(rand.NewSource(seed))}
}

// Draw produces the next number in [MinNumber, MaxNumber].
func (g *Game) Draw() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(MaxNumber-MinNumber+1) + MinNumber
}

// Play draws a number and resolves the match between the two choices.
func (g *Game) Play(playerA, playerB string, choiceA, choiceB models.ParityChoice) (Outcome, error) {
	if !choiceA.Valid() || !choiceB.Valid() {
		return Outcome{}, ErrInvalidChoice
	}
	return Evaluate(playerA, playerB, choiceA, choiceB, g.Draw())
}

// Evaluate resolves a match for a known drawn number.
//
// Differing choices: the player whose choice matches the number's parity
// wins. Identical choices that match: a draw, one point each. Identical
// choices that do not match: both players lose and score nothing.
func Evaluate(playerA, playerB string, choiceA, choiceB models.ParityChoice, drawn int) (Outcome, error) {
	if !choiceA.Valid() || !choiceB.Valid() {
		return Outcome{}, ErrInvalidChoice
	}
	if drawn < MinNumber || drawn > MaxNumber {
		return Outcome{}, fmt.Errorf("drawn number %d outside [%d, %d]", drawn, MinNumber, MaxNumber)
	}

	parity := ParityOf(drawn)
	out := Outcome{
		DrawnNumber:  drawn,
		NumberParity: parity,
		Choices: map[string]models.ParityChoice{
			playerA: choiceA,
			playerB: choiceB,
		},
		Score: map[string]int{
			playerA: PointsLoss,
			playerB: PointsLoss,
		},
	}

	switch {
	case choiceA != choiceB:
		out.Kind = models.OutcomeWin
		out.Reason = models.ReasonParityMatched
		if choiceA == parity {
			out.Winner = playerA
		} else {
			out.Winner = playerB
		}
		out.Score[out.Winner] = PointsWin
	case choiceA == parity:
		out.Kind = models.OutcomeDraw
		out.Reason = models.ReasonBothChoicesCorrect
		out.Score[playerA] = PointsDraw
		out.Score[playerB] = PointsDraw
	default:
		out.Kind = models.OutcomeDoubleLoss
		out.Reason = models.ReasonBothChoicesWrong
	}
	return out, nil
}
