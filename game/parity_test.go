package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/models"
)

func TestParityOf(t *testing.T) {
	assert.Equal(t, models.ChoiceOdd, ParityOf(1))
	assert.Equal(t, models.ChoiceEven, ParityOf(2))
	assert.Equal(t, models.ChoiceOdd, ParityOf(7))
	assert.Equal(t, models.ChoiceEven, ParityOf(10))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		choiceA    models.ParityChoice
		choiceB    models.ParityChoice
		drawn      int
		wantKind   models.OutcomeKind
		wantWinner string
		wantReason string
		wantScoreA int
		wantScoreB int
	}{
		{
			name:    "A matches parity and wins",
			choiceA: models.ChoiceEven, choiceB: models.ChoiceOdd, drawn: 4,
			wantKind: models.OutcomeWin, wantWinner: "P01",
			wantReason: models.ReasonParityMatched,
			wantScoreA: 3, wantScoreB: 0,
		},
		{
			name:    "B matches parity and wins",
			choiceA: models.ChoiceEven, choiceB: models.ChoiceOdd, drawn: 7,
			wantKind: models.OutcomeWin, wantWinner: "P02",
			wantReason: models.ReasonParityMatched,
			wantScoreA: 0, wantScoreB: 3,
		},
		{
			name:    "both correct is a draw",
			choiceA: models.ChoiceOdd, choiceB: models.ChoiceOdd, drawn: 3,
			wantKind: models.OutcomeDraw, wantWinner: "",
			wantReason: models.ReasonBothChoicesCorrect,
			wantScoreA: 1, wantScoreB: 1,
		},
		{
			name:    "both wrong loses for both",
			choiceA: models.ChoiceOdd, choiceB: models.ChoiceOdd, drawn: 8,
			wantKind: models.OutcomeDoubleLoss, wantWinner: "",
			wantReason: models.ReasonBothChoicesWrong,
			wantScoreA: 0, wantScoreB: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Evaluate("P01", "P02", tt.choiceA, tt.choiceB, tt.drawn)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantWinner, out.Winner)
			assert.Equal(t, tt.wantReason, out.Reason)
			assert.Equal(t, tt.drawn, out.DrawnNumber)
			assert.Equal(t, ParityOf(tt.drawn), out.NumberParity)
			assert.Equal(t, tt.wantScoreA, out.Score["P01"])
			assert.Equal(t, tt.wantScoreB, out.Score["P02"])
			assert.Equal(t, tt.choiceA, out.Choices["P01"])
			assert.Equal(t, tt.choiceB, out.Choices["P02"])
		})
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	_, err := Evaluate("P01", "P02", "seven", models.ChoiceOdd, 3)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	_, err = Evaluate("P01", "P02", models.ChoiceEven, models.ChoiceOdd, 11)
	assert.Error(t, err)

	_, err = Evaluate("P01", "P02", models.ChoiceEven, models.ChoiceOdd, 0)
	assert.Error(t, err)
}

func TestPlayDrawsWithinRange(t *testing.T) {
	g := NewSeeded(42)
	for i := 0; i < 200; i++ {
		out, err := g.Play("P01", "P02", models.ChoiceEven, models.ChoiceOdd)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, out.DrawnNumber, MinNumber)
		assert.LessOrEqual(t, out.DrawnNumber, MaxNumber)
		// Differing choices always produce a winner.
		assert.Equal(t, models.OutcomeWin, out.Kind)
		assert.NotEmpty(t, out.Winner)
	}
}

func TestSeededGameIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Draw(), b.Draw())
	}
}
