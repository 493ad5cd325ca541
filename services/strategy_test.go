package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
)

func TestNewStrategyByName(t *testing.T) {
	assert.Equal(t, "counter", NewStrategy("counter").Name())
	assert.Equal(t, "random", NewStrategy("random").Name())
	assert.Equal(t, "random", NewStrategy("").Name())
	assert.Equal(t, "random", NewStrategy("something-else").Name())
}

func TestRandomStrategyProducesValidChoices(t *testing.T) {
	s := NewRandomStrategy()
	call := protocol.CallContext{OpponentID: "P02", RoundID: 1}
	for i := 0; i < 50; i++ {
		assert.True(t, s.ChooseParity(call, nil).Valid())
	}
}

func TestCounterStrategyPicksOppositeOfHabit(t *testing.T) {
	s := NewCounterStrategy()
	call := protocol.CallContext{OpponentID: "P02", RoundID: 4}

	evenHeavy := []models.HistoryRecord{
		{MatchID: "R1M1", OpponentID: "P02", OpponentChoice: models.ChoiceEven},
		{MatchID: "R2M3", OpponentID: "P02", OpponentChoice: models.ChoiceEven},
		{MatchID: "R3M5", OpponentID: "P02", OpponentChoice: models.ChoiceOdd},
		// Привычки других соперников не должны влиять на выбор.
		{MatchID: "R3M6", OpponentID: "P03", OpponentChoice: models.ChoiceOdd},
		{MatchID: "R3M7", OpponentID: "P03", OpponentChoice: models.ChoiceOdd},
	}
	assert.Equal(t, models.ChoiceOdd, s.ChooseParity(call, evenHeavy))

	oddHeavy := []models.HistoryRecord{
		{MatchID: "R1M1", OpponentID: "P02", OpponentChoice: models.ChoiceOdd},
		{MatchID: "R2M3", OpponentID: "P02", OpponentChoice: models.ChoiceOdd},
	}
	assert.Equal(t, models.ChoiceEven, s.ChooseParity(call, oddHeavy))
}

func TestCounterStrategyFallsBackToRandom(t *testing.T) {
	s := NewCounterStrategy()
	call := protocol.CallContext{OpponentID: "P09", RoundID: 1}

	assert.True(t, s.ChooseParity(call, nil).Valid())

	balanced := []models.HistoryRecord{
		{MatchID: "R1M1", OpponentID: "P09", OpponentChoice: models.ChoiceEven},
		{MatchID: "R2M2", OpponentID: "P09", OpponentChoice: models.ChoiceOdd},
	}
	assert.True(t, s.ChooseParity(call, balanced).Valid())
}
