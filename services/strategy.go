package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
)

// Strategy picks a parity for one choice call. History is the player's own
// match log; implementations must not mutate it.
type Strategy interface {
	ChooseParity(call protocol.CallContext, history []models.HistoryRecord) models.ParityChoice
	Name() string
}

// NewStrategy maps a configured name to a strategy, defaulting to random.
func NewStrategy(name string) Strategy {
	switch name {
	case "counter":
		return NewCounterStrategy()
	default:
		return NewRandomStrategy()
	}
}

type randomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy picks even or odd with equal probability.
func NewRandomStrategy() Strategy {
	return &randomStrategy{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randomStrategy) Name() string { return "random" }

func (s *randomStrategy) ChooseParity(protocol.CallContext, []models.HistoryRecord) models.ParityChoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng.Intn(2) == 0 {
		return models.ChoiceEven
	}
	return models.ChoiceOdd
}

type counterStrategy struct {
	fallback Strategy
}

// NewCounterStrategy plays against the opponent's habit: it counts the
// opponent's past choices and picks the opposite of the most frequent one.
// Differing choices are the best spot a player can be in, since only the
// draw decides the winner and a loss by parity costs nothing extra, while
// matching choices risk the double loss. Unseen opponents get a random
// choice.
func NewCounterStrategy() Strategy {
	return &counterStrategy{fallback: NewRandomStrategy()}
}

func (s *counterStrategy) Name() string { return "counter" }

func (s *counterStrategy) ChooseParity(call protocol.CallContext, history []models.HistoryRecord) models.ParityChoice {
	var even, odd int
	for _, rec := range history {
		if rec.OpponentID != call.OpponentID {
			continue
		}
		switch rec.OpponentChoice {
		case models.ChoiceEven:
			even++
		case models.ChoiceOdd:
			odd++
		}
	}
	switch {
	case even > odd:
		return models.ChoiceOdd
	case odd > even:
		return models.ChoiceEven
	}
	return s.fallback.ChooseParity(call, history)
}
