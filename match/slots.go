package match

import (
	"context"
	"errors"
	"sync"

	"github.com/Dosada05/agent-league/metrics"
)

// ErrCapacityExceeded is returned when the admission queue is at its
// bound. The manager fails closed instead of queueing without limit.
var ErrCapacityExceeded = errors.New("match: admission queue full")

// SlotManager bounds how many coordinators an official runs at once.
// Waiters are admitted strictly in the order they asked.
type SlotManager struct {
	mu         sync.Mutex
	slots      int
	busy       int
	queue      []chan struct{}
	queueBound int
}

// NewSlotManager builds a manager with the given concurrency limit and
// admission queue bound. Limits below one are raised to one.
func NewSlotManager(slots, queueBound int) *SlotManager {
	if slots < 1 {
		slots = 1
	}
	if queueBound < 0 {
		queueBound = 0
	}
	return &SlotManager{slots: slots, queueBound: queueBound}
}

// Admit blocks until a slot is free and returns its release function,
// which is safe to call more than once. When all slots are busy and the
// queue is full, Admit fails immediately with ErrCapacityExceeded.
// Cancelling ctx abandons the wait.
func (s *SlotManager) Admit(ctx context.Context) (release func(), err error) {
	s.mu.Lock()
	if s.busy < s.slots {
		s.busy++
		metrics.SlotsBusy.Set(float64(s.busy))
		s.mu.Unlock()
		return s.releaseFunc(), nil
	}
	if len(s.queue) >= s.queueBound {
		s.mu.Unlock()
		return nil, ErrCapacityExceeded
	}

	grant := make(chan struct{})
	s.queue = append(s.queue, grant)
	metrics.SlotQueueDepth.Set(float64(len(s.queue)))
	s.mu.Unlock()

	select {
	case <-grant:
		return s.releaseFunc(), nil
	case <-ctx.Done():
		s.abandon(grant)
		return nil, ctx.Err()
	}
}

// releaseFunc hands the held slot back, or directly to the head waiter
// when one is queued. sync.Once keeps double releases harmless.
func (s *SlotManager) releaseFunc() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if len(s.queue) > 0 {
				next := s.queue[0]
				s.queue = s.queue[1:]
				metrics.SlotQueueDepth.Set(float64(len(s.queue)))
				close(next) // slot moves to the waiter, busy stays
				return
			}
			s.busy--
			metrics.SlotsBusy.Set(float64(s.busy))
		})
	}
}

// abandon removes a cancelled waiter, or releases the slot if the grant
// raced with the cancellation.
func (s *SlotManager) abandon(grant chan struct{}) {
	s.mu.Lock()
	for i, w := range s.queue {
		if w == grant {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			metrics.SlotQueueDepth.Set(float64(len(s.queue)))
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()
	// Not in the queue anymore: the grant won the race. Give it back.
	s.releaseFunc()()
}

// Busy reports how many slots are currently held.
func (s *SlotManager) Busy() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// QueueLen reports how many admissions are waiting.
func (s *SlotManager) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
