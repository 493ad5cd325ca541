package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/models"
)

var testMatch = models.Match{
	ID:        "R1M1",
	Round:     1,
	GameType:  models.GameTypeEvenOdd,
	PlayerAID: "P01",
	PlayerBID: "P02",
	RefereeID: "REF01",
}

func newTestMachine(drawn int) *Machine {
	return NewMachine("league-2026", "REF01", testMatch, drawn)
}

func at(sec int) time.Time {
	return time.Date(2026, 3, 1, 12, 0, sec, 0, time.UTC)
}

// effectTypes flattens effects for compact assertions.
func effectTypes(effects []Effect) []string {
	out := make([]string, 0, len(effects))
	for _, e := range effects {
		switch e.(type) {
		case SendInvites:
			out = append(out, "invites")
		case StartJoinTimer:
			out = append(out, "join_timer")
		case SendChoiceCalls:
			out = append(out, "choice_calls")
		case StartChoiceTimer:
			out = append(out, "choice_timer")
		case NotifyGameOver:
			out = append(out, "notify")
		case DeliverReport:
			out = append(out, "report")
		case ReleaseSlot:
			out = append(out, "release")
		}
	}
	return out
}

func TestMachineHappyPathToReported(t *testing.T) {
	m := newTestMachine(4) // even

	effects := m.Apply(at(0), Start{})
	assert.Equal(t, []string{"invites", "join_timer"}, effectTypes(effects))
	assert.Equal(t, StateAwaitingJoin, m.State())
	joinEpoch := m.Epoch()

	assert.Empty(t, m.Apply(at(1), JoinAck{Epoch: joinEpoch, PlayerID: "P01", Accept: true}))
	effects = m.Apply(at(1), JoinAck{Epoch: joinEpoch, PlayerID: "P02", Accept: true})
	assert.Equal(t, []string{"choice_calls", "choice_timer"}, effectTypes(effects))
	assert.Equal(t, StateAwaitingChoices, m.State())
	choiceEpoch := m.Epoch()

	assert.Empty(t, m.Apply(at(2), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P01", Choice: models.ChoiceEven}))
	effects = m.Apply(at(3), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P02", Choice: models.ChoiceOdd})
	assert.Equal(t, []string{"notify", "report"}, effectTypes(effects))
	assert.Equal(t, StateResolved, m.State())

	res := m.Result()
	require.NotNil(t, res)
	assert.Equal(t, models.OutcomeWin, res.Kind)
	assert.Equal(t, "P01", res.WinnerID())
	assert.Equal(t, models.ReasonParityMatched, res.Reason)
	require.NotNil(t, res.DrawnNumber)
	assert.Equal(t, 4, *res.DrawnNumber)
	assert.Equal(t, at(3), res.CompletedAt)

	effects = m.Apply(at(4), ReportAck{})
	assert.Equal(t, []string{"release"}, effectTypes(effects))
	assert.Equal(t, StateReported, m.State())
	assert.True(t, m.State().Terminal())
}

func TestMachineDrawAndDoubleLoss(t *testing.T) {
	tests := []struct {
		name     string
		drawn    int
		wantKind models.OutcomeKind
	}{
		{name: "both correct draws", drawn: 7, wantKind: models.OutcomeDraw},
		{name: "both wrong loses twice", drawn: 8, wantKind: models.OutcomeDoubleLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(tt.drawn)
			m.Apply(at(0), Start{})
			m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P01", Accept: true})
			m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P02", Accept: true})
			m.Apply(at(2), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P01", Choice: models.ChoiceOdd})
			m.Apply(at(2), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P02", Choice: models.ChoiceOdd})

			res := m.Result()
			require.NotNil(t, res)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Nil(t, res.Winner)
			assert.Equal(t, StateResolved, m.State())
		})
	}
}

func TestMachineJoinDeadline(t *testing.T) {
	t.Run("one side joined wins by forfeit", func(t *testing.T) {
		m := newTestMachine(4)
		m.Apply(at(0), Start{})
		m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P02", Accept: true})

		effects := m.Apply(at(6), JoinDeadline{Epoch: m.Epoch()})
		assert.Equal(t, []string{"notify", "report", "release"}, effectTypes(effects))
		assert.Equal(t, StateForfeited, m.State())

		res := m.Result()
		require.NotNil(t, res)
		assert.Equal(t, models.OutcomeForfeit, res.Kind)
		assert.Equal(t, "P02", res.WinnerID())
		assert.Equal(t, models.ReasonJoinTimeout, res.Reason)
		assert.Nil(t, res.DrawnNumber, "no draw happens for a forfeit")
	})

	t.Run("nobody joined is a double forfeit", func(t *testing.T) {
		m := newTestMachine(4)
		m.Apply(at(0), Start{})

		m.Apply(at(6), JoinDeadline{Epoch: m.Epoch()})
		assert.Equal(t, StateForfeited, m.State())

		res := m.Result()
		require.NotNil(t, res)
		assert.Equal(t, models.OutcomeDoubleForfeit, res.Kind)
		assert.Nil(t, res.Winner)
		assert.Equal(t, models.ReasonDoubleForfeit, res.Reason)
		assert.Equal(t, []string{"P01", "P02"}, res.LoserIDs())
	})
}

func TestMachineInvitationDeclined(t *testing.T) {
	m := newTestMachine(4)
	m.Apply(at(0), Start{})

	effects := m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P02", Accept: false})
	assert.Equal(t, []string{"notify", "report", "release"}, effectTypes(effects))
	assert.Equal(t, StateForfeited, m.State())

	res := m.Result()
	require.NotNil(t, res)
	assert.Equal(t, "P01", res.WinnerID())
	assert.Equal(t, models.ReasonInvitationDecline, res.Reason)
}

func TestMachineChoiceDeadline(t *testing.T) {
	joinBoth := func(m *Machine) {
		m.Apply(at(0), Start{})
		m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P01", Accept: true})
		m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P02", Accept: true})
	}

	t.Run("single missing choice is a technical loss through RESOLVED", func(t *testing.T) {
		m := newTestMachine(4)
		joinBoth(m)
		m.Apply(at(2), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P01", Choice: models.ChoiceEven})

		effects := m.Apply(at(32), ChoiceDeadline{Epoch: m.Epoch()})
		assert.Equal(t, []string{"notify", "report"}, effectTypes(effects))
		assert.Equal(t, StateResolved, m.State())

		res := m.Result()
		require.NotNil(t, res)
		assert.Equal(t, models.OutcomeForfeit, res.Kind)
		assert.Equal(t, "P01", res.WinnerID())
		assert.Equal(t, models.ReasonChoiceTimeout, res.Reason)

		// The technical loss still completes the report cycle.
		m.Apply(at(33), ReportAck{})
		assert.Equal(t, StateReported, m.State())
	})

	t.Run("both missing is a double forfeit", func(t *testing.T) {
		m := newTestMachine(4)
		joinBoth(m)

		effects := m.Apply(at(32), ChoiceDeadline{Epoch: m.Epoch()})
		assert.Equal(t, []string{"notify", "report", "release"}, effectTypes(effects))
		assert.Equal(t, StateForfeited, m.State())
		assert.Equal(t, models.OutcomeDoubleForfeit, m.Result().Kind)
	})
}

func TestMachineIgnoresLateAndForeignEvents(t *testing.T) {
	m := newTestMachine(4)
	m.Apply(at(0), Start{})
	joinEpoch := m.Epoch()
	m.Apply(at(1), JoinAck{Epoch: joinEpoch, PlayerID: "P01", Accept: true})
	m.Apply(at(1), JoinAck{Epoch: joinEpoch, PlayerID: "P02", Accept: true})
	choiceEpoch := m.Epoch()

	// Stale join ack from the previous phase.
	assert.Empty(t, m.Apply(at(2), JoinAck{Epoch: joinEpoch, PlayerID: "P01", Accept: true}))

	// Unknown player and invalid choice.
	assert.Empty(t, m.Apply(at(2), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P99", Choice: models.ChoiceEven}))
	assert.Empty(t, m.Apply(at(2), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P01", Choice: "seven"}))

	// Deadline fires, then the second choice limps in late: ignored.
	m.Apply(at(2), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P01", Choice: models.ChoiceEven})
	m.Apply(at(32), ChoiceDeadline{Epoch: choiceEpoch})
	require.Equal(t, StateResolved, m.State())
	resultBefore := *m.Result()

	assert.Empty(t, m.Apply(at(40), ChoiceReceived{Epoch: choiceEpoch, PlayerID: "P02", Choice: models.ChoiceOdd}))
	assert.Equal(t, resultBefore, *m.Result(), "late choice must not rewrite the outcome")
}

func TestMachineDuplicateChoiceKeepsFirst(t *testing.T) {
	m := newTestMachine(4)
	m.Apply(at(0), Start{})
	m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P01", Accept: true})
	m.Apply(at(1), JoinAck{Epoch: m.Epoch(), PlayerID: "P02", Accept: true})

	m.Apply(at(2), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P01", Choice: models.ChoiceEven})
	assert.Empty(t, m.Apply(at(3), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P01", Choice: models.ChoiceOdd}))

	m.Apply(at(4), ChoiceReceived{Epoch: m.Epoch(), PlayerID: "P02", Choice: models.ChoiceOdd})
	res := m.Result()
	require.NotNil(t, res)
	assert.Equal(t, models.ChoiceEven, res.Choices["P01"], "first submission wins")
}
