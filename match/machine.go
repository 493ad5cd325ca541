// Package match runs one match from invitation to reported result: a pure
// transition core, the coordinator driving it against real peers, and the
// slot manager bounding how many coordinators run at once.
package match

import (
	"time"

	"github.com/Dosada05/agent-league/game"
	"github.com/Dosada05/agent-league/models"
)

type State string

const (
	StatePendingInvite   State = "PENDING_INVITE"
	StateAwaitingJoin    State = "AWAITING_JOIN"
	StateAwaitingChoices State = "AWAITING_CHOICES"
	StateResolved        State = "RESOLVED"
	StateReported        State = "REPORTED"
	StateForfeited       State = "FORFEITED"
)

// Terminal reports whether no further transition can leave s. FORFEITED is
// terminal for the lifecycle even though its result report may still be in
// flight.
func (s State) Terminal() bool {
	return s == StateReported || s == StateForfeited
}

// Event is something that happened to the match. Events solicited by an
// effect carry the epoch of that effect; events from an older epoch are
// late replies and are ignored rather than applied retroactively.
type Event interface{ isEvent() }

type Start struct{}

type JoinAck struct {
	Epoch    int
	PlayerID string
	Accept   bool
}

type JoinDeadline struct{ Epoch int }

type ChoiceReceived struct {
	Epoch    int
	PlayerID string
	Choice   models.ParityChoice
}

type ChoiceDeadline struct{ Epoch int }

type ReportAck struct{}

func (Start) isEvent()          {}
func (JoinAck) isEvent()        {}
func (JoinDeadline) isEvent()   {}
func (ChoiceReceived) isEvent() {}
func (ChoiceDeadline) isEvent() {}
func (ReportAck) isEvent()      {}

// Effect is an instruction for the driver. Applying an event never does
// I/O; it only returns what should happen next.
type Effect interface{ isEffect() }

type SendInvites struct{ Epoch int }

type StartJoinTimer struct{ Epoch int }

type SendChoiceCalls struct{ Epoch int }

type StartChoiceTimer struct{ Epoch int }

// NotifyGameOver tells both players how the match ended. Best effort.
type NotifyGameOver struct{ Result models.MatchResult }

// DeliverReport sends the authoritative result to the manager and awaits
// its acknowledgment.
type DeliverReport struct{ Result models.MatchResult }

// ReleaseSlot frees the coordinator's concurrency slot. Emitted exactly
// once, on entering REPORTED or FORFEITED.
type ReleaseSlot struct{}

func (SendInvites) isEffect()      {}
func (StartJoinTimer) isEffect()   {}
func (SendChoiceCalls) isEffect()  {}
func (StartChoiceTimer) isEffect() {}
func (NotifyGameOver) isEffect()   {}
func (DeliverReport) isEffect()    {}
func (ReleaseSlot) isEffect()      {}

// Machine is the pure state core of one match. Apply is deterministic:
// same state, same event, same clock reading, same output. The drawn
// number is fixed at construction and revealed only when both choices
// arrive, so a resolution is reproducible in tests.
type Machine struct {
	leagueID  string
	refereeID string
	match     models.Match
	drawn     int

	state  State
	epoch  int
	joined map[string]bool
	choice map[string]models.ParityChoice
	result *models.MatchResult
}

func NewMachine(leagueID, refereeID string, m models.Match, drawnNumber int) *Machine {
	return &Machine{
		leagueID:  leagueID,
		refereeID: refereeID,
		match:     m,
		drawn:     drawnNumber,
		state:     StatePendingInvite,
		joined:    map[string]bool{},
		choice:    map[string]models.ParityChoice{},
	}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Epoch() int { return m.epoch }

func (m *Machine) Match() models.Match { return m.match }

// Result returns the terminal result once the match resolved or
// forfeited, nil before that.
func (m *Machine) Result() *models.MatchResult { return m.result }

// Apply advances the machine by one event and returns the effects the
// driver must execute. Unknown senders, duplicate submissions and stale
// epochs all fall through to a no-op.
func (m *Machine) Apply(now time.Time, ev Event) []Effect {
	switch e := ev.(type) {
	case Start:
		if m.state != StatePendingInvite {
			return nil
		}
		m.state = StateAwaitingJoin
		m.epoch++
		return []Effect{SendInvites{Epoch: m.epoch}, StartJoinTimer{Epoch: m.epoch}}

	case JoinAck:
		if m.state != StateAwaitingJoin || e.Epoch != m.epoch || !m.match.Involves(e.PlayerID) {
			return nil
		}
		if !e.Accept {
			winner := m.match.Opponent(e.PlayerID)
			return m.forfeit(now, &winner, models.ReasonInvitationDecline)
		}
		m.joined[e.PlayerID] = true
		if !m.joined[m.match.PlayerAID] || !m.joined[m.match.PlayerBID] {
			return nil
		}
		m.state = StateAwaitingChoices
		m.epoch++
		return []Effect{SendChoiceCalls{Epoch: m.epoch}, StartChoiceTimer{Epoch: m.epoch}}

	case JoinDeadline:
		if m.state != StateAwaitingJoin || e.Epoch != m.epoch {
			return nil
		}
		switch {
		case m.joined[m.match.PlayerAID]:
			return m.forfeit(now, &m.match.PlayerAID, models.ReasonJoinTimeout)
		case m.joined[m.match.PlayerBID]:
			return m.forfeit(now, &m.match.PlayerBID, models.ReasonJoinTimeout)
		default:
			return m.forfeit(now, nil, models.ReasonDoubleForfeit)
		}

	case ChoiceReceived:
		if m.state != StateAwaitingChoices || e.Epoch != m.epoch || !m.match.Involves(e.PlayerID) {
			return nil
		}
		if !e.Choice.Valid() {
			return nil
		}
		if _, dup := m.choice[e.PlayerID]; dup {
			return nil
		}
		m.choice[e.PlayerID] = e.Choice
		if len(m.choice) < 2 {
			return nil
		}
		return m.resolvePlayed(now)

	case ChoiceDeadline:
		if m.state != StateAwaitingChoices || e.Epoch != m.epoch {
			return nil
		}
		switch len(m.choice) {
		case 0:
			return m.forfeit(now, nil, models.ReasonDoubleForfeit)
		default:
			// Exactly one choice arrived: technical loss for the silent
			// side, recorded through RESOLVED like a played match.
			var winner string
			if _, ok := m.choice[m.match.PlayerAID]; ok {
				winner = m.match.PlayerAID
			} else {
				winner = m.match.PlayerBID
			}
			return m.resolveTechnicalLoss(now, winner)
		}

	case ReportAck:
		switch m.state {
		case StateResolved:
			m.state = StateReported
			m.epoch++
			return []Effect{ReleaseSlot{}}
		case StateForfeited:
			// Slot already freed on entering FORFEITED.
			return nil
		}
		return nil
	}
	return nil
}

// resolvePlayed settles the match with both choices on the table.
func (m *Machine) resolvePlayed(now time.Time) []Effect {
	out, err := game.Evaluate(
		m.match.PlayerAID, m.match.PlayerBID,
		m.choice[m.match.PlayerAID], m.choice[m.match.PlayerBID],
		m.drawn,
	)
	if err != nil {
		// Choices are validated on receipt and the drawn number at
		// construction, so this is unreachable; fail safe as a double
		// forfeit rather than panic.
		return m.forfeit(now, nil, models.ReasonDoubleForfeit)
	}

	res := m.baseResult(now)
	res.Kind = out.Kind
	res.Reason = out.Reason
	if out.Winner != "" {
		res.Winner = &out.Winner
	}
	res.DrawnNumber = &out.DrawnNumber
	res.NumberParity = &out.NumberParity
	res.Choices = out.Choices
	res.Score = out.Score

	m.result = &res
	m.state = StateResolved
	m.epoch++
	return []Effect{NotifyGameOver{Result: res}, DeliverReport{Result: res}}
}

// resolveTechnicalLoss awards the match to the one player who answered.
func (m *Machine) resolveTechnicalLoss(now time.Time, winner string) []Effect {
	loser := m.match.Opponent(winner)
	res := m.baseResult(now)
	res.Kind = models.OutcomeForfeit
	res.Reason = models.ReasonChoiceTimeout
	res.Winner = &winner
	res.Choices = map[string]models.ParityChoice{winner: m.choice[winner]}
	res.Score = map[string]int{winner: game.PointsWin, loser: game.PointsLoss}

	m.result = &res
	m.state = StateResolved
	m.epoch++
	return []Effect{NotifyGameOver{Result: res}, DeliverReport{Result: res}}
}

// forfeit terminates the match outside of play. A nil winner records a
// double forfeit, scored as a loss for both sides.
func (m *Machine) forfeit(now time.Time, winner *string, reason string) []Effect {
	res := m.baseResult(now)
	res.Reason = reason
	res.Score = map[string]int{m.match.PlayerAID: 0, m.match.PlayerBID: 0}
	if winner != nil {
		w := *winner
		res.Kind = models.OutcomeForfeit
		res.Winner = &w
		res.Score[w] = game.PointsWin
	} else {
		res.Kind = models.OutcomeDoubleForfeit
	}

	m.result = &res
	m.state = StateForfeited
	m.epoch++
	return []Effect{NotifyGameOver{Result: res}, DeliverReport{Result: res}, ReleaseSlot{}}
}

func (m *Machine) baseResult(now time.Time) models.MatchResult {
	return models.MatchResult{
		MatchID:     m.match.ID,
		LeagueID:    m.leagueID,
		Round:       m.match.Round,
		PlayerAID:   m.match.PlayerAID,
		PlayerBID:   m.match.PlayerBID,
		ReportedBy:  m.refereeID,
		CompletedAt: now.UTC(),
	}
}
