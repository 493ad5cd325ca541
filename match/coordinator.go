package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/metrics"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
)

// CoordinatorConfig carries everything a coordinator needs beyond the
// match itself. ReleaseSlot, when set, is invoked exactly once no matter
// how the match ends.
type CoordinatorConfig struct {
	LeagueID        string
	RefereeID       string
	AuthToken       string
	ManagerEndpoint string

	JoinTimeout   time.Duration
	ChoiceTimeout time.Duration
	ReportTimeout time.Duration

	ReleaseSlot func()
}

// Coordinator drives one Machine against live peers: it executes effects
// as real HTTP calls and timers, and feeds the replies back in as events.
// All machine access happens on the Run goroutine; other goroutines only
// push events through a channel.
type Coordinator struct {
	cfg        CoordinatorConfig
	machine    *Machine
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger

	events      chan Event
	phaseCancel context.CancelFunc
	timers      []*time.Timer
	releaseOnce sync.Once
	reported    bool
}

// peer is one side of the match as the coordinator addresses it.
type peer struct {
	id       string
	endpoint string
	role     string
	opponent string
}

func NewCoordinator(cfg CoordinatorConfig, m models.Match, drawnNumber int, dispatcher dispatch.Dispatcher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		machine:    NewMachine(cfg.LeagueID, cfg.RefereeID, m, drawnNumber),
		dispatcher: dispatcher,
		logger:     logger,
		events:     make(chan Event, 16),
	}
}

// Run plays the match to completion and returns the recorded result. The
// result is non-nil whenever the machine reached a terminal state, even
// when err is set because the report could not be delivered; the caller
// decides how to recover an unreported result.
func (c *Coordinator) Run(ctx context.Context) (*models.MatchResult, error) {
	m := c.machine.Match()
	metrics.MatchesStarted.Inc()
	defer c.releaseSlot()
	defer c.stopPhase()

	c.logger.Info("match started",
		slog.String("match_id", m.ID),
		slog.Int("round_id", m.Round),
		slog.String("player_a", m.PlayerAID),
		slog.String("player_b", m.PlayerBID),
	)

	if err := c.execute(ctx, c.machine.Apply(time.Now(), Start{})); err != nil {
		return c.machine.Result(), err
	}

	for {
		select {
		case <-ctx.Done():
			return c.machine.Result(), ctx.Err()
		case ev := <-c.events:
			if err := c.execute(ctx, c.machine.Apply(time.Now(), ev)); err != nil {
				return c.machine.Result(), err
			}
			if c.machine.State().Terminal() && c.reported {
				res := c.machine.Result()
				metrics.MatchesCompleted.WithLabelValues(string(res.Kind)).Inc()
				if res.Kind == models.OutcomeForfeit || res.Kind == models.OutcomeDoubleForfeit {
					metrics.Forfeits.WithLabelValues(res.Reason).Inc()
				}
				c.logger.Info("match finished",
					slog.String("match_id", m.ID),
					slog.String("outcome", string(res.Kind)),
					slog.String("reason", res.Reason),
				)
				return res, nil
			}
		}
	}
}

// execute turns machine effects into I/O. Report delivery is the only
// synchronous effect: nothing else may happen until the manager has the
// result or delivery has definitively failed.
func (c *Coordinator) execute(ctx context.Context, effects []Effect) error {
	for _, eff := range effects {
		switch e := eff.(type) {
		case SendInvites:
			phase := c.newPhase(ctx)
			for _, p := range c.peers() {
				go c.sendInvitation(phase, e.Epoch, p)
			}
		case StartJoinTimer:
			c.startTimer(c.cfg.JoinTimeout, JoinDeadline{Epoch: e.Epoch})
		case SendChoiceCalls:
			phase := c.newPhase(ctx)
			deadline := time.Now().UTC().Add(c.cfg.ChoiceTimeout)
			for _, p := range c.peers() {
				go c.sendChoiceCall(phase, e.Epoch, p, deadline)
			}
		case StartChoiceTimer:
			c.startTimer(c.cfg.ChoiceTimeout, ChoiceDeadline{Epoch: e.Epoch})
		case NotifyGameOver:
			c.stopPhase()
			for _, p := range c.peers() {
				go c.notifyGameOver(ctx, p, e.Result)
			}
		case DeliverReport:
			if err := c.deliverReport(ctx, e.Result); err != nil {
				return err
			}
		case ReleaseSlot:
			c.releaseSlot()
		}
	}
	return nil
}

func (c *Coordinator) peers() [2]peer {
	m := c.machine.Match()
	return [2]peer{
		{id: m.PlayerAID, endpoint: m.PlayerAEndpoint, role: "PLAYER_A", opponent: m.PlayerBID},
		{id: m.PlayerBID, endpoint: m.PlayerBEndpoint, role: "PLAYER_B", opponent: m.PlayerAID},
	}
}

// newPhase obsoletes the previous solicitation: in-flight calls are
// cancelled and pending deadline timers stopped. Their late events would
// be rejected by the epoch guard anyway; this just stops wasting work.
func (c *Coordinator) newPhase(ctx context.Context) context.Context {
	c.stopPhase()
	phase, cancel := context.WithCancel(ctx)
	c.phaseCancel = cancel
	return phase
}

func (c *Coordinator) stopPhase() {
	if c.phaseCancel != nil {
		c.phaseCancel()
		c.phaseCancel = nil
	}
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}

func (c *Coordinator) startTimer(d time.Duration, ev Event) {
	c.timers = append(c.timers, time.AfterFunc(d, func() { c.push(ev) }))
}

// push never blocks the sender. The buffer outlives any realistic burst
// (two peers plus one timer per phase); a drop would only delay the match
// until the next deadline fires.
func (c *Coordinator) push(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("event queue full, dropping event",
			slog.String("match_id", c.machine.Match().ID))
	}
}

func (c *Coordinator) sendInvitation(ctx context.Context, epoch int, p peer) {
	m := c.machine.Match()
	msg := c.newMessage(protocol.KindGameInvitation, protocol.GameInvitation{
		GameType:    m.GameType,
		RoleInMatch: p.role,
		OpponentID:  p.opponent,
	})

	reply, err := c.dispatcher.Send(ctx, p.endpoint, msg)
	if err != nil {
		c.logger.Warn("invitation not delivered",
			slog.String("match_id", m.ID),
			slog.String("player_id", p.id),
			slog.Any("error", err))
		return
	}
	env, err := protocol.ParseEnvelope(reply)
	if err != nil || env.MessageType != protocol.KindGameJoinAck {
		c.logger.Warn("unexpected invitation reply",
			slog.String("match_id", m.ID),
			slog.String("player_id", p.id))
		return
	}
	var ack protocol.GameJoinAck
	if err := json.Unmarshal(reply, &ack); err != nil {
		return
	}
	// The player is identified by the endpoint we called, not by whatever
	// ID the payload claims.
	c.push(JoinAck{Epoch: epoch, PlayerID: p.id, Accept: ack.Accept})
}

func (c *Coordinator) sendChoiceCall(ctx context.Context, epoch int, p peer, deadline time.Time) {
	m := c.machine.Match()
	msg := c.newMessage(protocol.KindChooseParityCall, protocol.ChooseParityCall{
		PlayerID: p.id,
		GameType: m.GameType,
		Context:  protocol.CallContext{OpponentID: p.opponent, RoundID: m.Round},
		Deadline: deadline.Format(time.RFC3339),
	})

	reply, err := c.dispatcher.Send(ctx, p.endpoint, msg)
	if err != nil {
		c.logger.Warn("choice call not delivered",
			slog.String("match_id", m.ID),
			slog.String("player_id", p.id),
			slog.Any("error", err))
		return
	}
	env, err := protocol.ParseEnvelope(reply)
	if err != nil || env.MessageType != protocol.KindChooseParityResponse {
		c.logger.Warn("unexpected choice reply",
			slog.String("match_id", m.ID),
			slog.String("player_id", p.id))
		return
	}
	var resp protocol.ChooseParityResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return
	}
	c.push(ChoiceReceived{Epoch: epoch, PlayerID: p.id, Choice: resp.ParityChoice})
}

// notifyGameOver is best effort: the authoritative record is the report,
// so a player that cannot be reached just misses its courtesy summary.
func (c *Coordinator) notifyGameOver(ctx context.Context, p peer, res models.MatchResult) {
	nctx, cancel := context.WithTimeout(ctx, c.cfg.ReportTimeout)
	defer cancel()

	msg := c.newMessage(protocol.KindGameOver, protocol.GameOver{
		GameType:   c.machine.Match().GameType,
		GameResult: gameResultFor(res),
	})
	if _, err := c.dispatcher.Send(nctx, p.endpoint, msg); err != nil {
		c.logger.Warn("game over notice not delivered",
			slog.String("match_id", res.MatchID),
			slog.String("player_id", p.id),
			slog.Any("error", err))
	}
}

func (c *Coordinator) deliverReport(ctx context.Context, res models.MatchResult) error {
	rctx, cancel := context.WithTimeout(ctx, c.cfg.ReportTimeout)
	defer cancel()

	msg := c.newMessage(protocol.KindMatchResultReport, protocol.MatchResultReport{Result: res})
	msg.AuthToken = c.cfg.AuthToken

	reply, err := c.dispatcher.Send(rctx, c.cfg.ManagerEndpoint, msg)
	if err != nil {
		return fmt.Errorf("report match %s: %w", res.MatchID, err)
	}
	env, err := protocol.ParseEnvelope(reply)
	if err != nil {
		return fmt.Errorf("report match %s: bad reply: %w", res.MatchID, err)
	}
	if env.MessageType != protocol.KindMatchResultAck {
		return fmt.Errorf("report match %s: manager replied with %s", res.MatchID, env.MessageType)
	}
	c.reported = true
	c.push(ReportAck{})
	return nil
}

func (c *Coordinator) newMessage(kind protocol.Kind, payload any) protocol.Message {
	m := c.machine.Match()
	env := protocol.NewEnvelope(kind, "referee:"+c.cfg.RefereeID)
	env.LeagueID = c.cfg.LeagueID
	env.MatchID = m.ID
	env.RoundID = m.Round
	return protocol.Message{Envelope: env, Payload: payload}
}

func (c *Coordinator) releaseSlot() {
	c.releaseOnce.Do(func() {
		if c.cfg.ReleaseSlot != nil {
			c.cfg.ReleaseSlot()
		}
	})
}

// gameResultFor renders the result the way players see it inside
// GAME_OVER.
func gameResultFor(res models.MatchResult) protocol.GameResult {
	return protocol.GameResult{
		Status:         gameStatus(res.Kind),
		WinnerPlayerID: res.Winner,
		DrawnNumber:    res.DrawnNumber,
		NumberParity:   res.NumberParity,
		Choices:        res.Choices,
		Reason:         res.Reason,
	}
}

func gameStatus(kind models.OutcomeKind) string {
	switch kind {
	case models.OutcomeWin, models.OutcomeForfeit:
		return "WIN"
	case models.OutcomeDraw:
		return "DRAW"
	default:
		return "NO_WINNER"
	}
}
