package match

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// playerScript tells a fake player how to behave. A silent phase makes the
// server stall past every coordinator deadline and then fail the call, so
// no stray reply ever reaches the machine.
type playerScript struct {
	accept       bool
	choice       models.ParityChoice
	silentJoin   bool
	silentChoice bool
}

type fakePlayer struct {
	t      *testing.T
	id     string
	script playerScript
	srv    *httptest.Server

	mu    sync.Mutex
	overs []protocol.GameResult
}

func newFakePlayer(t *testing.T, id string, script playerScript) *fakePlayer {
	t.Helper()
	p := &fakePlayer{t: t, id: id, script: script}
	p.srv = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakePlayer) handle(w http.ResponseWriter, r *http.Request) {
	var req protocol.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := protocol.ParseEnvelope(req.Params.Message)
	if !assert.NoError(p.t, err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sender := "player:" + p.id
	switch env.MessageType {
	case protocol.KindGameInvitation:
		if p.script.silentJoin {
			p.stall(w)
			return
		}
		p.respond(w, req.ID, protocol.Message{
			Envelope: env.Reply(protocol.KindGameJoinAck, sender),
			Payload: protocol.GameJoinAck{
				PlayerID:         p.id,
				ArrivalTimestamp: time.Now().UTC().Format(time.RFC3339),
				Accept:           p.script.accept,
			},
		})

	case protocol.KindChooseParityCall:
		if p.script.silentChoice {
			p.stall(w)
			return
		}
		p.respond(w, req.ID, protocol.Message{
			Envelope: env.Reply(protocol.KindChooseParityResponse, sender),
			Payload: protocol.ChooseParityResponse{
				PlayerID:     p.id,
				ParityChoice: p.script.choice,
			},
		})

	case protocol.KindGameOver:
		var over protocol.GameOver
		assert.NoError(p.t, json.Unmarshal(req.Params.Message, &over))
		p.mu.Lock()
		p.overs = append(p.overs, over.GameResult)
		p.mu.Unlock()
		p.respond(w, req.ID, protocol.Message{Envelope: env.Reply(protocol.KindAck, sender)})

	default:
		http.Error(w, "unexpected "+string(env.MessageType), http.StatusBadRequest)
	}
}

func (p *fakePlayer) stall(w http.ResponseWriter) {
	time.Sleep(400 * time.Millisecond)
	http.Error(w, "busy", http.StatusServiceUnavailable)
}

func (p *fakePlayer) respond(w http.ResponseWriter, id any, msg protocol.Message) {
	resp, err := protocol.NewResponse(id, msg)
	if !assert.NoError(p.t, err) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

func (p *fakePlayer) gameOvers() []protocol.GameResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]protocol.GameResult, len(p.overs))
	copy(out, p.overs)
	return out
}

type fakeManager struct {
	t       *testing.T
	failAll bool
	srv     *httptest.Server

	mu      sync.Mutex
	reports []models.MatchResult
	tokens  []string
}

func newFakeManager(t *testing.T, failAll bool) *fakeManager {
	t.Helper()
	m := &fakeManager{t: t, failAll: failAll}
	m.srv = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *fakeManager) handle(w http.ResponseWriter, r *http.Request) {
	if m.failAll {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	var req protocol.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	env, err := protocol.ParseEnvelope(req.Params.Message)
	if !assert.NoError(m.t, err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !assert.Equal(m.t, protocol.KindMatchResultReport, env.MessageType) {
		http.Error(w, "unexpected kind", http.StatusBadRequest)
		return
	}

	var report protocol.MatchResultReport
	assert.NoError(m.t, json.Unmarshal(req.Params.Message, &report))

	m.mu.Lock()
	m.reports = append(m.reports, report.Result)
	m.tokens = append(m.tokens, env.AuthToken)
	m.mu.Unlock()

	resp, err := protocol.NewResponse(req.ID, protocol.Message{
		Envelope: env.Reply(protocol.KindMatchResultAck, "league_manager"),
		Payload:  protocol.MatchResultAck{Status: protocol.StatusRecorded},
	})
	assert.NoError(m.t, err)
	json.NewEncoder(w).Encode(resp)
}

func (m *fakeManager) recorded() []models.MatchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.MatchResult, len(m.reports))
	copy(out, m.reports)
	return out
}

func liveMatch(a, b *fakePlayer) models.Match {
	return models.Match{
		ID:              "R1M1",
		Round:           1,
		GameType:        models.GameTypeEvenOdd,
		PlayerAID:       a.id,
		PlayerBID:       b.id,
		RefereeID:       "REF01",
		PlayerAEndpoint: a.srv.URL,
		PlayerBEndpoint: b.srv.URL,
	}
}

func newTestCoordinator(mgr *fakeManager, m models.Match, drawn int, join, choice time.Duration) (*Coordinator, *atomic.Int32) {
	var released atomic.Int32
	cfg := CoordinatorConfig{
		LeagueID:        "league-2025",
		RefereeID:       "REF01",
		AuthToken:       "tok-referee",
		ManagerEndpoint: mgr.srv.URL,
		JoinTimeout:     join,
		ChoiceTimeout:   choice,
		ReportTimeout:   2 * time.Second,
		ReleaseSlot:     func() { released.Add(1) },
	}
	policy := dispatch.Policy{
		MaxAttempts:   2,
		InitialDelay:  5 * time.Millisecond,
		MaxDelay:      20 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	d := dispatch.NewDispatcher(dispatch.NewClient(time.Second), policy, discardLogger())
	return NewCoordinator(cfg, m, drawn, d, discardLogger()), &released
}

func runMatch(t *testing.T, c *Coordinator) (*models.MatchResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Run(ctx)
}

func TestCoordinatorPlaysMatchToReport(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceEven})
	b := newFakePlayer(t, "P02", playerScript{accept: true, choice: models.ChoiceOdd})
	mgr := newFakeManager(t, false)

	c, released := newTestCoordinator(mgr, liveMatch(a, b), 4, time.Second, time.Second)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, models.OutcomeWin, res.Kind)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "P01", *res.Winner)
	assert.Equal(t, models.ReasonParityMatched, res.Reason)
	require.NotNil(t, res.DrawnNumber)
	assert.Equal(t, 4, *res.DrawnNumber)
	assert.Equal(t, map[string]int{"P01": 3, "P02": 0}, res.Score)
	assert.Equal(t, int32(1), released.Load())

	reports := mgr.recorded()
	require.Len(t, reports, 1)
	assert.Equal(t, "R1M1", reports[0].MatchID)
	assert.Equal(t, "REF01", reports[0].ReportedBy)
	assert.Equal(t, []string{"tok-referee"}, mgr.tokens)

	// Notifications are best effort and asynchronous.
	require.Eventually(t, func() bool {
		return len(a.gameOvers()) == 1 && len(b.gameOvers()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	over := a.gameOvers()[0]
	assert.Equal(t, "WIN", over.Status)
	require.NotNil(t, over.WinnerPlayerID)
	assert.Equal(t, "P01", *over.WinnerPlayerID)
}

func TestCoordinatorReportsDraw(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceEven})
	b := newFakePlayer(t, "P02", playerScript{accept: true, choice: models.ChoiceEven})
	mgr := newFakeManager(t, false)

	c, _ := newTestCoordinator(mgr, liveMatch(a, b), 8, time.Second, time.Second)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDraw, res.Kind)
	assert.Nil(t, res.Winner)
	assert.Equal(t, models.ReasonBothChoicesCorrect, res.Reason)
	assert.Equal(t, map[string]int{"P01": 1, "P02": 1}, res.Score)

	require.Eventually(t, func() bool { return len(b.gameOvers()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "DRAW", b.gameOvers()[0].Status)
	assert.Nil(t, b.gameOvers()[0].WinnerPlayerID)
}

func TestCoordinatorJoinTimeoutForfeitsSilentPlayer(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceEven})
	b := newFakePlayer(t, "P02", playerScript{silentJoin: true})
	mgr := newFakeManager(t, false)

	c, released := newTestCoordinator(mgr, liveMatch(a, b), 4, 60*time.Millisecond, time.Second)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeForfeit, res.Kind)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "P01", *res.Winner)
	assert.Equal(t, models.ReasonJoinTimeout, res.Reason)
	assert.Nil(t, res.DrawnNumber, "no draw happens for a forfeited match")
	assert.Equal(t, int32(1), released.Load())
	require.Len(t, mgr.recorded(), 1)
}

func TestCoordinatorDeclinedInvitationForfeits(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceEven})
	b := newFakePlayer(t, "P02", playerScript{accept: false})
	mgr := newFakeManager(t, false)

	c, _ := newTestCoordinator(mgr, liveMatch(a, b), 4, time.Second, time.Second)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeForfeit, res.Kind)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "P01", *res.Winner)
	assert.Equal(t, models.ReasonInvitationDecline, res.Reason)
}

func TestCoordinatorChoiceTimeoutAwardsTechnicalLoss(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceOdd})
	b := newFakePlayer(t, "P02", playerScript{accept: true, silentChoice: true})
	mgr := newFakeManager(t, false)

	c, _ := newTestCoordinator(mgr, liveMatch(a, b), 4, time.Second, 80*time.Millisecond)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeForfeit, res.Kind)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "P01", *res.Winner)
	assert.Equal(t, models.ReasonChoiceTimeout, res.Reason)
	assert.Equal(t, map[string]models.ParityChoice{"P01": models.ChoiceOdd}, res.Choices)
	assert.Equal(t, map[string]int{"P01": 3, "P02": 0}, res.Score)
	require.Len(t, mgr.recorded(), 1)
}

func TestCoordinatorDoubleSilenceForfeitsBoth(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, silentChoice: true})
	b := newFakePlayer(t, "P02", playerScript{accept: true, silentChoice: true})
	mgr := newFakeManager(t, false)

	c, _ := newTestCoordinator(mgr, liveMatch(a, b), 4, time.Second, 80*time.Millisecond)
	res, err := runMatch(t, c)

	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDoubleForfeit, res.Kind)
	assert.Nil(t, res.Winner)
	assert.Equal(t, models.ReasonDoubleForfeit, res.Reason)
	assert.Equal(t, map[string]int{"P01": 0, "P02": 0}, res.Score)

	require.Eventually(t, func() bool { return len(a.gameOvers()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "NO_WINNER", a.gameOvers()[0].Status)
}

func TestCoordinatorReportFailureSurfacesError(t *testing.T) {
	a := newFakePlayer(t, "P01", playerScript{accept: true, choice: models.ChoiceEven})
	b := newFakePlayer(t, "P02", playerScript{accept: true, choice: models.ChoiceOdd})
	mgr := newFakeManager(t, true)

	c, released := newTestCoordinator(mgr, liveMatch(a, b), 4, time.Second, time.Second)
	res, err := runMatch(t, c)

	require.Error(t, err)
	// The machine still resolved; only delivery failed. The caller keeps
	// the result for recovery.
	require.NotNil(t, res)
	assert.Equal(t, models.OutcomeWin, res.Kind)
	assert.Equal(t, int32(1), released.Load(), "slot released exactly once even on report failure")
}
