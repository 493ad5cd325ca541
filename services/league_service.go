package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/agent-league/auth"
	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/live"
	"github.com/Dosada05/agent-league/metrics"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/repositories"
	"github.com/Dosada05/agent-league/schedule"
	"github.com/Dosada05/agent-league/standings"
	"github.com/Dosada05/agent-league/storage"
)

// LeagueConfig describes the single league a manager instance runs.
type LeagueConfig struct {
	LeagueID string
	Name     string
	GameType string

	// MinPlayers below 2 is raised to 2.
	MinPlayers int

	// StallTimeout closes a round by double forfeit when some of its
	// matches never get reported. Zero means the 2 minute default.
	StallTimeout time.Duration

	// BroadcastTimeout bounds each outbound announcement delivery,
	// retries included. Zero means the 30 second default.
	BroadcastTimeout time.Duration
}

// LeagueService is the manager's brain: it registers agents, starts the
// league, releases rounds to referees, ingests results and closes the
// league once the last round is done.
type LeagueService interface {
	RegisterReferee(ctx context.Context, meta protocol.AgentMeta) (models.Agent, string, error)
	RegisterPlayer(ctx context.Context, meta protocol.AgentMeta) (models.Agent, string, error)
	StartLeague(ctx context.Context) (protocol.LeagueStatus, error)
	HandleResult(ctx context.Context, env protocol.Envelope, report protocol.MatchResultReport) error
	Query(ctx context.Context, env protocol.Envelope, query protocol.LeagueQuery) (protocol.LeagueQueryResponse, error)

	Status() protocol.LeagueStatus
	League() models.League
	Standings(ctx context.Context) (*models.StandingsTable, error)
	Fixture() *models.Fixture
	MatchRecords(ctx context.Context) ([]models.MatchRecord, error)
}

type leagueService struct {
	cfg        LeagueConfig
	tokens     *auth.TokenService
	dispatcher dispatch.Dispatcher
	generator  schedule.Generator
	agg        standings.Aggregator
	records    repositories.MatchRecordRepository
	archiver   storage.Archiver
	hub        *live.Hub
	logger     *slog.Logger

	mu           sync.Mutex
	league       models.League
	players      []models.Agent
	referees     []models.Agent
	agents       map[string]models.Agent
	fixture      *models.Fixture
	pending      map[string]models.Match
	pendingRound int
	roundStats   protocol.RoundSummary
	roundStart   time.Time
	stallTimer   *time.Timer
	completed    int
}

func NewLeagueService(
	cfg LeagueConfig,
	tokens *auth.TokenService,
	dispatcher dispatch.Dispatcher,
	generator schedule.Generator,
	agg standings.Aggregator,
	records repositories.MatchRecordRepository,
	archiver storage.Archiver,
	hub *live.Hub,
	logger *slog.Logger,
) LeagueService {
	if cfg.MinPlayers < 2 {
		cfg.MinPlayers = 2
	}
	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = 2 * time.Minute
	}
	if cfg.BroadcastTimeout <= 0 {
		cfg.BroadcastTimeout = 30 * time.Second
	}
	if cfg.GameType == "" {
		cfg.GameType = models.GameTypeEvenOdd
	}
	if archiver == nil {
		archiver = storage.NopArchiver{}
	}
	return &leagueService{
		cfg:        cfg,
		tokens:     tokens,
		dispatcher: dispatcher,
		generator:  generator,
		agg:        agg,
		records:    records,
		archiver:   archiver,
		hub:        hub,
		logger:     logger,
		league: models.League{
			ID:        cfg.LeagueID,
			Name:      cfg.Name,
			GameType:  cfg.GameType,
			Status:    models.LeagueRegistration,
			CreatedAt: time.Now().UTC(),
		},
		agents:  make(map[string]models.Agent),
		pending: make(map[string]models.Match),
	}
}

// RegisterReferee admits a referee while the league is still in the
// registration window. Re-registering the same contact endpoint is
// idempotent and returns the existing ID with a fresh token.
func (s *leagueService) RegisterReferee(ctx context.Context, meta protocol.AgentMeta) (models.Agent, string, error) {
	return s.register(ctx, meta, models.RoleReferee)
}

// RegisterPlayer admits a player, same rules as RegisterReferee.
func (s *leagueService) RegisterPlayer(ctx context.Context, meta protocol.AgentMeta) (models.Agent, string, error) {
	return s.register(ctx, meta, models.RolePlayer)
}

func (s *leagueService) register(_ context.Context, meta protocol.AgentMeta, role models.AgentRole) (models.Agent, string, error) {
	if meta.DisplayName == "" || meta.ContactEndpoint == "" {
		return models.Agent{}, "", ErrInvalidAgentMeta
	}

	s.mu.Lock()
	if !s.league.AcceptsRegistrations() {
		s.mu.Unlock()
		return models.Agent{}, "", ErrLeagueAlreadyStarted
	}

	pool := &s.players
	if role == models.RoleReferee {
		pool = &s.referees
	}

	var agent models.Agent
	var known bool
	for _, a := range *pool {
		if a.Endpoint == meta.ContactEndpoint {
			agent, known = a, true
			break
		}
		if a.DisplayName == meta.DisplayName {
			s.mu.Unlock()
			return models.Agent{}, "", ErrDuplicateRegistration
		}
	}

	if !known {
		agent = models.Agent{
			ID:                   s.nextAgentID(role),
			DisplayName:          meta.DisplayName,
			Role:                 role,
			Version:              meta.Version,
			Endpoint:             meta.ContactEndpoint,
			GameTypes:            meta.GameTypes,
			MaxConcurrentMatches: meta.MaxConcurrentMatches,
			RegisteredAt:         time.Now().UTC(),
		}
		*pool = append(*pool, agent)
		s.agents[agent.ID] = agent
	}
	s.mu.Unlock()

	token, err := s.tokens.Issue(auth.Identity{
		AgentID:  agent.ID,
		LeagueID: s.cfg.LeagueID,
		Role:     string(role),
	})
	if err != nil {
		return models.Agent{}, "", fmt.Errorf("issue token for %s: %w", agent.ID, err)
	}

	s.logger.Info("agent registered",
		slog.String("league_id", s.cfg.LeagueID),
		slog.String("agent_id", agent.ID),
		slog.String("role", string(role)),
		slog.String("display_name", agent.DisplayName),
		slog.Bool("rejoined", known),
	)
	return agent, token, nil
}

func (s *leagueService) nextAgentID(role models.AgentRole) string {
	if role == models.RoleReferee {
		return fmt.Sprintf("REF%02d", len(s.referees)+1)
	}
	return fmt.Sprintf("P%02d", len(s.players)+1)
}

// StartLeague freezes the roster, generates the fixture, bootstraps the
// standings and releases round one. It can be called exactly once.
func (s *leagueService) StartLeague(ctx context.Context) (protocol.LeagueStatus, error) {
	s.mu.Lock()
	if s.league.Status != models.LeagueRegistration {
		s.mu.Unlock()
		return protocol.LeagueStatus{}, ErrLeagueAlreadyStarted
	}
	if len(s.players) < s.cfg.MinPlayers {
		s.mu.Unlock()
		return protocol.LeagueStatus{}, ErrInsufficientPlayers
	}
	if len(s.referees) == 0 {
		s.mu.Unlock()
		return protocol.LeagueStatus{}, ErrNoRefereesAvailable
	}

	params := schedule.GenerateParams{
		LeagueID: s.cfg.LeagueID,
		GameType: s.cfg.GameType,
		Players:  agentIDs(s.players),
		Referees: agentIDs(s.referees),
	}
	roster := append([]models.Agent(nil), s.players...)
	s.mu.Unlock()

	fixture, err := s.generator.Generate(ctx, params)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidRoster) {
			return protocol.LeagueStatus{}, ErrInsufficientPlayers
		}
		return protocol.LeagueStatus{}, fmt.Errorf("generate fixture: %w", err)
	}

	if _, err := s.agg.Bootstrap(ctx, s.cfg.LeagueID, roster); err != nil {
		return protocol.LeagueStatus{}, fmt.Errorf("bootstrap standings: %w", err)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if s.league.Status != models.LeagueRegistration {
		s.mu.Unlock()
		return protocol.LeagueStatus{}, ErrLeagueAlreadyStarted
	}
	s.fixture = fixture
	s.league.Status = models.LeagueActive
	s.league.TotalRounds = len(fixture.Rounds)
	s.league.StartedAt = &now
	// Раунд ставится на учёт до возврата: отчёт, пришедший сразу после
	// старта, уже должен попадать в счётчик завершения.
	matches, audience := s.stageRoundLocked(1)
	status := s.statusLocked()
	s.mu.Unlock()

	s.logger.Info("league started",
		slog.String("league_id", s.cfg.LeagueID),
		slog.Int("players", len(roster)),
		slog.Int("rounds", len(fixture.Rounds)),
		slog.Int("matches", fixture.TotalMatches()),
	)

	go s.announceRound(1, matches, audience)

	return status, nil
}

// stageRoundLocked makes round the pending one: endpoints attached, the
// completion counter reset and the stall timer armed. Callers hold mu.
func (s *leagueService) stageRoundLocked(round int) ([]models.Match, []models.Agent) {
	rd := s.fixture.RoundByNumber(round)
	if rd == nil || s.league.Status != models.LeagueActive {
		return nil, nil
	}

	matches := make([]models.Match, len(rd.Matches))
	s.pending = make(map[string]models.Match, len(rd.Matches))
	for i, m := range rd.Matches {
		m.PlayerAEndpoint = s.agents[m.PlayerAID].Endpoint
		m.PlayerBEndpoint = s.agents[m.PlayerBID].Endpoint
		m.RefereeEndpoint = s.agents[m.RefereeID].Endpoint
		matches[i] = m
		s.pending[m.ID] = m
	}
	s.pendingRound = round
	s.league.CurrentRound = round
	s.roundStats = protocol.RoundSummary{TotalMatches: len(matches)}
	s.roundStart = time.Now()
	if s.stallTimer != nil {
		s.stallTimer.Stop()
	}
	s.stallTimer = time.AfterFunc(s.cfg.StallTimeout, func() { s.forceCloseRound(round) })

	audience := make([]models.Agent, 0, len(s.referees)+len(s.players))
	audience = append(audience, s.referees...)
	audience = append(audience, s.players...)
	return matches, audience
}

// announceRound delivers a staged round to the roster and the live feed.
// Referees act on it; players acknowledge it as informational.
func (s *leagueService) announceRound(round int, matches []models.Match, audience []models.Agent) {
	if len(matches) == 0 {
		return
	}

	s.logger.Info("round released",
		slog.String("league_id", s.cfg.LeagueID),
		slog.Int("round_id", round),
		slog.Int("matches", len(matches)),
	)

	msg := s.newMessage(protocol.KindRoundAnnouncement, protocol.RoundAnnouncement{Matches: matches})
	msg.RoundID = round
	s.broadcast(audience, msg)

	if s.hub != nil {
		s.hub.BroadcastToRoom(s.cfg.LeagueID, live.Event{
			Type:     live.EventRoundStarted,
			LeagueID: s.cfg.LeagueID,
			Payload: map[string]any{
				"round_id": round,
				"matches":  len(matches),
			},
		})
	}
}

// HandleResult validates a referee's MATCH_RESULT_REPORT and folds it into
// the standings. Duplicates are acknowledged without effect, so referees
// can retry safely.
func (s *leagueService) HandleResult(ctx context.Context, env protocol.Envelope, report protocol.MatchResultReport) error {
	identity, err := s.authenticate(env)
	if err != nil {
		return err
	}
	if identity.Role != string(models.RoleReferee) {
		return ErrForbiddenReporter
	}

	result := report.Result
	if result.MatchID == "" {
		return ErrMatchNotFound
	}
	if result.LeagueID != "" && result.LeagueID != s.cfg.LeagueID {
		return ErrWrongLeague
	}

	s.mu.Lock()
	if s.league.Status == models.LeagueRegistration {
		s.mu.Unlock()
		return ErrLeagueNotStarted
	}
	assigned, ok := s.matchByID(result.MatchID)
	if !ok {
		s.mu.Unlock()
		return ErrMatchNotFound
	}
	if assigned.RefereeID != identity.AgentID {
		s.mu.Unlock()
		return ErrForbiddenReporter
	}
	s.mu.Unlock()

	// Поля берём из фикстуры: она авторитетна, а не отчёт.
	result.LeagueID = s.cfg.LeagueID
	result.Round = assigned.Round
	result.PlayerAID = assigned.PlayerAID
	result.PlayerBID = assigned.PlayerBID
	result.ReportedBy = identity.AgentID
	return s.ingestResult(ctx, result)
}

// ingestResult is the shared tail of referee reports and forced closures:
// apply, record, broadcast, and complete the round when it was the last
// pending match.
func (s *leagueService) ingestResult(ctx context.Context, result models.MatchResult) error {
	table, applied, err := s.agg.ApplyResult(ctx, result)
	if err != nil {
		return fmt.Errorf("apply result %s: %w", result.MatchID, err)
	}
	if !applied {
		s.logger.Info("duplicate result ignored",
			slog.String("league_id", s.cfg.LeagueID),
			slog.String("match_id", result.MatchID),
		)
		return nil
	}

	record := &models.MatchRecord{
		MatchID:    result.MatchID,
		LeagueID:   s.cfg.LeagueID,
		Result:     result,
		ArchivedAt: time.Now().UTC(),
	}
	// Табель уже обновлён; потеря записи матча не должна ронять ACK.
	if err := s.records.Append(ctx, record); err != nil {
		s.logger.Error("match record append failed",
			slog.String("match_id", result.MatchID),
			slog.Any("error", err),
		)
	}
	go func() {
		actx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastTimeout)
		defer cancel()
		if _, err := s.archiver.ArchiveRecord(actx, record); err != nil {
			s.logger.Warn("match archive failed",
				slog.String("match_id", result.MatchID),
				slog.Any("error", err),
			)
		}
	}()

	s.mu.Lock()
	delete(s.pending, result.MatchID)
	s.completed++
	switch result.Kind {
	case models.OutcomeWin:
		s.roundStats.Wins++
	case models.OutcomeDraw:
		s.roundStats.Draws++
	case models.OutcomeForfeit, models.OutcomeDoubleForfeit:
		s.roundStats.TechnicalLosses++
	}
	roundDone := s.league.Status == models.LeagueActive &&
		s.pendingRound == result.Round &&
		len(s.pending) == 0
	players := append([]models.Agent(nil), s.players...)
	s.mu.Unlock()

	s.logger.Info("result applied",
		slog.String("league_id", s.cfg.LeagueID),
		slog.String("match_id", result.MatchID),
		slog.String("outcome", string(result.Kind)),
		slog.String("winner", result.WinnerID()),
	)

	if s.hub != nil {
		s.hub.BroadcastToRoom(s.cfg.LeagueID, live.Event{
			Type:     live.EventMatchRecorded,
			LeagueID: s.cfg.LeagueID,
			Payload:  record,
		})
		s.hub.BroadcastToRoom(s.cfg.LeagueID, live.Event{
			Type:     live.EventStandingsUpdated,
			LeagueID: s.cfg.LeagueID,
			Payload:  table.Rows,
		})
	}

	update := s.newMessage(protocol.KindLeagueStandingsUpdate, protocol.LeagueStandingsUpdate{Standings: table.Rows})
	s.broadcast(players, update)

	if roundDone {
		s.completeRound(ctx, result.Round, table)
	}
	return nil
}

// completeRound announces a finished round and either releases the next
// one or completes the league.
func (s *leagueService) completeRound(ctx context.Context, round int, table *models.StandingsTable) {
	s.mu.Lock()
	if s.stallTimer != nil {
		s.stallTimer.Stop()
		s.stallTimer = nil
	}
	metrics.RoundDuration.Observe(time.Since(s.roundStart).Seconds())
	summary := s.roundStats
	last := round >= s.league.TotalRounds
	var champion protocol.Champion
	now := time.Now().UTC()
	if last {
		s.league.Status = models.LeagueCompleted
		s.league.CompletedAt = &now
		if len(table.Rows) > 0 {
			top := table.Rows[0]
			s.league.ChampionID = &top.PlayerID
			champion = protocol.Champion{
				PlayerID:    top.PlayerID,
				DisplayName: top.DisplayName,
				Points:      top.Points,
			}
		}
	}
	audience := append([]models.Agent(nil), s.players...)
	audience = append(audience, s.referees...)
	totalMatches := s.fixture.TotalMatches()
	s.mu.Unlock()

	var nextRound *int
	if !last {
		n := round + 1
		nextRound = &n
	}

	s.logger.Info("round completed",
		slog.String("league_id", s.cfg.LeagueID),
		slog.Int("round_id", round),
		slog.Int("wins", summary.Wins),
		slog.Int("draws", summary.Draws),
		slog.Int("technical_losses", summary.TechnicalLosses),
	)

	done := s.newMessage(protocol.KindRoundCompleted, protocol.RoundCompleted{
		MatchesCompleted: summary.TotalMatches,
		NextRoundID:      nextRound,
		Summary:          summary,
	})
	done.RoundID = round
	s.broadcast(audience, done)

	if s.hub != nil {
		s.hub.BroadcastToRoom(s.cfg.LeagueID, live.Event{
			Type:     live.EventRoundCompleted,
			LeagueID: s.cfg.LeagueID,
			Payload: map[string]any{
				"round_id": round,
				"summary":  summary,
			},
		})
	}

	if !last {
		s.mu.Lock()
		matches, nextAudience := s.stageRoundLocked(round + 1)
		s.mu.Unlock()
		s.announceRound(round+1, matches, nextAudience)
		return
	}

	s.logger.Info("league completed",
		slog.String("league_id", s.cfg.LeagueID),
		slog.String("champion", champion.PlayerID),
		slog.Int("points", champion.Points),
	)

	final := s.newMessage(protocol.KindLeagueCompleted, protocol.LeagueCompleted{
		TotalRounds:    round,
		TotalMatches:   totalMatches,
		Champion:       champion,
		FinalStandings: table.Rows,
	})
	s.broadcast(audience, final)

	if s.hub != nil {
		s.hub.BroadcastToRoom(s.cfg.LeagueID, live.Event{
			Type:     live.EventLeagueCompleted,
			LeagueID: s.cfg.LeagueID,
			Payload: map[string]any{
				"champion":        champion,
				"final_standings": table.Rows,
			},
		})
	}
}

// forceCloseRound fabricates double forfeits for every still-pending match
// of a stalled round. Results that race in through the normal path stay
// ahead because the aggregator applies each match at most once.
func (s *leagueService) forceCloseRound(round int) {
	s.mu.Lock()
	if s.league.Status != models.LeagueActive || s.pendingRound != round || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	stalled := make([]models.Match, 0, len(s.pending))
	for _, m := range s.pending {
		stalled = append(stalled, m)
	}
	s.mu.Unlock()

	s.logger.Warn("round stalled, forcing closure",
		slog.String("league_id", s.cfg.LeagueID),
		slog.Int("round_id", round),
		slog.Int("unreported", len(stalled)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastTimeout)
	defer cancel()
	for _, m := range stalled {
		result := models.MatchResult{
			MatchID:     m.ID,
			LeagueID:    s.cfg.LeagueID,
			Round:       round,
			PlayerAID:   m.PlayerAID,
			PlayerBID:   m.PlayerBID,
			Kind:        models.OutcomeDoubleForfeit,
			Reason:      models.ReasonDoubleForfeit,
			ReportedBy:  "league_manager",
			CompletedAt: time.Now().UTC(),
		}
		if err := s.ingestResult(ctx, result); err != nil {
			s.logger.Error("forced closure failed",
				slog.String("match_id", m.ID),
				slog.Any("error", err),
			)
		}
	}
}

// Query answers GET_STANDINGS and GET_NEXT_MATCH for authenticated agents.
func (s *leagueService) Query(ctx context.Context, env protocol.Envelope, query protocol.LeagueQuery) (protocol.LeagueQueryResponse, error) {
	identity, err := s.authenticate(env)
	if err != nil {
		return protocol.LeagueQueryResponse{}, err
	}

	resp := protocol.LeagueQueryResponse{QueryType: query.QueryType}

	switch query.QueryType {
	case protocol.QueryGetStandings:
		table, err := s.Standings(ctx)
		if err != nil {
			return resp, err
		}
		resp.Success = true
		resp.Data.Standings = table.Rows
		return resp, nil

	case protocol.QueryGetNextMatch:
		playerID := query.QueryParams["player_id"]
		if playerID == "" {
			playerID = identity.AgentID
		}
		s.mu.Lock()
		agent, known := s.agents[playerID]
		s.mu.Unlock()
		if !known || agent.Role != models.RolePlayer {
			return resp, ErrPlayerNotRegistered
		}
		next, err := s.nextMatchFor(ctx, playerID)
		if err != nil {
			return resp, err
		}
		resp.Success = true
		resp.Data.NextMatch = next
		return resp, nil
	}

	return resp, ErrUnknownQueryType
}

// nextMatchFor walks the fixture in order and returns the first match of
// the player that has not been applied yet, nil when none remain.
func (s *leagueService) nextMatchFor(ctx context.Context, playerID string) (*models.Match, error) {
	table, err := s.Standings(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rd := range s.fixture.Rounds {
		for _, m := range rd.Matches {
			if !m.Involves(playerID) || table.HasApplied(m.ID) {
				continue
			}
			m.PlayerAEndpoint = s.agents[m.PlayerAID].Endpoint
			m.PlayerBEndpoint = s.agents[m.PlayerBID].Endpoint
			m.RefereeEndpoint = s.agents[m.RefereeID].Endpoint
			return &m, nil
		}
	}
	return nil, nil
}

func (s *leagueService) Status() protocol.LeagueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *leagueService) statusLocked() protocol.LeagueStatus {
	return protocol.LeagueStatus{
		Status:           string(s.league.Status),
		CurrentRound:     s.league.CurrentRound,
		TotalRounds:      s.league.TotalRounds,
		MatchesCompleted: s.completed,
	}
}

func (s *leagueService) League() models.League {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.league
}

// Standings returns the latest committed table.
func (s *leagueService) Standings(ctx context.Context) (*models.StandingsTable, error) {
	table, err := s.agg.Snapshot(ctx, s.cfg.LeagueID)
	if errors.Is(err, repositories.ErrStandingsNotFound) {
		return nil, ErrLeagueNotStarted
	}
	return table, err
}

// MatchRecords lists every archived match of the league in fixture order.
func (s *leagueService) MatchRecords(ctx context.Context) ([]models.MatchRecord, error) {
	return s.records.ListByLeague(ctx, s.cfg.LeagueID)
}

// Fixture returns a copy of the generated fixture, nil before the league
// starts.
func (s *leagueService) Fixture() *models.Fixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fixture == nil {
		return nil
	}
	cp := &models.Fixture{LeagueID: s.fixture.LeagueID, Rounds: make([]models.Round, len(s.fixture.Rounds))}
	for i, rd := range s.fixture.Rounds {
		cp.Rounds[i] = models.Round{Number: rd.Number, Matches: append([]models.Match(nil), rd.Matches...)}
	}
	return cp
}

// authenticate checks the envelope token against this league and makes
// sure the stated sender is the token's subject.
func (s *leagueService) authenticate(env protocol.Envelope) (auth.Identity, error) {
	if env.AuthToken == "" {
		return auth.Identity{}, ErrAuthTokenMissing
	}
	identity, err := s.tokens.Verify(env.AuthToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return auth.Identity{}, ErrAuthTokenExpired
		}
		return auth.Identity{}, ErrAuthTokenInvalid
	}
	if identity.LeagueID != s.cfg.LeagueID {
		return auth.Identity{}, ErrWrongLeague
	}
	if env.LeagueID != "" && env.LeagueID != s.cfg.LeagueID {
		return auth.Identity{}, ErrWrongLeague
	}
	if sender := protocol.SenderID(env.Sender); sender != "" && sender != identity.AgentID {
		return auth.Identity{}, ErrAuthTokenInvalid
	}
	return identity, nil
}

// matchByID looks the match up across all fixture rounds. Callers hold mu.
func (s *leagueService) matchByID(matchID string) (models.Match, bool) {
	if s.fixture == nil {
		return models.Match{}, false
	}
	for _, rd := range s.fixture.Rounds {
		for _, m := range rd.Matches {
			if m.ID == matchID {
				return m, true
			}
		}
	}
	return models.Match{}, false
}

func (s *leagueService) newMessage(kind protocol.Kind, payload any) protocol.Message {
	env := protocol.NewEnvelope(kind, "league_manager:"+s.cfg.LeagueID)
	env.LeagueID = s.cfg.LeagueID
	return protocol.Message{Envelope: env, Payload: payload}
}

// broadcast delivers msg to every recipient in parallel. Failures are
// logged, never propagated: an unreachable agent must not block the rest
// of the league, and stalled matches are recovered by the round timer.
func (s *leagueService) broadcast(recipients []models.Agent, msg protocol.Message) {
	g := new(errgroup.Group)
	for _, agent := range recipients {
		agent := agent
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BroadcastTimeout)
			defer cancel()
			reply, err := s.dispatcher.Send(ctx, agent.Endpoint, msg)
			if err != nil {
				s.logger.Warn("broadcast delivery failed",
					slog.String("recipient", agent.ID),
					slog.String("message_type", string(msg.MessageType)),
					slog.Any("error", err),
				)
				return nil
			}
			if env, err := parseReplyEnvelope(reply); err == nil && env.MessageType == protocol.KindLeagueError {
				s.logger.Warn("recipient rejected broadcast",
					slog.String("recipient", agent.ID),
					slog.String("message_type", string(msg.MessageType)),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func parseReplyEnvelope(raw json.RawMessage) (protocol.Envelope, error) {
	if len(raw) == 0 {
		return protocol.Envelope{}, errors.New("empty reply")
	}
	return protocol.ParseEnvelope(raw)
}

func agentIDs(agents []models.Agent) []string {
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}
	return ids
}
