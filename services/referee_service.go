package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/game"
	"github.com/Dosada05/agent-league/match"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
)

// Backoff for re-trying admission when the coordinator queue is full.
// Slots always free within the match deadlines, so the retry converges.
var (
	admitRetryDelay    = time.Second
	admitRetryMaxDelay = 10 * time.Second
)

// RefereeConfig describes one referee agent instance.
type RefereeConfig struct {
	ManagerEndpoint string
	SelfEndpoint    string
	DisplayName     string
	Version         string

	// MaxConcurrentMatches bounds parallel coordinators; zero means 2.
	// QueueBound bounds admissions waiting for a slot; zero means 32.
	MaxConcurrentMatches int
	QueueBound           int

	JoinTimeout   time.Duration
	ChoiceTimeout time.Duration
	ReportTimeout time.Duration
}

// RefereeService registers with a league manager and officiates the
// matches assigned to it in every announced round.
type RefereeService interface {
	// Start registers with the manager. The given context outlives the
	// call: every coordinator this referee spawns runs under it.
	Start(ctx context.Context) error
	HandleRoundAnnouncement(env protocol.Envelope, ann protocol.RoundAnnouncement) error

	RefereeID() string
	Wait()
}

type refereeService struct {
	cfg        RefereeConfig
	dispatcher dispatch.Dispatcher
	game       *game.Game
	slots      *match.SlotManager
	logger     *slog.Logger

	mu        sync.Mutex
	baseCtx   context.Context
	refereeID string
	leagueID  string
	authToken string

	matches sync.WaitGroup
}

func NewRefereeService(cfg RefereeConfig, dispatcher dispatch.Dispatcher, logger *slog.Logger) RefereeService {
	if cfg.MaxConcurrentMatches < 1 {
		cfg.MaxConcurrentMatches = 2
	}
	if cfg.QueueBound < 1 {
		cfg.QueueBound = 32
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = 5 * time.Second
	}
	if cfg.ChoiceTimeout <= 0 {
		cfg.ChoiceTimeout = 30 * time.Second
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 10 * time.Second
	}
	return &refereeService{
		cfg:        cfg,
		dispatcher: dispatcher,
		game:       game.New(),
		slots:      match.NewSlotManager(cfg.MaxConcurrentMatches, cfg.QueueBound),
		logger:     logger,
	}
}

func (s *refereeService) Start(ctx context.Context) error {
	msg := protocol.Message{
		Envelope: protocol.NewEnvelope(protocol.KindRefereeRegisterRequest, "referee:"+s.cfg.DisplayName),
		Payload: protocol.RefereeRegisterRequest{
			RefereeMeta: protocol.AgentMeta{
				DisplayName:          s.cfg.DisplayName,
				Version:              s.cfg.Version,
				GameTypes:            []string{models.GameTypeEvenOdd},
				ContactEndpoint:      s.cfg.SelfEndpoint,
				MaxConcurrentMatches: s.cfg.MaxConcurrentMatches,
			},
		},
	}

	raw, err := s.dispatcher.Send(ctx, s.cfg.ManagerEndpoint, msg)
	if err != nil {
		return fmt.Errorf("register with manager: %w", err)
	}
	env, resp, err := decodeRegisterReply(raw, protocol.KindRefereeRegisterResponse)
	if err != nil {
		return fmt.Errorf("register with manager: %w", err)
	}
	if resp.RefereeID == "" || resp.AuthToken == "" {
		return errors.New("register with manager: response missing referee_id or auth_token")
	}

	s.mu.Lock()
	s.baseCtx = ctx
	s.refereeID = resp.RefereeID
	s.leagueID = env.LeagueID
	s.authToken = resp.AuthToken
	s.mu.Unlock()

	s.logger.Info("registered with league manager",
		slog.String("referee_id", resp.RefereeID),
		slog.String("league_id", env.LeagueID),
		slog.String("manager", s.cfg.ManagerEndpoint),
	)
	return nil
}

// HandleRoundAnnouncement picks this referee's matches out of the round
// and starts a coordinator for each. Matches beyond the concurrency limit
// wait for a slot in arrival order.
func (s *refereeService) HandleRoundAnnouncement(env protocol.Envelope, ann protocol.RoundAnnouncement) error {
	s.mu.Lock()
	refereeID := s.refereeID
	baseCtx := s.baseCtx
	s.mu.Unlock()
	if refereeID == "" {
		return ErrRefereeNotRegistered
	}

	var mine []models.Match
	for _, m := range ann.Matches {
		if m.RefereeID == refereeID {
			mine = append(mine, m)
		}
	}

	s.logger.Info("round announced",
		slog.Int("round_id", env.RoundID),
		slog.Int("matches_in_round", len(ann.Matches)),
		slog.Int("assigned", len(mine)),
	)

	for _, m := range mine {
		s.matches.Add(1)
		go func(m models.Match) {
			defer s.matches.Done()
			s.runMatch(baseCtx, m)
		}(m)
	}
	return nil
}

// runMatch waits for a coordinator slot, then plays the match through to
// the manager's result acknowledgement.
func (s *refereeService) runMatch(ctx context.Context, m models.Match) {
	release, err := s.admit(ctx, m.ID)
	if err != nil {
		s.logger.Error("match abandoned, no coordinator slot",
			slog.String("match_id", m.ID),
			slog.Any("error", err),
		)
		return
	}

	s.mu.Lock()
	cfg := match.CoordinatorConfig{
		LeagueID:        s.leagueID,
		RefereeID:       s.refereeID,
		AuthToken:       s.authToken,
		ManagerEndpoint: s.cfg.ManagerEndpoint,
		JoinTimeout:     s.cfg.JoinTimeout,
		ChoiceTimeout:   s.cfg.ChoiceTimeout,
		ReportTimeout:   s.cfg.ReportTimeout,
		ReleaseSlot:     release,
	}
	s.mu.Unlock()

	coord := match.NewCoordinator(cfg, m, s.game.Draw(), s.dispatcher, s.logger)
	res, err := coord.Run(ctx)
	if err != nil {
		s.logger.Error("match finished with delivery error",
			slog.String("match_id", m.ID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.Info("match reported",
		slog.String("match_id", m.ID),
		slog.String("outcome", string(res.Kind)),
		slog.String("winner", res.WinnerID()),
	)
}

// admit acquires a coordinator slot. A full admission queue is not fatal:
// the attempt backs off and repeats until a slot opens or ctx ends.
func (s *refereeService) admit(ctx context.Context, matchID string) (func(), error) {
	delay := admitRetryDelay
	for {
		release, err := s.slots.Admit(ctx)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, match.ErrCapacityExceeded) {
			return nil, err
		}
		s.logger.Warn("admission queue full, retrying",
			slog.String("match_id", matchID),
			slog.Duration("retry_in", delay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > admitRetryMaxDelay {
			delay = admitRetryMaxDelay
		}
	}
}

func (s *refereeService) RefereeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refereeID
}

// Wait blocks until every running coordinator has finished.
func (s *refereeService) Wait() {
	s.matches.Wait()
}

// decodeRegisterReply validates the manager's reply kind and decodes the
// flat registration payload. A LEAGUE_ERROR reply becomes an error
// carrying the manager's code and description.
func decodeRegisterReply(raw json.RawMessage, want protocol.Kind) (protocol.Envelope, protocol.RegisterResponse, error) {
	env, err := protocol.ParseEnvelope(raw)
	if err != nil {
		return protocol.Envelope{}, protocol.RegisterResponse{}, err
	}
	if env.MessageType == protocol.KindLeagueError {
		var e protocol.Error
		_ = json.Unmarshal(raw, &e)
		return env, protocol.RegisterResponse{}, fmt.Errorf("manager rejected registration: %s %s", e.Code, e.Description)
	}
	if env.MessageType != want {
		return env, protocol.RegisterResponse{}, fmt.Errorf("unexpected reply %s, want %s", env.MessageType, want)
	}
	var resp protocol.RegisterResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return env, protocol.RegisterResponse{}, err
	}
	return env, resp, nil
}
