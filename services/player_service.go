package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/agent-league/dispatch"
	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/repositories"
)

// PlayerConfig describes one player agent instance.
type PlayerConfig struct {
	ManagerEndpoint string
	SelfEndpoint    string
	DisplayName     string
	Version         string
}

// PlayerService plays the league: it registers with the manager, accepts
// invitations, answers choice calls through its strategy and keeps a
// personal history of finished matches.
type PlayerService interface {
	Start(ctx context.Context) error

	HandleInvitation(env protocol.Envelope, inv protocol.GameInvitation) (protocol.GameJoinAck, error)
	HandleChoiceCall(ctx context.Context, env protocol.Envelope, call protocol.ChooseParityCall) (protocol.ChooseParityResponse, error)
	HandleGameOver(ctx context.Context, env protocol.Envelope, over protocol.GameOver) error
	HandleStandingsUpdate(env protocol.Envelope, update protocol.LeagueStandingsUpdate) error
	HandleLeagueCompleted(env protocol.Envelope, final protocol.LeagueCompleted) error

	PlayerID() string
	LatestStandings() []models.StandingRow
	History(ctx context.Context) ([]models.HistoryRecord, error)
}

type playerService struct {
	cfg        PlayerConfig
	strategy   Strategy
	history    repositories.HistoryRepository
	dispatcher dispatch.Dispatcher
	logger     *slog.Logger

	mu        sync.Mutex
	playerID  string
	leagueID  string
	authToken string
	opponents map[string]string // match_id -> opponent_id, filled by invitations
	standings []models.StandingRow
}

func NewPlayerService(
	cfg PlayerConfig,
	strategy Strategy,
	history repositories.HistoryRepository,
	dispatcher dispatch.Dispatcher,
	logger *slog.Logger,
) PlayerService {
	if strategy == nil {
		strategy = NewRandomStrategy()
	}
	return &playerService{
		cfg:        cfg,
		strategy:   strategy,
		history:    history,
		dispatcher: dispatcher,
		logger:     logger,
		opponents:  make(map[string]string),
	}
}

func (s *playerService) Start(ctx context.Context) error {
	msg := protocol.Message{
		Envelope: protocol.NewEnvelope(protocol.KindLeagueRegisterRequest, "player:"+s.cfg.DisplayName),
		Payload: protocol.PlayerRegisterRequest{
			PlayerMeta: protocol.AgentMeta{
				DisplayName:     s.cfg.DisplayName,
				Version:         s.cfg.Version,
				GameTypes:       []string{models.GameTypeEvenOdd},
				ContactEndpoint: s.cfg.SelfEndpoint,
			},
		},
	}

	raw, err := s.dispatcher.Send(ctx, s.cfg.ManagerEndpoint, msg)
	if err != nil {
		return fmt.Errorf("register with manager: %w", err)
	}
	env, resp, err := decodeRegisterReply(raw, protocol.KindLeagueRegisterResponse)
	if err != nil {
		return fmt.Errorf("register with manager: %w", err)
	}
	if resp.PlayerID == "" || resp.AuthToken == "" {
		return fmt.Errorf("register with manager: response missing player_id or auth_token")
	}

	s.mu.Lock()
	s.playerID = resp.PlayerID
	s.leagueID = env.LeagueID
	s.authToken = resp.AuthToken
	s.mu.Unlock()

	s.logger.Info("registered with league manager",
		slog.String("player_id", resp.PlayerID),
		slog.String("league_id", env.LeagueID),
		slog.String("strategy", s.strategy.Name()),
	)
	return nil
}

// HandleInvitation always joins. The opponent is remembered per match so
// the final report can be logged even when the game never reached choices.
func (s *playerService) HandleInvitation(env protocol.Envelope, inv protocol.GameInvitation) (protocol.GameJoinAck, error) {
	s.mu.Lock()
	playerID := s.playerID
	if playerID == "" {
		s.mu.Unlock()
		return protocol.GameJoinAck{}, ErrPlayerNotRegistered
	}
	s.opponents[env.MatchID] = inv.OpponentID
	s.mu.Unlock()

	s.logger.Info("joining match",
		slog.String("match_id", env.MatchID),
		slog.String("opponent", inv.OpponentID),
		slog.String("role", inv.RoleInMatch),
	)
	return protocol.GameJoinAck{
		PlayerID:         playerID,
		ArrivalTimestamp: time.Now().UTC().Format(time.RFC3339),
		Accept:           true,
	}, nil
}

// HandleChoiceCall consults the strategy with everything the player has
// seen so far.
func (s *playerService) HandleChoiceCall(ctx context.Context, env protocol.Envelope, call protocol.ChooseParityCall) (protocol.ChooseParityResponse, error) {
	s.mu.Lock()
	playerID := s.playerID
	s.mu.Unlock()
	if playerID == "" {
		return protocol.ChooseParityResponse{}, ErrPlayerNotRegistered
	}

	history, err := s.history.List(ctx, playerID)
	if err != nil {
		s.logger.Warn("history unavailable, choosing without it", slog.Any("error", err))
		history = nil
	}
	choice := s.strategy.ChooseParity(call.Context, history)

	s.logger.Info("parity chosen",
		slog.String("match_id", env.MatchID),
		slog.String("choice", string(choice)),
		slog.String("strategy", s.strategy.Name()),
	)
	return protocol.ChooseParityResponse{PlayerID: playerID, ParityChoice: choice}, nil
}

// HandleGameOver folds the referee's result into the player's own history.
func (s *playerService) HandleGameOver(ctx context.Context, env protocol.Envelope, over protocol.GameOver) error {
	s.mu.Lock()
	playerID := s.playerID
	opponent := s.opponents[env.MatchID]
	delete(s.opponents, env.MatchID)
	s.mu.Unlock()
	if playerID == "" {
		return ErrPlayerNotRegistered
	}

	res := over.GameResult
	if opponent == "" {
		for id := range res.Choices {
			if id != playerID {
				opponent = id
			}
		}
	}

	rec := models.HistoryRecord{
		MatchID:        env.MatchID,
		Round:          env.RoundID,
		OpponentID:     opponent,
		MyChoice:       res.Choices[playerID],
		OpponentChoice: res.Choices[opponent],
		PlayedAt:       time.Now().UTC(),
	}
	if res.DrawnNumber != nil {
		rec.DrawnNumber = *res.DrawnNumber
	}
	switch {
	case res.Status == "WIN" && res.WinnerPlayerID != nil && *res.WinnerPlayerID == playerID:
		rec.Outcome, rec.Points = "win", 3
	case res.Status == "DRAW":
		rec.Outcome, rec.Points = "draw", 1
	default:
		rec.Outcome, rec.Points = "loss", 0
	}

	if err := s.history.Append(ctx, playerID, rec); err != nil {
		return fmt.Errorf("append history for %s: %w", env.MatchID, err)
	}

	s.logger.Info("match finished",
		slog.String("match_id", env.MatchID),
		slog.String("outcome", rec.Outcome),
		slog.String("reason", res.Reason),
		slog.Int("points", rec.Points),
	)
	return nil
}

// HandleStandingsUpdate keeps the latest table for local inspection.
func (s *playerService) HandleStandingsUpdate(_ protocol.Envelope, update protocol.LeagueStandingsUpdate) error {
	s.mu.Lock()
	s.standings = update.Standings
	playerID := s.playerID
	s.mu.Unlock()

	for _, row := range update.Standings {
		if row.PlayerID == playerID {
			s.logger.Info("standings updated",
				slog.Int("rank", row.Rank),
				slog.Int("points", row.Points),
				slog.Int("played", row.Played),
			)
			break
		}
	}
	return nil
}

func (s *playerService) HandleLeagueCompleted(_ protocol.Envelope, final protocol.LeagueCompleted) error {
	s.mu.Lock()
	s.standings = final.FinalStandings
	playerID := s.playerID
	s.mu.Unlock()

	won := final.Champion.PlayerID == playerID
	s.logger.Info("league completed",
		slog.String("champion", final.Champion.PlayerID),
		slog.Bool("champion_is_me", won),
		slog.Int("total_matches", final.TotalMatches),
	)
	return nil
}

func (s *playerService) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// LatestStandings returns the last table pushed by the manager.
func (s *playerService) LatestStandings() []models.StandingRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StandingRow(nil), s.standings...)
}

func (s *playerService) History(ctx context.Context) ([]models.HistoryRecord, error) {
	s.mu.Lock()
	playerID := s.playerID
	s.mu.Unlock()
	if playerID == "" {
		return nil, ErrPlayerNotRegistered
	}
	return s.history.List(ctx, playerID)
}
