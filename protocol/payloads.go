package protocol

import "github.com/Dosada05/agent-league/models"

// AgentMeta describes a registering agent.
type AgentMeta struct {
	DisplayName          string   `json:"display_name"`
	Version              string   `json:"version"`
	GameTypes            []string `json:"game_types"`
	ContactEndpoint      string   `json:"contact_endpoint"`
	MaxConcurrentMatches int      `json:"max_concurrent_matches,omitempty"`
}

// RefereeRegisterRequest carries a referee's metadata to the manager.
type RefereeRegisterRequest struct {
	RefereeMeta AgentMeta `json:"referee_meta"`
}

// PlayerRegisterRequest carries a player's metadata to the manager.
type PlayerRegisterRequest struct {
	PlayerMeta AgentMeta `json:"player_meta"`
}

// RegisterResponse acknowledges a registration. Exactly one of PlayerID and
// RefereeID is set depending on the request kind.
type RegisterResponse struct {
	Status    string `json:"status"`
	PlayerID  string `json:"player_id,omitempty"`
	RefereeID string `json:"referee_id,omitempty"`
	AuthToken string `json:"auth_token,omitempty"`
}

const StatusAccepted = "ACCEPTED"

// RoundAnnouncement lists the matches of a released round, endpoints
// included so referees can reach their players directly.
type RoundAnnouncement struct {
	Matches []models.Match `json:"matches"`
}

// GameInvitation invites one player into a match.
type GameInvitation struct {
	GameType    string `json:"game_type"`
	RoleInMatch string `json:"role_in_match"` // PLAYER_A or PLAYER_B
	OpponentID  string `json:"opponent_id"`
}

// GameJoinAck is the player's reply to an invitation.
type GameJoinAck struct {
	PlayerID         string `json:"player_id"`
	ArrivalTimestamp string `json:"arrival_timestamp"`
	Accept           bool   `json:"accept"`
}

// CallContext gives the player what it may want for choosing.
type CallContext struct {
	OpponentID string `json:"opponent_id"`
	RoundID    int    `json:"round_id"`
}

// ChooseParityCall asks one player for its parity choice before Deadline.
type ChooseParityCall struct {
	PlayerID string      `json:"player_id"`
	GameType string      `json:"game_type"`
	Context  CallContext `json:"context"`
	Deadline string      `json:"deadline"`
}

// ChooseParityResponse carries the player's choice back.
type ChooseParityResponse struct {
	PlayerID     string              `json:"player_id"`
	ParityChoice models.ParityChoice `json:"parity_choice"`
}

// GameResult is the referee's account of a finished game, sent to both
// players inside GAME_OVER.
type GameResult struct {
	Status         string                         `json:"status"` // WIN, DRAW or NO_WINNER
	WinnerPlayerID *string                        `json:"winner_player_id"`
	DrawnNumber    *int                           `json:"drawn_number,omitempty"`
	NumberParity   *models.ParityChoice           `json:"number_parity,omitempty"`
	Choices        map[string]models.ParityChoice `json:"choices"`
	Reason         string                         `json:"reason"`
}

// GameOver closes a match from the players' point of view.
type GameOver struct {
	GameType   string     `json:"game_type"`
	GameResult GameResult `json:"game_result"`
}

// MatchResultReport is the referee's authoritative result for the manager.
type MatchResultReport struct {
	Result models.MatchResult `json:"result"`
}

// MatchResultAck confirms the manager recorded a reported result.
type MatchResultAck struct {
	Status string `json:"status"`
}

const StatusRecorded = "recorded"

// Query types understood by LEAGUE_QUERY.
const (
	QueryGetStandings = "GET_STANDINGS"
	QueryGetNextMatch = "GET_NEXT_MATCH"
)

// LeagueQuery asks the manager for league data.
type LeagueQuery struct {
	QueryType   string            `json:"query_type"`
	QueryParams map[string]string `json:"query_params,omitempty"`
}

// QueryData is the union of answers a LEAGUE_QUERY_RESPONSE may carry.
type QueryData struct {
	Standings []models.StandingRow `json:"standings,omitempty"`
	NextMatch *models.Match        `json:"next_match,omitempty"`
}

// LeagueQueryResponse answers a LEAGUE_QUERY.
type LeagueQueryResponse struct {
	QueryType string    `json:"query_type"`
	Success   bool      `json:"success"`
	Data      QueryData `json:"data"`
}

// LeagueStandingsUpdate pushes the table to players after every applied
// result.
type LeagueStandingsUpdate struct {
	Standings []models.StandingRow `json:"standings"`
}

// RoundSummary aggregates one finished round.
type RoundSummary struct {
	TotalMatches    int `json:"total_matches"`
	Wins            int `json:"wins"`
	Draws           int `json:"draws"`
	TechnicalLosses int `json:"technical_losses"`
}

// RoundCompleted announces a round has finished. NextRoundID is nil on the
// final round.
type RoundCompleted struct {
	MatchesCompleted int          `json:"matches_completed"`
	NextRoundID      *int         `json:"next_round_id"`
	Summary          RoundSummary `json:"summary"`
}

// Champion identifies the league winner.
type Champion struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// LeagueCompleted closes the league with its champion and final table.
type LeagueCompleted struct {
	TotalRounds    int                  `json:"total_rounds"`
	TotalMatches   int                  `json:"total_matches"`
	Champion       Champion             `json:"champion"`
	FinalStandings []models.StandingRow `json:"final_standings"`
}

// LeagueStatus reports where the league stands.
type LeagueStatus struct {
	Status           string `json:"status"`
	CurrentRound     int    `json:"current_round"`
	TotalRounds      int    `json:"total_rounds"`
	MatchesCompleted int    `json:"matches_completed"`
}
