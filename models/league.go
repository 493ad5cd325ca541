package models

import "time"

type LeagueStatus string

const (
	LeagueRegistration LeagueStatus = "registration"
	LeagueActive       LeagueStatus = "active"
	LeagueCompleted    LeagueStatus = "completed"
)

// League is the top-level competition an operator runs. One league holds
// one roster, one fixture and one standings table.
type League struct {
	ID           string       `json:"league_id" db:"id"`
	Name         string       `json:"name" db:"name"`
	GameType     string       `json:"game_type" db:"game_type"`
	Status       LeagueStatus `json:"status" db:"status"`
	CurrentRound int          `json:"current_round" db:"current_round"`
	TotalRounds  int          `json:"total_rounds" db:"total_rounds"`
	ChampionID   *string      `json:"champion_id,omitempty" db:"champion_id"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
}

func (l *League) AcceptsRegistrations() bool {
	return l.Status == LeagueRegistration
}
