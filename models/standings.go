package models

import "time"

// StandingRow is one player's line in the league table. Rank is derived
// from the other fields on every mutation and never maintained on its own.
type StandingRow struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Played      int    `json:"played"`
	Wins        int    `json:"wins"`
	Draws       int    `json:"draws"`
	Losses      int    `json:"losses"`
	Points      int    `json:"points"`
}

// StandingsTable is the single authoritative standings snapshot for one
// league. Applied carries the IDs of every match already folded into the
// rows, committed atomically together with them so duplicate reports stay
// no-ops across restarts.
type StandingsTable struct {
	LeagueID  string               `json:"league_id"`
	Rows      []StandingRow        `json:"standings"`
	Applied   map[string]time.Time `json:"applied_matches"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewStandingsTable returns an empty table for the league.
func NewStandingsTable(leagueID string) *StandingsTable {
	return &StandingsTable{
		LeagueID: leagueID,
		Rows:     []StandingRow{},
		Applied:  map[string]time.Time{},
	}
}

// Row returns a pointer to the row for playerID, or nil.
func (t *StandingsTable) Row(playerID string) *StandingRow {
	for i := range t.Rows {
		if t.Rows[i].PlayerID == playerID {
			return &t.Rows[i]
		}
	}
	return nil
}

// HasApplied reports whether matchID has already been folded in.
func (t *StandingsTable) HasApplied(matchID string) bool {
	_, ok := t.Applied[matchID]
	return ok
}

// Clone deep-copies the table so callers can hand out snapshots without
// exposing the aggregator's mutable state.
func (t *StandingsTable) Clone() *StandingsTable {
	cp := &StandingsTable{
		LeagueID:  t.LeagueID,
		Rows:      make([]StandingRow, len(t.Rows)),
		Applied:   make(map[string]time.Time, len(t.Applied)),
		UpdatedAt: t.UpdatedAt,
	}
	copy(cp.Rows, t.Rows)
	for id, at := range t.Applied {
		cp.Applied[id] = at
	}
	return cp
}

// HistoryRecord is one entry in a player's personal game log, kept by the
// player agent itself.
type HistoryRecord struct {
	MatchID        string       `json:"match_id"`
	Round          int          `json:"round_id"`
	OpponentID     string       `json:"opponent_id"`
	MyChoice       ParityChoice `json:"my_choice,omitempty"`
	OpponentChoice ParityChoice `json:"opponent_choice,omitempty"`
	DrawnNumber    int          `json:"drawn_number,omitempty"`
	Outcome        string       `json:"outcome"` // "win", "loss" or "draw" from this player's view
	Points         int          `json:"points"`
	PlayedAt       time.Time    `json:"played_at"`
}
