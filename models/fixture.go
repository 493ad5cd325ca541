package models

// Match is a single fixture entry: one pairing inside one round, run by
// one referee. IDs are deterministic ("R<round>M<seq>") and immutable
// once the fixture is generated.
type Match struct {
	ID        string `json:"match_id"`
	Round     int    `json:"round_id"`
	GameType  string `json:"game_type"`
	PlayerAID string `json:"player_A_id"`
	PlayerBID string `json:"player_B_id"`
	RefereeID string `json:"referee_id"`

	// Endpoints are attached by the manager when a round is announced, so
	// referees do not need a separate directory lookup.
	PlayerAEndpoint string `json:"player_A_endpoint,omitempty"`
	PlayerBEndpoint string `json:"player_B_endpoint,omitempty"`
	RefereeEndpoint string `json:"referee_endpoint,omitempty"`
}

// Involves reports whether the given player takes part in the match.
func (m Match) Involves(playerID string) bool {
	return m.PlayerAID == playerID || m.PlayerBID == playerID
}

// Opponent returns the other side of the pairing, or "" when playerID is
// not part of the match.
func (m Match) Opponent(playerID string) string {
	switch playerID {
	case m.PlayerAID:
		return m.PlayerBID
	case m.PlayerBID:
		return m.PlayerAID
	}
	return ""
}

// Round groups the matches released together. Every player appears at
// most once per round.
type Round struct {
	Number  int     `json:"round_id"`
	Matches []Match `json:"matches"`
}

// Fixture is the full round-robin plan for one league, generated once at
// league start.
type Fixture struct {
	LeagueID string  `json:"league_id"`
	Rounds   []Round `json:"rounds"`
}

// TotalMatches counts matches across all rounds.
func (f *Fixture) TotalMatches() int {
	n := 0
	for _, r := range f.Rounds {
		n += len(r.Matches)
	}
	return n
}

// RoundByNumber returns the round with the given number, or nil.
func (f *Fixture) RoundByNumber(num int) *Round {
	for i := range f.Rounds {
		if f.Rounds[i].Number == num {
			return &f.Rounds[i]
		}
	}
	return nil
}
