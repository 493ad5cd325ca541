package models

import "time"

// GameTypeEvenOdd is the only game type the league currently runs.
const GameTypeEvenOdd = "even_odd"

// ParityChoice is a player's declared parity for one match.
type ParityChoice string

const (
	ChoiceEven ParityChoice = "even"
	ChoiceOdd  ParityChoice = "odd"
)

// Valid reports whether the choice is one of the two legal values.
func (c ParityChoice) Valid() bool {
	return c == ChoiceEven || c == ChoiceOdd
}

// OutcomeKind classifies how a match ended.
type OutcomeKind string

const (
	// OutcomeWin: exactly one player matched the drawn parity.
	OutcomeWin OutcomeKind = "win"
	// OutcomeDraw: both players declared the parity that was drawn.
	OutcomeDraw OutcomeKind = "draw"
	// OutcomeDoubleLoss: both players declared the same parity and the
	// draw went the other way. Nobody wins, nobody scores.
	OutcomeDoubleLoss OutcomeKind = "double_loss"
	// OutcomeForfeit: one player failed to join or to submit a choice in
	// time; the other side wins by technical decision.
	OutcomeForfeit OutcomeKind = "forfeit"
	// OutcomeDoubleForfeit: neither player responded in time. Scored as a
	// loss for both.
	OutcomeDoubleForfeit OutcomeKind = "double_forfeit"
)

// Outcome reasons carried in reports so a forfeit is distinguishable from
// a played match without changing the reporting shape.
const (
	ReasonParityMatched      = "PARITY_MATCHED"
	ReasonBothChoicesCorrect = "BOTH_CHOICES_CORRECT"
	ReasonBothChoicesWrong   = "BOTH_CHOICES_WRONG"
	ReasonJoinTimeout        = "JOIN_TIMEOUT"
	ReasonChoiceTimeout      = "CHOICE_TIMEOUT"
	ReasonInvitationDecline  = "INVITATION_DECLINED"
	ReasonDoubleForfeit      = "DOUBLE_FORFEIT"
)

// MatchResult is the terminal record of one match, produced by the
// referee's coordinator and applied exactly once by the manager.
type MatchResult struct {
	MatchID   string `json:"match_id"`
	LeagueID  string `json:"league_id"`
	Round     int    `json:"round_id"`
	PlayerAID string `json:"player_A_id"`
	PlayerBID string `json:"player_B_id"`

	Kind   OutcomeKind `json:"outcome"`
	Winner *string     `json:"winner,omitempty"` // nil when no winner
	Reason string      `json:"reason"`

	// Game details. DrawnNumber/NumberParity are nil when no draw took
	// place (forfeits). Choices holds only the choices actually received.
	DrawnNumber  *int                    `json:"drawn_number,omitempty"`
	NumberParity *ParityChoice           `json:"number_parity,omitempty"`
	Choices      map[string]ParityChoice `json:"choices,omitempty"`

	// Score is the referee's informational per-player score using the
	// league defaults. The aggregator recomputes authoritative points
	// from its own configuration.
	Score map[string]int `json:"score,omitempty"`

	ReportedBy  string    `json:"reported_by"`
	CompletedAt time.Time `json:"completed_at"`
}

// WinnerID returns the winner or "" for winnerless outcomes.
func (r *MatchResult) WinnerID() string {
	if r.Winner == nil {
		return ""
	}
	return *r.Winner
}

// LoserIDs lists the players debited with a loss by this result.
func (r *MatchResult) LoserIDs() []string {
	switch r.Kind {
	case OutcomeWin, OutcomeForfeit:
		if r.Winner == nil {
			return nil
		}
		if *r.Winner == r.PlayerAID {
			return []string{r.PlayerBID}
		}
		return []string{r.PlayerAID}
	case OutcomeDoubleLoss, OutcomeDoubleForfeit:
		return []string{r.PlayerAID, r.PlayerBID}
	}
	return nil
}

// MatchRecord is the archived form of a completed match.
type MatchRecord struct {
	MatchID    string      `json:"match_id"`
	LeagueID   string      `json:"league_id"`
	Result     MatchResult `json:"result"`
	ArchivedAt time.Time   `json:"archived_at"`
}
