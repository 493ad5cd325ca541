package models

import "time"

// AgentRole determines which side of the protocol an agent speaks.
type AgentRole string

const (
	RoleManager AgentRole = "league_manager"
	RoleReferee AgentRole = "referee"
	RolePlayer  AgentRole = "player"
)

// Agent is a registered league participant: a player or a referee.
// Endpoint is the opaque contact URL captured at registration time;
// it is never re-validated by the core.
type Agent struct {
	ID          string    `json:"agent_id" db:"agent_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        AgentRole `json:"role" db:"role"`
	Version     string    `json:"version,omitempty" db:"version"`
	Endpoint    string    `json:"contact_endpoint" db:"contact_endpoint"`
	GameTypes   []string  `json:"game_types,omitempty" db:"-"`

	// MaxConcurrentMatches is referee metadata: how many coordinators the
	// referee is willing to run at once. Zero means "use the league default".
	MaxConcurrentMatches int `json:"max_concurrent_matches,omitempty" db:"-"`

	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Roster is the ordered list of player IDs a league is started with.
// Immutable once the league starts.
type Roster []string
