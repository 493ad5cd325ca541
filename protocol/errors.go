package protocol

// Code is a league.v2 protocol error code.
type Code string

const (
	// General errors.
	CodeInvalidMessageFormat Code = "E001"
	CodeUnsupportedProtocol  Code = "E002"
	CodeMissingRequiredField Code = "E003"
	CodeInvalidFieldValue    Code = "E004"

	// Registration errors.
	CodeNotEnoughPlayers      Code = "E005"
	CodeDuplicateRegistration Code = "E006"
	CodeInvalidAgentMetadata  Code = "E007"

	// Validation errors.
	CodeInvalidPlayerID  Code = "E008"
	CodeInvalidRefereeID Code = "E009"
	CodeInvalidLeagueID  Code = "E010"
	CodeInvalidMatchID   Code = "E011"

	// Authentication errors.
	CodeAuthTokenInvalid Code = "E012"
	CodeAuthTokenExpired Code = "E013"
	CodeAuthTokenMissing Code = "E014"

	// Game errors.
	CodeGameAlreadyStarted   Code = "E015"
	CodePlayerNotRegistered  Code = "E016"
	CodeRefereeNotRegistered Code = "E017"
	CodeMatchNotFound        Code = "E018"

	// Timeout errors.
	CodeChoiceTimeout Code = "E019"
	CodeJoinTimeout   Code = "E020"

	// League errors.
	CodeLeagueAlreadyStarted Code = "E021"
	CodeLeagueNotStarted     Code = "E022"
	CodeRoundNotFound        Code = "E023"
)

var codeDescriptions = map[Code]string{
	CodeInvalidMessageFormat:  "INVALID_MESSAGE_FORMAT",
	CodeUnsupportedProtocol:   "UNSUPPORTED_PROTOCOL_VERSION",
	CodeMissingRequiredField:  "MISSING_REQUIRED_FIELD",
	CodeInvalidFieldValue:     "INVALID_FIELD_VALUE",
	CodeNotEnoughPlayers:      "NOT_ENOUGH_PLAYERS",
	CodeDuplicateRegistration: "DUPLICATE_REGISTRATION",
	CodeInvalidAgentMetadata:  "INVALID_AGENT_METADATA",
	CodeInvalidPlayerID:       "INVALID_PLAYER_ID",
	CodeInvalidRefereeID:      "INVALID_REFEREE_ID",
	CodeInvalidLeagueID:       "INVALID_LEAGUE_ID",
	CodeInvalidMatchID:        "INVALID_MATCH_ID",
	CodeAuthTokenInvalid:      "AUTH_TOKEN_INVALID",
	CodeAuthTokenExpired:      "AUTH_TOKEN_EXPIRED",
	CodeAuthTokenMissing:      "AUTH_TOKEN_MISSING",
	CodeGameAlreadyStarted:    "GAME_ALREADY_STARTED",
	CodePlayerNotRegistered:   "PLAYER_NOT_REGISTERED",
	CodeRefereeNotRegistered:  "REFEREE_NOT_REGISTERED",
	CodeMatchNotFound:         "MATCH_NOT_FOUND",
	CodeChoiceTimeout:         "CHOICE_TIMEOUT",
	CodeJoinTimeout:           "JOIN_TIMEOUT",
	CodeLeagueAlreadyStarted:  "LEAGUE_ALREADY_STARTED",
	CodeLeagueNotStarted:      "LEAGUE_NOT_STARTED",
	CodeRoundNotFound:         "ROUND_NOT_FOUND",
}

// Description returns the symbolic name for code, UNKNOWN_ERROR when the
// code is not part of the protocol.
func (c Code) Description() string {
	if d, ok := codeDescriptions[c]; ok {
		return d
	}
	return "UNKNOWN_ERROR"
}

// Error is the payload of a LEAGUE_ERROR message. It implements the error
// interface so handlers can return it directly.
type Error struct {
	Code         Code           `json:"error_code"`
	Description  string         `json:"error_description"`
	OriginalType Kind           `json:"original_message_type,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	return string(e.Code) + " " + e.Description
}

// NewError builds a protocol error for code, noting the message type that
// triggered it and any context worth returning to the sender.
func NewError(code Code, original Kind, context map[string]any) *Error {
	return &Error{
		Code:         code,
		Description:  code.Description(),
		OriginalType: original,
		Context:      context,
	}
}

// ErrorMessage wraps err in a LEAGUE_ERROR message answering env.
func ErrorMessage(env Envelope, sender string, err *Error) Message {
	return Message{
		Envelope: env.Reply(KindLeagueError, sender),
		Payload:  err,
	}
}
