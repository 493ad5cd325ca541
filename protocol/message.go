// Package protocol implements the league.v2 message envelope, the typed
// payloads exchanged between league agents and the JSON-RPC framing they
// travel in.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const Version = "league.v2"

// Kind names a league.v2 message type.
type Kind string

const (
	KindRefereeRegisterRequest  Kind = "REFEREE_REGISTER_REQUEST"
	KindRefereeRegisterResponse Kind = "REFEREE_REGISTER_RESPONSE"
	KindLeagueRegisterRequest   Kind = "LEAGUE_REGISTER_REQUEST"
	KindLeagueRegisterResponse  Kind = "LEAGUE_REGISTER_RESPONSE"
	KindStartLeague             Kind = "START_LEAGUE"
	KindLeagueStatus            Kind = "LEAGUE_STATUS"
	KindRoundAnnouncement       Kind = "ROUND_ANNOUNCEMENT"
	KindGameInvitation          Kind = "GAME_INVITATION"
	KindGameJoinAck             Kind = "GAME_JOIN_ACK"
	KindChooseParityCall        Kind = "CHOOSE_PARITY_CALL"
	KindChooseParityResponse    Kind = "CHOOSE_PARITY_RESPONSE"
	KindGameOver                Kind = "GAME_OVER"
	KindMatchResultReport       Kind = "MATCH_RESULT_REPORT"
	KindMatchResultAck          Kind = "MATCH_RESULT_ACK"
	KindLeagueQuery             Kind = "LEAGUE_QUERY"
	KindLeagueQueryResponse     Kind = "LEAGUE_QUERY_RESPONSE"
	KindLeagueStandingsUpdate   Kind = "LEAGUE_STANDINGS_UPDATE"
	KindRoundCompleted          Kind = "ROUND_COMPLETED"
	KindLeagueCompleted         Kind = "LEAGUE_COMPLETED"
	KindLeagueError             Kind = "LEAGUE_ERROR"
	KindAck                     Kind = "ACK"
)

// Envelope is the header every league.v2 message carries. The kind-specific
// payload fields travel flat beside these on the wire.
type Envelope struct {
	Protocol       string `json:"protocol"`
	MessageType    Kind   `json:"message_type"`
	Sender         string `json:"sender"`
	Timestamp      string `json:"timestamp"`
	ConversationID string `json:"conversation_id"`

	AuthToken string `json:"auth_token,omitempty"`
	LeagueID  string `json:"league_id,omitempty"`
	MatchID   string `json:"match_id,omitempty"`
	RoundID   int    `json:"round_id,omitempty"`
}

// Message pairs an envelope with its typed payload. Payload may be nil for
// kinds that carry no extra fields (ACK, START_LEAGUE).
type Message struct {
	Envelope
	Payload any `json:"-"`
}

// NewEnvelope stamps a fresh envelope for kind from sender with the current
// UTC time and a generated conversation ID.
func NewEnvelope(kind Kind, sender string) Envelope {
	return Envelope{
		Protocol:       Version,
		MessageType:    kind,
		Sender:         sender,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ConversationID: NewConversationID(),
	}
}

// NewConversationID returns a short correlation ID of the form conv-xxxxxxxx.
func NewConversationID() string {
	return "conv-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Reply builds an envelope answering e: same conversation ID, fresh
// timestamp, the given kind and sender.
func (e Envelope) Reply(kind Kind, sender string) Envelope {
	out := NewEnvelope(kind, sender)
	out.ConversationID = e.ConversationID
	out.LeagueID = e.LeagueID
	out.MatchID = e.MatchID
	return out
}

// MarshalJSON flattens the payload fields into the envelope object, matching
// the wire layout where header and payload share one level.
func (m Message) MarshalJSON() ([]byte, error) {
	head, err := json.Marshal(m.Envelope)
	if err != nil {
		return nil, err
	}
	if m.Payload == nil {
		return head, nil
	}
	body, err := json.Marshal(m.Payload)
	if err != nil {
		return nil, err
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(head, &merged); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(body, &extra); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	for k, v := range extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// ParseEnvelope decodes and validates the envelope part of raw. Callers
// unmarshal the same bytes into the payload struct for the returned kind.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, NewError(CodeInvalidMessageFormat, "", map[string]any{"error": err.Error()})
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// Validate checks the envelope against the protocol's required-field and
// version rules.
func (e Envelope) Validate() error {
	if e.Protocol != Version {
		return NewError(CodeUnsupportedProtocol, e.MessageType, map[string]any{"protocol": e.Protocol})
	}
	missing := []string{}
	if e.MessageType == "" {
		missing = append(missing, "message_type")
	}
	if e.Sender == "" {
		missing = append(missing, "sender")
	}
	if e.Timestamp == "" {
		missing = append(missing, "timestamp")
	}
	if e.ConversationID == "" {
		missing = append(missing, "conversation_id")
	}
	if len(missing) > 0 {
		return NewError(CodeMissingRequiredField, e.MessageType, map[string]any{"missing": missing})
	}
	if !strings.HasSuffix(e.Timestamp, "Z") && !strings.Contains(e.Timestamp, "+00:00") {
		return NewError(CodeInvalidFieldValue, e.MessageType, map[string]any{"timestamp": e.Timestamp})
	}
	return nil
}

// SenderID strips the role prefix from a sender field, so both
// "player:P03" and "P03" yield "P03".
func SenderID(sender string) string {
	if i := strings.LastIndex(sender, ":"); i >= 0 {
		return sender[i+1:]
	}
	return sender
}
