package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/services"
)

// RefereeMCPHandler receives the manager's announcements on the referee's
// behalf. Everything else the referee does is outbound.
type RefereeMCPHandler struct {
	referee services.RefereeService
}

func NewRefereeMCPHandler(referee services.RefereeService) *RefereeMCPHandler {
	return &RefereeMCPHandler{referee: referee}
}

func (h *RefereeMCPHandler) ServeMCP(w http.ResponseWriter, r *http.Request) {
	serveMCP(h.sender, h.dispatch)(w, r)
}

func (h *RefereeMCPHandler) sender() string {
	return "referee:" + h.referee.RefereeID()
}

func (h *RefereeMCPHandler) dispatch(_ context.Context, env protocol.Envelope, raw []byte) (protocol.Message, error) {
	switch env.MessageType {
	case protocol.KindRoundAnnouncement:
		var ann protocol.RoundAnnouncement
		if err := json.Unmarshal(raw, &ann); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		if err := h.referee.HandleRoundAnnouncement(env, ann); err != nil {
			return protocol.Message{}, err
		}
		return h.ack(env), nil

	// Информационные рассылки менеджера: подтверждаем и ничего не делаем.
	case protocol.KindLeagueStandingsUpdate,
		protocol.KindRoundCompleted,
		protocol.KindLeagueCompleted:
		return h.ack(env), nil
	}

	return protocol.Message{}, unsupportedKindError(env.MessageType)
}

func (h *RefereeMCPHandler) ack(env protocol.Envelope) protocol.Message {
	return protocol.Message{Envelope: env.Reply(protocol.KindAck, h.sender())}
}
