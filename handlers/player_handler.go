package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/services"
)

// PlayerMCPHandler answers the referee's match traffic and the manager's
// broadcasts on the player's behalf.
type PlayerMCPHandler struct {
	player services.PlayerService
}

func NewPlayerMCPHandler(player services.PlayerService) *PlayerMCPHandler {
	return &PlayerMCPHandler{player: player}
}

func (h *PlayerMCPHandler) ServeMCP(w http.ResponseWriter, r *http.Request) {
	serveMCP(h.sender, h.dispatch)(w, r)
}

func (h *PlayerMCPHandler) sender() string {
	return "player:" + h.player.PlayerID()
}

func (h *PlayerMCPHandler) dispatch(ctx context.Context, env protocol.Envelope, raw []byte) (protocol.Message, error) {
	switch env.MessageType {
	case protocol.KindGameInvitation:
		var inv protocol.GameInvitation
		if err := json.Unmarshal(raw, &inv); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		ack, err := h.player.HandleInvitation(env, inv)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindGameJoinAck, ack), nil

	case protocol.KindChooseParityCall:
		var call protocol.ChooseParityCall
		if err := json.Unmarshal(raw, &call); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		resp, err := h.player.HandleChoiceCall(ctx, env, call)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindChooseParityResponse, resp), nil

	case protocol.KindGameOver:
		var over protocol.GameOver
		if err := json.Unmarshal(raw, &over); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		if err := h.player.HandleGameOver(ctx, env, over); err != nil {
			return protocol.Message{}, err
		}
		return h.ack(env), nil

	case protocol.KindLeagueStandingsUpdate:
		var update protocol.LeagueStandingsUpdate
		if err := json.Unmarshal(raw, &update); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		if err := h.player.HandleStandingsUpdate(env, update); err != nil {
			return protocol.Message{}, err
		}
		return h.ack(env), nil

	case protocol.KindLeagueCompleted:
		var final protocol.LeagueCompleted
		if err := json.Unmarshal(raw, &final); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		if err := h.player.HandleLeagueCompleted(env, final); err != nil {
			return protocol.Message{}, err
		}
		return h.ack(env), nil

	// Информационные рассылки менеджера: подтверждаем и ничего не делаем.
	case protocol.KindRoundAnnouncement,
		protocol.KindRoundCompleted:
		return h.ack(env), nil
	}

	return protocol.Message{}, unsupportedKindError(env.MessageType)
}

func (h *PlayerMCPHandler) reply(env protocol.Envelope, kind protocol.Kind, payload any) protocol.Message {
	return protocol.Message{Envelope: env.Reply(kind, h.sender()), Payload: payload}
}

func (h *PlayerMCPHandler) ack(env protocol.Envelope) protocol.Message {
	return protocol.Message{Envelope: env.Reply(protocol.KindAck, h.sender())}
}
