package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/services"
)

// ManagerMCPHandler is the league manager's JSON-RPC face: registrations,
// league start, result reports and queries all arrive here.
type ManagerMCPHandler struct {
	league services.LeagueService
	sender string
}

func NewManagerMCPHandler(league services.LeagueService, leagueID string) *ManagerMCPHandler {
	return &ManagerMCPHandler{
		league: league,
		sender: "league_manager:" + leagueID,
	}
}

func (h *ManagerMCPHandler) ServeMCP(w http.ResponseWriter, r *http.Request) {
	serveMCP(func() string { return h.sender }, h.dispatch)(w, r)
}

func (h *ManagerMCPHandler) dispatch(ctx context.Context, env protocol.Envelope, raw []byte) (protocol.Message, error) {
	switch env.MessageType {
	case protocol.KindRefereeRegisterRequest:
		var req protocol.RefereeRegisterRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		agent, token, err := h.league.RegisterReferee(ctx, req.RefereeMeta)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindRefereeRegisterResponse, protocol.RegisterResponse{
			Status:    protocol.StatusAccepted,
			RefereeID: agent.ID,
			AuthToken: token,
		}), nil

	case protocol.KindLeagueRegisterRequest:
		var req protocol.PlayerRegisterRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		agent, token, err := h.league.RegisterPlayer(ctx, req.PlayerMeta)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindLeagueRegisterResponse, protocol.RegisterResponse{
			Status:    protocol.StatusAccepted,
			PlayerID:  agent.ID,
			AuthToken: token,
		}), nil

	case protocol.KindStartLeague:
		status, err := h.league.StartLeague(ctx)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindLeagueStatus, status), nil

	case protocol.KindMatchResultReport:
		var report protocol.MatchResultReport
		if err := json.Unmarshal(raw, &report); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		if err := h.league.HandleResult(ctx, env, report); err != nil {
			return protocol.Message{}, err
		}
		msg := h.reply(env, protocol.KindMatchResultAck, protocol.MatchResultAck{Status: protocol.StatusRecorded})
		msg.MatchID = report.Result.MatchID
		return msg, nil

	case protocol.KindLeagueQuery:
		var query protocol.LeagueQuery
		if err := json.Unmarshal(raw, &query); err != nil {
			return protocol.Message{}, badPayloadError(env.MessageType, err)
		}
		resp, err := h.league.Query(ctx, env, query)
		if err != nil {
			return protocol.Message{}, err
		}
		return h.reply(env, protocol.KindLeagueQueryResponse, resp), nil
	}

	return protocol.Message{}, unsupportedKindError(env.MessageType)
}

// reply answers env in the same conversation. LeagueID is stamped even
// when the request omitted it, which registration requests legitimately
// do.
func (h *ManagerMCPHandler) reply(env protocol.Envelope, kind protocol.Kind, payload any) protocol.Message {
	msg := protocol.Message{Envelope: env.Reply(kind, h.sender), Payload: payload}
	msg.LeagueID = h.league.League().ID
	return msg
}
