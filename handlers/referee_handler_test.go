package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/agent-league/models"
	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/services"
)

// refereeRegistrar accepts the referee's registration and refuses any
// other outbound traffic.
type refereeRegistrar struct{}

func (refereeRegistrar) Send(_ context.Context, _ string, msg protocol.Message) (json.RawMessage, error) {
	if msg.MessageType != protocol.KindRefereeRegisterRequest {
		return nil, assert.AnError
	}
	env := msg.Envelope.Reply(protocol.KindRefereeRegisterResponse, "league_manager:LEAGUE001")
	env.LeagueID = "LEAGUE001"
	return json.Marshal(protocol.Message{Envelope: env, Payload: protocol.RegisterResponse{
		Status:    protocol.StatusAccepted,
		RefereeID: "REF01",
		AuthToken: "tok-ref01",
	}})
}

func newRefereeServer(t *testing.T, referee services.RefereeService) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", NewRefereeMCPHandler(referee).ServeMCP)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRefereeService(t *testing.T) services.RefereeService {
	t.Helper()
	return services.NewRefereeService(services.RefereeConfig{
		ManagerEndpoint: "http://manager.local/mcp",
		SelfEndpoint:    "http://referees.local/arbiter/mcp",
		DisplayName:     "Arbiter",
		Version:         "1.0",
	}, refereeRegistrar{}, quietLogger())
}

func managerEnvelope(kind protocol.Kind, round int) protocol.Envelope {
	env := protocol.NewEnvelope(kind, "league_manager:LEAGUE001")
	env.LeagueID = "LEAGUE001"
	env.RoundID = round
	return env
}

func TestRefereeMCPAcknowledgesRoundAnnouncement(t *testing.T) {
	referee := newRefereeService(t)
	require.NoError(t, referee.Start(context.Background()))
	srv := newRefereeServer(t, referee)

	// Единственный матч раунда назначен другому судье.
	msg := protocol.Message{
		Envelope: managerEnvelope(protocol.KindRoundAnnouncement, 1),
		Payload: protocol.RoundAnnouncement{Matches: []models.Match{{
			ID:        "R1M1",
			Round:     1,
			GameType:  models.GameTypeEvenOdd,
			PlayerAID: "P01",
			PlayerBID: "P02",
			RefereeID: "REF02",
		}}},
	}
	resp, result := postMessage(t, srv.URL, msg)
	require.Nil(t, resp.Error)
	assert.Equal(t, string(protocol.KindAck), result["message_type"])
	assert.Equal(t, "referee:REF01", result["sender"])
	referee.Wait()
}

func TestRefereeMCPRejectsAnnouncementBeforeRegistration(t *testing.T) {
	referee := newRefereeService(t)
	srv := newRefereeServer(t, referee)

	msg := protocol.Message{
		Envelope: managerEnvelope(protocol.KindRoundAnnouncement, 1),
		Payload:  protocol.RoundAnnouncement{},
	}
	_, result := postMessage(t, srv.URL, msg)
	assert.Equal(t, string(protocol.KindLeagueError), result["message_type"])
	assert.Equal(t, string(protocol.CodeRefereeNotRegistered), result["error_code"])
}

func TestRefereeMCPAcknowledgesBroadcasts(t *testing.T) {
	referee := newRefereeService(t)
	require.NoError(t, referee.Start(context.Background()))
	srv := newRefereeServer(t, referee)

	for _, kind := range []protocol.Kind{
		protocol.KindLeagueStandingsUpdate,
		protocol.KindRoundCompleted,
		protocol.KindLeagueCompleted,
	} {
		msg := protocol.Message{Envelope: managerEnvelope(kind, 1)}
		_, result := postMessage(t, srv.URL, msg)
		assert.Equal(t, string(protocol.KindAck), result["message_type"], "kind %s", kind)
	}
}

func TestRefereeMCPRejectsUnsupportedKind(t *testing.T) {
	referee := newRefereeService(t)
	require.NoError(t, referee.Start(context.Background()))
	srv := newRefereeServer(t, referee)

	msg := protocol.Message{Envelope: managerEnvelope(protocol.KindChooseParityCall, 1)}
	_, result := postMessage(t, srv.URL, msg)
	assert.Equal(t, string(protocol.KindLeagueError), result["message_type"])
	assert.Equal(t, string(protocol.CodeInvalidFieldValue), result["error_code"])
}
