package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/agent-league/services"
)

// LeagueHandler is the manager's REST face for operators and dashboards:
// read-only league state plus the start trigger.
type LeagueHandler struct {
	league services.LeagueService
}

func NewLeagueHandler(league services.LeagueService) *LeagueHandler {
	return &LeagueHandler{league: league}
}

// routedLeague проверяет, что {leagueID} из URL совпадает с лигой этого
// менеджера: инстанс обслуживает ровно одну лигу.
func (h *LeagueHandler) routedLeague(w http.ResponseWriter, r *http.Request) bool {
	id := chi.URLParam(r, "leagueID")
	if id != "" && id != h.league.League().ID {
		notFoundResponse(w, r)
		return false
	}
	return true
}

// GetLeague обрабатывает GET /leagues/{leagueID}
//
//	@Summary	League descriptor
//	@Tags		leagues
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string]models.League
//	@Failure	404			{object}	map[string]string
//	@Router		/leagues/{leagueID} [get]
func (h *LeagueHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": h.league.League()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStatus обрабатывает GET /leagues/{leagueID}/status
//
//	@Summary	League progress
//	@Tags		leagues
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string]protocol.LeagueStatus
//	@Router		/leagues/{leagueID}/status [get]
func (h *LeagueHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": h.league.Status()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStandings обрабатывает GET /leagues/{leagueID}/standings
//
//	@Summary	League standings
//	@Tags		leagues
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string]models.StandingsTable
//	@Failure	409			{object}	map[string]string
//	@Router		/leagues/{leagueID}/standings [get]
func (h *LeagueHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	table, err := h.league.Standings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetFixture обрабатывает GET /leagues/{leagueID}/fixture
//
//	@Summary	Round-robin fixture
//	@Tags		leagues
//	@Security	BearerAuth
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string]models.Fixture
//	@Failure	401			{string}	string	"Unauthorized"
//	@Failure	409			{object}	map[string]string
//	@Router		/leagues/{leagueID}/fixture [get]
func (h *LeagueHandler) GetFixture(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	fixture := h.league.Fixture()
	if fixture == nil {
		mapServiceErrorToHTTP(w, r, services.ErrLeagueNotStarted)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"fixture": fixture}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches обрабатывает GET /leagues/{leagueID}/matches
//
//	@Summary	Completed match records
//	@Tags		leagues
//	@Security	BearerAuth
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string][]models.MatchRecord
//	@Failure	401			{string}	string	"Unauthorized"
//	@Router		/leagues/{leagueID}/matches [get]
func (h *LeagueHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	records, err := h.league.MatchRecords(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartLeague обрабатывает POST /leagues/{leagueID}/start
//
//	@Summary	Start the league
//	@Tags		leagues
//	@Produce	json
//	@Param		leagueID	path		string	true	"League ID"
//	@Success	200			{object}	map[string]protocol.LeagueStatus
//	@Failure	400			{object}	map[string]string
//	@Failure	409			{object}	map[string]string
//	@Router		/leagues/{leagueID}/start [post]
func (h *LeagueHandler) StartLeague(w http.ResponseWriter, r *http.Request) {
	if !h.routedLeague(w, r) {
		return
	}
	status, err := h.league.StartLeague(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
