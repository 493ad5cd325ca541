package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/agent-league/auth"
	"github.com/Dosada05/agent-league/handlers"
	"github.com/Dosada05/agent-league/metrics"
	"github.com/Dosada05/agent-league/middleware"
	"github.com/Dosada05/agent-league/models"
)

const version = "2.0"

// ManagerDeps собирает всё, что нужно роутеру менеджера лиги.
type ManagerDeps struct {
	MCP       *handlers.ManagerMCPHandler
	League    *handlers.LeagueHandler
	WebSocket *handlers.WebSocketHandler
	Tokens    *auth.TokenService

	// AllowedOrigins ограничивает CORS для дашбордов; пусто означает "*".
	AllowedOrigins []string
}

// SetupManagerRoutes mounts the three faces of the manager on one router:
// the JSON-RPC endpoint for agents, the REST API for operators and the
// websocket feed for dashboards.
func SetupManagerRoutes(deps ManagerDeps) *chi.Mux {
	router := baseRouter()
	router.Use(cors.Handler(corsOptions(deps.AllowedOrigins)))

	router.Post("/mcp", deps.MCP.ServeMCP)

	router.Route("/leagues/{leagueID}", func(r chi.Router) {
		// Публичные маршруты для просмотра лиги
		r.Get("/", deps.League.GetLeague)
		r.Get("/status", deps.League.GetStatus)
		r.Get("/standings", deps.League.GetStandings)

		// Защищённые маршруты: расписание и протоколы матчей видят
		// только зарегистрированные агенты лиги
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Tokens))
			r.Use(middleware.Authorize(string(models.RolePlayer), string(models.RoleReferee)))

			r.Get("/fixture", deps.League.GetFixture)
			r.Get("/matches", deps.League.ListMatches)
		})

		r.Post("/start", deps.League.StartLeague)
	})

	router.Get("/ws/leagues/{leagueID}", deps.WebSocket.ServeWs)

	router.Get("/healthz", handlers.Healthcheck(string(models.RoleManager), version))
	router.Handle("/metrics", metrics.Handler())
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	return router
}

// AgentDeps собирает зависимости роутера судьи или игрока: у обоих всего
// один JSON-RPC endpoint плюс служебные маршруты.
type AgentDeps struct {
	Role models.AgentRole
	MCP  http.HandlerFunc
}

// SetupAgentRoutes mounts the single-endpoint surface shared by referees
// and players.
func SetupAgentRoutes(deps AgentDeps) *chi.Mux {
	router := baseRouter()

	router.Post("/mcp", deps.MCP)

	router.Get("/healthz", handlers.Healthcheck(string(deps.Role), version))
	router.Handle("/metrics", metrics.Handler())

	return router
}

func baseRouter() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	return router
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}
}
