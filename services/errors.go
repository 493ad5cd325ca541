package services

import "errors"

// Общие ошибки, используемые сервисами и маппингом протокольных кодов.
var (
	// Жизненный цикл лиги
	ErrLeagueAlreadyStarted = errors.New("league has already started")
	ErrLeagueNotStarted     = errors.New("league has not started yet")
	ErrInsufficientPlayers  = errors.New("at least two players are required to start the league")
	ErrNoRefereesAvailable  = errors.New("no referees registered to officiate")

	// Регистрация агентов
	ErrInvalidAgentMeta      = errors.New("agent metadata is missing required fields")
	ErrDuplicateRegistration = errors.New("display name is already taken in this league")
	ErrPlayerNotRegistered   = errors.New("player is not registered in this league")
	ErrRefereeNotRegistered  = errors.New("referee is not registered in this league")

	// Аутентификация и авторизация
	ErrAuthTokenMissing  = errors.New("auth token is missing")
	ErrAuthTokenInvalid  = errors.New("auth token is invalid")
	ErrAuthTokenExpired  = errors.New("auth token has expired")
	ErrWrongLeague       = errors.New("message addressed to a different league")
	ErrForbiddenReporter = errors.New("result reported by a referee not assigned to the match")

	// Матчи и запросы
	ErrMatchNotFound    = errors.New("match not found in the fixture")
	ErrRoundNotFound    = errors.New("round not found in the fixture")
	ErrUnknownQueryType = errors.New("unknown query type")
)
