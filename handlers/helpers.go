package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Dosada05/agent-league/protocol"
	"github.com/Dosada05/agent-league/services" // Импортируем для маппинга ошибок сервисов
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Паника, т.к. это ошибка программиста (передан не указатель)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", slog.String("path", r.URL.Path), slog.Any("error", err))
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrRoundNotFound),
		errors.Is(err, services.ErrPlayerNotRegistered),
		errors.Is(err, services.ErrRefereeNotRegistered):
		notFoundResponse(w, r)

	// Конфликты жизненного цикла
	case errors.Is(err, services.ErrLeagueAlreadyStarted),
		errors.Is(err, services.ErrLeagueNotStarted),
		errors.Is(err, services.ErrDuplicateRegistration):
		conflictResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrInvalidAgentMeta),
		errors.Is(err, services.ErrInsufficientPlayers),
		errors.Is(err, services.ErrNoRefereesAvailable),
		errors.Is(err, services.ErrUnknownQueryType):
		badRequestResponse(w, r, err)

	// Аутентификация и доступ
	case errors.Is(err, services.ErrAuthTokenMissing),
		errors.Is(err, services.ErrAuthTokenInvalid),
		errors.Is(err, services.ErrAuthTokenExpired):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrWrongLeague),
		errors.Is(err, services.ErrForbiddenReporter):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

// protocolError переводит ошибку сервисного слоя в код протокола для
// LEAGUE_ERROR. Возвращает nil для непредвиденных ошибок: их отдаём как
// транспортную ошибку JSON-RPC, а не как протокольную.
func protocolError(err error, original protocol.Kind) *protocol.Error {
	var perr *protocol.Error
	if errors.As(err, &perr) {
		return perr
	}

	var code protocol.Code
	switch {
	case errors.Is(err, services.ErrInvalidAgentMeta):
		code = protocol.CodeInvalidAgentMetadata
	case errors.Is(err, services.ErrDuplicateRegistration):
		code = protocol.CodeDuplicateRegistration
	case errors.Is(err, services.ErrInsufficientPlayers):
		code = protocol.CodeNotEnoughPlayers
	case errors.Is(err, services.ErrNoRefereesAvailable),
		errors.Is(err, services.ErrRefereeNotRegistered):
		code = protocol.CodeRefereeNotRegistered
	case errors.Is(err, services.ErrLeagueAlreadyStarted):
		code = protocol.CodeLeagueAlreadyStarted
	case errors.Is(err, services.ErrLeagueNotStarted):
		code = protocol.CodeLeagueNotStarted
	case errors.Is(err, services.ErrAuthTokenMissing):
		code = protocol.CodeAuthTokenMissing
	case errors.Is(err, services.ErrAuthTokenInvalid):
		code = protocol.CodeAuthTokenInvalid
	case errors.Is(err, services.ErrAuthTokenExpired):
		code = protocol.CodeAuthTokenExpired
	case errors.Is(err, services.ErrWrongLeague):
		code = protocol.CodeInvalidLeagueID
	case errors.Is(err, services.ErrForbiddenReporter):
		code = protocol.CodeInvalidRefereeID
	case errors.Is(err, services.ErrMatchNotFound):
		code = protocol.CodeMatchNotFound
	case errors.Is(err, services.ErrRoundNotFound):
		code = protocol.CodeRoundNotFound
	case errors.Is(err, services.ErrPlayerNotRegistered):
		code = protocol.CodePlayerNotRegistered
	case errors.Is(err, services.ErrUnknownQueryType):
		code = protocol.CodeInvalidFieldValue
	default:
		return nil
	}
	return protocol.NewError(code, original, map[string]any{"detail": err.Error()})
}

// badPayloadError помечает сообщение, чьё тело не разобралось в ожидаемую
// структуру.
func badPayloadError(kind protocol.Kind, err error) *protocol.Error {
	return protocol.NewError(protocol.CodeInvalidMessageFormat, kind, map[string]any{"error": err.Error()})
}

// unsupportedKindError отвечает на тип сообщения, который эта сторона не
// обрабатывает.
func unsupportedKindError(kind protocol.Kind) *protocol.Error {
	return protocol.NewError(protocol.CodeInvalidFieldValue, kind, map[string]any{"message_type": string(kind)})
}
