package middleware

import (
	"context"
	"errors"

	"github.com/Dosada05/agent-league/auth"
)

// IdentityFromContext достаёт проверенную личность агента из контекста
// запроса. Works only below Authenticate.
func IdentityFromContext(ctx context.Context) (auth.Identity, error) {
	id, ok := ctx.Value(identityContextKey).(auth.Identity)
	if !ok {
		return auth.Identity{}, errors.New("agent identity not found in context")
	}
	return id, nil
}
