// Package auth issues and verifies the bearer tokens agents receive at
// registration and present on protected league calls.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrTokenInvalid = errors.New("auth token invalid")
	ErrTokenExpired = errors.New("auth token expired")
)

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	AgentID  string
	LeagueID string
	Role     string
}

// TokenService signs and verifies agent tokens with one shared HS256
// secret, held by the league manager.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue returns a signed token carrying the agent's identity.
func (s *TokenService) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"agent_id":  id.AgentID,
		"league_id": id.LeagueID,
		"role":      id.Role,
		"exp":       now.Add(s.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the identity it asserts. Expiry is
// reported as ErrTokenExpired, every other failure as ErrTokenInvalid.
func (s *TokenService) Verify(raw string) (Identity, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrTokenInvalid
	}

	id := Identity{
		AgentID:  stringClaim(claims, "agent_id"),
		LeagueID: stringClaim(claims, "league_id"),
		Role:     stringClaim(claims, "role"),
	}
	if id.AgentID == "" || id.Role == "" {
		return Identity{}, ErrTokenInvalid
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
