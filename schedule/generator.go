// Package schedule generates league fixtures.
package schedule

import (
	"context"
	"errors"

	"github.com/Dosada05/agent-league/models"
)

// ErrInvalidRoster indicates a roster too small to schedule. Callers treat
// it as fatal for the league start.
var ErrInvalidRoster = errors.New("schedule: roster needs at least two players")

type GenerateParams struct {
	LeagueID string
	GameType string

	// Players in registration order. The order is part of the input:
	// the same order always yields the same fixture.
	Players []string

	// Referees in registration order, assigned to matches round-robin
	// within each round. May be empty; assignment is then deferred.
	Referees []string
}

type Generator interface {
	Generate(ctx context.Context, params GenerateParams) (*models.Fixture, error)

	Name() string
}
