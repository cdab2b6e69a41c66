package pairing

import (
	"context"
	"fmt"

	"github.com/openpair/chess-tournaments/models"
)

// GenerateParams carries everything a generator needs for one round of one
// section: the roster snapshot, the section's full pairing history, and the
// tournament's pairing configuration.
type GenerateParams struct {
	TournamentID int
	Section      string
	Round        int

	// Players holds the section roster; withdrawn players are skipped by the
	// generator itself so callers can pass the snapshot as-is.
	Players []*models.Player

	// History holds every pairing of this section from earlier rounds.
	History []*models.Pairing

	Config models.PairingConfig
}

// Generator produces a full round of pairings for a section. Implementations
// are pure: they never touch storage and never mutate their inputs.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Pairing, []Warning, error)

	Name() string
}

// New returns the generator for a pairing method. The manual method has no
// generator; manual pairings go through the pairing service's override path.
func New(method models.PairingMethod) (Generator, error) {
	switch method {
	case models.MethodSwiss:
		return NewSwissGenerator(), nil
	case models.MethodRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("no generator for pairing method %q", method)
	}
}

type WarnCode string

const (
	WarnRepeatPairing  WarnCode = "repeat_pairing"
	WarnColorImbalance WarnCode = "color_imbalance"
	WarnColorOverride  WarnCode = "color_override"
	WarnRatingGap      WarnCode = "rating_gap"
)

// Warning is a non-blocking fairness note attached to a generated or
// validated round. Warnings are always surfaced and never prevent saving.
type Warning struct {
	Code      WarnCode `json:"code"`
	Message   string   `json:"message"`
	Board     int      `json:"board,omitempty"`
	PlayerIDs []int    `json:"player_ids,omitempty"`
}

func warnf(code WarnCode, board int, players []int, format string, args ...interface{}) Warning {
	return Warning{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Board:     board,
		PlayerIDs: players,
	}
}
