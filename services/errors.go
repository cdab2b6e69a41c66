package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openpair/chess-tournaments/pairing"
)

// Shared errors used across services and the HTTP mapping layer.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed         = errors.New("validation failed")
	ErrTournamentNameRequired   = errors.New("tournament name is required")
	ErrTournamentInvalidRounds  = errors.New("tournament round count must be positive")
	ErrTournamentInvalidStatus  = errors.New("invalid tournament status transition")
	ErrPlayerNameRequired       = errors.New("player name is required")
	ErrPlayerWithdrawn          = errors.New("player has withdrawn from the tournament")
	ErrRoundOutOfRange          = errors.New("round is outside the tournament's configured rounds")
	ErrRoundNotGenerated        = errors.New("round has no pairings yet")
	ErrRoundAlreadyPaired       = errors.New("round already has pairings; regenerate with clear_existing")
	ErrManualReasonRequired     = errors.New("manual pairing requires a reason")
	ErrInvalidResult            = errors.New("unrecognized result code")
	ErrResultOnBye              = errors.New("a bye pairing does not take a result")
	ErrUnsupportedPairingMethod = errors.New("pairing method has no generator")
	ErrTeamNameRequired         = errors.New("team name is required")
	ErrTeamNameConflict         = errors.New("team name already exists in this tournament")
	ErrPrizePlaceInvalid        = errors.New("prize place must be positive")
	ErrPrizeDescriptionRequired = errors.New("prize description is required")

	// Section merge
	ErrMergeTooFewSources       = errors.New("merge requires at least two source sections")
	ErrMergeSourceMissing       = errors.New("merge source section not found")
	ErrMergeDestinationMissing  = errors.New("merge destination section not found")
	ErrMergeNameConflict        = errors.New("merge destination name already exists")
	ErrMergeDestinationIsSource = errors.New("merge destination must differ from every source")
	ErrMergeDuplicateSource     = errors.New("merge source sections must be distinct")

	// Concurrency: the named sections are held by another operation.
	// Transient; safe to retry.
	ErrSectionLocked = errors.New("section is locked by a concurrent operation")

	// Entity-specific (wrap repository not-found errors with more context)
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPairingNotFound    = errors.New("pairing not found")
	ErrPrizeNotFound      = errors.New("prize not found")
)

// PrerequisiteNotMetError reports that the previous round is not fully
// resolved, carrying the unresolved game count so callers can present a
// precise message.
type PrerequisiteNotMetError struct {
	Round      int // the incomplete round
	Unresolved int
}

func (e *PrerequisiteNotMetError) Error() string {
	return fmt.Sprintf("round %d has %d unresolved games; complete it before generating the next round",
		e.Round, e.Unresolved)
}

// IncompleteRoundError reports a completion attempt with games still open.
type IncompleteRoundError struct {
	Round     int
	Remaining int
}

func (e *IncompleteRoundError) Error() string {
	return fmt.Sprintf("round %d still has %d unresolved games", e.Round, e.Remaining)
}

// ValidationError carries the structural defects that blocked a pairing
// write. It unwraps to ErrValidationFailed for errors.Is checks.
type ValidationError struct {
	Errors []pairing.StructuralError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.Message
	}
	return "structural pairing errors: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
