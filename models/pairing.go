package models

import "time"

// Result is the recorded outcome of a pairing. The empty string means the
// game has not been decided yet. Forfeit variants score identically to their
// base result for the winner; the loser scores zero either way.
type Result string

const (
	ResultUnset           Result = ""
	ResultWhiteWins       Result = "1-0"
	ResultBlackWins       Result = "0-1"
	ResultDraw            Result = "1/2-1/2"
	ResultWhiteForfeitWin Result = "1-0F"
	ResultBlackForfeitWin Result = "0-1F"
	ResultDoubleForfeit   Result = "0-0F"
)

// Valid reports whether r is one of the recognized result codes.
func (r Result) Valid() bool {
	switch r {
	case ResultUnset, ResultWhiteWins, ResultBlackWins, ResultDraw,
		ResultWhiteForfeitWin, ResultBlackForfeitWin, ResultDoubleForfeit:
		return true
	}
	return false
}

// IsSet reports whether a result has been entered.
func (r Result) IsSet() bool { return r != ResultUnset }

// IsForfeit reports whether the result was decided without a game being
// played. Forfeits are excluded from color history.
func (r Result) IsForfeit() bool {
	switch r {
	case ResultWhiteForfeitWin, ResultBlackForfeitWin, ResultDoubleForfeit:
		return true
	}
	return false
}

// Points returns the points awarded to white and black respectively.
func (r Result) Points() (white, black float64) {
	switch r {
	case ResultWhiteWins, ResultWhiteForfeitWin:
		return 1, 0
	case ResultBlackWins, ResultBlackForfeitWin:
		return 0, 1
	case ResultDraw:
		return 0.5, 0.5
	}
	return 0, 0
}

// Pairing is a single board within a (tournament, round, section). A bye
// pairing has WhiteID set, BlackID nil, and IsBye true; it needs no result
// entry and awards ByePoints to the recipient.
type Pairing struct {
	ID           int      `json:"id" db:"id"`
	TournamentID int      `json:"tournament_id" db:"tournament_id"`
	Round        int      `json:"round" db:"round"`
	Section      string   `json:"section" db:"section"`
	Board        int      `json:"board" db:"board"`
	WhiteID      *int     `json:"white_id,omitempty" db:"white_id"`
	BlackID      *int     `json:"black_id,omitempty" db:"black_id"`
	Result       Result   `json:"result" db:"result"`
	IsBye        bool     `json:"is_bye" db:"is_bye"`
	ByePoints    *float64 `json:"bye_points,omitempty" db:"bye_points"`

	// Set when a director assigned the players by hand; kept for audit.
	ManualReason *string `json:"manual_reason,omitempty" db:"manual_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Optional linked entities, populated by services.
	White *Player `json:"white,omitempty" db:"-"`
	Black *Player `json:"black,omitempty" db:"-"`
}

// Resolved reports whether the pairing no longer blocks round completion.
func (p *Pairing) Resolved() bool {
	return p.IsBye || p.Result.IsSet()
}

// Involves reports whether playerID sits on either side of the board.
func (p *Pairing) Involves(playerID int) bool {
	if p.WhiteID != nil && *p.WhiteID == playerID {
		return true
	}
	return p.BlackID != nil && *p.BlackID == playerID
}
