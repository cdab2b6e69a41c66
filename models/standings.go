package models

// RoundState classifies a (tournament, section, round). It is always derived
// from pairing rows, never stored, so it cannot drift from reality.
type RoundState string

const (
	RoundEmpty      RoundState = "empty"
	RoundGenerated  RoundState = "generated"
	RoundInProgress RoundState = "in_progress"
	RoundComplete   RoundState = "complete"
)

// RoundStatus summarizes completion of one round in one section.
type RoundStatus struct {
	TournamentID int        `json:"tournament_id"`
	Section      string     `json:"section"`
	Round        int        `json:"round"`
	State        RoundState `json:"state"`
	Total        int        `json:"total"`
	Completed    int        `json:"completed"`
	Percent      float64    `json:"percent"`
	Ready        bool       `json:"ready"` // safe to generate the next round
}

// TiebreakScore is one named tiebreak value for a standings row.
type TiebreakScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// StandingEntry is one row of a section's ranked standings. Entries are
// recomputed in full from the pairing history on every request.
type StandingEntry struct {
	PlayerID    int             `json:"player_id"`
	Points      float64         `json:"points"`
	GamesPlayed int             `json:"games_played"`
	Wins        int             `json:"wins"`
	Draws       int             `json:"draws"`
	Losses      int             `json:"losses"`
	Byes        int             `json:"byes"`
	Tiebreaks   []TiebreakScore `json:"tiebreaks"`
	Rank        int             `json:"rank"`

	Player *Player `json:"player,omitempty"`
}
