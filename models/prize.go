package models

import "time"

// Prize is a prize definition for a section (e.g. "1st U1800"), optionally
// already awarded to a player. Prize records follow their section through
// merges.
type Prize struct {
	ID              int       `json:"id" db:"id"`
	TournamentID    int       `json:"tournament_id" db:"tournament_id"`
	Section         string    `json:"section" db:"section"`
	Place           int       `json:"place" db:"place"`
	Description     string    `json:"description" db:"description"`
	Amount          *float64  `json:"amount,omitempty" db:"amount"`
	AwardedPlayerID *int      `json:"awarded_player_id,omitempty" db:"awarded_player_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
