package models

import "time"

// Team groups players competing for a shared team prize within a section.
// Player.Team carries the label; this record anchors the section binding
// that a merge must keep consistent.
type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Section      string    `json:"section" db:"section"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
