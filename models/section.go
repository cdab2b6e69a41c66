package models

import "time"

// Section is an independently paired subdivision of a tournament, typically
// a rating band. Section names are unique within a tournament.
type Section struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	MinRating    *int      `json:"min_rating,omitempty" db:"min_rating"`
	MaxRating    *int      `json:"max_rating,omitempty" db:"max_rating"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// NewSectionSpec describes a merge destination that does not exist yet.
type NewSectionSpec struct {
	Name        string  `json:"name"`
	MinRating   *int    `json:"min_rating,omitempty"`
	MaxRating   *int    `json:"max_rating,omitempty"`
	Description *string `json:"description,omitempty"`
}

// MergeReport lists per-family row counts applied by a section merge.
type MergeReport struct {
	Destination         string `json:"destination"`
	SourcesRemoved      int    `json:"sources_removed"`
	PlayersUpdated      int    `json:"players_updated"`
	PairingsUpdated     int    `json:"pairings_updated"`
	RegistrationsMoved  int    `json:"registrations_moved"`
	TeamsUpdated        int    `json:"teams_updated"`
	PrizeRecordsUpdated int    `json:"prize_records_updated"`
}
