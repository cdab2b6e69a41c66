package models

import "time"

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationRefunded  RegistrationStatus = "refunded"
)

// Registration records a player's entry into a tournament section,
// including fee state. It is one of the record families re-tagged by a
// section merge.
type Registration struct {
	ID           int                `json:"id" db:"id"`
	TournamentID int                `json:"tournament_id" db:"tournament_id"`
	PlayerID     int                `json:"player_id" db:"player_id"`
	Section      string             `json:"section" db:"section"`
	Status       RegistrationStatus `json:"status" db:"status"`
	FeePaid      *float64           `json:"fee_paid,omitempty" db:"fee_paid"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
}
