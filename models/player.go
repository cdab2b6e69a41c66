package models

import "time"

type PlayerStatus string

const (
	PlayerActive    PlayerStatus = "active"
	PlayerWithdrawn PlayerStatus = "withdrawn"
)

// Player is a tournament roster entry. Players are never deleted, only
// marked withdrawn, so historical pairings always resolve.
type Player struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Name         string       `json:"name" db:"name"`
	USCFID       *string      `json:"uscf_id,omitempty" db:"uscf_id"`
	Rating       *int         `json:"rating,omitempty" db:"rating"` // nil = unrated
	Section      string       `json:"section" db:"section"`
	Status       PlayerStatus `json:"status" db:"status"`
	Team         *string      `json:"team,omitempty" db:"team"`

	// Rounds for which the player has requested a bye, ascending.
	ByeRounds []int `json:"bye_rounds" db:"bye_rounds"`

	// Membership expiration as reported by US Chess, refreshed on demand.
	ExpirationDate *time.Time `json:"expiration_date,omitempty" db:"expiration_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasByeDeclared reports whether the player requested a bye for round.
func (p *Player) HasByeDeclared(round int) bool {
	for _, r := range p.ByeRounds {
		if r == round {
			return true
		}
	}
	return false
}

// RatingOrZero treats unrated players as 0 for ordering purposes.
func (p *Player) RatingOrZero() int {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
