package models

import "time"

// TournamentStatus mirrors the ENUM constraint in the tournaments table.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
)

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Status      TournamentStatus `json:"status" db:"status"`
	Rounds      int              `json:"rounds" db:"rounds"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	LogoKey     *string          `json:"-" db:"logo_key"`
	LogoURL     *string          `json:"logo_url,omitempty" db:"-"`

	// Raw pairing configuration JSON from the DB; parsed on demand.
	PairingConfigJSON *string `json:"-" db:"pairing_config"`

	// Optional linked entities, populated by services.
	Sections []Section `json:"sections,omitempty" db:"-"`
}

// PairingConfig parses the stored configuration, falling back to defaults
// when the column is empty or unparseable fields are missing.
func (t *Tournament) PairingConfig() (PairingConfig, error) {
	if t.PairingConfigJSON == nil || *t.PairingConfigJSON == "" {
		return DefaultPairingConfig(), nil
	}
	return ParsePairingConfig(*t.PairingConfigJSON)
}
