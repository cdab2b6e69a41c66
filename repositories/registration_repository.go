package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/openpair/chess-tournaments/models"
)

var ErrRegistrationNotFound = errors.New("registration not found")

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error)
	ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO registrations (tournament_id, player_id, section, status, fee_paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return exec.QueryRowContext(ctx, query,
		reg.TournamentID,
		reg.PlayerID,
		reg.Section,
		reg.Status,
		reg.FeePaid,
	).Scan(&reg.ID, &reg.CreatedAt)
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	query := `
		SELECT id, tournament_id, player_id, section, status, fee_paid, created_at
		FROM registrations
		WHERE tournament_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		if scanErr := rows.Scan(
			&reg.ID,
			&reg.TournamentID,
			&reg.PlayerID,
			&reg.Section,
			&reg.Status,
			&reg.FeePaid,
			&reg.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE registrations SET section = $1 WHERE tournament_id = $2 AND section = ANY($3)`,
		to, tournamentID, pq.Array(from))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign registrations to section %q: %w", to, err)
	}
	return res.RowsAffected()
}
