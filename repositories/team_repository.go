package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/openpair/chess-tournaments/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already exists in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error)
	ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO teams (tournament_id, name, section)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query, team.TournamentID, team.Name, team.Section).
		Scan(&team.ID, &team.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "teams_tournament_id_name_key" {
		return ErrTeamNameConflict
	}
	return err
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	query := `
		SELECT id, tournament_id, name, section, created_at
		FROM teams
		WHERE tournament_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if scanErr := rows.Scan(&team.ID, &team.TournamentID, &team.Name, &team.Section, &team.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE teams SET section = $1 WHERE tournament_id = $2 AND section = ANY($3)`,
		to, tournamentID, pq.Array(from))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign teams to section %q: %w", to, err)
	}
	return res.RowsAffected()
}
