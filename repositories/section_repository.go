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
	ErrSectionNotFound     = errors.New("section not found")
	ErrSectionNameConflict = errors.New("section name already exists in this tournament")
)

type SectionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, section *models.Section) error
	GetByName(ctx context.Context, tournamentID int, name string) (*models.Section, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Section, error)
	DeleteByNames(ctx context.Context, exec SQLExecutor, tournamentID int, names []string) (int64, error)
}

type postgresSectionRepository struct {
	db *sql.DB
}

func NewPostgresSectionRepository(db *sql.DB) SectionRepository {
	return &postgresSectionRepository{db: db}
}

func (r *postgresSectionRepository) Create(ctx context.Context, exec SQLExecutor, section *models.Section) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO sections (tournament_id, name, min_rating, max_rating, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		section.TournamentID,
		section.Name,
		section.MinRating,
		section.MaxRating,
		section.Description,
	).Scan(&section.ID, &section.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "sections_tournament_id_name_key" {
		return ErrSectionNameConflict
	}
	return err
}

func (r *postgresSectionRepository) GetByName(ctx context.Context, tournamentID int, name string) (*models.Section, error) {
	query := `
		SELECT id, tournament_id, name, min_rating, max_rating, description, created_at
		FROM sections
		WHERE tournament_id = $1 AND name = $2`

	section := &models.Section{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, name).Scan(
		&section.ID,
		&section.TournamentID,
		&section.Name,
		&section.MinRating,
		&section.MaxRating,
		&section.Description,
		&section.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSectionNotFound
		}
		return nil, fmt.Errorf("failed to scan section %q: %w", name, err)
	}
	return section, nil
}

func (r *postgresSectionRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Section, error) {
	query := `
		SELECT id, tournament_id, name, min_rating, max_rating, description, created_at
		FROM sections
		WHERE tournament_id = $1
		ORDER BY max_rating DESC NULLS FIRST, name`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	sections := make([]*models.Section, 0)
	for rows.Next() {
		section := &models.Section{}
		if scanErr := rows.Scan(
			&section.ID,
			&section.TournamentID,
			&section.Name,
			&section.MinRating,
			&section.MaxRating,
			&section.Description,
			&section.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan section row: %w", scanErr)
		}
		sections = append(sections, section)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during section rows iteration: %w", err)
	}
	return sections, nil
}

// DeleteByNames removes source sections from configuration after a merge.
// Historical pairings are re-tagged beforehand, never orphaned.
func (r *postgresSectionRepository) DeleteByNames(ctx context.Context, exec SQLExecutor, tournamentID int, names []string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`DELETE FROM sections WHERE tournament_id = $1 AND name = ANY($2)`,
		tournamentID, pq.Array(names))
	if err != nil {
		return 0, fmt.Errorf("failed to delete sections: %w", err)
	}
	return res.RowsAffected()
}
