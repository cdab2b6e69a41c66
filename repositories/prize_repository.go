package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/openpair/chess-tournaments/models"
)

var ErrPrizeNotFound = errors.New("prize not found")

type PrizeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error
	ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Prize, error)
	Award(ctx context.Context, id int, playerID int) error
	ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error)
}

type postgresPrizeRepository struct {
	db *sql.DB
}

func NewPostgresPrizeRepository(db *sql.DB) PrizeRepository {
	return &postgresPrizeRepository{db: db}
}

func (r *postgresPrizeRepository) Create(ctx context.Context, exec SQLExecutor, prize *models.Prize) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO prizes (tournament_id, section, place, description, amount, awarded_player_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return exec.QueryRowContext(ctx, query,
		prize.TournamentID,
		prize.Section,
		prize.Place,
		prize.Description,
		prize.Amount,
		prize.AwardedPlayerID,
	).Scan(&prize.ID, &prize.CreatedAt)
}

func (r *postgresPrizeRepository) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Prize, error) {
	query := `
		SELECT id, tournament_id, section, place, description, amount, awarded_player_id, created_at
		FROM prizes
		WHERE tournament_id = $1 AND section = $2
		ORDER BY place`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, section)
	if err != nil {
		return nil, fmt.Errorf("failed to query prizes for section %q: %w", section, err)
	}
	defer rows.Close()

	prizes := make([]*models.Prize, 0)
	for rows.Next() {
		prize := &models.Prize{}
		if scanErr := rows.Scan(
			&prize.ID,
			&prize.TournamentID,
			&prize.Section,
			&prize.Place,
			&prize.Description,
			&prize.Amount,
			&prize.AwardedPlayerID,
			&prize.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan prize row: %w", scanErr)
		}
		prizes = append(prizes, prize)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during prize rows iteration: %w", err)
	}
	return prizes, nil
}

func (r *postgresPrizeRepository) Award(ctx context.Context, id int, playerID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE prizes SET awarded_player_id = $1 WHERE id = $2`, playerID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(res, ErrPrizeNotFound)
}

func (r *postgresPrizeRepository) ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE prizes SET section = $1 WHERE tournament_id = $2 AND section = ANY($3)`,
		to, tournamentID, pq.Array(from))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign prizes to section %q: %w", to, err)
	}
	return res.RowsAffected()
}
