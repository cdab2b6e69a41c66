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
	ErrPairingNotFound      = errors.New("pairing not found")
	ErrPairingBoardConflict = errors.New("board number already taken in this round")
	ErrPairingPlayerInvalid = errors.New("pairing player conflict or invalid")
)

type PairingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, pairing *models.Pairing) error
	GetByID(ctx context.Context, id int) (*models.Pairing, error)
	ListByRound(ctx context.Context, tournamentID int, section string, round int) ([]*models.Pairing, error)
	ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Pairing, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.Result) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, whiteID, blackID *int, reason string, isBye bool, byePoints *float64) error
	DeleteByRound(ctx context.Context, exec SQLExecutor, tournamentID int, section string, round int) (int64, error)
	DeleteBySection(ctx context.Context, exec SQLExecutor, tournamentID int, section string) (int64, error)
	ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error)
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

const pairingColumns = `id, tournament_id, round, section, board, white_id, black_id, result, is_bye, bye_points, manual_reason, created_at`

func (r *postgresPairingRepository) Create(ctx context.Context, exec SQLExecutor, pairing *models.Pairing) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO pairings (tournament_id, round, section, board, white_id, black_id, result, is_bye, bye_points, manual_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		pairing.TournamentID,
		pairing.Round,
		pairing.Section,
		pairing.Board,
		pairing.WhiteID,
		pairing.BlackID,
		pairing.Result,
		pairing.IsBye,
		pairing.ByePoints,
		pairing.ManualReason,
	).Scan(&pairing.ID, &pairing.CreatedAt)

	return r.handlePairingError(err)
}

func (r *postgresPairingRepository) GetByID(ctx context.Context, id int) (*models.Pairing, error) {
	query := `SELECT ` + pairingColumns + ` FROM pairings WHERE id = $1`

	pairing, err := scanPairing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairingNotFound
		}
		return nil, fmt.Errorf("failed to scan pairing by id %d: %w", id, err)
	}
	return pairing, nil
}

func (r *postgresPairingRepository) ListByRound(ctx context.Context, tournamentID int, section string, round int) ([]*models.Pairing, error) {
	query := `SELECT ` + pairingColumns + `
		FROM pairings
		WHERE tournament_id = $1 AND section = $2 AND round = $3
		ORDER BY board`
	return r.queryPairings(ctx, query, tournamentID, section, round)
}

func (r *postgresPairingRepository) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Pairing, error) {
	query := `SELECT ` + pairingColumns + `
		FROM pairings
		WHERE tournament_id = $1 AND section = $2
		ORDER BY round, board`
	return r.queryPairings(ctx, query, tournamentID, section)
}

func (r *postgresPairingRepository) queryPairings(ctx context.Context, query string, args ...interface{}) ([]*models.Pairing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings: %w", err)
	}
	defer rows.Close()

	pairings := make([]*models.Pairing, 0)
	for rows.Next() {
		pairing, scanErr := scanPairing(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan pairing row: %w", scanErr)
		}
		pairings = append(pairings, pairing)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pairing rows iteration: %w", err)
	}
	return pairings, nil
}

func (r *postgresPairingRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, result models.Result) error {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx, `UPDATE pairings SET result = $1 WHERE id = $2 AND is_bye = FALSE`, result, id)
	if err != nil {
		return r.handlePairingError(err)
	}
	return checkAffectedRows(res, ErrPairingNotFound)
}

// UpdatePlayers rewrites the full occupancy of one board. A manual
// assignment can turn a bye into a regular pairing, so the bye columns are
// written alongside the players.
func (r *postgresPairingRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, id int, whiteID, blackID *int, reason string, isBye bool, byePoints *float64) error {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE pairings SET white_id = $1, black_id = $2, manual_reason = $3, is_bye = $4, bye_points = $5 WHERE id = $6`,
		whiteID, blackID, reason, isBye, byePoints, id)
	if err != nil {
		return r.handlePairingError(err)
	}
	return checkAffectedRows(res, ErrPairingNotFound)
}

func (r *postgresPairingRepository) DeleteByRound(ctx context.Context, exec SQLExecutor, tournamentID int, section string, round int) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`DELETE FROM pairings WHERE tournament_id = $1 AND section = $2 AND round = $3`,
		tournamentID, section, round)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pairings for round %d: %w", round, err)
	}
	return res.RowsAffected()
}

func (r *postgresPairingRepository) DeleteBySection(ctx context.Context, exec SQLExecutor, tournamentID int, section string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`DELETE FROM pairings WHERE tournament_id = $1 AND section = $2`,
		tournamentID, section)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pairings for section %q: %w", section, err)
	}
	return res.RowsAffected()
}

// ReassignSection re-tags historical and current pairings during a merge.
// Board numbers are never renumbered retroactively.
func (r *postgresPairingRepository) ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	res, err := exec.ExecContext(ctx,
		`UPDATE pairings SET section = $1 WHERE tournament_id = $2 AND section = ANY($3)`,
		to, tournamentID, pq.Array(from))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign pairings to section %q: %w", to, err)
	}
	return res.RowsAffected()
}

func scanPairing(row rowScanner) (*models.Pairing, error) {
	pairing := &models.Pairing{}
	err := row.Scan(
		&pairing.ID,
		&pairing.TournamentID,
		&pairing.Round,
		&pairing.Section,
		&pairing.Board,
		&pairing.WhiteID,
		&pairing.BlackID,
		&pairing.Result,
		&pairing.IsBye,
		&pairing.ByePoints,
		&pairing.ManualReason,
		&pairing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pairing, nil
}

func (r *postgresPairingRepository) handlePairingError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "pairings_board_key":
			return ErrPairingBoardConflict
		case "pairings_white_id_fkey", "pairings_black_id_fkey":
			return ErrPairingPlayerInvalid
		}
	}
	return err
}
