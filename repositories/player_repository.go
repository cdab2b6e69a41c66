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
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerTournamentInvalid = errors.New("player tournament conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error)
	ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Player, error)
	UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error
	UpdateSection(ctx context.Context, exec SQLExecutor, id int, section string) error
	UpdateByeRounds(ctx context.Context, id int, byeRounds []int) error
	UpdateRating(ctx context.Context, id int, rating *int, expiration *sql.NullTime) error
	ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, tournament_id, name, uscf_id, rating, section, status, team, bye_rounds, expiration_date, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO players (tournament_id, name, uscf_id, rating, section, status, team, bye_rounds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		player.TournamentID,
		player.Name,
		player.USCFID,
		player.Rating,
		player.Section,
		player.Status,
		player.Team,
		pq.Array(player.ByeRounds),
	).Scan(&player.ID, &player.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player, err := scanPlayer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE tournament_id = $1 ORDER BY section, name`
	return r.queryPlayers(ctx, query, tournamentID)
}

func (r *postgresPlayerRepository) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE tournament_id = $1 AND section = $2 ORDER BY rating DESC NULLS LAST, name`
	return r.queryPlayers(ctx, query, tournamentID, section)
}

func (r *postgresPlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		player, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, player)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateSection(ctx context.Context, exec SQLExecutor, id int, section string) error {
	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx, `UPDATE players SET section = $1 WHERE id = $2`, section, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateByeRounds(ctx context.Context, id int, byeRounds []int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET bye_rounds = $1 WHERE id = $2`, pq.Array(byeRounds), id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateRating(ctx context.Context, id int, rating *int, expiration *sql.NullTime) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE players SET rating = COALESCE($1, rating), expiration_date = COALESCE($2, expiration_date) WHERE id = $3`,
		rating, expiration, id)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// ReassignSection moves every player of the named source sections to the
// destination. Runs inside the caller's transaction during merges.
func (r *postgresPlayerRepository) ReassignSection(ctx context.Context, exec SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx,
		`UPDATE players SET section = $1 WHERE tournament_id = $2 AND section = ANY($3)`,
		to, tournamentID, pq.Array(from))
	if err != nil {
		return 0, fmt.Errorf("failed to reassign players to section %q: %w", to, err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlayer(row rowScanner) (*models.Player, error) {
	player := &models.Player{}
	var byeRounds pq.Int64Array
	err := row.Scan(
		&player.ID,
		&player.TournamentID,
		&player.Name,
		&player.USCFID,
		&player.Rating,
		&player.Section,
		&player.Status,
		&player.Team,
		&byeRounds,
		&player.ExpirationDate,
		&player.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	player.ByeRounds = make([]int, len(byeRounds))
	for i, r := range byeRounds {
		player.ByeRounds[i] = int(r)
	}
	return player, nil
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "players_tournament_id_fkey":
			return ErrPlayerTournamentInvalid
		}
	}
	return err
}
