package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/pairing"
	"github.com/openpair/chess-tournaments/repositories"
)

type RoundService interface {
	GetRoundStatus(ctx context.Context, tournamentID int, section string, round int) (*models.RoundStatus, error)
	GetSectionRounds(ctx context.Context, tournamentID int, section string) ([]*models.RoundStatus, error)
	CompleteRound(ctx context.Context, tournamentID int, section string, round int) (nextRound int, err error)
	ResetSection(ctx context.Context, tournamentID int, section string) (int64, error)
}

type roundService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	pairingRepo    repositories.PairingRepository
	locks          *sectionLocker
	hub            *pairing.Hub
	logger         *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	pairingRepo repositories.PairingRepository,
	locks *sectionLocker,
	hub *pairing.Hub,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:             db,
		tournamentRepo: tournamentRepo,
		pairingRepo:    pairingRepo,
		locks:          locks,
		hub:            hub,
		logger:         logger,
	}
}

// GetRoundStatus derives one round's state from its pairings. There is no
// stored state column: the pairing rows are the single source of truth, so
// a status can never disagree with the boards it describes.
func (s *roundService) GetRoundStatus(ctx context.Context, tournamentID int, section string, round int) (*models.RoundStatus, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if round < 1 || round > tournament.Rounds {
		return nil, fmt.Errorf("%w: round %d of %d", ErrRoundOutOfRange, round, tournament.Rounds)
	}

	pairings, err := s.pairingRepo.ListByRound(ctx, tournamentID, section, round)
	if err != nil {
		return nil, err
	}
	return deriveRoundStatus(tournamentID, section, round, pairings), nil
}

// GetSectionRounds reports the state of every configured round at once,
// including rounds not yet generated.
func (s *roundService) GetSectionRounds(ctx context.Context, tournamentID int, section string) ([]*models.RoundStatus, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	all, err := s.pairingRepo.ListBySection(ctx, tournamentID, section)
	if err != nil {
		return nil, err
	}
	byRound := make(map[int][]*models.Pairing)
	for _, p := range all {
		byRound[p.Round] = append(byRound[p.Round], p)
	}

	statuses := make([]*models.RoundStatus, 0, tournament.Rounds)
	for r := 1; r <= tournament.Rounds; r++ {
		statuses = append(statuses, deriveRoundStatus(tournamentID, section, r, byRound[r]))
	}
	return statuses, nil
}

// CompleteRound verifies every game of the round is resolved and returns
// the next pairable round number, or 0 when the tournament's last round
// just finished. Completion writes nothing: it is a checkpoint, and the
// next generation call re-derives the same answer from the pairings.
func (s *roundService) CompleteRound(ctx context.Context, tournamentID int, section string, round int) (int, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return 0, ErrTournamentNotFound
		}
		return 0, err
	}
	if round < 1 || round > tournament.Rounds {
		return 0, fmt.Errorf("%w: round %d of %d", ErrRoundOutOfRange, round, tournament.Rounds)
	}

	pairings, err := s.pairingRepo.ListByRound(ctx, tournamentID, section, round)
	if err != nil {
		return 0, err
	}
	if len(pairings) == 0 {
		return 0, ErrRoundNotGenerated
	}

	var remaining int
	for _, p := range pairings {
		if !p.Resolved() {
			remaining++
		}
	}
	if remaining > 0 {
		return 0, &IncompleteRoundError{Round: round, Remaining: remaining}
	}

	next := round + 1
	if next > tournament.Rounds {
		next = 0
	}

	s.logger.Info("round complete",
		slog.Int("tournament_id", tournamentID),
		slog.String("section", section),
		slog.Int("round", round))
	s.hub.BroadcastEvent(tournamentID, pairing.EventRoundComplete, map[string]interface{}{
		"section":    section,
		"round":      round,
		"next_round": next,
	})

	return next, nil
}

// ResetSection deletes every pairing and result of one section, returning
// it to the unpaired state. The roster is untouched. The delete runs in a
// transaction under the section lock so readers never observe a half-wiped
// section.
func (s *roundService) ResetSection(ctx context.Context, tournamentID int, section string) (int64, error) {
	release, err := s.locks.acquire(tournamentID, section)
	if err != nil {
		return 0, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	removed, err := s.pairingRepo.DeleteBySection(ctx, tx, tournamentID, section)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return 0, fmt.Errorf("section reset: %w (rollback also failed: %v)", err, rbErr)
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("section reset",
		slog.Int("tournament_id", tournamentID),
		slog.String("section", section),
		slog.Int64("pairings_removed", removed))
	s.hub.BroadcastEvent(tournamentID, pairing.EventSectionReset, map[string]interface{}{
		"section":          section,
		"pairings_removed": removed,
	})

	return removed, nil
}

// deriveRoundStatus computes the lifecycle state from pairing rows alone.
func deriveRoundStatus(tournamentID int, section string, round int, pairings []*models.Pairing) *models.RoundStatus {
	status := &models.RoundStatus{
		TournamentID: tournamentID,
		Section:      section,
		Round:        round,
		State:        models.RoundEmpty,
		Total:        len(pairings),
	}
	if len(pairings) == 0 {
		return status
	}
	for _, p := range pairings {
		if p.Resolved() {
			status.Completed++
		}
	}
	status.Percent = float64(status.Completed) / float64(status.Total) * 100
	switch {
	case status.Completed == status.Total:
		status.State = models.RoundComplete
		status.Ready = true
	case status.Completed > 0:
		status.State = models.RoundInProgress
	default:
		status.State = models.RoundGenerated
	}
	return status
}
