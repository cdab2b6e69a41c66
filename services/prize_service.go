package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
)

type CreatePrizeInput struct {
	Place       int      `json:"place"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount,omitempty"`
}

type PrizeService interface {
	CreatePrize(ctx context.Context, tournamentID int, section string, input CreatePrizeInput) (*models.Prize, error)
	ListPrizes(ctx context.Context, tournamentID int, section string) ([]*models.Prize, error)
	AwardPrize(ctx context.Context, prizeID int, playerID int) error
}

type prizeService struct {
	tournamentRepo repositories.TournamentRepository
	sectionRepo    repositories.SectionRepository
	playerRepo     repositories.PlayerRepository
	prizeRepo      repositories.PrizeRepository
	logger         *slog.Logger
}

func NewPrizeService(
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	playerRepo repositories.PlayerRepository,
	prizeRepo repositories.PrizeRepository,
	logger *slog.Logger,
) PrizeService {
	return &prizeService{
		tournamentRepo: tournamentRepo,
		sectionRepo:    sectionRepo,
		playerRepo:     playerRepo,
		prizeRepo:      prizeRepo,
		logger:         logger,
	}
}

// CreatePrize defines a prize for a section, unawarded until the section's
// final standings settle.
func (s *prizeService) CreatePrize(ctx context.Context, tournamentID int, section string, input CreatePrizeInput) (*models.Prize, error) {
	if input.Place < 1 {
		return nil, ErrPrizePlaceInvalid
	}
	if input.Description == "" {
		return nil, ErrPrizeDescriptionRequired
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if _, err := s.sectionRepo.GetByName(ctx, tournamentID, section); err != nil {
		if errors.Is(err, repositories.ErrSectionNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}

	prize := &models.Prize{
		TournamentID: tournamentID,
		Section:      section,
		Place:        input.Place,
		Description:  input.Description,
		Amount:       input.Amount,
	}
	if err := s.prizeRepo.Create(ctx, nil, prize); err != nil {
		return nil, err
	}

	s.logger.Info("prize created",
		slog.Int("tournament_id", tournamentID),
		slog.String("section", section),
		slog.Int("place", prize.Place))

	return prize, nil
}

func (s *prizeService) ListPrizes(ctx context.Context, tournamentID int, section string) ([]*models.Prize, error) {
	if _, err := s.sectionRepo.GetByName(ctx, tournamentID, section); err != nil {
		if errors.Is(err, repositories.ErrSectionNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return s.prizeRepo.ListBySection(ctx, tournamentID, section)
}

// AwardPrize records the winning player on a prize. Corrections overwrite
// the previous award.
func (s *prizeService) AwardPrize(ctx context.Context, prizeID int, playerID int) error {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if err := s.prizeRepo.Award(ctx, prizeID, playerID); err != nil {
		if errors.Is(err, repositories.ErrPrizeNotFound) {
			return ErrPrizeNotFound
		}
		return err
	}

	s.logger.Info("prize awarded",
		slog.Int("prize_id", prizeID),
		slog.Int("player_id", playerID))

	return nil
}
