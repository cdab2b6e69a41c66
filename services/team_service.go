package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
)

type CreateTeamInput struct {
	Name    string `json:"name"`
	Section string `json:"section"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, tournamentID int, input CreateTeamInput) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID int) ([]*models.Team, error)
}

type teamService struct {
	tournamentRepo repositories.TournamentRepository
	sectionRepo    repositories.SectionRepository
	teamRepo       repositories.TeamRepository
	logger         *slog.Logger
}

func NewTeamService(
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	teamRepo repositories.TeamRepository,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		tournamentRepo: tournamentRepo,
		sectionRepo:    sectionRepo,
		teamRepo:       teamRepo,
		logger:         logger,
	}
}

// CreateTeam registers a team in a section. The section must exist so the
// team follows it through merges.
func (s *teamService) CreateTeam(ctx context.Context, tournamentID int, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if _, err := s.sectionRepo.GetByName(ctx, tournamentID, input.Section); err != nil {
		if errors.Is(err, repositories.ErrSectionNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}

	team := &models.Team{
		TournamentID: tournamentID,
		Name:         input.Name,
		Section:      input.Section,
	}
	if err := s.teamRepo.Create(ctx, nil, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, err
	}

	s.logger.Info("team created",
		slog.Int("tournament_id", tournamentID),
		slog.String("name", team.Name),
		slog.String("section", team.Section))

	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.teamRepo.ListByTournament(ctx, tournamentID)
}
