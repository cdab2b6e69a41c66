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

// MergeRequest describes a section consolidation. Exactly one of an
// existing destination name or a new-section spec drives the destination:
// when Create is set the destination section is created inside the merge
// transaction, otherwise Destination must already exist.
type MergeRequest struct {
	Sources     []string               `json:"sources"`
	Destination string                 `json:"destination"`
	Create      *models.NewSectionSpec `json:"create,omitempty"`
}

type MergeService interface {
	MergeSections(ctx context.Context, tournamentID int, req MergeRequest) (*models.MergeReport, error)
}

type mergeService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	sectionRepo      repositories.SectionRepository
	playerRepo       repositories.PlayerRepository
	pairingRepo      repositories.PairingRepository
	registrationRepo repositories.RegistrationRepository
	teamRepo         repositories.TeamRepository
	prizeRepo        repositories.PrizeRepository
	locks            *sectionLocker
	hub              *pairing.Hub
	logger           *slog.Logger
}

func NewMergeService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	playerRepo repositories.PlayerRepository,
	pairingRepo repositories.PairingRepository,
	registrationRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	prizeRepo repositories.PrizeRepository,
	locks *sectionLocker,
	hub *pairing.Hub,
	logger *slog.Logger,
) MergeService {
	return &mergeService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		sectionRepo:      sectionRepo,
		playerRepo:       playerRepo,
		pairingRepo:      pairingRepo,
		registrationRepo: registrationRepo,
		teamRepo:         teamRepo,
		prizeRepo:        prizeRepo,
		locks:            locks,
		hub:              hub,
		logger:           logger,
	}
}

// MergeSections moves every record family of the source sections into the
// destination and removes the sources, all inside a single transaction.
// Either every family moves or none does: a failure at any step rolls the
// whole merge back and the sections are exactly as they were.
func (s *mergeService) MergeSections(ctx context.Context, tournamentID int, req MergeRequest) (*models.MergeReport, error) {
	dest, sources, err := s.validateRequest(ctx, tournamentID, req)
	if err != nil {
		return nil, err
	}

	locked := append([]string{dest}, sources...)
	release, err := s.locks.acquire(tournamentID, locked...)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	report, err := s.applyMerge(ctx, tx, tournamentID, dest, sources, req.Create)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return nil, fmt.Errorf("section merge: %w (rollback also failed: %v)", err, rbErr)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("sections merged",
		slog.Int("tournament_id", tournamentID),
		slog.Any("sources", sources),
		slog.String("destination", dest),
		slog.Int("players_updated", report.PlayersUpdated))
	s.hub.BroadcastEvent(tournamentID, pairing.EventSectionsMerged, report)

	return report, nil
}

func (s *mergeService) validateRequest(ctx context.Context, tournamentID int, req MergeRequest) (dest string, sources []string, err error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", nil, ErrTournamentNotFound
		}
		return "", nil, err
	}

	// A merge consolidates sections; with one source there is nothing to
	// consolidate and a rename endpoint would be the right tool.
	if len(req.Sources) < 2 {
		return "", nil, ErrMergeTooFewSources
	}
	seen := make(map[string]bool, len(req.Sources))
	for _, src := range req.Sources {
		if seen[src] {
			return "", nil, fmt.Errorf("%w: %q", ErrMergeDuplicateSource, src)
		}
		seen[src] = true
	}

	dest = req.Destination
	if req.Create != nil {
		dest = req.Create.Name
	}
	if dest == "" {
		return "", nil, ErrMergeDestinationMissing
	}
	if seen[dest] {
		return "", nil, fmt.Errorf("%w: %q", ErrMergeDestinationIsSource, dest)
	}

	for _, src := range req.Sources {
		if _, err := s.sectionRepo.GetByName(ctx, tournamentID, src); err != nil {
			if errors.Is(err, repositories.ErrSectionNotFound) {
				return "", nil, fmt.Errorf("%w: %q", ErrMergeSourceMissing, src)
			}
			return "", nil, err
		}
	}

	_, err = s.sectionRepo.GetByName(ctx, tournamentID, dest)
	switch {
	case err == nil && req.Create != nil:
		return "", nil, fmt.Errorf("%w: %q", ErrMergeNameConflict, dest)
	case errors.Is(err, repositories.ErrSectionNotFound) && req.Create == nil:
		return "", nil, fmt.Errorf("%w: %q", ErrMergeDestinationMissing, dest)
	case err != nil && !errors.Is(err, repositories.ErrSectionNotFound):
		return "", nil, err
	}

	return dest, req.Sources, nil
}

func (s *mergeService) applyMerge(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, dest string, sources []string, create *models.NewSectionSpec) (*models.MergeReport, error) {
	if create != nil {
		section := &models.Section{
			TournamentID: tournamentID,
			Name:         create.Name,
			MinRating:    create.MinRating,
			MaxRating:    create.MaxRating,
			Description:  create.Description,
		}
		if err := s.sectionRepo.Create(ctx, exec, section); err != nil {
			if errors.Is(err, repositories.ErrSectionNameConflict) {
				return nil, fmt.Errorf("%w: %q", ErrMergeNameConflict, create.Name)
			}
			return nil, err
		}
	}

	report := &models.MergeReport{Destination: dest}

	players, err := s.playerRepo.ReassignSection(ctx, exec, tournamentID, sources, dest)
	if err != nil {
		return nil, fmt.Errorf("merge players: %w", err)
	}
	report.PlayersUpdated = int(players)

	pairings, err := s.pairingRepo.ReassignSection(ctx, exec, tournamentID, sources, dest)
	if err != nil {
		return nil, fmt.Errorf("merge pairings: %w", err)
	}
	report.PairingsUpdated = int(pairings)

	registrations, err := s.registrationRepo.ReassignSection(ctx, exec, tournamentID, sources, dest)
	if err != nil {
		return nil, fmt.Errorf("merge registrations: %w", err)
	}
	report.RegistrationsMoved = int(registrations)

	teams, err := s.teamRepo.ReassignSection(ctx, exec, tournamentID, sources, dest)
	if err != nil {
		return nil, fmt.Errorf("merge teams: %w", err)
	}
	report.TeamsUpdated = int(teams)

	prizes, err := s.prizeRepo.ReassignSection(ctx, exec, tournamentID, sources, dest)
	if err != nil {
		return nil, fmt.Errorf("merge prizes: %w", err)
	}
	report.PrizeRecordsUpdated = int(prizes)

	removed, err := s.sectionRepo.DeleteByNames(ctx, exec, tournamentID, sources)
	if err != nil {
		return nil, fmt.Errorf("remove merged sections: %w", err)
	}
	report.SourcesRemoved = int(removed)

	return report, nil
}
