package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/pairing"
	"github.com/openpair/chess-tournaments/repositories"
)

type StandingsService interface {
	GetStandings(ctx context.Context, tournamentID int, section string) ([]*models.StandingEntry, error)
	GetCrossSectionStandings(ctx context.Context, tournamentID int) (map[string][]*models.StandingEntry, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	sectionRepo    repositories.SectionRepository
	playerRepo     repositories.PlayerRepository
	pairingRepo    repositories.PairingRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	playerRepo repositories.PlayerRepository,
	pairingRepo repositories.PairingRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		sectionRepo:    sectionRepo,
		playerRepo:     playerRepo,
		pairingRepo:    pairingRepo,
	}
}

// GetStandings recomputes a section's full standings from its pairing
// history. Nothing is cached or stored: a result correction or a reset is
// reflected on the very next call.
func (s *standingsService) GetStandings(ctx context.Context, tournamentID int, section string) ([]*models.StandingEntry, error) {
	var (
		tournament *models.Tournament
		players    []*models.Player
		pairings   []*models.Pairing
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gCtx, tournamentID)
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListBySection(gCtx, tournamentID, section)
		return err
	})
	g.Go(func() error {
		var err error
		pairings, err = s.pairingRepo.ListBySection(gCtx, tournamentID, section)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cfg, err := tournament.PairingConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	tiebreaks, err := pairing.TiebreaksByName(cfg.Tiebreaks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	entries := pairing.ComputeStandings(players, pairings, tiebreaks)

	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for _, e := range entries {
		e.Player = byID[e.PlayerID]
	}
	return entries, nil
}

// GetCrossSectionStandings computes standings for every section of a
// tournament in parallel, keyed by section name.
func (s *standingsService) GetCrossSectionStandings(ctx context.Context, tournamentID int) (map[string][]*models.StandingEntry, error) {
	sections, err := s.sectionRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	results := make([]struct {
		name    string
		entries []*models.StandingEntry
	}, len(sections))

	g, gCtx := errgroup.WithContext(ctx)
	for i, sec := range sections {
		i, sec := i, sec
		g.Go(func() error {
			entries, err := s.GetStandings(gCtx, tournamentID, sec.Name)
			if err != nil {
				return fmt.Errorf("standings for section %q: %w", sec.Name, err)
			}
			results[i].name = sec.Name
			results[i].entries = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]*models.StandingEntry, len(results))
	for _, r := range results {
		out[r.name] = r.entries
	}
	return out, nil
}
