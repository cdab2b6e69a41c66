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

type PairingService interface {
	GeneratePairings(ctx context.Context, tournamentID int, section string, round int, clearExisting bool) ([]*models.Pairing, []pairing.Warning, error)
	ApplyManualPairing(ctx context.Context, pairingID int, whiteID, blackID *int, reason string) (*models.Pairing, []pairing.Warning, error)
	SubmitResult(ctx context.Context, pairingID int, result models.Result) (*models.Pairing, error)
	GetRoundPairings(ctx context.Context, tournamentID int, section string, round int) ([]*models.Pairing, error)
}

type pairingService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	sectionRepo    repositories.SectionRepository
	playerRepo     repositories.PlayerRepository
	pairingRepo    repositories.PairingRepository
	locks          *sectionLocker
	hub            *pairing.Hub
	logger         *slog.Logger
}

func NewPairingService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	playerRepo repositories.PlayerRepository,
	pairingRepo repositories.PairingRepository,
	locks *sectionLocker,
	hub *pairing.Hub,
	logger *slog.Logger,
) PairingService {
	return &pairingService{
		db:             db,
		tournamentRepo: tournamentRepo,
		sectionRepo:    sectionRepo,
		playerRepo:     playerRepo,
		pairingRepo:    pairingRepo,
		locks:          locks,
		hub:            hub,
		logger:         logger,
	}
}

// GeneratePairings produces and persists a full round for a section. The
// previous round must be complete unless round is 1 or clearExisting is
// set; clearExisting additionally discards the round's existing pairings
// and results before regenerating. Other rounds and sections are never
// touched.
func (s *pairingService) GeneratePairings(ctx context.Context, tournamentID int, section string, round int, clearExisting bool) ([]*models.Pairing, []pairing.Warning, error) {
	tournament, cfg, err := s.loadTournamentConfig(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if round < 1 || round > tournament.Rounds {
		return nil, nil, fmt.Errorf("%w: round %d of %d", ErrRoundOutOfRange, round, tournament.Rounds)
	}

	release, err := s.locks.acquire(tournamentID, section)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	roster, err := s.sectionRoster(ctx, tournamentID, section)
	if err != nil {
		return nil, nil, err
	}

	all, err := s.pairingRepo.ListBySection(ctx, tournamentID, section)
	if err != nil {
		return nil, nil, err
	}
	var prior, existing []*models.Pairing
	var prevUnresolved int
	for _, p := range all {
		switch {
		case p.Round < round:
			prior = append(prior, p)
			if p.Round == round-1 && !p.Resolved() {
				prevUnresolved++
			}
		case p.Round == round:
			existing = append(existing, p)
		}
	}

	if len(existing) > 0 && !clearExisting {
		return nil, nil, ErrRoundAlreadyPaired
	}
	if round > 1 && !clearExisting && prevUnresolved > 0 {
		return nil, nil, &PrerequisiteNotMetError{Round: round - 1, Unresolved: prevUnresolved}
	}

	gen, err := pairing.New(cfg.Method)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedPairingMethod, cfg.Method)
	}

	generated, warnings, err := gen.Generate(ctx, pairing.GenerateParams{
		TournamentID: tournamentID,
		Section:      section,
		Round:        round,
		Players:      roster,
		History:      prior,
		Config:       cfg,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("pairing generation for %s round %d: %w", section, round, err)
	}

	// Structural defects in generated output are a bug in the generator,
	// never something to hand the user as a warning.
	if structuralErrs, _ := pairing.Validate(generated, prior, roster, cfg); len(structuralErrs) > 0 {
		return nil, nil, fmt.Errorf("generator produced structurally invalid pairings: %v", structuralErrs)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if clearExisting {
			if _, delErr := s.pairingRepo.DeleteByRound(ctx, tx, tournamentID, section, round); delErr != nil {
				return delErr
			}
		}
		for _, p := range generated {
			if createErr := s.pairingRepo.Create(ctx, tx, p); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("pairings generated",
		slog.Int("tournament_id", tournamentID),
		slog.String("section", section),
		slog.Int("round", round),
		slog.Int("boards", len(generated)),
		slog.Int("warnings", len(warnings)))
	s.hub.BroadcastEvent(tournamentID, pairing.EventPairingsGenerated, map[string]interface{}{
		"section": section,
		"round":   round,
		"boards":  len(generated),
	})

	return generated, warnings, nil
}

// ApplyManualPairing replaces the occupants of one board by director fiat.
// The change bypasses the generator but still must pass structural
// validation against the rest of the round; the reason is retained for
// audit. Fairness warnings are returned but do not block.
func (s *pairingService) ApplyManualPairing(ctx context.Context, pairingID int, whiteID, blackID *int, reason string) (*models.Pairing, []pairing.Warning, error) {
	if reason == "" {
		return nil, nil, ErrManualReasonRequired
	}

	target, err := s.pairingRepo.GetByID(ctx, pairingID)
	if err != nil {
		return nil, nil, s.mapPairingErr(err)
	}
	if target.IsBye && blackID != nil {
		// Assigning an opponent turns a bye into a regular pairing.
		target.IsBye = false
		target.ByePoints = nil
	}

	release, err := s.locks.acquire(target.TournamentID, target.Section)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	_, cfg, err := s.loadTournamentConfig(ctx, target.TournamentID)
	if err != nil {
		return nil, nil, err
	}

	roster, err := s.sectionRoster(ctx, target.TournamentID, target.Section)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.pairingRepo.ListBySection(ctx, target.TournamentID, target.Section)
	if err != nil {
		return nil, nil, err
	}

	var roundSet, prior []*models.Pairing
	for _, p := range all {
		switch {
		case p.Round == target.Round && p.ID == target.ID:
			modified := *p
			modified.WhiteID = whiteID
			modified.BlackID = blackID
			modified.IsBye = target.IsBye
			roundSet = append(roundSet, &modified)
		case p.Round == target.Round:
			roundSet = append(roundSet, p)
		case p.Round < target.Round:
			prior = append(prior, p)
		}
	}

	structuralErrs, warnings := pairing.Validate(roundSet, prior, roster, cfg)
	if len(structuralErrs) > 0 {
		return nil, nil, &ValidationError{Errors: structuralErrs}
	}

	if err := s.pairingRepo.UpdatePlayers(ctx, nil, pairingID, whiteID, blackID, reason, target.IsBye, target.ByePoints); err != nil {
		return nil, nil, s.mapPairingErr(err)
	}
	updated, err := s.pairingRepo.GetByID(ctx, pairingID)
	if err != nil {
		return nil, nil, s.mapPairingErr(err)
	}

	s.logger.Info("manual pairing applied",
		slog.Int("pairing_id", pairingID),
		slog.String("reason", reason))
	s.hub.BroadcastEvent(target.TournamentID, pairing.EventPairingsGenerated, map[string]interface{}{
		"section": target.Section,
		"round":   target.Round,
		"manual":  true,
	})

	return updated, warnings, nil
}

// SubmitResult records a game outcome. Submission against a section held
// by an in-flight merge or regeneration fails with ErrSectionLocked and is
// safe to retry.
func (s *pairingService) SubmitResult(ctx context.Context, pairingID int, result models.Result) (*models.Pairing, error) {
	if !result.Valid() || !result.IsSet() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResult, result)
	}

	target, err := s.pairingRepo.GetByID(ctx, pairingID)
	if err != nil {
		return nil, s.mapPairingErr(err)
	}
	if target.IsBye {
		return nil, ErrResultOnBye
	}

	release, err := s.locks.acquire(target.TournamentID, target.Section)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.pairingRepo.UpdateResult(ctx, nil, pairingID, result); err != nil {
		return nil, s.mapPairingErr(err)
	}
	updated, err := s.pairingRepo.GetByID(ctx, pairingID)
	if err != nil {
		return nil, s.mapPairingErr(err)
	}

	s.hub.BroadcastEvent(target.TournamentID, pairing.EventResultSubmitted, map[string]interface{}{
		"pairing_id": pairingID,
		"section":    target.Section,
		"round":      target.Round,
		"result":     result,
	})

	return updated, nil
}

// GetRoundPairings returns a round's boards with player details attached.
func (s *pairingService) GetRoundPairings(ctx context.Context, tournamentID int, section string, round int) ([]*models.Pairing, error) {
	pairings, err := s.pairingRepo.ListByRound(ctx, tournamentID, section, round)
	if err != nil {
		return nil, err
	}
	roster, err := s.playerRepo.ListBySection(ctx, tournamentID, section)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	for _, p := range pairings {
		if p.WhiteID != nil {
			p.White = byID[*p.WhiteID]
		}
		if p.BlackID != nil {
			p.Black = byID[*p.BlackID]
		}
	}
	return pairings, nil
}

// sectionRoster loads a section's players, tolerating sections that exist
// only implicitly through player assignments.
func (s *pairingService) sectionRoster(ctx context.Context, tournamentID int, section string) ([]*models.Player, error) {
	roster, err := s.playerRepo.ListBySection(ctx, tournamentID, section)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		if _, secErr := s.sectionRepo.GetByName(ctx, tournamentID, section); secErr != nil {
			if errors.Is(secErr, repositories.ErrSectionNotFound) {
				return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, section)
			}
			return nil, secErr
		}
	}
	return roster, nil
}

func (s *pairingService) loadTournamentConfig(ctx context.Context, tournamentID int) (*models.Tournament, models.PairingConfig, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, models.PairingConfig{}, ErrTournamentNotFound
		}
		return nil, models.PairingConfig{}, err
	}
	cfg, err := tournament.PairingConfig()
	if err != nil {
		return nil, models.PairingConfig{}, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return tournament, cfg, nil
}

// inTx runs fn inside a transaction with rollback on error or panic.
func (s *pairingService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *pairingService) mapPairingErr(err error) error {
	if errors.Is(err, repositories.ErrPairingNotFound) {
		return ErrPairingNotFound
	}
	return err
}
