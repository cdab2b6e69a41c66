package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
)

// RatingLookup resolves a US Chess member ID to a current rating and
// membership expiration. The uschess package provides the real client; a
// fake stands in for tests.
type RatingLookup interface {
	Lookup(ctx context.Context, uscfID string) (rating *int, expiration *time.Time, err error)
}

// RatingRefresh summarizes a roster-wide rating refresh.
type RatingRefresh struct {
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"` // players without a US Chess ID
	Failed  []string `json:"failed,omitempty"`
}

type RegisterPlayerInput struct {
	Name    string               `json:"name"`
	USCFID  *string              `json:"uscf_id,omitempty"`
	Rating  *int                 `json:"rating,omitempty"`
	Section string               `json:"section"`
	Team    *string              `json:"team,omitempty"`
	FeePaid *float64             `json:"fee_paid,omitempty"`
	Status  *models.PlayerStatus `json:"-"`
}

type RosterService interface {
	RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, playerID int) (*models.Player, error)
	ListPlayers(ctx context.Context, tournamentID int, section string) ([]*models.Player, error)
	WithdrawPlayer(ctx context.Context, playerID int) error
	ReinstatePlayer(ctx context.Context, playerID int) error
	AssignSection(ctx context.Context, playerID int, section string) error
	DeclareBye(ctx context.Context, playerID int, round int) (*models.Player, error)
	ClearBye(ctx context.Context, playerID int, round int) (*models.Player, error)
	ClearAllByes(ctx context.Context, playerID int) (*models.Player, error)
	RefreshRatings(ctx context.Context, tournamentID int) (*RatingRefresh, error)
}

type rosterService struct {
	db               *sql.DB
	tournamentRepo   repositories.TournamentRepository
	playerRepo       repositories.PlayerRepository
	registrationRepo repositories.RegistrationRepository
	ratings          RatingLookup
	logger           *slog.Logger
}

func NewRosterService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	registrationRepo repositories.RegistrationRepository,
	ratings RatingLookup,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		db:               db,
		tournamentRepo:   tournamentRepo,
		playerRepo:       playerRepo,
		registrationRepo: registrationRepo,
		ratings:          ratings,
		logger:           logger,
	}
}

// RegisterPlayer creates the roster entry and its registration record in
// one transaction so a failed registration never leaves an orphan player.
func (s *rosterService) RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.Player, error) {
	if input.Name == "" {
		return nil, ErrPlayerNameRequired
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	player := &models.Player{
		TournamentID: tournamentID,
		Name:         input.Name,
		USCFID:       input.USCFID,
		Rating:       input.Rating,
		Section:      input.Section,
		Status:       models.PlayerActive,
		Team:         input.Team,
		ByeRounds:    []int{},
	}
	if input.Status != nil {
		player.Status = *input.Status
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.playerRepo.Create(ctx, tx, player); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	reg := &models.Registration{
		TournamentID: tournamentID,
		PlayerID:     player.ID,
		Section:      input.Section,
		Status:       models.RegistrationConfirmed,
		FeePaid:      input.FeePaid,
	}
	if err := s.registrationRepo.Create(ctx, tx, reg); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("player registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("player_id", player.ID),
		slog.String("section", input.Section))

	return player, nil
}

func (s *rosterService) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, s.mapPlayerErr(err)
	}
	return player, nil
}

// ListPlayers returns a tournament's roster, optionally narrowed to one
// section.
func (s *rosterService) ListPlayers(ctx context.Context, tournamentID int, section string) ([]*models.Player, error) {
	if section == "" {
		return s.playerRepo.ListByTournament(ctx, tournamentID)
	}
	return s.playerRepo.ListBySection(ctx, tournamentID, section)
}

// WithdrawPlayer marks the player withdrawn. Generators skip withdrawn
// players from the next round on; already-played games stand.
func (s *rosterService) WithdrawPlayer(ctx context.Context, playerID int) error {
	if err := s.playerRepo.UpdateStatus(ctx, playerID, models.PlayerWithdrawn); err != nil {
		return s.mapPlayerErr(err)
	}
	s.logger.Info("player withdrawn", slog.Int("player_id", playerID))
	return nil
}

func (s *rosterService) ReinstatePlayer(ctx context.Context, playerID int) error {
	if err := s.playerRepo.UpdateStatus(ctx, playerID, models.PlayerActive); err != nil {
		return s.mapPlayerErr(err)
	}
	return nil
}

func (s *rosterService) AssignSection(ctx context.Context, playerID int, section string) error {
	if err := s.playerRepo.UpdateSection(ctx, nil, playerID, section); err != nil {
		return s.mapPlayerErr(err)
	}
	return nil
}

// DeclareBye records a requested bye for a future round. The round list is
// kept sorted and duplicate declarations are a no-op.
func (s *rosterService) DeclareBye(ctx context.Context, playerID int, round int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, s.mapPlayerErr(err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, player.TournamentID)
	if err != nil {
		return nil, err
	}
	if round < 1 || round > tournament.Rounds {
		return nil, fmt.Errorf("%w: round %d of %d", ErrRoundOutOfRange, round, tournament.Rounds)
	}

	if player.HasByeDeclared(round) {
		return player, nil
	}
	rounds := append(append([]int{}, player.ByeRounds...), round)
	sort.Ints(rounds)
	if err := s.playerRepo.UpdateByeRounds(ctx, playerID, rounds); err != nil {
		return nil, s.mapPlayerErr(err)
	}
	player.ByeRounds = rounds
	return player, nil
}

func (s *rosterService) ClearBye(ctx context.Context, playerID int, round int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, s.mapPlayerErr(err)
	}
	rounds := make([]int, 0, len(player.ByeRounds))
	for _, r := range player.ByeRounds {
		if r != round {
			rounds = append(rounds, r)
		}
	}
	if len(rounds) == len(player.ByeRounds) {
		return player, nil
	}
	if err := s.playerRepo.UpdateByeRounds(ctx, playerID, rounds); err != nil {
		return nil, s.mapPlayerErr(err)
	}
	player.ByeRounds = rounds
	return player, nil
}

// ClearAllByes drops every declared bye at once, for the player who
// decides to play the full schedule after all.
func (s *rosterService) ClearAllByes(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, s.mapPlayerErr(err)
	}
	if len(player.ByeRounds) == 0 {
		return player, nil
	}
	if err := s.playerRepo.UpdateByeRounds(ctx, playerID, []int{}); err != nil {
		return nil, s.mapPlayerErr(err)
	}
	player.ByeRounds = []int{}
	return player, nil
}

// RefreshRatings re-fetches the current US Chess rating for every roster
// player with a member ID. Lookup failures are reported per player and do
// not abort the sweep.
func (s *rosterService) RefreshRatings(ctx context.Context, tournamentID int) (*RatingRefresh, error) {
	if s.ratings == nil {
		return nil, errors.New("rating lookup is not configured")
	}
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	refresh := &RatingRefresh{}
	for _, p := range players {
		if p.USCFID == nil || *p.USCFID == "" {
			refresh.Skipped++
			continue
		}
		rating, expiration, err := s.ratings.Lookup(ctx, *p.USCFID)
		if err != nil {
			s.logger.Warn("rating lookup failed",
				slog.Int("player_id", p.ID),
				slog.String("uscf_id", *p.USCFID),
				slog.String("error", err.Error()))
			refresh.Failed = append(refresh.Failed, *p.USCFID)
			continue
		}
		var exp *sql.NullTime
		if expiration != nil {
			exp = &sql.NullTime{Time: *expiration, Valid: true}
		}
		if err := s.playerRepo.UpdateRating(ctx, p.ID, rating, exp); err != nil {
			return nil, s.mapPlayerErr(err)
		}
		refresh.Updated++
	}

	s.logger.Info("ratings refreshed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("updated", refresh.Updated),
		slog.Int("skipped", refresh.Skipped),
		slog.Int("failed", len(refresh.Failed)))

	return refresh, nil
}

func (s *rosterService) mapPlayerErr(err error) error {
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return ErrPlayerNotFound
	}
	return err
}
