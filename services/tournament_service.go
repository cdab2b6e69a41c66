package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
	"github.com/openpair/chess-tournaments/storage"
)

type CreateTournamentInput struct {
	Name          string                `json:"name"`
	Description   *string               `json:"description,omitempty"`
	Rounds        int                   `json:"rounds"`
	PairingConfig *models.PairingConfig `json:"pairing_config,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]*models.Tournament, error)
	UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error
	UpdatePairingConfig(ctx context.Context, id int, cfg models.PairingConfig) error
	UploadLogo(ctx context.Context, id int, contentType string, reader io.Reader) (string, error)
	CreateSection(ctx context.Context, tournamentID int, spec models.NewSectionSpec) (*models.Section, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	sectionRepo    repositories.SectionRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	sectionRepo repositories.SectionRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		sectionRepo:    sectionRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.Rounds < 1 {
		return nil, ErrTournamentInvalidRounds
	}

	cfg := models.DefaultPairingConfig()
	if input.PairingConfig != nil {
		cfg = *input.PairingConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode pairing config: %w", err)
	}
	cfgJSON := string(raw)

	tournament := &models.Tournament{
		Name:              input.Name,
		Description:       input.Description,
		Status:            models.StatusRegistration,
		Rounds:            input.Rounds,
		PairingConfigJSON: &cfgJSON,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, fmt.Errorf("%w: %q", ErrValidationFailed, input.Name)
		}
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name),
		slog.Int("rounds", tournament.Rounds))

	return tournament, nil
}

// GetTournament fetches the tournament and its sections concurrently and
// resolves the public logo URL when one is stored.
func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	var (
		tournament *models.Tournament
		sections   []*models.Section
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gCtx, id)
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		sections, err = s.sectionRepo.ListByTournament(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Sections = make([]models.Section, 0, len(sections))
	for _, sec := range sections {
		tournament.Sections = append(tournament.Sections, *sec)
	}
	if tournament.LogoKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*tournament.LogoKey)
		tournament.LogoURL = &url
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.uploader != nil {
		for _, t := range tournaments {
			if t.LogoKey != nil {
				url := s.uploader.GetPublicURL(*t.LogoKey)
				t.LogoURL = &url
			}
		}
	}
	return tournaments, nil
}

// UpdateStatus enforces the forward-only lifecycle: registration opens
// play, play completes. Completed is terminal.
func (s *tournamentService) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	current, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if !validStatusTransition(current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrTournamentInvalidStatus, current.Status, status)
	}
	if err := s.tournamentRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("tournament status updated",
		slog.Int("tournament_id", id),
		slog.String("status", string(status)))
	return nil
}

func (s *tournamentService) UpdatePairingConfig(ctx context.Context, id int, cfg models.PairingConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode pairing config: %w", err)
	}
	if err := s.tournamentRepo.UpdatePairingConfig(ctx, id, string(raw)); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

// UploadLogo stores the image under a per-tournament key and records the
// key; the previous logo, if any, is deleted best-effort.
func (s *tournamentService) UploadLogo(ctx context.Context, id int, contentType string, reader io.Reader) (string, error) {
	if s.uploader == nil {
		return "", errors.New("file storage is not configured")
	}
	current, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return "", ErrTournamentNotFound
		}
		return "", err
	}

	ext := extensionForContentType(contentType)
	if ext == "" {
		return "", fmt.Errorf("%w: unsupported logo content type %q", ErrValidationFailed, contentType)
	}
	key := fmt.Sprintf("tournaments/%d/logo%s", id, ext)

	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}
	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return "", err
	}

	if current.LogoKey != nil && *current.LogoKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *current.LogoKey); delErr != nil {
			s.logger.Warn("failed to delete previous logo",
				slog.String("key", *current.LogoKey),
				slog.String("error", delErr.Error()))
		}
	}

	return result.Location, nil
}

func (s *tournamentService) CreateSection(ctx context.Context, tournamentID int, spec models.NewSectionSpec) (*models.Section, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: section name is required", ErrValidationFailed)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	section := &models.Section{
		TournamentID: tournamentID,
		Name:         spec.Name,
		MinRating:    spec.MinRating,
		MaxRating:    spec.MaxRating,
		Description:  spec.Description,
	}
	if err := s.sectionRepo.Create(ctx, nil, section); err != nil {
		if errors.Is(err, repositories.ErrSectionNameConflict) {
			return nil, fmt.Errorf("%w: %q", ErrValidationFailed, spec.Name)
		}
		return nil, err
	}
	return section, nil
}

func validStatusTransition(from, to models.TournamentStatus) bool {
	switch from {
	case models.StatusRegistration:
		return to == models.StatusActive || to == models.StatusCompleted
	case models.StatusActive:
		return to == models.StatusCompleted
	default:
		return false
	}
}

func extensionForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}
