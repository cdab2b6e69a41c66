package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
)

func newTestMergeService(tournaments *fakeTournamentRepo, sections *fakeSectionRepo) *mergeService {
	return &mergeService{
		tournamentRepo: tournaments,
		sectionRepo:    sections,
		locks:          NewSectionLocker(),
		logger:         testLogger(),
	}
}

func TestMergeValidateAcceptsExistingDestination(t *testing.T) {
	svc := newTestMergeService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "U1600", "U1800", "Open"),
	)

	dest, sources, err := svc.validateRequest(context.Background(), 1, MergeRequest{
		Sources:     []string{"U1600", "U1800"},
		Destination: "Open",
	})
	if err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if dest != "Open" || len(sources) != 2 {
		t.Errorf("unexpected outcome: dest=%q sources=%v", dest, sources)
	}
}

func TestMergeValidateAcceptsCreateDestination(t *testing.T) {
	svc := newTestMergeService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "U1600", "U1800"),
	)

	dest, _, err := svc.validateRequest(context.Background(), 1, MergeRequest{
		Sources: []string{"U1600", "U1800"},
		Create:  &models.NewSectionSpec{Name: "Amateur"},
	})
	if err != nil {
		t.Fatalf("create-destination request rejected: %v", err)
	}
	if dest != "Amateur" {
		t.Errorf("destination should come from the create spec, got %q", dest)
	}
}

func TestMergeValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		req  MergeRequest
		want error
	}{
		{
			name: "no sources",
			req:  MergeRequest{Destination: "Open"},
			want: ErrMergeTooFewSources,
		},
		{
			name: "single source",
			req:  MergeRequest{Sources: []string{"U1600"}, Destination: "Open"},
			want: ErrMergeTooFewSources,
		},
		{
			name: "duplicate source",
			req:  MergeRequest{Sources: []string{"U1600", "U1600"}, Destination: "Open"},
			want: ErrMergeDuplicateSource,
		},
		{
			name: "no destination",
			req:  MergeRequest{Sources: []string{"U1600", "U1800"}},
			want: ErrMergeDestinationMissing,
		},
		{
			name: "destination is a source",
			req:  MergeRequest{Sources: []string{"U1600", "Open"}, Destination: "Open"},
			want: ErrMergeDestinationIsSource,
		},
		{
			name: "missing source section",
			req:  MergeRequest{Sources: []string{"U1600", "U2200"}, Destination: "Open"},
			want: ErrMergeSourceMissing,
		},
		{
			name: "missing existing destination",
			req:  MergeRequest{Sources: []string{"U1600", "U1800"}, Destination: "Reserve"},
			want: ErrMergeDestinationMissing,
		},
		{
			name: "create collides with existing section",
			req:  MergeRequest{Sources: []string{"U1600", "U1800"}, Create: &models.NewSectionSpec{Name: "Open"}},
			want: ErrMergeNameConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestMergeService(
				newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
				newFakeSectionRepo(1, "U1600", "U1800", "Open"),
			)
			if _, _, err := svc.validateRequest(context.Background(), 1, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMergeValidateUnknownTournament(t *testing.T) {
	svc := newTestMergeService(newFakeTournamentRepo(), newFakeSectionRepo(1))

	_, _, err := svc.validateRequest(context.Background(), 9, MergeRequest{
		Sources:     []string{"U1600"},
		Destination: "Open",
	})
	if !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestApplyMergeMovesEveryRecordFamily(t *testing.T) {
	sections := newFakeSectionRepo(1, "U1600", "U1800", "Open")
	players := &fakePlayerRepo{players: []*models.Player{
		activePlayer(1, 1, "Adams", "U1600", 1550),
		activePlayer(2, 1, "Baker", "U1800", 1750),
		activePlayer(3, 1, "Chen", "Open", 1900),
	}}
	pairings := &fakePairingRepo{pairings: []*models.Pairing{
		sectionGame(1, 1, "U1600", 1, 1, 1, 2, models.ResultUnset),
		sectionGame(2, 1, "Open", 1, 1, 3, 1, models.ResultUnset),
	}}
	registrations := &fakeRegistrationRepo{registrations: []*models.Registration{
		{ID: 1, TournamentID: 1, PlayerID: 1, Section: "U1600"},
		{ID: 2, TournamentID: 1, PlayerID: 2, Section: "U1800"},
	}}
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 1, TournamentID: 1, Name: "Knights", Section: "U1600"},
	}}
	prizes := &fakePrizeRepo{prizes: []*models.Prize{
		{ID: 1, TournamentID: 1, Section: "U1800", Place: 1, Description: "First"},
	}}

	svc := &mergeService{
		tournamentRepo:   newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		sectionRepo:      sections,
		playerRepo:       players,
		pairingRepo:      pairings,
		registrationRepo: registrations,
		teamRepo:         teams,
		prizeRepo:        prizes,
		locks:            NewSectionLocker(),
		logger:           testLogger(),
	}

	report, err := svc.applyMerge(context.Background(), nil, 1, "Open", []string{"U1600", "U1800"}, nil)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if report.PlayersUpdated != 2 {
		t.Errorf("players updated = %d, want 2", report.PlayersUpdated)
	}
	if report.PairingsUpdated != 1 {
		t.Errorf("pairings updated = %d, want 1", report.PairingsUpdated)
	}
	if report.RegistrationsMoved != 2 {
		t.Errorf("registrations moved = %d, want 2", report.RegistrationsMoved)
	}
	if report.TeamsUpdated != 1 {
		t.Errorf("teams updated = %d, want 1", report.TeamsUpdated)
	}
	if report.PrizeRecordsUpdated != 1 {
		t.Errorf("prizes updated = %d, want 1", report.PrizeRecordsUpdated)
	}
	if report.SourcesRemoved != 2 {
		t.Errorf("sources removed = %d, want 2", report.SourcesRemoved)
	}

	// The sources are gone, the destination remains, and Chen kept the
	// destination section untouched.
	if _, err := sections.GetByName(context.Background(), 1, "U1600"); err == nil {
		t.Error("U1600 should be deleted")
	}
	if _, err := sections.GetByName(context.Background(), 1, "Open"); err != nil {
		t.Errorf("destination missing: %v", err)
	}
	for _, p := range players.players {
		if p.Section != "Open" {
			t.Errorf("player %s still in %s", p.Name, p.Section)
		}
	}
}

func TestApplyMergeCreatesDestination(t *testing.T) {
	sections := newFakeSectionRepo(1, "U1600", "U1800")
	svc := &mergeService{
		tournamentRepo:   newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		sectionRepo:      sections,
		playerRepo:       &fakePlayerRepo{},
		pairingRepo:      &fakePairingRepo{},
		registrationRepo: &fakeRegistrationRepo{},
		teamRepo:         &fakeTeamRepo{},
		prizeRepo:        &fakePrizeRepo{},
		locks:            NewSectionLocker(),
		logger:           testLogger(),
	}

	min := 1000
	report, err := svc.applyMerge(context.Background(), nil, 1, "Amateur", []string{"U1600", "U1800"}, &models.NewSectionSpec{
		Name:      "Amateur",
		MinRating: &min,
	})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if report.Destination != "Amateur" {
		t.Errorf("report destination = %q", report.Destination)
	}

	created, err := sections.GetByName(context.Background(), 1, "Amateur")
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	if created.MinRating == nil || *created.MinRating != 1000 {
		t.Errorf("rating band not carried: %v", created.MinRating)
	}
}

type failingPrizeRepo struct {
	fakePrizeRepo
}

func (f *failingPrizeRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	return 0, errors.New("constraint violation")
}

func TestApplyMergeSurfacesFamilyFailure(t *testing.T) {
	svc := &mergeService{
		tournamentRepo:   newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		sectionRepo:      newFakeSectionRepo(1, "U1600", "Open"),
		playerRepo:       &fakePlayerRepo{},
		pairingRepo:      &fakePairingRepo{},
		registrationRepo: &fakeRegistrationRepo{},
		teamRepo:         &fakeTeamRepo{},
		prizeRepo:        &failingPrizeRepo{},
		locks:            NewSectionLocker(),
		logger:           testLogger(),
	}

	// A failure in any family aborts the merge; the caller rolls the
	// transaction back so the earlier families never stick.
	report, err := svc.applyMerge(context.Background(), nil, 1, "Open", []string{"U1600"}, nil)
	if err == nil {
		t.Fatal("expected the prize failure to abort the merge")
	}
	if report != nil {
		t.Errorf("no report should be returned on failure, got %+v", report)
	}
}

func TestMergeRollbackRestoresEveryFamily(t *testing.T) {
	sections := newFakeSectionRepo(1, "U1600", "U1800")
	players := &fakePlayerRepo{players: []*models.Player{
		activePlayer(1, 1, "Adams", "U1600", 1550),
		activePlayer(2, 1, "Baker", "U1800", 1750),
	}}
	pairings := &fakePairingRepo{pairings: []*models.Pairing{
		sectionGame(1, 1, "U1600", 1, 1, 1, 2, models.ResultUnset),
	}}
	registrations := &fakeRegistrationRepo{registrations: []*models.Registration{
		{ID: 1, TournamentID: 1, PlayerID: 1, Section: "U1600"},
	}}
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 1, TournamentID: 1, Name: "Knights", Section: "U1800"},
	}}

	svc := &mergeService{
		tournamentRepo:   newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		sectionRepo:      sections,
		playerRepo:       players,
		pairingRepo:      pairings,
		registrationRepo: registrations,
		teamRepo:         teams,
		prizeRepo:        &failingPrizeRepo{},
		locks:            NewSectionLocker(),
		logger:           testLogger(),
	}

	// The prize family fails after the destination was created and four
	// families already moved; rolling back must leave no trace of any of it.
	tx := &fakeTx{}
	_, err := svc.applyMerge(context.Background(), tx, 1, "Amateur", []string{"U1600", "U1800"}, &models.NewSectionSpec{Name: "Amateur"})
	if err == nil {
		t.Fatal("expected the prize failure to abort the merge")
	}
	tx.rollback()

	if players.players[0].Section != "U1600" || players.players[1].Section != "U1800" {
		t.Errorf("player sections not restored: %q, %q", players.players[0].Section, players.players[1].Section)
	}
	if pairings.pairings[0].Section != "U1600" {
		t.Errorf("pairing section not restored: %q", pairings.pairings[0].Section)
	}
	if registrations.registrations[0].Section != "U1600" {
		t.Errorf("registration section not restored: %q", registrations.registrations[0].Section)
	}
	if teams.teams[0].Section != "U1800" {
		t.Errorf("team section not restored: %q", teams.teams[0].Section)
	}
	if _, err := sections.GetByName(context.Background(), 1, "Amateur"); err == nil {
		t.Error("created destination should be gone after rollback")
	}
	for _, name := range []string{"U1600", "U1800"} {
		if _, err := sections.GetByName(context.Background(), 1, name); err != nil {
			t.Errorf("source section %s missing after rollback: %v", name, err)
		}
	}
}

func TestMergeSectionsFailsWhileSourceLocked(t *testing.T) {
	svc := newTestMergeService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "U1600", "U1800", "Open"),
	)

	release, err := svc.locks.acquire(1, "U1600")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	_, err = svc.MergeSections(context.Background(), 1, MergeRequest{
		Sources:     []string{"U1600", "U1800"},
		Destination: "Open",
	})
	if !errors.Is(err, ErrSectionLocked) {
		t.Errorf("expected ErrSectionLocked, got %v", err)
	}
}
