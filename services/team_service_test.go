package services

import (
	"context"
	"errors"
	"testing"

	"github.com/openpair/chess-tournaments/models"
)

func newTestTeamService(tournaments *fakeTournamentRepo, sections *fakeSectionRepo, teams *fakeTeamRepo) *teamService {
	return &teamService{
		tournamentRepo: tournaments,
		sectionRepo:    sections,
		teamRepo:       teams,
		logger:         testLogger(),
	}
}

func TestCreateTeamBindsToSection(t *testing.T) {
	teams := &fakeTeamRepo{}
	svc := newTestTeamService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "Open", "U1800"),
		teams,
	)

	team, err := svc.CreateTeam(context.Background(), 1, CreateTeamInput{Name: "Knights", Section: "U1800"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if team.ID == 0 || team.Section != "U1800" {
		t.Errorf("unexpected team: %+v", team)
	}

	listed, err := svc.ListTeams(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 || listed[0].Name != "Knights" {
		t.Errorf("team not listed: %v", listed)
	}
}

func TestCreateTeamValidation(t *testing.T) {
	svc := newTestTeamService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "Open"),
		&fakeTeamRepo{},
	)

	if _, err := svc.CreateTeam(context.Background(), 1, CreateTeamInput{Section: "Open"}); !errors.Is(err, ErrTeamNameRequired) {
		t.Errorf("empty name: got %v", err)
	}
	if _, err := svc.CreateTeam(context.Background(), 9, CreateTeamInput{Name: "Knights", Section: "Open"}); !errors.Is(err, ErrTournamentNotFound) {
		t.Errorf("unknown tournament: got %v", err)
	}
	if _, err := svc.CreateTeam(context.Background(), 1, CreateTeamInput{Name: "Knights", Section: "U1200"}); !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("unknown section: got %v", err)
	}
}

func TestCreateTeamRejectsDuplicateName(t *testing.T) {
	svc := newTestTeamService(
		newFakeTournamentRepo(&models.Tournament{ID: 1, Rounds: 4}),
		newFakeSectionRepo(1, "Open"),
		&fakeTeamRepo{teams: []*models.Team{
			{ID: 1, TournamentID: 1, Name: "Knights", Section: "Open"},
		}},
	)

	if _, err := svc.CreateTeam(context.Background(), 1, CreateTeamInput{Name: "Knights", Section: "Open"}); !errors.Is(err, ErrTeamNameConflict) {
		t.Errorf("duplicate name: got %v", err)
	}
}
