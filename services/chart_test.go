package services

import (
	"strings"
	"testing"

	"github.com/openpair/chess-tournaments/models"
)

func chartPlayer(id int, name string, rating int) *models.Player {
	return &models.Player{ID: id, Name: name, Rating: &rating}
}

func TestBuildPairingsChart(t *testing.T) {
	pts := 1.0
	pairings := []*models.Pairing{
		{
			Board:   1,
			WhiteID: intRef(1),
			BlackID: intRef(2),
			White:   chartPlayer(1, "Adams", 1800),
			Black:   chartPlayer(2, "Baker", 1700),
			Result:  models.ResultWhiteWins,
		},
		{
			Board:   2,
			WhiteID: intRef(3),
			BlackID: intRef(4),
			White:   chartPlayer(3, "Chen", 1600),
			Black:   chartPlayer(4, "Diaz", 1500),
		},
		{
			Board:     3,
			WhiteID:   intRef(5),
			White:     chartPlayer(5, "Evans", 1400),
			IsBye:     true,
			ByePoints: &pts,
		},
	}

	chart := BuildPairingsChart("Open", 2, pairings)

	if !strings.HasPrefix(chart, "Open - Round 2\n") {
		t.Errorf("missing heading:\n%s", chart)
	}
	for _, want := range []string{"Adams (1800)", "Baker (1700)", "1-0", "BYE"} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}

	lines := strings.Split(strings.TrimRight(chart, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected heading, header row and 3 boards, got %d lines", len(lines))
	}
	// Unplayed game shows "*", the bye row shows its awarded points.
	if !strings.HasSuffix(strings.TrimRight(lines[3], " "), "*") {
		t.Errorf("board 2 should be unresolved: %q", lines[3])
	}
	if !strings.HasSuffix(strings.TrimRight(lines[4], " "), "1") {
		t.Errorf("bye row should show points: %q", lines[4])
	}
}

func TestBuildStandingsChart(t *testing.T) {
	entries := []*models.StandingEntry{
		{
			Rank:     1,
			PlayerID: 1,
			Points:   2.5,
			Player:   chartPlayer(1, "Adams", 1800),
			Tiebreaks: []models.TiebreakScore{
				{Name: "buchholz", Score: 6.0},
				{Name: "sonneborn_berger", Score: 4.25},
			},
		},
		{
			Rank:     2,
			PlayerID: 2,
			Points:   2.0,
			Player:   chartPlayer(2, "Baker", 1700),
			Tiebreaks: []models.TiebreakScore{
				{Name: "buchholz", Score: 5.5},
				{Name: "sonneborn_berger", Score: 3.0},
			},
		},
	}

	chart := BuildStandingsChart("Open", entries)

	if !strings.HasPrefix(chart, "Open - Standings\n") {
		t.Errorf("missing heading:\n%s", chart)
	}
	for _, want := range []string{"Buchholz", "S-B", "Adams (1800)", "2.5", "4.2"} {
		if !strings.Contains(chart, want) {
			t.Errorf("chart missing %q:\n%s", want, chart)
		}
	}

	// Rank order is the entry order.
	if strings.Index(chart, "Adams") > strings.Index(chart, "Baker") {
		t.Error("entries should render in rank order")
	}
}

func TestPlayerLabelFallbacks(t *testing.T) {
	if got := playerLabel(chartPlayer(1, "Adams", 1800), intRef(1)); got != "Adams (1800)" {
		t.Errorf("rated player label = %q", got)
	}
	if got := playerLabel(&models.Player{ID: 2, Name: "Baker"}, intRef(2)); got != "Baker" {
		t.Errorf("unrated player label = %q", got)
	}
	if got := playerLabel(nil, intRef(7)); got != "#7" {
		t.Errorf("id-only label = %q", got)
	}
	if got := playerLabel(nil, nil); got != "-" {
		t.Errorf("empty label = %q", got)
	}
}
