package services

import (
	"fmt"
	"strings"

	"github.com/openpair/chess-tournaments/models"
)

// BuildPairingsChart renders a round's boards as an aligned text table,
// the form posted at the board or printed for the wall.
func BuildPairingsChart(section string, round int, pairings []*models.Pairing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - Round %d\n", section, round)

	nameWidth := len("White")
	for _, p := range pairings {
		if w := len(playerLabel(p.White, p.WhiteID)); w > nameWidth {
			nameWidth = w
		}
		if w := len(playerLabel(p.Black, p.BlackID)); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintf(&sb, "%-5s  %-*s  %-*s  %s\n", "Board", nameWidth, "White", nameWidth, "Black", "Result")
	for _, p := range pairings {
		white := playerLabel(p.White, p.WhiteID)
		black := playerLabel(p.Black, p.BlackID)
		result := "*"
		switch {
		case p.IsBye:
			black = "BYE"
			if p.ByePoints != nil {
				result = fmt.Sprintf("%g", *p.ByePoints)
			}
		case p.Result.IsSet():
			result = string(p.Result)
		}
		fmt.Fprintf(&sb, "%-5d  %-*s  %-*s  %s\n", p.Board, nameWidth, white, nameWidth, black, result)
	}
	return sb.String()
}

// BuildStandingsChart renders ranked standings with each configured
// tiebreak in its own column.
func BuildStandingsChart(section string, entries []*models.StandingEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s - Standings\n", section)

	nameWidth := len("Player")
	for _, e := range entries {
		if w := len(playerLabel(e.Player, &e.PlayerID)); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintf(&sb, "%-4s  %-*s  %-6s", "Rank", nameWidth, "Player", "Points")
	if len(entries) > 0 {
		for _, tb := range entries[0].Tiebreaks {
			fmt.Fprintf(&sb, "  %-10s", tiebreakHeading(tb.Name))
		}
	}
	sb.WriteByte('\n')

	for _, e := range entries {
		fmt.Fprintf(&sb, "%-4d  %-*s  %-6.1f", e.Rank, nameWidth, playerLabel(e.Player, &e.PlayerID), e.Points)
		for _, tb := range e.Tiebreaks {
			fmt.Fprintf(&sb, "  %-10.1f", tb.Score)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func playerLabel(p *models.Player, id *int) string {
	switch {
	case p != nil && p.Rating != nil:
		return fmt.Sprintf("%s (%d)", p.Name, *p.Rating)
	case p != nil:
		return p.Name
	case id != nil:
		return fmt.Sprintf("#%d", *id)
	default:
		return "-"
	}
}

func tiebreakHeading(name string) string {
	switch name {
	case "buchholz":
		return "Buchholz"
	case "sonneborn_berger":
		return "S-B"
	case "head_to_head":
		return "H2H"
	case "cumulative":
		return "Cumulative"
	default:
		return name
	}
}
