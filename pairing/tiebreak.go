package pairing

import (
	"fmt"
	"sort"

	"github.com/openpair/chess-tournaments/models"
)

// Tiebreak is a secondary ranking metric. Implementations are pure
// functions of (player, section history).
type Tiebreak interface {
	Name() string
	Score(playerID int, h *History) float64
}

// TiebreaksByName resolves a configured priority list into calculators.
func TiebreaksByName(names []string) ([]Tiebreak, error) {
	out := make([]Tiebreak, 0, len(names))
	for _, name := range names {
		switch name {
		case "buchholz":
			out = append(out, buchholz{})
		case "sonneborn_berger":
			out = append(out, sonnebornBerger{})
		case "head_to_head":
			out = append(out, headToHead{})
		case "cumulative":
			out = append(out, cumulative{})
		default:
			return nil, fmt.Errorf("unknown tiebreak system %q", name)
		}
	}
	return out, nil
}

// buchholz sums the final scores of every opponent faced. Byes contribute
// no opponent and therefore nothing.
type buchholz struct{}

func (buchholz) Name() string { return "buchholz" }

func (buchholz) Score(playerID int, h *History) float64 {
	var sum float64
	for _, g := range h.games[playerID] {
		if g.bye || !g.resolved {
			continue
		}
		sum += h.Points(g.opponent)
	}
	return sum
}

// sonnebornBerger sums the scores of defeated opponents plus half the
// scores of drawn opponents.
type sonnebornBerger struct{}

func (sonnebornBerger) Name() string { return "sonneborn_berger" }

func (sonnebornBerger) Score(playerID int, h *History) float64 {
	var sum float64
	for _, g := range h.games[playerID] {
		if g.bye || !g.resolved {
			continue
		}
		switch g.points {
		case 1:
			sum += h.Points(g.opponent)
		case 0.5:
			sum += h.Points(g.opponent) / 2
		}
	}
	return sum
}

// headToHead sums the points scored in games against opponents who finished
// on the same total, so a player who beat their co-leaders ranks above one
// who lost to them.
type headToHead struct{}

func (headToHead) Name() string { return "head_to_head" }

func (headToHead) Score(playerID int, h *History) float64 {
	own := h.Points(playerID)
	var sum float64
	for _, g := range h.games[playerID] {
		if g.bye || !g.resolved {
			continue
		}
		if h.Points(g.opponent) == own {
			sum += g.points
		}
	}
	return sum
}

// cumulative sums the running score after every round, rewarding early
// wins. Unplayed rounds contribute the score standing at that time.
type cumulative struct{}

func (cumulative) Name() string { return "cumulative" }

func (cumulative) Score(playerID int, h *History) float64 {
	var running, sum float64
	for _, g := range h.games[playerID] {
		if g.resolved {
			running += g.points
		}
		sum += running
	}
	return sum
}

// ComputeStandings derives ranked standings for a section from its players
// and full pairing history. Only resolved pairings contribute points. Ranks
// are strictly positional: ties left after every configured tiebreak are
// broken by player name so output is deterministic.
func ComputeStandings(players []*models.Player, pairings []*models.Pairing, tiebreaks []Tiebreak) []*models.StandingEntry {
	h := NewHistory(pairings)

	entries := make([]*models.StandingEntry, 0, len(players))
	for _, p := range players {
		e := &models.StandingEntry{
			PlayerID: p.ID,
			Player:   p,
			Points:   h.Points(p.ID),
		}
		for _, g := range h.games[p.ID] {
			if !g.resolved {
				continue
			}
			if g.bye {
				e.Byes++
				continue
			}
			e.GamesPlayed++
			switch g.points {
			case 1:
				e.Wins++
			case 0.5:
				e.Draws++
			default:
				e.Losses++
			}
		}
		for _, tb := range tiebreaks {
			e.Tiebreaks = append(e.Tiebreaks, models.TiebreakScore{
				Name:  tb.Name(),
				Score: tb.Score(p.ID, h),
			})
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		for k := range entries[i].Tiebreaks {
			si, sj := entries[i].Tiebreaks[k].Score, entries[j].Tiebreaks[k].Score
			if si != sj {
				return si > sj
			}
		}
		return entries[i].Player.Name < entries[j].Player.Name
	})

	for i, e := range entries {
		e.Rank = i + 1
	}
	return entries
}
