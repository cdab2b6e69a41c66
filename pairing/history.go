package pairing

import (
	"sort"

	"github.com/openpair/chess-tournaments/models"
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// game is one entry of a player's section history.
type game struct {
	round    int
	opponent int // 0 for byes
	points   float64
	bye      bool
	resolved bool
}

// History precomputes per-player aggregates over a section's pairings:
// current score, color counts, opponents met, and byes received. It is the
// shared substrate of the Swiss generator, the validator, and the tiebreak
// calculators.
type History struct {
	points     map[int]float64
	whiteGames map[int]int
	blackGames map[int]int
	lastColor  map[int]Color
	lastRound  map[int]int
	byeCount   map[int]int
	met        map[int]map[int]bool
	games      map[int][]game
	maxRound   int
}

// NewHistory indexes pairings. Points come only from resolved pairings;
// opponents-met and color counts include unresolved ones, since the seating
// already happened. Forfeit results are excluded from color counts because
// no game was played.
func NewHistory(pairings []*models.Pairing) *History {
	h := &History{
		points:     make(map[int]float64),
		whiteGames: make(map[int]int),
		blackGames: make(map[int]int),
		lastColor:  make(map[int]Color),
		lastRound:  make(map[int]int),
		byeCount:   make(map[int]int),
		met:        make(map[int]map[int]bool),
		games:      make(map[int][]game),
	}

	for _, p := range pairings {
		if p.Round > h.maxRound {
			h.maxRound = p.Round
		}
		if p.IsBye {
			if p.WhiteID == nil {
				continue
			}
			id := *p.WhiteID
			pts := 1.0
			if p.ByePoints != nil {
				pts = *p.ByePoints
			}
			h.points[id] += pts
			h.byeCount[id]++
			h.games[id] = append(h.games[id], game{round: p.Round, points: pts, bye: true, resolved: true})
			continue
		}
		if p.WhiteID == nil || p.BlackID == nil {
			continue
		}
		w, b := *p.WhiteID, *p.BlackID

		h.markMet(w, b)
		if !p.Result.IsForfeit() {
			h.whiteGames[w]++
			h.blackGames[b]++
			if p.Round >= h.lastRound[w] {
				h.lastRound[w] = p.Round
				h.lastColor[w] = White
			}
			if p.Round >= h.lastRound[b] {
				h.lastRound[b] = p.Round
				h.lastColor[b] = Black
			}
		}

		if p.Result.IsSet() {
			wp, bp := p.Result.Points()
			h.points[w] += wp
			h.points[b] += bp
			h.games[w] = append(h.games[w], game{round: p.Round, opponent: b, points: wp, resolved: true})
			h.games[b] = append(h.games[b], game{round: p.Round, opponent: w, points: bp, resolved: true})
		} else {
			h.games[w] = append(h.games[w], game{round: p.Round, opponent: b})
			h.games[b] = append(h.games[b], game{round: p.Round, opponent: w})
		}
	}

	for id := range h.games {
		sort.Slice(h.games[id], func(i, j int) bool {
			return h.games[id][i].round < h.games[id][j].round
		})
	}

	return h
}

func (h *History) markMet(a, b int) {
	if h.met[a] == nil {
		h.met[a] = make(map[int]bool)
	}
	if h.met[b] == nil {
		h.met[b] = make(map[int]bool)
	}
	h.met[a][b] = true
	h.met[b][a] = true
}

// Points returns the player's current score, byes included.
func (h *History) Points(id int) float64 { return h.points[id] }

// Met reports whether a and b have faced each other in this section.
func (h *History) Met(a, b int) bool { return h.met[a][b] }

// ColorDiff returns white games minus black games for the player. A value
// of +2 or more means an absolute black preference, -2 or less an absolute
// white preference.
func (h *History) ColorDiff(id int) int {
	return h.whiteGames[id] - h.blackGames[id]
}

// LastColor returns the color the player held most recently, if any.
func (h *History) LastColor(id int) (Color, bool) {
	if h.lastRound[id] == 0 {
		return White, false
	}
	return h.lastColor[id], true
}

// ByeCount returns how many byes the player has received this tournament.
func (h *History) ByeCount(id int) int { return h.byeCount[id] }

// MaxRound returns the highest round number seen in the history.
func (h *History) MaxRound() int { return h.maxRound }
