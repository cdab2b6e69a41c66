package pairing

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/openpair/chess-tournaments/models"
)

type swissGenerator struct {
	rng *rand.Rand
}

// NewSwissGenerator returns the default Swiss-system generator: score
// groups, top-half versus bottom-half, repeat avoidance, color balancing,
// and configurable bye policy.
func NewSwissGenerator() Generator {
	return &swissGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func newSwissGenerator(seed int64) *swissGenerator {
	return &swissGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *swissGenerator) Name() string { return "Swiss" }

func (g *swissGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Pairing, []Warning, error) {
	cfg := params.Config
	hist := NewHistory(params.History)
	warnings := make([]Warning, 0)

	pool := make([]*models.Player, 0, len(params.Players))
	var declaredByes []*models.Player
	for _, p := range params.Players {
		if p.Status != models.PlayerActive {
			continue
		}
		if p.HasByeDeclared(params.Round) {
			declaredByes = append(declaredByes, p)
			continue
		}
		pool = append(pool, p)
	}

	if len(pool) == 0 && len(declaredByes) == 0 {
		return nil, nil, errors.New("no active players to pair")
	}

	// Odd pool: someone sits out per the configured bye policy.
	var oddBye *models.Player
	if len(pool)%2 == 1 {
		idx := g.pickByeIndex(pool, hist, cfg)
		oddBye = pool[idx]
		pool = append(pool[:idx:idx], pool[idx+1:]...)
	}

	g.orderPool(pool, hist, cfg)

	pairs := g.buildPairs(pool, hist, cfg, &warnings)

	// Colors, then boards: descending score group order is already the pair
	// order, boards run sequentially from the configured first board.
	board := cfg.FirstBoard
	lastTopColor := Black
	out := make([]*models.Pairing, 0, len(pairs)+len(declaredByes)+1)
	for _, pr := range pairs {
		white, black := g.assignColors(pr[0], pr[1], hist, cfg, &lastTopColor, board, &warnings)
		wID, bID := white.ID, black.ID
		out = append(out, &models.Pairing{
			TournamentID: params.TournamentID,
			Round:        params.Round,
			Section:      params.Section,
			Board:        board,
			WhiteID:      &wID,
			BlackID:      &bID,
		})
		board++
	}

	// Byes occupy the boards after the last game so board numbers stay
	// unique within the round.
	byePoints := cfg.ByePoints
	for _, p := range declaredByes {
		out = append(out, byePairing(params, p.ID, board, byePoints))
		board++
	}
	if oddBye != nil {
		out = append(out, byePairing(params, oddBye.ID, board, byePoints))
	}

	return out, warnings, nil
}

func byePairing(params GenerateParams, playerID, board int, points float64) *models.Pairing {
	id := playerID
	pts := points
	return &models.Pairing{
		TournamentID: params.TournamentID,
		Round:        params.Round,
		Section:      params.Section,
		Board:        board,
		WhiteID:      &id,
		IsBye:        true,
		ByePoints:    &pts,
	}
}

// pickByeIndex chooses who sits out of an odd pool. Lowest policy: lowest
// score, preferring players without a prior bye; ties go to fewest prior
// byes, then ascending rating, then name. Highest inverts the score/rating
// keys; random is uniform.
func (g *swissGenerator) pickByeIndex(pool []*models.Player, hist *History, cfg models.PairingConfig) int {
	if cfg.ByePolicy == models.ByeRandom {
		return g.rng.Intn(len(pool))
	}

	best := 0
	for i := 1; i < len(pool); i++ {
		if byeLess(pool[i], pool[best], hist, cfg.ByePolicy == models.ByeHighest) {
			best = i
		}
	}
	return best
}

func byeLess(a, b *models.Player, hist *History, highest bool) bool {
	ap, bp := hist.Points(a.ID), hist.Points(b.ID)
	if ap != bp {
		if highest {
			return ap > bp
		}
		return ap < bp
	}
	if ab, bb := hist.ByeCount(a.ID), hist.ByeCount(b.ID); ab != bb {
		return ab < bb
	}
	if ar, br := a.RatingOrZero(), b.RatingOrZero(); ar != br {
		if highest {
			return ar > br
		}
		return ar < br
	}
	return a.Name < b.Name
}

// orderPool sorts by score descending, then by the configured board
// ordering within equal scores.
func (g *swissGenerator) orderPool(pool []*models.Player, hist *History, cfg models.PairingConfig) {
	if cfg.BoardOrdering == models.OrderRandom {
		g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	sort.SliceStable(pool, func(i, j int) bool {
		pi, pj := hist.Points(pool[i].ID), hist.Points(pool[j].ID)
		if pi != pj {
			return pi > pj
		}
		switch cfg.BoardOrdering {
		case models.OrderSequential:
			return pool[i].ID < pool[j].ID
		case models.OrderRandom:
			return false // keep shuffled order within the group
		default:
			if ri, rj := pool[i].RatingOrZero(), pool[j].RatingOrZero(); ri != rj {
				return ri > rj
			}
			return pool[i].Name < pool[j].Name
		}
	})
}

// buildPairs walks score groups top-down, pairing the top half of each
// group against its bottom half. An odd group floats its lowest-ranked
// player into the next group. A backtracking pass first looks for a
// rematch-free assignment within the group; only when none exists does the
// greedy fallback accept rematches, each one surfaced as a warning, so
// that pairing always completes.
func (g *swissGenerator) buildPairs(pool []*models.Player, hist *History, cfg models.PairingConfig, warnings *[]Warning) [][2]*models.Player {
	var pairs [][2]*models.Player
	var carry []*models.Player

	for start := 0; start < len(pool); {
		end := start + 1
		score := hist.Points(pool[start].ID)
		for end < len(pool) && hist.Points(pool[end].ID) == score {
			end++
		}
		group := append(carry, pool[start:end]...)
		carry = nil
		if len(group)%2 == 1 {
			carry = []*models.Player{group[len(group)-1]}
			group = group[:len(group)-1]
		}

		half := len(group) / 2
		top, bottom := group[:half], group[half:]

		if assignment := matchGroup(top, bottom, hist, cfg); assignment != nil {
			for i, j := range assignment {
				pairs = append(pairs, [2]*models.Player{top[i], bottom[j]})
			}
			start = end
			continue
		}

		// No repeat-free assignment exists in this group: pair greedily,
		// preferring fresh opponents, and surface each forced rematch.
		used := make([]bool, len(bottom))
		for i := 0; i < len(top); i++ {
			j := g.pickOpponent(top[i], bottom, used, hist, cfg)
			if j < 0 {
				for k := range bottom {
					if !used[k] {
						j = k
						break
					}
				}
				*warnings = append(*warnings, warnf(WarnRepeatPairing, 0,
					[]int{top[i].ID, bottom[j].ID},
					"%s and %s meet again; the rematch could not be avoided in their score group",
					top[i].Name, bottom[j].Name))
			}
			used[j] = true
			pairs = append(pairs, [2]*models.Player{top[i], bottom[j]})
		}

		start = end
	}

	// The pool is even, so the last carry always pairs off inside a group;
	// a leftover here would mean a bookkeeping bug upstream.
	return pairs
}

// matchGroup searches for an assignment of every top player to a distinct
// bottom opponent with no rematches, preferring the natural rank order.
// Backtracking swaps earlier picks before giving up; nil means every
// complete assignment forces at least one rematch (or repeat avoidance is
// off, in which case the greedy pass already does the right thing).
func matchGroup(top, bottom []*models.Player, hist *History, cfg models.PairingConfig) []int {
	if !cfg.AvoidRepeats {
		return nil
	}
	assignment := make([]int, len(top))
	used := make([]bool, len(bottom))

	var place func(i int) bool
	place = func(i int) bool {
		if i == len(top) {
			return true
		}
		for j := range bottom {
			if used[j] || hist.Met(top[i].ID, bottom[j].ID) {
				continue
			}
			used[j] = true
			assignment[i] = j
			if place(i + 1) {
				return true
			}
			used[j] = false
		}
		return false
	}

	if !place(0) {
		return nil
	}
	return assignment
}

func (g *swissGenerator) pickOpponent(p *models.Player, bottom []*models.Player, used []bool, hist *History, cfg models.PairingConfig) int {
	for j := range bottom {
		if used[j] {
			continue
		}
		if cfg.AvoidRepeats && hist.Met(p.ID, bottom[j].ID) {
			continue
		}
		return j
	}
	return -1
}

// assignColors balances cumulative color counts and alternates against the
// most recent color. A two-game imbalance is an absolute preference,
// honored unless both players hold the same absolute preference, in which
// case the larger imbalance wins and the override is surfaced as a warning.
// With no preference on either side the top player's color alternates board
// to board.
func (g *swissGenerator) assignColors(top, bottom *models.Player, hist *History, cfg models.PairingConfig, lastTopColor *Color, board int, warnings *[]Warning) (white, black *models.Player) {
	if !cfg.ColorBalance {
		if *lastTopColor == Black {
			*lastTopColor = White
			return top, bottom
		}
		*lastTopColor = Black
		return bottom, top
	}

	topPref, topAbs := colorPreference(top.ID, hist)
	botPref, botAbs := colorPreference(bottom.ID, hist)

	switch {
	case topAbs && botAbs && topPref == botPref:
		// Both demand the same color; the larger imbalance is honored.
		overridden := bottom
		if abs(hist.ColorDiff(bottom.ID)) > abs(hist.ColorDiff(top.ID)) {
			overridden = top
			white, black = orient(bottom, top, botPref)
		} else {
			white, black = orient(top, bottom, topPref)
		}
		*warnings = append(*warnings, warnf(WarnColorOverride, board,
			[]int{overridden.ID},
			"absolute color preference of %s could not be honored", overridden.Name))
	case topAbs:
		white, black = orient(top, bottom, topPref)
	case botAbs:
		white, black = orient(bottom, top, botPref)
	case topPref != colorNone:
		white, black = orient(top, bottom, topPref)
	case botPref != colorNone:
		white, black = orient(bottom, top, botPref)
	default:
		// No history on either side: alternate the top player's color.
		if *lastTopColor == Black {
			white, black = top, bottom
		} else {
			white, black = bottom, top
		}
	}

	if white == top {
		*lastTopColor = White
	} else {
		*lastTopColor = Black
	}
	return white, black
}

const colorNone Color = -1

// colorPreference returns the color a player is due, and whether the
// preference is absolute (a two-game imbalance).
func colorPreference(id int, hist *History) (Color, bool) {
	diff := hist.ColorDiff(id)
	switch {
	case diff <= -2:
		return White, true
	case diff >= 2:
		return Black, true
	case diff < 0:
		return White, false
	case diff > 0:
		return Black, false
	}
	if last, ok := hist.LastColor(id); ok {
		if last == White {
			return Black, false
		}
		return White, false
	}
	return colorNone, false
}

func orient(preferred, other *models.Player, pref Color) (white, black *models.Player) {
	if pref == White {
		return preferred, other
	}
	return other, preferred
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
