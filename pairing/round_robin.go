package pairing

import (
	"context"
	"fmt"
	"sort"

	"github.com/openpair/chess-tournaments/models"
)

type roundRobinGenerator struct{}

// NewRoundRobinGenerator returns a generator producing one round of a
// single round-robin via the circle method. With n players the schedule
// spans n-1 rounds (n rounds when n is odd, each round sitting one player
// out with a bye).
func NewRoundRobinGenerator() Generator {
	return &roundRobinGenerator{}
}

func (g *roundRobinGenerator) Name() string { return "RoundRobin" }

func (g *roundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Pairing, []Warning, error) {
	active := 0
	players := make([]*models.Player, 0, len(params.Players))
	var declaredByes []*models.Player
	for _, p := range params.Players {
		if p.Status != models.PlayerActive {
			continue
		}
		active++
		if p.HasByeDeclared(params.Round) {
			declaredByes = append(declaredByes, p)
			continue
		}
		players = append(players, p)
	}
	if active < 2 {
		return nil, nil, fmt.Errorf("round robin needs at least 2 active players, found %d", active)
	}

	// A round where declared byes leave fewer than two players has no
	// games; everyone left sits out with the rotation bye.
	if len(players) < 2 {
		board := params.Config.FirstBoard
		out := make([]*models.Pairing, 0, len(declaredByes)+1)
		for _, p := range declaredByes {
			out = append(out, byePairing(params, p.ID, board, params.Config.ByePoints))
			board++
		}
		for _, p := range players {
			out = append(out, byePairing(params, p.ID, board, params.Config.ByePoints))
			board++
		}
		return out, nil, nil
	}

	// Seat order is fixed for the whole event so that every round of the
	// rotation stays consistent: rating descending, name as tie-break.
	sort.Slice(players, func(i, j int) bool {
		if ri, rj := players[i].RatingOrZero(), players[j].RatingOrZero(); ri != rj {
			return ri > rj
		}
		return players[i].Name < players[j].Name
	})

	// The schedule length follows the full active roster; declared byes
	// thin a single round's rotation without shortening the event.
	schedule := active
	if schedule%2 == 1 {
		schedule++
	}
	totalRounds := schedule - 1
	if params.Round > totalRounds {
		return nil, nil, fmt.Errorf("round robin schedule has %d rounds, round %d requested", totalRounds, params.Round)
	}

	n := len(players)
	if n%2 == 1 {
		n++ // virtual seat; its opponent receives the bye
	}

	seat := func(i int) *models.Player {
		if i >= len(players) {
			return nil
		}
		return players[i]
	}

	// Circle method: seat 0 is fixed, the rest rotate by round-1 positions.
	// The rotation wraps within the thinned pool when declared byes have
	// shrunk it below the event schedule.
	r := (params.Round - 1) % (n - 1)
	rotated := make([]int, 0, n-1)
	for i := 1; i < n; i++ {
		rotated = append(rotated, 1+((i-1+r)%(n-1)))
	}

	board := params.Config.FirstBoard
	out := make([]*models.Pairing, 0, n/2)
	var byeRecipient *models.Player

	appendPair := func(a, b *models.Player, aWhite bool) {
		if a == nil || b == nil {
			p := a
			if p == nil {
				p = b
			}
			byeRecipient = p
			return
		}
		white, black := a, b
		if !aWhite {
			white, black = b, a
		}
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

	// Fixed seat alternates color each round; the rotating pairs alternate
	// across boards within the round.
	appendPair(seat(0), seat(rotated[n-2]), params.Round%2 == 1)
	for k := 1; k < n/2; k++ {
		appendPair(seat(rotated[k-1]), seat(rotated[n-2-k]), (params.Round+k)%2 == 0)
	}

	// Byes take the boards after the last game: declared byes first, then
	// the rotation bye of an odd pool.
	for _, p := range declaredByes {
		out = append(out, byePairing(params, p.ID, board, params.Config.ByePoints))
		board++
	}
	if byeRecipient != nil {
		out = append(out, byePairing(params, byeRecipient.ID, board, params.Config.ByePoints))
	}

	return out, nil, nil
}
