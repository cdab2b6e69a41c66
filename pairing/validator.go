package pairing

import (
	"fmt"
	"sort"

	"github.com/openpair/chess-tournaments/models"
)

type ErrCode string

const (
	ErrDuplicateBoard ErrCode = "duplicate_board"
	ErrSelfPairing    ErrCode = "self_pairing"
	ErrDoubleBooking  ErrCode = "double_booking"
)

// StructuralError is a hard defect in a round's pairings. Structural errors
// always block saving and are never downgraded to warnings.
type StructuralError struct {
	Code     ErrCode `json:"code"`
	Message  string  `json:"message"`
	Board    int     `json:"board,omitempty"`
	PlayerID int     `json:"player_id,omitempty"`
}

func (e StructuralError) Error() string { return e.Message }

// Validate checks one round's pairings for structural errors and fairness
// warnings. history holds the section's pairings from earlier rounds and
// roster the section's players (used for rating-gap and color warnings).
// Validate never mutates its inputs and its output depends only on them.
func Validate(round []*models.Pairing, history []*models.Pairing, roster []*models.Player, cfg models.PairingConfig) ([]StructuralError, []Warning) {
	ordered := make([]*models.Pairing, len(round))
	copy(ordered, round)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Board < ordered[j].Board })

	var errs []StructuralError
	var warns []Warning

	players := make(map[int]*models.Player, len(roster))
	for _, p := range roster {
		players[p.ID] = p
	}

	seenBoard := make(map[int]bool)
	seenPlayer := make(map[int]int) // player -> first board
	hist := NewHistory(history)

	// Color counts including this round's assignments, for the imbalance
	// warning. Byes and forfeits carry no color.
	whites := make(map[int]int)
	blacks := make(map[int]int)

	for _, p := range ordered {
		if seenBoard[p.Board] {
			errs = append(errs, StructuralError{
				Code:    ErrDuplicateBoard,
				Message: fmt.Sprintf("board %d assigned more than once", p.Board),
				Board:   p.Board,
			})
		}
		seenBoard[p.Board] = true

		if p.WhiteID != nil && p.BlackID != nil && *p.WhiteID == *p.BlackID {
			errs = append(errs, StructuralError{
				Code:     ErrSelfPairing,
				Message:  fmt.Sprintf("player %d paired against themselves on board %d", *p.WhiteID, p.Board),
				Board:    p.Board,
				PlayerID: *p.WhiteID,
			})
		}

		for _, idp := range []*int{p.WhiteID, p.BlackID} {
			if idp == nil {
				continue
			}
			if prev, ok := seenPlayer[*idp]; ok {
				errs = append(errs, StructuralError{
					Code:     ErrDoubleBooking,
					Message:  fmt.Sprintf("player %d appears on board %d and board %d", *idp, prev, p.Board),
					Board:    p.Board,
					PlayerID: *idp,
				})
			} else {
				seenPlayer[*idp] = p.Board
			}
		}

		if p.IsBye || p.WhiteID == nil || p.BlackID == nil {
			continue
		}
		w, b := *p.WhiteID, *p.BlackID

		if !p.Result.IsForfeit() {
			whites[w]++
			blacks[b]++
		}

		if hist.Met(w, b) {
			warns = append(warns, warnf(WarnRepeatPairing, p.Board, []int{w, b},
				"players %s and %s met in an earlier round",
				playerName(players, w), playerName(players, b)))
		}

		if cfg.RatingGapMax > 0 {
			pw, pb := players[w], players[b]
			if pw != nil && pb != nil && pw.Rating != nil && pb.Rating != nil {
				if gap := abs(*pw.Rating - *pb.Rating); gap > cfg.RatingGapMax {
					warns = append(warns, warnf(WarnRatingGap, p.Board, []int{w, b},
						"rating gap of %d between %s and %s exceeds %d",
						gap, pw.Name, pb.Name, cfg.RatingGapMax))
				}
			}
		}
	}

	// Cumulative color imbalance across the tournament, this round included.
	ids := make([]int, 0, len(seenPlayer))
	for id := range seenPlayer {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		total := hist.ColorDiff(id) + whites[id] - blacks[id]
		if abs(total) > cfg.ColorImbalanceMax {
			warns = append(warns, warnf(WarnColorImbalance, seenPlayer[id], []int{id},
				"%s has a color imbalance of %+d games", playerName(players, id), total))
		}
	}

	return errs, warns
}

func playerName(players map[int]*models.Player, id int) string {
	if p, ok := players[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("player %d", id)
}
