package pairing

import (
	"context"
	"testing"

	"github.com/openpair/chess-tournaments/models"
)

func testPlayer(id int, name string, rating int) *models.Player {
	r := rating
	return &models.Player{
		ID:     id,
		Name:   name,
		Rating: &r,
		Status: models.PlayerActive,
	}
}

func gamePairing(round, board, whiteID, blackID int, result models.Result) *models.Pairing {
	w, b := whiteID, blackID
	return &models.Pairing{
		Round:   round,
		Board:   board,
		WhiteID: &w,
		BlackID: &b,
		Result:  result,
	}
}

func byeFor(round, board, playerID int) *models.Pairing {
	id := playerID
	pts := 1.0
	return &models.Pairing{
		Round:     round,
		Board:     board,
		WhiteID:   &id,
		IsBye:     true,
		ByePoints: &pts,
	}
}

func generateSwiss(t *testing.T, params GenerateParams) ([]*models.Pairing, []Warning) {
	t.Helper()
	gen := newSwissGenerator(1)
	out, warnings, err := gen.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	return out, warnings
}

func findPairingFor(t *testing.T, pairings []*models.Pairing, playerID int) *models.Pairing {
	t.Helper()
	for _, p := range pairings {
		if p.Involves(playerID) {
			return p
		}
	}
	t.Fatalf("no pairing involves player %d", playerID)
	return nil
}

func TestSwissFirstRoundTopHalfBottomHalf(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
		testPlayer(5, "Evans", 1400),
		testPlayer(6, "Ford", 1300),
	}

	out, warnings := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  models.DefaultPairingConfig(),
	})

	if len(out) != 3 {
		t.Fatalf("expected 3 pairings, got %d", len(out))
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings in round 1, got %v", warnings)
	}

	// Rating order splits 1,2,3 against 4,5,6.
	wantOpponent := map[int]int{1: 4, 2: 5, 3: 6}
	for top, bottom := range wantOpponent {
		p := findPairingFor(t, out, top)
		if !p.Involves(bottom) {
			t.Errorf("expected player %d paired with %d, got %+v", top, bottom, p)
		}
	}

	// Boards run sequentially from 1 in pairing order.
	for i, p := range out {
		if p.Board != i+1 {
			t.Errorf("board %d: expected board number %d, got %d", i, i+1, p.Board)
		}
	}
}

func TestSwissFiveToStartLowestGetsBye(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
		testPlayer(5, "Evans", 1400),
	}

	out, _ := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  models.DefaultPairingConfig(),
	})

	if len(out) != 3 {
		t.Fatalf("expected 2 games plus a bye, got %d pairings", len(out))
	}

	bye := findPairingFor(t, out, 5)
	if !bye.IsBye {
		t.Fatalf("expected the lowest-rated player to receive the bye, got %+v", bye)
	}
	if bye.ByePoints == nil || *bye.ByePoints != 1.0 {
		t.Errorf("expected full-point bye, got %v", bye.ByePoints)
	}
	if bye.BlackID != nil {
		t.Errorf("bye pairing must not carry an opponent, got black %v", *bye.BlackID)
	}
	if bye.Board != 3 {
		t.Errorf("bye should take the board after the last game, got %d", bye.Board)
	}
}

func TestSwissSecondRoundGroupsByScore(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
	}
	// Round 1: 1 beat 3, 4 beat 2. Winners 1 and 4 meet in round 2.
	history := []*models.Pairing{
		gamePairing(1, 1, 1, 3, models.ResultWhiteWins),
		gamePairing(1, 2, 4, 2, models.ResultWhiteWins),
	}

	out, warnings := generateSwiss(t, GenerateParams{
		Round:   2,
		Players: players,
		History: history,
		Config:  models.DefaultPairingConfig(),
	})

	if len(out) != 2 {
		t.Fatalf("expected 2 pairings, got %d", len(out))
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	winners := findPairingFor(t, out, 1)
	if !winners.Involves(4) {
		t.Errorf("expected the winners paired together, got %+v", winners)
	}
	losers := findPairingFor(t, out, 2)
	if !losers.Involves(3) {
		t.Errorf("expected the losers paired together, got %+v", losers)
	}
}

func TestSwissAvoidsRepeatOpponents(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
	}
	// All drawn, so everyone stays on the same score. 1 already played 3.
	history := []*models.Pairing{
		gamePairing(1, 1, 1, 3, models.ResultDraw),
		gamePairing(1, 2, 4, 2, models.ResultDraw),
	}

	out, warnings := generateSwiss(t, GenerateParams{
		Round:   2,
		Players: players,
		History: history,
		Config:  models.DefaultPairingConfig(),
	})

	if len(warnings) != 0 {
		t.Errorf("expected no repeat warnings, got %v", warnings)
	}
	p := findPairingFor(t, out, 1)
	if p.Involves(3) {
		t.Errorf("players 1 and 3 were paired again: %+v", p)
	}
}

func TestSwissBacktracksToAvoidRepeat(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1750),
		testPlayer(3, "Chen", 1700),
		testPlayer(4, "Diaz", 1650),
		testPlayer(5, "Evans", 1600),
		testPlayer(6, "Flores", 1550),
	}
	halfBye := func(round, board, playerID int) *models.Pairing {
		id := playerID
		pts := 0.5
		return &models.Pairing{
			Round:     round,
			Board:     board,
			WhiteID:   &id,
			IsBye:     true,
			ByePoints: &pts,
		}
	}
	// Everyone sits on 1.0, one score group. Baker has already met both
	// Evans and Flores, so a rank-order greedy pick (Adams taking Diaz
	// first) would leave Baker only rematches; swapping Adams onto Evans
	// frees Diaz for Baker.
	history := []*models.Pairing{
		gamePairing(1, 1, 2, 5, models.ResultDraw),
		gamePairing(1, 2, 1, 3, models.ResultDraw),
		gamePairing(1, 3, 4, 6, models.ResultDraw),
		gamePairing(2, 1, 2, 6, models.ResultDraw),
		halfBye(2, 2, 1),
		halfBye(2, 3, 3),
		halfBye(2, 4, 4),
		halfBye(2, 5, 5),
	}

	out, warnings := generateSwiss(t, GenerateParams{
		Round:   3,
		Players: players,
		History: history,
		Config:  models.DefaultPairingConfig(),
	})

	for _, w := range warnings {
		if w.Code == WarnRepeatPairing {
			t.Errorf("a rematch-free assignment exists but a repeat was accepted: %s", w.Message)
		}
	}

	hist := NewHistory(history)
	for _, p := range out {
		if p.IsBye {
			t.Errorf("even pool should produce no byes, got one for %d", *p.WhiteID)
			continue
		}
		if hist.Met(*p.WhiteID, *p.BlackID) {
			t.Errorf("board %d repeats a previous pairing: %d vs %d", p.Board, *p.WhiteID, *p.BlackID)
		}
	}
}

func TestSwissForcedRepeatWarnsAndPairs(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
	}
	history := []*models.Pairing{
		gamePairing(1, 1, 1, 2, models.ResultDraw),
	}

	out, warnings := generateSwiss(t, GenerateParams{
		Round:   2,
		Players: players,
		History: history,
		Config:  models.DefaultPairingConfig(),
	})

	if len(out) != 1 {
		t.Fatalf("expected the repeat to be paired anyway, got %d pairings", len(out))
	}
	if len(warnings) != 1 || warnings[0].Code != WarnRepeatPairing {
		t.Fatalf("expected a repeat_pairing warning, got %v", warnings)
	}
}

func TestSwissDeclaredByeExcludedFromPool(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
	}
	players[3].ByeRounds = []int{1}

	out, _ := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  models.DefaultPairingConfig(),
	})

	// 3 stays in an odd pool and sits out; 4 takes the declared bye.
	if len(out) != 3 {
		t.Fatalf("expected 1 game and 2 byes, got %d pairings", len(out))
	}
	declared := findPairingFor(t, out, 4)
	if !declared.IsBye {
		t.Errorf("expected declared bye for player 4, got %+v", declared)
	}
	odd := findPairingFor(t, out, 3)
	if !odd.IsBye {
		t.Errorf("expected odd-pool bye for lowest remaining player, got %+v", odd)
	}

	seen := make(map[int]bool)
	for _, p := range out {
		if seen[p.Board] {
			t.Errorf("board %d used twice", p.Board)
		}
		seen[p.Board] = true
	}
}

func TestSwissSkipsWithdrawnPlayers(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
	}
	players[1].Status = models.PlayerWithdrawn

	out, _ := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  models.DefaultPairingConfig(),
	})

	for _, p := range out {
		if p.Involves(2) {
			t.Fatalf("withdrawn player was paired: %+v", p)
		}
	}
}

func TestSwissAbsoluteColorPreferenceHonored(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
	}
	// Player 1 was white twice against other opponents; due black absolutely.
	history := []*models.Pairing{
		gamePairing(1, 1, 1, 3, models.ResultWhiteWins),
		gamePairing(2, 1, 1, 4, models.ResultBlackWins),
	}

	out, _ := generateSwiss(t, GenerateParams{
		Round:   3,
		Players: players,
		History: history,
		Config:  models.DefaultPairingConfig(),
	})

	p := findPairingFor(t, out, 1)
	if p.BlackID == nil || *p.BlackID != 1 {
		t.Errorf("expected player 1 to get black after two whites, got %+v", p)
	}
}

func TestSwissFirstBoardOffset(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
		testPlayer(4, "Diaz", 1500),
	}
	cfg := models.DefaultPairingConfig()
	cfg.FirstBoard = 10

	out, _ := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  cfg,
	})

	if out[0].Board != 10 || out[1].Board != 11 {
		t.Errorf("expected boards 10 and 11, got %d and %d", out[0].Board, out[1].Board)
	}
}

func TestSwissByePolicyHighest(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1800),
		testPlayer(2, "Baker", 1700),
		testPlayer(3, "Chen", 1600),
	}
	cfg := models.DefaultPairingConfig()
	cfg.ByePolicy = models.ByeHighest

	out, _ := generateSwiss(t, GenerateParams{
		Round:   1,
		Players: players,
		Config:  cfg,
	})

	bye := findPairingFor(t, out, 1)
	if !bye.IsBye {
		t.Errorf("expected the highest-rated player to sit out, got %+v", bye)
	}
}

func TestSwissByeTieBreakPrefersFewestPriorByes(t *testing.T) {
	players := []*models.Player{
		testPlayer(1, "Adams", 1500),
		testPlayer(2, "Baker", 1500),
		testPlayer(3, "Chen", 1800),
	}
	// Player 1 already sat out once; player 2 drew a game for the same
	// half point is not possible, so give both a bye-equivalent score.
	history := []*models.Pairing{
		byeFor(1, 2, 1),
		gamePairing(1, 1, 2, 3, models.ResultWhiteWins),
	}

	cfg := models.DefaultPairingConfig()
	out, _ := generateSwiss(t, GenerateParams{
		Round:   2,
		Players: players,
		History: history,
		Config:  cfg,
	})

	// Player 3 is on 0 points and gets the bye; among equal scores a prior
	// bye would have deflected it.
	bye := findPairingFor(t, out, 3)
	if !bye.IsBye {
		t.Errorf("expected the zero-score player to sit out, got %+v", bye)
	}
}

func TestSwissNoPlayersError(t *testing.T) {
	gen := newSwissGenerator(1)
	_, _, err := gen.Generate(context.Background(), GenerateParams{
		Round:  1,
		Config: models.DefaultPairingConfig(),
	})
	if err == nil {
		t.Fatal("expected an error for an empty roster")
	}
}
