package services

import (
	"context"
	"database/sql"

	"github.com/openpair/chess-tournaments/models"
	"github.com/openpair/chess-tournaments/repositories"
)

// In-memory repository fakes for exercising service-level rules that do
// not reach a database transaction.

// fakeTx satisfies repositories.SQLExecutor so it can stand in for a real
// transaction. Fake repository methods that receive one register an undo
// step per mutation; rollback replays the steps in reverse, imitating what
// the database does when a transaction aborts.
type fakeTx struct {
	undo []func()
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func recordUndo(exec repositories.SQLExecutor, fn func()) {
	if tx, ok := exec.(*fakeTx); ok {
		tx.undo = append(tx.undo, fn)
	}
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	statusSet   []models.TournamentStatus
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	f := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		f.tournaments[t.ID] = t
	}
	return f
}

func (f *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.ID = len(f.tournaments) + 1
	f.tournaments[tournament.ID] = tournament
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0, len(f.tournaments))
	for _, t := range f.tournaments {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	f.statusSet = append(f.statusSet, status)
	return nil
}

func (f *fakeTournamentRepo) UpdatePairingConfig(ctx context.Context, id int, configJSON string) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.PairingConfigJSON = &configJSON
	return nil
}

func (f *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

type fakeSectionRepo struct {
	sections map[int]map[string]*models.Section
}

func newFakeSectionRepo(tournamentID int, names ...string) *fakeSectionRepo {
	f := &fakeSectionRepo{sections: make(map[int]map[string]*models.Section)}
	f.sections[tournamentID] = make(map[string]*models.Section)
	for i, name := range names {
		f.sections[tournamentID][name] = &models.Section{
			ID:           i + 1,
			TournamentID: tournamentID,
			Name:         name,
		}
	}
	return f
}

func (f *fakeSectionRepo) Create(ctx context.Context, exec repositories.SQLExecutor, section *models.Section) error {
	if f.sections[section.TournamentID] == nil {
		f.sections[section.TournamentID] = make(map[string]*models.Section)
	}
	f.sections[section.TournamentID][section.Name] = section
	recordUndo(exec, func() { delete(f.sections[section.TournamentID], section.Name) })
	return nil
}

func (f *fakeSectionRepo) GetByName(ctx context.Context, tournamentID int, name string) (*models.Section, error) {
	s, ok := f.sections[tournamentID][name]
	if !ok {
		return nil, repositories.ErrSectionNotFound
	}
	return s, nil
}

func (f *fakeSectionRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Section, error) {
	out := make([]*models.Section, 0, len(f.sections[tournamentID]))
	for _, s := range f.sections[tournamentID] {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSectionRepo) DeleteByNames(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, names []string) (int64, error) {
	var removed int64
	for _, name := range names {
		if s, ok := f.sections[tournamentID][name]; ok {
			name, s := name, s
			delete(f.sections[tournamentID], name)
			recordUndo(exec, func() { f.sections[tournamentID][name] = s })
			removed++
		}
	}
	return removed, nil
}

type fakePlayerRepo struct {
	players []*models.Player
}

func (f *fakePlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	player.ID = len(f.players) + 1
	f.players = append(f.players, player)
	return nil
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	for _, p := range f.players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	out := make([]*models.Player, 0)
	for _, p := range f.players {
		if p.TournamentID == tournamentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Player, error) {
	out := make([]*models.Player, 0)
	for _, p := range f.players {
		if p.TournamentID == tournamentID && p.Section == section {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlayerRepo) UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Status = status
	return nil
}

func (f *fakePlayerRepo) UpdateSection(ctx context.Context, exec repositories.SQLExecutor, id int, section string) error {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Section = section
	return nil
}

func (f *fakePlayerRepo) UpdateByeRounds(ctx context.Context, id int, byeRounds []int) error {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.ByeRounds = byeRounds
	return nil
}

func (f *fakePlayerRepo) UpdateRating(ctx context.Context, id int, rating *int, expiration *sql.NullTime) error {
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.Rating = rating
	return nil
}

func (f *fakePlayerRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	fromSet := make(map[string]bool, len(from))
	for _, s := range from {
		fromSet[s] = true
	}
	var moved int64
	for _, p := range f.players {
		if p.TournamentID == tournamentID && fromSet[p.Section] {
			p, old := p, p.Section
			p.Section = to
			recordUndo(exec, func() { p.Section = old })
			moved++
		}
	}
	return moved, nil
}

type fakeRegistrationRepo struct {
	registrations []*models.Registration
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	reg.ID = len(f.registrations) + 1
	f.registrations = append(f.registrations, reg)
	return nil
}

func (f *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Registration, error) {
	out := make([]*models.Registration, 0)
	for _, r := range f.registrations {
		if r.TournamentID == tournamentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	fromSet := make(map[string]bool, len(from))
	for _, s := range from {
		fromSet[s] = true
	}
	var moved int64
	for _, r := range f.registrations {
		if r.TournamentID == tournamentID && fromSet[r.Section] {
			r, old := r, r.Section
			r.Section = to
			recordUndo(exec, func() { r.Section = old })
			moved++
		}
	}
	return moved, nil
}

type fakeTeamRepo struct {
	teams []*models.Team
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	for _, t := range f.teams {
		if t.TournamentID == team.TournamentID && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = len(f.teams) + 1
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	out := make([]*models.Team, 0)
	for _, t := range f.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeamRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	fromSet := make(map[string]bool, len(from))
	for _, s := range from {
		fromSet[s] = true
	}
	var moved int64
	for _, t := range f.teams {
		if t.TournamentID == tournamentID && fromSet[t.Section] {
			t, old := t, t.Section
			t.Section = to
			recordUndo(exec, func() { t.Section = old })
			moved++
		}
	}
	return moved, nil
}

type fakePrizeRepo struct {
	prizes []*models.Prize
}

func (f *fakePrizeRepo) Create(ctx context.Context, exec repositories.SQLExecutor, prize *models.Prize) error {
	prize.ID = len(f.prizes) + 1
	f.prizes = append(f.prizes, prize)
	return nil
}

func (f *fakePrizeRepo) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Prize, error) {
	out := make([]*models.Prize, 0)
	for _, p := range f.prizes {
		if p.TournamentID == tournamentID && p.Section == section {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrizeRepo) Award(ctx context.Context, id int, playerID int) error {
	for _, p := range f.prizes {
		if p.ID == id {
			p.AwardedPlayerID = &playerID
			return nil
		}
	}
	return repositories.ErrPrizeNotFound
}

func (f *fakePrizeRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	fromSet := make(map[string]bool, len(from))
	for _, s := range from {
		fromSet[s] = true
	}
	var moved int64
	for _, p := range f.prizes {
		if p.TournamentID == tournamentID && fromSet[p.Section] {
			p, old := p, p.Section
			p.Section = to
			recordUndo(exec, func() { p.Section = old })
			moved++
		}
	}
	return moved, nil
}

type fakePairingRepo struct {
	pairings []*models.Pairing
}

func (f *fakePairingRepo) Create(ctx context.Context, exec repositories.SQLExecutor, pairing *models.Pairing) error {
	pairing.ID = len(f.pairings) + 1
	f.pairings = append(f.pairings, pairing)
	return nil
}

func (f *fakePairingRepo) find(id int) (*models.Pairing, error) {
	for _, p := range f.pairings {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repositories.ErrPairingNotFound
}

// GetByID returns a copy so callers cannot mutate stored state without
// going through an update method, matching how rows behave over SQL.
func (f *fakePairingRepo) GetByID(ctx context.Context, id int) (*models.Pairing, error) {
	p, err := f.find(id)
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (f *fakePairingRepo) ListByRound(ctx context.Context, tournamentID int, section string, round int) ([]*models.Pairing, error) {
	out := make([]*models.Pairing, 0)
	for _, p := range f.pairings {
		if p.TournamentID == tournamentID && p.Section == section && p.Round == round {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePairingRepo) ListBySection(ctx context.Context, tournamentID int, section string) ([]*models.Pairing, error) {
	out := make([]*models.Pairing, 0)
	for _, p := range f.pairings {
		if p.TournamentID == tournamentID && p.Section == section {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePairingRepo) UpdateResult(ctx context.Context, exec repositories.SQLExecutor, id int, result models.Result) error {
	p, err := f.find(id)
	if err != nil {
		return err
	}
	if p.IsBye {
		// Mirrors the is_bye = FALSE guard in the SQL update.
		return repositories.ErrPairingNotFound
	}
	p.Result = result
	return nil
}

func (f *fakePairingRepo) UpdatePlayers(ctx context.Context, exec repositories.SQLExecutor, id int, whiteID, blackID *int, reason string, isBye bool, byePoints *float64) error {
	p, err := f.find(id)
	if err != nil {
		return err
	}
	p.WhiteID = whiteID
	p.BlackID = blackID
	p.ManualReason = &reason
	p.IsBye = isBye
	p.ByePoints = byePoints
	return nil
}

func (f *fakePairingRepo) DeleteByRound(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, section string, round int) (int64, error) {
	kept := f.pairings[:0]
	var removed int64
	for _, p := range f.pairings {
		if p.TournamentID == tournamentID && p.Section == section && p.Round == round {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	f.pairings = kept
	return removed, nil
}

func (f *fakePairingRepo) DeleteBySection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, section string) (int64, error) {
	kept := f.pairings[:0]
	var removed int64
	for _, p := range f.pairings {
		if p.TournamentID == tournamentID && p.Section == section {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	f.pairings = kept
	return removed, nil
}

func (f *fakePairingRepo) ReassignSection(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, from []string, to string) (int64, error) {
	fromSet := make(map[string]bool, len(from))
	for _, s := range from {
		fromSet[s] = true
	}
	var moved int64
	for _, p := range f.pairings {
		if p.TournamentID == tournamentID && fromSet[p.Section] {
			p, old := p, p.Section
			p.Section = to
			recordUndo(exec, func() { p.Section = old })
			moved++
		}
	}
	return moved, nil
}
