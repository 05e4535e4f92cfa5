package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/courtside/bracket-engine/brackets"
	"github.com/courtside/bracket-engine/models"
	"github.com/courtside/bracket-engine/repositories"
)

// In-memory doubles for the repository interfaces. The fake game repo mimics
// the persistence details the services rely on: assigned ids, monotonically
// increasing created_at stamps and earliest-created-first position lookups.

// fakeTxManager mirrors the real manager's rollback semantics: it snapshots
// the backing stores on entry and restores them when the unit of work fails,
// so multi-write transactions stay all-or-nothing under test.
type fakeTxManager struct {
	games       *fakeGameRepo
	tournaments *fakeTournamentRepo
}

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(repositories.SQLExecutor) error) error {
	var gameSnap map[int]*models.Game
	var tournamentSnap map[int]*models.Tournament
	if f.games != nil {
		gameSnap = f.games.snapshot()
	}
	if f.tournaments != nil {
		tournamentSnap = f.tournaments.snapshot()
	}

	err := fn(nil)
	if err != nil {
		if f.games != nil {
			f.games.games = gameSnap
		}
		if f.tournaments != nil {
			f.tournaments.tournaments = tournamentSnap
		}
	}
	return err
}

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo(tournaments ...*models.Tournament) *fakeTournamentRepo {
	repo := &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
	for _, t := range tournaments {
		repo.tournaments[t.ID] = t
	}
	return repo
}

func (f *fakeTournamentRepo) snapshot() map[int]*models.Tournament {
	snap := make(map[int]*models.Tournament, len(f.tournaments))
	for id, t := range f.tournaments {
		clone := *t
		snap[id] = &clone
	}
	return snap
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (f *fakeTournamentRepo) UpdateChampion(ctx context.Context, exec repositories.SQLExecutor, id int, championParticipantID *int, status models.TournamentStatus) error {
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ChampionParticipantID = championParticipantID
	t.Status = status
	return nil
}

type fakeSeedRepo struct {
	assignments map[int][]*models.SeedAssignment
}

func newFakeSeedRepo() *fakeSeedRepo {
	return &fakeSeedRepo{assignments: make(map[int][]*models.SeedAssignment)}
}

func (f *fakeSeedRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.SeedAssignment, error) {
	return f.assignments[tournamentID], nil
}

type fakeGameRepo struct {
	nextID int
	clock  time.Time
	games  map[int]*models.Game

	// lockedPositions records every row-locking position read, in call order.
	lockedPositions []string
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		clock: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC),
		games: make(map[int]*models.Game),
	}
}

func cloneGame(g *models.Game) *models.Game {
	clone := *g
	clone.Home = cloneSlot(g.Home)
	clone.Away = cloneSlot(g.Away)
	if g.WinnerTarget != nil {
		ref := *g.WinnerTarget
		clone.WinnerTarget = &ref
	}
	if g.LoserTarget != nil {
		ref := *g.LoserTarget
		clone.LoserTarget = &ref
	}
	if g.WinnerParticipantID != nil {
		id := *g.WinnerParticipantID
		clone.WinnerParticipantID = &id
	}
	return &clone
}

func cloneSlot(s models.ParticipantSlot) models.ParticipantSlot {
	clone := s
	if s.ParticipantID != nil {
		id := *s.ParticipantID
		clone.ParticipantID = &id
	}
	if s.Seed != nil {
		seed := *s.Seed
		clone.Seed = &seed
	}
	return clone
}

func (f *fakeGameRepo) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	f.nextID++
	f.clock = f.clock.Add(time.Millisecond)
	game.ID = f.nextID
	game.CreatedAt = f.clock
	f.games[game.ID] = cloneGame(game)
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
	game, ok := f.games[id]
	if !ok {
		return nil, repositories.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (f *fakeGameRepo) snapshot() map[int]*models.Game {
	snap := make(map[int]*models.Game, len(f.games))
	for id, game := range f.games {
		snap[id] = cloneGame(game)
	}
	return snap
}

func (f *fakeGameRepo) GetByPositionForUpdate(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, position string) (*models.Game, error) {
	f.lockedPositions = append(f.lockedPositions, position)
	return f.GetByPosition(ctx, exec, tournamentID, position)
}

func (f *fakeGameRepo) GetByPosition(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, position string) (*models.Game, error) {
	matches := f.list(tournamentID, nil, nil)
	for _, game := range matches {
		if game.BracketPosition == position {
			return cloneGame(game), nil
		}
	}
	return nil, repositories.ErrGameNotFound
}

func (f *fakeGameRepo) ListByTournament(ctx context.Context, tournamentID int, round *models.Round, status *models.GameStatus) ([]*models.Game, error) {
	matches := f.list(tournamentID, round, status)
	out := make([]*models.Game, 0, len(matches))
	for _, game := range matches {
		out = append(out, cloneGame(game))
	}
	return out, nil
}

func (f *fakeGameRepo) list(tournamentID int, round *models.Round, status *models.GameStatus) []*models.Game {
	var matches []*models.Game
	for _, game := range f.games {
		if game.TournamentID != tournamentID {
			continue
		}
		if round != nil && game.Round != *round {
			continue
		}
		if status != nil && game.Status != *status {
			continue
		}
		matches = append(matches, game)
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.Before(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// setStatus flips a stored game's status directly, standing in for the result
// entry flow that lives outside the engine.
func (f *fakeGameRepo) setStatus(id int, status models.GameStatus) {
	if game, ok := f.games[id]; ok {
		game.Status = status
	}
}

func (f *fakeGameRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	return len(f.list(tournamentID, nil, nil)), nil
}

func (f *fakeGameRepo) UpdateAdvancement(ctx context.Context, exec repositories.SQLExecutor, id int, winnerTarget, loserTarget *models.SlotRef) error {
	game, ok := f.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	game.WinnerTarget = nil
	game.LoserTarget = nil
	if winnerTarget != nil {
		ref := *winnerTarget
		game.WinnerTarget = &ref
	}
	if loserTarget != nil {
		ref := *loserTarget
		game.LoserTarget = &ref
	}
	return nil
}

func (f *fakeGameRepo) UpdateSlot(ctx context.Context, exec repositories.SQLExecutor, id int, slot models.SlotNumber, participant models.ParticipantSlot) error {
	game, ok := f.games[id]
	if !ok {
		return repositories.ErrGameNotFound
	}
	*game.Slot(slot) = cloneSlot(participant)
	return nil
}

func (f *fakeGameRepo) DeleteAllForTournamentExcept(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, keep []int) (int, error) {
	keepSet := make(map[int]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}
	deleted := 0
	for id, game := range f.games {
		if game.TournamentID == tournamentID && !keepSet[id] {
			delete(f.games, id)
			deleted++
		}
	}
	return deleted, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub() *brackets.Hub {
	return brackets.NewHub(testLogger())
}

func regionalTournament(id int) *models.Tournament {
	return &models.Tournament{
		ID:        id,
		Name:      "National Invitational",
		Shape:     models.ShapeRegionalSingleElim64,
		Regions:   []string{"East", "West", "South", "Midwest"},
		StartDate: time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC),
		Status:    models.TournamentStatusActive,
	}
}

func multiTeamTournament(id int) *models.Tournament {
	return &models.Tournament{
		ID:        id,
		Name:      "Season Kickoff",
		Shape:     models.ShapeMultiTeamEvent4,
		StartDate: time.Date(2026, time.April, 4, 0, 0, 0, 0, time.UTC),
		Status:    models.TournamentStatusActive,
	}
}

// regionalAssignments seeds participant ids (regionIndex+1)*100+seed for every
// region of the tournament.
func regionalAssignments(tournament *models.Tournament) []*models.SeedAssignment {
	var assignments []*models.SeedAssignment
	for i, region := range tournament.Regions {
		for seed := 1; seed <= 16; seed++ {
			assignments = append(assignments, &models.SeedAssignment{
				TournamentID:  tournament.ID,
				Region:        region,
				Seed:          seed,
				ParticipantID: (i+1)*100 + seed,
			})
		}
	}
	return assignments
}

func multiTeamAssignments(tournament *models.Tournament) []*models.SeedAssignment {
	participants := map[int]int{1: 11, 2: 22, 3: 33, 4: 44}
	var assignments []*models.SeedAssignment
	for seed := 1; seed <= 4; seed++ {
		assignments = append(assignments, &models.SeedAssignment{
			TournamentID:  tournament.ID,
			Region:        models.RegionFinal,
			Seed:          seed,
			ParticipantID: participants[seed],
		})
	}
	return assignments
}
