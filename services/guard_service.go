package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/courtside/bracket-engine/brackets"
	"github.com/courtside/bracket-engine/models"
	"github.com/courtside/bracket-engine/repositories"
)

type ViolationKind string

const (
	ViolationDuplicatePosition ViolationKind = "duplicate_position"
	ViolationUnknownPosition   ViolationKind = "unknown_position"
	ViolationGameCount         ViolationKind = "game_count_mismatch"
	ViolationRoundCount        ViolationKind = "round_count_mismatch"
	ViolationMissingWinnerEdge ViolationKind = "missing_winner_target"
	ViolationUnexpectedEdge    ViolationKind = "unexpected_advancement"
	ViolationLinkTargetMissing ViolationKind = "link_target_missing"
	ViolationSlotFedTwice      ViolationKind = "slot_fed_twice"
	ViolationAdvancementCycle  ViolationKind = "advancement_cycle"
)

// Violation is one human-readable invariant failure. Validate never mutates;
// repairing is an explicit, separate prune call.
type Violation struct {
	Kind     ViolationKind `json:"kind"`
	Position string        `json:"position,omitempty"`
	Message  string        `json:"message"`
}

// DuplicateGroup is a set of games occupying the same bracket position (or,
// for games without positions, the same matchup). The earliest-created game
// is canonical; the rest are candidates for pruning.
type DuplicateGroup struct {
	Key        string         `json:"key"`
	Canonical  *models.Game   `json:"canonical"`
	Duplicates []*models.Game `json:"duplicates"`
}

type GuardService interface {
	// FindDuplicates groups the tournament's games by bracket position when
	// present, otherwise by home+away+round, and reports every group with
	// more than one member.
	FindDuplicates(ctx context.Context, tournamentID int) ([]DuplicateGroup, error)

	// Prune deletes every game of the tournament whose id is not in keep.
	// An empty keep set clears the tournament entirely (the pre-clear path
	// before regeneration). Returns the number of deleted games.
	Prune(ctx context.Context, tournamentID int, keep []int) (int, error)

	// Validate checks the whole graph against the shape's topology: position
	// uniqueness, game and round counts, advancement edges and their
	// targets, single-feeder slots and acyclicity.
	Validate(ctx context.Context, tournamentID int) ([]Violation, error)
}

type guardService struct {
	txm            repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewGuardService(
	txm repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) GuardService {
	return &guardService{
		txm:            txm,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		logger:         logger,
	}
}

func (s *guardService) FindDuplicates(ctx context.Context, tournamentID int) ([]DuplicateGroup, error) {
	games, err := s.listGames(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*models.Game)
	var keys []string
	for _, game := range games {
		key := matchupKey(game)
		if _, seen := grouped[key]; !seen {
			keys = append(keys, key)
		}
		grouped[key] = append(grouped[key], game)
	}

	var groups []DuplicateGroup
	for _, key := range keys {
		members := grouped[key]
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
				return members[i].CreatedAt.Before(members[j].CreatedAt)
			}
			return members[i].ID < members[j].ID
		})
		groups = append(groups, DuplicateGroup{
			Key:        key,
			Canonical:  members[0],
			Duplicates: members[1:],
		})
	}
	return groups, nil
}

func (s *guardService) Prune(ctx context.Context, tournamentID int, keep []int) (int, error) {
	if _, err := s.loadTournament(ctx, tournamentID); err != nil {
		return 0, err
	}

	var deleted int
	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		n, delErr := s.gameRepo.DeleteAllForTournamentExcept(ctx, exec, tournamentID, keep)
		if delErr != nil {
			return delErr
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("pruned bracket",
		slog.Int("tournament_id", tournamentID),
		slog.Int("kept", len(keep)),
		slog.Int("deleted", deleted))
	return deleted, nil
}

func (s *guardService) Validate(ctx context.Context, tournamentID int) ([]Violation, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	topology, err := brackets.NewTopology(tournament.Shape, tournament.Regions)
	if err != nil {
		return nil, err
	}
	games, err := s.listGames(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	violations := make([]Violation, 0)

	// Invariant 1: exactly one game per bracket position.
	byPosition := make(map[string][]*models.Game)
	for _, game := range games {
		byPosition[game.BracketPosition] = append(byPosition[game.BracketPosition], game)
	}
	for _, game := range games {
		members := byPosition[game.BracketPosition]
		if len(members) > 1 && members[0] == game {
			violations = append(violations, Violation{
				Kind:     ViolationDuplicatePosition,
				Position: game.BracketPosition,
				Message:  fmt.Sprintf("%d games share bracket position %s", len(members), game.BracketPosition),
			})
		}
		if _, known := topology.Lookup(game.BracketPosition); !known {
			violations = append(violations, Violation{
				Kind:     ViolationUnknownPosition,
				Position: game.BracketPosition,
				Message:  fmt.Sprintf("bracket position %s does not belong to shape %s", game.BracketPosition, tournament.Shape),
			})
		}
	}

	// Invariant 4: total and per-round counts match the shape.
	if len(games) != topology.GameCount() {
		violations = append(violations, Violation{
			Kind:    ViolationGameCount,
			Message: fmt.Sprintf("expected %d games, found %d", topology.GameCount(), len(games)),
		})
	}
	actualRounds := make(map[models.Round]int)
	for _, game := range games {
		actualRounds[game.Round]++
	}
	for round, expected := range topology.RoundCounts() {
		if actualRounds[round] != expected {
			violations = append(violations, Violation{
				Kind:    ViolationRoundCount,
				Message: fmt.Sprintf("round %s: expected %d games, found %d", round, expected, actualRounds[round]),
			})
		}
	}

	// Invariant 2 (edges exist where the shape demands them) and target
	// presence. A game can feed at most one downstream game per edge type by
	// construction (the advancement columns hold a single target), so
	// double-feeding shows up as slot contention below, not here.
	for _, game := range games {
		spec, known := topology.Lookup(game.BracketPosition)
		if !known {
			continue
		}
		terminal := spec.WinnerTo == nil && spec.LoserTo == nil
		if terminal && !game.Terminal() {
			violations = append(violations, Violation{
				Kind:     ViolationUnexpectedEdge,
				Position: game.BracketPosition,
				Message:  fmt.Sprintf("terminal game %s has outgoing advancement", game.BracketPosition),
			})
			continue
		}
		if spec.WinnerTo != nil && game.WinnerTarget == nil {
			violations = append(violations, Violation{
				Kind:     ViolationMissingWinnerEdge,
				Position: game.BracketPosition,
				Message:  fmt.Sprintf("game %s has no winner target", game.BracketPosition),
			})
		}
		for _, edge := range []struct {
			ref  *models.SlotRef
			kind brackets.EdgeType
		}{
			{game.WinnerTarget, brackets.EdgeWinner},
			{game.LoserTarget, brackets.EdgeLoser},
		} {
			if edge.ref == nil {
				continue
			}
			if _, exists := byPosition[edge.ref.Position]; !exists {
				violations = append(violations, Violation{
					Kind:     ViolationLinkTargetMissing,
					Position: game.BracketPosition,
					Message:  fmt.Sprintf("%s edge of %s targets missing position %s", edge.kind, game.BracketPosition, edge.ref.Position),
				})
			}
		}
	}

	// Invariant 3: every downstream slot is fed by at most one upstream edge.
	feeders := make(map[models.SlotRef][]string)
	for _, game := range games {
		for _, ref := range []*models.SlotRef{game.WinnerTarget, game.LoserTarget} {
			if ref != nil {
				feeders[*ref] = append(feeders[*ref], game.BracketPosition)
			}
		}
	}
	var contended []models.SlotRef
	for ref, sources := range feeders {
		if len(sources) > 1 {
			contended = append(contended, ref)
		}
	}
	sort.Slice(contended, func(i, j int) bool {
		if contended[i].Position != contended[j].Position {
			return contended[i].Position < contended[j].Position
		}
		return contended[i].Slot < contended[j].Slot
	})
	for _, ref := range contended {
		sources := feeders[ref]
		sort.Strings(sources)
		violations = append(violations, Violation{
			Kind:     ViolationSlotFedTwice,
			Position: ref.Position,
			Message:  fmt.Sprintf("slot %d of %s is fed by %d games: %v", ref.Slot, ref.Position, len(sources), sources),
		})
	}

	// Invariant 2, acyclicity: the advancement graph must be a forest of
	// in-trees converging on the terminal game(s).
	violations = append(violations, findCycles(games)...)

	return violations, nil
}

// findCycles walks advancement edges between positions with the usual
// three-color DFS and reports every position where a back edge closes a loop.
func findCycles(games []*models.Game) []Violation {
	adjacent := make(map[string][]string)
	var positions []string
	for _, game := range games {
		if _, seen := adjacent[game.BracketPosition]; !seen {
			positions = append(positions, game.BracketPosition)
			adjacent[game.BracketPosition] = nil
		}
		for _, ref := range []*models.SlotRef{game.WinnerTarget, game.LoserTarget} {
			if ref != nil {
				adjacent[game.BracketPosition] = append(adjacent[game.BracketPosition], ref.Position)
			}
		}
	}
	sort.Strings(positions)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var violations []Violation

	var visit func(pos string)
	visit = func(pos string) {
		color[pos] = gray
		for _, next := range adjacent[pos] {
			switch color[next] {
			case white:
				if _, exists := adjacent[next]; exists {
					visit(next)
				}
			case gray:
				violations = append(violations, Violation{
					Kind:     ViolationAdvancementCycle,
					Position: next,
					Message:  fmt.Sprintf("advancement cycle through %s", next),
				})
			}
		}
		color[pos] = black
	}
	for _, pos := range positions {
		if color[pos] == white {
			visit(pos)
		}
	}
	return violations
}

func matchupKey(game *models.Game) string {
	if game.BracketPosition != "" {
		return "pos:" + game.BracketPosition
	}
	home, away := 0, 0
	if game.Home.ParticipantID != nil {
		home = *game.Home.ParticipantID
	}
	if game.Away.ParticipantID != nil {
		away = *game.Away.ParticipantID
	}
	return fmt.Sprintf("matchup:%d-%d-%s", home, away, game.Round)
}

func (s *guardService) listGames(ctx context.Context, tournamentID int) ([]*models.Game, error) {
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	return games, nil
}

func (s *guardService) loadTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}
