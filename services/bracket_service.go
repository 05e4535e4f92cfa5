package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtside/bracket-engine/brackets"
	"github.com/courtside/bracket-engine/models"
	"github.com/courtside/bracket-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// BracketView is the full bracket state returned to callers: the tournament,
// every game in creation order, and the seeding table that produced it.
type BracketView struct {
	Tournament *models.Tournament       `json:"tournament"`
	Games      []*models.Game           `json:"games"`
	Seeds      []*models.SeedAssignment `json:"seeds,omitempty"`
}

// GenerateResult reports one generation pass: the persisted games plus any
// advancement edges whose downstream position could not be linked.
type GenerateResult struct {
	Games      []*models.Game           `json:"games"`
	Violations []brackets.LinkViolation `json:"link_violations,omitempty"`
}

type BracketService interface {
	// GenerateBracket builds, links and persists the complete game graph for
	// the tournament's shape. All-or-nothing: either every game becomes
	// visible or none do. Refuses if any games already exist, so regeneration
	// always requires an explicit prune first; duplicate positions can only
	// arise from writes outside this service, which the consistency guard
	// detects and repairs.
	GenerateBracket(ctx context.Context, tournamentID int) (*GenerateResult, error)

	// Relink re-reads the persisted games by bracket position and rewrites
	// their advancement edges from the topology. Idempotent and safe to
	// retry: it only ever touches advancement, never participant slots.
	Relink(ctx context.Context, tournamentID int) ([]brackets.LinkViolation, error)

	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	txm            repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	seedRepo       repositories.SeedRepository
	gameRepo       repositories.GameRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewBracketService(
	txm repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	seedRepo repositories.SeedRepository,
	gameRepo repositories.GameRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		txm:            txm,
		tournamentRepo: tournamentRepo,
		seedRepo:       seedRepo,
		gameRepo:       gameRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int) (*GenerateResult, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.gameRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count existing games for tournament %d: %w", tournamentID, err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: found %d games", ErrDuplicateTopology, existing)
	}

	assignments, err := s.seedRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seeding for tournament %d: %w", tournamentID, err)
	}

	topology, err := brackets.NewTopology(tournament.Shape, tournament.Regions)
	if err != nil {
		return nil, err
	}
	generator, err := brackets.NewGenerator(topology)
	if err != nil {
		return nil, err
	}

	s.logger.Info("generating bracket",
		slog.Int("tournament_id", tournamentID),
		slog.String("generator", generator.Name()),
		slog.Int("expected_games", topology.GameCount()))

	games, err := generator.Generate(ctx, brackets.GenerateParams{
		Tournament: tournament,
		Seeding:    models.BuildSeedingTable(assignments),
		StartDate:  tournament.StartDate,
	})
	if err != nil {
		return nil, err
	}

	// First transaction: insert every game. Advancement is written by the
	// follow-up linking transaction, which is idempotent and retryable.
	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, game := range games {
			if createErr := s.gameRepo.Create(ctx, exec, game); createErr != nil {
				return fmt.Errorf("failed to insert game %s: %w", game.BracketPosition, createErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	violations, err := s.linkPersisted(ctx, topology, games)
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		s.logger.Warn("link violation during generation",
			slog.Int("tournament_id", tournamentID), slog.String("violation", v.String()))
	}

	s.hub.BroadcastToTournament(tournamentID, brackets.Event{
		Type:         brackets.MessageBracketGenerated,
		TournamentID: tournamentID,
		Payload:      map[string]int{"game_count": len(games)},
	})

	return &GenerateResult{Games: games, Violations: violations}, nil
}

func (s *bracketService) Relink(ctx context.Context, tournamentID int) ([]brackets.LinkViolation, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	topology, err := brackets.NewTopology(tournament.Shape, tournament.Regions)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
	}
	return s.linkPersisted(ctx, topology, games)
}

// linkPersisted computes edges with the pure linker, then writes them back in
// one transaction. Only advancement columns are touched.
func (s *bracketService) linkPersisted(ctx context.Context, topology *brackets.Topology, games []*models.Game) ([]brackets.LinkViolation, error) {
	linker := brackets.NewLinker(topology)
	violations := linker.Link(games)

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, game := range games {
			if game.ID == 0 {
				continue
			}
			if updErr := s.gameRepo.UpdateAdvancement(ctx, exec, game.ID, game.WinnerTarget, game.LoserTarget); updErr != nil {
				return fmt.Errorf("failed to link game %s: %w", game.BracketPosition, updErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return violations, nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	view := &BracketView{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tournament, err := s.loadTournament(gCtx, tournamentID)
		if err != nil {
			return err
		}
		view.Tournament = tournament
		return nil
	})
	g.Go(func() error {
		games, err := s.gameRepo.ListByTournament(gCtx, tournamentID, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to list games for tournament %d: %w", tournamentID, err)
		}
		view.Games = games
		return nil
	})
	g.Go(func() error {
		seeds, err := s.seedRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to list seeds for tournament %d: %w", tournamentID, err)
		}
		view.Seeds = seeds
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *bracketService) loadTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	return tournament, nil
}
