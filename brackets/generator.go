package brackets

import (
	"context"
	"fmt"
	"time"

	"github.com/courtside/bracket-engine/models"
)

// GenerateParams carries everything generation needs. Seeding is supplied
// fully formed; the generator never derives seeds.
type GenerateParams struct {
	Tournament *models.Tournament
	Seeding    models.SeedingTable
	StartDate  time.Time
}

// Generator emits the complete, unpersisted set of games for a tournament
// shape: every node of the topology with round, region and bracket position
// set, first-round slots filled from the seeding table and all later slots
// unresolved. Advancement edges are attached separately by the Linker.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Game, error)
	Name() string
}

// NewGenerator picks the generator for the topology's shape.
func NewGenerator(topology *Topology) (Generator, error) {
	switch topology.Shape() {
	case models.ShapeRegionalSingleElim64:
		return &regionalSingleEliminationGenerator{topology: topology}, nil
	case models.ShapeMultiTeamEvent4:
		return &multiTeamEventGenerator{topology: topology}, nil
	default:
		return nil, fmt.Errorf("no generator for shape %q", topology.Shape())
	}
}

// Round date offsets from the tournament start, in days. Fixed configuration
// constants, not computed values.
var roundOffsetDays = map[models.Shape]map[models.Round]int{
	models.ShapeRegionalSingleElim64: {
		models.RoundOf64:         0,
		models.RoundOf32:         2,
		models.RoundSweet16:      4,
		models.RoundElite8:       6,
		models.RoundSemifinals:   8,
		models.RoundChampionship: 10,
	},
	models.ShapeMultiTeamEvent4: {
		models.RoundSemifinals:   0,
		models.RoundChampionship: 2,
		models.RoundConsolation:  2,
	},
}

func scheduledDate(shape models.Shape, round models.Round, start time.Time) time.Time {
	return start.AddDate(0, 0, roundOffsetDays[shape][round])
}

type regionalSingleEliminationGenerator struct {
	topology *Topology
}

func (g *regionalSingleEliminationGenerator) Name() string {
	return "RegionalSingleElimination64"
}

func (g *regionalSingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Validate the whole seeding table up front: generation is all-or-nothing
	// per tournament, partial brackets are never produced.
	seedsByCode := make(map[string]map[int]int, RegionCount)
	for region, seeds := range params.Seeding {
		seedsByCode[RegionCode(region)] = seeds
	}
	for _, code := range g.topology.RegionCodes() {
		seeds := seedsByCode[code]
		for seed := 1; seed <= TeamsPerRegion; seed++ {
			if _, ok := seeds[seed]; !ok {
				return nil, &ShapeViolationError{
					Shape:  g.topology.Shape(),
					Reason: fmt.Sprintf("region %s is missing seed %d", code, seed),
				}
			}
		}
	}

	games := make([]*models.Game, 0, g.topology.GameCount())
	for _, node := range g.topology.Nodes() {
		game := &models.Game{
			TournamentID:    params.Tournament.ID,
			Round:           node.Round,
			Region:          node.Region,
			BracketPosition: node.Position,
			Status:          models.GameStatusScheduled,
			ScheduledDate:   scheduledDate(g.topology.Shape(), node.Round, params.StartDate),
		}
		if node.Round == models.RoundOf64 {
			pair := firstRoundOrder[node.Ordinal-1]
			game.Home = seededSlot(seedsByCode[node.Region], pair[0])
			game.Away = seededSlot(seedsByCode[node.Region], pair[1])
		}
		games = append(games, game)
	}
	return games, nil
}

func seededSlot(seeds map[int]int, seed int) models.ParticipantSlot {
	id := seeds[seed]
	s := seed
	return models.ParticipantSlot{ParticipantID: &id, Seed: &s}
}

type multiTeamEventGenerator struct {
	topology *Topology
}

func (g *multiTeamEventGenerator) Name() string {
	return "MultiTeamEvent4"
}

func (g *multiTeamEventGenerator) Generate(ctx context.Context, params GenerateParams) ([]*models.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeds := params.Seeding[models.RegionFinal]
	for seed := 1; seed <= MultiTeamEventSize; seed++ {
		if _, ok := seeds[seed]; !ok {
			return nil, &ShapeViolationError{
				Shape:  g.topology.Shape(),
				Reason: fmt.Sprintf("missing seed %d (need exactly %d seeded participants)", seed, MultiTeamEventSize),
			}
		}
	}

	// Semifinal pairing is fixed: seed 1 vs seed 2, seed 3 vs seed 4.
	// Championship and consolation start with explicitly flagged placeholder
	// participants (the projected winner and loser of each semifinal) so
	// consumers that need a non-null participant can render them before
	// propagation runs.
	semifinalSeeds := map[string][2]int{
		PositionSemifinal1: {1, 2},
		PositionSemifinal2: {3, 4},
	}

	games := make([]*models.Game, 0, g.topology.GameCount())
	for _, node := range g.topology.Nodes() {
		game := &models.Game{
			TournamentID:    params.Tournament.ID,
			Round:           node.Round,
			Region:          node.Region,
			BracketPosition: node.Position,
			Status:          models.GameStatusScheduled,
			ScheduledDate:   scheduledDate(g.topology.Shape(), node.Round, params.StartDate),
		}
		switch node.Round {
		case models.RoundSemifinals:
			pair := semifinalSeeds[node.Position]
			game.Home = seededSlot(seeds, pair[0])
			game.Away = seededSlot(seeds, pair[1])
		case models.RoundChampionship:
			game.Home = placeholderSlot(seeds, 1)
			game.Away = placeholderSlot(seeds, 3)
		case models.RoundConsolation:
			game.Home = placeholderSlot(seeds, 2)
			game.Away = placeholderSlot(seeds, 4)
		}
		games = append(games, game)
	}
	return games, nil
}

func placeholderSlot(seeds map[int]int, seed int) models.ParticipantSlot {
	slot := seededSlot(seeds, seed)
	slot.IsPlaceholder = true
	return slot
}
