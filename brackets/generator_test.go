package brackets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courtside/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullRegionalSeeding assigns participant ids (regionIndex+1)*100+seed for
// every seed of every region, so tests can predict any slot's occupant.
func fullRegionalSeeding(regions []string) models.SeedingTable {
	table := make(models.SeedingTable)
	for i, region := range regions {
		seeds := make(map[int]int, TeamsPerRegion)
		for seed := 1; seed <= TeamsPerRegion; seed++ {
			seeds[seed] = (i+1)*100 + seed
		}
		table[region] = seeds
	}
	return table
}

func regionalTestTournament() *models.Tournament {
	return &models.Tournament{
		ID:        7,
		Name:      "National Invitational",
		Shape:     models.ShapeRegionalSingleElim64,
		Regions:   testRegions,
		StartDate: time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC),
	}
}

func TestRegionalGeneratorFillsFirstRoundFromSeeding(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)
	assert.Equal(t, "RegionalSingleElimination64", generator.Name())

	tournament := regionalTestTournament()
	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: tournament,
		Seeding:    fullRegionalSeeding(testRegions),
		StartDate:  tournament.StartDate,
	})
	require.NoError(t, err)
	require.Len(t, games, 63)

	byPos := make(map[string]*models.Game, len(games))
	for _, game := range games {
		byPos[game.BracketPosition] = game
		assert.Equal(t, tournament.ID, game.TournamentID)
		assert.Equal(t, models.GameStatusScheduled, game.Status)
	}

	// Round-of-64 games carry the fixed reseeding order. EAST is the first
	// supplied region, so its participants are 101..116.
	for ordinal, pair := range FirstRoundOrder() {
		game := byPos[position("EAST", models.RoundOf64, ordinal+1)]
		require.NotNil(t, game)
		require.True(t, game.Home.Known())
		require.True(t, game.Away.Known())
		assert.Equal(t, 100+pair[0], *game.Home.ParticipantID)
		assert.Equal(t, 100+pair[1], *game.Away.ParticipantID)
		assert.Equal(t, pair[0], *game.Home.Seed)
		assert.Equal(t, pair[1], *game.Away.Seed)
		assert.False(t, game.Home.IsPlaceholder)
	}

	// Every later round starts unresolved.
	for _, game := range games {
		if game.Round == models.RoundOf64 {
			continue
		}
		assert.False(t, game.Home.Known(), game.BracketPosition)
		assert.False(t, game.Away.Known(), game.BracketPosition)
	}
}

func TestRegionalGeneratorSchedulesRoundsByOffset(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)

	tournament := regionalTestTournament()
	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: tournament,
		Seeding:    fullRegionalSeeding(testRegions),
		StartDate:  tournament.StartDate,
	})
	require.NoError(t, err)

	offsets := map[models.Round]int{
		models.RoundOf64:         0,
		models.RoundOf32:         2,
		models.RoundSweet16:      4,
		models.RoundElite8:       6,
		models.RoundSemifinals:   8,
		models.RoundChampionship: 10,
	}
	for _, game := range games {
		expected := tournament.StartDate.AddDate(0, 0, offsets[game.Round])
		assert.True(t, expected.Equal(game.ScheduledDate),
			"game %s scheduled %v, want %v", game.BracketPosition, game.ScheduledDate, expected)
	}
}

func TestRegionalGeneratorRejectsIncompleteSeeding(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)

	seeding := fullRegionalSeeding(testRegions)
	delete(seeding["South"], 11)

	tournament := regionalTestTournament()
	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: tournament,
		Seeding:    seeding,
		StartDate:  tournament.StartDate,
	})

	var shapeErr *ShapeViolationError
	require.True(t, errors.As(err, &shapeErr))
	assert.Contains(t, shapeErr.Reason, "SOUTH")
	assert.Contains(t, shapeErr.Reason, "11")
	assert.Nil(t, games, "no partial bracket on seeding failure")
}

func TestRegionalGeneratorMatchesSeedingByRegionCode(t *testing.T) {
	regions := []string{"East Coast", "West Coast", "Deep South", "Mid West"}
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, regions)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)

	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: &models.Tournament{ID: 1, Shape: models.ShapeRegionalSingleElim64, Regions: regions},
		Seeding:    fullRegionalSeeding(regions),
		StartDate:  time.Now(),
	})
	require.NoError(t, err)
	require.Len(t, games, 63)
	assert.Equal(t, "EASTCOAST-R64-1", games[0].BracketPosition)
}

func multiTeamSeeding() models.SeedingTable {
	return models.SeedingTable{
		models.RegionFinal: {1: 11, 2: 22, 3: 33, 4: 44},
	}
}

func TestMultiTeamGeneratorStructure(t *testing.T) {
	topology, err := NewTopology(models.ShapeMultiTeamEvent4, nil)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)
	assert.Equal(t, "MultiTeamEvent4", generator.Name())

	start := time.Date(2026, time.April, 4, 0, 0, 0, 0, time.UTC)
	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: &models.Tournament{ID: 3, Shape: models.ShapeMultiTeamEvent4},
		Seeding:    multiTeamSeeding(),
		StartDate:  start,
	})
	require.NoError(t, err)
	require.Len(t, games, 4)

	byPos := make(map[string]*models.Game, len(games))
	for _, game := range games {
		byPos[game.BracketPosition] = game
	}

	semi1 := byPos[PositionSemifinal1]
	require.NotNil(t, semi1)
	assert.Equal(t, 11, *semi1.Home.ParticipantID)
	assert.Equal(t, 22, *semi1.Away.ParticipantID)
	assert.True(t, semi1.Home.Resolved())

	semi2 := byPos[PositionSemifinal2]
	require.NotNil(t, semi2)
	assert.Equal(t, 33, *semi2.Home.ParticipantID)
	assert.Equal(t, 44, *semi2.Away.ParticipantID)

	// Championship and consolation open with placeholders: projected winners
	// (seeds 1 and 3) and projected losers (seeds 2 and 4).
	champ := byPos[PositionChampionship]
	require.NotNil(t, champ)
	assert.Equal(t, 11, *champ.Home.ParticipantID)
	assert.Equal(t, 33, *champ.Away.ParticipantID)
	assert.True(t, champ.Home.IsPlaceholder)
	assert.True(t, champ.Away.IsPlaceholder)
	assert.False(t, champ.Home.Resolved())

	cons := byPos[PositionConsolation]
	require.NotNil(t, cons)
	assert.Equal(t, 22, *cons.Home.ParticipantID)
	assert.Equal(t, 44, *cons.Away.ParticipantID)
	assert.True(t, cons.Home.IsPlaceholder)
	assert.True(t, cons.Away.IsPlaceholder)

	// Semifinals on day 0, championship and consolation together on day 2.
	assert.True(t, start.Equal(semi1.ScheduledDate))
	assert.True(t, start.AddDate(0, 0, 2).Equal(champ.ScheduledDate))
	assert.True(t, start.AddDate(0, 0, 2).Equal(cons.ScheduledDate))
}

func TestMultiTeamGeneratorRejectsIncompleteSeeding(t *testing.T) {
	topology, err := NewTopology(models.ShapeMultiTeamEvent4, nil)
	require.NoError(t, err)
	generator, err := NewGenerator(topology)
	require.NoError(t, err)

	seeding := multiTeamSeeding()
	delete(seeding[models.RegionFinal], 4)

	games, err := generator.Generate(context.Background(), GenerateParams{
		Tournament: &models.Tournament{ID: 3, Shape: models.ShapeMultiTeamEvent4},
		Seeding:    seeding,
		StartDate:  time.Now(),
	})

	var shapeErr *ShapeViolationError
	require.True(t, errors.As(err, &shapeErr))
	assert.Nil(t, games)
}
