package brackets

import (
	"errors"
	"testing"

	"github.com/courtside/bracket-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRegions = []string{"East", "West", "South", "Midwest"}

func TestNewTopologyRegional64(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)

	assert.Equal(t, 63, topology.GameCount())
	assert.Equal(t, []string{"EAST", "WEST", "SOUTH", "MIDWEST"}, topology.RegionCodes())
	assert.False(t, topology.HasConsolation())

	counts := topology.RoundCounts()
	assert.Equal(t, 32, counts[models.RoundOf64])
	assert.Equal(t, 16, counts[models.RoundOf32])
	assert.Equal(t, 8, counts[models.RoundSweet16])
	assert.Equal(t, 4, counts[models.RoundElite8])
	assert.Equal(t, 2, counts[models.RoundSemifinals])
	assert.Equal(t, 1, counts[models.RoundChampionship])
}

func TestNewTopologyRegional64PairingRule(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)

	tests := []struct {
		position string
		target   models.SlotRef
	}{
		{"EAST-R64-1", models.SlotRef{Position: "EAST-R32-1", Slot: models.SlotHome}},
		{"EAST-R64-2", models.SlotRef{Position: "EAST-R32-1", Slot: models.SlotAway}},
		{"EAST-R64-7", models.SlotRef{Position: "EAST-R32-4", Slot: models.SlotHome}},
		{"EAST-R64-8", models.SlotRef{Position: "EAST-R32-4", Slot: models.SlotAway}},
		{"WEST-R32-3", models.SlotRef{Position: "WEST-S16-2", Slot: models.SlotHome}},
		{"SOUTH-S16-2", models.SlotRef{Position: "SOUTH-E8-1", Slot: models.SlotAway}},
	}
	for _, tc := range tests {
		node, ok := topology.Lookup(tc.position)
		require.True(t, ok, tc.position)
		require.NotNil(t, node.WinnerTo, tc.position)
		assert.Equal(t, tc.target, *node.WinnerTo, tc.position)
	}
}

func TestNewTopologyRegional64SemifinalAssignment(t *testing.T) {
	topology, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)

	// The first two supplied regions converge on FF-G1, the last two on FF-G2.
	tests := []struct {
		position string
		target   models.SlotRef
	}{
		{"EAST-E8-1", models.SlotRef{Position: PositionSemifinal1, Slot: models.SlotHome}},
		{"WEST-E8-1", models.SlotRef{Position: PositionSemifinal1, Slot: models.SlotAway}},
		{"SOUTH-E8-1", models.SlotRef{Position: PositionSemifinal2, Slot: models.SlotHome}},
		{"MIDWEST-E8-1", models.SlotRef{Position: PositionSemifinal2, Slot: models.SlotAway}},
		{PositionSemifinal1, models.SlotRef{Position: PositionChampionship, Slot: models.SlotHome}},
		{PositionSemifinal2, models.SlotRef{Position: PositionChampionship, Slot: models.SlotAway}},
	}
	for _, tc := range tests {
		node, ok := topology.Lookup(tc.position)
		require.True(t, ok, tc.position)
		require.NotNil(t, node.WinnerTo, tc.position)
		assert.Equal(t, tc.target, *node.WinnerTo, tc.position)
	}

	assert.True(t, topology.Terminal(PositionChampionship))
	assert.False(t, topology.Terminal(PositionSemifinal1))
	assert.False(t, topology.Terminal("NOSUCH-R64-1"))
}

func TestNewTopologyRegional64Deterministic(t *testing.T) {
	first, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)
	second, err := NewTopology(models.ShapeRegionalSingleElim64, testRegions)
	require.NoError(t, err)

	require.Equal(t, first.GameCount(), second.GameCount())
	for i, node := range first.Nodes() {
		assert.Equal(t, node.Position, second.Nodes()[i].Position)
		assert.Equal(t, node.WinnerTo, second.Nodes()[i].WinnerTo)
	}
}

func TestNewTopologyRegional64RegionValidation(t *testing.T) {
	tests := []struct {
		name    string
		regions []string
	}{
		{"too few regions", []string{"East", "West"}},
		{"too many regions", []string{"A", "B", "C", "D", "E"}},
		{"duplicate region codes", []string{"East", "east ", "South", "Midwest"}},
		{"empty region name", []string{"East", "  ", "South", "Midwest"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTopology(models.ShapeRegionalSingleElim64, tc.regions)
			var shapeErr *ShapeViolationError
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, models.ShapeRegionalSingleElim64, shapeErr.Shape)
		})
	}
}

func TestNewTopologyUnsupportedShape(t *testing.T) {
	_, err := NewTopology(models.Shape("double_elimination_128"), nil)
	var shapeErr *ShapeViolationError
	require.True(t, errors.As(err, &shapeErr))
}

func TestNewTopologyMultiTeamEvent4(t *testing.T) {
	topology, err := NewTopology(models.ShapeMultiTeamEvent4, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, topology.GameCount())
	assert.True(t, topology.HasConsolation())

	semi1, ok := topology.Lookup(PositionSemifinal1)
	require.True(t, ok)
	assert.Equal(t, &models.SlotRef{Position: PositionChampionship, Slot: models.SlotHome}, semi1.WinnerTo)
	assert.Equal(t, &models.SlotRef{Position: PositionConsolation, Slot: models.SlotHome}, semi1.LoserTo)

	semi2, ok := topology.Lookup(PositionSemifinal2)
	require.True(t, ok)
	assert.Equal(t, &models.SlotRef{Position: PositionChampionship, Slot: models.SlotAway}, semi2.WinnerTo)
	assert.Equal(t, &models.SlotRef{Position: PositionConsolation, Slot: models.SlotAway}, semi2.LoserTo)

	assert.True(t, topology.Terminal(PositionChampionship))
	assert.True(t, topology.Terminal(PositionConsolation))
}

func TestFirstRoundOrder(t *testing.T) {
	expected := [8][2]int{{1, 16}, {8, 9}, {5, 12}, {4, 13}, {6, 11}, {3, 14}, {7, 10}, {2, 15}}
	assert.Equal(t, expected, FirstRoundOrder())
}

func TestRegionCode(t *testing.T) {
	assert.Equal(t, "WESTCOAST", RegionCode(" West Coast "))
	assert.Equal(t, "EAST", RegionCode("east"))
	assert.Equal(t, "", RegionCode("   "))
}

func TestRoundOrder(t *testing.T) {
	assert.Equal(t, []models.Round{
		models.RoundOf64, models.RoundOf32, models.RoundSweet16,
		models.RoundElite8, models.RoundSemifinals, models.RoundChampionship,
	}, RoundOrder(models.ShapeRegionalSingleElim64))
	assert.Equal(t, []models.Round{
		models.RoundSemifinals, models.RoundChampionship, models.RoundConsolation,
	}, RoundOrder(models.ShapeMultiTeamEvent4))
	assert.Nil(t, RoundOrder(models.Shape("unknown")))
}
