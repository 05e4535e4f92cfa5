package brackets

import (
	"fmt"
	"strings"

	"github.com/courtside/bracket-engine/models"
)

const (
	TeamsPerRegion     = 16
	RegionCount        = 4
	MultiTeamEventSize = 4
)

// firstRoundOrder is the standard bracket reseeding order for a 16-seed
// region, in bracket-position sequence. The ordering encodes which half of
// the region each seed's sub-bracket belongs to, so the 1-seed and 2-seed can
// only meet in the regional final. It must not be replaced by naive numeric
// pairing.
var firstRoundOrder = [8][2]int{
	{1, 16},
	{8, 9},
	{5, 12},
	{4, 13},
	{6, 11},
	{3, 14},
	{7, 10},
	{2, 15},
}

// FirstRoundOrder returns the fixed round-of-64 matchup order for one region.
func FirstRoundOrder() [8][2]int {
	return firstRoundOrder
}

var regionalRoundOrder = []models.Round{
	models.RoundOf64,
	models.RoundOf32,
	models.RoundSweet16,
	models.RoundElite8,
	models.RoundSemifinals,
	models.RoundChampionship,
}

var multiTeamRoundOrder = []models.Round{
	models.RoundSemifinals,
	models.RoundChampionship,
	models.RoundConsolation,
}

// roundCodes are the short labels used inside bracket positions.
var roundCodes = map[models.Round]string{
	models.RoundOf64:    "R64",
	models.RoundOf32:    "R32",
	models.RoundSweet16: "S16",
	models.RoundElite8:  "E8",
}

// RoundOrder returns the round sequence for a shape, in play order.
func RoundOrder(shape models.Shape) []models.Round {
	switch shape {
	case models.ShapeRegionalSingleElim64:
		out := make([]models.Round, len(regionalRoundOrder))
		copy(out, regionalRoundOrder)
		return out
	case models.ShapeMultiTeamEvent4:
		out := make([]models.Round, len(multiTeamRoundOrder))
		copy(out, multiTeamRoundOrder)
		return out
	}
	return nil
}

// NodeSpec describes one game's place in a shape's topology: where it sits
// and where its winner (and, for consolation shapes, its loser) advances.
type NodeSpec struct {
	Position string
	Round    models.Round
	Region   string
	Ordinal  int // 1-based sequence within round and region
	WinnerTo *models.SlotRef
	LoserTo  *models.SlotRef
}

// Topology is the single, shared definition of a shape's bracket positions
// and advancement table. It is built once per tournament and reused by
// generation, linking and validation, replacing the ad hoc string keys the
// components would otherwise each re-derive.
type Topology struct {
	shape   models.Shape
	regions []string
	nodes   []*NodeSpec
	byPos   map[string]*NodeSpec
}

// NewTopology builds the topology for a shape. RegionalSingleElim64 requires
// exactly four region names; the 4-team event ignores regions.
func NewTopology(shape models.Shape, regions []string) (*Topology, error) {
	switch shape {
	case models.ShapeRegionalSingleElim64:
		if len(regions) != RegionCount {
			return nil, &ShapeViolationError{
				Shape:  shape,
				Reason: fmt.Sprintf("expected %d regions, got %d", RegionCount, len(regions)),
			}
		}
		codes := make([]string, len(regions))
		seen := make(map[string]bool, len(regions))
		for i, r := range regions {
			codes[i] = RegionCode(r)
			if codes[i] == "" {
				return nil, &ShapeViolationError{Shape: shape, Reason: "empty region name"}
			}
			if seen[codes[i]] {
				return nil, &ShapeViolationError{
					Shape:  shape,
					Reason: fmt.Sprintf("duplicate region code %q", codes[i]),
				}
			}
			seen[codes[i]] = true
		}
		return buildRegional64(codes), nil
	case models.ShapeMultiTeamEvent4:
		return buildMultiTeamEvent4(), nil
	default:
		return nil, &ShapeViolationError{
			Shape:  shape,
			Reason: "unsupported tournament shape",
		}
	}
}

// RegionCode normalizes a region name into the label fragment used in
// bracket positions, e.g. "West Coast" -> "WESTCOAST".
func RegionCode(region string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(region), " ", ""))
}

func position(regionCode string, round models.Round, ordinal int) string {
	return fmt.Sprintf("%s-%s-%d", regionCode, roundCodes[round], ordinal)
}

// Cross-region positions. The 64-team shape and the 4-team event share the
// FF-G1 / FF-G2 / CHAMP labels; only the 4-team event has CONS.
const (
	PositionSemifinal1   = "FF-G1"
	PositionSemifinal2   = "FF-G2"
	PositionChampionship = "CHAMP"
	PositionConsolation  = "CONS"
)

func buildRegional64(regionCodes []string) *Topology {
	t := &Topology{
		shape:   models.ShapeRegionalSingleElim64,
		regions: regionCodes,
		byPos:   make(map[string]*NodeSpec),
	}

	regionalRounds := []struct {
		round models.Round
		games int
	}{
		{models.RoundOf64, 8},
		{models.RoundOf32, 4},
		{models.RoundSweet16, 2},
		{models.RoundElite8, 1},
	}

	// Region-to-semifinal assignment is a domain convention, not arithmetic:
	// the first two regions converge on FF-G1, the last two on FF-G2, in the
	// order the regions were supplied.
	semifinalSlots := [RegionCount]models.SlotRef{
		{Position: PositionSemifinal1, Slot: models.SlotHome},
		{Position: PositionSemifinal1, Slot: models.SlotAway},
		{Position: PositionSemifinal2, Slot: models.SlotHome},
		{Position: PositionSemifinal2, Slot: models.SlotAway},
	}

	for ri, code := range regionCodes {
		for level, r := range regionalRounds {
			for i := 1; i <= r.games; i++ {
				node := &NodeSpec{
					Position: position(code, r.round, i),
					Round:    r.round,
					Region:   code,
					Ordinal:  i,
				}
				if level < len(regionalRounds)-1 {
					next := regionalRounds[level+1].round
					node.WinnerTo = pairingTarget(position(code, next, (i+1)/2), i)
				} else {
					ref := semifinalSlots[ri]
					node.WinnerTo = &ref
				}
				t.add(node)
			}
		}
	}

	t.add(&NodeSpec{
		Position: PositionSemifinal1,
		Round:    models.RoundSemifinals,
		Region:   models.RegionFinal,
		Ordinal:  1,
		WinnerTo: &models.SlotRef{Position: PositionChampionship, Slot: models.SlotHome},
	})
	t.add(&NodeSpec{
		Position: PositionSemifinal2,
		Round:    models.RoundSemifinals,
		Region:   models.RegionFinal,
		Ordinal:  2,
		WinnerTo: &models.SlotRef{Position: PositionChampionship, Slot: models.SlotAway},
	})
	t.add(&NodeSpec{
		Position: PositionChampionship,
		Round:    models.RoundChampionship,
		Region:   models.RegionFinal,
		Ordinal:  1,
	})

	return t
}

func buildMultiTeamEvent4() *Topology {
	t := &Topology{
		shape: models.ShapeMultiTeamEvent4,
		byPos: make(map[string]*NodeSpec),
	}
	t.add(&NodeSpec{
		Position: PositionSemifinal1,
		Round:    models.RoundSemifinals,
		Region:   models.RegionFinal,
		Ordinal:  1,
		WinnerTo: &models.SlotRef{Position: PositionChampionship, Slot: models.SlotHome},
		LoserTo:  &models.SlotRef{Position: PositionConsolation, Slot: models.SlotHome},
	})
	t.add(&NodeSpec{
		Position: PositionSemifinal2,
		Round:    models.RoundSemifinals,
		Region:   models.RegionFinal,
		Ordinal:  2,
		WinnerTo: &models.SlotRef{Position: PositionChampionship, Slot: models.SlotAway},
		LoserTo:  &models.SlotRef{Position: PositionConsolation, Slot: models.SlotAway},
	})
	t.add(&NodeSpec{
		Position: PositionChampionship,
		Round:    models.RoundChampionship,
		Region:   models.RegionFinal,
		Ordinal:  1,
	})
	t.add(&NodeSpec{
		Position: PositionConsolation,
		Round:    models.RoundConsolation,
		Region:   models.RegionFinal,
		Ordinal:  1,
	})
	return t
}

// pairingTarget applies the generic intra-region pairing rule: games 1-2 of a
// round feed game 1 of the next as home/away, games 3-4 feed game 2, and so
// on. Odd ordinals land in the home slot.
func pairingTarget(nextPosition string, ordinal int) *models.SlotRef {
	slot := models.SlotAway
	if ordinal%2 == 1 {
		slot = models.SlotHome
	}
	return &models.SlotRef{Position: nextPosition, Slot: slot}
}

func (t *Topology) add(node *NodeSpec) {
	t.nodes = append(t.nodes, node)
	t.byPos[node.Position] = node
}

func (t *Topology) Shape() models.Shape {
	return t.shape
}

// RegionCodes returns the normalized region codes in supplied order, nil for
// shapes without regions.
func (t *Topology) RegionCodes() []string {
	return t.regions
}

// Nodes returns every node spec. The order is stable: regions in supplied
// order, rounds in play order, then ordinal, with cross-region rounds last.
func (t *Topology) Nodes() []*NodeSpec {
	return t.nodes
}

// Lookup resolves a bracket position to its spec.
func (t *Topology) Lookup(pos string) (*NodeSpec, bool) {
	n, ok := t.byPos[pos]
	return n, ok
}

// GameCount is the deterministic total number of games for the shape.
func (t *Topology) GameCount() int {
	return len(t.nodes)
}

// RoundCounts is the deterministic per-round game count for the shape.
func (t *Topology) RoundCounts() map[models.Round]int {
	counts := make(map[models.Round]int)
	for _, n := range t.nodes {
		counts[n.Round]++
	}
	return counts
}

// Terminal reports whether a position has no outgoing advancement edges.
// Unknown positions are not terminal.
func (t *Topology) Terminal(pos string) bool {
	n, ok := t.byPos[pos]
	if !ok {
		return false
	}
	return n.WinnerTo == nil && n.LoserTo == nil
}

// HasConsolation reports whether the shape carries loser-advancement edges.
func (t *Topology) HasConsolation() bool {
	for _, n := range t.nodes {
		if n.LoserTo != nil {
			return true
		}
	}
	return false
}
