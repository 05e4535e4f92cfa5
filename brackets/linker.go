package brackets

import "github.com/courtside/bracket-engine/models"

// Linker writes advancement edges onto generated games. It is a pure function
// of bracket positions: the same set of games always produces the same edges.
type Linker struct {
	topology *Topology
}

func NewLinker(topology *Topology) *Linker {
	return &Linker{topology: topology}
}

// Link populates WinnerTarget and LoserTarget on every game from the
// topology's advancement table. Edges whose downstream position is absent
// from the supplied set are skipped and reported; linking the rest of the
// graph continues. Games at positions unknown to the topology are left
// untouched; flagging orphans is the consistency guard's job.
func (l *Linker) Link(games []*models.Game) []LinkViolation {
	byPos := make(map[string]*models.Game, len(games))
	for _, g := range games {
		byPos[g.BracketPosition] = g
	}

	var violations []LinkViolation
	for _, g := range games {
		spec, ok := l.topology.Lookup(g.BracketPosition)
		if !ok {
			continue
		}
		g.WinnerTarget = nil
		g.LoserTarget = nil

		if spec.WinnerTo != nil {
			if _, exists := byPos[spec.WinnerTo.Position]; exists {
				ref := *spec.WinnerTo
				g.WinnerTarget = &ref
			} else {
				violations = append(violations, LinkViolation{
					FromPosition:   g.BracketPosition,
					TargetPosition: spec.WinnerTo.Position,
					Edge:           EdgeWinner,
				})
			}
		}
		if spec.LoserTo != nil {
			if _, exists := byPos[spec.LoserTo.Position]; exists {
				ref := *spec.LoserTo
				g.LoserTarget = &ref
			} else {
				violations = append(violations, LinkViolation{
					FromPosition:   g.BracketPosition,
					TargetPosition: spec.LoserTo.Position,
					Edge:           EdgeLoser,
				})
			}
		}
	}
	return violations
}
