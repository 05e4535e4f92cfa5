package brackets

import (
	"fmt"

	"github.com/courtside/bracket-engine/models"
)

// ShapeViolationError means the requested shape cannot be built from the
// supplied inputs (wrong region count, incomplete seeding). Generation is
// all-or-nothing: when this is returned no games were produced.
type ShapeViolationError struct {
	Shape  models.Shape
	Reason string
}

func (e *ShapeViolationError) Error() string {
	return fmt.Sprintf("shape violation for %s: %s", e.Shape, e.Reason)
}

// EdgeType distinguishes winner-advancement from loser-advancement edges.
type EdgeType string

const (
	EdgeWinner EdgeType = "winner"
	EdgeLoser  EdgeType = "loser"
)

// LinkViolation reports one advancement edge whose downstream bracket
// position was not found. Linking tolerates these and continues; later
// repair may add the missing node.
type LinkViolation struct {
	FromPosition   string   `json:"from_position"`
	TargetPosition string   `json:"target_position"`
	Edge           EdgeType `json:"edge"`
}

func (v LinkViolation) String() string {
	return fmt.Sprintf("%s edge of %s targets missing position %s", v.Edge, v.FromPosition, v.TargetPosition)
}
