package materialize

import (
	"fmt"

	"github.com/katacr/go-oneblock/internal/outcome"
	"github.com/katacr/go-oneblock/internal/world"
)

type Phase int

const (
	// PhaseScheduled is set by Schedule; the intended block type is recorded.
	PhaseScheduled Phase = iota
	// PhasePlaced means the block, entity or chest block is in the world.
	PhasePlaced
	// PhaseFilled means a chest placement was populated.
	PhaseFilled
	// PhaseAborted is terminal; nothing more happens to the placement.
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseScheduled:
		return "scheduled"
	case PhasePlaced:
		return "placed"
	case PhaseFilled:
		return "filled"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Placement tracks one outcome through its phases.
type Placement struct {
	ID         string
	PlayerID   string
	PlayerName string
	Pos        world.Position
	Outcome    outcome.Outcome
	Phase      Phase
}
