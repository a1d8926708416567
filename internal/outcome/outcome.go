package outcome

import (
	"fmt"

	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/world"
)

type Kind int

const (
	KindBlock Kind = iota
	KindChest
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindChest:
		return "chest"
	case KindEntity:
		return "entity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is what replaces a broken block. Entity outcomes also carry the
// block that refills the position under the spawned entity.
type Outcome struct {
	Kind         Kind
	Block        stage.BlockRef
	ChestID      string
	EntityPackID string
}

func Block(b stage.BlockRef) Outcome {
	return Outcome{Kind: KindBlock, Block: b}
}

func Chest(id string) Outcome {
	return Outcome{Kind: KindChest, ChestID: id}
}

func Entity(packID string, b stage.BlockRef) Outcome {
	return Outcome{Kind: KindEntity, EntityPackID: packID, Block: b}
}

// BlockType is the value recorded for the position once the outcome is placed.
func (o Outcome) BlockType() string {
	if o.Kind == KindChest {
		return world.ChestMarker(o.ChestID)
	}
	return o.Block.String()
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindChest:
		return "chest:" + o.ChestID
	case KindEntity:
		return "entity:" + o.EntityPackID + "+" + o.Block.String()
	default:
		return "block:" + o.Block.String()
	}
}
