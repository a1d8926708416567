package audit

import (
	"time"

	"github.com/katacr/go-oneblock/internal/world"
)

// Event kinds written to the audit trail.
const (
	KindBlockGenerated    = "block_generated"
	KindBlockReplaced     = "block_replaced"
	KindChestGenerated    = "chest_generated"
	KindEntitySpawned     = "entity_spawned"
	KindPlacementFallback = "placement_fallback"
	KindPositionOccupied  = "position_occupied"
	KindStageAdvanced     = "stage_advanced"
)

// Event is one audit record.
type Event struct {
	ID         string          `json:"id"`
	Time       time.Time       `json:"time"`
	Kind       string          `json:"kind"`
	PlayerID   string          `json:"player_id,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	Pos        *world.Position `json:"pos,omitempty"`
	Detail     string          `json:"detail,omitempty"`
}
