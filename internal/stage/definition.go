package stage

import (
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBreakThreshold    = 500
	DefaultEntitySpawnChance = 0.05
)

// ChestChance is one row of a stage's chest table.
type ChestChance struct {
	ChestID string
	Chance  float64
}

// Definition is a loaded stage document. It is not modified after load.
type Definition struct {
	ID                string
	BreakThreshold    int
	NextStageID       string
	EntitySpawnChance float64
	EntityPackID      string
	Announcement      string

	// ChestChances keeps the order the chests appear in the document.
	ChestChances []ChestChance
	Blocks       *weighted.Pool[BlockRef]
}

// Fallback is the definition used when a player's stage can't be loaded:
// no entities, no chest table and an empty block table.
func Fallback() *Definition {
	return &Definition{
		BreakThreshold: DefaultBreakThreshold,
		Blocks:         weighted.NewPool[BlockRef](),
	}
}

func (d *Definition) SetIdentifier(id storage.Identifier) {
	d.ID = id.String()
}

func (d *Definition) Validate() error {
	if d.BreakThreshold <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, d.BreakThreshold)
	}
	if d.NextStageID != "" && !storage.Identifier(d.NextStageID).Valid() {
		return fmt.Errorf("next stage %q: %w", d.NextStageID, storage.ErrInvalidIdentifier)
	}
	return nil
}

// HasNext reports whether the stage names a successor.
func (d *Definition) HasNext() bool {
	return d != nil && d.NextStageID != ""
}

// UnmarshalYAML reads a stage document. Malformed entries in the chest and
// block tables are logged and skipped so the rest of the document still loads.
func (d *Definition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: stage document must be a mapping", node.Line)
	}

	d.BreakThreshold = DefaultBreakThreshold
	d.EntitySpawnChance = DefaultEntitySpawnChance
	d.Blocks = weighted.NewPool[BlockRef]()

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "amount", "threshold":
			var n int
			if err := val.Decode(&n); err != nil {
				slog.Warn("ignoring stage threshold", "line", val.Line, "value", val.Value, "error", err)
				continue
			}
			d.BreakThreshold = n

		case "next":
			if val.Kind == yaml.ScalarNode && val.Tag == "!!str" {
				d.NextStageID = storage.Canonical(val.Value).String()
			}

		case "message":
			if val.Kind == yaml.ScalarNode && val.Tag == "!!str" {
				d.Announcement = val.Value
			}

		case "entity_pack":
			if val.Kind == yaml.ScalarNode && val.Tag == "!!str" {
				d.EntityPackID = storage.Canonical(val.Value).String()
			}

		case "entity_chance":
			var f float64
			if err := val.Decode(&f); err != nil || f < 0 || f > 1 {
				slog.Warn("ignoring entity chance", "line", val.Line, "value", val.Value)
				continue
			}
			d.EntitySpawnChance = f

		case "chests":
			d.ChestChances = decodeChestTable(val)

		case "blocks":
			decodeBlockTable(val, d.Blocks)
		}
	}

	return nil
}

func decodeChestTable(node *yaml.Node) []ChestChance {
	if node.Kind != yaml.MappingNode {
		slog.Warn("chests must be a mapping", "line", node.Line)
		return nil
	}

	var table []ChestChance
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var chance float64
		if err := val.Decode(&chance); err != nil {
			slog.Warn("skipping chest entry", "chest", key.Value, "line", val.Line, "error", err)
			continue
		}
		if chance < 0 {
			slog.Warn("skipping chest entry with negative chance", "chest", key.Value, "chance", chance)
			continue
		}
		table = append(table, ChestChance{ChestID: storage.Canonical(key.Value).String(), Chance: chance})
	}
	return table
}

func decodeBlockTable(node *yaml.Node, pool *weighted.Pool[BlockRef]) {
	if node.Kind != yaml.MappingNode {
		slog.Warn("blocks must be a mapping", "line", node.Line)
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		ref, err := ParseBlockRef(key.Value)
		if err != nil {
			slog.Warn("skipping block entry", "line", key.Line, "error", err)
			continue
		}

		weight := 1.0
		if val.Tag != "!!null" {
			if err := val.Decode(&weight); err != nil {
				slog.Warn("skipping block entry", "block", ref.String(), "line", val.Line, "error", err)
				continue
			}
		}
		if weight <= 0 {
			slog.Warn("skipping block entry with non-positive weight", "block", ref.String(), "weight", weight)
			continue
		}
		pool.Add(ref, weight)
	}
}
