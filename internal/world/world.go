package world

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	AirBlock   = "AIR"
	ChestBlock = "CHEST"

	chestMarkerPrefix = ChestBlock + ":"
)

// Position is a block coordinate in a named world.
type Position struct {
	World string `json:"world"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
}

// Up returns the position directly above p.
func (p Position) Up() Position {
	p.Y++
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("%s(%d, %d, %d)", p.World, p.X, p.Y, p.Z)
}

type Item struct {
	Material     string         `json:"material"`
	Amount       int            `json:"amount"`
	Name         string         `json:"name,omitempty"`
	Lore         []string       `json:"lore,omitempty"`
	Enchantments map[string]int `json:"enchantments,omitempty"`
	// StoredEnchantments are the enchantments held by an enchanted book.
	StoredEnchantments map[string]int `json:"stored_enchantments,omitempty"`
	PotionType         string         `json:"potion_type,omitempty"`
	Effects            []Effect       `json:"effects,omitempty"`
}

// Effect is a custom potion effect. Duration is in ticks.
type Effect struct {
	Type      string `json:"type"`
	Duration  int    `json:"duration"`
	Amplifier int    `json:"amplifier"`
	Ambient   bool   `json:"ambient"`
	Particles bool   `json:"particles"`
	Icon      bool   `json:"icon"`
}

// Same reports whether o is the same stack as i.
func (i Item) Same(o Item) bool {
	if i.Material != o.Material || i.Amount != o.Amount || i.Name != o.Name || i.PotionType != o.PotionType {
		return false
	}
	return slices.Equal(i.Lore, o.Lore) &&
		slices.Equal(i.Effects, o.Effects) &&
		sameLevels(i.Enchantments, o.Enchantments) &&
		sameLevels(i.StoredEnchantments, o.StoredEnchantments)
}

func sameLevels(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if lvl, ok := b[k]; !ok || lvl != v {
			return false
		}
	}
	return true
}

// EntitySpec describes a mob to spawn. Armor maps an equipment slot
// (helmet, chestplate, leggings, boots) to a material.
type EntitySpec struct {
	Type  string            `json:"type"`
	Name  string            `json:"name,omitempty"`
	Armor map[string]string `json:"armor,omitempty"`
}

type Container interface {
	Size() int
	Item(slot int) (Item, bool)
	SetItem(slot int, item Item) error
	SetName(name string) error
}

// World is the block world the generator writes to.
type World interface {
	SetBlock(ctx context.Context, pos Position, material string) error
	IsEmpty(ctx context.Context, pos Position) (bool, error)
	SpawnEntity(ctx context.Context, pos Position, spec EntitySpec) error
	OpenContainer(ctx context.Context, pos Position) (Container, error)
}

// CustomBlockPlacer places blocks from a content pack.
type CustomBlockPlacer interface {
	PlaceCustom(ctx context.Context, pos Position, namespace, id string) error
}

// ItemResolver builds stacks for content pack items.
type ItemResolver interface {
	ResolveItem(ctx context.Context, namespace, id string) (Item, bool)
}

// OwnedBlock is a block the generator placed for a player.
type OwnedBlock struct {
	ID          int64
	OwnerID     string
	OwnerName   string
	Pos         Position
	BlockType   string
	GeneratedAt time.Time
}

// ChestMarker is the block type recorded for a position that holds a loot chest.
func ChestMarker(configID string) string {
	return chestMarkerPrefix + configID
}

// ParseChestMarker returns the chest config id of a chest marker.
func ParseChestMarker(blockType string) (string, bool) {
	if !strings.HasPrefix(blockType, chestMarkerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(blockType, chestMarkerPrefix), true
}
