package outcome

import (
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/weighted"
)

const DefaultChestChance = 0.05

type chestSource interface {
	RandomID(r weighted.Rand) string
}

// Resolver decides what replaces a broken block. Entities take priority
// over chests, chests over blocks.
type Resolver struct {
	rand         weighted.Rand
	chests       chestSource
	chestChance  float64
	defaultBlock stage.BlockRef
}

type ResolverOpt func(*Resolver)

// WithChestChance sets the chest chance used by stages without a chest table.
func WithChestChance(p float64) ResolverOpt {
	return func(r *Resolver) {
		r.chestChance = p
	}
}

// WithDefaultBlock sets the block used when a stage has no usable blocks.
func WithDefaultBlock(b stage.BlockRef) ResolverOpt {
	return func(r *Resolver) {
		if !b.IsZero() {
			r.defaultBlock = b
		}
	}
}

func NewResolver(r weighted.Rand, chests chestSource, opts ...ResolverOpt) *Resolver {
	res := &Resolver{
		rand:         r,
		chests:       chests,
		chestChance:  DefaultChestChance,
		defaultBlock: stage.DefaultBlock,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Resolve draws one fraction and resolves the outcome for def. A nil def
// resolves like a stage with no entities, no chest table and no blocks.
func (r *Resolver) Resolve(def *stage.Definition) Outcome {
	return r.ResolveWith(def, r.rand.Float64())
}

// ResolveWith resolves using roll as the event's uniform fraction. Block
// selection uses a second, independent draw.
func (r *Resolver) ResolveWith(def *stage.Definition, roll float64) Outcome {
	if def == nil {
		def = stage.Fallback()
	}

	if def.EntitySpawnChance > 0 && roll <= def.EntitySpawnChance {
		return Entity(def.EntityPackID, r.block(def))
	}

	if len(def.ChestChances) > 0 {
		bound := def.EntitySpawnChance
		for _, c := range def.ChestChances {
			bound += c.Chance
			if roll <= bound {
				return Chest(c.ChestID)
			}
		}
		return Block(r.block(def))
	}

	if r.chests != nil && r.chestChance > 0 && roll <= def.EntitySpawnChance+r.chestChance {
		return Chest(r.chests.RandomID(r.rand))
	}

	return Block(r.block(def))
}

func (r *Resolver) block(def *stage.Definition) stage.BlockRef {
	b, ok := def.Blocks.Draw(r.rand)
	if !ok || b.IsZero() {
		return r.defaultBlock
	}
	return b
}
