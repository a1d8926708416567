package entity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
)

// Catalog caches entity pack documents.
type Catalog struct {
	store *storage.FileStore[*Pack]
}

func NewCatalog(dir string) (*Catalog, error) {
	store, err := storage.NewFileStore[*Pack](dir)
	if err != nil {
		return nil, fmt.Errorf("creating entity store: %w", err)
	}
	return &Catalog{store: store}, nil
}

func (c *Catalog) Get(id string) (*Pack, error) {
	return c.store.Get(id)
}

func (c *Catalog) Keys() ([]storage.Identifier, error) {
	return c.store.Keys()
}

// Invalidate drops every cached pack.
func (c *Catalog) Invalidate() {
	c.store.Invalidate()
}

type packSource interface {
	Get(id string) (*Pack, error)
}

// Spawner spawns weighted mobs from entity packs.
type Spawner struct {
	packs packSource
	world world.World
	rand  weighted.Rand
}

func NewSpawner(packs packSource, w world.World, r weighted.Rand) *Spawner {
	return &Spawner{packs: packs, world: w, rand: r}
}

// Spawn picks a mob from the pack and spawns it at pos. ok is false when
// nothing was spawned; the reason is logged.
func (s *Spawner) Spawn(ctx context.Context, pos world.Position, packID string) (world.EntitySpec, bool) {
	if packID == "" {
		slog.WarnContext(ctx, "no entity pack configured", "pos", pos.String())
		return world.EntitySpec{}, false
	}

	pack, err := s.packs.Get(packID)
	if err != nil {
		slog.WarnContext(ctx, "loading entity pack", "pack", packID, "error", err)
		return world.EntitySpec{}, false
	}

	mob, ok := pack.Mobs.Draw(s.rand)
	if !ok {
		slog.WarnContext(ctx, "entity pack is empty", "pack", packID)
		return world.EntitySpec{}, false
	}

	spec := mob.Spec()
	err = s.world.SpawnEntity(ctx, pos, spec)
	if err != nil {
		slog.WarnContext(ctx, "spawning entity", "pack", packID, "entity", mob.Key, "error", err)
		return world.EntitySpec{}, false
	}

	slog.DebugContext(ctx, "entity spawned", "pack", packID, "entity", mob.Key, "type", spec.Type, "pos", pos.String())
	return spec, true
}
