package loot

import (
	"context"
	"log/slog"
	"slices"

	"github.com/katacr/go-oneblock/internal/display"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
)

// Result counts what a fill did.
type Result struct {
	Drawn      int
	Placed     int
	Mismatched int
}

// Composer fills containers from chest configs.
type Composer struct {
	rand  weighted.Rand
	items world.ItemResolver
}

type ComposerOpt func(*Composer)

// WithItemResolver lets the composer place content pack items.
func WithItemResolver(items world.ItemResolver) ComposerOpt {
	return func(c *Composer) {
		c.items = items
	}
}

func NewComposer(r weighted.Rand, opts ...ComposerOpt) *Composer {
	c := &Composer{rand: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fill names the container and places each group's draws into its empty
// slots. Groups are filled in order and independently; a group stops when
// the container runs out of empty slots. Every placed stack is read back
// and only verified stacks count as placed.
func (c *Composer) Fill(ctx context.Context, cont world.Container, cfg *ChestConfig) Result {
	var res Result

	if cfg.Name != "" {
		err := cont.SetName(display.TranslateColors(cfg.Name))
		if err != nil {
			slog.WarnContext(ctx, "naming chest", "chest", cfg.ID, "error", err)
		}
	}

	for _, g := range cfg.Groups {
		drawn := c.draw(g)
		res.Drawn += len(drawn)

		placed, mismatched := c.place(ctx, cont, drawn)
		res.Placed += placed
		res.Mismatched += mismatched

		slog.DebugContext(ctx, "chest group filled", "chest", cfg.ID, "group", g.ID, "drawn", len(drawn), "placed", placed)
	}

	return res
}

func (c *Composer) draw(g *Group) []*Entry {
	count := weighted.Between(c.rand, g.Min, g.Max)

	drawn := make([]*Entry, 0, count)
	for range count {
		e, ok := g.Items.Draw(c.rand)
		if !ok {
			break
		}
		drawn = append(drawn, e)
	}
	return drawn
}

func (c *Composer) place(ctx context.Context, cont world.Container, entries []*Entry) (int, int) {
	size := cont.Size()

	var free []int
	for i := range size {
		if _, ok := cont.Item(i); !ok {
			free = append(free, i)
		}
	}
	weighted.Shuffle(c.rand, free)

	placed, mismatched := 0, 0
	for _, e := range entries {
		if len(free) == 0 {
			break
		}

		it, ok := e.Build(ctx, c.rand, c.items)
		if !ok {
			slog.DebugContext(ctx, "skipping unresolved item", "item", e.Template.String())
			continue
		}

		var slot int
		if idx := slices.Index(free, e.Slot); e.Slot >= 0 && e.Slot < size && idx >= 0 {
			slot = e.Slot
			free = slices.Delete(free, idx, idx+1)
		} else {
			slot = free[0]
			free = free[1:]
		}

		err := cont.SetItem(slot, it)
		if err != nil {
			slog.WarnContext(ctx, "placing chest item", "slot", slot, "item", it.Material, "error", err)
			continue
		}

		got, ok := cont.Item(slot)
		if !ok || !got.Same(it) {
			slog.WarnContext(ctx, "chest item did not persist", "slot", slot, "item", it.Material, "amount", it.Amount)
			mismatched++
			continue
		}
		placed++
	}
	return placed, mismatched
}
