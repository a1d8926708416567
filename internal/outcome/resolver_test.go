package outcome

import (
	"testing"

	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/pixil98/go-testutil"
)

// fixedRand returns the same fraction for every draw.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }
func (f fixedRand) IntN(n int) int   { return int(float64(f) * float64(n)) }

type mockChests struct {
	id string
}

func (m *mockChests) RandomID(weighted.Rand) string {
	return m.id
}

func newStage(entityChance float64, chests []stage.ChestChance, blocks map[stage.BlockRef]float64) *stage.Definition {
	pool := weighted.NewPool[stage.BlockRef]()
	// insertion order matters for fixed draws, so add STONE first when present
	if w, ok := blocks[stage.Vanilla("STONE")]; ok {
		pool.Add(stage.Vanilla("STONE"), w)
	}
	for b, w := range blocks {
		if b != stage.Vanilla("STONE") {
			pool.Add(b, w)
		}
	}
	return &stage.Definition{
		ID:                "test",
		BreakThreshold:    5,
		EntitySpawnChance: entityChance,
		EntityPackID:      "zombies",
		ChestChances:      chests,
		Blocks:            pool,
	}
}

func TestResolver_ResolveWith(t *testing.T) {
	stoneDirt := map[stage.BlockRef]float64{stage.Vanilla("STONE"): 9, stage.Vanilla("DIRT"): 1}
	table := []stage.ChestChance{{ChestID: "rare", Chance: 0.01}, {ChestID: "common", Chance: 0.1}}

	tests := map[string]struct {
		def         *stage.Definition
		roll        float64
		chestChance float64
		exp         Outcome
	}{
		"entity band": {
			def:  newStage(0.05, nil, stoneDirt),
			roll: 0.03,
			exp:  Entity("zombies", stage.Vanilla("STONE")),
		},
		"entity band edge is inclusive": {
			def:  newStage(0.05, nil, stoneDirt),
			roll: 0.05,
			exp:  Entity("zombies", stage.Vanilla("STONE")),
		},
		"block without chest table": {
			def:  newStage(0.05, nil, stoneDirt),
			roll: 0.5,
			exp:  Block(stage.Vanilla("STONE")),
		},
		"zero entity chance never spawns": {
			def:  newStage(0, nil, stoneDirt),
			roll: 0,
			exp:  Block(stage.Vanilla("STONE")),
		},
		"first chest band": {
			def:  newStage(0.05, table, stoneDirt),
			roll: 0.055,
			exp:  Chest("rare"),
		},
		"second chest band is cumulative": {
			def:  newStage(0.05, table, stoneDirt),
			roll: 0.15,
			exp:  Chest("common"),
		},
		"past chest bands": {
			def:  newStage(0.05, table, stoneDirt),
			roll: 0.17,
			exp:  Block(stage.Vanilla("STONE")),
		},
		"global chest chance": {
			def:         newStage(0.05, nil, stoneDirt),
			roll:        0.08,
			chestChance: 0.05,
			exp:         Chest("random"),
		},
		"past global chest chance": {
			def:         newStage(0.05, nil, stoneDirt),
			roll:        0.11,
			chestChance: 0.05,
			exp:         Block(stage.Vanilla("STONE")),
		},
		"empty block table uses default": {
			def:  newStage(0, nil, nil),
			roll: 0.5,
			exp:  Block(stage.Vanilla("GRASS_BLOCK")),
		},
		"nil definition": {
			def:  nil,
			roll: 0.5,
			exp:  Block(stage.Vanilla("GRASS_BLOCK")),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewResolver(fixedRand(0.1), &mockChests{id: "random"},
				WithChestChance(tt.chestChance),
				WithDefaultBlock(stage.Vanilla("GRASS_BLOCK")),
			)

			got := r.ResolveWith(tt.def, tt.roll)
			testutil.AssertEqual(t, "outcome", got, tt.exp)
		})
	}
}

func TestResolver_BlockDrawIsIndependent(t *testing.T) {
	def := newStage(0, nil, map[stage.BlockRef]float64{stage.Vanilla("STONE"): 9, stage.Vanilla("DIRT"): 1})

	// Block draw of 0.95 lands in DIRT regardless of the event roll.
	r := NewResolver(fixedRand(0.95), nil, WithChestChance(0))
	got := r.ResolveWith(def, 0.5)
	testutil.AssertEqual(t, "outcome", got, Block(stage.Vanilla("DIRT")))
}

func TestResolver_Frequencies(t *testing.T) {
	def := newStage(0.05, []stage.ChestChance{{ChestID: "rare", Chance: 0.10}}, map[stage.BlockRef]float64{stage.Vanilla("STONE"): 1})
	r := NewResolver(weighted.NewRand(42), nil)

	const n = 100000
	counts := map[Kind]int{}
	for range n {
		counts[r.Resolve(def).Kind]++
	}

	check := func(kind Kind, exp float64) {
		got := float64(counts[kind]) / n
		if got < exp-0.01 || got > exp+0.01 {
			t.Errorf("%s frequency %.4f, expected %.2f", kind, got, exp)
		}
	}
	check(KindEntity, 0.05)
	check(KindChest, 0.10)
	check(KindBlock, 0.85)
}

func TestOutcome_BlockType(t *testing.T) {
	testutil.AssertEqual(t, "chest", Chest("rare").BlockType(), "CHEST:rare")
	testutil.AssertEqual(t, "vanilla", Block(stage.Vanilla("STONE")).BlockType(), "STONE")
	testutil.AssertEqual(t, "custom", Block(stage.Custom("ia", "ruby_ore")).BlockType(), "ia:ruby_ore")
	testutil.AssertEqual(t, "entity", Entity("z", stage.Vanilla("DIRT")).BlockType(), "DIRT")
	testutil.AssertEqual(t, "kind", KindChest.String(), "chest")
}
