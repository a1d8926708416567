package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/entity"
	"github.com/katacr/go-oneblock/internal/loot"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-testutil"
)

const (
	steveID = "6f1c2f4e-7d0a-4b8e-9a51-3c2d1e0f9a10"
	alexID  = "0b9d8c7a-1e2f-4a3b-8c4d-5e6f7a8b9c0d"
)

type memBlocks struct {
	blocks map[world.Position]world.OwnedBlock
	nextID int64
}

func newMemBlocks() *memBlocks {
	return &memBlocks{blocks: map[world.Position]world.OwnedBlock{}}
}

func (m *memBlocks) FindOwnedBlock(_ context.Context, pos world.Position) (world.OwnedBlock, bool, error) {
	b, ok := m.blocks[pos]
	return b, ok, nil
}

func (m *memBlocks) FindOwnedBlockByPlayer(_ context.Context, playerID, worldName string) (world.OwnedBlock, bool, error) {
	for _, b := range m.blocks {
		if b.OwnerID == playerID && b.Pos.World == worldName {
			return b, true, nil
		}
	}
	return world.OwnedBlock{}, false, nil
}

func (m *memBlocks) UpsertOwnedBlock(_ context.Context, b world.OwnedBlock) (int64, error) {
	if cur, ok := m.blocks[b.Pos]; ok && cur.OwnerID != b.OwnerID {
		return 0, world.ErrPositionOwned
	}
	m.nextID++
	b.ID = m.nextID
	m.blocks[b.Pos] = b
	return b.ID, nil
}

func (m *memBlocks) UpdateBlockType(_ context.Context, pos world.Position, blockType string) error {
	if b, ok := m.blocks[pos]; ok {
		b.BlockType = blockType
		m.blocks[pos] = b
	}
	return nil
}

func (m *memBlocks) DeleteOwnedBlock(_ context.Context, playerID, worldName string) (bool, error) {
	deleted := false
	for pos, b := range m.blocks {
		if b.OwnerID == playerID && b.Pos.World == worldName {
			delete(m.blocks, pos)
			deleted = true
		}
	}
	return deleted, nil
}

type recordingNotifier struct {
	msgs map[string][]string
}

func (n *recordingNotifier) Notify(_ context.Context, playerID, msg string) {
	n.msgs[playerID] = append(n.msgs[playerID], msg)
}

func (n *recordingNotifier) Announce(ctx context.Context, playerID string, def *stage.Definition) {
	n.Notify(ctx, playerID, def.Announcement)
}

type harness struct {
	svc      *Service
	world    *world.Memory
	blocks   *memBlocks
	sched    *driver.Scheduler
	notifier *recordingNotifier
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

func newHarness(t *testing.T, opts ...ServiceOpt) *harness {
	t.Helper()
	root := t.TempDir()
	stageDir := filepath.Join(root, "stages")
	writeFile(t, stageDir, "normal.yml", "amount: 5\nnext: nether\nmessage: \"&aWelcome\"\nentity_chance: 0\nblocks:\n  dirt: 1\n")
	writeFile(t, stageDir, "nether.yml", "amount: 10\nmessage: \"&cNether\"\nentity_chance: 0\nblocks:\n  netherrack: 1\n")
	chestDir := filepath.Join(root, "chests")
	writeFile(t, chestDir, "common.yml", "name: Common\nitems:\n  a:\n    material: stone\n")
	packDir := filepath.Join(root, "entities")
	writeFile(t, packDir, "undead.yml", "list:\n  z:\n    type: zombie\n")

	stages, err := stage.NewCatalog(stageDir)
	if err != nil {
		t.Fatalf("stage catalog: %v", err)
	}
	chests, err := loot.NewCatalog(chestDir)
	if err != nil {
		t.Fatalf("chest catalog: %v", err)
	}
	packs, err := entity.NewCatalog(packDir)
	if err != nil {
		t.Fatalf("entity catalog: %v", err)
	}

	h := &harness{
		world:    world.NewMemory(),
		blocks:   newMemBlocks(),
		sched:    driver.NewScheduler(),
		notifier: &recordingNotifier{msgs: map[string][]string{}},
	}
	base := []ServiceOpt{
		WithRand(weighted.NewRand(7)),
		WithChestChance(0),
		WithNotifier(h.notifier),
		WithCustomBlocks(h.world),
	}
	h.svc = NewService(stages, chests, packs, h.world, h.blocks, h.sched, append(base, opts...)...)
	return h
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	if err := h.sched.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

var spawn = world.Position{World: "world", X: 10, Y: 70, Z: -4}

func TestService_StartPlayer(t *testing.T) {
	tests := map[string]struct {
		allowed []string
		pos     world.Position
		twice   bool
		other   bool
		expErr  error
	}{
		"allowed": {
			allowed: []string{"world"},
			pos:     spawn,
		},
		"all worlds allowed": {
			pos: world.Position{World: "skyblock", X: 1},
		},
		"world not allowed": {
			allowed: []string{"world"},
			pos:     world.Position{World: "world_nether"},
			expErr:  ErrWorldNotAllowed,
		},
		"one per world": {
			pos:    spawn,
			twice:  true,
			expErr: ErrAlreadyStarted,
		},
		"another player's block": {
			pos:    spawn,
			other:  true,
			expErr: ErrPositionOwned,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, WithAllowedWorlds(tt.allowed...))
			ctx := context.Background()
			ev := StartEvent{PlayerID: steveID, PlayerName: "Steve", Pos: tt.pos}
			if tt.other {
				_, err := h.svc.StartPlayer(ctx, StartEvent{PlayerID: alexID, PlayerName: "Alex", Pos: tt.pos})
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			owned, err := h.svc.StartPlayer(ctx, ev)
			if tt.twice {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				_, err = h.svc.StartPlayer(ctx, ev)
			}
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error", errors.Is(err, tt.expErr), true)
				if tt.other {
					b, _, _ := h.blocks.FindOwnedBlock(ctx, tt.pos)
					testutil.AssertEqual(t, "owner kept", b.OwnerID, alexID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testutil.AssertEqual(t, "block type", owned.BlockType, "DIRT")
			block, _ := h.world.Block(tt.pos)
			testutil.AssertEqual(t, "world block", block, "DIRT")
			_, ok, _ := h.blocks.FindOwnedBlock(ctx, tt.pos)
			testutil.AssertEqual(t, "owned", ok, true)

			p, ok := h.svc.engine.Current(steveID)
			testutil.AssertEqual(t, "progress", ok, true)
			testutil.AssertEqual(t, "stage", p.StageID, "normal")
		})
	}
}

func TestService_BreakProgression(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.StartPlayer(ctx, StartEvent{PlayerID: steveID, PlayerName: "Steve", Pos: spawn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expBlocks := []string{"DIRT", "DIRT", "DIRT", "DIRT", "NETHERRACK", "NETHERRACK"}
	for i, exp := range expBlocks {
		_ = h.world.SetBlock(ctx, spawn, world.AirBlock)
		err := h.svc.HandleBreak(ctx, BreakEvent{PlayerID: steveID, PlayerName: "Steve", Pos: spawn})
		if err != nil {
			t.Fatalf("break %d: %v", i, err)
		}
		h.tick(t)

		block, _ := h.world.Block(spawn)
		testutil.AssertEqual(t, "block", block, exp)
		owned, _, _ := h.blocks.FindOwnedBlock(ctx, spawn)
		testutil.AssertEqual(t, "recorded", owned.BlockType, exp)
	}

	st, err := h.svc.Status(steveID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "stage", st.Progress.StageID, "nether")
	testutil.AssertEqual(t, "broken", st.Progress.BlocksBroken, 1)
	testutil.AssertEqual(t, "threshold", st.Threshold, 10)
	testutil.AssertEqual(t, "name", st.Name, "Steve")

	msgs := h.notifier.msgs[steveID]
	testutil.AssertEqual(t, "first announcement", msgs[0], "&aWelcome")
	testutil.AssertEqual(t, "last announcement", msgs[len(msgs)-1], "&cNether")
}

func TestService_BreakUnownedIgnored(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.svc.HandleBreak(ctx, BreakEvent{PlayerID: alexID, Pos: spawn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.tick(t)

	_, ok := h.svc.engine.Current(alexID)
	testutil.AssertEqual(t, "progress", ok, false)
	testutil.AssertEqual(t, "scheduled", h.sched.Pending(), 0)
	_, placed := h.world.Block(spawn)
	testutil.AssertEqual(t, "placed", placed, false)
}

func TestService_StopPlayer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.StartPlayer(ctx, StartEvent{PlayerID: steveID, PlayerName: "Steve", Pos: spawn})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = h.svc.StopPlayer(ctx, StopEvent{PlayerID: steveID, World: "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, placed := h.world.Block(spawn)
	testutil.AssertEqual(t, "placed", placed, false)
	_, owned, _ := h.blocks.FindOwnedBlock(ctx, spawn)
	testutil.AssertEqual(t, "owned", owned, false)

	err = h.svc.StopPlayer(ctx, StopEvent{PlayerID: steveID, World: "world"})
	testutil.AssertEqual(t, "no block", errors.Is(err, ErrNoBlock), true)

	_, err = h.svc.StartPlayer(ctx, StartEvent{PlayerID: steveID, PlayerName: "Steve", Pos: spawn})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestService_Admin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.svc.Join(ctx, JoinEvent{PlayerID: steveID, PlayerName: "Steve"})

	id, err := h.svc.ResolvePlayer("STEVE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "resolved", id, steveID)

	_, err = h.svc.ResolvePlayer("herobrine")
	testutil.AssertEqual(t, "unknown", errors.Is(err, ErrUnknownPlayer), true)

	_, err = h.svc.SetStage(ctx, steveID, "nethr")
	testutil.AssertEqual(t, "missing stage", errors.Is(err, stage.ErrStageNotFound), true)
	testutil.AssertEqual(t, "suggest", len(h.svc.Suggest("nethr")) > 0, true)
	testutil.AssertEqual(t, "suggest first", h.svc.Suggest("nethr")[0], "nether")

	p, err := h.svc.SetStage(ctx, steveID, "nether.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "set", p, progress.Progress{PlayerID: steveID, StageID: "nether"})

	p, err = h.svc.ResetStage(ctx, steveID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "reset", p.StageID, "normal")

	err = h.svc.Forget(ctx, steveID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = h.svc.Status(steveID)
	testutil.AssertEqual(t, "forgotten", errors.Is(err, progress.ErrNoProgress), true)

	h.svc.SetDebug(true)
	testutil.AssertEqual(t, "debug", h.svc.Debug(), true)
	testutil.AssertEqual(t, "audit without auditor", h.svc.SetAudit(true), false)

	stages, err := h.svc.Stages()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "stages", len(stages), 2)
	h.svc.Reload(ctx)
}

func TestService_Chest(t *testing.T) {
	chestPos := world.Position{World: "world", X: 1, Y: 64, Z: 1}
	tests := map[string]struct {
		place  string
		items  map[int]world.Item
		exp    []ChestSlot
		expErr error
	}{
		"filled slots in order": {
			place: world.ChestBlock,
			items: map[int]world.Item{
				4: {Material: "ENCHANTED_BOOK", Amount: 1, StoredEnchantments: map[string]int{"mending": 1}},
				0: {Material: "DIRT", Amount: 16},
			},
			exp: []ChestSlot{
				{Slot: 0, Item: world.Item{Material: "DIRT", Amount: 16}},
				{Slot: 4, Item: world.Item{Material: "ENCHANTED_BOOK", Amount: 1, StoredEnchantments: map[string]int{"mending": 1}}},
			},
		},
		"empty chest": {
			place: world.ChestBlock,
		},
		"not a chest": {
			place:  "STONE",
			expErr: world.ErrNoContainer,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			if err := h.world.SetBlock(ctx, chestPos, tt.place); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c, ok := h.world.Container(chestPos); ok {
				for slot, it := range tt.items {
					if err := c.SetItem(slot, it); err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
				}
			}

			slots, err := h.svc.Chest(ctx, chestPos)
			if tt.expErr != nil {
				testutil.AssertEqual(t, "error", errors.Is(err, tt.expErr), true)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "slots", len(slots), len(tt.exp))
			for i, exp := range tt.exp {
				testutil.AssertEqual(t, "slot", slots[i].Slot, exp.Slot)
				testutil.AssertEqual(t, "same item", slots[i].Item.Same(exp.Item), true)
			}
		})
	}
}

func TestEvents_Validate(t *testing.T) {
	tests := map[string]struct {
		ev     interface{ Validate() error }
		expErr string
	}{
		"valid break": {
			ev: BreakEvent{PlayerID: steveID, Pos: spawn},
		},
		"break without world": {
			ev:     BreakEvent{PlayerID: steveID},
			expErr: "world must be set",
		},
		"bad player id": {
			ev:     JoinEvent{PlayerID: "steve"},
			expErr: "player id \"steve\"",
		},
		"missing player id": {
			ev:     StopEvent{World: "world"},
			expErr: "player id must be set",
		},
		"valid start": {
			ev: StartEvent{PlayerID: alexID, Pos: spawn},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.expErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}
