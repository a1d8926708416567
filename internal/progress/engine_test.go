package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/pixil98/go-testutil"
)

type mockCatalog struct {
	initial string
	stages  map[string]*stage.Definition
}

func (m *mockCatalog) Load(id string) (*stage.Definition, error) {
	def, ok := m.stages[storage.Canonical(id).String()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", stage.ErrStageNotFound, id)
	}
	return def, nil
}

func (m *mockCatalog) Initial() string {
	return m.initial
}

type mockRepository struct {
	saved   map[string]Progress
	saves   int
	deletes int
	fail    bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{saved: map[string]Progress{}}
}

func (m *mockRepository) LoadProgress(_ context.Context, playerID string) (Progress, bool, error) {
	if m.fail {
		return Progress{}, false, errors.New("database locked")
	}
	p, ok := m.saved[playerID]
	return p, ok, nil
}

func (m *mockRepository) LoadAllProgress(_ context.Context) ([]Progress, error) {
	if m.fail {
		return nil, errors.New("database locked")
	}
	var all []Progress
	for _, p := range m.saved {
		all = append(all, p)
	}
	return all, nil
}

func (m *mockRepository) SaveProgress(_ context.Context, p Progress) error {
	m.saves++
	if m.fail {
		return errors.New("database locked")
	}
	m.saved[p.PlayerID] = p
	return nil
}

func (m *mockRepository) DeleteProgress(_ context.Context, playerID string) error {
	m.deletes++
	if m.fail {
		return errors.New("database locked")
	}
	delete(m.saved, playerID)
	return nil
}

type mockAnnouncer struct {
	announced []string
}

func (m *mockAnnouncer) Announce(_ context.Context, playerID string, def *stage.Definition) {
	m.announced = append(m.announced, playerID+":"+def.ID)
}

func newDefinition(id string, threshold int, next string) *stage.Definition {
	blocks := weighted.NewPool[stage.BlockRef]()
	blocks.Add(stage.Vanilla("STONE"), 9)
	blocks.Add(stage.Vanilla("DIRT"), 1)
	return &stage.Definition{
		ID:             id,
		BreakThreshold: threshold,
		NextStageID:    next,
		Blocks:         blocks,
		Announcement:   "Welcome to " + id,
	}
}

func newTestCatalog() *mockCatalog {
	return &mockCatalog{
		initial: "normal",
		stages: map[string]*stage.Definition{
			"normal":  newDefinition("normal", 5, "nether"),
			"nether":  newDefinition("nether", 1, "the_end"),
			"the_end": newDefinition("the_end", 3, ""),
			"broken":  newDefinition("broken", 2, "missing"),
		},
	}
}

func TestEngine_RecordBreakThreshold(t *testing.T) {
	tests := map[string]struct {
		start      string
		breaks     int
		expStage   string
		expBroken  int
		expAdvance bool
	}{
		"threshold minus one stays": {
			start:     "normal",
			breaks:    4,
			expStage:  "normal",
			expBroken: 4,
		},
		"threshold advances and resets": {
			start:      "normal",
			breaks:     5,
			expStage:   "nether",
			expBroken:  0,
			expAdvance: true,
		},
		"past threshold counts on next stage": {
			start:     "normal",
			breaks:    6,
			expStage:  "the_end",
			expBroken: 0,
		},
		"final stage keeps counting": {
			start:     "the_end",
			breaks:    10,
			expStage:  "the_end",
			expBroken: 10,
		},
		"unresolvable next stays put": {
			start:     "broken",
			breaks:    4,
			expStage:  "broken",
			expBroken: 4,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e := NewEngine(newTestCatalog())
			if _, err := e.ForceSet(ctx, "p1", tt.start); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var last Break
			for range tt.breaks {
				last = e.RecordBreak(ctx, "p1")
			}

			p, ok := e.Current("p1")
			testutil.AssertEqual(t, "exists", ok, true)
			testutil.AssertEqual(t, "stage", p.StageID, tt.expStage)
			testutil.AssertEqual(t, "broken", p.BlocksBroken, tt.expBroken)
			testutil.AssertEqual(t, "result stage", last.Stage.ID, tt.expStage)
			if tt.expAdvance {
				testutil.AssertEqual(t, "advanced", last.Advanced, true)
			}
		})
	}
}

func TestEngine_NormalToNetherScenario(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog()
	cat.stages["normal"].EntitySpawnChance = 0
	e := NewEngine(cat)

	e.Start(ctx, "steve")
	for range 5 {
		e.RecordBreak(ctx, "steve")
	}

	p, _ := e.Current("steve")
	testutil.AssertEqual(t, "stage", p.StageID, "nether")
	testutil.AssertEqual(t, "broken", p.BlocksBroken, 0)
}

func TestEngine_AtMostOneTransitionPerBreak(t *testing.T) {
	ctx := context.Background()
	cat := &mockCatalog{
		initial: "a",
		stages: map[string]*stage.Definition{
			"a": newDefinition("a", 1, "b"),
			// A zero threshold can't come from a document but is still bounded.
			"b": newDefinition("b", 0, "c"),
			"c": newDefinition("c", 1, ""),
		},
	}
	e := NewEngine(cat)

	res := e.RecordBreak(ctx, "p1")
	testutil.AssertEqual(t, "stage after first", res.Progress.StageID, "b")
	testutil.AssertEqual(t, "from", res.From, "a")

	res = e.RecordBreak(ctx, "p1")
	testutil.AssertEqual(t, "stage after second", res.Progress.StageID, "c")
}

func TestEngine_RecordBreakWithoutProgress(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	e := NewEngine(newTestCatalog(), WithRepository(repo))

	res := e.RecordBreak(ctx, "newbie")
	testutil.AssertEqual(t, "stage", res.Progress.StageID, "normal")
	testutil.AssertEqual(t, "broken", res.Progress.BlocksBroken, 1)
	testutil.AssertEqual(t, "saves", repo.saves, 1)
	testutil.AssertEqual(t, "saved broken", repo.saved["newbie"].BlocksBroken, 1)
}

func TestEngine_PersistenceFailureStillAdvances(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.fail = true
	e := NewEngine(newTestCatalog(), WithRepository(repo))

	e.Start(ctx, "p1")
	for range 5 {
		e.RecordBreak(ctx, "p1")
	}

	p, _ := e.Current("p1")
	testutil.AssertEqual(t, "stage", p.StageID, "nether")
	testutil.AssertEqual(t, "save attempts", repo.saves, 6)
}

func TestEngine_Announcements(t *testing.T) {
	ctx := context.Background()
	ann := &mockAnnouncer{}
	e := NewEngine(newTestCatalog(), WithAnnouncer(ann))

	e.Start(ctx, "p1")
	e.Start(ctx, "p1")
	for range 5 {
		e.RecordBreak(ctx, "p1")
	}

	exp := []string{"p1:normal", "p1:nether"}
	testutil.AssertEqual(t, "count", len(ann.announced), len(exp))
	for i := range exp {
		testutil.AssertEqual(t, "announcement", ann.announced[i], exp[i])
	}
}

func TestEngine_ForceSet(t *testing.T) {
	tests := map[string]struct {
		stage    string
		expStage string
		expErr   string
	}{
		"known stage": {
			stage:    "the_end",
			expStage: "the_end",
		},
		"suffix is stripped": {
			stage:    "nether.yml",
			expStage: "nether",
		},
		"unknown stage": {
			stage:  "void",
			expErr: "stage not found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			e := NewEngine(newTestCatalog())
			e.Start(ctx, "p1")
			e.RecordBreak(ctx, "p1")

			p, err := e.ForceSet(ctx, "p1", tt.stage)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				cur, _ := e.Current("p1")
				testutil.AssertEqual(t, "unchanged", cur.StageID, "normal")
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "stage", p.StageID, tt.expStage)
			testutil.AssertEqual(t, "broken", p.BlocksBroken, 0)
		})
	}
}

func TestEngine_Reset(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	e := NewEngine(newTestCatalog(), WithRepository(repo))

	e.Start(ctx, "p1")
	err := e.Reset(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok := e.Current("p1")
	testutil.AssertEqual(t, "in memory", ok, false)
	_, ok = repo.saved["p1"]
	testutil.AssertEqual(t, "in repository", ok, false)

	err = e.Reset(ctx, "p1")
	if !errors.Is(err, ErrNoProgress) {
		t.Errorf("expected ErrNoProgress, got %v", err)
	}
}

func TestEngine_Load(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.saved["veteran"] = Progress{PlayerID: "veteran", StageID: "nether", BlocksBroken: 0}
	e := NewEngine(newTestCatalog(), WithRepository(repo))

	p := e.Load(ctx, "veteran")
	testutil.AssertEqual(t, "stored stage", p.StageID, "nether")

	p = e.Load(ctx, "newbie")
	testutil.AssertEqual(t, "initial stage", p.StageID, "normal")
	testutil.AssertEqual(t, "newbie saved", repo.saved["newbie"].StageID, "normal")
}

func TestEngine_Preload(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	repo.saved["a"] = Progress{PlayerID: "a", StageID: "normal", BlocksBroken: 3}
	repo.saved["b"] = Progress{PlayerID: "b", StageID: "nether", BlocksBroken: 0}
	e := NewEngine(newTestCatalog(), WithRepository(repo))

	err := e.Preload(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "players", e.Store().Len(), 2)

	all := e.Store().All()
	testutil.AssertEqual(t, "first", all[0], Progress{PlayerID: "a", StageID: "normal", BlocksBroken: 3})

	repo.fail = true
	testutil.AssertErrorContains(t, e.Preload(ctx), "loading progress")
}
