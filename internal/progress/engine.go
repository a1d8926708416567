package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/storage"
)

// Catalog is the subset of stage.Catalog the engine needs.
type Catalog interface {
	Load(id string) (*stage.Definition, error)
	Initial() string
}

// Repository persists progress. Load returns ok == false when the player
// has nothing stored.
type Repository interface {
	LoadProgress(ctx context.Context, playerID string) (Progress, bool, error)
	LoadAllProgress(ctx context.Context) ([]Progress, error)
	SaveProgress(ctx context.Context, p Progress) error
	DeleteProgress(ctx context.Context, playerID string) error
}

// Announcer is told whenever a player enters a stage.
type Announcer interface {
	Announce(ctx context.Context, playerID string, def *stage.Definition)
}

// Break is the result of recording one break.
type Break struct {
	Progress Progress
	// Stage is the definition the player is on after the break. It is nil
	// when the stage can't be loaded.
	Stage    *stage.Definition
	Advanced bool
	From     string
}

type Engine struct {
	store     *Store
	catalog   Catalog
	repo      Repository
	announcer Announcer
}

type EngineOpt func(*Engine)

func WithRepository(r Repository) EngineOpt {
	return func(e *Engine) {
		e.repo = r
	}
}

func WithAnnouncer(a Announcer) EngineOpt {
	return func(e *Engine) {
		e.announcer = a
	}
}

func WithStore(s *Store) EngineOpt {
	return func(e *Engine) {
		e.store = s
	}
}

func NewEngine(catalog Catalog, opts ...EngineOpt) *Engine {
	e := &Engine{
		store:   NewStore(),
		catalog: catalog,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Store() *Store {
	return e.store
}

// Current returns the player's progress.
func (e *Engine) Current(playerID string) (Progress, bool) {
	return e.store.Get(playerID)
}

// Preload replaces the in-memory state with everything in the repository.
func (e *Engine) Preload(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}

	all, err := e.repo.LoadAllProgress(ctx)
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}
	e.store.replace(all)

	slog.InfoContext(ctx, "progress loaded", "players", len(all))
	return nil
}

// Start puts a player without progress on the initial stage. Existing
// progress is returned untouched.
func (e *Engine) Start(ctx context.Context, playerID string) Progress {
	if p, ok := e.store.Get(playerID); ok {
		return p
	}
	return e.begin(ctx, playerID, true)
}

func (e *Engine) begin(ctx context.Context, playerID string, save bool) Progress {
	p := Progress{PlayerID: playerID, StageID: e.catalog.Initial()}
	e.store.put(p)
	if save {
		e.persist(ctx, p)
	}

	def, err := e.catalog.Load(p.StageID)
	if err != nil {
		slog.WarnContext(ctx, "initial stage unavailable", "player", playerID, "stage", p.StageID, "error", err)
		return p
	}
	e.announce(ctx, playerID, def)

	return p
}

// Load restores a joining player's progress from the repository, starting
// them on the initial stage when nothing is stored.
func (e *Engine) Load(ctx context.Context, playerID string) Progress {
	if p, ok := e.store.Get(playerID); ok {
		return p
	}

	if e.repo != nil {
		p, ok, err := e.repo.LoadProgress(ctx, playerID)
		if err != nil {
			slog.WarnContext(ctx, "loading progress", "player", playerID, "error", err)
		}
		if err == nil && ok {
			e.store.put(p)
			return p
		}
	}

	return e.Start(ctx, playerID)
}

// RecordBreak counts one break. When the counter reaches the stage's
// threshold and the next stage loads, the player moves to it with a fresh
// counter. At most one transition happens per call.
func (e *Engine) RecordBreak(ctx context.Context, playerID string) Break {
	p, ok := e.store.Get(playerID)
	if !ok {
		// Saved below together with the counted break.
		p = e.begin(ctx, playerID, false)
	}

	p.BlocksBroken++
	result := Break{From: p.StageID}

	def, err := e.catalog.Load(p.StageID)
	if err != nil {
		slog.WarnContext(ctx, "current stage unavailable", "player", playerID, "stage", p.StageID, "error", err)
	}

	if def != nil && def.HasNext() && p.BlocksBroken >= def.BreakThreshold {
		next, err := e.catalog.Load(def.NextStageID)
		if err != nil {
			slog.WarnContext(ctx, "next stage unavailable", "player", playerID, "stage", def.NextStageID, "error", err)
		} else {
			p.StageID = idOf(next, def.NextStageID)
			p.BlocksBroken = 0
			def = next
			result.Advanced = true
		}
	}

	e.store.put(p)
	e.persist(ctx, p)

	if result.Advanced {
		slog.InfoContext(ctx, "player advanced", "player", playerID, "from", result.From, "to", p.StageID)
		e.announce(ctx, playerID, def)
	}

	result.Progress = p
	result.Stage = def
	return result
}

// ForceSet moves a player to stageID with a fresh counter.
func (e *Engine) ForceSet(ctx context.Context, playerID string, stageID string) (Progress, error) {
	def, err := e.catalog.Load(stageID)
	if err != nil {
		return Progress{}, err
	}

	p := Progress{PlayerID: playerID, StageID: idOf(def, stageID)}
	e.store.put(p)
	e.persist(ctx, p)
	e.announce(ctx, playerID, def)

	return p, nil
}

// Reset forgets a player's progress in memory and in the repository.
func (e *Engine) Reset(ctx context.Context, playerID string) error {
	if !e.store.remove(playerID) {
		return fmt.Errorf("%w: %s", ErrNoProgress, playerID)
	}

	if e.repo != nil {
		err := e.repo.DeleteProgress(ctx, playerID)
		if err != nil {
			slog.WarnContext(ctx, "deleting progress", "player", playerID, "error", err)
		}
	}
	return nil
}

func (e *Engine) persist(ctx context.Context, p Progress) {
	if e.repo == nil {
		return
	}
	err := e.repo.SaveProgress(ctx, p)
	if err != nil {
		slog.WarnContext(ctx, "saving progress", "player", p.PlayerID, "stage", p.StageID, "error", err)
	}
}

func (e *Engine) announce(ctx context.Context, playerID string, def *stage.Definition) {
	if e.announcer == nil || def == nil || def.Announcement == "" {
		return
	}
	e.announcer.Announce(ctx, playerID, def)
}

func idOf(def *stage.Definition, requested string) string {
	if def.ID != "" {
		return def.ID
	}
	return storage.Canonical(requested).String()
}
