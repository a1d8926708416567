package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/katacr/go-oneblock/internal/audit"
	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/entity"
	"github.com/katacr/go-oneblock/internal/loot"
	"github.com/katacr/go-oneblock/internal/materialize"
	"github.com/katacr/go-oneblock/internal/outcome"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
)

// BlockStore records which positions the generator owns.
type BlockStore interface {
	FindOwnedBlock(ctx context.Context, pos world.Position) (world.OwnedBlock, bool, error)
	FindOwnedBlockByPlayer(ctx context.Context, playerID, worldName string) (world.OwnedBlock, bool, error)
	UpsertOwnedBlock(ctx context.Context, b world.OwnedBlock) (int64, error)
	UpdateBlockType(ctx context.Context, pos world.Position, blockType string) error
	DeleteOwnedBlock(ctx context.Context, playerID, worldName string) (bool, error)
}

// Auditor is the switchable audit trail.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
	Enabled() bool
	SetEnabled(enabled bool)
}

type Notifier interface {
	Notify(ctx context.Context, playerID string, msg string)
}

// Status is a player's standing as shown to operators.
type Status struct {
	Progress  progress.Progress
	Name      string
	Threshold int
	Next      string
}

// Service owns the catalogs and the generator pipeline. Every method that
// changes state must run on the scheduler's tick.
type Service struct {
	stages *stage.Catalog
	chests *loot.Catalog
	packs  *entity.Catalog
	world  world.World
	blocks BlockStore

	engine       *progress.Engine
	resolver     *outcome.Resolver
	materializer *materialize.Materializer

	repo        progress.Repository
	auditor     Auditor
	notifier    Notifier
	custom      world.CustomBlockPlacer
	items       world.ItemResolver
	rand        weighted.Rand
	allowed     map[string]bool
	chestChance float64
	debug       bool
	transformed string

	// ids maps lower case player names to ids.
	ids   map[string]string
	names map[string]string
	mu    sync.RWMutex
}

func NewService(stages *stage.Catalog, chests *loot.Catalog, packs *entity.Catalog, w world.World, blocks BlockStore, sched *driver.Scheduler, opts ...ServiceOpt) *Service {
	s := &Service{
		stages:      stages,
		chests:      chests,
		packs:       packs,
		world:       w,
		blocks:      blocks,
		allowed:     map[string]bool{},
		chestChance: outcome.DefaultChestChance,
		ids:         map[string]string{},
		names:       map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = weighted.NewTimeRand()
	}

	engineOpts := []progress.EngineOpt{}
	if s.repo != nil {
		engineOpts = append(engineOpts, progress.WithRepository(s.repo))
	}
	if a, ok := s.notifier.(progress.Announcer); ok {
		engineOpts = append(engineOpts, progress.WithAnnouncer(a))
	}
	s.engine = progress.NewEngine(stages, engineOpts...)

	s.resolver = outcome.NewResolver(s.rand, chests,
		outcome.WithChestChance(s.chestChance),
		outcome.WithDefaultBlock(stages.DefaultBlock()),
	)

	matOpts := []materialize.Opt{
		materialize.WithRecorder(blocks),
		materialize.WithDefaultBlock(stages.DefaultBlock()),
		materialize.WithDebug(s.debug),
		materialize.WithTransformedMessage(s.transformed),
	}
	if packs != nil {
		matOpts = append(matOpts, materialize.WithEntitySpawner(entity.NewSpawner(packs, w, s.rand)))
	}
	if s.custom != nil {
		matOpts = append(matOpts, materialize.WithCustomBlocks(s.custom))
	}
	if s.auditor != nil {
		matOpts = append(matOpts, materialize.WithTelemetry(s.auditor))
	}
	if s.notifier != nil {
		matOpts = append(matOpts, materialize.WithNotifier(s.notifier))
	}

	composerOpts := []loot.ComposerOpt{}
	if s.items != nil {
		composerOpts = append(composerOpts, loot.WithItemResolver(s.items))
	}
	s.materializer = materialize.New(sched, w, chests, loot.NewComposer(s.rand, composerOpts...), matOpts...)

	return s
}

// Preload reads every stored progress record into memory.
func (s *Service) Preload(ctx context.Context) error {
	return s.engine.Preload(ctx)
}

// HandleBreak replaces a broken generator block. Breaks of blocks the
// generator does not own are ignored.
func (s *Service) HandleBreak(ctx context.Context, ev BreakEvent) error {
	owned, ok, err := s.blocks.FindOwnedBlock(ctx, ev.Pos)
	if err != nil {
		return fmt.Errorf("looking up block: %w", err)
	}
	if !ok {
		return nil
	}
	s.remember(ev.PlayerID, ev.PlayerName)

	br := s.engine.RecordBreak(ctx, ev.PlayerID)
	if br.Advanced {
		s.record(ctx, audit.Event{
			Kind:       audit.KindStageAdvanced,
			PlayerID:   ev.PlayerID,
			PlayerName: ev.PlayerName,
			Detail:     br.From + " -> " + br.Progress.StageID,
		})
	}

	out := s.resolver.Resolve(br.Stage)
	slog.DebugContext(ctx, "block broken",
		"player", ev.PlayerID, "owner", owned.OwnerID, "pos", ev.Pos.String(),
		"stage", br.Progress.StageID, "broken", br.Progress.BlocksBroken, "outcome", out.String())

	s.materializer.Schedule(ctx, ev.PlayerID, ev.PlayerName, ev.Pos, out)
	return nil
}

// Join loads a connecting player's progress.
func (s *Service) Join(ctx context.Context, ev JoinEvent) progress.Progress {
	s.remember(ev.PlayerID, ev.PlayerName)
	return s.engine.Load(ctx, ev.PlayerID)
}

// StartPlayer places the player's first block at their position. A player
// gets one block per world and cannot start on another player's block.
func (s *Service) StartPlayer(ctx context.Context, ev StartEvent) (world.OwnedBlock, error) {
	if len(s.allowed) > 0 && !s.allowed[ev.Pos.World] {
		return world.OwnedBlock{}, fmt.Errorf("%w: %s", ErrWorldNotAllowed, ev.Pos.World)
	}

	_, exists, err := s.blocks.FindOwnedBlockByPlayer(ctx, ev.PlayerID, ev.Pos.World)
	if err != nil {
		return world.OwnedBlock{}, fmt.Errorf("looking up block: %w", err)
	}
	if exists {
		return world.OwnedBlock{}, fmt.Errorf("%w: %s", ErrAlreadyStarted, ev.Pos.World)
	}

	other, taken, err := s.blocks.FindOwnedBlock(ctx, ev.Pos)
	if err != nil {
		return world.OwnedBlock{}, fmt.Errorf("looking up block: %w", err)
	}
	if taken && other.OwnerID != ev.PlayerID {
		return world.OwnedBlock{}, fmt.Errorf("%w: %s", ErrPositionOwned, ev.Pos)
	}
	s.remember(ev.PlayerID, ev.PlayerName)

	p := s.engine.Start(ctx, ev.PlayerID)

	var want stage.BlockRef
	def, err := s.stages.Load(p.StageID)
	if err != nil {
		slog.WarnContext(ctx, "stage unavailable for first block", "player", ev.PlayerID, "stage", p.StageID, "error", err)
	} else if b, ok := def.Blocks.Draw(s.rand); ok {
		want = b
	}

	placed, err := s.materializer.PlaceNow(ctx, ev.Pos, want)
	if err != nil {
		return world.OwnedBlock{}, err
	}

	owned := world.OwnedBlock{
		OwnerID:   ev.PlayerID,
		OwnerName: ev.PlayerName,
		Pos:       ev.Pos,
		BlockType: placed.String(),
	}
	owned.ID, err = s.blocks.UpsertOwnedBlock(ctx, owned)
	if err != nil {
		return world.OwnedBlock{}, err
	}

	pos := ev.Pos
	s.record(ctx, audit.Event{
		Kind:       audit.KindBlockGenerated,
		PlayerID:   ev.PlayerID,
		PlayerName: ev.PlayerName,
		Pos:        &pos,
		Detail:     owned.BlockType,
	})
	slog.InfoContext(ctx, "block generated", "player", ev.PlayerID, "pos", ev.Pos.String(), "block", owned.BlockType)
	s.notify(ctx, ev.PlayerID, "&aYour block is ready.")

	return owned, nil
}

// StopPlayer removes the player's block in a world.
func (s *Service) StopPlayer(ctx context.Context, ev StopEvent) error {
	owned, ok, err := s.blocks.FindOwnedBlockByPlayer(ctx, ev.PlayerID, ev.World)
	if err != nil {
		return fmt.Errorf("looking up block: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoBlock, ev.World)
	}

	err = s.world.SetBlock(ctx, owned.Pos, world.AirBlock)
	if err != nil {
		slog.WarnContext(ctx, "removing block", "pos", owned.Pos.String(), "error", err)
	}

	_, err = s.blocks.DeleteOwnedBlock(ctx, ev.PlayerID, ev.World)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "block removed", "player", ev.PlayerID, "pos", owned.Pos.String())
	s.notify(ctx, ev.PlayerID, "&eYour block has been removed.")
	return nil
}

// SetStage moves a player to stageID with a fresh counter.
func (s *Service) SetStage(ctx context.Context, playerID, stageID string) (progress.Progress, error) {
	return s.engine.ForceSet(ctx, playerID, stageID)
}

// ResetStage moves a player back to the initial stage.
func (s *Service) ResetStage(ctx context.Context, playerID string) (progress.Progress, error) {
	return s.engine.ForceSet(ctx, playerID, s.stages.Initial())
}

// Forget deletes a player's progress.
func (s *Service) Forget(ctx context.Context, playerID string) error {
	return s.engine.Reset(ctx, playerID)
}

func (s *Service) Status(playerID string) (Status, error) {
	p, ok := s.engine.Current(playerID)
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", progress.ErrNoProgress, playerID)
	}

	st := Status{Progress: p, Name: s.nameOf(playerID)}
	def, err := s.stages.Load(p.StageID)
	if err == nil {
		st.Threshold = def.BreakThreshold
		st.Next = def.NextStageID
	}
	return st, nil
}

// ChestSlot is one filled slot of a chest.
type ChestSlot struct {
	Slot int
	Item world.Item
}

// Chest reads the filled slots of the chest at pos.
func (s *Service) Chest(ctx context.Context, pos world.Position) ([]ChestSlot, error) {
	c, err := s.world.OpenContainer(ctx, pos)
	if err != nil {
		return nil, fmt.Errorf("opening chest: %w", err)
	}

	var slots []ChestSlot
	for i := 0; i < c.Size(); i++ {
		it, ok := c.Item(i)
		if !ok {
			continue
		}
		slots = append(slots, ChestSlot{Slot: i, Item: it})
	}
	return slots, nil
}

// Players returns the progress of every known player.
func (s *Service) Players() []progress.Progress {
	return s.engine.Store().All()
}

// Reload drops every cached stage, chest and entity document.
func (s *Service) Reload(ctx context.Context) {
	s.stages.Invalidate()
	s.chests.Reload()
	if s.packs != nil {
		s.packs.Invalidate()
	}
	slog.InfoContext(ctx, "configuration reloaded")
}

func (s *Service) SetDebug(enabled bool) {
	s.materializer.SetDebug(enabled)
}

func (s *Service) Debug() bool {
	return s.materializer.Debug()
}

// SetAudit switches the audit trail. It reports false when there is none.
func (s *Service) SetAudit(enabled bool) bool {
	if s.auditor == nil {
		return false
	}
	s.auditor.SetEnabled(enabled)
	return true
}

func (s *Service) AuditEnabled() bool {
	return s.auditor != nil && s.auditor.Enabled()
}

// Stages lists the stage ids on disk.
func (s *Service) Stages() ([]string, error) {
	return s.stages.IDs()
}

func (s *Service) StageKeys() ([]storage.Identifier, error) {
	return s.stages.Keys()
}

// Suggest returns stage ids close to id.
func (s *Service) Suggest(id string) []string {
	return s.stages.Suggest(id)
}

// HasStage reports whether a stage document exists for id.
func (s *Service) HasStage(id string) bool {
	return s.stages.Exists(id)
}

// ResolvePlayer finds a player id by id or by a name seen on the server.
func (s *Service) ResolvePlayer(nameOrID string) (string, error) {
	if _, ok := s.engine.Current(nameOrID); ok {
		return nameOrID, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.ids[strings.ToLower(nameOrID)]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPlayer, nameOrID)
}

func (s *Service) remember(playerID, name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids[strings.ToLower(name)] = playerID
	s.names[playerID] = name
}

func (s *Service) nameOf(playerID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.names[playerID]
}

func (s *Service) record(ctx context.Context, ev audit.Event) {
	if s.auditor != nil {
		s.auditor.Record(ctx, ev)
	}
}

func (s *Service) notify(ctx context.Context, playerID, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, playerID, msg)
	}
}
