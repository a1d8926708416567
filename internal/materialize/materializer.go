package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/katacr/go-oneblock/internal/audit"
	"github.com/katacr/go-oneblock/internal/display"
	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/loot"
	"github.com/katacr/go-oneblock/internal/outcome"
	"github.com/katacr/go-oneblock/internal/stage"
	"github.com/katacr/go-oneblock/internal/world"
)

const (
	DefaultTransformedMessage = "&7[debug] block transformed into &f{{ .Block }}"
	chestDisplayName          = "Chest"
)

type Scheduler interface {
	After(delay uint64, name string, fn driver.Task)
}

// BlockRecorder stores the block type the generator placed at a position.
type BlockRecorder interface {
	UpdateBlockType(ctx context.Context, pos world.Position, blockType string) error
}

type Telemetry interface {
	Record(ctx context.Context, ev audit.Event)
}

// Notifier sends a chat message to a player.
type Notifier interface {
	Notify(ctx context.Context, playerID string, msg string)
}

type ChestSource interface {
	Get(id string) *loot.ChestConfig
}

type LootFiller interface {
	Fill(ctx context.Context, cont world.Container, cfg *loot.ChestConfig) loot.Result
}

type EntitySpawner interface {
	Spawn(ctx context.Context, pos world.Position, packID string) (world.EntitySpec, bool)
}

// Materializer turns resolved outcomes into world changes over later ticks.
//
// Phase 0 runs in Schedule and records the intended block type. Phase 1 runs
// one tick later and places the block, entity or chest block. For chests,
// Phase 2 runs one tick after that and fills the container. A position has
// at most one chest waiting to be filled.
type Materializer struct {
	sched  Scheduler
	world  world.World
	custom world.CustomBlockPlacer

	recorder  BlockRecorder
	telemetry Telemetry
	notifier  Notifier
	chests    ChestSource
	filler    LootFiller
	spawner   EntitySpawner

	defaultBlock stage.BlockRef
	message      string
	debug        atomic.Bool

	// pending maps a position to the placement that owns its chest fill.
	pending map[world.Position]string
	mu      sync.Mutex
}

type Opt func(*Materializer)

func WithCustomBlocks(c world.CustomBlockPlacer) Opt {
	return func(m *Materializer) { m.custom = c }
}

func WithRecorder(r BlockRecorder) Opt {
	return func(m *Materializer) { m.recorder = r }
}

func WithTelemetry(t Telemetry) Opt {
	return func(m *Materializer) { m.telemetry = t }
}

func WithNotifier(n Notifier) Opt {
	return func(m *Materializer) { m.notifier = n }
}

func WithEntitySpawner(s EntitySpawner) Opt {
	return func(m *Materializer) { m.spawner = s }
}

func WithDefaultBlock(b stage.BlockRef) Opt {
	return func(m *Materializer) {
		if !b.IsZero() {
			m.defaultBlock = b
		}
	}
}

// WithTransformedMessage sets the template of the debug message sent after
// Phase 1. The template sees .Block, .Kind and .Pos.
func WithTransformedMessage(tmpl string) Opt {
	return func(m *Materializer) {
		if tmpl != "" {
			m.message = tmpl
		}
	}
}

func WithDebug(enabled bool) Opt {
	return func(m *Materializer) { m.debug.Store(enabled) }
}

func New(sched Scheduler, w world.World, chests ChestSource, filler LootFiller, opts ...Opt) *Materializer {
	m := &Materializer{
		sched:        sched,
		world:        w,
		chests:       chests,
		filler:       filler,
		defaultBlock: stage.DefaultBlock,
		message:      DefaultTransformedMessage,
		pending:      map[world.Position]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Materializer) SetDebug(enabled bool) {
	m.debug.Store(enabled)
}

func (m *Materializer) Debug() bool {
	return m.debug.Load()
}

// Pending returns the number of chests waiting to be filled.
func (m *Materializer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}

// Schedule runs Phase 0 for an outcome and queues Phase 1 for the next tick.
func (m *Materializer) Schedule(ctx context.Context, playerID, playerName string, pos world.Position, o outcome.Outcome) *Placement {
	p := &Placement{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Pos:        pos,
		Outcome:    o,
		Phase:      PhaseScheduled,
	}

	m.record(ctx, pos, o.BlockType())

	m.sched.After(1, "place "+p.ID, func(ctx context.Context) {
		m.place(ctx, p)
	})
	return p
}

func (m *Materializer) place(ctx context.Context, p *Placement) {
	if p.Phase != PhaseScheduled {
		slog.DebugContext(ctx, "dropping repeated placement", "placement", p.ID, "phase", p.Phase.String())
		return
	}

	empty, err := m.world.IsEmpty(ctx, p.Pos)
	if err != nil {
		slog.WarnContext(ctx, "checking position", "pos", p.Pos.String(), "error", err)
		p.Phase = PhaseAborted
		return
	}
	if !empty {
		// The record keeps the type from Phase 0. The world only reports
		// emptiness, so the block found here can't be recorded instead.
		slog.DebugContext(ctx, "position not empty", "pos", p.Pos.String(), "placement", p.ID)
		m.emit(ctx, p, audit.KindPositionOccupied, p.Outcome.String())
		p.Phase = PhaseAborted
		return
	}

	switch p.Outcome.Kind {
	case outcome.KindChest:
		if !m.placeChest(ctx, p) {
			return
		}
		m.sched.After(1, "fill "+p.ID, func(ctx context.Context) {
			m.fill(ctx, p)
		})

	case outcome.KindEntity:
		if m.spawner != nil {
			spec, ok := m.spawner.Spawn(ctx, p.Pos.Up(), p.Outcome.EntityPackID)
			if ok {
				m.emit(ctx, p, audit.KindEntitySpawned, spec.Type)
			}
		} else {
			slog.WarnContext(ctx, "no entity spawner, placing block only", "pos", p.Pos.String())
		}
		m.placeBlock(ctx, p)

	default:
		m.placeBlock(ctx, p)
	}

	m.notifyTransformed(ctx, p)
}

func (m *Materializer) placeChest(ctx context.Context, p *Placement) bool {
	m.mu.Lock()
	if owner, busy := m.pending[p.Pos]; busy {
		m.mu.Unlock()
		slog.DebugContext(ctx, "chest already pending at position", "pos", p.Pos.String(), "owner", owner, "placement", p.ID)
		p.Phase = PhaseAborted
		return false
	}
	m.pending[p.Pos] = p.ID
	m.mu.Unlock()

	err := m.world.SetBlock(ctx, p.Pos, world.ChestBlock)
	if err != nil {
		slog.WarnContext(ctx, "placing chest", "pos", p.Pos.String(), "error", err)
		m.release(p)
		m.placeFallback(ctx, p, world.ChestBlock)
		return false
	}

	p.Phase = PhasePlaced
	return true
}

func (m *Materializer) placeBlock(ctx context.Context, p *Placement) {
	b := p.Outcome.Block
	if b.IsZero() {
		b = m.defaultBlock
	}

	err := m.set(ctx, p.Pos, b)
	if err != nil {
		slog.DebugContext(ctx, "placing block", "block", b.String(), "pos", p.Pos.String(), "error", err)
		m.placeFallback(ctx, p, b.String())
		return
	}

	p.Phase = PhasePlaced
	m.emit(ctx, p, audit.KindBlockReplaced, b.String())
}

// placeFallback puts the default block at the position after a failed placement.
func (m *Materializer) placeFallback(ctx context.Context, p *Placement, failed string) {
	err := m.set(ctx, p.Pos, m.defaultBlock)
	if err != nil {
		slog.WarnContext(ctx, "placing fallback block", "block", m.defaultBlock.String(), "pos", p.Pos.String(), "error", err)
		p.Phase = PhaseAborted
		return
	}

	m.record(ctx, p.Pos, m.defaultBlock.String())
	m.emit(ctx, p, audit.KindPlacementFallback, failed+" -> "+m.defaultBlock.String())
	p.Phase = PhasePlaced
}

// PlaceNow puts b at pos immediately, falling back to the default block. It
// returns the block that was placed.
func (m *Materializer) PlaceNow(ctx context.Context, pos world.Position, b stage.BlockRef) (stage.BlockRef, error) {
	if b.IsZero() {
		b = m.defaultBlock
	}
	err := m.set(ctx, pos, b)
	if err == nil {
		return b, nil
	}
	slog.DebugContext(ctx, "placing block", "block", b.String(), "pos", pos.String(), "error", err)

	err = m.set(ctx, pos, m.defaultBlock)
	if err != nil {
		return stage.BlockRef{}, fmt.Errorf("placing %s at %s: %w", m.defaultBlock, pos, err)
	}
	return m.defaultBlock, nil
}

func (m *Materializer) set(ctx context.Context, pos world.Position, b stage.BlockRef) error {
	if !b.IsCustom() {
		return m.world.SetBlock(ctx, pos, b.ID)
	}
	if m.custom == nil {
		return fmt.Errorf("%w: %s", world.ErrUnknownCustomBlock, b)
	}
	return m.custom.PlaceCustom(ctx, pos, b.Namespace, b.ID)
}

func (m *Materializer) fill(ctx context.Context, p *Placement) {
	if !m.owns(p) {
		slog.DebugContext(ctx, "dropping repeated fill", "placement", p.ID, "phase", p.Phase.String())
		return
	}
	defer m.release(p)

	cont, err := m.world.OpenContainer(ctx, p.Pos)
	if err != nil {
		slog.WarnContext(ctx, "chest missing before fill", "pos", p.Pos.String(), "error", err)
		p.Phase = PhaseAborted
		return
	}

	cfg := m.chests.Get(p.Outcome.ChestID)
	res := m.filler.Fill(ctx, cont, cfg)
	p.Phase = PhaseFilled

	slog.DebugContext(ctx, "chest filled", "pos", p.Pos.String(), "chest", cfg.ID, "placed", res.Placed, "drawn", res.Drawn)
	m.emit(ctx, p, audit.KindChestGenerated, cfg.ID)
}

func (m *Materializer) owns(p *Placement) bool {
	if p.Phase != PhasePlaced {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pending[p.Pos] == p.ID
}

func (m *Materializer) release(p *Placement) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending[p.Pos] == p.ID {
		delete(m.pending, p.Pos)
	}
}

func (m *Materializer) record(ctx context.Context, pos world.Position, blockType string) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.UpdateBlockType(ctx, pos, blockType)
	if err != nil {
		slog.WarnContext(ctx, "recording block type", "pos", pos.String(), "block", blockType, "error", err)
	}
}

func (m *Materializer) emit(ctx context.Context, p *Placement, kind, detail string) {
	if m.telemetry == nil {
		return
	}
	pos := p.Pos
	m.telemetry.Record(ctx, audit.Event{
		Kind:       kind,
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		Pos:        &pos,
		Detail:     detail,
	})
}

type transformedData struct {
	Block string
	Kind  string
	Pos   string
}

func (m *Materializer) notifyTransformed(ctx context.Context, p *Placement) {
	if !m.Debug() || m.notifier == nil || p.Phase == PhaseAborted {
		return
	}

	name := chestDisplayName
	if p.Outcome.Kind != outcome.KindChest {
		name = display.FormatBlockName(p.Outcome.Block.String())
	}

	msg, err := display.Expand(m.message, transformedData{Block: name, Kind: p.Outcome.Kind.String(), Pos: p.Pos.String()})
	if err != nil {
		slog.WarnContext(ctx, "expanding debug message", "error", err)
		return
	}
	m.notifier.Notify(ctx, p.PlayerID, display.TranslateColors(msg))
}
