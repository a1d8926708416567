package world

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

const DefaultContainerSize = 27

// SpawnedEntity records an entity spawned into a Memory world.
type SpawnedEntity struct {
	Pos  Position
	Spec EntitySpec
}

// Memory is an in-process World. It backs the standalone service and the
// tests.
type Memory struct {
	blocks     map[Position]string
	containers map[Position]*MemoryContainer
	entities   []SpawnedEntity

	customBlocks  map[string]bool
	customItems   map[string]Item
	rejected      map[string]bool
	containerSize int

	mu sync.Mutex
}

type MemoryOpt func(*Memory)

// WithContainerSize sets the slot count of chests placed in the world.
func WithContainerSize(n int) MemoryOpt {
	return func(m *Memory) {
		m.containerSize = n
	}
}

// WithCustomBlocks registers content pack blocks as "namespace:id".
func WithCustomBlocks(ids ...string) MemoryOpt {
	return func(m *Memory) {
		for _, id := range ids {
			m.customBlocks[id] = true
		}
	}
}

// WithCustomItems registers content pack items keyed by "namespace:id".
func WithCustomItems(items map[string]Item) MemoryOpt {
	return func(m *Memory) {
		for k, v := range items {
			m.customItems[k] = v
		}
	}
}

// WithRejectedMaterials makes SetBlock fail for the given materials.
func WithRejectedMaterials(materials ...string) MemoryOpt {
	return func(m *Memory) {
		for _, mat := range materials {
			m.rejected[mat] = true
		}
	}
}

func NewMemory(opts ...MemoryOpt) *Memory {
	m := &Memory{
		blocks:        map[Position]string{},
		containers:    map[Position]*MemoryContainer{},
		customBlocks:  map[string]bool{},
		customItems:   map[string]Item{},
		rejected:      map[string]bool{},
		containerSize: DefaultContainerSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) SetBlock(_ context.Context, pos Position, material string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rejected[material] {
		return fmt.Errorf("%w: %s", ErrUnknownMaterial, material)
	}
	m.setLocked(pos, material)
	return nil
}

func (m *Memory) setLocked(pos Position, material string) {
	if material == "" || material == AirBlock {
		delete(m.blocks, pos)
		delete(m.containers, pos)
		return
	}

	m.blocks[pos] = material
	if material != ChestBlock {
		delete(m.containers, pos)
		return
	}
	if _, ok := m.containers[pos]; !ok {
		m.containers[pos] = NewMemoryContainer(m.containerSize)
	}
}

func (m *Memory) IsEmpty(_ context.Context, pos Position) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.blocks[pos]
	return !ok, nil
}

func (m *Memory) SpawnEntity(_ context.Context, pos Position, spec EntitySpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entities = append(m.entities, SpawnedEntity{Pos: pos, Spec: spec})
	return nil
}

func (m *Memory) OpenContainer(_ context.Context, pos Position) (Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoContainer, pos)
	}
	return c, nil
}

func (m *Memory) PlaceCustom(_ context.Context, pos Position, namespace, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := namespace + ":" + id
	if !m.customBlocks[key] {
		return fmt.Errorf("%w: %s", ErrUnknownCustomBlock, key)
	}
	m.setLocked(pos, key)
	return nil
}

func (m *Memory) ResolveItem(_ context.Context, namespace, id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.customItems[namespace+":"+id]
	return it, ok
}

// Block returns the block at pos.
func (m *Memory) Block(pos Position) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blocks[pos]
	return b, ok
}

// Entities returns every entity spawned so far.
func (m *Memory) Entities() []SpawnedEntity {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.entities)
}

// Container returns the chest at pos, if any.
func (m *Memory) Container(pos Position) (*MemoryContainer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.containers[pos]
	return c, ok
}

type MemoryContainer struct {
	name  string
	slots []*Item

	mu sync.Mutex
}

func NewMemoryContainer(size int) *MemoryContainer {
	return &MemoryContainer{slots: make([]*Item, size)}
}

func (c *MemoryContainer) Size() int {
	return len(c.slots)
}

func (c *MemoryContainer) Item(slot int) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot < 0 || slot >= len(c.slots) || c.slots[slot] == nil {
		return Item{}, false
	}
	return *c.slots[slot], true
}

func (c *MemoryContainer) SetItem(slot int, item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot < 0 || slot >= len(c.slots) {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	c.slots[slot] = &item
	return nil
}

func (c *MemoryContainer) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.name = name
	return nil
}

func (c *MemoryContainer) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.name
}

// Items returns the occupied slots.
func (c *MemoryContainer) Items() map[int]Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := map[int]Item{}
	for i, it := range c.slots {
		if it != nil {
			items[i] = *it
		}
	}
	return items
}
