package loot

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
)

const FallbackID = "fallback"

// Catalog holds every chest document in a directory. When none load the
// built-in fallback chest is the only entry.
type Catalog struct {
	store   *storage.FileStore[*ChestConfig]
	configs map[string]*ChestConfig
	ids     []string

	mu sync.RWMutex
}

func NewCatalog(dir string) (*Catalog, error) {
	store, err := storage.NewFileStore[*ChestConfig](dir)
	if err != nil {
		return nil, fmt.Errorf("creating chest store: %w", err)
	}

	c := &Catalog{store: store}
	c.Reload()
	return c, nil
}

// Reload rereads every chest document. Broken documents are logged and left out.
func (c *Catalog) Reload() {
	c.store.Invalidate()

	loaded, err := c.store.GetAll()
	if err != nil {
		slog.Warn("loading chest configs", "path", c.store.Path(), "error", err)
	}

	configs := make(map[string]*ChestConfig, len(loaded))
	for id, cfg := range loaded {
		configs[id.String()] = cfg
	}
	if len(configs) == 0 {
		slog.Warn("no chest configs found, using fallback", "path", c.store.Path())
		configs[FallbackID] = Fallback()
	}

	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.configs = configs
	c.ids = ids
	slog.Info("chest configs loaded", "count", len(configs))
}

// Get returns the chest config for id. Unknown ids get the fallback chest.
func (c *Catalog) Get(id string) *ChestConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if cfg, ok := c.configs[storage.Canonical(id).String()]; ok {
		return cfg
	}

	slog.Warn("chest config not found, using fallback", "chest", id)
	if cfg, ok := c.configs[FallbackID]; ok {
		return cfg
	}
	return Fallback()
}

func (c *Catalog) Exists(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.configs[storage.Canonical(id).String()]
	return ok
}

// IDs returns the loaded chest ids, sorted.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.ids)
}

// RandomID picks a loaded chest id uniformly.
func (c *Catalog) RandomID(r weighted.Rand) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.ids) == 0 {
		return FallbackID
	}
	return c.ids[r.IntN(len(c.ids))]
}
