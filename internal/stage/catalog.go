package stage

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/katacr/go-oneblock/internal/storage"
)

const (
	DefaultInitialStage = "normal"
	maxSuggestions      = 3
)

var DefaultBlock = Vanilla("STONE")

// Catalog loads stage documents on demand and caches the ones that parse.
type Catalog struct {
	store        *storage.FileStore[*Definition]
	initial      string
	defaultBlock BlockRef
}

type CatalogOpt func(*Catalog)

// WithInitialStage sets the stage new players start on.
func WithInitialStage(id string) CatalogOpt {
	return func(c *Catalog) {
		if id != "" {
			c.initial = storage.Canonical(id).String()
		}
	}
}

// WithDefaultBlock sets the block used when a stage's block table is empty.
func WithDefaultBlock(b BlockRef) CatalogOpt {
	return func(c *Catalog) {
		if !b.IsZero() {
			c.defaultBlock = b
		}
	}
}

func NewCatalog(dir string, opts ...CatalogOpt) (*Catalog, error) {
	store, err := storage.NewFileStore[*Definition](dir)
	if err != nil {
		return nil, fmt.Errorf("creating stage store: %w", err)
	}

	c := &Catalog{
		store:        store,
		initial:      DefaultInitialStage,
		defaultBlock: DefaultBlock,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Load returns the definition for id. "normal" and "normal.yml" are the same
// stage. Missing or broken documents return ErrStageNotFound and are retried
// on the next call.
func (c *Catalog) Load(id string) (*Definition, error) {
	def, err := c.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrStageNotFound, storage.Canonical(id), err)
	}
	return def, nil
}

// Invalidate drops every cached definition.
func (c *Catalog) Invalidate() {
	c.store.Invalidate()
	slog.Debug("stage cache cleared", "path", c.store.Path())
}

func (c *Catalog) Initial() string {
	return c.initial
}

func (c *Catalog) DefaultBlock() BlockRef {
	return c.defaultBlock
}

func (c *Catalog) Exists(id string) bool {
	return c.store.Exists(id)
}

// Keys lists the stage ids found on disk.
func (c *Catalog) Keys() ([]storage.Identifier, error) {
	return c.store.Keys()
}

// IDs lists the stage ids found on disk as strings.
func (c *Catalog) IDs() ([]string, error) {
	keys, err := c.store.Keys()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.String()
	}
	return ids, nil
}

// Suggest returns the known stage ids closest to id, best match first.
func (c *Catalog) Suggest(id string) []string {
	ids, err := c.IDs()
	if err != nil {
		slog.Warn("listing stages for suggestion", "error", err)
		return nil
	}
	return closest(strings.ToLower(storage.Canonical(id).String()), ids)
}

func closest(target string, candidates []string) []string {
	type scored struct {
		id   string
		dist int
	}

	limit := max(2, len(target)/3)
	var matches []scored
	for _, cand := range candidates {
		lc := strings.ToLower(cand)
		d := levenshtein.ComputeDistance(target, lc)
		if target != "" && strings.HasPrefix(lc, target) {
			d = 0
		}
		if d <= limit {
			matches = append(matches, scored{id: cand, dist: d})
		}
	}

	slices.SortStableFunc(matches, func(a, b scored) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.id, b.id)
	})

	var out []string
	for _, m := range matches {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, m.id)
	}
	return out
}
