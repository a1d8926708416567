package loot

import (
	"fmt"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMinItems = 3
	DefaultMaxItems = 6
	DefaultName     = "Chest"

	// GlobalGroup holds the top level items of a chest document.
	GlobalGroup = "global"
)

// Group draws between Min and Max entries from Items.
type Group struct {
	ID    string
	Min   int
	Max   int
	Items *weighted.Pool[*Entry]
}

// ChestConfig is a loot chest document.
type ChestConfig struct {
	ID   string
	Name string
	Min  int
	Max  int

	// Groups keeps document order.
	Groups []*Group
}

func (c *ChestConfig) SetIdentifier(id storage.Identifier) {
	c.ID = id.String()
}

func (c *ChestConfig) Validate() error {
	if c.Min < 0 || c.Max < c.Min {
		return fmt.Errorf("%w: amount %d..%d", ErrInvalidBounds, c.Min, c.Max)
	}
	return nil
}

type boundsDoc struct {
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

func (b boundsDoc) resolve(defMin, defMax int) (int, int) {
	lo, hi := defMin, defMax
	if b.Min != nil {
		lo = *b.Min
	}
	if b.Max != nil {
		hi = *b.Max
	}
	return lo, hi
}

func (c *ChestConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: chest document must be a mapping", node.Line)
	}

	c.Name = DefaultName
	c.Min, c.Max = DefaultMinItems, DefaultMaxItems

	var groups, items *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		switch key.Value {
		case "name":
			if val.Kind == yaml.ScalarNode {
				c.Name = val.Value
			}
		case "amount":
			var b boundsDoc
			if err := val.Decode(&b); err != nil {
				slog.Warn("ignoring chest amount", "line", val.Line, "error", err)
				continue
			}
			c.Min, c.Max = b.resolve(DefaultMinItems, DefaultMaxItems)
		case "groups":
			groups = val
		case "items":
			items = val
		}
	}

	// Groups default to the chest's amount, so they are read after it.
	if groups != nil {
		c.decodeGroups(groups)
	}
	if items != nil {
		g := &Group{ID: GlobalGroup, Min: c.Min, Max: c.Max, Items: weighted.NewPool[*Entry]()}
		decodeEntries(items, g.Items)
		c.Groups = append(c.Groups, g)
	}

	return nil
}

func (c *ChestConfig) decodeGroups(node *yaml.Node) {
	if node.Kind != yaml.MappingNode {
		slog.Warn("chest groups must be a mapping", "line", node.Line)
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.MappingNode {
			slog.Warn("skipping chest group", "group", key.Value, "line", val.Line)
			continue
		}

		var b boundsDoc
		if err := val.Decode(&b); err != nil {
			slog.Warn("skipping chest group", "group", key.Value, "line", val.Line, "error", err)
			continue
		}

		g := &Group{ID: key.Value, Items: weighted.NewPool[*Entry]()}
		g.Min, g.Max = b.resolve(c.Min, c.Max)
		if g.Min < 0 || g.Max < g.Min {
			slog.Warn("skipping chest group with bad bounds", "group", key.Value, "min", g.Min, "max", g.Max)
			continue
		}

		for j := 0; j+1 < len(val.Content); j += 2 {
			if val.Content[j].Value == "items" {
				decodeEntries(val.Content[j+1], g.Items)
			}
		}
		c.Groups = append(c.Groups, g)
	}
}

// Fallback is the chest used when no chest documents load.
func Fallback() *ChestConfig {
	g := &Group{ID: GlobalGroup, Min: DefaultMinItems, Max: DefaultMaxItems, Items: weighted.NewPool[*Entry]()}
	g.Items.Add(NewEntry("STONE", 1, 5), 10)
	g.Items.Add(NewEntry("DIRT", 3, 7), 8)
	g.Items.Add(NewEntry("COAL", 1, 3), 5)
	g.Items.Add(NewEntry("IRON_INGOT", 1, 1), 3)
	g.Items.Add(NewEntry("GOLD_INGOT", 1, 1), 2)
	g.Items.Add(NewEntry("DIAMOND", 1, 1), 1)

	return &ChestConfig{
		ID:     FallbackID,
		Name:   "&6Treasure Chest",
		Min:    DefaultMinItems,
		Max:    DefaultMaxItems,
		Groups: []*Group{g},
	}
}
