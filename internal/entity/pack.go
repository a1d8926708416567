package entity

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
	"gopkg.in/yaml.v3"
)

const (
	DefaultType   = "ZOMBIE"
	DefaultWeight = 10
)

var (
	typePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	armorSlots  = []string{"helmet", "chestplate", "leggings", "boots", "mainhand", "offhand"}
)

// Mob is one weighted row of an entity pack.
type Mob struct {
	Key   string
	Type  string
	Name  string
	Armor map[string]string
}

// Spec converts the mob into what the world spawns.
func (m *Mob) Spec() world.EntitySpec {
	spec := world.EntitySpec{Type: m.Type, Name: m.Name}
	if len(m.Armor) > 0 {
		spec.Armor = make(map[string]string, len(m.Armor))
		for k, v := range m.Armor {
			spec.Armor[k] = v
		}
	}
	return spec
}

// Pack is an entity pack document.
type Pack struct {
	ID   string
	Mobs *weighted.Pool[*Mob]
}

func (p *Pack) SetIdentifier(id storage.Identifier) {
	p.ID = id.String()
}

func (p *Pack) Validate() error {
	return nil
}

type mobDoc struct {
	Type   string            `yaml:"type"`
	Name   string            `yaml:"name"`
	Weight *int              `yaml:"weight"`
	Armors map[string]string `yaml:"armors"`
}

func (p *Pack) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: entity pack must be a mapping", node.Line)
	}

	p.Mobs = weighted.NewPool[*Mob]()

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "list" {
			continue
		}
		list := node.Content[i+1]
		if list.Kind != yaml.MappingNode {
			slog.Warn("entity list must be a mapping", "line", list.Line)
			continue
		}

		for j := 0; j+1 < len(list.Content); j += 2 {
			key, val := list.Content[j], list.Content[j+1]
			mob, weight, err := decodeMob(key.Value, val)
			if err != nil {
				slog.Warn("skipping entity", "entity", key.Value, "line", val.Line, "error", err)
				continue
			}
			if weight <= 0 {
				slog.Warn("skipping entity with non-positive weight", "entity", key.Value, "weight", weight)
				continue
			}
			p.Mobs.Add(mob, float64(weight))
		}
	}
	return nil
}

func decodeMob(key string, node *yaml.Node) (*Mob, int, error) {
	var doc mobDoc
	err := node.Decode(&doc)
	if err != nil {
		return nil, 0, err
	}

	mob := &Mob{Key: key, Name: doc.Name, Type: DefaultType}
	if doc.Type != "" {
		t := strings.ToUpper(strings.TrimSpace(doc.Type))
		if typePattern.MatchString(t) {
			mob.Type = t
		} else {
			slog.Warn("unknown entity type, using default", "entity", key, "type", doc.Type, "default", DefaultType)
		}
	}

	for slot, material := range doc.Armors {
		slot = strings.ToLower(slot)
		if !slices.Contains(armorSlots, slot) {
			slog.Warn("ignoring unknown armor slot", "entity", key, "slot", slot)
			continue
		}
		if mob.Armor == nil {
			mob.Armor = map[string]string{}
		}
		mob.Armor[slot] = strings.ToUpper(material)
	}

	weight := DefaultWeight
	if doc.Weight != nil {
		weight = *doc.Weight
	}
	return mob, weight, nil
}
