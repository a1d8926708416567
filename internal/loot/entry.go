package loot

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/katacr/go-oneblock/internal/display"
	"github.com/katacr/go-oneblock/internal/weighted"
	"github.com/katacr/go-oneblock/internal/world"
	"gopkg.in/yaml.v3"
)

const customItemNamespace = "ia"

var materialPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ItemTemplate describes the stack an entry produces.
type ItemTemplate struct {
	Material     string
	Namespace    string
	CustomID     string
	Name         string
	Lore         []string
	Enchantments map[string]int
	// Potion fields apply to potions and tipped arrows, stored enchantments
	// to enchanted books.
	PotionType         string
	Effects            []world.Effect
	StoredEnchantments map[string]int
}

// IsCustom reports whether the item comes from a content pack.
func (t ItemTemplate) IsCustom() bool {
	return t.CustomID != ""
}

func (t ItemTemplate) String() string {
	if t.IsCustom() {
		return t.Namespace + ":" + t.CustomID
	}
	return t.Material
}

// Entry is one weighted row of a loot group.
type Entry struct {
	Template ItemTemplate
	// Slot is a preferred container slot, -1 for any.
	Slot   int
	MinQty int
	MaxQty int
}

func NewEntry(material string, minQty, maxQty int) *Entry {
	return &Entry{
		Template: ItemTemplate{Material: material},
		Slot:     -1,
		MinQty:   minQty,
		MaxQty:   maxQty,
	}
}

// Build produces a stack with a random quantity. Custom items that the
// resolver doesn't know return ok == false.
func (e *Entry) Build(ctx context.Context, r weighted.Rand, items world.ItemResolver) (world.Item, bool) {
	amount := max(weighted.Between(r, e.MinQty, e.MaxQty), 1)

	var it world.Item
	if e.Template.IsCustom() {
		if items == nil {
			return world.Item{}, false
		}
		resolved, ok := items.ResolveItem(ctx, e.Template.Namespace, e.Template.CustomID)
		if !ok {
			return world.Item{}, false
		}
		it = resolved
	} else {
		it = world.Item{Material: e.Template.Material}
	}
	it.Amount = amount

	if e.Template.Name != "" {
		it.Name = display.TranslateColors(e.Template.Name)
	}
	if len(e.Template.Lore) > 0 {
		it.Lore = make([]string, len(e.Template.Lore))
		for i, l := range e.Template.Lore {
			it.Lore[i] = display.TranslateColors(l)
		}
	}
	if len(e.Template.Enchantments) > 0 {
		it.Enchantments = maps.Clone(e.Template.Enchantments)
	}
	if len(e.Template.StoredEnchantments) > 0 {
		it.StoredEnchantments = maps.Clone(e.Template.StoredEnchantments)
	}
	if e.Template.PotionType != "" {
		it.PotionType = e.Template.PotionType
	}
	if len(e.Template.Effects) > 0 {
		it.Effects = slices.Clone(e.Template.Effects)
	}
	return it, true
}

type entryDoc struct {
	Material     string         `yaml:"material"`
	Weight       *float64       `yaml:"weight"`
	Slot         *int           `yaml:"slot"`
	Min          *int           `yaml:"min"`
	Max          *int           `yaml:"max"`
	Name         string         `yaml:"name"`
	Lore         []string       `yaml:"lore"`
	Enchantments map[string]int `yaml:"enchantments"`

	StoredEnchantments map[string]int `yaml:"stored-enchantments"`
	PotionType         string         `yaml:"potion-type"`
	CustomEffects      yaml.Node      `yaml:"custom-effects"`
}

type effectDoc struct {
	Type      string `yaml:"type"`
	Duration  *int   `yaml:"duration"`
	Amplifier int    `yaml:"amplifier"`
	Ambient   bool   `yaml:"ambient"`
	Particles *bool  `yaml:"particles"`
	Icon      *bool  `yaml:"icon"`
}

const defaultEffectDuration = 200

// decodeEntries reads an items mapping into pool, skipping bad rows.
func decodeEntries(node *yaml.Node, pool *weighted.Pool[*Entry]) {
	if node.Kind != yaml.MappingNode {
		slog.Warn("loot items must be a mapping", "line", node.Line)
		return
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		entry, weight, err := decodeEntry(val)
		if err != nil {
			slog.Warn("skipping loot item", "item", key.Value, "line", val.Line, "error", err)
			continue
		}
		if weight <= 0 {
			slog.Warn("skipping loot item with non-positive weight", "item", key.Value, "weight", weight)
			continue
		}
		pool.Add(entry, weight)
	}
}

func decodeEntry(node *yaml.Node) (*Entry, float64, error) {
	var doc entryDoc
	err := node.Decode(&doc)
	if err != nil {
		return nil, 0, err
	}

	tmpl, err := parseMaterial(doc.Material)
	if err != nil {
		return nil, 0, err
	}
	tmpl.Name = doc.Name
	tmpl.Lore = doc.Lore
	tmpl.Enchantments = levels(doc.Enchantments)
	decodeItemMeta(&tmpl, &doc)

	e := &Entry{Template: tmpl, Slot: -1, MinQty: 1}
	if doc.Slot != nil {
		e.Slot = *doc.Slot
	}
	if doc.Min != nil {
		e.MinQty = *doc.Min
	}
	e.MaxQty = e.MinQty
	if doc.Max != nil {
		e.MaxQty = *doc.Max
	}
	if e.MaxQty < e.MinQty {
		return nil, 0, fmt.Errorf("%w: max %d below min %d", ErrInvalidBounds, e.MaxQty, e.MinQty)
	}

	weight := 1.0
	if doc.Weight != nil {
		weight = *doc.Weight
	}
	return e, weight, nil
}

func parseMaterial(s string) (ItemTemplate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ItemTemplate{}, fmt.Errorf("%w: missing material", ErrInvalidMaterial)
	}

	if ns, id, found := strings.Cut(s, ":"); found {
		switch strings.ToLower(ns) {
		case customItemNamespace:
			if id == "" {
				return ItemTemplate{}, fmt.Errorf("%w: %q", ErrInvalidMaterial, s)
			}
			return ItemTemplate{Namespace: customItemNamespace, CustomID: id}, nil
		case "minecraft":
			s = id
		default:
			return ItemTemplate{}, fmt.Errorf("%w: unknown namespace in %q", ErrInvalidMaterial, s)
		}
	}

	material := strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
	if !materialPattern.MatchString(material) || material == world.AirBlock {
		return ItemTemplate{}, fmt.Errorf("%w: %q", ErrInvalidMaterial, s)
	}
	return ItemTemplate{Material: material}, nil
}

func levels(in map[string]int) map[string]int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = max(v, 1)
	}
	return out
}

func isPotion(material string) bool {
	return strings.HasSuffix(material, "POTION") || material == "TIPPED_ARROW"
}

// decodeItemMeta applies the book and potion fields a material supports.
// Fields the material can't carry and unknown names are warned about and
// dropped.
func decodeItemMeta(tmpl *ItemTemplate, doc *entryDoc) {
	if len(doc.StoredEnchantments) > 0 {
		if tmpl.Material == "ENCHANTED_BOOK" {
			tmpl.StoredEnchantments = levels(doc.StoredEnchantments)
		} else {
			slog.Warn("stored-enchantments only apply to enchanted books", "material", tmpl.String())
		}
	}

	hasEffects := doc.CustomEffects.Kind != 0
	if doc.PotionType == "" && !hasEffects {
		return
	}
	if !isPotion(tmpl.Material) {
		slog.Warn("potion fields only apply to potions and tipped arrows", "material", tmpl.String())
		return
	}

	if doc.PotionType != "" {
		pt := strings.ToUpper(strings.TrimSpace(doc.PotionType))
		if materialPattern.MatchString(pt) {
			tmpl.PotionType = pt
		} else {
			slog.Warn("invalid potion type", "potion_type", doc.PotionType)
		}
	}
	if hasEffects {
		tmpl.Effects = decodeEffects(&doc.CustomEffects)
	}
}

// decodeEffects reads a custom-effects mapping in document order.
func decodeEffects(node *yaml.Node) []world.Effect {
	if node.Kind != yaml.MappingNode {
		slog.Warn("custom-effects must be a mapping", "line", node.Line)
		return nil
	}

	var effects []world.Effect
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var doc effectDoc
		err := val.Decode(&doc)
		if err != nil {
			slog.Warn("skipping potion effect", "effect", key.Value, "line", val.Line, "error", err)
			continue
		}
		typ := strings.ToUpper(strings.TrimSpace(doc.Type))
		if !materialPattern.MatchString(typ) {
			slog.Warn("skipping potion effect with invalid type", "effect", key.Value, "type", doc.Type)
			continue
		}

		eff := world.Effect{
			Type:      typ,
			Duration:  defaultEffectDuration,
			Amplifier: doc.Amplifier,
			Ambient:   doc.Ambient,
			Particles: true,
			Icon:      true,
		}
		if doc.Duration != nil {
			eff.Duration = *doc.Duration
		}
		if doc.Particles != nil {
			eff.Particles = *doc.Particles
		}
		if doc.Icon != nil {
			eff.Icon = *doc.Icon
		}
		effects = append(effects, eff)
	}
	return effects
}
