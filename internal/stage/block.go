package stage

import (
	"fmt"
	"regexp"
	"strings"
)

var materialPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

const (
	vanillaNamespace = "minecraft"
	customNamespace  = "ia"
)

type BlockKind int

const (
	BlockVanilla BlockKind = iota
	BlockCustom
)

// BlockRef names a block the world can place. Vanilla blocks carry an upper
// case material name, custom blocks a namespace and an id.
type BlockRef struct {
	Kind      BlockKind
	Namespace string
	ID        string
}

func Vanilla(id string) BlockRef {
	return BlockRef{Kind: BlockVanilla, ID: id}
}

func Custom(namespace, id string) BlockRef {
	return BlockRef{Kind: BlockCustom, Namespace: namespace, ID: id}
}

// ParseBlockRef resolves a configured block identifier. Names are matched
// case insensitively: "stone", "STONE" and "minecraft:stone" all resolve to
// Vanilla("STONE"). "ia:ruby_ore" resolves to Custom("ia", "ruby_ore").
func ParseBlockRef(s string) (BlockRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BlockRef{}, fmt.Errorf("%w: empty name", ErrInvalidBlock)
	}

	ns, id, found := strings.Cut(s, ":")
	if !found {
		ns, id = vanillaNamespace, s
	}
	ns = strings.ToLower(ns)

	switch ns {
	case vanillaNamespace:
		material := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(id), " ", "_"))
		if !materialPattern.MatchString(material) {
			return BlockRef{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
		}
		return Vanilla(material), nil

	case customNamespace:
		if id == "" || strings.ContainsAny(id, " :") {
			return BlockRef{}, fmt.Errorf("%w: %q", ErrInvalidBlock, s)
		}
		return Custom(ns, id), nil

	default:
		return BlockRef{}, fmt.Errorf("%w: unknown namespace %q", ErrInvalidBlock, ns)
	}
}

// MustParseBlockRef is ParseBlockRef for identifiers known to be valid.
func MustParseBlockRef(s string) BlockRef {
	b, err := ParseBlockRef(s)
	if err != nil {
		panic(err)
	}
	return b
}

func (b BlockRef) IsZero() bool {
	return b.ID == ""
}

func (b BlockRef) IsCustom() bool {
	return b.Kind == BlockCustom
}

func (b BlockRef) String() string {
	if b.Kind == BlockCustom {
		return b.Namespace + ":" + b.ID
	}
	return b.ID
}
