package display

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatBlockName turns a block id into a readable name:
// "DIAMOND_ORE" becomes "Diamond Ore", "ia:ruby_ore" becomes "Ruby Ore".
func FormatBlockName(block string) string {
	if _, id, found := strings.Cut(block, ":"); found {
		block = id
	}
	words := strings.ReplaceAll(strings.TrimSpace(block), "_", " ")
	return cases.Title(language.English).String(strings.ToLower(words))
}
