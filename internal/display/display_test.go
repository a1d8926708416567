package display

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestTranslateColors(t *testing.T) {
	tests := map[string]struct {
		input string
		exp   string
	}{
		"no codes":        {input: "plain text", exp: "plain text"},
		"single code":     {input: "&aGreen", exp: "§aGreen"},
		"upper case code": {input: "&LBold", exp: "§lBold"},
		"not a code":      {input: "rock & roll", exp: "rock & roll"},
		"trailing marker": {input: "end&", exp: "end&"},
		"several codes":   {input: "&6Gold &r&fWhite", exp: "§6Gold §r§fWhite"},
		"unknown letter":  {input: "&zzz", exp: "&zzz"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "translated", TranslateColors(tt.input), tt.exp)
		})
	}
}

func TestStripColors(t *testing.T) {
	testutil.AssertEqual(t, "stripped", StripColors("&aWelcome §lto&r the nether"), "Welcome to the nether")
}

func TestToANSI(t *testing.T) {
	out := ToANSI("&cHot")
	testutil.AssertEqual(t, "ansi", out, "\x1b[91mHot\x1b[0m")
	testutil.AssertEqual(t, "plain", ToANSI("Plain"), "Plain")
}

func TestFormatBlockName(t *testing.T) {
	tests := map[string]struct {
		input string
		exp   string
	}{
		"vanilla":     {input: "DIAMOND_ORE", exp: "Diamond Ore"},
		"single word": {input: "STONE", exp: "Stone"},
		"custom":      {input: "ia:ruby_ore", exp: "Ruby Ore"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "name", FormatBlockName(tt.input), tt.exp)
		})
	}
}

func TestExpand(t *testing.T) {
	tests := map[string]struct {
		tmpl   string
		data   any
		exp    string
		expErr string
	}{
		"no markers": {
			tmpl: "Block transformed",
			exp:  "Block transformed",
		},
		"field": {
			tmpl: "Now entering {{ .Stage }}",
			data: map[string]string{"Stage": "nether"},
			exp:  "Now entering nether",
		},
		"sprig function": {
			tmpl: "{{ .Block | upper }}",
			data: map[string]string{"Block": "stone"},
			exp:  "STONE",
		},
		"bad template": {
			tmpl:   "{{ .Stage",
			expErr: "parsing template",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out, err := Expand(tt.tmpl, tt.data)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "expanded", out, tt.exp)
		})
	}
}

func TestWrap(t *testing.T) {
	long := strings.Repeat("stone ", 30)
	for _, line := range strings.Split(Wrap(long), "\n") {
		if len(line) > DefaultWidth {
			t.Errorf("line longer than %d: %q", DefaultWidth, line)
		}
	}
	testutil.AssertEqual(t, "narrow", WrapTo("aaa bbb ccc", 7), "aaa bbb\nccc")
	testutil.AssertEqual(t, "no width", WrapTo("iron ore", 0), "iron ore")
}

func TestCapitalize(t *testing.T) {
	tests := map[string]struct {
		in  string
		exp string
	}{
		"lower":   {in: "nether", exp: "Nether"},
		"empty":   {in: "", exp: ""},
		"upper":   {in: "End", exp: "End"},
		"unicode": {in: "élytra", exp: "Élytra"},
		"digit":   {in: "2 stages", exp: "2 stages"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "capitalized", Capitalize(tt.in), tt.exp)
		})
	}
}
