package display

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the console width output is wrapped to.
const DefaultWidth = 80

// Wrap word-wraps console output to DefaultWidth. Escape sequences do not
// count toward the width.
func Wrap(text string) string {
	return WrapTo(text, DefaultWidth)
}

// WrapTo word-wraps text to width columns. Lines are broken on spaces and
// hyphens.
func WrapTo(text string, width int) string {
	if width <= 0 {
		return text
	}
	ww := wordwrap.NewWriter(width)
	ww.Breakpoints = []rune{'-'}
	_, _ = ww.Write([]byte(text))
	_ = ww.Close()
	return ww.String()
}

// Capitalize upper cases the first letter of an error or status line,
// leaving the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsUpper(r) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(s[size:])
	return b.String()
}
