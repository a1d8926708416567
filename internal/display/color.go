package display

import "strings"

const (
	altColorChar = '&'
	colorChar    = '§'

	colorCodes = "0123456789abcdefklmnor"
)

// ansi maps each color code to its terminal escape.
var ansi = map[byte]string{
	'0': "\x1b[30m", '1': "\x1b[34m", '2': "\x1b[32m", '3': "\x1b[36m",
	'4': "\x1b[31m", '5': "\x1b[35m", '6': "\x1b[33m", '7': "\x1b[37m",
	'8': "\x1b[90m", '9': "\x1b[94m", 'a': "\x1b[92m", 'b': "\x1b[96m",
	'c': "\x1b[91m", 'd': "\x1b[95m", 'e': "\x1b[93m", 'f': "\x1b[97m",
	'k': "", 'l': "\x1b[1m", 'm': "\x1b[9m", 'n': "\x1b[4m",
	'o': "\x1b[3m", 'r': "\x1b[0m",
}

// TranslateColors replaces '&' color codes ("&aHello") with the '§' codes
// game clients render. An '&' not followed by a code is left alone.
func TranslateColors(s string) string {
	return replaceCodes(s, altColorChar, func(code byte) string {
		return string(colorChar) + string(code)
	})
}

// ToANSI converts '&' and '§' color codes to terminal escapes.
func ToANSI(s string) string {
	s = strings.ReplaceAll(s, string(colorChar), string(altColorChar))
	out := replaceCodes(s, altColorChar, func(code byte) string {
		return ansi[code]
	})
	if out != s {
		out += ansi['r']
	}
	return out
}

// StripColors removes '&' and '§' color codes.
func StripColors(s string) string {
	s = strings.ReplaceAll(s, string(colorChar), string(altColorChar))
	return replaceCodes(s, altColorChar, func(byte) string { return "" })
}

func replaceCodes(s string, marker byte, repl func(code byte) string) string {
	if strings.IndexByte(s, marker) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == marker && i+1 < len(s) {
			code := lower(s[i+1])
			if strings.IndexByte(colorCodes, code) >= 0 {
				b.WriteString(repl(code))
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
