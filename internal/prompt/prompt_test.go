package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

type conn struct {
	in  io.Reader
	out bytes.Buffer
}

func (c *conn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *conn) Write(p []byte) (int, error) { return c.out.Write(p) }

func newConn(input string) *conn {
	return &conn{in: strings.NewReader(input)}
}

func TestConn_Line(t *testing.T) {
	digits := func(s string) (bool, string) {
		if s == "" || strings.Trim(s, "0123456789") != "" {
			return false, "digits only\n"
		}
		return true, ""
	}

	tests := map[string]struct {
		input  string
		opts   []Opt
		exp    string
		expOut string
		expErr string
	}{
		"plain line": {
			input:  "hello\n",
			exp:    "hello",
			expOut: "> ",
		},
		"crlf trimmed": {
			input: "hello\r\n",
			exp:   "hello",
		},
		"last line without newline": {
			input: "hello",
			exp:   "hello",
		},
		"eof": {
			input:  "",
			expErr: "EOF",
		},
		"retries until valid": {
			input:  "abc\n12\n",
			opts:   []Opt{WithValidator(digits)},
			exp:    "12",
			expOut: "> digits only\n> ",
		},
		"too many tries": {
			input:  "a\nb\nc\n",
			opts:   []Opt{WithValidator(digits), WithMaxTries(2)},
			expErr: "too many tries",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newConn(tt.input)
			got, err := Wrap(c).Line("> ", tt.opts...)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "line", got, tt.exp)
			if tt.expOut != "" {
				testutil.AssertEqual(t, "output", c.out.String(), tt.expOut)
			}
		})
	}
}

func TestConn_BufferedAcrossPrompts(t *testing.T) {
	c := Wrap(newConn("first\nsecond\n"))

	got, err := c.Line("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "first", got, "first")

	got, err = Line(c, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "second", got, "second")
}

func TestYesNo(t *testing.T) {
	tests := map[string]struct {
		input string
		exp   bool
	}{
		"yes":           {input: "yes\n", exp: true},
		"short yes":     {input: "Y\n", exp: true},
		"no":            {input: "no\n", exp: false},
		"retry then no": {input: "maybe\nn\n", exp: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := YesNo(newConn(tt.input), "? ")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "answer", got, tt.exp)
		})
	}
}
