package prompt

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var ErrTooManyTries = errors.New("too many tries")

// Validator reports whether an answer is acceptable and, if not, what to
// tell the user.
type Validator func(string) (bool, string)

type config struct {
	tries     int
	validator Validator
}

type Opt func(*config)

func WithValidator(v Validator) Opt {
	return func(cfg *config) {
		cfg.validator = v
	}
}

// WithMaxTries gives up after i rejected answers. Zero retries forever.
func WithMaxTries(i int) Opt {
	return func(cfg *config) {
		cfg.tries = i
	}
}

// Conn is a session connection whose reads are buffered across prompts.
// Input that arrives ahead of a prompt is kept for the next one.
type Conn struct {
	r *bufio.Reader
	w io.Writer
}

// Wrap returns rw as a Conn. A Conn is returned unchanged so nested
// prompts share one buffer.
func Wrap(rw io.ReadWriter) *Conn {
	if c, ok := rw.(*Conn); ok {
		return c
	}
	return &Conn{r: bufio.NewReader(rw), w: rw}
}

func (c *Conn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *Conn) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

// Line writes prompt and returns the next line without its terminator.
func (c *Conn) Line(prompt string, opts ...Opt) (string, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	tries := 0
	for {
		_, err := io.WriteString(c.w, prompt)
		if err != nil {
			return "", err
		}

		input, err := c.readLine()
		if err != nil {
			return "", err
		}

		if cfg.validator != nil {
			ok, msg := cfg.validator(input)
			if !ok {
				_, err = io.WriteString(c.w, msg)
				if err != nil {
					return "", err
				}

				tries++
				if cfg.tries > 0 && tries >= cfg.tries {
					return "", ErrTooManyTries
				}
				continue
			}
		}

		return input, nil
	}
}

// YesNo asks until the answer is yes or no.
func (c *Conn) YesNo(prompt string) (bool, error) {
	str, err := c.Line(prompt, WithValidator(func(s string) (bool, string) {
		if _, ok := parseYesNo(s); ok {
			return true, ""
		}
		return false, "enter 'yes' or 'no'\n"
	}))
	if err != nil {
		return false, err
	}

	yes, _ := parseYesNo(str)
	return yes, nil
}

func (c *Conn) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}

// Line prompts once on rw.
func Line(rw io.ReadWriter, prompt string, opts ...Opt) (string, error) {
	return Wrap(rw).Line(prompt, opts...)
}

// YesNo asks a yes or no question on rw.
func YesNo(rw io.ReadWriter, prompt string) (bool, error) {
	return Wrap(rw).YesNo(prompt)
}
