package storage

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/katacr/go-oneblock/internal/prompt"
)

const (
	menuWidth   = 80
	menuMinRows = 5
	menuTries   = 3
)

type lister interface {
	Keys() ([]Identifier, error)
}

// Menu lists the documents of a store as numbered columns. Options are
// chosen by number or by name.
type Menu struct {
	options []Identifier
	rows    []string
}

func NewMenu(l lister) (*Menu, error) {
	keys, err := l.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing options: %w", err)
	}

	keys = slices.Clone(keys)
	slices.Sort(keys)

	m := &Menu{options: keys}
	m.layout()
	return m, nil
}

// layout fills columns top to bottom, adding rows only when the options do
// not fit in menuWidth.
func (m *Menu) layout() {
	// "nn. " before each option and two spaces after it.
	cell := 1
	for _, v := range m.options {
		cell = max(cell, len(v)+6)
	}

	cols := max(menuWidth/cell, 1)
	rows := max((len(m.options)+cols-1)/cols, menuMinRows)

	m.rows = make([]string, rows)
	for i, v := range m.options {
		m.rows[i%rows] += fmt.Sprintf("%2d. %-*s  ", i+1, cell-6, v)
	}
	for i := range m.rows {
		m.rows[i] = strings.TrimRight(m.rows[i], " ")
	}
}

// Len returns the number of options.
func (m *Menu) Len() int {
	return len(m.options)
}

// Prompt shows the menu under title and waits for a valid choice.
func (m *Menu) Prompt(rw io.ReadWriter, title string) (Identifier, error) {
	if len(m.options) == 0 {
		return "", fmt.Errorf("nothing to select")
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	for _, row := range m.rows {
		if row != "" {
			b.WriteString(row + "\n")
		}
	}
	_, err := io.WriteString(rw, b.String())
	if err != nil {
		return "", err
	}

	answer, err := prompt.Line(rw, "Make your selection: ",
		prompt.WithMaxTries(menuTries),
		prompt.WithValidator(func(s string) (bool, string) {
			if m.Choose(s) == "" {
				return false, "Invalid selection!\n"
			}
			return true, ""
		}),
	)
	if err != nil {
		return "", err
	}

	return m.Choose(answer), nil
}

// Choose resolves an answer given as a menu number or an option name.
func (m *Menu) Choose(answer string) Identifier {
	answer = strings.TrimSpace(answer)
	if i, err := strconv.Atoi(answer); err == nil {
		return m.Select(i)
	}
	for _, o := range m.options {
		if strings.EqualFold(o.String(), answer) {
			return o
		}
	}
	return ""
}

// Select returns the option numbered i, counting from one.
func (m *Menu) Select(i int) Identifier {
	if i < 1 || i > len(m.options) {
		return ""
	}
	return m.options[i-1]
}
