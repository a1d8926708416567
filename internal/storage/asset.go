package storage

import (
	"reflect"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DocumentExt is the suffix appended to identifiers to locate their document.
const DocumentExt = ".yml"

type ValidatingSpec interface {
	Validate() error
}

// Identified is implemented by specs that want to know the id they were loaded under.
type Identified interface {
	SetIdentifier(Identifier)
}

type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// FileName returns the document name for the identifier.
func (id Identifier) FileName() string {
	return string(id) + DocumentExt
}

// Valid reports whether the identifier is safe to use as a file name.
func (id Identifier) Valid() bool {
	return identifierPattern.MatchString(string(id))
}

// Canonical normalizes a user or config supplied id: surrounding space and
// any document suffix are removed, so "normal", "normal.yml" and
// "normal.yaml" all name the same document.
func Canonical(id string) Identifier {
	id = strings.TrimSpace(id)
	for _, ext := range []string{".yml", ".yaml"} {
		if strings.HasSuffix(strings.ToLower(id), ext) {
			id = id[:len(id)-len(ext)]
			break
		}
	}
	return Identifier(id)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
